package services

import (
	"fmt"
	"strings"

	"cahier/internal/models"
)

// promptStyle holds the language-dependent parts of the generation prompt
type promptStyle struct {
	objectiveExamples []string
	placeholder       string
	phrasing          string
	phrasingExamples  []string
	extraRules        []string
	sampleContent     string
}

var promptStyles = map[string]promptStyle{
	"Arabic": {
		objectiveExamples: []string{
			"تعلم قراءة وكتابة الأعداد من الملايين بالأرقام والحروف",
			"حل مسائل متعلقة بوضعية البحث عن الكل أو الجزء",
		},
		placeholder: `"هدف الدرس" or "......"`,
		phrasing:    `Start sentences with "يقوم التلاميذ بـ..." or "يبدأ التلاميذ..." or "يشارك التلاميذ...".`,
		phrasingExamples: []string{
			"يبدأ التلاميذ بحساب ذهني سريع، ويكتبون النتائج على ألواحهم ثم يصححون بشكل جماعي.",
			"يقرأ التلاميذ النص ويستخرجون الكلمات الصعبة.",
		},
		extraRules: []string{
			`For the step "الافتتاح" the content MUST mention correcting homework and mental arithmetic (تصحيح الواجبات المنزلية والحساب الذهني), adapted to the lesson.`,
			`For the step "النمذجة" students do not participate: state that they listen attentively to the teacher's explanation (ينتبهون للشرح).`,
		},
		sampleContent: "يبدأ التلاميذ بحساب ذهني...",
	},
	"French": {
		objectiveExamples: []string{
			"Utiliser les indicateurs de lieu et leurs contraires",
			"Lire et comprendre des phrases sur les déplacements",
		},
		placeholder: `"Objectif de la leçon" or "......"`,
		phrasing:    `Start sentences with "Les élèves [action]...".`,
		phrasingExamples: []string{
			"Les élèves lisent un texte sur les déplacements et identifient les phrases clés.",
			"Les élèves rédigent un paragraphe en utilisant des mots donnés.",
		},
		extraRules: []string{
			"Use Moroccan French teaching style (action-based, classroom-focused).",
		},
		sampleContent: "Les élèves observent l'image...",
	},
}

// buildLessonPrompt returns the system and user messages for a generation
func buildLessonPrompt(req models.GenerateRequest, language string, steps []string) (string, string) {
	style, ok := promptStyles[language]
	if !ok {
		style = promptStyles["French"]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are a teaching assistant generating structured lesson data for a lesson in %s.\n\n", language)
	b.WriteString("Return only valid JSON, no markdown, no extra text.\n\n")

	if len(steps) > 0 {
		b.WriteString("IMPORTANT: You MUST use EXACTLY these lesson steps in this order:\n")
		for _, step := range steps {
			fmt.Fprintf(&b, "- %s\n", step)
		}
		b.WriteString("\nFor each step, extract relevant content from the slides and assign a realistic duration.\n\n")
	}

	fmt.Fprintf(&b, `Each step has:
- name (exactly as specified above)
- duration (e.g. "10min", "20min")
- icon (one emoji)
- content (description in %s based on the slides)

OBJECTIVE: extract the main pedagogical objective from the lesson content. It must be specific, measurable and action-oriented.
`, language)
	for _, ex := range style.objectiveExamples {
		fmt.Fprintf(&b, "Example: %q\n", ex)
	}
	fmt.Fprintf(&b, "If no explicit objective is found, infer it from the title and content. Never use placeholders like %s.\n\n", style.placeholder)

	fmt.Fprintf(&b, "PHRASING: describe what the students do. %s\n", style.phrasing)
	for _, ex := range style.phrasingExamples {
		fmt.Fprintf(&b, "Example: %q\n", ex)
	}
	b.WriteString("Avoid passive voice and do not copy the slide text.\n\n")

	for _, rule := range style.extraRules {
		fmt.Fprintf(&b, "- %s\n", rule)
	}

	fmt.Fprintf(&b, `
Follow exactly this structure:
{
  "lesson_data": {
    "subject": %q,
    "level": %q,
    "period": %q,
    "week": %q,
    "session": %q,
    "objective": "...",
    "steps": [
      {"name": "Step Name", "duration": "10min", "icon": "📝", "content": %q}
    ]
  }
}

Rules:
- All text must be in %s
- Use ONLY the specified lesson steps
- Output must be strictly valid JSON, never wrapped in code fences
- Do not add explanations before or after the JSON

Lesson title: %s

Lesson slides content:
%s
`, req.Subject, req.Level, req.Period, req.Week, req.Session, style.sampleContent, language, req.Title, req.Content)

	system := fmt.Sprintf("You generate structured JSON for a teacher's lesson journal in %s.", language)
	return system, b.String()
}
