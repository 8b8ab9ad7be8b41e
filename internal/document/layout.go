package document

import (
	"html/template"
	"strings"
)

// Layout is the subject-dependent presentation of a lesson document
type Layout struct {
	Name         string
	Template     string
	LanguageKey  string // key into teacherInfo.json
	SubjectLabel string
	Dir          string
	Start        string
	Font         template.CSS
	Accent       template.CSS
	Labels       Labels
}

// Labels are the fixed captions printed around the generated content
type Labels struct {
	Level     string
	Period    string
	Week      string
	Session   string
	Objective string
	Step      string
	Duration  string
	Content   string
}

var (
	frenchLabels = Labels{
		Level:     "Niveau",
		Period:    "Période",
		Week:      "Semaine",
		Session:   "Séance",
		Objective: "Objectif",
		Step:      "Étape",
		Duration:  "Durée",
		Content:   "Déroulement",
	}
	arabicLabels = Labels{
		Level:     "المستوى",
		Period:    "المرحلة",
		Week:      "الأسبوع",
		Session:   "الحصة",
		Objective: "الهدف",
		Step:      "المرحلة",
		Duration:  "المدة",
		Content:   "أنشطة التلاميذ",
	}
)

var (
	layoutFrench = Layout{
		Name:         "french",
		Template:     "french.html",
		LanguageKey:  "fr",
		SubjectLabel: "Français",
		Dir:          "ltr",
		Start:        "left",
		Font:         "Arial, Helvetica, sans-serif",
		Accent:       "#1f4e79",
		Labels:       frenchLabels,
	}
	layoutArabic = Layout{
		Name:         "arabic",
		Template:     "arabic.html",
		LanguageKey:  "ar",
		SubjectLabel: "اللغة العربية",
		Dir:          "rtl",
		Start:        "right",
		Font:         "Amiri, Tahoma, Arial, sans-serif",
		Accent:       "#6a1b9a",
		Labels:       arabicLabels,
	}
	layoutMath = Layout{
		Name:         "math",
		Template:     "math.html",
		LanguageKey:  "ar",
		SubjectLabel: "الرياضيات",
		Dir:          "rtl",
		Start:        "right",
		Font:         "Tahoma, Arial, sans-serif",
		Accent:       "#2e7d32",
		Labels:       arabicLabels,
	}
)

// LayoutFor picks the template for a subject. Math is checked before
// Arabic so "Mathématiques (arabe)" still gets the math layout.
func LayoutFor(subject string) Layout {
	s := strings.ToLower(subject)
	switch {
	case strings.Contains(s, "math") || strings.Contains(s, "رياضيات"):
		return layoutMath
	case strings.Contains(s, "arabe") || strings.Contains(s, "عربية"):
		return layoutArabic
	default:
		return layoutFrench
	}
}
