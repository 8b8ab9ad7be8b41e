package utils

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"cahier/internal/models"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// DefaultSubject is used when the filename names no known subject
	DefaultSubject = "Français"
	// DefaultLevel is used when the filename carries no level
	DefaultLevel = "1"

	SubjectFrench = "Français"
	SubjectMath   = "Mathématiques"
	SubjectArabic = "Langue arabe"
)

// subjectAliases maps folded spellings to canonical subject labels
var subjectAliases = map[string]string{
	"francais":      SubjectFrench,
	"french":        SubjectFrench,
	"fr":            SubjectFrench,
	"math":          SubjectMath,
	"maths":         SubjectMath,
	"mathematiques": SubjectMath,
	"arabe":         SubjectArabic,
	"arabic":        SubjectArabic,
	"languearabe":   SubjectArabic,
	"ar":            SubjectArabic,
}

// tagged convention: Français_Niv5_Periode2_Semaine3_Séance1.pptx
var taggedFields = []struct {
	prefixes []string
	assign   func(*models.LessonMetadata, string)
}{
	{[]string{"niveau", "niv"}, func(m *models.LessonMetadata, v string) { m.Level = v }},
	{[]string{"periode", "parcours", "parcour"}, func(m *models.LessonMetadata, v string) { m.Period = v }},
	{[]string{"semaine", "palier", "sem"}, func(m *models.LessonMetadata, v string) { m.Week = v }},
	{[]string{"seance"}, func(m *models.LessonMetadata, v string) { m.Session = v }},
}

// positional convention: math-5-2-3-1-les grands nombres.pptx
var positionalPattern = regexp.MustCompile(`^([^-]+)-(\d+)-(\d+)-(\d+)-(\d+)(?:-(.*))?$`)

var accentFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// fold lowercases s and strips diacritics so "Séance" and "seance" compare equal
func fold(s string) string {
	folded, _, err := transform.String(accentFolder, strings.ToLower(s))
	if err != nil {
		return strings.ToLower(s)
	}
	return folded
}

// ExtractMetadata derives lesson metadata from a slide-deck filename. Two
// conventions are understood: underscore-separated tagged parts
// (Français_Niv5_Periode2_Semaine3_Séance1) and hyphen-separated positional
// numbers (math-5-2-3-1-title). Unknown fields stay empty; subject and level
// fall back to DefaultSubject and DefaultLevel.
func ExtractMetadata(filename string) models.LessonMetadata {
	base := filepath.Base(filename)
	name := norm.NFC.String(strings.TrimSuffix(base, filepath.Ext(base)))

	var meta models.LessonMetadata
	if m := positionalPattern.FindStringSubmatch(name); m != nil {
		meta = models.LessonMetadata{
			Subject: lookupSubject(m[1]),
			Level:   m[2],
			Period:  m[3],
			Week:    m[4],
			Session: m[5],
			Title:   strings.TrimSpace(m[6]),
		}
		if meta.Title == "" {
			meta.Title = strings.ReplaceAll(name, "-", " ")
		}
	} else {
		meta = parseTagged(name)
	}

	if meta.Subject == "" {
		meta.Subject = DefaultSubject
	}
	if meta.Level == "" {
		meta.Level = DefaultLevel
	}
	return meta
}

func parseTagged(name string) models.LessonMetadata {
	meta := models.LessonMetadata{
		Title: strings.TrimSpace(strings.ReplaceAll(name, "_", " ")),
	}

	for i, part := range strings.Split(name, "_") {
		folded := fold(part)
		if i == 0 {
			if subject := lookupSubject(part); subject != "" {
				meta.Subject = subject
				continue
			}
		}

	fields:
		for _, field := range taggedFields {
			for _, prefix := range field.prefixes {
				value := strings.TrimSpace(strings.TrimPrefix(folded, prefix))
				if strings.HasPrefix(folded, prefix) && value != "" && unicode.IsDigit(rune(value[0])) {
					field.assign(&meta, value)
					break fields
				}
			}
		}
	}

	return meta
}

func lookupSubject(raw string) string {
	key := strings.NewReplacer(" ", "", "_", "", "-", "").Replace(fold(raw))
	return subjectAliases[key]
}

// LanguageFor returns the generation language for a subject: mathematics and
// Arabic lessons are written in Arabic, everything else in French
func LanguageFor(subject string) string {
	s := fold(subject)
	if strings.Contains(s, "math") || strings.Contains(s, "arabe") || strings.Contains(subject, "رياضيات") || strings.Contains(subject, "عربية") {
		return "Arabic"
	}
	return "French"
}
