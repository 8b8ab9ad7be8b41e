package services

import (
	_ "embed"
	"fmt"
	"log"
	"os"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

//go:embed steps.yaml
var defaultStepCatalog []byte

// SubjectSteps lists the mandatory steps for one subject
type SubjectSteps struct {
	Name     string              `yaml:"name"`
	Match    []string            `yaml:"match"`
	Default  []string            `yaml:"default"`
	Sessions map[string][]string `yaml:"sessions"`
}

// StepCatalog resolves the ordered lesson steps the generator must use
type StepCatalog struct {
	Subjects []SubjectSteps `yaml:"subjects"`
}

// LoadStepCatalog reads a YAML catalog from path, or the embedded one when
// path is empty
func LoadStepCatalog(path string) (*StepCatalog, error) {
	data := defaultStepCatalog
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read step catalog: %w", err)
		}
	}
	return ParseStepCatalog(data)
}

// ParseStepCatalog decodes a YAML catalog
func ParseStepCatalog(data []byte) (*StepCatalog, error) {
	var catalog StepCatalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse step catalog: %w", err)
	}
	if len(catalog.Subjects) == 0 {
		return nil, fmt.Errorf("step catalog defines no subjects")
	}

	for i := range catalog.Subjects {
		for j, m := range catalog.Subjects[i].Match {
			catalog.Subjects[i].Match[j] = foldSubject(m)
		}
	}

	log.Printf("📋 [STEPS] Loaded step catalog with %d subjects", len(catalog.Subjects))
	return &catalog, nil
}

// StepsFor returns the steps for subject and session, or nil when the
// catalog has nothing for them
func (c *StepCatalog) StepsFor(subject, session string) []string {
	if c == nil {
		return nil
	}

	folded := foldSubject(subject)
	session = strings.TrimSpace(session)

	for _, s := range c.Subjects {
		for _, m := range s.Match {
			if m != "" && strings.Contains(folded, m) {
				if steps, ok := s.Sessions[session]; ok {
					return steps
				}
				return s.Default
			}
		}
	}
	return nil
}

var subjectFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func foldSubject(s string) string {
	folded, _, err := transform.String(subjectFolder, strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return strings.ToLower(s)
	}
	return folded
}
