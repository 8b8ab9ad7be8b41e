package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
)

// InfoField is one line of the teacher header, kept in file order
type InfoField struct {
	Label string
	Value string
}

// subjectKeys are ignored in teacherInfo.json: the subject always comes from the lesson
var subjectKeys = map[string]string{
	"fr": "Matière",
	"ar": "المادة",
}

// LoadTeacherInfo reads the header fields for one language from a
// teacherInfo.json file shaped as [{"fr": {...}, "ar": {...}}].
// Blank values and the subject key are dropped, then the subject label
// is appended. A missing or unreadable file yields only the subject line.
func LoadTeacherInfo(path, languageKey, subjectLabel string) []InfoField {
	var fields []InfoField

	if path != "" {
		loaded, err := readTeacherInfo(path, languageKey)
		switch {
		case err == nil:
			fields = loaded
		case os.IsNotExist(err):
			log.Printf("ℹ️  [DOCUMENT] No teacher info at %s", path)
		default:
			log.Printf("⚠️  [DOCUMENT] Failed to load teacher info from %s: %v", path, err)
		}
	}

	subjectKey, ok := subjectKeys[languageKey]
	if !ok {
		subjectKey = subjectKeys["fr"]
	}
	return append(fields, InfoField{Label: subjectKey, Value: subjectLabel})
}

func readTeacherInfo(path, languageKey string) ([]InfoField, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var entries []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("invalid teacher info: %w", err)
	}
	if len(entries) == 0 {
		return nil, nil
	}

	section, ok := entries[0][languageKey]
	if !ok {
		return nil, nil
	}
	return orderedFields(section)
}

// orderedFields walks a JSON object token by token so the header keeps
// the order the teacher wrote it in.
func orderedFields(section json.RawMessage) ([]InfoField, error) {
	dec := json.NewDecoder(bytes.NewReader(section))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("invalid teacher info section: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("teacher info section is not an object")
	}

	var fields []InfoField
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("invalid teacher info key: %w", err)
		}
		key, _ := keyTok.(string)

		var value interface{}
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("invalid teacher info value for %q: %w", key, err)
		}

		if key == subjectKeys["fr"] || key == subjectKeys["ar"] {
			continue
		}
		text := infoValue(value)
		if text == "" {
			continue
		}
		fields = append(fields, InfoField{Label: key, Value: text})
	}
	return fields, nil
}

func infoValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case bool:
		if !val {
			return ""
		}
		return "true"
	case string:
		return strings.TrimSpace(val)
	case json.Number:
		if f, err := val.Float64(); err == nil && f == 0 {
			return ""
		}
		return val.String()
	case []interface{}:
		if len(val) == 0 {
			return ""
		}
	case map[string]interface{}:
		if len(val) == 0 {
			return ""
		}
	}
	return strings.TrimSpace(fmt.Sprint(v))
}
