package models

import "time"

// ObjectiveUnset marks a lesson whose objective could not be derived from its slides
const ObjectiveUnset = "unset"

// LessonMetadata is what the filename of a slide deck tells us about the lesson
type LessonMetadata struct {
	Title   string `json:"title"`
	Subject string `json:"subject"`
	Level   string `json:"level"`
	Period  string `json:"period"`
	Week    string `json:"week"`
	Session string `json:"session"`
}

// LessonRecord is one entry of the lesson registry (data/lessons.json).
// Records are identified by ID and by Filename; both are unique.
type LessonRecord struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Subject   string `json:"subject"`
	Level     string `json:"level"`
	Period    string `json:"period"`
	Week      string `json:"week"`
	Session   string `json:"session"`
	Filename  string `json:"filename"`
	Objective string `json:"objective"`
	Content   string `json:"content"`
}

// Metadata returns the filename-derived fields of the record
func (r LessonRecord) Metadata() LessonMetadata {
	return LessonMetadata{
		Title:   r.Title,
		Subject: r.Subject,
		Level:   r.Level,
		Period:  r.Period,
		Week:    r.Week,
		Session: r.Session,
	}
}

// LessonSummary is a LessonRecord without its (large) extracted content
type LessonSummary struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Subject   string `json:"subject"`
	Level     string `json:"level"`
	Period    string `json:"period"`
	Week      string `json:"week"`
	Session   string `json:"session"`
	Filename  string `json:"filename"`
	Objective string `json:"objective"`
}

// Summary drops the content field
func (r LessonRecord) Summary() LessonSummary {
	return LessonSummary{
		ID:        r.ID,
		Title:     r.Title,
		Subject:   r.Subject,
		Level:     r.Level,
		Period:    r.Period,
		Week:      r.Week,
		Session:   r.Session,
		Filename:  r.Filename,
		Objective: r.Objective,
	}
}

// LessonData is the structured result produced by the generation provider.
// It is kept as a generic JSON object so the cache stays agnostic of its schema.
type LessonData map[string]interface{}

// String returns the string value stored under key, or "" if absent or not a string
func (d LessonData) String(key string) string {
	if v, ok := d[key].(string); ok {
		return v
	}
	return ""
}

// Steps decodes the "steps" array into typed steps, skipping malformed items
func (d LessonData) Steps() []LessonStep {
	raw, ok := d["steps"].([]interface{})
	if !ok {
		return nil
	}

	steps := make([]LessonStep, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		step := LessonStep{}
		step.Name, _ = m["name"].(string)
		step.Duration, _ = m["duration"].(string)
		step.Icon, _ = m["icon"].(string)
		step.Content, _ = m["content"].(string)
		steps = append(steps, step)
	}
	return steps
}

// Clone returns a shallow copy so callers can add fields without touching cached data
func (d LessonData) Clone() LessonData {
	out := make(LessonData, len(d)+2)
	for k, v := range d {
		out[k] = v
	}
	return out
}

// LessonStep is one timed phase of a lesson
type LessonStep struct {
	Name     string `json:"name"`
	Duration string `json:"duration"`
	Icon     string `json:"icon"`
	Content  string `json:"content"`
}

// GenerateRequest carries everything the generation provider needs
type GenerateRequest struct {
	LessonMetadata
	Content string `json:"content"`
}

// GenerateResult is returned to API clients after a generation
type GenerateResult struct {
	Title       string     `json:"title"`
	LessonData  LessonData `json:"lesson_data"`
	Cached      bool       `json:"cached"`
	DocumentID  string     `json:"document_id,omitempty"`
	DownloadURL string     `json:"download_url,omitempty"`
	Filename    string     `json:"filename,omitempty"`
	JournalID   int64      `json:"journal_id,omitempty"`
}

// JournalEntry is one row of the teacher's lesson journal (cahier journal)
type JournalEntry struct {
	ID        int64        `json:"id"`
	Date      string       `json:"date"`
	Title     string       `json:"title"`
	Subject   string       `json:"subject"`
	Level     string       `json:"level"`
	Period    string       `json:"period"`
	Week      string       `json:"week"`
	Session   string       `json:"session"`
	Objective string       `json:"objective"`
	Steps     []LessonStep `json:"steps"`
	CreatedAt time.Time    `json:"created_at"`
}
