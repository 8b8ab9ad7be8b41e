package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"cahier/internal/models"
	"cahier/internal/utils"

	"golang.org/x/time/rate"
)

var (
	// ErrGeneratorUnavailable means the provider could not be reached or refused the request
	ErrGeneratorUnavailable = errors.New("generation provider unavailable")
	// ErrMalformedResponse means the provider answered with something that is not lesson JSON
	ErrMalformedResponse = errors.New("malformed generation response")
	// ErrNoSteps means the provider returned lesson data without steps
	ErrNoSteps = errors.New("generated lesson has no steps")
)

// objectivePlaceholders are template values the model sometimes echoes back
var objectivePlaceholders = map[string]bool{
	"......":               true,
	"...":                  true,
	"Objectif de la leçon": true,
	"هدف الدرس":            true,
}

// GeneratorConfig configures the OpenAI-compatible chat completions client
type GeneratorConfig struct {
	BaseURL       string
	APIKey        string
	Model         string
	Temperature   float64
	Timeout       time.Duration
	RatePerSecond float64
}

// GeneratorService turns extracted slide text into structured lesson data
// through an OpenAI-compatible chat completions endpoint
type GeneratorService struct {
	cfg     GeneratorConfig
	client  *http.Client
	limiter *rate.Limiter
}

// NewGeneratorService creates a generator. Calls are rate limited to
// cfg.RatePerSecond (burst 1); zero disables the limiter.
func NewGeneratorService(cfg GeneratorConfig) *GeneratorService {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}

	return &GeneratorService{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Configured reports whether an API key is set
func (s *GeneratorService) Configured() bool {
	return s.cfg.APIKey != ""
}

// Generate asks the provider for lesson data. Only validated data is returned.
func (s *GeneratorService) Generate(ctx context.Context, req models.GenerateRequest, language string, steps []string) (models.LessonData, error) {
	if !s.Configured() {
		return nil, fmt.Errorf("%w: no API key configured", ErrGeneratorUnavailable)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	system, user := buildLessonPrompt(req, language, steps)
	requestBody := map[string]interface{}{
		"model":       s.cfg.Model,
		"temperature": s.cfg.Temperature,
		"stream":      false,
		"messages": []map[string]interface{}{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
		"response_format": map[string]interface{}{
			"type": "json_object",
		},
	}

	reqBody, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	log.Printf("📤 [GENERATOR] Requesting %s lesson for %q (session %s) from %s",
		language, req.Subject, req.Session, s.cfg.BaseURL)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+"/chat/completions", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeneratorUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", ErrGeneratorUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Printf("⚠️  [GENERATOR] API error (status %d): %s", resp.StatusCode, utils.Preview(string(body), 500))
		return nil, fmt.Errorf("%w: status %d", ErrGeneratorUnavailable, resp.StatusCode)
	}

	var apiResponse struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &apiResponse); err != nil {
		return nil, fmt.Errorf("%w: failed to parse API response: %v", ErrMalformedResponse, err)
	}
	if len(apiResponse.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices in response", ErrMalformedResponse)
	}

	data, err := ParseLessonResponse(apiResponse.Choices[0].Message.Content, req.Subject, req.Session)
	if err != nil {
		log.Printf("❌ [GENERATOR] Rejected response: %v", err)
		return nil, err
	}

	log.Printf("✅ [GENERATOR] Extracted %d lesson steps", len(data.Steps()))
	return data, nil
}

// ParseLessonResponse validates raw model output and returns its lesson_data
// object. Code fences are stripped and bare None tokens read as null. A
// missing or placeholder objective is replaced; missing steps are an error.
func ParseLessonResponse(raw, subject, session string) (models.LessonData, error) {
	cleaned := normalizeNone(extractJSON(raw))

	var envelope struct {
		LessonData models.LessonData `json:"lesson_data"`
	}
	if err := json.Unmarshal([]byte(cleaned), &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	data := envelope.LessonData
	if data == nil {
		return nil, fmt.Errorf("%w: missing lesson_data", ErrMalformedResponse)
	}

	objective := strings.TrimSpace(data.String("objective"))
	if objective == "" || objectivePlaceholders[objective] {
		log.Printf("⚠️  [GENERATOR] Objective missing or placeholder, using fallback")
		data["objective"] = fmt.Sprintf("Lesson on %s - Session %s", subject, session)
	}

	steps, ok := data["steps"].([]interface{})
	if !ok || len(steps) == 0 {
		return nil, ErrNoSteps
	}

	return data, nil
}

// extractJSON pulls a JSON object out of a model reply that may be wrapped
// in a markdown code block or surrounded by prose
func extractJSON(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "{") {
		return content
	}

	if idx := strings.Index(content, "```json"); idx != -1 {
		start := idx + 7
		if end := strings.Index(content[start:], "```"); end != -1 {
			return strings.TrimSpace(content[start : start+end])
		}
	}

	if idx := strings.Index(content, "```"); idx != -1 {
		start := idx + 3
		// skip language identifier
		if newline := strings.Index(content[start:], "\n"); newline != -1 {
			start = start + newline + 1
		}
		if end := strings.Index(content[start:], "```"); end != -1 {
			return strings.TrimSpace(content[start : start+end])
		}
	}

	if start := strings.Index(content, "{"); start != -1 {
		if end := strings.LastIndex(content, "}"); end > start {
			return content[start : end+1]
		}
	}

	return content
}

// normalizeNone rewrites bare None tokens (outside string literals) to null
func normalizeNone(s string) string {
	if !strings.Contains(s, "None") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	inString, escaped := false, false

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case inString:
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
		case c == '"':
			inString = true
		case c == 'N' && strings.HasPrefix(s[i:], "None") && !isIdentByte(s, i-1) && !isIdentByte(s, i+4):
			b.WriteString("null")
			i += 3
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

func isIdentByte(s string, i int) bool {
	if i < 0 || i >= len(s) {
		return false
	}
	c := s[i]
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
