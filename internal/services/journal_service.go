package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"cahier/internal/database"
	"cahier/internal/models"

	"github.com/xuri/excelize/v2"
)

const journalSheet = "Cahier journal"

var journalHeaders = []string{"Date", "Titre", "Matière", "Niveau", "Période", "Semaine", "Séance", "Objectif", "Étapes"}

// JournalService records generated lessons in the teacher's journal and
// exports it as a spreadsheet
type JournalService struct {
	db  *database.DB
	now func() time.Time
}

// NewJournalService creates a journal service on an initialized database
func NewJournalService(db *database.DB) *JournalService {
	return &JournalService{db: db, now: time.Now}
}

// Record appends an entry built from generated lesson data and returns its id
func (s *JournalService) Record(ctx context.Context, meta models.LessonMetadata, data models.LessonData) (int64, error) {
	now := s.now()
	entry := models.JournalEntry{
		Date:      now.Format("2006-01-02"),
		Title:     meta.Title,
		Subject:   meta.Subject,
		Level:     meta.Level,
		Period:    meta.Period,
		Week:      meta.Week,
		Session:   meta.Session,
		Objective: data.String("objective"),
		Steps:     data.Steps(),
		CreatedAt: now.UTC(),
	}

	steps, err := json.Marshal(entry.Steps)
	if err != nil {
		return 0, fmt.Errorf("failed to encode steps: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO journal_entries (lesson_date, title, subject, level, period, week, session, objective, steps, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.Date, entry.Title, entry.Subject, entry.Level, entry.Period, entry.Week, entry.Session,
		entry.Objective, string(steps), entry.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert journal entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read journal entry id: %w", err)
	}

	log.Printf("📓 [JOURNAL] Recorded %q (%s, session %s) as entry %d", entry.Title, entry.Subject, entry.Session, id)
	return id, nil
}

// List returns journal entries, newest first. limit <= 0 returns all.
func (s *JournalService) List(ctx context.Context, limit int) ([]models.JournalEntry, error) {
	query := `
		SELECT id, lesson_date, title, subject, level, period, week, session, objective, steps, created_at
		FROM journal_entries
		ORDER BY id DESC`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	defer rows.Close()

	entries := []models.JournalEntry{}
	for rows.Next() {
		var (
			entry models.JournalEntry
			steps string
		)
		if err := rows.Scan(&entry.ID, &entry.Date, &entry.Title, &entry.Subject, &entry.Level, &entry.Period,
			&entry.Week, &entry.Session, &entry.Objective, &steps, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		if err := json.Unmarshal([]byte(steps), &entry.Steps); err != nil {
			log.Printf("⚠️  [JOURNAL] Entry %d has unreadable steps: %v", entry.ID, err)
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// ExportXLSX writes the whole journal, oldest first, to an .xlsx file at path
func (s *JournalService) ExportXLSX(ctx context.Context, path string) (int, error) {
	entries, err := s.List(ctx, 0)
	if err != nil {
		return 0, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), journalSheet); err != nil {
		return 0, fmt.Errorf("failed to name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#DDEBF7"}},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create header style: %w", err)
	}
	wrapStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create cell style: %w", err)
	}

	if err := f.SetSheetRow(journalSheet, "A1", &journalHeaders); err != nil {
		return 0, fmt.Errorf("failed to write header: %w", err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(journalHeaders))
	if err := f.SetCellStyle(journalSheet, "A1", lastCol+"1", headerStyle); err != nil {
		return 0, fmt.Errorf("failed to style header: %w", err)
	}

	// List is newest first; the journal reads chronologically
	for i := len(entries) - 1; i >= 0; i-- {
		entry := entries[i]
		row := len(entries) - i + 1
		cell, _ := excelize.CoordinatesToCellName(1, row)
		values := []interface{}{
			entry.Date, entry.Title, entry.Subject, entry.Level, entry.Period,
			entry.Week, entry.Session, entry.Objective, formatSteps(entry.Steps),
		}
		if err := f.SetSheetRow(journalSheet, cell, &values); err != nil {
			return 0, fmt.Errorf("failed to write row %d: %w", row, err)
		}
	}

	if len(entries) > 0 {
		lastCell, _ := excelize.CoordinatesToCellName(len(journalHeaders), len(entries)+1)
		if err := f.SetCellStyle(journalSheet, "A2", lastCell, wrapStyle); err != nil {
			return 0, fmt.Errorf("failed to style rows: %w", err)
		}
	}

	widths := map[string]float64{"A": 12, "B": 30, "C": 16, "H": 40, "I": 70}
	for col, width := range widths {
		if err := f.SetColWidth(journalSheet, col, col, width); err != nil {
			return 0, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return 0, fmt.Errorf("failed to save journal export: %w", err)
	}

	log.Printf("📊 [JOURNAL] Exported %d entries to %s", len(entries), path)
	return len(entries), nil
}

// formatSteps renders steps one per line: "📝 Name (10min): content"
func formatSteps(steps []models.LessonStep) string {
	lines := make([]string, 0, len(steps))
	for _, step := range steps {
		line := strings.TrimSpace(step.Icon + " " + step.Name)
		if step.Duration != "" {
			line += " (" + step.Duration + ")"
		}
		if step.Content != "" {
			line += ": " + step.Content
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
