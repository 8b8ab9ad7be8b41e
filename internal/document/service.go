// Package document renders generated lessons to PDF and keeps track of the
// files handed out for download.
package document

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"cahier/internal/models"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

//go:embed templates/*.html
var templateFS embed.FS

// ErrDocumentNotFound is returned for unknown or forgotten document IDs
var ErrDocumentNotFound = errors.New("document not found")

// Content types served by the download endpoint
const (
	ContentTypePDF  = "application/pdf"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// GeneratedDocument is a file in the output directory waiting to be downloaded
type GeneratedDocument struct {
	DocumentID   string     `json:"document_id"`
	Filename     string     `json:"filename"`
	FilePath     string     `json:"-"`
	Size         int64      `json:"size"`
	DownloadURL  string     `json:"download_url"`
	ContentType  string     `json:"content_type"`
	CreatedAt    time.Time  `json:"created_at"`
	Downloaded   bool       `json:"downloaded"`
	DownloadedAt *time.Time `json:"downloaded_at,omitempty"`
}

// Config configures a Service
type Config struct {
	OutputDir       string
	TeacherInfoPath string
	// Printer defaults to a ChromePrinter using the browser found by chromedp
	Printer PDFPrinter
}

// Service renders lessons and tracks generated documents by ID
type Service struct {
	outputDir       string
	teacherInfoPath string
	printer         PDFPrinter
	templates       *template.Template
	markdown        goldmark.Markdown

	documents map[string]*GeneratedDocument
	mu        sync.RWMutex
}

// NewService parses the embedded templates and creates the output directory
func NewService(cfg Config) (*Service, error) {
	if cfg.OutputDir == "" {
		cfg.OutputDir = "./output_pdfs"
	}
	if cfg.Printer == nil {
		cfg.Printer = NewChromePrinter("")
	}

	if err := os.MkdirAll(cfg.OutputDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse document templates: %w", err)
	}

	return &Service{
		outputDir:       cfg.OutputDir,
		teacherInfoPath: cfg.TeacherInfoPath,
		printer:         cfg.Printer,
		templates:       tmpl,
		markdown:        goldmark.New(goldmark.WithExtensions(extension.GFM)),
		documents:       make(map[string]*GeneratedDocument),
	}, nil
}

// OutputDir is where generated files are written
func (s *Service) OutputDir() string {
	return s.outputDir
}

type stepView struct {
	Name     string
	Duration string
	Icon     string
	Content  template.HTML
}

type lessonView struct {
	Layout
	Title     string
	Subject   string
	Level     string
	Period    string
	Week      string
	Session   string
	Objective string
	Steps     []stepView
	Teacher   []InfoField
}

// RenderHTML fills the subject's template with the lesson. Step content is
// treated as markdown; raw HTML in it is not passed through.
func (s *Service) RenderHTML(data models.LessonData) (string, Layout, error) {
	layout := LayoutFor(data.String("subject"))

	view := lessonView{
		Layout:    layout,
		Title:     data.String("title"),
		Subject:   data.String("subject"),
		Level:     data.String("level"),
		Period:    data.String("period"),
		Week:      data.String("week"),
		Session:   data.String("session"),
		Objective: data.String("objective"),
		Teacher:   LoadTeacherInfo(s.teacherInfoPath, layout.LanguageKey, layout.SubjectLabel),
	}

	for _, step := range data.Steps() {
		var content bytes.Buffer
		if err := s.markdown.Convert([]byte(step.Content), &content); err != nil {
			return "", layout, fmt.Errorf("failed to convert step %q: %w", step.Name, err)
		}
		view.Steps = append(view.Steps, stepView{
			Name:     step.Name,
			Duration: step.Duration,
			Icon:     step.Icon,
			Content:  template.HTML(content.String()),
		})
	}

	var out bytes.Buffer
	if err := s.templates.ExecuteTemplate(&out, layout.Template, view); err != nil {
		return "", layout, fmt.Errorf("failed to render %s template: %w", layout.Name, err)
	}
	return out.String(), layout, nil
}

// GenerateLessonPDF renders the lesson and prints it to a tracked PDF
func (s *Service) GenerateLessonPDF(ctx context.Context, data models.LessonData, filename string) (*GeneratedDocument, error) {
	html, layout, err := s.RenderHTML(data)
	if err != nil {
		return nil, err
	}
	log.Printf("📄 [DOCUMENT] Using %s template for %q", layout.Name, data.String("title"))

	return s.StoreFile(filename, ContentTypePDF, func(path string) error {
		pdf, err := s.printer.PrintPDF(ctx, html)
		if err != nil {
			return fmt.Errorf("failed to generate PDF: %w", err)
		}
		return os.WriteFile(path, pdf, 0600)
	})
}

// StoreFile reserves a path in the output directory, lets write fill it and
// tracks the result under a fresh ID. filename is the name offered to the
// client; its extension is reused for the stored file.
func (s *Service) StoreFile(filename, contentType string, write func(path string) error) (*GeneratedDocument, error) {
	documentID := uuid.New().String()
	filePath := filepath.Join(s.outputDir, documentID+strings.ToLower(filepath.Ext(filename)))

	if err := write(filePath); err != nil {
		os.Remove(filePath)
		return nil, err
	}

	info, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}

	doc := &GeneratedDocument{
		DocumentID:  documentID,
		Filename:    filename,
		FilePath:    filePath,
		Size:        info.Size(),
		DownloadURL: fmt.Sprintf("/api/download/%s", documentID),
		ContentType: contentType,
		CreatedAt:   time.Now(),
	}

	s.mu.Lock()
	s.documents[documentID] = doc
	s.mu.Unlock()

	log.Printf("📄 [DOCUMENT] Stored %s (%d bytes) as %s", filename, info.Size(), documentID)
	return doc, nil
}

// GetDocument returns a copy of the tracked document
func (s *Service) GetDocument(documentID string) (GeneratedDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.documents[documentID]
	if !ok {
		return GeneratedDocument{}, ErrDocumentNotFound
	}
	return *doc, nil
}

// MarkDownloaded records the first download time
func (s *Service) MarkDownloaded(documentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if doc, ok := s.documents[documentID]; ok && !doc.Downloaded {
		now := time.Now()
		doc.Downloaded = true
		doc.DownloadedAt = &now
		log.Printf("✅ [DOCUMENT] Document downloaded: %s", doc.Filename)
	}
}

// Forget stops tracking a document. The file itself is left alone.
func (s *Service) Forget(documentID string) {
	s.mu.Lock()
	delete(s.documents, documentID)
	s.mu.Unlock()
}

// ForgetMissing drops every tracked document whose file no longer exists
// and returns how many were dropped
func (s *Service) ForgetMissing() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	forgotten := 0
	for id, doc := range s.documents {
		if _, err := os.Stat(doc.FilePath); os.IsNotExist(err) {
			delete(s.documents, id)
			forgotten++
		}
	}
	return forgotten
}

// Count returns the number of tracked documents
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.documents)
}

// DownloadName builds the client-facing PDF name for a lesson,
// e.g. "Palier3_Seance1.pdf", falling back to the title.
func DownloadName(meta models.LessonMetadata) string {
	if meta.Week != "" && meta.Session != "" {
		return fmt.Sprintf("Palier%s_Seance%s.pdf", meta.Week, meta.Session)
	}

	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, strings.TrimSpace(meta.Title))
	if name == "" {
		name = "lesson"
	}
	return name + ".pdf"
}
