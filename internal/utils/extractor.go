package utils

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// MaxSourceFileSize bounds how much of a slide deck is read into memory (50MB)
const MaxSourceFileSize = 50 * 1024 * 1024

// ContentExtractor turns a source document on disk into plain text.
// The zero value is ready to use.
type ContentExtractor struct{}

// NewContentExtractor creates a content extractor
func NewContentExtractor() *ContentExtractor {
	return &ContentExtractor{}
}

// SupportedExtensions lists the file types Extract understands
func SupportedExtensions() []string {
	return []string{".pptx", ".pdf", ".docx"}
}

// Extract reads filePath and returns its text, dispatching on the extension
func (e *ContentExtractor) Extract(filePath string) (string, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", filepath.Base(filePath), err)
	}
	if info.Size() > MaxSourceFileSize {
		return "", fmt.Errorf("%s is too large (%d bytes)", filepath.Base(filePath), info.Size())
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", filepath.Base(filePath), err)
	}

	var extracted *ExtractedText
	switch ext := strings.ToLower(filepath.Ext(filePath)); ext {
	case ".pptx":
		extracted, err = ExtractPPTXText(data)
	case ".pdf":
		extracted, err = ExtractPDFText(data)
	case ".docx":
		extracted, err = ExtractDOCXText(data)
	default:
		return "", fmt.Errorf("unsupported source type %q", ext)
	}
	if err != nil {
		return "", err
	}

	return extracted.Text, nil
}

// ExtractText is the forgiving variant used on request paths: an unreadable
// or malformed file yields empty text and a log line instead of an error.
func (e *ContentExtractor) ExtractText(filePath string) string {
	text, err := e.Extract(filePath)
	if err != nil {
		log.Printf("⚠️  [EXTRACT] Failed to extract text from %s: %v", filepath.Base(filePath), err)
		return ""
	}
	return text
}
