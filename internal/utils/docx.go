package utils

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strings"
)

// ExtractDOCXText extracts the paragraphs of word/document.xml
func ExtractDOCXText(data []byte) (*ExtractedText, error) {
	zipReader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open DOCX: %w", err)
	}

	for _, file := range zipReader.File {
		if file.Name != "word/document.xml" {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open document.xml: %w", err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read document.xml: %w", err)
		}

		text := truncateText(cleanDocumentText(extractParagraphs(content, wordprocessingNamespace)))
		return &ExtractedText{
			Units:     strings.Count(text, "\n") + 1,
			WordCount: CountWords(text),
			Text:      text,
		}, nil
	}

	return nil, fmt.Errorf("invalid DOCX: missing word/document.xml")
}
