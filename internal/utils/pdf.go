package utils

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// MaxPDFPages limits the number of pages to process
const MaxPDFPages = 100

// ExtractPDFText extracts the plain text of every page
func ExtractPDFText(data []byte) (*ExtractedText, error) {
	pdfReader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	totalPages := pdfReader.NumPage()
	if totalPages == 0 {
		return nil, fmt.Errorf("PDF has no pages")
	}

	if totalPages > MaxPDFPages {
		return nil, fmt.Errorf("PDF has too many pages (%d), max allowed is %d", totalPages, MaxPDFPages)
	}

	var textBuilder strings.Builder
	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		page := pdfReader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// one unreadable page should not lose the rest of the document
			continue
		}

		cleaned := strings.TrimSpace(normalizeWhitespace(strings.ReplaceAll(text, "\x00", "")))
		if cleaned != "" {
			textBuilder.WriteString(cleaned)
			textBuilder.WriteString("\n")
		}

		if textBuilder.Len() > MaxExtractedTextSize {
			break
		}
	}

	text := truncateText(cleanDocumentText(textBuilder.String()))

	return &ExtractedText{
		Units:     totalPages,
		WordCount: CountWords(text),
		Text:      text,
	}, nil
}
