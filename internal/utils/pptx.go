package utils

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"sort"
	"strconv"
	"strings"
)

// MaxPPTXSlides limits the number of slides to process
const MaxPPTXSlides = 200

// ExtractedText is the plain text of a source document
type ExtractedText struct {
	Units     int // slides for PPTX, pages for PDF, paragraphs for DOCX
	WordCount int
	Text      string
}

// ValidatePPTX checks if a file is a valid PPTX by checking ZIP structure
func ValidatePPTX(data []byte) error {
	zipReader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("invalid PPTX: not a valid ZIP file: %w", err)
	}

	hasContentTypes := false
	hasSlides := false

	for _, file := range zipReader.File {
		if file.Name == "[Content_Types].xml" {
			hasContentTypes = true
		}
		if isSlideXML(file.Name) {
			hasSlides = true
		}
	}

	if !hasContentTypes {
		return fmt.Errorf("invalid PPTX: missing [Content_Types].xml")
	}
	if !hasSlides {
		return fmt.Errorf("invalid PPTX: no slides found")
	}

	return nil
}

func isSlideXML(name string) bool {
	return strings.HasPrefix(name, "ppt/slides/slide") && strings.HasSuffix(name, ".xml")
}

// ExtractPPTXText extracts the text of every slide, in slide order, one
// paragraph per line
func ExtractPPTXText(data []byte) (*ExtractedText, error) {
	zipReader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PPTX: %w", err)
	}

	type slideFile struct {
		num  int
		file *zip.File
	}
	var slides []slideFile

	for _, file := range zipReader.File {
		if !isSlideXML(file.Name) {
			continue
		}
		// ppt/slides/slide12.xml -> 12
		numStr := strings.TrimSuffix(strings.TrimPrefix(path.Base(file.Name), "slide"), ".xml")
		num, err := strconv.Atoi(numStr)
		if err != nil {
			continue
		}
		slides = append(slides, slideFile{num: num, file: file})
	}

	if len(slides) == 0 {
		return nil, fmt.Errorf("invalid PPTX: no slides found")
	}

	sort.Slice(slides, func(i, j int) bool {
		return slides[i].num < slides[j].num
	})

	if len(slides) > MaxPPTXSlides {
		slides = slides[:MaxPPTXSlides]
	}

	var textBuilder strings.Builder
	for _, slide := range slides {
		rc, err := slide.file.Open()
		if err != nil {
			continue
		}

		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			continue
		}

		textBuilder.WriteString(extractParagraphs(content, drawingMLNamespace))

		if textBuilder.Len() > MaxExtractedTextSize {
			break
		}
	}

	text := truncateText(cleanDocumentText(textBuilder.String()))

	return &ExtractedText{
		Units:     len(slides),
		WordCount: CountWords(text),
		Text:      text,
	}, nil
}
