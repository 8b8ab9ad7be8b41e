package utils

import (
	"bytes"
	"encoding/xml"
	"strings"
	"unicode"
)

// MaxExtractedTextSize limits the extracted text size (1MB)
const MaxExtractedTextSize = 1024 * 1024

const (
	drawingMLNamespace      = "drawingml"
	wordprocessingNamespace = "wordprocessingml"
)

// extractParagraphs walks Office XML and returns one line per paragraph whose
// namespace contains ns. Runs inside a paragraph are joined with a space.
func extractParagraphs(xmlContent []byte, ns string) string {
	var textBuilder strings.Builder
	decoder := xml.NewDecoder(bytes.NewReader(xmlContent))

	inParagraph := false
	paragraphText := strings.Builder{}

	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}

		switch t := token.(type) {
		case xml.StartElement:
			if t.Name.Local == "p" && strings.Contains(t.Name.Space, ns) {
				inParagraph = true
				paragraphText.Reset()
			}
		case xml.EndElement:
			if t.Name.Local == "p" && strings.Contains(t.Name.Space, ns) {
				if inParagraph && paragraphText.Len() > 0 {
					textBuilder.WriteString(paragraphText.String())
					textBuilder.WriteString("\n")
				}
				inParagraph = false
			}
		case xml.CharData:
			text := strings.TrimSpace(string(t))
			if text != "" && inParagraph {
				if paragraphText.Len() > 0 {
					paragraphText.WriteString(" ")
				}
				paragraphText.WriteString(text)
			}
		}
	}

	return textBuilder.String()
}

// cleanDocumentText removes null bytes, collapses runs of blank lines and trims
func cleanDocumentText(text string) string {
	text = strings.ReplaceAll(text, "\x00", "")

	for strings.Contains(text, "\n\n\n") {
		text = strings.ReplaceAll(text, "\n\n\n", "\n\n")
	}

	return strings.TrimSpace(text)
}

// truncateText enforces MaxExtractedTextSize without splitting a UTF-8 sequence
func truncateText(text string) string {
	if len(text) <= MaxExtractedTextSize {
		return text
	}
	cut := MaxExtractedTextSize
	for cut > 0 && !isRuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "\n... [Content truncated]"
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

// normalizeWhitespace collapses horizontal whitespace to single spaces and keeps newlines
func normalizeWhitespace(text string) string {
	var result strings.Builder
	lastWasSpace := false

	for _, r := range text {
		if unicode.IsSpace(r) {
			if r == '\n' {
				result.WriteRune('\n')
				lastWasSpace = false
			} else if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			result.WriteRune(r)
			lastWasSpace = false
		}
	}

	return result.String()
}

// CountWords counts the number of words in text
func CountWords(text string) int {
	count := 0
	inWord := false

	for _, r := range text {
		if unicode.IsSpace(r) || unicode.IsPunct(r) {
			if inWord {
				count++
				inWord = false
			}
		} else {
			inWord = true
		}
	}

	if inWord {
		count++
	}

	return count
}

// Preview returns the first maxChars bytes of text, cut at a word boundary when possible
func Preview(text string, maxChars int) string {
	if len(text) <= maxChars {
		return text
	}

	preview := text[:maxChars]
	for len(preview) > 0 && !isRuneStart(text[len(preview)]) {
		preview = preview[:len(preview)-1]
	}
	lastSpace := strings.LastIndex(preview, " ")
	if lastSpace > maxChars/2 {
		preview = preview[:lastSpace]
	}

	return preview + "..."
}
