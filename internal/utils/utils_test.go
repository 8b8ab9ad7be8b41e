package utils

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cahier/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const slideTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">
<p:cSld><p:spTree><p:sp><p:txBody>%s</p:txBody></p:sp></p:spTree></p:cSld></p:sld>`

func slideXML(paragraphs ...string) string {
	var b strings.Builder
	for _, p := range paragraphs {
		b.WriteString("<a:p><a:r><a:t>")
		b.WriteString(p)
		b.WriteString("</a:t></a:r></a:p>")
	}
	return strings.Replace(slideTemplate, "%s", b.String(), 1)
}

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func buildPPTX(t *testing.T, slides map[string]string) []byte {
	files := map[string]string{"[Content_Types].xml": "<Types/>"}
	for name, xml := range slides {
		files["ppt/slides/"+name] = xml
	}
	return buildZip(t, files)
}

func TestExtractPPTXTextOrdersSlidesNumerically(t *testing.T) {
	data := buildPPTX(t, map[string]string{
		"slide10.xml": slideXML("dixième"),
		"slide2.xml":  slideXML("deuxième"),
		"slide1.xml":  slideXML("Objectif : lire", "première"),
	})

	require.NoError(t, ValidatePPTX(data))

	extracted, err := ExtractPPTXText(data)
	require.NoError(t, err)
	assert.Equal(t, 3, extracted.Units)
	assert.Equal(t, "Objectif : lire\npremière\ndeuxième\ndixième", extracted.Text)
	assert.Equal(t, 5, extracted.WordCount)
}

func TestExtractPPTXTextRejectsInvalidInput(t *testing.T) {
	_, err := ExtractPPTXText([]byte("not a zip"))
	assert.Error(t, err)

	noSlides := buildZip(t, map[string]string{"[Content_Types].xml": "<Types/>"})
	_, err = ExtractPPTXText(noSlides)
	assert.Error(t, err)
	assert.Error(t, ValidatePPTX(noSlides))
}

func TestExtractDOCXText(t *testing.T) {
	doc := `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		`<w:p><w:r><w:t>Séance 1</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Les</w:t></w:r><w:r><w:t>nombres</w:t></w:r></w:p>` +
		`</w:body></w:document>`
	data := buildZip(t, map[string]string{"word/document.xml": doc})

	extracted, err := ExtractDOCXText(data)
	require.NoError(t, err)
	assert.Equal(t, "Séance 1\nLes nombres", extracted.Text)
	assert.Equal(t, 2, extracted.Units)

	_, err = ExtractDOCXText(buildZip(t, map[string]string{"other.xml": ""}))
	assert.Error(t, err)
}

func TestContentExtractor(t *testing.T) {
	dir := t.TempDir()
	deck := filepath.Join(dir, "deck.pptx")
	require.NoError(t, os.WriteFile(deck, buildPPTX(t, map[string]string{"slide1.xml": slideXML("Bonjour")}), 0600))
	broken := filepath.Join(dir, "broken.pptx")
	require.NoError(t, os.WriteFile(broken, []byte("garbage"), 0600))
	notes := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(notes, []byte("hello"), 0600))

	e := NewContentExtractor()

	text, err := e.Extract(deck)
	require.NoError(t, err)
	assert.Equal(t, "Bonjour", text)

	_, err = e.Extract(broken)
	assert.Error(t, err)
	_, err = e.Extract(notes)
	assert.Error(t, err)
	_, err = e.Extract(filepath.Join(dir, "missing.pptx"))
	assert.Error(t, err)

	assert.Equal(t, "", e.ExtractText(broken), "forgiving variant yields empty text")
	assert.Equal(t, "Bonjour", e.ExtractText(deck))
}

func TestExtractMetadata(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     models.LessonMetadata
	}{
		{
			name:     "tagged",
			filename: "Français_Niv5_Parcour1_Palier3_Séance1.pptx",
			want: models.LessonMetadata{
				Title:   "Français Niv5 Parcour1 Palier3 Séance1",
				Subject: SubjectFrench,
				Level:   "5",
				Period:  "1",
				Week:    "3",
				Session: "1",
			},
		},
		{
			name:     "tagged without accents",
			filename: "maths_niveau4_periode2_semaine6_seance3.pptx",
			want: models.LessonMetadata{
				Title:   "maths niveau4 periode2 semaine6 seance3",
				Subject: SubjectMath,
				Level:   "4",
				Period:  "2",
				Week:    "6",
				Session: "3",
			},
		},
		{
			name:     "positional",
			filename: "arabe-3-2-5-4-القراءة.pptx",
			want: models.LessonMetadata{
				Title:   "القراءة",
				Subject: SubjectArabic,
				Level:   "3",
				Period:  "2",
				Week:    "5",
				Session: "4",
			},
		},
		{
			name:     "positional without title",
			filename: "math-6-1-1-2.pdf",
			want: models.LessonMetadata{
				Title:   "math 6 1 1 2",
				Subject: SubjectMath,
				Level:   "6",
				Period:  "1",
				Week:    "1",
				Session: "2",
			},
		},
		{
			name:     "unrecognized falls back to defaults",
			filename: "Les_seances_du_jour.pptx",
			want: models.LessonMetadata{
				Title:   "Les seances du jour",
				Subject: DefaultSubject,
				Level:   DefaultLevel,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractMetadata(tt.filename))
		})
	}
}

func TestLanguageFor(t *testing.T) {
	assert.Equal(t, "Arabic", LanguageFor(SubjectMath))
	assert.Equal(t, "Arabic", LanguageFor("Mathematiques"))
	assert.Equal(t, "Arabic", LanguageFor(SubjectArabic))
	assert.Equal(t, "French", LanguageFor(SubjectFrench))
	assert.Equal(t, "French", LanguageFor("Éveil scientifique"))
}

func TestDeriveObjective(t *testing.T) {
	assert.Equal(t, "Objectif : identifier le son [ou]",
		DeriveObjective("Séance 1\n  Objectif : identifier le son [ou]  \nLecture"))
	assert.Equal(t, "OBJECTIFS de la séance", DeriveObjective("OBJECTIFS de la séance"))
	assert.Equal(t, "الهدف: قراءة الأعداد", DeriveObjective("الدرس الأول\nالهدف: قراءة الأعداد"))
	assert.Equal(t, models.ObjectiveUnset, DeriveObjective("Lecture\nÉcriture"))
	assert.Equal(t, models.ObjectiveUnset, DeriveObjective(""))
}

func TestPreviewIsRuneSafe(t *testing.T) {
	p := Preview("ééééé", 3)
	assert.True(t, strings.HasPrefix("ééééé", strings.TrimSuffix(p, "...")))
}
