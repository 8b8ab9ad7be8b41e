package document

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"cahier/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakePrinter(calls *int32, captured *string) PrinterFunc {
	return func(ctx context.Context, html string) ([]byte, error) {
		atomic.AddInt32(calls, 1)
		if captured != nil {
			*captured = html
		}
		return []byte("%PDF-1.4 fake"), nil
	}
}

func newTestService(t *testing.T, printer PDFPrinter, teacherInfo string) *Service {
	t.Helper()
	svc, err := NewService(Config{
		OutputDir:       filepath.Join(t.TempDir(), "out"),
		TeacherInfoPath: teacherInfo,
		Printer:         printer,
	})
	require.NoError(t, err)
	return svc
}

func sampleLesson(subject string) models.LessonData {
	return models.LessonData{
		"title":     "Les indicateurs de lieu",
		"subject":   subject,
		"level":     "5",
		"period":    "1",
		"week":      "3",
		"session":   "1",
		"objective": "Utiliser les indicateurs de lieu",
		"steps": []interface{}{
			map[string]interface{}{
				"name":     "Mise en situation",
				"duration": "10min",
				"icon":     "🎯",
				"content":  "Les élèves **observent** une image.",
			},
			map[string]interface{}{
				"name":     "Évaluation",
				"duration": "15min",
				"icon":     "✅",
				"content":  "Les élèves répondent <script>alert(1)</script>",
			},
		},
	}
}

func TestLayoutFor(t *testing.T) {
	tests := []struct {
		subject string
		want    string
	}{
		{"Français", "french"},
		{"", "french"},
		{"Mathématiques", "math"},
		{"MATH", "math"},
		{"الرياضيات", "math"},
		{"Langue arabe", "arabic"},
		{"اللغة العربية", "arabic"},
	}
	for _, tt := range tests {
		t.Run(tt.subject, func(t *testing.T) {
			assert.Equal(t, tt.want, LayoutFor(tt.subject).Name)
		})
	}
}

func TestRenderHTMLFrench(t *testing.T) {
	svc := newTestService(t, fakePrinter(new(int32), nil), "")

	html, layout, err := svc.RenderHTML(sampleLesson("Français"))
	require.NoError(t, err)

	assert.Equal(t, "french", layout.Name)
	assert.Contains(t, html, `dir="ltr"`)
	assert.Contains(t, html, "Les indicateurs de lieu")
	assert.Contains(t, html, "<strong>observent</strong>")
	assert.Contains(t, html, "Mise en situation")
	assert.Contains(t, html, "Matière")
	assert.NotContains(t, html, "<script>alert(1)</script>")
}

func TestRenderHTMLArabicAndMathAreRTL(t *testing.T) {
	svc := newTestService(t, fakePrinter(new(int32), nil), "")

	for _, subject := range []string{"Langue arabe", "Mathématiques"} {
		html, layout, err := svc.RenderHTML(sampleLesson(subject))
		require.NoError(t, err)
		assert.Equal(t, "ar", layout.LanguageKey)
		assert.Contains(t, html, `dir="rtl"`)
		assert.Contains(t, html, "المادة")
		assert.Contains(t, html, layout.SubjectLabel)
	}
}

func TestGenerateLessonPDF(t *testing.T) {
	var calls int32
	var captured string
	svc := newTestService(t, fakePrinter(&calls, &captured), "")

	doc, err := svc.GenerateLessonPDF(context.Background(), sampleLesson("Français"), "Palier3_Seance1.pdf")
	require.NoError(t, err)

	assert.Equal(t, int32(1), calls)
	assert.Contains(t, captured, "Mise en situation")
	assert.Equal(t, "Palier3_Seance1.pdf", doc.Filename)
	assert.Equal(t, ContentTypePDF, doc.ContentType)
	assert.Equal(t, "/api/download/"+doc.DocumentID, doc.DownloadURL)
	assert.Equal(t, filepath.Join(svc.OutputDir(), doc.DocumentID+".pdf"), doc.FilePath)

	raw, err := os.ReadFile(doc.FilePath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "%PDF"))
	assert.Equal(t, int64(len(raw)), doc.Size)

	got, err := svc.GetDocument(doc.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, doc.FilePath, got.FilePath)
}

func TestGenerateLessonPDFPrinterFailure(t *testing.T) {
	svc := newTestService(t, PrinterFunc(func(ctx context.Context, html string) ([]byte, error) {
		return nil, errors.New("chrome not found")
	}), "")

	_, err := svc.GenerateLessonPDF(context.Background(), sampleLesson("Français"), "x.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chrome not found")
	assert.Equal(t, 0, svc.Count())

	entries, err := os.ReadDir(svc.OutputDir())
	require.NoError(t, err)
	assert.Empty(t, entries, "failed renders must not leave files behind")
}

func TestStoreFileAndTracking(t *testing.T) {
	svc := newTestService(t, fakePrinter(new(int32), nil), "")

	doc, err := svc.StoreFile("cahier_journal.xlsx", ContentTypeXLSX, func(path string) error {
		return os.WriteFile(path, []byte("xlsx"), 0600)
	})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(doc.FilePath, ".xlsx"))
	assert.Equal(t, 1, svc.Count())

	svc.MarkDownloaded(doc.DocumentID)
	got, err := svc.GetDocument(doc.DocumentID)
	require.NoError(t, err)
	assert.True(t, got.Downloaded)
	require.NotNil(t, got.DownloadedAt)

	svc.Forget(doc.DocumentID)
	_, err = svc.GetDocument(doc.DocumentID)
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestForgetMissing(t *testing.T) {
	svc := newTestService(t, fakePrinter(new(int32), nil), "")

	write := func(path string) error { return os.WriteFile(path, []byte("x"), 0600) }
	kept, err := svc.StoreFile("a.pdf", ContentTypePDF, write)
	require.NoError(t, err)
	gone, err := svc.StoreFile("b.pdf", ContentTypePDF, write)
	require.NoError(t, err)

	require.NoError(t, os.Remove(gone.FilePath))

	assert.Equal(t, 1, svc.ForgetMissing())
	assert.Equal(t, 0, svc.ForgetMissing())

	_, err = svc.GetDocument(kept.DocumentID)
	assert.NoError(t, err)
	_, err = svc.GetDocument(gone.DocumentID)
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestLoadTeacherInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "teacherInfo.json")
	content := `[{
		"fr": {"Enseignant": "Mme Alaoui", "École": "  ", "Matière": "Histoire", "Classe": "CE5", "Année": 0},
		"ar": {"الأستاذ": "السيدة العلوي", "المادة": "تاريخ", "المؤسسة": ""}
	}]`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	fr := LoadTeacherInfo(path, "fr", "Français")
	assert.Equal(t, []InfoField{
		{Label: "Enseignant", Value: "Mme Alaoui"},
		{Label: "Classe", Value: "CE5"},
		{Label: "Matière", Value: "Français"},
	}, fr)

	ar := LoadTeacherInfo(path, "ar", "الرياضيات")
	assert.Equal(t, []InfoField{
		{Label: "الأستاذ", Value: "السيدة العلوي"},
		{Label: "المادة", Value: "الرياضيات"},
	}, ar)
}

func TestLoadTeacherInfoFallbacks(t *testing.T) {
	dir := t.TempDir()

	missing := LoadTeacherInfo(filepath.Join(dir, "none.json"), "fr", "Français")
	assert.Equal(t, []InfoField{{Label: "Matière", Value: "Français"}}, missing)

	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte("{not json"), 0600))
	assert.Equal(t, []InfoField{{Label: "المادة", Value: "اللغة العربية"}},
		LoadTeacherInfo(broken, "ar", "اللغة العربية"))

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte("[]"), 0600))
	assert.Len(t, LoadTeacherInfo(empty, "fr", "Français"), 1)
}

func TestRenderIncludesTeacherInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "teacherInfo.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"fr": {"Enseignant": "M. Benali"}}]`), 0600))

	svc := newTestService(t, fakePrinter(new(int32), nil), path)
	html, _, err := svc.RenderHTML(sampleLesson("Français"))
	require.NoError(t, err)
	assert.Contains(t, html, "M. Benali")
}

func TestDownloadName(t *testing.T) {
	assert.Equal(t, "Palier3_Seance1.pdf", DownloadName(models.LessonMetadata{Week: "3", Session: "1", Title: "x"}))
	assert.Equal(t, "Les seances du jour.pdf", DownloadName(models.LessonMetadata{Title: "Les seances du jour"}))
	assert.Equal(t, "a_b.pdf", DownloadName(models.LessonMetadata{Title: "a/b"}))
	assert.Equal(t, "lesson.pdf", DownloadName(models.LessonMetadata{}))
}
