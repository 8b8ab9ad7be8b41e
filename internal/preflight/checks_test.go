package preflight

import (
	"os"
	"path/filepath"
	"testing"

	"cahier/internal/config"
	"cahier/internal/database"
)

func setupPreflightTest(t *testing.T) (*database.DB, *config.Config) {
	t.Helper()
	root := t.TempDir()

	db, err := database.New("sqlite://" + filepath.Join(root, "journal.db"))
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	if err := db.Initialize(); err != nil {
		t.Fatalf("Failed to initialize test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{
		LessonsDir:      filepath.Join(root, "lessons"),
		OutputDir:       filepath.Join(root, "out"),
		RegistryPath:    filepath.Join(root, "data", "lessons.json"),
		TeacherInfoPath: filepath.Join(root, "teacherInfo.json"),
		LLMModel:        "gpt-4o-mini",
		LLMBaseURL:      "https://api.openai.com/v1",
	}
	return db, cfg
}

func findResult(t *testing.T, results []CheckResult, name string) CheckResult {
	t.Helper()
	for _, r := range results {
		if r.Name == name {
			return r
		}
	}
	t.Fatalf("No result named %q", name)
	return CheckResult{}
}

func TestCheckDatabaseConnection_Success(t *testing.T) {
	db, cfg := setupPreflightTest(t)

	result := NewChecker(db, cfg).checkDatabaseConnection()
	if result.Status != "pass" {
		t.Errorf("Expected status 'pass', got '%s'", result.Status)
	}
	if result.Name != "Database Connection" {
		t.Errorf("Expected name 'Database Connection', got '%s'", result.Name)
	}
}

func TestCheckDatabaseConnection_Failure(t *testing.T) {
	db, cfg := setupPreflightTest(t)
	db.Close() // simulate a lost connection

	result := NewChecker(db, cfg).checkDatabaseConnection()
	if result.Status != "fail" {
		t.Errorf("Expected status 'fail', got '%s'", result.Status)
	}
	if result.Error == nil {
		t.Error("Expected error to be set")
	}
}

func TestCheckJournalSchema(t *testing.T) {
	db, cfg := setupPreflightTest(t)

	if result := NewChecker(db, cfg).checkJournalSchema(); result.Status != "pass" {
		t.Errorf("Expected status 'pass', got '%s': %s", result.Status, result.Message)
	}

	if _, err := db.Exec("DROP TABLE journal_entries"); err != nil {
		t.Fatalf("Failed to drop table: %v", err)
	}
	if result := NewChecker(db, cfg).checkJournalSchema(); result.Status != "fail" {
		t.Errorf("Expected status 'fail' without the table, got '%s'", result.Status)
	}
}

func TestCheckWritableDir(t *testing.T) {
	db, cfg := setupPreflightTest(t)
	checker := NewChecker(db, cfg)

	result := checker.checkWritableDir("Lessons Directory", cfg.LessonsDir)
	if result.Status != "pass" {
		t.Fatalf("Expected status 'pass', got '%s': %v", result.Status, result.Error)
	}
	entries, err := os.ReadDir(cfg.LessonsDir)
	if err != nil {
		t.Fatalf("Directory should have been created: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Probe file should be removed, found %d entries", len(entries))
	}

	// a regular file where the directory should be
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if result := checker.checkWritableDir("Blocked", blocker); result.Status != "fail" {
		t.Errorf("Expected status 'fail', got '%s'", result.Status)
	}
}

func TestRunAllWarnings(t *testing.T) {
	db, cfg := setupPreflightTest(t)
	cfg.ChromePath = filepath.Join(t.TempDir(), "missing-chrome")

	results := NewChecker(db, cfg).RunAll()
	if HasFailures(results) {
		t.Errorf("Expected no failures, got %+v", results)
	}

	for _, name := range []string{"Generation Provider", "Teacher Info", "Chrome"} {
		if r := findResult(t, results, name); r.Status != "warning" {
			t.Errorf("%s: expected 'warning', got '%s'", name, r.Status)
		}
	}
}

func TestRunAllPasses(t *testing.T) {
	db, cfg := setupPreflightTest(t)
	cfg.LLMAPIKey = "sk-test"
	if err := os.WriteFile(cfg.TeacherInfoPath, []byte(`[{"fr": {}}]`), 0644); err != nil {
		t.Fatal(err)
	}

	for _, r := range NewChecker(db, cfg).RunAll() {
		if r.Status != "pass" {
			t.Errorf("%s: expected 'pass', got '%s': %s", r.Name, r.Status, r.Message)
		}
	}
}

func TestHasFailures(t *testing.T) {
	tests := []struct {
		name     string
		results  []CheckResult
		expected bool
	}{
		{"all pass", []CheckResult{{Status: "pass"}, {Status: "pass"}}, false},
		{"with warning", []CheckResult{{Status: "pass"}, {Status: "warning"}}, false},
		{"with failure", []CheckResult{{Status: "pass"}, {Status: "fail"}}, true},
		{"empty", []CheckResult{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasFailures(tt.results); got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}
