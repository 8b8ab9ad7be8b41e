package preflight

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"cahier/internal/config"
	"cahier/internal/database"
)

// CheckResult represents the result of a preflight check
type CheckResult struct {
	Name    string
	Status  string // "pass", "fail", "warning"
	Message string
	Error   error
}

// Checker performs pre-flight checks before the server starts
type Checker struct {
	db  *database.DB
	cfg *config.Config
}

// NewChecker creates a new preflight checker
func NewChecker(db *database.DB, cfg *config.Config) *Checker {
	return &Checker{db: db, cfg: cfg}
}

// RunAll runs all preflight checks and returns results
func (c *Checker) RunAll() []CheckResult {
	log.Println("🔍 Running pre-flight checks...")

	results := []CheckResult{
		c.checkDatabaseConnection(),
		c.checkJournalSchema(),
		c.checkWritableDir("Lessons Directory", c.cfg.LessonsDir),
		c.checkWritableDir("Output Directory", c.cfg.OutputDir),
		c.checkWritableDir("Registry Directory", filepath.Dir(c.cfg.RegistryPath)),
		c.checkGenerationProvider(),
		c.checkTeacherInfo(),
		c.checkChrome(),
	}

	passed := 0
	failed := 0
	warnings := 0

	for _, result := range results {
		switch result.Status {
		case "pass":
			log.Printf("   ✅ %s: %s", result.Name, result.Message)
			passed++
		case "fail":
			log.Printf("   ❌ %s: %s", result.Name, result.Message)
			if result.Error != nil {
				log.Printf("      Error: %v", result.Error)
			}
			failed++
		case "warning":
			log.Printf("   ⚠️  %s: %s", result.Name, result.Message)
			warnings++
		}
	}

	log.Printf("📊 Pre-flight summary: %d passed, %d failed, %d warnings", passed, failed, warnings)

	return results
}

// HasFailures returns true if any check failed
func HasFailures(results []CheckResult) bool {
	for _, result := range results {
		if result.Status == "fail" {
			return true
		}
	}
	return false
}

// checkDatabaseConnection verifies database connectivity
func (c *Checker) checkDatabaseConnection() CheckResult {
	if err := c.db.Ping(); err != nil {
		return CheckResult{
			Name:    "Database Connection",
			Status:  "fail",
			Message: "Cannot connect to database",
			Error:   err,
		}
	}

	return CheckResult{
		Name:    "Database Connection",
		Status:  "pass",
		Message: fmt.Sprintf("%s database connection successful", c.db.Dialect),
	}
}

// checkJournalSchema verifies the journal table exists
func (c *Checker) checkJournalSchema() CheckResult {
	query := "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?"
	if c.db.Dialect == database.DialectMySQL {
		query = "SELECT COUNT(*) FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?"
	}

	var count int
	err := c.db.QueryRow(query, "journal_entries").Scan(&count)
	if err != nil || count == 0 {
		return CheckResult{
			Name:    "Journal Schema",
			Status:  "fail",
			Message: "Required table 'journal_entries' not found",
			Error:   err,
		}
	}

	return CheckResult{
		Name:    "Journal Schema",
		Status:  "pass",
		Message: "Journal table exists",
	}
}

// checkWritableDir creates dir if needed and probes it with a temp file
func (c *Checker) checkWritableDir(name, dir string) CheckResult {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return CheckResult{
			Name:    name,
			Status:  "fail",
			Message: fmt.Sprintf("Cannot create %s", dir),
			Error:   err,
		}
	}

	probe, err := os.CreateTemp(dir, ".preflight-*")
	if err != nil {
		return CheckResult{
			Name:    name,
			Status:  "fail",
			Message: fmt.Sprintf("%s is not writable", dir),
			Error:   err,
		}
	}
	probe.Close()
	os.Remove(probe.Name())

	return CheckResult{
		Name:    name,
		Status:  "pass",
		Message: fmt.Sprintf("%s is writable", dir),
	}
}

// checkGenerationProvider warns when no API key is configured
func (c *Checker) checkGenerationProvider() CheckResult {
	if c.cfg.LLMAPIKey == "" {
		return CheckResult{
			Name:    "Generation Provider",
			Status:  "warning",
			Message: "LLM_API_KEY not set, generation requests will fail",
		}
	}

	return CheckResult{
		Name:    "Generation Provider",
		Status:  "pass",
		Message: fmt.Sprintf("%s via %s", c.cfg.LLMModel, c.cfg.LLMBaseURL),
	}
}

// checkTeacherInfo warns when documents will be rendered without a teacher header
func (c *Checker) checkTeacherInfo() CheckResult {
	if _, err := os.Stat(c.cfg.TeacherInfoPath); err != nil {
		return CheckResult{
			Name:    "Teacher Info",
			Status:  "warning",
			Message: fmt.Sprintf("%s not found, documents will only show the subject", c.cfg.TeacherInfoPath),
		}
	}

	return CheckResult{
		Name:    "Teacher Info",
		Status:  "pass",
		Message: fmt.Sprintf("Loaded from %s", c.cfg.TeacherInfoPath),
	}
}

// checkChrome verifies an explicit CHROME_PATH. Without one chromedp
// searches the usual install locations at render time.
func (c *Checker) checkChrome() CheckResult {
	if c.cfg.ChromePath == "" {
		return CheckResult{
			Name:    "Chrome",
			Status:  "pass",
			Message: "CHROME_PATH not set, using chromedp browser lookup",
		}
	}

	info, err := os.Stat(c.cfg.ChromePath)
	if err != nil || info.IsDir() {
		return CheckResult{
			Name:    "Chrome",
			Status:  "warning",
			Message: fmt.Sprintf("CHROME_PATH %s is not a file, PDF rendering will fail", c.cfg.ChromePath),
			Error:   err,
		}
	}

	return CheckResult{
		Name:    "Chrome",
		Status:  "pass",
		Message: c.cfg.ChromePath,
	}
}
