package registry

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"cahier/internal/models"
	"cahier/internal/utils"
)

// ContentExtractor turns a source file into plain text
type ContentExtractor interface {
	Extract(filePath string) (string, error)
}

// MetadataFunc derives lesson metadata from a filename
type MetadataFunc func(filename string) models.LessonMetadata

// ObjectiveFunc derives the lesson objective from extracted text
type ObjectiveFunc func(content string) string

// Synchronizer reconciles a lessons directory with a Store. Passes are
// serialized: two concurrent Sync calls never assign the same id or register
// the same filename twice.
type Synchronizer struct {
	store      *Store
	dir        string
	extensions []string

	extractor ContentExtractor
	metadata  MetadataFunc
	objective ObjectiveFunc

	mu sync.Mutex
}

// SyncOption customizes a Synchronizer
type SyncOption func(*Synchronizer)

// WithExtractor replaces the content extractor
func WithExtractor(e ContentExtractor) SyncOption {
	return func(s *Synchronizer) { s.extractor = e }
}

// WithMetadata replaces the filename metadata extractor
func WithMetadata(fn MetadataFunc) SyncOption {
	return func(s *Synchronizer) { s.metadata = fn }
}

// WithObjective replaces the objective derivation
func WithObjective(fn ObjectiveFunc) SyncOption {
	return func(s *Synchronizer) { s.objective = fn }
}

// NewSynchronizer creates a synchronizer for dir. Only files whose extension
// is in extensions (case-insensitive) are registered.
func NewSynchronizer(store *Store, dir string, extensions []string, opts ...SyncOption) *Synchronizer {
	normalized := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		normalized = append(normalized, ext)
	}

	s := &Synchronizer{
		store:      store,
		dir:        dir,
		extensions: normalized,
		extractor:  utils.NewContentExtractor(),
		metadata:   utils.ExtractMetadata,
		objective:  utils.DeriveObjective,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the watched lessons directory
func (s *Synchronizer) Dir() string {
	return s.dir
}

// Store returns the underlying registry store
func (s *Synchronizer) Store() *Store {
	return s.store
}

// Sync runs one synchronization pass and reports whether records were added.
// A file that fails extraction is skipped and stays eligible for the next
// pass. The registry is written at most once per pass.
func (s *Synchronizer) Sync() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.dir); os.IsNotExist(err) {
		if err := os.MkdirAll(s.dir, registryDirMode); err != nil {
			return false, fmt.Errorf("create lessons directory: %w", err)
		}
		log.Printf("📁 [REGISTRY] Created missing lessons directory %s", s.dir)
		return false, nil
	}

	records := s.store.Load()
	known := make(map[string]struct{}, len(records))
	for _, record := range records {
		known[record.Filename] = struct{}{}
	}

	filenames, err := s.eligibleFiles()
	if err != nil {
		return false, err
	}

	added := 0
	for _, filename := range filenames {
		if _, ok := known[filename]; ok {
			continue
		}

		content, err := s.extractor.Extract(filepath.Join(s.dir, filename))
		if err != nil {
			log.Printf("⚠️  [REGISTRY] Skipping %s, extraction failed: %v", filename, err)
			continue
		}

		meta := s.metadata(filename)
		record := models.LessonRecord{
			ID:        nextID(records),
			Title:     meta.Title,
			Subject:   meta.Subject,
			Level:     meta.Level,
			Period:    meta.Period,
			Week:      meta.Week,
			Session:   meta.Session,
			Filename:  filename,
			Objective: s.objective(content),
			Content:   content,
		}

		records = append(records, record)
		known[filename] = struct{}{}
		added++
		log.Printf("➕ [REGISTRY] Registered %s as lesson %d", filename, record.ID)
	}

	if added == 0 {
		return false, nil
	}

	if err := s.store.SaveAll(records); err != nil {
		return false, fmt.Errorf("save registry: %w", err)
	}

	log.Printf("✅ [REGISTRY] Sync pass added %d lesson(s), %d total", added, len(records))
	return true, nil
}

// eligibleFiles lists regular files with a recognized extension, sorted by name
func (s *Synchronizer) eligibleFiles() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read lessons directory: %w", err)
	}

	// os.ReadDir returns entries sorted by filename
	var filenames []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		name := entry.Name()
		// skip dotfiles and office lock files (~$deck.pptx)
		if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~$") {
			continue
		}
		if s.accepts(name) {
			filenames = append(filenames, name)
		}
	}
	return filenames, nil
}

func (s *Synchronizer) accepts(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range s.extensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// Accepts reports whether name would be picked up by a sync pass
func (s *Synchronizer) Accepts(name string) bool {
	return s.accepts(filepath.Base(name))
}

func nextID(records []models.LessonRecord) int {
	maxID := 0
	for _, record := range records {
		if record.ID > maxID {
			maxID = record.ID
		}
	}
	return maxID + 1
}
