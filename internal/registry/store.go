// Package registry keeps the persisted list of known lesson sources and
// reconciles it with the lessons directory.
package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"cahier/internal/models"
)

const (
	registryDirMode  = 0o755
	registryFileMode = 0o644
	tempFilePattern  = "lessons-*.json.tmp"
)

// Store reads and writes the registry JSON document. Saves go through a
// temporary file and a rename so readers never observe a partial write.
type Store struct {
	path string
}

// NewStore creates a store backed by the JSON file at path
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the registry file location
func (s *Store) Path() string {
	return s.path
}

// Load returns the persisted records in order. A missing registry yields an
// empty list; an unreadable or malformed one is logged and also treated as
// empty so the next sync pass can rebuild it.
func (s *Store) Load() []models.LessonRecord {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("⚠️  [REGISTRY] Failed to read %s, treating as empty: %v", s.path, err)
		}
		return []models.LessonRecord{}
	}

	var records []models.LessonRecord
	if err := json.Unmarshal(data, &records); err != nil {
		log.Printf("⚠️  [REGISTRY] Malformed registry %s, treating as empty: %v", s.path, err)
		return []models.LessonRecord{}
	}
	if records == nil {
		records = []models.LessonRecord{}
	}
	return records
}

// Append adds one record to the persisted list
func (s *Store) Append(record models.LessonRecord) error {
	records := s.Load()
	return s.SaveAll(append(records, record))
}

// SaveAll replaces the persisted list atomically
func (s *Store) SaveAll(records []models.LessonRecord) error {
	if records == nil {
		records = []models.LessonRecord{}
	}

	if err := os.MkdirAll(filepath.Dir(s.path), registryDirMode); err != nil {
		return fmt.Errorf("create registry directory: %w", err)
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(records); err != nil {
		return fmt.Errorf("encode registry: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(s.path), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp registry file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(buf.Bytes()); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp registry file: %w", err)
	}

	if err := tempFile.Chmod(registryFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp registry file: %w", err)
	}

	if err := tempFile.Sync(); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("sync temp registry file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp registry file: %w", err)
	}

	if err := os.Rename(tempName, s.path); err != nil {
		return fmt.Errorf("replace registry file: %w", err)
	}

	cleanup = false
	return nil
}

// Find returns the record with the given id
func (s *Store) Find(id int) (models.LessonRecord, bool) {
	for _, record := range s.Load() {
		if record.ID == id {
			return record, true
		}
	}
	return models.LessonRecord{}, false
}
