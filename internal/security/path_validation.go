package security

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

var uuidPattern = regexp.MustCompile(`^[a-fA-F0-9]{8}-[a-fA-F0-9]{4}-[a-fA-F0-9]{4}-[a-fA-F0-9]{4}-[a-fA-F0-9]{12}$`)

// ValidateFileID validates that a document ID is a UUID and contains no path traversal sequences.
//
// Returns an error if the fileID:
//   - Is empty
//   - Contains path traversal sequences (.., /, \)
//   - Is not a valid UUID format (xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx)
func ValidateFileID(fileID string) error {
	if fileID == "" {
		return fmt.Errorf("file_id cannot be empty")
	}

	if err := rejectTraversal("file_id", fileID); err != nil {
		return err
	}

	if !uuidPattern.MatchString(fileID) {
		return fmt.Errorf("invalid file_id format: expected UUID (got %q)", fileID)
	}

	return nil
}

// ValidateSourceFilename checks an uploaded slide-deck name before it is
// written into the lessons directory. The name must be a bare base name
// ending in one of the allowed extensions (compared case-insensitively).
func ValidateSourceFilename(filename string, allowedExtensions []string) error {
	if strings.TrimSpace(filename) == "" {
		return fmt.Errorf("filename cannot be empty")
	}

	if err := rejectTraversal("filename", filename); err != nil {
		return err
	}

	if filepath.Base(filename) != filename || strings.HasPrefix(filename, ".") {
		return fmt.Errorf("invalid filename %q", filename)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range allowedExtensions {
		if ext == strings.ToLower(allowed) {
			return nil
		}
	}

	return fmt.Errorf("unsupported file type %q (allowed: %s)", ext, strings.Join(allowedExtensions, ", "))
}

func rejectTraversal(field, value string) error {
	if strings.Contains(value, "..") {
		return fmt.Errorf("invalid %s: path traversal attempt detected (..)", field)
	}
	if strings.Contains(value, "/") {
		return fmt.Errorf("invalid %s: path traversal attempt detected (/)", field)
	}
	if strings.Contains(value, "\\") {
		return fmt.Errorf("invalid %s: path traversal attempt detected (\\)", field)
	}
	return nil
}
