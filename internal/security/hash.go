package security

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"io"
)

// Hash represents a SHA-256 hash (32 bytes)
type Hash [32]byte

// fieldSeparator joins fingerprint fields. The ASCII unit separator does not
// occur in slide text, language codes, subject labels or session numbers.
const fieldSeparator = "\x1f"

// Fingerprint derives the cache key of a generation request from its
// semantic inputs. Equal inputs always produce equal hashes.
func Fingerprint(content, language, subject, session string) Hash {
	h := sha256.New()
	io.WriteString(h, content)
	io.WriteString(h, fieldSeparator)
	io.WriteString(h, language)
	io.WriteString(h, fieldSeparator)
	io.WriteString(h, subject)
	io.WriteString(h, fieldSeparator)
	io.WriteString(h, session)

	var result Hash
	copy(result[:], h.Sum(nil))
	return result
}

// String returns the hash as a hex string
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// Short returns the first 16 hex characters, enough to identify a key in logs.
func (h Hash) Short() string {
	return h.String()[:16]
}

// Equal compares two hashes using constant-time comparison
func (h Hash) Equal(other Hash) bool {
	return subtle.ConstantTimeCompare(h[:], other[:]) == 1
}
