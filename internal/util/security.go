// BYZRA ⸻ internal/util/security.go
// name generation and path hygiene

package util

import (
	"crypto/rand"
	"fmt"
	"path/filepath"
	"time"
)

// every intermediate file starts with this
const TempPrefix = "morphra-"

// random identifier for temporary names
func GenerateRandomID() string {
	// 8-byte random value
	b := make([]byte, 8)
	_, err := rand.Read(b)
	if err != nil {
		// fallback if random fails
		return fmt.Sprintf("%s%d", TempPrefix, time.Now().UnixNano())
	}

	// convert 2 hex string
	return fmt.Sprintf("%s%x", TempPrefix, b)
}

// absolute, cleaned form of a user supplied path
func CleanPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path %s: %w", path, err)
	}
	return filepath.Clean(abs), nil
}
