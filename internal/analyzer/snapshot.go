package analyzer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/kennygrant/sanitize"
)

// SnapshotName derives the snapshot file name of pageURL: accents are
// folded, every other character outside [A-Za-z0-9] becomes '_' and
// ".txt" is appended.
func SnapshotName(pageURL string) string {
	name := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return '_'
	}, sanitize.Accents(pageURL))
	return name + ".txt"
}

// ContentHash returns the xxhash64 of body as 16 hex digits.
func ContentHash(body []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(body))
}

// SaveSnapshot writes text under dir and returns the file path. dir is
// created when missing.
func SaveSnapshot(dir, pageURL, text string) (string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	path := filepath.Join(dir, SnapshotName(pageURL))
	if err := os.WriteFile(path, []byte(text), 0o600); err != nil {
		return "", fmt.Errorf("failed to write snapshot: %w", err)
	}
	return path, nil
}
