// Package compose analyzes and rewrites compose-format YAML documents.
// Port metadata extracted here is advisory; rewriting is the only operation
// that mutates a document, and it preserves each entry's original style.
package compose

import (
	"os"
	"path/filepath"

	"harbormaster/internal/errors"
)

// ConventionalFiles are the compose filenames probed, in order, when a
// project does not name its compose file explicitly.
var ConventionalFiles = []string{
	"docker-compose.yml",
	"docker-compose.yaml",
	"compose.yml",
	"compose.yaml",
}

// ResolveFile returns the compose file path for a checkout directory.
// An explicitly configured name wins when it exists on disk; otherwise the
// first existing conventional name is used.
func ResolveFile(dir, explicit string) (string, error) {
	if explicit != "" {
		path := filepath.Join(dir, explicit)
		if fileExists(path) {
			return path, nil
		}
	}

	for _, name := range ConventionalFiles {
		path := filepath.Join(dir, name)
		if fileExists(path) {
			return path, nil
		}
	}

	return "", errors.ComposeFileNotFound(dir)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
