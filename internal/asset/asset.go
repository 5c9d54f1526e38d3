// Package asset resolves and caches the byte- and image-level assets a
// movie request references.
package asset

import (
	"fmt"
	"os"
	"path/filepath"
)

// Loader is the asset-loading collaborator. Failures are retryable by the
// caller; the engine itself never retries.
type Loader interface {
	LoadBytes(path string) ([]byte, error)
}

// DirLoader resolves relative paths against a list of search directories,
// then against the path as given.
type DirLoader struct {
	SearchPaths []string
}

// LoadBytes reads the first matching file.
func (l *DirLoader) LoadBytes(path string) ([]byte, error) {
	for _, dir := range l.SearchPaths {
		candidate := filepath.Join(dir, path)
		if data, err := os.ReadFile(candidate); err == nil {
			return data, nil
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("asset %q not found in search paths: %w", path, err)
	}
	return data, nil
}
