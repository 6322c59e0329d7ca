package skill

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// File is one file of a skill payload fetched from a remote service.
type File struct {
	Path    string
	Content string
}

// WriteFiles materializes remote files under dir. Entries with empty
// paths are skipped; paths that would land outside dir are rejected,
// so remote services do not get to pick arbitrary destinations.
func WriteFiles(dir string, files []File) ([]string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create skill dir: %w", err)
	}
	var written []string
	for _, f := range files {
		if f.Path == "" {
			continue
		}
		clean, err := safeJoin(dir, f.Path)
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(filepath.Dir(clean), 0o750); err != nil {
			return nil, fmt.Errorf("create dir for %s: %w", f.Path, err)
		}
		if err := os.WriteFile(clean, []byte(f.Content), 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", f.Path, err)
		}
		written = append(written, clean)
	}
	return written, nil
}

// safeJoin joins rel under dir and rejects anything that would escape it.
func safeJoin(dir, rel string) (string, error) {
	if filepath.IsAbs(rel) {
		return "", fmt.Errorf("refusing absolute path from API: %s", rel)
	}
	clean := filepath.Clean(filepath.Join(dir, rel))
	if clean != dir && !strings.HasPrefix(clean, dir+string(filepath.Separator)) {
		return "", fmt.Errorf("refusing path escaping the skill dir: %s", rel)
	}
	return clean, nil
}
