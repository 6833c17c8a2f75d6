package writer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Save writes the files under dir in order, context file first. Every
// target is checked before the first write: read-only targets always fail,
// existing ones unless overwrite is set.
func (o *Output) Save(dir string, overwrite bool) ([]string, error) {
	files := o.Files()
	if err := preflight(dir, files, overwrite); err != nil {
		return nil, err
	}

	// Create output directory if it doesn't exist
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	for _, f := range files {
		path := filepath.Join(dir, f.Path)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory for %s: %w", f.Path, err)
		}
		if err := os.WriteFile(path, []byte(f.Code), 0o644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", f.Path, err)
		}
	}
	return relative(dir, files), nil
}

func preflight(dir string, files []File, overwrite bool) error {
	var readOnly, existing []string
	for _, f := range files {
		path := filepath.Join(dir, f.Path)
		info, err := os.Stat(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to check %s: %w", path, err)
		}
		if info.Mode().Perm()&0o200 == 0 {
			readOnly = append(readOnly, path)
			continue
		}
		existing = append(existing, path)
	}
	if len(readOnly) > 0 {
		return &ReadOnlyFileConflictError{Paths: readOnly}
	}
	if len(existing) > 0 && !overwrite {
		return &ExistingFileConflictError{Paths: existing}
	}
	return nil
}
