package manifest

import (
	"fmt"
	"os"
	"path/filepath"
)

// File permission constants.
const (
	DirMode  os.FileMode = 0o755
	FileMode os.FileMode = 0o644
)

// WriteFile stores m at path by writing a temp file in the same directory
// and renaming it over path. The directory itself is not fsynced.
func WriteFile(path string, m *Manifest) (retErr error) {
	content, err := Marshal(m)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, DirMode); err != nil {
		return fmt.Errorf("cannot create directory: %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".kizuna-*.yaml")
	if err != nil {
		return fmt.Errorf("cannot create temp file: %w", err)
	}
	tmpName := tmp.Name()
	closed := false

	defer func() {
		if !closed {
			_ = tmp.Close()
		}
		if retErr != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("cannot write manifest: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("cannot sync manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("cannot close temp file: %w", err)
	}
	closed = true

	if err := os.Chmod(tmpName, FileMode); err != nil {
		return fmt.Errorf("cannot set file permissions: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("cannot write manifest %s: %w", path, err)
	}

	return nil
}
