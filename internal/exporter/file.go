package exporter

import (
	"io"
	"os"
	"path/filepath"

	apperrors "filmstats/internal/errors"
)

// WriteFile writes path through write into a temporary file in the same
// directory and renames it into place. A failed write leaves any previous
// file untouched.
func WriteFile(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return apperrors.NewStorageError("failed to create directory "+dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return apperrors.NewStorageError("failed to create "+path, err)
	}
	if err := write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return apperrors.NewStorageError("failed to write "+path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return apperrors.NewStorageError("failed to finish "+path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return apperrors.NewStorageError("failed to move "+path+" into place", err)
	}
	return nil
}

// WriteText writes content to path atomically
func WriteText(path, content string) error {
	return WriteFile(path, func(w io.Writer) error {
		_, err := io.WriteString(w, content)
		return err
	})
}
