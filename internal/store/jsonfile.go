package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/roach88/hydrate/internal/intake"
)

// JSONFile stores the document as an indented JSON file.
type JSONFile struct {
	path string
}

// NewJSONFile returns a JSONFile backed by path. The file and its directory
// are created on first Save.
func NewJSONFile(path string) *JSONFile {
	return &JSONFile{path: path}
}

// Path returns the file location.
func (f *JSONFile) Path() string {
	return f.path
}

// Load reads and decodes the file. A missing file yields the default document.
func (f *JSONFile) Load(ctx context.Context) (intake.Document, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return intake.DefaultDocument(), nil
		}
		return intake.Document{}, fmt.Errorf("load %s: %w", f.path, err)
	}
	doc, err := decodeDocument(data)
	if err != nil {
		return intake.Document{}, fmt.Errorf("load %s: %w", f.path, err)
	}
	return doc, nil
}

// Save writes doc to a temporary file in the same directory, syncs it and
// renames it over the previous file.
func (f *JSONFile) Save(ctx context.Context, doc intake.Document) error {
	if doc.Records == nil {
		doc.Records = []intake.Record{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("save: marshal: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("save: create dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("save: create temp: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("save: write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("save: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("save: close: %w", err)
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		cleanup()
		return fmt.Errorf("save: rename: %w", err)
	}
	return nil
}

// Close is a no-op for JSONFile.
func (f *JSONFile) Close() error {
	return nil
}
