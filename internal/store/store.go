package store

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/roach88/hydrate/internal/intake"
)

// Persistence loads and saves the whole document.
type Persistence interface {
	// Load returns the stored document merged onto defaults.
	// A store with nothing saved yet returns intake.DefaultDocument().
	Load(ctx context.Context) (intake.Document, error)

	// Save replaces the stored document with doc.
	Save(ctx context.Context, doc intake.Document) error

	// Close releases resources held by the backend.
	Close() error
}

// Backend names accepted by Open.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// File names used inside the data directory.
const (
	DataFileName     = "hydrate-data.json"
	DatabaseFileName = "hydrate.db"
)

// Open returns the Persistence for backend rooted at dataDir.
func Open(backend, dataDir string) (Persistence, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("open store: empty data directory")
	}
	switch backend {
	case BackendJSON, "":
		return NewJSONFile(filepath.Join(dataDir, DataFileName)), nil
	case BackendSQLite:
		return OpenSQLite(filepath.Join(dataDir, DatabaseFileName))
	default:
		return nil, fmt.Errorf("open store: unknown backend %q", backend)
	}
}

// LoadOrDefault loads the document, falling back to defaults on failure.
// The failure is recorded in LastSyncError and logged; it is never returned.
func LoadOrDefault(ctx context.Context, p Persistence, logger *slog.Logger) intake.Document {
	doc, err := p.Load(ctx)
	if err != nil {
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("state unreadable, starting from defaults", "error", err)
		doc = intake.DefaultDocument()
		doc.LastSyncError = err.Error()
	}
	return doc
}
