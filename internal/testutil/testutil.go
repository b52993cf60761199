// Package testutil provides shared test helpers for setting up journals and databases.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/daybook/internal/images"
	"github.com/starford/daybook/internal/index"
	"github.com/starford/daybook/internal/journal"
	"github.com/starford/daybook/internal/notes"
	"github.com/starford/daybook/internal/storage"
)

// PNG is the smallest byte prefix that content sniffing accepts as image/png.
var PNG = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

// Journal bundles a test journal with the folders behind it.
type Journal struct {
	Service   *journal.Service
	DB        *index.DB
	NotesDir  string
	ImagesDir string
}

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	db, err := index.Open(filepath.Join(t.TempDir(), "daybook-test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// Logger discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// TestJournal opens a journal over fresh temp folders. Extra options are
// applied after the catalog and logger.
func TestJournal(t *testing.T, opts ...journal.Option) *Journal {
	t.Helper()
	base := t.TempDir()
	noteFS, err := storage.NewFS(filepath.Join(base, "Notes"))
	if err != nil {
		t.Fatal(err)
	}
	imageFS, err := storage.NewFS(filepath.Join(base, "Images"))
	if err != nil {
		t.Fatal(err)
	}
	db := TestDB(t)
	logger := Logger()

	all := append([]journal.Option{journal.WithCatalog(db), journal.WithLogger(logger)}, opts...)
	svc := journal.New(notes.NewRepository(noteFS, logger), images.NewStore(imageFS, logger), all...)
	if err := svc.Open(context.Background()); err != nil {
		t.Fatal(err)
	}
	return &Journal{Service: svc, DB: db, NotesDir: noteFS.Root(), ImagesDir: imageFS.Root()}
}

// WriteFile writes data to dir/name and returns the full path.
func WriteFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}
