// Package paths resolves the journal folder layout on disk.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
)

// Default folder names inside the journal base folder.
const (
	DefaultNotesDir     = "Notes"
	DefaultImagesDir    = "Images"
	DefaultSettingsFile = "settings.json"
	defaultBaseName     = ".JOURNAL"
)

// Paths is the resolved journal layout.
type Paths struct {
	Base     string
	Notes    string
	Images   string
	Settings string
}

// Layout names the sub-folders relative to the base folder.
// Empty fields fall back to the defaults.
type Layout struct {
	NotesDir     string
	ImagesDir    string
	SettingsFile string
}

// DefaultBase returns ~/Documents/.JOURNAL.
func DefaultBase() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("paths: home dir: %w", err)
	}
	return filepath.Join(home, "Documents", defaultBaseName), nil
}

// Resolve builds absolute paths for base and layout. An empty base resolves
// to DefaultBase.
func Resolve(base string, layout Layout) (Paths, error) {
	if base == "" {
		b, err := DefaultBase()
		if err != nil {
			return Paths{}, err
		}
		base = b
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return Paths{}, fmt.Errorf("paths: resolve base: %w", err)
	}
	return Paths{
		Base:     abs,
		Notes:    filepath.Join(abs, orDefault(layout.NotesDir, DefaultNotesDir)),
		Images:   filepath.Join(abs, orDefault(layout.ImagesDir, DefaultImagesDir)),
		Settings: filepath.Join(abs, orDefault(layout.SettingsFile, DefaultSettingsFile)),
	}, nil
}

// Ensure creates the notes and images folders.
func (p Paths) Ensure() error {
	for _, dir := range []string{p.Notes, p.Images} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("paths: mkdir %s: %w", dir, err)
		}
	}
	return nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
