// Package images manages the flat image folder that journal entries embed
// from. Files are addressed by base name; nothing tracks which notes use
// which image.
package images

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/starford/daybook/internal/apperr"
	"github.com/starford/daybook/internal/checksum"
	"github.com/starford/daybook/internal/storage"
)

// MaxSize bounds uploads and fetched images.
const MaxSize = 10 << 20 // 10 MB

var (
	allowedExtensions = map[string]bool{
		".jpg": true, ".jpeg": true, ".png": true,
		".gif": true, ".bmp": true, ".webp": true,
	}

	mimeToExt = map[string]string{
		"image/png":  ".png",
		"image/jpeg": ".jpg",
		"image/gif":  ".gif",
		"image/bmp":  ".bmp",
		"image/webp": ".webp",
	}

	unsafeNameRe = regexp.MustCompile(`[^a-zA-Z0-9._-]`)
)

// Allowed reports whether name has an accepted image extension.
func Allowed(name string) bool {
	return allowedExtensions[strings.ToLower(filepath.Ext(name))]
}

// Store is the image folder.
type Store struct {
	files  storage.Provider
	logger *slog.Logger
}

// NewStore returns a store over files.
func NewStore(files storage.Provider, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{files: files, logger: logger}
}

// Copy imports the file at src under its base name and returns the managed
// path to embed in markup. An existing image with the same name is
// overwritten.
func (s *Store) Copy(ctx context.Context, src string) (string, error) {
	name := filepath.Base(src)
	if !Allowed(name) {
		return "", fmt.Errorf("images: copy %s: %w: extension %q", src, apperr.ErrUnsupportedImage, filepath.Ext(name))
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return "", fmt.Errorf("images: copy %s: %w: %v", src, apperr.ErrImageUnavailable, err)
	}
	if err := s.write(ctx, name, data); err != nil {
		return "", err
	}
	return s.Path(name)
}

// Put stores uploaded bytes under a sanitised name and returns that name. The
// content must match the extension.
func (s *Store) Put(ctx context.Context, name string, data []byte) (string, error) {
	name = SanitizeName(name)
	ext := strings.ToLower(filepath.Ext(name))
	if !allowedExtensions[ext] {
		return "", fmt.Errorf("images: put %s: %w: extension %q", name, apperr.ErrUnsupportedImage, ext)
	}
	if len(data) > MaxSize {
		return "", fmt.Errorf("images: put %s: %w: %d bytes exceeds %d", name, apperr.ErrUnsupportedImage, len(data), MaxSize)
	}
	if err := validateMagicBytes(data, ext); err != nil {
		return "", fmt.Errorf("images: put %s: %w: %v", name, apperr.ErrUnsupportedImage, err)
	}
	if err := s.write(ctx, name, data); err != nil {
		return "", err
	}
	return name, nil
}

func (s *Store) write(ctx context.Context, name string, data []byte) error {
	if meta, err := s.files.Stat(name); err == nil && !checksum.Equal(data, meta.Checksum) {
		s.logger.WarnContext(ctx, "images: overwriting image with different content",
			slog.String("name", name),
		)
	}
	if err := s.files.Write(name, data); err != nil {
		return fmt.Errorf("images: write %s: %w", name, err)
	}
	return nil
}

// Path returns the absolute path of an image.
func (s *Store) Path(name string) (string, error) {
	if name != filepath.Base(name) {
		return "", fmt.Errorf("images: %w: invalid name %q", apperr.ErrNotFound, name)
	}
	p, err := s.files.Abs(name)
	if err != nil {
		return "", fmt.Errorf("images: %w: %v", apperr.ErrNotFound, err)
	}
	return p, nil
}

// Exists reports whether an image is stored under name.
func (s *Store) Exists(name string) bool {
	if name != filepath.Base(name) {
		return false
	}
	_, err := s.files.Stat(name)
	return err == nil
}

// Root returns the image folder.
func (s *Store) Root() string { return s.files.Root() }

// Reclaim would remove an image no note references any more. Reference
// tracking does not exist yet, so it always fails without deleting.
func (s *Store) Reclaim(_ context.Context, name string) error {
	return fmt.Errorf("images: reclaim %s: %w", name, apperr.ErrNotImplemented)
}

// SanitizeName strips directories and unsafe characters. An empty result is
// replaced by a random name.
func SanitizeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = unsafeNameRe.ReplaceAllString(name, "_")
	if name == "" || name == "." || strings.Trim(name, "._") == "" {
		name = uuid.New().String()
	}
	return name
}

// validateMagicBytes verifies content matches the declared extension.
func validateMagicBytes(data []byte, ext string) error {
	detected := http.DetectContentType(data)
	got := mimeToExt[strings.Split(detected, ";")[0]]

	switch ext {
	case ".jpg", ".jpeg":
		if got != ".jpg" {
			return fmt.Errorf("content does not match extension %s (detected: %s)", ext, detected)
		}
	default:
		if got != ext {
			return fmt.Errorf("content does not match extension %s (detected: %s)", ext, detected)
		}
	}
	return nil
}
