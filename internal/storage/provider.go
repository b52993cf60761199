// Package storage defines the flat-folder file abstraction that backs the
// note and image stores.
package storage

import "github.com/starford/daybook/internal/models"

// Provider is the interface for file operations under one root folder.
type Provider interface {
	// List returns metadata for every file in the root whose name ends with ext.
	// An empty ext lists every regular file. A missing root lists nothing.
	List(ext string) ([]models.FileMetadata, error)
	// Stat returns metadata for one file.
	Stat(name string) (models.FileMetadata, error)
	// Read returns the raw bytes of the file at name (relative to root).
	Read(name string) ([]byte, error)
	// Write atomically writes content to name, creating the root if needed.
	Write(name string, content []byte) error
	// Delete removes the file at name. Missing files yield an error wrapping os.ErrNotExist.
	Delete(name string) error
	// Abs returns the absolute on-disk path of name.
	Abs(name string) (string, error)
	// Root returns the absolute root folder.
	Root() string
}
