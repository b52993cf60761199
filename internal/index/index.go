package index

import (
	"log/slog"

	"github.com/starford/daybook/internal/storage"
)

// Catalog is the set of catalog operations the journal service uses.
type Catalog interface {
	UpsertDay(r DayRow) error
	DeleteDay(date string) (bool, error)
	DeleteAll() error
	GetDay(date string) (*DayRow, error)
	ListDays(from, to string) ([]DayRow, error)
	AllChecksums() (map[string]string, error)
	Sync(store storage.Provider, logger *slog.Logger) error
	Close() error
}

var _ Catalog = (*DB)(nil)
