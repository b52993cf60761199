package index

import (
	"log/slog"
	"time"

	"github.com/starford/daybook/internal/checksum"
	"github.com/starford/daybook/internal/notes"
	"github.com/starford/daybook/internal/storage"
)

// Sync brings the catalog in line with the notes folder:
//   - new/changed note files are decoded and upserted
//   - days whose file is gone are deleted
//
// Unreadable or malformed files are skipped and logged.
func Sync(db *DB, store storage.Provider, logger *slog.Logger) error {
	metas, err := store.List(notes.Ext)
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		date, ok := notes.DateFromFile(m.Name)
		if !ok {
			continue
		}
		disk[date] = struct{}{}

		if checksums[date] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Name)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("file", m.Name), slog.String("error", err.Error()))
			continue
		}
		if _, err := indexFile(db, m.Name, data, m.UpdatedAt); err != nil {
			logger.Warn("sync: index failed", slog.String("file", m.Name), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("date", date))
		}
	}

	for d := range checksums {
		if _, ok := disk[d]; ok {
			continue
		}
		if _, err := db.DeleteDay(d); err != nil {
			logger.Warn("sync: delete failed", slog.String("date", d), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: removed stale", slog.String("date", d))
		}
	}

	return nil
}

// Sync is the method form of the package-level Sync.
func (db *DB) Sync(store storage.Provider, logger *slog.Logger) error {
	return Sync(db, store, logger)
}

// Row builds the catalog row for a raw note file.
func Row(name string, data []byte, updatedAt time.Time) (DayRow, error) {
	n, err := notes.Decode(name, data)
	if err != nil {
		return DayRow{}, err
	}
	return DayRow{
		Date:       n.Date,
		Checksum:   checksum.Sum(data),
		ImageCount: len(n.Images),
		Bytes:      int64(len(data)),
		UpdatedAt:  updatedAt.UTC(),
	}, nil
}

// indexFile decodes data and upserts it. It returns the date.
func indexFile(db *DB, name string, data []byte, updatedAt time.Time) (string, error) {
	row, err := Row(name, data, updatedAt)
	if err != nil {
		return "", err
	}
	return row.Date, db.UpsertDay(row)
}
