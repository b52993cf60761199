// Package notes maps calendar dates to persisted daily note documents,
// one JSON file per date.
package notes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/daybook/internal/apperr"
	"github.com/starford/daybook/internal/models"
	"github.com/starford/daybook/internal/storage"
)

// Ext is the file extension of persisted notes.
const Ext = ".json"

// Skipped describes a note file that could not be loaded.
type Skipped struct {
	File string
	Err  error
}

// Snapshot is the result of a full load.
type Snapshot struct {
	Notes   map[string]models.DailyNote
	Skipped []Skipped
}

// Repository persists daily notes through a storage.Provider.
type Repository struct {
	store  storage.Provider
	logger *slog.Logger
}

// NewRepository creates a repository over store.
func NewRepository(store storage.Provider, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{store: store, logger: logger}
}

// Store returns the notes folder.
func (r *Repository) Store() storage.Provider { return r.store }

// FileName returns the file name of the note for date.
func FileName(date string) string {
	return date + Ext
}

// DateFromFile returns the date key encoded in a note file name.
func DateFromFile(name string) (string, bool) {
	if !strings.HasSuffix(name, Ext) {
		return "", false
	}
	date := strings.TrimSuffix(name, Ext)
	return date, models.ValidDate(date)
}

// Validate checks that n can be persisted.
func Validate(n models.DailyNote) error {
	err := validation.ValidateStruct(&n,
		validation.Field(&n.Date, validation.Required, validation.Date(models.DateLayout)),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrInvalidDate, err)
	}
	return nil
}

// Encode serializes n in the on-disk format.
func Encode(n models.DailyNote) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(n); err != nil {
		return nil, fmt.Errorf("notes: encode %s: %w", n.Date, err)
	}
	return buf.Bytes(), nil
}

// Decode parses a persisted note and checks it against the file it came from.
func Decode(name string, data []byte) (models.DailyNote, error) {
	var raw struct {
		Date        *string  `json:"date"`
		HTMLContent *string  `json:"html_content"`
		Images      []string `json:"images"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return models.DailyNote{}, fmt.Errorf("%w: %s: %v", apperr.ErrCorruptNote, name, err)
	}
	if raw.Date == nil || raw.HTMLContent == nil {
		return models.DailyNote{}, fmt.Errorf("%w: %s: missing date or html_content", apperr.ErrCorruptNote, name)
	}
	stem, ok := DateFromFile(name)
	if !ok {
		return models.DailyNote{}, fmt.Errorf("%w: %s: file name is not a date", apperr.ErrCorruptNote, name)
	}
	if *raw.Date != stem {
		return models.DailyNote{}, fmt.Errorf("%w: %s: date %q does not match file name", apperr.ErrCorruptNote, name, *raw.Date)
	}
	return models.DailyNote{Date: *raw.Date, HTMLContent: *raw.HTMLContent, Images: raw.Images}, nil
}

// LoadAll reads and decodes every persisted note. Files that fail to read or
// decode are skipped and reported in Snapshot.Skipped; only a failure to
// enumerate the folder is returned as an error.
func (r *Repository) LoadAll(ctx context.Context) (*Snapshot, error) {
	metas, err := r.store.List(Ext)
	if err != nil {
		return nil, fmt.Errorf("notes: load all: %w", err)
	}
	snap := &Snapshot{Notes: make(map[string]models.DailyNote, len(metas))}
	for _, m := range metas {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := r.read(m.Name)
		if err != nil {
			r.logger.Warn("notes: skipping unreadable note",
				slog.String("file", m.Name),
				slog.String("error", err.Error()))
			snap.Skipped = append(snap.Skipped, Skipped{File: m.Name, Err: err})
			continue
		}
		snap.Notes[n.Date] = n
	}
	return snap, nil
}

// Load returns the note for date.
func (r *Repository) Load(_ context.Context, date string) (models.DailyNote, error) {
	if !models.ValidDate(date) {
		return models.DailyNote{}, fmt.Errorf("%w: %q", apperr.ErrInvalidDate, date)
	}
	return r.read(FileName(date))
}

func (r *Repository) read(name string) (models.DailyNote, error) {
	data, err := r.store.Read(name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return models.DailyNote{}, fmt.Errorf("notes: %s: %w", name, apperr.ErrNotFound)
		}
		return models.DailyNote{}, err
	}
	return Decode(name, data)
}

// Keys returns the sorted dates of every persisted note without decoding them.
func (r *Repository) Keys(_ context.Context) ([]string, error) {
	metas, err := r.store.List(Ext)
	if err != nil {
		return nil, fmt.Errorf("notes: keys: %w", err)
	}
	keys := make([]string, 0, len(metas))
	for _, m := range metas {
		if date, ok := DateFromFile(m.Name); ok {
			keys = append(keys, date)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Save writes n to its own file, replacing any previous version.
func (r *Repository) Save(_ context.Context, n models.DailyNote) error {
	if err := Validate(n); err != nil {
		return err
	}
	data, err := Encode(n)
	if err != nil {
		return err
	}
	if err := r.store.Write(FileName(n.Date), data); err != nil {
		return fmt.Errorf("notes: save %s: %w", n.Date, err)
	}
	r.logger.Debug("notes: saved", slog.String("date", n.Date), slog.Int("bytes", len(data)))
	return nil
}

// Delete removes the note for date. Deleting a missing note is a no-op.
func (r *Repository) Delete(_ context.Context, date string) error {
	if !models.ValidDate(date) {
		return fmt.Errorf("%w: %q", apperr.ErrInvalidDate, date)
	}
	if err := r.store.Delete(FileName(date)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("notes: delete %s: %w", date, err)
	}
	r.logger.Debug("notes: deleted", slog.String("date", date))
	return nil
}

// DeleteAll removes every persisted note file and returns the removed dates.
// Files whose name is not a date are removed too but not reported.
func (r *Repository) DeleteAll(_ context.Context) ([]string, error) {
	metas, err := r.store.List(Ext)
	if err != nil {
		return nil, fmt.Errorf("notes: delete all: %w", err)
	}
	var removed []string
	var errs []error
	for _, m := range metas {
		if err := r.store.Delete(m.Name); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		if date, ok := DateFromFile(m.Name); ok {
			removed = append(removed, date)
		}
	}
	if len(errs) > 0 {
		return removed, fmt.Errorf("notes: delete all: %w", errors.Join(errs...))
	}
	return removed, nil
}
