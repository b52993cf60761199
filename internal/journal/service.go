// Package journal coordinates the note repository, the image store, the
// calendar presence index and the day catalog. Every mutation runs under one
// lock so the journal behaves as if driven by a single control thread.
package journal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/starford/daybook/internal/apperr"
	"github.com/starford/daybook/internal/calendar"
	"github.com/starford/daybook/internal/editor"
	"github.com/starford/daybook/internal/images"
	"github.com/starford/daybook/internal/index"
	"github.com/starford/daybook/internal/models"
	"github.com/starford/daybook/internal/notes"
	"github.com/starford/daybook/internal/richtext"
)

// Publisher receives day change notifications.
type Publisher interface {
	PublishDayEvent(kind, date string)
}

// Day is a stored note, or an empty placeholder when none exists.
type Day struct {
	Date        string          `json:"date"`
	HTMLContent string          `json:"html_content"`
	Images      []string        `json:"images"`
	Presence    models.Presence `json:"presence"`
	Exists      bool            `json:"exists"`
}

// Change reports what ContentChanged did.
type Change struct {
	Date     string          `json:"date"`
	Saved    bool            `json:"saved"`
	Deleted  bool            `json:"deleted"`
	Recolor  bool            `json:"recolor"`
	Presence models.Presence `json:"presence"`
}

// Service is the journal.
type Service struct {
	mu sync.Mutex

	repo    *notes.Repository
	images  *images.Store
	cal     *calendar.Synchronizer
	catalog index.Catalog
	events  Publisher
	editor  editor.Config
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithCatalog keeps cat in step with the repository.
func WithCatalog(cat index.Catalog) Option {
	return func(s *Service) { s.catalog = cat }
}

// WithPublisher sends day events to p.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.events = p }
}

// WithEditorConfig sets the editor tunables used to parse content.
func WithEditorConfig(cfg editor.Config) Option {
	return func(s *Service) { s.editor = cfg }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// New creates a journal over repo and imgs.
func New(repo *notes.Repository, imgs *images.Store, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		images: imgs,
		editor: editor.DefaultConfig,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	s.editor = s.editor.WithDefaults()
	s.cal = calendar.NewSynchronizer(s)
	return s
}

// Keys lists the dates whose note loads cleanly. It is the calendar's
// rebuild source.
func (s *Service) Keys(ctx context.Context) ([]string, error) {
	snap, err := s.repo.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(snap.Notes))
	for d := range snap.Notes {
		keys = append(keys, d)
	}
	sort.Strings(keys)
	return keys, nil
}

// Open prepares the journal: the presence index is rebuilt and the catalog
// is reconciled with the notes folder.
func (s *Service) Open(ctx context.Context) error {
	if err := s.Rebuild(ctx); err != nil {
		return err
	}
	s.logger.Info("journal: opened",
		slog.String("notes", s.repo.Store().Root()),
		slog.Int("days", len(s.cal.Dates())),
	)
	return nil
}

// Rebuild recomputes the presence index from the repository and resyncs the
// catalog.
func (s *Service) Rebuild(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rebuildLocked(ctx)
}

func (s *Service) rebuildLocked(ctx context.Context) error {
	if err := s.cal.Rebuild(ctx); err != nil {
		return fmt.Errorf("journal: rebuild: %w", err)
	}
	if s.catalog != nil {
		if err := s.catalog.Sync(s.repo.Store(), s.logger); err != nil {
			return fmt.Errorf("journal: sync catalog: %w", err)
		}
	}
	return nil
}

// Day returns the note for date. A missing note yields an empty Day.
func (s *Service) Day(ctx context.Context, date string) (Day, error) {
	date, err := models.NormalizeDate(date)
	if err != nil {
		return Day{}, err
	}
	n, err := s.repo.Load(ctx, date)
	if errors.Is(err, apperr.ErrNotFound) {
		return Day{Date: date, Images: []string{}, Presence: s.cal.Presence(date)}, nil
	}
	if err != nil {
		return Day{}, fmt.Errorf("journal: day %s: %w", date, err)
	}
	imgs := n.Images
	if imgs == nil {
		imgs = []string{}
	}
	return Day{
		Date:        n.Date,
		HTMLContent: n.HTMLContent,
		Images:      imgs,
		Presence:    s.cal.Presence(date),
		Exists:      true,
	}, nil
}

// ContentChanged applies the emptiness transition for date: content with no
// plain text deletes the stored note, anything else saves it in full.
func (s *Service) ContentChanged(ctx context.Context, date, html string) (Change, error) {
	date, err := models.NormalizeDate(date)
	if err != nil {
		return Change{}, err
	}
	doc, err := richtext.ParseHTML(html, richtext.Format{Size: s.editor.DefaultSize})
	if err != nil {
		return Change{}, fmt.Errorf("journal: parse content: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if doc.IsEmpty() {
		existed, err := s.deleteLocked(ctx, date)
		if err != nil {
			return Change{}, err
		}
		return Change{Date: date, Deleted: existed, Recolor: existed, Presence: models.PresenceEmpty}, nil
	}

	n := models.DailyNote{Date: date, HTMLContent: html, Images: doc.Images()}
	if err := s.repo.Save(ctx, n); err != nil {
		return Change{}, fmt.Errorf("journal: save %s: %w", date, err)
	}
	s.upsertCatalog(ctx, n)

	first := s.cal.Mark(date, true)
	kind := index.EventUpdated
	if first {
		kind = index.EventCreated
	}
	s.publish(kind, date)
	return Change{Date: date, Saved: true, Recolor: first, Presence: models.PresenceHasNote}, nil
}

// DeleteDay removes the note for date, if any.
func (s *Service) DeleteDay(ctx context.Context, date string) error {
	date, err := models.NormalizeDate(date)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.deleteLocked(ctx, date)
	return err
}

func (s *Service) deleteLocked(ctx context.Context, date string) (bool, error) {
	if err := s.repo.Delete(ctx, date); err != nil {
		return false, fmt.Errorf("journal: delete %s: %w", date, err)
	}
	removed := false
	if s.catalog != nil {
		var err error
		if removed, err = s.catalog.DeleteDay(date); err != nil {
			s.logger.WarnContext(ctx, "journal: catalog delete failed",
				slog.String("date", date), slog.String("error", err.Error()))
		}
	}
	changed := s.cal.Mark(date, false)
	if changed || removed {
		s.publish(index.EventDeleted, date)
	}
	return changed || removed, nil
}

// DeleteAll removes every stored note. Nothing is touched unless confirmed.
func (s *Service) DeleteAll(ctx context.Context, confirmed bool) ([]string, error) {
	if !confirmed {
		return nil, fmt.Errorf("journal: delete all: %w", apperr.ErrConfirmationRequired)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	removed, err := s.repo.DeleteAll(ctx)
	if err != nil {
		// Whatever survived must stay visible.
		if rbErr := s.rebuildLocked(ctx); rbErr != nil {
			s.logger.ErrorContext(ctx, "journal: rebuild after failed delete all", slog.String("error", rbErr.Error()))
		}
		return removed, fmt.Errorf("journal: %w", err)
	}
	if s.catalog != nil {
		if err := s.catalog.DeleteAll(); err != nil {
			s.logger.WarnContext(ctx, "journal: catalog clear failed", slog.String("error", err.Error()))
		}
	}
	s.cal.Clear()
	s.publish("cleared", "")
	s.logger.InfoContext(ctx, "journal: deleted all notes", slog.Int("count", len(removed)))
	return removed, nil
}

// Calendar returns the month grid. selected may be empty.
func (s *Service) Calendar(year int, month time.Month, selected string) calendar.Month {
	return s.cal.Month(year, month, selected)
}

// Presence returns the presence of date.
func (s *Service) Presence(date string) models.Presence {
	return s.cal.Presence(date)
}

// ListDays returns catalogued days in [from, to]. Empty bounds are open.
func (s *Service) ListDays(_ context.Context, from, to string) ([]index.DayRow, error) {
	var err error
	if from != "" {
		if from, err = models.NormalizeDate(from); err != nil {
			return nil, err
		}
	}
	if to != "" {
		if to, err = models.NormalizeDate(to); err != nil {
			return nil, err
		}
	}
	if s.catalog != nil {
		return s.catalog.ListDays(from, to)
	}
	out := []index.DayRow{}
	for _, d := range s.cal.Dates() {
		if (from == "" || d >= from) && (to == "" || d <= to) {
			out = append(out, index.DayRow{Date: d})
		}
	}
	return out, nil
}

// ImportImage copies an external file into the image store and returns the
// managed path.
func (s *Service) ImportImage(ctx context.Context, src string) (string, error) {
	return s.images.Copy(ctx, src)
}

// UploadImage stores uploaded bytes and returns the stored name.
func (s *Service) UploadImage(ctx context.Context, name string, data []byte) (string, error) {
	return s.images.Put(ctx, name, data)
}

// FetchImage downloads or decodes rawURL into the image store.
func (s *Service) FetchImage(ctx context.Context, rawURL, name string) (string, error) {
	data, derived, err := images.Fetch(ctx, rawURL, name)
	if err != nil {
		return "", err
	}
	return s.images.Put(ctx, derived, data)
}

// ReclaimImage is the orphan clean-up hook. It never deletes yet.
func (s *Service) ReclaimImage(ctx context.Context, name string) error {
	return s.images.Reclaim(ctx, name)
}

// ImagePath returns the on-disk path of a stored image.
func (s *Service) ImagePath(name string) (string, error) {
	return s.images.Path(name)
}

// Images exposes the image store as the editor's copier.
func (s *Service) Images() editor.ImageCopier { return s.images }

// EditorConfig returns the editor tunables.
func (s *Service) EditorConfig() editor.Config { return s.editor }

// ExternalChange folds a change made outside the service (reported by the
// catalog watcher) into the presence index. Watcher events can lag behind
// the service's own writes, so presence follows what the repository holds
// now; an event that disagrees with it is dropped and the catalog row is
// restored.
func (s *Service) ExternalChange(kind, date string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.repo.Load(context.Background(), date)
	exists := err == nil
	s.cal.Mark(date, exists)

	if exists == (kind == index.EventDeleted) {
		s.logger.Debug("journal: stale external change",
			slog.String("kind", kind), slog.String("date", date), slog.Bool("exists", exists))
		if exists {
			s.restoreCatalog(date)
		}
		return
	}
	s.logger.Debug("journal: external change", slog.String("kind", kind), slog.String("date", date))
	s.publish(kind, date)
}

func (s *Service) upsertCatalog(ctx context.Context, n models.DailyNote) {
	if s.catalog == nil {
		return
	}
	data, err := notes.Encode(n)
	if err == nil {
		var row index.DayRow
		row, err = index.Row(notes.FileName(n.Date), data, s.now())
		if err == nil {
			err = s.catalog.UpsertDay(row)
		}
	}
	if err != nil {
		s.logger.WarnContext(ctx, "journal: catalog upsert failed",
			slog.String("date", n.Date), slog.String("error", err.Error()))
	}
}

// restoreCatalog re-indexes the file on disk after a stale delete removed
// its row.
func (s *Service) restoreCatalog(date string) {
	if s.catalog == nil {
		return
	}
	name := notes.FileName(date)
	data, err := s.repo.Store().Read(name)
	if err == nil {
		var row index.DayRow
		row, err = index.Row(name, data, s.now())
		if err == nil {
			err = s.catalog.UpsertDay(row)
		}
	}
	if err != nil {
		s.logger.Warn("journal: catalog restore failed", slog.String("date", date), slog.String("error", err.Error()))
	}
}

func (s *Service) publish(kind, date string) {
	if s.events != nil {
		s.events.PublishDayEvent(kind, date)
	}
}
