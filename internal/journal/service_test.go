package journal

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/daybook/internal/apperr"
	"github.com/starford/daybook/internal/editor"
	"github.com/starford/daybook/internal/images"
	"github.com/starford/daybook/internal/index"
	"github.com/starford/daybook/internal/models"
	"github.com/starford/daybook/internal/notes"
	"github.com/starford/daybook/internal/storage"
)

type recordedEvent struct{ kind, date string }

type fakePublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *fakePublisher) PublishDayEvent(kind, date string) {
	p.mu.Lock()
	p.events = append(p.events, recordedEvent{kind, date})
	p.mu.Unlock()
}

func (p *fakePublisher) all() []recordedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]recordedEvent(nil), p.events...)
}

type env struct {
	svc      *Service
	repo     *notes.Repository
	db       *index.DB
	events   *fakePublisher
	notesDir string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	base := t.TempDir()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	noteFS, err := storage.NewFS(filepath.Join(base, "Notes"))
	require.NoError(t, err)
	imageFS, err := storage.NewFS(filepath.Join(base, "Images"))
	require.NoError(t, err)
	db, err := index.Open(filepath.Join(base, "daybook.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := notes.NewRepository(noteFS, logger)
	pub := &fakePublisher{}
	svc := New(repo, images.NewStore(imageFS, logger),
		WithCatalog(db),
		WithPublisher(pub),
		WithLogger(logger),
	)
	require.NoError(t, svc.Open(context.Background()))
	return &env{svc: svc, repo: repo, db: db, events: pub, notesDir: noteFS.Root()}
}

const day = "2026-10-19"

func TestContentChanged_EmptinessTransition(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	file := filepath.Join(e.notesDir, notes.FileName(day))

	ch, err := e.svc.ContentChanged(ctx, day, "<p>x</p>")
	require.NoError(t, err)
	assert.True(t, ch.Saved)
	assert.True(t, ch.Recolor, "first character recolours the day")
	assert.Equal(t, models.PresenceHasNote, e.svc.Presence(day))
	assert.FileExists(t, file)

	ch, err = e.svc.ContentChanged(ctx, day, "<p>xy</p>")
	require.NoError(t, err)
	assert.True(t, ch.Saved)
	assert.False(t, ch.Recolor)

	ch, err = e.svc.ContentChanged(ctx, day, "<p><br /></p>")
	require.NoError(t, err)
	assert.True(t, ch.Deleted)
	assert.False(t, ch.Saved)
	assert.NoFileExists(t, file, "an empty note is deleted, not saved empty")
	assert.Equal(t, models.PresenceEmpty, e.svc.Presence(day))

	ch, err = e.svc.ContentChanged(ctx, day, "<p>again</p>")
	require.NoError(t, err)
	assert.True(t, ch.Recolor)
	n, err := e.repo.Load(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, "<p>again</p>", n.HTMLContent)

	assert.Equal(t, []recordedEvent{
		{index.EventCreated, day},
		{index.EventUpdated, day},
		{index.EventDeleted, day},
		{index.EventCreated, day},
	}, e.events.all())
}

func TestContentChanged_ClearingMissingNoteIsQuiet(t *testing.T) {
	e := newEnv(t)
	ch, err := e.svc.ContentChanged(context.Background(), day, "")
	require.NoError(t, err)
	assert.False(t, ch.Deleted)
	assert.Empty(t, e.events.all())
}

func TestContentChanged_ImageOnlyNoteIsSaved(t *testing.T) {
	e := newEnv(t)
	html := `<p><img src="/j/Images/photo.png" /></p>`

	ch, err := e.svc.ContentChanged(context.Background(), day, html)
	require.NoError(t, err)
	assert.True(t, ch.Saved)

	n, err := e.repo.Load(context.Background(), day)
	require.NoError(t, err)
	assert.Equal(t, []string{"photo.png"}, n.Images)
}

func TestContentChanged_RoundTrip(t *testing.T) {
	e := newEnv(t)
	html := `<p style="x">Dear diary &amp; <b>friends</b></p><p><img src="a.png"></p>`
	_, err := e.svc.ContentChanged(context.Background(), day, html)
	require.NoError(t, err)

	got, err := e.svc.Day(context.Background(), day)
	require.NoError(t, err)
	assert.True(t, got.Exists)
	assert.Equal(t, html, got.HTMLContent)
	assert.Equal(t, []string{"a.png"}, got.Images)
	assert.Equal(t, models.PresenceHasNote, got.Presence)
}

func TestContentChanged_NormalizesDate(t *testing.T) {
	e := newEnv(t)
	ch, err := e.svc.ContentChanged(context.Background(), "Oct 19, 2026", "<p>x</p>")
	require.NoError(t, err)
	assert.Equal(t, day, ch.Date)

	_, err = e.svc.ContentChanged(context.Background(), "someday", "<p>x</p>")
	require.ErrorIs(t, err, apperr.ErrInvalidDate)
}

func TestContentChanged_UpdatesCatalog(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, err := e.svc.ContentChanged(ctx, day, `<p><img src="a.png"><img src="b.png"></p>`)
	require.NoError(t, err)

	row, err := e.db.GetDay(day)
	require.NoError(t, err)
	assert.Equal(t, 2, row.ImageCount)

	data, err := os.ReadFile(filepath.Join(e.notesDir, notes.FileName(day)))
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), row.Bytes, "catalog row describes the file on disk")

	_, err = e.svc.ContentChanged(ctx, day, "")
	require.NoError(t, err)
	_, err = e.db.GetDay(day)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDay_Missing(t *testing.T) {
	e := newEnv(t)
	got, err := e.svc.Day(context.Background(), day)
	require.NoError(t, err)
	assert.False(t, got.Exists)
	assert.Empty(t, got.HTMLContent)
	assert.Equal(t, models.PresenceEmpty, got.Presence)
}

func TestDeleteDay(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, err := e.svc.ContentChanged(ctx, day, "<p>x</p>")
	require.NoError(t, err)

	require.NoError(t, e.svc.DeleteDay(ctx, day))
	assert.Equal(t, models.PresenceEmpty, e.svc.Presence(day))
	require.NoError(t, e.svc.DeleteDay(ctx, day), "deleting twice is a no-op")
	require.ErrorIs(t, e.svc.DeleteDay(ctx, "nope"), apperr.ErrInvalidDate)
}

func TestDeleteAll_RequiresConfirmation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, err := e.svc.ContentChanged(ctx, day, "<p>x</p>")
	require.NoError(t, err)

	_, err = e.svc.DeleteAll(ctx, false)
	require.ErrorIs(t, err, apperr.ErrConfirmationRequired)

	snap, err := e.repo.LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Notes, 1)
}

func TestDeleteAll_Confirmed(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	for _, d := range []string{"2026-10-17", "2026-10-18", day} {
		_, err := e.svc.ContentChanged(ctx, d, "<p>entry</p>")
		require.NoError(t, err)
	}

	removed, err := e.svc.DeleteAll(ctx, true)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"2026-10-17", "2026-10-18", day}, removed)

	snap, err := e.repo.LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, snap.Notes)

	m := e.svc.Calendar(2026, time.October, "")
	for _, w := range m.Weeks {
		for _, d := range w.Days {
			assert.Equal(t, models.PresenceEmpty, d.Presence, d.Date)
		}
	}

	rows, err := e.svc.ListDays(ctx, "", "")
	require.NoError(t, err)
	assert.Empty(t, rows)

	events := e.events.all()
	assert.Equal(t, recordedEvent{"cleared", ""}, events[len(events)-1])
}

func TestOpen_RebuildsFromDisk(t *testing.T) {
	base := t.TempDir()
	notesDir := filepath.Join(base, "Notes")
	require.NoError(t, os.MkdirAll(notesDir, 0o755))

	data, err := notes.Encode(models.DailyNote{Date: "2026-10-01", HTMLContent: "<p>old</p>"})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(notesDir, "2026-10-01.json"), data, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(notesDir, "2026-10-02.json"), []byte("{nope"), 0o644))

	noteFS, err := storage.NewFS(notesDir)
	require.NoError(t, err)
	imageFS, err := storage.NewFS(filepath.Join(base, "Images"))
	require.NoError(t, err)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	svc := New(notes.NewRepository(noteFS, logger), images.NewStore(imageFS, logger), WithLogger(logger))

	require.NoError(t, svc.Open(context.Background()))
	assert.Equal(t, models.PresenceHasNote, svc.Presence("2026-10-01"))
	assert.Equal(t, models.PresenceEmpty, svc.Presence("2026-10-02"), "corrupt notes are not coloured")

	rows, err := svc.ListDays(context.Background(), "2026/10/01", "2026-10-31")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "2026-10-01", rows[0].Date)
}

func TestListDays_InvalidBound(t *testing.T) {
	e := newEnv(t)
	_, err := e.svc.ListDays(context.Background(), "yesterday-ish", "")
	require.ErrorIs(t, err, apperr.ErrInvalidDate)
}

func TestExternalChange(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	require.NoError(t, e.repo.Save(ctx, models.DailyNote{Date: day, HTMLContent: "<p>outside</p>"}))
	e.svc.ExternalChange(index.EventCreated, day)
	assert.Equal(t, models.PresenceHasNote, e.svc.Presence(day))

	require.NoError(t, e.repo.Delete(ctx, day))
	e.svc.ExternalChange(index.EventDeleted, day)
	assert.Equal(t, models.PresenceEmpty, e.svc.Presence(day))
	assert.Equal(t, []recordedEvent{{index.EventCreated, day}, {index.EventDeleted, day}}, e.events.all())
}

func TestExternalChange_StaleDeleteKeepsNote(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.svc.ContentChanged(ctx, day, "<p>kept</p>")
	require.NoError(t, err)
	before := len(e.events.all())

	// The row vanishes as it would when a late Remove is applied.
	_, err = e.db.DeleteDay(day)
	require.NoError(t, err)

	e.svc.ExternalChange(index.EventDeleted, day)
	assert.Equal(t, models.PresenceHasNote, e.svc.Presence(day))
	assert.Len(t, e.events.all(), before, "a stale delete is not published")

	row, err := e.db.GetDay(day)
	require.NoError(t, err, "catalog row is restored")
	assert.Equal(t, day, row.Date)
}

func TestExternalChange_StaleCreateKeepsEmpty(t *testing.T) {
	e := newEnv(t)
	e.svc.ExternalChange(index.EventCreated, day)
	assert.Equal(t, models.PresenceEmpty, e.svc.Presence(day))
	assert.Empty(t, e.events.all())
}

func TestWatch_ClearAndRetype(t *testing.T) {
	e := newEnv(t)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- index.Watch(ctx, e.db, e.repo.Store(), logger, e.svc.ExternalChange) }()
	defer func() {
		cancel()
		require.NoError(t, <-done)
	}()
	time.Sleep(50 * time.Millisecond)

	for i := 0; i < 20; i++ {
		_, err := e.svc.ContentChanged(ctx, day, "<p>a</p>")
		require.NoError(t, err)
		_, err = e.svc.ContentChanged(ctx, day, "")
		require.NoError(t, err)
		_, err = e.svc.ContentChanged(ctx, day, "<p>a</p>")
		require.NoError(t, err)
		time.Sleep(20 * time.Millisecond)
		require.Equal(t, models.PresenceHasNote, e.svc.Presence(day), "cycle %d", i)
	}

	// Let the watcher drain, including its rename reconcile.
	time.Sleep(400 * time.Millisecond)
	assert.Equal(t, models.PresenceHasNote, e.svc.Presence(day))
	assert.FileExists(t, filepath.Join(e.notesDir, notes.FileName(day)))

	row, err := e.db.GetDay(day)
	require.NoError(t, err)
	assert.Equal(t, day, row.Date)

	events := e.events.all()
	require.NotEmpty(t, events)
	assert.NotEqual(t, index.EventDeleted, events[len(events)-1].kind, "last event leaves the day marked")
}

func TestInsertImageFromExternalFile(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	src := filepath.Join(t.TempDir(), "photo.png")
	require.NoError(t, os.WriteFile(src, []byte("\x89PNG\r\n\x1a\nrest"), 0o644))

	st, err := editor.FromHTML("<p>look</p>", e.svc.EditorConfig())
	require.NoError(t, err)
	st = st.MoveTo(4, 4)
	st, err = st.InsertImage(ctx, e.svc.Images(), src)
	require.NoError(t, err)

	managed, err := e.svc.ImagePath("photo.png")
	require.NoError(t, err)
	assert.FileExists(t, managed)
	assert.Contains(t, st.HTML(), managed)

	_, err = e.svc.ContentChanged(ctx, day, st.HTML())
	require.NoError(t, err)
	got, err := e.svc.Day(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, []string{"photo.png"}, got.Images)
}

func TestInsertImage_MissingSourceLeavesNoReference(t *testing.T) {
	e := newEnv(t)
	st, err := editor.FromHTML("<p>look</p>", e.svc.EditorConfig())
	require.NoError(t, err)

	after, err := st.InsertImage(context.Background(), e.svc.Images(), filepath.Join(t.TempDir(), "gone.png"))
	require.ErrorIs(t, err, apperr.ErrImageUnavailable)
	assert.Empty(t, after.Doc.Images())
}

func TestReclaimImage_NotImplemented(t *testing.T) {
	e := newEnv(t)
	require.ErrorIs(t, e.svc.ReclaimImage(context.Background(), "a.png"), apperr.ErrNotImplemented)
}
