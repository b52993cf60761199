package notes

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/daybook/internal/apperr"
	"github.com/starford/daybook/internal/models"
	"github.com/starford/daybook/internal/storage"
)

func testRepo(t *testing.T) (*Repository, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "Notes")
	store, err := storage.NewFS(dir)
	require.NoError(t, err)
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewRepository(store, logger), dir
}

func TestSaveThenLoadAll(t *testing.T) {
	repo, _ := testRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, models.DailyNote{Date: "2026-10-19", HTMLContent: "x"}))

	snap, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	require.Contains(t, snap.Notes, "2026-10-19")
	assert.Equal(t, "x", snap.Notes["2026-10-19"].HTMLContent)
	assert.Empty(t, snap.Skipped)
}

func TestDeleteRemovesFromLoadAll(t *testing.T) {
	repo, _ := testRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, models.DailyNote{Date: "2026-10-19", HTMLContent: "x"}))
	require.NoError(t, repo.Delete(ctx, "2026-10-19"))

	snap, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	assert.NotContains(t, snap.Notes, "2026-10-19")
}

func TestDeleteMissingIsNoop(t *testing.T) {
	repo, dir := testRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, models.DailyNote{Date: "2026-10-18", HTMLContent: "keep"}))

	require.NoError(t, repo.Delete(ctx, "2026-10-19"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRoundTripIsExact(t *testing.T) {
	repo, _ := testRepo(t)
	ctx := context.Background()
	n := models.DailyNote{
		Date:        "2026-02-03",
		HTMLContent: `<p><span style="font-weight:700;">Bold & "quoted"</span><img src="/x/Images/photo.png" /></p>`,
		Images:      []string{"photo.png", "other.jpg"},
	}
	require.NoError(t, repo.Save(ctx, n))

	got, err := repo.Load(ctx, n.Date)
	require.NoError(t, err)
	assert.Equal(t, n, got)
}

func TestSaveIsLastWriteWins(t *testing.T) {
	repo, _ := testRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, models.DailyNote{Date: "2026-10-19", HTMLContent: "first", Images: []string{"a.png"}}))
	require.NoError(t, repo.Save(ctx, models.DailyNote{Date: "2026-10-19", HTMLContent: "second"}))

	got, err := repo.Load(ctx, "2026-10-19")
	require.NoError(t, err)
	assert.Equal(t, "second", got.HTMLContent)
	assert.Nil(t, got.Images)
}

func TestSaveWritesIndentedJSON(t *testing.T) {
	repo, dir := testRepo(t)
	require.NoError(t, repo.Save(context.Background(), models.DailyNote{Date: "2026-10-19", HTMLContent: "<p>a</p>"}))

	data, err := os.ReadFile(filepath.Join(dir, "2026-10-19.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n    \"date\": \"2026-10-19\"")
	assert.Contains(t, string(data), `"html_content": "<p>a</p>"`)
}

func TestSaveRejectsInvalidDate(t *testing.T) {
	repo, _ := testRepo(t)
	err := repo.Save(context.Background(), models.DailyNote{Date: "19/10/2026", HTMLContent: "x"})
	assert.ErrorIs(t, err, apperr.ErrInvalidDate)
}

func TestLoadAllSkipsMalformedFiles(t *testing.T) {
	repo, dir := testRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, models.DailyNote{Date: "2026-10-19", HTMLContent: "good"}))

	bad := map[string]string{
		"2026-10-01.json": "{not json",
		"2026-10-02.json": `{"html_content": "no date"}`,
		"2026-10-03.json": `{"date": "2026-10-04", "html_content": "wrong stem"}`,
		"notes.json":      `{"date": "notes", "html_content": "not a date"}`,
	}
	for name, body := range bad {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}

	var logs bytes.Buffer
	repo.logger = slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelWarn}))

	snap, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Notes, 1)
	assert.Contains(t, snap.Notes, "2026-10-19")
	require.Len(t, snap.Skipped, len(bad))
	for _, s := range snap.Skipped {
		assert.ErrorIs(t, s.Err, apperr.ErrCorruptNote, s.File)
	}
	assert.Contains(t, logs.String(), "skipping unreadable note")
}

func TestLoadMissing(t *testing.T) {
	repo, _ := testRepo(t)
	_, err := repo.Load(context.Background(), "2026-10-19")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestKeysSorted(t *testing.T) {
	repo, dir := testRepo(t)
	ctx := context.Background()
	for _, d := range []string{"2026-10-19", "2025-01-01", "2026-03-05"} {
		require.NoError(t, repo.Save(ctx, models.DailyNote{Date: d, HTMLContent: d}))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "junk.json"), []byte("{}"), 0o644))

	keys, err := repo.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-01-01", "2026-03-05", "2026-10-19"}, keys)
}

func TestDeleteAll(t *testing.T) {
	repo, _ := testRepo(t)
	ctx := context.Background()
	for _, d := range []string{"2026-10-19", "2026-10-20"} {
		require.NoError(t, repo.Save(ctx, models.DailyNote{Date: d, HTMLContent: d}))
	}

	removed, err := repo.DeleteAll(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"2026-10-19", "2026-10-20"}, removed)

	snap, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, snap.Notes)
}

func TestLoadAllCreatesNothingWhenFolderMissing(t *testing.T) {
	repo, dir := testRepo(t)
	require.NoError(t, os.RemoveAll(dir))

	snap, err := repo.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Notes)

	require.NoError(t, repo.Save(context.Background(), models.DailyNote{Date: "2026-10-19", HTMLContent: "x"}))
	_, err = os.Stat(filepath.Join(dir, "2026-10-19.json"))
	assert.NoError(t, err)
}
