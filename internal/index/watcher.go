package index

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/daybook/internal/notes"
	"github.com/starford/daybook/internal/storage"
)

// Event kinds passed to EventCallback.
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
)

// EventCallback is called after a watcher-driven catalog change.
type EventCallback func(kind string, date string)

const reconcileDelay = 200 * time.Millisecond

// Watch follows the notes folder until ctx is cancelled, keeping the catalog
// in step with edits made outside the service. cb (if non-nil) runs after
// each catalog change. Writes whose checksum is already catalogued are
// ignored, so the service's own saves do not echo back.
func Watch(ctx context.Context, db *DB, store storage.Provider, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	root := store.Root()
	if err := w.Add(root); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root))

	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(reconcileDelay)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(reconcileDelay)
		}
	}

	notify := func(kind, date string) {
		if cb != nil {
			cb(kind, date)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			reconcile(db, store, logger, notify)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			name := filepath.Base(ev.Name)
			if filepath.Dir(ev.Name) != root || !strings.HasSuffix(name, notes.Ext) {
				continue
			}
			date, ok := notes.DateFromFile(name)
			if !ok {
				continue
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				meta, statErr := store.Stat(name)
				if statErr != nil {
					logger.Debug("watcher: stat failed", slog.String("file", name), slog.String("error", statErr.Error()))
					continue
				}
				prev, _ := db.GetChecksum(date)
				if prev == meta.Checksum {
					continue
				}
				data, readErr := store.Read(name)
				if readErr != nil {
					logger.Warn("watcher: read failed", slog.String("file", name), slog.String("error", readErr.Error()))
					continue
				}
				if _, idxErr := indexFile(db, name, data, meta.UpdatedAt); idxErr != nil {
					logger.Warn("watcher: index failed", slog.String("file", name), slog.String("error", idxErr.Error()))
					continue
				}
				kind := EventUpdated
				if prev == "" {
					kind = EventCreated
				}
				logger.Debug("watcher: indexed", slog.String("date", date), slog.String("op", kind))
				notify(kind, date)

			case ev.Op&fsnotify.Remove != 0:
				// A clear followed by a retype recreates the file before the
				// Remove is read; the later Create handles it.
				if _, statErr := store.Stat(name); statErr == nil {
					logger.Debug("watcher: stale remove", slog.String("date", date))
					continue
				}
				removed, delErr := db.DeleteDay(date)
				if delErr != nil {
					logger.Warn("watcher: delete failed", slog.String("date", date), slog.String("error", delErr.Error()))
					continue
				}
				if removed {
					logger.Debug("watcher: deleted", slog.String("date", date))
					notify(EventDeleted, date)
				}

			case ev.Op&fsnotify.Rename != 0:
				// Rename fires on the old name only; the new name arrives as
				// a Create when it stays in the folder.
				removed, delErr := db.DeleteDay(date)
				if delErr != nil {
					logger.Warn("watcher: rename delete failed", slog.String("date", date), slog.String("error", delErr.Error()))
				} else if removed {
					notify(EventDeleted, date)
				}
				scheduleReconcile()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// reconcile removes catalogued days whose file is gone and indexes files the
// catalog does not know yet.
func reconcile(db *DB, store storage.Provider, logger *slog.Logger, notify EventCallback) {
	checksums, err := db.AllChecksums()
	if err != nil {
		logger.Warn("reconcile: all checksums failed", slog.String("error", err.Error()))
		return
	}
	metas, err := store.List(notes.Ext)
	if err != nil {
		logger.Warn("reconcile: list failed", slog.String("error", err.Error()))
		return
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		date, ok := notes.DateFromFile(m.Name)
		if !ok {
			continue
		}
		disk[date] = struct{}{}
		prev, known := checksums[date]
		if prev == m.Checksum {
			continue
		}
		data, readErr := store.Read(m.Name)
		if readErr != nil {
			continue
		}
		if _, idxErr := indexFile(db, m.Name, data, m.UpdatedAt); idxErr == nil {
			logger.Debug("reconcile: indexed", slog.String("date", date))
			if known {
				notify(EventUpdated, date)
			} else {
				notify(EventCreated, date)
			}
		}
	}

	for d := range checksums {
		if _, ok := disk[d]; ok {
			continue
		}
		if removed, delErr := db.DeleteDay(d); delErr == nil && removed {
			logger.Debug("reconcile: removed stale", slog.String("date", d))
			notify(EventDeleted, d)
		}
	}
}
