// Package calendar keeps the date → presence index that colours the month
// view. The index is derived from the note repository and is never the
// source of truth.
package calendar

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/starford/daybook/internal/models"
)

// KeySource lists the dates that have a stored note.
type KeySource interface {
	Keys(ctx context.Context) ([]string, error)
}

// Derive maps every key to PresenceHasNote.
func Derive(keys []string) map[string]models.Presence {
	out := make(map[string]models.Presence, len(keys))
	for _, k := range keys {
		out[k] = models.PresenceHasNote
	}
	return out
}

// Synchronizer holds the presence set. Dates not in the set are empty.
type Synchronizer struct {
	src KeySource

	mu    sync.RWMutex
	dates map[string]models.Presence
}

// NewSynchronizer returns an empty synchronizer reading from src.
func NewSynchronizer(src KeySource) *Synchronizer {
	return &Synchronizer{src: src, dates: map[string]models.Presence{}}
}

// Rebuild replaces the presence set with one derived from the source.
func (s *Synchronizer) Rebuild(ctx context.Context) error {
	keys, err := s.src.Keys(ctx)
	if err != nil {
		return fmt.Errorf("calendar: rebuild: %w", err)
	}
	derived := Derive(keys)

	s.mu.Lock()
	s.dates = derived
	s.mu.Unlock()
	return nil
}

// Mark records whether date has a note and reports whether its presence
// changed.
func (s *Synchronizer) Mark(date string, hasNote bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, had := s.dates[date]
	if hasNote == had {
		return false
	}
	if hasNote {
		s.dates[date] = models.PresenceHasNote
	} else {
		delete(s.dates, date)
	}
	return true
}

// Presence returns the presence of date.
func (s *Synchronizer) Presence(date string) models.Presence {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.dates[date]; ok {
		return p
	}
	return models.PresenceEmpty
}

// Dates returns every date with a note, sorted.
func (s *Synchronizer) Dates() []string {
	s.mu.RLock()
	out := make([]string, 0, len(s.dates))
	for d := range s.dates {
		out = append(out, d)
	}
	s.mu.RUnlock()
	sort.Strings(out)
	return out
}

// Clear forgets every date.
func (s *Synchronizer) Clear() {
	s.mu.Lock()
	s.dates = map[string]models.Presence{}
	s.mu.Unlock()
}
