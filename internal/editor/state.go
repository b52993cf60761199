// Package editor holds the cursor-level editing rules for a journal entry.
// State is a value: every operation returns a new State and leaves the
// receiver untouched.
package editor

import (
	"context"
	"fmt"
	"strconv"

	"github.com/starford/daybook/internal/richtext"
)

// Config holds editor tunables.
type Config struct {
	DefaultSize int
	SizeStep    int
	MinSize     int
}

// DefaultConfig matches the stock editor.
var DefaultConfig = Config{DefaultSize: 16, SizeStep: 4, MinSize: 1}

// WithDefaults fills unset tunables from DefaultConfig.
func (c Config) WithDefaults() Config {
	if c.DefaultSize <= 0 {
		c.DefaultSize = DefaultConfig.DefaultSize
	}
	if c.SizeStep <= 0 {
		c.SizeStep = DefaultConfig.SizeStep
	}
	if c.MinSize <= 0 {
		c.MinSize = DefaultConfig.MinSize
	}
	return c
}

// ImageCopier imports an external image and returns the reference to embed.
type ImageCopier interface {
	Copy(ctx context.Context, src string) (string, error)
}

// State is the document plus cursor. Anchor equals Position when nothing is
// selected. Pending, when set, is the format the next insertion uses.
type State struct {
	Doc      richtext.Document
	Position int
	Anchor   int
	Pending  *richtext.Format
	cfg      Config
}

// New returns a state over doc with the cursor at the start.
func New(doc richtext.Document, cfg Config) State {
	if len(doc.Blocks) == 0 {
		doc = richtext.NewDocument()
	}
	return State{Doc: doc, cfg: cfg.WithDefaults()}
}

// FromHTML parses markup and returns a state over it.
func FromHTML(markup string, cfg Config) (State, error) {
	cfg = cfg.WithDefaults()
	doc, err := richtext.ParseHTML(markup, richtext.Format{Size: cfg.DefaultSize})
	if err != nil {
		return State{}, fmt.Errorf("editor: %w", err)
	}
	return New(doc, cfg), nil
}

// HTML renders the document.
func (s State) HTML() string { return s.Doc.HTML() }

// Config returns the tunables in effect.
func (s State) Config() Config { return s.cfg.WithDefaults() }

// HasSelection reports whether a range is selected.
func (s State) HasSelection() bool { return s.Position != s.Anchor }

// Selection returns the selected range in ascending order.
func (s State) Selection() (int, int) {
	if s.Anchor < s.Position {
		return s.Anchor, s.Position
	}
	return s.Position, s.Anchor
}

// MoveTo places the cursor. Positions are clamped to the document and any
// pending format is dropped.
func (s State) MoveTo(position, anchor int) State {
	n := s.Doc.Len()
	s.Position = clamp(position, 0, n)
	s.Anchor = clamp(anchor, 0, n)
	s.Pending = nil
	return s
}

// WithPending sets the format for the next insertion.
func (s State) WithPending(f *richtext.Format) State {
	if f == nil {
		s.Pending = nil
		return s
	}
	c := *f
	s.Pending = &c
	return s
}

// CurrentFormat is the format effective at the cursor.
func (s State) CurrentFormat() richtext.Format {
	cfg := s.Config()
	if s.Pending != nil {
		return *s.Pending
	}
	f, ok := s.Doc.FormatAt(s.Position)
	if !ok {
		f = richtext.Format{}
	}
	if f.Size <= 0 {
		f.Size = cfg.DefaultSize
	}
	return f
}

// Toggle flips one attribute. With a selection the new value is merged into
// every character of the selection; otherwise it becomes the pending format.
func (s State) Toggle(a Action) State {
	v := !attr(s.CurrentFormat(), a)
	return s.merge(func(f richtext.Format) richtext.Format {
		return withAttr(f, a, v)
	})
}

// StepSize changes the size by delta points relative to the current format.
func (s State) StepSize(delta int) State {
	cfg := s.Config()
	size := s.CurrentFormat().Size + delta
	if size < cfg.MinSize {
		size = cfg.MinSize
	}
	return s.SetSize(size)
}

// Increase grows the size by one step.
func (s State) Increase() State { return s.StepSize(s.Config().SizeStep) }

// Decrease shrinks the size by one step.
func (s State) Decrease() State { return s.StepSize(-s.Config().SizeStep) }

// SetSize sets an absolute size. Non-positive sizes are ignored.
func (s State) SetSize(size int) State {
	if size <= 0 {
		return s
	}
	return s.merge(func(f richtext.Format) richtext.Format {
		f.Size = size
		return f
	})
}

func (s State) merge(fn func(richtext.Format) richtext.Format) State {
	if s.HasSelection() {
		from, to := s.Selection()
		s.Doc = s.Doc.ApplyFormat(from, to, fn)
		s.Pending = nil
		return s
	}
	f := fn(s.CurrentFormat())
	s.Pending = &f
	return s
}

// SelectionSize returns the size shared by the selection, or mixed when the
// selection holds more than one size. Without a selection it is the current
// size.
func (s State) SelectionSize() (int, bool) {
	if !s.HasSelection() {
		return s.CurrentFormat().Size, false
	}
	from, to := s.Selection()
	sizes := s.Doc.Sizes(from, to, s.Config().DefaultSize, 2)
	switch len(sizes) {
	case 0:
		return s.CurrentFormat().Size, false
	case 1:
		return sizes[0], false
	}
	return 0, true
}

// Snapshot reports the state of the formatting controls.
func (s State) Snapshot() FormatSnapshot {
	f := s.CurrentFormat()
	snap := FormatSnapshot{
		Bold:      f.Bold,
		Italic:    f.Italic,
		Underline: f.Underline,
		StrikeOut: f.StrikeOut,
	}
	size, mixed := s.SelectionSize()
	snap.Mixed = mixed
	if !mixed {
		snap.Size = strconv.Itoa(size)
	}
	return snap
}

// InsertText types text at the cursor, replacing any selection.
func (s State) InsertText(text string) State {
	if text == "" {
		return s
	}
	pending := s.Pending
	if s.HasSelection() {
		s, _ = s.deleteSelection()
		s.Pending = pending
	}
	f := s.CurrentFormat()
	s.Doc, s.Position = s.Doc.InsertText(s.Position, text, f)
	s.Anchor = s.Position
	s.Pending = nil
	return s
}

// InsertImage copies src into the image store and embeds the managed
// reference at the cursor. On failure the state is returned unchanged.
func (s State) InsertImage(ctx context.Context, copier ImageCopier, src string) (State, error) {
	ref, err := copier.Copy(ctx, src)
	if err != nil {
		return s, fmt.Errorf("editor: insert image: %w", err)
	}
	return s.InsertImageRef(ref), nil
}

// InsertImageRef embeds an already managed image reference at the cursor.
func (s State) InsertImageRef(ref string) State {
	if ref == "" {
		return s
	}
	if s.HasSelection() {
		s, _ = s.deleteSelection()
	}
	s.Doc, s.Position = s.Doc.InsertImage(s.Position, ref, s.CurrentFormat())
	s.Anchor = s.Position
	return s
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
