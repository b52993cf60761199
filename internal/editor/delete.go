package editor

// Key is a deletion key.
type Key int

const (
	Backspace Key = iota
	Delete
)

// ParseKey accepts "backspace" and "delete".
func ParseKey(s string) (Key, bool) {
	switch s {
	case "backspace":
		return Backspace, true
	case "delete":
		return Delete, true
	}
	return 0, false
}

// Removal reports what a delete took out of the document.
type Removal struct {
	// Image is set when the cursor sat inside an image and that image was
	// removed as a unit.
	Image string
	// Images lists every image reference removed.
	Images []string
}

// Delete handles a deletion key. When the cursor lies inside an image span of
// the current block, exactly that image is removed. Otherwise the selection,
// or one position before (Backspace) or after (Delete) the cursor, is
// removed. The image file itself is never touched.
func (s State) Delete(key Key) (State, Removal) {
	if ref, start, ok := s.imageAtCursor(); ok {
		s.Doc, _, _ = s.Doc.DeleteRange(start, start+len([]rune(ref)))
		s.Position, s.Anchor, s.Pending = start, start, nil
		return s, Removal{Image: ref, Images: []string{ref}}
	}

	if s.HasSelection() {
		return s.deleteSelection()
	}

	from, to := s.Position, s.Position+1
	if key == Backspace {
		from, to = s.Position-1, s.Position
	}
	if from < 0 || to > s.Doc.Len() {
		return s, Removal{}
	}
	var removed []string
	s.Doc, s.Position, removed = s.Doc.DeleteRange(from, to)
	s.Anchor, s.Pending = s.Position, nil
	return s, Removal{Images: removed}
}

// imageAtCursor scans the current block from its start and reports the image
// whose span [start, start+len) contains the cursor.
func (s State) imageAtCursor() (string, int, bool) {
	bi, offset := s.Doc.BlockAt(s.Position)
	if bi >= len(s.Doc.Blocks) {
		return "", 0, false
	}
	for _, r := range s.Doc.Blocks[bi].Runs {
		n := r.Len()
		if r.IsImage() && offset <= s.Position && s.Position < offset+n {
			return r.Image, offset, true
		}
		offset += n
	}
	return "", 0, false
}

func (s State) deleteSelection() (State, Removal) {
	from, to := s.Selection()
	var removed []string
	s.Doc, s.Position, removed = s.Doc.DeleteRange(from, to)
	s.Anchor, s.Pending = s.Position, nil
	return s, Removal{Images: removed}
}
