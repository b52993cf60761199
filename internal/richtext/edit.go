package richtext

import (
	"slices"
	"unicode/utf8"
)

// unit is one addressable unit: a text rune, an image or a block break.
type unit struct {
	r   rune
	img string
	brk bool
	f   Format
}

func (a unit) len() int {
	if a.img != "" {
		return utf8.RuneCountInString(a.img)
	}
	return 1
}

func flatten(d Document) []unit {
	var out []unit
	for i, b := range d.Blocks {
		if i > 0 {
			out = append(out, unit{brk: true})
		}
		for _, r := range b.Runs {
			if r.IsImage() {
				out = append(out, unit{img: r.Image, f: r.Format})
				continue
			}
			for _, c := range r.Text {
				out = append(out, unit{r: c, f: r.Format})
			}
		}
	}
	return out
}

func build(units []unit) Document {
	blocks := []Block{{}}
	for _, a := range units {
		cur := &blocks[len(blocks)-1]
		switch {
		case a.brk:
			blocks = append(blocks, Block{})
		case a.img != "":
			cur.Runs = append(cur.Runs, Run{Image: a.img, Format: a.f})
		default:
			cur.Runs = append(cur.Runs, Run{Text: string(a.r), Format: a.f})
		}
	}
	return Document{Blocks: normalize(blocks)}
}

// FormatAt returns the format an insertion at pos inherits: the character
// before pos in the same block, or the first character of the block when pos
// is at its start. It reports false for an empty block.
func (d Document) FormatAt(pos int) (Format, bool) {
	var after *unit
	start := 0
	for _, a := range flatten(d) {
		end := start + a.len()
		if !a.brk && end == pos {
			return a.f, true
		}
		if !a.brk && start <= pos && pos < end {
			if start < pos {
				return a.f, true
			}
			if after == nil {
				c := a
				after = &c
			}
		}
		start = end
		if start > pos {
			break
		}
	}
	if after != nil {
		return after.f, true
	}
	return Format{}, false
}

// Sizes returns the distinct font sizes over [from, to) in document order,
// stopping once limit sizes are found. A limit of zero means no limit.
// Unset sizes count as def.
func (d Document) Sizes(from, to, def, limit int) []int {
	var out []int
	start := 0
	for _, a := range flatten(d) {
		end := start + a.len()
		if !a.brk && start < to && end > from {
			size := a.f.Size
			if size <= 0 {
				size = def
			}
			if !slices.Contains(out, size) {
				out = append(out, size)
				if limit > 0 && len(out) >= limit {
					return out
				}
			}
		}
		start = end
		if start >= to {
			break
		}
	}
	return out
}

// ApplyFormat returns a copy of d with fn applied to every character and image
// overlapping [from, to).
func (d Document) ApplyFormat(from, to int, fn func(Format) Format) Document {
	units := flatten(d)
	start := 0
	for i := range units {
		end := start + units[i].len()
		if !units[i].brk && start < to && end > from {
			units[i].f = fn(units[i].f)
		}
		start = end
	}
	return build(units)
}

// DeleteRange removes everything overlapping [from, to). An image is removed
// whole when the range touches any of its positions. It returns the new
// document, the position where the cursor lands and the removed image
// references.
func (d Document) DeleteRange(from, to int) (Document, int, []string) {
	if to < from {
		from, to = to, from
	}
	units := flatten(d)
	kept := make([]unit, 0, len(units))
	landing := from
	var removed []string
	start := 0
	for _, a := range units {
		end := start + a.len()
		if start < to && end > from {
			if start < landing {
				landing = start
			}
			if a.img != "" {
				removed = append(removed, a.img)
			}
		} else {
			kept = append(kept, a)
		}
		start = end
	}
	return build(kept), landing, removed
}

// InsertText inserts text at pos using format f. Newlines start new blocks.
// A position inside an image snaps to the end of the image. It returns the
// new document and the position after the inserted text.
func (d Document) InsertText(pos int, text string, f Format) (Document, int) {
	var ins []unit
	for _, c := range text {
		switch c {
		case '\r':
			continue
		case '\n':
			ins = append(ins, unit{brk: true})
		default:
			ins = append(ins, unit{r: c, f: f})
		}
	}
	return d.insert(pos, ins)
}

// InsertImage inserts an image reference at pos using format f.
func (d Document) InsertImage(pos int, ref string, f Format) (Document, int) {
	if ref == "" {
		return d, pos
	}
	return d.insert(pos, []unit{{img: ref, f: f}})
}

func (d Document) insert(pos int, ins []unit) (Document, int) {
	units := flatten(d)
	if pos < 0 {
		pos = 0
	}
	idx := len(units)
	at := 0
	start := 0
	for i, a := range units {
		end := start + a.len()
		if pos <= start {
			idx, at = i, start
			break
		}
		if pos < end {
			idx, at = i+1, end
			break
		}
		start = end
		at = end
	}
	out := make([]unit, 0, len(units)+len(ins))
	out = append(out, units[:idx]...)
	out = append(out, ins...)
	out = append(out, units[idx:]...)
	n := 0
	for _, a := range ins {
		n += a.len()
	}
	return build(out), at + n
}
