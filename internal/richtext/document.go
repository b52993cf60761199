// Package richtext models a journal document as blocks of styled runs and
// converts it to and from HTML markup.
//
// Positions are rune offsets over the whole document. Blocks are separated by
// one position (the paragraph break). A text run occupies one position per
// rune; an image run occupies the rune length of its reference, so an image
// referenced as "a.png" spans five positions.
package richtext

import (
	"path"
	"strings"
	"unicode/utf8"
)

// ObjectReplacement stands in for an image in plain text.
const ObjectReplacement = "\uFFFC"

// Format is the character format of a run.
type Format struct {
	Bold      bool `json:"bold"`
	Italic    bool `json:"italic"`
	Underline bool `json:"underline"`
	StrikeOut bool `json:"strikeout"`
	Size      int  `json:"size"`
}

// Run is a maximal span sharing one format. A run with a non-empty Image is
// an inline image reference and its Text is ignored.
type Run struct {
	Text   string `json:"text,omitempty"`
	Image  string `json:"image,omitempty"`
	Format Format `json:"format"`
}

// IsImage reports whether r is an image reference.
func (r Run) IsImage() bool { return r.Image != "" }

// Len is the number of positions r occupies.
func (r Run) Len() int {
	if r.IsImage() {
		return utf8.RuneCountInString(r.Image)
	}
	return utf8.RuneCountInString(r.Text)
}

// Block is one paragraph.
type Block struct {
	Runs []Run `json:"runs"`
}

// Len is the number of positions b occupies, excluding its trailing break.
func (b Block) Len() int {
	n := 0
	for _, r := range b.Runs {
		n += r.Len()
	}
	return n
}

// Document is an ordered list of blocks. It always has at least one block.
type Document struct {
	Blocks []Block `json:"blocks"`
}

// NewDocument returns a document made of blocks, normalised.
func NewDocument(blocks ...Block) Document {
	return Document{Blocks: normalize(blocks)}
}

// Len is the total number of positions in d.
func (d Document) Len() int {
	if len(d.Blocks) == 0 {
		return 0
	}
	n := len(d.Blocks) - 1
	for _, b := range d.Blocks {
		n += b.Len()
	}
	return n
}

// BlockAt returns the index and start position of the block containing pos.
// A position at the end of a block belongs to that block.
func (d Document) BlockAt(pos int) (int, int) {
	start := 0
	for i, b := range d.Blocks {
		end := start + b.Len()
		if pos <= end {
			return i, start
		}
		start = end + 1
	}
	last := len(d.Blocks) - 1
	if last < 0 {
		return 0, 0
	}
	return last, start - d.Blocks[last].Len() - 1
}

// PlainText renders d as text: blocks joined by newlines, images as U+FFFC.
func (d Document) PlainText() string {
	var sb strings.Builder
	for i, b := range d.Blocks {
		if i > 0 {
			sb.WriteByte('\n')
		}
		for _, r := range b.Runs {
			if r.IsImage() {
				sb.WriteString(ObjectReplacement)
				continue
			}
			sb.WriteString(r.Text)
		}
	}
	return sb.String()
}

// IsEmpty reports whether d has no plain-text content.
func (d Document) IsEmpty() bool {
	return d.PlainText() == ""
}

// Images returns the file names of referenced images in document order,
// without duplicates.
func (d Document) Images() []string {
	var out []string
	seen := make(map[string]struct{})
	for _, b := range d.Blocks {
		for _, r := range b.Runs {
			if !r.IsImage() {
				continue
			}
			name := ImageName(r.Image)
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}
	return out
}

// ImageName returns the file name part of an image reference.
func ImageName(ref string) string {
	ref = strings.TrimPrefix(ref, "file://")
	ref = strings.ReplaceAll(ref, "\\", "/")
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		ref = ref[:i]
	}
	return path.Base(ref)
}

// normalize merges adjacent text runs with equal formats, drops empty text
// runs and guarantees at least one block.
func normalize(blocks []Block) []Block {
	out := make([]Block, 0, len(blocks))
	for _, b := range blocks {
		var runs []Run
		for _, r := range b.Runs {
			if !r.IsImage() && r.Text == "" {
				continue
			}
			if n := len(runs); n > 0 && !r.IsImage() && !runs[n-1].IsImage() && runs[n-1].Format == r.Format {
				runs[n-1].Text += r.Text
				continue
			}
			runs = append(runs, r)
		}
		out = append(out, Block{Runs: runs})
	}
	if len(out) == 0 {
		out = append(out, Block{})
	}
	return out
}
