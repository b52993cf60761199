package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/daybook/internal/richtext"
)

// "x" at 0, "img.png" spanning [1, 8), "y" at 8.
func imageState() State {
	return stateOf(
		sized("x", 12),
		richtext.Run{Image: "img.png", Format: richtext.Format{Size: 12}},
		sized("y", 12),
	)
}

func TestDelete_InsideImageSpan(t *testing.T) {
	for _, pos := range []int{1, 4, 7} {
		s, rm := imageState().MoveTo(pos, pos).Delete(Delete)
		assert.Equal(t, "img.png", rm.Image, "pos %d", pos)
		assert.Equal(t, []string{"img.png"}, rm.Images)
		assert.Equal(t, "xy", s.Doc.PlainText())
		assert.Equal(t, 1, s.Position)
	}
}

func TestDelete_BackspaceInsideImageSpan(t *testing.T) {
	s, rm := imageState().MoveTo(3, 3).Delete(Backspace)
	assert.Equal(t, "img.png", rm.Image)
	assert.Equal(t, "xy", s.Doc.PlainText())
}

func TestDelete_OrdinaryCharacter(t *testing.T) {
	s, rm := imageState().MoveTo(9, 9).Delete(Backspace)
	assert.Empty(t, rm.Image)
	assert.Empty(t, rm.Images)
	assert.Equal(t, "x\uFFFC", s.Doc.PlainText())
	assert.Equal(t, 8, s.Position)
	assert.Equal(t, []string{"img.png"}, s.Doc.Images())

	s, rm = imageState().MoveTo(0, 0).Delete(Delete)
	assert.Empty(t, rm.Image)
	assert.Equal(t, "\uFFFCy", s.Doc.PlainText())
	assert.Equal(t, 0, s.Position)
}

func TestDelete_BackspaceAfterImageSweepsIt(t *testing.T) {
	s, rm := imageState().MoveTo(8, 8).Delete(Backspace)
	assert.Empty(t, rm.Image, "cursor at span end is outside the image")
	assert.Equal(t, []string{"img.png"}, rm.Images)
	assert.Equal(t, "xy", s.Doc.PlainText())
	assert.Equal(t, 1, s.Position)
}

func TestDelete_AtEdgesIsNoop(t *testing.T) {
	s := stateOf(sized("ab", 12))
	got, rm := s.MoveTo(0, 0).Delete(Backspace)
	assert.Equal(t, "ab", got.Doc.PlainText())
	assert.Equal(t, Removal{}, rm)

	got, _ = s.MoveTo(2, 2).Delete(Delete)
	assert.Equal(t, "ab", got.Doc.PlainText())
}

func TestDelete_BackspaceJoinsBlocks(t *testing.T) {
	s := New(richtext.NewDocument(
		richtext.Block{Runs: []richtext.Run{sized("ab", 12)}},
		richtext.Block{Runs: []richtext.Run{sized("cd", 12)}},
	), DefaultConfig).MoveTo(3, 3)

	got, _ := s.Delete(Backspace)
	require.Len(t, got.Doc.Blocks, 1)
	assert.Equal(t, "abcd", got.Doc.PlainText())
	assert.Equal(t, 2, got.Position)
}

func TestDelete_Selection(t *testing.T) {
	got, rm := stateOf(sized("hello", 12)).MoveTo(1, 4).Delete(Delete)
	assert.Equal(t, "ho", got.Doc.PlainText())
	assert.Equal(t, 1, got.Position)
	assert.False(t, got.HasSelection())
	assert.Empty(t, rm.Images)
}

func TestDelete_ImageInOtherBlockIgnored(t *testing.T) {
	s := New(richtext.NewDocument(
		richtext.Block{Runs: []richtext.Run{{Image: "a.png"}}},
		richtext.Block{Runs: []richtext.Run{sized("zz", 12)}},
	), DefaultConfig).MoveTo(7, 7)

	got, rm := s.Delete(Delete)
	assert.Empty(t, rm.Image)
	assert.Equal(t, "\uFFFC\nz", got.Doc.PlainText())
}

func TestParseKey(t *testing.T) {
	k, ok := ParseKey("backspace")
	assert.True(t, ok)
	assert.Equal(t, Backspace, k)
	_, ok = ParseKey("escape")
	assert.False(t, ok)
}
