package richtext

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatAt(t *testing.T) {
	bold := Format{Bold: true, Size: 12}
	plain := Format{Size: 12}
	doc := NewDocument(
		Block{Runs: []Run{text("a", bold), text("b", plain)}},
		Block{},
	)

	f, ok := doc.FormatAt(1)
	require.True(t, ok)
	assert.Equal(t, bold, f, "inherits the character before the cursor")

	f, ok = doc.FormatAt(0)
	require.True(t, ok)
	assert.Equal(t, bold, f, "block start inherits the first character")

	f, ok = doc.FormatAt(2)
	require.True(t, ok)
	assert.Equal(t, plain, f)

	_, ok = doc.FormatAt(3)
	assert.False(t, ok, "empty block has no format")
}

func TestSizes(t *testing.T) {
	doc := NewDocument(Block{Runs: []Run{
		text("ab", Format{Size: 12}),
		text("c", Format{Size: 16}),
		text("d", Format{}),
	}})

	assert.Equal(t, []int{12, 16}, doc.Sizes(0, doc.Len(), 16, 0))
	assert.Equal(t, []int{12}, doc.Sizes(0, 2, 16, 0))
	assert.Equal(t, []int{12, 16}, doc.Sizes(0, doc.Len(), 16, 2))
	assert.Equal(t, []int{16}, doc.Sizes(2, 4, 16, 0), "unset size counts as the default")
}

func TestApplyFormat_SplitsRuns(t *testing.T) {
	doc := NewDocument(Block{Runs: []Run{text("abcd", Format{Size: 12})}})
	got := doc.ApplyFormat(1, 3, func(f Format) Format {
		f.Bold = true
		return f
	})
	assert.Equal(t, []Run{
		text("a", Format{Size: 12}),
		text("bc", Format{Size: 12, Bold: true}),
		text("d", Format{Size: 12}),
	}, got.Blocks[0].Runs)
	assert.Equal(t, "abcd", doc.Blocks[0].Runs[0].Text, "original is unchanged")
}

func TestDeleteRange_RemovesWholeImage(t *testing.T) {
	doc := NewDocument(Block{Runs: []Run{
		text("x", Format{}),
		{Image: "a.png"},
		text("y", Format{}),
	}})

	got, pos, removed := doc.DeleteRange(5, 6)
	assert.Equal(t, "xy", got.PlainText())
	assert.Equal(t, 1, pos)
	assert.Equal(t, []string{"a.png"}, removed)
}

func TestDeleteRange_JoinsBlocks(t *testing.T) {
	doc := NewDocument(
		Block{Runs: []Run{text("ab", Format{})}},
		Block{Runs: []Run{text("cd", Format{})}},
	)
	got, pos, removed := doc.DeleteRange(2, 3)
	assert.Equal(t, "abcd", got.PlainText())
	assert.Len(t, got.Blocks, 1)
	assert.Equal(t, 2, pos)
	assert.Empty(t, removed)
}

func TestInsertText_SplitsBlocks(t *testing.T) {
	doc := NewDocument(Block{Runs: []Run{text("ab", Format{})}})
	got, pos := doc.InsertText(1, "X\nY", Format{Bold: true})
	assert.Equal(t, "aX\nYb", got.PlainText())
	assert.Equal(t, 4, pos)
	require.Len(t, got.Blocks, 2)
	assert.Equal(t, text("X", Format{Bold: true}), got.Blocks[0].Runs[1])
}

func TestInsertImage_SnapsOutOfImage(t *testing.T) {
	doc := NewDocument(Block{Runs: []Run{{Image: "a.png"}}})
	got, pos := doc.InsertImage(2, "b.png", Format{})
	require.Len(t, got.Blocks[0].Runs, 2)
	assert.Equal(t, "a.png", got.Blocks[0].Runs[0].Image)
	assert.Equal(t, "b.png", got.Blocks[0].Runs[1].Image)
	assert.Equal(t, 10, pos)
}

func TestInsertText_EmptyDocument(t *testing.T) {
	got, pos := NewDocument().InsertText(0, "hi", Format{Size: 16})
	assert.Equal(t, "hi", got.PlainText())
	assert.Equal(t, 2, pos)
}
