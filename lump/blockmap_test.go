package lump

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func words(ws ...uint16) []byte {
	data := make([]byte, 2*len(ws))
	for i, w := range ws {
		binary.LittleEndian.PutUint16(data[2*i:], w)
	}
	return data
}

func TestBlockmapRoundTrip(t *testing.T) {
	b := NewBlockmap(-768, 1024)
	b.Add(0, 0, 1, 2)
	b.Add(2, 1, 0)
	b.Add(2, 1, 7)
	b.Set(1, 0, []int{65534})

	data, err := b.Encode(Doom)
	require.NoError(t, err)
	got, err := DecodeBlockmap(data)
	require.NoError(t, err)

	assert.Equal(t, -768, got.OriginX)
	assert.Equal(t, 1024, got.OriginY)
	assert.Equal(t, 3, got.Columns())
	assert.Equal(t, 2, got.Rows())
	assert.Equal(t, []int{1, 2}, got.Lines(0, 0))
	assert.Equal(t, []int{0, 7}, got.Lines(2, 1))
	assert.Equal(t, []int{65534}, got.Lines(1, 0))
	assert.Empty(t, got.Lines(1, 1))
	assert.Equal(t, b, got)
}

func TestBlockmapLayout(t *testing.T) {
	b := NewBlockmap(0, 0)
	b.Add(1, 1, 5)
	data, err := b.Encode(Doom)
	require.NoError(t, err)

	// Offsets indexed row by row, lists written column by column
	want := words(
		0, 0, 2, 2,
		8, 12, 10, 14,
		0, 0xFFFF, // (0, 0)
		0, 0xFFFF, // (0, 1)
		0, 0xFFFF, // (1, 0)
		0, 5, 0xFFFF, // (1, 1)
	)
	assert.Equal(t, want, data)
}

func TestBlockmapClearKeepsGrid(t *testing.T) {
	b := NewBlockmap(0, 0)
	b.Add(0, 0, 3)
	b.Clear(4, 2)
	assert.Equal(t, 5, b.Columns())
	assert.Equal(t, 3, b.Rows())

	b.Clear(0, 0)
	assert.Empty(t, b.Lines(0, 0))

	first, err := b.Encode(Doom)
	require.NoError(t, err)
	got, err := DecodeBlockmap(first)
	require.NoError(t, err)
	second, err := got.Encode(Doom)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestBlockmapLinesIsACopy(t *testing.T) {
	b := NewBlockmap(0, 0)
	lines := []int{1, 2}
	b.Set(0, 0, lines)
	lines[0] = 9
	got := b.Lines(0, 0)
	assert.Equal(t, []int{1, 2}, got)
	got[1] = 9
	assert.Equal(t, []int{1, 2}, b.Lines(0, 0))
}

func TestBlockmapCellAt(t *testing.T) {
	b := NewBlockmap(-128, -128)
	b.Clear(2, 2)

	c, ok := b.CellAt(-128, -128)
	assert.True(t, ok)
	assert.Equal(t, Cell{0, 0}, c)
	c, ok = b.CellAt(0, 127)
	assert.True(t, ok)
	assert.Equal(t, Cell{1, 1}, c)
	c, ok = b.CellAt(-129, 0)
	assert.False(t, ok)
	assert.Equal(t, Cell{-1, 1}, c)
	_, ok = b.CellAt(256, 0)
	assert.False(t, ok)
}

func TestBlockmapDecodeSharedLists(t *testing.T) {
	// All four cells share one list; the second offset points into its middle
	data := words(
		16, 32, 2, 2,
		8, 9, 8, 8,
		0, 4, 6, 0xFFFF,
	)
	b, err := DecodeBlockmap(data)
	require.NoError(t, err)
	assert.Equal(t, []int{4, 6}, b.Lines(0, 0))
	assert.Equal(t, []int{6}, b.Lines(1, 0))
	assert.Equal(t, []int{4, 6}, b.Lines(0, 1))
	assert.Equal(t, []int{4, 6}, b.Lines(1, 1))

	// Decoded cells do not share storage
	b.Add(0, 0, 1)
	assert.Equal(t, []int{4, 6}, b.Lines(1, 1))
}

func TestBlockmapDecodeErrors(t *testing.T) {
	_, err := DecodeBlockmap(words(0, 0, 1))
	assert.ErrorIs(t, err, ErrTruncated)

	_, err = DecodeBlockmap(words(0, 0, 2, 2, 8, 8, 8))
	assert.ErrorIs(t, err, ErrTruncated)

	// Unterminated list
	_, err = DecodeBlockmap(words(0, 0, 1, 1, 5, 0, 3))
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestBlockmapCheck(t *testing.T) {
	b := NewBlockmap(40000, 0)
	assert.ErrorIs(t, b.Check(Doom), ErrLossyExport)

	b = NewBlockmap(0, 0)
	b.Add(0, 0, 65535)
	var lossy *LossyExportError
	require.ErrorAs(t, b.Check(Doom), &lossy)
	assert.Equal(t, "line index", lossy.Field)

	b = NewBlockmap(0, 0)
	b.Add(-1, 0, 1)
	assert.ErrorIs(t, b.Check(Doom), ErrLossyExport)

	// Enough cells to push the last list past word 65535
	b = NewBlockmap(0, 0)
	b.Clear(199, 199)
	data, err := b.Encode(Doom)
	assert.ErrorIs(t, err, ErrLossyExport)
	assert.Nil(t, data)
}
