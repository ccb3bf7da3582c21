package lump

import (
	"encoding/binary"
	"math"
	"slices"

	"github.com/pkg/errors"
)

// CellSize is the side of a blockmap cell in map units.
const CellSize = 128

const (
	blockListStart = 0x0000
	blockListEnd   = 0xFFFF
	// Largest line index a list can hold; 0xFFFF ends the list.
	maxBlockLine = 0xFFFE
)

type binBlockmapHeader struct {
	OriginX, OriginY int16
	Columns, Rows    uint16
}

// Cell addresses one block of the grid.
type Cell struct {
	Column, Row int
}

// Blockmap is a grid of 128 unit cells over a map, each holding the indices of
// the linedefs crossing it. The grid grows to cover every cell touched by Add,
// Set or Clear; cells inside the grid without lines are empty.
type Blockmap struct {
	OriginX, OriginY int

	columns, rows int
	cells         map[Cell][]int
}

// NewBlockmap returns an empty blockmap anchored at the given map coordinates.
func NewBlockmap(originX, originY int) *Blockmap {
	return &Blockmap{OriginX: originX, OriginY: originY, cells: make(map[Cell][]int)}
}

// DecodeBlockmap decodes a BLOCKMAP lump.
func DecodeBlockmap(data []byte) (*Blockmap, error) {
	b := new(Blockmap)
	if err := b.Decode(Doom, data); err != nil {
		return nil, err
	}
	return b, nil
}

// Columns returns the width of the grid in cells.
func (b *Blockmap) Columns() int { return b.columns }

// Rows returns the height of the grid in cells.
func (b *Blockmap) Rows() int { return b.rows }

func (b *Blockmap) touch(c Cell) {
	if b.cells == nil {
		b.cells = make(map[Cell][]int)
	}
	if c.Column >= b.columns {
		b.columns = c.Column + 1
	}
	if c.Row >= b.rows {
		b.rows = c.Row + 1
	}
}

// Lines returns a copy of the line indices in a cell.
func (b *Blockmap) Lines(column, row int) []int {
	return slices.Clone(b.cells[Cell{column, row}])
}

// Add appends line indices to a cell.
func (b *Blockmap) Add(column, row int, lines ...int) {
	c := Cell{column, row}
	b.touch(c)
	b.cells[c] = append(b.cells[c], lines...)
}

// Set replaces the line indices of a cell.
func (b *Blockmap) Set(column, row int, lines []int) {
	c := Cell{column, row}
	b.touch(c)
	b.cells[c] = slices.Clone(lines)
}

// Clear empties a cell. The grid keeps its size.
func (b *Blockmap) Clear(column, row int) {
	c := Cell{column, row}
	b.touch(c)
	delete(b.cells, c)
}

// CellAt returns the cell holding the map point (x, y), and whether it lies
// inside the grid.
func (b *Blockmap) CellAt(x, y int) (Cell, bool) {
	c := Cell{
		Column: floorDiv(x-b.OriginX, CellSize),
		Row:    floorDiv(y-b.OriginY, CellSize),
	}
	return c, c.Column >= 0 && c.Column < b.columns && c.Row >= 0 && c.Row < b.rows
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// Formats returns every format.
func (b *Blockmap) Formats() FormatSet {
	return AllFormats
}

// Check reports origins outside 16 bits, cells the grid cannot address,
// unrepresentable line indices, and grids whose lists end past the reach of
// the 16 bit offset table.
func (b *Blockmap) Check(f Format) error {
	c := newChecker(f, b.Formats())
	inRange(c, "origin x", b.OriginX, math.MinInt16, math.MaxInt16)
	inRange(c, "origin y", b.OriginY, math.MinInt16, math.MaxInt16)
	inRange(c, "columns", b.columns, 0, math.MaxUint16)
	inRange(c, "rows", b.rows, 0, math.MaxUint16)

	// Every cell of the grid gets a list: start marker, lines, end marker
	words := 4 + b.columns*b.rows
	lastList := words
	for cell, lines := range b.cells {
		if cell.Column < 0 || cell.Row < 0 {
			c.fail("cells", "cell (%d, %d) has a negative coordinate", cell.Column, cell.Row)
		}
		for _, l := range lines {
			inRange(c, "line index", l, 0, maxBlockLine)
		}
		words += len(lines)
	}
	if n := b.columns * b.rows; n > 0 {
		words += 2 * n
		lastList = words - 2 - len(b.cells[Cell{b.columns - 1, b.rows - 1}])
	}
	if lastList > math.MaxUint16 {
		c.fail("cells", "lists extend to word %d, past the 16 bit offset limit", lastList)
	}
	return c.err
}

// Encode returns the BLOCKMAP lump. Lists are laid out column by column, each
// starting with a zero word and ending with 0xFFFF.
func (b *Blockmap) Encode(f Format) ([]byte, error) {
	if err := b.Check(f); err != nil {
		return nil, err
	}
	n := b.columns * b.rows
	words := make([]uint16, 4+n)
	words[0] = uint16(int16(b.OriginX))
	words[1] = uint16(int16(b.OriginY))
	words[2] = uint16(b.columns)
	words[3] = uint16(b.rows)
	for col := 0; col < b.columns; col++ {
		for row := 0; row < b.rows; row++ {
			words[4+row*b.columns+col] = uint16(len(words))
			words = append(words, blockListStart)
			for _, l := range b.cells[Cell{col, row}] {
				words = append(words, uint16(l))
			}
			words = append(words, blockListEnd)
		}
	}

	data := make([]byte, 2*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint16(data[2*i:], w)
	}
	return data, nil
}

// Decode reads a BLOCKMAP lump. Lists are read in one pass over the list
// region; offsets that do not land on the start of a list, as produced by
// packing blockmap builders, are read on their own.
func (b *Blockmap) Decode(f Format, data []byte) error {
	if len(data) < 8 {
		return errors.Wrap(ErrTruncated, "blockmap header")
	}
	word := func(i int) uint16 { return binary.LittleEndian.Uint16(data[2*i:]) }
	numWords := len(data) / 2

	header := binBlockmapHeader{
		OriginX: int16(word(0)),
		OriginY: int16(word(1)),
		Columns: word(2),
		Rows:    word(3),
	}
	cols, rows := int(header.Columns), int(header.Rows)
	n := cols * rows
	if numWords < 4+n {
		return errors.Wrapf(ErrTruncated, "blockmap offset table of %d cells", n)
	}

	offsets := make([]int, n)
	maxOffset := 0
	for i := range offsets {
		offsets[i] = int(word(4 + i))
		maxOffset = max(maxOffset, offsets[i])
	}

	readList := func(pos int) ([]int, int, error) {
		// Skip the start marker
		var lines []int
		for i := pos + 1; i < numWords; i++ {
			w := word(i)
			if w == blockListEnd {
				return lines, i + 1, nil
			}
			lines = append(lines, int(w))
		}
		return nil, 0, errors.Wrapf(ErrTruncated, "block list at word %d", pos)
	}

	lists := make(map[int][]int)
	for pos := 4 + n; pos <= maxOffset && pos < numWords; {
		lines, next, err := readList(pos)
		if err != nil {
			// Trailing garbage; offsets into it fail below
			break
		}
		lists[pos] = lines
		pos = next
	}

	bm := NewBlockmap(int(header.OriginX), int(header.OriginY))
	bm.columns, bm.rows = cols, rows
	for i, o := range offsets {
		lines, ok := lists[o]
		if !ok {
			var err error
			if lines, _, err = readList(o); err != nil {
				return err
			}
			lists[o] = lines
		}
		if len(lines) > 0 {
			bm.cells[Cell{i % cols, i / cols}] = slices.Clone(lines)
		}
	}
	logger.Printf("Read blockmap: %vx%v cells, %v distinct lists", cols, rows, len(lists))

	*b = *bm
	return nil
}
