package lump

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"math"

	"github.com/pkg/errors"
)

// Transparent marks a pixel no post covers.
const Transparent int16 = -1

// Lowest row a post can start on. A starting row of 255 marks the end of a
// column.
const maxPostRow = 254

// Decoded pictures above this many pixels are refused, the size of a 4096 by
// 4096 texture.
const maxPicturePixels = 1 << 24

type binPictureHeader struct {
	Width, Height         uint16
	LeftOffset, TopOffset int16
}

// Picture is a column-major image in the Doom patch format, used for sprites,
// wall patches and menu graphics.
type Picture struct {
	Name                  string
	Width, Height         int
	LeftOffset, TopOffset int // Allows soulspheres, weapons and keys to float
	Columns               []Column
}

// Column holds one palette index per row, or Transparent.
type Column []int16

// NewPicture returns a fully transparent picture.
func NewPicture(width, height int) *Picture {
	p := &Picture{Width: width, Height: height, Columns: make([]Column, width)}
	for x := range p.Columns {
		p.Columns[x] = make(Column, height)
		for y := range p.Columns[x] {
			p.Columns[x][y] = Transparent
		}
	}
	return p
}

// DecodePicture decodes a patch lump.
func DecodePicture(data []byte) (*Picture, error) {
	p := new(Picture)
	if err := p.Decode(Doom, data); err != nil {
		return nil, err
	}
	return p, nil
}

// Pixel returns the pixel at (x, y), or Transparent outside the picture.
func (p *Picture) Pixel(x, y int) int16 {
	if x < 0 || x >= len(p.Columns) || y < 0 || y >= len(p.Columns[x]) {
		return Transparent
	}
	return p.Columns[x][y]
}

// SetPixel sets the pixel at (x, y). Coordinates outside the picture are ignored.
func (p *Picture) SetPixel(x, y int, v int16) {
	if x < 0 || x >= len(p.Columns) || y < 0 || y >= len(p.Columns[x]) {
		return
	}
	p.Columns[x][y] = v
}

// Formats returns every format; pictures are laid out identically in all of them.
func (p *Picture) Formats() FormatSet {
	return AllFormats
}

// Check reports dimensions or offsets that overflow their header fields,
// columns that do not match the dimensions, and opaque pixels too far down
// a column to be addressed by a post.
func (p *Picture) Check(f Format) error {
	c := newChecker(f, p.Formats())
	inRange(c, "width", p.Width, 0, math.MaxUint16)
	inRange(c, "height", p.Height, 0, math.MaxUint16)
	inRange(c, "left offset", p.LeftOffset, math.MinInt16, math.MaxInt16)
	inRange(c, "top offset", p.TopOffset, math.MinInt16, math.MaxInt16)
	if len(p.Columns) != p.Width {
		c.fail("columns", "%d columns for width %d", len(p.Columns), p.Width)
	}
	for x, col := range p.Columns {
		if len(col) != p.Height {
			c.fail("columns", "column %d has %d rows for height %d", x, len(col), p.Height)
			break
		}
		for y := maxPostRow + 1; y < len(col); y++ {
			if col[y] != Transparent {
				c.fail("columns", "opaque pixel at column %d row %d, posts cannot start below row %d", x, y, maxPostRow)
				break
			}
		}
	}
	return c.err
}

// Encode returns the patch lump. Palette indices outside 0..255 are clamped.
func (p *Picture) Encode(f Format) ([]byte, error) {
	if err := p.Check(f); err != nil {
		return nil, err
	}

	buf := new(bytes.Buffer)
	header := binPictureHeader{
		Width:      uint16(p.Width),
		Height:     uint16(p.Height),
		LeftOffset: int16(p.LeftOffset),
		TopOffset:  int16(p.TopOffset),
	}
	if err := binary.Write(buf, binary.LittleEndian, &header); err != nil {
		return nil, err
	}

	// Column offsets are filled in once the posts are laid out
	tableAt := buf.Len()
	buf.Write(make([]byte, 4*p.Width))
	offsets := make([]uint32, p.Width)
	for x, col := range p.Columns {
		offsets[x] = uint32(buf.Len())
		writePosts(buf, col)
	}

	data := buf.Bytes()
	for x, o := range offsets {
		binary.LittleEndian.PutUint32(data[tableAt+4*x:], o)
	}
	return data, nil
}

// writePosts writes each maximal run of opaque pixels as a post, then the end
// of column marker.
func writePosts(buf *bytes.Buffer, col Column) {
	for y := 0; y < len(col); {
		if col[y] == Transparent {
			y++
			continue
		}
		top := y
		for y < len(col) && col[y] != Transparent {
			y++
		}
		buf.WriteByte(byte(top))
		buf.WriteByte(byte(y - top))
		buf.WriteByte(0) // Padding
		for _, v := range col[top:y] {
			buf.WriteByte(byte(clampTo(v, 0, 255)))
		}
		buf.WriteByte(0) // Padding
	}
	buf.WriteByte(0xFF)
}

type post struct {
	top    int
	pixels []byte
}

// Decode reads a patch lump. Columns that share an offset share their posts,
// and pixels of posts reaching past the picture height are dropped.
func (p *Picture) Decode(f Format, data []byte) error {
	reader := bytes.NewReader(data)
	var header binPictureHeader
	if err := binary.Read(reader, binary.LittleEndian, &header); err != nil {
		return errors.Wrap(ErrTruncated, "picture header")
	}
	offsets := make([]uint32, header.Width)
	if err := binary.Read(reader, binary.LittleEndian, offsets); err != nil {
		return errors.Wrap(ErrTruncated, "picture column offsets")
	}
	if pixels := int(header.Width) * int(header.Height); pixels > maxPicturePixels {
		return errors.Wrapf(ErrTooLarge, "picture of %dx%d", header.Width, header.Height)
	}

	pic := NewPicture(int(header.Width), int(header.Height))
	pic.Name = p.Name
	pic.LeftOffset = int(header.LeftOffset)
	pic.TopOffset = int(header.TopOffset)

	// For each column offset, expand out the posts into columns
	cache := make(map[uint32][]post)
	for x, offset := range offsets {
		posts, ok := cache[offset]
		if !ok {
			var err error
			if posts, err = readPosts(data, int(offset)); err != nil {
				return errors.Wrapf(err, "column %d", x)
			}
			cache[offset] = posts
		}
		col := pic.Columns[x]
		for _, post := range posts {
			for i, v := range post.pixels {
				if post.top+i < len(col) {
					col[post.top+i] = int16(v)
				}
			}
		}
	}
	logger.Printf("Read picture %q: %vx%v, %v distinct columns", p.Name, pic.Width, pic.Height, len(cache))

	*p = *pic
	return nil
}

func readPosts(data []byte, offset int) ([]post, error) {
	var posts []post
	for {
		if offset >= len(data) {
			return nil, errors.Wrapf(ErrTruncated, "post at %d", offset)
		}
		topDelta := int(data[offset])
		if topDelta == 0xFF {
			return posts, nil
		}
		if offset+3 > len(data) {
			return nil, errors.Wrapf(ErrTruncated, "post header at %d", offset)
		}
		numPixels := int(data[offset+1])
		start := offset + 3 // Skip padding
		if start+numPixels+1 > len(data) {
			return nil, errors.Wrapf(ErrTruncated, "post of %d pixels at %d", numPixels, offset)
		}
		posts = append(posts, post{top: topDelta, pixels: data[start : start+numPixels]})
		offset = start + numPixels + 1 // Padding
	}
}

// Scale returns a nearest-neighbour resized copy of the picture.
func (p *Picture) Scale(width, height int) *Picture {
	pic := &Picture{
		Name:       p.Name,
		Width:      width,
		Height:     height,
		LeftOffset: p.LeftOffset * width / max(p.Width, 1),
		TopOffset:  p.TopOffset * height / max(p.Height, 1),
		Columns:    make([]Column, width),
	}
	for x := range pic.Columns {
		pic.Columns[x] = make(Column, height)
		for y := range pic.Columns[x] {
			pic.Columns[x][y] = p.Pixel(x*p.Width/width, y*p.Height/height)
		}
	}
	return pic
}

// Image renders the picture through a palette. A nil colormap leaves indices
// unchanged. Transparent pixels get zero alpha.
func (p *Picture) Image(palette *Palette, colormap *ColorMap) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, p.Width, p.Height))
	for x, col := range p.Columns {
		for y, v := range col {
			if v == Transparent {
				continue
			}
			index := byte(clampTo(v, 0, 255))
			if colormap != nil {
				index = colormap[index]
			}
			rgb := palette[index]
			img.SetNRGBA(x, y, color.NRGBA{R: rgb.Red, G: rgb.Green, B: rgb.Blue, A: 0xFF})
		}
	}
	return img
}
