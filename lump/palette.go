package lump

import (
	"image/color"

	"github.com/pkg/errors"
)

type RGB struct {
	Red, Green, Blue uint8
}

// Each palette in PLAYPAL contains 256 three-ubyte colors totaling 768 bytes (RGB).
type Palette [256]RGB

// ColorPalette converts p for use with the image packages.
func (p *Palette) ColorPalette() color.Palette {
	cp := make(color.Palette, len(p))
	for i, c := range p {
		cp[i] = color.NRGBA{R: c.Red, G: c.Green, B: c.Blue, A: 0xFF}
	}
	return cp
}

// Each color map is a table 256 bytes long. It is indexed using a pixel value (from 0 to 255) and
// yields a new, brightness-adjusted pixel value.
type ColorMap [256]byte

const (
	paletteSize  = 3 * 256
	colorMapSize = 256
)

// DecodePalettes reads a PLAYPAL lump. Doom ships 14 palettes; other games
// carry a different number, so any whole multiple of 768 bytes is accepted.
func DecodePalettes(data []byte) ([]Palette, error) {
	if len(data) == 0 || len(data)%paletteSize != 0 {
		return nil, errors.Wrapf(ErrTruncated, "PLAYPAL of %d bytes", len(data))
	}
	palettes := make([]Palette, len(data)/paletteSize)
	for i := range palettes {
		for j := range palettes[i] {
			rgb := data[i*paletteSize+3*j:]
			palettes[i][j] = RGB{Red: rgb[0], Green: rgb[1], Blue: rgb[2]}
		}
	}
	logger.Printf("Read %v palettes", len(palettes))
	return palettes, nil
}

// EncodePalettes returns a PLAYPAL lump.
func EncodePalettes(palettes []Palette) []byte {
	data := make([]byte, 0, len(palettes)*paletteSize)
	for _, p := range palettes {
		for _, c := range p {
			data = append(data, c.Red, c.Green, c.Blue)
		}
	}
	return data
}

// DecodeColorMaps reads a COLORMAP lump. Doom's holds 34 maps: 32 light
// levels, the invulnerability map and an all-black one.
func DecodeColorMaps(data []byte) ([]ColorMap, error) {
	if len(data) < colorMapSize {
		return nil, errors.Wrapf(ErrTruncated, "COLORMAP of %d bytes", len(data))
	}
	// Some ports append padding after the last map
	maps := make([]ColorMap, len(data)/colorMapSize)
	for i := range maps {
		copy(maps[i][:], data[i*colorMapSize:])
	}
	logger.Printf("Read %v color maps", len(maps))
	return maps, nil
}
