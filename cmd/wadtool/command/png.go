package command

import (
	"bytes"
	"image/png"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	wad "github.com/stuarthighley/wadkit"
	"github.com/stuarthighley/wadkit/lump"
)

func newPNGCommand(g *GlobalFlags) *cobra.Command {
	var (
		output     string
		paletteWAD string
		palette    int
		colormap   int
		scale      int
	)
	cmd := &cobra.Command{
		Use:   "png <wad> <picture>",
		Short: "render a picture lump to PNG",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := wad.OpenBuffer(args[0])
			if err != nil {
				return err
			}
			data, err := b.DataNamed(args[1])
			if err != nil {
				return err
			}
			pic, err := lump.DecodePicture(data)
			if err != nil {
				return errors.Wrapf(err, "decode %s", args[1])
			}
			pic.Name = wad.CoerceName(args[1])
			if scale > 1 {
				pic = pic.Scale(pic.Width*scale, pic.Height*scale)
			}

			// PWADs usually borrow the palette of the game they load over
			source := b
			if paletteWAD != "" {
				if source, err = wad.OpenBuffer(paletteWAD); err != nil {
					return err
				}
			}
			pal, cmap, err := loadPalette(source, palette, colormap)
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			if err := png.Encode(&buf, pic.Image(pal, cmap)); err != nil {
				return err
			}
			if output == "" {
				output = pic.Name + ".png"
			}
			if err := writeOutput(cmd, output, buf.Bytes()); err != nil {
				return err
			}
			if output != "-" {
				g.succeed(cmd, "wrote %s (%dx%d) to %s", pic.Name, pic.Width, pic.Height, output)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, - for stdout (default <NAME>.png)")
	cmd.Flags().StringVar(&paletteWAD, "palette-wad", "", "read PLAYPAL and COLORMAP from this archive")
	cmd.Flags().IntVar(&palette, "palette", 0, "PLAYPAL palette number")
	cmd.Flags().IntVar(&colormap, "colormap", -1, "COLORMAP light level, -1 for none")
	cmd.Flags().IntVar(&scale, "scale", 1, "integer scale factor")
	return cmd
}

func loadPalette(a wad.Archive, palette, colormap int) (*lump.Palette, *lump.ColorMap, error) {
	data, err := a.DataNamed("PLAYPAL")
	if err != nil {
		return nil, nil, err
	}
	palettes, err := lump.DecodePalettes(data)
	if err != nil {
		return nil, nil, err
	}
	if palette < 0 || palette >= len(palettes) {
		return nil, nil, errors.Errorf("palette %d out of range, archive has %d", palette, len(palettes))
	}
	if colormap < 0 {
		return &palettes[palette], nil, nil
	}

	data, err = a.DataNamed("COLORMAP")
	if err != nil {
		return nil, nil, err
	}
	maps, err := lump.DecodeColorMaps(data)
	if err != nil {
		return nil, nil, err
	}
	if colormap >= len(maps) {
		return nil, nil, errors.Errorf("colormap %d out of range, archive has %d", colormap, len(maps))
	}
	return &palettes[palette], &maps[colormap], nil
}
