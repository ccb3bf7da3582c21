package command

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	wad "github.com/stuarthighley/wadkit"
	"github.com/stuarthighley/wadkit/lump"
)

// Size of a SECTORS record in every supported format.
const sectorSize = 26

func newInspectCommand(g *GlobalFlags) *cobra.Command {
	var target string
	cmd := &cobra.Command{
		Use:   "inspect <wad> <map>",
		Short: "decode the lumps of a map and check whether they convert to another format",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := wad.OpenBuffer(args[0])
			if err != nil {
				return err
			}
			entries, ok := wad.MapEntries(b, args[1])
			if !ok {
				return errors.Wrapf(wad.ErrNotFound, "map %q", args[1])
			}

			// Only Hexen maps carry compiled scripts
			def := lump.Doom
			for _, e := range entries {
				if e.Name == "BEHAVIOR" {
					def = lump.Hexen
				}
			}
			from, err := g.game(def)
			if err != nil {
				return err
			}
			to := from
			if target != "" {
				if to, err = parseGame(target); err != nil {
					return err
				}
			}

			rows, err := inspectMap(b, entries, from, to)
			if err != nil {
				return err
			}
			header := table.Row{"Lump", "Size", from.String(), "As " + to.String()}
			return g.render(cmd, header, rows)
		},
	}
	cmd.Flags().StringVar(&target, "to", "", "format to check conversion to (default the source format)")
	return cmd
}

func inspectMap(a wad.Archive, entries []wad.Entry, from, to lump.Format) ([]table.Row, error) {
	sectors := 0
	for _, e := range entries {
		if e.Name == "SECTORS" {
			sectors = e.Size / sectorSize
		}
	}

	rows := make([]table.Row, 0, len(entries))
	for _, e := range entries[1:] {
		data, err := a.DataOf(e)
		if err != nil {
			return nil, err
		}
		contents, export := "", ""
		switch e.Name {
		case "THINGS":
			things, err := lump.DecodeList[lump.Thing](from, data)
			if err != nil {
				return nil, errors.Wrap(err, e.Name)
			}
			contents = fmt.Sprintf("%d things", len(things))
			export = checkRecords(things, to)
		case "LINEDEFS":
			lines, err := lump.DecodeList[lump.Linedef](from, data)
			if err != nil {
				return nil, errors.Wrap(err, e.Name)
			}
			contents = fmt.Sprintf("%d linedefs", len(lines))
			export = checkRecords(lines, to)
		case "BLOCKMAP":
			bm, err := lump.DecodeBlockmap(data)
			if err != nil {
				return nil, errors.Wrap(err, e.Name)
			}
			contents = fmt.Sprintf("%dx%d cells at (%d, %d)", bm.Columns(), bm.Rows(), bm.OriginX, bm.OriginY)
			export = checkCodec(bm, to)
		case "REJECT":
			r, err := lump.DecodeReject(sectors, data)
			if err != nil {
				return nil, errors.Wrap(err, e.Name)
			}
			contents = fmt.Sprintf("%d sectors", r.SectorCount)
			export = checkCodec(r, to)
		}
		rows = append(rows, table.Row{e.Name, e.Size, contents, export})
	}
	return rows, nil
}

func checkCodec(c lump.Codec, to lump.Format) string {
	if err := c.Check(to); err != nil {
		return err.Error()
	}
	return "ok"
}

func checkRecords[T any, PT interface {
	*T
	lump.Record
}](items []T, to lump.Format) string {
	lossy := 0
	var first error
	for i := range items {
		if err := PT(&items[i]).Check(to); err != nil {
			if first == nil {
				first = errors.Wrapf(err, "record %d", i)
			}
			lossy++
		}
	}
	if lossy == 0 {
		return "ok"
	}
	return fmt.Sprintf("%d lossy, first %v", lossy, first)
}
