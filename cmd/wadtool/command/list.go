package command

import (
	"encoding/hex"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/zeebo/blake3"

	wad "github.com/stuarthighley/wadkit"
)

func digest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:16])
}

func newListCommand(g *GlobalFlags) *cobra.Command {
	var hash bool
	cmd := &cobra.Command{
		Use:   "list <wad>",
		Short: "list the directory of an archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var a wad.Archive
			var err error
			if hash {
				a, err = wad.OpenBuffer(args[0])
			} else {
				a, err = wad.OpenListing(args[0])
			}
			if err != nil {
				return err
			}
			defer a.Close()

			header := table.Row{"Index", "Name", "Offset", "Size"}
			if hash {
				header = append(header, "BLAKE3")
			}
			rows := make([]table.Row, 0, a.Len())
			for i, e := range a.Entries() {
				row := table.Row{i, e.Name, e.Offset, e.Size}
				if hash {
					data, err := a.Data(i)
					if err != nil {
						return err
					}
					row = append(row, digest(data))
				}
				rows = append(rows, row)
			}
			if g.Format != FormatJSON {
				color.New(color.FgCyan).Fprintf(cmd.OutOrStdout(), "%v archive, %d lumps\n", a.Kind(), a.Len())
			}
			return g.render(cmd, header, rows)
		},
	}
	cmd.Flags().BoolVar(&hash, "hash", false, "print a BLAKE3 digest of every lump")
	return cmd
}

func newDupsCommand(g *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "dups <wad>",
		Short: "find lumps with identical contents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := wad.OpenBuffer(args[0])
			if err != nil {
				return err
			}
			var digests []string
			groups := make(map[string][]string)
			sizes := make(map[string]int)
			for i, e := range b.Entries() {
				if e.IsMarker() {
					continue
				}
				data, err := b.Data(i)
				if err != nil {
					return err
				}
				d := digest(data)
				if _, ok := groups[d]; !ok {
					digests = append(digests, d)
				}
				groups[d] = append(groups[d], e.Name)
				sizes[d] = e.Size
			}

			var rows []table.Row
			for _, d := range digests {
				if names := groups[d]; len(names) > 1 {
					rows = append(rows, table.Row{d, sizes[d], len(names), strings.Join(names, " ")})
				}
			}
			return g.render(cmd, table.Row{"BLAKE3", "Size", "Count", "Names"}, rows)
		},
	}
}
