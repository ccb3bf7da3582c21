package command

import (
	"strconv"

	"github.com/spf13/cobra"

	wad "github.com/stuarthighley/wadkit"
)

func newExtractCommand(g *GlobalFlags) *cobra.Command {
	var (
		output string
		nth    int
	)
	cmd := &cobra.Command{
		Use:   "extract <wad> <lump|index>",
		Short: "write the contents of a lump to a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := wad.OpenBuffer(args[0])
			if err != nil {
				return err
			}
			i, err := locate(b, args[1])
			if err != nil {
				return err
			}
			e, _ := b.EntryAt(i)
			if nth > 0 {
				var ok bool
				if e, ok = b.NthEntryNamed(e.Name, nth); !ok {
					return wad.ErrNotFound
				}
			}
			data, err := b.DataOf(e)
			if err != nil {
				return err
			}
			if output == "" {
				output = e.Name + ".lmp"
			}
			if err := writeOutput(cmd, output, data); err != nil {
				return err
			}
			if output != "-" {
				g.succeed(cmd, "extracted %s (%d bytes) to %s", e.Name, len(data), output)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, - for stdout (default <NAME>.lmp)")
	cmd.Flags().IntVar(&nth, "nth", 0, "use the nth lump with this name, counting from 0")
	return cmd
}

func newAddCommand(g *GlobalFlags) *cobra.Command {
	var create bool
	cmd := &cobra.Command{
		Use:   "add <wad> <name> <file>",
		Short: "append a lump read from a file, - for stdin",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[2])
			if err != nil {
				return err
			}
			return g.edit(args[0], create, func(f *wad.File) error {
				if err := f.Append(args[1], data); err != nil {
					return err
				}
				g.succeed(cmd, "added %s (%d bytes) at index %d", wad.CoerceName(args[1]), len(data), f.Len()-1)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&create, "create", false, "create the archive if it does not exist")
	return cmd
}

func newInsertCommand(g *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "insert <wad> <index> <name> <file>",
		Short: "insert a lump before the given index",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			i, err := strconv.Atoi(args[1])
			if err != nil {
				return err
			}
			data, err := readInput(cmd, args[3])
			if err != nil {
				return err
			}
			return g.edit(args[0], false, func(f *wad.File) error {
				if err := f.InsertAt(i, args[2], data); err != nil {
					return err
				}
				g.succeed(cmd, "inserted %s (%d bytes) at index %d", wad.CoerceName(args[2]), len(data), i)
				return nil
			})
		},
	}
}

func newMarkerCommand(g *GlobalFlags) *cobra.Command {
	var create bool
	cmd := &cobra.Command{
		Use:   "marker <wad> <name>...",
		Short: "append empty marker lumps",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.edit(args[0], create, func(f *wad.File) error {
				for _, name := range args[1:] {
					if err := f.AppendMarker(name); err != nil {
						return err
					}
					g.succeed(cmd, "added marker %s at index %d", wad.CoerceName(name), f.Len()-1)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&create, "create", false, "create the archive if it does not exist")
	return cmd
}

func newReplaceCommand(g *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "replace <wad> <lump|index> <file>",
		Short: "replace the contents of a lump",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[2])
			if err != nil {
				return err
			}
			return g.edit(args[0], false, func(f *wad.File) error {
				i, err := locate(f, args[1])
				if err != nil {
					return err
				}
				if err := f.ReplaceAt(i, data); err != nil {
					return err
				}
				e, _ := f.EntryAt(i)
				g.succeed(cmd, "replaced %s at index %d (%d bytes)", e.Name, i, e.Size)
				return nil
			})
		},
	}
}

func newRenameCommand(g *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <wad> <lump|index> <new-name>",
		Short: "rename a lump",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.edit(args[0], false, func(f *wad.File) error {
				i, err := locate(f, args[1])
				if err != nil {
					return err
				}
				old, _ := f.EntryAt(i)
				if err := f.RenameAt(i, args[2]); err != nil {
					return err
				}
				e, _ := f.EntryAt(i)
				g.succeed(cmd, "renamed %s to %s", old.Name, e.Name)
				return nil
			})
		},
	}
}

func newDeleteCommand(g *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <wad> <lump|index>",
		Short: "remove a lump",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.edit(args[0], false, func(f *wad.File) error {
				i, err := locate(f, args[1])
				if err != nil {
					return err
				}
				e, _ := f.EntryAt(i)
				if err := f.DeleteAt(i); err != nil {
					return err
				}
				g.succeed(cmd, "deleted %s from index %d", e.Name, i)
				return nil
			})
		},
	}
}
