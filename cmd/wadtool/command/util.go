package command

import (
	"io"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	wad "github.com/stuarthighley/wadkit"
)

// locate resolves a lump reference: a directory index, or a name whose first
// match is used.
func locate(a wad.Archive, ref string) (int, error) {
	if i, err := strconv.Atoi(ref); err == nil {
		if _, err := a.EntryAt(i); err != nil {
			return 0, err
		}
		return i, nil
	}
	i := a.IndexOf(ref, 0)
	if i < 0 {
		return 0, errors.Wrapf(wad.ErrNotFound, "lump %q", ref)
	}
	return i, nil
}

// readInput reads a file, or standard input for "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

// writeOutput writes a file, or standard output for "-".
func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "-" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// openForEdit opens an archive for writing. With create set a missing archive
// is created with the configured kind.
func (g *GlobalFlags) openForEdit(path string, create bool) (*wad.File, error) {
	f, err := wad.Open(path, g.options()...)
	if err == nil || !create || !errors.Is(err, os.ErrNotExist) {
		return f, err
	}
	kind, err := g.kind()
	if err != nil {
		return nil, err
	}
	return wad.Create(path, kind, g.options()...)
}

// edit opens an archive, runs fn and closes it, reporting the first error.
func (g *GlobalFlags) edit(path string, create bool, fn func(f *wad.File) error) (err error) {
	f, err := g.openForEdit(path, create)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return fn(f)
}
