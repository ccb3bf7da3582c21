package command

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"log"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	wad "github.com/stuarthighley/wadkit"
	"github.com/stuarthighley/wadkit/lump"
)

const (
	FormatTable = "table"
	FormatJSON  = "json"
)

type GlobalFlags struct {
	ConfigFile string
	Verbose    bool
	Atomic     bool
	Format     string
	Game       string
	Kind       string
}

func (g *GlobalFlags) register(flags *pflag.FlagSet) {
	def := DefaultConfig()
	flags.StringVar(&g.ConfigFile, "config", "", "config file (default $HOME/"+configFileName+")")
	flags.BoolVarP(&g.Verbose, "verbose", "v", def.Verbose, "log progress to stderr")
	flags.BoolVar(&g.Atomic, "atomic", def.Atomic, "rewrite archives through a temporary file")
	flags.StringVar(&g.Format, "format", def.Format, "output format: table or json")
	flags.StringVar(&g.Game, "game", def.Game, "map format: doom, hexen or strife")
	flags.StringVar(&g.Kind, "kind", def.Kind, "kind of archives created on demand: IWAD or PWAD")
}

// load fills every flag not given on the command line from the config file.
func (g *GlobalFlags) load(cmd *cobra.Command) error {
	path, explicit := g.ConfigFile, g.ConfigFile != ""
	if !explicit {
		path = DefaultConfigPath()
	}
	cfg, err := LoadConfig(path)
	if err != nil && (explicit || !errors.Is(err, fs.ErrNotExist)) {
		return err
	}

	flags := cmd.Flags()
	if !flags.Changed("verbose") {
		g.Verbose = cfg.Verbose
	}
	if !flags.Changed("atomic") {
		g.Atomic = cfg.Atomic
	}
	if !flags.Changed("format") {
		g.Format = cfg.Format
	}
	if !flags.Changed("game") {
		g.Game = cfg.Game
	}
	if !flags.Changed("kind") {
		g.Kind = cfg.Kind
	}

	if g.Verbose {
		l := log.New(cmd.ErrOrStderr(), "", log.LstdFlags)
		wad.SetLogger(l)
		lump.SetLogger(l)
	}
	return nil
}

func (g *GlobalFlags) options() []wad.Option {
	if g.Atomic {
		return []wad.Option{wad.WithAtomicCommit()}
	}
	return nil
}

func (g *GlobalFlags) kind() (wad.Kind, error) {
	kind, ok := wad.ParseKind(g.Kind)
	if !ok {
		return 0, errors.Errorf("unknown archive kind %q", g.Kind)
	}
	return kind, nil
}

// game returns the map format named by --game, or def when none is set.
func (g *GlobalFlags) game(def lump.Format) (lump.Format, error) {
	if g.Game == "" {
		return def, nil
	}
	return parseGame(g.Game)
}

func parseGame(s string) (lump.Format, error) {
	for _, f := range []lump.Format{lump.Doom, lump.Hexen, lump.Strife} {
		if strings.EqualFold(s, f.String()) {
			return f, nil
		}
	}
	return 0, errors.Errorf("unknown game %q", s)
}

func (g *GlobalFlags) render(cmd *cobra.Command, header table.Row, rows []table.Row) error {
	switch strings.ToLower(g.Format) {
	case FormatJSON:
		records := make([]map[string]any, len(rows))
		for i, row := range rows {
			records[i] = make(map[string]any, len(row))
			for j, v := range row {
				records[i][fmt.Sprint(header[j])] = v
			}
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	case FormatTable, "":
		t := table.NewWriter()
		t.SetOutputMirror(cmd.OutOrStdout())
		t.SetStyle(table.StyleLight)
		t.AppendHeader(header)
		t.AppendRows(rows)
		t.Render()
		return nil
	}
	return errors.Errorf("unknown output format %q", g.Format)
}

func (g *GlobalFlags) succeed(cmd *cobra.Command, format string, a ...any) {
	if strings.ToLower(g.Format) == FormatJSON {
		data, _ := json.Marshal(map[string]string{"Result": fmt.Sprintf(format, a...)})
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return
	}
	color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), format+"\n", a...)
}
