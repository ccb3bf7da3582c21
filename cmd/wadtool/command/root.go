package command

import (
	"github.com/spf13/cobra"
)

const (
	cliName        = "wadtool"
	cliDescription = "the command-line tool for WAD archives"
)

// NewRootCommand returns the wadtool command tree.
func NewRootCommand() *cobra.Command {
	cobra.EnablePrefixMatching = true

	g := new(GlobalFlags)
	cmd := &cobra.Command{
		Use:           cliName,
		Short:         cliDescription,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.load(cmd)
		},
	}
	g.register(cmd.PersistentFlags())

	cmd.AddCommand(
		newListCommand(g),
		newDupsCommand(g),
		newExtractCommand(g),
		newAddCommand(g),
		newInsertCommand(g),
		newMarkerCommand(g),
		newReplaceCommand(g),
		newRenameCommand(g),
		newDeleteCommand(g),
		newPNGCommand(g),
		newInspectCommand(g),
	)
	return cmd
}
