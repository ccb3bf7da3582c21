// wadtool is a command line application that inspects and edits WAD archives.
package main

import (
	"os"

	"github.com/fatih/color"

	"github.com/stuarthighley/wadkit/cmd/wadtool/command"
)

func main() {
	MustStart()
}

func MustStart() {
	if err := command.NewRootCommand().Execute(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "wadtool error: %s\n", err)
		os.Exit(-1)
	}
}
