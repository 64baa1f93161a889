package main

import (
	"github.com/spf13/cobra"

	"github.com/silverjam/pyopack/pkg/cliutil"
)

//nolint:gochecknoglobals // This is the hook that `cmd_dist_*.go` files register with.
var argparserDist = &cobra.Command{
	Use:   "dist {[flags]|SUBCOMMAND...}",
	Short: "Work with Python distributions",

	Args: cliutil.OnlySubcommands,
	RunE: cliutil.RunSubcommands,
}

func init() {
	argparser.AddCommand(argparserDist)
}
