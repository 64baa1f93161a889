package main

import (
	"github.com/spf13/cobra"

	"github.com/silverjam/pyopack/pkg/cliutil"
)

//nolint:gochecknoglobals // This is the hook that `cmd_policy_*.go` files register with.
var argparserPolicy = &cobra.Command{
	Use:   "policy {[flags]|SUBCOMMAND...}",
	Short: "Work with packaging policy files",

	Args: cliutil.OnlySubcommands,
	RunE: cliutil.RunSubcommands,
}

func init() {
	argparser.AddCommand(argparserPolicy)
}
