package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/silverjam/pyopack/pkg/cliutil"
	"github.com/silverjam/pyopack/pkg/dir"
	"github.com/silverjam/pyopack/pkg/fsutil"
	"github.com/silverjam/pyopack/pkg/reproducible"
)

func init() {
	var flagPrefix string
	cmd := &cobra.Command{
		Use:   "dir [flags] IN_DIRNAME >OUT_LAYERFILE",
		Short: "Create a layer from a directory",
		Args:  cliutil.WrapPositionalArgs(cobra.ExactArgs(1)),
		RunE: func(_ *cobra.Command, args []string) error {
			var prefix *dir.Prefix
			if flagPrefix != "" {
				prefix = &dir.Prefix{DirName: flagPrefix}
			}
			layer, err := dir.LayerFromDir(args[0], prefix, reproducible.Now())
			if err != nil {
				return err
			}
			return fsutil.WriteLayer(layer, os.Stdout)
		},
	}
	cmd.Flags().StringVar(&flagPrefix, "add-prefix", "",
		`Add a prefix to the filenames in the directory; forward-slash separated and `+
			`absolute but NOT starting with a slash.  For example, "usr/lib/python3.10".`)
	argparser.AddCommand(cmd)
}
