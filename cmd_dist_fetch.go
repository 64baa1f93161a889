package main

import (
	"fmt"
	"os"

	"github.com/datawire/dlib/dlog"
	"github.com/spf13/cobra"

	"github.com/silverjam/pyopack/pkg/cliutil"
	"github.com/silverjam/pyopack/pkg/config"
	"github.com/silverjam/pyopack/pkg/packaging/dist"
	"github.com/silverjam/pyopack/pkg/python/pep440"
)

func init() {
	var flags struct {
		Index  string
		Python string
	}
	cmd := &cobra.Command{
		Use:   "fetch [flags] PKGNAME [FILENAME >OUT_FILE]",
		Short: "List or download a package's files from a package index",
		Long: "Query a PEP 503 \"simple\" package index for PKGNAME.  With just " +
			"PKGNAME, list the files the index has; with FILENAME, download that " +
			"file to stdout, verifying the index's checksum for it.",
		Args: cliutil.WrapPositionalArgs(cobra.RangeArgs(1, 2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := config.Load(ctx, "")
			if err != nil {
				return err
			}
			ctx = dlog.WithLogger(ctx, cfg.Logger(cmd.ErrOrStderr()))
			client := dist.Client{
				BaseURL: cfg.Index.URL,
			}
			if flags.Index != "" {
				client.BaseURL = flags.Index
			}
			if flags.Python != "" {
				client.Python, err = pep440.Parse(flags.Python)
				if err != nil {
					return err
				}
			}

			links, err := client.ListPackageFiles(ctx, args[0])
			if err != nil {
				return err
			}

			if len(args) == 1 {
				for _, link := range links {
					fmt.Println(link.Text)
				}
				return nil
			}

			for _, link := range links {
				if link.Text != args[1] {
					continue
				}
				content, err := link.Get(ctx)
				if err != nil {
					return err
				}
				_, err = os.Stdout.Write(content)
				return err
			}
			return fmt.Errorf("package %q has no file %q", args[0], args[1])
		},
	}
	cmd.Flags().StringVar(&flags.Index, "index", "",
		"Query `INDEX_URL` instead of the configured index")
	cmd.Flags().StringVar(&flags.Python, "python", "",
		"Skip files that declare themselves incompatible with Python `VERSION`")

	argparserDist.AddCommand(cmd)
}
