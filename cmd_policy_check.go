package main

import (
	"io/fs"

	"github.com/datawire/dlib/dlog"
	"github.com/spf13/cobra"

	"github.com/silverjam/pyopack/pkg/cliutil"
	"github.com/silverjam/pyopack/pkg/packaging/policy"
)

func init() {
	cmd := &cobra.Command{
		Use:   "check POLICY_FILES...",
		Short: "Validate packaging policy files",
		Args:  cliutil.WrapPositionalArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			for _, filename := range args {
				pol, err := policy.Load(filename)
				if err != nil {
					return err
				}
				if err := pol.Validate(); err != nil {
					return &fs.PathError{
						Op:   "check policy",
						Path: filename,
						Err:  err,
					}
				}
				dlog.Infof(ctx, "%s: OK", filename)
			}
			return nil
		},
	}
	argparserPolicy.AddCommand(cmd)
}
