package main

import (
	"os"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/silverjam/pyopack/pkg/cliutil"
	"github.com/silverjam/pyopack/pkg/packaging/policy"
)

func init() {
	var flags struct {
		Policy string
		Mode   string
	}
	cmd := &cobra.Command{
		Use:   "show [flags] >POLICY.yml",
		Short: "Print the effective packaging policy",
		Long: "Print the effective packaging policy as YAML: the built-in defaults, " +
			"overlaid with --policy and --mode when given.  The output is itself a " +
			"valid --policy file.",
		Args: cliutil.WrapPositionalArgs(cobra.NoArgs),
		RunE: func(_ *cobra.Command, _ []string) error {
			pol := policy.New()
			if flags.Policy != "" {
				var err error
				pol, err = policy.Load(flags.Policy)
				if err != nil {
					return err
				}
			}
			if flags.Mode != "" {
				mode, err := policy.ParseResourceHandlingMode(flags.Mode)
				if err != nil {
					return err
				}
				if err := pol.SetResourceHandlingMode(mode); err != nil {
					return err
				}
			}

			bs, err := yaml.Marshal(pol)
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(bs)
			return err
		},
	}
	cmd.Flags().StringVar(&flags.Policy, "policy", "", "Overlay `POLICY_FILE` on the defaults")
	cmd.Flags().StringVar(&flags.Mode, "mode", "",
		"Set the resource handling mode; one of \"classify\" or \"files\"")

	argparserPolicy.AddCommand(cmd)
}
