package main

import (
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/silverjam/pyopack/pkg/cliutil"
	"github.com/silverjam/pyopack/pkg/packaging/dist"
	"github.com/silverjam/pyopack/pkg/packaging/policy"
	"github.com/silverjam/pyopack/pkg/packaging/resource"
)

func init() {
	var flags struct {
		Policy    string
		TestRoots []string
	}
	cmd := &cobra.Command{
		Use:   "scan [flags] IN_DIRNAME >OUT_RESOURCES.yml",
		Short: "Scan a directory tree in to classified resources",
		Long: "Scan an unpacked site-packages-style directory tree, classify its files " +
			"according to the packaging policy, and dump the resulting resources " +
			"with the collection decisions the policy made for each.",
		Args: cliutil.WrapPositionalArgs(cobra.ExactArgs(1)),
		RunE: func(_ *cobra.Command, args []string) error {
			pol := policy.New()
			if flags.Policy != "" {
				var err error
				pol, err = policy.Load(flags.Policy)
				if err != nil {
					return err
				}
			}

			resources, err := dist.ScanDir(os.DirFS(args[0]), pol,
				dist.NewTestPackageIndex(flags.TestRoots...))
			if err != nil {
				return err
			}

			encoder := yaml.NewEncoder(os.Stdout)
			defer func() { _ = encoder.Close() }()
			for _, res := range resources {
				if err := pol.ApplyToResource(res); err != nil {
					return err
				}
				entry := struct {
					Type        string `yaml:"type"`
					Name        string `yaml:"name"`
					Include     bool   `yaml:"include"`
					Location    string `yaml:"location"`
					StoreSource bool   `yaml:"store_source,omitempty"`
					IsTest      bool   `yaml:"is_test,omitempty"`
					IsPackage   bool   `yaml:"is_package,omitempty"`
				}{
					Type:        res.TypeName(),
					Name:        res.Ident(),
					Include:     res.CollectionContext().Include,
					Location:    res.CollectionContext().Location.String(),
					StoreSource: res.CollectionContext().StoreSource,
				}
				if mod, isMod := res.(*resource.SourceModule); isMod {
					entry.IsTest = mod.IsTest
					entry.IsPackage = mod.IsPackage
				}
				if err := encoder.Encode(entry); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&flags.Policy, "policy", "", "Use `POLICY_FILE` instead of the defaults")
	cmd.Flags().StringSliceVar(&flags.TestRoots, "test-root", nil,
		"Treat `PACKAGE` (dotted name) as a test-only package root; may be repeated")

	argparserDist.AddCommand(cmd)
}
