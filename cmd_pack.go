package main

import (
	"fmt"
	"os"

	"github.com/datawire/dlib/dlog"
	"github.com/spf13/cobra"

	"github.com/silverjam/pyopack/pkg/cliutil"
	"github.com/silverjam/pyopack/pkg/config"
	"github.com/silverjam/pyopack/pkg/fsutil"
	"github.com/silverjam/pyopack/pkg/packaging/collect"
	"github.com/silverjam/pyopack/pkg/packaging/dist"
	"github.com/silverjam/pyopack/pkg/packaging/policy"
	"github.com/silverjam/pyopack/pkg/packaging/resource"
	"github.com/silverjam/pyopack/pkg/python"
	"github.com/silverjam/pyopack/pkg/python/pep440"
)

func init() {
	var flags struct {
		Policy        string
		Dist          string
		DistRoot      string
		PythonVersion string
		TestRoots     []string
		OutDir        string
	}
	cmd := &cobra.Command{
		Use:   "pack [flags] [IN_DIRNAME] >OUT_LAYERFILE",
		Short: "Package Python resources in to a layer",
		Long: "Collect Python resources according to a packaging policy and pack them " +
			"in to an OCI layer on stdout (or a directory tree, with --out-dir).  " +
			"Resources come from the distribution manifest (--dist with --dist-root) " +
			"and from scanning IN_DIRNAME; at least one of the two must be given.  " +
			"Bytecode is compiled at the policy's optimization levels with the " +
			"configured Python interpreter.",
		Args: cliutil.WrapPositionalArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if flags.Dist == "" && len(args) == 0 {
				return fmt.Errorf("nothing to pack: need --dist and/or IN_DIRNAME")
			}

			cfg, err := config.Load(ctx, "")
			if err != nil {
				return err
			}
			ctx = dlog.WithLogger(ctx, cfg.Logger(cmd.ErrOrStderr()))

			pol := policy.New()
			if flags.Policy != "" {
				if pol, err = policy.Load(flags.Policy); err != nil {
					return err
				}
				if err := pol.Validate(); err != nil {
					return err
				}
			}

			idx := dist.NewTestPackageIndex(flags.TestRoots...)

			var resources []resource.Resource
			plat := &python.Platform{}

			if flags.Dist != "" {
				d, err := dist.Load(flags.Dist)
				if err != nil {
					return err
				}
				ver, err := d.Version()
				if err != nil {
					return err
				}
				plat.VersionInfo = versionInfo(ver)
				if plat.MagicNumber, err = d.MagicNumber(); err != nil {
					return err
				}
				if plat.Tags, err = d.Installer(); err != nil {
					return err
				}

				if flags.DistRoot != "" {
					classified, err := d.ClassifiedResources(os.DirFS(flags.DistRoot), idx)
					if err != nil {
						return err
					}
					resources = append(resources, classified...)
				}
				exts, err := d.SelectExtensionVariants(pol)
				if err != nil {
					return err
				}
				for _, ext := range exts {
					resources = append(resources, ext)
				}
			} else {
				ver, err := pep440.Parse(flags.PythonVersion)
				if err != nil {
					return err
				}
				plat.VersionInfo = versionInfo(ver)
			}

			if len(args) == 1 {
				scanned, err := dist.ScanDir(os.DirFS(args[0]), pol, idx)
				if err != nil {
					return err
				}
				resources = append(resources, scanned...)
			}

			if plat.PyCompile, err = python.ExternalCompiler(cfg.Compile.Python, "-m", "compileall"); err != nil {
				return err
			}
			if err := plat.Init(); err != nil {
				return err
			}

			col := collect.New(pol)
			for _, res := range resources {
				if err := pol.ApplyToResource(res); err != nil {
					return err
				}
				if err := col.Add(res); err != nil {
					return err
				}
			}

			cache, err := collect.NewBytecodeCache(cfg.Compile.CacheSize)
			if err != nil {
				return err
			}
			if err := col.CompileBytecode(ctx, plat, cache); err != nil {
				return err
			}

			if flags.OutDir != "" {
				files, err := col.Pack(plat)
				if err != nil {
					return err
				}
				return fsutil.WriteDir(files, flags.OutDir)
			}

			layer, err := col.Layer(plat)
			if err != nil {
				return err
			}
			return fsutil.WriteLayer(layer, os.Stdout)
		},
	}
	cmd.Flags().StringVar(&flags.Policy, "policy", "", "Use `POLICY_FILE` instead of the defaults")
	cmd.Flags().StringVar(&flags.Dist, "dist", "", "Read the distribution manifest from `DIST_FILE`")
	cmd.Flags().StringVar(&flags.DistRoot, "dist-root", "",
		"Read the distribution's files from `DIRNAME` (requires --dist)")
	cmd.Flags().StringVar(&flags.PythonVersion, "python-version", "3.10",
		"Target Python `VERSION` when no --dist manifest provides one")
	cmd.Flags().StringSliceVar(&flags.TestRoots, "test-root", nil,
		"Treat `PACKAGE` (dotted name) as a test-only package root; may be repeated")
	cmd.Flags().StringVar(&flags.OutDir, "out-dir", "",
		"Write a directory tree to `DIRNAME` instead of a layer to stdout")

	argparser.AddCommand(cmd)
}

// versionInfo projects a parsed version down to the
// `sys.version_info`-shaped form the packaging machinery wants.
func versionInfo(ver *pep440.Version) *python.VersionInfo {
	vi := &python.VersionInfo{ReleaseLevel: "final"}
	if len(ver.Release) > 0 {
		vi.Major = ver.Release[0]
	}
	if len(ver.Release) > 1 {
		vi.Minor = ver.Release[1]
	}
	if len(ver.Release) > 2 {
		vi.Micro = ver.Release[2]
	}
	return vi
}
