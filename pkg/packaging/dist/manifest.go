// Package dist models a Python distribution: a manifest of the modules,
// datafiles, and extension modules it provides, plus the file scanner
// that classifies unpacked trees into resources.
package dist

import (
	"encoding/base64"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"sigs.k8s.io/yaml"

	"github.com/silverjam/pyopack/pkg/fsutil"
	"github.com/silverjam/pyopack/pkg/packaging/licensing"
	"github.com/silverjam/pyopack/pkg/packaging/policy"
	"github.com/silverjam/pyopack/pkg/packaging/resource"
	"github.com/silverjam/pyopack/pkg/python/pep425"
	"github.com/silverjam/pyopack/pkg/python/pep440"
)

// Distribution is the manifest describing a Python distribution.  The
// document form is YAML; paths are slash-paths relative to the
// distribution root.
type Distribution struct {
	// PythonVersion is a PEP 440 version string.
	PythonVersion string `json:"python_version"`

	// MagicNumberB64 is `importlib.util.MAGIC_NUMBER`, base64.
	MagicNumberB64 string `json:"magic_number,omitempty"`

	// Tags are the PEP 425 tags the distribution's interpreter
	// supports, most-preferred first.
	Tags []string `json:"tags,omitempty"`

	Modules    []ModuleEntry    `json:"modules,omitempty"`
	Resources  []ResourceEntry  `json:"resources,omitempty"`
	Extensions []ExtensionEntry `json:"extensions,omitempty"`
}

type ModuleEntry struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	IsPackage bool   `json:"is_package,omitempty"`
}

type ResourceEntry struct {
	Package string `json:"package"`
	Name    string `json:"name"`
	Path    string `json:"path"`
}

// ExtensionEntry groups the variants a distribution provides for one
// extension-module name; the first variant is the default.
type ExtensionEntry struct {
	Name     string             `json:"name"`
	Variants []ExtensionVariant `json:"variants"`
}

type ExtensionVariant struct {
	Name          string         `json:"name"`
	Required      bool           `json:"required,omitempty"`
	Libraries     []string       `json:"libraries,omitempty"`
	SharedLibrary bool           `json:"shared_library,omitempty"`
	License       licensing.Info `json:"license,omitempty"`

	// Tag restricts the variant to interpreters supporting the PEP
	// 425 tag; empty means any.
	Tag string `json:"tag,omitempty"`
}

// Load reads and validates a distribution manifest.  Unknown keys are
// errors.
func Load(filename string) (*Distribution, error) {
	bs, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	var d Distribution
	if err := yaml.Unmarshal(bs, &d, yaml.DisallowUnknownFields); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	if err := d.Init(); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return &d, nil
}

// Init validates the manifest's version, magic number, and tags.
func (d *Distribution) Init() error {
	if _, err := d.Version(); err != nil {
		return err
	}
	if _, err := d.MagicNumber(); err != nil {
		return err
	}
	if _, err := d.Installer(); err != nil {
		return err
	}
	for _, ext := range d.Extensions {
		if len(ext.Variants) == 0 {
			return fmt.Errorf("dist: extension %q has no variants", ext.Name)
		}
		for _, variant := range ext.Variants {
			if variant.Tag == "" {
				continue
			}
			if _, err := pep425.ParseTag(variant.Tag); err != nil {
				return fmt.Errorf("dist: extension %q variant %q: %w", ext.Name, variant.Name, err)
			}
		}
	}
	return nil
}

func (d *Distribution) Version() (*pep440.Version, error) {
	return pep440.Parse(d.PythonVersion)
}

func (d *Distribution) MagicNumber() ([]byte, error) {
	if d.MagicNumberB64 == "" {
		return nil, nil
	}
	return base64.StdEncoding.DecodeString(d.MagicNumberB64)
}

func (d *Distribution) Installer() (pep425.Installer, error) {
	ret := make(pep425.Installer, 0, len(d.Tags))
	for _, str := range d.Tags {
		tag, err := pep425.ParseTag(str)
		if err != nil {
			return nil, err
		}
		ret = append(ret, tag)
	}
	return ret, nil
}

// ClassifiedResources materializes the manifest's modules and datafiles
// as resources, reading content from root.  Test classification uses
// idx (nil means NewTestPackageIndex()).
func (d *Distribution) ClassifiedResources(root fs.FS, idx *TestPackageIndex) ([]resource.Resource, error) {
	if idx == nil {
		idx = NewTestPackageIndex()
	}

	var ret []resource.Resource
	for _, mod := range d.Modules {
		ref, err := fsutil.ReadFS(root, mod.Path)
		if err != nil {
			return nil, fmt.Errorf("dist: module %q: %w", mod.Name, err)
		}
		ret = append(ret, &resource.SourceModule{
			Name:           mod.Name,
			Source:         ref,
			IsPackage:      mod.IsPackage,
			InDistribution: true,
			IsTest:         idx.IsTest(mod.Name),
		})
	}
	for _, res := range d.Resources {
		ref, err := fsutil.ReadFS(root, res.Path)
		if err != nil {
			return nil, fmt.Errorf("dist: resource %q:%q: %w", res.Package, res.Name, err)
		}
		ret = append(ret, &resource.PackageResource{
			Package:        res.Package,
			RelativeName:   res.Name,
			Content:        ref,
			InDistribution: true,
		})
	}
	return ret, nil
}

// SelectExtensionVariants picks one variant per extension name: the
// policy's preferred variant when registered, present, and supported by
// the distribution's tags; otherwise the first supported variant.
// Extensions with no supported variant are skipped.
func (d *Distribution) SelectExtensionVariants(pol *policy.Policy) ([]*resource.ExtensionModule, error) {
	installer, err := d.Installer()
	if err != nil {
		return nil, err
	}
	supported := func(variant ExtensionVariant) bool {
		if variant.Tag == "" || len(installer) == 0 {
			return true
		}
		tag, err := pep425.ParseTag(variant.Tag)
		if err != nil {
			return false
		}
		return installer.Supports(tag)
	}

	preferred := pol.PreferredExtensionModuleVariants()

	var ret []*resource.ExtensionModule
	for _, ext := range d.Extensions {
		var chosen *ExtensionVariant
		if want, ok := preferred[ext.Name]; ok {
			for i := range ext.Variants {
				variant := &ext.Variants[i]
				if variant.Name == want && supported(*variant) {
					chosen = variant
					break
				}
			}
		}
		if chosen == nil {
			for i := range ext.Variants {
				if supported(ext.Variants[i]) {
					chosen = &ext.Variants[i]
					break
				}
			}
		}
		if chosen == nil {
			continue
		}
		ret = append(ret, &resource.ExtensionModule{
			Name:           ext.Name,
			Variant:        chosen.Name,
			Required:       chosen.Required,
			Libraries:      append([]string(nil), chosen.Libraries...),
			SharedLibrary:  chosen.SharedLibrary,
			License:        chosen.License,
			InDistribution: true,
		})
	}

	sort.Slice(ret, func(i, j int) bool { return ret[i].Name < ret[j].Name })
	return ret, nil
}
