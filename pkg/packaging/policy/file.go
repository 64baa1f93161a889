package policy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"sigs.k8s.io/yaml"

	"github.com/silverjam/pyopack/pkg/packaging/resource"
)

// policyDoc is the document form of a Policy, as written in policy
// files and manipulated by embedding configuration languages.  Field
// names match the attribute names of the policy object.  Pointer fields
// overlay the defaults: absent means "keep the default".
type policyDoc struct {
	AllowFiles                        *bool `json:"allow_files,omitempty"`
	AllowInMemorySharedLibraryLoading *bool `json:"allow_in_memory_shared_library_loading,omitempty"`

	BytecodeOptimizeLevelZero *bool `json:"bytecode_optimize_level_zero,omitempty"`
	BytecodeOptimizeLevelOne  *bool `json:"bytecode_optimize_level_one,omitempty"`
	BytecodeOptimizeLevelTwo  *bool `json:"bytecode_optimize_level_two,omitempty"`

	ExtensionModuleFilter *string `json:"extension_module_filter,omitempty"`

	FileScannerClassifyFiles *bool `json:"file_scanner_classify_files,omitempty"`
	FileScannerEmitFiles     *bool `json:"file_scanner_emit_files,omitempty"`

	IncludeClassifiedResources    *bool `json:"include_classified_resources,omitempty"`
	IncludeDistributionSources    *bool `json:"include_distribution_sources,omitempty"`
	IncludeDistributionResources  *bool `json:"include_distribution_resources,omitempty"`
	IncludeFileResources          *bool `json:"include_file_resources,omitempty"`
	IncludeNonDistributionSources *bool `json:"include_non_distribution_sources,omitempty"`
	IncludeTest                   *bool `json:"include_test,omitempty"`

	PreferredExtensionModuleVariants map[string]string `json:"preferred_extension_module_variants,omitempty"`

	ResourcesLocation         *string `json:"resources_location,omitempty"`
	ResourcesLocationFallback *string `json:"resources_location_fallback,omitempty"`
}

// MarshalJSON writes the full attribute set (no omitted defaults), so
// `policy show` output is self-describing.
func (p *Policy) MarshalJSON() ([]byte, error) {
	boolPtr := func(v bool) *bool { return &v }
	strPtr := func(v string) *string { return &v }

	doc := policyDoc{
		AllowFiles:                        boolPtr(p.allowFiles),
		AllowInMemorySharedLibraryLoading: boolPtr(p.allowInMemorySharedLibraryLoading),
		BytecodeOptimizeLevelZero:         boolPtr(p.bytecodeOptimizeLevelZero),
		BytecodeOptimizeLevelOne:          boolPtr(p.bytecodeOptimizeLevelOne),
		BytecodeOptimizeLevelTwo:          boolPtr(p.bytecodeOptimizeLevelTwo),
		ExtensionModuleFilter:             strPtr(string(p.extensionModuleFilter)),
		FileScannerClassifyFiles:          boolPtr(p.fileScannerClassifyFiles),
		FileScannerEmitFiles:              boolPtr(p.fileScannerEmitFiles),
		IncludeClassifiedResources:        boolPtr(p.includeClassifiedResources),
		IncludeDistributionSources:        boolPtr(p.includeDistributionSources),
		IncludeDistributionResources:      boolPtr(p.includeDistributionResources),
		IncludeFileResources:              boolPtr(p.includeFileResources),
		IncludeNonDistributionSources:     boolPtr(p.includeNonDistributionSources),
		IncludeTest:                       boolPtr(p.includeTest),
		PreferredExtensionModuleVariants:  p.PreferredExtensionModuleVariants(),
		ResourcesLocation:                 strPtr(p.resourcesLocation.String()),
	}
	if p.resourcesLocationFallback != nil {
		doc.ResourcesLocationFallback = strPtr(p.resourcesLocationFallback.String())
	}
	return json.Marshal(doc)
}

func (p *Policy) UnmarshalJSON(bs []byte) error {
	// sigs.k8s.io/yaml's DisallowUnknownFields option does not reach in to
	// custom unmarshalers, so the strictness has to live here.
	dec := json.NewDecoder(bytes.NewReader(bs))
	dec.DisallowUnknownFields()
	var doc policyDoc
	if err := dec.Decode(&doc); err != nil {
		return err
	}

	*p = *New()

	setBool := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}
	setBool(&p.allowFiles, doc.AllowFiles)
	setBool(&p.allowInMemorySharedLibraryLoading, doc.AllowInMemorySharedLibraryLoading)
	setBool(&p.bytecodeOptimizeLevelZero, doc.BytecodeOptimizeLevelZero)
	setBool(&p.bytecodeOptimizeLevelOne, doc.BytecodeOptimizeLevelOne)
	setBool(&p.bytecodeOptimizeLevelTwo, doc.BytecodeOptimizeLevelTwo)
	setBool(&p.fileScannerClassifyFiles, doc.FileScannerClassifyFiles)
	setBool(&p.fileScannerEmitFiles, doc.FileScannerEmitFiles)
	setBool(&p.includeClassifiedResources, doc.IncludeClassifiedResources)
	setBool(&p.includeDistributionSources, doc.IncludeDistributionSources)
	setBool(&p.includeDistributionResources, doc.IncludeDistributionResources)
	setBool(&p.includeFileResources, doc.IncludeFileResources)
	setBool(&p.includeNonDistributionSources, doc.IncludeNonDistributionSources)
	setBool(&p.includeTest, doc.IncludeTest)

	if doc.ExtensionModuleFilter != nil {
		filter, err := ParseExtensionModuleFilter(*doc.ExtensionModuleFilter)
		if err != nil {
			return err
		}
		p.extensionModuleFilter = filter
	}
	for name, variant := range doc.PreferredExtensionModuleVariants {
		p.SetPreferredExtensionModuleVariant(name, variant)
	}
	if doc.ResourcesLocation != nil {
		loc, err := resource.ParseLocation(*doc.ResourcesLocation)
		if err != nil {
			return err
		}
		p.resourcesLocation = loc
	}
	if doc.ResourcesLocationFallback != nil {
		loc, err := resource.ParseLocation(*doc.ResourcesLocationFallback)
		if err != nil {
			return err
		}
		p.resourcesLocationFallback = &loc
	}
	return nil
}

// Load reads a policy file, overlaying it on the defaults.  Unknown
// keys are errors.
func Load(filename string) (*Policy, error) {
	bs, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	p := New()
	if err := yaml.Unmarshal(bs, p, yaml.DisallowUnknownFields); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return p, nil
}

// Validate checks the policy for structural problems that would make
// collection misbehave.
func (p *Policy) Validate() error {
	levels := 0
	for _, enabled := range []bool{
		p.bytecodeOptimizeLevelZero,
		p.bytecodeOptimizeLevelOne,
		p.bytecodeOptimizeLevelTwo,
	} {
		if enabled {
			levels++
		}
	}

	return validation.Errors{
		"extension_module_filter": validation.Validate(string(p.extensionModuleFilter),
			validation.Required,
			validation.In(
				string(FilterAll),
				string(FilterMinimal),
				string(FilterNoLibraries),
				string(FilterNoGPL),
			),
		),
		// Not validation.Min: ozzo threshold rules skip zero values, and
		// zero is exactly the case to reject.
		"bytecode_optimize_levels": validation.Validate(levels,
			validation.By(func(interface{}) error {
				if levels == 0 {
					return validation.NewError("validation_no_optimize_levels",
						"at least one bytecode optimize level must be enabled")
				}
				return nil
			}),
		),
		"resources_location": validation.Validate(p.resourcesLocation.String(),
			validation.By(validateLocationString),
		),
		"resources_location_fallback": validation.Validate(p.resourcesLocationFallback,
			validation.By(validateLocationPtr),
		),
		"preferred_extension_module_variants": validation.Validate(p.preferredExtensionModuleVariants,
			validation.By(validateVariants),
		),
	}.Filter()
}

func validateLocationString(value interface{}) error {
	s, _ := value.(string)
	_, err := resource.ParseLocation(s)
	return err
}

func validateLocationPtr(value interface{}) error {
	loc, _ := value.(*resource.Location)
	if loc == nil {
		return nil
	}
	return validateLocationString(loc.String())
}

func validateVariants(value interface{}) error {
	variants, _ := value.(map[string]string)
	for name, variant := range variants {
		if name == "" || variant == "" {
			return validation.NewError("validation_empty_variant",
				"extension-module and variant names must be non-empty")
		}
	}
	return nil
}
