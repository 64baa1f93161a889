// Package policy implements the packaging policy: the bundle of
// settings that controls how Python resources are selected, compiled,
// and placed when producing a packaged application.
package policy

import (
	"github.com/silverjam/pyopack/pkg/packaging/resource"
)

// A ResourceCallback is registered on a Policy and runs for every
// resource right after the policy derives its collection context.  The
// callback may mutate the resource's context to override the policy's
// decision.  Callbacks run in registration order.
type ResourceCallback func(p *Policy, r resource.Resource) error

// Policy controls resource selection and placement.  The zero value is
// not useful; use New.
//
// The preferred-variant mapping and the callback list are only mutable
// through SetPreferredExtensionModuleVariant and
// RegisterResourceCallback respectively.
type Policy struct {
	allowFiles                        bool
	allowInMemorySharedLibraryLoading bool

	bytecodeOptimizeLevelZero bool
	bytecodeOptimizeLevelOne  bool
	bytecodeOptimizeLevelTwo  bool

	extensionModuleFilter ExtensionModuleFilter

	fileScannerClassifyFiles bool
	fileScannerEmitFiles     bool

	includeClassifiedResources    bool
	includeDistributionSources    bool
	includeDistributionResources  bool
	includeFileResources          bool
	includeNonDistributionSources bool
	includeTest                   bool

	preferredExtensionModuleVariants map[string]string

	resourcesLocation         resource.Location
	resourcesLocationFallback *resource.Location

	callbacks []ResourceCallback
}

// New returns a Policy with the default settings: classify-mode file
// scanning, level-0 bytecode only, every extension module, distribution
// sources but not distribution resources, no test packages, and
// in-memory resource placement with no fallback.
func New() *Policy {
	return &Policy{
		bytecodeOptimizeLevelZero:        true,
		extensionModuleFilter:            FilterAll,
		fileScannerClassifyFiles:         true,
		includeClassifiedResources:       true,
		includeDistributionSources:       true,
		includeNonDistributionSources:    true,
		preferredExtensionModuleVariants: map[string]string{},
		resourcesLocation:                resource.Location{Kind: resource.LocationInMemory},
	}
}

func (p *Policy) AllowFiles() bool            { return p.allowFiles }
func (p *Policy) SetAllowFiles(v bool)        { p.allowFiles = v }

func (p *Policy) AllowInMemorySharedLibraryLoading() bool { return p.allowInMemorySharedLibraryLoading }
func (p *Policy) SetAllowInMemorySharedLibraryLoading(v bool) {
	p.allowInMemorySharedLibraryLoading = v
}

func (p *Policy) BytecodeOptimizeLevelZero() bool     { return p.bytecodeOptimizeLevelZero }
func (p *Policy) SetBytecodeOptimizeLevelZero(v bool) { p.bytecodeOptimizeLevelZero = v }

func (p *Policy) BytecodeOptimizeLevelOne() bool     { return p.bytecodeOptimizeLevelOne }
func (p *Policy) SetBytecodeOptimizeLevelOne(v bool) { p.bytecodeOptimizeLevelOne = v }

func (p *Policy) BytecodeOptimizeLevelTwo() bool     { return p.bytecodeOptimizeLevelTwo }
func (p *Policy) SetBytecodeOptimizeLevelTwo(v bool) { p.bytecodeOptimizeLevelTwo = v }

func (p *Policy) ExtensionModuleFilter() ExtensionModuleFilter     { return p.extensionModuleFilter }
func (p *Policy) SetExtensionModuleFilter(f ExtensionModuleFilter) { p.extensionModuleFilter = f }

func (p *Policy) FileScannerClassifyFiles() bool     { return p.fileScannerClassifyFiles }
func (p *Policy) SetFileScannerClassifyFiles(v bool) { p.fileScannerClassifyFiles = v }

func (p *Policy) FileScannerEmitFiles() bool     { return p.fileScannerEmitFiles }
func (p *Policy) SetFileScannerEmitFiles(v bool) { p.fileScannerEmitFiles = v }

func (p *Policy) IncludeClassifiedResources() bool     { return p.includeClassifiedResources }
func (p *Policy) SetIncludeClassifiedResources(v bool) { p.includeClassifiedResources = v }

func (p *Policy) IncludeDistributionSources() bool     { return p.includeDistributionSources }
func (p *Policy) SetIncludeDistributionSources(v bool) { p.includeDistributionSources = v }

func (p *Policy) IncludeDistributionResources() bool     { return p.includeDistributionResources }
func (p *Policy) SetIncludeDistributionResources(v bool) { p.includeDistributionResources = v }

func (p *Policy) IncludeFileResources() bool     { return p.includeFileResources }
func (p *Policy) SetIncludeFileResources(v bool) { p.includeFileResources = v }

func (p *Policy) IncludeNonDistributionSources() bool     { return p.includeNonDistributionSources }
func (p *Policy) SetIncludeNonDistributionSources(v bool) { p.includeNonDistributionSources = v }

// IncludeTest controls best-effort inclusion of test-only packages.
func (p *Policy) IncludeTest() bool     { return p.includeTest }
func (p *Policy) SetIncludeTest(v bool) { p.includeTest = v }

// PreferredExtensionModuleVariants returns a copy of the mapping from
// extension-module name to preferred variant name.  Mutating the
// returned map does not affect the policy.
func (p *Policy) PreferredExtensionModuleVariants() map[string]string {
	ret := make(map[string]string, len(p.preferredExtensionModuleVariants))
	for name, variant := range p.preferredExtensionModuleVariants {
		ret[name] = variant
	}
	return ret
}

// SetPreferredExtensionModuleVariant records that the named variant of
// the named extension module should be collected when the distribution
// provides several variants.
func (p *Policy) SetPreferredExtensionModuleVariant(name, variant string) {
	p.preferredExtensionModuleVariants[name] = variant
}

func (p *Policy) ResourcesLocation() resource.Location     { return p.resourcesLocation }
func (p *Policy) SetResourcesLocation(l resource.Location) { p.resourcesLocation = l }

// ResourcesLocationFallback is the secondary location to use when a
// resource cannot be placed at ResourcesLocation; nil means no
// fallback.
func (p *Policy) ResourcesLocationFallback() *resource.Location {
	if p.resourcesLocationFallback == nil {
		return nil
	}
	l := *p.resourcesLocationFallback
	return &l
}

func (p *Policy) SetResourcesLocationFallback(l *resource.Location) {
	if l == nil {
		p.resourcesLocationFallback = nil
		return
	}
	cp := *l
	p.resourcesLocationFallback = &cp
}

// RegisterResourceCallback appends fn to the list of callbacks run by
// ApplyToResource.
func (p *Policy) RegisterResourceCallback(fn ResourceCallback) {
	p.callbacks = append(p.callbacks, fn)
}

// AllowedLocations returns the locations a collector built from this
// policy accepts: the primary location plus the fallback, if any.
func (p *Policy) AllowedLocations() []resource.Location {
	ret := []resource.Location{p.resourcesLocation}
	if p.resourcesLocationFallback != nil {
		ret = append(ret, *p.resourcesLocationFallback)
	}
	return ret
}
