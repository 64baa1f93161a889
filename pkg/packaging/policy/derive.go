package policy

import (
	"fmt"

	"github.com/silverjam/pyopack/pkg/packaging/resource"
)

// ResourceHandlingMode sets the file-scanner and include attributes as
// a group, for the two supported scanning styles.
type ResourceHandlingMode string

const (
	// ModeClassify scans files into typed resources (module sources,
	// package resources, extensions) and collects those.
	ModeClassify ResourceHandlingMode = "classify"
	// ModeFiles skips classification and collects raw file
	// resources instead.
	ModeFiles ResourceHandlingMode = "files"
)

func ParseResourceHandlingMode(s string) (ResourceHandlingMode, error) {
	switch m := ResourceHandlingMode(s); m {
	case ModeClassify, ModeFiles:
		return m, nil
	default:
		return "", fmt.Errorf("policy.ParseResourceHandlingMode: unknown mode %q", s)
	}
}

// SetResourceHandlingMode flips the four scanner/include attributes to
// the named mode.  ModeFiles also allows file resources, since nothing
// could be collected otherwise.
func (p *Policy) SetResourceHandlingMode(mode ResourceHandlingMode) error {
	switch mode {
	case ModeClassify:
		p.fileScannerClassifyFiles = true
		p.fileScannerEmitFiles = false
		p.includeClassifiedResources = true
		p.includeFileResources = false
	case ModeFiles:
		p.fileScannerClassifyFiles = false
		p.fileScannerEmitFiles = true
		p.includeClassifiedResources = false
		p.includeFileResources = true
		p.allowFiles = true
	default:
		return fmt.Errorf("policy.SetResourceHandlingMode: unknown mode %q", mode)
	}
	return nil
}

// DeriveCollectionContext produces a fresh collection context for r
// from the policy's current settings.  It does not attach the context
// to the resource and does not run callbacks; see ApplyToResource.
func (p *Policy) DeriveCollectionContext(r resource.Resource) (*resource.CollectionContext, error) {
	ctx := &resource.CollectionContext{
		Location:          p.resourcesLocation,
		LocationFallback:  p.ResourcesLocationFallback(),
		OptimizeLevelZero: p.bytecodeOptimizeLevelZero,
		OptimizeLevelOne:  p.bytecodeOptimizeLevelOne,
		OptimizeLevelTwo:  p.bytecodeOptimizeLevelTwo,
	}

	switch r := r.(type) {
	case *resource.SourceModule:
		ctx.Include = p.includeClassifiedResources && (p.includeTest || !r.IsTest)
		// The source toggles only control whether the .py text of an
		// included module is stored; bytecode is produced either way.
		// An excluded module stores nothing.
		if r.InDistribution {
			ctx.StoreSource = ctx.Include && p.includeDistributionSources
		} else {
			ctx.StoreSource = ctx.Include && p.includeNonDistributionSources
		}
	case *resource.BytecodeModule:
		ctx.Include = p.includeClassifiedResources
	case *resource.PackageResource:
		if r.InDistribution {
			ctx.Include = p.includeClassifiedResources && p.includeDistributionResources
		} else {
			ctx.Include = p.includeClassifiedResources
		}
	case *resource.ExtensionModule:
		allowed, err := p.AllowsExtensionModule(r)
		if err != nil {
			return nil, err
		}
		ctx.Include = p.includeClassifiedResources && allowed
	case *resource.DataFile:
		ctx.Include = p.includeFileResources
	default:
		return nil, fmt.Errorf("policy.DeriveCollectionContext: unknown resource type %T", r)
	}

	return ctx, nil
}

// ApplyToResource replaces r's collection context with a freshly
// derived one, then runs the registered callbacks in registration
// order.  A callback error aborts the remaining callbacks and is
// returned; the context derived so far stays attached.
func (p *Policy) ApplyToResource(r resource.Resource) error {
	ctx, err := p.DeriveCollectionContext(r)
	if err != nil {
		return err
	}
	r.ReplaceCollectionContext(ctx)

	for i, fn := range p.callbacks {
		if err := fn(p, r); err != nil {
			return fmt.Errorf("policy: resource callback %d for %s %q: %w",
				i, r.TypeName(), r.Ident(), err)
		}
	}
	return nil
}
