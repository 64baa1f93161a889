// Package collect accumulates policy-approved resources, compiles
// bytecode for the collected module sources, and packs the result into
// a deterministic file tree or OCI layer.
package collect

import (
	"fmt"
	"sort"

	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/silverjam/pyopack/pkg/packaging/policy"
	"github.com/silverjam/pyopack/pkg/packaging/resource"
)

// A Collected pairs a resource with the location it was accepted into.
type Collected struct {
	Resource resource.Resource
	Location resource.Location
}

// A Collector accepts resources whose collection context a policy has
// already filled in (policy.ApplyToResource), enforcing the policy's
// allowed locations as it goes.  Adding the same resource kind+ident
// twice replaces the earlier one.
type Collector struct {
	allowedLocations       []resource.Location
	allowFiles             bool
	allowInMemorySharedLib bool

	entries map[string]Collected
}

func New(pol *policy.Policy) *Collector {
	return &Collector{
		allowedLocations:       pol.AllowedLocations(),
		allowFiles:             pol.AllowFiles(),
		allowInMemorySharedLib: pol.AllowInMemorySharedLibraryLoading(),
		entries:                map[string]Collected{},
	}
}

// Add records r for packing.  Resources whose context says not to
// include them are silently skipped; resources with no context at all
// are an error, since that means no policy ever looked at them.
func (c *Collector) Add(r resource.Resource) error {
	ctx := r.CollectionContext()
	if ctx == nil {
		return fmt.Errorf("collect: %s %q has no collection context", r.TypeName(), r.Ident())
	}
	if !ctx.Include {
		return nil
	}
	if _, isFile := r.(*resource.DataFile); isFile && !c.allowFiles {
		return fmt.Errorf("collect: file %q: collecting file resources is not allowed", r.Ident())
	}

	loc, err := c.resolveLocation(r, ctx)
	if err != nil {
		return err
	}
	c.entries[r.TypeName()+"\x00"+r.Ident()] = Collected{Resource: r, Location: loc}
	return nil
}

// resolveLocation picks the first of the context's requested location
// and fallback that the collector allows.  An in-memory location is
// additionally refused for shared-library extension modules unless the
// policy opted in to loading those from memory.
func (c *Collector) resolveLocation(
	r resource.Resource, ctx *resource.CollectionContext,
) (resource.Location, error) {
	candidates := []resource.Location{ctx.Location}
	if ctx.LocationFallback != nil {
		candidates = append(candidates, *ctx.LocationFallback)
	}
	for _, loc := range candidates {
		if !c.kindAllowed(loc.Kind) {
			continue
		}
		if loc.Kind == resource.LocationInMemory {
			if ext, isExt := r.(*resource.ExtensionModule); isExt &&
				ext.SharedLibrary && !c.allowInMemorySharedLib {
				continue
			}
		}
		return loc, nil
	}
	return resource.Location{}, fmt.Errorf("collect: %s %q: no allowed location (requested %q)",
		r.TypeName(), r.Ident(), ctx.Location.String())
}

func (c *Collector) kindAllowed(kind resource.LocationKind) bool {
	for _, allowed := range c.allowedLocations {
		if allowed.Kind == kind {
			return true
		}
	}
	return false
}

// Resources returns the collected resources, ordered by kind then
// ident.
func (c *Collector) Resources() []Collected {
	ret := make([]Collected, 0, len(c.entries))
	for _, entry := range c.entries {
		ret = append(ret, entry)
	}
	sort.Slice(ret, func(i, j int) bool {
		if a, b := ret[i].Resource.TypeName(), ret[j].Resource.TypeName(); a != b {
			return a < b
		}
		return ret[i].Resource.Ident() < ret[j].Resource.Ident()
	})
	return ret
}

// TopLevelPackages returns the sorted set of top-level package names
// among the collected modules.
func (c *Collector) TopLevelPackages() []string {
	names := sets.New[string]()
	for _, entry := range c.entries {
		if mod, isMod := entry.Resource.(*resource.SourceModule); isMod {
			names.Insert(mod.TopLevelPackage())
		}
	}
	return sets.List(names)
}
