// Package resource models the Python resources that a packaging policy
// governs: module sources, compiled bytecode, package datafiles,
// compiled extension modules, and unclassified files.
package resource

import (
	"strings"

	"github.com/silverjam/pyopack/pkg/fsutil"
	"github.com/silverjam/pyopack/pkg/packaging/licensing"
)

// A CollectionContext records the decisions a policy has made about a
// single resource: whether to include it, where to put it, and what
// derived artifacts (bytecode, stored source) to produce.  Callbacks
// registered on a policy may mutate it before collection.
type CollectionContext struct {
	Include bool

	Location         Location
	LocationFallback *Location

	// StoreSource controls whether the module's .py source is
	// materialized; bytecode for the module is produced regardless,
	// per the optimize-level requests below.
	StoreSource bool

	OptimizeLevelZero bool
	OptimizeLevelOne  bool
	OptimizeLevelTwo  bool
}

// OptimizeLevels returns the requested bytecode optimization levels, in
// ascending order.
func (c *CollectionContext) OptimizeLevels() []int {
	var ret []int
	if c.OptimizeLevelZero {
		ret = append(ret, 0)
	}
	if c.OptimizeLevelOne {
		ret = append(ret, 1)
	}
	if c.OptimizeLevelTwo {
		ret = append(ret, 2)
	}
	return ret
}

// A Resource is anything a policy can decide to include in a packaged
// application.
type Resource interface {
	// TypeName identifies the resource kind; stable strings, used in
	// manifests: "module-source", "module-bytecode",
	// "package-resource", "extension-module", "file".
	TypeName() string

	// Ident uniquely identifies the resource within its kind: the
	// dotted module name, "package:relative/name" for package
	// resources, or the slash path for files.
	Ident() string

	// IsInDistribution reports whether the resource originates in
	// the Python distribution itself (as opposed to user code).
	IsInDistribution() bool

	CollectionContext() *CollectionContext
	ReplaceCollectionContext(*CollectionContext)
}

// collectable is embedded by every concrete resource type to carry the
// mutable CollectionContext.
type collectable struct {
	ctx *CollectionContext
}

func (c *collectable) CollectionContext() *CollectionContext             { return c.ctx }
func (c *collectable) ReplaceCollectionContext(newCtx *CollectionContext) { c.ctx = newCtx }

// SourceModule is a .py source file addressable as a dotted module name.
type SourceModule struct {
	collectable

	Name      string
	Source    fsutil.FileReference
	IsPackage bool

	// InDistribution is set for modules shipped with the Python
	// distribution (the stdlib).
	InDistribution bool

	// IsTest is a best-effort classification of test-only modules.
	IsTest bool
}

func (m *SourceModule) TypeName() string       { return "module-source" }
func (m *SourceModule) Ident() string          { return m.Name }
func (m *SourceModule) IsInDistribution() bool { return m.InDistribution }

// TopLevelPackage returns the first segment of the dotted name.
func (m *SourceModule) TopLevelPackage() string {
	name := m.Name
	if idx := strings.IndexByte(name, '.'); idx >= 0 {
		name = name[:idx]
	}
	return name
}

// BytecodeModule is compiled bytecode for a module at a single
// optimization level.  Bytecode is never scanned from disk; it is
// produced by the collector from SourceModules.
type BytecodeModule struct {
	collectable

	Name          string
	OptimizeLevel int
	IsPackage     bool
	Code          []byte

	InDistribution bool
}

func (m *BytecodeModule) TypeName() string       { return "module-bytecode" }
func (m *BytecodeModule) IsInDistribution() bool { return m.InDistribution }

func (m *BytecodeModule) Ident() string {
	return m.Name + optSuffix(m.OptimizeLevel)
}

func optSuffix(level int) string {
	switch level {
	case 1:
		return ":opt-1"
	case 2:
		return ":opt-2"
	default:
		return ""
	}
}

// PackageResource is a non-code datafile addressed relative to a Python
// package.
type PackageResource struct {
	collectable

	Package      string
	RelativeName string
	Content      fsutil.FileReference

	InDistribution bool
}

func (r *PackageResource) TypeName() string       { return "package-resource" }
func (r *PackageResource) Ident() string          { return r.Package + ":" + r.RelativeName }
func (r *PackageResource) IsInDistribution() bool { return r.InDistribution }

// ExtensionModule is a compiled native module importable by the Python
// interpreter.  A distribution may provide multiple variants of the
// same extension (e.g. statically linked vs. linked against a system
// library); at most one variant is collected per name.
type ExtensionModule struct {
	collectable

	Name    string
	Variant string

	// Required marks extensions the interpreter cannot initialize
	// without; these pass every extension-module filter.
	Required bool

	// Libraries are the names of additional libraries the extension
	// links against.
	Libraries []string

	// SharedLibrary is set when the extension is a standalone shared
	// object rather than an object linked into the interpreter.
	SharedLibrary bool

	License licensing.Info

	InDistribution bool
}

func (m *ExtensionModule) TypeName() string       { return "extension-module" }
func (m *ExtensionModule) Ident() string          { return m.Name }
func (m *ExtensionModule) IsInDistribution() bool { return m.InDistribution }

// DataFile is a file the scanner did not classify; only emitted when a
// policy turns on raw file emission.
type DataFile struct {
	collectable

	Content fsutil.FileReference
}

func (f *DataFile) TypeName() string       { return "file" }
func (f *DataFile) Ident() string          { return f.Content.FullName() }
func (f *DataFile) IsInDistribution() bool { return false }

var (
	_ Resource = (*SourceModule)(nil)
	_ Resource = (*BytecodeModule)(nil)
	_ Resource = (*PackageResource)(nil)
	_ Resource = (*ExtensionModule)(nil)
	_ Resource = (*DataFile)(nil)
)
