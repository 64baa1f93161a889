package dist

import (
	"strings"
	"sync/atomic"

	"github.com/armon/go-radix"
)

// stdlibTestPackages are packages in CPython distributions that exist
// only to test the distribution itself.
//
//nolint:gochecknoglobals // Would be 'const'.
var stdlibTestPackages = []string{
	"ctypes.test",
	"distutils.tests",
	"idlelib.idle_test",
	"lib2to3.tests",
	"sqlite3.test",
	"test",
	"tkinter.test",
	"unittest.test",
}

// A TestPackageIndex answers, best effort, whether a dotted module name
// lives in a test-only package.  Known test-package roots are held in a
// radix tree keyed with a trailing "." so that prefix hits stop at
// package boundaries ("test." matches "test.support" but not
// "testing").
//
// The tree is copy-on-write behind an atomic pointer, so lookups are
// safe against concurrent AddRoot calls.
type TestPackageIndex struct {
	tree atomic.Pointer[radix.Tree]
}

// NewTestPackageIndex returns an index seeded with the stdlib test
// packages plus any extra roots.
func NewTestPackageIndex(extraRoots ...string) *TestPackageIndex {
	var idx TestPackageIndex
	tree := radix.New()
	for _, root := range stdlibTestPackages {
		tree.Insert(root+".", struct{}{})
	}
	for _, root := range extraRoots {
		tree.Insert(root+".", struct{}{})
	}
	idx.tree.Store(tree)
	return &idx
}

// AddRoot marks another package root as test-only.
func (idx *TestPackageIndex) AddRoot(root string) {
	tree := radix.New()
	for key := range idx.tree.Load().ToMap() {
		tree.Insert(key, struct{}{})
	}
	tree.Insert(root+".", struct{}{})
	idx.tree.Store(tree)
}

// IsTest reports whether name is (best effort) a test-only module: it
// is inside a registered test-package root, or one of its package
// segments is named "test" or "tests".
func (idx *TestPackageIndex) IsTest(name string) bool {
	if _, _, ok := idx.tree.Load().LongestPrefix(name + "."); ok {
		return true
	}
	for _, segment := range strings.Split(name, ".") {
		if segment == "test" || segment == "tests" {
			return true
		}
	}
	return false
}
