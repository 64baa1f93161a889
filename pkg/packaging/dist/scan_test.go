package dist_test

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/silverjam/pyopack/pkg/packaging/dist"
	"github.com/silverjam/pyopack/pkg/packaging/policy"
	"github.com/silverjam/pyopack/pkg/packaging/resource"
)

func scanFS() fstest.MapFS {
	return fstest.MapFS{
		"topmod.py":              {Data: []byte("x = 1\n")},
		"app/__init__.py":        {Data: []byte("")},
		"app/core.py":            {Data: []byte("def run(): pass\n")},
		"app/data/schema.json":   {Data: []byte("{}")},
		"app/sub/__init__.py":    {Data: []byte("")},
		"app/sub/util.py":        {Data: []byte("")},
		"app/tests/__init__.py":  {Data: []byte("")},
		"app/tests/test_core.py": {Data: []byte("")},
		"loose/readme.txt":       {Data: []byte("not a package\n")},
		"loose/orphan.py":        {Data: []byte("")},
		"README.md":              {Data: []byte("hi\n")},
	}
}

func idents(resources []resource.Resource) []string {
	ret := make([]string, 0, len(resources))
	for _, res := range resources {
		ret = append(ret, res.TypeName()+"/"+res.Ident())
	}
	return ret
}

func TestScanDirClassify(t *testing.T) {
	t.Parallel()
	pol := policy.New()

	resources, err := dist.ScanDir(scanFS(), pol, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"module-source/app",
		"module-source/app.core",
		"package-resource/app:data/schema.json",
		"module-source/app.sub",
		"module-source/app.sub.util",
		"module-source/app.tests",
		"module-source/app.tests.test_core",
		"module-source/topmod",
	}, idents(resources))

	byName := map[string]*resource.SourceModule{}
	for _, res := range resources {
		if mod, ok := res.(*resource.SourceModule); ok {
			byName[mod.Name] = mod
		}
	}
	assert.True(t, byName["app"].IsPackage)
	assert.False(t, byName["app.core"].IsPackage)
	assert.True(t, byName["app.tests"].IsTest)
	assert.True(t, byName["app.tests.test_core"].IsTest)
	assert.False(t, byName["app.core"].IsTest)
	assert.False(t, byName["app"].InDistribution)
}

func TestScanDirPackageResourceOwnership(t *testing.T) {
	t.Parallel()
	// A datafile below a non-package subdirectory of a package belongs
	// to the innermost enclosing package, with a multi-segment
	// relative name.
	fsys := fstest.MapFS{
		"app/__init__.py":         {Data: []byte("")},
		"app/static/css/site.css": {Data: []byte("body{}\n")},
	}
	resources, err := dist.ScanDir(fsys, policy.New(), nil)
	require.NoError(t, err)
	require.Len(t, resources, 2)

	res, ok := resources[1].(*resource.PackageResource)
	require.True(t, ok)
	assert.Equal(t, "app", res.Package)
	assert.Equal(t, "static/css/site.css", res.RelativeName)
}

func TestScanDirEmitFiles(t *testing.T) {
	t.Parallel()
	pol := policy.New()
	pol.SetFileScannerClassifyFiles(false)
	pol.SetFileScannerEmitFiles(true)

	resources, err := dist.ScanDir(scanFS(), pol, nil)
	require.NoError(t, err)

	require.Len(t, resources, len(scanFS()))
	for _, res := range resources {
		assert.Equal(t, "file", res.TypeName())
	}
	// Deterministic order: sorted by path.
	assert.Equal(t, "README.md", resources[0].Ident())
}

func TestScanDirBothScannersOff(t *testing.T) {
	t.Parallel()
	pol := policy.New()
	pol.SetFileScannerClassifyFiles(false)

	resources, err := dist.ScanDir(scanFS(), pol, nil)
	require.NoError(t, err)
	assert.Empty(t, resources)
}

func TestTestPackageIndex(t *testing.T) {
	t.Parallel()
	idx := dist.NewTestPackageIndex("mypkg.selftest")

	assert.True(t, idx.IsTest("test"))
	assert.True(t, idx.IsTest("test.support"))
	assert.False(t, idx.IsTest("testing"), "prefix must stop at a package boundary")
	assert.True(t, idx.IsTest("mypkg.selftest.checks"))
	assert.True(t, idx.IsTest("mypkg.tests.x"), "segment heuristic")
	assert.False(t, idx.IsTest("mypkg.core"))

	idx.AddRoot("vendored._testutil")
	assert.True(t, idx.IsTest("vendored._testutil.runner"))
	assert.True(t, idx.IsTest("test.support"), "existing roots survive AddRoot")
}
