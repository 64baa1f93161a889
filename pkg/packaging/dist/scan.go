package dist

import (
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/silverjam/pyopack/pkg/fsutil"
	"github.com/silverjam/pyopack/pkg/packaging/policy"
	"github.com/silverjam/pyopack/pkg/packaging/resource"
)

// ScanDir walks an unpacked tree (site-packages style) and turns its
// files into resources, honoring the policy's file-scanner toggles:
// classification produces SourceModules and PackageResources, file
// emission produces raw DataFiles.  Both can be on at once; with both
// off the result is empty.
//
// Classification rules: a directory is a package when it contains
// __init__.py; .py files map to dotted module names; other files inside
// a package become that package's resources; files outside any package
// are only visible to file emission.
func ScanDir(fsys fs.FS, pol *policy.Policy, idx *TestPackageIndex) ([]resource.Resource, error) {
	if idx == nil {
		idx = NewTestPackageIndex()
	}

	classify := pol.FileScannerClassifyFiles()
	emit := pol.FileScannerEmitFiles()
	if !classify && !emit {
		return nil, nil
	}

	// First pass: find package directories.
	packages := map[string]bool{} // slash-path of dir => contains __init__.py
	var files []string
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, e error) error {
		if e != nil {
			return e
		}
		if d.IsDir() {
			return nil
		}
		files = append(files, p)
		if path.Base(p) == "__init__.py" {
			packages[path.Dir(p)] = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	var ret []resource.Resource
	for _, p := range files {
		if emit {
			ref, err := fsutil.ReadFS(fsys, p)
			if err != nil {
				return nil, err
			}
			ret = append(ret, &resource.DataFile{Content: ref})
		}
		if !classify {
			continue
		}

		res, err := classifyFile(fsys, p, packages, idx)
		if err != nil {
			return nil, err
		}
		if res != nil {
			ret = append(ret, res)
		}
	}
	return ret, nil
}

func classifyFile(fsys fs.FS, p string, packages map[string]bool, idx *TestPackageIndex) (resource.Resource, error) {
	dir := path.Dir(p)

	if strings.HasSuffix(path.Base(p), ".py") {
		// The module's ancestor directories must all be packages,
		// or the file isn't importable and isn't classified.
		if dir != "." && !isPackageChain(dir, packages) {
			return nil, nil
		}
		name, isPackage := moduleName(p)
		ref, err := fsutil.ReadFS(fsys, p)
		if err != nil {
			return nil, err
		}
		return &resource.SourceModule{
			Name:      name,
			Source:    ref,
			IsPackage: isPackage,
			IsTest:    idx.IsTest(name),
		}, nil
	}

	// Datafile: owned by the innermost enclosing package, addressed
	// relative to it.  Files outside any package stay unclassified.
	pkgDir, ok := owningPackage(dir, packages)
	if !ok {
		return nil, nil
	}
	ref, err := fsutil.ReadFS(fsys, p)
	if err != nil {
		return nil, err
	}
	return &resource.PackageResource{
		Package:      strings.ReplaceAll(pkgDir, "/", "."),
		RelativeName: strings.TrimPrefix(p, pkgDir+"/"),
		Content:      ref,
	}, nil
}

// isPackageChain reports whether dir and all of its ancestors are
// package directories.
func isPackageChain(dir string, packages map[string]bool) bool {
	for d := dir; d != "."; d = path.Dir(d) {
		if !packages[d] {
			return false
		}
	}
	return true
}

// owningPackage returns the deepest directory on the path to dir such
// that every directory from the top down to it is a package.
func owningPackage(dir string, packages map[string]bool) (pkgDir string, ok bool) {
	if dir == "." {
		return "", false
	}
	cur := ""
	for _, segment := range strings.Split(dir, "/") {
		if cur == "" {
			cur = segment
		} else {
			cur += "/" + segment
		}
		if !packages[cur] {
			break
		}
		pkgDir = cur
	}
	return pkgDir, pkgDir != ""
}

func moduleName(p string) (name string, isPackage bool) {
	if path.Base(p) == "__init__.py" {
		return strings.ReplaceAll(path.Dir(p), "/", "."), true
	}
	return strings.ReplaceAll(strings.TrimSuffix(p, ".py"), "/", "."), false
}
