package collect

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"path"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/silverjam/pyopack/pkg/fsutil"
	"github.com/silverjam/pyopack/pkg/packaging/resource"
	"github.com/silverjam/pyopack/pkg/python"
	"github.com/silverjam/pyopack/pkg/reproducible"
)

// A BytecodeCache memoizes compiled bytecode, keyed by the source
// content hash, the interpreter's cache tag, and the optimization
// level.  Repeated packs of mostly-unchanged trees skip the interpreter
// round trip for everything but the edits.
type BytecodeCache struct {
	lru *lru.Cache[string, []byte]
}

const DefaultBytecodeCacheSize = 4096

func NewBytecodeCache(size int) (*BytecodeCache, error) {
	if size <= 0 {
		size = DefaultBytecodeCacheSize
	}
	inner, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, err
	}
	return &BytecodeCache{lru: inner}, nil
}

func cacheKey(source []byte, cacheTag string, optimizeLevel int) string {
	sum := sha256.Sum256(source)
	return fmt.Sprintf("%s/%s/opt-%d", hex.EncodeToString(sum[:]), cacheTag, optimizeLevel)
}

// moduleSourcePath is the slash-path a dotted module name compiles
// from: "app.core" => "app/core.py", package "app" => "app/__init__.py".
func moduleSourcePath(name string, isPackage bool) string {
	p := strings.ReplaceAll(name, ".", "/")
	if isPackage {
		return p + "/__init__.py"
	}
	return p + ".py"
}

// bytecodeCachePath is where CPython's compileall writes the .pyc for a
// source path: "app/core.py" at level 1 under tag "cpython-310" =>
// "app/__pycache__/core.cpython-310.opt-1.pyc".
func bytecodeCachePath(sourcePath, cacheTag string, optimizeLevel int) string {
	stem := strings.TrimSuffix(path.Base(sourcePath), ".py")
	suffix := ""
	if optimizeLevel > 0 {
		suffix = fmt.Sprintf(".opt-%d", optimizeLevel)
	}
	return path.Join(path.Dir(sourcePath), "__pycache__", stem+"."+cacheTag+suffix+".pyc")
}

// CompileBytecode compiles every collected module source at each
// optimization level its collection context requests, adding the
// results to the collector as bytecode resources at the source's
// location.  cache may be nil.
func (c *Collector) CompileBytecode(
	ctx context.Context, plat *python.Platform, cache *BytecodeCache,
) error {
	if plat.PyCompile == nil {
		return fmt.Errorf("collect: platform has no compiler")
	}
	cacheTag := plat.VersionInfo.CacheTag()
	clampTime := reproducible.Now()

	type pending struct {
		mod        *resource.SourceModule
		loc        resource.Location
		sourcePath string
		key        string
	}
	missesByLevel := map[int][]pending{}

	add := func(mod *resource.SourceModule, loc resource.Location, level int, code []byte) error {
		bc := &resource.BytecodeModule{
			Name:           mod.Name,
			OptimizeLevel:  level,
			IsPackage:      mod.IsPackage,
			Code:           code,
			InDistribution: mod.InDistribution,
		}
		bc.ReplaceCollectionContext(&resource.CollectionContext{
			Include:  true,
			Location: loc,
		})
		return c.Add(bc)
	}

	for _, entry := range c.Resources() {
		mod, isMod := entry.Resource.(*resource.SourceModule)
		if !isMod {
			continue
		}
		source, err := readAll(mod.Source)
		if err != nil {
			return fmt.Errorf("collect: module %q: %w", mod.Name, err)
		}
		sourcePath := moduleSourcePath(mod.Name, mod.IsPackage)
		for _, level := range mod.CollectionContext().OptimizeLevels() {
			key := cacheKey(source, cacheTag, level)
			if cache != nil {
				if code, hit := cache.lru.Get(key); hit {
					if err := add(mod, entry.Location, level, code); err != nil {
						return err
					}
					continue
				}
			}
			missesByLevel[level] = append(missesByLevel[level], pending{
				mod:        mod,
				loc:        entry.Location,
				sourcePath: sourcePath,
				key:        key,
			})
		}
	}

	for level := 0; level <= 2; level++ {
		misses := missesByLevel[level]
		if len(misses) == 0 {
			continue
		}
		in := make([]fsutil.FileReference, 0, len(misses))
		for _, miss := range misses {
			in = append(in, renamedRef{miss.mod.Source, miss.sourcePath})
		}
		out, err := plat.PyCompile(ctx, clampTime, level, nil, in)
		if err != nil {
			return fmt.Errorf("collect: compiling at optimization level %d: %w", level, err)
		}
		byName := make(map[string]fsutil.FileReference, len(out))
		for _, ref := range out {
			byName[ref.FullName()] = ref
		}
		for _, miss := range misses {
			want := bytecodeCachePath(miss.sourcePath, cacheTag, level)
			ref, found := byName[want]
			if !found {
				return fmt.Errorf("collect: module %q: compiler produced no %q", miss.mod.Name, want)
			}
			code, err := readAll(ref)
			if err != nil {
				return err
			}
			if cache != nil {
				cache.lru.Add(miss.key, code)
			}
			if err := add(miss.mod, miss.loc, level, code); err != nil {
				return err
			}
		}
	}
	return nil
}

// renamedRef presents a file's content under a different path, so the
// compiler sees the module's importable layout rather than wherever the
// source happened to come from.
type renamedRef struct {
	fsutil.FileReference
	fullName string
}

func (r renamedRef) FullName() string { return r.fullName }
func (r renamedRef) Name() string     { return path.Base(r.fullName) }

func readAll(ref fsutil.FileReference) ([]byte, error) {
	reader, err := ref.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = reader.Close() }()
	return io.ReadAll(reader)
}
