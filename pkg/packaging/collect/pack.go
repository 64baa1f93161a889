package collect

import (
	"archive/tar"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path"
	"strings"
	"time"

	ociv1 "github.com/google/go-containerregistry/pkg/v1"
	ociv1tarball "github.com/google/go-containerregistry/pkg/v1/tarball"
	"sigs.k8s.io/yaml"

	"github.com/silverjam/pyopack/pkg/fsutil"
	"github.com/silverjam/pyopack/pkg/packaging/resource"
	"github.com/silverjam/pyopack/pkg/python"
	"github.com/silverjam/pyopack/pkg/reproducible"
)

// PackedArchiveName is the file at the output-tree root holding the
// in-memory resources: a tar whose first member is the YAML index.
const PackedArchiveName = "packed-resources"

// indexFileName is the index member inside the packed archive.
const indexFileName = "MANIFEST.yml"

// An IndexEntry describes one collected resource in the packed
// archive's index.  Every collected resource gets an entry; only
// payload-bearing in-memory resources also get an archive member at
// Path.
type IndexEntry struct {
	Type     string `json:"type"`
	Name     string `json:"name"`
	Location string `json:"location"`

	// Path, Size, and SHA256 describe the payload; Path is the
	// archive member for in-memory resources and the tree path for
	// filesystem-relative ones.  Payloadless resources (extension
	// modules) leave them zero.
	Path   string          `json:"path,omitempty"`
	Size   int64           `json:"size,omitempty"`
	SHA256 string          `json:"sha256,omitempty"`
	Mode   python.StatMode `json:"mode,omitempty"`

	OptimizeLevel int  `json:"optimize_level,omitempty"`
	IsPackage     bool `json:"is_package,omitempty"`
}

type payload struct {
	path    string
	content []byte
	mode    python.StatMode
}

// resourcePayload maps a collected resource to its file payload within
// its location, or nil for payloadless kinds.
func resourcePayload(r resource.Resource, cacheTag string) (*payload, error) {
	const defaultMode = python.StatMode(0o100644)
	switch r := r.(type) {
	case *resource.SourceModule:
		if !r.CollectionContext().StoreSource {
			return nil, nil
		}
		content, err := readAll(r.Source)
		if err != nil {
			return nil, err
		}
		return &payload{
			path:    moduleSourcePath(r.Name, r.IsPackage),
			content: content,
			mode:    fileMode(r.Source),
		}, nil
	case *resource.BytecodeModule:
		return &payload{
			path:    bytecodeCachePath(moduleSourcePath(r.Name, r.IsPackage), cacheTag, r.OptimizeLevel),
			content: r.Code,
			mode:    defaultMode,
		}, nil
	case *resource.PackageResource:
		content, err := readAll(r.Content)
		if err != nil {
			return nil, err
		}
		pkgDir := strings.ReplaceAll(r.Package, ".", "/")
		return &payload{
			path:    path.Join(pkgDir, r.RelativeName),
			content: content,
			mode:    defaultMode,
		}, nil
	case *resource.ExtensionModule:
		return nil, nil
	case *resource.DataFile:
		content, err := readAll(r.Content)
		if err != nil {
			return nil, err
		}
		return &payload{
			path:    r.Content.FullName(),
			content: content,
			mode:    fileMode(r.Content),
		}, nil
	default:
		return nil, fmt.Errorf("collect: unknown resource type %T", r)
	}
}

// Pack materializes the collected resources as a deterministic file
// tree: filesystem-relative resources become files under their
// location's prefix, and in-memory resources are serialized into a
// single packed archive at the tree root.  The archive's index lists
// every collected resource, whichever location it landed in.
func (c *Collector) Pack(plat *python.Platform) ([]fsutil.FileReference, error) {
	cacheTag := plat.VersionInfo.CacheTag()
	modTime := reproducible.Now()

	var index []IndexEntry
	var files []fsutil.FileReference
	var packed []payload

	for _, entry := range c.Resources() {
		r := entry.Resource
		idx := IndexEntry{
			Type:     r.TypeName(),
			Name:     r.Ident(),
			Location: entry.Location.String(),
		}
		if bc, isBytecode := r.(*resource.BytecodeModule); isBytecode {
			idx.Name = bc.Name
			idx.OptimizeLevel = bc.OptimizeLevel
			idx.IsPackage = bc.IsPackage
		}
		if mod, isSource := r.(*resource.SourceModule); isSource {
			idx.IsPackage = mod.IsPackage
		}

		pay, err := resourcePayload(r, cacheTag)
		if err != nil {
			return nil, fmt.Errorf("collect: %s %q: %w", r.TypeName(), r.Ident(), err)
		}
		if pay != nil {
			sum := sha256.Sum256(pay.content)
			idx.Path = pay.path
			idx.Size = int64(len(pay.content))
			idx.SHA256 = hex.EncodeToString(sum[:])
			idx.Mode = pay.mode

			switch entry.Location.Kind {
			case resource.LocationFilesystemRelative:
				fullname := path.Join(entry.Location.Prefix, pay.path)
				idx.Path = fullname
				files = append(files, fsutil.NewInMemFile(
					fullname, pay.content, pay.mode.ToGo(), modTime))
			case resource.LocationInMemory:
				packed = append(packed, *pay)
			}
		}
		index = append(index, idx)
	}

	archive, err := packArchive(index, packed, modTime)
	if err != nil {
		return nil, err
	}
	files = append(files, fsutil.NewInMemFile(PackedArchiveName, archive, 0o644, modTime))
	return files, nil
}

// packArchive serializes the index plus the in-memory payloads as a
// tar; the index goes first so consumers can read it without scanning.
func packArchive(index []IndexEntry, payloads []payload, modTime time.Time) ([]byte, error) {
	indexBytes, err := yaml.Marshal(index)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	write := func(name string, mode int64, content []byte) error {
		if err := tw.WriteHeader(&tar.Header{
			Typeflag: tar.TypeReg,
			Name:     name,
			Mode:     mode,
			Size:     int64(len(content)),
			ModTime:  modTime,
		}); err != nil {
			return err
		}
		_, err := tw.Write(content)
		return err
	}

	if err := write(indexFileName, 0o644, indexBytes); err != nil {
		return nil, err
	}
	for _, pay := range payloads {
		if err := write(pay.path, int64(pay.mode&0o7777), pay.content); err != nil {
			return nil, err
		}
	}
	if err := tw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Layer packs the collection and wraps it as an OCI layer with
// timestamps clamped for reproducibility.
func (c *Collector) Layer(plat *python.Platform, opts ...ociv1tarball.LayerOption) (ociv1.Layer, error) {
	files, err := c.Pack(plat)
	if err != nil {
		return nil, err
	}
	return fsutil.LayerFromFileReferences(files, reproducible.Now(), opts...)
}

// fileMode converts a file's mode, defaulting unset permission bits to
// something sane (fs.FS implementations like fstest leave them zero).
func fileMode(ref fsutil.FileReference) python.StatMode {
	mode := python.ModeFromGo(ref.Mode())
	if mode&0o7777 == 0 {
		mode |= 0o644
	}
	return mode
}
