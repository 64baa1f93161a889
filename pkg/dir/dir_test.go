package dir_test

import (
	"archive/tar"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	ociv1 "github.com/google/go-containerregistry/pkg/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/silverjam/pyopack/pkg/dir"
	"github.com/silverjam/pyopack/pkg/testutil"
)

func layerHeaders(t *testing.T, layer ociv1.Layer) map[string]*tar.Header {
	t.Helper()
	reader, err := layer.Uncompressed()
	require.NoError(t, err)
	defer reader.Close()

	ret := map[string]*tar.Header{}
	tr := tar.NewReader(reader)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		ret[header.Name] = header
	}
	return ret
}

func TestLayerFromDir(t *testing.T) {
	t.Parallel()
	tmpdir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(tmpdir, "app"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(tmpdir, "app", "main.py"), []byte("pass\n"), 0o644))
	require.NoError(t, os.Link(
		filepath.Join(tmpdir, "app", "main.py"),
		filepath.Join(tmpdir, "app", "alias.py")))

	clamp := time.Unix(1600000000, 0)
	layer, err := dir.LayerFromDir(tmpdir, &dir.Prefix{DirName: "usr/lib/app"}, clamp)
	require.NoError(t, err)

	headers := layerHeaders(t, layer)
	assert.Contains(t, headers, "usr")
	assert.Contains(t, headers, "usr/lib")
	assert.Contains(t, headers, "usr/lib/app")
	require.Contains(t, headers, "usr/lib/app/app/main.py")

	main := headers["usr/lib/app/app/main.py"]
	assert.False(t, main.ModTime.After(clamp), "timestamps are clamped")

	// One of the two hardlinked names is stored as a link to the other.
	alias := headers["usr/lib/app/app/alias.py"]
	require.NotNil(t, alias)
	linkCount := 0
	for _, header := range []*tar.Header{main, alias} {
		if header.Typeflag == tar.TypeLink {
			linkCount++
		}
	}
	assert.Equal(t, 1, linkCount)
}

func TestLayerFromDirDeterministic(t *testing.T) {
	t.Parallel()
	tmpdir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpdir, "a.txt"), []byte("a\n"), 0o644))

	clamp := time.Unix(1600000000, 0)
	layerA, err := dir.LayerFromDir(tmpdir, nil, clamp)
	require.NoError(t, err)
	layerB, err := dir.LayerFromDir(tmpdir, nil, clamp)
	require.NoError(t, err)

	testutil.AssertEqualLayers(t, layerA, layerB)
}
