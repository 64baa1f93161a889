package dist_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/silverjam/pyopack/pkg/packaging/dist"
	"github.com/silverjam/pyopack/pkg/python/pep440"
)

func indexServer(t *testing.T, archive []byte) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	sum := sha256.Sum256(archive)
	mux.HandleFunc("/simple/my-pkg", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `<!DOCTYPE html><html><body>
<a href="../files/my_pkg-1.0.tar.gz#sha256=%s">my_pkg-1.0.tar.gz</a>
<a href="../files/my_pkg-2.0.tar.gz" data-requires-python="&gt;=3.11">my_pkg-2.0.tar.gz</a>
</body></html>`, hex.EncodeToString(sum[:]))
	})
	mux.HandleFunc("/files/my_pkg-1.0.tar.gz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(archive)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestListPackageFiles(t *testing.T) {
	t.Parallel()
	archive := []byte("tarball-bytes")
	server := indexServer(t, archive)

	py310, err := pep440.Parse("3.10.4")
	require.NoError(t, err)
	client := dist.Client{
		BaseURL: server.URL + "/simple/",
		Python:  py310,
	}

	links, err := client.ListPackageFiles(context.Background(), "My.Pkg")
	require.NoError(t, err)
	require.Len(t, links, 1, "the >=3.11 file is filtered out for a 3.10 interpreter")
	assert.Equal(t, "my_pkg-1.0.tar.gz", links[0].Text)

	content, err := links[0].Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, archive, content)

	_, err = client.ListPackageFiles(context.Background(), "bad name")
	assert.Error(t, err)
}

func TestGetChecksumMismatch(t *testing.T) {
	t.Parallel()
	server := indexServer(t, []byte("tarball-bytes"))

	client := dist.Client{BaseURL: server.URL + "/simple/"}
	links, err := client.ListPackageFiles(context.Background(), "my-pkg")
	require.NoError(t, err)
	require.NotEmpty(t, links)

	// Re-point the checksum fragment at different content.
	mismatched := links[0]
	mismatched.HRef = server.URL + "/files/my_pkg-1.0.tar.gz#sha256=" +
		hex.EncodeToString(make([]byte, 32))
	_, err = mismatched.Get(context.Background())
	assert.ErrorContains(t, err, "checksum mismatch")
}

func TestGetHTTPError(t *testing.T) {
	t.Parallel()
	server := indexServer(t, nil)
	client := dist.Client{BaseURL: server.URL + "/simple/"}
	_, err := client.ListPackageFiles(context.Background(), "no-such-pkg")
	var httpErr *dist.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
}
