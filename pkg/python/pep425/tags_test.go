package pep425_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/silverjam/pyopack/pkg/python/pep425"
)

func TestParseTag(t *testing.T) {
	t.Parallel()
	tag, err := pep425.ParseTag("cp39-cp39-manylinux2014_x86_64")
	require.NoError(t, err)
	assert.Equal(t, pep425.Tag{Python: "cp39", ABI: "cp39", Platform: "manylinux2014_x86_64"}, tag)
	assert.Equal(t, "cp39-cp39-manylinux2014_x86_64", tag.String())

	for _, bad := range []string{"", "cp39", "cp39-cp39", "cp39--linux", "a-b-c-d"} {
		_, err := pep425.ParseTag(bad)
		assert.Error(t, err, bad)
	}
}

func TestDecompress(t *testing.T) {
	t.Parallel()
	tag := pep425.Tag{Python: "py2.py3", ABI: "none", Platform: "any"}
	assert.Equal(t, []pep425.Tag{
		{Python: "py2", ABI: "none", Platform: "any"},
		{Python: "py3", ABI: "none", Platform: "any"},
	}, tag.Decompress())
}

func TestInstaller(t *testing.T) {
	t.Parallel()
	inst := pep425.Installer{
		{Python: "cp39", ABI: "cp39", Platform: "linux_x86_64"},
		{Python: "py3", ABI: "none", Platform: "any"},
	}

	assert.True(t, inst.Supports(pep425.Tag{Python: "py2.py3", ABI: "none", Platform: "any"}))
	assert.False(t, inst.Supports(pep425.Tag{Python: "cp38", ABI: "cp38", Platform: "linux_x86_64"}))

	assert.Equal(t, 1, inst.Preference(pep425.Tag{Python: "cp39", ABI: "cp39", Platform: "linux_x86_64"}))
	assert.Equal(t, 2, inst.Preference(pep425.Tag{Python: "py3", ABI: "none", Platform: "any"}))
	assert.Equal(t, 3, inst.Preference(pep425.Tag{Python: "cp38", ABI: "cp38", Platform: "win32"}))
}
