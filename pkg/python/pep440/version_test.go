package pep440_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/silverjam/pyopack/pkg/python/pep440"
	"github.com/silverjam/pyopack/pkg/testutil"
)

func TestParseNormalize(t *testing.T) {
	t.Parallel()
	testcases := map[string]string{
		"3.9.9":            "3.9.9",
		"v1.0":             "1.0",
		"1.0a1":            "1.0a1",
		"1.0-alpha.1":      "1.0a1",
		"1.0b2":            "1.0b2",
		"1.0.preview3":     "1.0rc3",
		"1.0c4":            "1.0rc4",
		"1.0-post":         "1.0.post0",
		"1.0-1":            "1.0.post1",
		"1.0.rev2":         "1.0.post2",
		"1.0.dev3":         "1.0.dev3",
		"1!2.0":            "1!2.0",
		"1.0+ubuntu-1":     "1.0+ubuntu.1",
		"1.0+ABC.5":        "1.0+abc.5",
		"  3.10.0  ":       "3.10.0",
		"1.0RC1":           "1.0rc1",
	}
	for input, exp := range testcases {
		input, exp := input, exp
		t.Run(input, func(t *testing.T) {
			t.Parallel()
			ver, err := pep440.Parse(input)
			require.NoError(t, err)
			assert.Equal(t, exp, ver.String())
		})
	}
}

func TestParseInvalid(t *testing.T) {
	t.Parallel()
	for _, input := range []string{"", "banana", "1.0+", "1.0.post1.post2x", "1..2"} {
		input := input
		t.Run(input, func(t *testing.T) {
			t.Parallel()
			_, err := pep440.Parse(input)
			assert.Error(t, err)
		})
	}
}

func TestEquality(t *testing.T) {
	t.Parallel()

	staticInputs := []string{
		"1.0+1.0",
		"1!2.0rc3.post0.dev1+abc.7",
	}

	statics := make([][]interface{}, len(staticInputs))
	for i := range statics {
		ver, err := pep440.Parse(staticInputs[i])
		require.NoError(t, err)
		statics[i] = []interface{}{*ver}
	}

	testutil.QuickCheck(t,
		// test function
		func(ver1 pep440.Version) bool {
			_ver2, err := pep440.Parse(ver1.String())
			if err != nil || _ver2 == nil {
				return false
			}
			ver2 := *_ver2
			return (ver1.Cmp(ver2) == 0) && (ver2.Cmp(ver1) == 0)
		},
		// dynamic inputs
		testutil.QuickConfig{},
		// static inputs
		statics...)
}

func TestCmp(t *testing.T) {
	t.Parallel()
	// From least to greatest; adjacent pairs must sort strictly.
	ordered := []string{
		"1.0.dev1",
		"1.0a1",
		"1.0a2.dev456",
		"1.0a2",
		"1.0b1",
		"1.0rc1",
		"1.0",
		"1.0+abc",
		"1.0+abc.5",
		"1.0+5",
		"1.0.post1",
		"1.1",
		"1.1.1",
		"2.0",
		"1!0.1",
	}
	vers := make([]*pep440.Version, len(ordered))
	for i, str := range ordered {
		ver, err := pep440.Parse(str)
		require.NoError(t, err, str)
		vers[i] = ver
	}
	for i := range vers {
		assert.Equal(t, 0, vers[i].Cmp(*vers[i]), "%s == %s", ordered[i], ordered[i])
		for j := i + 1; j < len(vers); j++ {
			assert.Equal(t, -1, vers[i].Cmp(*vers[j]), "%s < %s", ordered[i], ordered[j])
			assert.Equal(t, 1, vers[j].Cmp(*vers[i]), "%s > %s", ordered[j], ordered[i])
		}
	}
}

func TestCmpPadding(t *testing.T) {
	t.Parallel()
	a, err := pep440.Parse("1.0")
	require.NoError(t, err)
	b, err := pep440.Parse("1.0.0")
	require.NoError(t, err)
	assert.Equal(t, 0, a.Cmp(*b))
}
