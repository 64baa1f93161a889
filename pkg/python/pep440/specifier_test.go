package pep440_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/silverjam/pyopack/pkg/python/pep440"
)

func TestSpecifierMatch(t *testing.T) {
	t.Parallel()
	testcases := []struct {
		Spec    string
		Version string
		Match   bool
	}{
		{">=3.8", "3.10.4", true},
		{">=3.8", "3.7.9", false},
		{">=3.8,<4", "3.10.4", true},
		{">=3.8,<4", "4.0", false},
		{"==3.10.4", "3.10.4", true},
		{"==3.10.4", "3.10.5", false},
		{"==3.10.*", "3.10.5", true},
		{"==3.10.*", "3.11.0", false},
		{"!=3.10.*", "3.11.0", true},
		{"!=3.10.*", "3.10.1", false},
		{"~=3.10.1", "3.10.4", true},
		{"~=3.10.1", "3.11.0", false},
		{"~=3.10.1", "3.10.0", false},
		{"<3.11", "3.10.99", true},
		{">3.10", "3.10.1", true},
		{"===3.10.4", "3.10.4", true},
		{"", "1.0", true},
	}
	for _, tc := range testcases {
		tc := tc
		t.Run(tc.Spec+"/"+tc.Version, func(t *testing.T) {
			t.Parallel()
			spec, err := pep440.ParseSpecifier(tc.Spec)
			require.NoError(t, err)
			ver, err := pep440.Parse(tc.Version)
			require.NoError(t, err)
			assert.Equal(t, tc.Match, spec.Match(*ver))
		})
	}
}

func TestSpecifierParseErrors(t *testing.T) {
	t.Parallel()
	for _, str := range []string{
		"3.8",       // no operator
		">=",        // no operand
		">=3.8.*",   // .* only valid with == and !=
		"~=3",       // too few release segments
		"==banana",  // not a version
	} {
		str := str
		t.Run(str, func(t *testing.T) {
			t.Parallel()
			_, err := pep440.ParseSpecifier(str)
			assert.Error(t, err)
		})
	}
}

func TestSpecifierString(t *testing.T) {
	t.Parallel()
	spec, err := pep440.ParseSpecifier(" >=3.8 , <4 ")
	require.NoError(t, err)
	assert.Equal(t, ">=3.8,<4", spec.String())
}
