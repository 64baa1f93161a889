package licensing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/silverjam/pyopack/pkg/packaging/licensing"
)

func TestParseExpression(t *testing.T) {
	t.Parallel()
	testcases := map[string]struct {
		Input  string
		Output []string
		Err    bool
	}{
		"single":    {Input: "MIT", Output: []string{"MIT"}},
		"or":        {Input: "BSD-3-Clause OR GPL-2.0-or-later", Output: []string{"BSD-3-Clause", "GPL-2.0-or-later"}},
		"and":       {Input: "MIT AND Apache-2.0", Output: []string{"MIT", "Apache-2.0"}},
		"with":      {Input: "GPL-2.0-only WITH Classpath-exception-2.0", Output: []string{"GPL-2.0-only"}},
		"parens":    {Input: "(MIT OR Apache-2.0) AND 0BSD", Output: []string{"MIT", "Apache-2.0", "0BSD"}},
		"empty":     {Input: "", Err: true},
		"operators": {Input: "AND OR", Err: true},
	}
	for tcName, tc := range testcases {
		tc := tc
		t.Run(tcName, func(t *testing.T) {
			t.Parallel()
			ids, err := licensing.ParseExpression(tc.Input)
			if tc.Err {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.Output, ids)
		})
	}
}

func TestIsGPLFlavored(t *testing.T) {
	t.Parallel()
	testcases := map[string]struct {
		Info licensing.Info
		GPL  bool
	}{
		"mit":           {Info: licensing.Info{SPDX: "MIT"}, GPL: false},
		"gpl":           {Info: licensing.Info{SPDX: "GPL-3.0-only"}, GPL: true},
		"lgpl":          {Info: licensing.Info{SPDX: "LGPL-2.1-or-later"}, GPL: true},
		"agpl":          {Info: licensing.Info{SPDX: "AGPL-3.0-only"}, GPL: true},
		"dual":          {Info: licensing.Info{SPDX: "MIT OR GPL-2.0-only"}, GPL: true},
		"unknown":       {Info: licensing.Info{}, GPL: false},
		"public-domain": {Info: licensing.Info{SPDX: "GPL-3.0-only", PublicDomain: true}, GPL: false},
	}
	for tcName, tc := range testcases {
		tc := tc
		t.Run(tcName, func(t *testing.T) {
			t.Parallel()
			gpl, err := tc.Info.IsGPLFlavored()
			assert.NoError(t, err)
			assert.Equal(t, tc.GPL, gpl)
		})
	}
}

func TestKnown(t *testing.T) {
	t.Parallel()
	assert.False(t, licensing.Info{}.Known())
	assert.True(t, licensing.Info{SPDX: "MIT"}.Known())
	assert.True(t, licensing.Info{PublicDomain: true}.Known())
}
