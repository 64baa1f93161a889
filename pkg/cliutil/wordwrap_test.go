// Copyright (C) 2021  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package cliutil_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/silverjam/pyopack/pkg/cliutil"
)

func TestWrap(t *testing.T) {
	t.Parallel()
	type testcase struct {
		InputWidth int
		InputStr   string
		Expected   string
	}
	testcases := map[string]testcase{
		"nowrap": {
			InputWidth: 0,
			InputStr:   "anything at all, left alone no matter how long it happens to be",
			Expected:   "anything at all, left alone no matter how long it happens to be",
		},
		"short": {
			InputWidth: 80,
			InputStr:   "fits on one line",
			Expected:   "fits on one line",
		},
		"sentences": {
			InputWidth: 80,
			InputStr: "Longer description of program.  This is a paragraph.  " +
				"Because it is a paragraph, it may be quite long and " +
				"may need to be word-wrapped.",
			Expected: "Longer description of program.  This is a paragraph.  Because it is a\n" +
				"paragraph, it may be quite long and may need to be word-wrapped.",
		},
		"newlines-as-spaces": {
			InputWidth: 80,
			InputStr:   "alpha\nbravo\tcharlie",
			Expected:   "alpha bravo charlie",
		},
	}
	for tcName, tcData := range testcases {
		tcData := tcData
		t.Run(tcName, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tcData.Expected, cliutil.Wrap(tcData.InputWidth, tcData.InputStr))
		})
	}
}

func TestWrapIndent(t *testing.T) {
	t.Parallel()
	assert.Equal(t,
		"One line description of subcommand, one line on\n"+
			"                       own, but wrapped in table",
		cliutil.WrapIndent(23, 80,
			"One line description of subcommand, one line on own, but wrapped in table"))
}
