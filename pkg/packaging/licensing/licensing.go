// Package licensing carries the license metadata attached to extension
// modules and classifies it for the "no-gpl" extension-module filter.
//
// This is not a full SPDX expression engine; it handles the subset that
// real Python distribution metadata uses: license identifiers joined by
// AND/OR, optional parentheses, and WITH exception clauses.
package licensing

import (
	"fmt"
	"strings"
)

// Info is the license metadata for a single component.
type Info struct {
	// SPDX is an SPDX license expression, e.g.
	// "BSD-3-Clause OR GPL-2.0-or-later".  Empty means unknown.
	SPDX string `json:"spdx,omitempty"`

	// PublicDomain marks components explicitly dedicated to the
	// public domain; these are never GPL-flavored, whatever the
	// expression says.
	PublicDomain bool `json:"public_domain,omitempty"`
}

// Known reports whether any license information is present.
func (in Info) Known() bool {
	return in.PublicDomain || in.SPDX != ""
}

// IsGPLFlavored reports whether the component's license is in the GPL
// family (GPL, LGPL, AGPL).  Unknown licenses are not GPL-flavored;
// callers that want to fail closed must check Known separately.
func (in Info) IsGPLFlavored() (bool, error) {
	if in.PublicDomain {
		return false, nil
	}
	if in.SPDX == "" {
		return false, nil
	}
	ids, err := ParseExpression(in.SPDX)
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if strings.Contains(strings.ToUpper(id), "GPL") {
			return true, nil
		}
	}
	return false, nil
}

// ParseExpression extracts the license identifiers from an SPDX
// expression, dropping the AND/OR structure and WITH exceptions.
func ParseExpression(expr string) ([]string, error) {
	var ids []string
	fields := strings.Fields(strings.NewReplacer("(", " ", ")", " ").Replace(expr))
	skipNext := false
	for _, field := range fields {
		switch {
		case skipNext:
			// the exception name after WITH
			skipNext = false
		case field == "AND" || field == "OR":
			// operator
		case field == "WITH":
			skipNext = true
		default:
			ids = append(ids, field)
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("licensing.ParseExpression: no license identifiers in %q", expr)
	}
	return ids, nil
}
