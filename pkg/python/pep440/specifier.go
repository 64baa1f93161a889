package pep440

import (
	"fmt"
	"strings"
)

// A Specifier is a comma-separated set of version clauses, per PEP 440
// "Version specifiers"; a version must satisfy every clause.
type Specifier []SpecifierClause

type SpecifierClause struct {
	Op      string // "~=", "==", "!=", "<=", ">=", "<", ">", or "==="
	Operand string // raw operand text; may end in ".*" for == and !=
}

//nolint:gochecknoglobals // Would be 'const'.
var specifierOps = []string{"===", "==", "!=", "~=", "<=", ">=", "<", ">"}

func ParseSpecifier(str string) (Specifier, error) {
	var ret Specifier
	for _, part := range strings.Split(str, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		clause, err := parseSpecifierClause(part)
		if err != nil {
			return nil, err
		}
		ret = append(ret, clause)
	}
	return ret, nil
}

func parseSpecifierClause(str string) (SpecifierClause, error) {
	for _, op := range specifierOps {
		if !strings.HasPrefix(str, op) {
			continue
		}
		operand := strings.TrimSpace(strings.TrimPrefix(str, op))
		if operand == "" {
			return SpecifierClause{}, fmt.Errorf("pep440.ParseSpecifier: missing version: %q", str)
		}
		wild := strings.HasSuffix(operand, ".*")
		switch {
		case wild && op != "==" && op != "!=":
			return SpecifierClause{}, fmt.Errorf("pep440.ParseSpecifier: %q may not use a .* suffix", op)
		case op == "===":
			// Arbitrary equality takes the operand as an opaque string.
		default:
			if _, err := Parse(strings.TrimSuffix(operand, ".*")); err != nil {
				return SpecifierClause{}, err
			}
		}
		if op == "~=" {
			ver, _ := Parse(operand)
			if len(ver.Release) < 2 {
				return SpecifierClause{}, fmt.Errorf(
					"pep440.ParseSpecifier: ~= requires at least two release segments: %q", str)
			}
		}
		return SpecifierClause{Op: op, Operand: operand}, nil
	}
	return SpecifierClause{}, fmt.Errorf("pep440.ParseSpecifier: no comparison operator: %q", str)
}

func (spec Specifier) String() string {
	parts := make([]string, 0, len(spec))
	for _, clause := range spec {
		parts = append(parts, clause.Op+clause.Operand)
	}
	return strings.Join(parts, ",")
}

// Match reports whether ver satisfies every clause.
func (spec Specifier) Match(ver Version) bool {
	for _, clause := range spec {
		if !clause.Match(ver) {
			return false
		}
	}
	return true
}

func (clause SpecifierClause) Match(ver Version) bool {
	if clause.Op == "===" {
		return strings.TrimSpace(clause.Operand) == ver.String()
	}
	if wild := strings.TrimSuffix(clause.Operand, ".*"); wild != clause.Operand {
		matched := prefixMatch(wild, ver)
		if clause.Op == "!=" {
			return !matched
		}
		return matched
	}

	operand, err := Parse(clause.Operand)
	if err != nil {
		return false
	}
	switch clause.Op {
	case "==":
		return ver.Cmp(*operand) == 0
	case "!=":
		return ver.Cmp(*operand) != 0
	case "<=":
		return ver.Cmp(*operand) <= 0
	case ">=":
		return ver.Cmp(*operand) >= 0
	case "<":
		return ver.Cmp(*operand) < 0
	case ">":
		return ver.Cmp(*operand) > 0
	case "~=":
		// "~= X.Y.Z" is ">= X.Y.Z, == X.Y.*".
		if ver.Cmp(*operand) < 0 {
			return false
		}
		prefix := *operand
		prefix.Release = prefix.Release[:len(prefix.Release)-1]
		prefix.Pre, prefix.Post, prefix.Dev, prefix.Local = nil, nil, nil, nil
		return prefixMatch(prefix.String(), ver)
	default:
		return false
	}
}

// prefixMatch implements "== X.Y.*": the epoch must agree and the
// version's release must start with the operand's release, padding
// with zeros.
func prefixMatch(operandStr string, ver Version) bool {
	operand, err := Parse(operandStr)
	if err != nil {
		return false
	}
	if operand.Epoch != ver.Epoch {
		return false
	}
	for i, want := range operand.Release {
		have := 0
		if i < len(ver.Release) {
			have = ver.Release[i]
		}
		if have != want {
			return false
		}
	}
	return true
}
