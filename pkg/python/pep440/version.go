// Package pep440 implements the PEP 440 version scheme: parsing,
// normalization, and ordering of Python version identifiers, and
// matching them against version specifiers (`~=`, `==`, `!=`, `<=`,
// `>=`, `<`, `>`, `===`, and `.*` prefixes).
//
// https://www.python.org/dev/peps/pep-0440/
package pep440

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"k8s.io/apimachinery/pkg/util/intstr"
)

// Version is a parsed public version identifier with an optional local
// segment:
//
//	[N!]N(.N)*[{a|b|rc}N][.postN][.devN][+local]
type Version struct {
	Epoch   int
	Release []int
	Pre     *PreRelease
	Post    *int
	Dev     *int

	// Local segments are alternating alphanumeric/numeric parts;
	// numeric parts compare numerically, which is why these are
	// int-or-string.
	Local []intstr.IntOrString
}

type PreRelease struct {
	L string // "a", "b", or "rc"
	N int
}

// re is the permissive regular expression from PEP 440 Appendix B;
// inputs it accepts normalize to the canonical form.
var re = regexp.MustCompile(`^\s*v?` +
	`(?:(?P<epoch>[0-9]+)!)?` +
	`(?P<release>[0-9]+(?:\.[0-9]+)*)` +
	`(?P<pre>[-_.]?(?P<preL>a|b|c|rc|alpha|beta|pre|preview)[-_.]?(?P<preN>[0-9]+)?)?` +
	`(?P<post>(?:-(?P<postN1>[0-9]+))|(?:[-_.]?(?:post|rev|r)[-_.]?(?P<postN2>[0-9]+)?))?` +
	`(?P<dev>[-_.]?dev[-_.]?(?P<devN>[0-9]+)?)?` +
	`(?:\+(?P<local>[a-z0-9]+(?:[-_.][a-z0-9]+)*))?` +
	`\s*$`)

// Parse parses and normalizes a version string.
func Parse(str string) (*Version, error) {
	match := re.FindStringSubmatch(strings.ToLower(str))
	if match == nil {
		return nil, fmt.Errorf("pep440.Parse: invalid version: %q", str)
	}
	group := func(name string) string {
		return match[re.SubexpIndex(name)]
	}

	var ver Version

	if epoch := group("epoch"); epoch != "" {
		ver.Epoch, _ = strconv.Atoi(epoch)
	}
	for _, part := range strings.Split(group("release"), ".") {
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("pep440.Parse: invalid release segment %q: %w", part, err)
		}
		ver.Release = append(ver.Release, n)
	}

	if group("pre") != "" {
		l := group("preL")
		switch l {
		case "alpha":
			l = "a"
		case "beta":
			l = "b"
		case "c", "pre", "preview":
			l = "rc"
		}
		n := 0
		if s := group("preN"); s != "" {
			n, _ = strconv.Atoi(s)
		}
		ver.Pre = &PreRelease{L: l, N: n}
	}

	if group("post") != "" {
		n := 0
		if s := group("postN1"); s != "" {
			n, _ = strconv.Atoi(s)
		} else if s := group("postN2"); s != "" {
			n, _ = strconv.Atoi(s)
		}
		ver.Post = &n
	}

	if group("dev") != "" {
		n := 0
		if s := group("devN"); s != "" {
			n, _ = strconv.Atoi(s)
		}
		ver.Dev = &n
	}

	if local := group("local"); local != "" {
		for _, part := range strings.FieldsFunc(local, func(r rune) bool {
			return r == '-' || r == '_' || r == '.'
		}) {
			if n, err := strconv.Atoi(part); err == nil {
				ver.Local = append(ver.Local, intstr.FromInt(n))
			} else {
				ver.Local = append(ver.Local, intstr.FromString(part))
			}
		}
	}

	return &ver, nil
}

// String returns the canonical form.
func (ver Version) String() string {
	var ret strings.Builder
	if ver.Epoch > 0 {
		fmt.Fprintf(&ret, "%d!", ver.Epoch)
	}
	for i, segment := range ver.Release {
		if i > 0 {
			ret.WriteByte('.')
		}
		fmt.Fprintf(&ret, "%d", segment)
	}
	if ver.Pre != nil {
		fmt.Fprintf(&ret, "%s%d", ver.Pre.L, ver.Pre.N)
	}
	if ver.Post != nil {
		fmt.Fprintf(&ret, ".post%d", *ver.Post)
	}
	if ver.Dev != nil {
		fmt.Fprintf(&ret, ".dev%d", *ver.Dev)
	}
	if len(ver.Local) > 0 {
		ret.WriteByte('+')
		for i, part := range ver.Local {
			if i > 0 {
				ret.WriteByte('.')
			}
			ret.WriteString(part.String())
		}
	}
	return ret.String()
}

// Cmp returns -1, 0, or 1 depending on whether ver sorts before, equal
// to, or after other.
func (ver Version) Cmp(other Version) int {
	if d := ver.Epoch - other.Epoch; d != 0 {
		return sign(d)
	}
	if d := cmpRelease(ver.Release, other.Release); d != 0 {
		return d
	}
	if d := cmpPre(ver.Pre, other.Pre, ver.Dev != nil, other.Dev != nil); d != 0 {
		return d
	}
	if d := cmpOptInt(ver.Post, other.Post, -1); d != 0 {
		return d
	}
	// dev releases sort before the release they are a dev of
	if d := cmpOptInt(ver.Dev, other.Dev, +1); d != 0 {
		return d
	}
	return cmpLocal(ver.Local, other.Local)
}

func sign(d int) int {
	switch {
	case d < 0:
		return -1
	case d > 0:
		return 1
	default:
		return 0
	}
}

func cmpRelease(a, b []int) int {
	// Compare part-wise, padding the shorter with zeros.
	for i := 0; i < len(a) || i < len(b); i++ {
		var aSeg, bSeg int
		if i < len(a) {
			aSeg = a[i]
		}
		if i < len(b) {
			bSeg = b[i]
		}
		if aSeg != bSeg {
			return sign(aSeg - bSeg)
		}
	}
	return 0
}

func cmpPre(a, b *PreRelease, aDev, bDev bool) int {
	// A bare dev release (1.0.dev1) sorts like an infinitely-early
	// pre-release; otherwise no-pre sorts after any pre.
	rank := func(pre *PreRelease, dev bool) int {
		switch {
		case pre == nil && dev:
			return 0
		case pre == nil:
			return 4
		case pre.L == "a":
			return 1
		case pre.L == "b":
			return 2
		default: // "rc"
			return 3
		}
	}
	if d := rank(a, aDev) - rank(b, bDev); d != 0 {
		return sign(d)
	}
	if a != nil && b != nil && a.N != b.N {
		return sign(a.N - b.N)
	}
	return 0
}

// cmpOptInt compares optional numeric segments; `absent` says how an
// absent segment sorts relative to a present one (-1: before, +1:
// after).
func cmpOptInt(a, b *int, absent int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return absent
	case b == nil:
		return -absent
	default:
		return sign(*a - *b)
	}
}

func cmpLocal(a, b []intstr.IntOrString) int {
	for i := 0; i < len(a) || i < len(b); i++ {
		switch {
		case i >= len(a):
			return -1
		case i >= len(b):
			return 1
		}
		aSeg, bSeg := a[i], b[i]
		switch {
		case aSeg.Type == intstr.Int && bSeg.Type == intstr.Int:
			if d := sign(int(aSeg.IntVal) - int(bSeg.IntVal)); d != 0 {
				return d
			}
		// numeric segments sort after alphanumeric ones
		case aSeg.Type == intstr.Int:
			return 1
		case bSeg.Type == intstr.Int:
			return -1
		default:
			if aSeg.StrVal != bSeg.StrVal {
				if aSeg.StrVal < bSeg.StrVal {
					return -1
				}
				return 1
			}
		}
	}
	return 0
}
