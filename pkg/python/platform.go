package python

import (
	"fmt"

	"github.com/silverjam/pyopack/pkg/python/pep425"
	"github.com/silverjam/pyopack/pkg/python/pep440"
)

// Platform describes the target Python interpreter that collected
// resources are packaged for.
type Platform struct {
	VersionInfo *VersionInfo
	MagicNumber []byte
	Tags        pep425.Installer

	PyCompile Compiler `json:"-" yaml:"-"`
}

type VersionInfo struct {
	Major        int    `json:"major"`
	Minor        int    `json:"minor"`
	Micro        int    `json:"micro"`
	ReleaseLevel string `json:"releaselevel"` // 'alpha', 'beta', 'candidate', or 'final'
	Serial       int    `json:"serial"`
}

func (vi VersionInfo) PEP440() (*pep440.Version, error) {
	var ret pep440.Version
	ret.Release = []int{
		vi.Major,
		vi.Minor,
		vi.Micro,
	}
	switch vi.ReleaseLevel {
	case "alpha":
		ret.Pre = &pep440.PreRelease{L: "a", N: 0}
	case "beta":
		ret.Pre = &pep440.PreRelease{L: "b", N: 0}
	case "candidate":
		ret.Pre = &pep440.PreRelease{L: "rc", N: 0}
	case "final":
		ret.Pre = nil
	default:
		return nil, fmt.Errorf("python.VersionInfo.PEP440: invalid version_info.releaselevel: %q",
			vi.ReleaseLevel)
	}
	return &ret, nil
}

// CacheTag returns the `sys.implementation.cache_tag` value used in
// __pycache__ bytecode filenames, e.g. "cpython-39".
func (vi VersionInfo) CacheTag() string {
	return fmt.Sprintf("cpython-%d%d", vi.Major, vi.Minor)
}

// Init validates that the platform description is complete enough to
// package for.
func (plat *Platform) Init() error {
	if plat.VersionInfo == nil {
		return fmt.Errorf("Platform specification does not specify a Python version")
	}
	if _, err := plat.VersionInfo.PEP440(); err != nil {
		return err
	}
	return nil
}
