package python_test

import (
	"fmt"
	"os/exec"
	"testing"
	"testing/quick"

	"github.com/silverjam/pyopack/pkg/python"
)

func TestStatModeString(t *testing.T) {
	if _, err := exec.LookPath("python3"); err != nil {
		t.Skip("python3 not available")
	}
	// Python builds whose C library doesn't define S_IFWHT render
	// whiteouts as '?' instead of 'w'; don't compare those there.
	wht, _ := exec.Command("python3", "-c",
		`import stat; print(stat.filemode(0o16_0644), end="")`).Output()
	pyKnowsWhiteout := len(wht) > 0 && wht[0] == 'w'

	fn := func(m python.StatMode) bool {
		if m&python.ModeFmt == python.ModeFmtWhiteout && !pyKnowsWhiteout {
			return true
		}
		act := m.String()
		exp, _ := exec.Command("python3", "-c",
			fmt.Sprintf(`import stat; print(stat.filemode(%d), end="")`, m)).
			Output()
		return act == string(exp)
	}
	if err := quick.Check(fn, nil); err != nil {
		t.Error(err)
	}
}

func TestStatModeRoundTrip(t *testing.T) {
	// Regular files and directories with plain permission bits must
	// survive a StatMode->FileMode->StatMode round trip.
	fn := func(perm python.StatMode) bool {
		for _, fmtBits := range []python.StatMode{python.ModeFmtRegular, python.ModeFmtDir} {
			pm := fmtBits | (perm & python.ModePerm)
			if python.ModeFromGo(pm.ToGo()) != pm {
				return false
			}
		}
		return true
	}
	if err := quick.Check(fn, nil); err != nil {
		t.Error(err)
	}
}
