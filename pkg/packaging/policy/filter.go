package policy

import (
	"fmt"

	"github.com/silverjam/pyopack/pkg/packaging/resource"
)

// ExtensionModuleFilter selects which extension modules a policy allows.
type ExtensionModuleFilter string

const (
	// FilterAll includes every extension module.
	FilterAll ExtensionModuleFilter = "all"
	// FilterMinimal includes only extensions the interpreter
	// requires to initialize.
	FilterMinimal ExtensionModuleFilter = "minimal"
	// FilterNoLibraries includes only extensions that link against
	// no additional libraries.
	FilterNoLibraries ExtensionModuleFilter = "no-libraries"
	// FilterNoGPL excludes extensions that link against additional
	// libraries unless their license is known and not GPL-flavored.
	FilterNoGPL ExtensionModuleFilter = "no-gpl"
)

func ParseExtensionModuleFilter(s string) (ExtensionModuleFilter, error) {
	switch f := ExtensionModuleFilter(s); f {
	case FilterAll, FilterMinimal, FilterNoLibraries, FilterNoGPL:
		return f, nil
	default:
		return "", fmt.Errorf("policy.ParseExtensionModuleFilter: unknown filter %q", s)
	}
}

// AllowsExtensionModule applies the policy's extension-module filter to
// a single extension.  Required extensions pass every filter.
func (p *Policy) AllowsExtensionModule(ext *resource.ExtensionModule) (bool, error) {
	if ext.Required {
		return true, nil
	}
	switch p.extensionModuleFilter {
	case FilterAll:
		return true, nil
	case FilterMinimal:
		return false, nil
	case FilterNoLibraries:
		return len(ext.Libraries) == 0, nil
	case FilterNoGPL:
		if len(ext.Libraries) == 0 {
			return true, nil
		}
		// Linking against libraries makes the license of the
		// whole pull in; without license info we fail closed.
		if !ext.License.Known() {
			return false, nil
		}
		gpl, err := ext.License.IsGPLFlavored()
		if err != nil {
			return false, fmt.Errorf("extension module %q: %w", ext.Name, err)
		}
		return !gpl, nil
	default:
		return false, fmt.Errorf("policy.AllowsExtensionModule: unknown filter %q", p.extensionModuleFilter)
	}
}
