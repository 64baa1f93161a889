package resource

import (
	"encoding/json"
	"fmt"
	"strings"
)

// A Location names where a collected resource is materialized in the
// final artifact.
type Location struct {
	// Kind is one of LocationInMemory or LocationFilesystemRelative.
	Kind LocationKind
	// Prefix is the directory prefix for filesystem-relative
	// locations; empty for in-memory.
	Prefix string
}

type LocationKind string

const (
	LocationInMemory           LocationKind = "in-memory"
	LocationFilesystemRelative LocationKind = "filesystem-relative"
)

// ParseLocation parses the string form used by policy files and the
// embedding configuration language: "in-memory" or
// "filesystem-relative:PREFIX".
func ParseLocation(s string) (Location, error) {
	switch {
	case s == string(LocationInMemory):
		return Location{Kind: LocationInMemory}, nil
	case strings.HasPrefix(s, string(LocationFilesystemRelative)+":"):
		prefix := strings.TrimPrefix(s, string(LocationFilesystemRelative)+":")
		if prefix == "" {
			return Location{}, fmt.Errorf("resource.ParseLocation: %q: empty prefix", s)
		}
		return Location{Kind: LocationFilesystemRelative, Prefix: prefix}, nil
	default:
		return Location{}, fmt.Errorf("resource.ParseLocation: unknown location %q", s)
	}
}

func (l Location) String() string {
	if l.Kind == LocationFilesystemRelative {
		return string(l.Kind) + ":" + l.Prefix
	}
	return string(l.Kind)
}

func (l Location) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

func (l *Location) UnmarshalJSON(bs []byte) error {
	var s string
	if err := json.Unmarshal(bs, &s); err != nil {
		return err
	}
	parsed, err := ParseLocation(s)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
