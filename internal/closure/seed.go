package closure

import (
	"fmt"
	"strings"

	"apiextract/internal/decl"
)

// Tristate is a boolean preference that may defer to a configured default.
type Tristate uint8

const (
	Default Tristate = iota
	True
	False
)

func (t Tristate) String() string {
	switch t {
	case True:
		return "TRUE"
	case False:
		return "FALSE"
	default:
		return "DEFAULT"
	}
}

// ParseTristate accepts TRUE/FALSE/DEFAULT in any case, plus true/false
// spellings of booleans. The empty string is DEFAULT.
func ParseTristate(s string) (Tristate, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "DEFAULT":
		return Default, nil
	case "TRUE", "YES", "1":
		return True, nil
	case "FALSE", "NO", "0":
		return False, nil
	}
	return Default, fmt.Errorf("invalid tri-state value %q (want TRUE, FALSE or DEFAULT)", s)
}

// Resolve maps Default to def.
func (t Tristate) Resolve(def bool) bool {
	switch t {
	case True:
		return true
	case False:
		return false
	default:
		return def
	}
}

// Seed is one externally discovered marker on a declaration.
type Seed struct {
	Decl     decl.Handle
	Excluded bool
	// IncludeMembers and Unconstantize are only meaningful for included seeds.
	IncludeMembers Tristate
	Unconstantize  Tristate
}

// Scope is the name-prefix allow/deny filter applied to every candidate.
type Scope struct {
	Base    []string
	Exclude []string
}

// Contains reports whether the dotted name lies within Base and outside Exclude.
func (s Scope) Contains(name string) bool {
	return matchesAny(name, s.Base) && !matchesAny(name, s.Exclude)
}

// matchesAny reports whether name equals one of the prefixes or continues
// one of them at a dot boundary.
func matchesAny(name string, prefixes []string) bool {
	for _, p := range prefixes {
		if name == p {
			return true
		}
		if len(name) > len(p) && name[len(p)] == '.' && strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// SplitPackageList splits a comma and/or space separated package list.
func SplitPackageList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
}
