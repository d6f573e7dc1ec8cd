// Package seeds reads the optional seed manifest (.apiextract/seeds.toml)
// and merges it with seeds discovered from marker annotations.
//
//	[[include]]
//	name = "com.example.api.Client"
//	includeMembers = "TRUE"
//
//	[[include]]
//	name = "com.example.api.Limits#MAX_SIZE"
//	unconstantize = "TRUE"
//
//	[[exclude]]
//	name = "com.example.api.Client.Internal"
//
// Names are qualified package or type names; Type#member selects every
// member of that name (all overloads of a method).
package seeds

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"os"
	"sort"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"apiextract/internal/closure"
	"apiextract/internal/decl"
	"apiextract/internal/errors"
)

// Entry is one [[include]] or [[exclude]] table.
type Entry struct {
	Name           string `toml:"name" yaml:"name"`
	IncludeMembers string `toml:"includeMembers,omitempty" yaml:"includeMembers,omitempty"`
	Unconstantize  string `toml:"unconstantize,omitempty" yaml:"unconstantize,omitempty"`
}

// Manifest is the root of seeds.toml.
type Manifest struct {
	Include []Entry `toml:"include" yaml:"include"`
	Exclude []Entry `toml:"exclude" yaml:"exclude"`
}

// Load reads the manifest at path. A missing file is an empty manifest.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Manifest{}, nil
		}
		return nil, errors.New(errors.ConfigInvalid, "failed to read seed manifest", err)
	}
	return Parse(data)
}

// Parse decodes a manifest. Unknown keys are rejected.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&m); err != nil {
		var strict *toml.StrictMissingError
		if stderrors.As(err, &strict) {
			return nil, errors.New(errors.ConfigInvalid, "unknown key in seed manifest", stderrors.New(strict.String()))
		}
		return nil, errors.New(errors.ConfigInvalid, "failed to parse seed manifest", err)
	}
	return &m, nil
}

// Len returns the number of entries.
func (m *Manifest) Len() int {
	return len(m.Include) + len(m.Exclude)
}

// Seeds resolves every entry against g. Names that match nothing and
// malformed tri-state values are reported together as one CONFIG_INVALID
// error.
func (m *Manifest) Seeds(g *decl.Graph) ([]closure.Seed, error) {
	var out []closure.Seed
	var problems []string

	resolve := func(e Entry, excluded bool) {
		hs := lookup(g, e.Name)
		if len(hs) == 0 {
			problems = append(problems, fmt.Sprintf("%s: no such package, type or member", e.Name))
			return
		}
		im, err := closure.ParseTristate(e.IncludeMembers)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s: includeMembers: %v", e.Name, err))
			return
		}
		uc, err := closure.ParseTristate(e.Unconstantize)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s: unconstantize: %v", e.Name, err))
			return
		}
		for _, h := range hs {
			out = append(out, closure.Seed{Decl: h, Excluded: excluded, IncludeMembers: im, Unconstantize: uc})
		}
	}
	for _, e := range m.Include {
		resolve(e, false)
	}
	for _, e := range m.Exclude {
		resolve(e, true)
	}

	if len(problems) > 0 {
		return nil, errors.Newf(errors.ConfigInvalid, "seed manifest has %d unresolved entr(ies)", len(problems)).WithDetails(problems)
	}
	return out, nil
}

// lookup finds the declarations a manifest name refers to.
func lookup(g *decl.Graph, name string) []decl.Handle {
	name = strings.TrimSpace(name)
	owner, member, hasMember := strings.Cut(name, "#")
	h, ok := g.Lookup(owner)
	if !ok {
		return nil
	}
	if !hasMember {
		return []decl.Handle{h}
	}
	if member == "" || !g.Kind(h).IsType() {
		return nil
	}
	return g.MembersNamed(h, member)
}

// Merge combines annotation-discovered seeds with manifest seeds. Seeds of
// the same declaration and polarity collapse into one; a non-default
// tri-state from the manifest wins. A declaration included by one source
// and excluded by another keeps both seeds, which the resolver reports as
// a conflict. The result is ordered by qualified name.
func Merge(g *decl.Graph, discovered, manifest []closure.Seed) []closure.Seed {
	type key struct {
		h        decl.Handle
		excluded bool
	}
	merged := make(map[key]closure.Seed, len(discovered)+len(manifest))
	var order []key
	add := func(s closure.Seed, override bool) {
		k := key{s.Decl, s.Excluded}
		prev, seen := merged[k]
		if !seen {
			merged[k] = s
			order = append(order, k)
			return
		}
		if override || prev.IncludeMembers == closure.Default {
			if s.IncludeMembers != closure.Default {
				prev.IncludeMembers = s.IncludeMembers
			}
		}
		if override || prev.Unconstantize == closure.Default {
			if s.Unconstantize != closure.Default {
				prev.Unconstantize = s.Unconstantize
			}
		}
		merged[k] = prev
	}
	for _, s := range discovered {
		add(s, false)
	}
	for _, s := range manifest {
		add(s, true)
	}

	out := make([]closure.Seed, 0, len(order))
	for _, k := range order {
		out = append(out, merged[k])
	}
	sort.SliceStable(out, func(i, j int) bool {
		ni, nj := g.QualifiedName(out[i].Decl), g.QualifiedName(out[j].Decl)
		if ni != nj {
			return ni < nj
		}
		if out[i].Decl != out[j].Decl {
			return out[i].Decl < out[j].Decl
		}
		return !out[i].Excluded && out[j].Excluded
	})
	return out
}
