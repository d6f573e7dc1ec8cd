package closure

import (
	"apiextract/internal/decl"
)

// Result maps every included declaration to its inclusion state.
type Result struct {
	g      *decl.Graph
	states map[decl.Handle]*State
	order  []decl.Handle
	seeds  map[decl.Handle]Seed

	// Warnings are non-fatal diagnostics such as out-of-scope seeds.
	Warnings []Diagnostic
}

// Graph returns the graph the result was computed over.
func (r *Result) Graph() *decl.Graph {
	return r.g
}

// Len returns the number of included declarations.
func (r *Result) Len() int {
	return len(r.order)
}

// Contains reports whether h is part of the closure.
func (r *Result) Contains(h decl.Handle) bool {
	_, ok := r.states[h]
	return ok
}

// State returns the inclusion state of h.
func (r *Result) State(h decl.Handle) (*State, bool) {
	st, ok := r.states[h]
	return st, ok
}

// Handles returns the included declarations ordered by qualified name.
func (r *Result) Handles() []decl.Handle {
	return append([]decl.Handle(nil), r.order...)
}

// Types returns the included type declarations, which are the ones that
// produce artifacts, ordered by qualified name.
func (r *Result) Types() []decl.Handle {
	var out []decl.Handle
	for _, h := range r.order {
		if r.g.Kind(h).IsType() {
			out = append(out, h)
		}
	}
	return out
}

// Seed returns the included seed recorded for h, if h was seeded directly.
func (r *Result) Seed(h decl.Handle) (Seed, bool) {
	s, ok := r.seeds[h]
	return s, ok
}

// Seeds returns the included seeds ordered by qualified name.
func (r *Result) Seeds() []decl.Handle {
	out := make([]decl.Handle, 0, len(r.seeds))
	for h := range r.seeds {
		out = append(out, h)
	}
	r.g.SortHandles(out)
	return out
}

// IncludedMembers returns the members of h that are part of the closure, in
// declaration order.
func (r *Result) IncludedMembers(h decl.Handle) []decl.Handle {
	var out []decl.Handle
	for _, m := range r.g.EnclosedDeclarations(h) {
		if r.Contains(m) {
			out = append(out, m)
		}
	}
	return out
}
