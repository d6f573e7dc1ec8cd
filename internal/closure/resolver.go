// Package closure computes the set of declarations that make up a library's
// public surface: everything transitively required by the included seeds,
// under the member inclusion policy and the configured package scope.
package closure

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"apiextract/internal/decl"
	"apiextract/internal/errors"
	"apiextract/internal/slogutil"
)

// Options configure a Resolver.
type Options struct {
	Scope Scope
	// IncludeMembersDefault is what an include-members preference of
	// Default resolves to on a seed.
	IncludeMembersDefault bool
	Logger                *slog.Logger
}

// Resolver computes closures over one graph.
type Resolver struct {
	g      *decl.Graph
	opts   Options
	logger *slog.Logger
}

// NewResolver creates a resolver for g.
func NewResolver(g *decl.Graph, opts Options) *Resolver {
	logger := opts.Logger
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	return &Resolver{g: g, opts: opts, logger: logger}
}

// run holds the private state of one resolution.
type run struct {
	*Resolver
	seeds    map[decl.Handle]Seed
	excluded map[decl.Handle]bool
	states   map[decl.Handle]*State
	queue    []decl.Handle
	edges    map[decl.Handle][]decl.Handle
	current  decl.Handle
	fatal    []Diagnostic
	warnings []Diagnostic
	reported map[string]bool
}

// Resolve computes the closure of seeds. Every fatal condition (seed
// conflicts, unresolved types, excluded ancestors) is collected and returned
// as a single *errors.Error whose Details list all of them; the result is
// nil in that case. Warnings never fail the run and are kept on the Result.
func (r *Resolver) Resolve(seeds []Seed) (*Result, error) {
	rn := &run{
		Resolver: r,
		seeds:    make(map[decl.Handle]Seed),
		excluded: make(map[decl.Handle]bool),
		states:   make(map[decl.Handle]*State),
		edges:    make(map[decl.Handle][]decl.Handle),
		reported: make(map[string]bool),
	}

	included := rn.collectSeeds(seeds)
	if len(rn.fatal) > 0 {
		return nil, rn.failure()
	}

	for _, h := range included {
		rn.current = decl.None
		rn.ensure(h)
	}
	for len(rn.queue) > 0 {
		h := rn.queue[0]
		rn.queue = rn.queue[1:]
		rn.expand(h)
	}

	rn.computeDependents(included)
	rn.checkConsistency()
	if len(rn.fatal) > 0 {
		return nil, rn.failure()
	}

	res := &Result{
		g:        r.g,
		states:   rn.states,
		seeds:    rn.seeds,
		Warnings: rn.warnings,
	}
	res.order = make([]decl.Handle, 0, len(rn.states))
	for h := range rn.states {
		res.order = append(res.order, h)
	}
	r.g.SortHandles(res.order)

	r.logger.Info("Closure resolved",
		"seeds", len(included),
		"excluded", len(rn.excluded),
		"declarations", len(res.order),
		"warnings", len(rn.warnings),
	)
	return res, nil
}

// collectSeeds validates the seed set and returns the included seeds in
// qualified-name order.
func (rn *run) collectSeeds(seeds []Seed) []decl.Handle {
	g := rn.g
	for _, s := range seeds {
		if !g.Valid(s.Decl) {
			rn.addFatal(errors.InternalError, s.Decl, fmt.Sprintf("seed references unknown declaration handle %d", s.Decl))
			continue
		}
		if s.Excluded {
			rn.excluded[s.Decl] = true
		}
	}

	var included []decl.Handle
	for _, s := range seeds {
		if s.Excluded || !g.Valid(s.Decl) {
			continue
		}
		if _, dup := rn.seeds[s.Decl]; dup {
			continue
		}
		if !rn.inScope(s.Decl) {
			rn.addWarning(errors.ScopeViolation, s.Decl, "declaration is not in the base packages, not tracked")
			continue
		}
		if rn.excluded[s.Decl] {
			rn.addFatal(errors.SeedConflict, s.Decl, "declaration is marked both included and excluded")
			continue
		}
		rn.seeds[s.Decl] = s
		included = append(included, s.Decl)
	}
	g.SortHandles(included)
	return included
}

func (rn *run) inScope(h decl.Handle) bool {
	n := rn.g.NearestTypeOrPackage(h)
	if n == decl.None {
		return false
	}
	return rn.opts.Scope.Contains(rn.g.QualifiedName(n))
}

func (rn *run) admit(h decl.Handle) bool {
	return h != decl.None && !rn.excluded[h] && rn.inScope(h)
}

// ensure creates the state of h on first sight and queues it for expansion.
func (rn *run) ensure(h decl.Handle) {
	if _, ok := rn.states[h]; ok {
		return
	}
	rn.states[h] = &State{MemberModifiers: memberModifiers(rn.g, h)}
	rn.queue = append(rn.queue, h)
}

// reach follows an edge from the declaration being expanded to h.
func (rn *run) reach(h decl.Handle) {
	if !rn.admit(h) {
		return
	}
	if rn.current != decl.None {
		rn.edges[rn.current] = append(rn.edges[rn.current], h)
	}
	rn.ensure(h)
}

func (rn *run) expand(h decl.Handle) {
	g := rn.g
	st := rn.states[h]
	rn.current = h

	if !st.Progress.Has(EnclosingDone) {
		st.Progress |= EnclosingDone
		if e := g.Enclosing(h); g.Kind(e).IsType() {
			rn.reach(e)
		}
	}

	switch k := g.Kind(h); {
	case k == decl.KindPackage:
		if !st.Progress.Has(MembersDone) {
			st.Progress |= MembersDone
			if s, ok := rn.seeds[h]; ok && s.IncludeMembers.Resolve(rn.opts.IncludeMembersDefault) {
				for _, m := range g.EnclosedDeclarations(h) {
					if st.ShouldIncludeMember(g.Modifiers(m)) {
						rn.reach(m)
					}
				}
			}
		}

	case k.IsType():
		if !st.Progress.Has(KindDone) {
			st.Progress |= KindDone
			rn.typeRef(g.Superclass(h))
			for _, itf := range g.Interfaces(h) {
				rn.typeRef(itf)
			}
			for _, tp := range g.TypeParameters(h) {
				rn.reach(tp)
			}
		}
		if !st.Progress.Has(MembersDone) {
			st.Progress |= MembersDone
			rn.addMembers(h, st)
		}

	case k.IsExecutable():
		if !st.Progress.Has(KindDone) {
			st.Progress |= KindDone
			for _, p := range g.Parameters(h) {
				rn.reach(p)
			}
			rn.typeRef(g.ReturnType(h))
			for _, t := range g.ThrownTypes(h) {
				rn.typeRef(t)
			}
			for _, tp := range g.TypeParameters(h) {
				rn.reach(tp)
			}
		}

	case k.IsVariable():
		if !st.Progress.Has(KindDone) {
			st.Progress |= KindDone
			rn.typeRef(g.DeclaredType(h))
		}

	case k == decl.KindTypeParameter:
		if !st.Progress.Has(KindDone) {
			st.Progress |= KindDone
			for _, b := range g.Bounds(h) {
				rn.typeRef(b)
			}
		}
	}
}

// addMembers applies the include-members preference of the nearest
// explicitly included ancestor-or-self of type h.
func (rn *run) addMembers(h decl.Handle, st *State) {
	g := rn.g
	pref, explicit := rn.memberPreference(h)
	if explicit && !pref {
		return
	}
	for _, m := range g.EnclosedDeclarations(h) {
		if !explicit && g.Kind(m).IsType() {
			continue
		}
		if st.ShouldIncludeMember(g.Modifiers(m)) {
			rn.reach(m)
		}
	}
}

func (rn *run) memberPreference(h decl.Handle) (include, explicit bool) {
	for p := h; p != decl.None; p = rn.g.Enclosing(p) {
		if s, ok := rn.seeds[p]; ok {
			return s.IncludeMembers.Resolve(rn.opts.IncludeMembersDefault), true
		}
	}
	return false, false
}

func (rn *run) typeRef(t decl.TypeRef) {
	switch t.Kind {
	case decl.TypeArray:
		rn.typeRef(*t.Elem)
	case decl.TypeDeclared:
		rn.reach(t.Decl)
		if t.Outer != nil {
			rn.typeRef(*t.Outer)
		}
		for _, a := range t.Args {
			rn.typeRef(a)
		}
	case decl.TypeVariable:
		rn.reach(t.Decl)
	case decl.TypeWildcard:
		if t.Extends != nil {
			rn.typeRef(*t.Extends)
		}
		if t.Super != nil {
			rn.typeRef(*t.Super)
		}
	case decl.TypeIntersection, decl.TypeUnion:
		for _, a := range t.Args {
			rn.typeRef(a)
		}
	case decl.TypeError:
		key := fmt.Sprintf("%d/%s", rn.current, t.Name)
		if !rn.reported[key] {
			rn.reported[key] = true
			rn.addFatal(errors.UnresolvedType, rn.current, "cannot resolve type "+t.Name)
		}
	}
}

// computeDependents attaches to every state the seeds it is reachable from.
func (rn *run) computeDependents(included []decl.Handle) {
	for _, s := range included {
		seen := map[decl.Handle]bool{s: true}
		stack := []decl.Handle{s}
		for len(stack) > 0 {
			h := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if st, ok := rn.states[h]; ok {
				st.Dependents = append(st.Dependents, s)
			}
			for _, next := range rn.edges[h] {
				if !seen[next] {
					seen[next] = true
					stack = append(stack, next)
				}
			}
		}
	}

	for i, d := range rn.fatal {
		if d.Code != errors.UnresolvedType {
			continue
		}
		if st, ok := rn.states[d.Decl]; ok && len(st.Dependents) > 0 {
			names := make([]string, len(st.Dependents))
			for j, s := range st.Dependents {
				names[j] = rn.g.QualifiedName(s)
			}
			rn.fatal[i].Message += " (required by " + strings.Join(names, ", ") + ")"
		}
	}
}

// checkConsistency drops excluded declarations and reports every remaining
// declaration that sits inside an excluded one.
func (rn *run) checkConsistency() {
	for h := range rn.excluded {
		delete(rn.states, h)
	}
	hs := make([]decl.Handle, 0, len(rn.states))
	for h := range rn.states {
		hs = append(hs, h)
	}
	rn.g.SortHandles(hs)
	for _, h := range hs {
		for _, a := range rn.g.Ancestors(h) {
			if rn.excluded[a] {
				rn.addFatal(errors.ExcludedAncestor, h,
					"declaration has an excluded enclosing declaration: "+rn.g.QualifiedName(a))
				break
			}
		}
	}
}

func (rn *run) diag(sev Severity, code errors.ErrorCode, h decl.Handle, msg string) Diagnostic {
	name := "<unknown>"
	if rn.g.Valid(h) {
		name = rn.g.QualifiedName(h)
	}
	return Diagnostic{Severity: sev, Code: code, Decl: h, Name: name, Message: msg}
}

func (rn *run) addWarning(code errors.ErrorCode, h decl.Handle, msg string) {
	d := rn.diag(SeverityWarning, code, h, msg)
	rn.warnings = append(rn.warnings, d)
	rn.logger.Warn(msg, "declaration", d.Name, "code", string(code))
}

func (rn *run) addFatal(code errors.ErrorCode, h decl.Handle, msg string) {
	rn.fatal = append(rn.fatal, rn.diag(SeverityError, code, h, msg))
}

// failure folds the fatal diagnostics into one error, coded after the
// first category encountered.
func (rn *run) failure() error {
	code := rn.fatal[0].Code
	sort.SliceStable(rn.fatal, func(i, j int) bool {
		return rn.fatal[i].Name < rn.fatal[j].Name
	})
	lines := make([]string, len(rn.fatal))
	for i, d := range rn.fatal {
		lines[i] = d.String()
		rn.logger.Error(d.Message, "declaration", d.Name, "code", string(d.Code))
	}
	err := errors.Newf(code, "closure failed with %d error(s)", len(rn.fatal))
	return err.WithDetails(lines)
}
