package javasrc

import (
	"apiextract/internal/closure"
	"apiextract/internal/decl"
)

// discoverSeeds turns uses of the include and exclude marker annotations
// into seeds, in declaration order. A declaration carrying both markers
// yields both seeds; the resolver reports the conflict.
func discoverSeeds(g *decl.Graph, include, exclude string) []closure.Seed {
	inc, hasInc := g.Lookup(include)
	exc, hasExc := g.Lookup(exclude)
	if !hasInc && !hasExc {
		return nil
	}
	var seeds []closure.Seed
	for _, h := range g.Handles() {
		if hasInc {
			if a, ok := g.FindAnnotation(h, inc); ok {
				seeds = append(seeds, closure.Seed{
					Decl:           h,
					IncludeMembers: tristate(a, "includeMembers"),
					Unconstantize:  tristate(a, "unconstantize"),
				})
			}
		}
		if hasExc && g.HasAnnotation(h, exc) {
			seeds = append(seeds, closure.Seed{Decl: h, Excluded: true})
		}
	}
	return seeds
}

// tristate reads a DefaultableBoolean-style element: an enum constant
// named TRUE, FALSE or DEFAULT, or a plain boolean.
func tristate(a decl.Annotation, name string) closure.Tristate {
	v, ok := a.Value(name)
	if !ok {
		return closure.Default
	}
	switch {
	case v.Kind == decl.ValueEnum:
		t, err := closure.ParseTristate(v.EnumName)
		if err == nil {
			return t
		}
	case v.Kind == decl.ValueConst && v.Const.Kind == decl.ConstBool:
		if v.Const.I != 0 {
			return closure.True
		}
		return closure.False
	}
	return closure.Default
}
