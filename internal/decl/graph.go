package decl

import (
	"sort"
	"strings"
)

// Handle addresses a declaration inside one Graph. The zero Handle is "none".
type Handle uint32

// None is the absent handle.
const None Handle = 0

// IsValid reports whether h refers to a declaration.
func (h Handle) IsValid() bool {
	return h != None
}

// Decl is one node of the declaration graph. Which fields are meaningful
// depends on Kind; unused fields stay at their zero value.
type Decl struct {
	Kind        Kind
	Name        string // simple name; dotted full name for packages
	Mods        Modifiers
	Enclosing   Handle
	Annotations []Annotation
	Deprecated  bool
	HasDoc      bool
	// Implicit marks declarations the language supplies without source text
	// (default constructors, enum values/valueOf).
	Implicit bool

	// Type declarations and packages.
	Superclass TypeRef
	Interfaces []TypeRef
	Members    []Handle // declaration order
	Retention  Retention

	// Generic declarations.
	TypeParams []Handle

	// Constructors and methods.
	Params  []Handle
	Return  TypeRef
	Thrown  []TypeRef
	Varargs bool
	Default *AnnotationValue // annotation type element default

	// Fields, enum constants and parameters.
	Type     TypeRef
	Constant Constant

	// Type parameters.
	Bounds []TypeRef
}

// Graph is an immutable arena of declarations.
type Graph struct {
	decls  []Decl // index 0 is the None sentinel
	byName map[string]Handle
}

// Len returns the number of declarations.
func (g *Graph) Len() int {
	return len(g.decls) - 1
}

// Handles returns every handle in creation order.
func (g *Graph) Handles() []Handle {
	out := make([]Handle, 0, g.Len())
	for i := 1; i < len(g.decls); i++ {
		out = append(out, Handle(i))
	}
	return out
}

func (g *Graph) get(h Handle) *Decl {
	if h == None || int(h) >= len(g.decls) {
		return &g.decls[0]
	}
	return &g.decls[h]
}

// Valid reports whether h was issued by g.
func (g *Graph) Valid(h Handle) bool {
	return h != None && int(h) < len(g.decls)
}

func (g *Graph) Kind(h Handle) Kind { return g.get(h).Kind }
func (g *Graph) Name(h Handle) string { return g.get(h).Name }
func (g *Graph) Modifiers(h Handle) Modifiers { return g.get(h).Mods }
func (g *Graph) Enclosing(h Handle) Handle { return g.get(h).Enclosing }
func (g *Graph) Annotations(h Handle) []Annotation { return g.get(h).Annotations }
func (g *Graph) IsDeprecated(h Handle) bool { return g.get(h).Deprecated }
func (g *Graph) HasDoc(h Handle) bool { return g.get(h).HasDoc }
func (g *Graph) IsImplicit(h Handle) bool { return g.get(h).Implicit }
func (g *Graph) Superclass(h Handle) TypeRef { return g.get(h).Superclass }
func (g *Graph) Interfaces(h Handle) []TypeRef { return g.get(h).Interfaces }
func (g *Graph) TypeParameters(h Handle) []Handle { return g.get(h).TypeParams }
func (g *Graph) Parameters(h Handle) []Handle { return g.get(h).Params }
func (g *Graph) ReturnType(h Handle) TypeRef { return g.get(h).Return }
func (g *Graph) ThrownTypes(h Handle) []TypeRef { return g.get(h).Thrown }
func (g *Graph) IsVarargs(h Handle) bool { return g.get(h).Varargs }
func (g *Graph) DeclaredType(h Handle) TypeRef { return g.get(h).Type }
func (g *Graph) Bounds(h Handle) []TypeRef { return g.get(h).Bounds }
func (g *Graph) Retention(h Handle) Retention { return g.get(h).Retention }

// EnclosedDeclarations returns members in declaration order. For a package
// these are its top-level types.
func (g *Graph) EnclosedDeclarations(h Handle) []Handle {
	return g.get(h).Members
}

// Constructors returns the constructors of type h in declaration order.
func (g *Graph) Constructors(h Handle) []Handle {
	var out []Handle
	for _, m := range g.get(h).Members {
		if g.get(m).Kind == KindConstructor {
			out = append(out, m)
		}
	}
	return out
}

// AnnotationDefault returns the default value of an annotation type element.
func (g *Graph) AnnotationDefault(h Handle) (AnnotationValue, bool) {
	d := g.get(h).Default
	if d == nil {
		return AnnotationValue{}, false
	}
	return *d, true
}

// ConstantValue returns the compile-time constant of a field.
func (g *Graph) ConstantValue(h Handle) (Constant, bool) {
	c := g.get(h).Constant
	return c, c.IsValid()
}

// Ancestors returns the enclosing chain of h, nearest first, excluding h.
func (g *Graph) Ancestors(h Handle) []Handle {
	var out []Handle
	for e := g.Enclosing(h); e != None; e = g.Enclosing(e) {
		out = append(out, e)
	}
	return out
}

// Package returns the package that (transitively) encloses h, or h itself
// when h is a package.
func (g *Graph) Package(h Handle) Handle {
	for h != None && g.Kind(h) != KindPackage {
		h = g.Enclosing(h)
	}
	return h
}

// EnclosingType returns the nearest type strictly enclosing h.
func (g *Graph) EnclosingType(h Handle) Handle {
	for e := g.Enclosing(h); e != None; e = g.Enclosing(e) {
		if g.Kind(e).IsType() {
			return e
		}
	}
	return None
}

// NearestTypeOrPackage returns h itself when it is a type or package,
// otherwise its nearest enclosing type or package.
func (g *Graph) NearestTypeOrPackage(h Handle) Handle {
	for h != None {
		k := g.Kind(h)
		if k.IsType() || k == KindPackage {
			return h
		}
		h = g.Enclosing(h)
	}
	return None
}

// IsNested reports whether type h is declared inside another type.
func (g *Graph) IsNested(h Handle) bool {
	return g.Kind(h).IsType() && g.Kind(g.Enclosing(h)).IsType()
}

// QualifiedName returns the dotted canonical name of h. Members and
// parameters are named relative to their owner (pkg.Type.member).
func (g *Graph) QualifiedName(h Handle) string {
	d := g.get(h)
	if d.Kind == KindPackage || d.Enclosing == None {
		return d.Name
	}
	parent := g.QualifiedName(d.Enclosing)
	if parent == "" {
		return d.Name
	}
	return parent + "." + d.Name
}

// InternalName returns the slash-separated binary name of a type
// (com/example/Outer$Inner).
func (g *Graph) InternalName(h Handle) string {
	d := g.get(h)
	if g.IsNested(h) {
		return g.InternalName(d.Enclosing) + "$" + d.Name
	}
	pkg := g.QualifiedName(g.Package(h))
	if pkg == "" {
		return d.Name
	}
	return strings.ReplaceAll(pkg, ".", "/") + "/" + d.Name
}

// BinaryName returns the dotted binary name of a type (com.example.Outer$Inner).
func (g *Graph) BinaryName(h Handle) string {
	return strings.ReplaceAll(g.InternalName(h), "/", ".")
}

// Lookup finds a package or type by qualified name.
func (g *Graph) Lookup(qualifiedName string) (Handle, bool) {
	h, ok := g.byName[qualifiedName]
	return h, ok
}

// MembersNamed returns the members of type h called name, in declaration order.
func (g *Graph) MembersNamed(h Handle, name string) []Handle {
	var out []Handle
	for _, m := range g.get(h).Members {
		if g.get(m).Name == name {
			out = append(out, m)
		}
	}
	return out
}

// HasAnnotation reports whether h carries an annotation of type ann.
func (g *Graph) HasAnnotation(h Handle, ann Handle) bool {
	_, ok := g.FindAnnotation(h, ann)
	return ok
}

// FindAnnotation returns the annotation of type ann on h.
func (g *Graph) FindAnnotation(h Handle, ann Handle) (Annotation, bool) {
	for _, a := range g.get(h).Annotations {
		if a.Type == ann {
			return a, true
		}
	}
	return Annotation{}, false
}

// SortHandles orders handles by qualified name, breaking ties (overloads) by
// handle value so the order is stable for one graph.
func (g *Graph) SortHandles(hs []Handle) {
	sort.Slice(hs, func(i, j int) bool {
		qi, qj := g.QualifiedName(hs[i]), g.QualifiedName(hs[j])
		if qi != qj {
			return qi < qj
		}
		return hs[i] < hs[j]
	})
}
