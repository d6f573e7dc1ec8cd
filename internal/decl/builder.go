package decl

import (
	"fmt"
	"strings"
)

// Builder accumulates declarations and produces a Graph. It is the only way
// to create or mutate declarations; hosts use it while translating their own
// model and then hand out the finished Graph.
type Builder struct {
	g   *Graph
	err error
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{g: &Graph{
		decls:  make([]Decl, 1, 64),
		byName: make(map[string]Handle),
	}}
}

// Package returns the package called name, creating it on first use. The
// unnamed package is "".
func (b *Builder) Package(name string) Handle {
	if h, ok := b.g.byName[name]; ok && b.g.Kind(h) == KindPackage {
		return h
	}
	return b.Add(Decl{Kind: KindPackage, Name: name, Mods: ModPublic})
}

// Add appends d and links it into its enclosing declaration: parameters go
// to Params, type parameters to TypeParams, everything else to Members.
// Packages and types are registered by qualified name.
func (b *Builder) Add(d Decl) Handle {
	if d.Kind == KindInvalid {
		panic("decl: Add with invalid kind")
	}
	if d.Enclosing != None && !b.g.Valid(d.Enclosing) {
		panic(fmt.Sprintf("decl: Add %s %q with unknown enclosing handle %d", d.Kind, d.Name, d.Enclosing))
	}
	b.g.decls = append(b.g.decls, d)
	h := Handle(len(b.g.decls) - 1)

	if d.Enclosing != None {
		parent := &b.g.decls[d.Enclosing]
		switch d.Kind {
		case KindParameter:
			parent.Params = append(parent.Params, h)
		case KindTypeParameter:
			parent.TypeParams = append(parent.TypeParams, h)
		default:
			parent.Members = append(parent.Members, h)
		}
	}

	if d.Kind == KindPackage || d.Kind.IsType() {
		qn := b.g.QualifiedName(h)
		if prev, dup := b.g.byName[qn]; dup {
			b.fail(fmt.Errorf("duplicate declaration %s (%s and %s)", qn, b.g.Kind(prev), d.Kind))
		} else {
			b.g.byName[qn] = h
		}
	}
	return h
}

// External declares a type that lives outside the parsed sources, such as
// java.lang.Object. names is the nesting path below pkg; intermediate types
// are created as public static classes when missing.
func (b *Builder) External(pkg string, kind Kind, mods Modifiers, names ...string) Handle {
	if len(names) == 0 {
		panic("decl: External without a type name")
	}
	parent := b.Package(pkg)
	qn := pkg
	for i, name := range names {
		if qn == "" {
			qn = name
		} else {
			qn = qn + "." + name
		}
		if h, ok := b.g.byName[qn]; ok {
			parent = h
			continue
		}
		k, m := KindClass, ModPublic
		if i > 0 {
			m |= ModStatic
		}
		if i == len(names)-1 {
			k, m = kind, mods
		}
		parent = b.Add(Decl{Kind: k, Name: name, Mods: m, Enclosing: parent})
	}
	return parent
}

// Lookup finds a package or type by qualified name while building.
func (b *Builder) Lookup(qualifiedName string) (Handle, bool) {
	return b.g.Lookup(qualifiedName)
}

// Decl gives mutable access to a declaration added earlier, for hosts that
// resolve references in a second pass. Membership lists must not be edited
// directly.
func (b *Builder) Decl(h Handle) *Decl {
	if !b.g.Valid(h) {
		panic(fmt.Sprintf("decl: unknown handle %d", h))
	}
	return &b.g.decls[h]
}

// View exposes the graph under construction for read-only queries such as
// QualifiedName. It must not be retained past Graph.
func (b *Builder) View() *Graph {
	return b.g
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Graph finishes the build. The builder must not be used afterwards.
func (b *Builder) Graph() (*Graph, error) {
	if b.err != nil {
		return nil, b.err
	}
	g := b.g
	b.g = nil
	return g, nil
}

// SplitQualified splits a dotted name at its last dot.
func SplitQualified(name string) (prefix, simple string) {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return "", name
	}
	return name[:i], name[i+1:]
}
