// Package docwarn reports included API declarations that carry no
// documentation comment. Warnings never block generation.
package docwarn

import (
	"fmt"
	"log/slog"

	"apiextract/internal/closure"
	"apiextract/internal/decl"
	"apiextract/internal/slogutil"
)

// Warning is one undocumented declaration.
type Warning struct {
	Decl    decl.Handle `json:"-"`
	Kind    string      `json:"kind"`
	Name    string      `json:"name"`
	Message string      `json:"message"`
}

// Check returns a warning for every declaration of res inside basePackages
// that has no documentation, ordered by name. Exempt are deprecated
// declarations, static final long serialVersionUID fields, enum
// constructors, the implicit enum values() and valueOf(String) methods, and
// methods annotated @Override.
func Check(res *closure.Result, basePackages []string, logger *slog.Logger) []Warning {
	logger = slogutil.OrDiscard(logger)
	g := res.Graph()
	c := &checker{g: g, scope: closure.Scope{Base: basePackages}}
	c.override, _ = g.Lookup("java.lang.Override")
	c.str, _ = g.Lookup("java.lang.String")

	var out []Warning
	for _, h := range res.Handles() {
		if !c.applies(h) || g.HasDoc(h) {
			continue
		}
		w := Warning{Decl: h, Kind: g.Kind(h).String(), Name: displayName(g, h)}
		w.Message = fmt.Sprintf("Undocumented public API %s: %s", kindLabel(g.Kind(h)), w.Name)
		logger.Warn(w.Message)
		out = append(out, w)
	}
	return out
}

type checker struct {
	g        *decl.Graph
	scope    closure.Scope
	override decl.Handle
	str      decl.Handle
}

// applies reports whether h is subject to the documentation check.
func (c *checker) applies(h decl.Handle) bool {
	g := c.g
	k := g.Kind(h)
	switch {
	case k.IsType(), k == decl.KindPackage, k.IsVariable() && k != decl.KindParameter, k.IsExecutable():
	default:
		return false
	}
	if !c.scope.Contains(g.QualifiedName(g.Package(h))) || g.IsDeprecated(h) {
		return false
	}

	owner := g.Enclosing(h)
	ownerIsEnum := g.Valid(owner) && g.Kind(owner) == decl.KindEnum
	switch k {
	case decl.KindField:
		if g.Name(h) == "serialVersionUID" && g.Modifiers(h).Has(decl.ModStatic|decl.ModFinal) &&
			isPrim(g.DeclaredType(h), decl.Long) {
			return false
		}
	case decl.KindConstructor:
		if ownerIsEnum {
			return false
		}
	case decl.KindMethod:
		if ownerIsEnum && c.isEnumImplicit(h) {
			return false
		}
		if c.override.IsValid() && g.HasAnnotation(h, c.override) {
			return false
		}
	}
	return true
}

// isEnumImplicit matches values() and valueOf(String) by signature; the
// language declares them whether or not the source spells them out.
func (c *checker) isEnumImplicit(h decl.Handle) bool {
	g := c.g
	params := g.Parameters(h)
	switch g.Name(h) {
	case "values":
		return len(params) == 0
	case "valueOf":
		if len(params) != 1 {
			return false
		}
		t := g.DeclaredType(params[0])
		return t.Kind == decl.TypeDeclared && c.str.IsValid() && t.Decl == c.str
	}
	return false
}

func isPrim(t decl.TypeRef, p decl.Primitive) bool {
	return t.Kind == decl.TypePrimitive && t.Prim == p
}

// displayName names members after their owning type (pkg.Type.member);
// constructors use the type's name.
func displayName(g *decl.Graph, h decl.Handle) string {
	if g.Kind(h) == decl.KindConstructor {
		return g.QualifiedName(g.Enclosing(h))
	}
	return g.QualifiedName(h)
}

func kindLabel(k decl.Kind) string {
	switch k {
	case decl.KindClass:
		return "class"
	case decl.KindInterface:
		return "interface"
	case decl.KindEnum:
		return "enum"
	case decl.KindAnnotation:
		return "annotation"
	case decl.KindEnumConstant:
		return "enum constant"
	}
	return k.String()
}
