//go:build cgo

package javasrc

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"apiextract/internal/decl"
)

const (
	constPending uint8 = iota + 1
	constDone
)

// evaluateConstants computes the value of every final field with an
// initializer of primitive or String type. Fields whose initializer is not
// a constant expression simply get no value.
func (st *state) evaluateConstants() {
	for _, h := range st.constOrder {
		st.constantOf(h)
	}
}

// constantOf returns the constant value of field h, evaluating it on first
// use. Cyclic references yield no value.
func (st *state) constantOf(h decl.Handle) (decl.Constant, bool) {
	switch st.constState[h] {
	case constDone:
		c := st.b.Decl(h).Constant
		return c, c.IsValid()
	case constPending:
		return decl.Constant{}, false
	}
	pc, ok := st.constants[h]
	if !ok {
		return decl.Constant{}, false
	}
	st.constState[h] = constPending
	c, ok := st.eval(pc.expr, pc.sc)
	if ok {
		c, ok = assignConstant(st.b.View(), c, pc.typ)
	}
	if !ok {
		c = decl.Constant{}
	}
	st.b.Decl(h).Constant = c
	st.constState[h] = constDone
	return c, ok
}

// assignConstant converts c to the declared type t of a constant variable.
func assignConstant(g *decl.Graph, c decl.Constant, t decl.TypeRef) (decl.Constant, bool) {
	if t.Kind == decl.TypeDeclared {
		return c, c.Kind == decl.ConstString
	}
	if t.Kind != decl.TypePrimitive {
		return decl.Constant{}, false
	}
	if (t.Prim == decl.Boolean) != (c.Kind == decl.ConstBool) || c.Kind == decl.ConstString {
		return decl.Constant{}, false
	}
	return c.NarrowTo(t.Prim), true
}

// eval computes the constant value of an expression node.
func (st *state) eval(n *sitter.Node, sc scope) (decl.Constant, bool) {
	if n == nil {
		return decl.Constant{}, false
	}
	src := sc.u.src
	text := n.Content(src)
	switch n.Type() {
	case "decimal_integer_literal", "hex_integer_literal", "octal_integer_literal", "binary_integer_literal":
		c, err := parseIntLiteral(text)
		if err != nil {
			st.problem(sc.u, n, "%v", err)
			return decl.Constant{}, false
		}
		return c, true
	case "decimal_floating_point_literal", "hex_floating_point_literal":
		c, err := parseFloatLiteral(text)
		if err != nil {
			st.problem(sc.u, n, "%v", err)
			return decl.Constant{}, false
		}
		return c, true
	case "true", "false":
		return decl.BoolConst(text == "true"), true
	case "character_literal":
		c, err := parseCharLiteral(text)
		if err != nil {
			st.problem(sc.u, n, "%v", err)
			return decl.Constant{}, false
		}
		return c, true
	case "string_literal", "text_block":
		s, err := parseStringLiteral(text)
		if err != nil {
			st.problem(sc.u, n, "%v", err)
			return decl.Constant{}, false
		}
		return decl.StringConst(s), true
	case "parenthesized_expression":
		if n.NamedChildCount() == 1 {
			return st.eval(n.NamedChild(0), sc)
		}
	case "unary_expression":
		op, operand := n.ChildByFieldName("operator"), n.ChildByFieldName("operand")
		if op == nil || operand == nil {
			break
		}
		v, ok := st.eval(operand, sc)
		if !ok {
			break
		}
		return unary(op.Content(src), v)
	case "binary_expression":
		l, op, r := n.ChildByFieldName("left"), n.ChildByFieldName("operator"), n.ChildByFieldName("right")
		if l == nil || op == nil || r == nil {
			break
		}
		lv, ok := st.eval(l, sc)
		if !ok {
			break
		}
		rv, ok := st.eval(r, sc)
		if !ok {
			break
		}
		return binary(op.Content(src), lv, rv)
	case "ternary_expression":
		cond, ok := st.eval(n.ChildByFieldName("condition"), sc)
		if !ok || cond.Kind != decl.ConstBool {
			break
		}
		a, aok := st.eval(n.ChildByFieldName("consequence"), sc)
		b, bok := st.eval(n.ChildByFieldName("alternative"), sc)
		if !aok || !bok {
			break
		}
		return ternary(cond.I != 0, a, b)
	case "cast_expression":
		t, v := n.ChildByFieldName("type"), n.ChildByFieldName("value")
		if t == nil || v == nil {
			break
		}
		c, ok := st.eval(v, sc)
		if !ok {
			break
		}
		return assignConstant(st.b.View(), c, st.typeRef(t, sc, decl.KindClass))
	case "identifier":
		return st.constantNamed(text, sc)
	case "field_access":
		return st.qualifiedConstant(n, sc)
	}
	return decl.Constant{}, false
}

// constantNamed resolves a simple field name through the enclosing chain
// and its supertypes, then static imports.
func (st *state) constantNamed(name string, sc scope) (decl.Constant, bool) {
	for _, e := range sc.enclosing {
		if f := st.findField(e, name, map[decl.Handle]bool{}); f != decl.None {
			return st.constantOf(f)
		}
	}
	owners := sc.u.staticOnDemand
	if owner, ok := sc.u.staticImports[name]; ok {
		owners = []string{owner}
	}
	for _, owner := range owners {
		t, n := st.resolveName(strings.Split(owner, "."), sc, decl.KindClass, false)
		if t == decl.None || n != len(strings.Split(owner, ".")) {
			continue
		}
		if f := st.findField(t, name, map[decl.Handle]bool{}); f != decl.None {
			return st.constantOf(f)
		}
	}
	return decl.Constant{}, false
}

// qualifiedConstant resolves Type.FIELD where Type may itself be qualified.
func (st *state) qualifiedConstant(n *sitter.Node, sc scope) (decl.Constant, bool) {
	t, field, ok := st.staticReference(n, sc)
	if !ok {
		return decl.Constant{}, false
	}
	if f := st.findField(t, field, map[decl.Handle]bool{}); f != decl.None {
		return st.constantOf(f)
	}
	return decl.Constant{}, false
}

// staticReference splits a field_access whose object names a type.
func (st *state) staticReference(n *sitter.Node, sc scope) (decl.Handle, string, bool) {
	obj, field := n.ChildByFieldName("object"), n.ChildByFieldName("field")
	if obj == nil || field == nil {
		return decl.None, "", false
	}
	names, ok := accessPath(obj, sc.u.src)
	if !ok {
		return decl.None, "", false
	}
	t, used := st.resolveName(names, sc, decl.KindClass, false)
	if t == decl.None {
		return decl.None, "", false
	}
	g := st.b.View()
	for _, name := range names[used:] {
		inner, ok := g.Lookup(g.QualifiedName(t) + "." + name)
		if !ok || !g.Kind(inner).IsType() {
			return decl.None, "", false
		}
		t = inner
	}
	return t, field.Content(sc.u.src), true
}

// accessPath flattens a chain of identifiers and field accesses.
func accessPath(n *sitter.Node, src []byte) ([]string, bool) {
	switch n.Type() {
	case "identifier", "type_identifier":
		return []string{n.Content(src)}, true
	case "field_access":
		obj, field := n.ChildByFieldName("object"), n.ChildByFieldName("field")
		if obj == nil || field == nil {
			return nil, false
		}
		head, ok := accessPath(obj, src)
		if !ok {
			return nil, false
		}
		return append(head, field.Content(src)), true
	}
	return nil, false
}

// findField looks up a field or enum constant declared in t or inherited
// from its supertypes.
func (st *state) findField(t decl.Handle, name string, seen map[decl.Handle]bool) decl.Handle {
	if seen[t] {
		return decl.None
	}
	seen[t] = true
	g := st.b.View()
	for _, m := range g.MembersNamed(t, name) {
		if k := g.Kind(m); k == decl.KindField || k == decl.KindEnumConstant {
			return m
		}
	}
	supers := append([]decl.TypeRef{g.Superclass(t)}, g.Interfaces(t)...)
	for _, s := range supers {
		if s.Kind != decl.TypeDeclared {
			continue
		}
		if f := st.findField(s.Decl, name, seen); f != decl.None {
			return f
		}
	}
	return decl.None
}
