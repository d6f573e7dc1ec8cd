//go:build cgo

package javasrc

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"apiextract/internal/decl"
)

// resolveAnnotations reads every queued annotation use and element
// default, then applies @Deprecated and @Retention.
func (st *state) resolveAnnotations() {
	for _, pa := range st.annotations {
		var anns []decl.Annotation
		for _, n := range pa.nodes {
			a, err := st.annotation(n, pa.sc)
			if err != nil {
				st.problem(pa.sc.u, n, "%v", err)
				continue
			}
			anns = append(anns, a)
		}
		st.applyAnnotations(pa.h, anns)
	}
	for _, pd := range st.defaults {
		want := st.b.View().ReturnType(pd.h)
		v, err := st.elementValue(pd.node, want, pd.sc)
		if err != nil {
			st.problem(pd.sc.u, pd.node, "default of %s: %v", st.b.View().Name(pd.h), err)
			continue
		}
		st.b.Decl(pd.h).Default = &v
	}
}

func (st *state) applyAnnotations(h decl.Handle, anns []decl.Annotation) {
	g := st.b.View()
	deprecated := false
	retention, hasRetention := decl.RetentionClass, false
	for _, a := range anns {
		switch g.QualifiedName(a.Type) {
		case "java.lang.Deprecated":
			deprecated = true
		case "java.lang.annotation.Retention":
			if v, ok := a.Value("value"); ok && v.Kind == decl.ValueEnum {
				retention, hasRetention = decl.ParseRetention(v.EnumName)
			}
		}
	}
	d := st.b.Decl(h)
	d.Annotations = append(d.Annotations, anns...)
	d.Deprecated = d.Deprecated || deprecated
	if hasRetention && d.Kind == decl.KindAnnotation {
		d.Retention = retention
	}
}

// annotation reads a marker_annotation or annotation node.
func (st *state) annotation(n *sitter.Node, sc scope) (decl.Annotation, error) {
	src := sc.u.src
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return decl.Annotation{}, fmt.Errorf("annotation without a name")
	}
	name := dottedName(nameNode, src)
	h, used := st.resolveName(strings.Split(name, "."), sc, decl.KindAnnotation, true)
	if h == decl.None || used != len(strings.Split(name, ".")) {
		return decl.Annotation{}, fmt.Errorf("unknown annotation type %s", name)
	}
	st.adjustExternal(h, decl.KindAnnotation)
	if st.b.View().Kind(h) != decl.KindAnnotation {
		return decl.Annotation{}, fmt.Errorf("%s is not an annotation type", name)
	}

	a := decl.Annotation{Type: h}
	args := n.ChildByFieldName("arguments")
	if args == nil {
		return a, nil
	}
	for i := 0; i < int(args.NamedChildCount()); i++ {
		c := args.NamedChild(i)
		if c.Type() == "block_comment" || c.Type() == "line_comment" {
			continue
		}
		key, valueNode := "value", c
		if c.Type() == "element_value_pair" {
			k, v := c.ChildByFieldName("key"), c.ChildByFieldName("value")
			if k == nil || v == nil {
				continue
			}
			key, valueNode = k.Content(src), v
		}
		v, err := st.elementValue(valueNode, st.elementType(h, key), sc)
		if err != nil {
			return decl.Annotation{}, fmt.Errorf("@%s(%s): %v", name, key, err)
		}
		a.Values = append(a.Values, decl.ElementValue{Name: key, Value: v})
	}
	return a, nil
}

// elementType returns the declared type of element name, or NoType when
// the annotation type is not parsed.
func (st *state) elementType(ann decl.Handle, name string) decl.TypeRef {
	g := st.b.View()
	for _, m := range g.MembersNamed(ann, name) {
		if g.Kind(m) == decl.KindMethod {
			return g.ReturnType(m)
		}
	}
	return decl.NoType
}

// elementValue reads an element value. want is the element type; array
// elements given without braces become one-element arrays.
func (st *state) elementValue(n *sitter.Node, want decl.TypeRef, sc scope) (decl.AnnotationValue, error) {
	g := st.b.View()
	switch n.Type() {
	case "element_value_array_initializer":
		elemWant := decl.NoType
		if want.Kind == decl.TypeArray {
			elemWant = *want.Elem
		}
		var elems []decl.AnnotationValue
		for i := 0; i < int(n.NamedChildCount()); i++ {
			c := n.NamedChild(i)
			if c.Type() == "block_comment" || c.Type() == "line_comment" {
				continue
			}
			v, err := st.elementValue(c, elemWant, sc)
			if err != nil {
				return decl.AnnotationValue{}, err
			}
			elems = append(elems, v)
		}
		return decl.ArrayValue(elems...), nil
	}
	if want.Kind == decl.TypeArray {
		v, err := st.elementValue(n, *want.Elem, sc)
		if err != nil {
			return decl.AnnotationValue{}, err
		}
		return decl.ArrayValue(v), nil
	}

	switch n.Type() {
	case "marker_annotation", "annotation":
		a, err := st.annotation(n, sc)
		if err != nil {
			return decl.AnnotationValue{}, err
		}
		return decl.NestedValue(a), nil
	case "class_literal":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if c := n.NamedChild(i); isTypeNode(c) {
				return decl.ClassValue(st.typeRef(c, sc, decl.KindClass)), nil
			}
		}
		return decl.AnnotationValue{}, fmt.Errorf("invalid class literal %s", n.Content(sc.u.src))
	}

	wantEnum := want.Kind == decl.TypeDeclared && g.Kind(want.Decl) == decl.KindEnum
	if v, ok := st.enumConstant(n, want, wantEnum, sc); ok {
		return v, nil
	}
	c, ok := st.eval(n, sc)
	if !ok {
		return decl.AnnotationValue{}, fmt.Errorf("%s is not a constant", n.Content(sc.u.src))
	}
	if isConstantType(g, want) {
		conv, ok := assignConstant(g, c, want)
		if !ok {
			return decl.AnnotationValue{}, fmt.Errorf("%s is not a %s", n.Content(sc.u.src), typeName(g, want))
		}
		c = conv
	}
	return decl.ConstValue(c), nil
}

// enumConstant recognizes Type.CONSTANT, or a bare CONSTANT when the
// element type is an enum or the name is statically imported. References
// to types outside the sources are taken as enum constants when the
// element type is unknown.
func (st *state) enumConstant(n *sitter.Node, want decl.TypeRef, wantEnum bool, sc scope) (decl.AnnotationValue, bool) {
	g := st.b.View()
	src := sc.u.src
	switch n.Type() {
	case "field_access":
		t, name, ok := st.staticReference(n, sc)
		if !ok {
			return decl.AnnotationValue{}, false
		}
		if g.Kind(t) == decl.KindEnum || st.externals[t] && want.IsNone() {
			st.adjustExternal(t, decl.KindEnum)
			return decl.EnumValue(t, name), true
		}
	case "identifier":
		name := n.Content(src)
		if wantEnum {
			return decl.EnumValue(want.Decl, name), true
		}
		if owner, ok := sc.u.staticImports[name]; ok && want.IsNone() {
			names := strings.Split(owner, ".")
			if t, used := st.resolveName(names, sc, decl.KindEnum, true); t != decl.None && used == len(names) && g.Kind(t) == decl.KindEnum {
				return decl.EnumValue(t, name), true
			}
		}
	}
	return decl.AnnotationValue{}, false
}

func typeName(g *decl.Graph, t decl.TypeRef) string {
	if t.Kind == decl.TypePrimitive {
		return t.Prim.String()
	}
	return g.Name(t.Decl)
}
