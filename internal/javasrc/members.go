//go:build cgo

package javasrc

import (
	sitter "github.com/smacker/go-tree-sitter"

	"apiextract/internal/decl"
)

const accessMods = decl.ModPublic | decl.ModProtected | decl.ModPrivate

// fillSupertypes resolves the superclass and interfaces of td. It runs for
// every type before any member is resolved, so member lookups can see
// inherited member types.
func (st *state) fillSupertypes(td *typeDecl) {
	h, n, u := td.h, td.node, td.u
	sc := st.typeScope(h, u)
	kind := st.b.View().Kind(h)
	qn := st.b.View().QualifiedName(h)

	var super decl.TypeRef
	var interfaces []decl.TypeRef
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch c.Type() {
		case "superclass":
			if ts := st.typeList(c, sc, decl.KindClass); len(ts) > 0 {
				super = ts[0]
			}
		case "super_interfaces", "extends_interfaces":
			interfaces = append(interfaces, st.typeList(c, sc, decl.KindInterface)...)
		}
	}
	if super.IsNone() {
		switch {
		case kind == decl.KindEnum:
			if enum, ok := st.b.JavaLang("Enum"); ok {
				super = decl.Declared(enum, decl.Declared(h))
			}
		case kind == decl.KindClass && qn != "java.lang.Object":
			if obj, ok := st.b.JavaLang("Object"); ok {
				super = decl.Declared(obj)
			}
		}
	}
	if kind == decl.KindAnnotation && len(interfaces) == 0 {
		if ann, ok := st.b.JDKType("java.lang.annotation.Annotation"); ok {
			interfaces = []decl.TypeRef{decl.Declared(ann)}
		}
	}
	d := st.b.Decl(h)
	d.Superclass = super
	d.Interfaces = interfaces
}

// fillType adds the bounds, annotations and members of a declared type.
func (st *state) fillType(td *typeDecl) {
	h, n, u := td.h, td.node, td.u
	sc := st.typeScope(h, u)
	kind := st.b.View().Kind(h)

	for i, tp := range typeParameterNodes(n) {
		bounds := st.bounds(tp, sc)
		st.b.Decl(st.b.View().TypeParameters(h)[i]).Bounds = bounds
		st.queueAnnotations(st.b.View().TypeParameters(h)[i], directAnnotations(tp), sc)
	}

	_, anns := modifiers(n, u.src)
	st.queueAnnotations(h, anns, sc)

	hasConstructor := false
	for _, m := range bodyMembers(n.ChildByFieldName("body")) {
		switch m.Type() {
		case "enum_constant":
			st.addEnumConstant(h, m, sc)
		case "field_declaration", "constant_declaration":
			st.addFields(h, kind, m, sc)
		case "method_declaration":
			st.addMethod(h, kind, m, sc)
		case "constructor_declaration":
			hasConstructor = true
			st.addConstructor(h, kind, m, sc)
		case "annotation_type_element_declaration":
			st.addElement(h, m, sc)
		}
	}

	if kind == decl.KindEnum {
		st.addEnumMethods(h)
	}
	if !hasConstructor && (kind == decl.KindClass || kind == decl.KindEnum) {
		mods := st.b.View().Modifiers(h) & accessMods
		if kind == decl.KindEnum {
			mods = decl.ModPrivate
		}
		st.b.Add(decl.Decl{
			Kind:      decl.KindConstructor,
			Name:      "<init>",
			Mods:      mods,
			Enclosing: h,
			Return:    decl.Prim(decl.Void),
			Implicit:  true,
		})
	}
}

// directAnnotations returns annotation children of n that are not wrapped
// in a modifiers node, as on type parameters.
func directAnnotations(n *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); isAnnotationNode(c) {
			out = append(out, c)
		}
	}
	return out
}

func (st *state) queueAnnotations(h decl.Handle, nodes []*sitter.Node, sc scope) {
	if len(nodes) > 0 {
		st.annotations = append(st.annotations, pendingAnnotations{h: h, nodes: nodes, sc: sc})
	}
}

func (st *state) addEnumConstant(owner decl.Handle, n *sitter.Node, sc scope) {
	name := n.ChildByFieldName("name")
	if name == nil {
		return
	}
	_, anns := modifiers(n, sc.u.src)
	doc, deprecated := docComment(n, sc.u.src)
	h := st.b.Add(decl.Decl{
		Kind:       decl.KindEnumConstant,
		Name:       name.Content(sc.u.src),
		Mods:       decl.ModPublic | decl.ModStatic | decl.ModFinal,
		Enclosing:  owner,
		Type:       decl.Declared(owner),
		HasDoc:     doc,
		Deprecated: deprecated,
	})
	st.queueAnnotations(h, anns, sc)
}

func (st *state) addFields(owner decl.Handle, ownerKind decl.Kind, n *sitter.Node, sc scope) {
	src := sc.u.src
	mods, anns := modifiers(n, src)
	if ownerKind == decl.KindInterface || ownerKind == decl.KindAnnotation {
		mods |= decl.ModPublic | decl.ModStatic | decl.ModFinal
	}
	typeNode := n.ChildByFieldName("type")
	if typeNode == nil {
		return
	}
	base := st.typeRef(typeNode, sc, decl.KindClass)
	doc, deprecated := docComment(n, src)

	for i := 0; i < int(n.NamedChildCount()); i++ {
		v := n.NamedChild(i)
		if v.Type() != "variable_declarator" {
			continue
		}
		name := v.ChildByFieldName("name")
		if name == nil {
			continue
		}
		t := base
		for j := 0; j < countDims(v.ChildByFieldName("dimensions")); j++ {
			t = decl.ArrayOf(t)
		}
		h := st.b.Add(decl.Decl{
			Kind:       decl.KindField,
			Name:       name.Content(src),
			Mods:       mods,
			Enclosing:  owner,
			Type:       t,
			HasDoc:     doc,
			Deprecated: deprecated,
		})
		st.queueAnnotations(h, anns, sc)
		if init := v.ChildByFieldName("value"); init != nil && mods.Has(decl.ModFinal) && isConstantType(st.b.View(), t) {
			st.constants[h] = &pendingConst{expr: init, sc: sc, typ: t}
			st.constOrder = append(st.constOrder, h)
		}
	}
}

// isConstantType reports whether a field of type t can hold a
// compile-time constant: primitives and String.
func isConstantType(g *decl.Graph, t decl.TypeRef) bool {
	switch t.Kind {
	case decl.TypePrimitive:
		return t.Prim != decl.Void
	case decl.TypeDeclared:
		return g.QualifiedName(t.Decl) == "java.lang.String"
	}
	return false
}

func (st *state) addMethod(owner decl.Handle, ownerKind decl.Kind, n *sitter.Node, sc scope) {
	mods, _ := modifiers(n, sc.u.src)
	if ownerKind == decl.KindInterface || ownerKind == decl.KindAnnotation {
		if !mods.Has(decl.ModPrivate) {
			mods |= decl.ModPublic
		}
		if n.ChildByFieldName("body") == nil && !mods.Any(decl.ModStatic|decl.ModDefault|decl.ModPrivate) {
			mods |= decl.ModAbstract
		}
	}
	st.addExecutable(owner, decl.KindMethod, mods, n, sc)
}

func (st *state) addConstructor(owner decl.Handle, ownerKind decl.Kind, n *sitter.Node, sc scope) {
	mods, _ := modifiers(n, sc.u.src)
	if ownerKind == decl.KindEnum {
		mods = mods&^accessMods | decl.ModPrivate
	}
	st.addExecutable(owner, decl.KindConstructor, mods, n, sc)
}

// addExecutable adds a method or constructor with its type parameters,
// parameters, return type and thrown types.
func (st *state) addExecutable(owner decl.Handle, kind decl.Kind, mods decl.Modifiers, n *sitter.Node, sc scope) decl.Handle {
	src := sc.u.src
	name := "<init>"
	if kind == decl.KindMethod {
		nameNode := n.ChildByFieldName("name")
		if nameNode == nil {
			return decl.None
		}
		name = nameNode.Content(src)
	}
	_, anns := modifiers(n, src)
	doc, deprecated := docComment(n, src)
	h := st.b.Add(decl.Decl{
		Kind:       kind,
		Name:       name,
		Mods:       mods,
		Enclosing:  owner,
		HasDoc:     doc,
		Deprecated: deprecated,
	})

	tpNodes := typeParameterNodes(n)
	tps := make(map[string]decl.Handle, len(tpNodes))
	tpHandles := make([]decl.Handle, len(tpNodes))
	for i, tp := range tpNodes {
		tpHandles[i] = st.b.Add(decl.Decl{Kind: decl.KindTypeParameter, Name: typeParameterName(tp, src), Enclosing: h})
		tps[typeParameterName(tp, src)] = tpHandles[i]
	}
	msc := sc.withTypeParams(tps)
	for i, tp := range tpNodes {
		bounds := st.bounds(tp, msc)
		st.b.Decl(tpHandles[i]).Bounds = bounds
		st.queueAnnotations(tpHandles[i], directAnnotations(tp), msc)
	}

	varargs := false
	if params := n.ChildByFieldName("parameters"); params != nil {
		for i := 0; i < int(params.NamedChildCount()); i++ {
			p := params.NamedChild(i)
			switch p.Type() {
			case "formal_parameter":
				st.addParameter(h, p, msc, false)
			case "spread_parameter":
				st.addParameter(h, p, msc, true)
				varargs = true
			}
		}
	}

	ret := decl.Prim(decl.Void)
	if t := n.ChildByFieldName("type"); t != nil && kind == decl.KindMethod {
		ret = st.typeRef(t, msc, decl.KindClass)
		for i := 0; i < countDims(n.ChildByFieldName("dimensions")); i++ {
			ret = decl.ArrayOf(ret)
		}
	}
	var thrown []decl.TypeRef
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c.Type() == "throws" {
			thrown = append(thrown, st.typeList(c, msc, decl.KindClass)...)
		}
	}

	d := st.b.Decl(h)
	d.Return = ret
	d.Thrown = thrown
	d.Varargs = varargs
	st.queueAnnotations(h, anns, msc)
	return h
}

// addParameter adds a formal_parameter or spread_parameter. The type of a
// spread parameter is not a named field, so it is found by node type.
func (st *state) addParameter(owner decl.Handle, n *sitter.Node, sc scope, spread bool) {
	src := sc.u.src
	mods, anns := modifiers(n, src)
	var typeNode, nameNode, dims *sitter.Node
	if spread {
		for i := 0; i < int(n.NamedChildCount()); i++ {
			c := n.NamedChild(i)
			switch {
			case isTypeNode(c) && typeNode == nil:
				typeNode = c
			case c.Type() == "variable_declarator":
				nameNode = c.ChildByFieldName("name")
				dims = c.ChildByFieldName("dimensions")
			case c.Type() == "identifier" && nameNode == nil:
				nameNode = c
			}
		}
	} else {
		typeNode = n.ChildByFieldName("type")
		nameNode = n.ChildByFieldName("name")
		dims = n.ChildByFieldName("dimensions")
	}
	if typeNode == nil || nameNode == nil {
		return
	}
	t := st.typeRef(typeNode, sc, decl.KindClass)
	for i := 0; i < countDims(dims); i++ {
		t = decl.ArrayOf(t)
	}
	if spread {
		t = decl.ArrayOf(t)
	}
	h := st.b.Add(decl.Decl{
		Kind:      decl.KindParameter,
		Name:      nameNode.Content(src),
		Mods:      mods & decl.ModFinal,
		Enclosing: owner,
		Type:      t,
	})
	st.queueAnnotations(h, anns, sc)
}

// addElement adds an annotation type element: a public abstract method
// with an optional default value.
func (st *state) addElement(owner decl.Handle, n *sitter.Node, sc scope) {
	src := sc.u.src
	nameNode := n.ChildByFieldName("name")
	typeNode := n.ChildByFieldName("type")
	if nameNode == nil || typeNode == nil {
		return
	}
	ret := st.typeRef(typeNode, sc, decl.KindClass)
	for i := 0; i < countDims(n.ChildByFieldName("dimensions")); i++ {
		ret = decl.ArrayOf(ret)
	}
	mods, anns := modifiers(n, src)
	doc, deprecated := docComment(n, src)
	h := st.b.Add(decl.Decl{
		Kind:       decl.KindMethod,
		Name:       nameNode.Content(src),
		Mods:       mods | decl.ModPublic | decl.ModAbstract,
		Enclosing:  owner,
		Return:     ret,
		HasDoc:     doc,
		Deprecated: deprecated,
	})
	st.queueAnnotations(h, anns, sc)
	if v := n.ChildByFieldName("value"); v != nil {
		st.defaults = append(st.defaults, pendingDefault{h: h, node: v, sc: sc})
	}
}

// addEnumMethods adds the implicit values() and valueOf(String) methods.
func (st *state) addEnumMethods(h decl.Handle) {
	self := decl.Declared(h)
	st.b.Add(decl.Decl{
		Kind:      decl.KindMethod,
		Name:      "values",
		Mods:      decl.ModPublic | decl.ModStatic,
		Enclosing: h,
		Return:    decl.ArrayOf(self),
		Implicit:  true,
	})
	str, _ := st.b.JavaLang("String")
	valueOf := st.b.Add(decl.Decl{
		Kind:      decl.KindMethod,
		Name:      "valueOf",
		Mods:      decl.ModPublic | decl.ModStatic,
		Enclosing: h,
		Return:    self,
		Implicit:  true,
	})
	st.b.Add(decl.Decl{
		Kind:      decl.KindParameter,
		Name:      "name",
		Enclosing: valueOf,
		Type:      decl.Declared(str),
	})
}
