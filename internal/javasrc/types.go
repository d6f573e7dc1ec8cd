//go:build cgo

package javasrc

import (
	"strings"
	"unicode"

	sitter "github.com/smacker/go-tree-sitter"

	"apiextract/internal/decl"
)

// segment is one name of a possibly qualified, possibly parameterized type.
type segment struct {
	name string
	args *sitter.Node // type_arguments, or nil
}

// typeScope rebuilds the resolution scope of type h from its enclosing chain.
func (st *state) typeScope(h decl.Handle, u *unit) scope {
	g := st.b.View()
	chain := []decl.Handle{h}
	for e := g.Enclosing(h); g.Kind(e).IsType(); e = g.Enclosing(e) {
		chain = append(chain, e)
	}
	sc := scope{u: u}
	for i := len(chain) - 1; i >= 0; i-- {
		sc = scope{
			u:          u,
			enclosing:  append([]decl.Handle{chain[i]}, sc.enclosing...),
			typeParams: append([]map[string]decl.Handle{st.typeParamMap(chain[i])}, sc.typeParams...),
		}
	}
	return sc
}

func (st *state) typeParamMap(h decl.Handle) map[string]decl.Handle {
	g := st.b.View()
	m := make(map[string]decl.Handle)
	for _, tp := range g.TypeParameters(h) {
		m[g.Name(tp)] = tp
	}
	return m
}

// bounds resolves the type_bound of a type_parameter node.
func (st *state) bounds(tp *sitter.Node, sc scope) []decl.TypeRef {
	var out []decl.TypeRef
	for i := 0; i < int(tp.NamedChildCount()); i++ {
		c := tp.NamedChild(i)
		if c.Type() != "type_bound" {
			continue
		}
		for _, t := range typeChildren(c) {
			out = append(out, st.typeRef(t, sc, decl.KindClass))
		}
	}
	return out
}

// typeChildren returns the named children of n that are types.
func typeChildren(n *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if isTypeNode(c) {
			out = append(out, c)
		}
	}
	return out
}

func isTypeNode(n *sitter.Node) bool {
	switch n.Type() {
	case "void_type", "integral_type", "floating_point_type", "boolean_type",
		"type_identifier", "scoped_type_identifier", "generic_type",
		"array_type", "annotated_type":
		return true
	}
	return false
}

// typeList resolves the types of a superclass, super_interfaces,
// extends_interfaces or throws node.
func (st *state) typeList(n *sitter.Node, sc scope, hint decl.Kind) []decl.TypeRef {
	var out []decl.TypeRef
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() == "type_list" {
			out = append(out, st.typeList(c, sc, hint)...)
			continue
		}
		if isTypeNode(c) {
			out = append(out, st.typeRef(c, sc, hint))
		}
	}
	return out
}

// typeRef resolves a type node. hint is the kind an external type created
// for an unknown name should get.
func (st *state) typeRef(n *sitter.Node, sc scope, hint decl.Kind) decl.TypeRef {
	src := sc.u.src
	switch n.Type() {
	case "void_type", "integral_type", "floating_point_type", "boolean_type":
		if p, ok := decl.ParsePrimitive(n.Content(src)); ok {
			return decl.Prim(p)
		}
	case "array_type":
		elem := n.ChildByFieldName("element")
		if elem == nil {
			break
		}
		t := st.typeRef(elem, sc, hint)
		for i := 0; i < countDims(n.ChildByFieldName("dimensions")); i++ {
			t = decl.ArrayOf(t)
		}
		return t
	case "annotated_type":
		for i := int(n.NamedChildCount()) - 1; i >= 0; i-- {
			if c := n.NamedChild(i); isTypeNode(c) {
				return st.typeRef(c, sc, hint)
			}
		}
	case "type_identifier", "scoped_type_identifier", "generic_type":
		return st.resolveSegments(segments(n, src), sc, hint)
	case "wildcard":
		return st.wildcard(n, sc)
	}
	return decl.ErrorType(n.Content(src))
}

func (st *state) wildcard(n *sitter.Node, sc scope) decl.TypeRef {
	ext, sup := decl.NoType, decl.NoType
	bound := ""
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		switch {
		case c.Type() == "extends" || c.Type() == "super":
			bound = c.Type()
		case isTypeNode(c) && bound == "extends":
			ext = st.typeRef(c, sc, decl.KindClass)
		case isTypeNode(c) && bound == "super":
			sup = st.typeRef(c, sc, decl.KindClass)
		}
	}
	return decl.Wildcard(ext, sup)
}

// countDims counts the bracket pairs of a dimensions node.
func countDims(n *sitter.Node) int {
	if n == nil {
		return 0
	}
	dims := 0
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.Child(i).Type() == "[" {
			dims++
		}
	}
	return dims
}

// segments flattens a type_identifier, scoped_type_identifier or
// generic_type into its names.
func segments(n *sitter.Node, src []byte) []segment {
	switch n.Type() {
	case "type_identifier", "identifier":
		return []segment{{name: n.Content(src)}}
	case "scoped_identifier":
		var out []segment
		for _, name := range strings.Split(dottedName(n, src), ".") {
			out = append(out, segment{name: name})
		}
		return out
	case "generic_type":
		var segs []segment
		for i := 0; i < int(n.NamedChildCount()); i++ {
			c := n.NamedChild(i)
			if c.Type() == "type_arguments" {
				if len(segs) > 0 {
					segs[len(segs)-1].args = c
				}
				continue
			}
			segs = append(segs, segments(c, src)...)
		}
		return segs
	case "scoped_type_identifier":
		var segs []segment
		for i := 0; i < int(n.NamedChildCount()); i++ {
			c := n.NamedChild(i)
			if isAnnotationNode(c) {
				continue
			}
			segs = append(segs, segments(c, src)...)
		}
		return segs
	}
	return nil
}

func segmentNames(segs []segment) []string {
	names := make([]string, len(segs))
	for i, s := range segs {
		names[i] = s.name
	}
	return names
}

func (st *state) resolveSegments(segs []segment, sc scope, hint decl.Kind) decl.TypeRef {
	if len(segs) == 0 {
		return decl.ErrorType("")
	}
	spelled := strings.Join(segmentNames(segs), ".")
	if len(segs) == 1 && segs[0].args == nil {
		for _, tps := range sc.typeParams {
			if tp, ok := tps[segs[0].name]; ok {
				return decl.Var(tp)
			}
		}
	}

	h, n := st.resolveName(segmentNames(segs), sc, hint, true)
	if h == decl.None {
		return decl.ErrorType(spelled)
	}
	g := st.b.View()
	// Types named through a qualified prefix carry the args of their last
	// segment; member types below are walked one by one.
	ref := decl.Declared(h, st.typeArgs(segs[n-1].args, sc)...)
	for _, seg := range segs[n:] {
		inner, ok := g.Lookup(g.QualifiedName(h) + "." + seg.name)
		if !ok || !g.Kind(inner).IsType() {
			if !st.externals[h] {
				return decl.ErrorType(spelled)
			}
			inner = st.b.External(g.QualifiedName(g.Package(h)), hint, externalMods(hint)|decl.ModStatic,
				append(st.nestingPath(h), seg.name)...)
			st.externals[inner] = true
		}
		args := st.typeArgs(seg.args, sc)
		if isParameterized(ref) && !g.Modifiers(inner).Has(decl.ModStatic) {
			ref = decl.DeclaredIn(ref, inner, args...)
		} else {
			ref = decl.Declared(inner, args...)
		}
		h = inner
	}
	return ref
}

// nestingPath returns the simple names from the top-level type down to h.
func (st *state) nestingPath(h decl.Handle) []string {
	g := st.b.View()
	var names []string
	for e := h; g.Kind(e).IsType(); e = g.Enclosing(e) {
		names = append([]string{g.Name(e)}, names...)
	}
	return names
}

func isParameterized(t decl.TypeRef) bool {
	return len(t.Args) > 0 || (t.Outer != nil && isParameterized(*t.Outer))
}

func (st *state) typeArgs(n *sitter.Node, sc scope) []decl.TypeRef {
	if n == nil {
		return nil
	}
	var out []decl.TypeRef
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if isTypeNode(c) || c.Type() == "wildcard" {
			out = append(out, st.typeRef(c, sc, decl.KindClass))
		}
	}
	return out
}

// resolveName finds the type named by the shortest resolvable prefix of
// names and reports how many names it consumed. With create set, unknown
// qualified names become external types.
func (st *state) resolveName(names []string, sc scope, hint decl.Kind, create bool) (decl.Handle, int) {
	if len(names) == 0 {
		return decl.None, 0
	}
	if h := st.lookupSimple(names[0], sc, hint, create); h != decl.None {
		return h, 1
	}
	g := st.b.View()
	for i := 2; i <= len(names); i++ {
		qn := strings.Join(names[:i], ".")
		if h, ok := g.Lookup(qn); ok && g.Kind(h).IsType() {
			return h, i
		}
		if h, ok := st.b.JDKType(qn); ok {
			return h, i
		}
	}
	if !create || len(names) < 2 {
		return decl.None, 0
	}
	return st.external(strings.Join(names, "."), hint), len(names)
}

// lookupSimple resolves a simple type name: member types of the enclosing
// chain, declared or inherited, single-type imports, the current package,
// on-demand imports, java.lang, and finally the one on-demand import outside
// the sources.
func (st *state) lookupSimple(name string, sc scope, hint decl.Kind, create bool) decl.Handle {
	g := st.b.View()
	for _, e := range sc.enclosing {
		if g.Name(e) == name {
			return e
		}
		if h := st.memberType(e, name, make(map[decl.Handle]bool)); h != decl.None {
			return h
		}
	}
	u := sc.u
	if qn, ok := u.imports[name]; ok {
		if h := st.known(qn, hint); h != decl.None {
			return h
		}
		if create {
			return st.external(qn, hint)
		}
		return decl.None
	}
	if h, ok := g.Lookup(qualify(u.pkg, name)); ok && g.Kind(h).IsType() {
		return h
	}
	var outside []string
	for _, od := range u.onDemand {
		if h := st.known(od+"."+name, hint); h != decl.None {
			return h
		}
		if oh, ok := g.Lookup(od); !ok || st.externals[oh] {
			outside = append(outside, od)
		}
	}
	if h, ok := st.b.JavaLang(name); ok {
		return h
	}
	if create && len(outside) == 1 && isTypeName(name) {
		return st.external(outside[0]+"."+name, hint)
	}
	return decl.None
}

// memberType finds the member type called name declared in t or inherited
// from its supertypes.
func (st *state) memberType(t decl.Handle, name string, seen map[decl.Handle]bool) decl.Handle {
	if seen[t] {
		return decl.None
	}
	seen[t] = true
	g := st.b.View()
	if h, ok := g.Lookup(g.QualifiedName(t) + "." + name); ok && g.Kind(h).IsType() {
		return h
	}
	supers := append([]decl.TypeRef{g.Superclass(t)}, g.Interfaces(t)...)
	for _, s := range supers {
		if s.Kind != decl.TypeDeclared || st.externals[s.Decl] {
			continue
		}
		if h := st.memberType(s.Decl, name, seen); h != decl.None {
			return h
		}
	}
	return decl.None
}

// known returns the source, platform or already created external type
// called qn.
func (st *state) known(qn string, hint decl.Kind) decl.Handle {
	g := st.b.View()
	if h, ok := g.Lookup(qn); ok && g.Kind(h).IsType() {
		st.adjustExternal(h, hint)
		return h
	}
	if h, ok := st.b.JDKType(qn); ok {
		return h
	}
	return decl.None
}

// external declares a type outside the parsed sources. The package is
// everything before the first capitalized name.
func (st *state) external(qn string, hint decl.Kind) decl.Handle {
	parts := strings.Split(qn, ".")
	i := len(parts) - 1
	for j, p := range parts {
		if isTypeName(p) {
			i = j
			break
		}
	}
	mods := externalMods(hint)
	if len(parts)-i > 1 {
		mods |= decl.ModStatic
	}
	h := st.b.External(strings.Join(parts[:i], "."), hint, mods, parts[i:]...)
	st.externals[h] = true
	st.adjustExternal(h, hint)
	return h
}

// adjustExternal upgrades an external type first seen as a class once a
// use shows it is an interface, annotation type or enum.
func (st *state) adjustExternal(h decl.Handle, hint decl.Kind) {
	if !st.externals[h] || hint == decl.KindClass {
		return
	}
	d := st.b.Decl(h)
	if d.Kind == decl.KindClass {
		d.Kind = hint
		d.Mods |= externalMods(hint)
	}
}

func externalMods(kind decl.Kind) decl.Modifiers {
	switch kind {
	case decl.KindInterface, decl.KindAnnotation:
		return decl.ModPublic | decl.ModAbstract
	case decl.KindEnum:
		return decl.ModPublic | decl.ModFinal
	}
	return decl.ModPublic
}

func qualify(pkg, name string) string {
	if pkg == "" {
		return name
	}
	return pkg + "." + name
}

// isTypeName reports whether name follows the capitalized type naming
// convention, the only hint available for names outside the sources.
func isTypeName(name string) bool {
	return name != "" && unicode.IsUpper([]rune(name)[0])
}
