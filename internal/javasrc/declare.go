//go:build cgo

package javasrc

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"apiextract/internal/decl"
)

// state is the work of one Parse call. Types are declared for all units
// first so names resolve regardless of file order; members, constants and
// annotations follow in separate passes.
type state struct {
	p        *Parser
	b        *decl.Builder
	units    []*unit
	types    []*typeDecl
	problems []string

	// externals are types created on demand for names outside the sources.
	externals map[decl.Handle]bool

	constants  map[decl.Handle]*pendingConst
	constOrder []decl.Handle
	constState map[decl.Handle]uint8

	annotations []pendingAnnotations
	defaults    []pendingDefault
}

type typeDecl struct {
	h    decl.Handle
	node *sitter.Node
	u    *unit
}

// scope is the name-resolution context at one point of a unit.
type scope struct {
	u          *unit
	enclosing  []decl.Handle // innermost first
	typeParams []map[string]decl.Handle
}

func (s scope) withTypeParams(tps map[string]decl.Handle) scope {
	return scope{
		u:          s.u,
		enclosing:  s.enclosing,
		typeParams: append([]map[string]decl.Handle{tps}, s.typeParams...),
	}
}

type pendingConst struct {
	expr *sitter.Node
	sc   scope
	typ  decl.TypeRef
}

type pendingAnnotations struct {
	h     decl.Handle
	nodes []*sitter.Node
	sc    scope
}

type pendingDefault struct {
	h    decl.Handle
	node *sitter.Node
	sc   scope
}

func newState(p *Parser) *state {
	return &state{
		p:          p,
		b:          decl.NewBuilder(),
		externals:  make(map[decl.Handle]bool),
		constants:  make(map[decl.Handle]*pendingConst),
		constState: make(map[decl.Handle]uint8),
	}
}

var typeKinds = map[string]decl.Kind{
	"class_declaration":           decl.KindClass,
	"interface_declaration":       decl.KindInterface,
	"enum_declaration":            decl.KindEnum,
	"annotation_type_declaration": decl.KindAnnotation,
}

func isAnnotationNode(n *sitter.Node) bool {
	return n.Type() == "marker_annotation" || n.Type() == "annotation"
}

func (st *state) declareUnit(u *unit) {
	var pkgNode *sitter.Node
	for i := 0; i < int(u.root.NamedChildCount()); i++ {
		if c := u.root.NamedChild(i); c.Type() == "package_declaration" {
			pkgNode = c
			break
		}
	}

	if pkgNode == nil {
		u.pkgDecl = st.b.Package("")
	} else {
		var anns []*sitter.Node
		for i := 0; i < int(pkgNode.NamedChildCount()); i++ {
			c := pkgNode.NamedChild(i)
			switch {
			case isAnnotationNode(c):
				anns = append(anns, c)
			case c.Type() == "identifier" || c.Type() == "scoped_identifier":
				u.pkg = dottedName(c, u.src)
			}
		}
		u.pkgDecl = st.b.Package(u.pkg)
		doc, deprecated := docComment(pkgNode, u.src)
		d := st.b.Decl(u.pkgDecl)
		d.HasDoc = d.HasDoc || doc
		d.Deprecated = d.Deprecated || deprecated
		if len(anns) > 0 {
			st.annotations = append(st.annotations, pendingAnnotations{h: u.pkgDecl, nodes: anns, sc: scope{u: u}})
		}
	}

	for i := 0; i < int(u.root.NamedChildCount()); i++ {
		c := u.root.NamedChild(i)
		switch c.Type() {
		case "import_declaration":
			st.addImport(u, c)
		default:
			st.declareType(u, c, u.pkgDecl)
		}
	}
}

func (st *state) addImport(u *unit, n *sitter.Node) {
	static, star := false, false
	var name string
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		switch c.Type() {
		case "static":
			static = true
		case "asterisk":
			star = true
		case "identifier", "scoped_identifier":
			name = dottedName(c, u.src)
		}
	}
	if name == "" {
		return
	}
	switch {
	case static && star:
		u.staticOnDemand = append(u.staticOnDemand, name)
	case static:
		owner, member := decl.SplitQualified(name)
		u.staticImports[member] = owner
	case star:
		u.onDemand = append(u.onDemand, name)
	default:
		_, simple := decl.SplitQualified(name)
		u.imports[simple] = name
	}
}

// declareType adds the type declared by n, its type parameters and its
// member types. Other nodes are ignored.
func (st *state) declareType(u *unit, n *sitter.Node, enclosing decl.Handle) {
	kind, ok := typeKinds[n.Type()]
	if !ok {
		if n.Type() == "record_declaration" {
			st.p.logger.Warn("Records are not supported, skipping", "file", u.path, "line", n.StartPoint().Row+1)
		}
		return
	}
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}

	mods, _ := modifiers(n, u.src)
	outer := st.b.View().Kind(enclosing)
	if outer == decl.KindInterface || outer == decl.KindAnnotation {
		mods |= decl.ModPublic | decl.ModStatic
	}
	if outer.IsType() && kind != decl.KindClass {
		mods |= decl.ModStatic
	}
	switch kind {
	case decl.KindInterface, decl.KindAnnotation:
		mods |= decl.ModAbstract
	case decl.KindEnum:
		if !enumHasConstantBodies(n) {
			mods |= decl.ModFinal
		}
	}

	doc, deprecated := docComment(n, u.src)
	h := st.b.Add(decl.Decl{
		Kind:       kind,
		Name:       nameNode.Content(u.src),
		Mods:       mods,
		Enclosing:  enclosing,
		HasDoc:     doc,
		Deprecated: deprecated,
	})
	for _, tp := range typeParameterNodes(n) {
		st.b.Add(decl.Decl{Kind: decl.KindTypeParameter, Name: typeParameterName(tp, u.src), Enclosing: h})
	}
	st.types = append(st.types, &typeDecl{h: h, node: n, u: u})

	for _, m := range bodyMembers(n.ChildByFieldName("body")) {
		st.declareType(u, m, h)
	}
}

// bodyMembers lists the member nodes of a class, interface, enum or
// annotation type body. Enum constants come first for enum bodies.
func bodyMembers(body *sitter.Node) []*sitter.Node {
	if body == nil {
		return nil
	}
	var out []*sitter.Node
	for i := 0; i < int(body.NamedChildCount()); i++ {
		c := body.NamedChild(i)
		if c.Type() == "enum_body_declarations" {
			for j := 0; j < int(c.NamedChildCount()); j++ {
				out = append(out, c.NamedChild(j))
			}
			continue
		}
		out = append(out, c)
	}
	return out
}

func enumHasConstantBodies(n *sitter.Node) bool {
	for _, m := range bodyMembers(n.ChildByFieldName("body")) {
		if m.Type() == "enum_constant" && m.ChildByFieldName("body") != nil {
			return true
		}
	}
	return false
}

func typeParameterNodes(n *sitter.Node) []*sitter.Node {
	tps := n.ChildByFieldName("type_parameters")
	if tps == nil {
		return nil
	}
	var out []*sitter.Node
	for i := 0; i < int(tps.NamedChildCount()); i++ {
		if c := tps.NamedChild(i); c.Type() == "type_parameter" {
			out = append(out, c)
		}
	}
	return out
}

func typeParameterName(tp *sitter.Node, src []byte) string {
	for i := 0; i < int(tp.NamedChildCount()); i++ {
		c := tp.NamedChild(i)
		if c.Type() == "type_identifier" || c.Type() == "identifier" {
			return c.Content(src)
		}
	}
	return ""
}

// modifiers reads the modifiers node of a declaration: keyword modifiers
// and annotation nodes.
func modifiers(n *sitter.Node, src []byte) (decl.Modifiers, []*sitter.Node) {
	var mods decl.Modifiers
	var anns []*sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		m := n.NamedChild(i)
		if m.Type() != "modifiers" {
			continue
		}
		for j := 0; j < int(m.ChildCount()); j++ {
			c := m.Child(j)
			if isAnnotationNode(c) {
				anns = append(anns, c)
				continue
			}
			if mod, ok := decl.ParseModifier(c.Type()); ok {
				mods |= mod
			}
		}
	}
	return mods, anns
}

// docComment reports whether n is preceded by a /** comment and whether
// that comment carries an @deprecated tag.
func docComment(n *sitter.Node, src []byte) (doc, deprecated bool) {
	prev := n.PrevSibling()
	for prev != nil && prev.Type() == "line_comment" {
		prev = prev.PrevSibling()
	}
	if prev == nil || (prev.Type() != "block_comment" && prev.Type() != "comment") {
		return false, false
	}
	text := prev.Content(src)
	if !strings.HasPrefix(text, "/**") || text == "/**/" {
		return false, false
	}
	return true, strings.Contains(text, "@deprecated")
}

// dottedName reads an identifier or scoped_identifier.
func dottedName(n *sitter.Node, src []byte) string {
	if n.Type() != "scoped_identifier" {
		return strings.TrimSpace(n.Content(src))
	}
	scopeNode := n.ChildByFieldName("scope")
	nameNode := n.ChildByFieldName("name")
	if scopeNode == nil || nameNode == nil {
		return strings.Join(strings.Fields(n.Content(src)), "")
	}
	return dottedName(scopeNode, src) + "." + nameNode.Content(src)
}
