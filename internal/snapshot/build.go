package snapshot

import (
	"fmt"
	"strings"

	"apiextract/internal/decl"
	"apiextract/internal/errors"
)

// builder turns a Document into a decl.Graph in two passes: the first
// declares every package, type and type parameter so names resolve
// regardless of order, the second adds supertypes, bounds and members.
type builder struct {
	b        *decl.Builder
	problems []string
	pending  []pendingType
}

type pendingType struct {
	h   decl.Handle
	src *Type
	pkg string
}

// scope is the name-resolution context of one declaration.
type scope struct {
	pkg        string
	enclosing  []decl.Handle // innermost first
	typeParams []map[string]decl.Handle
}

func (s scope) withType(h decl.Handle, tps map[string]decl.Handle) scope {
	return scope{
		pkg:        s.pkg,
		enclosing:  append([]decl.Handle{h}, s.enclosing...),
		typeParams: append([]map[string]decl.Handle{tps}, s.typeParams...),
	}
}

func (s scope) withTypeParams(tps map[string]decl.Handle) scope {
	return scope{
		pkg:        s.pkg,
		enclosing:  s.enclosing,
		typeParams: append([]map[string]decl.Handle{tps}, s.typeParams...),
	}
}

func newBuilder() *builder {
	return &builder{b: decl.NewBuilder()}
}

func (bl *builder) problem(format string, args ...interface{}) {
	bl.problems = append(bl.problems, fmt.Sprintf(format, args...))
}

func (bl *builder) build(doc *Document) (*decl.Graph, error) {
	for _, ext := range doc.Externals {
		bl.declareExternal(ext)
	}

	pkgs := make([]decl.Handle, len(doc.Packages))
	for i := range doc.Packages {
		p := &doc.Packages[i]
		h := bl.b.Package(p.Name)
		d := bl.b.Decl(h)
		d.HasDoc = p.Doc
		d.Deprecated = p.Deprecated
		pkgs[i] = h
		for j := range p.Types {
			bl.declareType(&p.Types[j], h, p.Name)
		}
	}

	// Annotation types go first so element types are known when
	// annotation uses are read.
	for _, pt := range bl.pending {
		if bl.b.View().Kind(pt.h) == decl.KindAnnotation {
			bl.fillType(pt)
		}
	}
	for _, pt := range bl.pending {
		if bl.b.View().Kind(pt.h) != decl.KindAnnotation {
			bl.fillType(pt)
		}
	}
	for i := range doc.Packages {
		p := &doc.Packages[i]
		anns := bl.annotations(p.Annotations, scope{pkg: p.Name})
		bl.b.Decl(pkgs[i]).Annotations = anns
	}

	if len(bl.problems) > 0 {
		return nil, errors.Newf(errors.SourceParseFailed, "snapshot has %d problem(s)", len(bl.problems)).WithDetails(bl.problems)
	}
	g, err := bl.b.Graph()
	if err != nil {
		return nil, errors.New(errors.SourceParseFailed, "invalid snapshot", err)
	}
	return g, nil
}

func (bl *builder) declareExternal(ext External) {
	kind := decl.KindClass
	if ext.Kind != "" {
		k, ok := decl.ParseKind(ext.Kind)
		if !ok || !k.IsType() {
			bl.problem("external %s: unknown kind %q", ext.Name, ext.Kind)
			return
		}
		kind = k
	}
	mods := bl.modifiers(ext.Name, ext.Modifiers)
	if len(ext.Modifiers) == 0 {
		mods = decl.ModPublic
	}
	pkg, name := decl.SplitQualified(ext.Name)
	if name == "" {
		bl.problem("external with empty name")
		return
	}
	h := bl.b.External(pkg, kind, mods, strings.Split(name, "$")...)
	if ext.Retention != "" {
		r, ok := decl.ParseRetention(ext.Retention)
		if !ok {
			bl.problem("external %s: unknown retention %q", ext.Name, ext.Retention)
		}
		bl.b.Decl(h).Retention = r
	}
}

func (bl *builder) declareType(t *Type, enclosing decl.Handle, pkg string) {
	kind, ok := decl.ParseKind(t.Kind)
	if t.Kind == "" {
		kind, ok = decl.KindClass, true
	}
	if !ok || !kind.IsType() {
		bl.problem("type %s: unknown kind %q", t.Name, t.Kind)
		return
	}
	d := decl.Decl{
		Kind:       kind,
		Name:       t.Name,
		Mods:       bl.modifiers(t.Name, t.Modifiers),
		Enclosing:  enclosing,
		HasDoc:     t.Doc,
		Deprecated: t.Deprecated,
	}
	if t.Retention != "" {
		r, ok := decl.ParseRetention(t.Retention)
		if !ok {
			bl.problem("type %s: unknown retention %q", t.Name, t.Retention)
		}
		d.Retention = r
	}
	h := bl.b.Add(d)
	for _, tp := range t.TypeParameters {
		bl.b.Add(decl.Decl{Kind: decl.KindTypeParameter, Name: tp.Name, Enclosing: h})
	}
	bl.pending = append(bl.pending, pendingType{h: h, src: t, pkg: pkg})
	for i := range t.Types {
		bl.declareType(&t.Types[i], h, pkg)
	}
}

// typeScope rebuilds the resolution scope of type h from its enclosing chain.
func (bl *builder) typeScope(h decl.Handle, pkg string) scope {
	g := bl.b.View()
	chain := []decl.Handle{h}
	for e := g.Enclosing(h); g.Kind(e).IsType(); e = g.Enclosing(e) {
		chain = append(chain, e)
	}
	s := scope{pkg: pkg}
	for i := len(chain) - 1; i >= 0; i-- {
		s = s.withType(chain[i], bl.typeParamMap(chain[i]))
	}
	return s
}

func (bl *builder) typeParamMap(h decl.Handle) map[string]decl.Handle {
	g := bl.b.View()
	m := make(map[string]decl.Handle)
	for _, tp := range g.TypeParameters(h) {
		m[g.Name(tp)] = tp
	}
	return m
}

func (bl *builder) fillType(pt pendingType) {
	h, t := pt.h, pt.src
	sc := bl.typeScope(h, pt.pkg)
	kind := bl.b.View().Kind(h)
	qn := bl.b.View().QualifiedName(h)

	// Resolving may declare platform types, so the result is stored only
	// after the call returns.
	for i, tp := range t.TypeParameters {
		bounds := bl.types(tp.Bounds, sc, qn)
		bl.b.Decl(bl.b.View().TypeParameters(h)[i]).Bounds = bounds
	}

	var super decl.TypeRef
	switch {
	case t.Extends != "":
		super = bl.typeRef(t.Extends, sc, qn)
	case kind == decl.KindEnum:
		if enum, ok := bl.b.JavaLang("Enum"); ok {
			super = decl.Declared(enum, decl.Declared(h))
		}
	case kind == decl.KindClass && qn != "java.lang.Object":
		if obj, ok := bl.b.JavaLang("Object"); ok {
			super = decl.Declared(obj)
		}
	}
	interfaces := bl.types(t.Implements, sc, qn)
	if kind == decl.KindAnnotation && len(interfaces) == 0 {
		if ann, ok := bl.b.JDKType("java.lang.annotation.Annotation"); ok {
			interfaces = []decl.TypeRef{decl.Declared(ann)}
		}
	}

	anns := bl.annotations(t.Annotations, sc)
	d := bl.b.Decl(h)
	d.Superclass = super
	d.Interfaces = interfaces
	d.Annotations = anns

	for _, ec := range t.EnumConstants {
		bl.b.Add(decl.Decl{
			Kind:        decl.KindEnumConstant,
			Name:        ec.Name,
			Mods:        decl.ModPublic | decl.ModStatic | decl.ModFinal,
			Enclosing:   h,
			Type:        decl.Declared(h),
			HasDoc:      ec.Doc,
			Deprecated:  ec.Deprecated,
			Annotations: bl.annotations(ec.Annotations, sc),
		})
	}
	for i := range t.Fields {
		bl.addField(h, &t.Fields[i], sc, qn)
	}
	for i := range t.Constructors {
		c := t.Constructors[i]
		c.Name = "<init>"
		c.Returns = "void"
		bl.addExecutable(h, decl.KindConstructor, &c, sc, qn)
	}
	for i := range t.Methods {
		bl.addExecutable(h, decl.KindMethod, &t.Methods[i], sc, qn)
	}
}

func (bl *builder) addField(owner decl.Handle, f *Field, sc scope, ownerName string) {
	where := ownerName + "." + f.Name
	ft := bl.typeRef(f.Type, sc, where)
	d := decl.Decl{
		Kind:        decl.KindField,
		Name:        f.Name,
		Mods:        bl.modifiers(where, f.Modifiers),
		Enclosing:   owner,
		Type:        ft,
		HasDoc:      f.Doc,
		Deprecated:  f.Deprecated,
		Annotations: bl.annotations(f.Annotations, sc),
	}
	if f.Constant != nil {
		c, err := bl.constant(f.Constant, ft)
		if err != nil {
			bl.problem("%s: %v", where, err)
		}
		d.Constant = c
	}
	bl.b.Add(d)
}

func (bl *builder) addExecutable(owner decl.Handle, kind decl.Kind, e *Executable, sc scope, ownerName string) {
	where := ownerName + "." + e.Name
	h := bl.b.Add(decl.Decl{
		Kind:       kind,
		Name:       e.Name,
		Mods:       bl.modifiers(where, e.Modifiers),
		Enclosing:  owner,
		HasDoc:     e.Doc,
		Deprecated: e.Deprecated,
		Implicit:   e.Implicit,
		Varargs:    e.Varargs,
	})
	tps := make(map[string]decl.Handle, len(e.TypeParameters))
	for _, tp := range e.TypeParameters {
		tps[tp.Name] = bl.b.Add(decl.Decl{Kind: decl.KindTypeParameter, Name: tp.Name, Enclosing: h})
	}
	msc := sc.withTypeParams(tps)
	for _, tp := range e.TypeParameters {
		bounds := bl.types(tp.Bounds, msc, where)
		bl.b.Decl(tps[tp.Name]).Bounds = bounds
	}

	for _, p := range e.Parameters {
		bl.b.Add(decl.Decl{
			Kind:        decl.KindParameter,
			Name:        p.Name,
			Mods:        bl.modifiers(where, p.Modifiers),
			Enclosing:   h,
			Type:        bl.typeRef(p.Type, msc, where),
			Annotations: bl.annotations(p.Annotations, msc),
		})
	}

	ret := decl.Prim(decl.Void)
	if e.Returns != "" {
		ret = bl.typeRef(e.Returns, msc, where)
	}
	thrown := bl.types(e.Throws, msc, where)
	anns := bl.annotations(e.Annotations, msc)
	var def *decl.AnnotationValue
	if e.Default != nil {
		v, err := bl.value(e.Default, ret, msc)
		if err != nil {
			bl.problem("%s: default: %v", where, err)
		} else {
			def = &v
		}
	}

	d := bl.b.Decl(h)
	d.Return = ret
	d.Thrown = thrown
	d.Annotations = anns
	d.Default = def
}

func (bl *builder) modifiers(where string, names []string) decl.Modifiers {
	var m decl.Modifiers
	for _, n := range names {
		mod, ok := decl.ParseModifier(n)
		if !ok {
			bl.problem("%s: unknown modifier %q", where, n)
			continue
		}
		m |= mod
	}
	return m
}

func (bl *builder) types(exprs []string, sc scope, where string) []decl.TypeRef {
	if len(exprs) == 0 {
		return nil
	}
	out := make([]decl.TypeRef, len(exprs))
	for i, e := range exprs {
		out[i] = bl.typeRef(e, sc, where)
	}
	return out
}

// typeRef parses and resolves a type expression. Syntax errors are
// snapshot problems; unknown names become error types.
func (bl *builder) typeRef(expr string, sc scope, where string) decl.TypeRef {
	t, err := parseTypeExpr(expr)
	if err != nil {
		bl.problem("%s: %v", where, err)
		return decl.ErrorType(expr)
	}
	return bl.resolve(t, sc)
}

func (bl *builder) resolve(t *typeExpr, sc scope) decl.TypeRef {
	if t.wildcard {
		ext, sup := decl.NoType, decl.NoType
		if t.extends != nil {
			ext = bl.resolve(t.extends, sc)
		}
		if t.super != nil {
			sup = bl.resolve(t.super, sc)
		}
		return decl.Wildcard(ext, sup)
	}
	base := bl.resolvePath(t, sc)
	for i := 0; i < t.dims; i++ {
		base = decl.ArrayOf(base)
	}
	return base
}

func (bl *builder) resolvePath(t *typeExpr, sc scope) decl.TypeRef {
	first := t.segs[0]
	if len(t.segs) == 1 && len(first.args) == 0 {
		if p, ok := decl.ParsePrimitive(first.name); ok {
			return decl.Prim(p)
		}
		for _, tps := range sc.typeParams {
			if tp, ok := tps[first.name]; ok {
				return decl.Var(tp)
			}
		}
	}

	g := bl.b.View()
	// Find the shortest prefix naming a type; the rest are member types.
	var h decl.Handle
	n := 0
	for i := range t.segs {
		name := joinNames(t.segs[:i+1])
		if i == 0 {
			h = bl.lookupSimple(first.name, sc)
		} else if found, ok := g.Lookup(name); ok && g.Kind(found).IsType() {
			h = found
		} else if found, ok := bl.b.JDKType(name); ok {
			h = found
		}
		if h != decl.None {
			n = i + 1
			break
		}
	}
	if h == decl.None {
		return decl.ErrorType(joinNames(t.segs))
	}

	ref := decl.Declared(h, bl.args(t.segs[n-1].args, sc)...)
	for _, seg := range t.segs[n:] {
		inner, ok := g.Lookup(g.QualifiedName(h) + "." + seg.name)
		if !ok || !g.Kind(inner).IsType() {
			return decl.ErrorType(joinNames(t.segs))
		}
		args := bl.args(seg.args, sc)
		if isParameterized(ref) && !g.Modifiers(inner).Has(decl.ModStatic) {
			ref = decl.DeclaredIn(ref, inner, args...)
		} else {
			ref = decl.Declared(inner, args...)
		}
		h = inner
	}
	return ref
}

func isParameterized(t decl.TypeRef) bool {
	return len(t.Args) > 0 || (t.Outer != nil && isParameterized(*t.Outer))
}

// lookupSimple resolves a simple type name: member types of the enclosing
// chain, the current package, java.lang, then the unnamed package.
func (bl *builder) lookupSimple(name string, sc scope) decl.Handle {
	g := bl.b.View()
	for _, e := range sc.enclosing {
		if g.Name(e) == name {
			return e
		}
		if h, ok := g.Lookup(g.QualifiedName(e) + "." + name); ok {
			return h
		}
	}
	if sc.pkg != "" {
		if h, ok := g.Lookup(sc.pkg + "." + name); ok && g.Kind(h).IsType() {
			return h
		}
	}
	if h, ok := bl.b.JavaLang(name); ok {
		return h
	}
	if h, ok := g.Lookup(name); ok && g.Kind(h).IsType() {
		return h
	}
	return decl.None
}

func (bl *builder) args(exprs []*typeExpr, sc scope) []decl.TypeRef {
	if len(exprs) == 0 {
		return nil
	}
	out := make([]decl.TypeRef, len(exprs))
	for i, e := range exprs {
		out[i] = bl.resolve(e, sc)
	}
	return out
}

func joinNames(segs []segment) string {
	names := make([]string, len(segs))
	for i, s := range segs {
		names[i] = s.name
	}
	return strings.Join(names, ".")
}
