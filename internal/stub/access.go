package stub

import (
	"apiextract/internal/classfile"
	"apiextract/internal/decl"
)

type flagMapping struct {
	mod  decl.Modifiers
	flag uint16
}

var (
	typeFlags = []flagMapping{
		{decl.ModPublic, classfile.AccPublic},
		{decl.ModPrivate, classfile.AccPrivate},
		{decl.ModProtected, classfile.AccProtected},
		{decl.ModStatic, classfile.AccStatic},
		{decl.ModAbstract, classfile.AccAbstract},
		{decl.ModFinal, classfile.AccFinal},
	}
	fieldFlags = []flagMapping{
		{decl.ModPublic, classfile.AccPublic},
		{decl.ModPrivate, classfile.AccPrivate},
		{decl.ModProtected, classfile.AccProtected},
		{decl.ModStatic, classfile.AccStatic},
		{decl.ModFinal, classfile.AccFinal},
		{decl.ModVolatile, classfile.AccVolatile},
		{decl.ModTransient, classfile.AccTransient},
	}
	methodFlags = []flagMapping{
		{decl.ModPublic, classfile.AccPublic},
		{decl.ModPrivate, classfile.AccPrivate},
		{decl.ModProtected, classfile.AccProtected},
		{decl.ModStatic, classfile.AccStatic},
		{decl.ModAbstract, classfile.AccAbstract},
		{decl.ModFinal, classfile.AccFinal},
		{decl.ModSynchronized, classfile.AccSynchronized},
	}
)

func mapFlags(mods decl.Modifiers, table []flagMapping) uint16 {
	var acc uint16
	for _, m := range table {
		if mods.Has(m.mod) {
			acc |= m.flag
		}
	}
	return acc
}

// kindFlags returns the flags implied by the kind of a type declaration.
func kindFlags(k decl.Kind) uint16 {
	switch k {
	case decl.KindEnum:
		return classfile.AccEnum
	case decl.KindAnnotation:
		return classfile.AccAnnotation | classfile.AccInterface | classfile.AccAbstract
	case decl.KindInterface:
		return classfile.AccInterface | classfile.AccAbstract
	}
	return 0
}

// innerAccess returns the access flags of an InnerClasses entry for type h,
// which keep the declared visibility and static modifier.
func innerAccess(g *decl.Graph, h decl.Handle) uint16 {
	return mapFlags(g.Modifiers(h), typeFlags) | kindFlags(g.Kind(h))
}

// classAccess returns the access flags of the class file of type h. A class
// file can only be public or package-private; protected nested types are
// widened to public and private ones narrowed to package access.
func classAccess(g *decl.Graph, h decl.Handle) uint16 {
	acc := innerAccess(g, h) &^ (classfile.AccPrivate | classfile.AccProtected | classfile.AccStatic)
	if g.Modifiers(h).Has(decl.ModProtected) {
		acc |= classfile.AccPublic
	}
	if acc&classfile.AccInterface == 0 {
		acc |= classfile.AccSuper
	}
	return acc
}

func fieldAccess(g *decl.Graph, h decl.Handle) uint16 {
	acc := mapFlags(g.Modifiers(h), fieldFlags)
	if g.Kind(h) == decl.KindEnumConstant {
		acc |= classfile.AccEnum
	}
	return acc
}

// methodAccess maps method modifiers; native methods get a stub body like any
// other concrete method, so the native flag is dropped.
func methodAccess(g *decl.Graph, owner, h decl.Handle) uint16 {
	acc := mapFlags(g.Modifiers(h), methodFlags)
	if g.Modifiers(h).Has(decl.ModStrictfp) || g.Modifiers(owner).Has(decl.ModStrictfp) {
		acc |= classfile.AccStrict
	}
	if g.IsVarargs(h) {
		acc |= classfile.AccVarargs
	}
	return acc
}

func parameterAccess(g *decl.Graph, p decl.Handle) uint16 {
	var acc uint16
	if g.Modifiers(p).Has(decl.ModFinal) {
		acc |= classfile.AccFinal
	}
	if g.IsImplicit(p) {
		acc |= classfile.AccMandated
	}
	return acc
}

// innerClasses accumulates InnerClasses entries without duplicates, in the
// order they were first added.
type innerClasses struct {
	g    *decl.Graph
	seen map[string]bool
	list []classfile.InnerClass
}

func newInnerClasses(g *decl.Graph) *innerClasses {
	return &innerClasses{g: g, seen: make(map[string]bool)}
}

// add records type h if it is a member type.
func (ic *innerClasses) add(h decl.Handle) {
	if h == decl.None || !ic.g.IsNested(h) {
		return
	}
	name := ic.g.InternalName(h)
	if ic.seen[name] {
		return
	}
	ic.seen[name] = true
	ic.list = append(ic.list, classfile.InnerClass{
		Inner:  name,
		Outer:  ic.g.InternalName(ic.g.Enclosing(h)),
		Name:   ic.g.Name(h),
		Access: innerAccess(ic.g, h),
	})
}

// addChain records h and every type enclosing it, outermost first.
func (ic *innerClasses) addChain(h decl.Handle) {
	if h == decl.None || !ic.g.Kind(h).IsType() {
		return
	}
	if ic.g.IsNested(h) {
		ic.addChain(ic.g.Enclosing(h))
	}
	ic.add(h)
}
