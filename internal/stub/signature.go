package stub

import (
	"fmt"
	"strings"

	"apiextract/internal/decl"
)

const objectInternalName = "java/lang/Object"

// typeWriter renders descriptors and generic signatures for one graph.
type typeWriter struct {
	g *decl.Graph
}

var primitiveDescriptors = map[decl.Primitive]byte{
	decl.Boolean: 'Z',
	decl.Byte:    'B',
	decl.Char:    'C',
	decl.Short:   'S',
	decl.Int:     'I',
	decl.Long:    'J',
	decl.Float:   'F',
	decl.Double:  'D',
	decl.Void:    'V',
}

// descriptor returns the erased descriptor of t.
func (w typeWriter) descriptor(t decl.TypeRef) (string, error) {
	switch t.Kind {
	case decl.TypePrimitive:
		c, ok := primitiveDescriptors[t.Prim]
		if !ok {
			return "", fmt.Errorf("unknown primitive %d", t.Prim)
		}
		return string(c), nil
	case decl.TypeArray:
		d, err := w.descriptor(*t.Elem)
		if err != nil {
			return "", err
		}
		return "[" + d, nil
	case decl.TypeDeclared:
		return "L" + w.g.InternalName(t.Decl) + ";", nil
	case decl.TypeVariable:
		bounds := w.g.Bounds(t.Decl)
		if len(bounds) == 0 {
			return "L" + objectInternalName + ";", nil
		}
		return w.descriptor(bounds[0])
	case decl.TypeIntersection:
		if len(t.Args) == 0 {
			return "L" + objectInternalName + ";", nil
		}
		return w.descriptor(t.Args[0])
	}
	return "", fmt.Errorf("type of kind %d has no descriptor", t.Kind)
}

// internalName returns the erased class name of a reference type, as used
// for superclasses, interfaces and thrown types.
func (w typeWriter) internalName(t decl.TypeRef) (string, error) {
	switch t.Kind {
	case decl.TypeDeclared:
		return w.g.InternalName(t.Decl), nil
	case decl.TypeVariable:
		bounds := w.g.Bounds(t.Decl)
		if len(bounds) == 0 {
			return objectInternalName, nil
		}
		return w.internalName(bounds[0])
	case decl.TypeIntersection:
		if len(t.Args) > 0 {
			return w.internalName(t.Args[0])
		}
	}
	return "", fmt.Errorf("type of kind %d is not a class type", t.Kind)
}

// isGeneric reports whether t needs a signature to be described exactly.
func isGeneric(t decl.TypeRef) bool {
	switch t.Kind {
	case decl.TypeVariable, decl.TypeWildcard, decl.TypeIntersection, decl.TypeUnion:
		return true
	case decl.TypeDeclared:
		return len(t.Args) > 0 || (t.Outer != nil && isGeneric(*t.Outer))
	case decl.TypeArray:
		return isGeneric(*t.Elem)
	}
	return false
}

// signature accumulates a JVM signature string.
type signature struct {
	w   typeWriter
	sb  strings.Builder
	err error
}

func (s *signature) fail(err error) {
	if s.err == nil {
		s.err = err
	}
}

func (s *signature) String() string {
	return s.sb.String()
}

// formal writes a formal type parameter: a class bound when the first bound
// is a class or type variable, interface bounds otherwise.
func (s *signature) formal(tp decl.Handle) {
	g := s.w.g
	s.sb.WriteString(g.Name(tp))
	bounds := g.Bounds(tp)
	if len(bounds) == 0 {
		s.sb.WriteString(":L" + objectInternalName + ";")
		return
	}
	for i, b := range bounds {
		s.sb.WriteByte(':')
		if i == 0 && !s.isClassBound(b) {
			s.sb.WriteByte(':')
		}
		s.typ(b)
	}
}

func (s *signature) isClassBound(t decl.TypeRef) bool {
	switch t.Kind {
	case decl.TypeVariable:
		return true
	case decl.TypeDeclared:
		k := s.w.g.Kind(t.Decl)
		return k == decl.KindClass || k == decl.KindEnum
	}
	return false
}

func (s *signature) formals(tps []decl.Handle) {
	if len(tps) == 0 {
		return
	}
	s.sb.WriteByte('<')
	for _, tp := range tps {
		s.formal(tp)
	}
	s.sb.WriteByte('>')
}

// typ writes a JavaTypeSignature (or V).
func (s *signature) typ(t decl.TypeRef) {
	switch t.Kind {
	case decl.TypePrimitive:
		s.sb.WriteByte(primitiveDescriptors[t.Prim])
	case decl.TypeArray:
		s.sb.WriteByte('[')
		s.typ(*t.Elem)
	case decl.TypeDeclared:
		s.classType(t)
		s.sb.WriteByte(';')
	case decl.TypeVariable:
		s.sb.WriteString("T" + s.w.g.Name(t.Decl) + ";")
	default:
		s.fail(fmt.Errorf("type of kind %d cannot appear in a signature here", t.Kind))
	}
}

// classType writes a class type without the trailing ';'. Owners written
// explicitly as parameterized types are rendered as Outer<..>.Inner.
func (s *signature) classType(t decl.TypeRef) {
	if t.Outer != nil && t.Outer.Kind == decl.TypeDeclared {
		s.classType(*t.Outer)
		s.sb.WriteString("." + s.w.g.Name(t.Decl))
	} else {
		s.sb.WriteString("L" + s.w.g.InternalName(t.Decl))
	}
	if len(t.Args) == 0 {
		return
	}
	s.sb.WriteByte('<')
	for _, a := range t.Args {
		s.typeArg(a)
	}
	s.sb.WriteByte('>')
}

func (s *signature) typeArg(t decl.TypeRef) {
	if t.Kind != decl.TypeWildcard {
		s.typ(t)
		return
	}
	switch {
	case t.Extends != nil:
		s.sb.WriteByte('+')
		s.typ(*t.Extends)
	case t.Super != nil:
		s.sb.WriteByte('-')
		s.typ(*t.Super)
	default:
		s.sb.WriteByte('*')
	}
}

// classSignature returns the Signature of type h, or "" when none is needed.
func (w typeWriter) classSignature(h decl.Handle) (string, error) {
	g := w.g
	generic := len(g.TypeParameters(h)) > 0
	super := g.Superclass(h)
	if k := g.Kind(h); k == decl.KindInterface || k == decl.KindAnnotation {
		super = decl.NoType
	}
	if super.Kind == decl.TypeDeclared && isGeneric(super) {
		generic = true
	}
	for _, itf := range g.Interfaces(h) {
		if isGeneric(itf) {
			generic = true
		}
	}
	if !generic {
		return "", nil
	}

	s := &signature{w: w}
	s.formals(g.TypeParameters(h))
	if super.IsNone() {
		s.sb.WriteString("L" + objectInternalName + ";")
	} else {
		s.typ(super)
	}
	for _, itf := range g.Interfaces(h) {
		s.typ(itf)
	}
	return s.String(), s.err
}

// methodSignature returns the Signature of executable h, or "" when none
// is needed. The implicit outer instance parameter is never part of it.
func (w typeWriter) methodSignature(h decl.Handle) (string, error) {
	g := w.g
	generic := len(g.TypeParameters(h)) > 0 || isGeneric(g.ReturnType(h))
	for _, p := range g.Parameters(h) {
		generic = generic || isGeneric(g.DeclaredType(p))
	}
	genericThrows := false
	for _, t := range g.ThrownTypes(h) {
		genericThrows = genericThrows || isGeneric(t)
	}
	if !generic && !genericThrows {
		return "", nil
	}

	s := &signature{w: w}
	s.formals(g.TypeParameters(h))
	s.sb.WriteByte('(')
	for _, p := range g.Parameters(h) {
		s.typ(g.DeclaredType(p))
	}
	s.sb.WriteByte(')')
	ret := g.ReturnType(h)
	if ret.IsNone() {
		ret = decl.Prim(decl.Void)
	}
	s.typ(ret)
	if genericThrows {
		for _, t := range g.ThrownTypes(h) {
			s.sb.WriteByte('^')
			s.typ(t)
		}
	}
	return s.String(), s.err
}

// fieldSignature returns the Signature of a field type, or "".
func (w typeWriter) fieldSignature(t decl.TypeRef) (string, error) {
	if !isGeneric(t) {
		return "", nil
	}
	s := &signature{w: w}
	s.typ(t)
	return s.String(), s.err
}
