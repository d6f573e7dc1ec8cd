package decl

// TypeKind discriminates the TypeRef variants.
type TypeKind uint8

const (
	// TypeNone is the absent type (no superclass, missing bound).
	TypeNone TypeKind = iota
	TypePrimitive
	TypeArray
	TypeDeclared
	TypeVariable
	TypeWildcard
	TypeIntersection
	TypeUnion
	// TypeError is a reference the host could not resolve.
	TypeError
)

// Primitive enumerates the primitive types, void included.
type Primitive uint8

const (
	Boolean Primitive = iota + 1
	Byte
	Char
	Short
	Int
	Long
	Float
	Double
	Void
)

var primitiveNames = map[Primitive]string{
	Boolean: "boolean",
	Byte:    "byte",
	Char:    "char",
	Short:   "short",
	Int:     "int",
	Long:    "long",
	Float:   "float",
	Double:  "double",
	Void:    "void",
}

func (p Primitive) String() string {
	return primitiveNames[p]
}

// ParsePrimitive maps a primitive keyword (void included) to its Primitive.
func ParsePrimitive(s string) (Primitive, bool) {
	for p, name := range primitiveNames {
		if name == s {
			return p, true
		}
	}
	return 0, false
}

// TypeRef is a use-site type. The zero value is TypeNone.
//
// Which fields are meaningful depends on Kind:
//
//	TypePrimitive     Prim
//	TypeArray         Elem (component)
//	TypeDeclared      Decl (target type), Outer (optional parameterized owner), Args
//	TypeVariable      Decl (the type parameter declaration)
//	TypeWildcard      Extends, Super (at most one set)
//	TypeIntersection  Args (bounds)
//	TypeUnion         Args (alternatives)
//	TypeError         Name (the unresolved spelling)
type TypeRef struct {
	Kind    TypeKind
	Prim    Primitive
	Decl    Handle
	Elem    *TypeRef
	Outer   *TypeRef
	Args    []TypeRef
	Extends *TypeRef
	Super   *TypeRef
	Name    string
}

// NoType is the absent type.
var NoType = TypeRef{}

// Prim returns a primitive (or void) type.
func Prim(p Primitive) TypeRef {
	return TypeRef{Kind: TypePrimitive, Prim: p}
}

// ArrayOf returns an array type with the given component.
func ArrayOf(component TypeRef) TypeRef {
	c := component
	return TypeRef{Kind: TypeArray, Elem: &c}
}

// Declared returns a reference to the type declaration h with type arguments.
func Declared(h Handle, args ...TypeRef) TypeRef {
	return TypeRef{Kind: TypeDeclared, Decl: h, Args: args}
}

// DeclaredIn is Declared with an explicit (usually parameterized) owner type.
func DeclaredIn(outer TypeRef, h Handle, args ...TypeRef) TypeRef {
	o := outer
	return TypeRef{Kind: TypeDeclared, Decl: h, Outer: &o, Args: args}
}

// Var returns a reference to the type parameter h.
func Var(h Handle) TypeRef {
	return TypeRef{Kind: TypeVariable, Decl: h}
}

// Wildcard returns ?, ? extends ext or ? super sup. Pass NoType for absent bounds.
func Wildcard(ext, sup TypeRef) TypeRef {
	t := TypeRef{Kind: TypeWildcard}
	if ext.Kind != TypeNone {
		e := ext
		t.Extends = &e
	}
	if sup.Kind != TypeNone {
		s := sup
		t.Super = &s
	}
	return t
}

// Intersection returns A & B & ...
func Intersection(bounds ...TypeRef) TypeRef {
	return TypeRef{Kind: TypeIntersection, Args: bounds}
}

// Union returns A | B | ... (multi-catch alternatives).
func Union(alts ...TypeRef) TypeRef {
	return TypeRef{Kind: TypeUnion, Args: alts}
}

// ErrorType marks a reference the host could not resolve.
func ErrorType(name string) TypeRef {
	return TypeRef{Kind: TypeError, Name: name}
}

// IsNone reports whether t is the absent type.
func (t TypeRef) IsNone() bool {
	return t.Kind == TypeNone
}

// IsVoid reports whether t is the void pseudo-type.
func (t TypeRef) IsVoid() bool {
	return t.Kind == TypePrimitive && t.Prim == Void
}

// FirstError returns the first error type nested anywhere in t.
func (t TypeRef) FirstError() (TypeRef, bool) {
	switch t.Kind {
	case TypeError:
		return t, true
	case TypeArray:
		return t.Elem.FirstError()
	case TypeDeclared:
		if t.Outer != nil {
			if e, ok := t.Outer.FirstError(); ok {
				return e, true
			}
		}
		return firstError(t.Args)
	case TypeWildcard:
		if t.Extends != nil {
			return t.Extends.FirstError()
		}
		if t.Super != nil {
			return t.Super.FirstError()
		}
	case TypeIntersection, TypeUnion:
		return firstError(t.Args)
	}
	return TypeRef{}, false
}

func firstError(ts []TypeRef) (TypeRef, bool) {
	for _, a := range ts {
		if e, ok := a.FirstError(); ok {
			return e, true
		}
	}
	return TypeRef{}, false
}
