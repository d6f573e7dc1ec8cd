package snapshot

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"apiextract/internal/decl"
)

func (bl *builder) annotations(uses []Annotation, sc scope) []decl.Annotation {
	if len(uses) == 0 {
		return nil
	}
	out := make([]decl.Annotation, 0, len(uses))
	for i := range uses {
		a, err := bl.annotation(&uses[i], sc)
		if err != nil {
			bl.problem("annotation @%s: %v", uses[i].Type, err)
			continue
		}
		out = append(out, a)
	}
	return out
}

func (bl *builder) annotation(use *Annotation, sc scope) (decl.Annotation, error) {
	t, err := parseTypeExpr(use.Type)
	if err != nil {
		return decl.Annotation{}, err
	}
	ref := bl.resolve(t, sc)
	if ref.Kind != decl.TypeDeclared {
		return decl.Annotation{}, fmt.Errorf("unknown annotation type %q", use.Type)
	}
	a := decl.Annotation{Type: ref.Decl}

	switch use.Values.Kind {
	case 0:
		return a, nil
	case yaml.MappingNode:
	default:
		// A single value is shorthand for value = ...
		v, err := bl.value(&use.Values, bl.elementType(ref.Decl, "value"), sc)
		if err != nil {
			return a, err
		}
		a.Values = []decl.ElementValue{{Name: "value", Value: v}}
		return a, nil
	}

	for i := 0; i+1 < len(use.Values.Content); i += 2 {
		name := use.Values.Content[i].Value
		v, err := bl.value(use.Values.Content[i+1], bl.elementType(ref.Decl, name), sc)
		if err != nil {
			return a, fmt.Errorf("element %s: %w", name, err)
		}
		a.Values = append(a.Values, decl.ElementValue{Name: name, Value: v})
	}
	return a, nil
}

// elementType returns the declared return type of element name of
// annotation type ann, or NoType when the element is not known.
func (bl *builder) elementType(ann decl.Handle, name string) decl.TypeRef {
	g := bl.b.View()
	for _, m := range g.MembersNamed(ann, name) {
		if g.Kind(m) == decl.KindMethod {
			return g.ReturnType(m)
		}
	}
	return decl.NoType
}

// value decodes an annotation element value. want is the element's
// declared type and steers how scalars are read; without it the YAML tag
// decides. Mappings with a single class, enum or annotation key are
// explicit forms:
//
//	{class: "java.lang.String[]"}
//	{enum: "java.lang.annotation.RetentionPolicy.RUNTIME"}
//	{annotation: {type: com.example.Tag, values: {name: x}}}
func (bl *builder) value(n *yaml.Node, want decl.TypeRef, sc scope) (decl.AnnotationValue, error) {
	switch n.Kind {
	case yaml.AliasNode:
		return bl.value(n.Alias, want, sc)

	case yaml.SequenceNode:
		elem := decl.NoType
		if want.Kind == decl.TypeArray {
			elem = *want.Elem
		}
		elems := make([]decl.AnnotationValue, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := bl.value(c, elem, sc)
			if err != nil {
				return decl.AnnotationValue{}, err
			}
			elems = append(elems, v)
		}
		return decl.ArrayValue(elems...), nil

	case yaml.MappingNode:
		if len(n.Content) != 2 {
			return decl.AnnotationValue{}, fmt.Errorf("line %d: expected one of class, enum or annotation", n.Line)
		}
		key, val := n.Content[0].Value, n.Content[1]
		switch key {
		case "class":
			return decl.ClassValue(bl.typeRef(val.Value, sc, "class literal")), nil
		case "enum":
			return bl.enumValue(val.Value, decl.NoType, sc)
		case "annotation":
			var use Annotation
			if err := val.Decode(&use); err != nil {
				return decl.AnnotationValue{}, err
			}
			a, err := bl.annotation(&use, sc)
			if err != nil {
				return decl.AnnotationValue{}, err
			}
			return decl.NestedValue(a), nil
		}
		return decl.AnnotationValue{}, fmt.Errorf("line %d: unknown value form %q", n.Line, key)
	}

	// Scalars.
	if want.Kind == decl.TypeArray {
		return bl.value(n, *want.Elem, sc)
	}
	if want.Kind == decl.TypeDeclared {
		g := bl.b.View()
		switch g.QualifiedName(want.Decl) {
		case "java.lang.String":
			return decl.ConstValue(decl.StringConst(n.Value)), nil
		case "java.lang.Class":
			return decl.ClassValue(bl.typeRef(n.Value, sc, "class literal")), nil
		}
		if g.Kind(want.Decl) == decl.KindEnum {
			return bl.enumValue(n.Value, want, sc)
		}
	}
	c, err := bl.constant(n, want)
	if err != nil {
		return decl.AnnotationValue{}, err
	}
	return decl.ConstValue(c), nil
}

// enumValue reads Type.CONSTANT, or a bare CONSTANT when the enum type is
// known from context.
func (bl *builder) enumValue(s string, want decl.TypeRef, sc scope) (decl.AnnotationValue, error) {
	typeName, constName := decl.SplitQualified(s)
	if typeName == "" {
		if want.Kind != decl.TypeDeclared {
			return decl.AnnotationValue{}, fmt.Errorf("enum value %q needs a type", s)
		}
		return decl.EnumValue(want.Decl, constName), nil
	}
	ref := bl.typeRef(typeName, sc, "enum value")
	if ref.Kind != decl.TypeDeclared {
		return decl.AnnotationValue{}, fmt.Errorf("unknown enum type %q", typeName)
	}
	return decl.EnumValue(ref.Decl, constName), nil
}

// constant reads a scalar as a compile-time constant of type want. A
// primitive want narrows the value; String reads the text; NoType infers
// the kind from the YAML tag.
func (bl *builder) constant(n *yaml.Node, want decl.TypeRef) (decl.Constant, error) {
	if n.Kind != yaml.ScalarNode {
		return decl.Constant{}, fmt.Errorf("line %d: constant must be a scalar", n.Line)
	}
	if want.Kind == decl.TypeDeclared && bl.b.View().QualifiedName(want.Decl) == "java.lang.String" {
		return decl.StringConst(n.Value), nil
	}

	var c decl.Constant
	switch n.ShortTag() {
	case "!!int":
		v, err := strconv.ParseInt(strings.ReplaceAll(n.Value, "_", ""), 0, 64)
		if err != nil {
			return c, fmt.Errorf("line %d: %w", n.Line, err)
		}
		c = decl.LongConst(v)
		if want.Kind != decl.TypePrimitive && v == int64(int32(v)) {
			c = decl.IntConst(int32(v))
		}
	case "!!float":
		v, err := strconv.ParseFloat(n.Value, 64)
		if err != nil {
			var f float64
			if err := n.Decode(&f); err != nil {
				return c, fmt.Errorf("line %d: %w", n.Line, err)
			}
			v = f
		}
		c = decl.DoubleConst(v)
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return c, fmt.Errorf("line %d: %w", n.Line, err)
		}
		c = decl.BoolConst(b)
	case "!!str":
		if want.Kind == decl.TypePrimitive && want.Prim == decl.Char {
			r, size := utf8.DecodeRuneInString(n.Value)
			if size == 0 || size != len(n.Value) || r > 0xFFFF {
				return c, fmt.Errorf("line %d: %q is not a single char", n.Line, n.Value)
			}
			return decl.CharConst(uint16(r)), nil
		}
		if want.Kind == decl.TypePrimitive {
			return c, fmt.Errorf("line %d: %q is not a %s", n.Line, n.Value, want.Prim)
		}
		return decl.StringConst(n.Value), nil
	default:
		return c, fmt.Errorf("line %d: unsupported constant %s", n.Line, n.ShortTag())
	}

	if want.Kind == decl.TypePrimitive {
		if want.Prim == decl.Boolean {
			if c.Kind != decl.ConstBool {
				return c, fmt.Errorf("line %d: %s is not a boolean", n.Line, n.Value)
			}
			return c, nil
		}
		if c.Kind == decl.ConstBool {
			return c, fmt.Errorf("line %d: boolean given for %s", n.Line, want.Prim)
		}
		return c.NarrowTo(want.Prim), nil
	}
	return c, nil
}
