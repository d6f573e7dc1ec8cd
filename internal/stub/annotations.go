package stub

import (
	"fmt"

	"apiextract/internal/classfile"
	"apiextract/internal/decl"
)

// annotations copies the annotations of h that survive compilation, split by
// runtime visibility. Source-retained annotations are dropped.
func (e *Emitter) annotations(h decl.Handle) (visible, invisible []classfile.Annotation, err error) {
	for _, a := range e.g.Annotations(h) {
		ret := e.g.Retention(a.Type)
		if ret == decl.RetentionSource {
			continue
		}
		ca, err := e.annotation(a)
		if err != nil {
			return nil, nil, fmt.Errorf("annotation %s: %w", e.g.QualifiedName(a.Type), err)
		}
		if ret == decl.RetentionRuntime {
			visible = append(visible, ca)
		} else {
			invisible = append(invisible, ca)
		}
	}
	return visible, invisible, nil
}

func (e *Emitter) annotation(a decl.Annotation) (classfile.Annotation, error) {
	out := classfile.Annotation{Type: classfile.ObjectDescriptor(e.g.InternalName(a.Type))}
	for _, ev := range a.Values {
		v, err := e.elementValue(ev.Value, e.elementType(a.Type, ev.Name))
		if err != nil {
			return out, fmt.Errorf("element %s: %w", ev.Name, err)
		}
		out.Values = append(out.Values, classfile.NamedValue{Name: ev.Name, Value: v})
	}
	return out, nil
}

// elementType returns the declared type of element name of annotation type
// ann, or NoType when the element is unknown.
func (e *Emitter) elementType(ann decl.Handle, name string) decl.TypeRef {
	for _, m := range e.g.MembersNamed(ann, name) {
		if e.g.Kind(m) == decl.KindMethod {
			return e.g.ReturnType(m)
		}
	}
	return decl.NoType
}

// elementValue converts v to the shape its declared type wants: constants
// are narrowed to the element's primitive and a single value given for an
// array element becomes a one-element array.
func (e *Emitter) elementValue(v decl.AnnotationValue, want decl.TypeRef) (classfile.ElementValue, error) {
	if want.Kind == decl.TypeArray && v.Kind != decl.ValueArray {
		v = decl.ArrayValue(v)
	}
	switch v.Kind {
	case decl.ValueConst:
		c := v.Const
		if want.Kind == decl.TypePrimitive {
			c = c.NarrowTo(want.Prim)
		}
		return constElement(c)
	case decl.ValueClass:
		desc := "V"
		if !v.Type.IsVoid() {
			d, err := e.tw.descriptor(v.Type)
			if err != nil {
				return classfile.ElementValue{}, err
			}
			desc = d
		}
		return classfile.ElementValue{Tag: classfile.TagClass, Class: desc}, nil
	case decl.ValueEnum:
		return classfile.ElementValue{
			Tag:      classfile.TagEnum,
			EnumType: classfile.ObjectDescriptor(e.g.InternalName(v.EnumType)),
			EnumName: v.EnumName,
		}, nil
	case decl.ValueAnnotation:
		if v.Annotation == nil {
			return classfile.ElementValue{}, fmt.Errorf("nested annotation value is empty")
		}
		a, err := e.annotation(*v.Annotation)
		if err != nil {
			return classfile.ElementValue{}, err
		}
		return classfile.ElementValue{Tag: classfile.TagAnnotation, Annotation: &a}, nil
	case decl.ValueArray:
		elem := decl.NoType
		if want.Kind == decl.TypeArray {
			elem = *want.Elem
		}
		out := classfile.ElementValue{Tag: classfile.TagArray, Array: make([]classfile.ElementValue, 0, len(v.Elems))}
		for _, el := range v.Elems {
			cv, err := e.elementValue(el, elem)
			if err != nil {
				return classfile.ElementValue{}, err
			}
			out.Array = append(out.Array, cv)
		}
		return out, nil
	}
	return classfile.ElementValue{}, fmt.Errorf("unknown annotation value kind %d", v.Kind)
}

func constElement(c decl.Constant) (classfile.ElementValue, error) {
	switch c.Kind {
	case decl.ConstBool:
		return classfile.ElementValue{Tag: classfile.TagBoolean, Const: int32(c.I)}, nil
	case decl.ConstChar:
		return classfile.ElementValue{Tag: classfile.TagChar, Const: int32(c.I)}, nil
	case decl.ConstByte:
		return classfile.ElementValue{Tag: classfile.TagByte, Const: int32(c.I)}, nil
	case decl.ConstShort:
		return classfile.ElementValue{Tag: classfile.TagShort, Const: int32(c.I)}, nil
	case decl.ConstInt:
		return classfile.ElementValue{Tag: classfile.TagInt, Const: int32(c.I)}, nil
	case decl.ConstLong:
		return classfile.ElementValue{Tag: classfile.TagLong, Const: c.I}, nil
	case decl.ConstFloat:
		return classfile.ElementValue{Tag: classfile.TagFloat, Const: float32(c.F)}, nil
	case decl.ConstDouble:
		return classfile.ElementValue{Tag: classfile.TagDouble, Const: c.F}, nil
	case decl.ConstString:
		return classfile.ElementValue{Tag: classfile.TagString, Const: c.S}, nil
	}
	return classfile.ElementValue{}, fmt.Errorf("constant of kind %d is not an annotation value", c.Kind)
}
