package decl

import (
	"fmt"
	"math"
	"strconv"
)

// ConstKind discriminates compile-time constant values.
type ConstKind uint8

const (
	ConstNone ConstKind = iota
	ConstBool
	ConstChar
	ConstByte
	ConstShort
	ConstInt
	ConstLong
	ConstFloat
	ConstDouble
	ConstString
)

// Constant is a compile-time constant value. Integral kinds (bool and char
// included) live in I, floating kinds in F, strings in S.
type Constant struct {
	Kind ConstKind
	I    int64
	F    float64
	S    string
}

func BoolConst(b bool) Constant {
	if b {
		return Constant{Kind: ConstBool, I: 1}
	}
	return Constant{Kind: ConstBool}
}

func IntConst(v int32) Constant { return Constant{Kind: ConstInt, I: int64(v)} }
func LongConst(v int64) Constant { return Constant{Kind: ConstLong, I: v} }
func CharConst(v uint16) Constant { return Constant{Kind: ConstChar, I: int64(v)} }
func FloatConst(v float32) Constant { return Constant{Kind: ConstFloat, F: float64(v)} }
func DoubleConst(v float64) Constant {
	return Constant{Kind: ConstDouble, F: v}
}
func StringConst(s string) Constant { return Constant{Kind: ConstString, S: s} }

// IsValid reports whether c holds a value.
func (c Constant) IsValid() bool {
	return c.Kind != ConstNone
}

// IsIntegral reports whether c is stored in I.
func (c Constant) IsIntegral() bool {
	switch c.Kind {
	case ConstBool, ConstChar, ConstByte, ConstShort, ConstInt, ConstLong:
		return true
	}
	return false
}

// IsNumeric reports whether c is a numeric (char included) constant.
func (c Constant) IsNumeric() bool {
	switch c.Kind {
	case ConstChar, ConstByte, ConstShort, ConstInt, ConstLong, ConstFloat, ConstDouble:
		return true
	}
	return false
}

// AsFloat returns the numeric value as float64.
func (c Constant) AsFloat() float64 {
	if c.Kind == ConstFloat || c.Kind == ConstDouble {
		return c.F
	}
	return float64(c.I)
}

// AsInt returns the numeric value truncated toward zero as int64.
func (c Constant) AsInt() int64 {
	if c.Kind == ConstFloat || c.Kind == ConstDouble {
		return floatToLong(c.F)
	}
	return c.I
}

// NarrowTo converts a numeric constant to the width of primitive p, the way
// a primitive conversion would. Non-numeric constants and non-numeric targets
// are returned unchanged.
func (c Constant) NarrowTo(p Primitive) Constant {
	if !c.IsNumeric() {
		return c
	}
	switch p {
	case Byte:
		return Constant{Kind: ConstByte, I: int64(int8(c.asInt32()))}
	case Short:
		return Constant{Kind: ConstShort, I: int64(int16(c.asInt32()))}
	case Char:
		return Constant{Kind: ConstChar, I: int64(uint16(c.asInt32()))}
	case Int:
		return Constant{Kind: ConstInt, I: int64(c.asInt32())}
	case Long:
		return Constant{Kind: ConstLong, I: c.AsInt()}
	case Float:
		return Constant{Kind: ConstFloat, F: float64(float32(c.AsFloat()))}
	case Double:
		return Constant{Kind: ConstDouble, F: c.AsFloat()}
	}
	return c
}

// asInt32 is the int conversion that narrower targets go through: floating
// values saturate at the int range, integral values wrap.
func (c Constant) asInt32() int32 {
	if c.Kind == ConstFloat || c.Kind == ConstDouble {
		return floatToInt(c.F)
	}
	return int32(c.I)
}

func floatToInt(f float64) int32 {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt32:
		return math.MaxInt32
	case f <= math.MinInt32:
		return math.MinInt32
	}
	return int32(f)
}

// floatToLong mirrors the language's saturating float-to-long conversion.
func floatToLong(f float64) int64 {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= 9.223372036854775807e18:
		return 1<<63 - 1
	case f <= -9.223372036854775808e18:
		return -1 << 63
	}
	return int64(f)
}

func (c Constant) String() string {
	switch c.Kind {
	case ConstBool:
		return strconv.FormatBool(c.I != 0)
	case ConstChar:
		return strconv.QuoteRune(rune(c.I))
	case ConstByte, ConstShort, ConstInt:
		return strconv.FormatInt(c.I, 10)
	case ConstLong:
		return strconv.FormatInt(c.I, 10) + "L"
	case ConstFloat:
		return strconv.FormatFloat(c.F, 'g', -1, 32) + "f"
	case ConstDouble:
		return strconv.FormatFloat(c.F, 'g', -1, 64)
	case ConstString:
		return strconv.Quote(c.S)
	}
	return "<none>"
}

// ValueKind discriminates annotation element values.
type ValueKind uint8

const (
	ValueConst ValueKind = iota + 1
	ValueClass
	ValueEnum
	ValueAnnotation
	ValueArray
)

// AnnotationValue is an annotation element value. It is a recursive tagged
// union over the shapes an element may take.
type AnnotationValue struct {
	Kind       ValueKind
	Const      Constant
	Type       TypeRef // class literal
	EnumType   Handle
	EnumName   string
	Annotation *Annotation
	Elems      []AnnotationValue
}

// ConstValue wraps a scalar constant.
func ConstValue(c Constant) AnnotationValue {
	return AnnotationValue{Kind: ValueConst, Const: c}
}

// ClassValue wraps a class literal.
func ClassValue(t TypeRef) AnnotationValue {
	return AnnotationValue{Kind: ValueClass, Type: t}
}

// EnumValue references an enum constant by declaring type and name.
func EnumValue(enumType Handle, name string) AnnotationValue {
	return AnnotationValue{Kind: ValueEnum, EnumType: enumType, EnumName: name}
}

// NestedValue wraps a nested annotation.
func NestedValue(a Annotation) AnnotationValue {
	return AnnotationValue{Kind: ValueAnnotation, Annotation: &a}
}

// ArrayValue wraps element values.
func ArrayValue(elems ...AnnotationValue) AnnotationValue {
	return AnnotationValue{Kind: ValueArray, Elems: elems}
}

// ElementValue is one name=value pair of an annotation.
type ElementValue struct {
	Name  string
	Value AnnotationValue
}

// Annotation is an annotation use: the annotation type plus explicitly
// written element values in source order.
type Annotation struct {
	Type   Handle
	Values []ElementValue
}

// Value returns the element value named name.
func (a Annotation) Value(name string) (AnnotationValue, bool) {
	for _, ev := range a.Values {
		if ev.Name == name {
			return ev.Value, true
		}
	}
	return AnnotationValue{}, false
}

func (v AnnotationValue) String() string {
	switch v.Kind {
	case ValueConst:
		return v.Const.String()
	case ValueClass:
		return "<class>"
	case ValueEnum:
		return v.EnumName
	case ValueAnnotation:
		return "@<annotation>"
	case ValueArray:
		return fmt.Sprintf("{%d elements}", len(v.Elems))
	}
	return "<invalid>"
}
