// Package classfile reads and writes JVM class files (format version 52,
// Java 8). The model covers what API stubs need: access flags, generic
// signatures, fields with constant values, methods with exceptions and
// parameters, annotations, annotation defaults, inner class records and
// a small instruction set for stub bodies.
package classfile

import "strings"

// Access flags. Several values are shared between class, field and method
// contexts with different meanings.
const (
	AccPublic       uint16 = 0x0001
	AccPrivate      uint16 = 0x0002
	AccProtected    uint16 = 0x0004
	AccStatic       uint16 = 0x0008
	AccFinal        uint16 = 0x0010
	AccSuper        uint16 = 0x0020 // class
	AccSynchronized uint16 = 0x0020 // method
	AccVolatile     uint16 = 0x0040 // field
	AccBridge       uint16 = 0x0040 // method
	AccTransient    uint16 = 0x0080 // field
	AccVarargs      uint16 = 0x0080 // method
	AccNative       uint16 = 0x0100
	AccInterface    uint16 = 0x0200
	AccAbstract     uint16 = 0x0400
	AccStrict       uint16 = 0x0800
	AccSynthetic    uint16 = 0x1000
	AccAnnotation   uint16 = 0x2000
	AccEnum         uint16 = 0x4000
	AccMandated     uint16 = 0x8000 // parameter
)

// Class file versions.
const (
	Magic   uint32 = 0xCAFEBABE
	V1_8    uint16 = 52
	V1_8Min uint16 = 0
)

// Context selects which flag names apply when formatting access flags.
type Context uint8

const (
	ClassContext Context = iota
	FieldContext
	MethodContext
	InnerClassContext
	ParameterContext
)

// FlagNames renders access flags in javap's keyword order.
func FlagNames(access uint16, ctx Context) []string {
	var out []string
	add := func(flag uint16, name string) {
		if access&flag != 0 {
			out = append(out, name)
		}
	}
	add(AccPublic, "public")
	add(AccPrivate, "private")
	add(AccProtected, "protected")
	add(AccStatic, "static")
	add(AccFinal, "final")
	switch ctx {
	case ClassContext:
		add(AccSuper, "super")
	case MethodContext:
		add(AccSynchronized, "synchronized")
		add(AccBridge, "bridge")
		add(AccVarargs, "varargs")
		add(AccNative, "native")
	case FieldContext:
		add(AccVolatile, "volatile")
		add(AccTransient, "transient")
	}
	if ctx != FieldContext && ctx != ParameterContext {
		add(AccInterface, "interface")
		add(AccAbstract, "abstract")
	}
	if ctx == MethodContext {
		add(AccStrict, "strict")
	}
	add(AccSynthetic, "synthetic")
	if ctx == ClassContext || ctx == InnerClassContext {
		add(AccAnnotation, "annotation")
	}
	if ctx != MethodContext && ctx != ParameterContext {
		add(AccEnum, "enum")
	}
	if ctx == ParameterContext {
		add(AccMandated, "mandated")
	}
	return out
}

// FormatFlags joins FlagNames with spaces.
func FormatFlags(access uint16, ctx Context) string {
	return strings.Join(FlagNames(access, ctx), " ")
}
