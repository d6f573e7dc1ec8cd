// Package decl models a read-only graph of typed declarations: packages,
// types, members, parameters and type parameters, addressed by Handle.
//
// A Graph is produced by a Builder (see the javasrc and snapshot host
// adapters) and is immutable afterwards. Handles are only meaningful for the
// Graph that issued them.
package decl

import "strings"

// Kind is the closed set of declaration kinds.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindPackage
	KindClass
	KindInterface
	KindEnum
	KindAnnotation
	KindConstructor
	KindMethod
	KindField
	KindEnumConstant
	KindParameter
	KindTypeParameter
)

var kindNames = map[Kind]string{
	KindInvalid:       "invalid",
	KindPackage:       "package",
	KindClass:         "class",
	KindInterface:     "interface",
	KindEnum:          "enum",
	KindAnnotation:    "annotation",
	KindConstructor:   "constructor",
	KindMethod:        "method",
	KindField:         "field",
	KindEnumConstant:  "enum-constant",
	KindParameter:     "parameter",
	KindTypeParameter: "type-parameter",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return k, true
		}
	}
	return KindInvalid, false
}

// IsType reports whether k is a class, interface, enum or annotation type.
func (k Kind) IsType() bool {
	return k == KindClass || k == KindInterface || k == KindEnum || k == KindAnnotation
}

// IsExecutable reports whether k is a method or a constructor.
func (k Kind) IsExecutable() bool {
	return k == KindConstructor || k == KindMethod
}

// IsVariable reports whether k carries a declared type.
func (k Kind) IsVariable() bool {
	return k == KindField || k == KindEnumConstant || k == KindParameter
}

// Modifiers is a bitset of source-level modifiers.
type Modifiers uint16

const (
	ModPublic Modifiers = 1 << iota
	ModProtected
	ModPrivate
	ModAbstract
	ModStatic
	ModFinal
	ModStrictfp
	ModSynchronized
	ModNative
	ModTransient
	ModVolatile
	ModDefault
)

var modifierNames = []struct {
	mod  Modifiers
	name string
}{
	{ModPublic, "public"},
	{ModProtected, "protected"},
	{ModPrivate, "private"},
	{ModAbstract, "abstract"},
	{ModStatic, "static"},
	{ModFinal, "final"},
	{ModStrictfp, "strictfp"},
	{ModSynchronized, "synchronized"},
	{ModNative, "native"},
	{ModTransient, "transient"},
	{ModVolatile, "volatile"},
	{ModDefault, "default"},
}

// Has reports whether every modifier in m2 is set.
func (m Modifiers) Has(m2 Modifiers) bool {
	return m&m2 == m2
}

// Any reports whether at least one modifier in m2 is set.
func (m Modifiers) Any(m2 Modifiers) bool {
	return m&m2 != 0
}

// Names returns the modifier keywords in source order.
func (m Modifiers) Names() []string {
	var out []string
	for _, mn := range modifierNames {
		if m&mn.mod != 0 {
			out = append(out, mn.name)
		}
	}
	return out
}

func (m Modifiers) String() string {
	return strings.Join(m.Names(), " ")
}

// ParseModifier maps a modifier keyword to its bit.
func ParseModifier(s string) (Modifiers, bool) {
	for _, mn := range modifierNames {
		if mn.name == s {
			return mn.mod, true
		}
	}
	return 0, false
}

// Retention is the retention category of an annotation type.
type Retention uint8

const (
	// RetentionClass is the language default when no retention is declared.
	RetentionClass Retention = iota
	RetentionSource
	RetentionRuntime
)

func (r Retention) String() string {
	switch r {
	case RetentionSource:
		return "SOURCE"
	case RetentionRuntime:
		return "RUNTIME"
	default:
		return "CLASS"
	}
}

// ParseRetention accepts SOURCE, CLASS or RUNTIME (case-insensitive).
func ParseRetention(s string) (Retention, bool) {
	switch strings.ToUpper(s) {
	case "SOURCE":
		return RetentionSource, true
	case "CLASS":
		return RetentionClass, true
	case "RUNTIME":
		return RetentionRuntime, true
	}
	return RetentionClass, false
}
