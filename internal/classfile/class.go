package classfile

// Class is an in-memory class file. Names are internal names
// (java/lang/Object); descriptors and signatures use JVM grammar.
type Class struct {
	Major      uint16
	Minor      uint16
	Access     uint16
	Name       string
	Super      string // empty only for java/lang/Object
	Interfaces []string
	Signature  string
	Deprecated bool

	InnerClasses         []InnerClass
	VisibleAnnotations   []Annotation
	InvisibleAnnotations []Annotation

	Fields  []Field
	Methods []Method
}

// InnerClass is one InnerClasses attribute entry. Outer and Name are empty
// for local and anonymous classes.
type InnerClass struct {
	Inner  string
	Outer  string
	Name   string
	Access uint16
}

// Field is a field_info.
type Field struct {
	Access     uint16
	Name       string
	Descriptor string
	Signature  string
	Deprecated bool
	// ConstantValue holds int32, int64, float32, float64 or string, or nil.
	ConstantValue any

	VisibleAnnotations   []Annotation
	InvisibleAnnotations []Annotation
}

// Parameter is one MethodParameters entry.
type Parameter struct {
	Name   string
	Access uint16
}

// Method is a method_info.
type Method struct {
	Access     uint16
	Name       string
	Descriptor string
	Signature  string
	Exceptions []string
	Deprecated bool
	Parameters []Parameter

	VisibleAnnotations   []Annotation
	InvisibleAnnotations []Annotation
	// AnnotationDefault is set on annotation type elements with a default.
	AnnotationDefault *ElementValue

	// Code is nil for abstract and native methods.
	Code *Code
}

// Annotation is an annotation structure; Type is a field descriptor.
type Annotation struct {
	Type   string
	Values []NamedValue
}

// NamedValue is one element_value_pair.
type NamedValue struct {
	Name  string
	Value ElementValue
}

// Element value tags.
const (
	TagByte       byte = 'B'
	TagChar       byte = 'C'
	TagDouble     byte = 'D'
	TagFloat      byte = 'F'
	TagInt        byte = 'I'
	TagLong       byte = 'J'
	TagShort      byte = 'S'
	TagBoolean    byte = 'Z'
	TagString     byte = 's'
	TagEnum       byte = 'e'
	TagClass      byte = 'c'
	TagAnnotation byte = '@'
	TagArray      byte = '['
)

// ElementValue is an element_value. Const holds int32 for B C I S Z,
// int64 for J, float32 for F, float64 for D and string for s.
type ElementValue struct {
	Tag        byte
	Const      any
	EnumType   string // field descriptor of the enum type
	EnumName   string
	Class      string // return descriptor of the class literal
	Annotation *Annotation
	Array      []ElementValue
}

// Code is a Code attribute restricted to the stub instruction set.
type Code struct {
	MaxStack  uint16
	MaxLocals uint16
	Insns     []Insn
}

// Opcodes understood by the assembler.
const (
	OpLdc           byte = 0x12
	OpLdcW          byte = 0x13
	OpDup           byte = 0x59
	OpAthrow        byte = 0xBF
	OpNew           byte = 0xBB
	OpInvokespecial byte = 0xB7
)

// Insn is one instruction. Ldc takes String; New takes Class; Invokespecial
// takes Owner, Name and Desc of the method reference.
type Insn struct {
	Op     byte
	String string
	Class  string
	Owner  string
	Name   string
	Desc   string
}
