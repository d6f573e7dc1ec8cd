// Package stub turns the type declarations of a closure into class files
// whose method bodies only throw.
package stub

import (
	"fmt"
	"path"

	"apiextract/internal/classfile"
	"apiextract/internal/closure"
	"apiextract/internal/decl"
	"apiextract/internal/errors"
)

// StubMessage is the detail message of the exception thrown by every stub body.
const StubMessage = "API only."

const uoeInternalName = "java/lang/UnsupportedOperationException"

// Emitter builds class files for the types of one closure result. It only
// reads the result and the graph, so Emit may be called concurrently.
type Emitter struct {
	res *closure.Result
	g   *decl.Graph
	tw  typeWriter
}

// NewEmitter creates an emitter over res.
func NewEmitter(res *closure.Result) *Emitter {
	g := res.Graph()
	return &Emitter{res: res, g: g, tw: typeWriter{g: g}}
}

// ResourceName returns the package path and file name under which the
// artifact of type h is stored (com/example, Outer$Inner.class).
func ResourceName(g *decl.Graph, h decl.Handle) (pkg, file string) {
	internal := g.InternalName(h)
	dir, base := path.Split(internal)
	return path.Clean("/" + dir)[1:], base + ".class"
}

// Emit returns the serialized class file of type h.
func (e *Emitter) Emit(h decl.Handle) ([]byte, error) {
	c, err := e.Class(h)
	if err != nil {
		return nil, err
	}
	data, err := c.Bytes()
	if err != nil {
		return nil, errors.New(errors.EmitFailed, "cannot serialize "+e.g.BinaryName(h), err)
	}
	return data, nil
}

// Class builds the class file model of type h.
func (e *Emitter) Class(h decl.Handle) (*classfile.Class, error) {
	if !e.g.Kind(h).IsType() {
		return nil, errors.Newf(errors.EmitFailed, "%s is a %s, not a type", e.g.QualifiedName(h), e.g.Kind(h))
	}
	if !e.res.Contains(h) {
		return nil, errors.Newf(errors.EmitFailed, "%s is not part of the closure", e.g.QualifiedName(h))
	}
	c, err := e.class(h)
	if err != nil {
		return nil, errors.New(errors.EmitFailed, "cannot emit "+e.g.BinaryName(h), err)
	}
	return c, nil
}

func (e *Emitter) class(h decl.Handle) (*classfile.Class, error) {
	g := e.g
	c := &classfile.Class{
		Major:      classfile.V1_8,
		Minor:      classfile.V1_8Min,
		Access:     classAccess(g, h),
		Name:       g.InternalName(h),
		Deprecated: g.IsDeprecated(h),
	}

	var supers []decl.Handle
	switch g.Kind(h) {
	case decl.KindInterface, decl.KindAnnotation:
		c.Super = objectInternalName
	default:
		if sc := g.Superclass(h); !sc.IsNone() {
			name, err := e.tw.internalName(sc)
			if err != nil {
				return nil, fmt.Errorf("superclass: %w", err)
			}
			c.Super = name
			supers = append(supers, sc.Decl)
		}
	}
	for _, itf := range g.Interfaces(h) {
		name, err := e.tw.internalName(itf)
		if err != nil {
			return nil, fmt.Errorf("interface: %w", err)
		}
		c.Interfaces = append(c.Interfaces, name)
		supers = append(supers, itf.Decl)
	}

	sig, err := e.tw.classSignature(h)
	if err != nil {
		return nil, fmt.Errorf("signature: %w", err)
	}
	c.Signature = sig

	inner := newInnerClasses(g)
	inner.addChain(h)
	for _, s := range supers {
		inner.addChain(s)
	}

	if c.VisibleAnnotations, c.InvisibleAnnotations, err = e.annotations(h); err != nil {
		return nil, err
	}

	for _, m := range e.res.IncludedMembers(h) {
		switch k := g.Kind(m); {
		case k.IsType():
			inner.add(m)
		case k == decl.KindField || k == decl.KindEnumConstant:
			f, err := e.field(h, m)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", g.Name(m), err)
			}
			c.Fields = append(c.Fields, *f)
		case k.IsExecutable():
			meth, err := e.method(h, m)
			if err != nil {
				return nil, fmt.Errorf("method %s: %w", g.Name(m), err)
			}
			c.Methods = append(c.Methods, *meth)
		}
	}
	c.InnerClasses = inner.list
	return c, nil
}

func (e *Emitter) field(owner, h decl.Handle) (*classfile.Field, error) {
	g := e.g
	f := &classfile.Field{
		Access:     fieldAccess(g, h),
		Name:       g.Name(h),
		Deprecated: g.IsDeprecated(h),
	}
	if g.Kind(h) == decl.KindEnumConstant {
		f.Descriptor = classfile.ObjectDescriptor(g.InternalName(owner))
	} else {
		t := g.DeclaredType(h)
		desc, err := e.tw.descriptor(t)
		if err != nil {
			return nil, err
		}
		f.Descriptor = desc
		if f.Signature, err = e.tw.fieldSignature(t); err != nil {
			return nil, err
		}
		if c, ok := g.ConstantValue(h); ok && !e.unconstantized(h) {
			v, err := fieldConstant(c, t)
			if err != nil {
				return nil, err
			}
			f.ConstantValue = v
		}
	}

	var err error
	if f.VisibleAnnotations, f.InvisibleAnnotations, err = e.annotations(h); err != nil {
		return nil, err
	}
	return f, nil
}

// unconstantized reports whether the constant of a static final field is
// withheld. Only a seed on the field itself can ask for that.
func (e *Emitter) unconstantized(h decl.Handle) bool {
	mods := e.g.Modifiers(h)
	if !mods.Has(decl.ModStatic | decl.ModFinal) {
		return false
	}
	s, ok := e.res.Seed(h)
	return ok && s.Unconstantize == closure.True
}

// fieldConstant narrows c to the declared type of the field and converts it
// to the value type the constant pool expects.
func fieldConstant(c decl.Constant, t decl.TypeRef) (any, error) {
	if t.Kind == decl.TypePrimitive {
		c = c.NarrowTo(t.Prim)
	}
	switch c.Kind {
	case decl.ConstBool, decl.ConstChar, decl.ConstByte, decl.ConstShort, decl.ConstInt:
		return int32(c.I), nil
	case decl.ConstLong:
		return c.I, nil
	case decl.ConstFloat:
		return float32(c.F), nil
	case decl.ConstDouble:
		return c.F, nil
	case decl.ConstString:
		return c.S, nil
	}
	return nil, fmt.Errorf("constant of kind %d cannot be stored", c.Kind)
}

// needsOuterInstance reports whether constructor h takes the enclosing
// instance as an implicit first parameter.
func (e *Emitter) needsOuterInstance(owner, h decl.Handle) bool {
	g := e.g
	if g.Kind(h) != decl.KindConstructor || g.Kind(owner) != decl.KindClass {
		return false
	}
	if g.Modifiers(owner).Has(decl.ModStatic) || !g.IsNested(owner) {
		return false
	}
	k := g.Kind(g.Enclosing(owner))
	return k == decl.KindClass || k == decl.KindEnum
}

func (e *Emitter) method(owner, h decl.Handle) (*classfile.Method, error) {
	g := e.g
	m := &classfile.Method{
		Access:     methodAccess(g, owner, h),
		Name:       g.Name(h),
		Deprecated: g.IsDeprecated(h),
	}

	var params []string
	if e.needsOuterInstance(owner, h) {
		params = append(params, classfile.ObjectDescriptor(g.InternalName(g.Enclosing(owner))))
		m.Parameters = append(m.Parameters, classfile.Parameter{
			Name:   "this$0",
			Access: classfile.AccFinal | classfile.AccMandated,
		})
	}
	for _, p := range g.Parameters(h) {
		desc, err := e.tw.descriptor(g.DeclaredType(p))
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", g.Name(p), err)
		}
		params = append(params, desc)
		m.Parameters = append(m.Parameters, classfile.Parameter{Name: g.Name(p), Access: parameterAccess(g, p)})
	}

	ret := "V"
	if g.Kind(h) == decl.KindConstructor {
		m.Name = "<init>"
	} else if rt := g.ReturnType(h); !rt.IsNone() && !rt.IsVoid() {
		d, err := e.tw.descriptor(rt)
		if err != nil {
			return nil, fmt.Errorf("return type: %w", err)
		}
		ret = d
	}
	m.Descriptor = classfile.MethodDescriptor(ret, params...)

	var err error
	if m.Signature, err = e.tw.methodSignature(h); err != nil {
		return nil, err
	}
	for _, t := range g.ThrownTypes(h) {
		name, err := e.tw.internalName(t)
		if err != nil {
			return nil, fmt.Errorf("thrown type: %w", err)
		}
		m.Exceptions = append(m.Exceptions, name)
	}

	if m.VisibleAnnotations, m.InvisibleAnnotations, err = e.annotations(h); err != nil {
		return nil, err
	}
	if def, ok := g.AnnotationDefault(h); ok {
		v, err := e.elementValue(def, g.ReturnType(h))
		if err != nil {
			return nil, fmt.Errorf("default value: %w", err)
		}
		m.AnnotationDefault = &v
	}

	if m.Access&classfile.AccAbstract == 0 {
		slots, err := classfile.ArgumentSlots(m.Descriptor)
		if err != nil {
			return nil, err
		}
		if m.Access&classfile.AccStatic == 0 {
			slots++
		}
		m.Code = stubBody(uint16(slots))
	}
	return m, nil
}

// stubBody is `throw new UnsupportedOperationException("API only.")`.
func stubBody(maxLocals uint16) *classfile.Code {
	return &classfile.Code{
		MaxStack:  3,
		MaxLocals: maxLocals,
		Insns: []classfile.Insn{
			{Op: classfile.OpNew, Class: uoeInternalName},
			{Op: classfile.OpDup},
			{Op: classfile.OpLdc, String: StubMessage},
			{Op: classfile.OpInvokespecial, Owner: uoeInternalName, Name: "<init>", Desc: "(Ljava/lang/String;)V"},
			{Op: classfile.OpAthrow},
		},
	}
}
