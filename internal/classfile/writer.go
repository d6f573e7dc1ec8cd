package classfile

import (
	"encoding/binary"
	"fmt"
	"math"
)

// attrBuf collects the attributes of one structure.
type attrBuf struct {
	n   uint16
	buf []byte
}

type writer struct {
	pool *constPool
	err  error
}

func (w *writer) fail(err error) {
	if w.err == nil {
		w.err = err
	}
}

func u2(b []byte, v uint16) []byte { return binary.BigEndian.AppendUint16(b, v) }
func u4(b []byte, v uint32) []byte { return binary.BigEndian.AppendUint32(b, v) }

func (w *writer) attr(a *attrBuf, name string, data []byte) {
	a.n++
	a.buf = u2(a.buf, w.pool.utf8(name))
	a.buf = u4(a.buf, uint32(len(data)))
	a.buf = append(a.buf, data...)
}

// Bytes serializes the class file.
func (c *Class) Bytes() ([]byte, error) {
	w := &writer{pool: newConstPool()}

	var body []byte
	body = u2(body, c.Access)
	body = u2(body, w.pool.class(c.Name))
	if c.Super == "" {
		body = u2(body, 0)
	} else {
		body = u2(body, w.pool.class(c.Super))
	}
	body = u2(body, uint16(len(c.Interfaces)))
	for _, itf := range c.Interfaces {
		body = u2(body, w.pool.class(itf))
	}

	body = u2(body, uint16(len(c.Fields)))
	for i := range c.Fields {
		body = w.field(body, &c.Fields[i])
	}
	body = u2(body, uint16(len(c.Methods)))
	for i := range c.Methods {
		body = w.method(body, &c.Methods[i])
	}

	var attrs attrBuf
	if c.Signature != "" {
		w.attr(&attrs, "Signature", u2(nil, w.pool.utf8(c.Signature)))
	}
	if c.Deprecated {
		w.attr(&attrs, "Deprecated", nil)
	}
	if len(c.InnerClasses) > 0 {
		data := u2(nil, uint16(len(c.InnerClasses)))
		for _, ic := range c.InnerClasses {
			data = u2(data, w.pool.class(ic.Inner))
			if ic.Outer == "" {
				data = u2(data, 0)
			} else {
				data = u2(data, w.pool.class(ic.Outer))
			}
			if ic.Name == "" {
				data = u2(data, 0)
			} else {
				data = u2(data, w.pool.utf8(ic.Name))
			}
			data = u2(data, ic.Access)
		}
		w.attr(&attrs, "InnerClasses", data)
	}
	w.annotations(&attrs, c.VisibleAnnotations, c.InvisibleAnnotations)
	body = u2(body, attrs.n)
	body = append(body, attrs.buf...)

	if w.err != nil {
		return nil, fmt.Errorf("class %s: %w", c.Name, w.err)
	}
	if w.pool.err != nil {
		return nil, fmt.Errorf("class %s: %w", c.Name, w.pool.err)
	}
	if len(c.Fields) > math.MaxUint16 || len(c.Methods) > math.MaxUint16 {
		return nil, fmt.Errorf("class %s: too many members", c.Name)
	}

	major, minor := c.Major, c.Minor
	if major == 0 {
		major, minor = V1_8, V1_8Min
	}
	out := make([]byte, 0, 10+len(w.pool.buf)+len(body))
	out = u4(out, Magic)
	out = u2(out, minor)
	out = u2(out, major)
	out = u2(out, w.pool.count())
	out = append(out, w.pool.buf...)
	out = append(out, body...)
	return out, nil
}

func (w *writer) field(b []byte, f *Field) []byte {
	b = u2(b, f.Access)
	b = u2(b, w.pool.utf8(f.Name))
	b = u2(b, w.pool.utf8(f.Descriptor))

	var attrs attrBuf
	if f.ConstantValue != nil {
		idx, err := w.pool.constant(f.ConstantValue)
		if err != nil {
			w.fail(fmt.Errorf("field %s: %w", f.Name, err))
		}
		w.attr(&attrs, "ConstantValue", u2(nil, idx))
	}
	if f.Signature != "" {
		w.attr(&attrs, "Signature", u2(nil, w.pool.utf8(f.Signature)))
	}
	if f.Deprecated {
		w.attr(&attrs, "Deprecated", nil)
	}
	w.annotations(&attrs, f.VisibleAnnotations, f.InvisibleAnnotations)
	b = u2(b, attrs.n)
	return append(b, attrs.buf...)
}

func (w *writer) method(b []byte, m *Method) []byte {
	b = u2(b, m.Access)
	b = u2(b, w.pool.utf8(m.Name))
	b = u2(b, w.pool.utf8(m.Descriptor))

	var attrs attrBuf
	if m.Code != nil {
		w.attr(&attrs, "Code", w.code(m.Code))
	}
	if len(m.Exceptions) > 0 {
		data := u2(nil, uint16(len(m.Exceptions)))
		for _, e := range m.Exceptions {
			data = u2(data, w.pool.class(e))
		}
		w.attr(&attrs, "Exceptions", data)
	}
	if m.Signature != "" {
		w.attr(&attrs, "Signature", u2(nil, w.pool.utf8(m.Signature)))
	}
	if m.Deprecated {
		w.attr(&attrs, "Deprecated", nil)
	}
	if len(m.Parameters) > 0 {
		if len(m.Parameters) > math.MaxUint8 {
			w.fail(fmt.Errorf("method %s: too many parameters", m.Name))
		}
		data := []byte{byte(len(m.Parameters))}
		for _, p := range m.Parameters {
			if p.Name == "" {
				data = u2(data, 0)
			} else {
				data = u2(data, w.pool.utf8(p.Name))
			}
			data = u2(data, p.Access)
		}
		w.attr(&attrs, "MethodParameters", data)
	}
	w.annotations(&attrs, m.VisibleAnnotations, m.InvisibleAnnotations)
	if m.AnnotationDefault != nil {
		w.attr(&attrs, "AnnotationDefault", w.elementValue(nil, *m.AnnotationDefault))
	}
	b = u2(b, attrs.n)
	return append(b, attrs.buf...)
}

func (w *writer) code(c *Code) []byte {
	var code []byte
	for _, in := range c.Insns {
		switch in.Op {
		case OpNew:
			code = append(code, OpNew)
			code = u2(code, w.pool.class(in.Class))
		case OpLdc, OpLdcW:
			idx := w.pool.string(in.String)
			if idx <= math.MaxUint8 {
				code = append(code, OpLdc, byte(idx))
			} else {
				code = append(code, OpLdcW)
				code = u2(code, idx)
			}
		case OpInvokespecial:
			code = append(code, OpInvokespecial)
			code = u2(code, w.pool.methodref(in.Owner, in.Name, in.Desc))
		case OpDup, OpAthrow:
			code = append(code, in.Op)
		default:
			w.fail(fmt.Errorf("unsupported opcode 0x%02x", in.Op))
		}
	}
	data := u2(nil, c.MaxStack)
	data = u2(data, c.MaxLocals)
	data = u4(data, uint32(len(code)))
	data = append(data, code...)
	data = u2(data, 0) // exception table
	data = u2(data, 0) // attributes
	return data
}

func (w *writer) annotations(a *attrBuf, visible, invisible []Annotation) {
	if len(visible) > 0 {
		w.attr(a, "RuntimeVisibleAnnotations", w.annotationList(visible))
	}
	if len(invisible) > 0 {
		w.attr(a, "RuntimeInvisibleAnnotations", w.annotationList(invisible))
	}
}

func (w *writer) annotationList(anns []Annotation) []byte {
	b := u2(nil, uint16(len(anns)))
	for i := range anns {
		b = w.annotation(b, &anns[i])
	}
	return b
}

func (w *writer) annotation(b []byte, a *Annotation) []byte {
	b = u2(b, w.pool.utf8(a.Type))
	b = u2(b, uint16(len(a.Values)))
	for _, nv := range a.Values {
		b = u2(b, w.pool.utf8(nv.Name))
		b = w.elementValue(b, nv.Value)
	}
	return b
}

func (w *writer) elementValue(b []byte, v ElementValue) []byte {
	b = append(b, v.Tag)
	switch v.Tag {
	case TagByte, TagChar, TagInt, TagShort, TagBoolean:
		n, ok := v.Const.(int32)
		if !ok {
			w.fail(fmt.Errorf("element value %c needs int32, got %T", v.Tag, v.Const))
		}
		b = u2(b, w.pool.integer(n))
	case TagLong:
		n, ok := v.Const.(int64)
		if !ok {
			w.fail(fmt.Errorf("element value J needs int64, got %T", v.Const))
		}
		b = u2(b, w.pool.long(n))
	case TagFloat:
		f, ok := v.Const.(float32)
		if !ok {
			w.fail(fmt.Errorf("element value F needs float32, got %T", v.Const))
		}
		b = u2(b, w.pool.float(f))
	case TagDouble:
		f, ok := v.Const.(float64)
		if !ok {
			w.fail(fmt.Errorf("element value D needs float64, got %T", v.Const))
		}
		b = u2(b, w.pool.double(f))
	case TagString:
		s, ok := v.Const.(string)
		if !ok {
			w.fail(fmt.Errorf("element value s needs string, got %T", v.Const))
		}
		b = u2(b, w.pool.utf8(s))
	case TagEnum:
		b = u2(b, w.pool.utf8(v.EnumType))
		b = u2(b, w.pool.utf8(v.EnumName))
	case TagClass:
		b = u2(b, w.pool.utf8(v.Class))
	case TagAnnotation:
		if v.Annotation == nil {
			w.fail(fmt.Errorf("nested annotation value without annotation"))
			return u2(u2(b, w.pool.utf8("Ljava/lang/annotation/Annotation;")), 0)
		}
		b = w.annotation(b, v.Annotation)
	case TagArray:
		b = u2(b, uint16(len(v.Array)))
		for _, e := range v.Array {
			b = w.elementValue(b, e)
		}
	default:
		w.fail(fmt.Errorf("unknown element value tag %q", v.Tag))
	}
	return b
}
