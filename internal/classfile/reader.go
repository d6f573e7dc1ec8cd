package classfile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

var errTruncated = errors.New("truncated class file")

type cpEntry struct {
	tag  byte
	s    string
	a, b uint16
	i    int64
	f    float64
}

type reader struct {
	data []byte
	pos  int
	pool []cpEntry
	err  error
}

func (r *reader) need(n int) bool {
	if r.err != nil {
		return false
	}
	if r.pos+n > len(r.data) {
		r.err = errTruncated
		return false
	}
	return true
}

func (r *reader) u1() byte {
	if !r.need(1) {
		return 0
	}
	v := r.data[r.pos]
	r.pos++
	return v
}

func (r *reader) u2() uint16 {
	if !r.need(2) {
		return 0
	}
	v := binary.BigEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return v
}

func (r *reader) u4() uint32 {
	if !r.need(4) {
		return 0
	}
	v := binary.BigEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v
}

func (r *reader) bytes(n int) []byte {
	if !r.need(n) {
		return nil
	}
	v := r.data[r.pos : r.pos+n]
	r.pos += n
	return v
}

func (r *reader) entry(idx uint16, tag byte) *cpEntry {
	if r.err != nil {
		return &cpEntry{}
	}
	if int(idx) <= 0 || int(idx) >= len(r.pool) || r.pool[idx].tag != tag {
		r.err = fmt.Errorf("constant pool index %d is not of tag %d", idx, tag)
		return &cpEntry{}
	}
	return &r.pool[idx]
}

func (r *reader) utf8(idx uint16) string {
	return r.entry(idx, tagUtf8).s
}

func (r *reader) optUTF8(idx uint16) string {
	if idx == 0 {
		return ""
	}
	return r.utf8(idx)
}

func (r *reader) class(idx uint16) string {
	return r.utf8(r.entry(idx, tagClass).a)
}

func (r *reader) optClass(idx uint16) string {
	if idx == 0 {
		return ""
	}
	return r.class(idx)
}

// Parse decodes a class file produced by Class.Bytes. Attributes outside the
// supported set are skipped; Code attributes must use the stub instruction set.
func Parse(data []byte) (*Class, error) {
	r := &reader{data: data}
	if r.u4() != Magic {
		if r.err != nil {
			return nil, r.err
		}
		return nil, fmt.Errorf("bad magic number")
	}
	c := &Class{}
	c.Minor = r.u2()
	c.Major = r.u2()
	r.readPool()

	c.Access = r.u2()
	c.Name = r.class(r.u2())
	c.Super = r.optClass(r.u2())
	n := r.u2()
	for i := 0; i < int(n) && r.err == nil; i++ {
		c.Interfaces = append(c.Interfaces, r.class(r.u2()))
	}

	n = r.u2()
	for i := 0; i < int(n) && r.err == nil; i++ {
		c.Fields = append(c.Fields, r.field())
	}
	n = r.u2()
	for i := 0; i < int(n) && r.err == nil; i++ {
		c.Methods = append(c.Methods, r.method())
	}

	r.attributes(func(name string, ar *reader) {
		switch name {
		case "Signature":
			c.Signature = ar.utf8(ar.u2())
		case "Deprecated":
			c.Deprecated = true
		case "InnerClasses":
			cnt := ar.u2()
			for i := 0; i < int(cnt) && ar.err == nil; i++ {
				c.InnerClasses = append(c.InnerClasses, InnerClass{
					Inner:  ar.class(ar.u2()),
					Outer:  ar.optClass(ar.u2()),
					Name:   ar.optUTF8(ar.u2()),
					Access: ar.u2(),
				})
			}
		case "RuntimeVisibleAnnotations":
			c.VisibleAnnotations = ar.annotationList()
		case "RuntimeInvisibleAnnotations":
			c.InvisibleAnnotations = ar.annotationList()
		}
	})

	if r.err != nil {
		return nil, r.err
	}
	if r.pos != len(data) {
		return nil, fmt.Errorf("%d trailing bytes after class file", len(data)-r.pos)
	}
	return c, nil
}

func (r *reader) readPool() {
	count := r.u2()
	r.pool = make([]cpEntry, count)
	for i := 1; i < int(count) && r.err == nil; i++ {
		tag := r.u1()
		e := cpEntry{tag: tag}
		switch tag {
		case tagUtf8:
			l := r.u2()
			s, err := decodeModifiedUTF8(r.bytes(int(l)))
			if err != nil && r.err == nil {
				r.err = err
			}
			e.s = s
		case tagInteger:
			e.i = int64(int32(r.u4()))
		case tagFloat:
			e.f = float64(math.Float32frombits(r.u4()))
		case tagLong:
			hi := uint64(r.u4())
			e.i = int64(hi<<32 | uint64(r.u4()))
		case tagDouble:
			hi := uint64(r.u4())
			e.f = math.Float64frombits(hi<<32 | uint64(r.u4()))
		case tagClass, tagString, tagMethodType:
			e.a = r.u2()
		case tagFieldref, tagMethodref, tagIfaceMethod, tagNameAndType, tagInvokeDyn:
			e.a = r.u2()
			e.b = r.u2()
		case tagMethodHandl:
			e.a = uint16(r.u1())
			e.b = r.u2()
		default:
			if r.err == nil {
				r.err = fmt.Errorf("unknown constant pool tag %d at index %d", tag, i)
			}
		}
		r.pool[i] = e
		if tag == tagLong || tag == tagDouble {
			i++
		}
	}
}

// attributes reads an attribute table, handing each body to fn through a
// bounded sub-reader.
func (r *reader) attributes(fn func(name string, ar *reader)) {
	n := r.u2()
	for i := 0; i < int(n) && r.err == nil; i++ {
		name := r.utf8(r.u2())
		l := r.u4()
		body := r.bytes(int(l))
		if r.err != nil {
			return
		}
		ar := &reader{data: body, pool: r.pool}
		fn(name, ar)
		if ar.err != nil {
			r.err = fmt.Errorf("attribute %s: %w", name, ar.err)
		}
	}
}

func (r *reader) field() Field {
	f := Field{Access: r.u2(), Name: r.utf8(r.u2()), Descriptor: r.utf8(r.u2())}
	r.attributes(func(name string, ar *reader) {
		switch name {
		case "ConstantValue":
			idx := ar.u2()
			if ar.err != nil || int(idx) >= len(ar.pool) {
				ar.err = fmt.Errorf("bad constant index %d", idx)
				return
			}
			e := ar.pool[idx]
			switch e.tag {
			case tagInteger:
				f.ConstantValue = int32(e.i)
			case tagLong:
				f.ConstantValue = e.i
			case tagFloat:
				f.ConstantValue = float32(e.f)
			case tagDouble:
				f.ConstantValue = e.f
			case tagString:
				f.ConstantValue = ar.utf8(e.a)
			default:
				ar.err = fmt.Errorf("constant index %d has tag %d", idx, e.tag)
			}
		case "Signature":
			f.Signature = ar.utf8(ar.u2())
		case "Deprecated":
			f.Deprecated = true
		case "RuntimeVisibleAnnotations":
			f.VisibleAnnotations = ar.annotationList()
		case "RuntimeInvisibleAnnotations":
			f.InvisibleAnnotations = ar.annotationList()
		}
	})
	return f
}

func (r *reader) method() Method {
	m := Method{Access: r.u2(), Name: r.utf8(r.u2()), Descriptor: r.utf8(r.u2())}
	r.attributes(func(name string, ar *reader) {
		switch name {
		case "Code":
			m.Code = ar.code()
		case "Exceptions":
			n := ar.u2()
			for i := 0; i < int(n) && ar.err == nil; i++ {
				m.Exceptions = append(m.Exceptions, ar.class(ar.u2()))
			}
		case "Signature":
			m.Signature = ar.utf8(ar.u2())
		case "Deprecated":
			m.Deprecated = true
		case "MethodParameters":
			n := ar.u1()
			for i := 0; i < int(n) && ar.err == nil; i++ {
				m.Parameters = append(m.Parameters, Parameter{Name: ar.optUTF8(ar.u2()), Access: ar.u2()})
			}
		case "RuntimeVisibleAnnotations":
			m.VisibleAnnotations = ar.annotationList()
		case "RuntimeInvisibleAnnotations":
			m.InvisibleAnnotations = ar.annotationList()
		case "AnnotationDefault":
			v := ar.elementValue()
			m.AnnotationDefault = &v
		}
	})
	return m
}

func (r *reader) code() *Code {
	c := &Code{MaxStack: r.u2(), MaxLocals: r.u2()}
	code := r.bytes(int(r.u4()))
	cr := &reader{data: code, pool: r.pool}
	for cr.pos < len(code) && cr.err == nil {
		op := cr.u1()
		switch op {
		case OpNew:
			c.Insns = append(c.Insns, Insn{Op: OpNew, Class: cr.class(cr.u2())})
		case OpLdc, OpLdcW:
			var idx uint16
			if op == OpLdc {
				idx = uint16(cr.u1())
			} else {
				idx = cr.u2()
			}
			c.Insns = append(c.Insns, Insn{Op: op, String: cr.utf8(cr.entry(idx, tagString).a)})
		case OpInvokespecial:
			ref := cr.entry(cr.u2(), tagMethodref)
			nt := cr.entry(ref.b, tagNameAndType)
			c.Insns = append(c.Insns, Insn{
				Op:    OpInvokespecial,
				Owner: cr.class(ref.a),
				Name:  cr.utf8(nt.a),
				Desc:  cr.utf8(nt.b),
			})
		case OpDup, OpAthrow:
			c.Insns = append(c.Insns, Insn{Op: op})
		default:
			cr.err = fmt.Errorf("unsupported opcode 0x%02x at %d", op, cr.pos-1)
		}
	}
	if cr.err != nil && r.err == nil {
		r.err = cr.err
	}
	if n := r.u2(); n != 0 && r.err == nil {
		r.err = fmt.Errorf("exception tables are not supported")
	}
	r.attributes(func(string, *reader) {})
	return c
}

func (r *reader) annotationList() []Annotation {
	n := r.u2()
	out := make([]Annotation, 0, n)
	for i := 0; i < int(n) && r.err == nil; i++ {
		out = append(out, r.annotation())
	}
	return out
}

func (r *reader) annotation() Annotation {
	a := Annotation{Type: r.utf8(r.u2())}
	n := r.u2()
	for i := 0; i < int(n) && r.err == nil; i++ {
		name := r.utf8(r.u2())
		a.Values = append(a.Values, NamedValue{Name: name, Value: r.elementValue()})
	}
	return a
}

func (r *reader) elementValue() ElementValue {
	v := ElementValue{Tag: r.u1()}
	switch v.Tag {
	case TagByte, TagChar, TagInt, TagShort, TagBoolean:
		v.Const = int32(r.entry(r.u2(), tagInteger).i)
	case TagLong:
		v.Const = r.entry(r.u2(), tagLong).i
	case TagFloat:
		v.Const = float32(r.entry(r.u2(), tagFloat).f)
	case TagDouble:
		v.Const = r.entry(r.u2(), tagDouble).f
	case TagString:
		v.Const = r.utf8(r.u2())
	case TagEnum:
		v.EnumType = r.utf8(r.u2())
		v.EnumName = r.utf8(r.u2())
	case TagClass:
		v.Class = r.utf8(r.u2())
	case TagAnnotation:
		a := r.annotation()
		v.Annotation = &a
	case TagArray:
		n := r.u2()
		v.Array = make([]ElementValue, 0, n)
		for i := 0; i < int(n) && r.err == nil; i++ {
			v.Array = append(v.Array, r.elementValue())
		}
	default:
		if r.err == nil {
			r.err = fmt.Errorf("unknown element value tag %q", v.Tag)
		}
	}
	return v
}
