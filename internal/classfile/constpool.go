package classfile

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Constant pool tags.
const (
	tagUtf8        byte = 1
	tagInteger     byte = 3
	tagFloat       byte = 4
	tagLong        byte = 5
	tagDouble      byte = 6
	tagClass       byte = 7
	tagString      byte = 8
	tagFieldref    byte = 9
	tagMethodref   byte = 10
	tagIfaceMethod byte = 11
	tagNameAndType byte = 12
	tagMethodHandl byte = 15
	tagMethodType  byte = 16
	tagInvokeDyn   byte = 18
)

type poolKey struct {
	tag byte
	s1  string
	s2  string
	s3  string
	n   uint64
}

// constPool deduplicates entries and serializes them in index order.
// Composite entries add their operands before reserving their own index.
type constPool struct {
	buf   []byte
	next  int // next free index; long and double take two
	index map[poolKey]uint16
	err   error
}

func newConstPool() *constPool {
	return &constPool{next: 1, index: make(map[poolKey]uint16)}
}

func (p *constPool) count() uint16 {
	return uint16(p.next)
}

func (p *constPool) lookup(k poolKey, slots int, body func()) uint16 {
	if i, ok := p.index[k]; ok {
		return i
	}
	if p.next+slots > math.MaxUint16 {
		if p.err == nil {
			p.err = fmt.Errorf("constant pool overflow")
		}
		return 0
	}
	i := uint16(p.next)
	p.index[k] = i
	p.next += slots
	body()
	return i
}

func (p *constPool) utf8(s string) uint16 {
	return p.lookup(poolKey{tag: tagUtf8, s1: s}, 1, func() {
		b := encodeModifiedUTF8(s)
		if len(b) > math.MaxUint16 {
			if p.err == nil {
				p.err = fmt.Errorf("string constant too long (%d bytes)", len(b))
			}
			b = b[:math.MaxUint16]
		}
		p.buf = append(p.buf, tagUtf8)
		p.buf = binary.BigEndian.AppendUint16(p.buf, uint16(len(b)))
		p.buf = append(p.buf, b...)
	})
}

func (p *constPool) class(internalName string) uint16 {
	name := p.utf8(internalName)
	return p.lookup(poolKey{tag: tagClass, s1: internalName}, 1, func() {
		p.buf = append(p.buf, tagClass)
		p.buf = binary.BigEndian.AppendUint16(p.buf, name)
	})
}

func (p *constPool) string(s string) uint16 {
	v := p.utf8(s)
	return p.lookup(poolKey{tag: tagString, s1: s}, 1, func() {
		p.buf = append(p.buf, tagString)
		p.buf = binary.BigEndian.AppendUint16(p.buf, v)
	})
}

func (p *constPool) integer(v int32) uint16 {
	return p.lookup(poolKey{tag: tagInteger, n: uint64(uint32(v))}, 1, func() {
		p.buf = append(p.buf, tagInteger)
		p.buf = binary.BigEndian.AppendUint32(p.buf, uint32(v))
	})
}

func (p *constPool) float(v float32) uint16 {
	bits := math.Float32bits(v)
	return p.lookup(poolKey{tag: tagFloat, n: uint64(bits)}, 1, func() {
		p.buf = append(p.buf, tagFloat)
		p.buf = binary.BigEndian.AppendUint32(p.buf, bits)
	})
}

func (p *constPool) long(v int64) uint16 {
	return p.lookup(poolKey{tag: tagLong, n: uint64(v)}, 2, func() {
		p.buf = append(p.buf, tagLong)
		p.buf = binary.BigEndian.AppendUint64(p.buf, uint64(v))
	})
}

func (p *constPool) double(v float64) uint16 {
	bits := math.Float64bits(v)
	return p.lookup(poolKey{tag: tagDouble, n: bits}, 2, func() {
		p.buf = append(p.buf, tagDouble)
		p.buf = binary.BigEndian.AppendUint64(p.buf, bits)
	})
}

func (p *constPool) nameAndType(name, desc string) uint16 {
	n, d := p.utf8(name), p.utf8(desc)
	return p.lookup(poolKey{tag: tagNameAndType, s1: name, s2: desc}, 1, func() {
		p.buf = append(p.buf, tagNameAndType)
		p.buf = binary.BigEndian.AppendUint16(p.buf, n)
		p.buf = binary.BigEndian.AppendUint16(p.buf, d)
	})
}

func (p *constPool) methodref(owner, name, desc string) uint16 {
	c, nt := p.class(owner), p.nameAndType(name, desc)
	return p.lookup(poolKey{tag: tagMethodref, s1: owner, s2: name, s3: desc}, 1, func() {
		p.buf = append(p.buf, tagMethodref)
		p.buf = binary.BigEndian.AppendUint16(p.buf, c)
		p.buf = binary.BigEndian.AppendUint16(p.buf, nt)
	})
}

// constant adds a ConstantValue-compatible entry.
func (p *constPool) constant(v any) (uint16, error) {
	switch c := v.(type) {
	case int32:
		return p.integer(c), nil
	case int64:
		return p.long(c), nil
	case float32:
		return p.float(c), nil
	case float64:
		return p.double(c), nil
	case string:
		return p.string(c), nil
	}
	return 0, fmt.Errorf("unsupported constant type %T", v)
}
