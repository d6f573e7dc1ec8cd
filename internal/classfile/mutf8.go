package classfile

import (
	"fmt"
	"unicode/utf16"
)

// encodeModifiedUTF8 encodes s the way CONSTANT_Utf8 requires: NUL as two
// bytes and supplementary characters as two encoded surrogates.
func encodeModifiedUTF8(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		switch {
		case r != 0 && r < 0x80:
			out = append(out, byte(r))
		case r < 0x800:
			out = append(out, 0xC0|byte(r>>6), 0x80|byte(r&0x3F))
		case r < 0x10000:
			out = append(out, encode3(uint16(r))...)
		default:
			hi, lo := utf16.EncodeRune(r)
			out = append(out, encode3(uint16(hi))...)
			out = append(out, encode3(uint16(lo))...)
		}
	}
	return out
}

func encode3(c uint16) []byte {
	return []byte{0xE0 | byte(c>>12), 0x80 | byte((c>>6)&0x3F), 0x80 | byte(c&0x3F)}
}

// decodeModifiedUTF8 is the inverse of encodeModifiedUTF8.
func decodeModifiedUTF8(b []byte) (string, error) {
	units := make([]uint16, 0, len(b))
	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case c&0x80 == 0:
			units = append(units, uint16(c))
			i++
		case c&0xE0 == 0xC0:
			if i+1 >= len(b) {
				return "", fmt.Errorf("truncated 2-byte sequence at %d", i)
			}
			units = append(units, uint16(c&0x1F)<<6|uint16(b[i+1]&0x3F))
			i += 2
		case c&0xF0 == 0xE0:
			if i+2 >= len(b) {
				return "", fmt.Errorf("truncated 3-byte sequence at %d", i)
			}
			units = append(units, uint16(c&0x0F)<<12|uint16(b[i+1]&0x3F)<<6|uint16(b[i+2]&0x3F))
			i += 3
		default:
			return "", fmt.Errorf("invalid modified UTF-8 byte 0x%02x at %d", c, i)
		}
	}
	return string(utf16.Decode(units)), nil
}
