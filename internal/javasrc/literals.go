package javasrc

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"apiextract/internal/decl"
)

// parseIntLiteral reads a decimal, hex, octal or binary integer literal
// with an optional L suffix. 2147483648 and 9223372036854775808L are
// accepted because they are legal operands of unary minus.
func parseIntLiteral(text string) (decl.Constant, error) {
	s := strings.ReplaceAll(text, "_", "")
	long := strings.HasSuffix(s, "L") || strings.HasSuffix(s, "l")
	if long {
		s = s[:len(s)-1]
	}

	base, digits := 10, s
	switch {
	case len(s) > 2 && (s[:2] == "0x" || s[:2] == "0X"):
		base, digits = 16, s[2:]
	case len(s) > 2 && (s[:2] == "0b" || s[:2] == "0B"):
		base, digits = 2, s[2:]
	case len(s) > 1 && s[0] == '0':
		base, digits = 8, s[1:]
	}
	v, err := strconv.ParseUint(digits, base, 64)
	if err != nil {
		return decl.Constant{}, fmt.Errorf("invalid integer literal %s", text)
	}

	if long {
		if base == 10 && v > 1<<63 {
			return decl.Constant{}, fmt.Errorf("integer literal %s is too large", text)
		}
		return decl.LongConst(int64(v)), nil
	}
	if (base == 10 && v > 1<<31) || v > math.MaxUint32 {
		return decl.Constant{}, fmt.Errorf("integer literal %s is too large", text)
	}
	return decl.IntConst(int32(uint32(v))), nil
}

// parseFloatLiteral reads a decimal or hex floating point literal. Without
// an F suffix the literal is a double.
func parseFloatLiteral(text string) (decl.Constant, error) {
	s := strings.ReplaceAll(text, "_", "")
	float := false
	switch s[len(s)-1] {
	case 'f', 'F':
		float = true
		s = s[:len(s)-1]
	case 'd', 'D':
		if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") || strings.ContainsAny(s, "pP") {
			s = s[:len(s)-1]
		}
	}
	if float {
		v, err := strconv.ParseFloat(s, 32)
		if err != nil && !isRange(err) {
			return decl.Constant{}, fmt.Errorf("invalid floating point literal %s", text)
		}
		return decl.FloatConst(float32(v)), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil && !isRange(err) {
		return decl.Constant{}, fmt.Errorf("invalid floating point literal %s", text)
	}
	return decl.DoubleConst(v), nil
}

func isRange(err error) bool {
	ne, ok := err.(*strconv.NumError)
	return ok && ne.Err == strconv.ErrRange
}

// parseCharLiteral reads 'c', including escapes.
func parseCharLiteral(text string) (decl.Constant, error) {
	if len(text) < 3 || text[0] != '\'' || text[len(text)-1] != '\'' {
		return decl.Constant{}, fmt.Errorf("invalid character literal %s", text)
	}
	units, err := decodeEscapes(text[1 : len(text)-1])
	if err != nil {
		return decl.Constant{}, err
	}
	if len(units) != 1 {
		return decl.Constant{}, fmt.Errorf("invalid character literal %s", text)
	}
	return decl.CharConst(units[0]), nil
}

// parseStringLiteral reads a string literal or a text block.
func parseStringLiteral(text string) (string, error) {
	if strings.HasPrefix(text, `"""`) {
		return parseTextBlock(text)
	}
	if len(text) < 2 || text[0] != '"' || text[len(text)-1] != '"' {
		return "", fmt.Errorf("invalid string literal %s", text)
	}
	units, err := decodeEscapes(text[1 : len(text)-1])
	if err != nil {
		return "", err
	}
	return string(utf16.Decode(units)), nil
}

// parseTextBlock strips the incidental indentation of a text block and
// decodes its escapes.
func parseTextBlock(text string) (string, error) {
	if len(text) < 6 || !strings.HasSuffix(text, `"""`) {
		return "", fmt.Errorf("invalid text block")
	}
	body := text[3 : len(text)-3]
	nl := strings.IndexByte(body, '\n')
	if nl < 0 {
		return "", fmt.Errorf("text block must start on a new line")
	}
	body = strings.ReplaceAll(body[nl+1:], "\r\n", "\n")
	lines := strings.Split(body, "\n")

	// The last line counts towards the indentation even when blank, since
	// it holds the closing delimiter.
	indent := -1
	for i, l := range lines {
		if strings.TrimSpace(l) == "" && i != len(lines)-1 {
			continue
		}
		n := len(l) - len(strings.TrimLeft(l, " \t"))
		if indent < 0 || n < indent {
			indent = n
		}
	}
	for i, l := range lines {
		if len(l) >= indent {
			l = l[indent:]
		} else {
			l = strings.TrimLeft(l, " \t")
		}
		lines[i] = strings.TrimRight(l, " \t")
	}
	units, err := decodeEscapes(strings.Join(lines, "\n"))
	if err != nil {
		return "", err
	}
	return string(utf16.Decode(units)), nil
}

// decodeEscapes turns literal text into UTF-16 code units.
func decodeEscapes(s string) ([]uint16, error) {
	var out []uint16
	for i := 0; i < len(s); {
		if s[i] != '\\' {
			r, size := utf8.DecodeRuneInString(s[i:])
			out = append(out, utf16.Encode([]rune{r})...)
			i += size
			continue
		}
		if i+1 >= len(s) {
			return nil, fmt.Errorf("dangling backslash in literal")
		}
		c := s[i+1]
		i += 2
		switch c {
		case 'b':
			out = append(out, '\b')
		case 't':
			out = append(out, '\t')
		case 'n':
			out = append(out, '\n')
		case 'f':
			out = append(out, '\f')
		case 'r':
			out = append(out, '\r')
		case 's':
			out = append(out, ' ')
		case '"', '\'', '\\':
			out = append(out, uint16(c))
		case '\n':
			// line continuation in text blocks
		case 'u':
			for i < len(s) && s[i] == 'u' {
				i++
			}
			if i+4 > len(s) {
				return nil, fmt.Errorf("short unicode escape")
			}
			v, err := strconv.ParseUint(s[i:i+4], 16, 16)
			if err != nil {
				return nil, fmt.Errorf("invalid unicode escape \\u%s", s[i:i+4])
			}
			out = append(out, uint16(v))
			i += 4
		default:
			if c < '0' || c > '7' {
				return nil, fmt.Errorf("invalid escape \\%c", c)
			}
			v := int(c - '0')
			max := 2
			if c > '3' {
				max = 1
			}
			for n := 0; n < max && i < len(s) && s[i] >= '0' && s[i] <= '7'; n++ {
				v = v*8 + int(s[i]-'0')
				i++
			}
			out = append(out, uint16(v))
		}
	}
	return out, nil
}
