package snapshot

import (
	"fmt"
	"strings"
	"unicode"
)

// typeExpr is a parsed type expression:
//
//	type     = (primitive | path) { "[]" } [ "..." ]
//	path     = segment { "." segment }
//	segment  = ident [ "<" arg { "," arg } ">" ]
//	arg      = "?" [ ("extends" | "super") type ] | type
type typeExpr struct {
	segs     []segment
	wildcard bool
	extends  *typeExpr
	super    *typeExpr
	dims     int
}

type segment struct {
	name string
	args []*typeExpr
}

func parseTypeExpr(s string) (*typeExpr, error) {
	src := strings.TrimSpace(s)
	varargs := strings.HasSuffix(src, "...")
	p := &typeParser{src: strings.TrimSuffix(src, "...")}
	p.next()
	t, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if p.tok != "" {
		return nil, fmt.Errorf("type %q: unexpected %q", s, p.tok)
	}
	if varargs {
		t.dims++
	}
	return t, nil
}

type typeParser struct {
	src string
	pos int
	tok string
}

// next advances to the next token: an identifier or one of . < > , ? [ ].
// tok is "" at the end of input.
func (p *typeParser) next() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
	if p.pos >= len(p.src) {
		p.tok = ""
		return
	}
	start := p.pos
	r := rune(p.src[p.pos])
	if isIdentRune(r) {
		for p.pos < len(p.src) && isIdentRune(rune(p.src[p.pos])) {
			p.pos++
		}
	} else {
		p.pos++
	}
	p.tok = p.src[start:p.pos]
}

func isIdentRune(r rune) bool {
	return r == '_' || r == '$' || r >= 0x80 || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func (p *typeParser) expect(tok string) error {
	if p.tok != tok {
		return fmt.Errorf("type %q: expected %q at offset %d, found %q", p.src, tok, p.pos, p.tok)
	}
	p.next()
	return nil
}

func (p *typeParser) parseType() (*typeExpr, error) {
	t := &typeExpr{}
	for {
		if p.tok == "" || !isIdentRune(rune(p.tok[0])) {
			return nil, fmt.Errorf("type %q: expected a name at offset %d", p.src, p.pos)
		}
		seg := segment{name: p.tok}
		p.next()
		if p.tok == "<" {
			p.next()
			for {
				arg, err := p.parseArg()
				if err != nil {
					return nil, err
				}
				seg.args = append(seg.args, arg)
				if p.tok != "," {
					break
				}
				p.next()
			}
			if err := p.expect(">"); err != nil {
				return nil, err
			}
		}
		t.segs = append(t.segs, seg)
		if p.tok != "." {
			break
		}
		p.next()
	}
	for p.tok == "[" {
		p.next()
		if err := p.expect("]"); err != nil {
			return nil, err
		}
		t.dims++
	}
	return t, nil
}

func (p *typeParser) parseArg() (*typeExpr, error) {
	if p.tok != "?" {
		return p.parseType()
	}
	p.next()
	w := &typeExpr{wildcard: true}
	switch p.tok {
	case "extends", "super":
		kw := p.tok
		p.next()
		bound, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if kw == "extends" {
			w.extends = bound
		} else {
			w.super = bound
		}
	}
	return w, nil
}
