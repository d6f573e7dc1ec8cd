package javasrc

import (
	"math"
	"strconv"
	"strings"

	"apiextract/internal/decl"
)

// promoted returns the kind binary numeric promotion gives a and b.
func promoted(a, b decl.Constant) decl.ConstKind {
	switch {
	case a.Kind == decl.ConstDouble || b.Kind == decl.ConstDouble:
		return decl.ConstDouble
	case a.Kind == decl.ConstFloat || b.Kind == decl.ConstFloat:
		return decl.ConstFloat
	case a.Kind == decl.ConstLong || b.Kind == decl.ConstLong:
		return decl.ConstLong
	}
	return decl.ConstInt
}

func isIntegralNumber(c decl.Constant) bool {
	return c.IsIntegral() && c.Kind != decl.ConstBool
}

func makeConst(kind decl.ConstKind, i int64, f float64) decl.Constant {
	switch kind {
	case decl.ConstInt:
		return decl.IntConst(int32(i))
	case decl.ConstLong:
		return decl.LongConst(i)
	case decl.ConstFloat:
		return decl.FloatConst(float32(f))
	}
	return decl.DoubleConst(f)
}

// unary applies a prefix operator.
func unary(op string, v decl.Constant) (decl.Constant, bool) {
	switch op {
	case "!":
		if v.Kind == decl.ConstBool {
			return decl.BoolConst(v.I == 0), true
		}
	case "+", "-":
		if !v.IsNumeric() {
			break
		}
		kind := promoted(v, v)
		sign := int64(1)
		if op == "-" {
			sign = -1
		}
		switch kind {
		case decl.ConstInt, decl.ConstLong:
			return makeConst(kind, sign*v.AsInt(), 0), true
		case decl.ConstFloat:
			return decl.FloatConst(float32(sign) * float32(v.AsFloat())), true
		}
		return decl.DoubleConst(float64(sign) * v.AsFloat()), true
	case "~":
		if isIntegralNumber(v) {
			return makeConst(promoted(v, v), ^v.AsInt(), 0), true
		}
	}
	return decl.Constant{}, false
}

// binary applies an infix operator with the language's promotion rules.
// Integer division by zero is not a constant.
func binary(op string, l, r decl.Constant) (decl.Constant, bool) {
	if op == "+" && (l.Kind == decl.ConstString || r.Kind == decl.ConstString) {
		return decl.StringConst(javaString(l) + javaString(r)), true
	}
	if l.Kind == decl.ConstBool && r.Kind == decl.ConstBool {
		a, b := l.I != 0, r.I != 0
		switch op {
		case "&&", "&":
			return decl.BoolConst(a && b), true
		case "||", "|":
			return decl.BoolConst(a || b), true
		case "^", "!=":
			return decl.BoolConst(a != b), true
		case "==":
			return decl.BoolConst(a == b), true
		}
		return decl.Constant{}, false
	}
	if !l.IsNumeric() || !r.IsNumeric() {
		return decl.Constant{}, false
	}

	switch op {
	case "<<", ">>", ">>>":
		if !isIntegralNumber(l) || !isIntegralNumber(r) {
			return decl.Constant{}, false
		}
		return shift(op, l, r), true
	}

	kind := promoted(l, r)
	if kind == decl.ConstFloat || kind == decl.ConstDouble {
		a, b := l.AsFloat(), r.AsFloat()
		if kind == decl.ConstFloat {
			a, b = float64(float32(a)), float64(float32(b))
		}
		if c, ok := compare(op, a < b, a == b, a > b); ok {
			return c, true
		}
		var v float64
		switch op {
		case "+":
			v = a + b
		case "-":
			v = a - b
		case "*":
			v = a * b
		case "/":
			v = a / b
		case "%":
			v = math.Mod(a, b)
		default:
			return decl.Constant{}, false
		}
		return makeConst(kind, 0, v), true
	}

	a, b := l.AsInt(), r.AsInt()
	if kind == decl.ConstInt {
		a, b = int64(int32(a)), int64(int32(b))
	}
	if c, ok := compare(op, a < b, a == b, a > b); ok {
		return c, true
	}
	var v int64
	switch op {
	case "+":
		v = a + b
	case "-":
		v = a - b
	case "*":
		v = a * b
	case "/", "%":
		if b == 0 {
			return decl.Constant{}, false
		}
		if kind == decl.ConstInt {
			x, y := int32(a), int32(b)
			if op == "/" {
				v = int64(x / y)
			} else {
				v = int64(x % y)
			}
		} else if op == "/" {
			v = a / b
		} else {
			v = a % b
		}
	case "&":
		v = a & b
	case "|":
		v = a | b
	case "^":
		v = a ^ b
	default:
		return decl.Constant{}, false
	}
	return makeConst(kind, v, 0), true
}

func compare(op string, lt, eq, gt bool) (decl.Constant, bool) {
	switch op {
	case "<":
		return decl.BoolConst(lt), true
	case "<=":
		return decl.BoolConst(lt || eq), true
	case ">":
		return decl.BoolConst(gt), true
	case ">=":
		return decl.BoolConst(gt || eq), true
	case "==":
		return decl.BoolConst(eq), true
	case "!=":
		return decl.BoolConst(!eq), true
	}
	return decl.Constant{}, false
}

// shift promotes the left operand on its own; the distance is masked to
// the width of the result.
func shift(op string, l, r decl.Constant) decl.Constant {
	n := uint(r.AsInt())
	if l.Kind == decl.ConstLong {
		a := l.AsInt()
		n &= 63
		switch op {
		case "<<":
			return decl.LongConst(a << n)
		case ">>":
			return decl.LongConst(a >> n)
		}
		return decl.LongConst(int64(uint64(a) >> n))
	}
	a := int32(l.AsInt())
	n &= 31
	switch op {
	case "<<":
		return decl.IntConst(a << n)
	case ">>":
		return decl.IntConst(a >> n)
	}
	return decl.IntConst(int32(uint32(a) >> n))
}

// ternary picks a branch, promoting numeric branches of different kinds.
func ternary(cond bool, a, b decl.Constant) (decl.Constant, bool) {
	pick := b
	if cond {
		pick = a
	}
	switch {
	case a.Kind == b.Kind:
		return pick, true
	case a.IsNumeric() && b.IsNumeric():
		kind := promoted(a, b)
		return makeConst(kind, pick.AsInt(), pick.AsFloat()), true
	}
	return decl.Constant{}, false
}

// javaString formats c the way string concatenation does.
func javaString(c decl.Constant) string {
	switch c.Kind {
	case decl.ConstString:
		return c.S
	case decl.ConstBool:
		return strconv.FormatBool(c.I != 0)
	case decl.ConstChar:
		return string(rune(c.I))
	case decl.ConstFloat:
		return javaFloat(c.F, 32)
	case decl.ConstDouble:
		return javaFloat(c.F, 64)
	}
	return strconv.FormatInt(c.I, 10)
}

// javaFloat renders f like Double.toString (bits 64) or Float.toString
// (bits 32): plain notation within [1e-3, 1e7), computerized scientific
// notation outside it.
func javaFloat(f float64, bits int) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		if math.Signbit(f) {
			return "-0.0"
		}
		return "0.0"
	}
	if abs := math.Abs(f); abs >= 1e-3 && abs < 1e7 {
		s := strconv.FormatFloat(f, 'f', -1, bits)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	}
	s := strconv.FormatFloat(f, 'E', -1, bits)
	mant, exp, _ := strings.Cut(s, "E")
	if !strings.Contains(mant, ".") {
		mant += ".0"
	}
	e, _ := strconv.Atoi(exp)
	return mant + "E" + strconv.Itoa(e)
}
