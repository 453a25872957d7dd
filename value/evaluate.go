package value

import "wpa/ir"

// Evaluate computes evaluate(Expr, CPFact) → Value:
//
//   - Variable: lookup (default UNDEF).
//   - Integer literal: CONST.
//   - Binary op with any operand NAC ⇒ NAC, except DIV/REM where the
//     divisor is CONST(0) ⇒ UNDEF (division by zero is unreachable,
//     not NAC).
//   - Binary op with any operand UNDEF (and no constant-zero divisor
//     short-circuit) ⇒ UNDEF.
//   - Both CONST ⇒ CONST of the evaluated result.
//   - Comparisons yield CONST(0) or CONST(1).
//   - Non-integer/unknown expression forms ⇒ NAC.
func Evaluate(e ir.Expr, in Fact) Value {
	switch e := e.(type) {
	case ir.VarExpr:
		if !e.Var.Type.Kind.Integral() {
			return Top
		}
		return in.Get(e.Var)
	case ir.ConstExpr:
		return FromConst(e.Value)
	case ir.BinExpr:
		return evalBin(e, in)
	default:
		return Top
	}
}

func evalBin(e ir.BinExpr, in Fact) Value {
	x := Evaluate(e.X, in)
	y := Evaluate(e.Y, in)

	// Division-by-constant-zero is unreachable, not NAC, and takes
	// priority over the NAC short-circuit below.
	if (e.Op == ir.DIV || e.Op == ir.REM) && y.IsConst() && y.C == 0 {
		return BottomUndef
	}

	if x.IsNAC() || y.IsNAC() {
		return Top
	}
	if x.IsUndef() || y.IsUndef() {
		return BottomUndef
	}

	// Both CONST.
	a, b := x.C, y.C
	switch e.Op {
	case ir.ADD:
		return FromConst(a + b)
	case ir.SUB:
		return FromConst(a - b)
	case ir.MUL:
		return FromConst(a * b)
	case ir.DIV:
		return FromConst(a / b)
	case ir.REM:
		return FromConst(a % b)
	case ir.AND:
		return FromConst(a & b)
	case ir.OR:
		return FromConst(a | b)
	case ir.XOR:
		return FromConst(a ^ b)
	case ir.SHL:
		return FromConst(a << shiftAmount(b))
	case ir.SHR:
		return FromConst(a >> shiftAmount(b))
	case ir.USHR:
		return FromConst(int32(uint32(a) >> shiftAmount(b)))
	case ir.EQ:
		return boolConst(a == b)
	case ir.NE:
		return boolConst(a != b)
	case ir.LT:
		return boolConst(a < b)
	case ir.LE:
		return boolConst(a <= b)
	case ir.GT:
		return boolConst(a > b)
	case ir.GE:
		return boolConst(a >= b)
	default:
		return Top
	}
}

// shiftAmount masks to the 5 low bits, matching 32-bit two's-complement
// shift semantics.
func shiftAmount(b int32) uint32 { return uint32(b) & 0x1f }

func boolConst(b bool) Value {
	if b {
		return FromConst(1)
	}
	return FromConst(0)
}
