package value

import (
	"testing"

	"github.com/stretchr/testify/require"
	"wpa/ir"
)

func TestMeetBoundaries(t *testing.T) {
	require.Equal(t, FromConst(5), Meet(BottomUndef, FromConst(5)))
	require.Equal(t, Top, Meet(Top, FromConst(5)))
	require.Equal(t, FromConst(5), Meet(FromConst(5), FromConst(5)))
	require.Equal(t, Top, Meet(FromConst(5), FromConst(6)))
}

func TestMeetMonotone(t *testing.T) {
	vals := []Value{BottomUndef, FromConst(1), FromConst(2), Top}
	for _, a := range vals {
		for _, b := range vals {
			m := Meet(a, b)
			require.True(t, leq(m, a), "meet(%v,%v)=%v not <= %v", a, b, m, a)
			require.True(t, leq(m, b), "meet(%v,%v)=%v not <= %v", a, b, m, b)
		}
	}
}

// leq is the lattice order UNDEF ⊏ CONST(c) ⊏ NAC, used only to check
// monotonicity in tests.
func leq(a, b Value) bool {
	rank := func(v Value) int {
		switch v.Tag {
		case Undef:
			return 0
		case Const:
			return 1
		default:
			return 2
		}
	}
	if rank(a) != rank(b) {
		return rank(a) < rank(b)
	}
	return a == b || a.Tag != Const
}

func TestEvaluateDivByZero(t *testing.T) {
	in := Fact{}
	e := ir.BinExpr{Op: ir.DIV, X: ir.ConstExpr{Value: 7}, Y: ir.ConstExpr{Value: 0}}
	require.Equal(t, BottomUndef, Evaluate(e, in))

	e2 := ir.BinExpr{Op: ir.REM, X: ir.ConstExpr{Value: -3}, Y: ir.ConstExpr{Value: 0}}
	require.Equal(t, BottomUndef, Evaluate(e2, in))
}

func TestEvaluateConstFolding(t *testing.T) {
	in := Fact{}
	e := ir.BinExpr{Op: ir.ADD, X: ir.ConstExpr{Value: 2}, Y: ir.ConstExpr{Value: 3}}
	require.Equal(t, FromConst(5), Evaluate(e, in))

	cmp := ir.BinExpr{Op: ir.LT, X: ir.ConstExpr{Value: 2}, Y: ir.ConstExpr{Value: 3}}
	require.Equal(t, FromConst(1), Evaluate(cmp, in))
}

func TestEvaluateNACPropagates(t *testing.T) {
	x := &ir.Var{Name: "x", Type: ir.Type{Kind: ir.KindInt32}}
	in := Fact{x: Top}
	e := ir.BinExpr{Op: ir.ADD, X: ir.VarExpr{Var: x}, Y: ir.ConstExpr{Value: 1}}
	require.Equal(t, Top, Evaluate(e, in))
}

func TestEvaluateUndefPropagates(t *testing.T) {
	x := &ir.Var{Name: "x", Type: ir.Type{Kind: ir.KindInt32}}
	in := Fact{}
	e := ir.BinExpr{Op: ir.ADD, X: ir.VarExpr{Var: x}, Y: ir.ConstExpr{Value: 1}}
	require.Equal(t, BottomUndef, Evaluate(e, in))
}

func TestEvaluateNonIntegerIsNAC(t *testing.T) {
	x := &ir.Var{Name: "o", Type: ir.Type{Name: "Object", Kind: ir.KindOther}}
	require.Equal(t, Top, Evaluate(ir.VarExpr{Var: x}, Fact{}))
	require.Equal(t, Top, Evaluate(ir.OtherExpr{}, Fact{}))
}

func TestShiftSemantics(t *testing.T) {
	in := Fact{}
	shl := ir.BinExpr{Op: ir.SHL, X: ir.ConstExpr{Value: 1}, Y: ir.ConstExpr{Value: 4}}
	require.Equal(t, FromConst(16), Evaluate(shl, in))

	ushr := ir.BinExpr{Op: ir.USHR, X: ir.ConstExpr{Value: -1}, Y: ir.ConstExpr{Value: 28}}
	require.Equal(t, FromConst(15), Evaluate(ushr, in))

	shr := ir.BinExpr{Op: ir.SHR, X: ir.ConstExpr{Value: -16}, Y: ir.ConstExpr{Value: 2}}
	require.Equal(t, FromConst(-4), Evaluate(shr, in))
}
