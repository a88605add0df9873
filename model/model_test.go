package model

import (
	"testing"

	"github.com/lattice-health/cqlcore/types"
)

func TestNewLiteral(t *testing.T) {
	l := NewLiteral("4", types.Integer)
	if l.Value != "4" {
		t.Errorf("NewLiteral Value = %q, want %q", l.Value, "4")
	}
	if !l.GetResultType().Equal(types.Integer) {
		t.Errorf("NewLiteral GetResultType() = %v, want Integer", l.GetResultType())
	}
}

func TestNewInclusiveInterval(t *testing.T) {
	iv := NewInclusiveInterval("1", "5", types.Integer)
	if !iv.LowInclusive || !iv.HighInclusive {
		t.Errorf("NewInclusiveInterval should be closed on both ends")
	}
	want := &types.Interval{PointType: types.Integer}
	if !iv.GetResultType().Equal(want) {
		t.Errorf("NewInclusiveInterval GetResultType() = %v, want %v", iv.GetResultType(), want)
	}
}

func TestNewList(t *testing.T) {
	l := NewList([]string{"1", "2", "3"}, types.Integer)
	if len(l.List) != 3 {
		t.Fatalf("NewList got %d elements, want 3", len(l.List))
	}
	if lit, ok := l.List[1].(*Literal); !ok || lit.Value != "2" {
		t.Errorf("NewList[1] = %+v, want Literal(2)", l.List[1])
	}
}

func TestUnaryExpressionGetOperand(t *testing.T) {
	operand := NewLiteral("true", types.Boolean)
	n := &Not{UnaryExpression{Operand: operand, Expression: ResultType(types.Boolean)}}
	if n.GetOperand() != operand {
		t.Errorf("Not.GetOperand() did not return the wrapped operand")
	}
}

func TestBinaryExpressionGetOperands(t *testing.T) {
	left := NewLiteral("1", types.Integer)
	right := NewLiteral("2", types.Integer)
	add := &Add{BinaryExpression{Operands: [2]IExpression{left, right}, Expression: ResultType(types.Integer)}}
	ops := add.GetOperands()
	if len(ops) != 2 || ops[0] != left || ops[1] != right {
		t.Errorf("Add.GetOperands() = %v, want [%v %v]", ops, left, right)
	}
}
