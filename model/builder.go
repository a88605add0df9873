package model

import (
	"github.com/lattice-health/cqlcore/types"
)

// ResultType constructs a placeholder Expression with the given static type. Used both by the
// parser for error-recovery nodes and by callers that need to synthesize a literal inline (for
// example default function arguments injected during compilation).
func ResultType(t types.IType) Expression {
	return Expression{Element{ResultType: t}}
}

// NewLiteral builds a Literal node of type t from its textual value.
func NewLiteral(value string, t types.IType) *Literal {
	return &Literal{Value: value, ValueType: t, Expression: ResultType(t)}
}

// NewInclusiveInterval returns a closed Interval[NewLiteral(low), NewLiteral(high)], where low
// and high are literals of type t.
func NewInclusiveInterval(low, high string, t types.IType) *Interval {
	return &Interval{
		Low:           NewLiteral(low, t),
		High:          NewLiteral(high, t),
		LowInclusive:  true,
		HighInclusive: true,
		Expression:    ResultType(&types.Interval{PointType: t}),
	}
}

// NewList returns a List of literals of type t constructed from elems.
func NewList(elems []string, t types.IType) *List {
	l := &List{
		List:       []IExpression{},
		Expression: ResultType(&types.List{ElementType: t}),
	}
	for _, elem := range elems {
		l.List = append(l.List, NewLiteral(elem, t))
	}
	return l
}
