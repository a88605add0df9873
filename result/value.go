// Package result defines the runtime Value domain the evaluator produces and consumes, along with
// the Libraries container returned by a batch evaluation.
package result

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lattice-health/cqlcore/model"
	"github.com/lattice-health/cqlcore/types"
)

// ErrCannotConvert is returned by ToSlice when a Value's Go payload is not list-shaped.
var ErrCannotConvert = errors.New("cannot convert value to requested shape")

// Value is the universal runtime representation of a CQL value. Null is represented by a nil
// goValue, which is a first-class, non-error state, not an absence of a Value.
type Value struct {
	goValue     any
	runtimeType types.IType
	sourceExpr  model.IExpression
	sourceVals  []Value
}

// New wraps a Go payload (one of the types in this package, or nil for Null) as a Value, inferring
// its runtime type.
func New(val any) (Value, error) {
	rt, err := inferRuntimeType(val)
	if err != nil {
		return Value{}, err
	}
	return Value{goValue: val, runtimeType: rt}, nil
}

// NewWithSources is like New, but also records the source expression node and the operand Values
// that produced it, for provenance/debugging.
func NewWithSources(val any, expr model.IExpression, sources ...Value) (Value, error) {
	v, err := New(val)
	if err != nil {
		return Value{}, err
	}
	v.sourceExpr = expr
	v.sourceVals = sources
	return v, nil
}

// WithSources returns a copy of v with the given source expression and operand Values attached.
func (v Value) WithSources(expr model.IExpression, sources ...Value) Value {
	v.sourceExpr = expr
	v.sourceVals = sources
	return v
}

// GolangValue returns the underlying Go payload. For Null it is nil.
func (v Value) GolangValue() any { return v.goValue }

// RuntimeType returns the dynamic type of the value, re-inferring for container types whose
// element type is only known once populated (List, Interval).
func (v Value) RuntimeType() types.IType {
	if v.runtimeType != nil {
		return v.runtimeType
	}
	rt, _ := inferRuntimeType(v.goValue)
	return rt
}

// SourceExpression returns the model node that produced this value, if tracked.
func (v Value) SourceExpression() model.IExpression { return v.sourceExpr }

// SourceValues returns the operand values that produced this value, if tracked.
func (v Value) SourceValues() []Value { return v.sourceVals }

// IsNull reports whether v is the Null value.
func IsNull(v Value) bool { return v.goValue == nil }

// ToSlice converts v to a []Value if its Go payload is a List; otherwise it returns
// ErrCannotConvert.
func ToSlice(v Value) ([]Value, error) {
	l, ok := v.goValue.(List)
	if !ok {
		return nil, fmt.Errorf("%w: expected List, got %v", ErrCannotConvert, v.RuntimeType())
	}
	return l.Value, nil
}

// Equal reports CQL structural equality (not equivalence) between v and o, with Null-propagation
// collapsed to a plain boolean: Null compares equal only to Null.
func (v Value) Equal(o Value) bool {
	if IsNull(v) || IsNull(o) {
		return IsNull(v) && IsNull(o)
	}
	switch a := v.goValue.(type) {
	case List:
		b, ok := o.goValue.(List)
		if !ok || len(a.Value) != len(b.Value) {
			return false
		}
		for i := range a.Value {
			if !a.Value[i].Equal(b.Value[i]) {
				return false
			}
		}
		return true
	case Interval:
		b, ok := o.goValue.(Interval)
		if !ok {
			return false
		}
		return a.LowInclusive == b.LowInclusive && a.HighInclusive == b.HighInclusive &&
			a.Low.Equal(b.Low) && a.High.Equal(b.High)
	case Tuple:
		b, ok := o.goValue.(Tuple)
		if !ok || len(a.Value) != len(b.Value) {
			return false
		}
		for k, av := range a.Value {
			bv, ok := b.Value[k]
			if !ok || !av.Equal(bv) {
				return false
			}
		}
		return true
	case Code:
		b, ok := o.goValue.(Code)
		if !ok {
			return false
		}
		return a.System == b.System && a.Code == b.Code
	case decimal.Decimal:
		b, ok := asDecimal(o.goValue)
		return ok && a.Equal(b)
	default:
		return v.goValue == o.goValue
	}
}

// asDecimal coerces an Integer/Long/Decimal payload to a decimal.Decimal for cross-numeric
// comparisons.
func asDecimal(v any) (decimal.Decimal, bool) {
	switch t := v.(type) {
	case decimal.Decimal:
		return t, true
	case int32:
		return decimal.NewFromInt32(t), true
	case int64:
		return decimal.NewFromInt(t), true
	}
	return decimal.Decimal{}, false
}

// MarshalJSON renders the value's Go payload directly (Null marshals to JSON null).
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.goValue)
}

// Quantity is a (Decimal value, String unit) pair. Unit "1" is dimensionless.
type Quantity struct {
	Value decimal.Decimal
	Unit  string
}

// Ratio is a numerator-over-denominator pair of Quantities.
type Ratio struct {
	Numerator   Quantity
	Denominator Quantity
}

// Date is a precision-aware calendar date. Components finer than Precision are unknown, not zero.
type Date struct {
	Date      time.Time
	Precision model.DateTimePrecision
}

// DateTime is a precision-aware Date plus a time-of-day and optional timezone offset.
type DateTime struct {
	Date      time.Time
	Precision model.DateTimePrecision
}

// Time is a precision-aware time-of-day with no associated date.
type Time struct {
	Date      time.Time
	Precision model.DateTimePrecision
}

// Interval is a (Low, High) pair of points with independently open/closed bounds. Either bound may
// be the Null Value, meaning unbounded on that side.
type Interval struct {
	Low             Value
	High            Value
	LowInclusive    bool
	HighInclusive   bool
	StaticPointType types.IType
}

// PointType returns the interval's point type, inferring from its bounds when the static type was
// not recorded (e.g. intervals constructed at runtime by Collapse/Expand).
func (i Interval) PointType() types.IType {
	if i.StaticPointType != nil {
		return i.StaticPointType
	}
	if !IsNull(i.Low) {
		return i.Low.RuntimeType()
	}
	if !IsNull(i.High) {
		return i.High.RuntimeType()
	}
	return types.Any
}

// List is an ordered, possibly heterogeneous collection of Values.
type List struct {
	Value      []Value
	StaticType *types.List
}

// ElementType returns the list's static element type if known, else infers it from the first
// element, else Any for an empty list with no static type.
func (l List) ElementType() types.IType {
	if l.StaticType != nil {
		return l.StaticType.ElementType
	}
	if len(l.Value) > 0 {
		return l.Value[0].RuntimeType()
	}
	return types.Any
}

// Tuple is a field-name-to-Value mapping. Order is recorded for String()/JSON rendering.
type Tuple struct {
	Value map[string]Value
	Order []string
}

// Named is an opaque wrapper used for Resource values: a mapping from path to Value, as returned
// by the DataSource. The engine only ever navigates it by path.
type Named struct {
	Value    map[string]Value
	TypeName string
}

// ValueSet is a runtime reference to a declared value set.
type ValueSet struct {
	ID      string
	Version string
}

// CodeSystem is a runtime reference to a declared code system.
type CodeSystem struct {
	ID      string
	Version string
}

// Concept is an ordered list of Codes with an optional display string.
type Concept struct {
	Codes   []Code
	Display string
}

// Code is a (code, system, version?, display?) tuple.
type Code struct {
	Code    string
	System  string
	Version string
	Display string
}

// inferRuntimeType computes the dynamic type of a Go payload, used when a Value is constructed
// without an explicit static type.
func inferRuntimeType(val any) (types.IType, error) {
	switch v := val.(type) {
	case nil:
		return types.Any, nil
	case bool:
		return types.Boolean, nil
	case int32:
		return types.Integer, nil
	case int64:
		return types.Long, nil
	case decimal.Decimal:
		return types.Decimal, nil
	case string:
		return types.String, nil
	case Date:
		return types.Date, nil
	case DateTime:
		return types.DateTime, nil
	case Time:
		return types.Time, nil
	case Quantity:
		return types.Quantity, nil
	case Ratio:
		return types.Ratio, nil
	case Code:
		return types.Code, nil
	case Concept:
		return types.Concept, nil
	case ValueSet:
		return types.ValueSet, nil
	case CodeSystem:
		return types.CodeSystem, nil
	case Interval:
		return &types.Interval{PointType: v.PointType()}, nil
	case List:
		return &types.List{ElementType: v.ElementType()}, nil
	case Tuple:
		fields := make(map[string]types.IType, len(v.Value))
		for k, fv := range v.Value {
			fields[k] = fv.RuntimeType()
		}
		return &types.Tuple{ElementTypes: fields}, nil
	case Named:
		return &types.Named{TypeName: v.TypeName}, nil
	default:
		return nil, fmt.Errorf("internal error: unsupported Go value of type %T", val)
	}
}
