package result

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ToBool takes a CQL Boolean and returns the underlying Go bool.
func ToBool(v Value) (bool, error) {
	b, ok := v.GolangValue().(bool)
	if !ok {
		return false, fmt.Errorf("%w %v to a boolean", ErrCannotConvert, v.RuntimeType())
	}
	return b, nil
}

// ToString takes a CQL String and returns the underlying Go string.
func ToString(v Value) (string, error) {
	s, ok := v.GolangValue().(string)
	if !ok {
		return "", fmt.Errorf("%w %v to a string", ErrCannotConvert, v.RuntimeType())
	}
	return s, nil
}

// ToInt32 takes a CQL Integer and returns the underlying Go int32.
func ToInt32(v Value) (int32, error) {
	i, ok := v.GolangValue().(int32)
	if !ok {
		return 0, fmt.Errorf("%w %v to an int32", ErrCannotConvert, v.RuntimeType())
	}
	return i, nil
}

// ToInt64 takes a CQL Long and returns the underlying Go int64.
func ToInt64(v Value) (int64, error) {
	l, ok := v.GolangValue().(int64)
	if !ok {
		return 0, fmt.Errorf("%w %v to an int64", ErrCannotConvert, v.RuntimeType())
	}
	return l, nil
}

// ToDecimal takes a CQL Decimal and returns the underlying decimal.Decimal.
func ToDecimal(v Value) (decimal.Decimal, error) {
	d, ok := v.GolangValue().(decimal.Decimal)
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("%w %v to a Decimal", ErrCannotConvert, v.RuntimeType())
	}
	return d, nil
}

// ToQuantity takes a CQL Quantity and returns the underlying Quantity.
func ToQuantity(v Value) (Quantity, error) {
	q, ok := v.GolangValue().(Quantity)
	if !ok {
		return Quantity{}, fmt.Errorf("%w %v to a Quantity", ErrCannotConvert, v.RuntimeType())
	}
	return q, nil
}

// ToRatio takes a CQL Ratio and returns the underlying Ratio.
func ToRatio(v Value) (Ratio, error) {
	r, ok := v.GolangValue().(Ratio)
	if !ok {
		return Ratio{}, fmt.Errorf("%w %v to a Ratio", ErrCannotConvert, v.RuntimeType())
	}
	return r, nil
}

// ToDateTime takes a CQL Date, Time, or DateTime and normalizes it to a DateTime, since all three
// share the same underlying time.Time + precision representation.
func ToDateTime(v Value) (DateTime, error) {
	switch t := v.GolangValue().(type) {
	case DateTime:
		return t, nil
	case Date:
		return DateTime{Date: t.Date, Precision: t.Precision}, nil
	case Time:
		return DateTime{Date: t.Date, Precision: t.Precision}, nil
	default:
		return DateTime{}, fmt.Errorf("%w %v to a DateTime", ErrCannotConvert, v.RuntimeType())
	}
}

// ToInterval takes a CQL Interval and returns the underlying Interval.
func ToInterval(v Value) (Interval, error) {
	i, ok := v.GolangValue().(Interval)
	if !ok {
		return Interval{}, fmt.Errorf("%w %v to an Interval", ErrCannotConvert, v.RuntimeType())
	}
	return i, nil
}

// ToTuple takes a CQL Tuple and returns the underlying field map.
func ToTuple(v Value) (Tuple, error) {
	t, ok := v.GolangValue().(Tuple)
	if !ok {
		return Tuple{}, fmt.Errorf("%w %v to a Tuple", ErrCannotConvert, v.RuntimeType())
	}
	return t, nil
}

// ToNamed takes a CQL Resource/Named value and returns the underlying field map.
func ToNamed(v Value) (Named, error) {
	n, ok := v.GolangValue().(Named)
	if !ok {
		return Named{}, fmt.Errorf("%w %v to a Named resource", ErrCannotConvert, v.RuntimeType())
	}
	return n, nil
}

// ToCodeSystem takes a CQL CodeSystem and returns the underlying CodeSystem.
func ToCodeSystem(v Value) (CodeSystem, error) {
	c, ok := v.GolangValue().(CodeSystem)
	if !ok {
		return CodeSystem{}, fmt.Errorf("%w %v to a CodeSystem", ErrCannotConvert, v.RuntimeType())
	}
	return c, nil
}

// ToValueSet takes a CQL ValueSet and returns the underlying ValueSet.
func ToValueSet(v Value) (ValueSet, error) {
	vs, ok := v.GolangValue().(ValueSet)
	if !ok {
		return ValueSet{}, fmt.Errorf("%w %v to a ValueSet", ErrCannotConvert, v.RuntimeType())
	}
	return vs, nil
}

// ToConcept takes a CQL Concept and returns the underlying Concept.
func ToConcept(v Value) (Concept, error) {
	c, ok := v.GolangValue().(Concept)
	if !ok {
		return Concept{}, fmt.Errorf("%w %v to a Concept", ErrCannotConvert, v.RuntimeType())
	}
	return c, nil
}

// ToCode takes a CQL Code and returns the underlying Code.
func ToCode(v Value) (Code, error) {
	c, ok := v.GolangValue().(Code)
	if !ok {
		return Code{}, fmt.Errorf("%w %v to a Code", ErrCannotConvert, v.RuntimeType())
	}
	return c, nil
}
