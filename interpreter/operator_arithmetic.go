// Copyright 2023 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package interpreter

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lattice-health/cqlcore/model"
	"github.com/lattice-health/cqlcore/result"
)

// evalArithmetic evaluates both operands of op, propagates Null, and otherwise dispatches to num
// for Integer/Long/Decimal/Quantity pairs or, if either side is a Date/DateTime/Time, to dt for
// calendar-aware duration arithmetic.
func (i *interpreter) evalArithmetic(
	operands [2]model.IExpression,
	src model.IExpression,
	num func(l, r result.Value) (result.Value, error),
	dt func(l, r result.Value) (result.Value, error),
) (result.Value, error) {
	l, r, err := i.evalPair(operands)
	if err != nil {
		return result.Value{}, err
	}
	if result.IsNull(l) || result.IsNull(r) {
		return result.NewWithSources(nil, src, l, r)
	}
	var out result.Value
	switch l.GolangValue().(type) {
	case result.Date, result.DateTime, result.Time:
		if dt == nil {
			return result.Value{}, fmt.Errorf("operator is not defined for date/time operands")
		}
		out, err = dt(l, r)
	default:
		out, err = num(l, r)
	}
	if err != nil {
		return result.Value{}, result.NewEngineError("", result.KindType, err)
	}
	return out.WithSources(src, l, r), nil
}

func (i *interpreter) evalAdd(e *model.Add) (result.Value, error) {
	return i.evalArithmetic(e.Operands, e, numAdd, dateAdd)
}

func (i *interpreter) evalSubtract(e *model.Subtract) (result.Value, error) {
	return i.evalArithmetic(e.Operands, e, numSubtract, dateSubtract)
}

func (i *interpreter) evalMultiply(e *model.Multiply) (result.Value, error) {
	return i.evalArithmetic(e.Operands, e, numMultiply, nil)
}

func (i *interpreter) evalDivide(e *model.Divide) (result.Value, error) {
	return i.evalArithmetic(e.Operands, e, numDivide, nil)
}

func (i *interpreter) evalModulo(e *model.Modulo) (result.Value, error) {
	return i.evalArithmetic(e.Operands, e, numModulo, nil)
}

func (i *interpreter) evalTruncatedDivide(e *model.TruncatedDivide) (result.Value, error) {
	return i.evalArithmetic(e.Operands, e, numTruncatedDivide, nil)
}

func (i *interpreter) evalPower(e *model.Power) (result.Value, error) {
	return i.evalArithmetic(e.Operands, e, numPower, nil)
}

func numAdd(l, r result.Value) (result.Value, error) {
	return numOp(l, r, func(a, b decimal.Decimal) decimal.Decimal { return a.Add(b) })
}

func numSubtract(l, r result.Value) (result.Value, error) {
	return numOp(l, r, func(a, b decimal.Decimal) decimal.Decimal { return a.Sub(b) })
}

func numMultiply(l, r result.Value) (result.Value, error) {
	return numOp(l, r, func(a, b decimal.Decimal) decimal.Decimal { return a.Mul(b) })
}

// numDivide yields a Decimal for numeric operands and a Quantity when l is a Quantity, and yields
// Null (not an error) on division by zero.
func numDivide(l, r result.Value) (result.Value, error) {
	if lq, ok := l.GolangValue().(result.Quantity); ok {
		rq, err := result.ToQuantity(r)
		if err != nil {
			return result.Value{}, err
		}
		if rq.Value.IsZero() {
			return result.New(nil)
		}
		return result.New(result.Quantity{Value: lq.Value.Div(rq.Value), Unit: divideUnits(lq.Unit, rq.Unit)})
	}
	ld, err := asDecimalOperand(l)
	if err != nil {
		return result.Value{}, err
	}
	rd, err := asDecimalOperand(r)
	if err != nil {
		return result.Value{}, err
	}
	if rd.IsZero() {
		return result.New(nil)
	}
	return result.New(ld.DivRound(rd, 16))
}

func numModulo(l, r result.Value) (result.Value, error) {
	return numOpDivGuard(l, r, func(a, b decimal.Decimal) decimal.Decimal { return a.Mod(b) })
}

func numTruncatedDivide(l, r result.Value) (result.Value, error) {
	return numOpDivGuard(l, r, func(a, b decimal.Decimal) decimal.Decimal { return a.Div(b).Truncate(0) })
}

func numPower(l, r result.Value) (result.Value, error) {
	return numOp(l, r, func(a, b decimal.Decimal) decimal.Decimal { return a.Pow(b) })
}

// numOp applies f to l and r coerced to decimal.Decimal, then converts the result back to the
// widest of their two original numeric kinds (Decimal > Long > Integer).
func numOp(l, r result.Value, f func(a, b decimal.Decimal) decimal.Decimal) (result.Value, error) {
	if lq, ok := l.GolangValue().(result.Quantity); ok {
		rq, err := result.ToQuantity(r)
		if err != nil {
			return result.Value{}, err
		}
		if lq.Unit != rq.Unit {
			return result.New(nil)
		}
		return result.New(result.Quantity{Value: f(lq.Value, rq.Value), Unit: lq.Unit})
	}
	ld, err := asDecimalOperand(l)
	if err != nil {
		return result.Value{}, err
	}
	rd, err := asDecimalOperand(r)
	if err != nil {
		return result.Value{}, err
	}
	out := f(ld, rd)
	return result.New(widestNumeric(l, r, out))
}

func numOpDivGuard(l, r result.Value, f func(a, b decimal.Decimal) decimal.Decimal) (result.Value, error) {
	ld, err := asDecimalOperand(l)
	if err != nil {
		return result.Value{}, err
	}
	rd, err := asDecimalOperand(r)
	if err != nil {
		return result.Value{}, err
	}
	if rd.IsZero() {
		return result.New(nil)
	}
	return result.New(widestNumeric(l, r, f(ld, rd)))
}

func asDecimalOperand(v result.Value) (decimal.Decimal, error) {
	d, ok := asDecimalValue(v.GolangValue())
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("cannot use %v as a numeric operand", v.RuntimeType())
	}
	return d, nil
}

// widestNumeric renders out as a Decimal if either operand was a Decimal, else as a Long if either
// was a Long, else as an Integer.
func widestNumeric(l, r result.Value, out decimal.Decimal) any {
	_, lDec := l.GolangValue().(decimal.Decimal)
	_, rDec := r.GolangValue().(decimal.Decimal)
	if lDec || rDec {
		return out
	}
	_, lLong := l.GolangValue().(int64)
	_, rLong := r.GolangValue().(int64)
	if lLong || rLong {
		return out.IntPart()
	}
	return int32(out.IntPart())
}

func divideUnits(num, den string) string {
	if num == den {
		return "1"
	}
	return num + "/" + den
}

// dateAdd/dateSubtract add or subtract a Quantity duration to/from a Date, DateTime, or Time.
func dateAdd(l, r result.Value) (result.Value, error) {
	return dateArith(l, r, 1)
}

func dateSubtract(l, r result.Value) (result.Value, error) {
	return dateArith(l, r, -1)
}

func dateArith(l, r result.Value, sign int) (result.Value, error) {
	q, err := result.ToQuantity(r)
	if err != nil {
		return result.Value{}, err
	}
	amount := int(q.Value.IntPart()) * sign
	switch lv := l.GolangValue().(type) {
	case result.Date:
		lv.Date = applyCalendarUnit(lv.Date, amount, q.Unit)
		return result.New(lv)
	case result.DateTime:
		lv.Date = applyCalendarUnit(lv.Date, amount, q.Unit)
		return result.New(lv)
	case result.Time:
		lv.Date = applyCalendarUnit(lv.Date, amount, q.Unit)
		return result.New(lv)
	}
	return result.Value{}, fmt.Errorf("cannot add a duration to %v", l.RuntimeType())
}

func applyCalendarUnit(t time.Time, amount int, unit string) time.Time {
	switch strings.TrimSuffix(strings.ToLower(unit), "s") {
	case "year":
		return t.AddDate(amount, 0, 0)
	case "month":
		return t.AddDate(0, amount, 0)
	case "week":
		return t.AddDate(0, 0, amount*7)
	case "day":
		return t.AddDate(0, 0, amount)
	case "hour":
		return t.Add(time.Duration(amount) * time.Hour)
	case "minute":
		return t.Add(time.Duration(amount) * time.Minute)
	case "second":
		return t.Add(time.Duration(amount) * time.Second)
	case "millisecond":
		return t.Add(time.Duration(amount) * time.Millisecond)
	}
	return t
}

func (i *interpreter) evalNegate(u *model.Negate) (result.Value, error) {
	v, err := i.evalExpression(u.Operand)
	if err != nil {
		return result.Value{}, err
	}
	if result.IsNull(v) {
		return result.NewWithSources(nil, u, v)
	}
	if q, ok := v.GolangValue().(result.Quantity); ok {
		out, err := result.New(result.Quantity{Value: q.Value.Neg(), Unit: q.Unit})
		return out.WithSources(u, v), err
	}
	d, err := asDecimalOperand(v)
	if err != nil {
		return result.Value{}, err
	}
	out, err := result.New(widestNumeric(v, v, d.Neg()))
	return out.WithSources(u, v), err
}

// evalTruncate drops the fractional part of a Decimal, returning an Integer.
func (i *interpreter) evalTruncate(u *model.Truncate) (result.Value, error) {
	v, err := i.evalExpression(u.Operand)
	if err != nil {
		return result.Value{}, err
	}
	if result.IsNull(v) {
		return result.NewWithSources(nil, u, v)
	}
	d, err := asDecimalOperand(v)
	if err != nil {
		return result.Value{}, err
	}
	out, err := result.New(int32(d.IntPart()))
	return out.WithSources(u, v), err
}

func (i *interpreter) evalPredecessor(u *model.Predecessor) (result.Value, error) {
	return i.evalAdjacent(u, -1)
}

func (i *interpreter) evalSuccessor(u *model.Successor) (result.Value, error) {
	return i.evalAdjacent(u, 1)
}

func (i *interpreter) evalAdjacent(u model.IUnaryExpression, delta int64) (result.Value, error) {
	v, err := i.evalExpression(u.GetOperand())
	if err != nil {
		return result.Value{}, err
	}
	if result.IsNull(v) {
		return result.NewWithSources(nil, u, v)
	}
	switch ov := v.GolangValue().(type) {
	case int32:
		out, err := result.New(ov + int32(delta))
		return out.WithSources(u, v), err
	case int64:
		out, err := result.New(ov + delta)
		return out.WithSources(u, v), err
	case decimal.Decimal:
		out, err := result.New(ov.Add(decimal.New(delta, -8)))
		return out.WithSources(u, v), err
	case result.Date:
		ov.Date = applyCalendarUnit(ov.Date, int(delta), precisionUnit(ov.Precision))
		out, err := result.New(ov)
		return out.WithSources(u, v), err
	case result.DateTime:
		ov.Date = applyCalendarUnit(ov.Date, int(delta), precisionUnit(ov.Precision))
		out, err := result.New(ov)
		return out.WithSources(u, v), err
	case result.Time:
		ov.Date = applyCalendarUnit(ov.Date, int(delta), precisionUnit(ov.Precision))
		out, err := result.New(ov)
		return out.WithSources(u, v), err
	}
	return result.Value{}, fmt.Errorf("predecessor/successor is not defined for %v", v.RuntimeType())
}

func precisionUnit(p model.DateTimePrecision) string {
	switch p {
	case model.Year:
		return "year"
	case model.Month:
		return "month"
	case model.Week:
		return "week"
	case model.Day:
		return "day"
	case model.Hour:
		return "hour"
	case model.Minute:
		return "minute"
	case model.Second:
		return "second"
	case model.Millisecond:
		return "millisecond"
	}
	return "day"
}
