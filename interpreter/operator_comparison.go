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

	"github.com/shopspring/decimal"

	"github.com/lattice-health/cqlcore/model"
	"github.com/lattice-health/cqlcore/result"
)

func (i *interpreter) evalEqual(e *model.Equal) (result.Value, error) {
	l, r, err := i.evalPair(e.Operands)
	if err != nil {
		return result.Value{}, err
	}
	if result.IsNull(l) || result.IsNull(r) {
		return result.NewWithSources(nil, e, l, r)
	}
	return result.NewWithSources(l.Equal(r), e, l, r)
}

// evalEquivalent never yields Null: Null is equivalent to Null, and otherwise falls back to
// structural equality.
func (i *interpreter) evalEquivalent(e *model.Equivalent) (result.Value, error) {
	l, r, err := i.evalPair(e.Operands)
	if err != nil {
		return result.Value{}, err
	}
	return result.NewWithSources(l.Equal(r), e, l, r)
}

func (i *interpreter) evalPair(operands [2]model.IExpression) (result.Value, result.Value, error) {
	l, err := i.evalExpression(operands[0])
	if err != nil {
		return result.Value{}, result.Value{}, err
	}
	r, err := i.evalExpression(operands[1])
	if err != nil {
		return result.Value{}, result.Value{}, err
	}
	return l, r, nil
}

// compare orders l and r, both of which must be Integer, Long, Decimal, String, Date, DateTime,
// Time, or Quantity of the same unit. The result is -1, 0, or 1.
func compare(l, r result.Value) (int, error) {
	lg, rg := l.GolangValue(), r.GolangValue()
	switch lv := lg.(type) {
	case int32:
		rv, ok := asInt64(rg)
		if !ok {
			return 0, fmt.Errorf("cannot compare %v to %v", l.RuntimeType(), r.RuntimeType())
		}
		return cmpInt(int64(lv), rv), nil
	case int64:
		rv, ok := asInt64(rg)
		if !ok {
			return 0, fmt.Errorf("cannot compare %v to %v", l.RuntimeType(), r.RuntimeType())
		}
		return cmpInt(lv, rv), nil
	case decimal.Decimal:
		rv, ok := asDecimalValue(rg)
		if !ok {
			return 0, fmt.Errorf("cannot compare %v to %v", l.RuntimeType(), r.RuntimeType())
		}
		return lv.Cmp(rv), nil
	case string:
		rv, ok := rg.(string)
		if !ok {
			return 0, fmt.Errorf("cannot compare %v to %v", l.RuntimeType(), r.RuntimeType())
		}
		switch {
		case lv < rv:
			return -1, nil
		case lv > rv:
			return 1, nil
		default:
			return 0, nil
		}
	case result.Date:
		rdt, err := result.ToDateTime(r)
		if err != nil {
			return 0, err
		}
		ldt, _ := result.ToDateTime(l)
		return ldt.Date.Compare(rdt.Date), nil
	case result.DateTime:
		rdt, err := result.ToDateTime(r)
		if err != nil {
			return 0, err
		}
		return lv.Date.Compare(rdt.Date), nil
	case result.Time:
		rdt, err := result.ToDateTime(r)
		if err != nil {
			return 0, err
		}
		ldt, _ := result.ToDateTime(l)
		return ldt.Date.Compare(rdt.Date), nil
	case result.Quantity:
		rv, ok := rg.(result.Quantity)
		if !ok {
			return 0, fmt.Errorf("cannot compare %v to %v", l.RuntimeType(), r.RuntimeType())
		}
		if lv.Unit != rv.Unit {
			return 0, fmt.Errorf("cannot compare quantities with different units %q and %q", lv.Unit, rv.Unit)
		}
		return lv.Value.Cmp(rv.Value), nil
	}
	return 0, fmt.Errorf("comparison is not defined for %v", l.RuntimeType())
}

func asInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case int32:
		return int64(t), true
	case int64:
		return t, true
	}
	return 0, false
}

func asDecimalValue(v any) (decimal.Decimal, bool) {
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

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// evalOrdered evaluates both operands of e, propagates Null, yields Null for two Quantities with
// different units, and otherwise applies pred to the comparison outcome.
func (i *interpreter) evalOrdered(operands [2]model.IExpression, src model.IExpression, pred func(int) bool) (result.Value, error) {
	l, r, err := i.evalPair(operands)
	if err != nil {
		return result.Value{}, err
	}
	if result.IsNull(l) || result.IsNull(r) {
		return result.NewWithSources(nil, src, l, r)
	}
	if lq, ok := l.GolangValue().(result.Quantity); ok {
		if rq, ok := r.GolangValue().(result.Quantity); ok && lq.Unit != rq.Unit {
			return result.NewWithSources(nil, src, l, r)
		}
	}
	c, err := compare(l, r)
	if err != nil {
		return result.Value{}, result.NewEngineError("", result.KindType, err)
	}
	return result.NewWithSources(pred(c), src, l, r)
}

func (i *interpreter) evalLess(e *model.Less) (result.Value, error) {
	return i.evalOrdered(e.Operands, e, func(c int) bool { return c < 0 })
}

func (i *interpreter) evalGreater(e *model.Greater) (result.Value, error) {
	return i.evalOrdered(e.Operands, e, func(c int) bool { return c > 0 })
}

func (i *interpreter) evalLessOrEqual(e *model.LessOrEqual) (result.Value, error) {
	return i.evalOrdered(e.Operands, e, func(c int) bool { return c <= 0 })
}

func (i *interpreter) evalGreaterOrEqual(e *model.GreaterOrEqual) (result.Value, error) {
	return i.evalOrdered(e.Operands, e, func(c int) bool { return c >= 0 })
}
