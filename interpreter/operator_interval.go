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
	"sort"

	"github.com/shopspring/decimal"

	"github.com/lattice-health/cqlcore/model"
	"github.com/lattice-health/cqlcore/result"
)

var oneDecimal = decimal.NewFromInt(1)

func (i *interpreter) evalStart(u *model.Start) (result.Value, error) {
	v, err := i.evalExpression(u.Operand)
	if err != nil {
		return result.Value{}, err
	}
	if result.IsNull(v) {
		return result.NewWithSources(nil, u, v)
	}
	iv, err := result.ToInterval(v)
	if err != nil {
		return result.Value{}, err
	}
	return iv.Low.WithSources(u, v), nil
}

func (i *interpreter) evalEnd(u *model.End) (result.Value, error) {
	v, err := i.evalExpression(u.Operand)
	if err != nil {
		return result.Value{}, err
	}
	if result.IsNull(v) {
		return result.NewWithSources(nil, u, v)
	}
	iv, err := result.ToInterval(v)
	if err != nil {
		return result.Value{}, err
	}
	return iv.High.WithSources(u, v), nil
}

// evalWidth is the numeric difference between an Interval's high and low boundaries. It is
// undefined for Date/DateTime/Time-pointed intervals.
func (i *interpreter) evalWidth(u *model.Width) (result.Value, error) {
	v, err := i.evalExpression(u.Operand)
	if err != nil {
		return result.Value{}, err
	}
	if result.IsNull(v) {
		return result.NewWithSources(nil, u, v)
	}
	iv, err := result.ToInterval(v)
	if err != nil {
		return result.Value{}, err
	}
	if result.IsNull(iv.Low) || result.IsNull(iv.High) {
		return result.NewWithSources(nil, u, v)
	}
	out, err := numSubtract(iv.High, iv.Low)
	if err != nil {
		return result.Value{}, result.NewEngineError("", result.KindType, err)
	}
	return out.WithSources(u, v), nil
}

// evalPointFrom unwraps a degenerate (single-point) interval.
func (i *interpreter) evalPointFrom(u *model.PointFrom) (result.Value, error) {
	v, err := i.evalExpression(u.Operand)
	if err != nil {
		return result.Value{}, err
	}
	if result.IsNull(v) {
		return result.NewWithSources(nil, u, v)
	}
	iv, err := result.ToInterval(v)
	if err != nil {
		return result.Value{}, err
	}
	if result.IsNull(iv.Low) || result.IsNull(iv.High) || !iv.Low.Equal(iv.High) {
		return result.Value{}, result.NewEngineError("", result.KindDomain, fmt.Errorf("PointFrom expects a degenerate interval"))
	}
	return iv.Low.WithSources(u, v), nil
}

// evalCollapse merges each interval whose low boundary is at or before the previous merged
// interval's high boundary into a minimal covering set, sorted by low boundary. Intervals with a
// gap between them, such as Interval[1, 5] and Interval[6, 10], are not merged.
func (i *interpreter) evalCollapse(u *model.Collapse) (result.Value, error) {
	v, err := i.evalExpression(u.Operand)
	if err != nil {
		return result.Value{}, err
	}
	if result.IsNull(v) {
		return result.NewWithSources(nil, u, v)
	}
	elems, err := result.ToSlice(v)
	if err != nil {
		return result.Value{}, err
	}
	var ivs []result.Interval
	for _, e := range elems {
		if result.IsNull(e) {
			continue
		}
		iv, err := result.ToInterval(e)
		if err != nil {
			return result.Value{}, err
		}
		ivs = append(ivs, iv)
	}
	sort.Slice(ivs, func(a, b int) bool {
		c, _ := compare(ivs[a].Low, ivs[b].Low)
		return c < 0
	})
	var out []result.Interval
	for _, iv := range ivs {
		if len(out) == 0 {
			out = append(out, iv)
			continue
		}
		last := &out[len(out)-1]
		c, err := compare(iv.Low, last.High)
		if err != nil {
			return result.Value{}, err
		}
		if c <= 0 || (c == 1 && !last.HighInclusive && !iv.LowInclusive && adjacentPoints(last.High, iv.Low)) {
			if hc, _ := compare(iv.High, last.High); hc > 0 {
				last.High = iv.High
				last.HighInclusive = iv.HighInclusive
			}
			continue
		}
		out = append(out, iv)
	}
	vals := make([]result.Value, len(out))
	for idx, iv := range out {
		vals[idx], err = result.New(iv)
		if err != nil {
			return result.Value{}, err
		}
	}
	return result.NewWithSources(result.List{Value: vals}, u, v)
}

func adjacentPoints(a, b result.Value) bool {
	c, err := compare(a, b)
	return err == nil && c == 0
}

// evalOverlaps reports whether two intervals share at least one point.
func (i *interpreter) evalOverlaps(e *model.Overlaps) (result.Value, error) {
	return i.evalIntervalRelation(e.Operands, e, func(a, b result.Interval) (bool, error) {
		lowOK, err := boundaryCompare(a.Low, b.High, a.LowInclusive && b.HighInclusive)
		if err != nil {
			return false, err
		}
		highOK, err := boundaryCompare(b.Low, a.High, b.LowInclusive && a.HighInclusive)
		if err != nil {
			return false, err
		}
		return lowOK && highOK, nil
	})
}

// boundaryCompare reports whether lo < hi, or lo == hi when inclusiveAtEqual is set. A Null
// boundary counts as unbounded and yields true.
func boundaryCompare(lo, hi result.Value, inclusiveAtEqual bool) (bool, error) {
	if result.IsNull(lo) || result.IsNull(hi) {
		return true, nil
	}
	c, err := compare(lo, hi)
	if err != nil {
		return false, err
	}
	if c < 0 {
		return true, nil
	}
	if c == 0 {
		return inclusiveAtEqual, nil
	}
	return false, nil
}

func (i *interpreter) evalMeets(e *model.Meets) (result.Value, error) {
	return i.evalIntervalRelation(e.Operands, e, func(a, b result.Interval) (bool, error) {
		before, err := meetsBefore(a, b)
		if err != nil {
			return false, err
		}
		if before {
			return true, nil
		}
		return meetsBefore(b, a)
	})
}

func (i *interpreter) evalMeetsBefore(e *model.MeetsBefore) (result.Value, error) {
	return i.evalIntervalRelation(e.Operands, e, meetsBefore)
}

func (i *interpreter) evalMeetsAfter(e *model.MeetsAfter) (result.Value, error) {
	return i.evalIntervalRelation(e.Operands, e, func(a, b result.Interval) (bool, error) {
		return meetsBefore(b, a)
	})
}

// meetsBefore reports whether a's high boundary equals b's low boundary with exactly one of the
// two boundaries inclusive. Closed intervals on consecutive points, such as Interval[1, 5] and
// Interval[6, 10], do not meet under this test.
func meetsBefore(a, b result.Interval) (bool, error) {
	if result.IsNull(a.High) || result.IsNull(b.Low) {
		return false, nil
	}
	c, err := compare(a.High, b.Low)
	if err != nil {
		return false, err
	}
	return c == 0 && a.HighInclusive != b.LowInclusive, nil
}

func (i *interpreter) evalStarts(e *model.Starts) (result.Value, error) {
	return i.evalIntervalRelation(e.Operands, e, func(a, b result.Interval) (bool, error) {
		if a.LowInclusive != b.LowInclusive {
			return false, nil
		}
		return boundaryEqual(a.Low, b.Low)
	})
}

func (i *interpreter) evalEnds(e *model.Ends) (result.Value, error) {
	return i.evalIntervalRelation(e.Operands, e, func(a, b result.Interval) (bool, error) {
		if a.HighInclusive != b.HighInclusive {
			return false, nil
		}
		return boundaryEqual(a.High, b.High)
	})
}

func boundaryEqual(a, b result.Value) (bool, error) {
	if result.IsNull(a) || result.IsNull(b) {
		return result.IsNull(a) && result.IsNull(b), nil
	}
	c, err := compare(a, b)
	if err != nil {
		return false, err
	}
	return c == 0, nil
}

func (i *interpreter) evalIntervalRelation(operands [2]model.IExpression, src model.IExpression, rel func(a, b result.Interval) (bool, error)) (result.Value, error) {
	l, r, err := i.evalPair(operands)
	if err != nil {
		return result.Value{}, err
	}
	if result.IsNull(l) || result.IsNull(r) {
		return result.NewWithSources(nil, src, l, r)
	}
	la, err := result.ToInterval(l)
	if err != nil {
		return result.Value{}, err
	}
	ra, err := result.ToInterval(r)
	if err != nil {
		return result.Value{}, err
	}
	ok, err := rel(la, ra)
	if err != nil {
		return result.Value{}, result.NewEngineError("", result.KindType, err)
	}
	return result.NewWithSources(ok, src, l, r)
}

// evalExpand expands an interval into a list of unit-width sub-intervals, one per step of the
// given precision/quantity. Operands[1] names the step size; a Null step defaults to a width of 1
// in the point type's natural unit.
func (i *interpreter) evalExpand(e *model.Expand) (result.Value, error) {
	l, r, err := i.evalPair(e.Operands)
	if err != nil {
		return result.Value{}, err
	}
	if result.IsNull(l) {
		return result.NewWithSources(nil, e, l, r)
	}
	iv, err := result.ToInterval(l)
	if err != nil {
		return result.Value{}, err
	}
	step := result.Quantity{Value: oneDecimal, Unit: "1"}
	if !result.IsNull(r) {
		step, err = result.ToQuantity(r)
		if err != nil {
			return result.Value{}, err
		}
	}
	if result.IsNull(iv.Low) || result.IsNull(iv.High) {
		return result.Value{}, result.NewEngineError("", result.KindDomain, fmt.Errorf("Expand requires a bounded interval"))
	}

	var out []result.Value
	cur := iv.Low
	guard := 0
	for {
		c, err := compare(cur, iv.High)
		if err != nil {
			return result.Value{}, err
		}
		if c > 0 {
			break
		}
		next, err := stepValue(cur, step)
		if err != nil {
			return result.Value{}, err
		}
		pv, err := result.New(result.Interval{Low: cur, High: cur, LowInclusive: true, HighInclusive: true})
		if err != nil {
			return result.Value{}, err
		}
		out = append(out, pv)
		cur = next
		guard++
		if guard > 100000 {
			return result.Value{}, result.NewEngineError("", result.KindDomain, fmt.Errorf("Expand exceeded the maximum number of steps"))
		}
	}
	return result.NewWithSources(result.List{Value: out}, e, l, r)
}

func stepValue(cur result.Value, step result.Quantity) (result.Value, error) {
	switch cur.GolangValue().(type) {
	case result.Date, result.DateTime, result.Time:
		return dateAdd(cur, resultOf(step))
	}
	return numAdd(cur, resultOf(step))
}

func resultOf(q result.Quantity) result.Value {
	v, _ := result.New(q)
	return v
}
