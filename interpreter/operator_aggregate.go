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
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/lattice-health/cqlcore/model"
	"github.com/lattice-health/cqlcore/result"
)

// aggregateElements evaluates u's operand and returns its non-Null elements, discarding any Null
// ones (CQL's list aggregates all ignore them). The bool return distinguishes a Null operand itself
// from an operand that evaluated to an empty or all-Null list.
func (i *interpreter) aggregateElements(u model.IUnaryExpression) (result.Value, []result.Value, bool, error) {
	v, err := i.evalExpression(u.GetOperand())
	if err != nil {
		return result.Value{}, nil, false, err
	}
	if result.IsNull(v) {
		return v, nil, true, nil
	}
	l, err := result.ToSlice(v)
	if err != nil {
		return result.Value{}, nil, false, err
	}
	var out []result.Value
	for _, e := range l {
		if !result.IsNull(e) {
			out = append(out, e)
		}
	}
	return v, out, false, nil
}

func (i *interpreter) evalSum(u *model.Sum) (result.Value, error) {
	src, elems, isNull, err := i.aggregateElements(u)
	if err != nil {
		return result.Value{}, err
	}
	if isNull {
		return result.NewWithSources(nil, u, src)
	}
	if len(elems) == 0 {
		return result.NewWithSources(int32(0), u, src)
	}
	acc := elems[0]
	for _, e := range elems[1:] {
		acc, err = numAdd(acc, e)
		if err != nil {
			return result.Value{}, result.NewEngineError("", result.KindType, err)
		}
	}
	return acc.WithSources(u, src), nil
}

func (i *interpreter) evalProduct(u *model.Product) (result.Value, error) {
	src, elems, isNull, err := i.aggregateElements(u)
	if err != nil {
		return result.Value{}, err
	}
	if isNull {
		return result.NewWithSources(nil, u, src)
	}
	if len(elems) == 0 {
		return result.NewWithSources(int32(1), u, src)
	}
	acc := elems[0]
	for _, e := range elems[1:] {
		acc, err = numMultiply(acc, e)
		if err != nil {
			return result.Value{}, result.NewEngineError("", result.KindType, err)
		}
	}
	return acc.WithSources(u, src), nil
}

func (i *interpreter) evalAvg(u *model.Avg) (result.Value, error) {
	src, elems, isNull, err := i.aggregateElements(u)
	if err != nil {
		return result.Value{}, err
	}
	if isNull || len(elems) == 0 {
		return result.NewWithSources(nil, u, src)
	}
	acc := elems[0]
	for _, e := range elems[1:] {
		acc, err = numAdd(acc, e)
		if err != nil {
			return result.Value{}, result.NewEngineError("", result.KindType, err)
		}
	}
	out, err := divideByN(acc, int64(len(elems)))
	if err != nil {
		return result.Value{}, result.NewEngineError("", result.KindType, err)
	}
	return out.WithSources(u, src), nil
}

// divideByN divides v, a Decimal or Quantity, by the plain integer n.
func divideByN(v result.Value, n int64) (result.Value, error) {
	if q, ok := v.GolangValue().(result.Quantity); ok {
		return result.New(result.Quantity{Value: q.Value.DivRound(decimal.NewFromInt(n), 16), Unit: q.Unit})
	}
	d, err := asDecimalOperand(v)
	if err != nil {
		return result.Value{}, err
	}
	return result.New(d.DivRound(decimal.NewFromInt(n), 16))
}

func (i *interpreter) evalMin(u *model.Min) (result.Value, error) { return i.extreme(u, -1) }

func (i *interpreter) evalMax(u *model.Max) (result.Value, error) { return i.extreme(u, 1) }

// extreme replaces best with a candidate whenever compare(candidate, best) == want, i.e. it finds
// the smallest element for want == -1 or the largest for want == 1.
func (i *interpreter) extreme(u model.IUnaryExpression, want int) (result.Value, error) {
	src, elems, isNull, err := i.aggregateElements(u)
	if err != nil {
		return result.Value{}, err
	}
	if isNull || len(elems) == 0 {
		return result.NewWithSources(nil, u, src)
	}
	best := elems[0]
	for _, e := range elems[1:] {
		c, err := compare(e, best)
		if err != nil {
			return result.Value{}, result.NewEngineError("", result.KindType, err)
		}
		if c == want {
			best = e
		}
	}
	return best.WithSources(u, src), nil
}

// evalMedian sorts the operand's elements and returns the middle one, or the mean of the two middle
// ones on an even count when they're numeric; for non-numeric orderable types the lower of the two
// middle elements is returned instead, since they cannot be averaged.
func (i *interpreter) evalMedian(u *model.Median) (result.Value, error) {
	src, elems, isNull, err := i.aggregateElements(u)
	if err != nil {
		return result.Value{}, err
	}
	if isNull || len(elems) == 0 {
		return result.NewWithSources(nil, u, src)
	}
	sorted := append([]result.Value(nil), elems...)
	sort.SliceStable(sorted, func(a, b int) bool {
		c, _ := compare(sorted[a], sorted[b])
		return c < 0
	})
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid].WithSources(u, src), nil
	}
	sum, err := numAdd(sorted[mid-1], sorted[mid])
	if err != nil {
		return sorted[mid-1].WithSources(u, src), nil
	}
	out, err := divideByN(sum, 2)
	if err != nil {
		return result.Value{}, result.NewEngineError("", result.KindType, err)
	}
	return out.WithSources(u, src), nil
}

// evalMode returns the most frequently occurring element, by structural equality, breaking ties in
// favor of whichever value was encountered first.
func (i *interpreter) evalMode(u *model.Mode) (result.Value, error) {
	src, elems, isNull, err := i.aggregateElements(u)
	if err != nil {
		return result.Value{}, err
	}
	if isNull || len(elems) == 0 {
		return result.NewWithSources(nil, u, src)
	}
	type bucket struct {
		v     result.Value
		count int
	}
	var buckets []bucket
	for _, e := range elems {
		found := false
		for idx := range buckets {
			if buckets[idx].v.Equal(e) {
				buckets[idx].count++
				found = true
				break
			}
		}
		if !found {
			buckets = append(buckets, bucket{v: e, count: 1})
		}
	}
	best := buckets[0]
	for _, b := range buckets[1:] {
		if b.count > best.count {
			best = b
		}
	}
	return best.v.WithSources(u, src), nil
}

// decimalsAndUnit widens every element to a decimal.Decimal, reporting the common Quantity unit (and
// true) if the elements are Quantities.
func decimalsAndUnit(elems []result.Value) ([]decimal.Decimal, string, bool, error) {
	var unit string
	isQuantity := false
	out := make([]decimal.Decimal, 0, len(elems))
	for idx, e := range elems {
		if q, ok := e.GolangValue().(result.Quantity); ok {
			if idx == 0 {
				unit = q.Unit
				isQuantity = true
			}
			out = append(out, q.Value)
			continue
		}
		d, ok := asDecimalValue(e.GolangValue())
		if !ok {
			return nil, "", false, fmt.Errorf("cannot use %v in a numeric aggregate", e.RuntimeType())
		}
		out = append(out, d)
	}
	return out, unit, isQuantity, nil
}

func wrapNumeric(d decimal.Decimal, isQuantity bool, unit string) (result.Value, error) {
	if isQuantity {
		return result.New(result.Quantity{Value: d, Unit: unit})
	}
	return result.New(d)
}

func decimalMean(vals []decimal.Decimal) decimal.Decimal {
	var sum decimal.Decimal
	for _, v := range vals {
		sum = sum.Add(v)
	}
	return sum.DivRound(decimal.NewFromInt(int64(len(vals))), 16)
}

// computeVariance computes the sum-of-squared-deviations variance over u's operand, dividing by
// (n - ddof): ddof 1 for the sample variance, 0 for the population variance. It reports Null (via
// the bool return) on an empty operand or when n - ddof is not positive.
func (i *interpreter) computeVariance(u model.IUnaryExpression, ddof int) (result.Value, result.Value, bool, error) {
	src, elems, isNull, err := i.aggregateElements(u)
	if err != nil {
		return result.Value{}, result.Value{}, false, err
	}
	n := len(elems)
	if isNull || n == 0 || n-ddof <= 0 {
		return result.Value{}, src, true, nil
	}
	vals, unit, isQty, err := decimalsAndUnit(elems)
	if err != nil {
		return result.Value{}, result.Value{}, false, result.NewEngineError("", result.KindType, err)
	}
	mean := decimalMean(vals)
	var sumSq decimal.Decimal
	for _, v := range vals {
		diff := v.Sub(mean)
		sumSq = sumSq.Add(diff.Mul(diff))
	}
	out := sumSq.DivRound(decimal.NewFromInt(int64(n-ddof)), 16)
	v, err := wrapNumeric(out, isQty, unit)
	return v, src, false, err
}

func (i *interpreter) evalVariance(u *model.Variance) (result.Value, error) {
	return i.varianceResult(u, 1)
}

func (i *interpreter) evalPopulationVariance(u *model.PopulationVariance) (result.Value, error) {
	return i.varianceResult(u, 0)
}

func (i *interpreter) varianceResult(u model.IUnaryExpression, ddof int) (result.Value, error) {
	v, src, isNull, err := i.computeVariance(u, ddof)
	if err != nil {
		return result.Value{}, err
	}
	if isNull {
		return result.NewWithSources(nil, u, src)
	}
	return v.WithSources(u, src), nil
}

func (i *interpreter) evalStdDev(u *model.StdDev) (result.Value, error) {
	return i.stdDevResult(u, 1)
}

func (i *interpreter) evalPopulationStdDev(u *model.PopulationStdDev) (result.Value, error) {
	return i.stdDevResult(u, 0)
}

func (i *interpreter) stdDevResult(u model.IUnaryExpression, ddof int) (result.Value, error) {
	v, src, isNull, err := i.computeVariance(u, ddof)
	if err != nil {
		return result.Value{}, err
	}
	if isNull {
		return result.NewWithSources(nil, u, src)
	}
	out, err := sqrtValue(v)
	if err != nil {
		return result.Value{}, err
	}
	return out.WithSources(u, src), nil
}

func sqrtValue(v result.Value) (result.Value, error) {
	switch vv := v.GolangValue().(type) {
	case decimal.Decimal:
		f, _ := vv.Float64()
		return result.New(decimal.NewFromFloat(math.Sqrt(f)))
	case result.Quantity:
		f, _ := vv.Value.Float64()
		return result.New(result.Quantity{Value: decimal.NewFromFloat(math.Sqrt(f)), Unit: vv.Unit})
	}
	return result.Value{}, fmt.Errorf("internal error: unsupported variance result %T", v.GolangValue())
}

// evalGeometricMean is the nth root of the product of n non-negative values; a negative element
// makes the result Null, since the root would be complex.
func (i *interpreter) evalGeometricMean(u *model.GeometricMean) (result.Value, error) {
	src, elems, isNull, err := i.aggregateElements(u)
	if err != nil {
		return result.Value{}, err
	}
	if isNull || len(elems) == 0 {
		return result.NewWithSources(nil, u, src)
	}
	vals, unit, isQty, err := decimalsAndUnit(elems)
	if err != nil {
		return result.Value{}, result.NewEngineError("", result.KindType, err)
	}
	product := 1.0
	for _, v := range vals {
		f, _ := v.Float64()
		if f < 0 {
			return result.NewWithSources(nil, u, src)
		}
		product *= f
	}
	root := math.Pow(product, 1/float64(len(vals)))
	out, err := wrapNumeric(decimal.NewFromFloat(root), isQty, unit)
	if err != nil {
		return result.Value{}, err
	}
	return out.WithSources(u, src), nil
}
