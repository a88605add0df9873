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
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/lattice-health/cqlcore/internal/datehelpers"
	"github.com/lattice-health/cqlcore/model"
	"github.com/lattice-health/cqlcore/result"
	"github.com/lattice-health/cqlcore/types"
)

// evalLiteral parses l's textual Value according to its ValueType. Null is encoded as a Literal
// of type Any with an empty Value.
func (i *interpreter) evalLiteral(l *model.Literal) (result.Value, error) {
	t, ok := l.ValueType.(types.System)
	if !ok {
		return result.Value{}, fmt.Errorf("internal error: literal type must be a CQL base type, got %v", l.ValueType)
	}
	switch t {
	case types.Any:
		if l.Value == "" {
			return result.NewWithSources(nil, l)
		}
	case types.Boolean:
		b, err := strconv.ParseBool(l.Value)
		if err != nil {
			return result.Value{}, err
		}
		return result.NewWithSources(b, l)
	case types.Integer:
		v, err := strconv.ParseInt(l.Value, 10, 32)
		if err != nil {
			return result.Value{}, err
		}
		return result.NewWithSources(int32(v), l)
	case types.Long:
		v, err := strconv.ParseInt(strings.TrimSuffix(l.Value, "L"), 10, 64)
		if err != nil {
			return result.Value{}, err
		}
		return result.NewWithSources(v, l)
	case types.Decimal:
		d, err := decimal.NewFromString(l.Value)
		if err != nil {
			return result.Value{}, err
		}
		return result.NewWithSources(d, l)
	case types.String:
		return result.NewWithSources(l.Value, l)
	case types.Date:
		t, p, err := datehelpers.ParseDate(l.Value, i.evaluationTimestamp.Location())
		if err != nil {
			return result.Value{}, err
		}
		return result.NewWithSources(result.Date{Date: t, Precision: p}, l)
	case types.DateTime:
		t, p, err := datehelpers.ParseDateTime(l.Value, i.evaluationTimestamp.Location())
		if err != nil {
			return result.Value{}, err
		}
		return result.NewWithSources(result.DateTime{Date: t, Precision: p}, l)
	case types.Time:
		t, p, err := datehelpers.ParseTime(l.Value, i.evaluationTimestamp.Location())
		if err != nil {
			return result.Value{}, err
		}
		return result.NewWithSources(result.Time{Date: t, Precision: p}, l)
	}
	return result.Value{}, fmt.Errorf("unsupported literal %q of type %v", l.Value, t)
}

func (i *interpreter) evalQuantity(q *model.Quantity) (result.Value, error) {
	return result.NewWithSources(result.Quantity{Value: decimal.NewFromFloat(q.Value), Unit: q.Unit}, q)
}

func (i *interpreter) evalRatio(r *model.Ratio) (result.Value, error) {
	num, err := i.evalQuantity(&r.Numerator)
	if err != nil {
		return result.Value{}, err
	}
	den, err := i.evalQuantity(&r.Denominator)
	if err != nil {
		return result.Value{}, err
	}
	rv := result.Ratio{
		Numerator:   num.GolangValue().(result.Quantity),
		Denominator: den.GolangValue().(result.Quantity),
	}
	return result.NewWithSources(rv, r, num, den)
}

func (i *interpreter) evalInterval(iv *model.Interval) (result.Value, error) {
	low, err := i.evalExpression(iv.Low)
	if err != nil {
		return result.Value{}, err
	}
	high, err := i.evalExpression(iv.High)
	if err != nil {
		return result.Value{}, err
	}
	pointType, ok := iv.GetResultType().(*types.Interval)
	if !ok {
		return result.Value{}, fmt.Errorf("internal error: Interval result type should be an Interval, got %v", iv.GetResultType())
	}
	return result.NewWithSources(result.Interval{
		Low:             low,
		High:            high,
		LowInclusive:    iv.LowInclusive,
		HighInclusive:   iv.HighInclusive,
		StaticPointType: pointType.PointType,
	}, iv, low, high)
}

func (i *interpreter) evalList(l *model.List) (result.Value, error) {
	elems := make([]result.Value, 0, len(l.List))
	for idx, e := range l.List {
		v, err := i.evalExpression(e)
		if err != nil {
			return result.Value{}, fmt.Errorf("at index %d: %w", idx, err)
		}
		elems = append(elems, v)
	}
	listType, ok := l.GetResultType().(*types.List)
	if !ok {
		return result.Value{}, fmt.Errorf("internal error: List result type should be a List, got %v", l.GetResultType())
	}
	return result.NewWithSources(result.List{Value: elems, StaticType: listType}, l, elems...)
}

func (i *interpreter) evalTuple(t *model.Tuple) (result.Value, error) {
	fields := make(map[string]result.Value, len(t.Elements))
	order := make([]string, 0, len(t.Elements))
	for _, elem := range t.Elements {
		v, err := i.evalExpression(elem.Value)
		if err != nil {
			return result.Value{}, err
		}
		fields[elem.Name] = v
		order = append(order, elem.Name)
	}
	return result.NewWithSources(result.Tuple{Value: fields, Order: order}, t)
}

func (i *interpreter) evalCode(c *model.Code) (result.Value, error) {
	if c.System == nil {
		return result.Value{}, fmt.Errorf("code %q declares no code system", c.Code)
	}
	csVal, err := i.evalCodeSystemRef(c.System)
	if err != nil {
		return result.Value{}, err
	}
	cs, err := result.ToCodeSystem(csVal)
	if err != nil {
		return result.Value{}, err
	}
	return result.NewWithSources(result.Code{Code: c.Code, System: cs.ID, Version: cs.Version, Display: c.Display}, c)
}

// evalInstance evaluates a `Type { field: expr, ... }` selector. The System base types construct
// their corresponding Go payload directly; any other class type is rendered as a Tuple, since the
// engine has no external data model to validate field shapes against.
func (i *interpreter) evalInstance(in *model.Instance) (result.Value, error) {
	fields := make(map[string]result.Value, len(in.Elements))
	order := make([]string, 0, len(in.Elements))
	for _, elem := range in.Elements {
		v, err := i.evalExpression(elem.Value)
		if err != nil {
			return result.Value{}, err
		}
		fields[elem.Name] = v
		order = append(order, elem.Name)
	}

	sys, ok := in.ClassType.(types.System)
	if !ok {
		return result.New(result.Tuple{Value: fields, Order: order})
	}

	switch sys {
	case types.Quantity:
		q := result.Quantity{}
		if v, ok := fields["value"]; ok {
			d, err := result.ToDecimal(v)
			if err != nil {
				return result.Value{}, err
			}
			q.Value = d
		}
		if v, ok := fields["unit"]; ok {
			u, err := result.ToString(v)
			if err != nil {
				return result.Value{}, err
			}
			q.Unit = u
		}
		return result.New(q)
	case types.Code:
		c := result.Code{}
		if v, ok := fields["code"]; ok {
			c.Code, _ = v.GolangValue().(string)
		}
		if v, ok := fields["system"]; ok {
			c.System, _ = v.GolangValue().(string)
		}
		if v, ok := fields["version"]; ok {
			c.Version, _ = v.GolangValue().(string)
		}
		if v, ok := fields["display"]; ok {
			c.Display, _ = v.GolangValue().(string)
		}
		return result.New(c)
	case types.CodeSystem:
		cs := result.CodeSystem{}
		if v, ok := fields["id"]; ok {
			cs.ID, _ = v.GolangValue().(string)
		}
		if v, ok := fields["version"]; ok {
			cs.Version, _ = v.GolangValue().(string)
		}
		return result.New(cs)
	case types.ValueSet:
		vs := result.ValueSet{}
		if v, ok := fields["id"]; ok {
			vs.ID, _ = v.GolangValue().(string)
		}
		if v, ok := fields["version"]; ok {
			vs.Version, _ = v.GolangValue().(string)
		}
		return result.New(vs)
	case types.Concept:
		c := result.Concept{}
		if v, ok := fields["codes"]; ok {
			codeVals, err := result.ToSlice(v)
			if err != nil {
				return result.Value{}, err
			}
			for _, cv := range codeVals {
				code, err := result.ToCode(cv)
				if err != nil {
					return result.Value{}, err
				}
				c.Codes = append(c.Codes, code)
			}
		}
		if v, ok := fields["display"]; ok {
			c.Display, _ = v.GolangValue().(string)
		}
		return result.New(c)
	}

	return result.New(result.Tuple{Value: fields, Order: order})
}
