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
	"time"

	"github.com/lattice-health/cqlcore/model"
	"github.com/lattice-health/cqlcore/result"
)

// evalProperty evaluates a `source.path` field access. Null propagates: accessing any property of
// Null is Null.
func (i *interpreter) evalProperty(p *model.Property) (result.Value, error) {
	src, err := i.evalExpression(p.Source)
	if err != nil {
		return result.Value{}, err
	}
	if result.IsNull(src) {
		return result.NewWithSources(nil, p, src)
	}
	v, err := i.valueProperty(src, p.Path)
	if err != nil {
		return result.Value{}, err
	}
	return v.WithSources(p, src), nil
}

// valueProperty computes property on v. A List broadcasts the lookup across its elements,
// flattening one level when an element's property is itself a List (CQL's path-traversal
// flattening rule, e.g. Patient.name.given).
func (i *interpreter) valueProperty(v result.Value, property string) (result.Value, error) {
	switch ot := v.GolangValue().(type) {
	case result.Tuple:
		elem, ok := ot.Value[property]
		if !ok {
			return result.New(nil)
		}
		return elem, nil
	case result.Named:
		elem, ok := ot.Value[property]
		if !ok {
			return result.New(nil)
		}
		return elem, nil
	case result.List:
		var out []result.Value
		for idx, elem := range ot.Value {
			sub, err := i.valueProperty(elem, property)
			if err != nil {
				return result.Value{}, fmt.Errorf("at index %d: %w", idx, err)
			}
			if subList, ok := sub.GolangValue().(result.List); ok {
				out = append(out, subList.Value...)
			} else {
				out = append(out, sub)
			}
		}
		return result.New(result.List{Value: out})
	case result.Interval:
		switch property {
		case "low":
			return ot.Low, nil
		case "high":
			return ot.High, nil
		case "lowClosed":
			return result.New(ot.LowInclusive)
		case "highClosed":
			return result.New(ot.HighInclusive)
		}
	case result.Quantity:
		switch property {
		case "value":
			return result.New(ot.Value)
		case "unit":
			return result.New(ot.Unit)
		}
	case result.Ratio:
		switch property {
		case "numerator":
			return result.New(ot.Numerator)
		case "denominator":
			return result.New(ot.Denominator)
		}
	case result.Code:
		switch property {
		case "code":
			return result.New(ot.Code)
		case "system":
			return result.New(ot.System)
		case "version":
			return result.New(ot.Version)
		case "display":
			return result.New(ot.Display)
		}
	case result.Concept:
		switch property {
		case "codes":
			return result.New(result.List{Value: codesToValues(ot.Codes)})
		case "display":
			return result.New(ot.Display)
		}
	case result.ValueSet:
		switch property {
		case "id":
			return result.New(ot.ID)
		case "version":
			return result.New(ot.Version)
		}
	case result.CodeSystem:
		switch property {
		case "id":
			return result.New(ot.ID)
		case "version":
			return result.New(ot.Version)
		}
	case result.Date:
		return datePartProperty(ot.Date, property)
	case result.DateTime:
		return datePartProperty(ot.Date, property)
	case result.Time:
		return datePartProperty(ot.Date, property)
	}
	return result.Value{}, fmt.Errorf("property %q is not supported on %v", property, v.RuntimeType())
}

func codesToValues(codes []result.Code) []result.Value {
	out := make([]result.Value, len(codes))
	for idx, c := range codes {
		v, _ := result.New(c)
		out[idx] = v
	}
	return out
}

func datePartProperty(t time.Time, property string) (result.Value, error) {
	switch property {
	case "year":
		return result.New(int32(t.Year()))
	case "month":
		return result.New(int32(t.Month()))
	case "day":
		return result.New(int32(t.Day()))
	case "hour":
		return result.New(int32(t.Hour()))
	case "minute":
		return result.New(int32(t.Minute()))
	case "second":
		return result.New(int32(t.Second()))
	case "millisecond":
		return result.New(int32(t.Nanosecond() / 1_000_000))
	}
	return result.Value{}, fmt.Errorf("property %q is not supported on a date/time value", property)
}
