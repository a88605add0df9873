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

// valueIsType reports whether v's runtime type matches t. Null never matches any type.
func valueIsType(v result.Value, t types.IType) bool {
	if result.IsNull(v) {
		return false
	}
	return v.RuntimeType().Equal(t)
}

func (i *interpreter) evalIs(u *model.Is) (result.Value, error) {
	v, err := i.evalExpression(u.Operand)
	if err != nil {
		return result.Value{}, err
	}
	return result.NewWithSources(valueIsType(v, u.IsType), u, v)
}

// evalAs casts an expression to AsType. A mismatch yields Null unless Strict, in which case it
// raises a type error.
func (i *interpreter) evalAs(u *model.As) (result.Value, error) {
	v, err := i.evalExpression(u.Operand)
	if err != nil {
		return result.Value{}, err
	}
	if result.IsNull(v) {
		return result.NewWithSources(nil, u, v)
	}
	if valueIsType(v, u.AsType) {
		return v.WithSources(u, v), nil
	}
	if u.Strict {
		return result.Value{}, result.NewEngineError("", result.KindType, fmt.Errorf("cannot cast %v as %v", v.RuntimeType(), u.AsType))
	}
	return result.NewWithSources(nil, u, v)
}

func (i *interpreter) evalCanConvertQuantity(e *model.CanConvertQuantity) (result.Value, error) {
	l, r, err := i.evalPair(e.Operands)
	if err != nil {
		return result.Value{}, err
	}
	if result.IsNull(l) || result.IsNull(r) {
		return result.NewWithSources(nil, e, l, r)
	}
	q, err := result.ToQuantity(l)
	if err != nil {
		return result.NewWithSources(false, e, l, r)
	}
	unit, err := result.ToString(r)
	if err != nil {
		return result.Value{}, err
	}
	return result.NewWithSources(q.Unit == unit, e, l, r)
}

func (i *interpreter) evalToBoolean(u *model.ToBoolean) (result.Value, error) {
	v, err := i.evalExpression(u.Operand)
	if err != nil {
		return result.Value{}, err
	}
	if result.IsNull(v) {
		return result.NewWithSources(nil, u, v)
	}
	switch ov := v.GolangValue().(type) {
	case bool:
		return result.NewWithSources(ov, u, v)
	case string:
		switch strings.ToLower(ov) {
		case "true", "t", "yes", "y", "1":
			return result.NewWithSources(true, u, v)
		case "false", "f", "no", "n", "0":
			return result.NewWithSources(false, u, v)
		}
	}
	return result.NewWithSources(nil, u, v)
}

func (i *interpreter) evalToInteger(u *model.ToInteger) (result.Value, error) {
	v, err := i.evalExpression(u.Operand)
	if err != nil {
		return result.Value{}, err
	}
	if result.IsNull(v) {
		return result.NewWithSources(nil, u, v)
	}
	switch ov := v.GolangValue().(type) {
	case int32:
		return result.NewWithSources(ov, u, v)
	case int64:
		return result.NewWithSources(int32(ov), u, v)
	case decimal.Decimal:
		return result.NewWithSources(int32(ov.IntPart()), u, v)
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(ov), 10, 32)
		if err != nil {
			return result.NewWithSources(nil, u, v)
		}
		return result.NewWithSources(int32(n), u, v)
	}
	return result.NewWithSources(nil, u, v)
}

func (i *interpreter) evalToLong(u *model.ToLong) (result.Value, error) {
	v, err := i.evalExpression(u.Operand)
	if err != nil {
		return result.Value{}, err
	}
	if result.IsNull(v) {
		return result.NewWithSources(nil, u, v)
	}
	switch ov := v.GolangValue().(type) {
	case int32:
		return result.NewWithSources(int64(ov), u, v)
	case int64:
		return result.NewWithSources(ov, u, v)
	case decimal.Decimal:
		return result.NewWithSources(ov.IntPart(), u, v)
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(ov), 10, 64)
		if err != nil {
			return result.NewWithSources(nil, u, v)
		}
		return result.NewWithSources(n, u, v)
	}
	return result.NewWithSources(nil, u, v)
}

func (i *interpreter) evalToDecimal(u *model.ToDecimal) (result.Value, error) {
	v, err := i.evalExpression(u.Operand)
	if err != nil {
		return result.Value{}, err
	}
	if result.IsNull(v) {
		return result.NewWithSources(nil, u, v)
	}
	d, ok := asDecimalValue(v.GolangValue())
	if ok {
		return result.NewWithSources(d, u, v)
	}
	if s, ok := v.GolangValue().(string); ok {
		d, err := decimal.NewFromString(strings.TrimSpace(s))
		if err != nil {
			return result.NewWithSources(nil, u, v)
		}
		return result.NewWithSources(d, u, v)
	}
	return result.NewWithSources(nil, u, v)
}

func (i *interpreter) evalToString(u *model.ToString) (result.Value, error) {
	v, err := i.evalExpression(u.Operand)
	if err != nil {
		return result.Value{}, err
	}
	if result.IsNull(v) {
		return result.NewWithSources(nil, u, v)
	}
	switch ov := v.GolangValue().(type) {
	case string:
		return result.NewWithSources(ov, u, v)
	case bool:
		return result.NewWithSources(strconv.FormatBool(ov), u, v)
	case int32:
		return result.NewWithSources(strconv.FormatInt(int64(ov), 10), u, v)
	case int64:
		return result.NewWithSources(strconv.FormatInt(ov, 10), u, v)
	case decimal.Decimal:
		return result.NewWithSources(ov.String(), u, v)
	case result.Quantity:
		return result.NewWithSources(ov.Value.String()+" '"+ov.Unit+"'", u, v)
	case result.Date:
		s, err := datehelpers.DateString(ov.Date, ov.Precision)
		if err != nil {
			return result.Value{}, err
		}
		return result.NewWithSources(s, u, v)
	case result.DateTime:
		s, err := datehelpers.DateTimeString(ov.Date, ov.Precision)
		if err != nil {
			return result.Value{}, err
		}
		return result.NewWithSources(s, u, v)
	case result.Time:
		s, err := datehelpers.TimeString(ov.Date, ov.Precision)
		if err != nil {
			return result.Value{}, err
		}
		return result.NewWithSources(s, u, v)
	}
	return result.NewWithSources(nil, u, v)
}

func (i *interpreter) evalToQuantity(u *model.ToQuantity) (result.Value, error) {
	v, err := i.evalExpression(u.Operand)
	if err != nil {
		return result.Value{}, err
	}
	if result.IsNull(v) {
		return result.NewWithSources(nil, u, v)
	}
	switch ov := v.GolangValue().(type) {
	case result.Quantity:
		return result.NewWithSources(ov, u, v)
	case decimal.Decimal:
		return result.NewWithSources(result.Quantity{Value: ov, Unit: "1"}, u, v)
	case int32:
		return result.NewWithSources(result.Quantity{Value: decimal.NewFromInt32(ov), Unit: "1"}, u, v)
	case int64:
		return result.NewWithSources(result.Quantity{Value: decimal.NewFromInt(ov), Unit: "1"}, u, v)
	case string:
		parts := strings.SplitN(strings.TrimSpace(ov), " ", 2)
		d, err := decimal.NewFromString(parts[0])
		if err != nil {
			return result.NewWithSources(nil, u, v)
		}
		unit := "1"
		if len(parts) == 2 {
			unit = strings.Trim(strings.TrimSpace(parts[1]), "'")
		}
		return result.NewWithSources(result.Quantity{Value: d, Unit: unit}, u, v)
	}
	return result.NewWithSources(nil, u, v)
}

func (i *interpreter) evalToConcept(u *model.ToConcept) (result.Value, error) {
	v, err := i.evalExpression(u.Operand)
	if err != nil {
		return result.Value{}, err
	}
	if result.IsNull(v) {
		return result.NewWithSources(nil, u, v)
	}
	switch ov := v.GolangValue().(type) {
	case result.Concept:
		return result.NewWithSources(ov, u, v)
	case result.Code:
		return result.NewWithSources(result.Concept{Codes: []result.Code{ov}}, u, v)
	}
	return result.NewWithSources(nil, u, v)
}

func (i *interpreter) evalToDateTime(u *model.ToDateTime) (result.Value, error) {
	v, err := i.evalExpression(u.Operand)
	if err != nil {
		return result.Value{}, err
	}
	if result.IsNull(v) {
		return result.NewWithSources(nil, u, v)
	}
	if s, ok := v.GolangValue().(string); ok {
		t, p, err := datehelpers.ParseDateTime("@"+s, i.evaluationTimestamp.Location())
		if err != nil {
			return result.NewWithSources(nil, u, v)
		}
		return result.NewWithSources(result.DateTime{Date: t, Precision: p}, u, v)
	}
	dt, err := result.ToDateTime(v)
	if err != nil {
		return result.NewWithSources(nil, u, v)
	}
	return result.NewWithSources(dt, u, v)
}

func (i *interpreter) evalToDate(u *model.ToDate) (result.Value, error) {
	v, err := i.evalExpression(u.Operand)
	if err != nil {
		return result.Value{}, err
	}
	if result.IsNull(v) {
		return result.NewWithSources(nil, u, v)
	}
	switch ov := v.GolangValue().(type) {
	case result.Date:
		return result.NewWithSources(ov, u, v)
	case result.DateTime:
		return result.NewWithSources(result.Date{Date: ov.Date, Precision: minPrecision(ov.Precision, model.Day)}, u, v)
	case string:
		t, p, err := datehelpers.ParseDate("@"+strings.TrimPrefix(ov, "@"), i.evaluationTimestamp.Location())
		if err != nil {
			return result.NewWithSources(nil, u, v)
		}
		return result.NewWithSources(result.Date{Date: t, Precision: p}, u, v)
	}
	return result.NewWithSources(nil, u, v)
}

func (i *interpreter) evalToTime(u *model.ToTime) (result.Value, error) {
	v, err := i.evalExpression(u.Operand)
	if err != nil {
		return result.Value{}, err
	}
	if result.IsNull(v) {
		return result.NewWithSources(nil, u, v)
	}
	switch ov := v.GolangValue().(type) {
	case result.Time:
		return result.NewWithSources(ov, u, v)
	case string:
		t, p, err := datehelpers.ParseTime("@T"+ov, i.evaluationTimestamp.Location())
		if err != nil {
			return result.NewWithSources(nil, u, v)
		}
		return result.NewWithSources(result.Time{Date: t, Precision: p}, u, v)
	}
	return result.NewWithSources(nil, u, v)
}

func minPrecision(p model.DateTimePrecision, cap model.DateTimePrecision) model.DateTimePrecision {
	if p > cap {
		return cap
	}
	return p
}
