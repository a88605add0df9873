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
	"time"

	"github.com/lattice-health/cqlcore/model"
	"github.com/lattice-health/cqlcore/result"
)

// datePrecisions and timePrecisions name the precision reached after supplying each successive
// operand to the Date/DateTime and Time constructors, respectively. Week is never positional: it
// only appears in literal/timing-phrase contexts, not these constructors.
var datePrecisions = []model.DateTimePrecision{model.Year, model.Month, model.Day, model.Hour, model.Minute, model.Second, model.Millisecond}
var timePrecisions = []model.DateTimePrecision{model.Hour, model.Minute, model.Second, model.Millisecond}

// dateTimeParts evaluates each of a Date/DateTime/Time constructor's operands in order, stopping
// at (and returning) the first Null or missing component. Components after the first Null are
// never evaluated, matching CQL's rule that precision is determined by the last specified part.
func (i *interpreter) dateTimeParts(operands []model.IExpression, precisions []model.DateTimePrecision) ([]int, []result.Value, model.DateTimePrecision, error) {
	n := len(precisions)
	parts := make([]int, n)
	var sources []result.Value
	precision := model.UnsetDateTimePrecision
	for idx := 0; idx < n && idx < len(operands); idx++ {
		if operands[idx] == nil {
			break
		}
		v, err := i.evalExpression(operands[idx])
		if err != nil {
			return nil, nil, precision, err
		}
		sources = append(sources, v)
		if result.IsNull(v) {
			break
		}
		iv, err := result.ToInt32(v)
		if err != nil {
			return nil, nil, precision, err
		}
		parts[idx] = int(iv)
		precision = precisions[idx]
	}
	return parts, sources, precision, nil
}

func (i *interpreter) evalDate(n *model.Date) (result.Value, error) {
	parts, sources, precision, err := i.dateTimeParts(n.Operands, datePrecisions[:3])
	if err != nil {
		return result.Value{}, err
	}
	if precision == model.UnsetDateTimePrecision {
		return result.NewWithSources(nil, n, sources...)
	}
	month, day := parts[1], parts[2]
	if month == 0 {
		month = 1
	}
	if day == 0 {
		day = 1
	}
	t := time.Date(parts[0], time.Month(month), day, 0, 0, 0, 0, i.evaluationTimestamp.Location())
	return result.NewWithSources(result.Date{Date: t, Precision: precision}, n, sources...)
}

func (i *interpreter) evalDateTime(n *model.DateTime) (result.Value, error) {
	parts, sources, precision, err := i.dateTimeParts(n.Operands, datePrecisions)
	if err != nil {
		return result.Value{}, err
	}
	if precision == model.UnsetDateTimePrecision {
		return result.NewWithSources(nil, n, sources...)
	}
	month, day := parts[1], parts[2]
	if month == 0 {
		month = 1
	}
	if day == 0 {
		day = 1
	}
	t := time.Date(parts[0], time.Month(month), day, parts[3], parts[4], parts[5], parts[6]*1_000_000, i.evaluationTimestamp.Location())
	return result.NewWithSources(result.DateTime{Date: t, Precision: precision}, n, sources...)
}

func (i *interpreter) evalTime(n *model.Time) (result.Value, error) {
	parts, sources, precision, err := i.dateTimeParts(n.Operands, timePrecisions)
	if err != nil {
		return result.Value{}, err
	}
	if precision == model.UnsetDateTimePrecision {
		return result.NewWithSources(nil, n, sources...)
	}
	t := time.Date(0, 1, 1, parts[0], parts[1], parts[2], parts[3]*1_000_000, time.UTC)
	return result.NewWithSources(result.Time{Date: t, Precision: precision}, n, sources...)
}

func (i *interpreter) evalNow(n *model.Now) (result.Value, error) {
	return result.NewWithSources(result.DateTime{Date: i.evaluationTimestamp, Precision: model.Millisecond}, n)
}

func (i *interpreter) evalToday(n *model.Today) (result.Value, error) {
	return result.NewWithSources(result.Date{Date: i.evaluationTimestamp, Precision: model.Day}, n)
}

func (i *interpreter) evalTimeOfDay(n *model.TimeOfDay) (result.Value, error) {
	return result.NewWithSources(result.Time{Date: i.evaluationTimestamp, Precision: model.Millisecond}, n)
}

// evalCalculateAge reports the number of whole Precision units elapsed between the operand
// date/time and the engine's evaluation timestamp.
func (i *interpreter) evalCalculateAge(u *model.CalculateAge) (result.Value, error) {
	v, err := i.evalExpression(u.Operand)
	if err != nil {
		return result.Value{}, err
	}
	if result.IsNull(v) {
		return result.NewWithSources(nil, u, v)
	}
	from, err := result.ToDateTime(v)
	if err != nil {
		return result.Value{}, err
	}
	age := ageBetween(from.Date, i.evaluationTimestamp, u.Precision)
	return result.NewWithSources(age, u, v)
}

func ageBetween(from, to time.Time, precision model.DateTimePrecision) int32 {
	switch precision {
	case model.Year:
		years := to.Year() - from.Year()
		if to.Month() < from.Month() || (to.Month() == from.Month() && to.Day() < from.Day()) {
			years--
		}
		return int32(years)
	case model.Month:
		months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
		if to.Day() < from.Day() {
			months--
		}
		return int32(months)
	case model.Week:
		return int32(to.Sub(from) / (7 * 24 * time.Hour))
	case model.Day:
		return int32(to.Sub(from) / (24 * time.Hour))
	case model.Hour:
		return int32(to.Sub(from) / time.Hour)
	case model.Minute:
		return int32(to.Sub(from) / time.Minute)
	case model.Second:
		return int32(to.Sub(from) / time.Second)
	default:
		return int32(to.Sub(from) / time.Millisecond)
	}
}
