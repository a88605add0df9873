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
	"github.com/lattice-health/cqlcore/model"
	"github.com/lattice-health/cqlcore/result"
)

// evalIfThenElse takes the Then branch only when Condition evaluates to exactly true; Null and
// false both take Else.
func (i *interpreter) evalIfThenElse(e *model.IfThenElse) (result.Value, error) {
	cond, condVal, err := i.tristate(e.Condition)
	if err != nil {
		return result.Value{}, err
	}
	if cond != nil && *cond {
		v, err := i.evalExpression(e.Then)
		if err != nil {
			return result.Value{}, err
		}
		return v.WithSources(e, condVal, v), nil
	}
	v, err := i.evalExpression(e.Else)
	if err != nil {
		return result.Value{}, err
	}
	return v.WithSources(e, condVal, v), nil
}

// evalCase evaluates a `case` expression. With a Comparand, each CaseItem.When is compared to it
// for equality; without one, each When is evaluated directly as a boolean guard. The first
// matching item's Then is returned; if none match, Else is returned.
func (i *interpreter) evalCase(c *model.Case) (result.Value, error) {
	var comparand result.Value
	hasComparand := c.Comparand != nil
	if hasComparand {
		v, err := i.evalExpression(c.Comparand)
		if err != nil {
			return result.Value{}, err
		}
		comparand = v
	}
	for _, item := range c.CaseItem {
		matched, err := i.caseItemMatches(item, hasComparand, comparand)
		if err != nil {
			return result.Value{}, err
		}
		if matched {
			return i.evalExpression(item.Then)
		}
	}
	return i.evalExpression(c.Else)
}

func (i *interpreter) caseItemMatches(item *model.CaseItem, hasComparand bool, comparand result.Value) (bool, error) {
	if !hasComparand {
		b, _, err := i.tristate(item.When)
		if err != nil {
			return false, err
		}
		return b != nil && *b, nil
	}
	whenVal, err := i.evalExpression(item.When)
	if err != nil {
		return false, err
	}
	if result.IsNull(comparand) || result.IsNull(whenVal) {
		return false, nil
	}
	return comparand.Equal(whenVal), nil
}

// evalBetween evaluates `low <= operand and operand <= high`, but yields Null whenever any of the
// three operands is Null.
func (i *interpreter) evalBetween(b *model.Between) (result.Value, error) {
	v, err := i.evalExpression(b.Operand)
	if err != nil {
		return result.Value{}, err
	}
	low, err := i.evalExpression(b.Low)
	if err != nil {
		return result.Value{}, err
	}
	high, err := i.evalExpression(b.High)
	if err != nil {
		return result.Value{}, err
	}
	if result.IsNull(v) || result.IsNull(low) || result.IsNull(high) {
		return result.NewWithSources(nil, b, v, low, high)
	}
	lc, err := compare(low, v)
	if err != nil {
		return result.Value{}, result.NewEngineError("", result.KindType, err)
	}
	hc, err := compare(v, high)
	if err != nil {
		return result.Value{}, result.NewEngineError("", result.KindType, err)
	}
	return result.NewWithSources(lc <= 0 && hc <= 0, b, v, low, high)
}
