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

// tristate evaluates e and converts it to a three-valued boolean: nil means Null.
func (i *interpreter) tristate(e model.IExpression) (*bool, result.Value, error) {
	v, err := i.evalExpression(e)
	if err != nil {
		return nil, result.Value{}, err
	}
	if result.IsNull(v) {
		return nil, v, nil
	}
	b, err := result.ToBool(v)
	if err != nil {
		return nil, result.Value{}, err
	}
	return &b, v, nil
}

// evalAnd implements CQL's Kleene conjunction: false dominates Null.
func (i *interpreter) evalAnd(e *model.And) (result.Value, error) {
	l, lv, err := i.tristate(e.Operands[0])
	if err != nil {
		return result.Value{}, err
	}
	if l != nil && !*l {
		return result.NewWithSources(false, e, lv)
	}
	r, rv, err := i.tristate(e.Operands[1])
	if err != nil {
		return result.Value{}, err
	}
	if r != nil && !*r {
		return result.NewWithSources(false, e, lv, rv)
	}
	if l == nil || r == nil {
		return result.NewWithSources(nil, e, lv, rv)
	}
	return result.NewWithSources(true, e, lv, rv)
}

// evalOr implements CQL's Kleene disjunction: true dominates Null.
func (i *interpreter) evalOr(e *model.Or) (result.Value, error) {
	l, lv, err := i.tristate(e.Operands[0])
	if err != nil {
		return result.Value{}, err
	}
	if l != nil && *l {
		return result.NewWithSources(true, e, lv)
	}
	r, rv, err := i.tristate(e.Operands[1])
	if err != nil {
		return result.Value{}, err
	}
	if r != nil && *r {
		return result.NewWithSources(true, e, lv, rv)
	}
	if l == nil || r == nil {
		return result.NewWithSources(nil, e, lv, rv)
	}
	return result.NewWithSources(false, e, lv, rv)
}

// evalXOr has no short-circuit: both operands must be non-Null to produce a result.
func (i *interpreter) evalXOr(e *model.XOr) (result.Value, error) {
	l, lv, err := i.tristate(e.Operands[0])
	if err != nil {
		return result.Value{}, err
	}
	r, rv, err := i.tristate(e.Operands[1])
	if err != nil {
		return result.Value{}, err
	}
	if l == nil || r == nil {
		return result.NewWithSources(nil, e, lv, rv)
	}
	return result.NewWithSources(*l != *r, e, lv, rv)
}

// evalImplies is sugar for (not A) or B, so it inherits Or's Null dominance by true.
func (i *interpreter) evalImplies(e *model.Implies) (result.Value, error) {
	l, lv, err := i.tristate(e.Operands[0])
	if err != nil {
		return result.Value{}, err
	}
	if l != nil && !*l {
		return result.NewWithSources(true, e, lv)
	}
	r, rv, err := i.tristate(e.Operands[1])
	if err != nil {
		return result.Value{}, err
	}
	if r != nil && *r {
		return result.NewWithSources(true, e, lv, rv)
	}
	if l == nil || r == nil {
		return result.NewWithSources(nil, e, lv, rv)
	}
	return result.NewWithSources(false, e, lv, rv)
}

func (i *interpreter) evalNot(u *model.Not) (result.Value, error) {
	b, v, err := i.tristate(u.Operand)
	if err != nil {
		return result.Value{}, err
	}
	if b == nil {
		return result.NewWithSources(nil, u, v)
	}
	return result.NewWithSources(!*b, u, v)
}

func (i *interpreter) evalIsTrue(u *model.IsTrue) (result.Value, error) {
	b, v, err := i.tristate(u.Operand)
	if err != nil {
		return result.Value{}, err
	}
	return result.NewWithSources(b != nil && *b, u, v)
}

func (i *interpreter) evalIsFalse(u *model.IsFalse) (result.Value, error) {
	b, v, err := i.tristate(u.Operand)
	if err != nil {
		return result.Value{}, err
	}
	return result.NewWithSources(b != nil && !*b, u, v)
}

// evalExists is true if the operand list is non-Null and has at least one element. An empty or
// Null list both yield false.
func (i *interpreter) evalExists(u *model.Exists) (result.Value, error) {
	v, err := i.evalExpression(u.Operand)
	if err != nil {
		return result.Value{}, err
	}
	if result.IsNull(v) {
		return result.NewWithSources(false, u, v)
	}
	l, err := result.ToSlice(v)
	if err != nil {
		return result.Value{}, err
	}
	return result.NewWithSources(len(l) > 0, u, v)
}
