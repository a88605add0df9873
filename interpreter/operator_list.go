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

	"github.com/lattice-health/cqlcore/model"
	"github.com/lattice-health/cqlcore/result"
)

// evalUnion/evalIntersect/evalExcept implement CQL's list set operators. Each treats its operand
// lists as sets compared by structural equality; a Null operand propagates to a Null result.
func (i *interpreter) evalUnion(e *model.Union) (result.Value, error) {
	l, r, err := i.evalPair(e.Operands)
	if err != nil {
		return result.Value{}, err
	}
	if result.IsNull(l) || result.IsNull(r) {
		return result.NewWithSources(nil, e, l, r)
	}
	ll, rl, err := i.bothLists(l, r)
	if err != nil {
		return result.Value{}, err
	}
	out := append([]result.Value{}, ll...)
	for _, rv := range rl {
		if !containsEqual(out, rv) {
			out = append(out, rv)
		}
	}
	return result.NewWithSources(result.List{Value: out}, e, l, r)
}

func (i *interpreter) evalIntersect(e *model.Intersect) (result.Value, error) {
	l, r, err := i.evalPair(e.Operands)
	if err != nil {
		return result.Value{}, err
	}
	if result.IsNull(l) || result.IsNull(r) {
		return result.NewWithSources(nil, e, l, r)
	}
	ll, rl, err := i.bothLists(l, r)
	if err != nil {
		return result.Value{}, err
	}
	var out []result.Value
	for _, lv := range ll {
		if containsEqual(rl, lv) && !containsEqual(out, lv) {
			out = append(out, lv)
		}
	}
	return result.NewWithSources(result.List{Value: out}, e, l, r)
}

func (i *interpreter) evalExcept(e *model.Except) (result.Value, error) {
	l, r, err := i.evalPair(e.Operands)
	if err != nil {
		return result.Value{}, err
	}
	if result.IsNull(l) || result.IsNull(r) {
		return result.NewWithSources(nil, e, l, r)
	}
	ll, rl, err := i.bothLists(l, r)
	if err != nil {
		return result.Value{}, err
	}
	var out []result.Value
	for _, lv := range ll {
		if !containsEqual(rl, lv) {
			out = append(out, lv)
		}
	}
	return result.NewWithSources(result.List{Value: out}, e, l, r)
}

func (i *interpreter) bothLists(l, r result.Value) ([]result.Value, []result.Value, error) {
	ll, err := result.ToSlice(l)
	if err != nil {
		return nil, nil, err
	}
	rl, err := result.ToSlice(r)
	if err != nil {
		return nil, nil, err
	}
	return ll, rl, nil
}

func containsEqual(list []result.Value, v result.Value) bool {
	for _, e := range list {
		if e.Equal(v) {
			return true
		}
	}
	return false
}

// membershipContains reports whether elem is a member of container, which may be a List (set
// membership) or an Interval (point containment).
func membershipContains(container, elem result.Value) (bool, error) {
	switch ov := container.GolangValue().(type) {
	case result.List:
		return containsEqual(ov.Value, elem), nil
	case result.Interval:
		lowOK := true
		if !result.IsNull(ov.Low) {
			c, err := compare(elem, ov.Low)
			if err != nil {
				return false, err
			}
			lowOK = c > 0 || (c == 0 && ov.LowInclusive)
		}
		highOK := true
		if !result.IsNull(ov.High) {
			c, err := compare(elem, ov.High)
			if err != nil {
				return false, err
			}
			highOK = c < 0 || (c == 0 && ov.HighInclusive)
		}
		return lowOK && highOK, nil
	}
	return false, fmt.Errorf("membership is not defined for a container of type %v", container.RuntimeType())
}

func (i *interpreter) evalIn(e *model.In) (result.Value, error) {
	elem, container, err := i.evalPair(e.Operands)
	if err != nil {
		return result.Value{}, err
	}
	if result.IsNull(elem) || result.IsNull(container) {
		return result.NewWithSources(nil, e, elem, container)
	}
	ok, err := membershipContains(container, elem)
	if err != nil {
		return result.Value{}, result.NewEngineError("", result.KindType, err)
	}
	return result.NewWithSources(ok, e, elem, container)
}

func (i *interpreter) evalContains(e *model.Contains) (result.Value, error) {
	container, elem, err := i.evalPair(e.Operands)
	if err != nil {
		return result.Value{}, err
	}
	if result.IsNull(elem) || result.IsNull(container) {
		return result.NewWithSources(nil, e, container, elem)
	}
	ok, err := membershipContains(container, elem)
	if err != nil {
		return result.Value{}, result.NewEngineError("", result.KindType, err)
	}
	return result.NewWithSources(ok, e, container, elem)
}

// setSubset reports whether sub is wholly contained within super, for either two Lists or two
// Intervals. proper additionally requires sub != super.
func setSubset(sub, super result.Value, proper bool) (bool, error) {
	switch sv := sub.GolangValue().(type) {
	case result.List:
		superList, ok := super.GolangValue().(result.List)
		if !ok {
			return false, fmt.Errorf("cannot compare a list to %v", super.RuntimeType())
		}
		for _, e := range sv.Value {
			if !containsEqual(superList.Value, e) {
				return false, nil
			}
		}
		if proper && len(sv.Value) >= len(superList.Value) {
			return false, nil
		}
		return true, nil
	case result.Interval:
		if !result.IsNull(sv.Low) {
			ok, err := membershipContains(super, sv.Low)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		if !result.IsNull(sv.High) {
			ok, err := membershipContains(super, sv.High)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		if proper && sub.Equal(super) {
			return false, nil
		}
		return true, nil
	}
	return false, fmt.Errorf("subset is not defined for %v", sub.RuntimeType())
}

func (i *interpreter) evalIncludedIn(e *model.IncludedIn) (result.Value, error) {
	l, r, err := i.evalPair(e.Operands)
	if err != nil {
		return result.Value{}, err
	}
	if result.IsNull(l) || result.IsNull(r) {
		return result.NewWithSources(nil, e, l, r)
	}
	ok, err := setSubset(l, r, false)
	if err != nil {
		return result.Value{}, result.NewEngineError("", result.KindType, err)
	}
	return result.NewWithSources(ok, e, l, r)
}

func (i *interpreter) evalIncludes(e *model.Includes) (result.Value, error) {
	l, r, err := i.evalPair(e.Operands)
	if err != nil {
		return result.Value{}, err
	}
	if result.IsNull(l) || result.IsNull(r) {
		return result.NewWithSources(nil, e, l, r)
	}
	ok, err := setSubset(r, l, false)
	if err != nil {
		return result.Value{}, result.NewEngineError("", result.KindType, err)
	}
	return result.NewWithSources(ok, e, l, r)
}

func (i *interpreter) evalProperIncludedIn(e *model.ProperIncludedIn) (result.Value, error) {
	l, r, err := i.evalPair(e.Operands)
	if err != nil {
		return result.Value{}, err
	}
	if result.IsNull(l) || result.IsNull(r) {
		return result.NewWithSources(nil, e, l, r)
	}
	ok, err := setSubset(l, r, true)
	if err != nil {
		return result.Value{}, result.NewEngineError("", result.KindType, err)
	}
	return result.NewWithSources(ok, e, l, r)
}

func (i *interpreter) evalProperIncludes(e *model.ProperIncludes) (result.Value, error) {
	l, r, err := i.evalPair(e.Operands)
	if err != nil {
		return result.Value{}, err
	}
	if result.IsNull(l) || result.IsNull(r) {
		return result.NewWithSources(nil, e, l, r)
	}
	ok, err := setSubset(r, l, true)
	if err != nil {
		return result.Value{}, result.NewEngineError("", result.KindType, err)
	}
	return result.NewWithSources(ok, e, l, r)
}

func (i *interpreter) evalProperIn(e *model.ProperIn) (result.Value, error) {
	elem, container, err := i.evalPair(e.Operands)
	if err != nil {
		return result.Value{}, err
	}
	if result.IsNull(elem) || result.IsNull(container) {
		return result.NewWithSources(nil, e, elem, container)
	}
	l, ok := container.GolangValue().(result.List)
	if !ok {
		return result.Value{}, fmt.Errorf("proper in expects a list container, got %v", container.RuntimeType())
	}
	ok2, err := membershipContains(container, elem)
	if err != nil {
		return result.Value{}, result.NewEngineError("", result.KindType, err)
	}
	return result.NewWithSources(ok2 && len(l.Value) > 1, e, elem, container)
}

func (i *interpreter) evalProperContains(e *model.ProperContains) (result.Value, error) {
	container, elem, err := i.evalPair(e.Operands)
	if err != nil {
		return result.Value{}, err
	}
	if result.IsNull(elem) || result.IsNull(container) {
		return result.NewWithSources(nil, e, container, elem)
	}
	l, ok := container.GolangValue().(result.List)
	if !ok {
		return result.Value{}, fmt.Errorf("proper contains expects a list container, got %v", container.RuntimeType())
	}
	ok2, err := membershipContains(container, elem)
	if err != nil {
		return result.Value{}, result.NewEngineError("", result.KindType, err)
	}
	return result.NewWithSources(ok2 && len(l.Value) > 1, e, container, elem)
}

func (i *interpreter) evalFirst(u *model.First) (result.Value, error) {
	v, err := i.evalExpression(u.Operand)
	if err != nil {
		return result.Value{}, err
	}
	if result.IsNull(v) {
		return result.NewWithSources(nil, u, v)
	}
	l, err := result.ToSlice(v)
	if err != nil {
		return result.Value{}, err
	}
	if len(l) == 0 {
		return result.NewWithSources(nil, u, v)
	}
	return l[0].WithSources(u, v), nil
}

func (i *interpreter) evalLast(u *model.Last) (result.Value, error) {
	v, err := i.evalExpression(u.Operand)
	if err != nil {
		return result.Value{}, err
	}
	if result.IsNull(v) {
		return result.NewWithSources(nil, u, v)
	}
	l, err := result.ToSlice(v)
	if err != nil {
		return result.Value{}, err
	}
	if len(l) == 0 {
		return result.NewWithSources(nil, u, v)
	}
	return l[len(l)-1].WithSources(u, v), nil
}

// evalSingletonFrom unwraps a one-element list; zero elements yields Null, more than one is a
// runtime error since there is no way to pick a single value.
func (i *interpreter) evalSingletonFrom(u *model.SingletonFrom) (result.Value, error) {
	v, err := i.evalExpression(u.Operand)
	if err != nil {
		return result.Value{}, err
	}
	if result.IsNull(v) {
		return result.NewWithSources(nil, u, v)
	}
	l, err := result.ToSlice(v)
	if err != nil {
		return result.Value{}, err
	}
	switch len(l) {
	case 0:
		return result.NewWithSources(nil, u, v)
	case 1:
		return l[0].WithSources(u, v), nil
	default:
		return result.Value{}, result.NewEngineError("", result.KindDomain, fmt.Errorf("SingletonFrom expects 0 or 1 elements, got %d", len(l)))
	}
}

// evalCount counts the non-Null elements of a list and treats a Null list as empty, per CQL's list
// aggregate convention.
func (i *interpreter) evalCount(u *model.Count) (result.Value, error) {
	src, elems, isNull, err := i.aggregateElements(u)
	if err != nil {
		return result.Value{}, err
	}
	if isNull {
		return result.NewWithSources(int32(0), u, src)
	}
	return result.NewWithSources(int32(len(elems)), u, src)
}

func (i *interpreter) evalDistinct(u *model.Distinct) (result.Value, error) {
	v, err := i.evalExpression(u.Operand)
	if err != nil {
		return result.Value{}, err
	}
	if result.IsNull(v) {
		return result.NewWithSources(nil, u, v)
	}
	l, err := result.ToSlice(v)
	if err != nil {
		return result.Value{}, err
	}
	var out []result.Value
	for _, e := range l {
		if !containsEqual(out, e) {
			out = append(out, e)
		}
	}
	return result.NewWithSources(result.List{Value: out}, u, v)
}

// evalFlatten flattens one level of list nesting; non-list elements pass through unchanged.
func (i *interpreter) evalFlatten(u *model.Flatten) (result.Value, error) {
	v, err := i.evalExpression(u.Operand)
	if err != nil {
		return result.Value{}, err
	}
	if result.IsNull(v) {
		return result.NewWithSources(nil, u, v)
	}
	l, err := result.ToSlice(v)
	if err != nil {
		return result.Value{}, err
	}
	var out []result.Value
	for _, e := range l {
		if sub, ok := e.GolangValue().(result.List); ok {
			out = append(out, sub.Value...)
		} else {
			out = append(out, e)
		}
	}
	return result.NewWithSources(result.List{Value: out}, u, v)
}

// evalAllTrue/evalAnyTrue ignore Null elements, consistent with CQL's list Boolean aggregates.
func (i *interpreter) evalAllTrue(u *model.AllTrue) (result.Value, error) {
	v, err := i.evalExpression(u.Operand)
	if err != nil {
		return result.Value{}, err
	}
	if result.IsNull(v) {
		return result.NewWithSources(true, u, v)
	}
	l, err := result.ToSlice(v)
	if err != nil {
		return result.Value{}, err
	}
	for _, e := range l {
		if result.IsNull(e) {
			continue
		}
		b, err := result.ToBool(e)
		if err != nil {
			return result.Value{}, err
		}
		if !b {
			return result.NewWithSources(false, u, v)
		}
	}
	return result.NewWithSources(true, u, v)
}

func (i *interpreter) evalAnyTrue(u *model.AnyTrue) (result.Value, error) {
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
	for _, e := range l {
		if result.IsNull(e) {
			continue
		}
		b, err := result.ToBool(e)
		if err != nil {
			return result.Value{}, err
		}
		if b {
			return result.NewWithSources(true, u, v)
		}
	}
	return result.NewWithSources(false, u, v)
}
