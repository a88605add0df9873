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
	"strings"

	"github.com/lattice-health/cqlcore/model"
	"github.com/lattice-health/cqlcore/result"
)

// evalConcatenate implements the `&` string operator: a Null operand contributes an empty string,
// so the result is never Null.
func (i *interpreter) evalConcatenate(e *model.Concatenate) (result.Value, error) {
	l, r, err := i.evalPair(e.Operands)
	if err != nil {
		return result.Value{}, err
	}
	var sb strings.Builder
	for _, v := range []result.Value{l, r} {
		if result.IsNull(v) {
			continue
		}
		s, err := result.ToString(v)
		if err != nil {
			return result.Value{}, err
		}
		sb.WriteString(s)
	}
	return result.NewWithSources(sb.String(), e, l, r)
}

// evalConcat implements the variadic Concat built-in: Null operands contribute an empty string.
func (i *interpreter) evalConcat(n *model.Concat) (result.Value, error) {
	var sb strings.Builder
	vals := make([]result.Value, 0, len(n.Operands))
	for _, opnd := range n.Operands {
		v, err := i.evalExpression(opnd)
		if err != nil {
			return result.Value{}, err
		}
		vals = append(vals, v)
		if result.IsNull(v) {
			continue
		}
		s, err := result.ToString(v)
		if err != nil {
			return result.Value{}, err
		}
		sb.WriteString(s)
	}
	return result.NewWithSources(sb.String(), n, vals...)
}

func (i *interpreter) evalUpper(u *model.Upper) (result.Value, error) {
	v, err := i.evalExpression(u.Operand)
	if err != nil {
		return result.Value{}, err
	}
	if result.IsNull(v) {
		return result.NewWithSources(nil, u, v)
	}
	s, err := result.ToString(v)
	if err != nil {
		return result.Value{}, err
	}
	return result.NewWithSources(strings.ToUpper(s), u, v)
}

func (i *interpreter) evalLower(u *model.Lower) (result.Value, error) {
	v, err := i.evalExpression(u.Operand)
	if err != nil {
		return result.Value{}, err
	}
	if result.IsNull(v) {
		return result.NewWithSources(nil, u, v)
	}
	s, err := result.ToString(v)
	if err != nil {
		return result.Value{}, err
	}
	return result.NewWithSources(strings.ToLower(s), u, v)
}

// evalLength is overloaded over String and List: a Null operand of either kind yields Null.
func (i *interpreter) evalLength(u *model.Length) (result.Value, error) {
	v, err := i.evalExpression(u.Operand)
	if err != nil {
		return result.Value{}, err
	}
	if result.IsNull(v) {
		return result.NewWithSources(nil, u, v)
	}
	switch ov := v.GolangValue().(type) {
	case string:
		return result.NewWithSources(int32(len([]rune(ov))), u, v)
	case result.List:
		return result.NewWithSources(int32(len(ov.Value)), u, v)
	}
	return result.Value{}, fmt.Errorf("length is not defined for %v", v.RuntimeType())
}
