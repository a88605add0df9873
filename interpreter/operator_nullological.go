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

func (i *interpreter) evalIsNull(u *model.IsNull) (result.Value, error) {
	v, err := i.evalExpression(u.Operand)
	if err != nil {
		return result.Value{}, err
	}
	return result.NewWithSources(result.IsNull(v), u, v)
}

// evalCoalesce returns the first non-Null operand, or Null if every operand is Null (or there are
// none).
func (i *interpreter) evalCoalesce(n *model.Coalesce) (result.Value, error) {
	var vals []result.Value
	for _, opnd := range n.Operands {
		v, err := i.evalExpression(opnd)
		if err != nil {
			return result.Value{}, err
		}
		vals = append(vals, v)
		if !result.IsNull(v) {
			return v.WithSources(n, vals...), nil
		}
	}
	return result.NewWithSources(nil, n, vals...)
}
