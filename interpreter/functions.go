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

// evalFunctionRef calls a user-defined function. Built-in calls never reach here: the parser
// converts every built-in call into its own dedicated model.go node (tryBuiltinCall), so a
// FunctionRef always names a genuinely user-defined function. calledFluently is always passed as
// false when resolving: fluency only gates which functions are resolvable at a fluent call site
// during parsing, and by the time a FunctionRef node exists its operand list already has any
// receiver prepended, so fluency carries no further meaning at evaluation time.
func (i *interpreter) evalFunctionRef(ref *model.FunctionRef) (result.Value, error) {
	args := make([]result.Value, 0, len(ref.Operands))
	for idx, opnd := range ref.Operands {
		v, err := i.evalExpression(opnd)
		if err != nil {
			return result.Value{}, fmt.Errorf("evaluating argument %d to %s: %w", idx, ref.Name, err)
		}
		args = append(args, v)
	}

	var fn *model.FunctionDef
	var err error
	if ref.LibraryName != "" {
		fn, err = i.refs.ResolveGlobalFunc(ref.LibraryName, ref.Name, len(args), false)
	} else {
		fn, err = i.refs.ResolveLocalFunc(ref.Name, len(args), false)
	}
	if err != nil {
		return result.Value{}, result.NewEngineError(ref.Name, result.KindNotFound, err)
	}
	return i.callFunction(fn, args)
}

// callFunction invokes fn with args already evaluated. The resolver's current-library context is
// switched to the library that declared fn for the duration of the call, and each operand is bound
// as a local alias under its declared name, so that references inside fn's body resolve correctly
// regardless of which library (or function) is calling it.
func (i *interpreter) callFunction(fn *model.FunctionDef, args []result.Value) (result.Value, error) {
	if fn.External || fn.Expression == nil {
		return result.Value{}, result.NewEngineError(fn.Name, result.KindNotFound, fmt.Errorf("external function %s has no implementation", fn.Name))
	}

	caller := i.refs.CurrentLibrary()
	i.refs.EnterLibrary(i.funcLibs[fn])
	i.refs.EnterScope()
	for idx, operand := range fn.Operands {
		if err := i.refs.Alias(operand.Name, resolvedThunk(args[idx])); err != nil {
			i.refs.ExitScope()
			i.refs.EnterLibrary(caller)
			return result.Value{}, result.NewEngineError(fn.Name, result.KindCompile, err)
		}
	}

	v, err := i.evalExpression(fn.Expression)
	i.refs.ExitScope()
	i.refs.EnterLibrary(caller)
	return v, err
}
