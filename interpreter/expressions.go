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

	"github.com/shopspring/decimal"

	"github.com/lattice-health/cqlcore/model"
	"github.com/lattice-health/cqlcore/result"
	"github.com/lattice-health/cqlcore/retriever"
	"github.com/lattice-health/cqlcore/terminology"
	"github.com/lattice-health/cqlcore/types"
)

// The date/time bounds used by MaxValue/MinValue type-extent expressions.
var (
	maxDate = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
	minDate = time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC)
	maxTime = time.Date(0, 1, 1, 23, 59, 59, 999000000, time.UTC)
	minTime = time.Date(0, 1, 1, 0, 0, 0, 0, time.UTC)
)

// evalExpression dispatches on e's concrete Go type, mirroring how the parser builds the tree and
// the elm serializer walks it.
func (i *interpreter) evalExpression(e model.IExpression) (result.Value, error) {
	if e == nil {
		return result.New(nil)
	}
	switch t := e.(type) {
	case *model.Literal:
		return i.evalLiteral(t)
	case *model.Quantity:
		return i.evalQuantity(t)
	case *model.Ratio:
		return i.evalRatio(t)
	case *model.Interval:
		return i.evalInterval(t)
	case *model.List:
		return i.evalList(t)
	case *model.Tuple:
		return i.evalTuple(t)
	case *model.Instance:
		return i.evalInstance(t)
	case *model.Code:
		return i.evalCode(t)
	case *model.Property:
		return i.evalProperty(t)
	case *model.Retrieve:
		return i.evalRetrieve(t)
	case *model.MaxValue:
		return i.evalMaxValue(t)
	case *model.MinValue:
		return i.evalMinValue(t)
	case *model.IfThenElse:
		return i.evalIfThenElse(t)
	case *model.Case:
		return i.evalCase(t)
	case *model.Between:
		return i.evalBetween(t)
	case *model.Query:
		return i.evalQuery(t)
	case *model.FunctionRef:
		return i.evalFunctionRef(t)
	case *model.ParameterRef:
		return i.evalParameterRef(t)
	case *model.ValuesetRef:
		return i.evalValuesetRef(t)
	case *model.CodeSystemRef:
		return i.evalCodeSystemRef(t)
	case *model.ConceptRef:
		return i.evalConceptRef(t)
	case *model.CodeRef:
		return i.evalCodeRef(t)
	case *model.ExpressionRef:
		return i.evalExpressionRef(t)
	case *model.AliasRef:
		return i.evalAliasRef(t)
	case *model.QueryLetRef:
		return i.evalQueryLetRef(t)
	case *model.OperandRef:
		return i.evalOperandRef(t)
	case *model.InValueSet:
		return i.evalInValueSet(t)
	case *model.InCodeSystem:
		return i.evalInCodeSystem(t)
	}

	if u, ok := e.(model.IUnaryExpression); ok {
		return i.evalUnaryExpression(u)
	}
	if b, ok := e.(model.IBinaryExpression); ok {
		return i.evalBinaryExpression(b)
	}
	if n, ok := e.(model.INaryExpression); ok {
		return i.evalNaryExpression(n)
	}

	return result.Value{}, fmt.Errorf("internal error: unsupported expression node %T", e)
}

// evalRef resolves name (optionally qualified by libraryName) against the current library's
// resolver context, then forces the resulting thunk.
func (i *interpreter) evalRef(libraryName, name string) (result.Value, error) {
	var t *defThunk
	var err error
	if libraryName != "" {
		t, err = i.refs.ResolveGlobal(libraryName, name)
	} else {
		t, err = i.refs.ResolveLocal(name)
	}
	if err != nil {
		return result.Value{}, result.NewEngineError(name, result.KindNotFound, err)
	}
	return i.force(t)
}

func (i *interpreter) evalParameterRef(r *model.ParameterRef) (result.Value, error) {
	return i.evalRef(r.LibraryName, r.Name)
}

func (i *interpreter) evalValuesetRef(r *model.ValuesetRef) (result.Value, error) {
	return i.evalRef(r.LibraryName, r.Name)
}

func (i *interpreter) evalCodeSystemRef(r *model.CodeSystemRef) (result.Value, error) {
	return i.evalRef(r.LibraryName, r.Name)
}

func (i *interpreter) evalConceptRef(r *model.ConceptRef) (result.Value, error) {
	return i.evalRef(r.LibraryName, r.Name)
}

func (i *interpreter) evalCodeRef(r *model.CodeRef) (result.Value, error) {
	return i.evalRef(r.LibraryName, r.Name)
}

func (i *interpreter) evalExpressionRef(r *model.ExpressionRef) (result.Value, error) {
	return i.evalRef(r.LibraryName, r.Name)
}

// evalAliasRef and evalQueryLetRef resolve query-scoped bindings, which are always registered as
// already-resolved thunks (see (*interpreter).bindAlias), so force never evaluates anything here.
func (i *interpreter) evalAliasRef(r *model.AliasRef) (result.Value, error) {
	return i.evalRef("", r.Name)
}

func (i *interpreter) evalQueryLetRef(r *model.QueryLetRef) (result.Value, error) {
	return i.evalRef("", r.Name)
}

func (i *interpreter) evalOperandRef(r *model.OperandRef) (result.Value, error) {
	return i.evalRef("", r.Name)
}

// evalRetrieve builds a retriever.Filter from r's terminology narrowing, if any, and delegates to
// the configured DataSource. With no DataSource configured, Retrieve always yields an empty list.
func (i *interpreter) evalRetrieve(r *model.Retrieve) (result.Value, error) {
	if i.retriever == nil {
		return result.New(result.List{})
	}

	var filter *retriever.Filter
	if r.Codes != nil {
		codesVal, err := i.evalExpression(r.Codes)
		if err != nil {
			return result.Value{}, err
		}
		filter = &retriever.Filter{CodePath: r.CodeProperty}
		switch cv := codesVal.GolangValue().(type) {
		case result.ValueSet:
			filter.ValueSet = cv.ID
		case result.List:
			codes, err := toTerminologyCodes(cv)
			if err != nil {
				return result.Value{}, err
			}
			filter.Codes = codes
		case result.Code:
			filter.Codes = []terminology.Code{{Code: cv.Code, System: cv.System, Display: cv.Display}}
		default:
			return result.Value{}, fmt.Errorf("retrieve terminology filter must be a ValueSet, Code, or list of Codes, got %v", codesVal.RuntimeType())
		}
	}

	resources, err := i.retriever.Retrieve(i.ctx, r.DataType, filter)
	if err != nil {
		return result.Value{}, result.NewEngineError(r.DataType, result.KindDomain, err)
	}
	elems := make([]result.Value, 0, len(resources))
	for _, res := range resources {
		v, err := result.New(res)
		if err != nil {
			return result.Value{}, err
		}
		elems = append(elems, v)
	}
	return result.New(result.List{Value: elems, StaticType: &types.List{ElementType: &types.Named{TypeName: r.DataType}}})
}

func toTerminologyCodes(l result.List) ([]terminology.Code, error) {
	codes := make([]terminology.Code, 0, len(l.Value))
	for _, v := range l.Value {
		c, err := result.ToCode(v)
		if err != nil {
			return nil, err
		}
		codes = append(codes, terminology.Code{Code: c.Code, System: c.System, Display: c.Display})
	}
	return codes, nil
}

func (i *interpreter) evalInValueSet(e *model.InValueSet) (result.Value, error) {
	return i.evalMembership(e.Operands[0], func(codes []terminology.Code) (bool, error) {
		vsVal, err := i.evalValuesetRef(e.Valueset)
		if err != nil {
			return false, err
		}
		vs, err := result.ToValueSet(vsVal)
		if err != nil {
			return false, err
		}
		if i.terminologyProvider == nil {
			return false, fmt.Errorf("no terminology provider configured")
		}
		return i.terminologyProvider.AnyInValueSet(codes, vs.ID, vs.Version)
	})
}

func (i *interpreter) evalInCodeSystem(e *model.InCodeSystem) (result.Value, error) {
	return i.evalMembership(e.Operands[0], func(codes []terminology.Code) (bool, error) {
		csVal, err := i.evalCodeSystemRef(e.CodeSystem)
		if err != nil {
			return false, err
		}
		cs, err := result.ToCodeSystem(csVal)
		if err != nil {
			return false, err
		}
		if i.terminologyProvider == nil {
			return false, fmt.Errorf("no terminology provider configured")
		}
		return i.terminologyProvider.AnyInCodeSystem(codes, cs.ID, cs.Version)
	})
}

// evalMembership evaluates operand, which must be a Code, a Concept, a list of either, or Null, and calls check
// with the codes it carries.
func (i *interpreter) evalMembership(operand model.IExpression, check func([]terminology.Code) (bool, error)) (result.Value, error) {
	v, err := i.evalExpression(operand)
	if err != nil {
		return result.Value{}, err
	}
	if result.IsNull(v) {
		return result.NewWithSources(nil, operand, v)
	}
	codes, err := membershipCodes(v)
	if err != nil {
		return result.Value{}, err
	}
	ok, err := check(codes)
	if err != nil {
		return result.Value{}, result.NewEngineError("", result.KindDomain, err)
	}
	return result.NewWithSources(ok, operand, v)
}

// membershipCodes flattens v's terminology codes: a Code contributes one, a Concept contributes
// every code it carries, and a List<Code>/List<Concept> contributes the union of its elements',
// skipping any Null ones.
func membershipCodes(v result.Value) ([]terminology.Code, error) {
	switch ov := v.GolangValue().(type) {
	case result.Code:
		return []terminology.Code{{Code: ov.Code, System: ov.System, Display: ov.Display}}, nil
	case result.Concept:
		codes := make([]terminology.Code, 0, len(ov.Codes))
		for _, c := range ov.Codes {
			codes = append(codes, terminology.Code{Code: c.Code, System: c.System, Display: c.Display})
		}
		return codes, nil
	case result.List:
		var codes []terminology.Code
		for _, e := range ov.Value {
			if result.IsNull(e) {
				continue
			}
			ec, err := membershipCodes(e)
			if err != nil {
				return nil, err
			}
			codes = append(codes, ec...)
		}
		return codes, nil
	}
	return nil, fmt.Errorf("membership test expects a Code, Concept, or list of either, got %v", v.RuntimeType())
}

// evalMaxValue/evalMinValue return the bound of the System type extent named by ValueType.
func (i *interpreter) evalMaxValue(m *model.MaxValue) (result.Value, error) {
	return typeExtent(m.ValueType, true)
}

func (i *interpreter) evalMinValue(m *model.MinValue) (result.Value, error) {
	return typeExtent(m.ValueType, false)
}

func typeExtent(t types.IType, max bool) (result.Value, error) {
	sys, ok := t.(types.System)
	if !ok {
		return result.Value{}, fmt.Errorf("maximum/minimum is only defined for Integer, Long, Decimal, Date, DateTime, and Time, got %v", t)
	}
	switch sys {
	case types.Integer:
		if max {
			return result.New(int32(2147483647))
		}
		return result.New(int32(-2147483648))
	case types.Long:
		if max {
			return result.New(int64(9223372036854775807))
		}
		return result.New(int64(-9223372036854775808))
	case types.Decimal:
		if max {
			return result.New(decimal.RequireFromString("99999999999999999999.99999999"))
		}
		return result.New(decimal.RequireFromString("-99999999999999999999.99999999"))
	case types.Date:
		if max {
			return result.New(result.Date{Date: maxDate, Precision: model.Day})
		}
		return result.New(result.Date{Date: minDate, Precision: model.Day})
	case types.DateTime:
		if max {
			return result.New(result.DateTime{Date: maxDate, Precision: model.Millisecond})
		}
		return result.New(result.DateTime{Date: minDate, Precision: model.Millisecond})
	case types.Time:
		if max {
			return result.New(result.Time{Date: maxTime, Precision: model.Millisecond})
		}
		return result.New(result.Time{Date: minTime, Precision: model.Millisecond})
	}
	return result.Value{}, fmt.Errorf("maximum/minimum is not defined for %v", t)
}
