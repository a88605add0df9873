// Copyright 2024 Google LLC
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

package parser

import (
	"strings"

	"github.com/lattice-health/cqlcore/internal/reference"
	"github.com/lattice-health/cqlcore/model"
)

// unaryBuiltins maps the lowercased name of a one-operand built-in function (called either as
// Name(x) or fluently as x.Name()) to a constructor for its dedicated model node. Operators with
// their own infix/prefix syntax (Exists, Not, ...) are parsed directly by expressions.go and are
// not listed here.
var unaryBuiltins = map[string]func(model.UnaryExpression) model.IExpression{
	"first":         func(u model.UnaryExpression) model.IExpression { return &model.First{UnaryExpression: u} },
	"last":          func(u model.UnaryExpression) model.IExpression { return &model.Last{UnaryExpression: u} },
	"singletonfrom": func(u model.UnaryExpression) model.IExpression { return &model.SingletonFrom{UnaryExpression: u} },
	"predecessor":   func(u model.UnaryExpression) model.IExpression { return &model.Predecessor{UnaryExpression: u} },
	"successor":     func(u model.UnaryExpression) model.IExpression { return &model.Successor{UnaryExpression: u} },
	"toboolean":     func(u model.UnaryExpression) model.IExpression { return &model.ToBoolean{UnaryExpression: u} },
	"todatetime":    func(u model.UnaryExpression) model.IExpression { return &model.ToDateTime{UnaryExpression: u} },
	"todate":        func(u model.UnaryExpression) model.IExpression { return &model.ToDate{UnaryExpression: u} },
	"todecimal":     func(u model.UnaryExpression) model.IExpression { return &model.ToDecimal{UnaryExpression: u} },
	"tolong":        func(u model.UnaryExpression) model.IExpression { return &model.ToLong{UnaryExpression: u} },
	"tointeger":     func(u model.UnaryExpression) model.IExpression { return &model.ToInteger{UnaryExpression: u} },
	"toquantity":    func(u model.UnaryExpression) model.IExpression { return &model.ToQuantity{UnaryExpression: u} },
	"toconcept":     func(u model.UnaryExpression) model.IExpression { return &model.ToConcept{UnaryExpression: u} },
	"tostring":      func(u model.UnaryExpression) model.IExpression { return &model.ToString{UnaryExpression: u} },
	"totime":        func(u model.UnaryExpression) model.IExpression { return &model.ToTime{UnaryExpression: u} },
	"alltrue":       func(u model.UnaryExpression) model.IExpression { return &model.AllTrue{UnaryExpression: u} },
	"anytrue":       func(u model.UnaryExpression) model.IExpression { return &model.AnyTrue{UnaryExpression: u} },
	"count":         func(u model.UnaryExpression) model.IExpression { return &model.Count{UnaryExpression: u} },
	"sum":           func(u model.UnaryExpression) model.IExpression { return &model.Sum{UnaryExpression: u} },
	"avg":           func(u model.UnaryExpression) model.IExpression { return &model.Avg{UnaryExpression: u} },
	"product":       func(u model.UnaryExpression) model.IExpression { return &model.Product{UnaryExpression: u} },
	"geometricmean": func(u model.UnaryExpression) model.IExpression { return &model.GeometricMean{UnaryExpression: u} },
	"min":           func(u model.UnaryExpression) model.IExpression { return &model.Min{UnaryExpression: u} },
	"max":           func(u model.UnaryExpression) model.IExpression { return &model.Max{UnaryExpression: u} },
	"median":        func(u model.UnaryExpression) model.IExpression { return &model.Median{UnaryExpression: u} },
	"mode":          func(u model.UnaryExpression) model.IExpression { return &model.Mode{UnaryExpression: u} },
	"variance":      func(u model.UnaryExpression) model.IExpression { return &model.Variance{UnaryExpression: u} },
	"populationvariance": func(u model.UnaryExpression) model.IExpression { return &model.PopulationVariance{UnaryExpression: u} },
	"stddev":        func(u model.UnaryExpression) model.IExpression { return &model.StdDev{UnaryExpression: u} },
	"populationstddev": func(u model.UnaryExpression) model.IExpression { return &model.PopulationStdDev{UnaryExpression: u} },
	"width":         func(u model.UnaryExpression) model.IExpression { return &model.Width{UnaryExpression: u} },
	"pointfrom":     func(u model.UnaryExpression) model.IExpression { return &model.PointFrom{UnaryExpression: u} },
	"collapse":      func(u model.UnaryExpression) model.IExpression { return &model.Collapse{UnaryExpression: u} },
	"flatten":       func(u model.UnaryExpression) model.IExpression { return &model.Flatten{UnaryExpression: u} },
	"distinct":      func(u model.UnaryExpression) model.IExpression { return &model.Distinct{UnaryExpression: u} },
	"length":        func(u model.UnaryExpression) model.IExpression { return &model.Length{UnaryExpression: u} },
	"upper":         func(u model.UnaryExpression) model.IExpression { return &model.Upper{UnaryExpression: u} },
	"lower":         func(u model.UnaryExpression) model.IExpression { return &model.Lower{UnaryExpression: u} },
	"truncate":      func(u model.UnaryExpression) model.IExpression { return &model.Truncate{UnaryExpression: u} },
}

// binaryBuiltins maps the lowercased name of a two-operand built-in function to a constructor for
// its dedicated model node.
var binaryBuiltins = map[string]func(model.BinaryExpression) model.IExpression{
	"canconvertquantity": func(b model.BinaryExpression) model.IExpression { return &model.CanConvertQuantity{BinaryExpression: b} },
	"expand":             func(b model.BinaryExpression) model.IExpression { return &model.Expand{BinaryExpression: b} },
}

// tryBuiltinCall reports whether name/args matches a built-in operator with dedicated syntax sugar
// (so the common case, Name(x), produces the same model node a dedicated operator keyword would),
// returning the constructed node and true if so.
func (p *parser) tryBuiltinCall(name string, args []model.IExpression) (model.IExpression, bool) {
	key := strings.ToLower(name)
	switch len(args) {
	case 1:
		if ctor, ok := unaryBuiltins[key]; ok {
			return ctor(model.UnaryExpression{Operand: args[0]}), true
		}
	case 2:
		if ctor, ok := binaryBuiltins[key]; ok {
			return ctor(model.BinaryExpression{Operands: [2]model.IExpression{args[0], args[1]}}), true
		}
	}
	return nil, false
}

// registerBuiltins seeds resolver with every built-in function name/arity pair so
// ResolveLocalFunc/ResolveGlobalFunc succeed for calls to them even though, for the ones
// tryBuiltinCall handles, the parser never actually consults the resolved value: it constructs the
// dedicated node directly. placeholder stands in for the Result a real reference.Func needs; it
// carries no information the interpreter uses, since dispatch for these is by model node type, not
// by name.
func registerBuiltins(r *reference.Resolver[model.IExpression, model.IExpression]) {
	placeholder := &model.Literal{}
	reg := func(name string, arity int) {
		_ = r.DefineBuiltinFunc(name, arity, placeholder)
	}
	for name := range unaryBuiltins {
		reg(name, 1)
	}
	for name := range binaryBuiltins {
		reg(name, 2)
	}
	// Built-ins with no dedicated syntax sugar handled elsewhere (Date/DateTime/Time/Coalesce/Concat
	// are parsed directly in expressions.go's parsePrimary and registered here only so they resolve
	// like any other name, should a library reference them without a call).
	for _, name := range []string{"date", "datetime", "time", "coalesce", "concat", "now", "today", "timeofday"} {
		reg(name, 0)
	}
}
