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

package parser

import (
	"testing"

	"github.com/lattice-health/cqlcore/model"
)

func TestBuiltinFunctionalCallProducesDedicatedNode(t *testing.T) {
	tests := []struct {
		cql     string
		checkFn func(model.IExpression) bool
	}{
		{"define X: First({1, 2, 3})", func(e model.IExpression) bool { _, ok := e.(*model.First); return ok }},
		{"define X: Last({1, 2, 3})", func(e model.IExpression) bool { _, ok := e.(*model.Last); return ok }},
		{"define X: Upper('abc')", func(e model.IExpression) bool { _, ok := e.(*model.Upper); return ok }},
		{"define X: Lower('ABC')", func(e model.IExpression) bool { _, ok := e.(*model.Lower); return ok }},
		{"define X: Length({1, 2})", func(e model.IExpression) bool { _, ok := e.(*model.Length); return ok }},
		{"define X: Count({1, 2})", func(e model.IExpression) bool { _, ok := e.(*model.Count); return ok }},
		{"define X: Distinct({1, 1, 2})", func(e model.IExpression) bool { _, ok := e.(*model.Distinct); return ok }},
		{"define X: Flatten({{1}, {2}})", func(e model.IExpression) bool { _, ok := e.(*model.Flatten); return ok }},
		{"define X: AllTrue({true, false})", func(e model.IExpression) bool { _, ok := e.(*model.AllTrue); return ok }},
		{"define X: AnyTrue({true, false})", func(e model.IExpression) bool { _, ok := e.(*model.AnyTrue); return ok }},
		{"define X: ToString(1)", func(e model.IExpression) bool { _, ok := e.(*model.ToString); return ok }},
		{"define X: ToInteger('1')", func(e model.IExpression) bool { _, ok := e.(*model.ToInteger); return ok }},
		{"define X: Predecessor(1)", func(e model.IExpression) bool { _, ok := e.(*model.Predecessor); return ok }},
		{"define X: Successor(1)", func(e model.IExpression) bool { _, ok := e.(*model.Successor); return ok }},
		{"define X: Truncate(1.5)", func(e model.IExpression) bool { _, ok := e.(*model.Truncate); return ok }},
		{"define X: CanConvertQuantity(1 'mg', 'g')", func(e model.IExpression) bool { _, ok := e.(*model.CanConvertQuantity); return ok }},
	}
	for _, test := range tests {
		t.Run(test.cql, func(t *testing.T) {
			expr := parseSingleDef(t, test.cql)
			if !test.checkFn(expr) {
				t.Errorf("got %T, which did not match the expected built-in node", expr)
			}
		})
	}
}

func TestBuiltinFluentCallProducesDedicatedNode(t *testing.T) {
	expr := parseSingleDef(t, "define X: {1, 2, 3}.Last()")
	if _, ok := expr.(*model.Last); !ok {
		t.Errorf("got %T, want *model.Last from the fluent call {1,2,3}.Last()", expr)
	}

	expr = parseSingleDef(t, "define X: 'abc'.Upper()")
	if _, ok := expr.(*model.Upper); !ok {
		t.Errorf("got %T, want *model.Upper from the fluent call 'abc'.Upper()", expr)
	}
}

func TestNonBuiltinNameStillResolvesToFunctionRef(t *testing.T) {
	cql := "define function Custom(x Integer): x\ndefine Y: Custom(1)"
	libs, err := New(nil).Libraries([]string{cql})
	if err != nil {
		t.Fatalf("Libraries() returned unexpected error: %v", err)
	}
	ref, ok := libs[0].Statements.Defs[1].(*model.ExpressionDef).Expression.(*model.FunctionRef)
	if !ok {
		t.Fatalf("Y.Expression is %T, want *model.FunctionRef (Custom is user-defined, not a built-in)", libs[0].Statements.Defs[1].(*model.ExpressionDef).Expression)
	}
	if ref.Name != "Custom" {
		t.Errorf("ref.Name = %q, want Custom", ref.Name)
	}
}
