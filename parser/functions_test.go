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
	"github.com/lithammer/dedent"
)

func TestFunctionDefinitionAndCall(t *testing.T) {
	cql := dedent.Dedent(`
		define function DoubleIt(x Integer): x * 2
		define UsesIt: DoubleIt(21)
	`)
	libs, err := New(nil).Libraries([]string{cql})
	if err != nil {
		t.Fatalf("Libraries() returned unexpected error: %v", err)
	}
	defs := libs[0].Statements.Defs

	fd, ok := defs[0].(*model.FunctionDef)
	if !ok {
		t.Fatalf("defs[0] is %T, want *model.FunctionDef", defs[0])
	}
	if fd.Name != "DoubleIt" || len(fd.Operands) != 1 || fd.Operands[0].Name != "x" {
		t.Errorf("fd = %+v, want DoubleIt(x)", fd)
	}
	if _, ok := fd.Expression.(*model.Multiply); !ok {
		t.Errorf("fd.Expression is %T, want *model.Multiply", fd.Expression)
	}

	ed := defs[1].(*model.ExpressionDef)
	ref, ok := ed.Expression.(*model.FunctionRef)
	if !ok {
		t.Fatalf("UsesIt.Expression is %T, want *model.FunctionRef", ed.Expression)
	}
	if ref.Name != "DoubleIt" || len(ref.Operands) != 1 {
		t.Errorf("ref = %+v, want a single-argument call to DoubleIt", ref)
	}
}

func TestExternalFunctionDefinition(t *testing.T) {
	cql := "define function Helper(x Integer) returns Integer: external"
	libs, err := New(nil).Libraries([]string{cql})
	if err != nil {
		t.Fatalf("Libraries() returned unexpected error: %v", err)
	}
	fd := libs[0].Statements.Defs[0].(*model.FunctionDef)
	if !fd.External {
		t.Error("fd.External = false, want true")
	}
	if fd.Expression != nil {
		t.Errorf("fd.Expression = %v, want nil for an external function", fd.Expression)
	}
}

func TestFluentFunctionCall(t *testing.T) {
	cql := dedent.Dedent(`
		define fluent function Squared(x Integer): x * x
		define Result: 4.Squared()
	`)
	libs, err := New(nil).Libraries([]string{cql})
	if err != nil {
		t.Fatalf("Libraries() returned unexpected error: %v", err)
	}
	fd := libs[0].Statements.Defs[0].(*model.FunctionDef)
	if !fd.Fluent {
		t.Error("fd.Fluent = false, want true")
	}

	ed := libs[0].Statements.Defs[1].(*model.ExpressionDef)
	ref, ok := ed.Expression.(*model.FunctionRef)
	if !ok {
		t.Fatalf("Result.Expression is %T, want *model.FunctionRef", ed.Expression)
	}
	if ref.Name != "Squared" || len(ref.Operands) != 1 {
		t.Errorf("ref = %+v, want Squared called fluently with the receiver prepended", ref)
	}
}

func TestCallToUndefinedFunctionErrors(t *testing.T) {
	_, err := New(nil).Libraries([]string{"define X: Bogus(1, 2)"})
	if err == nil {
		t.Fatal("Libraries() succeeded, want an error for an undefined function Bogus/2")
	}
}

func TestFunctionOverloadByArity(t *testing.T) {
	cql := dedent.Dedent(`
		define function Combine(x Integer): x
		define function Combine(x Integer, y Integer): x + y
		define One: Combine(1)
		define Two: Combine(1, 2)
	`)
	libs, err := New(nil).Libraries([]string{cql})
	if err != nil {
		t.Fatalf("Libraries() returned unexpected error: %v", err)
	}
	defs := libs[0].Statements.Defs
	one := defs[2].(*model.ExpressionDef).Expression.(*model.FunctionRef)
	two := defs[3].(*model.ExpressionDef).Expression.(*model.FunctionRef)
	if len(one.Operands) != 1 {
		t.Errorf("One calls Combine with %d operands, want 1", len(one.Operands))
	}
	if len(two.Operands) != 2 {
		t.Errorf("Two calls Combine with %d operands, want 2", len(two.Operands))
	}
}
