// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package interpreter

import (
	"context"
	"fmt"
	"testing"

	"github.com/lattice-health/cqlcore/model"
	"github.com/lattice-health/cqlcore/result"
	"github.com/lattice-health/cqlcore/retriever"
	"github.com/lattice-health/cqlcore/retriever/local"
	"github.com/lattice-health/cqlcore/terminology"
	"github.com/lattice-health/cqlcore/types"
)

func buildRetriever(t *testing.T, jsonDocs []string, terms terminology.Provider) retriever.DataSource {
	t.Helper()
	ds, err := local.NewDataSource(jsonDocs, terms)
	if err != nil {
		t.Fatalf("NewDataSource(%v) returned unexpected error: %v", jsonDocs, err)
	}
	return ds
}

func getTerminologyProvider(t *testing.T, jsonValueSets []string) terminology.Provider {
	t.Helper()
	p, err := terminology.NewInMemoryFHIRProvider(jsonValueSets)
	if err != nil {
		t.Fatalf("NewInMemoryFHIRProvider(%v) returned unexpected error: %v", jsonValueSets, err)
	}
	return p
}

// helperLib exercises every shape of top-level definition: a parameter with a default, a public
// and a private expression def, and a single-operand function def.
func helperLib(t *testing.T) *model.Library {
	t.Helper()
	return &model.Library{
		Identifier: &model.LibraryIdentifier{Local: "Helpers", Version: "1.0.0"},
		Parameters: []*model.ParameterDef{
			{
				Name:        "Measurement Period",
				Default:     model.NewLiteral("2024", types.Integer),
				AccessLevel: model.Public,
			},
		},
		Statements: &model.Statements{
			Defs: []model.IExpressionDef{
				&model.ExpressionDef{
					Name:        "Public Constant",
					AccessLevel: model.Public,
					Expression:  model.NewLiteral("42", types.Integer),
				},
				&model.ExpressionDef{
					Name:        "Private Constant",
					AccessLevel: model.Private,
					Expression:  model.NewLiteral("99", types.Integer),
				},
				&model.FunctionDef{
					Name:        "Double",
					AccessLevel: model.Public,
					Operands:    []model.OperandDef{{Name: "X"}},
					Expression: &model.Multiply{
						BinaryExpression: model.BinaryExpression{
							Operands: [2]model.IExpression{
								model.NewLiteral("2", types.Integer),
								&model.OperandRef{Name: "X"},
							},
						},
					},
				},
			},
		},
	}
}

func mustEqual(t *testing.T, name string, got, want result.Value) {
	t.Helper()
	if !got.Equal(want) {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func TestEvalLiteralExpression(t *testing.T) {
	lib := wrapInLib(t, model.NewLiteral("4", types.Integer))
	results, err := Eval(context.Background(), []*model.Library{lib}, defaultInterpreterConfig(t))
	if err != nil {
		t.Fatalf("Eval() returned unexpected error: %v", err)
	}
	mustEqual(t, "TESTRESULT", getResult(t, results), newOrFatal(t, int32(4)))
}

func TestEvalPrivateDefsExcludedByDefault(t *testing.T) {
	lib := helperLib(t)
	config := defaultInterpreterConfig(t)
	config.ReturnPrivateDefs = false
	results, err := Eval(context.Background(), []*model.Library{lib}, config)
	if err != nil {
		t.Fatalf("Eval() returned unexpected error: %v", err)
	}
	defs := results[result.LibKey{Name: "Helpers", Version: "1.0.0"}]
	if _, ok := defs["Public Constant"]; !ok {
		t.Errorf("Eval() result missing public definition \"Public Constant\"")
	}
	if _, ok := defs["Private Constant"]; ok {
		t.Errorf("Eval() returned private definition \"Private Constant\" despite ReturnPrivateDefs being false")
	}
}

func TestEvalPrivateDefsIncludedWhenConfigured(t *testing.T) {
	lib := helperLib(t)
	config := defaultInterpreterConfig(t)
	config.ReturnPrivateDefs = true
	results, err := Eval(context.Background(), []*model.Library{lib}, config)
	if err != nil {
		t.Fatalf("Eval() returned unexpected error: %v", err)
	}
	defs := results[result.LibKey{Name: "Helpers", Version: "1.0.0"}]
	got, ok := defs["Private Constant"]
	if !ok {
		t.Fatalf("Eval() result missing private definition \"Private Constant\"")
	}
	mustEqual(t, "Private Constant", got, newOrFatal(t, int32(99)))
}

func TestEvalParameterDefault(t *testing.T) {
	lib := helperLib(t)
	results, err := Eval(context.Background(), []*model.Library{lib}, defaultInterpreterConfig(t))
	if err != nil {
		t.Fatalf("Eval() returned unexpected error: %v", err)
	}
	defs := results[result.LibKey{Name: "Helpers", Version: "1.0.0"}]
	got, ok := defs["Measurement Period"]
	if !ok {
		t.Fatalf("Eval() result missing parameter \"Measurement Period\"")
	}
	mustEqual(t, "Measurement Period", got, newOrFatal(t, int32(2024)))
}

func TestEvalParameterOverride(t *testing.T) {
	lib := helperLib(t)
	config := defaultInterpreterConfig(t)
	config.Parameters = map[result.DefKey]model.IExpression{
		{Name: "Measurement Period", Library: result.LibKey{Name: "Helpers", Version: "1.0.0"}}: model.NewLiteral("2020", types.Integer),
	}
	results, err := Eval(context.Background(), []*model.Library{lib}, config)
	if err != nil {
		t.Fatalf("Eval() returned unexpected error: %v", err)
	}
	defs := results[result.LibKey{Name: "Helpers", Version: "1.0.0"}]
	mustEqual(t, "Measurement Period", defs["Measurement Period"], newOrFatal(t, int32(2020)))
}

func TestEvalFunctionDef(t *testing.T) {
	lib := helperLib(t)
	lib.Statements.Defs = append(lib.Statements.Defs, &model.ExpressionDef{
		Name:        "Doubled",
		AccessLevel: model.Public,
		Expression: &model.FunctionRef{
			Name:     "Double",
			Operands: []model.IExpression{model.NewLiteral("21", types.Integer)},
		},
	})
	results, err := Eval(context.Background(), []*model.Library{lib}, defaultInterpreterConfig(t))
	if err != nil {
		t.Fatalf("Eval() returned unexpected error: %v", err)
	}
	defs := results[result.LibKey{Name: "Helpers", Version: "1.0.0"}]
	mustEqual(t, "Doubled", defs["Doubled"], newOrFatal(t, int32(42)))
}

func TestEvalIncludedLibraryReference(t *testing.T) {
	helpers := helperLib(t)
	main := &model.Library{
		Identifier: &model.LibraryIdentifier{Local: "Main", Version: "1.0.0"},
		Includes: []*model.Include{
			{Identifier: &model.LibraryIdentifier{Local: "Helpers", Version: "1.0.0"}, LocalIdentifier: "H"},
		},
		Statements: &model.Statements{
			Defs: []model.IExpressionDef{
				&model.ExpressionDef{
					Name:        "TESTRESULT",
					AccessLevel: model.Public,
					Expression:  &model.ExpressionRef{LibraryName: "H", Name: "Public Constant"},
				},
			},
		},
	}
	results, err := Eval(context.Background(), []*model.Library{helpers, main}, defaultInterpreterConfig(t))
	if err != nil {
		t.Fatalf("Eval() returned unexpected error: %v", err)
	}
	mustEqual(t, "TESTRESULT", getResult(t, results), newOrFatal(t, int32(42)))
}

func TestEvalRetrieveWithNoRetriever(t *testing.T) {
	lib := wrapInLib(t, &model.Retrieve{DataType: "Patient"})
	results, err := Eval(context.Background(), []*model.Library{lib}, defaultInterpreterConfig(t))
	if err != nil {
		t.Fatalf("Eval() returned unexpected error: %v", err)
	}
	got := getResult(t, results)
	l, ok := got.GolangValue().(result.List)
	if !ok {
		t.Fatalf("Eval() result is %T, want result.List", got.GolangValue())
	}
	if len(l.Value) != 0 {
		t.Errorf("Eval() returned %d resources with no retriever configured, want 0", len(l.Value))
	}
}

func TestEvalRetrieveFromDataSource(t *testing.T) {
	lib := wrapInLib(t, &model.Retrieve{DataType: "Patient"})
	config := defaultInterpreterConfig(t)
	config.Retriever = buildRetriever(t, []string{`{"resourceType": "Patient", "id": "123"}`}, nil)
	results, err := Eval(context.Background(), []*model.Library{lib}, config)
	if err != nil {
		t.Fatalf("Eval() returned unexpected error: %v", err)
	}
	got := getResult(t, results)
	l, ok := got.GolangValue().(result.List)
	if !ok {
		t.Fatalf("Eval() result is %T, want result.List", got.GolangValue())
	}
	if len(l.Value) != 1 {
		t.Errorf("Eval() returned %d resources, want 1", len(l.Value))
	}
}

// failingRetriever always errors, so Retrieve's delegation to the configured DataSource surfaces
// as an engine error rather than panicking or being swallowed.
type failingRetriever struct{}

func (failingRetriever) Retrieve(ctx context.Context, resourceType string, filter *retriever.Filter) ([]result.Named, error) {
	return nil, fmt.Errorf("backing store unavailable")
}

func TestEvalRetrieveErrorPropagates(t *testing.T) {
	lib := wrapInLib(t, &model.Retrieve{DataType: "Patient"})
	config := defaultInterpreterConfig(t)
	config.Retriever = failingRetriever{}
	if _, err := Eval(context.Background(), []*model.Library{lib}, config); err == nil {
		t.Fatal("Eval() succeeded, want an error from the failing retriever")
	}
}

func TestEvalUndefinedReferenceReturnsError(t *testing.T) {
	lib := wrapInLib(t, &model.ExpressionRef{Name: "Does Not Exist"})
	if _, err := Eval(context.Background(), []*model.Library{lib}, defaultInterpreterConfig(t)); err == nil {
		t.Fatal("Eval() succeeded for a reference to an undefined expression, want an error")
	}
}

func TestEvalCyclicDefinitionReturnsError(t *testing.T) {
	lib := &model.Library{
		Identifier: &model.LibraryIdentifier{Local: "Cyclic", Version: "1.0.0"},
		Statements: &model.Statements{
			Defs: []model.IExpressionDef{
				&model.ExpressionDef{Name: "A", AccessLevel: model.Public, Expression: &model.ExpressionRef{Name: "B"}},
				&model.ExpressionDef{Name: "B", AccessLevel: model.Public, Expression: &model.ExpressionRef{Name: "A"}},
			},
		},
	}
	if _, err := Eval(context.Background(), []*model.Library{lib}, defaultInterpreterConfig(t)); err == nil {
		t.Fatal("Eval() succeeded for a cyclic definition, want an error")
	}
}
