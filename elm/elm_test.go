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

package elm

import (
	"strings"
	"testing"

	"github.com/lattice-health/cqlcore/model"
	"github.com/lattice-health/cqlcore/types"
)

func wrapLib(expr model.IExpression) *model.Library {
	return &model.Library{
		Identifier: &model.LibraryIdentifier{Local: "Main", Version: "1.0.0"},
		Statements: &model.Statements{
			Defs: []model.IExpressionDef{
				&model.ExpressionDef{Name: "TESTRESULT", Context: "Patient", AccessLevel: model.Public, Expression: expr},
			},
		},
	}
}

func asMap(t *testing.T, v any) map[string]any {
	t.Helper()
	m, ok := v.(map[string]any)
	if !ok {
		t.Fatalf("value %v (%T) is not a map[string]any", v, v)
	}
	return m
}

func TestSerializeLibraryIdentifierAndSchema(t *testing.T) {
	tree, err := SerializeLibrary(wrapLib(model.NewLiteral("4", types.Integer)))
	if err != nil {
		t.Fatalf("SerializeLibrary returned unexpected error: %v", err)
	}
	lib := asMap(t, tree["library"])
	id := asMap(t, lib["identifier"])
	if id["id"] != "Main" || id["version"] != "1.0.0" {
		t.Errorf("identifier = %v, want {id: Main, version: 1.0.0}", id)
	}
	schema := asMap(t, lib["schemaIdentifier"])
	if schema["id"] != "urn:hl7-org:elm" || schema["version"] != "r1" {
		t.Errorf("schemaIdentifier = %v, want {id: urn:hl7-org:elm, version: r1}", schema)
	}
}

func TestSerializeLibraryStatements(t *testing.T) {
	tree, err := SerializeLibrary(wrapLib(model.NewLiteral("4", types.Integer)))
	if err != nil {
		t.Fatalf("SerializeLibrary returned unexpected error: %v", err)
	}
	lib := asMap(t, tree["library"])
	statements := asMap(t, lib["statements"])
	defs, ok := statements["def"].([]any)
	if !ok || len(defs) != 1 {
		t.Fatalf("statements.def = %v, want a single-element slice", statements["def"])
	}
	def := asMap(t, defs[0])
	if def["name"] != "TESTRESULT" || def["context"] != "Patient" || def["accessLevel"] != "Public" {
		t.Errorf("def = %v, want name/context/accessLevel of TESTRESULT/Patient/Public", def)
	}
	expr := asMap(t, def["expression"])
	if expr["type"] != "Literal" || expr["value"] != "4" || expr["valueType"] != elmTypePrefix+"Integer" {
		t.Errorf("expression = %v, want a System.Integer Literal node for \"4\"", expr)
	}
}

func TestSerializeLibraryOmitsEmptySections(t *testing.T) {
	tree, err := SerializeLibrary(wrapLib(model.NewLiteral("true", types.Boolean)))
	if err != nil {
		t.Fatalf("SerializeLibrary returned unexpected error: %v", err)
	}
	lib := asMap(t, tree["library"])
	for _, key := range []string{"usings", "includes", "parameters", "codeSystems", "valueSets", "codes", "concepts"} {
		if _, present := lib[key]; present {
			t.Errorf("library[%q] present with no source definitions, want it omitted", key)
		}
	}
}

func TestSerializeLibraryParametersAndFunctions(t *testing.T) {
	lib := &model.Library{
		Identifier: &model.LibraryIdentifier{Local: "Main", Version: "1.0.0"},
		Parameters: []*model.ParameterDef{
			{Name: "MeasurementPeriod", Default: model.NewLiteral("2024", types.Integer), AccessLevel: model.Public},
		},
		Statements: &model.Statements{
			Defs: []model.IExpressionDef{
				&model.FunctionDef{
					Name:        "Double",
					Context:     "Patient",
					AccessLevel: model.Public,
					Operands:    []model.OperandDef{{Name: "X"}},
					Expression: &model.Multiply{BinaryExpression: model.BinaryExpression{
						Operands: [2]model.IExpression{model.NewLiteral("2", types.Integer), &model.OperandRef{Name: "X"}},
					}},
				},
			},
		},
	}
	tree, err := SerializeLibrary(lib)
	if err != nil {
		t.Fatalf("SerializeLibrary returned unexpected error: %v", err)
	}
	body := asMap(t, tree["library"])

	params := asMap(t, body["parameters"])["def"].([]any)
	param := asMap(t, params[0])
	if param["name"] != "MeasurementPeriod" || param["accessLevel"] != "Public" {
		t.Errorf("parameter def = %v, want name MeasurementPeriod, accessLevel Public", param)
	}
	if asMap(t, param["default"])["value"] != "2024" {
		t.Errorf("parameter default = %v, want literal 2024", param["default"])
	}

	defs := asMap(t, body["statements"])["def"].([]any)
	fn := asMap(t, defs[0])
	if fn["type"] != "FunctionDef" || fn["name"] != "Double" || fn["fluent"] != false || fn["external"] != false {
		t.Errorf("function def = %v, want a non-fluent, non-external FunctionDef named Double", fn)
	}
	operands := fn["operand"].([]any)
	if len(operands) != 1 || asMap(t, operands[0])["name"] != "X" {
		t.Errorf("function operands = %v, want a single operand named X", operands)
	}
	body2 := asMap(t, fn["expression"])
	if body2["type"] != "Multiply" {
		t.Errorf("function body = %v, want a Multiply node", body2)
	}
}

func TestSerializeLibraryJSON(t *testing.T) {
	out, err := SerializeLibraryJSON(wrapLib(model.NewLiteral("4", types.Integer)), 2)
	if err != nil {
		t.Fatalf("SerializeLibraryJSON returned unexpected error: %v", err)
	}
	if !strings.Contains(out, "\"TESTRESULT\"") {
		t.Errorf("SerializeLibraryJSON output = %q, want it to contain the statement name", out)
	}
	if !strings.Contains(out, "\n  ") {
		t.Errorf("SerializeLibraryJSON with indent=2 produced unindented output: %q", out)
	}

	flat, err := SerializeLibraryJSON(wrapLib(model.NewLiteral("4", types.Integer)), 0)
	if err != nil {
		t.Fatalf("SerializeLibraryJSON returned unexpected error: %v", err)
	}
	if strings.Contains(flat, "\n") {
		t.Errorf("SerializeLibraryJSON with indent=0 produced indented output: %q", flat)
	}
}
