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
	"strings"
	"testing"

	"github.com/lattice-health/cqlcore/model"
	"github.com/lattice-health/cqlcore/types"
)

func TestEvalFunctionRef_Error(t *testing.T) {
	tests := []struct {
		name        string
		tree        *model.Library
		errContains string
	}{
		{
			name: "local function not found",
			tree: &model.Library{
				Identifier: &model.LibraryIdentifier{Local: "Main", Version: "1.0.0"},
				Statements: &model.Statements{
					Defs: []model.IExpressionDef{
						&model.ExpressionDef{
							Name:        "TESTRESULT",
							AccessLevel: model.Public,
							Expression:  &model.FunctionRef{Name: "Nonexistent"},
						},
					},
				},
			},
			errContains: "could not resolve",
		},
		{
			name: "wrong arity",
			tree: &model.Library{
				Identifier: &model.LibraryIdentifier{Local: "Main", Version: "1.0.0"},
				Includes: []*model.Include{
					{Identifier: &model.LibraryIdentifier{Local: "Helpers", Version: "1.0.0"}, LocalIdentifier: "Helpers"},
				},
				Statements: &model.Statements{
					Defs: []model.IExpressionDef{
						&model.ExpressionDef{
							Name:        "TESTRESULT",
							AccessLevel: model.Public,
							Expression: &model.FunctionRef{
								Name:        "Double",
								LibraryName: "Helpers",
								Operands: []model.IExpression{
									model.NewLiteral("1", types.Integer),
									model.NewLiteral("2", types.Integer),
								},
							},
						},
					},
				},
			},
			errContains: "could not resolve",
		},
		{
			name: "function not found in included library",
			tree: &model.Library{
				Identifier: &model.LibraryIdentifier{Local: "Main", Version: "1.0.0"},
				Includes: []*model.Include{
					{Identifier: &model.LibraryIdentifier{Local: "Helpers", Version: "1.0.0"}, LocalIdentifier: "H"},
				},
				Statements: &model.Statements{
					Defs: []model.IExpressionDef{
						&model.ExpressionDef{
							Name:        "TESTRESULT",
							AccessLevel: model.Public,
							Expression: &model.FunctionRef{
								Name:        "Triple",
								LibraryName: "H",
								Operands:    []model.IExpression{model.NewLiteral("1", types.Integer)},
							},
						},
					},
				},
			},
			errContains: "could not resolve",
		},
		{
			name: "global function library name not found",
			tree: &model.Library{
				Identifier: &model.LibraryIdentifier{Local: "Main", Version: "1.0.0"},
				Statements: &model.Statements{
					Defs: []model.IExpressionDef{
						&model.ExpressionDef{
							Name:        "TESTRESULT",
							AccessLevel: model.Public,
							Expression: &model.FunctionRef{
								Name:        "Double",
								LibraryName: "Nonexistent",
								Operands:    []model.IExpression{model.NewLiteral("1", types.Integer)},
							},
						},
					},
				},
			},
			errContains: "could not resolve",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			libs := []*model.Library{helperLib(t), test.tree}
			_, err := Eval(context.Background(), libs, defaultInterpreterConfig(t))
			if err == nil {
				t.Fatalf("Eval(%s) succeeded, want an error", test.name)
			}
			if !strings.Contains(err.Error(), test.errContains) {
				t.Errorf("Eval(%s) returned error %q, want it to contain %q", test.name, err, test.errContains)
			}
		})
	}
}
