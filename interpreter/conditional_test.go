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

func TestEvalIfThenElse_Error(t *testing.T) {
	tests := []struct {
		name    string
		model   model.IExpression
		wantErr string
	}{
		{
			name: "non boolean condition",
			model: &model.IfThenElse{
				Condition: model.NewLiteral("2", types.Integer),
				Then:      model.NewLiteral("2", types.Integer),
				Else:      model.NewLiteral("3", types.Integer),
			},
			wantErr: "to a boolean",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Eval(context.Background(), []*model.Library{wrapInLib(t, tc.model)}, defaultInterpreterConfig(t))
			if err == nil {
				t.Fatal("Eval() succeeded, want error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("Eval() returned error %q, want it to contain %q", err, tc.wantErr)
			}
		})
	}
}

func TestEvalCase(t *testing.T) {
	tests := []struct {
		name string
		expr *model.Case
		want int32
	}{
		{
			name: "no comparand, first true guard wins",
			expr: &model.Case{
				CaseItem: []*model.CaseItem{
					{When: model.NewLiteral("false", types.Boolean), Then: model.NewLiteral("1", types.Integer)},
					{When: model.NewLiteral("true", types.Boolean), Then: model.NewLiteral("2", types.Integer)},
				},
				Else: model.NewLiteral("3", types.Integer),
			},
			want: 2,
		},
		{
			name: "no comparand, no guard matches falls to else",
			expr: &model.Case{
				CaseItem: []*model.CaseItem{
					{When: model.NewLiteral("false", types.Boolean), Then: model.NewLiteral("1", types.Integer)},
				},
				Else: model.NewLiteral("3", types.Integer),
			},
			want: 3,
		},
		{
			name: "comparand matched by equality",
			expr: &model.Case{
				Comparand: model.NewLiteral("5", types.Integer),
				CaseItem: []*model.CaseItem{
					{When: model.NewLiteral("5", types.Integer), Then: model.NewLiteral("6", types.Integer)},
				},
				Else: model.NewLiteral("7", types.Integer),
			},
			want: 6,
		},
		{
			name: "comparand of a different type than when never matches",
			expr: &model.Case{
				Comparand: model.NewLiteral("Apple", types.String),
				CaseItem: []*model.CaseItem{
					{When: model.NewLiteral("5", types.Integer), Then: model.NewLiteral("6", types.Integer)},
				},
				Else: model.NewLiteral("7", types.Integer),
			},
			want: 7,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			results, err := Eval(context.Background(), []*model.Library{wrapInLib(t, test.expr)}, defaultInterpreterConfig(t))
			if err != nil {
				t.Fatalf("Eval() returned unexpected error: %v", err)
			}
			mustEqual(t, "TESTRESULT", getResult(t, results), newOrFatal(t, test.want))
		})
	}
}
