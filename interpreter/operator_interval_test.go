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
	"testing"

	"github.com/lattice-health/cqlcore/model"
	"github.com/lattice-health/cqlcore/types"
)

func TestEvalStartAndEnd(t *testing.T) {
	interval := model.NewInclusiveInterval("1", "10", types.Integer)

	startResults, err := Eval(context.Background(), []*model.Library{wrapInLib(t, &model.Start{UnaryExpression: model.UnaryExpression{Operand: interval}})}, defaultInterpreterConfig(t))
	if err != nil {
		t.Fatalf("Eval(Start) returned unexpected error: %v", err)
	}
	mustEqual(t, "Start", getResult(t, startResults), newOrFatal(t, int32(1)))

	endResults, err := Eval(context.Background(), []*model.Library{wrapInLib(t, &model.End{UnaryExpression: model.UnaryExpression{Operand: interval}})}, defaultInterpreterConfig(t))
	if err != nil {
		t.Fatalf("Eval(End) returned unexpected error: %v", err)
	}
	mustEqual(t, "End", getResult(t, endResults), newOrFatal(t, int32(10)))
}

func TestEvalWidth(t *testing.T) {
	interval := model.NewInclusiveInterval("1", "10", types.Integer)
	results, err := Eval(context.Background(), []*model.Library{wrapInLib(t, &model.Width{UnaryExpression: model.UnaryExpression{Operand: interval}})}, defaultInterpreterConfig(t))
	if err != nil {
		t.Fatalf("Eval(Width) returned unexpected error: %v", err)
	}
	mustEqual(t, "Width", getResult(t, results), newOrFatal(t, int32(9)))
}

func TestEvalPointFrom(t *testing.T) {
	point := model.NewInclusiveInterval("5", "5", types.Integer)
	results, err := Eval(context.Background(), []*model.Library{wrapInLib(t, &model.PointFrom{UnaryExpression: model.UnaryExpression{Operand: point}})}, defaultInterpreterConfig(t))
	if err != nil {
		t.Fatalf("Eval(PointFrom) returned unexpected error: %v", err)
	}
	mustEqual(t, "PointFrom", getResult(t, results), newOrFatal(t, int32(5)))
}

func TestEvalPointFromNonDegenerateIntervalErrors(t *testing.T) {
	interval := model.NewInclusiveInterval("1", "10", types.Integer)
	_, err := Eval(context.Background(), []*model.Library{wrapInLib(t, &model.PointFrom{UnaryExpression: model.UnaryExpression{Operand: interval}})}, defaultInterpreterConfig(t))
	if err == nil {
		t.Fatal("Eval(PointFrom) succeeded on a non-degenerate interval, want an error")
	}
}

func TestEvalOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a    *model.Interval
		b    *model.Interval
		want bool
	}{
		{
			name: "overlapping ranges",
			a:    model.NewInclusiveInterval("1", "10", types.Integer),
			b:    model.NewInclusiveInterval("5", "15", types.Integer),
			want: true,
		},
		{
			name: "disjoint ranges",
			a:    model.NewInclusiveInterval("1", "5", types.Integer),
			b:    model.NewInclusiveInterval("10", "15", types.Integer),
			want: false,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			expr := &model.Overlaps{BinaryExpression: model.BinaryExpression{Operands: [2]model.IExpression{test.a, test.b}}}
			results, err := Eval(context.Background(), []*model.Library{wrapInLib(t, expr)}, defaultInterpreterConfig(t))
			if err != nil {
				t.Fatalf("Eval(Overlaps) returned unexpected error: %v", err)
			}
			mustEqual(t, "Overlaps", getResult(t, results), newOrFatal(t, test.want))
		})
	}
}
