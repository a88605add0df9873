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
	"github.com/lattice-health/cqlcore/result"
	"github.com/lattice-health/cqlcore/types"
)

func evalAggregate(t *testing.T, expr model.IExpression) result.Value {
	t.Helper()
	results, err := Eval(context.Background(), []*model.Library{wrapInLib(t, expr)}, defaultInterpreterConfig(t))
	if err != nil {
		t.Fatalf("Eval() returned unexpected error: %v", err)
	}
	return getResult(t, results)
}

func TestEvalSum(t *testing.T) {
	got := evalAggregate(t, &model.Sum{UnaryExpression: model.UnaryExpression{Operand: model.NewList([]string{"1", "2", "3"}, types.Integer)}})
	mustEqual(t, "Sum", got, newOrFatal(t, int32(6)))
}

func TestEvalSumEmptyListIsZero(t *testing.T) {
	got := evalAggregate(t, &model.Sum{UnaryExpression: model.UnaryExpression{Operand: model.NewList(nil, types.Integer)}})
	mustEqual(t, "Sum", got, newOrFatal(t, int32(0)))
}

func TestEvalProduct(t *testing.T) {
	got := evalAggregate(t, &model.Product{UnaryExpression: model.UnaryExpression{Operand: model.NewList([]string{"2", "3", "4"}, types.Integer)}})
	mustEqual(t, "Product", got, newOrFatal(t, int32(24)))
}

func TestEvalAvg(t *testing.T) {
	got := evalAggregate(t, &model.Avg{UnaryExpression: model.UnaryExpression{Operand: model.NewList([]string{"2", "4", "6"}, types.Integer)}})
	mustEqual(t, "Avg", got, newOrFatal(t, int32(4)))
}

func TestEvalAvgOfNullOperandIsNull(t *testing.T) {
	got := evalAggregate(t, &model.Avg{UnaryExpression: model.UnaryExpression{Operand: model.NewLiteral("", types.Any)}})
	mustEqual(t, "Avg", got, newOrFatal(t, nil))
}

func TestEvalMinAndMax(t *testing.T) {
	list := model.NewList([]string{"5", "1", "9", "3"}, types.Integer)
	minGot := evalAggregate(t, &model.Min{UnaryExpression: model.UnaryExpression{Operand: list}})
	mustEqual(t, "Min", minGot, newOrFatal(t, int32(1)))

	maxGot := evalAggregate(t, &model.Max{UnaryExpression: model.UnaryExpression{Operand: list}})
	mustEqual(t, "Max", maxGot, newOrFatal(t, int32(9)))
}

func TestEvalMedian(t *testing.T) {
	got := evalAggregate(t, &model.Median{UnaryExpression: model.UnaryExpression{Operand: model.NewList([]string{"1", "2", "3", "4"}, types.Integer)}})
	gotDec, err := result.ToDecimal(got)
	if err != nil {
		t.Fatalf("ToDecimal() returned unexpected error: %v", err)
	}
	if f, _ := gotDec.Float64(); f != 2.5 {
		t.Errorf("Median = %v, want 2.5", gotDec)
	}
}

func TestEvalMode(t *testing.T) {
	got := evalAggregate(t, &model.Mode{UnaryExpression: model.UnaryExpression{Operand: model.NewList([]string{"1", "2", "2", "3"}, types.Integer)}})
	mustEqual(t, "Mode", got, newOrFatal(t, int32(2)))
}

func TestEvalGeometricMean(t *testing.T) {
	got := evalAggregate(t, &model.GeometricMean{UnaryExpression: model.UnaryExpression{Operand: model.NewList([]string{"1", "4"}, types.Integer)}})
	gotDec, err := result.ToDecimal(got)
	if err != nil {
		t.Fatalf("ToDecimal() returned unexpected error: %v", err)
	}
	if f, _ := gotDec.Float64(); f < 1.99 || f > 2.01 {
		t.Errorf("GeometricMean = %v, want approximately 2", gotDec)
	}
}

func TestEvalVarianceAndStdDev(t *testing.T) {
	list := model.NewList([]string{"2", "4", "4", "4", "5", "5", "7", "9"}, types.Integer)

	variance := evalAggregate(t, &model.Variance{UnaryExpression: model.UnaryExpression{Operand: list}})
	varDec, err := result.ToDecimal(variance)
	if err != nil {
		t.Fatalf("ToDecimal(Variance) returned unexpected error: %v", err)
	}
	if f, _ := varDec.Float64(); f < 4.56 || f > 4.58 {
		t.Errorf("Variance = %v, want approximately 4.571", varDec)
	}

	popVariance := evalAggregate(t, &model.PopulationVariance{UnaryExpression: model.UnaryExpression{Operand: list}})
	popVarDec, err := result.ToDecimal(popVariance)
	if err != nil {
		t.Fatalf("ToDecimal(PopulationVariance) returned unexpected error: %v", err)
	}
	if f, _ := popVarDec.Float64(); f != 4.0 {
		t.Errorf("PopulationVariance = %v, want 4.0", popVarDec)
	}

	stdDev := evalAggregate(t, &model.StdDev{UnaryExpression: model.UnaryExpression{Operand: list}})
	stdDevDec, err := result.ToDecimal(stdDev)
	if err != nil {
		t.Fatalf("ToDecimal(StdDev) returned unexpected error: %v", err)
	}
	if f, _ := stdDevDec.Float64(); f < 2.13 || f > 2.14 {
		t.Errorf("StdDev = %v, want approximately 2.138", stdDevDec)
	}

	popStdDev := evalAggregate(t, &model.PopulationStdDev{UnaryExpression: model.UnaryExpression{Operand: list}})
	popStdDevDec, err := result.ToDecimal(popStdDev)
	if err != nil {
		t.Fatalf("ToDecimal(PopulationStdDev) returned unexpected error: %v", err)
	}
	if f, _ := popStdDevDec.Float64(); f != 2.0 {
		t.Errorf("PopulationStdDev = %v, want 2.0", popStdDevDec)
	}
}
