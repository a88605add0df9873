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
	"time"

	"github.com/lattice-health/cqlcore/model"
	"github.com/lattice-health/cqlcore/types"
)

func TestAgeBetween(t *testing.T) {
	tests := []struct {
		name      string
		from      time.Time
		to        time.Time
		precision model.DateTimePrecision
		want      int32
	}{
		{
			name:      "whole years, birthday already passed this year",
			from:      time.Date(2000, time.March, 15, 0, 0, 0, 0, time.UTC),
			to:        time.Date(2024, time.July, 31, 0, 0, 0, 0, time.UTC),
			precision: model.Year,
			want:      24,
		},
		{
			name:      "whole years, birthday not yet reached this year",
			from:      time.Date(2000, time.December, 15, 0, 0, 0, 0, time.UTC),
			to:        time.Date(2024, time.July, 31, 0, 0, 0, 0, time.UTC),
			precision: model.Year,
			want:      23,
		},
		{
			name:      "whole months, day of month not yet reached",
			from:      time.Date(2024, time.January, 20, 0, 0, 0, 0, time.UTC),
			to:        time.Date(2024, time.July, 10, 0, 0, 0, 0, time.UTC),
			precision: model.Month,
			want:      5,
		},
		{
			name:      "whole days",
			from:      time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC),
			to:        time.Date(2024, time.July, 31, 0, 0, 0, 0, time.UTC),
			precision: model.Day,
			want:      30,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := ageBetween(test.from, test.to, test.precision); got != test.want {
				t.Errorf("ageBetween(%v, %v, %v) = %d, want %d", test.from, test.to, test.precision, got, test.want)
			}
		})
	}
}

func TestEvalCalculateAge(t *testing.T) {
	birthDate := &model.Date{
		NaryExpression: model.NaryExpression{
			Operands: []model.IExpression{
				model.NewLiteral("1990", types.Integer),
				model.NewLiteral("6", types.Integer),
				model.NewLiteral("15", types.Integer),
			},
		},
	}
	lib := wrapInLib(t, &model.CalculateAge{
		UnaryExpression: model.UnaryExpression{Operand: birthDate},
		Precision:       model.Year,
	})
	results, err := Eval(context.Background(), []*model.Library{lib}, defaultInterpreterConfig(t))
	if err != nil {
		t.Fatalf("Eval() returned unexpected error: %v", err)
	}
	mustEqual(t, "TESTRESULT", getResult(t, results), newOrFatal(t, int32(33)))
}
