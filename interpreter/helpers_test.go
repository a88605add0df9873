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

package interpreter

import (
	"testing"
	"time"

	"github.com/lattice-health/cqlcore/model"
	"github.com/lattice-health/cqlcore/result"
)

var defaultEvalTimestamp = time.Date(2024, 1, 1, 0, 0, 0, 0, time.FixedZone("Fixed", 4*60*60))

func defaultInterpreterConfig(t testing.TB) Config {
	t.Helper()
	return Config{
		EvaluationTimestamp: defaultEvalTimestamp,
		ReturnPrivateDefs:   true,
	}
}

func wrapInLib(t *testing.T, expr model.IExpression) *model.Library {
	t.Helper()
	return &model.Library{
		Identifier: &model.LibraryIdentifier{Local: "TESTLIB", Version: "1.0.0"},
		Statements: &model.Statements{
			Defs: []model.IExpressionDef{
				&model.ExpressionDef{
					Name:       "TESTRESULT",
					Expression: expr,
				},
			},
		},
	}
}

func newOrFatal(t *testing.T, a any) result.Value {
	t.Helper()
	o, err := result.New(a)
	if err != nil {
		t.Fatalf("New(%v) returned unexpected error: %v", a, err)
	}
	return o
}

func getResult(t *testing.T, libs result.Libraries) result.Value {
	t.Helper()
	for _, defs := range libs {
		if v, ok := defs["TESTRESULT"]; ok {
			return v
		}
	}
	t.Fatal("TESTRESULT was not present in evaluation results")
	return result.Value{}
}
