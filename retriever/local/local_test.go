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

package local

import (
	"context"
	"testing"

	"github.com/lattice-health/cqlcore/retriever"
	"github.com/lattice-health/cqlcore/terminology"
)

func TestDataSourceRetrieve(t *testing.T) {
	docs := []string{
		`{"resourceType": "Patient", "id": "1"}`,
		`{"resourceType": "Patient", "id": "2"}`,
		`{"resourceType": "Observation", "id": "1"}`,
	}
	ds, err := NewDataSource(docs, nil)
	if err != nil {
		t.Fatalf("NewDataSource() failed: %v", err)
	}

	got, err := ds.Retrieve(context.Background(), "Patient", nil)
	if err != nil {
		t.Fatalf("Retrieve(Patient) got err: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("Retrieve(Patient) returned %d resources, want 2", len(got))
	}

	got, err = ds.Retrieve(context.Background(), "Condition", nil)
	if err != nil {
		t.Fatalf("Retrieve(Condition) got err: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Retrieve(Condition) returned %d resources, want 0", len(got))
	}
}

func TestDataSourceRetrieveFilteredByCode(t *testing.T) {
	docs := []string{
		`{"resourceType": "Observation", "id": "1", "code": {"code": "1234-5", "system": "http://loinc.org"}}`,
		`{"resourceType": "Observation", "id": "2", "code": {"code": "9999-9", "system": "http://loinc.org"}}`,
	}
	ds, err := NewDataSource(docs, nil)
	if err != nil {
		t.Fatalf("NewDataSource() failed: %v", err)
	}

	filter := &retriever.Filter{
		CodePath: "code",
		Codes:    []terminology.Code{{Code: "1234-5", System: "http://loinc.org"}},
	}
	got, err := ds.Retrieve(context.Background(), "Observation", filter)
	if err != nil {
		t.Fatalf("Retrieve(Observation, filtered) got err: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Retrieve(Observation, filtered) returned %d resources, want 1", len(got))
	}
	if got[0].Value["id"].GolangValue() != "1" {
		t.Errorf("Retrieve(Observation, filtered) returned id %v, want 1", got[0].Value["id"].GolangValue())
	}
}
