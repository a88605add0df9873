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

package cql_test

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/lithammer/dedent"

	"github.com/lattice-health/cqlcore/cql"
	"github.com/lattice-health/cqlcore/result"
	"github.com/lattice-health/cqlcore/retriever/local"
)

// This example demonstrates the CQL API by finding the Observations recorded for a patient during
// a measurement period.
func Example() {
	// In this example we are returning the ID of the first Observation recorded during the
	// measurement period.
	libs := []string{
		dedent.Dedent(`
		library Example version '1.2.3'
		parameter MeasurementPeriod Interval<Integer>
		context Patient

		define EffectiveObservations: [Observation] O where O.effectiveYear in MeasurementPeriod return O.id
		define FirstObservation: First(EffectiveObservations)
		`),
	}

	// TODO(b/335206660): Golang contexts are not yet properly supported by our engine.
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	// Parameters override the values of the parameters defined in the CQL library. Parameters are a
	// map from the library/parameter name to a string CQL literal. Any valid CQL literal syntax will
	// be accepted, such as 400 or List<Choice<Integer, String>>{1, 'stringParam'}. In this example we
	// override the MeasurementPeriod parameter to the years 2017 through 2019.
	parameters := map[result.DefKey]string{
		{
			Library: result.LibKey{Name: "Example", Version: "1.2.3"},
			Name:    "MeasurementPeriod",
		}: "Interval[2017, 2019]",
	}

	// Parse parses the libraries and parameters. CompiledLibraries holds the parsed CQL, ready to be
	// evaluated as many times as needed. Anything in the ParseConfig is optional.
	compiled, err := cql.Parse(ctx, libs, cql.ParseConfig{Parameters: parameters})
	if err != nil {
		log.Fatalf("Failed to parse: %v", err)
	}

	for _, id := range []string{"PatientID1", "PatientID2"} {
		// The retriever is used by the interpreter to fetch resources on each CQL retrieve. In this
		// case we are in the `context Patient` and call `[Observation]`, so the retriever supplies
		// every Observation document loaded for this run.
		ds, err := newPatientDataSource(id)
		if err != nil {
			log.Fatalf("Failed to build data source: %v", err)
		}

		// Eval executes the compiled CQL against this particular instantiation of the data source.
		// Anything in EvalConfig is optional.
		results, err := compiled.Eval(ctx, ds, cql.EvalConfig{})
		if err != nil {
			log.Fatalf("Failed to evaluate: %v", err)
		}

		// The results are stored in maps, and can be accessed via [result.LibKey][Definition]. The CQL
		// string, list, integers... are stored in result.Value and can be converted to a golang value
		// via GolangValue() or by passing the result.Value to a helper like result.ToString. Another
		// option is to use MarshalJSON() to convert the result.Value to json, see the result package
		// for more details.
		observationID := results[result.LibKey{Name: "Example", Version: "1.2.3"}]["FirstObservation"]

		if result.IsNull(observationID) {
			fmt.Printf("ID %v: null\n", id)
		} else {
			golangStr, err := result.ToString(observationID)
			if err != nil {
				log.Fatalf("Failed to get golang string: %v", err)
			}
			fmt.Printf("ID %v: %v\n", id, golangStr)
		}
	}

	// Output:
	// ID PatientID1: null
	// ID PatientID2: Observation2
}

// newPatientDataSource builds an in-memory data source holding the single Observation recorded
// for patientID.
func newPatientDataSource(patientID string) (*local.DataSource, error) {
	observations := map[string]string{
		"PatientID1": `{"resourceType": "Observation", "id": "Observation1", "effectiveYear": 2012}`,
		"PatientID2": `{"resourceType": "Observation", "id": "Observation2", "effectiveYear": 2018}`,
	}
	doc, ok := observations[patientID]
	if !ok {
		return nil, fmt.Errorf("invalid patient id %v", patientID)
	}
	return local.NewDataSource([]string{doc}, nil)
}
