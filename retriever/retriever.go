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

// Package retriever defines the interface between the CQL engine and the data source CQL will be
// evaluated over. Those using the engine must supply an implementation of DataSource.
package retriever

import (
	"context"

	"github.com/lattice-health/cqlcore/result"
	"github.com/lattice-health/cqlcore/terminology"
)

// Filter narrows a Retrieve call to resources coded within a single value set or code system,
// restricted to a given property path on the resource (e.g. "code" or "category").
type Filter struct {
	// CodePath is the resource property the filter applies to. Empty means the retrieve clause
	// supplied no terminology filter at all.
	CodePath string
	// Codes, when non-nil, restricts results to resources carrying one of these codes at
	// CodePath. Mutually exclusive with ValueSet.
	Codes []terminology.Code
	// ValueSet, when non-empty, restricts results to resources carrying any code in the named
	// value set at CodePath. Mutually exclusive with Codes.
	ValueSet string
}

// DataSource is the interface between the CQL engine and the data it evaluates over. A retrieve
// expression with DataType "Patient" and Context "Patient" resolves to a single call to Retrieve.
type DataSource interface {
	// Retrieve returns every resource of resourceType visible in the current evaluation context
	// (the Context field of the EvaluationContext that commissioned the call, e.g. a single
	// patient id), optionally narrowed by filter. A nil filter means no terminology narrowing.
	Retrieve(ctx context.Context, resourceType string, filter *Filter) ([]result.Named, error)
}
