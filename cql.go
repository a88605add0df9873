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

// Package cql is the top-level entry point: Parse compiles CQL source into a CompiledLibraries
// value, which Eval then evaluates against a retriever.DataSource as many times as needed (once
// per patient, typically), mirroring the two-phase parse-once-evaluate-many workflow CQL engines
// are built around.
package cql

import (
	"context"
	"time"

	"github.com/lattice-health/cqlcore/interpreter"
	"github.com/lattice-health/cqlcore/model"
	"github.com/lattice-health/cqlcore/parser"
	"github.com/lattice-health/cqlcore/result"
	"github.com/lattice-health/cqlcore/retriever"
	"github.com/lattice-health/cqlcore/terminology"
)

// ParseConfig configures the parsing of CQL source into CompiledLibraries.
type ParseConfig struct {
	// Terminology is consulted to validate `in "ValueSet"`/`in "CodeSystem"` terminology
	// references at parse time. It may be nil if the libraries being parsed never reference one.
	Terminology terminology.Provider

	// Parameters maps a (library, parameter name) DefKey to a CQL literal text, overriding that
	// parameter's declared default at evaluation time. A parameter value must be a CQL literal,
	// selector, or interval expression; it cannot be an expression definition, cannot reference
	// other definitions, and cannot call functions. Parameters is optional and may be nil.
	Parameters map[result.DefKey]string
}

// Parse compiles every CQL source in libs into a CompiledLibraries ready for evaluation. A
// library's `include` statements may name any other library in libs regardless of slice order.
// Errors returned by Parse are always a *parser.LibraryErrors or *parser.ParameterErrors.
func Parse(ctx context.Context, libs []string, config ParseConfig) (*CompiledLibraries, error) {
	p := parser.New(config.Terminology)
	parsedLibs, err := p.Libraries(libs)
	if err != nil {
		return nil, err
	}

	parsedParams := make(map[result.DefKey]model.IExpression, len(config.Parameters))
	for key, src := range config.Parameters {
		expr, err := p.Parameter(key, src)
		if err != nil {
			return nil, err
		}
		parsedParams[key] = expr
	}

	return &CompiledLibraries{parsedParams: parsedParams, parsedLibs: parsedLibs}, nil
}

// EvalConfig configures the interpreter to evaluate compiled CQL to final results.
type EvalConfig struct {
	// Terminology is consulted for `in "ValueSet"`/`in "CodeSystem"` membership tests and the
	// Expand built-in during evaluation. It may be nil if the CQL being evaluated does not use
	// terminology.
	Terminology terminology.Provider

	// EvaluationTimestamp anchors Now(), Today(), and TimeOfDay() to a fixed instant. If the zero
	// value, it defaults to time.Now() at the start of Eval.
	EvaluationTimestamp time.Time

	// ReturnPrivateDefs, when true, includes private definitions in the returned result.Libraries.
	// By default only public definitions are returned.
	ReturnPrivateDefs bool
}

// CompiledLibraries is a set of parsed CQL libraries, ready to be evaluated. A CompiledLibraries
// is immutable after Parse returns and safe to share by reference across goroutines; Eval itself
// should not be called concurrently on the same CompiledLibraries value.
type CompiledLibraries struct {
	parsedParams map[result.DefKey]model.IExpression
	parsedLibs   []*model.Library
}

// Eval evaluates the compiled libraries against ds, the interface through which the interpreter
// retrieves external data. To evaluate against a particular patient's data, construct a
// retriever.DataSource scoped to that patient and call Eval once per patient. ds may be nil if
// the CQL does not retrieve external data. Errors the evaluator categorises are returned as a
// *result.EngineError; errors from operand conversions and some other paths are returned without
// that wrapper.
func (c *CompiledLibraries) Eval(ctx context.Context, ds retriever.DataSource, config EvalConfig) (result.Libraries, error) {
	return interpreter.Eval(ctx, c.parsedLibs, interpreter.Config{
		Parameters:          c.parsedParams,
		Retriever:           ds,
		Terminology:         config.Terminology,
		EvaluationTimestamp: config.EvaluationTimestamp,
		ReturnPrivateDefs:   config.ReturnPrivateDefs,
	})
}

// Libraries returns the compiled library trees, in the order passed to Parse. This is the
// extension point for consumers that need the tree itself rather than an evaluated result — the
// ELM serializer (package elm) and cmd/cli's -print-tree flag both use it.
func (c *CompiledLibraries) Libraries() []*model.Library {
	return c.parsedLibs
}
