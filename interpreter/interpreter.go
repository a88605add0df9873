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

// Package interpreter evaluates the model.go intermediate representation produced by the parser.
// Each library-level definition is registered as a lazily-evaluated, memoized thunk: evaluation
// happens only when a definition is first referenced (directly or through a public result), the
// computed result.Value is cached for every later reference, and a definition re-entered while its
// own evaluation is still in flight raises a result.KindRecursion error.
package interpreter

import (
	"context"
	"fmt"
	"time"

	"github.com/lattice-health/cqlcore/internal/reference"
	"github.com/lattice-health/cqlcore/model"
	"github.com/lattice-health/cqlcore/result"
	"github.com/lattice-health/cqlcore/retriever"
	"github.com/lattice-health/cqlcore/terminology"
	"github.com/lattice-health/cqlcore/types"
)

// Config configures the evaluation of a set of parsed CQL libraries.
type Config struct {
	// Parameters supplies parameter values keyed by (library, parameter name), overriding each
	// parameter's declared default. A parameter with neither an entry here nor a default
	// evaluates to Null.
	Parameters map[result.DefKey]model.IExpression
	// Retriever is consulted for every Retrieve expression. It may be nil if none of the
	// evaluated libraries retrieve external data.
	Retriever retriever.DataSource
	// Terminology is consulted for `in "ValueSet"`/`in "CodeSystem"` membership tests and for the
	// Expand built-in. It may be nil if none of the evaluated libraries use terminology.
	Terminology terminology.Provider
	// EvaluationTimestamp anchors Now(), Today(), and TimeOfDay() to a fixed instant so that a
	// single evaluation run is internally consistent. The zero value means time.Now().
	EvaluationTimestamp time.Time
	// ReturnPrivateDefs, when true, includes private definitions in the returned result.Libraries.
	// By default only public definitions are returned.
	ReturnPrivateDefs bool
}

// Eval evaluates libs, in the order given, and returns every public (or public-and-private, if
// configured) definition's value. libs must already be ordered so that an including library
// appears after every library it includes. Errors the evaluator categorises are returned as a
// *result.EngineError; errors from operand conversions and some other paths are returned without
// that wrapper.
func Eval(ctx context.Context, libs []*model.Library, config Config) (result.Libraries, error) {
	ts := config.EvaluationTimestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	i := &interpreter{
		ctx:                 ctx,
		refs:                reference.NewResolver[*defThunk, *model.FunctionDef](),
		funcLibs:            make(map[*model.FunctionDef]reference.LibraryToken),
		retriever:           config.Retriever,
		terminologyProvider: config.Terminology,
		evaluationTimestamp: ts,
	}

	for _, lib := range libs {
		if err := i.registerLibrary(lib, config.Parameters); err != nil {
			return nil, err
		}
	}

	if config.ReturnPrivateDefs {
		return i.collect(true)
	}
	return i.collect(false)
}

// interpreter holds the state shared across the evaluation of an entire set of libraries: the
// reference resolver (storing a *defThunk per definition/alias, rather than a resolved value
// directly, so that evaluation can be deferred), the external data and terminology hooks, and the
// fixed evaluation timestamp.
type interpreter struct {
	ctx      context.Context
	refs     *reference.Resolver[*defThunk, *model.FunctionDef]
	funcLibs map[*model.FunctionDef]reference.LibraryToken

	retriever           retriever.DataSource
	terminologyProvider terminology.Provider
	evaluationTimestamp time.Time
}

// defThunk is a library-level definition awaiting evaluation. A thunk constructed with resolved
// set is already a value (used for CodeSystemDefs, ValuesetDefs, CodeDefs, ConceptDefs, and
// query-scoped aliases, none of which can be recursive); one constructed with expr set (expression
// definitions and parameters) is forced on first reference via (*interpreter).force.
type defThunk struct {
	key    result.DefKey
	libTok reference.LibraryToken
	expr   model.IExpression

	resolved   bool
	evaluating bool
	value      result.Value
}

func resolvedThunk(v result.Value) *defThunk {
	return &defThunk{resolved: true, value: v}
}

// force evaluates t if it has not been evaluated yet, caching and returning the result on every
// subsequent call. The resolver's current-library context is switched to the library that
// declared t for the duration of the evaluation, so that references inside t's expression resolve
// against their own library rather than whichever library happened to be current at the caller's
// site, then restored.
func (i *interpreter) force(t *defThunk) (result.Value, error) {
	if t.resolved {
		return t.value, nil
	}
	if t.evaluating {
		return result.Value{}, result.NewEngineError(t.key.Name, result.KindRecursion, fmt.Errorf("%s is defined in terms of itself", t.key.Name))
	}

	t.evaluating = true
	caller := i.refs.CurrentLibrary()
	i.refs.EnterLibrary(t.libTok)
	v, err := i.evalExpression(t.expr)
	i.refs.EnterLibrary(caller)
	t.evaluating = false
	if err != nil {
		return result.Value{}, err
	}
	t.resolved = true
	t.value = v
	return v, nil
}

// collect forces and returns every definition PublicDefs (or PublicAndPrivateDefs, if
// returnPrivate) exposes, assembled into a result.Libraries.
func (i *interpreter) collect(returnPrivate bool) (result.Libraries, error) {
	var raw map[result.LibKey]map[string]*defThunk
	var err error
	if returnPrivate {
		raw, err = i.refs.PublicAndPrivateDefs()
	} else {
		raw, err = i.refs.PublicDefs()
	}
	if err != nil {
		return nil, result.NewEngineError("", result.KindCompile, err)
	}

	out := make(result.Libraries, len(raw))
	for lk, defs := range raw {
		vals := make(map[string]result.Value, len(defs))
		for name, t := range defs {
			v, err := i.force(t)
			if err != nil {
				return nil, err
			}
			vals[name] = v
		}
		out[lk] = vals
	}
	return out, nil
}

// registerLibrary defines every CodeSystem, Valueset, Code, Concept, Parameter, included library,
// function, and expression definition lib declares. Expression definitions and parameters are
// registered as unevaluated thunks; CodeSystems, Valuesets, Codes, and Concepts are resolved
// immediately, since none of them can recurse.
func (i *interpreter) registerLibrary(lib *model.Library, passedParams map[result.DefKey]model.IExpression) error {
	if lib.Identifier != nil {
		if err := i.refs.SetCurrentLibrary(lib.Identifier); err != nil {
			return result.NewEngineError(lib.Identifier.Local, result.KindCompile, err)
		}
	} else {
		i.refs.SetCurrentUnnamed()
	}
	libTok := i.refs.CurrentLibrary()
	lKey := result.LibKeyFromModel(lib.Identifier)

	if err := i.registerParameters(lib, lKey, libTok, passedParams); err != nil {
		return err
	}

	// CodeSystems are registered before Valuesets and Codes, which may reference them by name.
	for _, cs := range lib.CodeSystems {
		v, err := result.New(result.CodeSystem{ID: cs.ID, Version: cs.Version})
		if err != nil {
			return result.NewEngineError(cs.Name, result.KindCompile, err)
		}
		if err := i.define(cs.Name, cs.AccessLevel == model.Public, v); err != nil {
			return result.NewEngineError(cs.Name, result.KindCompile, err)
		}
	}

	for _, vs := range lib.Valuesets {
		v, err := result.New(result.ValueSet{ID: vs.ID, Version: vs.Version})
		if err != nil {
			return result.NewEngineError(vs.Name, result.KindCompile, err)
		}
		if err := i.define(vs.Name, vs.AccessLevel == model.Public, v); err != nil {
			return result.NewEngineError(vs.Name, result.KindCompile, err)
		}
	}

	for _, c := range lib.Codes {
		if c.CodeSystem == nil {
			return result.NewEngineError(c.Name, result.KindCompile, fmt.Errorf("code %q declares no code system", c.Name))
		}
		csVal, err := i.evalExpression(c.CodeSystem)
		if err != nil {
			return err
		}
		cs, err := result.ToCodeSystem(csVal)
		if err != nil {
			return result.NewEngineError(c.Name, result.KindType, err)
		}
		v, err := result.New(result.Code{Code: c.Code, System: cs.ID, Version: cs.Version, Display: c.Display})
		if err != nil {
			return result.NewEngineError(c.Name, result.KindCompile, err)
		}
		if err := i.define(c.Name, c.AccessLevel == model.Public, v); err != nil {
			return result.NewEngineError(c.Name, result.KindCompile, err)
		}
	}

	for _, c := range lib.Concepts {
		codes := make([]result.Code, 0, len(c.Codes))
		for _, ref := range c.Codes {
			cv, err := i.evalExpression(ref)
			if err != nil {
				return err
			}
			code, err := result.ToCode(cv)
			if err != nil {
				return result.NewEngineError(c.Name, result.KindType, err)
			}
			codes = append(codes, code)
		}
		v, err := result.New(result.Concept{Codes: codes, Display: c.Display})
		if err != nil {
			return result.NewEngineError(c.Name, result.KindCompile, err)
		}
		if err := i.define(c.Name, c.AccessLevel == model.Public, v); err != nil {
			return result.NewEngineError(c.Name, result.KindCompile, err)
		}
	}

	for _, inc := range lib.Includes {
		if err := i.refs.IncludeLibrary(inc.Identifier, false); err != nil {
			return result.NewEngineError(inc.LocalIdentifier, result.KindCompile, err)
		}
	}

	if lib.Statements != nil {
		for _, def := range lib.Statements.Defs {
			switch d := def.(type) {
			case *model.ExpressionDef:
				t := &defThunk{
					key:    result.DefKey{Name: d.Name, Library: lKey},
					libTok: libTok,
					expr:   d.Expression,
				}
				if err := i.refs.Define(&reference.Def[*defThunk]{Name: d.Name, Result: t, IsPublic: d.AccessLevel == model.Public}); err != nil {
					return result.NewEngineError(d.Name, result.KindCompile, err)
				}
			case *model.FunctionDef:
				i.funcLibs[d] = libTok
				f := &reference.Func[*model.FunctionDef]{
					Name:     d.Name,
					Arity:    len(d.Operands),
					Result:   d,
					IsPublic: d.AccessLevel == model.Public,
					IsFluent: d.Fluent,
				}
				if err := i.refs.DefineFunc(f); err != nil {
					return result.NewEngineError(d.Name, result.KindCompile, err)
				}
			default:
				return result.NewEngineError("", result.KindCompile, fmt.Errorf("internal error: unsupported statement type %T", def))
			}
		}
	}

	return nil
}

func (i *interpreter) registerParameters(lib *model.Library, lKey result.LibKey, libTok reference.LibraryToken, passedParams map[result.DefKey]model.IExpression) error {
	if lib.Identifier == nil && len(lib.Parameters) > 0 {
		return result.NewEngineError(lib.Parameters[0].Name, result.KindCompile, fmt.Errorf("unnamed libraries cannot declare parameters"))
	}
	for _, param := range lib.Parameters {
		key := result.DefKey{Name: param.Name, Library: lKey}
		expr := param.Default
		if passed, ok := passedParams[key]; ok {
			expr = passed
		}
		if expr == nil {
			expr = model.NewLiteral("", types.Any)
		}
		t := &defThunk{key: key, libTok: libTok, expr: expr}
		if err := i.refs.Define(&reference.Def[*defThunk]{Name: param.Name, Result: t, IsPublic: param.AccessLevel == model.Public}); err != nil {
			return result.NewEngineError(param.Name, result.KindCompile, err)
		}
	}
	return nil
}

func (i *interpreter) define(name string, isPublic bool, v result.Value) error {
	return i.refs.Define(&reference.Def[*defThunk]{Name: name, Result: resolvedThunk(v), IsPublic: isPublic})
}
