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

// Package reference handles resolving references across CQL libraries and locally within a library
// for the CQL Engine parser and interpreter.
package reference

import (
	"errors"
	"fmt"

	"github.com/lattice-health/cqlcore/model"
	"github.com/lattice-health/cqlcore/result"
)

// Resolver tracks definitions (ExpressionDefs, ParameterDefs, ValueSetDefs...), functions, and
// aliases across CQL libraries and locally within a CQL library. When a definition is created the
// resolver stores a result (for the parser a model.IExpression, for the interpreter a
// result.Value). Resolvers should not be shared between the parser and interpreter; a new empty
// resolver should be passed to the interpreter.
//
// Functions are resolved by name and arity alone: there is no static type-based overload
// resolution. Registering a second function under the same (library, name, arity) replaces the
// first — last registration wins.
type Resolver[T any, F any] struct {
	defs  map[defKey]exprDef[T]
	funcs map[funcKey]funcDef[F]

	// builtinFuncs holds CQL built-in functions, used only by the parser: it converts every
	// built-in call into its own model.go node, so the interpreter never resolves a built-in by
	// name.
	builtinFuncs map[builtinKey]F

	// aliases work like a stack and are cleared once the scope in which the alias was defined is
	// exited. Aliases live in the same namespace as definitions.
	aliases []map[aliasKey]T

	// libs holds the qualified identifier of all named libraries that have been parsed.
	libs map[namedLibKey]struct{}

	// includedLibs maps the local identifier of an included library to its qualified identifier.
	includedLibs map[includeKey]*model.LibraryIdentifier

	currLib      libKey
	unnamedCount int
}

type exprDef[T any] struct {
	isPublic bool
	result   T
}

type funcDef[F any] struct {
	isPublic bool
	isFluent bool
	result   F
}

// NewResolver creates a blank resolver with zero global references. Type T is the type saved and
// resolved for definitions. Type F is the type saved and resolved for functions.
func NewResolver[T any, F any]() *Resolver[T, F] {
	return &Resolver[T, F]{
		defs:         make(map[defKey]exprDef[T]),
		funcs:        make(map[funcKey]funcDef[F]),
		builtinFuncs: make(map[builtinKey]F),
		aliases:      make([]map[aliasKey]T, 0),
		libs:         make(map[namedLibKey]struct{}),
		includedLibs: make(map[includeKey]*model.LibraryIdentifier),
	}
}

// ClearDefs clears everything except for the built-in functions.
func (r *Resolver[T, F]) ClearDefs() {
	r.defs = make(map[defKey]exprDef[T])
	r.funcs = make(map[funcKey]funcDef[F])
	r.aliases = make([]map[aliasKey]T, 0)
	r.libs = make(map[namedLibKey]struct{})
	r.includedLibs = make(map[includeKey]*model.LibraryIdentifier)
}

// SetCurrentLibrary sets the current library based on the library definition. Either
// SetCurrentLibrary or SetCurrentUnnamed must be called before creating and resolving references.
func (r *Resolver[T, F]) SetCurrentLibrary(m *model.LibraryIdentifier) error {
	l := namedLibKey{local: m.Local, version: m.Version}
	if _, ok := r.libs[l]; ok {
		return fmt.Errorf("library %s %s already exists", m.Local, m.Version)
	}
	r.currLib = l
	r.libs[l] = struct{}{}
	return nil
}

// SetCurrentUnnamed should be called if the CQL library does not have a library definition. All
// definitions in unnamed libraries are private.
func (r *Resolver[T, F]) SetCurrentUnnamed() {
	r.currLib = unnamedLibKey{unnamedID: r.unnamedCount}
	r.unnamedCount++
}

// LibraryToken opaquely identifies a library's resolver context, captured with CurrentLibrary and
// later restored with EnterLibrary.
type LibraryToken struct{ key libKey }

// CurrentLibrary captures an opaque token for whichever library is currently selected.
func (r *Resolver[T, F]) CurrentLibrary() LibraryToken {
	return LibraryToken{r.currLib}
}

// EnterLibrary restores the resolver's current-library context to a token captured earlier with
// CurrentLibrary. Unlike SetCurrentLibrary/SetCurrentUnnamed, it never registers or validates the
// library: it is for re-entering a context that was already established once, which the
// interpreter needs when it forces a lazily-evaluated definition or calls a function declared in
// a different library than the one currently selected.
func (r *Resolver[T, F]) EnterLibrary(tok LibraryToken) {
	r.currLib = tok.key
}

// IncludeLibrary should be called for each include statement in the CQL library. IncludeLibrary
// must be called before a reference to that library is resolved. validateIsUnique validates this
// include is unique; it is turned off by the interpreter to improve performance.
func (r *Resolver[T, F]) IncludeLibrary(m *model.LibraryIdentifier, validateIsUnique bool) error {
	if validateIsUnique {
		if err := r.isLocallyUnique(m.Local); err != nil {
			return err
		}
	}

	lib := namedLibKey{local: m.Local, version: m.Version}
	if _, ok := r.libs[lib]; !ok {
		return fmt.Errorf("library %s %s was included, but does not exist", m.Local, m.Version)
	}

	r.includedLibs[includeKey{localID: m.Local, includedBy: r.currLib}] = m
	return nil
}

// ResolveInclude takes the local name of an included library and returns the fully qualified
// identifier, or nil if this local name does not exist.
func (r *Resolver[T, F]) ResolveInclude(name string) *model.LibraryIdentifier {
	iKey := includeKey{localID: name, includedBy: r.currLib}
	if i, ok := r.includedLibs[iKey]; ok {
		return i
	}
	return nil
}

// Def holds the information needed to define a definition.
type Def[T any] struct {
	Name     string
	Result   T
	IsPublic bool
	// ValidateIsUnique validates this definition name is unique. It is turned off by the interpreter
	// to improve performance.
	ValidateIsUnique bool
}

// Define creates a new definition, returning an error if the name already exists. Calling
// ResolveLocal with the same name will return the stored value. Names must be unique within the
// CQL library, and unique regardless of definition kind.
func (r *Resolver[T, F]) Define(d *Def[T]) error {
	if d.ValidateIsUnique {
		if err := r.isLocallyUnique(d.Name); err != nil {
			return err
		}
	}

	_, isUnnamed := r.currLib.(unnamedLibKey)
	r.defs[defKey{r.currLib, d.Name}] = exprDef[T]{isPublic: d.IsPublic && !isUnnamed, result: d.Result}
	return nil
}

// Func holds the information needed to define a function.
type Func[F any] struct {
	Name     string
	Arity    int
	Result   F
	IsPublic bool
	IsFluent bool
}

// DefineFunc registers a user-defined function under (current library, name, arity). A second
// registration with the same key silently replaces the first, per CQL's last-registration-wins
// overload rule.
func (r *Resolver[T, F]) DefineFunc(f *Func[F]) error {
	_, isUnnamed := r.currLib.(unnamedLibKey)
	fKey := funcKey{library: r.currLib, name: f.Name, arity: f.Arity}
	r.funcs[fKey] = funcDef[F]{isPublic: f.IsPublic && !isUnnamed, isFluent: f.IsFluent, result: f.Result}
	return nil
}

// DefineBuiltinFunc registers a built-in function under (name, arity). All built-in functions must
// be registered before any CQL library is parsed. Only the parser defines built-in functions.
func (r *Resolver[T, F]) DefineBuiltinFunc(name string, arity int, f F) error {
	bKey := builtinKey{name: name, arity: arity}
	if _, ok := r.builtinFuncs[bKey]; ok {
		return fmt.Errorf("internal error - built-in CQL function %v with arity %d already exists", name, arity)
	}
	r.builtinFuncs[bKey] = f
	return nil
}

// ResolveGlobal resolves a reference to a definition in an included CQL library.
func (r *Resolver[T, F]) ResolveGlobal(libName string, defName string) (T, error) {
	iKey := includeKey{localID: libName, includedBy: r.currLib}
	qKey, ok := r.includedLibs[iKey]
	if !ok {
		return zero[T](), fmt.Errorf("could not resolve the library name %s", libName)
	}

	dKey := defKey{namedLibKey{local: qKey.Local, version: qKey.Version}, defName}
	a, ok := r.defs[dKey]
	if !ok {
		return zero[T](), fmt.Errorf("could not resolve the reference to %s.%s", libName, defName)
	}
	if !a.isPublic {
		return zero[T](), fmt.Errorf("%s.%s is not public", libName, defName)
	}

	return a.result, nil
}

// ResolveGlobalFunc resolves a reference to a user-defined function of the given arity in an
// included CQL library.
func (r *Resolver[T, F]) ResolveGlobalFunc(libName, defName string, arity int, calledFluently bool) (F, error) {
	iKey := includeKey{localID: libName, includedBy: r.currLib}
	qKey, ok := r.includedLibs[iKey]
	if !ok {
		return zero[F](), fmt.Errorf("could not resolve the library name %s", libName)
	}

	fKey := funcKey{library: namedLibKey{local: qKey.Local, version: qKey.Version}, name: defName, arity: arity}
	fDef, ok := r.funcs[fKey]
	if !ok {
		return zero[F](), fmt.Errorf("could not resolve the reference to function %s.%s/%d", libName, defName, arity)
	}
	if !fDef.isPublic {
		return zero[F](), fmt.Errorf("function %s.%s/%d is not public", libName, defName, arity)
	}
	if calledFluently && !fDef.isFluent {
		return zero[F](), fmt.Errorf("function %s.%s/%d is not fluent", libName, defName, arity)
	}
	return fDef.result, nil
}

// ResolveLocal resolves a reference to a definition or alias in the current CQL library.
func (r *Resolver[T, F]) ResolveLocal(name string) (T, error) {
	dKey := defKey{r.currLib, name}
	if a, ok := r.defs[dKey]; ok {
		return a.result, nil
	}

	aKey := aliasKey{r.currLib, name}
	if a, ok := r.findAlias(aKey); ok {
		return a, nil
	}

	return zero[T](), fmt.Errorf("could not resolve the local reference to %s", name)
}

// ResolveLocalFunc resolves a reference to a user-defined or built-in function of the given arity
// in the current CQL library. User-defined functions shadow built-ins of the same name and arity.
func (r *Resolver[T, F]) ResolveLocalFunc(name string, arity int, calledFluently bool) (F, error) {
	fKey := funcKey{library: r.currLib, name: name, arity: arity}
	if fDef, ok := r.funcs[fKey]; ok {
		if !calledFluently || fDef.isFluent {
			return fDef.result, nil
		}
	}

	bKey := builtinKey{name: name, arity: arity}
	if f, ok := r.builtinFuncs[bKey]; ok {
		return f, nil
	}

	return zero[F](), fmt.Errorf("could not resolve function %s with %d operand(s)", name, arity)
}

// EnterScope starts a new scope for aliases. ExitScope should be called to remove all aliases
// created since.
func (r *Resolver[T, F]) EnterScope() {
	r.aliases = append(r.aliases, make(map[aliasKey]T))
}

// ExitScope clears any aliases created since the last call to EnterScope.
func (r *Resolver[T, F]) ExitScope() {
	if len(r.aliases) > 0 {
		r.aliases = r.aliases[:len(r.aliases)-1]
	}
}

// Alias creates a new alias within the current scope. When ExitScope is called all aliases in the
// scope are removed. Names must be unique within the CQL library.
func (r *Resolver[T, F]) Alias(name string, a T) error {
	if len(r.aliases) == 0 {
		return errors.New("internal error - EnterScope must be called before creating an alias")
	}
	if err := r.isLocallyUnique(name); err != nil {
		return err
	}
	aKey := aliasKey{r.currLib, name}
	r.aliases[len(r.aliases)-1][aKey] = a
	return nil
}

// PublicDefs returns the public definitions stored in the reference resolver.
func (r *Resolver[T, F]) PublicDefs() (map[result.LibKey]map[string]T, error) {
	pDefs := make(map[result.LibKey]map[string]T)
	for k, v := range r.defs {
		if !v.isPublic {
			continue
		}
		namedK, ok := k.library.(namedLibKey)
		if !ok {
			return nil, fmt.Errorf("internal error - %v is not a namedLibKey", k.library)
		}
		lKey := result.LibKey{Name: namedK.local, Version: namedK.version}
		if _, ok := pDefs[lKey]; !ok {
			pDefs[lKey] = make(map[string]T)
		}
		pDefs[lKey][k.name] = v.result
	}
	return pDefs, nil
}

// PublicAndPrivateDefs returns all public and private definitions, including definitions in
// unnamed libraries. Unnamed libraries are rendered as UnnamedLibrary-0 1.0, UnnamedLibrary-1 1.0
// and so on, which can clash with a named library that happens to share that name — so this should
// only be used for tests and the CLI, never for normal engine execution.
func (r *Resolver[T, F]) PublicAndPrivateDefs() (map[result.LibKey]map[string]T, error) {
	defs := make(map[result.LibKey]map[string]T)
	for k, v := range r.defs {
		var lKey result.LibKey
		switch tk := k.library.(type) {
		case namedLibKey:
			lKey = result.LibKey{Name: tk.local, Version: tk.version}
		case unnamedLibKey:
			lKey = result.LibKey{Name: fmt.Sprintf("UnnamedLibrary-%d", tk.unnamedID), Version: "1.0"}
		default:
			return nil, fmt.Errorf("internal error - %v is an unexpected key type", k.library)
		}

		if _, ok := defs[lKey]; !ok {
			defs[lKey] = make(map[string]T)
		}
		defs[lKey][k.name] = v.result
	}
	return defs, nil
}

func (r *Resolver[T, F]) isLocallyUnique(name string) error {
	dKey := defKey{r.currLib, name}
	if _, ok := r.defs[dKey]; ok {
		return fmt.Errorf("identifier %v already exists in this CQL library", dKey.name)
	}

	iKey := includeKey{localID: name, includedBy: r.currLib}
	if _, ok := r.includedLibs[iKey]; ok {
		return fmt.Errorf("identifier %v already exists in this CQL library", iKey.localID)
	}

	aKey := aliasKey{r.currLib, name}
	if _, ok := r.findAlias(aKey); ok {
		return fmt.Errorf("alias %v already exists", aKey.name)
	}

	return nil
}

func (r *Resolver[T, F]) findAlias(aKey aliasKey) (T, bool) {
	for i := len(r.aliases) - 1; i >= 0; i-- {
		if t, ok := r.aliases[i][aKey]; ok {
			return t, true
		}
	}
	return zero[T](), false
}

type libKey interface {
	isComparableLibKey()
}

type namedLibKey struct {
	local   string
	version string // Empty if no version was specified.
}

func (k namedLibKey) isComparableLibKey() {}

// An unnamed library is one with no library definition, e.g. a bare CQL snippet with no leading
// `library Foo version '1'` statement. All definitions in unnamed libraries are private.
type unnamedLibKey struct {
	unnamedID int
}

func (k unnamedLibKey) isComparableLibKey() {}

type defKey struct {
	library libKey
	name    string
}

type funcKey struct {
	library libKey
	name    string
	arity   int
}

type builtinKey struct {
	name  string
	arity int
}

type includeKey struct {
	localID    string
	includedBy libKey
}

type aliasKey struct {
	library libKey
	name    string
}

// zero returns the zero value of a generic type T.
func zero[T any]() T {
	var zero T
	return zero
}
