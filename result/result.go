package result

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pborman/uuid"

	"github.com/lattice-health/cqlcore/model"
)

// Libraries is the result of evaluating a set of CQL libraries. The inner map[string]Value maps
// the name of each expression definition to the resulting CQL Value; the outer map keys by
// library identity.
type Libraries map[LibKey]map[string]Value

type cqlLibJSON struct {
	Name    string           `json:"libName"`
	Version string           `json:"libVersion"`
	ExpDefs map[string]Value `json:"expressionDefinitions"`
}

// MarshalJSON renders Libraries as a list of {libName, libVersion, expressionDefinitions} objects.
func (l Libraries) MarshalJSON() ([]byte, error) {
	r := []cqlLibJSON{}
	for k, v := range l {
		r = append(r, cqlLibJSON{Name: k.Name, Version: k.Version, ExpDefs: v})
	}
	return json.Marshal(r)
}

// LibKey is the unique identifier of a compiled CQL library.
type LibKey struct {
	// Name is the fully qualified identifier of the library.
	Name string
	// Version is empty if no version was specified.
	Version string
	// IsUnnamed is true for a library with no identifier; such libraries cannot be referenced by
	// includes and all of their definitions are effectively private.
	IsUnnamed bool
}

// UnnamedLibKey returns a LibKey for a library with no identifier, keyed by a fresh random UUID so
// that distinct unnamed libraries/evaluations never collide in a definitionCache.
func UnnamedLibKey() LibKey {
	return LibKey{Name: "Unnamed Library", Version: uuid.New(), IsUnnamed: true}
}

// LibKeyFromModel builds a LibKey from a parsed library identifier, or returns an UnnamedLibKey if
// ident is nil.
func LibKeyFromModel(ident *model.LibraryIdentifier) LibKey {
	if ident == nil {
		return UnnamedLibKey()
	}
	return LibKey{Name: ident.Local, Version: ident.Version}
}

// Key returns a unique string representation suitable for use as a map key material.
func (l LibKey) Key() string {
	if l.Version == "" {
		return l.Name
	}
	return l.Name + " " + l.Version
}

// String renders LibKey for diagnostics.
func (l LibKey) String() string {
	if l.IsUnnamed {
		return "Unnamed Library"
	}
	return l.Key()
}

// DefKey is the unique identifier of a single definition, parameter, or value set within a
// library.
type DefKey struct {
	Name    string
	Library LibKey
}

// ErrorKind enumerates the exceptional (surfaced) error categories named in the error handling
// design. DivByZero, UnitMismatch, and PrecisionMismatch are deliberately absent: operators fold
// those into Null and never raise.
type ErrorKind string

// The surfaced error kinds.
const (
	// KindSyntax is a parser-level error with a precise (line, column).
	KindSyntax ErrorKind = "SyntaxError"
	// KindCompile is raised only when a library's top-level production is missing entirely.
	KindCompile ErrorKind = "CompileError"
	// KindNotFound is raised when a definition, function, or terminology name cannot be resolved.
	KindNotFound ErrorKind = "NotFound"
	// KindRecursion is raised when a definition is re-entered while still active.
	KindRecursion ErrorKind = "Recursion"
	// KindType is raised for a non-recoverable type mismatch (e.g. Singleton on a multi-element list).
	KindType ErrorKind = "TypeError"
	// KindArity is declared but not raised: a call whose operand count matches no overload fails
	// function resolution and is reported as KindNotFound.
	KindArity ErrorKind = "ArityError"
	// KindDomain is raised by a built-in whose precondition is violated outside of its
	// Null-folding cases (e.g. PointFrom on a non-unit interval).
	KindDomain ErrorKind = "DomainError"
)

var (
	// ErrLibraryParsing is returned when a library could not be properly parsed.
	ErrLibraryParsing = errors.New("failed to parse library")
	// ErrParameterParsing is returned when a parameter expression could not be parsed.
	ErrParameterParsing = errors.New("failed to parse parameter")
	// ErrEvaluationError is returned when a runtime error occurs during CQL evaluation.
	ErrEvaluationError = errors.New("failed during CQL evaluation")
)

// EngineError is the error type the evaluator uses for categorised failures; parsing reports its
// errors as parser.LibraryErrors or parser.ParameterErrors instead. It carries the offending
// resource name (a definition, function, or library name), the Kind, and the underlying cause,
// which Unwrap exposes to errors.Is/errors.As.
type EngineError struct {
	Resource string
	Kind     ErrorKind
	Err      error
}

// NewEngineError constructs an EngineError.
func NewEngineError(resource string, kind ErrorKind, err error) *EngineError {
	return &EngineError{Resource: resource, Kind: kind, Err: err}
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Resource, e.Err)
}

// Unwrap exposes the underlying cause for errors.Is/errors.As.
func (e *EngineError) Unwrap() error {
	return e.Err
}
