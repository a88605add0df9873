// Copyright 2024 Google LLC
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

package parser

import (
	"fmt"
	"strings"

	"github.com/lattice-health/cqlcore/model"
	"github.com/lattice-health/cqlcore/result"
	"github.com/lattice-health/cqlcore/types"
)

// errorSink is implemented by both LibraryErrors and ParameterErrors, letting the shared parser
// engine accumulate errors into whichever one its caller is collecting for.
type errorSink interface {
	Append(e *ParsingError)
}

// LibraryErrors contains a list of CQL parsing errors that occurred within a single library.
type LibraryErrors struct {
	LibKey result.LibKey
	Errors []*ParsingError
}

func (le *LibraryErrors) Error() string {
	msgs := []string{fmt.Sprintf("error(s) in Library %q:", le.LibKey.String())}
	for _, e := range le.Errors {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "\n")
}

// Unwrap implements the Go standard errors package Unwrap() function. See
// https://pkg.go.dev/errors.
func (le *LibraryErrors) Unwrap() []error {
	if le == nil {
		return nil
	}
	errs := make([]error, 0, len(le.Errors))
	for _, err := range le.Errors {
		errs = append(errs, err)
	}
	return errs
}

// Append adds the given error to the list of ParsingErrors.
func (le *LibraryErrors) Append(e *ParsingError) {
	le.Errors = append(le.Errors, e)
}

// ParameterErrors contains a list of CQL parsing errors that occurred parsing a single parameter.
type ParameterErrors struct {
	DefKey result.DefKey
	Errors []*ParsingError
}

func (pe *ParameterErrors) Error() string {
	var msgs []string
	for _, e := range pe.Errors {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "\n")
}

// Unwrap implements the Go standard errors package Unwrap() function. See
// https://pkg.go.dev/errors.
func (pe *ParameterErrors) Unwrap() []error {
	if pe == nil {
		return nil
	}
	errs := make([]error, 0, len(pe.Errors))
	for _, err := range pe.Errors {
		errs = append(errs, err)
	}
	return errs
}

// Append adds the given error to the list of ParsingErrors.
func (pe *ParameterErrors) Append(e *ParsingError) {
	pe.Errors = append(pe.Errors, e)
}

// ErrorType is the type of parsing error.
type ErrorType string

const (
	// SyntaxError is returned by the lexer/parser when the CQL does not meet the grammar.
	SyntaxError = ErrorType("SyntaxError")
	// ValidationError is returned when the CQL meets the grammar, but fails some other validation
	// rule (like referencing a non-existent expression definition, or a type mismatch).
	ValidationError = ErrorType("ValidationError")
	// InternalError occurs when the parser errors in an unexpected way. This is not a user error,
	// nor a feature that is purposefully unsupported.
	InternalError = ErrorType("InternalError")
	// UnsupportedError is returned for CQL language features that are not yet supported.
	UnsupportedError = ErrorType("UnsupportedError")
)

// ErrorSeverity represents different ParsingError severity levels.
type ErrorSeverity string

const (
	// ErrorSeverityInfo is informational.
	ErrorSeverityInfo = ErrorSeverity("Info")
	// ErrorSeverityWarning is a medium severity error.
	ErrorSeverityWarning = ErrorSeverity("Warning")
	// ErrorSeverityError is a high severity error.
	ErrorSeverityError = ErrorSeverity("Error")
)

// ParsingError represents a specific parser error and its location.
type ParsingError struct {
	// Message is a high level message about the error.
	Message string
	// Line is the 1-based line number within the source file where the error occurred.
	Line int
	// Column is the 0-based column number within the source file where the error occurred.
	Column int
	// Type is the type of the error that occurred, such as SyntaxError or InternalError.
	Type ErrorType
	// Severity represents different severity levels.
	Severity ErrorSeverity
	// Cause is an optional, underlying error that caused the parsing error.
	Cause error
}

func (pe *ParsingError) Error() string {
	if pe.Cause != nil {
		return fmt.Sprintf("%d-%d %s: %s", pe.Line, pe.Column, pe.Message, pe.Cause)
	}
	return fmt.Sprintf("%d-%d %s", pe.Line, pe.Column, pe.Message)
}

func (pe *ParsingError) Unwrap() error {
	return pe.Cause
}

// invalidExpression is a placeholder that allows parsing to continue so additional errors can
// still be reported.
type invalidExpression struct {
	model.Expression
	ParsingError *ParsingError
}

// badExpression reports a parsing error at tok and returns a placeholder allowing parsing to
// continue.
func (p *parser) badExpression(msg string, tok token) invalidExpression {
	return invalidExpression{
		ParsingError: p.reportError(msg, tok),
		Expression:   model.ResultType(types.Any),
	}
}

// invalidTypeSpecifier is a placeholder that allows parsing to continue so additional errors can
// still be reported.
type invalidTypeSpecifier struct {
	types.System
	ParsingError *ParsingError
}

// badTypeSpecifier reports a parsing error at tok and returns a placeholder allowing parsing to
// continue.
func (p *parser) badTypeSpecifier(msg string, tok token) invalidTypeSpecifier {
	return invalidTypeSpecifier{
		ParsingError: p.reportError(msg, tok),
		System:       types.Any,
	}
}

// reportError records a ParsingError at tok's position and returns it.
func (p *parser) reportError(msg string, tok token) *ParsingError {
	pe := &ParsingError{
		Message: msg,
		Line:    tok.line,
		Column:  tok.column,
		Type:    ValidationError,
		Severity: ErrorSeverityError,
	}
	p.errors.Append(pe)
	return pe
}

// reportSyntaxError records a SyntaxError at tok's position and returns it.
func (p *parser) reportSyntaxError(msg string, tok token) *ParsingError {
	pe := &ParsingError{
		Message:  msg,
		Line:     tok.line,
		Column:   tok.column,
		Type:     SyntaxError,
		Severity: ErrorSeverityError,
	}
	p.errors.Append(pe)
	return pe
}
