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

// Package parser hand-parses CQL source text into the model.go intermediate representation: a
// lexer (lexer.go) tokenizes, a recursive-descent pass (library.go, query.go, functions.go) reads
// library-level structure, and a Pratt precedence-climbing expression parser (expressions.go)
// reads expressions. Library/parameter/function names are resolved via internal/reference so
// references across `include`d libraries work the same way in the parser as in the interpreter.
package parser

import (
	"fmt"
	"strings"

	"github.com/lattice-health/cqlcore/internal/reference"
	"github.com/lattice-health/cqlcore/model"
	"github.com/lattice-health/cqlcore/result"
	"github.com/lattice-health/cqlcore/terminology"
)

// Parser compiles CQL source text into model.Library values, resolving references across the set
// of libraries it has parsed so far.
type Parser struct {
	resolver *reference.Resolver[model.IExpression, model.IExpression]
	terms    terminology.Provider
}

// New creates a Parser with the built-in CQL operator registry loaded. terms is consulted to
// validate `in "ValueSet"`/`in "CodeSystem"` terminology references at parse time; it may be nil
// if the libraries to be parsed never reference one.
func New(terms terminology.Provider) *Parser {
	p := &Parser{
		resolver: reference.NewResolver[model.IExpression, model.IExpression](),
		terms:    terms,
	}
	registerBuiltins(p.resolver)
	return p
}

// Libraries parses each CQL source in cqls and returns the compiled model.Library for each, in
// the same order cqls was given in. Libraries may `include` any other library in cqls regardless
// of which one comes first in the slice: Libraries topologically sorts by include dependency
// before parsing, and reports an error if the includes form a cycle.
func (p *Parser) Libraries(cqls []string) ([]*model.Library, error) {
	if len(cqls) == 0 {
		return nil, &LibraryErrors{Errors: []*ParsingError{{Message: "no CQL libraries were provided"}}}
	}

	order, err := orderLibrariesByIncludes(cqls)
	if err != nil {
		if libErr, ok := err.(*LibraryErrors); ok {
			return nil, libErr
		}
		return nil, &LibraryErrors{Errors: []*ParsingError{{Message: err.Error()}}}
	}

	libs := make([]*model.Library, len(cqls))
	for _, idx := range order {
		lib, err := p.parseOne(cqls[idx])
		if err != nil {
			return nil, err
		}
		libs[idx] = lib
	}
	return libs, nil
}

func (p *Parser) parseOne(src string) (*model.Library, error) {
	lx := newLexer(src)
	toks, lexErr := lx.tokenize()
	if lexErr != nil {
		return nil, &LibraryErrors{Errors: []*ParsingError{lexErr}}
	}

	libErrs := &LibraryErrors{}
	pp := &parser{
		tokens:   toks,
		resolver: p.resolver,
		terms:    p.terms,
		errors:   libErrs,
	}
	lib := pp.parseLibrary()
	if len(libErrs.Errors) > 0 {
		if lib != nil && lib.Identifier != nil {
			libErrs.LibKey = result.LibKeyFromModel(lib.Identifier)
		}
		return nil, libErrs
	}
	return lib, nil
}

// Parameter parses a single CQL literal for use as a parameter override, the same restricted
// grammar the CQL spec uses for environment-supplied parameter values: a literal, selector, or
// interval expression, never a reference to a define statement or a function call. key is only
// used to attribute errors to the right parameter in the returned ParameterErrors.
func (p *Parser) Parameter(key result.DefKey, src string) (model.IExpression, error) {
	lx := newLexer(src)
	toks, lexErr := lx.tokenize()
	if lexErr != nil {
		return nil, &ParameterErrors{DefKey: key, Errors: []*ParsingError{lexErr}}
	}

	paramErrs := &ParameterErrors{DefKey: key}
	pp := &parser{
		tokens:   toks,
		resolver: p.resolver,
		terms:    p.terms,
		errors:   paramErrs,
	}
	expr := pp.parseExpression()
	if !pp.atEnd() {
		pp.reportSyntaxError(fmt.Sprintf("unexpected trailing input %q", pp.peek().text), pp.peek())
	}
	if len(paramErrs.Errors) > 0 {
		return nil, paramErrs
	}
	return expr, nil
}

// parser holds the mutable state of a single library's parse: the token stream, the shared
// reference resolver (shared across every library parsed by the owning Parser, so includes
// resolve), and the errors accumulated for this library alone.
type parser struct {
	tokens []token
	pos    int

	resolver *reference.Resolver[model.IExpression, model.IExpression]
	terms    terminology.Provider
	errors   errorSink
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) peekAt(offset int) token {
	i := p.pos + offset
	if i >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1] // EOF
	}
	return p.tokens[i]
}

func (p *parser) advance() token {
	t := p.tokens[p.pos]
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return t
}

func (p *parser) atEnd() bool {
	return p.peek().kind == tokEOF
}

// check reports whether the current token's literal text matches text (used for punctuation and
// symbols).
func (p *parser) check(text string) bool {
	return p.peek().text == text
}

// checkKeyword reports whether the current token is an identifier matching kw case-insensitively,
// the way CQL keywords are recognized (CQL has no reserved-word list; `Exists`, `exists`, and
// `EXISTS` are all the keyword, while the same text remains a valid identifier elsewhere).
func (p *parser) checkKeyword(kw string) bool {
	t := p.peek()
	return t.kind == tokIdent && strings.EqualFold(t.text, kw)
}

func (p *parser) checkKeywordAt(offset int, kw string) bool {
	t := p.peekAt(offset)
	return t.kind == tokIdent && strings.EqualFold(t.text, kw)
}

func (p *parser) match(text string) bool {
	if p.check(text) {
		p.advance()
		return true
	}
	return false
}

func (p *parser) matchKeyword(kw string) bool {
	if p.checkKeyword(kw) {
		p.advance()
		return true
	}
	return false
}

// expect consumes the current token if it matches text, else reports a syntax error and returns
// the offending token without consuming it, so the caller can attempt to keep parsing.
func (p *parser) expect(text string) token {
	if !p.check(text) {
		p.reportSyntaxError(fmt.Sprintf("expected %q but found %q", text, p.peek().text), p.peek())
		return p.peek()
	}
	return p.advance()
}

func (p *parser) expectKeyword(kw string) token {
	if !p.checkKeyword(kw) {
		p.reportSyntaxError(fmt.Sprintf("expected keyword %q but found %q", kw, p.peek().text), p.peek())
		return p.peek()
	}
	return p.advance()
}

// expectIdent consumes and returns an identifier token (quoted or bare), reporting a syntax error
// if the current token is neither.
func (p *parser) expectIdent() token {
	t := p.peek()
	if t.kind != tokIdent && t.kind != tokQuotedIdent {
		p.reportSyntaxError(fmt.Sprintf("expected an identifier but found %q", t.text), t)
		return t
	}
	return p.advance()
}

// expectString consumes and returns a string literal token.
func (p *parser) expectString() token {
	t := p.peek()
	if t.kind != tokString {
		p.reportSyntaxError(fmt.Sprintf("expected a string literal but found %q", t.text), t)
		return t
	}
	return p.advance()
}
