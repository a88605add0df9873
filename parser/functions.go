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
	"github.com/lattice-health/cqlcore/internal/reference"
	"github.com/lattice-health/cqlcore/model"
)

// parseFunctionDefinitionBody parses the operand list, optional `returns` type, and body of a
// `define [fluent] function Name(...)` statement, already past the "function" keyword and name.
func (p *parser) parseFunctionDefinitionBody(currentContext string, access model.AccessLevel, fluent bool, name string) *model.FunctionDef {
	p.expect("(")
	var operands []model.OperandDef
	if !p.check(")") {
		for {
			opName := p.expectIdent().text
			p.parseTypeSpecifier()
			operands = append(operands, model.OperandDef{Name: opName})
			if !p.match(",") {
				break
			}
		}
	}
	p.expect(")")

	if p.matchKeyword("returns") {
		p.parseTypeSpecifier()
	}

	external := false
	var body model.IExpression
	if p.matchKeyword("external") {
		external = true
		p.match(";")
	} else {
		p.expect(":")
		body = p.parseExpression()
		p.match(";")
	}

	fd := &model.FunctionDef{
		Name:        name,
		Context:     currentContext,
		AccessLevel: access,
		Operands:    operands,
		Fluent:      fluent,
		External:    external,
		Expression:  body,
	}
	if err := p.resolver.DefineFunc(&reference.Func[model.IExpression]{
		Name:     name,
		Arity:    len(operands),
		Result:   fd,
		IsPublic: access == model.Public,
		IsFluent: fluent,
	}); err != nil {
		p.reportError(err.Error(), p.peek())
	}
	return fd
}

// parseArgumentList parses a parenthesized, comma-separated list of expressions. The opening "("
// must already have been consumed by the caller in the case of a call with no arguments at all
// being ambiguous with a parenthesized expression; here both "(" and ")" are consumed.
func (p *parser) parseArgumentList() []model.IExpression {
	p.expect("(")
	var args []model.IExpression
	if !p.check(")") {
		for {
			args = append(args, p.parseExpression())
			if !p.match(",") {
				break
			}
		}
	}
	p.expect(")")
	return args
}
