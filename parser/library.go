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

	"github.com/lattice-health/cqlcore/internal/reference"
	"github.com/lattice-health/cqlcore/model"
	"github.com/lattice-health/cqlcore/types"
)

// parseLibrary parses a complete CQL source file: the optional `library` header, the block of
// using/include/parameter/terminology definitions (in any order, as CQL allows), and the
// statements section (`context` blocks and `define` statements).
func (p *parser) parseLibrary() *model.Library {
	lib := &model.Library{Statements: &model.Statements{}}

	if p.checkKeyword("library") {
		p.advance()
		name := p.expectIdent().text
		version := ""
		if p.matchKeyword("version") {
			version = p.expectString().text
		}
		lib.Identifier = &model.LibraryIdentifier{Local: name, Version: version}
		p.match(";")
	} else {
		lib.Identifier = &model.LibraryIdentifier{}
	}

	if lib.Identifier.Local != "" {
		if err := p.resolver.SetCurrentLibrary(lib.Identifier); err != nil {
			p.reportError(err.Error(), p.peek())
		}
	} else {
		p.resolver.SetCurrentUnnamed()
	}

	currentContext := "Patient"
	for !p.atEnd() {
		switch {
		case p.checkKeyword("using"):
			lib.Usings = append(lib.Usings, p.parseUsingDefinition())
		case p.checkKeyword("include"):
			lib.Includes = append(lib.Includes, p.parseIncludeDefinition())
		case p.checkKeyword("parameter"), p.checkAccessThen("parameter"):
			lib.Parameters = append(lib.Parameters, p.parseParameterDefinition())
		case p.checkKeyword("codesystem"), p.checkAccessThen("codesystem"):
			lib.CodeSystems = append(lib.CodeSystems, p.parseCodeSystemDefinition())
		case p.checkKeyword("valueset"), p.checkAccessThen("valueset"):
			lib.Valuesets = append(lib.Valuesets, p.parseValuesetDefinition())
		case p.checkKeyword("concept"), p.checkAccessThen("concept"):
			lib.Concepts = append(lib.Concepts, p.parseConceptDefinition())
		case p.checkKeyword("code"), p.checkAccessThen("code"):
			lib.Codes = append(lib.Codes, p.parseCodeDefinition())
		case p.checkKeyword("context"):
			p.advance()
			currentContext = p.expectIdent().text
			p.match(";")
		case p.checkKeyword("define"), p.checkAccessThen("define"):
			if def := p.parseDefine(currentContext); def != nil {
				lib.Statements.Defs = append(lib.Statements.Defs, def)
			}
		default:
			p.reportSyntaxError(fmt.Sprintf("unexpected token %q at library level", p.peek().text), p.peek())
			p.advance()
		}
	}
	return lib
}

// checkAccessThen reports whether the current token is a "public"/"private" access modifier
// immediately followed by kw, without consuming either.
func (p *parser) checkAccessThen(kw string) bool {
	if !p.checkKeyword("public") && !p.checkKeyword("private") {
		return false
	}
	return p.checkKeywordAt(1, kw)
}

// parseAccessLevel consumes an optional leading "public"/"private" modifier. CQL definitions
// default to public.
func (p *parser) parseAccessLevel() model.AccessLevel {
	if p.matchKeyword("private") {
		return model.Private
	}
	p.matchKeyword("public")
	return model.Public
}

func (p *parser) parseUsingDefinition() *model.Using {
	p.advance() // 'using'
	name := p.expectIdent().text
	version := ""
	if p.matchKeyword("version") {
		version = p.expectString().text
	}
	p.match(";")
	return &model.Using{LocalIdentifier: name, Version: version}
}

func (p *parser) parseIncludeDefinition() *model.Include {
	p.advance() // 'include'
	name := p.expectIdent().text
	version := ""
	if p.matchKeyword("version") {
		version = p.expectString().text
	}
	local := name
	if p.matchKeyword("called") {
		local = p.expectIdent().text
	}
	ident := &model.LibraryIdentifier{Local: name, Version: version}
	if err := p.resolver.IncludeLibrary(ident, true); err != nil {
		p.reportError(err.Error(), p.peek())
	}
	p.match(";")
	return &model.Include{Identifier: ident, LocalIdentifier: local}
}

func (p *parser) parseParameterDefinition() *model.ParameterDef {
	access := p.parseAccessLevel()
	p.advance() // 'parameter'
	name := p.expectIdent().text

	var typeSpec types.IType
	if !p.checkKeyword("default") && !p.check(";") {
		typeSpec = p.parseTypeSpecifier()
	}
	var def model.IExpression
	if p.matchKeyword("default") {
		def = p.parseExpression()
	}
	p.match(";")

	pd := &model.ParameterDef{Name: name, Default: def, AccessLevel: access}
	if typeSpec != nil {
		pd.SetResultType(typeSpec)
	}
	p.defineNamed(name, pd, access)
	return pd
}

func (p *parser) parseCodeSystemDefinition() *model.CodeSystemDef {
	access := p.parseAccessLevel()
	p.advance() // 'codesystem'
	name := p.expectIdent().text
	p.expect(":")
	id := p.expectString().text
	version := ""
	if p.matchKeyword("version") {
		version = p.expectString().text
	}
	p.match(";")
	def := &model.CodeSystemDef{Name: name, ID: id, Version: version, AccessLevel: access}
	p.defineNamed(name, def, access)
	return def
}

func (p *parser) parseValuesetDefinition() *model.ValuesetDef {
	access := p.parseAccessLevel()
	p.advance() // 'valueset'
	name := p.expectIdent().text
	p.expect(":")
	id := p.expectString().text
	version := ""
	if p.matchKeyword("version") {
		version = p.expectString().text
	}
	var systems []*model.CodeSystemRef
	if p.matchKeyword("codesystems") || p.matchKeyword("codesystem") {
		systems = p.parseCodeSystemRefSet()
	}
	p.match(";")
	def := &model.ValuesetDef{Name: name, ID: id, Version: version, CodeSystems: systems, AccessLevel: access}
	p.defineNamed(name, def, access)
	return def
}

func (p *parser) parseCodeSystemRefSet() []*model.CodeSystemRef {
	if p.match("{") {
		var refs []*model.CodeSystemRef
		for {
			refs = append(refs, &model.CodeSystemRef{Name: p.expectIdent().text})
			if !p.match(",") {
				break
			}
		}
		p.expect("}")
		return refs
	}
	return []*model.CodeSystemRef{{Name: p.expectIdent().text}}
}

func (p *parser) parseConceptDefinition() *model.ConceptDef {
	access := p.parseAccessLevel()
	p.advance() // 'concept'
	name := p.expectIdent().text
	p.expect(":")
	var codes []*model.CodeRef
	if p.match("{") {
		for {
			codes = append(codes, &model.CodeRef{Name: p.expectIdent().text})
			if !p.match(",") {
				break
			}
		}
		p.expect("}")
	}
	display := ""
	if p.peek().kind == tokString {
		display = p.advance().text
	}
	p.match(";")
	def := &model.ConceptDef{Name: name, Codes: codes, Display: display, AccessLevel: access}
	p.defineNamed(name, def, access)
	return def
}

func (p *parser) parseCodeDefinition() *model.CodeDef {
	access := p.parseAccessLevel()
	p.advance() // 'code'
	name := p.expectIdent().text
	p.expect(":")
	code := p.expectString().text
	p.expectKeyword("from")
	csName := p.expectIdent().text
	display := ""
	if p.peek().kind == tokString {
		display = p.advance().text
	}
	p.match(";")
	def := &model.CodeDef{Name: name, CodeSystem: &model.CodeSystemRef{Name: csName}, Code: code, Display: display, AccessLevel: access}
	p.defineNamed(name, def, access)
	return def
}

// parseDefine parses `define ["function"] [access] Name(...): expr` or `define [access] Name:
// expr`, registering the resulting definition against currentContext.
func (p *parser) parseDefine(currentContext string) model.IExpressionDef {
	access := p.parseAccessLevel()
	p.expectKeyword("define")

	fluent := false
	if p.checkKeyword("fluent") && p.checkKeywordAt(1, "function") {
		fluent = true
		p.advance()
	}
	if p.checkKeyword("function") {
		p.advance()
		name := p.expectIdent().text
		return p.parseFunctionDefinitionBody(currentContext, access, fluent, name)
	}

	name := p.expectIdent().text
	if p.check("(") {
		return p.parseFunctionDefinitionBody(currentContext, access, false, name)
	}

	p.expect(":")
	expr := p.parseExpression()
	p.match(";")

	def := &model.ExpressionDef{Name: name, Context: currentContext, AccessLevel: access, Expression: expr}
	p.defineNamed(name, def, access)
	return def
}

func (p *parser) defineNamed(name string, def model.IExpression, access model.AccessLevel) {
	if err := p.resolver.Define(&reference.Def[model.IExpression]{
		Name:             name,
		Result:           def,
		IsPublic:         access == model.Public,
		ValidateIsUnique: true,
	}); err != nil {
		p.reportError(err.Error(), p.peek())
	}
}

// parseTypeSpecifier parses a CQL type specifier: a System primitive, List<T>, Interval<T>,
// Choice<T, ...>, Tuple{name: T, ...}, or a bare (possibly model-qualified) named type.
func (p *parser) parseTypeSpecifier() types.IType {
	switch {
	case p.matchKeyword("List"):
		p.expect("<")
		elem := p.parseTypeSpecifier()
		p.expect(">")
		return &types.List{ElementType: elem}
	case p.matchKeyword("Interval"):
		p.expect("<")
		point := p.parseTypeSpecifier()
		p.expect(">")
		return &types.Interval{PointType: point}
	case p.matchKeyword("Choice"):
		p.expect("<")
		var choices []types.IType
		choices = append(choices, p.parseTypeSpecifier())
		for p.match(",") {
			choices = append(choices, p.parseTypeSpecifier())
		}
		p.expect(">")
		return &types.Choice{ChoiceTypes: choices}
	case p.matchKeyword("Tuple"):
		p.expect("{")
		fields := map[string]types.IType{}
		if !p.check("}") {
			for {
				fname := p.expectIdent().text
				p.expect(":")
				fields[fname] = p.parseTypeSpecifier()
				if !p.match(",") {
					break
				}
			}
		}
		p.expect("}")
		return &types.Tuple{ElementTypes: fields}
	default:
		name := p.expectIdent().text
		for p.match(".") {
			name = p.expectIdent().text
		}
		if sys, ok := systemTypeByName[name]; ok {
			return sys
		}
		return &types.Named{TypeName: name}
	}
}

var systemTypeByName = map[string]types.System{
	"Any":        types.Any,
	"Boolean":    types.Boolean,
	"Integer":    types.Integer,
	"Long":       types.Long,
	"Decimal":    types.Decimal,
	"Quantity":   types.Quantity,
	"Ratio":      types.Ratio,
	"String":     types.String,
	"Date":       types.Date,
	"DateTime":   types.DateTime,
	"Time":       types.Time,
	"Code":       types.Code,
	"Concept":    types.Concept,
	"ValueSet":   types.ValueSet,
	"CodeSystem": types.CodeSystem,
	"Vocabulary": types.Vocabulary,
}
