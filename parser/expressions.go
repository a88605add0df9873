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
	"strconv"
	"strings"

	"github.com/lattice-health/cqlcore/model"
	"github.com/lattice-health/cqlcore/types"
)

// parseExpression parses a full CQL expression, including a query with no leading `from` (a bare
// source expression followed by an alias and query clauses).
func (p *parser) parseExpression() model.IExpression {
	if p.checkKeyword("from") {
		return p.parseQuery()
	}
	expr := p.parseImplies()
	if q, ok := p.tryParseQueryContinuation(expr); ok {
		return q
	}
	return expr
}

// reservedFollowKeywords are keywords that can legally follow a complete expression; seeing one of
// these after a parsed expression never signals the start of a query alias.
var reservedFollowKeywords = map[string]bool{
	"and": true, "or": true, "xor": true, "implies": true, "not": true,
	"in": true, "contains": true, "includes": true, "included": true,
	"is": true, "as": true, "between": true, "mod": true, "div": true,
	"union": true, "except": true, "intersect": true,
	"then": true, "else": true, "end": true, "when": true,
	"return": true, "sort": true, "where": true, "with": true, "without": true,
	"let": true, "aggregate": true, "by": true, "ascending": true, "descending": true,
	"version": true, "called": true,
}

// tryParseQueryContinuation checks whether source is immediately followed by a bare alias (no
// `from` keyword), and if so parses it as a single-source query.
func (p *parser) tryParseQueryContinuation(source model.IExpression) (model.IExpression, bool) {
	t := p.peek()
	if t.kind != tokIdent || reservedFollowKeywords[strings.ToLower(t.text)] {
		return nil, false
	}
	alias := p.advance().text
	p.resolver.EnterScope()
	if err := p.resolver.Alias(alias, &model.AliasRef{Name: alias}); err != nil {
		p.reportError(err.Error(), t)
	}
	q := p.parseQueryClauses([]*model.AliasedSource{{Alias: alias, Source: source}})
	p.resolver.ExitScope()
	return q, true
}

func (p *parser) parseImplies() model.IExpression {
	left := p.parseOrXor()
	for p.checkKeyword("implies") {
		p.advance()
		right := p.parseOrXor()
		left = &model.Implies{BinaryExpression: model.BinaryExpression{Operands: [2]model.IExpression{left, right}}}
	}
	return left
}

func (p *parser) parseOrXor() model.IExpression {
	left := p.parseAnd()
	for {
		switch {
		case p.checkKeyword("or"):
			p.advance()
			right := p.parseAnd()
			left = &model.Or{BinaryExpression: model.BinaryExpression{Operands: [2]model.IExpression{left, right}}}
		case p.checkKeyword("xor"):
			p.advance()
			right := p.parseAnd()
			left = &model.XOr{BinaryExpression: model.BinaryExpression{Operands: [2]model.IExpression{left, right}}}
		default:
			return left
		}
	}
}

func (p *parser) parseAnd() model.IExpression {
	left := p.parseNot()
	for p.checkKeyword("and") {
		p.advance()
		right := p.parseNot()
		left = &model.And{BinaryExpression: model.BinaryExpression{Operands: [2]model.IExpression{left, right}}}
	}
	return left
}

func (p *parser) parseNot() model.IExpression {
	if p.matchKeyword("not") {
		operand := p.parseNot()
		return &model.Not{UnaryExpression: model.UnaryExpression{Operand: operand}}
	}
	return p.parseMembership()
}

func (p *parser) parseMembership() model.IExpression {
	left := p.parseAdditive()
	for {
		switch {
		case p.match("="):
			right := p.parseAdditive()
			left = &model.Equal{BinaryExpression: model.BinaryExpression{Operands: [2]model.IExpression{left, right}}}
		case p.match("!="):
			right := p.parseAdditive()
			left = &model.Not{UnaryExpression: model.UnaryExpression{Operand: &model.Equal{BinaryExpression: model.BinaryExpression{Operands: [2]model.IExpression{left, right}}}}}
		case p.match("~"):
			right := p.parseAdditive()
			left = &model.Equivalent{BinaryExpression: model.BinaryExpression{Operands: [2]model.IExpression{left, right}}}
		case p.match("!~"):
			right := p.parseAdditive()
			left = &model.Not{UnaryExpression: model.UnaryExpression{Operand: &model.Equivalent{BinaryExpression: model.BinaryExpression{Operands: [2]model.IExpression{left, right}}}}}
		case p.match("<="):
			right := p.parseAdditive()
			left = &model.LessOrEqual{BinaryExpression: model.BinaryExpression{Operands: [2]model.IExpression{left, right}}}
		case p.match(">="):
			right := p.parseAdditive()
			left = &model.GreaterOrEqual{BinaryExpression: model.BinaryExpression{Operands: [2]model.IExpression{left, right}}}
		case p.match("<"):
			right := p.parseAdditive()
			left = &model.Less{BinaryExpression: model.BinaryExpression{Operands: [2]model.IExpression{left, right}}}
		case p.match(">"):
			right := p.parseAdditive()
			left = &model.Greater{BinaryExpression: model.BinaryExpression{Operands: [2]model.IExpression{left, right}}}
		case p.checkKeyword("properly") && p.checkKeywordAt(1, "in"):
			p.advance()
			p.advance()
			right := p.parseAdditive()
			left = &model.ProperIn{BinaryExpression: model.BinaryExpression{Operands: [2]model.IExpression{left, right}}}
		case p.checkKeyword("in"):
			p.advance()
			right := p.parseAdditive()
			left = &model.In{BinaryExpression: model.BinaryExpression{Operands: [2]model.IExpression{left, right}}}
		case p.checkKeyword("properly") && p.checkKeywordAt(1, "included") && p.checkKeywordAt(2, "in"):
			p.advance()
			p.advance()
			p.advance()
			right := p.parseAdditive()
			left = &model.ProperIncludedIn{BinaryExpression: model.BinaryExpression{Operands: [2]model.IExpression{left, right}}}
		case p.checkKeyword("included") && p.checkKeywordAt(1, "in"):
			p.advance()
			p.advance()
			right := p.parseAdditive()
			left = &model.IncludedIn{BinaryExpression: model.BinaryExpression{Operands: [2]model.IExpression{left, right}}}
		case p.checkKeyword("contains"):
			p.advance()
			right := p.parseAdditive()
			left = &model.Contains{BinaryExpression: model.BinaryExpression{Operands: [2]model.IExpression{left, right}}}
		case p.checkKeyword("includes"):
			p.advance()
			right := p.parseAdditive()
			left = &model.Includes{BinaryExpression: model.BinaryExpression{Operands: [2]model.IExpression{left, right}}}
		case p.checkKeyword("between"):
			p.advance()
			low := p.parseAdditive()
			p.expectKeyword("and")
			high := p.parseAdditive()
			left = &model.Between{Operand: left, Low: low, High: high}
		default:
			return left
		}
	}
}

func (p *parser) parseAdditive() model.IExpression {
	left := p.parseMultiplicative()
	for {
		switch {
		case p.match("+"):
			right := p.parseMultiplicative()
			left = &model.Add{BinaryExpression: model.BinaryExpression{Operands: [2]model.IExpression{left, right}}}
		case p.match("-"):
			right := p.parseMultiplicative()
			left = &model.Subtract{BinaryExpression: model.BinaryExpression{Operands: [2]model.IExpression{left, right}}}
		case p.match("&"):
			right := p.parseMultiplicative()
			left = &model.Concatenate{BinaryExpression: model.BinaryExpression{Operands: [2]model.IExpression{left, right}}}
		case p.checkKeyword("union"):
			p.advance()
			right := p.parseMultiplicative()
			left = &model.Union{BinaryExpression: model.BinaryExpression{Operands: [2]model.IExpression{left, right}}}
		case p.checkKeyword("except"):
			p.advance()
			right := p.parseMultiplicative()
			left = &model.Except{BinaryExpression: model.BinaryExpression{Operands: [2]model.IExpression{left, right}}}
		case p.checkKeyword("intersect"):
			p.advance()
			right := p.parseMultiplicative()
			left = &model.Intersect{BinaryExpression: model.BinaryExpression{Operands: [2]model.IExpression{left, right}}}
		default:
			return left
		}
	}
}

func (p *parser) parseMultiplicative() model.IExpression {
	left := p.parsePower()
	for {
		switch {
		case p.match("*"):
			right := p.parsePower()
			left = &model.Multiply{BinaryExpression: model.BinaryExpression{Operands: [2]model.IExpression{left, right}}}
		case p.match("/"):
			right := p.parsePower()
			left = &model.Divide{BinaryExpression: model.BinaryExpression{Operands: [2]model.IExpression{left, right}}}
		case p.checkKeyword("mod"):
			p.advance()
			right := p.parsePower()
			left = &model.Modulo{BinaryExpression: model.BinaryExpression{Operands: [2]model.IExpression{left, right}}}
		case p.checkKeyword("div"):
			p.advance()
			right := p.parsePower()
			left = &model.TruncatedDivide{BinaryExpression: model.BinaryExpression{Operands: [2]model.IExpression{left, right}}}
		default:
			return left
		}
	}
}

// parsePower parses `^`, which is right-associative.
func (p *parser) parsePower() model.IExpression {
	left := p.parseUnary()
	if p.match("^") {
		right := p.parsePower()
		return &model.Power{BinaryExpression: model.BinaryExpression{Operands: [2]model.IExpression{left, right}}}
	}
	return left
}

func (p *parser) parseUnary() model.IExpression {
	switch {
	case p.match("-"):
		return &model.Negate{UnaryExpression: model.UnaryExpression{Operand: p.parseUnary()}}
	case p.match("+"):
		return p.parseUnary()
	case p.checkKeyword("exists"):
		p.advance()
		return &model.Exists{UnaryExpression: model.UnaryExpression{Operand: p.parseUnary()}}
	default:
		return p.parsePostfix(p.parsePrimary())
	}
}

// parsePostfix applies `.property`, `.fluentCall(...)`, `is Type`/`is null`/`is true`/`is false`,
// and `as Type` to expr, left-to-right.
func (p *parser) parsePostfix(expr model.IExpression) model.IExpression {
	for {
		switch {
		case p.match("."):
			member := p.expectIdent()
			if p.check("(") {
				args := p.parseArgumentList()
				allArgs := append([]model.IExpression{expr}, args...)
				if builtin, ok := p.tryBuiltinCall(member.text, allArgs); ok {
					expr = builtin
				} else {
					if _, err := p.resolver.ResolveLocalFunc(member.text, len(allArgs), true); err != nil {
						p.reportError(err.Error(), member)
					}
					expr = &model.FunctionRef{Name: member.text, Operands: allArgs}
				}
			} else {
				expr = &model.Property{Source: expr, Path: member.text}
			}
		case p.checkKeyword("is"):
			p.advance()
			switch {
			case p.matchKeyword("null"):
				expr = &model.IsNull{UnaryExpression: model.UnaryExpression{Operand: expr}}
			case p.matchKeyword("true"):
				expr = &model.IsTrue{UnaryExpression: model.UnaryExpression{Operand: expr}}
			case p.matchKeyword("false"):
				expr = &model.IsFalse{UnaryExpression: model.UnaryExpression{Operand: expr}}
			default:
				expr = &model.Is{UnaryExpression: model.UnaryExpression{Operand: expr}, IsType: p.parseTypeSpecifier()}
			}
		case p.checkKeyword("as"):
			p.advance()
			strict := p.matchKeyword("strict")
			expr = &model.As{UnaryExpression: model.UnaryExpression{Operand: expr}, AsType: p.parseTypeSpecifier(), Strict: strict}
		default:
			return expr
		}
	}
}

func (p *parser) nextIs(text string) bool { return p.peekAt(1).is(text) }

func (p *parser) parsePrimary() model.IExpression {
	tok := p.peek()
	switch {
	case tok.kind == tokNumber:
		return p.parseNumberOrQuantity()
	case tok.kind == tokString:
		p.advance()
		return model.NewLiteral(tok.text, types.String)
	case tok.kind == tokDateTime:
		return p.parseDateTimeLiteral()
	case tok.is("("):
		p.advance()
		e := p.parseExpression()
		p.expect(")")
		return e
	case tok.is("{"):
		return p.parseListLiteral()
	case tok.is("["):
		return p.parseRetrieve()
	case p.checkKeyword("true"):
		p.advance()
		return model.NewLiteral("true", types.Boolean)
	case p.checkKeyword("false"):
		p.advance()
		return model.NewLiteral("false", types.Boolean)
	case p.checkKeyword("null"):
		p.advance()
		return model.NewLiteral("", types.Any)
	case p.checkKeyword("if"):
		return p.parseIfThenElse()
	case p.checkKeyword("case"):
		return p.parseCase()
	case p.checkKeyword("maximum"):
		p.advance()
		return &model.MaxValue{ValueType: p.parseTypeSpecifier()}
	case p.checkKeyword("minimum"):
		p.advance()
		return &model.MinValue{ValueType: p.parseTypeSpecifier()}
	case p.checkKeyword("interval"):
		return p.parseIntervalLiteral()
	case p.checkKeyword("tuple"):
		return p.parseTupleLiteral()
	case p.checkKeyword("now") && p.nextIs("("):
		p.advance()
		p.advance()
		p.expect(")")
		return &model.Now{}
	case p.checkKeyword("today") && p.nextIs("("):
		p.advance()
		p.advance()
		p.expect(")")
		return &model.Today{}
	case p.checkKeyword("timeofday") && p.nextIs("("):
		p.advance()
		p.advance()
		p.expect(")")
		return &model.TimeOfDay{}
	case p.checkKeyword("date") && p.nextIs("("):
		p.advance()
		return &model.Date{NaryExpression: model.NaryExpression{Operands: p.parseArgumentList()}}
	case p.checkKeyword("datetime") && p.nextIs("("):
		p.advance()
		return &model.DateTime{NaryExpression: model.NaryExpression{Operands: p.parseArgumentList()}}
	case p.checkKeyword("time") && p.nextIs("("):
		p.advance()
		return &model.Time{NaryExpression: model.NaryExpression{Operands: p.parseArgumentList()}}
	case p.checkKeyword("coalesce") && p.nextIs("("):
		p.advance()
		return &model.Coalesce{NaryExpression: model.NaryExpression{Operands: p.parseArgumentList()}}
	case p.checkKeyword("concat") && p.nextIs("("):
		p.advance()
		return &model.Concat{NaryExpression: model.NaryExpression{Operands: p.parseArgumentList()}}
	case p.checkKeyword("code"):
		return p.parseCodeLiteral()
	case tok.kind == tokIdent || tok.kind == tokQuotedIdent:
		name := p.advance().text
		if p.check("{") {
			return p.parseInstanceLiteral(name)
		}
		return p.parseIdentifierExpr(name, tok)
	default:
		p.advance()
		return p.badExpression(fmt.Sprintf("unexpected token %q", tok.text), tok)
	}
}

var dateTimeUnitKeywords = map[string]string{
	"year": "year", "years": "year",
	"month": "month", "months": "month",
	"week": "week", "weeks": "week",
	"day": "day", "days": "day",
	"hour": "hour", "hours": "hour",
	"minute": "minute", "minutes": "minute",
	"second": "second", "seconds": "second",
	"millisecond": "millisecond", "milliseconds": "millisecond",
}

func (p *parser) tryParseUnit() (string, bool) {
	if p.peek().kind == tokString {
		return p.advance().text, true
	}
	if p.peek().kind == tokIdent {
		if unit, ok := dateTimeUnitKeywords[strings.ToLower(p.peek().text)]; ok {
			p.advance()
			return unit, true
		}
	}
	return "", false
}

func (p *parser) parseNumberOrQuantity() model.IExpression {
	tok := p.advance()
	text := tok.text
	var lit *model.Literal
	switch {
	case strings.HasSuffix(text, "L"):
		lit = model.NewLiteral(strings.TrimSuffix(text, "L"), types.Long)
	case strings.Contains(text, "."):
		lit = model.NewLiteral(text, types.Decimal)
	default:
		lit = model.NewLiteral(text, types.Integer)
	}
	if unit, ok := p.tryParseUnit(); ok {
		val, _ := strconv.ParseFloat(strings.TrimSuffix(text, "L"), 64)
		return &model.Quantity{Value: val, Unit: unit}
	}
	return lit
}

func (p *parser) parseDateTimeLiteral() model.IExpression {
	tok := p.advance()
	text := tok.text
	switch {
	case strings.HasPrefix(text, "@T"):
		return model.NewLiteral(text, types.Time)
	case strings.Contains(text, "T"):
		return model.NewLiteral(text, types.DateTime)
	default:
		return model.NewLiteral(text, types.Date)
	}
}

func (p *parser) parseListLiteral() model.IExpression {
	p.expect("{")
	var elems []model.IExpression
	if !p.check("}") {
		for {
			elems = append(elems, p.parseExpression())
			if !p.match(",") {
				break
			}
		}
	}
	p.expect("}")
	return &model.List{List: elems}
}

func (p *parser) parseTupleLiteral() model.IExpression {
	p.advance() // 'Tuple'
	p.expect("{")
	var elements []*model.TupleElement
	if !p.check("}") {
		for {
			name := p.expectIdent().text
			p.expect(":")
			elements = append(elements, &model.TupleElement{Name: name, Value: p.parseExpression()})
			if !p.match(",") {
				break
			}
		}
	}
	p.expect("}")
	return &model.Tuple{Elements: elements}
}

func (p *parser) parseInstanceLiteral(typeName string) model.IExpression {
	p.expect("{")
	var elements []*model.InstanceElement
	if !p.check("}") {
		for {
			name := p.expectIdent().text
			p.expect(":")
			elements = append(elements, &model.InstanceElement{Name: name, Value: p.parseExpression()})
			if !p.match(",") {
				break
			}
		}
	}
	p.expect("}")
	return &model.Instance{ClassType: p.resolveNamedType(typeName), Elements: elements}
}

func (p *parser) resolveNamedType(name string) types.IType {
	if sys, ok := systemTypeByName[name]; ok {
		return sys
	}
	return &types.Named{TypeName: name}
}

func (p *parser) parseIntervalLiteral() model.IExpression {
	p.advance() // 'Interval'
	var lowIncl bool
	switch {
	case p.match("["):
		lowIncl = true
	case p.match("("):
		lowIncl = false
	default:
		p.expect("[")
	}
	low := p.parseExpression()
	p.expect(",")
	high := p.parseExpression()
	var highIncl bool
	switch {
	case p.match("]"):
		highIncl = true
	case p.match(")"):
		highIncl = false
	default:
		p.expect("]")
	}
	return &model.Interval{Low: low, High: high, LowInclusive: lowIncl, HighInclusive: highIncl}
}

// parseRetrieve parses `[ResourceType]` or `[ResourceType: codePath in codesExpr]`.
func (p *parser) parseRetrieve() model.IExpression {
	p.expect("[")
	dataType := p.expectIdent().text
	var codeProp string
	var codesExpr model.IExpression
	if p.match(":") {
		if p.checkKeyword("in") {
			codeProp = "code"
		} else {
			codeProp = p.expectIdent().text
		}
		p.expectKeyword("in")
		codesExpr = p.parseExpression()
	}
	p.expect("]")
	return &model.Retrieve{DataType: dataType, CodeProperty: codeProp, Codes: codesExpr}
}

func (p *parser) parseIfThenElse() model.IExpression {
	p.advance() // 'if'
	cond := p.parseExpression()
	p.expectKeyword("then")
	thenE := p.parseExpression()
	var elseE model.IExpression
	if p.matchKeyword("else") {
		elseE = p.parseExpression()
	}
	return &model.IfThenElse{Condition: cond, Then: thenE, Else: elseE}
}

func (p *parser) parseCase() model.IExpression {
	p.advance() // 'case'
	var comparand model.IExpression
	if !p.checkKeyword("when") {
		comparand = p.parseExpression()
	}
	var items []*model.CaseItem
	for p.checkKeyword("when") {
		p.advance()
		when := p.parseExpression()
		p.expectKeyword("then")
		then := p.parseExpression()
		items = append(items, &model.CaseItem{When: when, Then: then})
	}
	var elseE model.IExpression
	if p.matchKeyword("else") {
		elseE = p.parseExpression()
	}
	p.matchKeyword("end")
	return &model.Case{Comparand: comparand, CaseItem: items, Else: elseE}
}

func (p *parser) parseCodeLiteral() model.IExpression {
	p.advance() // 'Code' / 'code'
	code := p.expectString().text
	p.expectKeyword("from")
	sysName := p.expectIdent().text
	display := ""
	if p.peek().kind == tokString {
		display = p.advance().text
	}
	return &model.Code{System: &model.CodeSystemRef{Name: sysName}, Code: code, Display: display}
}

// parseIdentifierExpr resolves a bare or dot-qualified identifier already consumed as name/tok
// into a reference node: a local alias/definition, a call to a local function, or (if name is the
// local identifier of an included library) a global reference.
func (p *parser) parseIdentifierExpr(name string, tok token) model.IExpression {
	if p.check(".") && p.resolver.ResolveInclude(name) != nil {
		libName := name
		p.advance()
		member := p.expectIdent()
		if p.check("(") {
			args := p.parseArgumentList()
			if _, err := p.resolver.ResolveGlobalFunc(libName, member.text, len(args), false); err != nil {
				p.reportError(err.Error(), member)
			}
			return &model.FunctionRef{Name: member.text, LibraryName: libName, Operands: args}
		}
		def, err := p.resolver.ResolveGlobal(libName, member.text)
		if err != nil {
			return p.badExpression(err.Error(), member)
		}
		return p.wrapRef(def, member.text, libName)
	}

	if p.check("(") {
		args := p.parseArgumentList()
		if builtin, ok := p.tryBuiltinCall(name, args); ok {
			return builtin
		}
		if _, err := p.resolver.ResolveLocalFunc(name, len(args), false); err != nil {
			p.reportError(err.Error(), tok)
		}
		return &model.FunctionRef{Name: name, Operands: args}
	}

	def, err := p.resolver.ResolveLocal(name)
	if err != nil {
		return p.badExpression(err.Error(), tok)
	}
	return p.wrapRef(def, name, "")
}

// wrapRef turns a definition resolved by name (an *model.ExpressionDef, *model.ParameterDef,
// *model.ValuesetDef, *model.CodeSystemDef, *model.ConceptDef, or *model.CodeDef) into the
// lightweight reference node expressions use to refer to it. Aliases and query `let` bindings are
// already stored as reference nodes and pass through unchanged.
func (p *parser) wrapRef(def model.IExpression, name, libName string) model.IExpression {
	switch def.(type) {
	case *model.ExpressionDef:
		return &model.ExpressionRef{Name: name, LibraryName: libName}
	case *model.ParameterDef:
		return &model.ParameterRef{Name: name, LibraryName: libName}
	case *model.ValuesetDef:
		return &model.ValuesetRef{Name: name, LibraryName: libName}
	case *model.CodeSystemDef:
		return &model.CodeSystemRef{Name: name, LibraryName: libName}
	case *model.ConceptDef:
		return &model.ConceptRef{Name: name, LibraryName: libName}
	case *model.CodeDef:
		return &model.CodeRef{Name: name, LibraryName: libName}
	default:
		return def
	}
}
