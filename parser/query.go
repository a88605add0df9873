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

import "github.com/lattice-health/cqlcore/model"

// parseQuery parses a multi-source `from source1 alias1, source2 alias2, ... <clauses>` query.
// Single-source queries with no leading `from` are handled by
// expressions.go's tryParseQueryContinuation, which shares parseQueryClauses below.
func (p *parser) parseQuery() model.IExpression {
	p.advance() // 'from'
	p.resolver.EnterScope()
	var sources []*model.AliasedSource
	for {
		srcExpr := p.parseImplies()
		alias := p.expectIdent().text
		if err := p.resolver.Alias(alias, &model.AliasRef{Name: alias}); err != nil {
			p.reportError(err.Error(), p.peek())
		}
		sources = append(sources, &model.AliasedSource{Alias: alias, Source: srcExpr})
		if !p.match(",") {
			break
		}
	}
	q := p.parseQueryClauses(sources)
	p.resolver.ExitScope()
	return q
}

// parseQueryClauses parses the clauses that follow a query's source list: `let`, any number of
// `with`/`without` relationship clauses, `where`, then either `aggregate` or `return`, then an
// optional `sort by`. The caller has already entered the alias scope that sources were registered
// in.
func (p *parser) parseQueryClauses(sources []*model.AliasedSource) *model.Query {
	q := &model.Query{Source: sources}

	if p.checkKeyword("let") {
		p.advance()
		for {
			name := p.expectIdent().text
			p.expect(":")
			val := p.parseExpression()
			if err := p.resolver.Alias(name, &model.QueryLetRef{Name: name}); err != nil {
				p.reportError(err.Error(), p.peek())
			}
			q.Let = append(q.Let, &model.LetClause{Identifier: name, Expression: val})
			if !p.match(",") {
				break
			}
		}
	}

	for p.checkKeyword("with") || p.checkKeyword("without") {
		negate := p.checkKeyword("without")
		p.advance()
		srcExpr := p.parseImplies()
		alias := p.expectIdent().text

		p.resolver.EnterScope()
		if err := p.resolver.Alias(alias, &model.AliasRef{Name: alias}); err != nil {
			p.reportError(err.Error(), p.peek())
		}
		p.expectKeyword("such")
		p.expectKeyword("that")
		suchThat := p.parseExpression()
		p.resolver.ExitScope()

		rc := model.RelationshipClause{Alias: alias, Expression: srcExpr, SuchThat: suchThat}
		if negate {
			q.Relationship = append(q.Relationship, &model.Without{RelationshipClause: rc})
		} else {
			q.Relationship = append(q.Relationship, &model.With{RelationshipClause: rc})
		}
	}

	if p.matchKeyword("where") {
		q.Where = p.parseExpression()
	}

	switch {
	case p.checkKeyword("aggregate"):
		p.advance()
		distinct := p.matchKeyword("distinct")
		p.matchKeyword("all")
		id := p.expectIdent().text
		var starting model.IExpression
		if p.matchKeyword("starting") {
			starting = p.parseExpression()
		}
		p.expect(":")

		p.resolver.EnterScope()
		if err := p.resolver.Alias(id, &model.QueryLetRef{Name: id}); err != nil {
			p.reportError(err.Error(), p.peek())
		}
		expr := p.parseExpression()
		p.resolver.ExitScope()

		q.Aggregate = &model.AggregateClause{Identifier: id, Starting: starting, Expression: expr, Distinct: distinct}
	case p.checkKeyword("return"):
		p.advance()
		distinct := p.matchKeyword("distinct")
		p.matchKeyword("all")
		q.Return = &model.ReturnClause{Distinct: distinct, Expression: p.parseExpression()}
	}

	if p.checkKeyword("sort") {
		p.advance()
		p.expectKeyword("by")
		q.Sort = &model.SortClause{ByItems: p.parseSortByItems()}
	}

	return q
}

func (p *parser) parseSortByItems() []model.ISortByItem {
	var items []model.ISortByItem
	for {
		if p.checkKeyword("ascending") || p.checkKeyword("descending") {
			dir := model.Ascending
			if p.checkKeyword("descending") {
				dir = model.Descending
			}
			p.advance()
			items = append(items, &model.SortByDirection{Direction: dir})
		} else {
			path := p.expectIdent().text
			dir := model.Ascending
			switch {
			case p.matchKeyword("descending"):
				dir = model.Descending
			default:
				p.matchKeyword("ascending")
			}
			items = append(items, &model.SortByColumn{Path: path, Direction: dir})
		}
		if !p.match(",") {
			break
		}
	}
	return items
}
