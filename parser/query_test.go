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

package parser

import (
	"testing"

	"github.com/lattice-health/cqlcore/model"
	"github.com/lithammer/dedent"
)

func parseSingleDef(t *testing.T, cql string) model.IExpression {
	t.Helper()
	libs, err := New(nil).Libraries([]string{cql})
	if err != nil {
		t.Fatalf("Libraries(%q) returned unexpected error: %v", cql, err)
	}
	return libs[0].Statements.Defs[0].(*model.ExpressionDef).Expression
}

func TestExplicitFromQuery(t *testing.T) {
	cql := dedent.Dedent(`
		define Adults: from [Patient] P where P.age > 17 return P.name
	`)
	q, ok := parseSingleDef(t, cql).(*model.Query)
	if !ok {
		t.Fatalf("Adults.Expression is %T, want *model.Query", parseSingleDef(t, cql))
	}
	if len(q.Source) != 1 || q.Source[0].Alias != "P" {
		t.Errorf("Source = %+v, want a single aliased source P", q.Source)
	}
	if q.Where == nil {
		t.Error("Where is nil, want the P.age > 17 condition")
	}
	if q.Return == nil {
		t.Error("Return is nil, want the P.name projection")
	}
}

func TestImplicitSingleSourceQuery(t *testing.T) {
	cql := "define Adults: [Patient] P where P.age > 17"
	q, ok := parseSingleDef(t, cql).(*model.Query)
	if !ok {
		t.Fatalf("Adults.Expression is %T, want *model.Query", parseSingleDef(t, cql))
	}
	if len(q.Source) != 1 || q.Source[0].Alias != "P" {
		t.Errorf("Source = %+v, want a single aliased source P", q.Source)
	}
}

func TestMultiSourceQuery(t *testing.T) {
	cql := "define Joined: from [Patient] P, [Encounter] E where P.id = E.patientId"
	q := parseSingleDef(t, cql).(*model.Query)
	if len(q.Source) != 2 {
		t.Fatalf("Source has %d entries, want 2", len(q.Source))
	}
	if q.Source[0].Alias != "P" || q.Source[1].Alias != "E" {
		t.Errorf("Source aliases = [%s, %s], want [P, E]", q.Source[0].Alias, q.Source[1].Alias)
	}
}

func TestQueryLetClause(t *testing.T) {
	cql := "define WithLet: from [Patient] P let age: P.age where age > 17 return age"
	q := parseSingleDef(t, cql).(*model.Query)
	if len(q.Let) != 1 || q.Let[0].Identifier != "age" {
		t.Fatalf("Let = %+v, want a single binding named age", q.Let)
	}
}

func TestQueryWithRelationshipClause(t *testing.T) {
	cql := dedent.Dedent(`
		define HasCondition:
		  from [Patient] P
		  with [Condition] C such that C.patientId = P.id
		  return P.name
	`)
	q := parseSingleDef(t, cql).(*model.Query)
	if len(q.Relationship) != 1 {
		t.Fatalf("Relationship has %d entries, want 1", len(q.Relationship))
	}
	if _, ok := q.Relationship[0].(*model.With); !ok {
		t.Errorf("Relationship[0] is %T, want *model.With", q.Relationship[0])
	}
}

func TestQueryWithoutRelationshipClause(t *testing.T) {
	cql := dedent.Dedent(`
		define NoCondition:
		  from [Patient] P
		  without [Condition] C such that C.patientId = P.id
		  return P.name
	`)
	q := parseSingleDef(t, cql).(*model.Query)
	if _, ok := q.Relationship[0].(*model.Without); !ok {
		t.Errorf("Relationship[0] is %T, want *model.Without", q.Relationship[0])
	}
}

func TestQueryAggregateClause(t *testing.T) {
	cql := dedent.Dedent(`
		define Total:
		  from [Claim] C
		  aggregate Sum starting 0: Sum + C.amount
	`)
	q := parseSingleDef(t, cql).(*model.Query)
	if q.Aggregate == nil {
		t.Fatal("Aggregate is nil, want the Sum aggregation")
	}
	if q.Aggregate.Identifier != "Sum" || q.Aggregate.Starting == nil {
		t.Errorf("Aggregate = %+v, want identifier Sum with a starting value", q.Aggregate)
	}
}

func TestQuerySortClause(t *testing.T) {
	cql := dedent.Dedent(`
		define Sorted:
		  from [Patient] P
		  sort by P.age descending
	`)
	q := parseSingleDef(t, cql).(*model.Query)
	if q.Sort == nil || len(q.Sort.ByItems) != 1 {
		t.Fatalf("Sort = %+v, want a single sort-by item", q.Sort)
	}
	col, ok := q.Sort.ByItems[0].(*model.SortByColumn)
	if !ok {
		t.Fatalf("ByItems[0] is %T, want *model.SortByColumn", q.Sort.ByItems[0])
	}
	if col.Direction != model.Descending {
		t.Errorf("Direction = %v, want Descending", col.Direction)
	}
}

func TestQueryAliasScopedToQuery(t *testing.T) {
	cql := dedent.Dedent(`
		define First: [Patient] P return P.name
		define Second: P.name
	`)
	_, err := New(nil).Libraries([]string{cql})
	if err == nil {
		t.Fatal("Libraries() succeeded, want an error since P is scoped to the first query only")
	}
}
