// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package elm

import "github.com/lattice-health/cqlcore/model"

// queryNode lowers the full `from ... where ... return ...` comprehension, one sub-clause at a
// time. Every clause is optional except source, mirroring Query's own struct shape.
func (s *Serializer) queryNode(q *model.Query) (map[string]any, error) {
	sources := make([]any, len(q.Source))
	for i, src := range q.Source {
		node, err := s.serializeExpression(src.Source)
		if err != nil {
			return nil, err
		}
		sources[i] = map[string]any{"alias": src.Alias, "expression": node}
	}
	node := map[string]any{"type": "Query", "source": sources}

	if len(q.Let) > 0 {
		lets := make([]any, len(q.Let))
		for i, l := range q.Let {
			val, err := s.serializeExpression(l.Expression)
			if err != nil {
				return nil, err
			}
			lets[i] = map[string]any{"identifier": l.Identifier, "expression": val}
		}
		node["let"] = lets
	}

	if len(q.Relationship) > 0 {
		rels := make([]any, len(q.Relationship))
		for i, r := range q.Relationship {
			rel, err := s.relationshipNode(r)
			if err != nil {
				return nil, err
			}
			rels[i] = rel
		}
		node["relationship"] = rels
	}

	if q.Where != nil {
		where, err := s.serializeExpression(q.Where)
		if err != nil {
			return nil, err
		}
		node["where"] = where
	}

	if q.Sort != nil {
		sort, err := s.sortNode(q.Sort)
		if err != nil {
			return nil, err
		}
		node["sort"] = sort
	}

	if q.Aggregate != nil {
		agg, err := s.aggregateNode(q.Aggregate)
		if err != nil {
			return nil, err
		}
		node["aggregate"] = agg
	}

	if q.Return != nil {
		ret, err := s.serializeExpression(q.Return.Expression)
		if err != nil {
			return nil, err
		}
		node["return"] = map[string]any{"distinct": q.Return.Distinct, "expression": ret}
	}

	return node, nil
}

func (s *Serializer) relationshipNode(r model.IRelationshipClause) (map[string]any, error) {
	expr, err := s.serializeExpression(r.GetExpression())
	if err != nil {
		return nil, err
	}
	suchThat, err := s.serializeExpression(r.GetSuchThat())
	if err != nil {
		return nil, err
	}
	discriminator := "With"
	if _, ok := r.(*model.Without); ok {
		discriminator = "Without"
	}
	return map[string]any{"type": discriminator, "alias": r.GetAlias(), "expression": expr, "suchThat": suchThat}, nil
}

func (s *Serializer) sortNode(sc *model.SortClause) (map[string]any, error) {
	items := make([]any, len(sc.ByItems))
	for i, item := range sc.ByItems {
		switch col := item.(type) {
		case *model.SortByColumn:
			items[i] = map[string]any{"type": "ByColumn", "path": col.Path, "direction": sortDirectionName(col.Direction)}
		case *model.SortByDirection:
			items[i] = map[string]any{"type": "ByDirection", "direction": sortDirectionName(col.Direction)}
		}
	}
	return map[string]any{"by": items}, nil
}

func sortDirectionName(d model.SortDirection) string {
	if d == model.Descending {
		return "desc"
	}
	return "asc"
}

func (s *Serializer) aggregateNode(a *model.AggregateClause) (map[string]any, error) {
	expr, err := s.serializeExpression(a.Expression)
	if err != nil {
		return nil, err
	}
	node := map[string]any{"identifier": a.Identifier, "distinct": a.Distinct, "expression": expr}
	if a.Starting != nil {
		starting, err := s.serializeExpression(a.Starting)
		if err != nil {
			return nil, err
		}
		node["starting"] = starting
	}
	return node, nil
}
