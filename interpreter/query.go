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

package interpreter

import (
	"fmt"
	"sort"

	"github.com/lattice-health/cqlcore/model"
	"github.com/lattice-health/cqlcore/result"
)

// bindAlias registers v as the already-resolved value for name in the innermost open scope. Every
// query-scoped name -- a source alias, a let binding, a with/without relationship alias, or an
// aggregate accumulator -- is bound this way, so evalAliasRef and evalQueryLetRef's call to force
// never evaluates anything; it only ever returns a value that is already sitting in a thunk.
func (i *interpreter) bindAlias(name string, v result.Value) error {
	if err := i.refs.Alias(name, resolvedThunk(v)); err != nil {
		return result.NewEngineError(name, result.KindCompile, err)
	}
	return nil
}

// evalQuery evaluates a full `from ... where ... return ...` comprehension. Sources are iterated
// left to right, each nested inside the scope opened by the ones before it, so a later source's
// expression (and every let, relationship, where, aggregate, and return clause) may refer to any
// earlier alias. With a single source the query's natural row value is that source's alias; with
// more than one it is a Tuple keyed by alias name.
func (i *interpreter) evalQuery(q *model.Query) (result.Value, error) {
	var rows []result.Value
	var seen []result.Value
	aggregating := q.Aggregate != nil
	var aggState result.Value
	if aggregating {
		if q.Aggregate.Starting != nil {
			v, err := i.evalExpression(q.Aggregate.Starting)
			if err != nil {
				return result.Value{}, err
			}
			aggState = v
		} else {
			aggState, _ = result.New(nil)
		}
	}

	err := i.iterateQuerySources(q, 0, func() error {
		qualifies, err := i.queryRowQualifies(q)
		if err != nil {
			return err
		}
		if !qualifies {
			return nil
		}

		row, err := i.currentRowValue(q)
		if err != nil {
			return err
		}

		if aggregating {
			if q.Aggregate.Distinct {
				if containsEqual(seen, row) {
					return nil
				}
				seen = append(seen, row)
			}
			i.refs.EnterScope()
			defer i.refs.ExitScope()
			if err := i.bindAlias(q.Aggregate.Identifier, aggState); err != nil {
				return err
			}
			v, err := i.evalExpression(q.Aggregate.Expression)
			if err != nil {
				return err
			}
			aggState = v
			return nil
		}

		if q.Return != nil {
			v, err := i.evalExpression(q.Return.Expression)
			if err != nil {
				return err
			}
			if q.Return.Distinct && containsEqual(rows, v) {
				return nil
			}
			rows = append(rows, v)
			return nil
		}

		rows = append(rows, row)
		return nil
	})
	if err != nil {
		return result.Value{}, err
	}

	if aggregating {
		return aggState.WithSources(q), nil
	}
	if q.Sort != nil {
		if err := i.sortQueryRows(q, rows); err != nil {
			return result.Value{}, err
		}
	}
	return result.NewWithSources(result.List{Value: rows}, q)
}

// iterateQuerySources recursively binds q.Source[idx] (and everything nested inside it) for every
// element of its evaluated list, then calls onRow once every source is bound. A Null source
// contributes no rows at all, matching a query's empty-source-yields-empty-result rule.
func (i *interpreter) iterateQuerySources(q *model.Query, idx int, onRow func() error) error {
	if idx == len(q.Source) {
		return i.bindLetsAndRelationships(q, onRow)
	}
	src := q.Source[idx]
	v, err := i.evalExpression(src.Source)
	if err != nil {
		return err
	}
	if result.IsNull(v) {
		return nil
	}
	elems, err := result.ToSlice(v)
	if err != nil {
		return err
	}
	for _, e := range elems {
		if err := func() error {
			i.refs.EnterScope()
			defer i.refs.ExitScope()
			if err := i.bindAlias(src.Alias, e); err != nil {
				return err
			}
			return i.iterateQuerySources(q, idx+1, onRow)
		}(); err != nil {
			return err
		}
	}
	return nil
}

// bindLetsAndRelationships binds every `let` in order (each may reference an earlier one, so they
// share a single scope), then calls onRow once with that scope still open. Relationship and where
// filtering happen inside queryRowQualifies, not here, since they must see the lets too.
func (i *interpreter) bindLetsAndRelationships(q *model.Query, onRow func() error) error {
	if len(q.Let) == 0 {
		return onRow()
	}
	i.refs.EnterScope()
	defer i.refs.ExitScope()
	for _, let := range q.Let {
		v, err := i.evalExpression(let.Expression)
		if err != nil {
			return err
		}
		if err := i.bindAlias(let.Identifier, v); err != nil {
			return err
		}
	}
	return onRow()
}

// queryRowQualifies reports whether the currently bound row survives every `with`/`without`
// relationship clause and the `where` clause.
func (i *interpreter) queryRowQualifies(q *model.Query) (bool, error) {
	for _, rel := range q.Relationship {
		_, isWith := rel.(*model.With)
		ok, err := i.evalRelationshipClause(rel, isWith)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	if q.Where == nil {
		return true, nil
	}
	keep, _, err := i.tristate(q.Where)
	if err != nil {
		return false, err
	}
	return keep != nil && *keep, nil
}

// evalRelationshipClause evaluates a `with`/`without` clause's correlated source and reports
// whether at least one of its elements satisfies the such-that predicate (for with; the negation
// for without). A Null correlated source satisfies no element, so with fails and without passes.
func (i *interpreter) evalRelationshipClause(rel model.IRelationshipClause, isWith bool) (bool, error) {
	v, err := i.evalExpression(rel.GetExpression())
	if err != nil {
		return false, err
	}
	if result.IsNull(v) {
		return !isWith, nil
	}
	elems, err := result.ToSlice(v)
	if err != nil {
		return false, err
	}
	matched := false
	for _, e := range elems {
		ok, err := func() (bool, error) {
			i.refs.EnterScope()
			defer i.refs.ExitScope()
			if err := i.bindAlias(rel.GetAlias(), e); err != nil {
				return false, err
			}
			b, _, err := i.tristate(rel.GetSuchThat())
			if err != nil {
				return false, err
			}
			return b != nil && *b, nil
		}()
		if err != nil {
			return false, err
		}
		if ok {
			matched = true
			break
		}
	}
	if isWith {
		return matched, nil
	}
	return !matched, nil
}

// currentRowValue resolves the query's natural row value from its currently bound aliases: the
// sole alias's value for a single-source query, or a Tuple of every alias for a multi-source one.
func (i *interpreter) currentRowValue(q *model.Query) (result.Value, error) {
	if len(q.Source) == 1 {
		return i.evalRef("", q.Source[0].Alias)
	}
	fields := make(map[string]result.Value, len(q.Source))
	order := make([]string, 0, len(q.Source))
	for _, src := range q.Source {
		v, err := i.evalRef("", src.Alias)
		if err != nil {
			return result.Value{}, err
		}
		fields[src.Alias] = v
		order = append(order, src.Alias)
	}
	return result.New(result.Tuple{Value: fields, Order: order})
}

// sortQueryRows orders rows in place according to q.Sort's sequence of sort items, each acting as
// a tiebreaker for the ones before it.
func (i *interpreter) sortQueryRows(q *model.Query, rows []result.Value) error {
	var sortErr error
	sort.SliceStable(rows, func(a, b int) bool {
		if sortErr != nil {
			return false
		}
		less, err := i.rowLess(q.Sort.ByItems, rows[a], rows[b])
		if err != nil {
			sortErr = err
			return false
		}
		return less
	})
	return sortErr
}

func (i *interpreter) rowLess(items []model.ISortByItem, a, b result.Value) (bool, error) {
	for _, item := range items {
		var av, bv result.Value
		var desc bool
		switch it := item.(type) {
		case *model.SortByDirection:
			av, bv = a, b
			desc = it.Direction == model.Descending
		case *model.SortByColumn:
			var err error
			av, err = i.valueProperty(a, it.Path)
			if err != nil {
				return false, err
			}
			bv, err = i.valueProperty(b, it.Path)
			if err != nil {
				return false, err
			}
			desc = it.Direction == model.Descending
		default:
			return false, fmt.Errorf("internal error: unsupported sort item %T", item)
		}

		if result.IsNull(av) || result.IsNull(bv) {
			if result.IsNull(av) && result.IsNull(bv) {
				continue
			}
			// Null sorts lowest regardless of direction.
			return result.IsNull(av) != desc, nil
		}
		c, err := compare(av, bv)
		if err != nil {
			return false, err
		}
		if c == 0 {
			continue
		}
		if desc {
			return c > 0, nil
		}
		return c < 0, nil
	}
	return false, nil
}
