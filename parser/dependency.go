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

	"github.com/lattice-health/cqlcore/result"
	"gopkg.in/gyuho/goraph.v2"
)

// libHeader is the subset of a library's declarations needed to order it relative to the other
// libraries being compiled together: its own identity and the libraries it includes.
type libHeader struct {
	key      result.LibKey
	includes []result.LibKey
}

// scanLibHeader lexes src just far enough to read its `library` declaration and `include`
// statements, without running the full recursive-descent parser or touching the reference
// resolver. include statements are recognized wherever they occur in the token stream, since CQL
// allows using/include/parameter/terminology declarations in any order.
func scanLibHeader(src string) (libHeader, *ParsingError) {
	toks, err := newLexer(src).tokenize()
	if err != nil {
		return libHeader{}, err
	}

	var h libHeader
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		if t.kind != tokIdent {
			continue
		}
		switch {
		case strings.EqualFold(t.text, "library"):
			name, version, next := scanIdentAndOptionalVersion(toks, i+1)
			h.key = result.LibKey{Name: name, Version: version}
			i = next - 1
		case strings.EqualFold(t.text, "include"):
			name, version, next := scanIdentAndOptionalVersion(toks, i+1)
			h.includes = append(h.includes, result.LibKey{Name: name, Version: version})
			i = next - 1
		}
	}
	if h.key.Name == "" {
		h.key = result.UnnamedLibKey()
	}
	return h, nil
}

// scanIdentAndOptionalVersion reads `<ident> [version '<string>']` starting at pos, returning the
// identifier text, the version string (empty if absent), and the index of the next unconsumed
// token.
func scanIdentAndOptionalVersion(toks []token, pos int) (name, version string, next int) {
	if pos >= len(toks) || (toks[pos].kind != tokIdent && toks[pos].kind != tokQuotedIdent) {
		return "", "", pos
	}
	name = toks[pos].text
	pos++
	if pos < len(toks) && toks[pos].kind == tokIdent && strings.EqualFold(toks[pos].text, "version") {
		pos++
		if pos < len(toks) && toks[pos].kind == tokString {
			version = toks[pos].text
			pos++
		}
	}
	return name, version, pos
}

// orderLibrariesByIncludes returns the indices of cqls in an order where every library appears
// after every other library it includes, so Libraries can parse includes before the libraries
// that reference them regardless of the order the caller supplied them in. It mirrors the
// google/cql topological sort, implemented here over a lightweight header scan instead of a full
// parse, and reports an error if the include graph is not a DAG or names a library that was never
// supplied.
func orderLibrariesByIncludes(cqls []string) ([]int, error) {
	headers := make([]libHeader, len(cqls))
	indexByKey := make(map[string]int, len(cqls))
	for i, src := range cqls {
		h, err := scanLibHeader(src)
		if err != nil {
			return nil, &LibraryErrors{Errors: []*ParsingError{err}}
		}
		headers[i] = h
		if !h.key.IsUnnamed {
			if _, dup := indexByKey[h.key.Key()]; dup {
				return nil, fmt.Errorf("cql library %q already imported", h.key.Key())
			}
			indexByKey[h.key.Key()] = i
		}
	}

	graph := goraph.NewGraph()
	nodes := make([]*goraph.Node, len(cqls))
	for i, h := range headers {
		nodes[i] = goraph.NewNode(h.key.Key())
		graph.AddNode(nodes[i])
	}
	for i, h := range headers {
		for _, included := range h.includes {
			includedIdx, ok := resolveInclude(headers, indexByKey, included)
			if !ok {
				return nil, fmt.Errorf("library %q includes %q, which was not supplied to Libraries", h.key.Key(), included.Key())
			}
			if err := graph.AddEdge(nodes[includedIdx].ID(), nodes[i].ID(), 1); err != nil {
				return nil, fmt.Errorf("failed to order library %q: dependency graph rejected edge: %w", h.key.Key(), err)
			}
		}
	}

	sorted, isValidDag := goraph.TopologicalSort(graph)
	if !isValidDag {
		return nil, fmt.Errorf("included cql libraries are not valid, found circular dependencies")
	}

	idOrder := make(map[string]int, len(nodes))
	for i, node := range nodes {
		idOrder[node.ID().String()] = i
	}
	order := make([]int, 0, len(sorted))
	for _, id := range sorted {
		order = append(order, idOrder[id.String()])
	}
	return order, nil
}

// resolveInclude finds the header matching an include statement's target. A versionless include
// resolves to the lexically greatest version sharing that name, mirroring how the reference
// resolver picks a default version for an unversioned include.
func resolveInclude(headers []libHeader, indexByKey map[string]int, included result.LibKey) (int, bool) {
	if included.Version != "" {
		idx, ok := indexByKey[included.Key()]
		return idx, ok
	}
	best := -1
	for i, h := range headers {
		if h.key.IsUnnamed || h.key.Name != included.Name {
			continue
		}
		if best == -1 || strings.Compare(h.key.Version, headers[best].key.Version) == 1 {
			best = i
		}
	}
	return best, best != -1
}
