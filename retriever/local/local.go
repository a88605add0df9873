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

// Package local is an in-memory implementation of retriever.DataSource for the CQL engine. It is
// initialized from a slice of JSON resource documents, each required to carry a "resourceType"
// field, mirroring the shape used by tests and the CLI.
package local

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/lattice-health/cqlcore/result"
	"github.com/lattice-health/cqlcore/retriever"
	"github.com/lattice-health/cqlcore/terminology"
)

// DataSource implements retriever.DataSource over resources held entirely in memory.
type DataSource struct {
	resources map[string][]result.Named
	terms     terminology.Provider
}

// NewDataSource builds a DataSource from jsonDocs, one JSON object per resource. terms is
// consulted for value-set-filtered retrieves; it may be nil if no retrieve in the evaluated
// libraries ever filters by value set.
func NewDataSource(jsonDocs []string, terms terminology.Provider) (*DataSource, error) {
	ds := &DataSource{resources: make(map[string][]result.Named), terms: terms}
	for _, doc := range jsonDocs {
		var raw map[string]any
		if err := json.Unmarshal([]byte(doc), &raw); err != nil {
			return nil, fmt.Errorf("decoding resource: %w", err)
		}
		resourceType, _ := raw["resourceType"].(string)
		if resourceType == "" {
			return nil, fmt.Errorf("resource missing resourceType field")
		}
		named, err := toNamed(resourceType, raw)
		if err != nil {
			return nil, err
		}
		ds.resources[resourceType] = append(ds.resources[resourceType], named)
	}
	return ds, nil
}

// Retrieve returns every loaded resource of resourceType, narrowed by filter when non-nil.
func (d *DataSource) Retrieve(ctx context.Context, resourceType string, filter *retriever.Filter) ([]result.Named, error) {
	resources := d.resources[resourceType]
	if filter == nil || filter.CodePath == "" {
		return resources, nil
	}

	matched := make([]result.Named, 0, len(resources))
	for _, r := range resources {
		codes := codesAtPath(r, filter.CodePath)
		ok, err := d.matchesFilter(codes, filter)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, r)
		}
	}
	return matched, nil
}

func (d *DataSource) matchesFilter(codes []terminology.Code, filter *retriever.Filter) (bool, error) {
	if len(filter.Codes) > 0 {
		for _, want := range filter.Codes {
			for _, c := range codes {
				if c.Code == want.Code && c.System == want.System {
					return true, nil
				}
			}
		}
		return false, nil
	}
	if filter.ValueSet != "" {
		if d.terms == nil {
			return false, fmt.Errorf("retrieve filtered by value set %q but no terminology provider was configured", filter.ValueSet)
		}
		return d.terms.AnyInValueSet(codes, filter.ValueSet, "")
	}
	return true, nil
}

// codesAtPath reads the resource field at path and coerces it to a slice of terminology.Code,
// accepting either a single {code, system} tuple or a list of them.
func codesAtPath(r result.Named, path string) []terminology.Code {
	v, ok := r.Value[path]
	if !ok || result.IsNull(v) {
		return nil
	}
	switch payload := v.GolangValue().(type) {
	case result.Tuple:
		if c, ok := codeFromTuple(payload); ok {
			return []terminology.Code{c}
		}
	case result.List:
		var codes []terminology.Code
		for _, elem := range payload.Value {
			if t, ok := elem.GolangValue().(result.Tuple); ok {
				if c, ok := codeFromTuple(t); ok {
					codes = append(codes, c)
				}
			}
		}
		return codes
	case result.Code:
		return []terminology.Code{{Code: payload.Code, System: payload.System, Display: payload.Display}}
	}
	return nil
}

func codeFromTuple(t result.Tuple) (terminology.Code, bool) {
	codeVal, hasCode := t.Value["code"]
	if !hasCode {
		return terminology.Code{}, false
	}
	code, _ := codeVal.GolangValue().(string)
	system, _ := t.Value["system"].GolangValue().(string)
	display, _ := t.Value["display"].GolangValue().(string)
	return terminology.Code{Code: code, System: system, Display: display}, true
}

func toNamed(resourceType string, raw map[string]any) (result.Named, error) {
	fields := make(map[string]result.Value, len(raw))
	for k, v := range raw {
		val, err := toValue(v)
		if err != nil {
			return result.Named{}, err
		}
		fields[k] = val
	}
	return result.Named{Value: fields, TypeName: resourceType}, nil
}

// toValue recursively converts a decoded JSON value (as produced by encoding/json's default
// map[string]any unmarshaling) into a result.Value. JSON numbers become Decimal, objects become
// Tuple, and arrays become List.
func toValue(v any) (result.Value, error) {
	switch t := v.(type) {
	case nil:
		return result.New(nil)
	case bool:
		return result.New(t)
	case string:
		return result.New(t)
	case float64:
		return result.New(decimal.NewFromFloat(t))
	case []any:
		elems := make([]result.Value, 0, len(t))
		for _, e := range t {
			ev, err := toValue(e)
			if err != nil {
				return result.Value{}, err
			}
			elems = append(elems, ev)
		}
		return result.New(result.List{Value: elems})
	case map[string]any:
		fields := make(map[string]result.Value, len(t))
		order := make([]string, 0, len(t))
		for k, fv := range t {
			val, err := toValue(fv)
			if err != nil {
				return result.Value{}, err
			}
			fields[k] = val
			order = append(order, k)
		}
		return result.New(result.Tuple{Value: fields, Order: order})
	default:
		return result.Value{}, fmt.Errorf("unsupported JSON value of type %T", v)
	}
}
