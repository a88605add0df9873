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

// Package elm lowers a compiled model.Library into the JSON shape of the HL7 Expression Logical
// Model (ELM), the portable wire format CQL tooling exchanges compiled logic in. Serialization is
// a second, independent walk of the same model.Library tree the interpreter package walks: the
// two never call each other.
package elm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lattice-health/cqlcore/model"
)

// schemaIdentifier is constant across every serialized library; the ELM r1 JSON schema identifies
// itself this way regardless of the CQL source's own identifier.
var schemaIdentifier = map[string]any{"id": "urn:hl7-org:elm", "version": "r1"}

// Serializer walks a model.Library and produces its ELM JSON representation. The zero value is
// ready to use. currentContext is the only state it carries: the `context Patient` (or similar)
// declaration in effect for whichever definition is currently being serialized.
type Serializer struct {
	currentContext string
}

// SerializeLibrary walks lib and returns its ELM JSON tree as a plain map, ready for
// encoding/json or further inspection. The top-level document has a single "library" key, per
// the ELM r1 schema.
func SerializeLibrary(lib *model.Library) (map[string]any, error) {
	s := &Serializer{currentContext: "Patient"}
	body, err := s.serializeLibraryBody(lib)
	if err != nil {
		return nil, err
	}
	return map[string]any{"library": body}, nil
}

// SerializeLibraryJSON is SerializeLibrary followed by JSON encoding. indent is the number of
// spaces per nesting level; zero or negative disables indentation.
func SerializeLibraryJSON(lib *model.Library, indent int) (string, error) {
	tree, err := SerializeLibrary(lib)
	if err != nil {
		return "", err
	}
	var (
		b   []byte
		jerr error
	)
	if indent > 0 {
		b, jerr = json.MarshalIndent(tree, "", strings.Repeat(" ", indent))
	} else {
		b, jerr = json.Marshal(tree)
	}
	if jerr != nil {
		return "", fmt.Errorf("elm: marshaling library to JSON: %w", jerr)
	}
	return string(b), nil
}

// serializeLibraryBody builds the contents of the "library" key: identifier, schemaIdentifier,
// and every non-empty section, in the order the ELM r1 schema documents them.
func (s *Serializer) serializeLibraryBody(lib *model.Library) (map[string]any, error) {
	body := map[string]any{
		"identifier":       serializeIdentifier(lib.Identifier),
		"schemaIdentifier": schemaIdentifier,
	}

	if len(lib.Usings) > 0 {
		usings := make([]any, len(lib.Usings))
		for i, u := range lib.Usings {
			usings[i] = map[string]any{"localIdentifier": u.LocalIdentifier, "uri": u.URI, "version": u.Version}
		}
		body["usings"] = map[string]any{"def": usings}
	}

	if len(lib.Includes) > 0 {
		includes := make([]any, len(lib.Includes))
		for i, inc := range lib.Includes {
			includes[i] = map[string]any{
				"localIdentifier": inc.LocalIdentifier,
				"path":            inc.Identifier.Local,
				"version":         inc.Identifier.Version,
			}
		}
		body["includes"] = map[string]any{"def": includes}
	}

	if len(lib.Parameters) > 0 {
		params := make([]any, len(lib.Parameters))
		for i, p := range lib.Parameters {
			node := map[string]any{"name": p.Name, "accessLevel": accessLevelName(p.AccessLevel)}
			if p.Default != nil {
				def, err := s.serializeExpression(p.Default)
				if err != nil {
					return nil, err
				}
				node["default"] = def
			}
			params[i] = node
		}
		body["parameters"] = map[string]any{"def": params}
	}

	if len(lib.CodeSystems) > 0 {
		defs := make([]any, len(lib.CodeSystems))
		for i, cs := range lib.CodeSystems {
			defs[i] = map[string]any{
				"name":        cs.Name,
				"id":          cs.ID,
				"version":     cs.Version,
				"accessLevel": accessLevelName(cs.AccessLevel),
			}
		}
		body["codeSystems"] = map[string]any{"def": defs}
	}

	if len(lib.Valuesets) > 0 {
		defs := make([]any, len(lib.Valuesets))
		for i, vs := range lib.Valuesets {
			systems := make([]any, len(vs.CodeSystems))
			for j, cs := range vs.CodeSystems {
				systems[j] = map[string]any{"name": cs.Name}
			}
			defs[i] = map[string]any{
				"name":        vs.Name,
				"id":          vs.ID,
				"version":     vs.Version,
				"codeSystem":  systems,
				"accessLevel": accessLevelName(vs.AccessLevel),
			}
		}
		body["valueSets"] = map[string]any{"def": defs}
	}

	if len(lib.Codes) > 0 {
		defs := make([]any, len(lib.Codes))
		for i, c := range lib.Codes {
			node := map[string]any{
				"name":        c.Name,
				"id":          c.Code,
				"display":     c.Display,
				"accessLevel": accessLevelName(c.AccessLevel),
			}
			if c.CodeSystem != nil {
				node["codeSystem"] = map[string]any{"name": c.CodeSystem.Name}
			}
			defs[i] = node
		}
		body["codes"] = map[string]any{"def": defs}
	}

	if len(lib.Concepts) > 0 {
		defs := make([]any, len(lib.Concepts))
		for i, con := range lib.Concepts {
			codes := make([]any, len(con.Codes))
			for j, c := range con.Codes {
				codes[j] = map[string]any{"name": c.Name}
			}
			defs[i] = map[string]any{
				"name":        con.Name,
				"code":        codes,
				"display":     con.Display,
				"accessLevel": accessLevelName(con.AccessLevel),
			}
		}
		body["concepts"] = map[string]any{"def": defs}
	}

	if lib.Statements != nil && len(lib.Statements.Defs) > 0 {
		defs := make([]any, len(lib.Statements.Defs))
		for i, d := range lib.Statements.Defs {
			node, err := s.serializeDef(d)
			if err != nil {
				return nil, err
			}
			defs[i] = node
		}
		body["statements"] = map[string]any{"def": defs}
	}

	return body, nil
}

func serializeIdentifier(id *model.LibraryIdentifier) map[string]any {
	if id == nil {
		return map[string]any{}
	}
	return map[string]any{"id": id.Local, "version": id.Version}
}

func accessLevelName(a model.AccessLevel) string {
	if a == model.Private {
		return "Private"
	}
	return "Public"
}

// serializeDef lowers one top-level definition. FunctionDef overloads and plain ExpressionDefs
// share everything but the operand list and the "type" discriminator FunctionDef needs to
// distinguish itself from a zero-arity define in the ELM statements array.
func (s *Serializer) serializeDef(d model.IExpressionDef) (map[string]any, error) {
	if d.GetContext() != "" {
		s.currentContext = d.GetContext()
	}

	switch fn := d.(type) {
	case *model.FunctionDef:
		node := map[string]any{
			"type":        "FunctionDef",
			"name":        fn.Name,
			"context":     s.currentContext,
			"accessLevel": accessLevelName(fn.AccessLevel),
			"fluent":      fn.Fluent,
			"external":    fn.External,
		}
		operands := make([]any, len(fn.Operands))
		for i, o := range fn.Operands {
			operands[i] = map[string]any{"name": o.Name}
		}
		node["operand"] = operands
		if fn.Expression != nil {
			body, err := s.serializeExpression(fn.Expression)
			if err != nil {
				return nil, err
			}
			node["expression"] = body
		}
		return node, nil
	case *model.ExpressionDef:
		node := map[string]any{
			"name":        fn.Name,
			"context":     s.currentContext,
			"accessLevel": accessLevelName(fn.AccessLevel),
		}
		body, err := s.serializeExpression(fn.Expression)
		if err != nil {
			return nil, err
		}
		node["expression"] = body
		return node, nil
	default:
		return nil, fmt.Errorf("elm: unsupported definition type %T", d)
	}
}
