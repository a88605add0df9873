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

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lattice-health/cqlcore/types"
)

// elmTypePrefix is the URN ELM uses for the CQL System primitives.
const elmTypePrefix = "{urn:hl7-org:elm-types:r1}"

// fhirNamespace is the namespace ELM uses for externally-modeled (FHIR) types, referenced by
// name only since this engine never inspects their shape.
const fhirNamespace = "{http://hl7.org/fhir}"

// systemTypeURN renders a System primitive as its ELM-qualified URN, e.g.
// "{urn:hl7-org:elm-types:r1}Integer".
func systemTypeURN(s types.System) string {
	return elmTypePrefix + strings.TrimPrefix(s.String(), "System.")
}

// typeNode renders t as an ELM type specifier node: NamedTypeSpecifier for System and Named
// types, ListTypeSpecifier/IntervalTypeSpecifier/ChoiceTypeSpecifier/TupleTypeSpecifier for the
// structured ones. Returns nil if t is nil, since a missing static type is not an error at
// serialization time (the parser leaves some nodes untyped).
func typeNode(t types.IType) map[string]any {
	if t == nil {
		return nil
	}
	switch v := t.(type) {
	case types.System:
		return map[string]any{"type": "NamedTypeSpecifier", "name": systemTypeURN(v)}
	case *types.Named:
		return map[string]any{"type": "NamedTypeSpecifier", "name": fhirNamespace + v.TypeName}
	case *types.List:
		return map[string]any{"type": "ListTypeSpecifier", "elementType": typeNode(v.ElementType)}
	case *types.Interval:
		return map[string]any{"type": "IntervalTypeSpecifier", "pointType": typeNode(v.PointType)}
	case *types.Choice:
		choices := make([]any, len(v.ChoiceTypes))
		for i, c := range v.ChoiceTypes {
			choices[i] = typeNode(c)
		}
		return map[string]any{"type": "ChoiceTypeSpecifier", "choice": choices}
	case *types.Tuple:
		names := make([]string, 0, len(v.ElementTypes))
		for n := range v.ElementTypes {
			names = append(names, n)
		}
		sort.Strings(names)
		elements := make([]any, len(names))
		for i, n := range names {
			elements[i] = map[string]any{"name": n, "type": typeNode(v.ElementTypes[n])}
		}
		return map[string]any{"type": "TupleTypeSpecifier", "element": elements}
	default:
		return map[string]any{"type": "NamedTypeSpecifier", "name": fmt.Sprintf("%v", t)}
	}
}
