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

	"github.com/lattice-health/cqlcore/model"
)

// precisionNames renders a DateTimePrecision as the capitalized unit name ELM's timing-phrase
// "precision" attribute expects.
var precisionNames = map[model.DateTimePrecision]string{
	model.Year:        "Year",
	model.Month:       "Month",
	model.Week:        "Week",
	model.Day:         "Day",
	model.Hour:        "Hour",
	model.Minute:      "Minute",
	model.Second:      "Second",
	model.Millisecond: "Millisecond",
}

// serializeExpression dispatches on the concrete Go type of e, the same way
// interpreter.evalUnaryExpression/evalBinaryExpression/evalNaryExpression dispatch for
// evaluation. Every node type model defines has a case here; the handful that share identical
// ELM shapes (every BinaryExpression-only operator, for instance) are grouped by falling through
// shared helpers rather than repeating fields.
func (s *Serializer) serializeExpression(e model.IExpression) (map[string]any, error) {
	if e == nil {
		return nil, nil
	}

	switch t := e.(type) {
	case *model.Literal:
		return s.literalNode(t)
	case *model.Quantity:
		return map[string]any{"type": "Quantity", "value": t.Value, "unit": t.Unit}, nil
	case *model.Ratio:
		num, err := s.serializeExpression(&model.Quantity{Value: t.Numerator.Value, Unit: t.Numerator.Unit})
		if err != nil {
			return nil, err
		}
		den, err := s.serializeExpression(&model.Quantity{Value: t.Denominator.Value, Unit: t.Denominator.Unit})
		if err != nil {
			return nil, err
		}
		return map[string]any{"type": "Ratio", "numerator": num, "denominator": den}, nil
	case *model.Interval:
		return s.intervalNode(t)
	case *model.List:
		elems := make([]any, len(t.List))
		for i, el := range t.List {
			node, err := s.serializeExpression(el)
			if err != nil {
				return nil, err
			}
			elems[i] = node
		}
		return map[string]any{"type": "List", "element": elems}, nil
	case *model.Tuple:
		elems := make([]any, len(t.Elements))
		for i, el := range t.Elements {
			val, err := s.serializeExpression(el.Value)
			if err != nil {
				return nil, err
			}
			elems[i] = map[string]any{"name": el.Name, "value": val}
		}
		return map[string]any{"type": "Tuple", "element": elems}, nil
	case *model.Instance:
		elems := make([]any, len(t.Elements))
		for i, el := range t.Elements {
			val, err := s.serializeExpression(el.Value)
			if err != nil {
				return nil, err
			}
			elems[i] = map[string]any{"name": el.Name, "value": val}
		}
		return map[string]any{"type": "Instance", "classType": typeNode(t.ClassType), "element": elems}, nil
	case *model.Code:
		node := map[string]any{"type": "Code", "code": t.Code, "display": t.Display}
		if t.System != nil {
			node["system"] = map[string]any{"name": t.System.Name}
		}
		return node, nil
	case *model.Query:
		return s.queryNode(t)
	case *model.Property:
		source, err := s.serializeExpression(t.Source)
		if err != nil {
			return nil, err
		}
		return map[string]any{"type": "Property", "source": source, "path": t.Path}, nil
	case *model.Retrieve:
		node := map[string]any{"type": "Retrieve", "dataType": fhirNamespace + t.DataType}
		if t.CodeProperty != "" {
			node["codeProperty"] = t.CodeProperty
		}
		if t.Codes != nil {
			codes, err := s.serializeExpression(t.Codes)
			if err != nil {
				return nil, err
			}
			node["codes"] = codes
		}
		return node, nil
	case *model.Case:
		return s.caseNode(t)
	case *model.IfThenElse:
		cond, err := s.serializeExpression(t.Condition)
		if err != nil {
			return nil, err
		}
		then, err := s.serializeExpression(t.Then)
		if err != nil {
			return nil, err
		}
		els, err := s.serializeExpression(t.Else)
		if err != nil {
			return nil, err
		}
		return map[string]any{"type": "If", "condition": cond, "then": then, "else": els}, nil
	case *model.MaxValue:
		return map[string]any{"type": "MaxValue", "valueType": typeNode(t.ValueType)}, nil
	case *model.MinValue:
		return map[string]any{"type": "MinValue", "valueType": typeNode(t.ValueType)}, nil
	case *model.Between:
		operand, err := s.serializeExpression(t.Operand)
		if err != nil {
			return nil, err
		}
		low, err := s.serializeExpression(t.Low)
		if err != nil {
			return nil, err
		}
		high, err := s.serializeExpression(t.High)
		if err != nil {
			return nil, err
		}
		return map[string]any{"type": "Between", "operand": operand, "low": low, "high": high}, nil
	case *model.InValueSet:
		code, err := s.serializeExpression(t.Operands[0])
		if err != nil {
			return nil, err
		}
		return map[string]any{"type": "InValueSet", "code": code, "valueset": map[string]any{"name": t.Valueset.Name}}, nil
	case *model.InCodeSystem:
		code, err := s.serializeExpression(t.Operands[0])
		if err != nil {
			return nil, err
		}
		return map[string]any{"type": "InCodeSystem", "code": code, "codesystem": map[string]any{"name": t.CodeSystem.Name}}, nil
	case *model.ParameterRef:
		return refNode("ParameterRef", t.Name, t.LibraryName), nil
	case *model.ValuesetRef:
		return refNode("ValueSetRef", t.Name, t.LibraryName), nil
	case *model.CodeSystemRef:
		return refNode("CodeSystemRef", t.Name, t.LibraryName), nil
	case *model.ConceptRef:
		return refNode("ConceptRef", t.Name, t.LibraryName), nil
	case *model.CodeRef:
		return refNode("CodeRef", t.Name, t.LibraryName), nil
	case *model.ExpressionRef:
		return refNode("ExpressionRef", t.Name, t.LibraryName), nil
	case *model.AliasRef:
		return map[string]any{"type": "AliasRef", "name": t.Name}, nil
	case *model.QueryLetRef:
		return map[string]any{"type": "QueryLetRef", "name": t.Name}, nil
	case *model.OperandRef:
		return map[string]any{"type": "OperandRef", "name": t.Name}, nil
	case *model.FunctionRef:
		return s.functionRefNode(t)
	}

	if u, ok := e.(model.IUnaryExpression); ok {
		return s.unaryNode(u)
	}
	if b, ok := e.(model.IBinaryExpression); ok {
		return s.binaryNode(b)
	}
	if n, ok := e.(model.INaryExpression); ok {
		return s.naryNode(n)
	}
	return nil, fmt.Errorf("elm: unsupported expression type %T", e)
}

func refNode(discriminator, name, libraryName string) map[string]any {
	node := map[string]any{"type": discriminator, "name": name}
	if libraryName != "" {
		node["libraryName"] = libraryName
	}
	return node
}

// literalNode lowers a scalar literal. Decimals are kept as their source text (already a
// canonical decimal string) rather than round-tripped through float64, preserving exactness the
// way the ELM schema requires.
func (s *Serializer) literalNode(l *model.Literal) (map[string]any, error) {
	name := "String"
	if l.ValueType != nil {
		name = l.ValueType.String()
	}
	return map[string]any{"type": "Literal", "valueType": elmTypePrefix + trimSystemPrefix(name), "value": l.Value}, nil
}

func trimSystemPrefix(name string) string {
	const prefix = "System."
	if len(name) > len(prefix) && name[:len(prefix)] == prefix {
		return name[len(prefix):]
	}
	return name
}

func (s *Serializer) intervalNode(iv *model.Interval) (map[string]any, error) {
	low, err := s.serializeExpression(iv.Low)
	if err != nil {
		return nil, err
	}
	high, err := s.serializeExpression(iv.High)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"type":      "Interval",
		"low":       low,
		"high":      high,
		"lowClosed": iv.LowInclusive,
		"highClosed": iv.HighInclusive,
	}, nil
}

func (s *Serializer) caseNode(c *model.Case) (map[string]any, error) {
	items := make([]any, len(c.CaseItem))
	for i, ci := range c.CaseItem {
		when, err := s.serializeExpression(ci.When)
		if err != nil {
			return nil, err
		}
		then, err := s.serializeExpression(ci.Then)
		if err != nil {
			return nil, err
		}
		items[i] = map[string]any{"when": when, "then": then}
	}
	els, err := s.serializeExpression(c.Else)
	if err != nil {
		return nil, err
	}
	node := map[string]any{"type": "Case", "caseItem": items, "else": els}
	if c.Comparand != nil {
		comparand, err := s.serializeExpression(c.Comparand)
		if err != nil {
			return nil, err
		}
		node["comparand"] = comparand
	}
	return node, nil
}

func (s *Serializer) functionRefNode(f *model.FunctionRef) (map[string]any, error) {
	operands := make([]any, len(f.Operands))
	for i, op := range f.Operands {
		node, err := s.serializeExpression(op)
		if err != nil {
			return nil, err
		}
		operands[i] = node
	}
	if discriminator, ok := builtinOperatorNames[f.Name]; ok && f.LibraryName == "" {
		return map[string]any{"type": discriminator, "operand": operands}, nil
	}
	node := map[string]any{"type": "FunctionRef", "name": f.Name, "operand": operands}
	if f.LibraryName != "" {
		node["libraryName"] = f.LibraryName
	}
	return node, nil
}

// builtinOperatorNames maps a closed set of CQL system function names, as they would appear in a
// FunctionRef built by a hand-authored model tree, onto the ELM discriminator for the equivalent
// built-in operator. Anything outside this vocabulary degrades to a generic FunctionRef, which is
// always a valid (if less specific) ELM lowering.
var builtinOperatorNames = map[string]string{
	"Abs":     "Abs",
	"Ceiling": "Ceiling",
	"Floor":   "Floor",
	"Round":   "Round",
	"Combine": "Combine",
	"Split":   "Split",
	"Indexer": "Indexer",
}

func (s *Serializer) unaryNode(u model.IUnaryExpression) (map[string]any, error) {
	operand, err := s.serializeExpression(u.GetOperand())
	if err != nil {
		return nil, err
	}
	discriminator, ok := unaryDiscriminators[fmt.Sprintf("%T", u)]
	if !ok {
		return nil, fmt.Errorf("elm: unsupported unary expression type %T", u)
	}
	node := map[string]any{"type": discriminator, "operand": operand}
	switch t := u.(type) {
	case *model.As:
		node["asType"] = typeNode(t.AsType)
		node["strict"] = t.Strict
	case *model.Is:
		node["isType"] = typeNode(t.IsType)
	case *model.CalculateAge:
		node["precision"] = precisionNames[t.Precision]
	}
	return node, nil
}

func (s *Serializer) binaryNode(b model.IBinaryExpression) (map[string]any, error) {
	operands := make([]any, 0, 2)
	for _, op := range b.GetOperands() {
		node, err := s.serializeExpression(op)
		if err != nil {
			return nil, err
		}
		operands = append(operands, node)
	}
	discriminator, ok := binaryDiscriminators[fmt.Sprintf("%T", b)]
	if !ok {
		return nil, fmt.Errorf("elm: unsupported binary expression type %T", b)
	}
	node := map[string]any{"type": discriminator, "operand": operands}
	if p, ok := asPrecisionExpression(b); ok {
		node["precision"] = precisionNames[p]
	}
	return node, nil
}

// asPrecisionExpression extracts the Precision field from the timing-phrase node types, none of
// which expose it through an interface method (the field is embedded via
// BinaryExpressionWithPrecision, not wrapped in a getter).
func asPrecisionExpression(b model.IBinaryExpression) (model.DateTimePrecision, bool) {
	switch t := b.(type) {
	case *model.Before:
		return t.Precision, true
	case *model.After:
		return t.Precision, true
	case *model.SameOrBefore:
		return t.Precision, true
	case *model.SameOrAfter:
		return t.Precision, true
	case *model.SameAs:
		return t.Precision, true
	case *model.DifferenceBetween:
		return t.Precision, true
	case *model.DurationBetween:
		return t.Precision, true
	case *model.During:
		return t.Precision, true
	case *model.CalculateAgeAt:
		return t.Precision, true
	default:
		return model.UnsetDateTimePrecision, false
	}
}

func (s *Serializer) naryNode(n model.INaryExpression) (map[string]any, error) {
	operands := make([]any, 0, len(n.GetOperands()))
	for _, op := range n.GetOperands() {
		node, err := s.serializeExpression(op)
		if err != nil {
			return nil, err
		}
		operands = append(operands, node)
	}
	discriminator, ok := naryDiscriminators[fmt.Sprintf("%T", n)]
	if !ok {
		return nil, fmt.Errorf("elm: unsupported variadic expression type %T", n)
	}
	return map[string]any{"type": discriminator, "operand": operands}, nil
}

// unaryDiscriminators, binaryDiscriminators, and naryDiscriminators map the Go type name of each
// concrete operator node (as rendered by "%T") onto its ELM JSON "type" discriminator. They are
// keyed by type name rather than by a type switch because the unary/binary/nary families each
// hold several dozen otherwise-identical wrapper types; a map keeps the mapping itself the only
// place that knows about all of them.
var unaryDiscriminators = map[string]string{
	"*model.As": "As", "*model.Is": "Is", "*model.Negate": "Negate", "*model.Truncate": "Truncate",
	"*model.Exists": "Exists", "*model.Not": "Not", "*model.First": "First", "*model.Last": "Last",
	"*model.SingletonFrom": "SingletonFrom", "*model.Start": "Start", "*model.End": "End",
	"*model.Predecessor": "Predecessor", "*model.Successor": "Successor", "*model.IsNull": "IsNull",
	"*model.IsFalse": "IsFalse", "*model.IsTrue": "IsTrue", "*model.ToBoolean": "ToBoolean",
	"*model.ToDateTime": "ToDateTime", "*model.ToDate": "ToDate", "*model.ToDecimal": "ToDecimal",
	"*model.ToLong": "ToLong", "*model.ToInteger": "ToInteger", "*model.ToQuantity": "ToQuantity",
	"*model.ToConcept": "ToConcept", "*model.ToString": "ToString", "*model.ToTime": "ToTime",
	"*model.AllTrue": "AllTrue", "*model.AnyTrue": "AnyTrue", "*model.Count": "Count",
	"*model.Sum": "Sum", "*model.Avg": "Avg", "*model.Product": "Product",
	"*model.GeometricMean": "GeometricMean", "*model.Min": "Min", "*model.Max": "Max",
	"*model.Median": "Median", "*model.Mode": "Mode", "*model.Variance": "Variance",
	"*model.PopulationVariance": "PopulationVariance", "*model.StdDev": "StdDev",
	"*model.PopulationStdDev": "PopulationStdDev", "*model.CalculateAge": "CalculateAge",
	"*model.Width": "Width", "*model.PointFrom": "PointFrom", "*model.Collapse": "Collapse",
	"*model.Flatten": "Flatten", "*model.Distinct": "Distinct", "*model.Length": "Length",
	"*model.Upper": "Upper", "*model.Lower": "Lower",
}

var binaryDiscriminators = map[string]string{
	"*model.CanConvertQuantity": "CanConvertQuantity", "*model.Equal": "Equal",
	"*model.Equivalent": "Equivalent", "*model.Less": "Less", "*model.Greater": "Greater",
	"*model.LessOrEqual": "LessOrEqual", "*model.GreaterOrEqual": "GreaterOrEqual",
	"*model.And": "And", "*model.Or": "Or", "*model.XOr": "Xor", "*model.Implies": "Implies",
	"*model.Add": "Add", "*model.Subtract": "Subtract", "*model.Multiply": "Multiply",
	"*model.Divide": "Divide", "*model.Modulo": "Modulo", "*model.TruncatedDivide": "TruncatedDivide",
	"*model.Power": "Power", "*model.Concatenate": "Concatenate", "*model.Except": "Except",
	"*model.Intersect": "Intersect", "*model.Union": "Union", "*model.In": "In",
	"*model.IncludedIn": "IncludedIn", "*model.Contains": "Contains", "*model.Includes": "Includes",
	"*model.ProperIn": "ProperIn", "*model.ProperIncludedIn": "ProperIncludedIn",
	"*model.ProperContains": "ProperContains", "*model.ProperIncludes": "ProperIncludes",
	"*model.Overlaps": "Overlaps", "*model.Meets": "Meets", "*model.MeetsBefore": "MeetsBefore",
	"*model.MeetsAfter": "MeetsAfter", "*model.Starts": "Starts", "*model.Ends": "Ends",
	"*model.Expand": "Expand", "*model.Before": "Before", "*model.After": "After",
	"*model.SameOrBefore": "SameOrBefore", "*model.SameOrAfter": "SameOrAfter",
	"*model.SameAs": "SameAs", "*model.DifferenceBetween": "DifferenceBetween",
	"*model.DurationBetween": "DurationBetween", "*model.During": "During",
	"*model.CalculateAgeAt": "CalculateAgeAt",
}

var naryDiscriminators = map[string]string{
	"*model.Coalesce": "Coalesce", "*model.Concat": "Concat", "*model.Date": "Date",
	"*model.DateTime": "DateTime", "*model.Now": "Now", "*model.TimeOfDay": "TimeOfDay",
	"*model.Time": "Time", "*model.Today": "Today",
}
