// Package types describes the static type system used by the parser, evaluator, and ELM
// serializer. A type is any value implementing IType; the concrete variants are System (the
// built-in primitives), Named (an external, FHIR-shaped type referenced by name only), Interval,
// List, Choice, and Tuple.
package types

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// IType is implemented by every node in the type system. Types are compared structurally with
// Equal, not with Go's == operator, since List/Interval/Tuple/Choice are not comparable.
type IType interface {
	fmt.Stringer
	// Equal reports whether this type is structurally identical to other.
	Equal(other IType) bool
	// modelInfoName is the short name used when describing a type to a user, e.g. in error
	// messages ("Integer", "Interval<Date>").
	modelInfoName() string
}

// System is a built-in CQL primitive type. The zero value is Unset, which is not a usable type.
type System int

// The primitive System types, in the order the CQL specification lists them.
const (
	Unset System = iota
	Any
	Boolean
	Integer
	Long
	Decimal
	Quantity
	Ratio
	String
	Date
	DateTime
	Time
	Code
	Concept
	ValueSet
	CodeSystem
	Vocabulary
)

var systemNames = map[System]string{
	Unset:      "Unset",
	Any:        "Any",
	Boolean:    "Boolean",
	Integer:    "Integer",
	Long:       "Long",
	Decimal:    "Decimal",
	Quantity:   "Quantity",
	Ratio:      "Ratio",
	String:     "String",
	Date:       "Date",
	DateTime:   "DateTime",
	Time:       "Time",
	Code:       "Code",
	Concept:    "Concept",
	ValueSet:   "ValueSet",
	CodeSystem: "CodeSystem",
	Vocabulary: "Vocabulary",
}

// String implements fmt.Stringer.
func (s System) String() string {
	if n, ok := systemNames[s]; ok {
		return "System." + n
	}
	return "System.Unknown"
}

func (s System) modelInfoName() string {
	return systemNames[s]
}

// Equal reports whether other is the same System primitive, or is Any (which is the universal
// supertype used as a placeholder for "unknown, accept anything").
func (s System) Equal(other IType) bool {
	o, ok := other.(System)
	if !ok {
		return false
	}
	return s == o || s == Any || o == Any
}

// Named is an external type referenced purely by name (for example a FHIR resource or data type).
// The core engine never inspects the shape of a Named type; it only compares names.
type Named struct {
	// TypeName is the local name, e.g. "Patient" or "Observation".
	TypeName string
}

func (n *Named) String() string { return n.TypeName }

func (n *Named) modelInfoName() string { return n.TypeName }

// Equal reports whether other is a Named type with the same local name.
func (n *Named) Equal(other IType) bool {
	if o, ok := other.(System); ok && o == Any {
		return true
	}
	o, ok := other.(*Named)
	if !ok {
		return false
	}
	return n.TypeName == o.TypeName
}

// Interval is the type of an Interval[PointType] value.
type Interval struct {
	PointType IType
}

func (i *Interval) String() string {
	return fmt.Sprintf("Interval<%v>", i.PointType)
}

func (i *Interval) modelInfoName() string {
	return fmt.Sprintf("Interval<%s>", i.PointType.modelInfoName())
}

// Equal reports whether other is an Interval of an equal point type.
func (i *Interval) Equal(other IType) bool {
	if o, ok := other.(System); ok && o == Any {
		return true
	}
	o, ok := other.(*Interval)
	if !ok {
		return false
	}
	return i.PointType.Equal(o.PointType)
}

// List is the type of a List[ElementType] value.
type List struct {
	ElementType IType
}

func (l *List) String() string {
	return fmt.Sprintf("List<%v>", l.ElementType)
}

func (l *List) modelInfoName() string {
	return fmt.Sprintf("List<%s>", l.ElementType.modelInfoName())
}

// Equal reports whether other is a List of an equal element type.
func (l *List) Equal(other IType) bool {
	if o, ok := other.(System); ok && o == Any {
		return true
	}
	o, ok := other.(*List)
	if !ok {
		return false
	}
	return l.ElementType.Equal(o.ElementType)
}

// Choice is a union of possible types, used when static typing cannot narrow further (e.g. the
// element type of a retrieve where the data model is not validated).
type Choice struct {
	ChoiceTypes []IType
}

func (c *Choice) String() string {
	parts := make([]string, len(c.ChoiceTypes))
	for i, t := range c.ChoiceTypes {
		parts[i] = t.String()
	}
	return fmt.Sprintf("Choice<%s>", strings.Join(parts, ", "))
}

func (c *Choice) modelInfoName() string { return c.String() }

// Equal reports whether other is a Choice over the same set of types (order-independent).
func (c *Choice) Equal(other IType) bool {
	if o, ok := other.(System); ok && o == Any {
		return true
	}
	o, ok := other.(*Choice)
	if !ok || len(o.ChoiceTypes) != len(c.ChoiceTypes) {
		return false
	}
	for _, t := range c.ChoiceTypes {
		found := false
		for _, ot := range o.ChoiceTypes {
			if t.Equal(ot) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Tuple is a structural record type, a mapping from field name to field type.
type Tuple struct {
	ElementTypes map[string]IType
}

func (t *Tuple) String() string {
	names := make([]string, 0, len(t.ElementTypes))
	for n := range t.ElementTypes {
		names = append(names, n)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = fmt.Sprintf("%s: %v", n, t.ElementTypes[n])
	}
	return fmt.Sprintf("Tuple {%s}", strings.Join(parts, ", "))
}

func (t *Tuple) modelInfoName() string { return t.String() }

// Equal reports whether other is a Tuple with the same field names and field types.
func (t *Tuple) Equal(other IType) bool {
	if o, ok := other.(System); ok && o == Any {
		return true
	}
	o, ok := other.(*Tuple)
	if !ok || len(o.ElementTypes) != len(t.ElementTypes) {
		return false
	}
	for n, ft := range t.ElementTypes {
		oft, ok := o.ElementTypes[n]
		if !ok || !ft.Equal(oft) {
			return false
		}
	}
	return true
}

// QualifiedName returns a dotted, model-info-style name for t, suitable for user-facing error
// messages ("List<Interval<Date>>" etc.).
func QualifiedName(t IType) string {
	if t == nil {
		return "<nil>"
	}
	return t.modelInfoName()
}

// ToStrings renders a slice of types for diagnostic messages.
func ToStrings(ts []IType) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = QualifiedName(t)
	}
	return out
}

// MarshalJSON implements json.Marshaler for System, emitting its qualified name.
func (s System) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.modelInfoName())
}
