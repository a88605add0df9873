// Package model provides an ELM-like intermediate representation of parsed CQL. The parser builds
// this tree directly (there is no separate untyped syntax tree); the evaluator and the elm package
// both walk it independently, dispatching on the concrete Go type of each node.
package model

import (
	"github.com/kylelemons/godebug/pretty"
	"github.com/lattice-health/cqlcore/types"
)

// Library is a single compiled CQL library, normally corresponding to one CQL source file.
type Library struct {
	Identifier  *LibraryIdentifier
	Usings      []*Using
	Includes    []*Include
	Parameters  []*ParameterDef
	CodeSystems []*CodeSystemDef
	Concepts    []*ConceptDef
	Valuesets   []*ValuesetDef
	Codes       []*CodeDef
	Statements  *Statements
}

// String renders the library tree for debugging.
func (l *Library) String() string {
	return pretty.Sprint(l)
}

// IElement is implemented by every node in the tree.
type IElement interface {
	GetResultType() types.IType
	SetResultType(types.IType)
}

// Element is embedded by every concrete node and carries its static result type.
type Element struct {
	ResultType types.IType
}

// GetResultType returns the static type this node was compiled/resolved to.
func (e *Element) GetResultType() types.IType { return e.ResultType }

// SetResultType assigns the static type of this node.
func (e *Element) SetResultType(t types.IType) { e.ResultType = t }

// AccessLevel is the visibility of a library-level definition.
type AccessLevel int

const (
	// Public definitions are visible to including libraries.
	Public AccessLevel = iota
	// Private definitions are only visible within the defining library.
	Private
)

// DateTimePrecision names the precision unit used by temporal literals and timing phrases.
type DateTimePrecision int

// The supported precisions, from coarsest to finest.
const (
	UnsetDateTimePrecision DateTimePrecision = iota
	Year
	Month
	Week
	Day
	Hour
	Minute
	Second
	Millisecond
)

// LibraryIdentifier names a library and optionally a version.
type LibraryIdentifier struct {
	Qualifier string
	Local     string
	Version   string
}

// Using declares an external data model the library is written against. Advisory only.
type Using struct {
	Element
	LocalIdentifier string
	URI             string
	Version         string
}

// Include references another library by name, optionally aliased.
type Include struct {
	Element
	Identifier      *LibraryIdentifier
	LocalIdentifier string
}

// Statements is the container for all top-level definitions in a library.
type Statements struct {
	Element
	Defs []IExpressionDef
}

// ValuesetDef declares a named value set reference.
type ValuesetDef struct {
	Element
	Name         string
	ID           string
	Version      string
	CodeSystems  []*CodeSystemRef
	AccessLevel  AccessLevel
}

// CodeSystemDef declares a named code system reference.
type CodeSystemDef struct {
	Element
	Name        string
	ID          string
	Version     string
	AccessLevel AccessLevel
}

// ConceptDef declares a named concept built from a set of codes.
type ConceptDef struct {
	Element
	Name        string
	Codes       []*CodeRef
	Display     string
	AccessLevel AccessLevel
}

// CodeDef declares a named code drawn from a code system.
type CodeDef struct {
	Element
	Name        string
	CodeSystem  *CodeSystemRef
	Code        string
	Display     string
	AccessLevel AccessLevel
}

// ParameterDef declares a library parameter with an optional default expression.
type ParameterDef struct {
	Element
	Name        string
	Default     IExpression
	AccessLevel AccessLevel
}

// IExpressionDef is implemented by definitions that hold an expression body
// (ExpressionDef and FunctionDef).
type IExpressionDef interface {
	IElement
	GetName() string
	GetContext() string
	GetAccessLevel() AccessLevel
	GetExpression() IExpression
}

// ExpressionDef is a `define` statement: a name bound to an expression tree, evaluated lazily.
type ExpressionDef struct {
	Element
	Name        string
	Context     string
	AccessLevel AccessLevel
	Expression  IExpression
}

// GetName returns the definition's name.
func (e *ExpressionDef) GetName() string { return e.Name }

// GetContext returns the context (e.g. "Patient") the definition was declared under.
func (e *ExpressionDef) GetContext() string { return e.Context }

// GetAccessLevel returns the definition's declared visibility.
func (e *ExpressionDef) GetAccessLevel() AccessLevel { return e.AccessLevel }

// GetExpression returns the definition's body.
func (e *ExpressionDef) GetExpression() IExpression { return e.Expression }

// OperandDef is a single formal parameter of a FunctionDef.
type OperandDef struct {
	Element
	Name string
}

// FunctionDef is a `define function` statement. Overloads of the same name are distinguished by
// arity; FunctionDef itself holds exactly one overload.
type FunctionDef struct {
	Element
	Name        string
	Context     string
	AccessLevel AccessLevel
	Operands    []OperandDef
	Fluent      bool
	External    bool
	Expression  IExpression
}

// GetName returns the function's name.
func (f *FunctionDef) GetName() string { return f.Name }

// GetContext returns the context the function was declared under.
func (f *FunctionDef) GetContext() string { return f.Context }

// GetAccessLevel returns the function's declared visibility.
func (f *FunctionDef) GetAccessLevel() AccessLevel { return f.AccessLevel }

// GetExpression returns the function body, or nil if External is true.
func (f *FunctionDef) GetExpression() IExpression { return f.Expression }

// IExpression is implemented by every node that can appear in expression position.
type IExpression interface {
	IElement
}

// Expression is embedded by concrete expression node types with no further structure of their
// own (used as a placeholder result type holder for error-recovery nodes).
type Expression struct {
	Element
}

// Literal is a scalar literal: boolean, integer, long, decimal, or string. ValueType is the
// literal's System type (types.Boolean, types.Integer, ...); the parsed Go value is kept in
// Value as its string form and converted at evaluation time.
type Literal struct {
	Expression
	Value     string
	ValueType types.IType
}

// Quantity is a literal (Decimal value, String unit) pair.
type Quantity struct {
	Expression
	Value float64
	Unit  string
}

// Ratio is a literal numerator-over-denominator pair of Quantities.
type Ratio struct {
	Expression
	Numerator   Quantity
	Denominator Quantity
}

// Interval is an `Interval[low, high]` selector.
type Interval struct {
	Expression
	Low           IExpression
	High          IExpression
	LowInclusive  bool
	HighInclusive bool
}

// List is a `List {a, b, ...}` or `{a, b, ...}` selector.
type List struct {
	Expression
	List []IExpression
}

// Tuple is a `Tuple {name: expr, ...}` selector.
type Tuple struct {
	Expression
	Elements []*TupleElement
}

// TupleElement is one name/value pair of a Tuple selector.
type TupleElement struct {
	Element
	Name  string
	Value IExpression
}

// Instance is a `Type { field: expr, ... }` class instance selector.
type Instance struct {
	Expression
	ClassType types.IType
	Elements  []*InstanceElement
}

// InstanceElement is one name/value pair of an Instance selector.
type InstanceElement struct {
	Element
	Name  string
	Value IExpression
}

// Code is a `Code 'c' from "System"` selector.
type Code struct {
	Expression
	System  *CodeSystemRef
	Code    string
	Display string
}

// SortDirection is the direction of a `sort by` clause.
type SortDirection int

// The two supported sort directions.
const (
	Ascending SortDirection = iota
	Descending
)

// AliasedSource is one `alias in expr` query source.
type AliasedSource struct {
	Element
	Alias  string
	Source IExpression
}

// LetClause is one `let name := expr` query binding.
type LetClause struct {
	Element
	Identifier string
	Expression IExpression
}

// IRelationshipClause is implemented by With and Without.
type IRelationshipClause interface {
	IElement
	GetAlias() string
	GetExpression() IExpression
	GetSuchThat() IExpression
}

// RelationshipClause is the shared structure of With and Without.
type RelationshipClause struct {
	Element
	Alias      string
	Expression IExpression
	SuchThat   IExpression
}

// GetAlias returns the relationship's alias.
func (r *RelationshipClause) GetAlias() string { return r.Alias }

// GetExpression returns the relationship's correlated source expression.
func (r *RelationshipClause) GetExpression() IExpression { return r.Expression }

// GetSuchThat returns the relationship's predicate.
func (r *RelationshipClause) GetSuchThat() IExpression { return r.SuchThat }

// With is a `with alias in expr such that predicate` relationship clause.
type With struct{ RelationshipClause }

// Without is a `without alias in expr such that predicate` relationship clause.
type Without struct{ RelationshipClause }

// SortClause is the optional `sort by ...` clause of a query.
type SortClause struct {
	Element
	ByItems []ISortByItem
}

// AggregateClause is the `aggregate [distinct] id [starting init]: expr` clause.
type AggregateClause struct {
	Element
	Identifier string
	Starting   IExpression
	Expression IExpression
	Distinct   bool
}

// ReturnClause is the `return [all|distinct] expr` clause.
type ReturnClause struct {
	Element
	Distinct   bool
	Expression IExpression
}

// ISortByItem is implemented by SortByDirection and SortByColumn.
type ISortByItem interface {
	IElement
}

// SortByDirection sorts the query's own result values directly (no column path).
type SortByDirection struct {
	Element
	Direction SortDirection
}

// SortByColumn sorts by a property path into each result row.
type SortByColumn struct {
	Element
	Path      string
	Direction SortDirection
}

// Query is the full `from ... where ... return ...` comprehension.
type Query struct {
	Expression
	Source       []*AliasedSource
	Let          []*LetClause
	Relationship []IRelationshipClause
	Where        IExpression
	Aggregate    *AggregateClause
	Return       *ReturnClause
	Sort         *SortClause
}

// Property is a `target.name` field access, or `target.name` as the target of a postfix call.
type Property struct {
	Expression
	Source IExpression
	Path   string
}

// Retrieve is a `[ResourceType: codePath in Terminology]` data access expression.
type Retrieve struct {
	Expression
	DataType    string
	CodeProperty string
	Codes       IExpression
}

// CaseItem is one `when guard then result` branch of a Case.
type CaseItem struct {
	Element
	When IExpression
	Then IExpression
}

// Case is the simple/searched `case` conditional.
type Case struct {
	Expression
	Comparand IExpression
	CaseItem  []*CaseItem
	Else      IExpression
}

// IfThenElse is the `if c then t else e` conditional.
type IfThenElse struct {
	Expression
	Condition IExpression
	Then      IExpression
	Else      IExpression
}

// MaxValue / MinValue are `maximum <Type>` / `minimum <Type>` type-extent expressions.
type MaxValue struct {
	Expression
	ValueType types.IType
}

// MinValue is the lower-bound counterpart of MaxValue.
type MinValue struct {
	Expression
	ValueType types.IType
}

// IUnaryExpression is implemented by every one-operand operator node.
type IUnaryExpression interface {
	IExpression
	GetOperand() IExpression
}

// UnaryExpression is embedded by every concrete unary operator node.
type UnaryExpression struct {
	Expression
	Operand IExpression
}

// GetOperand returns the operator's single operand.
func (u *UnaryExpression) GetOperand() IExpression { return u.Operand }

// The unary operator node types. Each wraps UnaryExpression and adds no fields of its own unless
// noted; the concrete Go type is the dispatch key for both the evaluator and the ELM serializer.
type (
	// As is a checked cast `X as T`.
	As struct {
		UnaryExpression
		AsType types.IType
		Strict bool
	}
	// Is is a dynamic type test `X is T`.
	Is struct {
		UnaryExpression
		IsType types.IType
	}
	// Negate is unary minus.
	Negate struct{ UnaryExpression }
	// Truncate truncates a Decimal towards zero.
	Truncate struct{ UnaryExpression }
	// Exists is `exists X`.
	Exists struct{ UnaryExpression }
	// Not is three-valued logical negation.
	Not struct{ UnaryExpression }
	// First is the first element of a list, honoring an optional sort (pre-sorted upstream).
	First struct{ UnaryExpression }
	// Last is the last element of a list.
	Last struct{ UnaryExpression }
	// SingletonFrom unwraps a one-element list, or errors on more than one element.
	SingletonFrom struct{ UnaryExpression }
	// Start is `start of X`.
	Start struct{ UnaryExpression }
	// End is `end of X`.
	End struct{ UnaryExpression }
	// Predecessor is the value immediately before X.
	Predecessor struct{ UnaryExpression }
	// Successor is the value immediately after X.
	Successor struct{ UnaryExpression }
	// IsNull is `X is null`, total (never returns Null).
	IsNull struct{ UnaryExpression }
	// IsFalse is `X is false`, total.
	IsFalse struct{ UnaryExpression }
	// IsTrue is `X is true`, total.
	IsTrue struct{ UnaryExpression }
	// ToBoolean converts X to Boolean.
	ToBoolean struct{ UnaryExpression }
	// ToDateTime converts X to DateTime.
	ToDateTime struct{ UnaryExpression }
	// ToDate converts X to Date.
	ToDate struct{ UnaryExpression }
	// ToDecimal converts X to Decimal.
	ToDecimal struct{ UnaryExpression }
	// ToLong converts X to Long.
	ToLong struct{ UnaryExpression }
	// ToInteger converts X to Integer.
	ToInteger struct{ UnaryExpression }
	// ToQuantity converts X to Quantity.
	ToQuantity struct{ UnaryExpression }
	// ToConcept converts X to Concept.
	ToConcept struct{ UnaryExpression }
	// ToString converts X to String.
	ToString struct{ UnaryExpression }
	// ToTime converts X to Time.
	ToTime struct{ UnaryExpression }
	// AllTrue is true iff every element of a Boolean list is true (vacuously true on empty).
	AllTrue struct{ UnaryExpression }
	// AnyTrue is true iff any element of a Boolean list is true.
	AnyTrue struct{ UnaryExpression }
	// Count is the number of non-Null elements of a list.
	Count struct{ UnaryExpression }
	// Sum is the sum of the non-Null elements of a numeric or Quantity list: 0 on an empty or
	// all-Null list, Null when the list itself is Null.
	Sum struct{ UnaryExpression }
	// Avg is the arithmetic mean of a numeric or Quantity list.
	Avg struct{ UnaryExpression }
	// Product is the product of a numeric or Quantity list.
	Product struct{ UnaryExpression }
	// GeometricMean is the nth root of the product of n numeric values.
	GeometricMean struct{ UnaryExpression }
	// Min is the smallest element of a list of any orderable type.
	Min struct{ UnaryExpression }
	// Max is the largest element of a list of any orderable type.
	Max struct{ UnaryExpression }
	// Median is the middle value (or average of the two middle values) of an orderable list.
	Median struct{ UnaryExpression }
	// Mode is the most frequently occurring element of a list.
	Mode struct{ UnaryExpression }
	// Variance is the sample variance of a numeric or Quantity list.
	Variance struct{ UnaryExpression }
	// PopulationVariance is the population variance of a numeric or Quantity list.
	PopulationVariance struct{ UnaryExpression }
	// StdDev is the sample standard deviation of a numeric or Quantity list.
	StdDev struct{ UnaryExpression }
	// PopulationStdDev is the population standard deviation of a numeric or Quantity list.
	PopulationStdDev struct{ UnaryExpression }
	// CalculateAge computes age in years as of now, from a birth date operand.
	CalculateAge struct {
		UnaryExpression
		Precision DateTimePrecision
	}
	// Width is `width of X` on an Interval.
	Width struct{ UnaryExpression }
	// PointFrom unwraps a unit interval to its single point.
	PointFrom struct{ UnaryExpression }
	// Collapse merges overlapping/adjacent intervals of a list.
	Collapse struct{ UnaryExpression }
	// Flatten flattens one level of nested lists.
	Flatten struct{ UnaryExpression }
	// Distinct removes duplicate elements, preserving first-seen order.
	Distinct struct{ UnaryExpression }
	// Length is the number of characters of a String, or elements of a List.
	Length struct{ UnaryExpression }
	// Upper uppercases a String.
	Upper struct{ UnaryExpression }
	// Lower lowercases a String.
	Lower struct{ UnaryExpression }
)

// IBinaryExpression is implemented by every two-operand operator node.
type IBinaryExpression interface {
	IExpression
	GetOperands() []IExpression
}

// BinaryExpression is embedded by every concrete binary operator node.
type BinaryExpression struct {
	Expression
	Operands [2]IExpression
}

// GetOperands returns the operator's two operands in order.
func (b *BinaryExpression) GetOperands() []IExpression { return b.Operands[:] }

// The binary operator node types.
type (
	// CanConvertQuantity reports whether a Quantity can be converted to a given unit.
	CanConvertQuantity struct{ BinaryExpression }
	// Equal is structural equality with Null-propagation.
	Equal struct{ BinaryExpression }
	// Equivalent is `~`: like Equal, but Null ~ Null is True and Code compares by (system, code).
	Equivalent struct{ BinaryExpression }
	// Less is `<`.
	Less struct{ BinaryExpression }
	// Greater is `>`.
	Greater struct{ BinaryExpression }
	// LessOrEqual is `<=`.
	LessOrEqual struct{ BinaryExpression }
	// GreaterOrEqual is `>=`.
	GreaterOrEqual struct{ BinaryExpression }
	// And is three-valued conjunction.
	And struct{ BinaryExpression }
	// Or is three-valued disjunction.
	Or struct{ BinaryExpression }
	// XOr is three-valued exclusive-or.
	XOr struct{ BinaryExpression }
	// Implies is three-valued material implication.
	Implies struct{ BinaryExpression }
	// Add is `+`.
	Add struct{ BinaryExpression }
	// Subtract is `-`.
	Subtract struct{ BinaryExpression }
	// Multiply is `*`.
	Multiply struct{ BinaryExpression }
	// Divide is `/`.
	Divide struct{ BinaryExpression }
	// Modulo is `mod`.
	Modulo struct{ BinaryExpression }
	// TruncatedDivide is `div`.
	TruncatedDivide struct{ BinaryExpression }
	// Power is `^`.
	Power struct{ BinaryExpression }
	// Concatenate is `&`, the Null-as-empty-string variant of string concatenation.
	Concatenate struct{ BinaryExpression }
	// Except removes elements of the right list from the left list.
	Except struct{ BinaryExpression }
	// Intersect keeps elements present in both lists.
	Intersect struct{ BinaryExpression }
	// Union concatenates two lists, deduplicating.
	Union struct{ BinaryExpression }
	// In is membership (list or interval).
	In struct{ BinaryExpression }
	// IncludedIn is `included in` interval containment.
	IncludedIn struct{ BinaryExpression }
	// Contains is the dual of In.
	Contains struct{ BinaryExpression }
	// Includes is the dual of IncludedIn.
	Includes struct{ BinaryExpression }
	// ProperIn is the strict form of In.
	ProperIn struct{ BinaryExpression }
	// ProperIncludedIn is the strict form of IncludedIn.
	ProperIncludedIn struct{ BinaryExpression }
	// ProperContains is the strict form of Contains.
	ProperContains struct{ BinaryExpression }
	// ProperIncludes is the strict form of Includes.
	ProperIncludes struct{ BinaryExpression }
	// Overlaps reports whether two intervals share any point.
	Overlaps struct{ BinaryExpression }
	// Meets reports whether two intervals are immediately adjacent in either direction.
	Meets struct{ BinaryExpression }
	// MeetsBefore reports whether the left interval meets the right from below.
	MeetsBefore struct{ BinaryExpression }
	// MeetsAfter reports whether the left interval meets the right from above.
	MeetsAfter struct{ BinaryExpression }
	// Starts reports whether two intervals share a start point.
	Starts struct{ BinaryExpression }
	// Ends reports whether two intervals share an end point.
	Ends struct{ BinaryExpression }
	// Expand enumerates discrete points across an interval at a given quantity step.
	Expand struct{ BinaryExpression }
)

// BinaryExpressionWithPrecision is embedded by timing-phrase operators that accept an optional
// precision qualifier (`same month as`, `before 3 days`, etc.).
type BinaryExpressionWithPrecision struct {
	BinaryExpression
	Precision DateTimePrecision
}

// The timing-phrase binary operator node types.
type (
	// Before is `X before Y`.
	Before struct{ BinaryExpressionWithPrecision }
	// After is `X after Y`.
	After struct{ BinaryExpressionWithPrecision }
	// SameOrBefore is `X same or before Y`.
	SameOrBefore struct{ BinaryExpressionWithPrecision }
	// SameOrAfter is `X same or after Y`.
	SameOrAfter struct{ BinaryExpressionWithPrecision }
	// SameAs is `X same <precision> as Y`.
	SameAs struct{ BinaryExpressionWithPrecision }
	// DifferenceBetween is `difference in <precision> between X and Y`.
	DifferenceBetween struct{ BinaryExpressionWithPrecision }
	// DurationBetween is `duration in <precision> between X and Y`.
	DurationBetween struct{ BinaryExpressionWithPrecision }
	// During is `X during Y` (interval containment at a precision).
	During struct{ BinaryExpressionWithPrecision }
	// CalculateAgeAt computes age as of a given date at a precision.
	CalculateAgeAt struct{ BinaryExpressionWithPrecision }
)

// InValueSet is `X in "ValueSet"` terminology membership.
type InValueSet struct {
	BinaryExpression
	Valueset *ValuesetRef
}

// InCodeSystem is `X in "CodeSystem"` terminology membership.
type InCodeSystem struct {
	BinaryExpression
	CodeSystem *CodeSystemRef
}

// Between is `X between A and B`, a ternary inclusive range test.
type Between struct {
	Expression
	Operand IExpression
	Low     IExpression
	High    IExpression
}

// INaryExpression is implemented by every variadic operator node.
type INaryExpression interface {
	IExpression
	GetOperands() []IExpression
}

// NaryExpression is embedded by concrete variadic operator node types.
type NaryExpression struct {
	Expression
	Operands []IExpression
}

// GetOperands returns the operator's operands in order.
func (n *NaryExpression) GetOperands() []IExpression { return n.Operands }

// The variadic operator node types.
type (
	// Coalesce returns the first non-Null operand.
	Coalesce struct{ NaryExpression }
	// Concat is the variadic, Null-as-empty-string string concatenation built-in.
	Concat struct{ NaryExpression }
	// Date constructs a Date from (year[, month[, day]]) component operands.
	Date struct{ NaryExpression }
	// DateTime constructs a DateTime from (year[, month[, ...[, tzOffset]]]) component operands.
	DateTime struct{ NaryExpression }
	// Now returns the captured evaluation timestamp as a DateTime.
	Now struct{ NaryExpression }
	// TimeOfDay returns the time-of-day component of the captured evaluation timestamp.
	TimeOfDay struct{ NaryExpression }
	// Time constructs a Time from (hour[, minute[, second[, millisecond]]]) component operands.
	Time struct{ NaryExpression }
	// Today returns the date component of the captured evaluation timestamp.
	Today struct{ NaryExpression }
)

// Reference node types. Each resolves a name against the current library/scope at evaluation
// time; none carry any operands of their own.

// ParameterRef references a library parameter by name.
type ParameterRef struct {
	Expression
	Name        string
	LibraryName string
}

// ValuesetRef references a declared ValuesetDef by name.
type ValuesetRef struct {
	Expression
	Name        string
	LibraryName string
}

// CodeSystemRef references a declared CodeSystemDef by name.
type CodeSystemRef struct {
	Expression
	Name        string
	LibraryName string
}

// ConceptRef references a declared ConceptDef by name.
type ConceptRef struct {
	Expression
	Name        string
	LibraryName string
}

// CodeRef references a declared CodeDef by name.
type CodeRef struct {
	Expression
	Name        string
	LibraryName string
}

// ExpressionRef references a define statement by name, possibly qualified by a library alias.
type ExpressionRef struct {
	Expression
	Name        string
	LibraryName string
}

// AliasRef references a query alias (`$this`, `A`, ...) bound in the current scope.
type AliasRef struct {
	Expression
	Name string
}

// QueryLetRef references a query `let` binding in the current scope.
type QueryLetRef struct {
	Expression
	Name string
}

// FunctionRef is a call to a user-defined or built-in function by name.
type FunctionRef struct {
	Expression
	Name        string
	LibraryName string
	Operands    []IExpression
}

// OperandRef references a function's own operand by name, used inside a FunctionDef body.
type OperandRef struct {
	Expression
	Name string
}
