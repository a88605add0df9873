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

	"github.com/lattice-health/cqlcore/model"
	"github.com/lattice-health/cqlcore/result"
)

// evalUnaryExpression routes u to its concrete operator implementation. The timing-phrase
// operators that carry a precision are not reachable through u (the parser never constructs
// BinaryExpressionWithPrecision nodes), so there is no gap in coverage here.
func (i *interpreter) evalUnaryExpression(u model.IUnaryExpression) (result.Value, error) {
	switch t := u.(type) {
	case *model.As:
		return i.evalAs(t)
	case *model.Is:
		return i.evalIs(t)
	case *model.Negate:
		return i.evalNegate(t)
	case *model.Truncate:
		return i.evalTruncate(t)
	case *model.Exists:
		return i.evalExists(t)
	case *model.Not:
		return i.evalNot(t)
	case *model.First:
		return i.evalFirst(t)
	case *model.Last:
		return i.evalLast(t)
	case *model.SingletonFrom:
		return i.evalSingletonFrom(t)
	case *model.Start:
		return i.evalStart(t)
	case *model.End:
		return i.evalEnd(t)
	case *model.Predecessor:
		return i.evalPredecessor(t)
	case *model.Successor:
		return i.evalSuccessor(t)
	case *model.IsNull:
		return i.evalIsNull(t)
	case *model.IsFalse:
		return i.evalIsFalse(t)
	case *model.IsTrue:
		return i.evalIsTrue(t)
	case *model.ToBoolean:
		return i.evalToBoolean(t)
	case *model.ToDateTime:
		return i.evalToDateTime(t)
	case *model.ToDate:
		return i.evalToDate(t)
	case *model.ToDecimal:
		return i.evalToDecimal(t)
	case *model.ToLong:
		return i.evalToLong(t)
	case *model.ToInteger:
		return i.evalToInteger(t)
	case *model.ToQuantity:
		return i.evalToQuantity(t)
	case *model.ToConcept:
		return i.evalToConcept(t)
	case *model.ToString:
		return i.evalToString(t)
	case *model.ToTime:
		return i.evalToTime(t)
	case *model.AllTrue:
		return i.evalAllTrue(t)
	case *model.AnyTrue:
		return i.evalAnyTrue(t)
	case *model.Count:
		return i.evalCount(t)
	case *model.Sum:
		return i.evalSum(t)
	case *model.Avg:
		return i.evalAvg(t)
	case *model.Product:
		return i.evalProduct(t)
	case *model.GeometricMean:
		return i.evalGeometricMean(t)
	case *model.Min:
		return i.evalMin(t)
	case *model.Max:
		return i.evalMax(t)
	case *model.Median:
		return i.evalMedian(t)
	case *model.Mode:
		return i.evalMode(t)
	case *model.Variance:
		return i.evalVariance(t)
	case *model.PopulationVariance:
		return i.evalPopulationVariance(t)
	case *model.StdDev:
		return i.evalStdDev(t)
	case *model.PopulationStdDev:
		return i.evalPopulationStdDev(t)
	case *model.CalculateAge:
		return i.evalCalculateAge(t)
	case *model.Width:
		return i.evalWidth(t)
	case *model.PointFrom:
		return i.evalPointFrom(t)
	case *model.Collapse:
		return i.evalCollapse(t)
	case *model.Flatten:
		return i.evalFlatten(t)
	case *model.Distinct:
		return i.evalDistinct(t)
	case *model.Length:
		return i.evalLength(t)
	case *model.Upper:
		return i.evalUpper(t)
	case *model.Lower:
		return i.evalLower(t)
	}
	return result.Value{}, fmt.Errorf("internal error: unsupported unary operator %T", u)
}

// evalBinaryExpression routes b to its concrete operator implementation.
func (i *interpreter) evalBinaryExpression(b model.IBinaryExpression) (result.Value, error) {
	switch t := b.(type) {
	case *model.CanConvertQuantity:
		return i.evalCanConvertQuantity(t)
	case *model.Equal:
		return i.evalEqual(t)
	case *model.Equivalent:
		return i.evalEquivalent(t)
	case *model.Less:
		return i.evalLess(t)
	case *model.Greater:
		return i.evalGreater(t)
	case *model.LessOrEqual:
		return i.evalLessOrEqual(t)
	case *model.GreaterOrEqual:
		return i.evalGreaterOrEqual(t)
	case *model.And:
		return i.evalAnd(t)
	case *model.Or:
		return i.evalOr(t)
	case *model.XOr:
		return i.evalXOr(t)
	case *model.Implies:
		return i.evalImplies(t)
	case *model.Add:
		return i.evalAdd(t)
	case *model.Subtract:
		return i.evalSubtract(t)
	case *model.Multiply:
		return i.evalMultiply(t)
	case *model.Divide:
		return i.evalDivide(t)
	case *model.Modulo:
		return i.evalModulo(t)
	case *model.TruncatedDivide:
		return i.evalTruncatedDivide(t)
	case *model.Power:
		return i.evalPower(t)
	case *model.Concatenate:
		return i.evalConcatenate(t)
	case *model.Except:
		return i.evalExcept(t)
	case *model.Intersect:
		return i.evalIntersect(t)
	case *model.Union:
		return i.evalUnion(t)
	case *model.In:
		return i.evalIn(t)
	case *model.IncludedIn:
		return i.evalIncludedIn(t)
	case *model.Contains:
		return i.evalContains(t)
	case *model.Includes:
		return i.evalIncludes(t)
	case *model.ProperIn:
		return i.evalProperIn(t)
	case *model.ProperIncludedIn:
		return i.evalProperIncludedIn(t)
	case *model.ProperContains:
		return i.evalProperContains(t)
	case *model.ProperIncludes:
		return i.evalProperIncludes(t)
	case *model.Overlaps:
		return i.evalOverlaps(t)
	case *model.Meets:
		return i.evalMeets(t)
	case *model.MeetsBefore:
		return i.evalMeetsBefore(t)
	case *model.MeetsAfter:
		return i.evalMeetsAfter(t)
	case *model.Starts:
		return i.evalStarts(t)
	case *model.Ends:
		return i.evalEnds(t)
	case *model.Expand:
		return i.evalExpand(t)
	}
	return result.Value{}, fmt.Errorf("internal error: unsupported binary operator %T", b)
}

// evalNaryExpression routes n to its concrete operator implementation.
func (i *interpreter) evalNaryExpression(n model.INaryExpression) (result.Value, error) {
	switch t := n.(type) {
	case *model.Coalesce:
		return i.evalCoalesce(t)
	case *model.Concat:
		return i.evalConcat(t)
	case *model.Date:
		return i.evalDate(t)
	case *model.DateTime:
		return i.evalDateTime(t)
	case *model.Now:
		return i.evalNow(t)
	case *model.TimeOfDay:
		return i.evalTimeOfDay(t)
	case *model.Time:
		return i.evalTime(t)
	case *model.Today:
		return i.evalToday(t)
	}
	return result.Value{}, fmt.Errorf("internal error: unsupported variadic operator %T", n)
}
