package types

import "testing"

func TestSystemEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b IType
		want bool
	}{
		{"same primitive", Integer, Integer, true},
		{"different primitive", Integer, String, false},
		{"any on left", Any, String, true},
		{"any on right", Decimal, Any, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.a.Equal(tc.b); got != tc.want {
				t.Errorf("%v.Equal(%v) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestListEqual(t *testing.T) {
	a := &List{ElementType: Integer}
	b := &List{ElementType: Integer}
	c := &List{ElementType: String}
	if !a.Equal(b) {
		t.Errorf("List<Integer>.Equal(List<Integer>) = false, want true")
	}
	if a.Equal(c) {
		t.Errorf("List<Integer>.Equal(List<String>) = true, want false")
	}
}

func TestIntervalEqual(t *testing.T) {
	a := &Interval{PointType: Date}
	b := &Interval{PointType: Date}
	c := &Interval{PointType: DateTime}
	if !a.Equal(b) {
		t.Errorf("Interval<Date>.Equal(Interval<Date>) = false, want true")
	}
	if a.Equal(c) {
		t.Errorf("Interval<Date>.Equal(Interval<DateTime>) = true, want false")
	}
}

func TestTupleEqual(t *testing.T) {
	a := &Tuple{ElementTypes: map[string]IType{"x": Integer, "y": String}}
	b := &Tuple{ElementTypes: map[string]IType{"y": String, "x": Integer}}
	c := &Tuple{ElementTypes: map[string]IType{"x": Integer}}
	if !a.Equal(b) {
		t.Errorf("Tuple.Equal with same fields in different order = false, want true")
	}
	if a.Equal(c) {
		t.Errorf("Tuple.Equal with different field counts = true, want false")
	}
}

func TestNamedEqual(t *testing.T) {
	a := &Named{TypeName: "Patient"}
	b := &Named{TypeName: "Patient"}
	c := &Named{TypeName: "Observation"}
	if !a.Equal(b) {
		t.Errorf("Named(Patient).Equal(Named(Patient)) = false, want true")
	}
	if a.Equal(c) {
		t.Errorf("Named(Patient).Equal(Named(Observation)) = true, want false")
	}
}

func TestQualifiedName(t *testing.T) {
	got := QualifiedName(&List{ElementType: &Interval{PointType: Date}})
	want := "List<Interval<Date>>"
	if got != want {
		t.Errorf("QualifiedName = %q, want %q", got, want)
	}
}
