package result

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestNewAndGolangValue(t *testing.T) {
	v, err := New(int32(4))
	if err != nil {
		t.Fatalf("New(int32(4)) returned error: %v", err)
	}
	if v.GolangValue() != int32(4) {
		t.Errorf("GolangValue() = %v, want 4", v.GolangValue())
	}
}

func TestIsNull(t *testing.T) {
	null, _ := New(nil)
	if !IsNull(null) {
		t.Errorf("IsNull(New(nil)) = false, want true")
	}
	four, _ := New(int32(4))
	if IsNull(four) {
		t.Errorf("IsNull(New(4)) = true, want false")
	}
}

func TestEqualNullPropagation(t *testing.T) {
	null, _ := New(nil)
	four, _ := New(int32(4))
	if null.Equal(four) {
		t.Errorf("Null.Equal(4) = true, want false")
	}
	otherNull, _ := New(nil)
	if !null.Equal(otherNull) {
		t.Errorf("Null.Equal(Null) = false, want true")
	}
}

func TestEqualList(t *testing.T) {
	a1, _ := New(int32(1))
	a2, _ := New(int32(2))
	l1, _ := New(List{Value: []Value{a1, a2}})
	l2, _ := New(List{Value: []Value{a1, a2}})
	l3, _ := New(List{Value: []Value{a2, a1}})
	if !l1.Equal(l2) {
		t.Errorf("equal lists compared unequal")
	}
	if l1.Equal(l3) {
		t.Errorf("differently ordered lists compared equal")
	}
}

func TestEqualDecimalCrossNumeric(t *testing.T) {
	d, _ := New(decimal.NewFromInt(4))
	i, _ := New(int32(4))
	if !d.Equal(i) {
		t.Errorf("Decimal(4).Equal(Integer(4)) = false, want true")
	}
}

func TestToSlice(t *testing.T) {
	elem, _ := New(int32(1))
	l, _ := New(List{Value: []Value{elem}})
	slice, err := ToSlice(l)
	if err != nil {
		t.Fatalf("ToSlice returned error: %v", err)
	}
	if len(slice) != 1 {
		t.Errorf("ToSlice got %d elements, want 1", len(slice))
	}

	notAList, _ := New(int32(1))
	if _, err := ToSlice(notAList); err == nil {
		t.Errorf("ToSlice(non-list) succeeded, want error")
	}
}
