package result

import (
	"errors"
	"testing"
)

func TestLibKeyString(t *testing.T) {
	named := LibKey{Name: "Measure", Version: "1.0.0"}
	if got, want := named.String(), "Measure 1.0.0"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	unnamed := UnnamedLibKey()
	if got, want := unnamed.String(), "Unnamed Library"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestLibKeyFromModelNil(t *testing.T) {
	k := LibKeyFromModel(nil)
	if !k.IsUnnamed {
		t.Errorf("LibKeyFromModel(nil).IsUnnamed = false, want true")
	}
}

func TestEngineErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := NewEngineError("Numerator", KindNotFound, cause)
	if !errors.Is(err, cause) {
		t.Errorf("errors.Is(EngineError, cause) = false, want true")
	}
	if err.Kind != KindNotFound {
		t.Errorf("Kind = %v, want NotFound", err.Kind)
	}
}
