package datehelpers

import (
	"testing"
	"time"

	"github.com/lattice-health/cqlcore/model"
)

func TestDateStringRoundTrip(t *testing.T) {
	d, prec, err := ParseDate("@2020-03-15", time.UTC)
	if err != nil {
		t.Fatalf("ParseDate returned error: %v", err)
	}
	s, err := DateString(d, prec)
	if err != nil {
		t.Fatalf("DateString returned error: %v", err)
	}
	if want := "@2020-03-15"; s != want {
		t.Errorf("DateString = %q, want %q", s, want)
	}
}

func TestDateTimeStringUnsupportedPrecision(t *testing.T) {
	if _, err := DateTimeString(time.Now(), model.UnsetDateTimePrecision); err == nil {
		t.Errorf("DateTimeString with unset precision succeeded, want error")
	}
}
