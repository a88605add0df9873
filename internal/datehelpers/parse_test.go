package datehelpers

import (
	"testing"
	"time"

	"github.com/lattice-health/cqlcore/model"
)

func TestParseDatePrecisionTiers(t *testing.T) {
	tests := []struct {
		raw  string
		want model.DateTimePrecision
	}{
		{"@2020", model.Year},
		{"@2020-03", model.Month},
		{"@2020-03-15", model.Day},
	}
	for _, tc := range tests {
		_, prec, err := ParseDate(tc.raw, time.UTC)
		if err != nil {
			t.Errorf("ParseDate(%q) returned error: %v", tc.raw, err)
		}
		if prec != tc.want {
			t.Errorf("ParseDate(%q) precision = %v, want %v", tc.raw, prec, tc.want)
		}
	}
}

func TestParseDateTimeWithOffset(t *testing.T) {
	got, prec, err := ParseDateTime("@2020-03-15T10:30:00Z", time.UTC)
	if err != nil {
		t.Fatalf("ParseDateTime returned error: %v", err)
	}
	if prec != model.Second {
		t.Errorf("precision = %v, want Second", prec)
	}
	if got.Hour() != 10 || got.Minute() != 30 {
		t.Errorf("parsed time = %v, want 10:30", got)
	}
}

func TestParseDateTimeRejectsExcessFractionalDigits(t *testing.T) {
	if _, _, err := ParseDateTime("@2020-03-15T10:30:00.1234", time.UTC); err == nil {
		t.Errorf("ParseDateTime with 4 fractional digits succeeded, want error")
	}
}

func TestParseTime(t *testing.T) {
	got, prec, err := ParseTime("@T10:30:15.500", time.UTC)
	if err != nil {
		t.Fatalf("ParseTime returned error: %v", err)
	}
	if prec != model.Millisecond {
		t.Errorf("precision = %v, want Millisecond", prec)
	}
	if got.Second() != 15 {
		t.Errorf("seconds = %v, want 15", got.Second())
	}
}

func TestParseDateMissingAtPrefix(t *testing.T) {
	if _, _, err := ParseDate("2020-03-15", time.UTC); err == nil {
		t.Errorf("ParseDate without @ prefix succeeded, want error")
	}
}
