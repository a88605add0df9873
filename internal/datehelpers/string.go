package datehelpers

import (
	"fmt"
	"time"

	"github.com/lattice-health/cqlcore/model"
)

// DateString renders d as a CQL Date literal at the given precision.
func DateString(d time.Time, precision model.DateTimePrecision) (string, error) {
	var s string
	switch precision {
	case model.Year:
		s = d.Format(dateYear)
	case model.Month:
		s = d.Format(dateMonth)
	case model.Day:
		s = d.Format(dateDay)
	default:
		return "", fmt.Errorf("unsupported precision in Date with value %v: %w", precision, ErrUnsupportedPrecision)
	}
	return "@" + s, nil
}

// DateTimeString renders d as a CQL DateTime literal at the given precision.
func DateTimeString(d time.Time, precision model.DateTimePrecision) (string, error) {
	var dtFormat string
	switch precision {
	case model.Year:
		dtFormat = dateTimeYear
	case model.Month:
		dtFormat = dateTimeMonth
	case model.Day:
		dtFormat = dateTimeDay
	case model.Hour:
		dtFormat = dateTimeHour
	case model.Minute:
		dtFormat = dateTimeMinute
	case model.Second:
		dtFormat = dateTimeSecond
	case model.Millisecond:
		dtFormat = dateTimeThreeMillisecond
	default:
		return "", fmt.Errorf("unsupported precision in DateTime with value %v: %w", precision, ErrUnsupportedPrecision)
	}
	tzFormat := "Z07:00" // "Z" for UTC, "-07:00" style otherwise.
	return "@" + d.Format(dtFormat+tzFormat), nil
}

// TimeString renders d as a CQL Time literal at the given precision.
func TimeString(d time.Time, precision model.DateTimePrecision) (string, error) {
	var tFormat string
	switch precision {
	case model.Hour:
		tFormat = timeHour
	case model.Minute:
		tFormat = timeMinute
	case model.Second:
		tFormat = timeSecond
	case model.Millisecond:
		tFormat = timeThreeMillisecond
	default:
		return "", fmt.Errorf("unsupported precision in Time with value %v: %w", precision, ErrUnsupportedPrecision)
	}
	return "@" + d.Format(tFormat), nil
}
