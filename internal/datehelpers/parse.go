// Package datehelpers parses the CQL @-prefixed date, datetime, and time literal forms into
// Go time.Time values paired with the precision actually present in the source text.
package datehelpers

import (
	"errors"
	"fmt"
	regex "regexp"
	"strconv"
	"strings"
	"time"

	"github.com/lattice-health/cqlcore/model"
	"github.com/lattice-health/cqlcore/types"
)

// Layout constants used to probe a literal against each supported precision tier, from coarsest
// to finest. time.ParseInLocation requires an exact layout match, so each tier is tried in turn.
var (
	dateYear  = "2006"
	dateMonth = "2006-01"
	dateDay   = "2006-01-02"

	dateTimeYear             = "2006T"
	dateTimeMonth            = "2006-01T"
	dateTimeDay              = "2006-01-02T"
	dateTimeHour             = "2006-01-02T15"
	dateTimeMinute           = "2006-01-02T15:04"
	dateTimeSecond           = "2006-01-02T15:04:05"
	dateTimeOneMillisecond   = "2006-01-02T15:04:05.0"
	dateTimeTwoMillisecond   = "2006-01-02T15:04:05.00"
	dateTimeThreeMillisecond = "2006-01-02T15:04:05.000"

	timeHour             = "T15"
	timeMinute           = "T15:04"
	timeSecond           = "T15:04:05"
	timeOneMillisecond   = "T15:04:05.0"
	timeTwoMillisecond   = "T15:04:05.00"
	timeThreeMillisecond = "T15:04:05.000"

	zuluTZ = "Z"
	tz     = "-07:00"
)

// ErrUnsupportedPrecision is returned when a precision is not supported.
var ErrUnsupportedPrecision = errors.New("unsupported precision")

var fractionalOverflow = regex.MustCompile(`\.\d{4}`)

// ParseDate parses a CQL Date literal ("@YYYY[-MM[-DD]]") into a golang time. CQL Dates carry no
// timezone offset of their own; since every time.Time requires a location, the evaluation
// timestamp's location is attached uniformly so later arithmetic stays well-defined.
func ParseDate(rawStr string, evaluationLoc *time.Location) (time.Time, model.DateTimePrecision, error) {
	if evaluationLoc == nil {
		return time.Time{}, model.UnsetDateTimePrecision, fmt.Errorf("internal error - evaluationLoc must be set when calling ParseDate")
	}
	if len(rawStr) == 0 || rawStr[0] != '@' {
		return time.Time{}, model.UnsetDateTimePrecision, fmt.Errorf("internal error - date string %v must start with @", rawStr)
	}
	str := rawStr[1:]

	tiers := []struct {
		layout    string
		precision model.DateTimePrecision
	}{
		{dateYear, model.Year},
		{dateMonth, model.Month},
		{dateDay, model.Day},
	}

	var err error
	var parsed time.Time
	for _, tr := range tiers {
		parsed, err = time.ParseInLocation(tr.layout, str, evaluationLoc)
		if err == nil {
			return parsed, tr.precision, nil
		}
	}
	if parseErr, ok := err.(*time.ParseError); ok {
		return time.Time{}, model.UnsetDateTimePrecision, fmtParsingErr(rawStr, types.Date, "@YYYY-MM-DD", parseErr)
	}
	return time.Time{}, model.UnsetDateTimePrecision, err
}

// ParseDateTime parses a CQL DateTime literal into a golang time. If rawStr carries no offset the
// evaluation location is used; otherwise the offset present in rawStr wins.
func ParseDateTime(rawStr string, evaluationLoc *time.Location) (time.Time, model.DateTimePrecision, error) {
	if evaluationLoc == nil {
		return time.Time{}, model.UnsetDateTimePrecision, fmt.Errorf("internal error - evaluationLoc must be set when calling ParseDateTime")
	}
	if len(rawStr) == 0 || rawStr[0] != '@' {
		return time.Time{}, model.UnsetDateTimePrecision, fmt.Errorf("internal error - datetime string %v must start with @", rawStr)
	}
	str := rawStr[1:]

	if fractionalOverflow.MatchString(rawStr) {
		return time.Time{}, model.UnsetDateTimePrecision, fmt.Errorf("%v %v can have at most 3 digits of millisecond precision, want a layout like @YYYY-MM-DDThh:mm:ss.fff(Z|(+/-hh:mm)", types.DateTime, rawStr)
	}

	tiers := []struct {
		layout    string
		precision model.DateTimePrecision
	}{
		{dateTimeYear, model.Year},
		{dateTimeMonth, model.Month},
		{dateTimeDay, model.Day},
		{dateTimeHour, model.Hour},
		{dateTimeMinute, model.Minute},
		// time.ParseInLocation accepts a fractional-second suffix even when the layout doesn't
		// declare one, so the millisecond tiers must be probed before the bare second tier.
		{dateTimeOneMillisecond, model.Millisecond},
		{dateTimeTwoMillisecond, model.Millisecond},
		{dateTimeThreeMillisecond, model.Millisecond},
		{dateTimeSecond, model.Second},
	}

	var err error
	var parsed time.Time
	for _, tr := range tiers {
		for _, timezone := range []string{zuluTZ, tz, ""} {
			loc := evaluationLoc
			if timezone == zuluTZ {
				loc = time.UTC
			}
			parsed, err = time.ParseInLocation(tr.layout+timezone, str, loc)
			if err == nil {
				return parsed, tr.precision, nil
			}
		}
	}
	if parseErr, ok := err.(*time.ParseError); ok {
		return time.Time{}, model.UnsetDateTimePrecision, fmtParsingErr(rawStr, types.DateTime, "@YYYY-MM-DDThh:mm:ss.fff(Z|(+/-hh:mm)", parseErr)
	}
	return time.Time{}, model.UnsetDateTimePrecision, err
}

// ParseTime parses a CQL Time literal ("@Thh[:mm[:ss[.fff]]]").
func ParseTime(rawStr string, evaluationLoc *time.Location) (time.Time, model.DateTimePrecision, error) {
	if len(rawStr) == 0 || rawStr[0] != '@' {
		return time.Time{}, model.UnsetDateTimePrecision, fmt.Errorf("internal error - time string %v must start with @", rawStr)
	}
	str := rawStr[1:]

	if fractionalOverflow.MatchString(rawStr) {
		return time.Time{}, model.UnsetDateTimePrecision, fmt.Errorf("%v %v can have at most 3 digits of millisecond precision, want a layout like @Thh:mm:ss.fff", types.Time, rawStr)
	}

	tiers := []struct {
		layout    string
		precision model.DateTimePrecision
	}{
		{timeHour, model.Hour},
		{timeMinute, model.Minute},
		{timeOneMillisecond, model.Millisecond},
		{timeTwoMillisecond, model.Millisecond},
		{timeThreeMillisecond, model.Millisecond},
		{timeSecond, model.Second},
	}

	var err error
	var parsed time.Time
	for _, tr := range tiers {
		parsed, err = time.ParseInLocation(tr.layout, str, evaluationLoc)
		if err == nil {
			return parsed, tr.precision, nil
		}
	}
	if parseErr, ok := err.(*time.ParseError); ok {
		return time.Time{}, model.UnsetDateTimePrecision, fmtParsingErr(rawStr, types.Time, "@Thh:mm:ss.fff", parseErr)
	}
	return time.Time{}, model.UnsetDateTimePrecision, err
}

// getLocation parses tz as an IANA location name or a fixed UTC offset.
func getLocation(tz string) (*time.Location, error) {
	if tz == "" || tz == "UTC" {
		return time.UTC, nil
	}
	l, err := time.LoadLocation(tz)
	if err != nil {
		offset, err := offsetToSeconds(tz)
		if err != nil {
			return nil, err
		}
		return time.FixedZone(tz, offset), nil
	}
	return l, nil
}

func offsetToSeconds(offset string) (int, error) {
	if offset == "" || offset == "UTC" {
		return 0, nil
	}
	sign := offset[0]
	if sign != '+' && sign != '-' {
		return 0, fmt.Errorf("invalid timezone offset: %v", offset)
	}
	arr := strings.Split(offset[1:], ":")
	if len(arr) != 2 {
		return 0, fmt.Errorf("invalid timezone offset: %v", offset)
	}
	hour, err := strconv.Atoi(arr[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hour in timezone offset %v: %w", offset, err)
	}
	minute, err := strconv.Atoi(arr[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minute in timezone offset %v: %w", offset, err)
	}
	if sign == '-' {
		return -hour*3600 - minute*60, nil
	}
	return hour*3600 + minute*60, nil
}

func fmtParsingErr(rawStr string, t types.IType, layout string, e *time.ParseError) error {
	return fmt.Errorf("got %v %v but want a layout like %v%v", t, rawStr, layout, e.Message)
}
