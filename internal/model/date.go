package model

import (
	"fmt"
	"strconv"
	"time"
)

// Wire layouts. Date-time values carry no zone offset: both sides of the API
// read them as naive wall-clock time.
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02T15:04:05"
)

// Date is a calendar date without a time component.  It serializes as
// "YYYY-MM-DD".  Optional dates are expressed as *Date so that JSON null and
// a missing key both decode to nil.
type Date struct {
	t time.Time
}

// NewDate builds a Date from its components.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date, keeping the wall-clock fields.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses a "YYYY-MM-DD" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q, expected %s", s, DateLayout)
	}
	return Date{t: t}, nil
}

// Time returns the date as midnight UTC.
func (d Date) Time() time.Time { return d.t }

func (d Date) String() string { return d.t.Format(DateLayout) }

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(d.String())), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s, err := strconv.Unquote(string(b))
	if err != nil {
		return fmt.Errorf("date must be a string in %s format", DateLayout)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DateTime is a naive date and time with second precision, serialized as
// "YYYY-MM-DDTHH:mm:ss".  Internally the wall clock is stored in UTC so that
// values round-trip through the database unchanged.
type DateTime struct {
	t time.Time
}

// NewDateTime builds a DateTime from its components.
func NewDateTime(year int, month time.Month, day, hour, min, sec int) DateTime {
	return DateTime{t: time.Date(year, month, day, hour, min, sec, 0, time.UTC)}
}

// DateTimeOf keeps the wall-clock fields of t and drops its location and
// sub-second part.
func DateTimeOf(t time.Time) DateTime {
	return NewDateTime(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second())
}

// ParseDateTime parses "YYYY-MM-DDTHH:mm:ss".  Fractional seconds are
// accepted and truncated.
func ParseDateTime(s string) (DateTime, error) {
	t, err := time.Parse("2006-01-02T15:04:05.999999999", s)
	if err != nil {
		return DateTime{}, fmt.Errorf("invalid date-time %q, expected %s", s, DateTimeLayout)
	}
	return DateTimeOf(t), nil
}

// Time returns the wall-clock value in UTC.
func (dt DateTime) Time() time.Time { return dt.t }

// IsZero reports whether dt is the zero date-time 0001-01-01T00:00:00.
func (dt DateTime) IsZero() bool { return dt.t.IsZero() }

func (dt DateTime) String() string { return dt.t.Format(DateTimeLayout) }

func (dt DateTime) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(dt.String())), nil
}

func (dt *DateTime) UnmarshalJSON(b []byte) error {
	s, err := strconv.Unquote(string(b))
	if err != nil {
		return fmt.Errorf("date-time must be a string in %s format", DateTimeLayout)
	}
	parsed, err := ParseDateTime(s)
	if err != nil {
		return err
	}
	*dt = parsed
	return nil
}
