package types

import (
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/golang-module/carbon/v2"
)

// TimestampLayout is the lexical form of a date-time without time zone.
const TimestampLayout = "2006-01-02T15:04:05.999999999"

var _ Value = NewTimestampValue(time.Time{})

// TimestampValue is a calendar date-time. Only its wall clock is carried
// by EXI streams, the location is ignored.
type TimestampValue time.Time

// NewTimestampValue returns an EXI date-time value.
func NewTimestampValue(x time.Time) TimestampValue {
	return TimestampValue(x)
}

func (v TimestampValue) V() any {
	return time.Time(v)
}

func (v TimestampValue) Type() Type {
	return TypeTimestamp
}

func (v TimestampValue) String() string {
	return time.Time(v).Format(TimestampLayout)
}

func (v TimestampValue) MarshalText() ([]byte, error) {
	return time.Time(v).AppendFormat(nil, TimestampLayout), nil
}

func (v TimestampValue) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(v.String())), nil
}

// Equal reports whether v and other represent the same instant.
func (v TimestampValue) Equal(other TimestampValue) bool {
	return time.Time(v).Equal(time.Time(other))
}

func (v TimestampValue) CastAs(target Type) (Value, error) {
	switch target {
	case TypeTimestamp:
		return v, nil
	case TypeString:
		return NewStringValue(v.String()), nil
	}

	return nil, errCast(v, target)
}

// ParseTimestamp parses the lexical form of a date-time.
// The canonical layout is tried first, then RFC 3339, then any layout
// understood by carbon. Times without zone are read as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	if ts, err := time.ParseInLocation(TimestampLayout, s, time.UTC); err == nil {
		return ts, nil
	}
	if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return ts, nil
	}

	c := carbon.Parse(s, carbon.UTC)
	if c.Error != nil {
		return time.Time{}, errors.Wrapf(c.Error, "invalid timestamp %q", s)
	}

	return c.ToStdTime(), nil
}
