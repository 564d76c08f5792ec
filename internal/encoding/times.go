package encoding

import (
	"time"

	"github.com/chaisql/exi/engine"
	"github.com/cockroachdb/errors"
)

// Number of fractional digits carried by EncodeEXIDateTime, minus one.
// An offset of 8 means the value is expressed in nanoseconds.
const nanoOffset = 8

var pow10 = [...]uint64{1, 10, 100, 1_000, 10_000, 100_000, 1_000_000, 10_000_000, 100_000_000}

// EncodeEXIDateTime converts the wall clock of t into a broken-down time
// with nanosecond fractional seconds. The time zone is not carried.
func EncodeEXIDateTime(t time.Time) engine.DateTime {
	return engine.DateTime{
		DateTime: engine.BrokenDownTime{
			Sec:  t.Second(),
			Min:  t.Minute(),
			Hour: t.Hour(),
			MDay: t.Day(),
			Mon:  int(t.Month()) - 1,
			Year: t.Year() - 1900,
		},
		FSecs: engine.FractionalSecs{
			Value:  uint32(t.Nanosecond()),
			Offset: nanoOffset,
		},
		PresenceMask: engine.FractPresence,
	}
}

// DecodeEXIDateTime converts a broken-down time into a UTC time.
// Fractional seconds are only taken into account when their presence bit is
// set and their offset is at most 8.
func DecodeEXIDateTime(dt engine.DateTime) (time.Time, error) {
	tm := dt.DateTime
	year := tm.Year + 1900

	switch {
	case tm.Mon < 0 || tm.Mon > 11:
		return time.Time{}, errors.Wrapf(ErrInvalidTemporal, "month %d out of range", tm.Mon+1)
	case tm.MDay < 1 || tm.MDay > daysIn(time.Month(tm.Mon+1), year):
		return time.Time{}, errors.Wrapf(ErrInvalidTemporal, "day %d out of range", tm.MDay)
	case tm.Hour < 0 || tm.Hour > 23:
		return time.Time{}, errors.Wrapf(ErrInvalidTemporal, "hour %d out of range", tm.Hour)
	case tm.Min < 0 || tm.Min > 59:
		return time.Time{}, errors.Wrapf(ErrInvalidTemporal, "minute %d out of range", tm.Min)
	case tm.Sec < 0 || tm.Sec > 59:
		return time.Time{}, errors.Wrapf(ErrInvalidTemporal, "second %d out of range", tm.Sec)
	}

	var nsec uint64
	if dt.PresenceMask&engine.FractPresence != 0 && dt.FSecs.Offset <= nanoOffset {
		nsec = uint64(dt.FSecs.Value) * pow10[nanoOffset-dt.FSecs.Offset]
		if nsec >= uint64(time.Second) {
			return time.Time{}, errors.Wrapf(ErrInvalidTemporal, "fractional seconds %d out of range", dt.FSecs.Value)
		}
	}

	return time.Date(year, time.Month(tm.Mon+1), tm.MDay, tm.Hour, tm.Min, tm.Sec, int(nsec), time.UTC), nil
}

func daysIn(m time.Month, year int) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// EncodeDateTime appends every field of dt.
func EncodeDateTime(dst []byte, dt engine.DateTime) []byte {
	tm := dt.DateTime
	for _, f := range []int{tm.Year, tm.Mon, tm.MDay, tm.Hour, tm.Min, tm.Sec} {
		dst = EncodeInt(dst, int64(f))
	}
	dst = EncodeUint(dst, uint64(dt.FSecs.Value))
	dst = append(dst, dt.FSecs.Offset)
	dst = EncodeInt(dst, int64(dt.TZone))
	return append(dst, dt.PresenceMask)
}

// DecodeDateTime decodes a value encoded with EncodeDateTime.
// Calendar fields are not validated.
func DecodeDateTime(b []byte) (engine.DateTime, int, error) {
	var dt engine.DateTime
	var off int

	tm := &dt.DateTime
	for _, f := range []*int{&tm.Year, &tm.Mon, &tm.MDay, &tm.Hour, &tm.Min, &tm.Sec} {
		x, n, err := DecodeInt(b[off:])
		if err != nil {
			return engine.DateTime{}, 0, err
		}
		*f = int(x)
		off += n
	}

	v, n, err := DecodeInt(b[off:])
	if err != nil {
		return engine.DateTime{}, 0, err
	}
	if v < 0 || v > 1<<32-1 {
		return engine.DateTime{}, 0, errors.Wrapf(ErrInvalidEncoding, "fractional seconds %d out of range", v)
	}
	dt.FSecs.Value = uint32(v)
	off += n

	if len(b) <= off {
		return engine.DateTime{}, 0, ErrShortBuffer
	}
	dt.FSecs.Offset = b[off]
	off++

	tz, n, err := DecodeInt(b[off:])
	if err != nil {
		return engine.DateTime{}, 0, err
	}
	dt.TZone = int16(tz)
	off += n

	if len(b) <= off {
		return engine.DateTime{}, 0, ErrShortBuffer
	}
	dt.PresenceMask = b[off]
	off++

	return dt, off, nil
}
