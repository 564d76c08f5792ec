package testutil

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/chaisql/exi/engine"
)

// Recorder is an engine.ContentHandler recording every callback
// in a compact textual form.
type Recorder struct {
	Calls []string

	// Code is returned by every callback once recorded.
	Code engine.Code
}

var _ engine.ContentHandler = (*Recorder)(nil)

func (r *Recorder) record(format string, args ...any) engine.Code {
	r.Calls = append(r.Calls, fmt.Sprintf(format, args...))
	return r.Code
}

func (r *Recorder) StartDocument() engine.Code { return r.record("SD") }
func (r *Recorder) EndDocument() engine.Code   { return r.record("ED") }
func (r *Recorder) EndElement() engine.Code    { return r.record("EE") }

func (r *Recorder) StartElement(q engine.QName) engine.Code {
	return r.record("SE(%s)", FormatQName(q))
}

func (r *Recorder) Attribute(q engine.QName) engine.Code {
	return r.record("AT(%s)", FormatQName(q))
}

func (r *Recorder) IntData(v int64) engine.Code {
	return r.record("INT(%d)", v)
}

func (r *Recorder) BooleanData(v bool) engine.Code {
	return r.record("BOOL(%t)", v)
}

func (r *Recorder) StringData(v string) engine.Code {
	return r.record("STR(%s)", strconv.Quote(v))
}

func (r *Recorder) FloatData(v engine.Float) engine.Code {
	return r.record("FLOAT(%d,%d)", v.Mantissa, v.Exponent)
}

func (r *Recorder) DecimalData(v engine.Float) engine.Code {
	return r.record("DEC(%d,%d)", v.Mantissa, v.Exponent)
}

func (r *Recorder) BinaryData(v []byte) engine.Code {
	return r.record("BIN(%s)", hex.EncodeToString(v))
}

func (r *Recorder) DateTimeData(v engine.DateTime) engine.Code {
	return r.record("DT(%s)", FormatDateTime(v))
}

func (r *Recorder) ListData(_ engine.TypeClass, itemCount uint32) engine.Code {
	return r.record("LIST(%d)", itemCount)
}

func (r *Recorder) QNameData(q engine.QName) engine.Code {
	return r.record("QNAME(%s)", FormatQName(q))
}

func (r *Recorder) NamespaceDeclaration(namespace, prefix string, isLocalElement bool) engine.Code {
	return r.record("NS(%s=%s,%t)", prefix, namespace, isLocalElement)
}

// FormatQName returns {uri}local or {uri}prefix:local.
func FormatQName(q engine.QName) string {
	if q.Prefix == "" {
		return "{" + q.URI + "}" + q.LocalName
	}

	return "{" + q.URI + "}" + q.Prefix + ":" + q.LocalName
}

// FormatDateTime returns every field of dt, the month being zero-based
// and the year relative to 1900.
func FormatDateTime(dt engine.DateTime) string {
	tm := dt.DateTime
	return fmt.Sprintf("%d-%d-%d %d:%d:%d %d/%d tz=%d mask=%#x",
		tm.Year, tm.Mon, tm.MDay, tm.Hour, tm.Min, tm.Sec,
		dt.FSecs.Value, dt.FSecs.Offset, dt.TZone, dt.PresenceMask)
}
