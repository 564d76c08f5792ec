package encoding

import "github.com/cockroachdb/errors"

var (
	// ErrShortBuffer is returned by decoders when the input ends in the
	// middle of a value. More input may make the value decodable.
	ErrShortBuffer = errors.New("short buffer")

	// ErrInvalidEncoding is returned by decoders when the input cannot be
	// decoded whatever follows.
	ErrInvalidEncoding = errors.New("invalid encoding")

	// ErrInvalidTemporal is returned when a broken-down time holds
	// out of range calendar fields.
	ErrInvalidTemporal = errors.New("invalid temporal value")
)
