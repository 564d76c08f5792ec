package encoding

import (
	"encoding/binary"

	"github.com/chaisql/exi/engine"
	"github.com/cockroachdb/errors"
)

func EncodeBlob(dst []byte, x []byte) []byte {
	// encode the length as a varint
	buf := make([]byte, binary.MaxVarintLen64+1)
	buf[0] = BlobValue
	n := binary.PutUvarint(buf[1:], uint64(len(x)))

	dst = append(dst, buf[:n+1]...)
	return append(dst, x...)
}

// DecodeBlob returns a slice of b holding the blob.
// The result aliases b.
func DecodeBlob(b []byte) ([]byte, int, error) {
	return decodeSized(b, BlobValue)
}

func EncodeText(dst []byte, x string) []byte {
	// encode the length as a varint
	buf := make([]byte, binary.MaxVarintLen64+1)
	buf[0] = TextValue
	n := binary.PutUvarint(buf[1:], uint64(len(x)))

	dst = append(dst, buf[:n+1]...)
	return append(dst, x...)
}

// DecodeText returns a copy of the encoded text.
func DecodeText(b []byte) (string, int, error) {
	x, n, err := decodeSized(b, TextValue)
	if err != nil {
		return "", 0, err
	}

	return string(x), n, nil
}

func decodeSized(b []byte, tp byte) ([]byte, int, error) {
	if len(b) == 0 {
		return nil, 0, ErrShortBuffer
	}
	if b[0] != tp {
		return nil, 0, errors.Wrapf(ErrInvalidEncoding, "expected type %#x, got %#x", tp, b[0])
	}

	l, n, err := DecodeUvarint(b[1:])
	if err != nil {
		return nil, 0, err
	}
	end := 1 + n + int(l)
	if l > uint64(len(b)) || end > len(b) {
		return nil, 0, ErrShortBuffer
	}

	return b[1+n : end], end, nil
}

// EncodeQName appends the namespace, the local name and the prefix of q.
func EncodeQName(dst []byte, q engine.QName) []byte {
	dst = EncodeText(dst, q.URI)
	dst = EncodeText(dst, q.LocalName)
	return EncodeText(dst, q.Prefix)
}

// DecodeQName decodes a value encoded with EncodeQName.
func DecodeQName(b []byte) (engine.QName, int, error) {
	var q engine.QName
	var off int

	for _, dst := range []*string{&q.URI, &q.LocalName, &q.Prefix} {
		s, n, err := DecodeText(b[off:])
		if err != nil {
			return engine.QName{}, 0, err
		}
		*dst = s
		off += n
	}

	return q, off, nil
}
