package encoding

func write1(dst []byte, code byte, n uint8) []byte {
	return append(dst, code, n)
}

func write2(dst []byte, code byte, n uint16) []byte {
	return append(dst, code, byte(n>>8), byte(n))
}

func write4(dst []byte, code byte, n uint32) []byte {
	return append(
		dst,
		code,
		byte(n>>24),
		byte(n>>16),
		byte(n>>8),
		byte(n),
	)
}

func write8(dst []byte, code byte, n uint64) []byte {
	return append(
		dst,
		code,
		byte(n>>56),
		byte(n>>48),
		byte(n>>40),
		byte(n>>32),
		byte(n>>24),
		byte(n>>16),
		byte(n>>8),
		byte(n),
	)
}

// payloadSize returns the number of bytes following the type byte
// of an integer.
func payloadSize(tp byte) int {
	switch tp {
	case Int8Value, Uint8Value:
		return 1
	case Int16Value, Uint16Value:
		return 2
	case Int32Value, Uint32Value:
		return 4
	case Int64Value, Uint64Value:
		return 8
	}

	return -1
}

func isSmallInt(tp byte) bool {
	return tp >= IntSmallValue && tp < Uint8Value
}
