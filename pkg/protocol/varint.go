package protocol

// MaxVarintLen is the maximum length of a varint-encoded 64-bit integer.
const MaxVarintLen = 10

// EncodeUvarint encodes an unsigned integer using variable-length encoding.
// Smaller values use fewer bytes (protobuf-style).
// Returns the number of bytes written.
func EncodeUvarint(buf []byte, v uint64) int {
	i := 0
	for v >= 0x80 {
		buf[i] = byte(v) | 0x80
		v >>= 7
		i++
	}
	buf[i] = byte(v)
	return i + 1
}

// DecodeUvarint decodes a variable-length unsigned integer.
// Returns the value and the number of bytes read.
// Returns (0, -1) if the buffer is truncated mid-varint.
// Returns (0, -2) if the varint would overflow 64 bits.
func DecodeUvarint(buf []byte) (uint64, int) {
	var v uint64
	var shift uint

	for i, b := range buf {
		if shift >= 64 {
			return 0, -2 // overflow
		}
		v |= uint64(b&0x7F) << shift
		if b < 0x80 {
			return v, i + 1
		}
		shift += 7
	}
	return 0, -1 // truncated
}

// EncodeSvarint encodes a signed integer using ZigZag encoding.
// ZigZag maps signed integers to unsigned so that numbers with small
// absolute values have small varint encodings: 0, -1, 1, -2, 2 map to
// 0, 1, 2, 3, 4.
// Returns the number of bytes written.
func EncodeSvarint(buf []byte, v int64) int {
	uv := uint64(v<<1) ^ uint64(v>>63)
	return EncodeUvarint(buf, uv)
}

// DecodeSvarint decodes a ZigZag-encoded signed integer.
// Returns the value and the number of bytes read, with the same error
// convention as DecodeUvarint.
func DecodeSvarint(buf []byte) (int64, int) {
	uv, n := DecodeUvarint(buf)
	if n <= 0 {
		return 0, n
	}
	v := int64(uv >> 1)
	if uv&1 != 0 {
		v = ^v
	}
	return v, n
}

// UvarintLen returns the number of bytes EncodeUvarint would write.
func UvarintLen(v uint64) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}

// SvarintLen returns the number of bytes EncodeSvarint would write.
func SvarintLen(v int64) int {
	uv := uint64(v<<1) ^ uint64(v>>63)
	return UvarintLen(uv)
}
