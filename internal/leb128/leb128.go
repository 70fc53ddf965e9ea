// Package leb128 implements the variable-length integer encoding used
// throughout the WebAssembly binary format.
//
// Apart from the pure-constant wasmbin and wasmerr packages, this is the one
// package in the module built on nothing but the standard library: LEB128
// is single-purpose bit-twiddling with no ecosystem package
// in the retrieved corpus, and it backs host/refhost's reference
// implementation of the host encoder interface described by the
// specification (production hosts wire their own, usually hand-written in
// assembly or borrowed from a JS engine's cwrap surface).
package leb128

// EncodeUint32 encodes v as unsigned LEB128.
func EncodeUint32(v uint32) []byte {
	return appendULEB(nil, uint64(v))
}

// EncodeUint64 encodes v as unsigned LEB128.
func EncodeUint64(v uint64) []byte {
	return appendULEB(nil, v)
}

// EncodeInt32 encodes v as signed LEB128.
func EncodeInt32(v int32) []byte {
	return appendSLEB(nil, int64(v))
}

// EncodeInt64 encodes v as signed LEB128.
func EncodeInt64(v int64) []byte {
	return appendSLEB(nil, v)
}

func appendULEB(dst []byte, v uint64) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		dst = append(dst, b)
		if v == 0 {
			return dst
		}
	}
}

func appendSLEB(dst []byte, v int64) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		signBitSet := b&0x40 != 0
		if (v == 0 && !signBitSet) || (v == -1 && signBitSet) {
			dst = append(dst, b)
			return dst
		}
		dst = append(dst, b|0x80)
	}
}

// LoadUint32 decodes an unsigned LEB128 value from the front of b, returning
// the value, the number of bytes consumed and any error.
func LoadUint32(b []byte) (uint32, int, error) {
	v, n, err := loadULEB(b, 32)
	return uint32(v), n, err
}

// LoadUint64 decodes an unsigned LEB128 value from the front of b.
func LoadUint64(b []byte) (uint64, int, error) {
	return loadULEB(b, 64)
}

// LoadInt32 decodes a signed LEB128 value from the front of b.
func LoadInt32(b []byte) (int32, int, error) {
	v, n, err := loadSLEB(b, 32)
	return int32(v), n, err
}

// LoadInt64 decodes a signed LEB128 value from the front of b.
func LoadInt64(b []byte) (int64, int, error) {
	return loadSLEB(b, 64)
}

func loadULEB(b []byte, bits int) (uint64, int, error) {
	var result uint64
	var shift uint
	for i, c := range b {
		result |= uint64(c&0x7f) << shift
		if c&0x80 == 0 {
			return result, i + 1, nil
		}
		shift += 7
		if shift >= uint(bits)+7 {
			return 0, 0, errOverflow
		}
	}
	return 0, 0, errTruncated
}

func loadSLEB(b []byte, bits int) (int64, int, error) {
	var result int64
	var shift uint
	var c byte
	i := 0
	for ; i < len(b); i++ {
		c = b[i]
		result |= int64(c&0x7f) << shift
		shift += 7
		if c&0x80 == 0 {
			break
		}
		if shift >= uint(bits)+7 {
			return 0, 0, errOverflow
		}
	}
	if i == len(b) {
		return 0, 0, errTruncated
	}
	if shift < uint(bits) && c&0x40 != 0 {
		result |= -1 << shift
	}
	return result, i + 1, nil
}
