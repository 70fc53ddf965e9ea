// Package buffer implements the streaming byte region ("Byte Buffer") and
// the nested scope stack ("Buffer Stack") that the module builder uses to
// size sections and function bodies whose length prefixes can only be
// written once their payload is complete.
//
// The split mirrors the teacher's own internal/asm CodeSegment/Buffer pair:
// a ByteBuffer owns the backing storage, Stack hands out scoped views over
// it. Where the teacher's CodeSegment backs memory-mapped, executable native
// code, a ByteBuffer here backs plain Wasm bytecode that is never executed
// by this process, so it is a bounded []byte rather than an mmap'd region.
package buffer

import (
	"encoding/binary"
	"math"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/wasmbuild/wasmbuild/host"
	"github.com/wasmbuild/wasmbuild/internal/wasmerr"
)

// DefaultCapacity is the fixed capacity a ByteBuffer is constructed with
// when the caller does not override it.
const DefaultCapacity = 32_000

// ByteBuffer is an appendable binary region with a fixed capacity. It
// implements little-endian primitive writes directly, and delegates
// LEB128 encoding to a host.Host (see package host) the same way the
// specification this module implements delegates it to a cwrap encoder.
type ByteBuffer struct {
	host host.Host
	buf  []byte
	size int
}

// New constructs a ByteBuffer with DefaultCapacity bytes of backing storage.
func New(h host.Host) *ByteBuffer {
	return NewSized(h, DefaultCapacity)
}

// NewSized constructs a ByteBuffer with the given fixed capacity.
func NewSized(h host.Host, capacity int) *ByteBuffer {
	return &ByteBuffer{host: h, buf: make([]byte, capacity)}
}

// Size returns the number of bytes currently appended.
func (b *ByteBuffer) Size() int { return b.size }

// Cap returns the fixed capacity of the buffer.
func (b *ByteBuffer) Cap() int { return len(b.buf) }

// Clear resets size to zero. The specification notes that any host
// allocation may invalidate a cached heap view; on a native Go target
// there is no such view to re-bind, but Clear is kept as the explicit
// reset point future host.Host implementations should use to re-acquire
// one, matching the spec's rule that every reentry point that could have
// allocated must re-bind views before writing.
func (b *ByteBuffer) Clear() {
	b.size = 0
}

// GetView returns the written bytes, or (if fullCapacity is true) a slice
// spanning the buffer's entire backing storage.
func (b *ByteBuffer) GetView(fullCapacity bool) []byte {
	if fullCapacity {
		return b.buf
	}
	return b.buf[:b.size]
}

func (b *ByteBuffer) reserve(n int) (int, error) {
	if b.size+n > len(b.buf) {
		return 0, errors.Wrapf(wasmerr.ErrBufferFull, "need %d bytes, have %d of %d remaining", n, len(b.buf)-b.size, len(b.buf))
	}
	off := b.size
	b.size += n
	return off, nil
}

// AppendU8 appends a single byte and returns the offset it was written at.
func (b *ByteBuffer) AppendU8(v byte) (int, error) {
	off, err := b.reserve(1)
	if err != nil {
		return 0, err
	}
	b.buf[off] = v
	return off, nil
}

// AppendU16 appends a little-endian uint16.
func (b *ByteBuffer) AppendU16(v uint16) (int, error) {
	off, err := b.reserve(2)
	if err != nil {
		return 0, err
	}
	binary.LittleEndian.PutUint16(b.buf[off:], v)
	return off, nil
}

// AppendI16 appends a little-endian int16.
func (b *ByteBuffer) AppendI16(v int16) (int, error) { return b.AppendU16(uint16(v)) }

// AppendU32 appends a little-endian uint32.
func (b *ByteBuffer) AppendU32(v uint32) (int, error) {
	off, err := b.reserve(4)
	if err != nil {
		return 0, err
	}
	binary.LittleEndian.PutUint32(b.buf[off:], v)
	return off, nil
}

// AppendI32 appends a little-endian int32.
func (b *ByteBuffer) AppendI32(v int32) (int, error) { return b.AppendU32(uint32(v)) }

// AppendU64 appends a little-endian uint64.
func (b *ByteBuffer) AppendU64(v uint64) (int, error) {
	off, err := b.reserve(8)
	if err != nil {
		return 0, err
	}
	binary.LittleEndian.PutUint64(b.buf[off:], v)
	return off, nil
}

// AppendI64 appends a little-endian int64.
func (b *ByteBuffer) AppendI64(v int64) (int, error) { return b.AppendU64(uint64(v)) }

// AppendF32 appends the raw IEEE-754 bits of v.
func (b *ByteBuffer) AppendF32(v float32) (int, error) {
	return b.AppendU32(math.Float32bits(v))
}

// AppendF64 appends the raw IEEE-754 bits of v.
func (b *ByteBuffer) AppendF64(v float64) (int, error) {
	return b.AppendU64(math.Float64bits(v))
}

// AppendBytes appends src verbatim.
func (b *ByteBuffer) AppendBytes(src []byte) (int, error) {
	off, err := b.reserve(len(src))
	if err != nil {
		return 0, err
	}
	copy(b.buf[off:], src)
	return off, nil
}

// AppendName appends text as a ULEB128 byte count followed by its UTF-8
// bytes, taking a fast path for single ASCII characters that bypasses the
// UTF-8 encoder entirely, as the specification requires.
func (b *ByteBuffer) AppendName(text string) (int, error) {
	if len(text) == 1 && text[0] < utf8.RuneSelf {
		off, err := b.AppendU8(1)
		if err != nil {
			return 0, err
		}
		if _, err := b.AppendU8(text[0]); err != nil {
			return 0, err
		}
		return off, nil
	}
	off, err := b.AppendULeb(uint64(len(text)))
	if err != nil {
		return 0, err
	}
	if _, err := b.AppendBytes([]byte(text)); err != nil {
		return 0, err
	}
	return off, nil
}

// AppendULeb appends value as ULEB128, delegating the encoding itself to
// the host.
func (b *ByteBuffer) AppendULeb(value uint64) (int, error) {
	return b.appendEncoded(func(dst []byte) (int, error) {
		return b.host.EncodeULEB(dst, value)
	})
}

// AppendLeb appends value as SLEB128, delegating the encoding itself to
// the host.
func (b *ByteBuffer) AppendLeb(value int64) (int, error) {
	return b.appendEncoded(func(dst []byte) (int, error) {
		return b.host.EncodeSLEB(dst, value)
	})
}

// AppendLebRef encodes the integer held in src (signed or unsigned per the
// signed flag) without the caller widening it through a float, per
// spec.md's appendLebRef.
func (b *ByteBuffer) AppendLebRef(src []byte, signed bool) (int, error) {
	return b.appendEncoded(func(dst []byte) (int, error) {
		return b.host.EncodeULEBFromMemory(dst, src, signed)
	})
}

// AppendBoundaryValue encodes the overflow-test sentinel ±2^(bits-1).
func (b *ByteBuffer) AppendBoundaryValue(bits int, negative bool) (int, error) {
	return b.appendEncoded(func(dst []byte) (int, error) {
		return b.host.EncodeSLEBBoundary(dst, bits, negative)
	})
}

// appendEncoded reserves the external encoder's 8-byte maximum, invokes
// encode to fill it, then truncates the reservation to the bytes actually
// written.
func (b *ByteBuffer) appendEncoded(encode func(dst []byte) (int, error)) (int, error) {
	const maxLEBBytes = 8
	off, err := b.reserve(maxLEBBytes)
	if err != nil {
		return 0, err
	}
	n, err := encode(b.buf[off : off+maxLEBBytes])
	if err != nil || n < 1 {
		b.size = off
		return 0, errors.Wrap(wasmerr.ErrEncoderFailure, errOrNil(err))
	}
	b.size = off + n
	return off, nil
}

func errOrNil(err error) string {
	if err == nil {
		return "encoder returned fewer than 1 byte"
	}
	return err.Error()
}
