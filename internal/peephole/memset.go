// Package peephole implements the inline expansions of small memset and
// memmove calls into sequences of native WebAssembly loads/stores, falling
// back to the bulk-memory instructions (memory.fill / memory.copy) for
// larger or statically-unknown sizes.
//
// Both helpers write directly into the current function body buffer; they
// need no access to the wider builder because everything they emit is
// fully determined by the local indices and constants the caller passes
// in.
package peephole

import (
	"github.com/wasmbuild/wasmbuild/internal/buffer"
	"github.com/wasmbuild/wasmbuild/internal/wasmbin"
)

// DefaultMaxMemsetSize is the configurable ceiling (spec.md's
// maxMemsetSize) at or above which TryMemsetFast/TryMemmoveFast decline and the
// caller must fall back to the bulk instructions.
const DefaultMaxMemsetSize = 64

func AppendMemarg(dst *buffer.ByteBuffer, offset int32, alignLog2 uint32) error {
	if _, err := dst.AppendULeb(uint64(alignLog2)); err != nil {
		return err
	}
	_, err := dst.AppendULeb(uint64(offset))
	return err
}

func localGet(dst *buffer.ByteBuffer, index int) error {
	if _, err := dst.AppendU8(wasmbin.OpLocalGet); err != nil {
		return err
	}
	_, err := dst.AppendULeb(uint64(index))
	return err
}

func localSet(dst *buffer.ByteBuffer, index int) error {
	if _, err := dst.AppendU8(wasmbin.OpLocalSet); err != nil {
		return err
	}
	_, err := dst.AppendULeb(uint64(index))
	return err
}

// TryMemsetFast attempts to emit count bytes of value (value is only ever
// called with 0 by the generator today, but any value is accepted and
// encoded) starting at the destination local, as a sequence of 8/4/2/1-byte
// native stores. It returns ok=false without emitting anything if count is
// too large (>= maxMemsetSize) for the caller to fall back to
// AppendBulkMemset.
//
// destOnStack indicates the destination address is already sitting on the
// operand stack (pushed by the caller); in that case scratchLocal receives
// it via local.set before the stores begin, and destLocal is ignored.
func TryMemsetFast(dst *buffer.ByteBuffer, destOnStack bool, destLocal, scratchLocal int, offset int32, count int, value int64, maxMemsetSize int) (ok bool, err error) {
	if maxMemsetSize <= 0 {
		maxMemsetSize = DefaultMaxMemsetSize
	}
	if count <= 0 {
		if destOnStack {
			if _, err := dst.AppendU8(0x1a); err != nil { // drop
				return false, err
			}
		}
		return true, nil
	}
	if count >= maxMemsetSize {
		return false, nil
	}

	destLocalIdx := destLocal
	if destOnStack {
		if err := localSet(dst, scratchLocal); err != nil {
			return false, err
		}
		destLocalIdx = scratchLocal
	}

	remaining := count
	for remaining >= 8 {
		if err := localGet(dst, destLocalIdx); err != nil {
			return false, err
		}
		if _, err := dst.AppendU8(wasmbin.OpI64Const); err != nil {
			return false, err
		}
		if _, err := dst.AppendLeb(value); err != nil {
			return false, err
		}
		if _, err := dst.AppendU8(wasmbin.OpI64Store); err != nil {
			return false, err
		}
		if err := AppendMemarg(dst, offset, 0); err != nil {
			return false, err
		}
		offset += 8
		remaining -= 8
	}
	for remaining >= 4 {
		if err := localGet(dst, destLocalIdx); err != nil {
			return false, err
		}
		if _, err := dst.AppendU8(wasmbin.OpI32Const); err != nil {
			return false, err
		}
		if _, err := dst.AppendLeb(value); err != nil {
			return false, err
		}
		if _, err := dst.AppendU8(wasmbin.OpI32Store); err != nil {
			return false, err
		}
		if err := AppendMemarg(dst, offset, 0); err != nil {
			return false, err
		}
		offset += 4
		remaining -= 4
	}
	for remaining >= 2 {
		if err := localGet(dst, destLocalIdx); err != nil {
			return false, err
		}
		if _, err := dst.AppendU8(wasmbin.OpI32Const); err != nil {
			return false, err
		}
		if _, err := dst.AppendLeb(value); err != nil {
			return false, err
		}
		if _, err := dst.AppendU8(wasmbin.OpI32Store16); err != nil {
			return false, err
		}
		if err := AppendMemarg(dst, offset, 0); err != nil {
			return false, err
		}
		offset += 2
		remaining -= 2
	}
	if remaining == 1 {
		if err := localGet(dst, destLocalIdx); err != nil {
			return false, err
		}
		if _, err := dst.AppendU8(wasmbin.OpI32Const); err != nil {
			return false, err
		}
		if _, err := dst.AppendLeb(value); err != nil {
			return false, err
		}
		if _, err := dst.AppendU8(wasmbin.OpI32Store8); err != nil {
			return false, err
		}
		if err := AppendMemarg(dst, offset, 0); err != nil {
			return false, err
		}
	}
	return true, nil
}

// AppendBulkMemset emits the memory.fill fallback, assuming the
// destination address is already on the operand stack.
func AppendBulkMemset(dst *buffer.ByteBuffer, value int32, count int32) error {
	if _, err := dst.AppendU8(wasmbin.OpI32Const); err != nil {
		return err
	}
	if _, err := dst.AppendLeb(int64(value)); err != nil {
		return err
	}
	if _, err := dst.AppendU8(wasmbin.OpI32Const); err != nil {
		return err
	}
	if _, err := dst.AppendLeb(int64(count)); err != nil {
		return err
	}
	if _, err := dst.AppendU8(wasmbin.OpMisc); err != nil {
		return err
	}
	if _, err := dst.AppendULeb(wasmbin.MiscMemoryFill); err != nil {
		return err
	}
	_, err := dst.AppendU8(0x00) // memory index 0
	return err
}
