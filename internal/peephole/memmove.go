package peephole

import (
	"github.com/wasmbuild/wasmbuild/internal/buffer"
	"github.com/wasmbuild/wasmbuild/internal/wasmbin"
)

// TryMemmoveFast attempts to copy count bytes from the source local to the
// destination local as matched iN.load/iN.store pairs, returning ok=false
// without emitting anything if count is too large to inline.
//
// Neither operand is ever read from the stack here: unlike TryMemsetFast,
// the generator this is grounded on always addresses memmove's source and
// destination through locals, since the copy needs both addresses more
// than once.
func TryMemmoveFast(dst *buffer.ByteBuffer, destLocal, srcLocal int, destOffset, srcOffset int32, count int, maxSize int) (ok bool, err error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxMemsetSize
	}
	if count <= 0 {
		return true, nil
	}
	if count >= maxSize {
		return false, nil
	}

	copyChunk := func(n int, loadOp, storeOp byte) error {
		if err := localGet(dst, destLocal); err != nil {
			return err
		}
		if err := localGet(dst, srcLocal); err != nil {
			return err
		}
		if _, err := dst.AppendU8(loadOp); err != nil {
			return err
		}
		if err := AppendMemarg(dst, srcOffset, 0); err != nil {
			return err
		}
		if _, err := dst.AppendU8(storeOp); err != nil {
			return err
		}
		if err := AppendMemarg(dst, destOffset, 0); err != nil {
			return err
		}
		destOffset += int32(n)
		srcOffset += int32(n)
		return nil
	}

	remaining := count
	for remaining >= 8 {
		if err := copyChunk(8, wasmbin.OpI64Load, wasmbin.OpI64Store); err != nil {
			return false, err
		}
		remaining -= 8
	}
	for remaining >= 4 {
		if err := copyChunk(4, wasmbin.OpI32Load, wasmbin.OpI32Store); err != nil {
			return false, err
		}
		remaining -= 4
	}
	for remaining >= 2 {
		if err := copyChunk(2, wasmbin.OpI32Load16U, wasmbin.OpI32Store16); err != nil {
			return false, err
		}
		remaining -= 2
	}
	if remaining == 1 {
		if err := copyChunk(1, wasmbin.OpI32Load8U, wasmbin.OpI32Store8); err != nil {
			return false, err
		}
	}
	return true, nil
}

// AppendBulkMemmove emits the memory.copy fallback, assuming dest and src
// addresses are already on the operand stack (deepest to shallowest: dest,
// src), pushing only the count.
func AppendBulkMemmove(dst *buffer.ByteBuffer, count int32) error {
	if _, err := dst.AppendU8(wasmbin.OpI32Const); err != nil {
		return err
	}
	if _, err := dst.AppendLeb(int64(count)); err != nil {
		return err
	}
	if _, err := dst.AppendU8(wasmbin.OpMisc); err != nil {
		return err
	}
	if _, err := dst.AppendULeb(wasmbin.MiscMemoryCopy); err != nil {
		return err
	}
	if _, err := dst.AppendU8(0x00); err != nil { // dst mem 0
		return err
	}
	_, err := dst.AppendU8(0x00) // src mem 0
	return err
}
