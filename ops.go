package wasmbuild

import (
	"github.com/wasmbuild/wasmbuild/internal/peephole"
	"github.com/wasmbuild/wasmbuild/internal/wasmbin"
)

// Op emits a single opcode byte with no immediate, for instructions (i32.add,
// end, drop, ...) the named helpers don't wrap directly.
func (b *Builder) Op(code byte) error { return b.op(code) }

// I32Const emits i32.const v.
func (b *Builder) I32Const(v int32) error {
	if err := b.op(wasmbin.OpI32Const); err != nil {
		return err
	}
	_, err := b.buf().AppendLeb(int64(v))
	return err
}

// I52Const emits i64.const v. The name follows the specification this
// module implements: source values here never exceed 52 bits (the integer
// range a float64 can represent exactly), but the opcode is the ordinary
// 64-bit constant.
func (b *Builder) I52Const(v int64) error {
	if err := b.op(wasmbin.OpI64Const); err != nil {
		return err
	}
	_, err := b.buf().AppendLeb(v)
	return err
}

// F32Const emits f32.const v.
func (b *Builder) F32Const(v float32) error {
	if err := b.op(wasmbin.OpF32Const); err != nil {
		return err
	}
	_, err := b.buf().AppendF32(v)
	return err
}

// F64Const emits f64.const v.
func (b *Builder) F64Const(v float64) error {
	if err := b.op(wasmbin.OpF64Const); err != nil {
		return err
	}
	_, err := b.buf().AppendF64(v)
	return err
}

// IPConst emits i32.const for ip, rebased against the trace base address
// supplied to New via WithBase — the sole well-known rebasing this module
// performs.
func (b *Builder) IPConst(ip int64) error {
	return b.I32Const(int32(ip - b.base))
}

// Ret emits ip_const(ip) followed by return.
func (b *Builder) Ret(ip int64) error {
	if err := b.IPConst(ip); err != nil {
		return err
	}
	return b.op(wasmbin.OpReturn)
}

// PtrConst emits a pointer literal, reusing an existing constant slot via
// linear search when useConstants is enabled and p was already seen,
// assigning a fresh slot if capacity remains, or else falling back to a
// plain i32.const.
func (b *Builder) PtrConst(p int64) error {
	if b.useConstants {
		for i := range b.constantSlots {
			if b.constantSlots[i].assigned && b.constantSlots[i].value == p {
				return b.globalGet(i)
			}
		}
		if len(b.constantSlots) < b.constantSlotCount {
			b.constantSlots = append(b.constantSlots, constantSlot{value: p, assigned: true})
			return b.globalGet(len(b.constantSlots) - 1)
		}
	}
	return b.I32Const(int32(p))
}

func (b *Builder) globalGet(slot int) error {
	if err := b.op(wasmbin.OpGlobalGet); err != nil {
		return err
	}
	_, err := b.buf().AppendULeb(uint64(slot))
	return err
}

// Block begins a block region. result defaults to void when omitted.
func (b *Builder) Block(result ...wasmbin.ValType) error { return b.beginBlock(wasmbin.OpBlock, result) }

// Loop begins a loop region. result defaults to void when omitted.
func (b *Builder) Loop(result ...wasmbin.ValType) error { return b.beginBlock(wasmbin.OpLoop, result) }

// If begins an if region. result defaults to void when omitted.
func (b *Builder) If(result ...wasmbin.ValType) error { return b.beginBlock(wasmbin.OpIf, result) }

func (b *Builder) beginBlock(opcode byte, result []wasmbin.ValType) error {
	rt := wasmbin.ValTypeVoid
	if len(result) > 0 {
		rt = result[0]
	}
	if err := b.op(opcode); err != nil {
		return err
	}
	if _, err := b.buf().AppendU8(rt); err != nil {
		return err
	}
	b.activeBlocks++
	return nil
}

// Else emits the else branch of an open If; it does not change the active
// block count.
func (b *Builder) Else() error { return b.op(wasmbin.OpElse) }

// EndBlock closes the innermost open block/loop/if.
func (b *Builder) EndBlock() error {
	if b.activeBlocks > 0 {
		b.activeBlocks--
	}
	return b.op(wasmbin.OpEnd)
}

// Address is an operand to Lea: either a local (by name or index) holding a
// base address, or a compile-time-constant address.
type Address struct {
	local    bool
	name     string
	index    int
	hasIndex bool
	value    int32
}

// LocalAddress refers to a named local or parameter holding a base address.
func LocalAddress(name string) Address { return Address{local: true, name: name} }

// LocalAddressAt refers to a local or parameter by absolute index.
func LocalAddressAt(index int) Address { return Address{local: true, hasIndex: true, index: index} }

// ConstAddress is a compile-time-constant base address.
func ConstAddress(v int32) Address { return Address{value: v} }

// Lea emits (local.get base | i32.const base) ; i32.const offset ; i32.add.
func (b *Builder) Lea(base Address, offset int32) error {
	if base.local {
		var err error
		if base.hasIndex {
			err = b.emitLocalOp(base.index, wasmbin.OpLocalGet)
		} else {
			err = b.Arg(base.name, wasmbin.OpLocalGet)
		}
		if err != nil {
			return err
		}
	} else if err := b.I32Const(base.value); err != nil {
		return err
	}
	if err := b.I32Const(offset); err != nil {
		return err
	}
	return b.op(wasmbin.OpI32Add)
}

// AppendMemarg appends a memory access immediate (alignLog2, offset), both
// ULEB128.
func (b *Builder) AppendMemarg(offset int32, alignLog2 uint32) error {
	return peephole.AppendMemarg(b.buf(), offset, alignLog2)
}

// TryMemsetFast attempts the inline peephole expansion of a small memset;
// see internal/peephole. destRef/scratchRef accept either a local name or
// an already-absolute local index.
func (b *Builder) TryMemsetFast(destOnStack bool, destRef, scratchRef any, offset int32, count int, value int64) (bool, error) {
	destIdx, err := b.resolveLocalRef(destRef)
	if err != nil {
		return false, err
	}
	scratchIdx, err := b.resolveLocalRef(scratchRef)
	if err != nil {
		return false, err
	}
	return peephole.TryMemsetFast(b.buf(), destOnStack, destIdx, scratchIdx, offset, count, value, b.maxMemsetSize)
}

// AppendBulkMemset emits the memory.fill fallback for a memset that
// TryMemsetFast declined, assuming the destination address is already on
// the operand stack.
func (b *Builder) AppendBulkMemset(value int32, count int32) error {
	return peephole.AppendBulkMemset(b.buf(), value, count)
}

// TryMemmoveFast attempts the inline peephole expansion of a small
// memmove; see internal/peephole.
func (b *Builder) TryMemmoveFast(destRef, srcRef any, destOffset, srcOffset int32, count int) (bool, error) {
	destIdx, err := b.resolveLocalRef(destRef)
	if err != nil {
		return false, err
	}
	srcIdx, err := b.resolveLocalRef(srcRef)
	if err != nil {
		return false, err
	}
	return peephole.TryMemmoveFast(b.buf(), destIdx, srcIdx, destOffset, srcOffset, count, b.maxMemsetSize)
}

// AppendBulkMemmove emits the memory.copy fallback for a memmove that
// TryMemmoveFast declined, assuming dest and src addresses are already on
// the operand stack.
func (b *Builder) AppendBulkMemmove(count int32) error {
	return peephole.AppendBulkMemmove(b.buf(), count)
}
