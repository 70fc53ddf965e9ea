package wasmbuild

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/wasmbuild/wasmbuild/internal/wasmbin"
)

// DefineDataSegment bump-allocates room for bytes in the module's single
// data segment and returns the absolute linear-memory offset (the
// builder's data base, see WithDataBase, plus the bytes allocated before
// this call) the bytes will be loaded at once the module is instantiated. Calling this at least once causes EmitModule to append
// section 11 (data); a module with no data segments omits it entirely, so
// the empty-module scenario is unaffected.
func (b *Builder) DefineDataSegment(data []byte) int32 {
	offset := b.dataBase + b.dataOff
	b.dataSegs = append(b.dataSegs, data...)
	b.dataOff += int32(len(data))
	return offset
}

// opcodeNames covers the opcodes this module can itself emit; DumpFunction
// falls back to a raw hex byte for anything else; it makes no attempt to
// be a general disassembler.
var opcodeNames = map[byte]string{
	wasmbin.OpBlock:       "block",
	wasmbin.OpLoop:        "loop",
	wasmbin.OpIf:          "if",
	wasmbin.OpElse:        "else",
	wasmbin.OpEnd:         "end",
	wasmbin.OpBr:          "br",
	wasmbin.OpBrIf:        "br_if",
	wasmbin.OpBrTable:     "br_table",
	wasmbin.OpReturn:      "return",
	wasmbin.OpCall:        "call",
	wasmbin.OpLocalGet:    "local.get",
	wasmbin.OpLocalSet:    "local.set",
	wasmbin.OpLocalTee:    "local.tee",
	wasmbin.OpGlobalGet:   "global.get",
	wasmbin.OpGlobalSet:   "global.set",
	wasmbin.OpI32Load:     "i32.load",
	wasmbin.OpI64Load:     "i64.load",
	wasmbin.OpI32Load8U:   "i32.load8_u",
	wasmbin.OpI32Load16U:  "i32.load16_u",
	wasmbin.OpI32Store:    "i32.store",
	wasmbin.OpI64Store:    "i64.store",
	wasmbin.OpI32Store8:   "i32.store8",
	wasmbin.OpI32Store16:  "i32.store16",
	wasmbin.OpI32Const:    "i32.const",
	wasmbin.OpI64Const:    "i64.const",
	wasmbin.OpF32Const:    "f32.const",
	wasmbin.OpF64Const:    "f64.const",
	wasmbin.OpI32Add:      "i32.add",
	wasmbin.OpMisc:        "misc",
}

// DumpFunction returns a forensic single-line, byte-by-byte rendering of a
// defined function's captured body blob (which may be partial, if its
// generator failed and the builder tolerates generator errors). It exists
// for the failure path the specification describes: "captured... for
// forensic dumping".
func (b *Builder) DumpFunction(name string) (string, error) {
	fn, ok := b.funcByName[name]
	if !ok {
		return "", errors.Errorf("wasmbuild: unknown function %q", name)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s:", name)
	if fn.Err != nil {
		fmt.Fprintf(&sb, " (failed: %v)", fn.Err)
	}
	for _, op := range fn.BodyBlob {
		if mnemonic, ok := opcodeNames[op]; ok {
			fmt.Fprintf(&sb, " %s", mnemonic)
		} else {
			fmt.Fprintf(&sb, " 0x%02x", op)
		}
	}
	return sb.String(), nil
}
