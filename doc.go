// Package wasmbuild implements a streaming WebAssembly module builder: a
// binary-format assembler, a scoped nested-buffer stack, and a
// symbol/resolution layer for locals, function types, imports, functions,
// exports and pointer-valued constant globals, driven by a sequence of
// high-level emission calls from a caller that has already chosen which
// opcodes to emit.
//
// A Builder is constructed once over a host.Host and reused across many
// compilation cycles via Clear. Each cycle looks like:
//
//	b := wasmbuild.New(h)
//	ti, _ := b.DefineType("add", []wasmbin.ValType{wasmbin.ValTypeI32, wasmbin.ValTypeI32}, i32Result, false)
//	params := []funcreg.Decl{{Type: wasmbin.ValTypeI32}, {Type: wasmbin.ValTypeI32}}
//	b.DefineFunction("add", "add", true, params, nil, func(b *wasmbuild.Builder) error {
//		if err := b.Arg(0); err != nil {
//			return err
//		}
//		if err := b.Arg(1); err != nil {
//			return err
//		}
//		return b.Op(wasmbin.OpI32Add)
//	})
//	module, err := b.EmitModule()
package wasmbuild
