package wasmbuild

import (
	"github.com/pkg/errors"

	"github.com/wasmbuild/wasmbuild/internal/buffer"
	"github.com/wasmbuild/wasmbuild/internal/funcreg"
	"github.com/wasmbuild/wasmbuild/internal/wasmbin"
	"github.com/wasmbuild/wasmbuild/internal/wasmerr"
)

// EmitModule runs every defined function's generator exactly once,
// capturing its body blob, then composes sections 1 (type), 2 (import),
// 3 (function), 7 (export) and 10 (code) — in that fixed order — into the
// module's root buffer, appending section 11 (data) only if
// DefineDataSegment was ever called. It returns the complete module bytes.
//
// A generator error propagates by default, per the specification's
// resolution of its own open question on this point; construct the
// Builder with WithGeneratorErrorTolerance(true) to instead capture the
// partial body and continue. Either way the failing function's body blob
// is preserved for DumpFunction.
func (b *Builder) EmitModule() ([]byte, error) {
	for _, fn := range b.functions {
		if err := b.runGenerator(fn); err != nil {
			return nil, errors.Wrapf(err, "function %q", fn.Name)
		}
	}

	root := b.stack.Current()
	root.Clear()

	if err := b.emitSection(wasmbin.SectionIDType, b.types.GenerateTypeSection); err != nil {
		return nil, errors.Wrap(err, "section 1 (type)")
	}
	if err := b.emitSection(wasmbin.SectionIDImport, func(dst *buffer.ByteBuffer) error {
		return b.imports.GenerateImportSection(dst, len(b.constantSlots))
	}); err != nil {
		return nil, errors.Wrap(err, "section 2 (import)")
	}
	if err := b.emitSection(wasmbin.SectionIDFunction, b.generateFunctionSection); err != nil {
		return nil, errors.Wrap(err, "section 3 (function)")
	}
	if err := b.emitSection(wasmbin.SectionIDExport, b.generateExportSection); err != nil {
		return nil, errors.Wrap(err, "section 7 (export)")
	}
	if err := b.emitSection(wasmbin.SectionIDCode, b.generateCodeSection); err != nil {
		return nil, errors.Wrap(err, "section 10 (code)")
	}
	if b.dataOff > 0 {
		if err := b.emitSection(wasmbin.SectionIDData, b.generateDataSection); err != nil {
			return nil, errors.Wrap(err, "section 11 (data)")
		}
	}

	return append([]byte(nil), root.GetView(false)...), nil
}

// runGenerator writes a function's local prologue, runs its generator, and
// captures the resulting body blob regardless of outcome.
func (b *Builder) runGenerator(fn *FunctionRecord) error {
	b.cur = fn
	b.activeBlocks = 0
	b.stack.Push()

	if err := funcreg.WritePrologue(b.stack.Current(), fn.LocalsDecl); err != nil {
		b.stack.Pop(false)
		return err
	}

	genErr := fn.Generator(b)
	body, popErr := b.stack.Pop(false)
	if popErr != nil {
		return popErr
	}
	fn.BodyBlob = body

	if genErr != nil {
		fn.Err = genErr
		if err := b.RecordFailure(); err != nil {
			b.log.WithError(err).Warn("jiterpreter: failed to apply disable-on-failure options")
		}
		if !b.tolerateGeneratorErrors {
			return genErr
		}
		b.log.WithError(genErr).WithField("function", fn.Name).
			Warn("generator failed; partial body captured and compilation continues")
		return nil
	}

	if b.activeBlocks != 0 {
		fn.Err = wasmerr.ErrUnclosedBlocks
		return errors.Wrapf(wasmerr.ErrUnclosedBlocks, "function %q", fn.Name)
	}
	return nil
}

// emitSection writes id's byte into the current root buffer, then pushes a
// fresh scope, lets write populate it, and pops it back with a ULEB128
// length prefix spliced after the id byte already written — giving section
// framing "for free" from the buffer stack's splice semantics.
func (b *Builder) emitSection(id byte, write func(dst *buffer.ByteBuffer) error) error {
	root := b.stack.Current()
	if _, err := root.AppendU8(id); err != nil {
		return err
	}
	b.stack.Push()
	if err := write(b.stack.Current()); err != nil {
		return err
	}
	_, err := b.stack.Pop(true)
	return err
}

func (b *Builder) generateFunctionSection(dst *buffer.ByteBuffer) error {
	if _, err := dst.AppendULeb(uint64(len(b.functions))); err != nil {
		return err
	}
	for _, fn := range b.functions {
		if _, err := dst.AppendULeb(uint64(fn.TypeIndex)); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) generateExportSection(dst *buffer.ByteBuffer) error {
	count := 0
	for _, fn := range b.functions {
		if fn.Export {
			count++
		}
	}
	if _, err := dst.AppendULeb(uint64(count)); err != nil {
		return err
	}
	importedCount := b.imports.AssignedCount()
	for i, fn := range b.functions {
		if !fn.Export {
			continue
		}
		if _, err := dst.AppendName(fn.Name); err != nil {
			return err
		}
		if _, err := dst.AppendU8(wasmbin.ExternalKindFunc); err != nil {
			return err
		}
		if _, err := dst.AppendULeb(uint64(importedCount + i)); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) generateCodeSection(dst *buffer.ByteBuffer) error {
	if _, err := dst.AppendULeb(uint64(len(b.functions))); err != nil {
		return err
	}
	for _, fn := range b.functions {
		if _, err := dst.AppendULeb(uint64(len(fn.BodyBlob))); err != nil {
			return err
		}
		if _, err := dst.AppendBytes(fn.BodyBlob); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) generateDataSection(dst *buffer.ByteBuffer) error {
	if _, err := dst.AppendULeb(1); err != nil { // exactly one active segment
		return err
	}
	if _, err := dst.AppendU8(0x00); err != nil { // memory index 0, active
		return err
	}
	if _, err := dst.AppendU8(wasmbin.OpI32Const); err != nil {
		return err
	}
	if _, err := dst.AppendLeb(int64(b.dataBase)); err != nil {
		return err
	}
	if _, err := dst.AppendU8(wasmbin.OpEnd); err != nil {
		return err
	}
	if _, err := dst.AppendULeb(uint64(len(b.dataSegs))); err != nil {
		return err
	}
	_, err := dst.AppendBytes(b.dataSegs)
	return err
}
