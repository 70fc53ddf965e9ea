package wasmbuild

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/wasmbuild/wasmbuild/host"
	"github.com/wasmbuild/wasmbuild/internal/buffer"
	"github.com/wasmbuild/wasmbuild/internal/fntable"
	"github.com/wasmbuild/wasmbuild/internal/funcreg"
	"github.com/wasmbuild/wasmbuild/internal/imports"
	iopts "github.com/wasmbuild/wasmbuild/internal/options"
	"github.com/wasmbuild/wasmbuild/internal/peephole"
	"github.com/wasmbuild/wasmbuild/internal/types"
	"github.com/wasmbuild/wasmbuild/internal/wasmbin"
	"github.com/wasmbuild/wasmbuild/internal/wasmerr"
)

// Generator streams a function's body into b. It is run exactly once per
// compilation cycle, from EmitModule.
type Generator func(b *Builder) error

// FunctionRecord is a defined function awaiting (or having completed) body
// generation.
type FunctionRecord struct {
	Name       string
	TypeName   string
	TypeIndex  int
	Export     bool
	Locals     *funcreg.LocalMap
	LocalsDecl []funcreg.Decl
	Generator  Generator
	BodyBlob   []byte
	Err        error
}

type constantSlot struct {
	value    int64
	assigned bool
}

// Builder orchestrates the type, import and function registries, the
// buffer stack, the peephole helpers and the options layer into the
// streaming module builder described by the specification this module
// implements: register types and imports, define functions with a
// generator each, then call EmitModule to get the final bytes.
//
// A Builder is constructed once and reused across many compilation cycles
// via Clear.
type Builder struct {
	host      host.Host
	log       *logrus.Entry
	compileID uuid.UUID

	types   *types.Registry
	imports *imports.Registry
	table   *fntable.Manager
	opts    *iopts.Layer

	stack *buffer.Stack

	functions  []*FunctionRecord
	funcByName map[string]*FunctionRecord

	constantSlotCount int
	constantSlots     []constantSlot
	useConstants      bool

	base     int64
	dataBase int32
	dataSegs []byte
	dataOff  int32

	maxMemsetSize int
	maxFailures   int
	failureCount  int

	tolerateGeneratorErrors bool

	cur          *FunctionRecord
	activeBlocks int
}

// Option configures a Builder at construction time.
type Option func(*Builder)

// WithLogger overrides the default logrus.StandardLogger() entry.
func WithLogger(log *logrus.Entry) Option {
	return func(b *Builder) { b.log = log }
}

// WithConstantSlots sets the fixed capacity of the constant slot table; see
// PtrConst. Zero (the default) disables the constant-slot mechanism
// entirely, regardless of the useConstants option.
func WithConstantSlots(n int) Option {
	return func(b *Builder) { b.constantSlotCount = n }
}

// WithBase sets the trace base address IPConst rebases against.
func WithBase(addr int64) Option {
	return func(b *Builder) { b.base = addr }
}

// WithDataBase sets the base offset DefineDataSegment allocates from.
func WithDataBase(offset int32) Option {
	return func(b *Builder) { b.dataBase = offset }
}

// WithMaxMemsetSize overrides the peephole ceiling at or above which
// TryMemsetFast/TryMemmoveFast decline in favor of the bulk fallback.
func WithMaxMemsetSize(n int) Option {
	return func(b *Builder) { b.maxMemsetSize = n }
}

// WithGeneratorErrorTolerance opts into capturing a failing generator's
// partial body and continuing, rather than propagating the error. The
// specification this module implements keeps this disabled by default: see
// the Design Notes' open question on generator error handling.
func WithGeneratorErrorTolerance(tolerate bool) Option {
	return func(b *Builder) { b.tolerateGeneratorErrors = tolerate }
}

// New constructs a Builder over host h.
func New(h host.Host, opts ...Option) *Builder {
	log := logrus.NewEntry(logrus.StandardLogger())
	b := &Builder{
		host:          h,
		log:           log,
		compileID:     uuid.New(),
		types:         types.NewRegistry(),
		imports:       imports.NewRegistry(),
		table:         fntable.NewManager(h),
		stack:         buffer.NewStack(h),
		funcByName:    map[string]*FunctionRecord{},
		maxMemsetSize: peephole.DefaultMaxMemsetSize,
		maxFailures:   2,
	}
	b.opts = iopts.New(h, log)
	for _, opt := range opts {
		opt(b)
	}
	b.log = b.log.WithField("compileID", b.compileID)
	return b
}

// Clear drops all per-compilation state (non-permanent types, imports,
// defined functions) ahead of the next cycle. The constant slot table, the
// permanent type table, the function pointer table manager and the
// failure counter are builder-wide state and survive Clear, per the
// specification's resource model.
func (b *Builder) Clear() {
	b.types.Clear()
	b.imports.Clear()
	b.functions = nil
	b.funcByName = map[string]*FunctionRecord{}
	b.cur = nil
	b.activeBlocks = 0
	b.compileID = uuid.New()
	b.log = b.log.WithField("compileID", b.compileID)
}

// DefineType interns a function type; see internal/types.Registry.DefineType.
func (b *Builder) DefineType(name string, params []wasmbin.ValType, result *wasmbin.ValType, permanent bool) (int, error) {
	return b.types.DefineType(name, params, result, permanent)
}

// DefineImportedFunction declares an import whose signature is the
// already-defined type typeName.
func (b *Builder) DefineImportedFunction(module, name, typeName string, assumeUsed bool, friendlyName string) (*imports.Function, error) {
	ft, err := b.types.ByName(typeName)
	if err != nil {
		return nil, err
	}
	return b.imports.DefineImportedFunction(module, name, typeName, ft.Index, assumeUsed, friendlyName)
}

// CallImport emits a call to a previously defined import, assigning it an
// index on first use if necessary.
func (b *Builder) CallImport(name string) error {
	idx, err := b.imports.Call(name)
	if err != nil {
		return err
	}
	if err := b.op(wasmbin.OpCall); err != nil {
		return err
	}
	_, err = b.buf().AppendULeb(uint64(idx))
	return err
}

// DefineFunction registers a function for later body generation.
// typeName must already be defined; params names the parameters in
// declaration order (their count and types must match the type's shape)
// and locals the additional locals, grouped by valtype when the prologue
// is written. gen streams the function's body when EmitModule runs it.
func (b *Builder) DefineFunction(name, typeName string, export bool, params, locals []funcreg.Decl, gen Generator) (*FunctionRecord, error) {
	if _, exists := b.funcByName[name]; exists {
		return nil, errors.Wrapf(wasmerr.ErrDuplicateName, "function %q", name)
	}
	ft, err := b.types.ByName(typeName)
	if err != nil {
		return nil, err
	}
	if len(params) != len(ft.Params) {
		return nil, errors.Errorf("function %q: %d params declared but type %q has %d", name, len(params), typeName, len(ft.Params))
	}
	for i, p := range params {
		if p.Type != ft.Params[i] {
			return nil, errors.Errorf("function %q: param %d type %s does not match type %q's %s",
				name, i, wasmbin.ValTypeName(p.Type), typeName, wasmbin.ValTypeName(ft.Params[i]))
		}
	}

	allLocals := make([]funcreg.Decl, 0, len(locals))
	allLocals = append(allLocals, locals...)

	fn := &FunctionRecord{
		Name:       name,
		TypeName:   typeName,
		TypeIndex:  ft.Index,
		Export:     export,
		Locals:     funcreg.Build(params, allLocals),
		LocalsDecl: allLocals,
		Generator:  gen,
	}
	b.functions = append(b.functions, fn)
	b.funcByName[name] = fn
	return fn, nil
}

// buf returns the buffer currently receiving appends: a function body while
// a generator is running, or the module root buffer otherwise.
func (b *Builder) buf() *buffer.ByteBuffer { return b.stack.Current() }

func (b *Builder) op(code byte) error {
	_, err := b.buf().AppendU8(code)
	return err
}

// Arg emits a local access to parameter ref, which may be its declared name
// (string) or its zero-based parameter index (int). opcode defaults to
// local.get; pass local.set or local.tee explicitly to override.
func (b *Builder) Arg(ref any, opcode ...byte) error {
	idx, err := b.resolveArg(ref)
	if err != nil {
		return err
	}
	return b.emitLocalOp(idx, pickOpcode(opcode, wasmbin.OpLocalGet))
}

// Local emits a local access to local ref, which may be its declared name
// (string) or its zero-based *local* index (int, not counting parameters).
// opcode defaults to local.get.
func (b *Builder) Local(ref any, opcode ...byte) error {
	idx, err := b.resolveLocal(ref)
	if err != nil {
		return err
	}
	return b.emitLocalOp(idx, pickOpcode(opcode, wasmbin.OpLocalGet))
}

func (b *Builder) resolveArg(ref any) (int, error) {
	if b.cur == nil {
		return 0, errors.New("wasmbuild: Arg called outside function generation")
	}
	switch v := ref.(type) {
	case string:
		_, idx, err := b.cur.Locals.Resolve(v)
		return idx, err
	case int:
		if v < 0 || v >= b.cur.Locals.ParamCount() {
			return 0, errors.Wrapf(wasmerr.ErrUnknownLocal, "parameter index %d", v)
		}
		return v, nil
	default:
		return 0, errors.Errorf("wasmbuild: unsupported arg reference type %T", ref)
	}
}

func (b *Builder) resolveLocal(ref any) (int, error) {
	if b.cur == nil {
		return 0, errors.New("wasmbuild: Local called outside function generation")
	}
	switch v := ref.(type) {
	case string:
		_, idx, err := b.cur.Locals.Resolve(v)
		return idx, err
	case int:
		return b.cur.Locals.ResolveLocalIndex(v), nil
	default:
		return 0, errors.Errorf("wasmbuild: unsupported local reference type %T", ref)
	}
}

func (b *Builder) emitLocalOp(idx int, opcode byte) error {
	if err := b.op(opcode); err != nil {
		return err
	}
	_, err := b.buf().AppendULeb(uint64(idx))
	return err
}

func pickOpcode(opcode []byte, def byte) byte {
	if len(opcode) > 0 {
		return opcode[0]
	}
	return def
}

// resolveLocalRef is the peephole-facing counterpart of resolveArg/
// resolveLocal: it accepts a name or an already-absolute local index, for
// callers (TryMemsetFast, TryMemmoveFast) that need one numeric slot rather
// than emitting an access themselves.
func (b *Builder) resolveLocalRef(ref any) (int, error) {
	if b.cur == nil {
		return 0, errors.New("wasmbuild: local reference resolved outside function generation")
	}
	switch v := ref.(type) {
	case string:
		_, idx, err := b.cur.Locals.Resolve(v)
		return idx, err
	case int:
		return v, nil
	default:
		return 0, errors.Errorf("wasmbuild: unsupported local reference type %T", ref)
	}
}
