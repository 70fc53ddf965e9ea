// Package imports implements the Import Registry: tracks imported
// functions by name with lazy index assignment, and emits Section 2
// (imports), which also carries the constant-slot globals and the single
// fixed memory import described by the specification.
package imports

import (
	"strconv"

	"github.com/pkg/errors"

	"github.com/wasmbuild/wasmbuild/internal/buffer"
	"github.com/wasmbuild/wasmbuild/internal/wasmbin"
	"github.com/wasmbuild/wasmbuild/internal/wasmerr"
)

// Function is an imported function declaration. AssignedIndex is -1 until
// the import is either declared with assumeUsed or first referenced by
// Registry.Call.
type Function struct {
	Module        string
	Name          string
	FriendlyName  string
	TypeName      string
	TypeIndex     int
	AssignedIndex int
}

// Registry tracks imported functions and assigns them dense indices in
// definition-then-first-use order.
type Registry struct {
	byName map[string]*Function
	order  []*Function // definition order; Assigned walks it to collect assigned imports
	nextIdx int
}

// NewRegistry constructs an empty import Registry.
func NewRegistry() *Registry {
	return &Registry{byName: map[string]*Function{}}
}

// Clear drops all imports, ready for the next compilation.
func (r *Registry) Clear() {
	r.byName = map[string]*Function{}
	r.order = nil
	r.nextIdx = 0
}

// DefineImportedFunction declares an import. If assumeUsed is true its
// index is assigned immediately; otherwise it stays unassigned until the
// first Call.
func (r *Registry) DefineImportedFunction(module, name, typeName string, typeIndex int, assumeUsed bool, friendlyName string) (*Function, error) {
	if friendlyName == "" {
		friendlyName = name
	}
	if _, exists := r.byName[friendlyName]; exists {
		return nil, errors.Wrapf(wasmerr.ErrDuplicateName, "import %q", friendlyName)
	}
	fn := &Function{
		Module: module, Name: name, FriendlyName: friendlyName,
		TypeName: typeName, TypeIndex: typeIndex, AssignedIndex: -1,
	}
	r.byName[friendlyName] = fn
	r.order = append(r.order, fn)
	if assumeUsed {
		r.assign(fn)
	}
	return fn, nil
}

func (r *Registry) assign(fn *Function) {
	if fn.AssignedIndex >= 0 {
		return
	}
	fn.AssignedIndex = r.nextIdx
	r.nextIdx++
}

// Call resolves name to its assigned import index, assigning one on first
// use if necessary.
func (r *Registry) Call(name string) (int, error) {
	fn, ok := r.byName[name]
	if !ok {
		return 0, errors.Wrapf(wasmerr.ErrUnknownImport, "%q", name)
	}
	r.assign(fn)
	return fn.AssignedIndex, nil
}

// AssignedCount returns the number of imports that have been assigned an
// index so far.
func (r *Registry) AssignedCount() int { return r.nextIdx }

// Assigned returns the assigned imports in ascending index order.
func (r *Registry) Assigned() []*Function {
	out := make([]*Function, r.nextIdx)
	for _, fn := range r.order {
		if fn.AssignedIndex >= 0 {
			out[fn.AssignedIndex] = fn
		}
	}
	return out
}

// ConstantSlotBase36 returns the field name used for the constant-global
// import at the given slot index: base-36 digits, matching the host's
// exported global naming scheme.
func ConstantSlotBase36(index int) string {
	return strconv.FormatInt(int64(index), 36)
}

// GenerateImportSection writes Section 2's payload: assigned function
// imports in ascending index order, then one immutable i32 global import
// per constant slot, then the single fixed memory import. This order is
// load-bearing: the host's wiring of globals to pointer constants depends
// on it.
func (r *Registry) GenerateImportSection(dst *buffer.ByteBuffer, constantSlotCount int) error {
	total := 1 + r.AssignedCount() + constantSlotCount
	if _, err := dst.AppendULeb(uint64(total)); err != nil {
		return err
	}
	for _, fn := range r.Assigned() {
		if _, err := dst.AppendName(fn.Module); err != nil {
			return err
		}
		if _, err := dst.AppendName(fn.Name); err != nil {
			return err
		}
		if _, err := dst.AppendU8(wasmbin.ExternalKindFunc); err != nil {
			return err
		}
		if _, err := dst.AppendULeb(uint64(fn.TypeIndex)); err != nil {
			return err
		}
	}
	for i := 0; i < constantSlotCount; i++ {
		if _, err := dst.AppendName("c"); err != nil {
			return err
		}
		if _, err := dst.AppendName(ConstantSlotBase36(i)); err != nil {
			return err
		}
		if _, err := dst.AppendU8(wasmbin.ExternalKindGlobal); err != nil {
			return err
		}
		if _, err := dst.AppendU8(wasmbin.ValTypeI32); err != nil {
			return err
		}
		if _, err := dst.AppendU8(0x00); err != nil { // immutable
			return err
		}
	}
	if _, err := dst.AppendName("m"); err != nil {
		return err
	}
	if _, err := dst.AppendName("h"); err != nil {
		return err
	}
	if _, err := dst.AppendU8(wasmbin.ExternalKindMemory); err != nil {
		return err
	}
	if _, err := dst.AppendU8(0x00); err != nil { // flags: min only
		return err
	}
	if _, err := dst.AppendULeb(1); err != nil { // 1 page minimum
		return err
	}
	return nil
}
