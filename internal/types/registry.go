// Package types implements the Type Registry: structural interning of
// WebAssembly function types, with support for "permanent" types that
// survive Registry.Clear and carry stable low indices across compilations.
package types

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/wasmbuild/wasmbuild/internal/buffer"
	"github.com/wasmbuild/wasmbuild/internal/wasmbin"
	"github.com/wasmbuild/wasmbuild/internal/wasmerr"
)

// FuncType is a structural function signature with an assigned module-wide
// index and a human name for diagnostics.
type FuncType struct {
	Name       string
	Params     []wasmbin.ValType
	HasResult  bool
	Result     wasmbin.ValType
	Index      int
	Permanent  bool
}

// Registry interns FuncTypes by shape: two DefineType calls describing the
// same parameter/result shape return the same index, whether or not their
// human names match.
type Registry struct {
	permanent       []FuncType
	permanentShapes map[string]int

	compiled       []FuncType
	compiledShapes map[string]int

	names               map[string]int // human name -> interned index
	nonPermanentDefined bool
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		permanentShapes: map[string]int{},
		compiledShapes:  map[string]int{},
		names:           map[string]int{},
	}
}

// Clear drops all per-compilation types, keeping permanent types (and their
// indices) intact, as the specification requires.
func (r *Registry) Clear() {
	r.compiled = nil
	r.compiledShapes = map[string]int{}
	r.nonPermanentDefined = false
	for name := range r.names {
		if !r.isPermanentName(name) {
			delete(r.names, name)
		}
	}
}

func (r *Registry) isPermanentName(name string) bool {
	for _, t := range r.permanent {
		if t.Name == name {
			return true
		}
	}
	return false
}

// shapeKey encodes a signature uniquely by length-prefixing the parameter
// list rather than joining it with a separator byte: every valtype constant
// (including ValTypeF64, 0x7c) is a legal separator candidate, so a bare
// delimiter would let e.g. params=[f64],result=void collide with
// params=[],result=f64.
func shapeKey(params []wasmbin.ValType, hasResult bool, result wasmbin.ValType) string {
	var sb strings.Builder
	sb.WriteByte(byte(len(params)))
	for _, p := range params {
		sb.WriteByte(p)
	}
	if hasResult {
		sb.WriteByte(1)
		sb.WriteByte(result)
	} else {
		sb.WriteByte(0)
	}
	return sb.String()
}

// DefineType interns a function type by its structural shape and returns
// its module-wide index. permanent types may only be defined before any
// non-permanent type exists in the current compilation, and every human
// name (permanent or not) must be unique.
func (r *Registry) DefineType(name string, params []wasmbin.ValType, result *wasmbin.ValType, permanent bool) (int, error) {
	if _, dup := r.names[name]; dup {
		return 0, errors.Wrapf(wasmerr.ErrDuplicateName, "function type %q", name)
	}
	hasResult := result != nil
	var resultVal wasmbin.ValType
	if hasResult {
		resultVal = *result
	}
	key := shapeKey(params, hasResult, resultVal)

	if permanent {
		if r.nonPermanentDefined {
			return 0, errors.Wrapf(wasmerr.ErrInvalidPermanentOrdering, "permanent type %q", name)
		}
		if idx, ok := r.permanentShapes[key]; ok {
			r.names[name] = idx
			return idx, nil
		}
		idx := len(r.permanent)
		r.permanent = append(r.permanent, FuncType{Name: name, Params: params, HasResult: hasResult, Result: resultVal, Index: idx, Permanent: true})
		r.permanentShapes[key] = idx
		r.names[name] = idx
		return idx, nil
	}

	r.nonPermanentDefined = true
	// Per-compilation lookup first, then fall back to permanent, matching
	// the two-map consultation order called for in place of the source's
	// prototype-chain object.
	if idx, ok := r.compiledShapes[key]; ok {
		r.names[name] = idx
		return idx, nil
	}
	if idx, ok := r.permanentShapes[key]; ok {
		r.names[name] = idx
		return idx, nil
	}
	idx := len(r.permanent) + len(r.compiled)
	r.compiled = append(r.compiled, FuncType{Name: name, Params: params, HasResult: hasResult, Result: resultVal, Index: idx})
	r.compiledShapes[key] = idx
	r.names[name] = idx
	return idx, nil
}

// Count returns the total number of interned types, permanent plus
// per-compilation.
func (r *Registry) Count() int { return len(r.permanent) + len(r.compiled) }

// ByName resolves a previously defined type by its human name. A name that
// was interned onto an existing shape resolves to that shape's FuncType.
func (r *Registry) ByName(name string) (FuncType, error) {
	if idx, ok := r.names[name]; ok {
		if idx < len(r.permanent) {
			return r.permanent[idx], nil
		}
		return r.compiled[idx-len(r.permanent)], nil
	}
	return FuncType{}, errors.Wrapf(wasmerr.ErrUnknownType, "%q", name)
}

// GenerateTypeSection writes Section 1's payload (not including the
// section id or its own length prefix) into dst.
func (r *Registry) GenerateTypeSection(dst *buffer.ByteBuffer) error {
	if _, err := dst.AppendULeb(uint64(r.Count())); err != nil {
		return err
	}
	write := func(t FuncType) error {
		if _, err := dst.AppendU8(wasmbin.FuncTypeForm); err != nil {
			return err
		}
		if _, err := dst.AppendULeb(uint64(len(t.Params))); err != nil {
			return err
		}
		for _, p := range t.Params {
			if _, err := dst.AppendU8(p); err != nil {
				return err
			}
		}
		if t.HasResult {
			if _, err := dst.AppendULeb(1); err != nil {
				return err
			}
			if _, err := dst.AppendU8(t.Result); err != nil {
				return err
			}
		} else if _, err := dst.AppendULeb(0); err != nil {
			return err
		}
		return nil
	}
	for _, t := range r.permanent {
		if err := write(t); err != nil {
			return err
		}
	}
	for _, t := range r.compiled {
		if err := write(t); err != nil {
			return err
		}
	}
	return nil
}
