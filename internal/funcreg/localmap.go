// Package funcreg implements the per-function slice of the Function/Local
// Registry: the parameter+local name -> (valtype, index) map computed at
// the start of each function, following the WebAssembly convention that
// parameters come first in declaration order and locals are grouped by
// value type (i32, i64, f32, f64) with declaration order preserved within
// each group.
package funcreg

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/wasmbuild/wasmbuild/internal/buffer"
	"github.com/wasmbuild/wasmbuild/internal/wasmbin"
	"github.com/wasmbuild/wasmbuild/internal/wasmerr"
)

// Decl names one parameter or local and its value type.
type Decl struct {
	Name string
	Type wasmbin.ValType
}

// entry is where a single name resolved to.
type entry struct {
	typ   wasmbin.ValType
	index int
}

// LocalMap resolves parameter and local names (or numeric indices) to
// their assigned local slot within one function.
type LocalMap struct {
	byName     map[string]entry
	paramCount int
}

// groupOrder is the canonical valtype grouping order locals are laid out
// in, after all parameters.
var groupOrder = []wasmbin.ValType{wasmbin.ValTypeI32, wasmbin.ValTypeI64, wasmbin.ValTypeF32, wasmbin.ValTypeF64}

// Build computes the local map for a function with the given parameters
// (in declaration order) and locals (grouped by valtype, declaration order
// preserved within each group).
func Build(params []Decl, locals []Decl) *LocalMap {
	m := &LocalMap{byName: map[string]entry{}, paramCount: len(params)}
	for i, p := range params {
		if p.Name != "" {
			m.byName[p.Name] = entry{typ: p.Type, index: i}
		}
	}

	byGroup := map[wasmbin.ValType][]Decl{}
	for _, l := range locals {
		byGroup[l.Type] = append(byGroup[l.Type], l)
	}
	idx := len(params)
	for _, vt := range groupOrder {
		group := byGroup[vt]
		// Stable by construction: byGroup preserves the order locals were
		// appended in, which is declaration order.
		for _, l := range group {
			if l.Name != "" {
				m.byName[l.Name] = entry{typ: vt, index: idx}
			}
			idx++
		}
	}
	return m
}

// ParamCount returns the number of parameters this map was built with.
func (m *LocalMap) ParamCount() int { return m.paramCount }

// Resolve looks up a local or parameter by name.
func (m *LocalMap) Resolve(name string) (wasmbin.ValType, int, error) {
	e, ok := m.byName[name]
	if !ok {
		return 0, 0, errors.Wrapf(wasmerr.ErrUnknownLocal, "%q", name)
	}
	return e.typ, e.index, nil
}

// ResolveLocalIndex maps a zero-based *local* index (not counting
// parameters) to the absolute local index, per spec.md's convention that
// numeric `local` references add the parameter count.
func (m *LocalMap) ResolveLocalIndex(localIndex int) int {
	return m.paramCount + localIndex
}

// GroupCount summarizes the prologue layout: for each valtype present (in
// canonical group order), how many locals of that type exist. Used both to
// write the function body's local declarations and by tests asserting the
// prologue shape.
type GroupCount struct {
	Type  wasmbin.ValType
	Count int
}

// Prologue computes the function-body local declaration prologue described
// in spec.md 4.E: a count of distinct groups, then per group a (count,
// valtype) pair, in canonical order.
func Prologue(locals []Decl) []GroupCount {
	counts := map[wasmbin.ValType]int{}
	for _, l := range locals {
		counts[l.Type]++
	}
	var out []GroupCount
	for _, vt := range groupOrder {
		if c := counts[vt]; c > 0 {
			out = append(out, GroupCount{Type: vt, Count: c})
		}
	}
	return out
}

// WritePrologue appends the prologue bytes to dst: ULEB(groupCount)
// followed by ULEB(count), valtype for each present group.
func WritePrologue(dst *buffer.ByteBuffer, locals []Decl) error {
	groups := Prologue(locals)
	if _, err := dst.AppendULeb(uint64(len(groups))); err != nil {
		return err
	}
	for _, g := range groups {
		if _, err := dst.AppendULeb(uint64(g.Count)); err != nil {
			return err
		}
		if _, err := dst.AppendU8(g.Type); err != nil {
			return err
		}
	}
	return nil
}

// sortedNames is a small helper used only by diagnostics/dump code to list
// a map's keys deterministically.
func sortedNames(m map[string]entry) []string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Names returns the declared local/parameter names in a deterministic
// order, for forensic dumps.
func (m *LocalMap) Names() []string { return sortedNames(m.byName) }
