// Package fntable implements the Function Pointer Table Manager: installs
// host-callable functions into the indirect function table, growing it in
// fixed-size chunks rather than one slot at a time.
package fntable

import (
	"github.com/pkg/errors"

	"github.com/wasmbuild/wasmbuild/host"
	"github.com/wasmbuild/wasmbuild/internal/wasmerr"
)

// GrowChunk is the number of slots the table grows by whenever it runs out
// of free entries.
const GrowChunk = 512

// Manager hands out indirect-function-table slots for host-callable
// functions.
type Manager struct {
	host     host.Host
	tableLen int
	next     int
	free     int
}

// NewManager constructs a Manager over the given host's indirect function
// table.
func NewManager(h host.Host) *Manager {
	return &Manager{host: h}
}

// AddWasmFunctionPointer installs fn at the next free table slot, growing
// the table by GrowChunk slots first if none remain, and returns the
// installed index.
func (m *Manager) AddWasmFunctionPointer(fn any) (int, error) {
	if fn == nil {
		return 0, errors.Wrap(wasmerr.ErrNullFunction, "AddWasmFunctionPointer")
	}
	if m.free <= 0 {
		newLen, err := m.host.GrowTable(GrowChunk)
		if err != nil {
			return 0, err
		}
		m.next = m.tableLen
		m.tableLen = newLen
		m.free = GrowChunk
	}
	idx := m.next
	if err := m.host.InstallTableFunc(idx, fn); err != nil {
		return 0, err
	}
	m.next++
	m.free--
	return idx, nil
}

// Remaining returns the number of free slots before the table must grow
// again, for tests and diagnostics.
func (m *Manager) Remaining() int { return m.free }
