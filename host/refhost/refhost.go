// Package refhost is a dependency-free reference implementation of
// host.Host, backed by internal/leb128 and in-process maps standing in for
// the host's option store and function table. It lets the builder and its
// registries be exercised and tested without an embedding runtime; a real
// deployment (the builder running inside a Wasm module that calls back out
// to a JavaScript host) supplies its own host.Host instead.
package refhost

import (
	"encoding/json"
	"sort"

	"github.com/pkg/errors"

	"github.com/wasmbuild/wasmbuild/internal/leb128"
)

// Host is the reference host.Host implementation.
type Host struct {
	memberOffsets map[string]int32
	options       map[string]string
	optionsVer    int

	tableLen  int
	tableFree int
	table     map[int]any
}

// New constructs a reference Host. memberOffsets seeds the struct-offset
// table consulted by MemberOffset; pass nil to start empty.
func New(memberOffsets map[string]int32) *Host {
	if memberOffsets == nil {
		memberOffsets = map[string]int32{}
	}
	return &Host{
		memberOffsets: memberOffsets,
		options:       map[string]string{},
		table:         map[int]any{},
	}
}

func (h *Host) EncodeULEB(dest []byte, value uint64) (int, error) {
	enc := leb128.EncodeUint64(value)
	return writeBounded(dest, enc)
}

func (h *Host) EncodeSLEB(dest []byte, value int64) (int, error) {
	enc := leb128.EncodeInt64(value)
	return writeBounded(dest, enc)
}

func (h *Host) EncodeSLEBBoundary(dest []byte, bits int, negative bool) (int, error) {
	var value int64
	if negative {
		value = -(int64(1) << uint(bits-1))
	} else {
		value = int64(1) << uint(bits-1)
	}
	return h.EncodeSLEB(dest, value)
}

func (h *Host) EncodeULEBFromMemory(dest []byte, src []byte, signed bool) (int, error) {
	var v int64
	for i := len(src) - 1; i >= 0; i-- {
		v = v<<8 | int64(src[i])
	}
	if signed {
		return h.EncodeSLEB(dest, v)
	}
	return h.EncodeULEB(dest, uint64(v))
}

func writeBounded(dest []byte, enc []byte) (int, error) {
	if len(enc) > 8 {
		return 0, errors.Errorf("refhost: encoded value needs %d bytes, more than the 8-byte limit", len(enc))
	}
	if len(dest) < len(enc) {
		return 0, errors.New("refhost: destination buffer too small")
	}
	copy(dest, enc)
	return len(enc), nil
}

func (h *Host) MemberOffset(member string) (int32, error) {
	off, ok := h.memberOffsets[member]
	if !ok {
		return 0, errors.Errorf("refhost: unknown member %q", member)
	}
	return off, nil
}

func (h *Host) ParseOption(arg string) error {
	// Mirrors "--name", "--no-name" and "--name=value" forms.
	if len(arg) < 2 || arg[0] != '-' || arg[1] != '-' {
		return errors.Errorf("refhost: malformed option argument %q", arg)
	}
	body := arg[2:]
	if idx := indexByte(body, '='); idx >= 0 {
		h.options[body[:idx]] = body[idx+1:]
	} else if len(body) > 3 && body[:3] == "no-" {
		h.options[body[3:]] = "false"
	} else {
		h.options[body] = "true"
	}
	h.optionsVer++
	return nil
}

func indexByte(s string, c byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == c {
			return i
		}
	}
	return -1
}

func (h *Host) OptionsVersion() int { return h.optionsVer }

func (h *Host) OptionsJSON() ([]byte, error) {
	keys := make([]string, 0, len(h.options))
	for k := range h.options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	ordered := make(map[string]string, len(h.options))
	for _, k := range keys {
		ordered[k] = h.options[k]
	}
	return json.Marshal(ordered)
}

const tableGrowChunk = 512

func (h *Host) GrowTable(additional int) (int, error) {
	if additional <= 0 {
		additional = tableGrowChunk
	}
	h.tableLen += additional
	return h.tableLen, nil
}

func (h *Host) InstallTableFunc(index int, fn any) error {
	if fn == nil {
		return errors.New("refhost: cannot install a nil function")
	}
	if index < 0 || index >= h.tableLen {
		return errors.Errorf("refhost: index %d out of table bounds [0,%d)", index, h.tableLen)
	}
	h.table[index] = fn
	return nil
}

// TableFunc returns what was installed at index, for tests.
func (h *Host) TableFunc(index int) any { return h.table[index] }

// TableLen returns the current table length, for tests.
func (h *Host) TableLen() int { return h.tableLen }
