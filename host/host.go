// Package host declares the interface this module uses to reach the
// embedding runtime: the LEB128 encoder, the struct-offset and option
// tables, and the indirect function table. The specification this module
// implements treats all of these as opaque calls into a host environment
// (cwrap bindings into a JavaScript engine, in the system this was modeled
// on); representing them as a Go interface lets the builder, registries and
// tests run standalone against host/refhost, while a production embedding
// plugs in its own implementation that actually crosses into the host.
package host

// Host is the set of external services the builder and its registries
// depend on. Every method mirrors one of the cwrap entry points named in
// the specification this module implements.
type Host interface {
	// EncodeULEB writes the ULEB128 encoding of value into dest and returns
	// the number of bytes written. Implementations write at most 8 bytes
	// and return an error if dest is too small.
	EncodeULEB(dest []byte, value uint64) (n int, err error)

	// EncodeSLEB writes the SLEB128 encoding of value into dest.
	EncodeSLEB(dest []byte, value int64) (n int, err error)

	// EncodeSLEBBoundary writes the SLEB128 encoding of the sentinel value
	// ±2^(bits-1), used by overflow-test code generation.
	EncodeSLEBBoundary(dest []byte, bits int, negative bool) (n int, err error)

	// EncodeULEBFromMemory encodes the integer stored at src (interpreted
	// as signed or unsigned per the signed flag) without the caller having
	// to widen it through a float first. Used for 64-bit values sourced
	// from host heap addresses.
	EncodeULEBFromMemory(dest []byte, src []byte, signed bool) (n int, err error)

	// MemberOffset returns the byte offset of a named struct member within
	// the host's interpreter data structures.
	MemberOffset(member string) (int32, error)

	// ParseOption applies a single "--name" / "--no-name" / "--name=value"
	// style argument to the host's option store.
	ParseOption(arg string) error

	// OptionsVersion returns a counter that increases every time the
	// host's option store changes.
	OptionsVersion() int

	// OptionsJSON returns the full current option set, serialized as JSON.
	OptionsJSON() ([]byte, error)

	// GrowTable grows the indirect function table by at least additional
	// slots and returns its new length.
	GrowTable(additional int) (newLength int, err error)

	// InstallTableFunc installs fn at the given index of the indirect
	// function table.
	InstallTableFunc(index int, fn any) error
}
