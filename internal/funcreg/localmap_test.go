package funcreg

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasmbuild/wasmbuild/internal/buffer"
	"github.com/wasmbuild/wasmbuild/internal/wasmbin"
	"github.com/wasmbuild/wasmbuild/host/refhost"
)

func TestLocalOrderingS5(t *testing.T) {
	params := []Decl{{Name: "p", Type: wasmbin.ValTypeI32}}
	locals := []Decl{
		{Name: "a", Type: wasmbin.ValTypeI64},
		{Name: "b", Type: wasmbin.ValTypeI32},
		{Name: "c", Type: wasmbin.ValTypeI64},
		{Name: "d", Type: wasmbin.ValTypeF32},
	}
	m := Build(params, locals)

	check := func(name string, wantIdx int) {
		_, idx, err := m.Resolve(name)
		require.NoError(t, err)
		require.Equal(t, wantIdx, idx, name)
	}
	check("p", 0)
	check("b", 1)
	check("a", 2)
	check("c", 3)
	check("d", 4)
}

func TestPrologueBytesS5(t *testing.T) {
	locals := []Decl{
		{Name: "a", Type: wasmbin.ValTypeI64},
		{Name: "b", Type: wasmbin.ValTypeI32},
		{Name: "c", Type: wasmbin.ValTypeI64},
		{Name: "d", Type: wasmbin.ValTypeF32},
	}
	dst := buffer.New(refhost.New(nil))
	require.NoError(t, WritePrologue(dst, locals))
	require.Equal(t, []byte{
		0x03,       // 3 groups
		0x01, 0x7f, // 1 i32
		0x02, 0x7e, // 2 i64
		0x01, 0x7d, // 1 f32
	}, dst.GetView(false))
}

func TestResolveUnknownLocalFails(t *testing.T) {
	m := Build(nil, nil)
	_, _, err := m.Resolve("missing")
	require.Error(t, err)
}

func TestResolveLocalIndexAddsParamCount(t *testing.T) {
	m := Build([]Decl{{Name: "p0", Type: wasmbin.ValTypeI32}, {Name: "p1", Type: wasmbin.ValTypeI32}}, nil)
	require.Equal(t, 2, m.ResolveLocalIndex(0))
	require.Equal(t, 3, m.ResolveLocalIndex(1))
}
