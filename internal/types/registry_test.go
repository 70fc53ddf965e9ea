package types

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasmbuild/wasmbuild/host/refhost"
	"github.com/wasmbuild/wasmbuild/internal/buffer"
	"github.com/wasmbuild/wasmbuild/internal/wasmbin"
	"github.com/wasmbuild/wasmbuild/internal/wasmerr"
)

func i32Result() *wasmbin.ValType {
	v := wasmbin.ValTypeI32
	return &v
}

func TestDefineTypeInternsByShape(t *testing.T) {
	r := NewRegistry()
	a, err := r.DefineType("a", []wasmbin.ValType{wasmbin.ValTypeI32, wasmbin.ValTypeI32}, i32Result(), false)
	require.NoError(t, err)
	require.Equal(t, 0, a)

	b, err := r.DefineType("b", []wasmbin.ValType{wasmbin.ValTypeI32, wasmbin.ValTypeI32}, i32Result(), false)
	require.NoError(t, err)
	require.Equal(t, 0, b)
	require.Equal(t, 1, r.Count())
}

func TestDefineTypeDistinctShapesGetDistinctIndices(t *testing.T) {
	r := NewRegistry()
	a, _ := r.DefineType("a", []wasmbin.ValType{wasmbin.ValTypeI32}, nil, false)
	b, _ := r.DefineType("b", []wasmbin.ValType{wasmbin.ValTypeI64}, nil, false)
	require.NotEqual(t, a, b)
}

func TestDefineTypeShapeKeyDoesNotCollideOnF64Separator(t *testing.T) {
	r := NewRegistry()
	f64 := wasmbin.ValTypeF64
	takesF64, err := r.DefineType("takesF64", []wasmbin.ValType{wasmbin.ValTypeF64}, nil, false)
	require.NoError(t, err)
	returnsF64, err := r.DefineType("returnsF64", nil, &f64, false)
	require.NoError(t, err)
	require.NotEqual(t, takesF64, returnsF64)
	require.Equal(t, 2, r.Count())
}

func TestDefineTypeDuplicateNameFails(t *testing.T) {
	r := NewRegistry()
	_, err := r.DefineType("a", nil, nil, false)
	require.NoError(t, err)
	_, err = r.DefineType("a", []wasmbin.ValType{wasmbin.ValTypeI32}, nil, false)
	require.ErrorIs(t, err, wasmerr.ErrDuplicateName)
}

func TestPermanentAfterNonPermanentFails(t *testing.T) {
	r := NewRegistry()
	_, err := r.DefineType("a", nil, nil, false)
	require.NoError(t, err)
	_, err = r.DefineType("perm", nil, nil, true)
	require.ErrorIs(t, err, wasmerr.ErrInvalidPermanentOrdering)
}

func TestClearKeepsPermanentTypes(t *testing.T) {
	r := NewRegistry()
	permIdx, err := r.DefineType("perm", []wasmbin.ValType{wasmbin.ValTypeI32}, nil, true)
	require.NoError(t, err)
	_, err = r.DefineType("tmp", []wasmbin.ValType{wasmbin.ValTypeI64}, nil, false)
	require.NoError(t, err)
	require.Equal(t, 2, r.Count())

	r.Clear()
	require.Equal(t, 1, r.Count())

	again, err := r.DefineType("tmp2", []wasmbin.ValType{wasmbin.ValTypeI32}, nil, false)
	require.NoError(t, err)
	require.Equal(t, permIdx, again, "shape matches the surviving permanent type")
}

func TestGenerateTypeSectionS2(t *testing.T) {
	r := NewRegistry()
	_, err := r.DefineType("a", []wasmbin.ValType{wasmbin.ValTypeI32, wasmbin.ValTypeI32}, i32Result(), false)
	require.NoError(t, err)
	_, err = r.DefineType("b", []wasmbin.ValType{wasmbin.ValTypeI32, wasmbin.ValTypeI32}, i32Result(), false)
	require.NoError(t, err)

	dst := buffer.New(refhost.New(nil))
	require.NoError(t, r.GenerateTypeSection(dst))
	require.Equal(t, []byte{
		0x01,                   // one distinct type
		0x60, 0x02, 0x7f, 0x7f, // func, 2 params i32 i32
		0x01, 0x7f, // 1 result i32
	}, dst.GetView(false))
}

func TestGenerateTypeSectionEmpty(t *testing.T) {
	r := NewRegistry()
	dst := buffer.New(refhost.New(nil))
	require.NoError(t, r.GenerateTypeSection(dst))
	require.Equal(t, []byte{0x00}, dst.GetView(false))
}
