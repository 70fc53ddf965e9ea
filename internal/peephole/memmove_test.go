package peephole

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasmbuild/wasmbuild/host/refhost"
	"github.com/wasmbuild/wasmbuild/internal/buffer"
	"github.com/wasmbuild/wasmbuild/internal/wasmbin"
)

func countCopyBytes(t *testing.T, code []byte) int {
	t.Helper()
	total := 0
	i := 0
	skipULEB := func() {
		for code[i]&0x80 != 0 {
			i++
		}
		i++
	}
	for i < len(code) {
		require.Equal(t, byte(wasmbin.OpLocalGet), code[i])
		i++
		skipULEB()
		require.Equal(t, byte(wasmbin.OpLocalGet), code[i])
		i++
		skipULEB()
		loadOp := code[i]
		i++
		skipULEB() // align
		skipULEB() // offset
		storeOp := code[i]
		i++
		skipULEB()
		skipULEB()
		require.Equal(t, storeOpFor(loadOp), storeOp)
		total += sizeFor(loadOp)
	}
	return total
}

func storeOpFor(loadOp byte) byte {
	switch loadOp {
	case wasmbin.OpI64Load:
		return wasmbin.OpI64Store
	case wasmbin.OpI32Load:
		return wasmbin.OpI32Store
	case wasmbin.OpI32Load16U:
		return wasmbin.OpI32Store16
	case wasmbin.OpI32Load8U:
		return wasmbin.OpI32Store8
	}
	return 0
}

func sizeFor(loadOp byte) int {
	switch loadOp {
	case wasmbin.OpI64Load:
		return 8
	case wasmbin.OpI32Load:
		return 4
	case wasmbin.OpI32Load16U:
		return 2
	case wasmbin.OpI32Load8U:
		return 1
	}
	return 0
}

func TestTryMemmoveFastCopiesExactCount(t *testing.T) {
	for count := 1; count < 64; count++ {
		dst := buffer.New(refhost.New(nil))
		ok, err := TryMemmoveFast(dst, 3, 4, 0, 0, count, DefaultMaxMemsetSize)
		require.NoError(t, err)
		require.True(t, ok, "count=%d", count)
		require.Equal(t, count, countCopyBytes(t, dst.GetView(false)), "count=%d", count)
	}
}

func TestTryMemmoveFastDeclinesAtCeiling(t *testing.T) {
	dst := buffer.New(refhost.New(nil))
	ok, err := TryMemmoveFast(dst, 3, 4, 0, 0, 64, DefaultMaxMemsetSize)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestAppendBulkMemmove(t *testing.T) {
	dst := buffer.New(refhost.New(nil))
	require.NoError(t, AppendBulkMemmove(dst, 5))
	require.Equal(t, []byte{
		wasmbin.OpI32Const, 0x05,
		wasmbin.OpMisc, wasmbin.MiscMemoryCopy, 0x00, 0x00,
	}, dst.GetView(false))
}
