package imports

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasmbuild/wasmbuild/host/refhost"
	"github.com/wasmbuild/wasmbuild/internal/buffer"
	"github.com/wasmbuild/wasmbuild/internal/wasmerr"
)

func TestLazyImportIndexingS3(t *testing.T) {
	r := NewRegistry()
	_, err := r.DefineImportedFunction("env", "I1", "t", 0, false, "")
	require.NoError(t, err)
	_, err = r.DefineImportedFunction("env", "I2", "t", 0, false, "")
	require.NoError(t, err)

	i2First, err := r.Call("I2")
	require.NoError(t, err)
	i1, err := r.Call("I1")
	require.NoError(t, err)
	i2Second, err := r.Call("I2")
	require.NoError(t, err)

	require.Equal(t, 0, i2First)
	require.Equal(t, 1, i1)
	require.Equal(t, 0, i2Second)

	assigned := r.Assigned()
	require.Len(t, assigned, 2)
	require.Equal(t, "I2", assigned[0].Name)
	require.Equal(t, "I1", assigned[1].Name)
}

func TestCallUnknownImportFails(t *testing.T) {
	r := NewRegistry()
	_, err := r.Call("nope")
	require.ErrorIs(t, err, wasmerr.ErrUnknownImport)
}

func TestDuplicateImportNameFails(t *testing.T) {
	r := NewRegistry()
	_, err := r.DefineImportedFunction("env", "I1", "t", 0, false, "")
	require.NoError(t, err)
	_, err = r.DefineImportedFunction("env", "I1", "t", 0, false, "")
	require.ErrorIs(t, err, wasmerr.ErrDuplicateName)
}

func TestGenerateImportSectionEmptyHasOnlyMemory(t *testing.T) {
	r := NewRegistry()
	dst := buffer.New(refhost.New(nil))
	require.NoError(t, r.GenerateImportSection(dst, 0))
	require.Equal(t, []byte{
		0x01,                // one import total
		0x01, 'm',           // module name "m"
		0x01, 'h',           // field name "h"
		0x02,                // external kind: memory
		0x00,                // flags: min only
		0x01,                // 1 page
	}, dst.GetView(false))
}

func TestGenerateImportSectionConstantSlotsS4(t *testing.T) {
	r := NewRegistry()
	dst := buffer.New(refhost.New(nil))
	require.NoError(t, r.GenerateImportSection(dst, 2))
	view := dst.GetView(false)
	// 1 (memory) + 2 constant slots = 3 total entries.
	require.Equal(t, byte(0x03), view[0])
}
