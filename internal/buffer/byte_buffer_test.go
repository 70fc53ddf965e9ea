package buffer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasmbuild/wasmbuild/host/refhost"
)

func TestByteBufferAppendPrimitives(t *testing.T) {
	b := New(refhost.New(nil))

	off, err := b.AppendU8(0xab)
	require.NoError(t, err)
	require.Equal(t, 0, off)

	off, err = b.AppendU32(0x11223344)
	require.NoError(t, err)
	require.Equal(t, 1, off)

	require.Equal(t, []byte{0xab, 0x44, 0x33, 0x22, 0x11}, b.GetView(false))
}

func TestByteBufferAppendNameASCIIFastPath(t *testing.T) {
	b := New(refhost.New(nil))
	_, err := b.AppendName("m")
	require.NoError(t, err)
	require.Equal(t, []byte{0x01, 'm'}, b.GetView(false))
}

func TestByteBufferAppendNameMultibyte(t *testing.T) {
	b := New(refhost.New(nil))
	_, err := b.AppendName("hello")
	require.NoError(t, err)
	require.Equal(t, []byte{0x05, 'h', 'e', 'l', 'l', 'o'}, b.GetView(false))
}

func TestByteBufferBufferFull(t *testing.T) {
	b := NewSized(refhost.New(nil), 1)
	_, err := b.AppendU8(1)
	require.NoError(t, err)
	_, err = b.AppendU8(2)
	require.Error(t, err)
}

func TestByteBufferClearResetsSize(t *testing.T) {
	b := New(refhost.New(nil))
	_, _ = b.AppendU8(1)
	require.Equal(t, 1, b.Size())
	b.Clear()
	require.Equal(t, 0, b.Size())
}

func TestByteBufferAppendULebDelegatesToHost(t *testing.T) {
	b := New(refhost.New(nil))
	_, err := b.AppendULeb(624485)
	require.NoError(t, err)
	require.Equal(t, []byte{0xe5, 0x8e, 0x26}, b.GetView(false))
}
