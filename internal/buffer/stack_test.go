package buffer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasmbuild/wasmbuild/host/refhost"
	"github.com/wasmbuild/wasmbuild/internal/wasmerr"
)

func TestStackPopSplicesLengthPrefix(t *testing.T) {
	s := NewStack(refhost.New(nil))
	nested := s.Push()
	_, _ = nested.AppendU8(0xaa)
	_, _ = nested.AppendU8(0xbb)

	_, err := s.Pop(true)
	require.NoError(t, err)

	require.Equal(t, []byte{0x02, 0xaa, 0xbb}, s.Current().GetView(false))
}

func TestStackPopReturnsVerbatimWithoutSplicing(t *testing.T) {
	s := NewStack(refhost.New(nil))
	nested := s.Push()
	_, _ = nested.AppendU8(0xaa)

	body, err := s.Pop(false)
	require.NoError(t, err)
	require.Equal(t, []byte{0xaa}, body)
	require.Equal(t, 0, s.Current().Size())
}

func TestStackPopBaseFails(t *testing.T) {
	s := NewStack(refhost.New(nil))
	_, err := s.Pop(true)
	require.ErrorIs(t, err, wasmerr.ErrStackEmpty)
}

func TestStackReusesSlotAfterPop(t *testing.T) {
	s := NewStack(refhost.New(nil))
	first := s.Push()
	_, _ = first.AppendU8(1)
	_, _ = s.Pop(false)

	second := s.Push()
	require.Equal(t, 0, second.Size())
}
