package buffer

import (
	"github.com/pkg/errors"

	"github.com/wasmbuild/wasmbuild/host"
	"github.com/wasmbuild/wasmbuild/internal/wasmerr"
)

// Stack is an ordered sequence of ByteBuffers where only the top one is
// ever written to. Push begins a nested region (a section, a function
// body); Pop ends it, either splicing its bytes into the new top with a
// ULEB128 length prefix, or handing them back to the caller untouched.
//
// The buffer at index 0 is the base buffer and can never be popped.
type Stack struct {
	host  host.Host
	slots []*ByteBuffer
	depth int
}

// NewStack constructs a Stack with one allocated base buffer.
func NewStack(h host.Host) *Stack {
	return &Stack{host: h, slots: []*ByteBuffer{New(h)}, depth: 1}
}

// Depth returns the current logical depth; the base buffer is depth 1.
func (s *Stack) Depth() int { return s.depth }

// Current returns the buffer at the top of the stack.
func (s *Stack) Current() *ByteBuffer { return s.slots[s.depth-1] }

// Size returns the size of the current buffer.
func (s *Stack) Size() int { return s.Current().Size() }

// Push begins a nested region, reusing an already-allocated slot if one
// exists at the new depth, or allocating a fresh ByteBuffer otherwise.
func (s *Stack) Push() *ByteBuffer {
	if s.depth == len(s.slots) {
		s.slots = append(s.slots, New(s.host))
	} else {
		s.slots[s.depth].Clear()
	}
	s.depth++
	return s.Current()
}

// Pop ends the current nested region. When writeLengthPrefixedToParent is
// true, the popped bytes are spliced into the new top-of-stack buffer as a
// ULEB128 length prefix followed by the bytes themselves; otherwise a copy
// of the popped bytes is returned to the caller and nothing is written to
// the parent.
//
// Popping the base buffer (depth 1) fails with wasmerr.ErrStackEmpty.
func (s *Stack) Pop(writeLengthPrefixedToParent bool) ([]byte, error) {
	if s.depth <= 1 {
		return nil, errors.Wrap(wasmerr.ErrStackEmpty, "cannot pop the base buffer")
	}
	popped := s.Current()
	body := append([]byte(nil), popped.GetView(false)...)
	s.depth--

	if !writeLengthPrefixedToParent {
		return body, nil
	}
	parent := s.Current()
	if _, err := parent.AppendULeb(uint64(len(body))); err != nil {
		return nil, err
	}
	if _, err := parent.AppendBytes(body); err != nil {
		return nil, err
	}
	return body, nil
}
