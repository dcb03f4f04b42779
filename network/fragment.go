package network

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/jxsl13/q3api/protocol"
)

var (
	// ErrFragmentGap is returned when a fragment does not start where the
	// accumulated data ends. The accumulator is discarded; the server
	// resends the whole message under a later sequence.
	ErrFragmentGap = errors.New("fragment offset does not continue assembly")

	// ErrFragmentOverflow is returned when an assembly would exceed the
	// maximum message size.
	ErrFragmentOverflow = errors.New("fragment assembly exceeds message size limit")
)

type assembly struct {
	sequence uint32
	buf      []byte
}

// Assembler reassembles fragmented server messages. Fragments of one
// message share a sequence number and arrive as a raw 2 byte little
// endian start offset, a 2 byte little endian length and the fragment
// bytes. A fragment shorter than protocol.FragmentSize terminates the
// run and yields the assembled message.
type Assembler struct {
	pending map[uint32]*assembly
}

func NewAssembler() *Assembler {
	return &Assembler{pending: make(map[uint32]*assembly)}
}

// Add ingests one fragment payload. It returns the assembled message and
// done == true when the terminal fragment completed the message.
func (a *Assembler) Add(sequence uint32, payload []byte) (assembled []byte, done bool, err error) {
	if len(payload) < 4 {
		return nil, false, fmt.Errorf("%w: fragment header", ErrPacketTooShort)
	}

	start := int(binary.LittleEndian.Uint16(payload))
	length := int(binary.LittleEndian.Uint16(payload[2:]))
	data := payload[4:]

	if length > len(data) {
		return nil, false, fmt.Errorf("%w: fragment length %d exceeds payload %d",
			ErrPacketTooShort, length, len(data))
	}

	as := a.pending[sequence]
	if as == nil {
		as = &assembly{sequence: sequence}
		// a newer fragmented message supersedes older assemblies
		for seq := range a.pending {
			if seq < sequence {
				delete(a.pending, seq)
			}
		}
		a.pending[sequence] = as
	}

	if start != len(as.buf) {
		delete(a.pending, sequence)
		return nil, false, fmt.Errorf("%w: expected offset %d, got %d",
			ErrFragmentGap, len(as.buf), start)
	}
	if len(as.buf)+length > protocol.MaxMessageLen {
		delete(a.pending, sequence)
		return nil, false, ErrFragmentOverflow
	}

	as.buf = append(as.buf, data[:length]...)

	if length >= protocol.FragmentSize {
		// more fragments follow
		return nil, false, nil
	}

	delete(a.pending, sequence)
	return as.buf, true, nil
}

// Evict drops assemblies superseded by a completed non-fragmented
// sequence, bounding memory across lost terminal fragments.
func (a *Assembler) Evict(upTo uint32) {
	for seq := range a.pending {
		if seq <= upTo {
			delete(a.pending, seq)
		}
	}
}

// Discard drops all in-flight assemblies, e.g. on disconnect.
func (a *Assembler) Discard() {
	for seq := range a.pending {
		delete(a.pending, seq)
	}
}

// Fragment splits a message into wire fragment payloads (offset, length,
// bytes), each ready to be sent under the same fragment-flagged sequence.
// A message whose size is an exact multiple of protocol.FragmentSize gets
// a trailing zero length terminal fragment.
func Fragment(message []byte) [][]byte {
	var out [][]byte
	offset := 0
	for {
		n := len(message) - offset
		if n > protocol.FragmentSize {
			n = protocol.FragmentSize
		}

		frag := make([]byte, 4+n)
		binary.LittleEndian.PutUint16(frag, uint16(offset))
		binary.LittleEndian.PutUint16(frag[2:], uint16(n))
		copy(frag[4:], message[offset:offset+n])
		out = append(out, frag)
		offset += n

		if n < protocol.FragmentSize {
			return out
		}
	}
}
