package network

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/jxsl13/q3api/protocol"
)

var (
	// ErrPacketTooShort is returned for sequenced packets that cannot
	// even hold their own header.
	ErrPacketTooShort = errors.New("packet too short")

	// ErrChecksumMismatch is returned when a sequenced packet fails the
	// challenge checksum. The packet is dropped, the connection persists.
	ErrChecksumMismatch = errors.New("packet checksum mismatch")
)

// ServerPacket is the parsed header of a sequenced server packet:
// a 4 byte little endian sequence with the fragment flag in bit 31,
// a 4 byte little endian checksum, then the payload (Huffman coded,
// or a raw fragment header plus fragment bytes when fragmented).
type ServerPacket struct {
	Sequence   uint32 // fragment bit stripped
	Fragmented bool
	Payload    []byte
}

// Checksum is the per-packet checksum used in both directions:
// the client frame carries Checksum(challenge, outgoingSequence) and the
// server packet Checksum(challenge, incomingSequence).
func Checksum(challenge, sequence uint32) uint32 {
	return challenge ^ (sequence * challenge)
}

// ParseServerPacket splits a sequenced server packet and verifies its
// checksum against the handshake challenge.
func ParseServerPacket(data []byte, challenge uint32) (ServerPacket, error) {
	if len(data) < 8 {
		return ServerPacket{}, fmt.Errorf("%w: %d bytes", ErrPacketTooShort, len(data))
	}

	rawSeq := binary.LittleEndian.Uint32(data)
	sum := binary.LittleEndian.Uint32(data[4:])

	p := ServerPacket{
		Sequence:   rawSeq & protocol.SequenceMask,
		Fragmented: rawSeq&protocol.FragmentBit != 0,
		Payload:    data[8:],
	}

	if expected := Checksum(challenge, p.Sequence); sum != expected {
		return ServerPacket{}, fmt.Errorf("%w: sequence %d", ErrChecksumMismatch, p.Sequence)
	}
	return p, nil
}
