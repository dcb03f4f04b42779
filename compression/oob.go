package compression

import (
	"encoding/binary"
	"fmt"
)

// CompressOOB encodes data in the out-of-band form: a 2 byte big endian
// uncompressed length followed by the Huffman coded bytes. Only the
// userinfo payload of the connect packet uses this form.
func CompressOOB(h *Huffman, data []byte) []byte {
	buf := make([]byte, 2, len(data)/2+18)
	binary.BigEndian.PutUint16(buf, uint16(len(data)))
	return append(buf, h.Compress(data)...)
}

// DecompressOOB decodes the out-of-band form and validates the decoded
// size against the length prefix.
func DecompressOOB(h *Huffman, data []byte) ([]byte, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("%w: missing length prefix", ErrHuffmanCorrupt)
	}
	size := int(binary.BigEndian.Uint16(data))

	buf, err := h.Decompress(data[2:], size)
	if err != nil {
		return nil, err
	}
	if len(buf) != size {
		return nil, fmt.Errorf("%w: length prefix %d, decoded %d bytes",
			ErrHuffmanCorrupt, size, len(buf))
	}
	return buf, nil
}
