package compression

import (
	"errors"
	"fmt"

	"github.com/jxsl13/q3api/protocol"
)

const (
	HuffmanEOFSymbol       = protocol.HuffmanEOFSymbol
	HuffmanMaxSymbols      = HuffmanEOFSymbol + 1
	HuffmanMaxNodes        = HuffmanMaxSymbols*2 - 1
	HuffmanLookupTableBits = 10
	HuffmanLookupTableSize = 1 << HuffmanLookupTableBits
	HuffmanLookupTableMask = HuffmanLookupTableSize - 1
)

var (
	// ErrHuffmanCorrupt is returned when a coded stream cannot be walked
	// to the EOF symbol, e.g. after decoding with the wrong tree.
	ErrHuffmanCorrupt = errors.New("huffman: corrupt stream")

	// ErrHuffmanOverflow is returned when the decoded output would exceed
	// the caller's limit.
	ErrHuffmanOverflow = errors.New("huffman: output size limit exceeded")
)

// The two trees of the protocol, compiled once and never mutated.
// Game codes every in-game payload in both directions, Connect only the
// userinfo payload of the out-of-band connect packet.
var (
	Game    = NewHuffman(protocol.GameFrequencyTable)
	Connect = NewHuffman(protocol.ConnectFrequencyTable)
)

type Huffman struct {
	nodes             [HuffmanMaxNodes]node
	decodeLookupTable [HuffmanLookupTableSize]*node
	startNode         *node
	numNodes          int
}

type node struct {
	// symbol code
	Bits    uint32
	NumBits uint32

	// shorts instead of pointers so more nodes fit into the cache
	Leafs [2]uint16

	// what the code represents
	Symbol uint16
}

type huffmanConstructNode struct {
	NodeID    uint16
	Frequency uint32
}

// NewHuffman builds a coding tree from a frequency table, index -> symbol
// frequency. The construction is fully deterministic: ties between equal
// frequencies are broken by insertion order (bubbleSort is stable), so
// every process builds the identical tree from the same table.
func NewHuffman(frequencyTable [HuffmanMaxSymbols]uint32) *Huffman {
	h := &Huffman{}
	h.constructTree(frequencyTable)

	// build the decode lookup table (LUT)
	for i := 0; i < HuffmanLookupTableSize; i++ {
		var (
			bits uint = uint(i)
			k    int
		)
		n := h.startNode
		for k = 0; k < HuffmanLookupTableBits; k++ {
			n = &h.nodes[n.Leafs[bits&1]]
			bits >>= 1

			if n.NumBits != 0 {
				h.decodeLookupTable[i] = n
				break
			}
		}

		if k == HuffmanLookupTableBits {
			h.decodeLookupTable[i] = n
		}
	}
	return h
}

// Compress encodes data and terminates the stream with the EOF symbol.
// The coded form carries no length information of its own.
func (h *Huffman) Compress(data []byte) []byte {
	var (
		bits     uint64
		bitCount uint32
		buf      = make([]byte, 0, len(data)/2+16)
	)

	for _, symbol := range data {
		bits |= uint64(h.nodes[symbol].Bits) << bitCount
		bitCount += h.nodes[symbol].NumBits
		for bitCount >= 8 {
			buf = append(buf, byte(bits))
			bits >>= 8
			bitCount -= 8
		}
	}

	// load EOF
	eof := &h.nodes[HuffmanEOFSymbol]
	bits |= uint64(eof.Bits) << bitCount
	bitCount += eof.NumBits
	for bitCount > 0 {
		buf = append(buf, byte(bits))
		bits >>= 8
		if bitCount >= 8 {
			bitCount -= 8
		} else {
			bitCount = 0
		}
	}
	return buf
}

// Decompress decodes data up to the EOF symbol. maxSize bounds the output;
// a stream that exceeds it or runs out of input before EOF is corrupt.
func (h *Huffman) Decompress(data []byte, maxSize int) ([]byte, error) {
	var (
		bits     uint32
		bitCount uint32
		eofNode  = &h.nodes[HuffmanEOFSymbol]
		n        *node
		src      = 0
		buf      = make([]byte, 0, min(maxSize, 4*len(data)+16))
	)

	for {
		n = nil
		if bitCount >= HuffmanLookupTableBits {
			n = h.decodeLookupTable[bits&HuffmanLookupTableMask]
		}

		for bitCount < 24 && src < len(data) {
			bits |= uint32(data[src]) << bitCount
			bitCount += 8
			src++
		}

		if n == nil {
			if bitCount == 0 {
				return nil, fmt.Errorf("%w: no EOF symbol", ErrHuffmanCorrupt)
			}
			n = h.decodeLookupTable[bits&HuffmanLookupTableMask]
		}

		if n.NumBits > 0 {
			if n.NumBits > bitCount {
				return nil, fmt.Errorf("%w: truncated symbol", ErrHuffmanCorrupt)
			}
			bits >>= n.NumBits
			bitCount -= n.NumBits
		} else {
			if bitCount < HuffmanLookupTableBits {
				return nil, fmt.Errorf("%w: truncated symbol", ErrHuffmanCorrupt)
			}
			bits >>= HuffmanLookupTableBits
			bitCount -= HuffmanLookupTableBits

			for {
				n = &h.nodes[n.Leafs[bits&1]]
				if bitCount == 0 {
					return nil, fmt.Errorf("%w: truncated symbol", ErrHuffmanCorrupt)
				}
				bitCount--
				bits >>= 1

				if n.NumBits > 0 {
					break
				}
			}
		}

		if n == eofNode {
			break
		}

		if len(buf) >= maxSize {
			return nil, ErrHuffmanOverflow
		}
		buf = append(buf, byte(n.Symbol))
	}

	return buf, nil
}

func (h *Huffman) setBitsR(n *node, bits uint32, depth uint32) {
	var (
		leaf  *node
		left  = n.Leafs[0]
		right = n.Leafs[1]
	)

	if right != 0xffff {
		leaf = &h.nodes[right]
		h.setBitsR(leaf, bits|(1<<depth), depth+1)
	}
	if left != 0xffff {
		leaf = &h.nodes[left]
		h.setBitsR(leaf, bits, depth+1)
	}

	if n.NumBits > 0 {
		n.Bits = bits
		n.NumBits = depth
	}
}

func (h *Huffman) constructTree(frequencyTable [HuffmanMaxSymbols]uint32) {
	var (
		nodesLeftStorage [HuffmanMaxSymbols]huffmanConstructNode
		nodesLeft        [HuffmanMaxSymbols]*huffmanConstructNode
		numNodesLeft     = HuffmanMaxSymbols
	)

	for i := uint16(0); i < HuffmanMaxSymbols; i++ {
		h.nodes[i].NumBits = 0xffffffff
		h.nodes[i].Symbol = i
		h.nodes[i].Leafs[0] = 0xffff
		h.nodes[i].Leafs[1] = 0xffff

		if i == HuffmanEOFSymbol {
			nodesLeftStorage[i].Frequency = 1
		} else {
			nodesLeftStorage[i].Frequency = frequencyTable[i]
		}
		nodesLeftStorage[i].NodeID = i
		nodesLeft[i] = &nodesLeftStorage[i]
	}

	h.numNodes = HuffmanMaxSymbols

	for numNodesLeft > 1 {
		// stable sort, cannot rely on the stdlib sort being
		// reproducible across implementations
		bubbleSort(nodesLeft[:numNodesLeft])

		var (
			n  = &h.nodes[h.numNodes]
			n1 = nodesLeft[numNodesLeft-1]
			n2 = nodesLeft[numNodesLeft-2]
		)

		n.NumBits = 0
		n.Leafs[0] = n1.NodeID
		n.Leafs[1] = n2.NodeID

		n2.NodeID = uint16(h.numNodes)
		n2.Frequency = n1.Frequency + n2.Frequency

		h.numNodes++
		numNodesLeft--
	}

	h.startNode = &h.nodes[h.numNodes-1]
	h.setBitsR(h.startNode, 0, 0)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
