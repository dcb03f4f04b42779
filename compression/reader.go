package compression

import (
	"errors"
	"math"

	"github.com/jxsl13/q3api/protocol"
)

const (
	floatIntBits = protocol.FloatIntBits
	floatIntBias = protocol.FloatIntBias
)

// ErrBufferOverflow is returned when a read would exceed the underlying
// buffer. Parsing of the current packet must be aborted; the error is
// never fatal to the connection.
var ErrBufferOverflow = errors.New("read exceeds buffer bounds")

// Reader reads bit-level data from a byte slice, least significant bit
// first. Every read is bounds checked.
type Reader struct {
	data   []byte
	offset int // bit offset
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Reset points the reader at a new byte slice.
func (r *Reader) Reset(data []byte) {
	r.data = data
	r.offset = 0
}

// BitsRemaining returns the number of unread bits.
func (r *Reader) BitsRemaining() int {
	return len(r.data)*8 - r.offset
}

// ReadBits reads n bits. A negative n reads -n bits and sign-extends the
// result. n must be within [-32, 32].
func (r *Reader) ReadBits(n int) (int32, error) {
	signed := false
	if n < 0 {
		n = -n
		signed = true
	}

	if r.BitsRemaining() < n {
		return 0, ErrBufferOverflow
	}

	var value uint32
	for i := 0; i < n; i++ {
		bit := (r.data[r.offset>>3] >> (r.offset & 7)) & 1
		value |= uint32(bit) << i
		r.offset++
	}

	if signed && n > 0 && n < 32 && value&(1<<(n-1)) != 0 {
		value |= ^uint32(0) << n
	}
	return int32(value), nil
}

// ReadBit reads a single bit.
func (r *Reader) ReadBit() (int32, error) {
	return r.ReadBits(1)
}

func (r *Reader) ReadByte() (byte, error) {
	v, err := r.ReadBits(8)
	return byte(v), err
}

func (r *Reader) ReadShort() (uint16, error) {
	v, err := r.ReadBits(16)
	return uint16(v), err
}

func (r *Reader) ReadLong() (uint32, error) {
	v, err := r.ReadBits(32)
	return uint32(v), err
}

// ReadFloat reads a 32 bit IEEE float via its raw bit pattern.
func (r *Reader) ReadFloat() (float32, error) {
	v, err := r.ReadBits(32)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(uint32(v)), nil
}

// ReadFloatInt reads a float stored in the biased small-integer form.
func (r *Reader) ReadFloatInt() (int32, error) {
	v, err := r.ReadBits(floatIntBits)
	if err != nil {
		return 0, err
	}
	return v - floatIntBias, nil
}

// ReadString reads a NUL terminated string.
func (r *Reader) ReadString() (string, error) {
	var buf []byte
	for {
		c, err := r.ReadByte()
		if err != nil {
			return "", err
		}
		if c == 0 {
			return string(buf), nil
		}
		buf = append(buf, c)
	}
}

// ReadData reads n raw bytes.
func (r *Reader) ReadData(n int) ([]byte, error) {
	if n < 0 || r.BitsRemaining() < n*8 {
		return nil, ErrBufferOverflow
	}
	buf := make([]byte, n)
	for i := range buf {
		c, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		buf[i] = c
	}
	return buf, nil
}

// ReadDeltaKey reads one key-XORed delta field: a changed bit, then the
// XORed value if set, otherwise the old value is kept.
func (r *Reader) ReadDeltaKey(bits int, old int32, key uint32) (int32, error) {
	changed, err := r.ReadBit()
	if err != nil {
		return 0, err
	}
	if changed == 0 {
		return old, nil
	}
	v, err := r.ReadBits(bits)
	if err != nil {
		return 0, err
	}
	return v ^ int32(key&widthMask(bits)), nil
}

func widthMask(bits int) uint32 {
	if bits < 0 {
		bits = -bits
	}
	if bits >= 32 {
		return ^uint32(0)
	}
	return (1 << bits) - 1
}
