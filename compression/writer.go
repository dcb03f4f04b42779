package compression

import "math"

// Writer writes bit-level data into a growing byte buffer, least
// significant bit first. It mirrors every Reader operation.
type Writer struct {
	data   []byte
	offset int // bit offset
}

func NewWriter() *Writer {
	return &Writer{data: make([]byte, 0, 1024)}
}

// Bytes returns the written buffer. Trailing unused bits are zero.
func (w *Writer) Bytes() []byte {
	return w.data
}

// Reset clears the buffer for reuse.
func (w *Writer) Reset() {
	w.data = w.data[:0]
	w.offset = 0
}

// Size is the number of whole bytes written so far.
func (w *Writer) Size() int {
	return len(w.data)
}

// WriteBits writes the low n bits of value. A negative n writes -n bits;
// the sign distinction only matters on the read side.
func (w *Writer) WriteBits(value int32, n int) {
	if n < 0 {
		n = -n
	}
	v := uint32(value)
	for i := 0; i < n; i++ {
		if w.offset&7 == 0 {
			w.data = append(w.data, 0)
		}
		w.data[w.offset>>3] |= byte((v>>i)&1) << (w.offset & 7)
		w.offset++
	}
}

func (w *Writer) WriteBit(value int32) {
	w.WriteBits(value, 1)
}

func (w *Writer) WriteByte(value byte) {
	w.WriteBits(int32(value), 8)
}

func (w *Writer) WriteShort(value uint16) {
	w.WriteBits(int32(value), 16)
}

func (w *Writer) WriteLong(value uint32) {
	w.WriteBits(int32(value), 32)
}

func (w *Writer) WriteFloat(value float32) {
	w.WriteBits(int32(math.Float32bits(value)), 32)
}

// WriteFloatInt writes a float in the biased small-integer form.
func (w *Writer) WriteFloatInt(value int32) {
	w.WriteBits(value+floatIntBias, floatIntBits)
}

// WriteString writes a NUL terminated string.
func (w *Writer) WriteString(s string) {
	for i := 0; i < len(s); i++ {
		w.WriteByte(s[i])
	}
	w.WriteByte(0)
}

// WriteData writes raw bytes.
func (w *Writer) WriteData(data []byte) {
	for _, b := range data {
		w.WriteByte(b)
	}
}

// WriteDeltaKey writes one key-XORed delta field: unchanged values emit a
// single zero bit, changed values a one bit plus the XORed value.
func (w *Writer) WriteDeltaKey(old, value int32, bits int, key uint32) {
	mask := widthMask(bits)
	if uint32(old)&mask == uint32(value)&mask {
		w.WriteBit(0)
		return
	}
	w.WriteBit(1)
	w.WriteBits(value^int32(key&mask), bits)
}
