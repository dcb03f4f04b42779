package compression

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHuffmanRoundTrip(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	payloads := [][]byte{
		{},
		{0x00},
		{0xff},
		[]byte("getchallenge 0 Quake3Arena"),
		bytes.Repeat([]byte{0x00}, 512),
		bytes.Repeat([]byte{0xab, 0xcd, 0xef}, 100),
	}
	// every byte value at least once
	all := make([]byte, 256)
	for i := range all {
		all[i] = byte(i)
	}
	payloads = append(payloads, all)

	for _, h := range []*Huffman{Game, Connect} {
		for _, payload := range payloads {
			compressed := h.Compress(payload)
			decompressed, err := h.Decompress(compressed, len(payload)+1)
			require.NoError(err)
			require.Equal(payload, decompressed)
		}
	}
}

func TestHuffmanDeterministic(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	payload := []byte("\\name\\sarge\\rate\\25000")
	first := Game.Compress(payload)
	second := Game.Compress(payload)
	require.Equal(first, second)
}

func TestHuffmanWrongTree(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	payload := []byte("connect \"\\challenge\\12345\"")
	compressed := Connect.Compress(payload)

	// decoding with the wrong tree must not panic; the result is
	// either garbage or an error
	decompressed, err := Game.Decompress(compressed, 1024)
	if err == nil {
		require.NotEqual(payload, decompressed)
	}
}

func TestHuffmanMaxSize(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	payload := bytes.Repeat([]byte{0x42}, 64)
	compressed := Game.Compress(payload)

	_, err := Game.Decompress(compressed, 16)
	require.ErrorIs(err, ErrHuffmanOverflow)
}

func TestOOBRoundTrip(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	payload := []byte(`"\protocol\71\challenge\12345\qport\777\name\sarge"`)
	compressed := CompressOOB(Connect, payload)

	decompressed, err := DecompressOOB(Connect, compressed)
	require.NoError(err)
	require.Equal(payload, decompressed)
}

func TestOOBTruncated(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	_, err := DecompressOOB(Connect, []byte{0x00})
	require.Error(err)
}
