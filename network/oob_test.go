package network

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOOBRoundTrip(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	packet := OOB("getchallenge 0 Quake3Arena")
	require.True(IsOOB(packet))

	command, args, ok := ParseOOB(packet)
	require.True(ok)
	require.Equal("getchallenge", command)
	require.Equal("0 Quake3Arena", args)
}

func TestOOBData(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	payload := []byte{0x00, 0xff, 0x42}
	packet := OOBData("connect ", payload)
	require.True(IsOOB(packet))
	require.Equal(append([]byte("connect "), payload...), packet[4:])
}

func TestParseOOBRejectsSequenced(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	_, _, ok := ParseOOB([]byte{0x01, 0x00, 0x00, 0x00, 0x42})
	require.False(ok)
	require.False(IsOOB([]byte{0x01, 0x00, 0x00, 0x00}))
	require.False(IsOOB([]byte{0xff, 0xff}))
}

func TestParseOOBNewlineSeparator(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	command, args, ok := ParseOOB(OOB("statusResponse\n\\mapname\\q3dm17\n5 48 \"sarge\""))
	require.True(ok)
	require.Equal("statusResponse", command)
	require.Equal("\\mapname\\q3dm17\n5 48 \"sarge\"", args)
}

func TestParseOOBSingleWord(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	command, args, ok := ParseOOB(OOB("disconnect"))
	require.True(ok)
	require.Equal("disconnect", command)
	require.Empty(args)
}
