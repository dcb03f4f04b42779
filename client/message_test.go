package client

import (
	"encoding/binary"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jxsl13/q3api/compression"
	"github.com/jxsl13/q3api/network"
	"github.com/jxsl13/q3api/protocol"
)

const testChallenge = uint32(0xCAFE1234)

func newGameClient() (*Client, *fakeTransport) {
	ft := newFakeTransport()
	c := New("fake:27960", WithTransport(ft))
	c.state = protocol.ConnStateConnected
	c.challenge = testChallenge
	return c, ft
}

// deliver compresses a server message and feeds it to the client under
// the given sequence, fragmenting when it exceeds the fragment size.
func deliver(tb testing.TB, c *Client, sequence uint32, message []byte) {
	tb.Helper()

	payload := compression.Game.Compress(message)
	if len(payload) <= protocol.FragmentSize {
		c.handlePacket(sequencedPacket(sequence, false, payload))
		return
	}
	for _, frag := range network.Fragment(payload) {
		c.handlePacket(sequencedPacket(sequence, true, frag))
	}
}

func sequencedPacket(sequence uint32, fragmented bool, payload []byte) []byte {
	raw := sequence
	if fragmented {
		raw |= protocol.FragmentBit
	}
	data := make([]byte, 8+len(payload))
	binary.LittleEndian.PutUint32(data, raw)
	binary.LittleEndian.PutUint32(data[4:], network.Checksum(testChallenge, sequence))
	copy(data[8:], payload)
	return data
}

// gamestateMessage builds a minimal gamestate: system info, one map
// config string (padded to force fragmentation when pad > 0), one
// baseline entity and the trailing client number and checksum feed.
func gamestateMessage(clientNum int32, pad int) []byte {
	w := compression.NewWriter()
	w.WriteLong(0) // reliable acknowledge

	w.WriteByte(byte(protocol.SvcGamestate))
	w.WriteLong(0) // command sequence

	w.WriteByte(byte(protocol.SvcConfigString))
	w.WriteShort(uint16(protocol.CSSystemInfo))
	w.WriteString(`\sv_serverid\1337\sv_pure\0`)

	w.WriteByte(byte(protocol.SvcConfigString))
	w.WriteShort(uint16(protocol.CSServerInfo))
	info := `\mapname\q3dm17\sv_hostname\test server`
	if pad > 0 {
		info += `\pad\` + padText(pad)
	}
	w.WriteString(info)

	// baseline for entity 5: pos.trTime = 777
	w.WriteByte(byte(protocol.SvcBaseline))
	w.WriteBits(5, protocol.GentityBits)
	w.WriteBit(0) // not removed
	w.WriteBit(1) // has field data
	w.WriteByte(1)
	w.WriteBit(1) // field changed
	w.WriteBit(1) // not zero
	w.WriteBits(777, 32)

	w.WriteByte(byte(protocol.SvcEOF))
	w.WriteLong(uint32(clientNum))
	w.WriteLong(0xABCD) // checksum feed

	w.WriteByte(byte(protocol.SvcEOF))
	return w.Bytes()
}

// padText makes poorly compressible filler so the compressed message
// exceeds one fragment.
func padText(n int) string {
	const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789.,"
	var sb strings.Builder
	for i := 0; i < n; i++ {
		sb.WriteByte(alphabet[(i*31+i/64)%len(alphabet)])
	}
	return sb.String()
}

func TestGamestatePrimesClient(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	c, _ := newGameClient()

	var states []protocol.ConnState
	c.OnStateChange = func(from, to protocol.ConnState) {
		states = append(states, to)
	}

	deliver(t, c, 1, gamestateMessage(1, 0))

	require.Equal(protocol.ConnStatePrimed, c.State())
	require.Equal(int32(1), c.ClientNum())
	require.Equal(uint32(1337), c.serverID)
	require.Equal(uint32(0xABCD), c.checksumFeed)
	require.Contains(c.ConfigString(protocol.CSServerInfo), "q3dm17")
	require.Equal([]protocol.ConnState{protocol.ConnStatePrimed}, states)

	bl := c.baselines[5]
	require.NotNil(bl)
	require.Equal(float64(777), bl.Fields[0])
}

func TestGamestateFragmented(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	c, _ := newGameClient()

	message := gamestateMessage(1, 12000)
	compressed := compression.Game.Compress(message)
	require.Greater(len(compressed), protocol.FragmentSize,
		"padding must force fragmentation")

	deliver(t, c, 1, message)

	require.Equal(protocol.ConnStatePrimed, c.State())
	require.Equal(int32(1), c.ClientNum())
}

// snapshotMessage builds a snapshot with commandTime, health 100 and a
// delta update for entity 5.
func snapshotMessage(serverTime uint32, deltaNum byte) []byte {
	w := compression.NewWriter()
	w.WriteLong(0)

	w.WriteByte(byte(protocol.SvcSnapshot))
	w.WriteLong(serverTime)
	w.WriteByte(deltaNum)
	w.WriteByte(0) // snap flags
	w.WriteByte(1) // area mask bytes
	w.WriteData([]byte{0x01})

	// player state: commandTime changed, health 100
	w.WriteByte(1)
	w.WriteBit(1)
	w.WriteBits(int32(serverTime), 32)
	w.WriteBit(1) // arrays
	w.WriteBit(1) // stats
	w.WriteBits(1<<protocol.StatHealth, 16)
	w.WriteBits(100, 16)
	w.WriteBit(0) // persistant
	w.WriteBit(0) // ammo
	w.WriteBit(0) // powerups

	// entity 5 present, unchanged relative to its base
	w.WriteBits(5, protocol.GentityBits)
	w.WriteBit(0)
	w.WriteBit(0)
	w.WriteBits(protocol.EntitySentinel, protocol.GentityBits)

	w.WriteByte(byte(protocol.SvcEOF))
	return w.Bytes()
}

func TestSnapshotActivatesClient(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	c, _ := newGameClient()
	deliver(t, c, 1, gamestateMessage(0, 0))
	require.Equal(protocol.ConnStatePrimed, c.State())

	var snaps []*Snapshot
	c.OnSnapshot = func(snap *Snapshot) { snaps = append(snaps, snap) }

	deliver(t, c, 2, snapshotMessage(8000, 0))

	require.Equal(protocol.ConnStateActive, c.State())
	require.Len(snaps, 1)

	snap := c.CurrentSnapshot()
	require.NotNil(snap)
	require.Equal(uint32(8000), snap.ServerTime)
	require.Equal(uint32(8000), c.ServerTime())
	require.Equal(int32(100), snap.PlayerState.Health())

	// the entity decoded against its gamestate baseline
	ent := snap.Entity(5)
	require.NotNil(ent)
	require.Equal(float64(777), ent.Fields[0])
}

func TestMapChangeReprimes(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	c, _ := newGameClient()

	var states []protocol.ConnState
	c.OnStateChange = func(from, to protocol.ConnState) {
		states = append(states, to)
	}

	deliver(t, c, 1, gamestateMessage(1, 0))
	deliver(t, c, 2, snapshotMessage(8000, 0))
	require.Equal(protocol.ConnStateActive, c.State())

	// a new gamestate mid game is a map change: the client resets to
	// Connected, loads the fresh data and re-primes
	deliver(t, c, 3, gamestateMessage(1, 0))

	require.Equal(protocol.ConnStatePrimed, c.State())
	require.Contains(c.ConfigString(protocol.CSServerInfo), "q3dm17",
		"the new gamestate's config strings survive the reset")
	require.NotNil(c.baselines[5], "the new gamestate's baselines survive the reset")
	require.Nil(c.CurrentSnapshot(), "the old world state is gone")
	require.Equal([]protocol.ConnState{
		protocol.ConnStatePrimed,
		protocol.ConnStateActive,
		protocol.ConnStateConnected,
		protocol.ConnStatePrimed,
	}, states)

	// the next snapshot re-enters the world
	deliver(t, c, 4, snapshotMessage(100, 0))
	require.Equal(protocol.ConnStateActive, c.State())
}

func TestSnapshotDeltaChain(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	c, _ := newGameClient()
	deliver(t, c, 1, gamestateMessage(0, 0))
	deliver(t, c, 2, snapshotMessage(8000, 0))

	// sequence 3 deltas against sequence 2
	deliver(t, c, 3, snapshotMessage(8050, 1))

	snap := c.CurrentSnapshot()
	require.Equal(uint32(3), snap.Sequence)
	require.Equal(uint32(8050), snap.ServerTime)
	require.Equal(int32(100), snap.PlayerState.Health())
	require.NotNil(snap.Entity(5))
}

func TestSnapshotMissingDeltaBaseIsDropped(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	c, _ := newGameClient()
	deliver(t, c, 1, gamestateMessage(0, 0))
	deliver(t, c, 2, snapshotMessage(8000, 0))
	before := c.CurrentSnapshot()

	// sequence 10 references sequence 5, which was never stored
	deliver(t, c, 10, snapshotMessage(8400, 5))

	require.Same(before, c.CurrentSnapshot(), "snapshot with unavailable base is discarded")
	require.Equal(uint32(10), c.messageSeq, "the message itself still advances the channel")
}

func TestServerCommandDedup(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	c, _ := newGameClient()

	var commands []string
	c.OnServerCommand = func(seq int32, command string) {
		commands = append(commands, command)
	}
	var chats [][2]string
	c.OnChat = func(sender, message string) {
		chats = append(chats, [2]string{sender, message})
	}

	serverCommand := func(seq uint32, text string) []byte {
		w := compression.NewWriter()
		w.WriteLong(0)
		w.WriteByte(byte(protocol.SvcServerCommand))
		w.WriteLong(seq)
		w.WriteString(text)
		w.WriteByte(byte(protocol.SvcEOF))
		return w.Bytes()
	}

	deliver(t, c, 1, serverCommand(1, `chat "sarge: hello"`))
	// retransmission of the same command under a later packet
	deliver(t, c, 2, serverCommand(1, `chat "sarge: hello"`))
	deliver(t, c, 3, serverCommand(2, `print "round over"`))

	require.Equal([]string{`chat "sarge: hello"`, `print "round over"`}, commands)
	require.Equal([][2]string{{"sarge", "hello"}}, chats)
}

func TestServerDisconnectCommand(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	c, _ := newGameClient()
	c.state = protocol.ConnStateActive

	reason := ""
	c.OnDisconnect = func(r string) { reason = r }

	w := compression.NewWriter()
	w.WriteLong(0)
	w.WriteByte(byte(protocol.SvcServerCommand))
	w.WriteLong(1)
	w.WriteString(`disconnect "server shutting down"`)
	w.WriteByte(byte(protocol.SvcEOF))

	deliver(t, c, 1, w.Bytes())

	require.Equal(protocol.ConnStateDisconnected, c.State())
	require.Equal("server shutting down", reason)
}

func TestConfigStringUpdate(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	c, _ := newGameClient()

	w := compression.NewWriter()
	w.WriteLong(0)
	w.WriteByte(byte(protocol.SvcConfigString))
	w.WriteShort(uint16(protocol.CSPlayers + 2))
	w.WriteString(`\n\sarge\t\0`)
	w.WriteByte(byte(protocol.SvcEOF))

	deliver(t, c, 1, w.Bytes())

	require.Equal("sarge", c.PlayerName(2))
}
