package client

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jxsl13/q3api/network"
	"github.com/jxsl13/q3api/protocol"
)

// fakeTransport is an in-memory Transport for driving the client
// without a socket.
type fakeTransport struct {
	incoming  chan []byte
	outgoing  chan []byte
	closed    chan struct{}
	closeOnce sync.Once
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		incoming: make(chan []byte, 64),
		outgoing: make(chan []byte, 256),
		closed:   make(chan struct{}),
	}
}

func (t *fakeTransport) WritePacket(data []byte) error {
	select {
	case <-t.closed:
		return errors.New("transport closed")
	default:
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	select {
	case t.outgoing <- cp:
	default:
		// tests that do not drain outgoing must not block the client
	}
	return nil
}

func (t *fakeTransport) ReadPacket(buf []byte) (int, error) {
	select {
	case data := <-t.incoming:
		return copy(buf, data), nil
	case <-t.closed:
		return 0, errors.New("transport closed")
	}
}

func (t *fakeTransport) Close() error {
	t.closeOnce.Do(func() { close(t.closed) })
	return nil
}

// nextOOB drains outgoing until a connectionless packet arrives.
func (t *fakeTransport) nextOOB(tb testing.TB) (command, args string) {
	tb.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case data := <-t.outgoing:
			if command, args, ok := network.ParseOOB(data); ok {
				return command, args
			}
		case <-deadline:
			tb.Fatal("timed out waiting for outgoing packet")
		}
	}
}

func TestConnectHandshake(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	ft := newFakeTransport()
	c := New("fake:27960",
		WithTransport(ft),
		WithRetryInterval(10*time.Millisecond),
		WithConnectAttempts(100),
	)

	var states []protocol.ConnState
	c.OnStateChange = func(from, to protocol.ConnState) {
		states = append(states, to)
	}

	go func() {
		command, _ := ft.nextOOB(t)
		if command != "getchallenge" {
			return
		}
		ft.incoming <- network.OOB("challengeResponse 424242 0 71")

		for {
			command, _ = ft.nextOOB(t)
			if command == "connect" {
				break
			}
		}
		ft.incoming <- network.OOB("connectResponse")
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(c.Connect(ctx))
	require.Equal(protocol.ConnStateConnected, c.State())
	require.Equal(uint32(424242), c.challenge)
	require.Equal([]protocol.ConnState{
		protocol.ConnStateChallenging,
		protocol.ConnStateConnecting,
		protocol.ConnStateConnected,
	}, states)

	c.Disconnect()
	require.Equal(protocol.ConnStateDisconnected, c.State())
}

func TestConnectGameMismatch(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	ft := newFakeTransport()
	c := New("fake:27960",
		WithTransport(ft),
		WithRetryInterval(10*time.Millisecond),
	)

	go func() {
		command, _ := ft.nextOOB(t)
		if command != "getchallenge" {
			return
		}
		ft.incoming <- network.OOB(`print "Game mismatch: this is a Quake3Arena server"`)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := c.Connect(ctx)
	require.ErrorIs(err, ErrConnectFailed)
	require.ErrorIs(err, ErrProtocolMismatch)
	require.Equal(protocol.ConnStateDisconnected, c.State())
}

func TestConnectNoResponse(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	ft := newFakeTransport()
	c := New("fake:27960",
		WithTransport(ft),
		WithRetryInterval(time.Millisecond),
		WithConnectAttempts(3),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := c.Connect(ctx)
	require.ErrorIs(err, ErrConnectFailed)
	require.Equal(protocol.ConnStateDisconnected, c.State())
}

func TestRunRequiresConnection(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	c := New("fake:27960", WithTransport(newFakeTransport()))
	require.ErrorIs(c.Run(context.Background()), ErrNotConnected)
}

func TestFrameTimeout(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	ft := newFakeTransport()
	c := New("fake:27960", WithTransport(ft), WithTimeout(time.Millisecond))
	c.state = protocol.ConnStateActive
	c.lastPacketTime = time.Now().Add(-time.Second)

	err := c.sendFrame(time.Now())
	require.ErrorIs(err, ErrConnectionLost)
	require.Equal(protocol.ConnStateDisconnected, c.State())
}

func TestDisconnectIdempotent(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	ft := newFakeTransport()
	c := New("fake:27960", WithTransport(ft))
	c.state = protocol.ConnStateActive

	disconnects := 0
	c.OnDisconnect = func(reason string) { disconnects++ }

	require.NoError(c.Disconnect())
	require.NoError(c.Disconnect())
	require.Equal(1, disconnects)
	require.Equal(protocol.ConnStateDisconnected, c.State())
}
