package client

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jxsl13/q3api/compression"
	"github.com/jxsl13/q3api/network"
	"github.com/jxsl13/q3api/protocol"
)

const (
	defaultTimeout         = 30 * time.Second
	defaultFrameInterval   = 50 * time.Millisecond
	defaultRetryInterval   = time.Second
	defaultConnectAttempts = 10
)

// Client is a headless game client. It connects to a server, keeps the
// world state of the running game and sends movement frames. All
// exported methods are safe for concurrent use; the registered
// callbacks run on the loop goroutine of Run and must not block.
type Client struct {
	mu  sync.Mutex
	log *zap.Logger

	serverAddr      string
	protocolVersion int
	gameName        string
	name            string
	userinfo        map[string]string
	qport           uint16
	frameInterval   time.Duration
	timeout         time.Duration
	connectAttempts int
	retryInterval   time.Duration
	pureChecksums   string

	transport network.Transport
	assembler *network.Assembler

	state        protocol.ConnState
	challenge    uint32
	serverID     uint32
	checksumFeed uint32
	clientNum    int32
	svPure       int
	pureSent     bool

	messageSeq  uint32
	outgoingSeq uint32

	commandSeq  int32
	reliableAck int32
	reliableSeq int32

	reliableCommands [protocol.MaxReliableCommands]string
	serverCommands   [protocol.MaxReliableCommands]string

	configStrings map[int32]string
	baselines     map[int32]*EntityState
	snapshots     snapshotStore
	snapshot      *Snapshot
	serverTime    uint32

	input       inputState
	lastUsercmd usercmd

	packets        chan []byte
	closed         chan struct{}
	closeOnce      sync.Once
	lastPacketTime time.Time

	// OnSnapshot runs after every decoded snapshot.
	OnSnapshot func(snap *Snapshot)
	// OnServerCommand runs for every new reliable server command.
	OnServerCommand func(sequence int32, command string)
	// OnChat runs for chat and team chat lines.
	OnChat func(sender, message string)
	// OnConfigString runs whenever a config string changes.
	OnConfigString func(index int32, value string)
	// OnStateChange runs on every connection state transition.
	OnStateChange func(from, to protocol.ConnState)
	// OnDisconnect runs once when the connection ends, with the reason.
	OnDisconnect func(reason string)
}

// New creates a client for the given server address. The client does
// not touch the network until Connect is called.
func New(serverAddr string, options ...Option) *Client {
	c := &Client{
		log:             zap.NewNop(),
		serverAddr:      serverAddr,
		protocolVersion: protocol.DefaultVersion,
		gameName:        protocol.GameName,
		name:            "UnnamedPlayer",
		qport:           uint16(rand.Intn(0xffff)),
		frameInterval:   defaultFrameInterval,
		timeout:         defaultTimeout,
		connectAttempts: defaultConnectAttempts,
		retryInterval:   defaultRetryInterval,
		assembler:       network.NewAssembler(),
		configStrings:   make(map[int32]string),
		baselines:       make(map[int32]*EntityState),
		packets:         make(chan []byte, 64),
		closed:          make(chan struct{}),
	}
	c.userinfo = DefaultUserInfo(c.name)

	for _, option := range options {
		option(c)
	}
	return c
}

// Connect dials the server and performs the handshake. On return the
// client is in the connected state and Run must be called to process
// the game traffic.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.state != protocol.ConnStateDisconnected {
		c.mu.Unlock()
		return fmt.Errorf("%w: already connected", ErrConnectFailed)
	}
	if c.transport == nil {
		transport, err := network.DialUDP(c.serverAddr)
		if err != nil {
			c.mu.Unlock()
			return fmt.Errorf("%w: %w", ErrConnectFailed, err)
		}
		c.transport = transport
	}
	c.lastPacketTime = time.Now()
	c.mu.Unlock()

	go c.readLoop()

	if err := c.handshake(ctx); err != nil {
		c.Disconnect()
		return err
	}

	c.log.Info("connected",
		zap.String("server", c.serverAddr),
		zap.Int("protocol", c.protocolVersion),
		zap.Uint16("qport", c.qport),
	)
	return nil
}

// Run processes server traffic and sends client frames until the
// context is cancelled or the connection drops. It returns nil on a
// clean disconnect.
func (c *Client) Run(ctx context.Context) error {
	c.mu.Lock()
	if c.state < protocol.ConnStateConnected {
		c.mu.Unlock()
		return ErrNotConnected
	}
	interval := c.frameInterval
	c.mu.Unlock()

	frames := time.NewTicker(interval)
	defer frames.Stop()

	for {
		select {
		case <-ctx.Done():
			c.Disconnect()
			return ctx.Err()
		case <-c.closed:
			return nil
		case data, ok := <-c.packets:
			if !ok {
				return nil
			}
			c.handlePacket(data)
		case now := <-frames.C:
			if err := c.sendFrame(now); err != nil {
				return err
			}
		}
	}
}

// Disconnect tears down the connection. It notifies the server when a
// sequenced channel is established and is safe to call more than once.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	events := c.dropLocked("client disconnect")
	c.mu.Unlock()
	c.runEvents(events)
	return nil
}

// dropLocked performs the actual teardown. Caller holds the lock; the
// returned callbacks run after it is released.
func (c *Client) dropLocked(reason string) []func() {
	if c.state == protocol.ConnStateDisconnected {
		return nil
	}

	if c.state >= protocol.ConnStateConnected && c.transport != nil {
		// best effort: tell the server we are leaving
		if _, err := c.queueCommandLocked("disconnect"); err == nil {
			for i := 0; i < 3; i++ {
				_ = c.transport.WritePacket(c.buildFrame())
			}
		}
	}

	events := c.setStateLocked(protocol.ConnStateDisconnected)
	c.assembler.Discard()

	c.closeOnce.Do(func() {
		close(c.closed)
		if c.transport != nil {
			_ = c.transport.Close()
		}
	})

	c.log.Info("disconnected", zap.String("reason", reason))
	if cb := c.OnDisconnect; cb != nil {
		events = append(events, func() { cb(reason) })
	}
	return events
}

// readLoop pulls packets off the transport and hands them to the loop
// goroutine. It exits when the transport closes.
func (c *Client) readLoop() {
	buf := make([]byte, protocol.MaxPacketLen+64)
	for {
		n, err := c.transport.ReadPacket(buf)
		if err != nil {
			select {
			case <-c.closed:
			default:
				c.log.Warn("read failed", zap.Error(err))
				c.mu.Lock()
				events := c.dropLocked("read error")
				c.mu.Unlock()
				c.runEvents(events)
			}
			return
		}
		data := make([]byte, n)
		copy(data, buf[:n])

		select {
		case c.packets <- data:
		case <-c.closed:
			return
		}
	}
}

// handlePacket processes one inbound datagram on the loop goroutine.
func (c *Client) handlePacket(data []byte) {
	c.mu.Lock()
	c.lastPacketTime = time.Now()

	if network.IsOOB(data) {
		events := c.handleOOBLocked(data)
		c.mu.Unlock()
		c.runEvents(events)
		return
	}

	pkt, err := network.ParseServerPacket(data, c.challenge)
	if err != nil {
		c.log.Debug("packet dropped", zap.Error(err))
		c.mu.Unlock()
		return
	}
	if pkt.Sequence <= c.messageSeq && c.messageSeq != 0 {
		// duplicate or out of order
		c.mu.Unlock()
		return
	}

	payload := pkt.Payload
	if pkt.Fragmented {
		assembled, done, err := c.assembler.Add(pkt.Sequence, payload)
		if err != nil {
			c.log.Debug("fragment dropped", zap.Error(err), zap.Uint32("sequence", pkt.Sequence))
			c.mu.Unlock()
			return
		}
		if !done {
			c.mu.Unlock()
			return
		}
		payload = assembled
	}

	message, err := compression.Game.Decompress(payload, protocol.MaxMessageLen)
	if err != nil {
		c.log.Warn("decompress failed", zap.Error(err), zap.Uint32("sequence", pkt.Sequence))
		c.mu.Unlock()
		return
	}

	c.messageSeq = pkt.Sequence
	c.assembler.Evict(pkt.Sequence)

	events, err := c.parseServerMessage(pkt.Sequence, message)
	if err != nil {
		c.log.Warn("message parse failed", zap.Error(err), zap.Uint32("sequence", pkt.Sequence))
	}
	c.mu.Unlock()
	c.runEvents(events)
}

// handleOOBLocked processes connectionless traffic that arrives after
// the handshake, e.g. prints and disconnect notices.
func (c *Client) handleOOBLocked(data []byte) []func() {
	command, args, ok := network.ParseOOB(data)
	if !ok {
		return nil
	}
	switch command {
	case "print":
		c.log.Info("server print", zap.String("text", strings.TrimSpace(args)))
		return nil
	case "disconnect":
		return c.dropLocked("server disconnect")
	default:
		c.log.Debug("unhandled connectionless command", zap.String("command", command))
		return nil
	}
}

// sendFrame emits one client frame and enforces the traffic timeout.
func (c *Client) sendFrame(now time.Time) error {
	c.mu.Lock()
	if c.state < protocol.ConnStateConnected {
		c.mu.Unlock()
		return nil
	}
	if now.Sub(c.lastPacketTime) > c.timeout {
		events := c.dropLocked("server timeout")
		c.mu.Unlock()
		c.runEvents(events)
		return ErrConnectionLost
	}
	frame := c.buildFrame()
	c.mu.Unlock()

	if err := c.transport.WritePacket(frame); err != nil {
		c.mu.Lock()
		events := c.dropLocked("write error")
		c.mu.Unlock()
		c.runEvents(events)
		return fmt.Errorf("%w: %w", ErrConnectionLost, err)
	}
	return nil
}

// setState transitions the connection state under the lock and fires
// the callback afterwards.
func (c *Client) setState(to protocol.ConnState) {
	c.mu.Lock()
	events := c.setStateLocked(to)
	c.mu.Unlock()
	c.runEvents(events)
}

func (c *Client) setStateLocked(to protocol.ConnState) []func() {
	from := c.state
	if from == to {
		return nil
	}
	c.state = to
	c.log.Debug("state change",
		zap.Stringer("from", from),
		zap.Stringer("to", to),
	)

	if to == protocol.ConnStateConnected && from > protocol.ConnStateConnected {
		// map change: the world state restarts with the next gamestate
		c.snapshots.reset()
		c.snapshot = nil
		c.baselines = make(map[int32]*EntityState)
		c.configStrings = make(map[int32]string)
		c.pureSent = false
	}

	if cb := c.OnStateChange; cb != nil {
		return []func(){func() { cb(from, to) }}
	}
	return nil
}

func (c *Client) runEvents(events []func()) {
	for _, event := range events {
		event()
	}
}

// State returns the current connection state.
func (c *Client) State() protocol.ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ClientNum returns the slot the server assigned, or -1 before the
// gamestate arrived.
func (c *Client) ClientNum() int32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state < protocol.ConnStatePrimed {
		return -1
	}
	return c.clientNum
}

// CurrentSnapshot returns the latest decoded snapshot, or nil.
func (c *Client) CurrentSnapshot() *Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot
}

// ConfigString returns the config string at index, or the empty string.
func (c *Client) ConfigString(index int32) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.configStrings[index]
}

// PlayerName returns the name of the player in the given slot, parsed
// from its player config string.
func (c *Client) PlayerName(clientNum int32) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	cs := c.configStrings[protocol.CSPlayers+clientNum]
	if cs == "" {
		return ""
	}
	return ParseInfo(cs)["n"]
}

// ServerTime returns the server time of the latest snapshot.
func (c *Client) ServerTime() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.serverTime
}
