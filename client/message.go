package client

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/jxsl13/q3api/compression"
	"github.com/jxsl13/q3api/protocol"
)

// maxAreaBytes bounds the area mask length field; larger values indicate
// a misaligned bit stream.
const maxAreaBytes = 32

// parseServerMessage consumes one decompressed server message. Caller
// holds the lock; the returned callbacks are run after it is released.
func (c *Client) parseServerMessage(sequence uint32, data []byte) ([]func(), error) {
	r := compression.NewReader(data)

	reliableAck, err := r.ReadLong()
	if err != nil {
		return nil, err
	}
	if int32(reliableAck) > c.reliableAck {
		c.reliableAck = int32(reliableAck)
	}

	var events []func()
	for {
		if r.BitsRemaining() < 8 {
			break
		}
		op, err := r.ReadByte()
		if err != nil {
			return events, err
		}

		switch protocol.ServerOp(op) {
		case protocol.SvcEOF:
			return events, nil
		case protocol.SvcNop:
			continue
		case protocol.SvcServerCommand:
			evs, err := c.parseServerCommand(r)
			events = append(events, evs...)
			if err != nil {
				return events, err
			}
		case protocol.SvcGamestate:
			evs, err := c.parseGamestate(r)
			events = append(events, evs...)
			if err != nil {
				return events, err
			}
		case protocol.SvcConfigString:
			ev, err := c.parseConfigString(r)
			if ev != nil {
				events = append(events, ev)
			}
			if err != nil {
				return events, err
			}
		case protocol.SvcBaseline:
			if err := c.parseBaseline(r); err != nil {
				return events, err
			}
		case protocol.SvcSnapshot:
			evs, err := c.parseSnapshot(r, sequence)
			events = append(events, evs...)
			if err != nil {
				return events, err
			}
		default:
			// svc_download and anything unknown ends the message
			return events, nil
		}
	}
	return events, nil
}

func (c *Client) parseServerCommand(r *compression.Reader) ([]func(), error) {
	seq, err := r.ReadLong()
	if err != nil {
		return nil, err
	}
	text, err := r.ReadString()
	if err != nil {
		return nil, err
	}

	if int32(seq) <= c.commandSeq {
		// already processed under an earlier sequence
		return nil, nil
	}
	c.commandSeq = int32(seq)
	c.serverCommands[seq%protocol.MaxReliableCommands] = text

	return c.handleServerCommand(int32(seq), text), nil
}

// handleServerCommand dispatches one reliable server command to the
// registered callbacks and handles the commands the client consumes
// itself. Caller holds the lock.
func (c *Client) handleServerCommand(seq int32, text string) []func() {
	var events []func()

	if cb := c.OnServerCommand; cb != nil {
		events = append(events, func() { cb(seq, text) })
	}

	word, args, _ := strings.Cut(text, " ")
	switch word {
	case "chat", "tchat":
		if cb := c.OnChat; cb != nil {
			sender, message := splitChat(args)
			events = append(events, func() { cb(sender, message) })
		}
	case "cs":
		// config string update delivered as a reliable command
		index, value, ok := strings.Cut(args, " ")
		if ok {
			if i, err := strconv.Atoi(index); err == nil {
				c.setConfigString(int32(i), strings.Trim(value, "\""))
				if cb := c.OnConfigString; cb != nil {
					i32 := int32(i)
					v := strings.Trim(value, "\"")
					events = append(events, func() { cb(i32, v) })
				}
			}
		}
	case "disconnect":
		reason := "server disconnect"
		if parts := strings.Split(text, "\""); len(parts) >= 2 {
			reason = parts[1]
		}
		events = append(events, c.dropLocked(reason)...)
	}
	return events
}

// splitChat extracts the sender from a chat line of the form
// `name: message`, stripping the color escape bytes.
func splitChat(args string) (sender, message string) {
	quoted := args
	if parts := strings.Split(args, "\""); len(parts) >= 2 {
		quoted = parts[1]
	}
	sender, message, ok := strings.Cut(quoted, ": ")
	if !ok {
		return "?", quoted
	}
	return strings.Trim(sender, "\x19"), message
}

func (c *Client) parseConfigString(r *compression.Reader) (func(), error) {
	index, err := r.ReadShort()
	if err != nil {
		return nil, err
	}
	if int(index) >= protocol.MaxConfigStrings {
		return nil, fmt.Errorf("%w: config string index %d", ErrFieldCountOutOfRange, index)
	}
	value, err := r.ReadString()
	if err != nil {
		return nil, err
	}

	c.setConfigString(int32(index), value)
	if cb := c.OnConfigString; cb != nil {
		i := int32(index)
		return func() { cb(i, value) }, nil
	}
	return nil, nil
}

// setConfigString stores one config string and derives the connection
// values carried by the system info string. Caller holds the lock.
func (c *Client) setConfigString(index int32, value string) {
	c.configStrings[index] = value

	if index == protocol.CSSystemInfo {
		info := ParseInfo(value)
		if v, ok := info["sv_serverid"]; ok {
			if id, err := strconv.ParseUint(v, 10, 32); err == nil {
				c.serverID = uint32(id)
			}
		}
		if v, ok := info["sv_pure"]; ok {
			if pure, err := strconv.Atoi(v); err == nil {
				c.svPure = pure
			}
		}
	}
}

func (c *Client) parseBaseline(r *compression.Reader) error {
	number, err := r.ReadBits(protocol.GentityBits)
	if err != nil {
		return err
	}
	if number < 0 || number >= protocol.EntitySentinel {
		return fmt.Errorf("%w: baseline entity %d", ErrFieldCountOutOfRange, number)
	}

	es, removed, err := readDeltaEntity(r, nil, number)
	if err != nil {
		return err
	}
	if !removed {
		baseline := es
		c.baselines[number] = &baseline
	}
	return nil
}

func (c *Client) parseGamestate(r *compression.Reader) ([]func(), error) {
	var events []func()

	// a gamestate in a running game is a map change: drop back to
	// Connected (which clears the world state) before the new config
	// strings and baselines are loaded below
	if c.state > protocol.ConnStateConnected {
		events = append(events, c.setStateLocked(protocol.ConnStateConnected)...)
	}

	commandSeq, err := r.ReadLong()
	if err != nil {
		return events, err
	}
	c.commandSeq = int32(commandSeq)

loop:
	for {
		op, err := r.ReadByte()
		if err != nil {
			return events, err
		}

		switch protocol.ServerOp(op) {
		case protocol.SvcEOF:
			break loop
		case protocol.SvcConfigString:
			ev, err := c.parseConfigString(r)
			if ev != nil {
				events = append(events, ev)
			}
			if err != nil {
				return events, err
			}
		case protocol.SvcBaseline:
			if err := c.parseBaseline(r); err != nil {
				return events, err
			}
		default:
			return events, fmt.Errorf("%w: unexpected op %d in gamestate",
				ErrFieldCountOutOfRange, op)
		}
	}

	clientNum, err := r.ReadLong()
	if err != nil {
		return events, err
	}
	checksumFeed, err := r.ReadLong()
	if err != nil {
		return events, err
	}

	c.clientNum = int32(clientNum)
	c.checksumFeed = checksumFeed

	c.log.Info("gamestate loaded",
		zap.Int32("client_num", c.clientNum),
		zap.Uint32("server_id", c.serverID),
		zap.Int("config_strings", len(c.configStrings)),
		zap.Int("baselines", len(c.baselines)),
	)

	if c.state == protocol.ConnStateConnected && len(c.configStrings) > 0 && c.clientNum >= 0 {
		events = append(events, c.setStateLocked(protocol.ConnStatePrimed)...)

		if c.protocolVersion != 71 {
			// newer servers enter the world from movement traffic alone
			if _, err := c.queueCommandLocked(fmt.Sprintf("begin %d", c.serverID)); err != nil {
				c.log.Warn("failed to queue begin", zap.Error(err))
			}
		}
		events = append(events, c.maybeSendPureLocked()...)
	}

	return events, nil
}

// maybeSendPureLocked queues the pure checksum handshake once per
// gamestate when the server demands it. Without a configured payload the
// server ignores movement commands on pure servers.
func (c *Client) maybeSendPureLocked() []func() {
	if c.pureSent || c.svPure == 0 {
		c.pureSent = true
		return nil
	}

	if c.pureChecksums == "" {
		c.log.Warn("server runs sv_pure 1 but no pure checksums are configured; " +
			"movement will be ignored until a cp command is sent")
		return nil
	}

	if _, err := c.queueCommandLocked(fmt.Sprintf("cp %d %s", c.serverID, c.pureChecksums)); err != nil {
		c.log.Warn("failed to queue pure checksum handshake", zap.Error(err))
		return nil
	}
	_, _ = c.queueCommandLocked("vdr")
	c.pureSent = true
	return nil
}

func (c *Client) parseSnapshot(r *compression.Reader, sequence uint32) ([]func(), error) {
	serverTime, err := r.ReadLong()
	if err != nil {
		return nil, err
	}
	deltaNum, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	snapFlags, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	areaLen, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	if int(areaLen) > maxAreaBytes {
		return nil, fmt.Errorf("%w: area mask %d bytes", ErrFieldCountOutOfRange, areaLen)
	}
	areaMask, err := r.ReadData(int(areaLen))
	if err != nil {
		return nil, err
	}

	// resolve the delta base; deltaNum == 0 means self contained
	var (
		base    *Snapshot
		baseErr error
	)
	if deltaNum != 0 {
		base, baseErr = c.snapshots.get(sequence - uint32(deltaNum))
	}

	var basePS *PlayerState
	if base != nil {
		basePS = &base.PlayerState
	}
	ps, err := readDeltaPlayerState(r, basePS)
	if err != nil {
		return nil, err
	}

	entities, err := c.readPacketEntities(r, base)
	if err != nil {
		return nil, err
	}

	if baseErr != nil {
		// the stream stays aligned because the message was fully
		// consumed against the (unavailable) base; the decoded result
		// is meaningless and must be discarded
		c.log.Debug("snapshot dropped", zap.Error(baseErr), zap.Uint32("sequence", sequence))
		return nil, nil
	}

	snap := &Snapshot{
		Sequence:    sequence,
		ServerTime:  serverTime,
		DeltaNum:    deltaNum,
		SnapFlags:   snapFlags,
		AreaMask:    areaMask,
		PlayerState: ps,
		Entities:    entities,
	}

	c.snapshots.put(snap)
	c.snapshot = snap
	c.serverTime = serverTime

	var events []func()
	if c.state == protocol.ConnStatePrimed {
		events = append(events, c.setStateLocked(protocol.ConnStateActive)...)
	}
	if cb := c.OnSnapshot; cb != nil {
		events = append(events, func() { cb(snap) })
	}
	return events, nil
}

// readPacketEntities merges the entity updates of the message with the
// base snapshot: entities below the next updated number carry over
// unchanged, updated ones decode against their previous state (or the
// gamestate baseline), removed ones drop out.
func (c *Client) readPacketEntities(r *compression.Reader, base *Snapshot) ([]EntityState, error) {
	var old []EntityState
	if base != nil {
		old = base.Entities
	}

	entities := make([]EntityState, 0, len(old)+8)
	oldIdx := 0

	for {
		number, err := r.ReadBits(protocol.GentityBits)
		if err != nil {
			return nil, err
		}
		if number == protocol.EntitySentinel {
			break
		}
		if len(entities) >= protocol.MaxGentities {
			return nil, fmt.Errorf("%w: too many entities", ErrFieldCountOutOfRange)
		}

		for oldIdx < len(old) && old[oldIdx].Number < number {
			entities = append(entities, old[oldIdx])
			oldIdx++
		}

		var baseEnt *EntityState
		if oldIdx < len(old) && old[oldIdx].Number == number {
			baseEnt = &old[oldIdx]
			oldIdx++
		} else if bl := c.baselines[number]; bl != nil {
			baseEnt = bl
		}

		es, removed, err := readDeltaEntity(r, baseEnt, number)
		if err != nil {
			return nil, err
		}
		if !removed {
			entities = append(entities, es)
		}
	}

	for oldIdx < len(old) {
		entities = append(entities, old[oldIdx])
		oldIdx++
	}
	return entities, nil
}
