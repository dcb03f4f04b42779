package client

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/jxsl13/q3api/compression"
	"github.com/jxsl13/q3api/network"
	"github.com/jxsl13/q3api/protocol"
)

// Command queues a reliable command for delivery with the next frames.
// A leading "/" console prefix is tolerated. The command sequence is
// returned; the command is resent until the server acknowledges it.
func (c *Client) Command(command string) (int32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queueCommandLocked(command)
}

func (c *Client) queueCommandLocked(command string) (int32, error) {
	command = strings.TrimSpace(command)
	for strings.HasPrefix(command, "/") {
		command = strings.TrimSpace(command[1:])
	}
	if command == "" {
		return 0, fmt.Errorf("empty reliable command")
	}

	if c.reliableSeq-c.reliableAck >= protocol.MaxReliableCommands {
		return 0, ErrReliableOverflow
	}
	c.reliableSeq++
	c.reliableCommands[c.reliableSeq%protocol.MaxReliableCommands] = command
	return c.reliableSeq, nil
}

// Say sends a chat message to all players.
func (c *Client) Say(message string) (int32, error) {
	clean := strings.TrimSpace(strings.ReplaceAll(message, `"`, "'"))
	return c.Command(fmt.Sprintf(`say "%s"`, clean))
}

// SayTeam sends a team chat message.
func (c *Client) SayTeam(message string) (int32, error) {
	clean := strings.TrimSpace(strings.ReplaceAll(message, `"`, "'"))
	return c.Command(fmt.Sprintf(`say_team "%s"`, clean))
}

// buildFrame assembles one outgoing client frame: the sequenced header
// and a Huffman coded payload with acks, unacknowledged reliable
// commands and the movement command. Caller holds the lock.
func (c *Client) buildFrame() []byte {
	w := compression.NewWriter()

	w.WriteLong(c.serverID)
	w.WriteLong(c.messageSeq)
	w.WriteLong(uint32(c.commandSeq))

	// resend everything the server has not acknowledged yet
	for i := c.reliableAck + 1; i <= c.reliableSeq; i++ {
		w.WriteByte(byte(protocol.ClcClientCommand))
		w.WriteLong(uint32(i))
		w.WriteString(c.reliableCommands[i%protocol.MaxReliableCommands])
	}

	// clc_moveNoDelta: the server decodes the command against an all
	// zero baseline, so the delta base is the null command every frame.
	// lastUsercmd only carries the angle and weapon memory forward.
	cmd := c.nextUsercmd()
	var null usercmd
	w.WriteByte(byte(protocol.ClcMoveNoDelta))
	w.WriteByte(1) // command count
	writeDeltaUsercmd(w, c.commandKey(), &null, &cmd)
	c.lastUsercmd = cmd

	w.WriteByte(byte(protocol.ClcEOF))

	payload := compression.Game.Compress(w.Bytes())

	packet := make([]byte, 10, 10+len(payload))
	binary.LittleEndian.PutUint32(packet, c.outgoingSeq)
	binary.LittleEndian.PutUint16(packet[4:], c.qport)
	binary.LittleEndian.PutUint32(packet[6:], network.Checksum(c.challenge, c.outgoingSeq))
	c.outgoingSeq++

	return append(packet, payload...)
}

// commandKey derives the XOR key protecting the movement command fields.
// Both ends compute it from the checksum feed, the last processed server
// message and the last acknowledged server command text.
func (c *Client) commandKey() uint32 {
	key := c.checksumFeed
	key ^= c.messageSeq
	key ^= hashKey(c.serverCommands[c.commandSeq%protocol.MaxReliableCommands])
	return key
}

func hashKey(text string) uint32 {
	var hash uint32
	for i := 0; i < len(text) && i < 32; i++ {
		hash += uint32(text[i]) * (119 + uint32(i))
	}
	return hash ^ (hash >> 10) ^ (hash >> 20)
}

// writeDeltaUsercmd writes one movement command as a delta against the
// previous one. Small time steps fit 8 bits; all other fields are key
// XORed with the command key mixed with the server time.
func writeDeltaUsercmd(w *compression.Writer, key uint32, old, new_ *usercmd) {
	timeDelta := new_.ServerTime - old.ServerTime
	if old.ServerTime != 0 && timeDelta < 256 {
		w.WriteBit(1)
		w.WriteBits(int32(timeDelta), 8)
	} else {
		w.WriteBit(0)
		w.WriteLong(new_.ServerTime)
	}

	changed := old.Angles != new_.Angles ||
		old.Forward != new_.Forward ||
		old.Right != new_.Right ||
		old.Up != new_.Up ||
		old.Buttons != new_.Buttons ||
		old.Weapon != new_.Weapon
	if !changed {
		w.WriteBit(0)
		return
	}
	w.WriteBit(1)

	keyed := key ^ new_.ServerTime

	w.WriteDeltaKey(old.Angles[0], new_.Angles[0], 16, keyed)
	w.WriteDeltaKey(old.Angles[1], new_.Angles[1], 16, keyed)
	w.WriteDeltaKey(old.Angles[2], new_.Angles[2], 16, keyed)
	w.WriteDeltaKey(old.Forward, new_.Forward, 8, keyed)
	w.WriteDeltaKey(old.Right, new_.Right, 8, keyed)
	w.WriteDeltaKey(old.Up, new_.Up, 8, keyed)
	w.WriteDeltaKey(old.Buttons, new_.Buttons, 16, keyed)
	w.WriteDeltaKey(old.Weapon, new_.Weapon, 8, keyed)
}
