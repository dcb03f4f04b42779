// Package status implements the connectionless server queries that do
// not require a game connection: getinfo and getstatus.
package status

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jxsl13/q3api/network"
)

var (
	// ErrNoResponse is returned when the server does not answer within
	// the retry budget.
	ErrNoResponse = errors.New("no response from server")
	// ErrMalformedResponse is returned when the reply cannot be parsed.
	ErrMalformedResponse = errors.New("malformed response")
)

const (
	initialTimeout = 250 * time.Millisecond
	maxRetries     = 5
)

// Player is one scoreboard line of a getstatus reply.
type Player struct {
	Name  string
	Score int
	Ping  int
}

// ServerInfo is the parsed reply of a getinfo or getstatus query.
type ServerInfo struct {
	// Info holds the raw backslash separated key value pairs.
	Info map[string]string
	// Players is only populated by getstatus.
	Players []Player
}

// HostName returns the advertised server name.
func (s *ServerInfo) HostName() string {
	if v, ok := s.Info["sv_hostname"]; ok {
		return v
	}
	return s.Info["hostname"]
}

// Map returns the current map name.
func (s *ServerInfo) Map() string {
	return s.Info["mapname"]
}

// MaxClients returns the player slot count.
func (s *ServerInfo) MaxClients() int {
	n, _ := strconv.Atoi(s.Info["sv_maxclients"])
	return n
}

// Protocol returns the wire protocol version the server speaks.
func (s *ServerInfo) Protocol() int {
	n, _ := strconv.Atoi(s.Info["protocol"])
	return n
}

// GetInfo queries the lightweight server info. The challenge string is
// echoed by the server and verified here.
func GetInfo(ctx context.Context, addr string) (*ServerInfo, error) {
	return query(ctx, addr, "getinfo", "infoResponse", false)
}

// GetStatus queries the full server status including the player list.
func GetStatus(ctx context.Context, addr string) (*ServerInfo, error) {
	return query(ctx, addr, "getstatus", "statusResponse", true)
}

func query(ctx context.Context, addr, request, response string, players bool) (*ServerInfo, error) {
	transport, err := network.DialUDP(addr)
	if err != nil {
		return nil, err
	}
	defer transport.Close()

	challenge := fmt.Sprintf("%d", time.Now().UnixNano()&0x7fffffff)
	packet := network.OOB(request + " " + challenge)

	timeout := initialTimeout
	buf := make([]byte, 65536)

	for attempt := 0; attempt < maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := transport.WritePacket(packet); err != nil {
			return nil, err
		}

		deadline := time.Now().Add(timeout)
		if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
			deadline = ctxDeadline
		}
		_ = transport.SetReadDeadline(deadline)

		n, err := transport.ReadPacket(buf)
		if err != nil {
			// exponential backoff on timeouts, like the master server
			// browser queries
			timeout *= 2
			continue
		}

		info, err := parseResponse(buf[:n], response, challenge, players)
		if err != nil {
			return nil, err
		}
		if info != nil {
			return info, nil
		}
	}
	return nil, fmt.Errorf("%w: %s after %d attempts", ErrNoResponse, addr, maxRetries)
}

// parseResponse returns (nil, nil) for unrelated packets so the caller
// keeps waiting.
func parseResponse(data []byte, response, challenge string, players bool) (*ServerInfo, error) {
	command, args, ok := network.ParseOOB(data)
	if !ok || command != response {
		return nil, nil
	}

	lines := strings.Split(args, "\n")
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: empty %s", ErrMalformedResponse, response)
	}

	info := ParseInfoString(lines[0])
	if c, ok := info["challenge"]; ok && c != challenge {
		return nil, nil
	}

	result := &ServerInfo{Info: info}
	if !players {
		return result, nil
	}

	for _, line := range lines[1:] {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		player, err := parsePlayer(line)
		if err != nil {
			return nil, err
		}
		result.Players = append(result.Players, player)
	}
	return result, nil
}

// parsePlayer parses one `score ping "name"` scoreboard line.
func parsePlayer(line string) (Player, error) {
	fields := strings.SplitN(line, " ", 3)
	if len(fields) != 3 {
		return Player{}, fmt.Errorf("%w: player line %q", ErrMalformedResponse, line)
	}
	score, err := strconv.Atoi(fields[0])
	if err != nil {
		return Player{}, fmt.Errorf("%w: score %q", ErrMalformedResponse, fields[0])
	}
	ping, err := strconv.Atoi(fields[1])
	if err != nil {
		return Player{}, fmt.Errorf("%w: ping %q", ErrMalformedResponse, fields[1])
	}
	return Player{
		Name:  strings.Trim(fields[2], "\""),
		Score: score,
		Ping:  ping,
	}, nil
}

// ParseInfoString splits a backslash separated info string into a map.
func ParseInfoString(s string) map[string]string {
	info := make(map[string]string)
	parts := strings.Split(strings.TrimPrefix(s, "\\"), "\\")
	for i := 0; i+1 < len(parts); i += 2 {
		info[parts[i]] = parts[i+1]
	}
	return info
}
