package client

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jxsl13/q3api/compression"
	"github.com/jxsl13/q3api/network"
	"github.com/jxsl13/q3api/protocol"
)

// handshake drives the connectionless phase: it requests a challenge,
// sends the connect request and waits for the server to acknowledge it.
// Resends happen per retry interval, bounded by the attempt count.
func (c *Client) handshake(ctx context.Context) error {
	if err := c.awaitChallenge(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrConnectFailed, err)
	}
	if err := c.awaitConnectResponse(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrConnectFailed, err)
	}
	return nil
}

func (c *Client) awaitChallenge(ctx context.Context) error {
	c.setState(protocol.ConnStateChallenging)

	request := network.OOB("getchallenge 0 " + c.gameName)
	return c.oobExchange(ctx, request, func(command, args string) (bool, error) {
		switch command {
		case "challengeResponse":
			fields := strings.Fields(args)
			if len(fields) == 0 {
				return false, fmt.Errorf("empty challengeResponse")
			}
			challenge, err := strconv.ParseInt(fields[0], 10, 64)
			if err != nil {
				return false, fmt.Errorf("bad challenge %q: %w", fields[0], err)
			}
			if len(fields) >= 3 {
				if v, err := strconv.Atoi(fields[2]); err == nil && v != c.protocolVersion {
					return false, fmt.Errorf("%w: server speaks protocol %d, client %d",
						ErrProtocolMismatch, v, c.protocolVersion)
				}
			}
			c.mu.Lock()
			c.challenge = uint32(challenge)
			c.mu.Unlock()
			c.log.Debug("challenge received", zap.Int64("challenge", challenge))
			return true, nil
		case "print":
			if isProtocolComplaint(args) {
				return false, fmt.Errorf("%w: %s", ErrProtocolMismatch, strings.TrimSpace(args))
			}
			c.log.Info("server print", zap.String("text", strings.TrimSpace(args)))
			return false, nil
		default:
			return false, nil
		}
	})
}

func (c *Client) awaitConnectResponse(ctx context.Context) error {
	c.setState(protocol.ConnStateConnecting)

	c.mu.Lock()
	request := network.OOBData("connect ", compression.CompressOOB(compression.Connect, []byte(c.connectString())))
	c.mu.Unlock()

	return c.oobExchange(ctx, request, func(command, args string) (bool, error) {
		switch command {
		case "connectResponse":
			c.setState(protocol.ConnStateConnected)
			return true, nil
		case "print":
			if isProtocolComplaint(args) {
				return false, fmt.Errorf("%w: %s", ErrProtocolMismatch, strings.TrimSpace(args))
			}
			c.log.Info("server print", zap.String("text", strings.TrimSpace(args)))
			return false, nil
		default:
			return false, nil
		}
	})
}

// oobExchange sends request and feeds every connectionless reply to
// handle until it reports completion. The request is resent each retry
// interval, up to the configured attempt count.
func (c *Client) oobExchange(ctx context.Context, request []byte, handle func(command, args string) (bool, error)) error {
	retry := time.NewTicker(c.retryInterval)
	defer retry.Stop()

	attempts := 0
	send := func() error {
		attempts++
		if attempts > c.connectAttempts {
			return fmt.Errorf("no response from %s after %d attempts", c.serverAddr, c.connectAttempts)
		}
		return c.transport.WritePacket(request)
	}
	if err := send(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.closed:
			return ErrConnectionLost
		case <-retry.C:
			if err := send(); err != nil {
				return err
			}
		case data, ok := <-c.packets:
			if !ok {
				return ErrConnectionLost
			}
			command, args, ok := network.ParseOOB(data)
			if !ok {
				// sequenced traffic before the handshake completes is stale
				continue
			}
			done, err := handle(command, args)
			if err != nil {
				return err
			}
			if done {
				return nil
			}
		}
	}
}

// connectString renders the quoted userinfo payload of the connect
// request. Caller holds the lock.
func (c *Client) connectString() string {
	var sb strings.Builder
	sb.WriteByte('"')
	sb.WriteString(fmt.Sprintf(`\protocol\%d\challenge\%d\qport\%d`,
		c.protocolVersion, c.challenge, c.qport))

	keys := make([]string, 0, len(c.userinfo))
	for k := range c.userinfo {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sb.WriteByte('\\')
		sb.WriteString(k)
		sb.WriteByte('\\')
		sb.WriteString(c.userinfo[k])
	}
	sb.WriteByte('"')
	return sb.String()
}

func isProtocolComplaint(text string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, "protocol") ||
		strings.Contains(lower, "unsupported") ||
		strings.Contains(lower, "game mismatch")
}
