package client

import (
	"time"

	"go.uber.org/zap"

	"github.com/jxsl13/q3api/network"
)

// Option configures a Client before it connects.
type Option func(*Client)

// WithLogger replaces the default nop logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// WithName sets the in game player name.
func WithName(name string) Option {
	return func(c *Client) {
		if name != "" {
			c.name = name
			c.userinfo["name"] = name
		}
	}
}

// WithUserInfo overrides a single userinfo key sent with the connect
// request.
func WithUserInfo(key, value string) Option {
	return func(c *Client) {
		c.userinfo[key] = value
	}
}

// WithProtocolVersion overrides the wire protocol version.
func WithProtocolVersion(version int) Option {
	return func(c *Client) {
		if version > 0 {
			c.protocolVersion = version
		}
	}
}

// WithGameName overrides the game identifier sent with getchallenge.
func WithGameName(name string) Option {
	return func(c *Client) {
		if name != "" {
			c.gameName = name
		}
	}
}

// WithQPort fixes the qport instead of choosing a random one.
func WithQPort(qport uint16) Option {
	return func(c *Client) {
		c.qport = qport
	}
}

// WithTransport supplies an already connected transport, e.g. a
// WebSocket transport for browser based servers. The server address
// passed to New is then informational only.
func WithTransport(t network.Transport) Option {
	return func(c *Client) {
		c.transport = t
	}
}

// WithTimeout sets how long the connection survives without any server
// traffic before it is dropped.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithFrameRate sets how many client frames are sent per second.
func WithFrameRate(fps int) Option {
	return func(c *Client) {
		if fps > 0 {
			c.frameInterval = time.Second / time.Duration(fps)
		}
	}
}

// WithConnectAttempts bounds the handshake resend count per phase.
func WithConnectAttempts(attempts int) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.connectAttempts = attempts
		}
	}
}

// WithRetryInterval sets the handshake resend interval.
func WithRetryInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.retryInterval = d
		}
	}
}

// WithPureChecksums supplies the referenced pak checksum string sent
// during the cp handshake on sv_pure servers.
func WithPureChecksums(checksums string) Option {
	return func(c *Client) {
		c.pureChecksums = checksums
	}
}
