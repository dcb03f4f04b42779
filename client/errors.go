package client

import "errors"

var (
	// ErrConnectFailed is returned when the handshake does not complete
	// within the configured attempt ceiling.
	ErrConnectFailed = errors.New("connect failed")

	// ErrProtocolMismatch is returned when the server rejects the
	// handshake due to a protocol version or game name mismatch.
	ErrProtocolMismatch = errors.New("protocol mismatch")

	// ErrDeltaReference is returned when the base snapshot a delta
	// snapshot refers to is no longer in the history. The snapshot is
	// dropped; a later non-delta snapshot heals the stream.
	ErrDeltaReference = errors.New("delta reference snapshot not available")

	// ErrFieldCountOutOfRange is returned when a decoded count exceeds
	// the schema bounds, indicating bit stream misalignment. The packet
	// is treated as corrupt and dropped.
	ErrFieldCountOutOfRange = errors.New("field count out of range")

	// ErrConnectionLost is returned when no packet arrived within the
	// inactivity timeout.
	ErrConnectionLost = errors.New("connection lost")

	// ErrReliableOverflow is returned when more reliable commands are
	// queued than the server has acknowledged room for.
	ErrReliableOverflow = errors.New("reliable command buffer overflow")

	// ErrNotConnected is returned by operations that require an
	// established connection.
	ErrNotConnected = errors.New("not connected")
)
