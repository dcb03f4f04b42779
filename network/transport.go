package network

// Transport is a framed byte transport to a single game server. One
// packet in equals one datagram (or one WebSocket frame) on the wire;
// the protocol layer never sees partial packets.
//
// ReadPacket blocks until a packet arrives or the transport is closed.
// Implementations must allow Close to be called concurrently with a
// blocked ReadPacket to unblock it.
type Transport interface {
	WritePacket(data []byte) error
	ReadPacket(buf []byte) (int, error)
	Close() error
}
