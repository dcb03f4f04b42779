package network

import (
	"fmt"
	"net"
	"time"
)

// large enough that a burst of snapshots does not drop at the socket
const receiveBufferSize = 65536

// UDPTransport is the default transport: one connected UDP socket per
// game server.
type UDPTransport struct {
	conn *net.UDPConn
}

// DialUDP connects a UDP socket to addr ("host:port"). The operating
// system assigns the local port.
func DialUDP(addr string) (*UDPTransport, error) {
	raddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve server address %q: %w", addr, err)
	}

	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %q: %w", addr, err)
	}

	err = conn.SetReadBuffer(receiveBufferSize)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to set read buffer: %w", err)
	}

	return &UDPTransport{conn: conn}, nil
}

func (t *UDPTransport) WritePacket(data []byte) error {
	n, err := t.conn.Write(data)
	if err != nil {
		return err
	}
	if n != len(data) {
		return fmt.Errorf("short write: %d of %d bytes", n, len(data))
	}
	return nil
}

func (t *UDPTransport) ReadPacket(buf []byte) (int, error) {
	return t.conn.Read(buf)
}

// SetReadDeadline bounds the next ReadPacket call. Used by the
// connectionless status queries.
func (t *UDPTransport) SetReadDeadline(deadline time.Time) error {
	return t.conn.SetReadDeadline(deadline)
}

func (t *UDPTransport) Close() error {
	return t.conn.Close()
}

// LocalAddr returns the bound local address, useful for logging.
func (t *UDPTransport) LocalAddr() net.Addr {
	return t.conn.LocalAddr()
}
