package network

import (
	"context"
	"fmt"

	"github.com/gorilla/websocket"
)

// WebSocketTransport speaks the identical byte protocol over binary
// WebSocket frames. Browser-hosted servers expose the game port this way;
// each frame carries exactly one packet.
type WebSocketTransport struct {
	conn *websocket.Conn
}

// DialWebSocket connects to a ws:// or wss:// URL.
func DialWebSocket(ctx context.Context, url string) (*WebSocketTransport, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %q: %w", url, err)
	}
	return &WebSocketTransport{conn: conn}, nil
}

func (t *WebSocketTransport) WritePacket(data []byte) error {
	return t.conn.WriteMessage(websocket.BinaryMessage, data)
}

func (t *WebSocketTransport) ReadPacket(buf []byte) (int, error) {
	for {
		messageType, data, err := t.conn.ReadMessage()
		if err != nil {
			return 0, err
		}
		if messageType != websocket.BinaryMessage {
			continue
		}
		if len(data) > len(buf) {
			return 0, fmt.Errorf("packet of %d bytes exceeds read buffer", len(data))
		}
		return copy(buf, data), nil
	}
}

func (t *WebSocketTransport) Close() error {
	return t.conn.Close()
}
