package connection

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"nhooyr.io/websocket"

	"github.com/hrntsm/grasshopper-mcp/internal/protocol"
)

// WSReader reads messages from a WebSocket connection. Each text message
// carries exactly one line.
type WSReader struct {
	conn *websocket.Conn
	ctx  context.Context
}

// NewWSReader creates a new WSReader wrapping the given WebSocket connection.
func NewWSReader(ctx context.Context, conn *websocket.Conn) *WSReader {
	return &WSReader{conn: conn, ctx: ctx}
}

// ReadLine reads a single text message from the WebSocket.
// Returns (nil, nil) on normal close, mirroring a TCP peer closing its side.
func (r *WSReader) ReadLine() ([]byte, error) {
	msgType, data, err := r.conn.Read(r.ctx)
	if err != nil {
		var closeErr websocket.CloseError
		if errors.As(err, &closeErr) {
			return nil, nil
		}
		return nil, err
	}
	if msgType != websocket.MessageText {
		return nil, fmt.Errorf("unexpected websocket message type: %d", msgType)
	}
	return data, nil
}

// Close sends a normal closure message and closes the WebSocket.
func (r *WSReader) Close() error {
	return r.conn.Close(websocket.StatusNormalClosure, "")
}

// WSWriter writes messages to a WebSocket connection.
// It is safe for concurrent use.
type WSWriter struct {
	conn *websocket.Conn
	ctx  context.Context
	mu   sync.Mutex
}

// NewWSWriter creates a new WSWriter wrapping the given WebSocket connection.
func NewWSWriter(ctx context.Context, conn *websocket.Conn) *WSWriter {
	return &WSWriter{conn: conn, ctx: ctx}
}

// WriteLine sends line as one text message.
func (w *WSWriter) WriteLine(line []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.Write(w.ctx, websocket.MessageText, line)
}

// SendCommand encodes cmd and sends it as one text message.
func (w *WSWriter) SendCommand(cmd *protocol.Command) error {
	line, err := protocol.EncodeCommand(cmd)
	if err != nil {
		return err
	}
	return w.WriteLine(line)
}

// SendResponse encodes resp and sends it as one text message.
func (w *WSWriter) SendResponse(resp *protocol.Response) error {
	line, err := protocol.EncodeResponse(resp)
	if err != nil {
		return err
	}
	return w.WriteLine(line)
}

// Close sends a normal closure message and closes the WebSocket.
func (w *WSWriter) Close() error {
	return w.conn.Close(websocket.StatusNormalClosure, "")
}
