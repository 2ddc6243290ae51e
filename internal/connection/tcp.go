package connection

import (
	"net"
	"sync"

	"github.com/hrntsm/grasshopper-mcp/internal/protocol"
)

// TCPReader reads messages from a TCP connection.
type TCPReader struct {
	conn net.Conn
}

// NewTCPReader creates a new TCPReader wrapping the given connection.
func NewTCPReader(conn net.Conn) *TCPReader {
	return &TCPReader{conn: conn}
}

// ReadLine reads until the accumulated bytes end in a newline or the peer
// closes its side. A clean close with nothing buffered yields (nil, nil).
func (r *TCPReader) ReadLine() ([]byte, error) {
	return protocol.ReadLine(r.conn)
}

// Close closes the underlying connection.
func (r *TCPReader) Close() error {
	return r.conn.Close()
}

// TCPWriter writes messages to a TCP connection.
// It is safe for concurrent use.
type TCPWriter struct {
	conn net.Conn
	mu   sync.Mutex
}

// NewTCPWriter creates a new TCPWriter wrapping the given connection.
func NewTCPWriter(conn net.Conn) *TCPWriter {
	return &TCPWriter{conn: conn}
}

// WriteLine writes line in a single call. The caller supplies the terminator.
func (w *TCPWriter) WriteLine(line []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, err := w.conn.Write(line)
	return err
}

// SendCommand encodes cmd and writes it as one line.
func (w *TCPWriter) SendCommand(cmd *protocol.Command) error {
	line, err := protocol.EncodeCommand(cmd)
	if err != nil {
		return err
	}
	return w.WriteLine(line)
}

// SendResponse encodes resp and writes it as one line.
func (w *TCPWriter) SendResponse(resp *protocol.Response) error {
	line, err := protocol.EncodeResponse(resp)
	if err != nil {
		return err
	}
	return w.WriteLine(line)
}

// Close closes the underlying connection.
func (w *TCPWriter) Close() error {
	return w.conn.Close()
}
