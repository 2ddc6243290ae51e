package connection

import "github.com/hrntsm/grasshopper-mcp/internal/protocol"

// LineReader reads newline-delimited messages from a transport.
type LineReader interface {
	ReadLine() ([]byte, error)
	Close() error
}

// LineWriter writes newline-delimited messages to a transport.
type LineWriter interface {
	WriteLine(line []byte) error
	SendCommand(cmd *protocol.Command) error
	SendResponse(resp *protocol.Response) error
	Close() error
}
