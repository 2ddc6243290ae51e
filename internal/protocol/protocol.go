package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

const (
	// MaxPayload bounds a single message line.
	MaxPayload = 16 * 1024 * 1024 // 16 MB

	readChunk = 4096
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ErrEmptyMessage is returned when a peer closed the stream without sending
// any bytes.
var ErrEmptyMessage = errors.New("empty message")

// EncodeCommand serializes cmd as a single JSON line terminated by '\n'.
// A nil parameter map is sent as an empty object.
func EncodeCommand(cmd *Command) ([]byte, error) {
	params := cmd.Parameters
	if params == nil {
		params = map[string]any{}
	}
	data, err := json.Marshal(&Command{Type: cmd.Type, Parameters: params})
	if err != nil {
		return nil, fmt.Errorf("encoding command %q: %w", cmd.Type, err)
	}
	return append(data, '\n'), nil
}

// DecodeCommand parses one command line. The optional BOM and surrounding
// whitespace (including the terminator) are ignored.
func DecodeCommand(line []byte) (*Command, error) {
	data := trimLine(line)
	if len(data) == 0 {
		return nil, ErrEmptyMessage
	}
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return nil, fmt.Errorf("decoding command: %w", err)
	}
	if cmd.Parameters == nil {
		cmd.Parameters = map[string]any{}
	}
	return &cmd, nil
}

// EncodeResponse serializes resp as a single JSON line terminated by '\n'.
func EncodeResponse(resp *Response) ([]byte, error) {
	data, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("encoding response: %w", err)
	}
	return append(data, '\n'), nil
}

// DecodeResponse parses the bytes accumulated by ReadLine into a normalized
// Response.
func DecodeResponse(line []byte) (*Response, error) {
	data := trimLine(line)
	if len(data) == 0 {
		return nil, ErrEmptyMessage
	}
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	resp.normalize()
	return &resp, nil
}

// ReadLine reads from r until the accumulated bytes end in '\n' or the peer
// closes the stream. Bytes read before a clean EOF are returned with a nil
// error, even when the terminator never arrived.
func ReadLine(r io.Reader) ([]byte, error) {
	var buf []byte
	chunk := make([]byte, readChunk)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
			if len(buf) > MaxPayload {
				return nil, fmt.Errorf("message exceeds %d bytes", MaxPayload)
			}
			if buf[len(buf)-1] == '\n' {
				return buf, nil
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return buf, nil
			}
			return buf, fmt.Errorf("reading message: %w", err)
		}
	}
}

func trimLine(line []byte) []byte {
	return bytes.TrimSpace(bytes.TrimPrefix(line, utf8BOM))
}
