// Package client is the transport side of the bridge: it carries exactly one
// command to the canvas per call and never reports failure as a Go error.
package client

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"
	"nhooyr.io/websocket"

	"github.com/hrntsm/grasshopper-mcp/internal/connection"
	"github.com/hrntsm/grasshopper-mcp/internal/protocol"
)

// Target describes where the canvas listens: a TCP address ("host:port" or
// "tcp://host:port") or a ws:// / wss:// URL.
type Target struct {
	Address     string
	DialTimeout time.Duration // zero uses the system default
	IOTimeout   time.Duration // zero waits indefinitely for the response
}

// IsWebSocket returns true when the target is a WebSocket endpoint.
func (t *Target) IsWebSocket() bool {
	return strings.HasPrefix(t.Address, "ws://") || strings.HasPrefix(t.Address, "wss://")
}

// Connect opens a fresh connection to the target and returns a LineReader and
// LineWriter pair. The caller is responsible for closing both.
func (t *Target) Connect(ctx context.Context) (connection.LineReader, connection.LineWriter, error) {
	if t.IsWebSocket() {
		dialCtx := ctx
		if t.DialTimeout > 0 {
			var cancel context.CancelFunc
			dialCtx, cancel = context.WithTimeout(ctx, t.DialTimeout)
			defer cancel()
		}
		conn, _, err := websocket.Dial(dialCtx, t.Address, nil)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to %s: %w", t.Address, err)
		}
		conn.SetReadLimit(protocol.MaxPayload)
		return connection.NewWSReader(ctx, conn), connection.NewWSWriter(ctx, conn), nil
	}

	addr := strings.TrimPrefix(t.Address, "tcp://")
	dialer := net.Dialer{Timeout: t.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to %s: %w", addr, err)
	}
	return connection.NewTCPReader(conn), connection.NewTCPWriter(conn), nil
}

// Client sends commands to the canvas, one connection per call.
type Client struct {
	target Target
	log    *slog.Logger
}

// New creates a Client for target. A nil logger falls back to slog.Default.
func New(target Target, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{target: target, log: logger.With("component", "canvas-client")}
}

// Target returns the endpoint the client dials.
func (c *Client) Target() Target { return c.target }

// Send opens a connection, writes one command, waits for one response and
// closes the connection. Transport and decode failures are reported as a
// Response with Success=false; Send never returns nil.
func (c *Client) Send(ctx context.Context, commandType string, params map[string]any) *protocol.Response {
	if commandType == "" {
		return protocol.Failure("command type must not be empty")
	}
	if params == nil {
		params = map[string]any{}
	}

	log := c.log.With("request_id", uuid.NewString(), "command", commandType)
	log.Debug("sending command", "params", params)
	start := time.Now()

	resp, err := c.requestResponse(ctx, &protocol.Command{Type: commandType, Parameters: params})
	if err != nil {
		log.Warn("canvas request failed", "err", err, "elapsed", time.Since(start))
		return protocol.Failure("Error communicating with Grasshopper: %v", err)
	}
	log.Debug("response received", "success", resp.Success, "elapsed", time.Since(start))
	return resp
}

// requestResponse is the single round trip behind Send.
func (c *Client) requestResponse(ctx context.Context, cmd *protocol.Command) (*protocol.Response, error) {
	if c.target.IOTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.target.IOTimeout)
		defer cancel()
	}

	reader, writer, err := c.target.Connect(ctx)
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	defer writer.Close()

	// Closing the connection is the only way to unblock a pending read.
	stop := context.AfterFunc(ctx, func() { _ = reader.Close() })
	defer stop()

	if err := writer.SendCommand(cmd); err != nil {
		return nil, fmt.Errorf("sending command: %w", err)
	}

	line, err := reader.ReadLine()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("waiting for response: %w", ctxErr)
	}
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return protocol.DecodeResponse(line)
}
