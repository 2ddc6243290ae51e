package client

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"

	"github.com/hrntsm/grasshopper-mcp/internal/protocol"
)

// fakeCanvas accepts connections on a loopback port and answers each one
// with reply(cmd). Received commands are pushed onto the returned channel.
func fakeCanvas(t *testing.T, reply func(cmd *protocol.Command) string) (string, <-chan *protocol.Command) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	received := make(chan *protocol.Command, 16)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(conn net.Conn) {
				defer conn.Close()
				line, err := protocol.ReadLine(conn)
				if err != nil {
					return
				}
				cmd, err := protocol.DecodeCommand(line)
				if err != nil {
					return
				}
				received <- cmd
				if out := reply(cmd); out != "" {
					conn.Write([]byte(out))
				}
			}(conn)
		}
	}()
	return ln.Addr().String(), received
}

// ---------------------------------------------------------------------------
// TCP round trip
// ---------------------------------------------------------------------------

func TestSendRoundTrip(t *testing.T) {
	addr, received := fakeCanvas(t, func(cmd *protocol.Command) string {
		return `{"success":true,"result":{"id":"c1","type":"` + cmd.Parameters["type"].(string) + `"}}` + "\n"
	})

	c := New(Target{Address: addr}, nil)
	resp := c.Send(context.Background(), protocol.CmdAddComponent, map[string]any{
		"type": "Number Slider", "x": 100.0, "y": 100.0,
	})

	require.True(t, resp.Success, "error: %s", resp.Error)
	assert.Empty(t, resp.Error)
	m, ok := resp.ResultMap()
	require.True(t, ok)
	assert.Equal(t, "c1", m["id"])
	assert.Equal(t, "Number Slider", m["type"])

	cmd := <-received
	assert.Equal(t, protocol.CmdAddComponent, cmd.Type)
	assert.Equal(t, 100.0, cmd.Parameters["x"])
}

func TestSendTCPPrefixAndNilParams(t *testing.T) {
	addr, received := fakeCanvas(t, func(*protocol.Command) string {
		return `{"success":true,"result":[]}` + "\n"
	})

	c := New(Target{Address: "tcp://" + addr}, nil)
	resp := c.Send(context.Background(), protocol.CmdGetConnections, nil)
	require.True(t, resp.Success, "error: %s", resp.Error)

	cmd := <-received
	assert.NotNil(t, cmd.Parameters)
	assert.Empty(t, cmd.Parameters)
}

func TestSendResponseWithoutTerminator(t *testing.T) {
	addr, _ := fakeCanvas(t, func(*protocol.Command) string {
		return "\xEF\xBB\xBF" + `{"success":true,"result":"done"}`
	})

	resp := New(Target{Address: addr}, nil).Send(context.Background(), protocol.CmdClearDocument, nil)
	require.True(t, resp.Success, "error: %s", resp.Error)
	assert.Equal(t, "done", resp.Result)
}

func TestSendPassesRemoteFailureThrough(t *testing.T) {
	addr, _ := fakeCanvas(t, func(*protocol.Command) string {
		return `{"success":false,"error":"Component with ID zz not found"}` + "\n"
	})

	resp := New(Target{Address: addr}, nil).Send(context.Background(), protocol.CmdGetComponentInfo,
		map[string]any{"componentId": "zz"})
	assert.False(t, resp.Success)
	assert.Nil(t, resp.Result)
	assert.Equal(t, "Component with ID zz not found", resp.Error)
}

// ---------------------------------------------------------------------------
// Failures become responses
// ---------------------------------------------------------------------------

func TestSendEmptyCommandType(t *testing.T) {
	resp := New(Target{Address: "127.0.0.1:1"}, nil).Send(context.Background(), "", nil)
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Error)
}

func TestSendConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	resp := New(Target{Address: addr, DialTimeout: time.Second}, nil).Send(context.Background(), protocol.CmdGetDocumentInfo, nil)
	assert.False(t, resp.Success)
	assert.Nil(t, resp.Result)
	assert.True(t, strings.HasPrefix(resp.Error, "Error communicating with Grasshopper: "), resp.Error)
}

func TestSendMalformedResponse(t *testing.T) {
	addr, _ := fakeCanvas(t, func(*protocol.Command) string {
		return "not json\n"
	})

	resp := New(Target{Address: addr}, nil).Send(context.Background(), protocol.CmdGetDocumentInfo, nil)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "Error communicating with Grasshopper")
	assert.Contains(t, resp.Error, "decoding response")
}

func TestSendPeerClosesWithoutReply(t *testing.T) {
	addr, _ := fakeCanvas(t, func(*protocol.Command) string { return "" })

	resp := New(Target{Address: addr}, nil).Send(context.Background(), protocol.CmdGetDocumentInfo, nil)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, protocol.ErrEmptyMessage.Error())
}

func TestSendIOTimeout(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	// Accept and hold the connection open without ever answering.
	hold := make(chan struct{})
	t.Cleanup(func() { close(hold) })
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		<-hold
		conn.Close()
	}()

	c := New(Target{Address: ln.Addr().String(), IOTimeout: 100 * time.Millisecond}, nil)
	start := time.Now()
	resp := c.Send(context.Background(), protocol.CmdGetAllComponents, nil)

	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "deadline exceeded")
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestSendContextCancelled(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	hold := make(chan struct{})
	t.Cleanup(func() { close(hold) })
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		<-hold
		conn.Close()
	}()

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	resp := New(Target{Address: ln.Addr().String()}, nil).Send(ctx, protocol.CmdGetAllComponents, nil)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "context canceled")
}

// ---------------------------------------------------------------------------
// WebSocket endpoint
// ---------------------------------------------------------------------------

func TestSendOverWebSocket(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.CloseNow()
		_, data, err := conn.Read(r.Context())
		if err != nil {
			return
		}
		cmd, err := protocol.DecodeCommand(data)
		if err != nil {
			return
		}
		out, _ := protocol.EncodeResponse(protocol.Ok(map[string]any{"echo": cmd.Type}))
		conn.Write(r.Context(), websocket.MessageText, out)
	}))
	t.Cleanup(srv.Close)

	target := Target{Address: "ws" + strings.TrimPrefix(srv.URL, "http")}
	require.True(t, target.IsWebSocket())

	resp := New(target, nil).Send(context.Background(), protocol.CmdGetDocumentInfo, nil)
	require.True(t, resp.Success, "error: %s", resp.Error)
	m, ok := resp.ResultMap()
	require.True(t, ok)
	assert.Equal(t, protocol.CmdGetDocumentInfo, m["echo"])
}
