package canvassim

import (
	"context"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrntsm/grasshopper-mcp/internal/bridge"
	"github.com/hrntsm/grasshopper-mcp/internal/catalog"
	"github.com/hrntsm/grasshopper-mcp/internal/client"
	"github.com/hrntsm/grasshopper-mcp/internal/protocol"
)

// startTCP serves s on a loopback port for the duration of the test.
func startTCP(t *testing.T, s *Simulator) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Serve(ctx, ln)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return ln.Addr().String()
}

func newClient(addr string) *client.Client {
	return client.New(client.Target{Address: addr, IOTimeout: 5 * time.Second}, nil)
}

// ---------------------------------------------------------------------------
// Wire
// ---------------------------------------------------------------------------

func TestServeOneCommandPerConnection(t *testing.T) {
	addr := startTCP(t, New(nil))

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte(`{"type":"get_document_info","parameters":{}}` + "\n"))
	require.NoError(t, err)

	line, err := protocol.ReadLine(conn)
	require.NoError(t, err)
	resp, err := protocol.DecodeResponse(line)
	require.NoError(t, err)
	assert.True(t, resp.Success)

	// The canvas closes its side after replying.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	rest, err := protocol.ReadLine(conn)
	assert.NoError(t, err)
	assert.Empty(t, rest)
}

func TestServeRejectsMalformedCommand(t *testing.T) {
	addr := startTCP(t, New(nil))

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("not json\n"))
	require.NoError(t, err)

	line, err := protocol.ReadLine(conn)
	require.NoError(t, err)
	resp, err := protocol.DecodeResponse(line)
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.True(t, strings.HasPrefix(resp.Error, "Invalid command"), resp.Error)
}

func TestServeStopsOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- New(nil).Serve(ctx, ln) }()

	cancel()
	select {
	case err := <-errc:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestWebSocketTransport(t *testing.T) {
	srv := httptest.NewServer(New(nil).WSHandler())
	defer srv.Close()

	addr := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	resp := newClient(addr).Send(context.Background(), protocol.CmdAddComponent, map[string]any{"type": "Panel"})
	require.True(t, resp.Success, resp.Error)
	m, _ := resp.ResultMap()
	assert.Equal(t, "Panel", m["type"])
}

// ---------------------------------------------------------------------------
// Bridge end to end
// ---------------------------------------------------------------------------

func newBridge(t *testing.T, addr string) *bridge.Bridge {
	t.Helper()
	store := catalog.New(catalog.Options{Dir: t.TempDir()})
	return bridge.New(newClient(addr), store, bridge.Options{})
}

func TestBridgeFillsBinaryInputsInOrder(t *testing.T) {
	addr := startTCP(t, New(nil))
	b := newBridge(t, addr)
	ctx := context.Background()

	id := func(resp *protocol.Response) string {
		t.Helper()
		require.True(t, resp.Success, resp.Error)
		m, _ := resp.ResultMap()
		return m["id"].(string)
	}

	s1 := id(b.AddComponent(ctx, "slider", 0, 0))
	s2 := id(b.AddComponent(ctx, "slider", 0, 60))
	sum := id(b.AddComponent(ctx, "add", 200, 30))

	resp := b.ConnectComponents(ctx, bridge.ConnectRequest{SourceID: s1, TargetID: sum})
	require.True(t, resp.Success, resp.Error)
	resp = b.ConnectComponents(ctx, bridge.ConnectRequest{SourceID: s2, TargetID: sum})
	require.True(t, resp.Success, resp.Error)

	conns, ok := b.GetConnections(ctx).ResultList()
	require.True(t, ok)
	require.Len(t, conns, 2)
	assert.Equal(t, "A", conns[0].(map[string]any)["targetParam"])
	assert.Equal(t, "B", conns[1].(map[string]any)["targetParam"])

	// Reading connections leaves them unchanged.
	again, _ := b.GetConnections(ctx).ResultList()
	assert.Equal(t, conns, again)
}

func TestBridgeComponentInfoOverTCP(t *testing.T) {
	addr := startTCP(t, New(nil))
	b := newBridge(t, addr)
	ctx := context.Background()

	resp := b.AddComponent(ctx, "slider", 10, 10)
	require.True(t, resp.Success, resp.Error)
	m, _ := resp.ResultMap()
	slider := m["id"].(string)

	info, ok := b.GetComponentInfo(ctx, slider).ResultMap()
	require.True(t, ok)
	settings, ok := info["currentSettings"].(map[string]any)
	require.True(t, ok, "currentSettings missing: %v", info)
	assert.Equal(t, 10.0, settings["max"])
	assert.Equal(t, 5.0, settings["value"])
	assert.Empty(t, info["connections"])
}

func TestBridgeStatusOverTCP(t *testing.T) {
	addr := startTCP(t, New(nil))
	b := newBridge(t, addr)
	ctx := context.Background()

	require.True(t, b.CreatePattern(ctx, "add two numbers").Success)

	status := b.Status(ctx)
	assert.Equal(t, "Current canvas has 4 components and 3 connections", status["canvas_summary"])
}

func TestBridgeUnreachableCanvas(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	resp := newBridge(t, addr).GetDocumentInfo(context.Background())
	assert.False(t, resp.Success)
	assert.True(t, strings.HasPrefix(resp.Error, "Error communicating with Grasshopper:"), resp.Error)
}
