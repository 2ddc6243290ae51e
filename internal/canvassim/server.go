package canvassim

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"nhooyr.io/websocket"

	"github.com/hrntsm/grasshopper-mcp/internal/connection"
	"github.com/hrntsm/grasshopper-mcp/internal/protocol"
)

// ListenAndServe accepts TCP clients on addr until ctx is cancelled.
func (s *Simulator) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve runs the accept loop on ln. Each connection carries one command and
// one response. It blocks until ctx is cancelled.
func (s *Simulator) Serve(ctx context.Context, ln net.Listener) error {
	s.log.Info("canvas listening", "addr", ln.Addr().String())

	// Close the listener when ctx is cancelled so Accept unblocks.
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			s.log.Error("accept error", "err", err)
			continue
		}
		go s.handleConn(ctx, connection.NewTCPReader(conn), connection.NewTCPWriter(conn))
	}
}

// ServeWS accepts WebSocket clients on addr at /ws until ctx is cancelled.
func (s *Simulator) ServeWS(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.WSHandler(),
	}

	s.log.Info("websocket canvas listening", "addr", addr)

	// Shut down gracefully when ctx is cancelled.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("websocket server: %w", err)
	}
	return nil
}

// WSHandler upgrades /ws requests and serves one command per connection.
func (s *Simulator) WSHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		wsConn, err := websocket.Accept(w, r, nil)
		if err != nil {
			s.log.Error("websocket accept error", "err", err)
			return
		}
		wsConn.SetReadLimit(protocol.MaxPayload)

		ctx := r.Context()
		s.handleConn(ctx, connection.NewWSReader(ctx, wsConn), connection.NewWSWriter(ctx, wsConn))
	})
	return mux
}

// handleConn reads a single command, applies it and writes the response.
func (s *Simulator) handleConn(ctx context.Context, reader connection.LineReader, writer connection.LineWriter) {
	defer reader.Close()
	defer writer.Close()

	line, err := reader.ReadLine()
	if err != nil {
		s.log.Error("failed to read command", "err", err)
		return
	}
	if len(line) == 0 {
		return // clean disconnect
	}

	var resp *protocol.Response
	cmd, err := protocol.DecodeCommand(line)
	if err != nil {
		resp = protocol.Failure("Invalid command: %v", err)
	} else {
		s.log.Debug("command received", "command", cmd.Type)
		resp = s.Handle(ctx, cmd)
	}

	if err := writer.SendResponse(resp); err != nil {
		s.log.Error("failed to send response", "err", err)
	}
}
