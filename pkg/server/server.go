// Package server runs the TCP accept loop and per-connection request
// loop: one goroutine per connection, one request handled at a time
// per connection, each request line decoded, dispatched through a
// handler.Handler, and the resulting response written back.
package server

import (
	"bufio"
	"context"
	"fmt"
	"net"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/corvid-labs/doculex/pkg/handler"
	"github.com/corvid-labs/doculex/pkg/log"
	"github.com/corvid-labs/doculex/pkg/metrics"
	"github.com/corvid-labs/doculex/pkg/protocol"
)

// Server accepts TCP connections and serves requests against a shared
// Handler. It holds no document-store state of its own.
type Server struct {
	Addr    string
	Handler *handler.Handler

	listener net.Listener
}

// New constructs a Server listening on addr once Start is called.
func New(addr string, h *handler.Handler) *Server {
	return &Server{Addr: addr, Handler: h}
}

// Start binds the listener and runs the accept loop until ctx is
// canceled, then closes the listener and returns. Each accepted
// connection is served on its own goroutine; Start does not wait for
// in-flight connections to finish before returning.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.Addr, err)
	}
	s.listener = ln
	log.Info(fmt.Sprintf("doculexd listening on %s", s.Addr))

	go func() {
		<-ctx.Done()
		log.Info("shutting down listener")
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				log.Error(fmt.Sprintf("accept error: %v", err))
				continue
			}
		}
		go s.serveConn(conn)
	}
}

// ListenAddr reports the address the listener actually bound to, once
// Start has run. Useful when Addr was passed as "host:0".
func (s *Server) ListenAddr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// serveConn handles one connection's requests serially until the
// client disconnects or a read/write error occurs. Requests are
// line-framed: a SET's length-prefixed content must not itself
// contain an embedded newline, or this framing splits it early — the
// same boundary the protocol package documents at the codec layer.
func (s *Server) serveConn(conn net.Conn) {
	connID := uuid.New().String()
	connLog := log.WithConnID(connID)
	connLog.Info().Str("remote", conn.RemoteAddr().String()).Msg("connection accepted")

	metrics.ConnectionsActive.Inc()
	defer metrics.ConnectionsActive.Dec()
	defer conn.Close()
	defer connLog.Info().Msg("connection closed")

	reader := bufio.NewReader(conn)
	for {
		line, readErr := reader.ReadBytes('\n')
		if len(line) == 0 {
			return
		}

		if writeErr := s.handleLine(connLog, conn, line); writeErr != nil {
			connLog.Error().Err(writeErr).Msg("write failed")
			return
		}
		if readErr != nil {
			return
		}
	}
}

// handleLine decodes, dispatches, and writes the response for a
// single request line, recording metrics and logging the verb and
// outcome. A decode failure is logged under verb "UNKNOWN" since a
// malformed line may not even start with a recognizable verb.
func (s *Server) handleLine(connLog zerolog.Logger, conn net.Conn, line []byte) error {
	req, decodeErr := protocol.DecodeRequest(line)
	verb := string(req.Verb)
	if decodeErr != nil {
		verb = "UNKNOWN"
	}

	reqLog := connLog.With().Str("verb", verb).Logger()
	timer := metrics.NewTimer()

	var resp protocol.Response
	if decodeErr != nil {
		resp = protocol.Err(decodeErr.Error())
	} else {
		resp = s.Handler.Handle(req)
	}

	status := "ok"
	if resp.Kind == protocol.KindError {
		status = "error"
		reqLog.Warn().Str("error", resp.Message).Msg("request failed")
	} else {
		reqLog.Debug().Msg("request handled")
	}

	metrics.RequestsTotal.WithLabelValues(verb, status).Inc()
	timer.ObserveDurationVec(metrics.RequestDuration, verb)

	_, err := conn.Write(protocol.EncodeResponse(resp))
	return err
}
