// Package transport exposes the supervised engine Session over a local
// UNIX-domain stream socket using the control-plane frame codec in
// internal/wire.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"time"

	"github.com/ybyygu/vasp-tools/internal/engine"
	"github.com/ybyygu/vasp-tools/internal/logger"
	"github.com/ybyygu/vasp-tools/internal/wire"
)

// shutdownGrace bounds how long ListenAndServe waits for in-flight
// connections to finish their current request before forcing shutdown.
const shutdownGrace = 5 * time.Second

// Server binds one filesystem socket and forwards every decoded request to
// a single shared Session, serialized behind sessionMu so concurrent
// clients never interleave on the engine's stdio.
type Server struct {
	session    *engine.Session
	socketPath string

	sessionMu sync.Mutex

	wg sync.WaitGroup
}

// NewServer builds a Server forwarding to session, listening at socketPath.
func NewServer(session *engine.Session, socketPath string) *Server {
	return &Server{session: session, socketPath: socketPath}
}

// ListenAndServe binds the socket (refusing to clobber an existing one)
// and serves connections until ctx is canceled. On return the socket file
// has been removed.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if _, err := os.Stat(s.socketPath); err == nil {
		return fmt.Errorf("transport: socket %s already exists", s.socketPath)
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("transport: stat %s: %w", s.socketPath, err)
	}

	ln, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("transport: listen unix %s: %w", s.socketPath, err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.acceptLoop(ln)
	}()

	select {
	case <-ctx.Done():
		ln.Close()
		s.waitWithDeadline(shutdownGrace)
		s.session.Terminate()
		os.Remove(s.socketPath)
		logger.Info("transport: graceful shutdown complete")
		return nil
	case err := <-errCh:
		os.Remove(s.socketPath)
		return err
	}
}

func (s *Server) waitWithDeadline(d time.Duration) {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(d):
		logger.Warn("transport: shutdown grace period elapsed with requests still in flight")
	}
}

func (s *Server) acceptLoop(ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("transport: accept: %w", err)
		}
		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	for {
		req, err := wire.ReadRequest(conn)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, wire.ErrTruncated) && !errors.Is(err, net.ErrClosed) {
				logger.Warn("transport: read request failed", "error", err)
			}
			return
		}

		switch req.Tag {
		case wire.TagInput:
			s.sessionMu.Lock()
			err := s.session.Write(req.Payload)
			s.sessionMu.Unlock()
			if err != nil {
				logger.Error("transport: input interaction failed", "error", err)
				return
			}
			if err := wire.WriteResponse(conn, nil); err != nil {
				return
			}
		case wire.TagOutput:
			s.sessionMu.Lock()
			out, err := s.session.Interact(context.Background(), nil, string(req.Payload))
			s.sessionMu.Unlock()
			if err != nil {
				logger.Error("transport: output interaction failed", "error", err)
				return
			}
			if err := wire.WriteResponse(conn, []byte(out)); err != nil {
				return
			}
		case wire.TagControl:
			if err := s.session.Control(req.Signal); err != nil {
				logger.Warn("transport: control signal failed", "signal", req.Signal, "error", err)
			}
			return
		}
	}
}
