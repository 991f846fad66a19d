package server

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/jmalhado/crisiscast/internal/dispatch"
	"github.com/jmalhado/crisiscast/internal/protocol"
)

// clientSession tracks per-connection state and outbound delivery.
//
// The outbound channel is never closed: the router may hold a fanout
// snapshot that still references it after deregistration, and a send to
// a closed channel would crash the fanout. The write loop exits through
// context cancellation instead.
type clientSession struct {
	app      *App
	conn     net.Conn
	handle   *dispatch.Handle
	sendCh   chan protocol.Envelope
	cancel   context.CancelFunc
	closeMux sync.Once
}

func newClientSession(app *App, conn net.Conn, cancel context.CancelFunc) *clientSession {
	s := &clientSession{
		app:    app,
		conn:   conn,
		sendCh: make(chan protocol.Envelope, app.cfg.SendBuffer),
		cancel: cancel,
	}
	s.handle = app.registry.Register(s.sendCh)
	return s
}

func (s *clientSession) send(ctx context.Context, env protocol.Envelope) error {
	select {
	case s.sendCh <- env:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *clientSession) writeLoop(ctx context.Context, encoder *protocol.Encoder, writeTimeout time.Duration) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case env := <-s.sendCh:
			if s.conn != nil && writeTimeout > 0 {
				if err := s.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
					return err
				}
			}
			if err := encoder.Encode(ctx, env); err != nil {
				return err
			}
		}
	}
}

func (s *clientSession) remoteAddr() string {
	if s.conn == nil {
		return ""
	}
	if addr := s.conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}

// close deregisters the connection from every room and stops the write
// loop. Safe to call more than once.
func (s *clientSession) close() {
	s.closeMux.Do(func() {
		s.app.registry.Deregister(s.handle)
		s.cancel()
	})
}
