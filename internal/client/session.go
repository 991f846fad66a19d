package client

import (
	"context"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/jmalhado/crisiscast/internal/config"
	"github.com/jmalhado/crisiscast/internal/protocol"
)

// Session manages one client-side socket connection to the alert server.
// Inbound envelopes are delivered on Messages; the channel closes when
// the transport drops.
type Session struct {
	cfg      config.ClientConfig
	conn     net.Conn
	encoder  *protocol.Encoder
	decoder  *protocol.Decoder
	msgCh    chan protocol.Envelope
	cancelFn context.CancelFunc
}

// NewSession initializes a session with configuration.
func NewSession(cfg config.ClientConfig) *Session {
	return &Session{cfg: cfg}
}

// Connect dials the server and prepares framed JSON encoders/decoders.
func (s *Session) Connect(ctx context.Context) error {
	if s.cfg.ServerAddr == "" {
		return net.ErrClosed
	}
	dialer := &net.Dialer{Timeout: s.cfg.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", s.cfg.ServerAddr)
	if err != nil {
		return err
	}
	s.attach(conn)
	return nil
}

// attach binds the session to an established connection and starts the
// read loop.
func (s *Session) attach(conn net.Conn) {
	s.conn = conn
	s.encoder = protocol.NewEncoder(conn)
	s.decoder = protocol.NewDecoder(conn, 0)
	s.msgCh = make(chan protocol.Envelope, 64)
	ctx, cancel := context.WithCancel(context.Background())
	s.cancelFn = cancel
	go s.readLoop(ctx)
}

// Messages returns the inbound envelope stream for this session.
func (s *Session) Messages() <-chan protocol.Envelope {
	return s.msgCh
}

// Close terminates the session.
func (s *Session) Close() error {
	if s.cancelFn != nil {
		s.cancelFn()
	}
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// Send dispatches an envelope to the server.
func (s *Session) Send(ctx context.Context, env protocol.Envelope) error {
	if env.ID == "" {
		env.ID = uuid.NewString()
	}
	if env.Timestamp.IsZero() {
		env.Timestamp = time.Now().UTC()
	}
	return s.encoder.Encode(ctx, env)
}

func (s *Session) readLoop(ctx context.Context) {
	defer close(s.msgCh)
	for {
		if ctx.Err() != nil {
			return
		}
		env, err := s.decoder.Decode(ctx)
		if err != nil {
			return
		}
		select {
		case s.msgCh <- env:
		default:
		}
	}
}
