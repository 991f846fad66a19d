package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jmalhado/crisiscast/internal/config"
	"github.com/jmalhado/crisiscast/internal/dispatch"
	"github.com/jmalhado/crisiscast/internal/protocol"
	"github.com/jmalhado/crisiscast/internal/storage"
)

// App coordinates the network listener, session lifecycle, and alert
// dispatch. The registry, subscription manager, router, and ingress
// adapter are constructed here once and torn down with the process;
// nothing reaches them except through App's envelope handling.
type App struct {
	cfg       config.ServerConfig
	store     storage.Store
	registry  *dispatch.Registry
	subs      *dispatch.SubscriptionManager
	ingress   *dispatch.Ingress
	logger    zerolog.Logger
	listener  net.Listener
	closeOnce sync.Once
}

// NewApp constructs a server instance using the provided dependencies.
func NewApp(cfg config.ServerConfig, store storage.Store, logger zerolog.Logger) *App {
	registry := dispatch.NewRegistry()
	router := dispatch.NewRouter(registry, logger)
	return &App{
		cfg:      cfg,
		store:    store,
		registry: registry,
		subs:     dispatch.NewSubscriptionManager(registry),
		ingress:  dispatch.NewIngress(router, logger),
		logger:   logger.With().Str("component", "Server").Logger(),
	}
}

// Ingress exposes the adapter for in-process alert-creation callers.
func (a *App) Ingress() *dispatch.Ingress {
	return a.ingress
}

// Run starts accepting connections until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	if err := a.store.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	listener, err := net.Listen("tcp", a.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	a.listener = listener
	a.logger.Info().Str("addr", a.cfg.ListenAddr).Msg("Alert server listening")

	errCh := make(chan error, 1)

	go func() {
		<-ctx.Done()
		a.closeOnce.Do(func() {
			_ = a.listener.Close()
		})
	}()

	go func() {
		for {
			conn, err := a.listener.Accept()
			if err != nil {
				if errors.Is(err, net.ErrClosed) {
					errCh <- nil
					return
				}
				errCh <- err
				return
			}
			go a.handleConnection(ctx, conn)
		}
	}()

	return <-errCh
}

// Addr reports the bound listener address once Run has started.
func (a *App) Addr() string {
	if a.listener == nil {
		return ""
	}
	return a.listener.Addr().String()
}

func (a *App) handleConnection(parentCtx context.Context, conn net.Conn) {
	defer conn.Close()

	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	session := newClientSession(a, conn, cancel)
	defer session.close()

	decoder := protocol.NewDecoder(conn, a.cfg.MaxFrameBytes)
	encoder := protocol.NewEncoder(conn)

	go func() {
		if err := session.writeLoop(ctx, encoder, a.cfg.WriteTimeout); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Warn().Err(err).Str("remote", session.remoteAddr()).Msg("Write loop ended, dropping connection")
			session.close()
		}
	}()

	a.sendWelcome(ctx, session)
	a.logger.Info().Str("conn", session.handle.ID()).Str("remote", session.remoteAddr()).Msg("Client connected")

	for {
		if a.cfg.ReadTimeout > 0 {
			if deadlineErr := conn.SetReadDeadline(time.Now().Add(a.cfg.ReadTimeout)); deadlineErr != nil {
				a.logger.Warn().Err(deadlineErr).Msg("Set read deadline failed")
				return
			}
		}
		env, err := decoder.Decode(ctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
				a.logger.Debug().Err(err).Str("conn", session.handle.ID()).Msg("Decode failed, closing connection")
			}
			a.logger.Info().Str("conn", session.handle.ID()).Msg("Client disconnected")
			return
		}

		a.routeEnvelope(ctx, session, env)
	}
}

// routeEnvelope dispatches one inbound envelope. Handled inline on the
// read loop so a connection's events apply in arrival order.
func (a *App) routeEnvelope(ctx context.Context, session *clientSession, env protocol.Envelope) {
	switch env.Type {
	case protocol.EventSubscribeAlerts:
		a.handleSubscribe(ctx, session, env)
	case protocol.EventUnsubscribeAlerts:
		a.handleUnsubscribe(ctx, session, env)
	case protocol.EventUpdateAlertRegions:
		a.handleUpdateRegions(ctx, session, env)
	case protocol.EventPublishAlert:
		a.handlePublishAlert(ctx, session, env)
	case protocol.EventMessage:
		a.handleMessage(ctx, session, env)
	default:
		a.logger.Debug().Str("type", string(env.Type)).Msg("Unhandled envelope type")
		a.sendAck(ctx, session, env.ID, ackStatusError, "unsupported event type")
	}
}

func (a *App) sendWelcome(ctx context.Context, session *clientSession) {
	welcome := protocol.Envelope{
		ID:        uuid.NewString(),
		Type:      protocol.EventMessage,
		Timestamp: time.Now().UTC(),
		Payload: protocol.ChatMessage{
			Text:      "connected to crisiscast alert service",
			SenderID:  "server",
			Timestamp: time.Now().UTC(),
		},
	}
	if err := session.send(ctx, welcome); err != nil {
		a.logger.Warn().Err(err).Msg("Welcome send failed")
	}
}
