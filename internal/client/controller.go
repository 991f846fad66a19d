package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jmalhado/crisiscast/internal/config"
	"github.com/jmalhado/crisiscast/internal/protocol"
)

// State enumerates the connection lifecycle of the controller.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnecting
)

// String renders the state for status displays.
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "disconnected"
	}
}

// ErrNotConnected reports an operation issued while the transport is down.
var ErrNotConnected = errors.New("not connected")

// ErrAlreadyConnected reports a Connect call on a live controller.
var ErrAlreadyConnected = errors.New("already connected")

// EventKind distinguishes controller event variants.
type EventKind int

const (
	// EventKindEnvelope carries an inbound server envelope.
	EventKindEnvelope EventKind = iota
	// EventKindStateChange carries a lifecycle transition.
	EventKindStateChange
)

// Event is delivered on the controller's event stream.
type Event struct {
	Kind     EventKind
	Envelope protocol.Envelope
	State    State
	Err      error
}

type desiredSubscription struct {
	userID     string
	regions    []string
	alertTypes []string
}

type dialFunc func(ctx context.Context) (*Session, error)

// Controller manages connect/reconnect/backoff and re-subscription for
// the alert client. An unsolicited transport drop triggers a bounded
// fixed-backoff retry, and the remembered subscription is re-issued
// automatically once the transport returns, so interest survives
// transient network loss without caller involvement.
type Controller struct {
	cfg  config.ClientConfig
	dial dialFunc

	mu          sync.Mutex
	state       State
	session     *Session
	desired     *desiredSubscription
	generation  int
	retryCancel context.CancelFunc
	events      chan Event
}

// NewController builds a controller that dials real TCP sessions.
func NewController(cfg config.ClientConfig) *Controller {
	c := newControllerWithDial(cfg, nil)
	c.dial = func(ctx context.Context) (*Session, error) {
		session := NewSession(cfg)
		if err := session.Connect(ctx); err != nil {
			return nil, err
		}
		return session, nil
	}
	return c
}

func newControllerWithDial(cfg config.ClientConfig, dial dialFunc) *Controller {
	return &Controller{
		cfg:    cfg,
		dial:   dial,
		state:  StateDisconnected,
		events: make(chan Event, 128),
	}
}

// Events returns the stream of envelopes and state transitions.
func (c *Controller) Events() <-chan Event {
	return c.events
}

// State reports the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect moves Disconnected to Connecting and dials with a bounded
// fixed-backoff retry budget. On success the controller is Connected and
// any remembered subscription is re-issued; on exhaustion it returns to
// Disconnected with the last dial error.
func (c *Controller) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateDisconnected {
		c.mu.Unlock()
		return ErrAlreadyConnected
	}
	c.setStateLocked(StateConnecting, nil)
	retryCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c.retryCancel = cancel
	c.mu.Unlock()

	err := c.retryDial(retryCtx)
	if err != nil {
		c.mu.Lock()
		c.setStateLocked(StateDisconnected, err)
		c.mu.Unlock()
	}
	return err
}

// Disconnect is explicit and user-initiated: it cancels any pending
// retry and moves straight to Disconnected without reconnecting.
func (c *Controller) Disconnect() error {
	c.mu.Lock()
	if c.retryCancel != nil {
		c.retryCancel()
		c.retryCancel = nil
	}
	c.generation++
	session := c.session
	c.session = nil
	c.setStateLocked(StateDisconnected, nil)
	c.mu.Unlock()

	if session != nil {
		return session.Close()
	}
	return nil
}

// Subscribe declares the interest profile, remembers it for automatic
// re-subscription, and sends it to the server. Fails fast when not
// connected.
func (c *Controller) Subscribe(ctx context.Context, userID string, regions, alertTypes []string) error {
	c.mu.Lock()
	if c.state != StateConnected || c.session == nil {
		c.mu.Unlock()
		return ErrNotConnected
	}
	c.desired = &desiredSubscription{
		userID:     userID,
		regions:    append([]string(nil), regions...),
		alertTypes: append([]string(nil), alertTypes...),
	}
	session := c.session
	c.mu.Unlock()

	return session.Send(ctx, subscribeEnvelope(userID, regions, alertTypes))
}

// Unsubscribe withdraws the interest profile and forgets it.
func (c *Controller) Unsubscribe(ctx context.Context, userID string) error {
	c.mu.Lock()
	if c.state != StateConnected || c.session == nil {
		c.mu.Unlock()
		return ErrNotConnected
	}
	c.desired = nil
	session := c.session
	c.mu.Unlock()

	return session.Send(ctx, protocol.Envelope{
		ID:      uuid.NewString(),
		Type:    protocol.EventUnsubscribeAlerts,
		Payload: protocol.UnsubscribeRequest{UserID: userID},
	})
}

// UpdateRegions replaces the region set on the server and in the
// remembered profile.
func (c *Controller) UpdateRegions(ctx context.Context, userID string, regions []string) error {
	c.mu.Lock()
	if c.state != StateConnected || c.session == nil {
		c.mu.Unlock()
		return ErrNotConnected
	}
	if c.desired != nil && c.desired.userID == userID {
		c.desired.regions = append([]string(nil), regions...)
	}
	session := c.session
	c.mu.Unlock()

	return session.Send(ctx, protocol.Envelope{
		ID:      uuid.NewString(),
		Type:    protocol.EventUpdateAlertRegions,
		Payload: protocol.UpdateRegionsRequest{UserID: userID, Regions: regions},
	})
}

// Publish hands an alert to the server's creation workflow.
func (c *Controller) Publish(ctx context.Context, alert protocol.Alert) error {
	c.mu.Lock()
	if c.state != StateConnected || c.session == nil {
		c.mu.Unlock()
		return ErrNotConnected
	}
	session := c.session
	c.mu.Unlock()

	return session.Send(ctx, protocol.Envelope{
		ID:      uuid.NewString(),
		Type:    protocol.EventPublishAlert,
		Payload: protocol.PublishAlertRequest{Alert: alert},
	})
}

// retryDial attempts the configured number of dials with a fixed
// interval between failures.
func (c *Controller) retryDial(ctx context.Context) error {
	attempts := c.cfg.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		session, err := c.dial(ctx)
		if err == nil {
			c.becomeConnected(session)
			return nil
		}
		lastErr = err

		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.cfg.RetryInterval):
		}
	}
	return lastErr
}

func (c *Controller) becomeConnected(session *Session) {
	c.mu.Lock()
	c.generation++
	generation := c.generation
	c.session = session
	c.setStateLocked(StateConnected, nil)
	desired := c.desired
	c.mu.Unlock()

	go c.pump(generation, session)

	if desired != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := session.Send(ctx, subscribeEnvelope(desired.userID, desired.regions, desired.alertTypes)); err != nil {
			c.emit(Event{Kind: EventKindStateChange, State: StateConnected, Err: err})
		}
	}
}

// pump forwards inbound envelopes until the session's message channel
// closes, then drives the reconnect path unless the drop was an explicit
// Disconnect (detected via the session generation counter).
func (c *Controller) pump(generation int, session *Session) {
	for env := range session.Messages() {
		c.emit(Event{Kind: EventKindEnvelope, Envelope: env})
	}

	c.mu.Lock()
	if c.generation != generation {
		c.mu.Unlock()
		return
	}
	c.session = nil
	c.setStateLocked(StateReconnecting, nil)
	retryCtx, cancel := context.WithCancel(context.Background())
	c.retryCancel = cancel
	c.mu.Unlock()

	_ = session.Close()

	if err := c.retryDial(retryCtx); err != nil {
		c.mu.Lock()
		if c.generation == generation {
			c.setStateLocked(StateDisconnected, err)
		}
		c.mu.Unlock()
	}
}

func (c *Controller) setStateLocked(state State, err error) {
	if c.state == state && err == nil {
		return
	}
	c.state = state
	c.emit(Event{Kind: EventKindStateChange, State: state, Err: err})
}

func (c *Controller) emit(event Event) {
	select {
	case c.events <- event:
	default:
	}
}

func subscribeEnvelope(userID string, regions, alertTypes []string) protocol.Envelope {
	return protocol.Envelope{
		ID:   uuid.NewString(),
		Type: protocol.EventSubscribeAlerts,
		Payload: protocol.SubscribeRequest{
			UserID:     userID,
			Regions:    regions,
			AlertTypes: alertTypes,
		},
	}
}
