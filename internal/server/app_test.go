package server

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmalhado/crisiscast/internal/config"
	"github.com/jmalhado/crisiscast/internal/protocol"
	"github.com/jmalhado/crisiscast/internal/storage"
)

type fakeStore struct {
	mu     sync.Mutex
	alerts []protocol.Alert
	err    error
}

func (s *fakeStore) Close() error                      { return nil }
func (s *fakeStore) Migrate(ctx context.Context) error { return nil }

func (s *fakeStore) SaveAlert(ctx context.Context, alert *protocol.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.alerts = append(s.alerts, *alert)
	return nil
}

func (s *fakeStore) FindAlert(ctx context.Context, id string) (*protocol.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.alerts {
		if s.alerts[i].ID == id {
			alert := s.alerts[i]
			return &alert, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *fakeStore) saved() []protocol.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]protocol.Alert(nil), s.alerts...)
}

func startTestServer(t *testing.T, store *fakeStore) (*App, string) {
	t.Helper()
	cfg := config.ServerConfig{
		ListenAddr:    "127.0.0.1:0",
		WriteTimeout:  5 * time.Second,
		MaxFrameBytes: 1 << 20,
		SendBuffer:    64,
	}
	app := NewApp(cfg, store, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() {
		_ = app.Run(ctx)
	}()

	require.Eventually(t, func() bool {
		return app.Addr() != ""
	}, 2*time.Second, 10*time.Millisecond, "server never started listening")
	return app, app.Addr()
}

type testClient struct {
	t       *testing.T
	conn    net.Conn
	encoder *protocol.Encoder
	decoder *protocol.Decoder
}

func dialTestClient(t *testing.T, addr string) *testClient {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return &testClient{
		t:       t,
		conn:    conn,
		encoder: protocol.NewEncoder(conn),
		decoder: protocol.NewDecoder(conn, 0),
	}
}

func (c *testClient) send(envType protocol.EventType, payload interface{}) {
	c.t.Helper()
	env := protocol.Envelope{
		ID:        "req-" + string(envType),
		Type:      envType,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
	require.NoError(c.t, c.encoder.Encode(context.Background(), env))
}

func (c *testClient) recv(timeout time.Duration) (protocol.Envelope, bool) {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(timeout)))
	env, err := c.decoder.Decode(context.Background())
	if err != nil {
		return protocol.Envelope{}, false
	}
	return env, true
}

// recvExpect reads envelopes until one of the wanted type arrives,
// skipping the welcome message channel.
func (c *testClient) recvExpect(envType protocol.EventType) protocol.Envelope {
	c.t.Helper()
	for {
		env, ok := c.recv(2 * time.Second)
		require.True(c.t, ok, "expected %s envelope, transport went quiet", envType)
		if env.Type == envType {
			return env
		}
		require.Equal(c.t, protocol.EventMessage, env.Type, "unexpected envelope %s while waiting for %s", env.Type, envType)
	}
}

func (c *testClient) collectAlerts(window time.Duration) []protocol.Envelope {
	c.t.Helper()
	var alerts []protocol.Envelope
	deadline := time.Now().Add(window)
	for time.Now().Before(deadline) {
		env, ok := c.recv(time.Until(deadline))
		if !ok {
			break
		}
		if env.Type == protocol.EventNewAlert {
			alerts = append(alerts, env)
		}
	}
	return alerts
}

func TestEndToEnd_SubscriberGetsSpecificAndGeneralDelivery(t *testing.T) {
	store := &fakeStore{}
	_, addr := startTestServer(t, store)

	clientA := dialTestClient(t, addr)
	clientB := dialTestClient(t, addr)

	clientA.send(protocol.EventSubscribeAlerts, protocol.SubscribeRequest{
		UserID:     "user-a",
		Regions:    []string{"California"},
		AlertTypes: []string{"WEATHER"},
	})
	confirmed := clientA.recvExpect(protocol.EventSubscriptionConfirmed)
	require.NotNil(t, confirmed.Payload)

	clientB.send(protocol.EventSubscribeAlerts, protocol.SubscribeRequest{UserID: "user-b"})
	clientB.recvExpect(protocol.EventSubscriptionConfirmed)

	clientA.send(protocol.EventPublishAlert, protocol.PublishAlertRequest{
		Alert: protocol.Alert{
			Title:       "Flood Warning",
			Description: "Severe flooding expected.",
			Type:        "WEATHER",
			Severity:    protocol.SeverityHigh,
			Region:      "California",
		},
	})

	alertsA := clientA.collectAlerts(time.Second)
	assert.Len(t, alertsA, 2, "matching subscriber receives specific plus general delivery")

	alertsB := clientB.collectAlerts(time.Second)
	assert.Len(t, alertsB, 1, "general-only subscriber receives a single delivery")

	require.Len(t, store.saved(), 1, "alert persisted before broadcast")
	assert.NotEmpty(t, store.saved()[0].ID)
	assert.False(t, store.saved()[0].IssuedAt.IsZero())
}

func TestEndToEnd_UnsubscribeStopsAllDelivery(t *testing.T) {
	store := &fakeStore{}
	_, addr := startTestServer(t, store)

	clientA := dialTestClient(t, addr)
	publisher := dialTestClient(t, addr)

	clientA.send(protocol.EventSubscribeAlerts, protocol.SubscribeRequest{
		UserID:     "user-a",
		Regions:    []string{"California"},
		AlertTypes: []string{"WEATHER"},
	})
	clientA.recvExpect(protocol.EventSubscriptionConfirmed)

	clientA.send(protocol.EventUnsubscribeAlerts, protocol.UnsubscribeRequest{UserID: "user-a"})
	clientA.recvExpect(protocol.EventUnsubscriptionConfirmed)

	publisher.send(protocol.EventPublishAlert, protocol.PublishAlertRequest{
		Alert: protocol.Alert{
			Title:       "Flood Warning",
			Description: "Severe flooding expected.",
			Type:        "WEATHER",
			Severity:    protocol.SeverityHigh,
			Region:      "California",
		},
	})

	assert.Empty(t, clientA.collectAlerts(500*time.Millisecond),
		"unsubscribed client receives nothing, not even general deliveries")
}

func TestEndToEnd_UpdateRegionsRetargetsDelivery(t *testing.T) {
	store := &fakeStore{}
	_, addr := startTestServer(t, store)

	clientA := dialTestClient(t, addr)
	publisher := dialTestClient(t, addr)

	clientA.send(protocol.EventSubscribeAlerts, protocol.SubscribeRequest{
		UserID:     "user-a",
		Regions:    []string{"California"},
		AlertTypes: []string{"WEATHER"},
	})
	clientA.recvExpect(protocol.EventSubscriptionConfirmed)

	clientA.send(protocol.EventUpdateAlertRegions, protocol.UpdateRegionsRequest{
		UserID:  "user-a",
		Regions: []string{"Oregon"},
	})
	clientA.recvExpect(protocol.EventRegionsUpdated)

	publisher.send(protocol.EventPublishAlert, protocol.PublishAlertRequest{
		Alert: protocol.Alert{
			Title:       "Flood Warning",
			Description: "California only.",
			Type:        "WEATHER",
			Severity:    protocol.SeverityHigh,
			Region:      "California",
		},
	})

	alerts := clientA.collectAlerts(time.Second)
	assert.Len(t, alerts, 1, "retargeted client keeps only the general delivery for non-matching regions")
}

func TestSubscribe_MissingUserIDIsRejected(t *testing.T) {
	store := &fakeStore{}
	_, addr := startTestServer(t, store)

	client := dialTestClient(t, addr)
	client.send(protocol.EventSubscribeAlerts, protocol.SubscribeRequest{Regions: []string{"California"}})

	ack := client.recvExpect(protocol.EventAck)
	payload, ok := ack.Payload.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "error", payload["status"])
}

func TestPublish_StoreFailureAcksErrorAndSkipsBroadcast(t *testing.T) {
	store := &fakeStore{err: context.DeadlineExceeded}
	_, addr := startTestServer(t, store)

	subscriber := dialTestClient(t, addr)
	publisher := dialTestClient(t, addr)

	subscriber.send(protocol.EventSubscribeAlerts, protocol.SubscribeRequest{
		UserID:     "user-a",
		Regions:    []string{"California"},
		AlertTypes: []string{"WEATHER"},
	})
	subscriber.recvExpect(protocol.EventSubscriptionConfirmed)

	publisher.send(protocol.EventPublishAlert, protocol.PublishAlertRequest{
		Alert: protocol.Alert{
			Title:       "Flood Warning",
			Description: "Severe flooding expected.",
			Type:        "WEATHER",
			Severity:    protocol.SeverityHigh,
			Region:      "California",
		},
	})

	ack := publisher.recvExpect(protocol.EventAck)
	payload, ok := ack.Payload.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "error", payload["status"])

	assert.Empty(t, subscriber.collectAlerts(500*time.Millisecond))
}
