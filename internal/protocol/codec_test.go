package protocol

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodec_RoundTripsAlertEnvelope(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer

	issued := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	env := Envelope{
		ID:        "env-1",
		Type:      EventNewAlert,
		Timestamp: issued,
		Payload: Alert{
			ID:          "alert-1",
			Title:       "Flood Warning",
			Description: "Severe flooding expected.",
			Type:        "WEATHER",
			Severity:    SeverityHigh,
			Region:      "California",
			IssuedAt:    issued,
		},
	}

	require.NoError(t, NewEncoder(&buf).Encode(ctx, env))

	decoded, err := NewDecoder(&buf, 0).Decode(ctx)
	require.NoError(t, err)
	assert.Equal(t, env.ID, decoded.ID)
	assert.Equal(t, EventNewAlert, decoded.Type)

	payload, ok := decoded.Payload.(map[string]interface{})
	require.True(t, ok, "payload decodes as free-form JSON until the boundary types it")
	assert.Equal(t, "alert-1", payload["id"])
	assert.Equal(t, "California", payload["region"])
	assert.Equal(t, issued.Format(time.RFC3339), payload["issuedAt"])
}

func TestDecode_RejectsZeroLengthFrame(t *testing.T) {
	buf := bytes.NewBuffer([]byte{0, 0, 0, 0})

	_, err := NewDecoder(buf, 0).Decode(context.Background())
	assert.Error(t, err)
}

func TestDecode_RejectsOversizedFrame(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewEncoder(&buf).Encode(context.Background(), Envelope{
		ID:   "env-1",
		Type: EventMessage,
		Payload: ChatMessage{
			Text: "this frame is larger than the configured cap",
		},
	}))

	_, err := NewDecoder(&buf, 16).Decode(context.Background())
	assert.ErrorContains(t, err, "exceeds limit")
}

func TestDecode_HonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewDecoder(bytes.NewBuffer(nil), 0).Decode(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
