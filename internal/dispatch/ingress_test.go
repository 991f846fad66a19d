package dispatch

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/jmalhado/crisiscast/internal/protocol"
)

func newIngressFixture() (*Registry, *Ingress, chan protocol.Envelope) {
	registry := NewRegistry()
	router := NewRouter(registry, zerolog.Nop())
	ingress := NewIngress(router, zerolog.Nop())

	ch := make(chan protocol.Envelope, 8)
	h := registry.Register(ch)
	registry.JoinRoom(h, GeneralRoom)
	return registry, ingress, ch
}

func TestOnAlertCreated_RoutesValidAlert(t *testing.T) {
	_, ingress, ch := newIngressFixture()

	ingress.OnAlertCreated(testAlert())

	assert.Len(t, drain(ch), 1)
}

func TestOnAlertCreated_DropsMalformedAlertWithoutPanic(t *testing.T) {
	_, ingress, ch := newIngressFixture()

	malformed := []protocol.Alert{
		{},
		{Title: "t", Description: "d", Type: "WEATHER", Severity: "HIGH"},               // no region
		{Title: "t", Description: "d", Region: "California", Severity: "HIGH"},          // no type
		{Title: "t", Description: "d", Region: "California", Type: "WEATHER"},           // no severity
		{Description: "d", Region: "California", Type: "WEATHER", Severity: "HIGH"},     // no title
		{Title: "t", Region: "California", Type: "WEATHER", Severity: "HIGH"},           // no description
		{Title: " ", Description: "d", Region: "California", Type: "WEATHER", Severity: "HIGH"},
	}

	for _, alert := range malformed {
		assert.NotPanics(t, func() {
			ingress.OnAlertCreated(alert)
		})
	}
	assert.Empty(t, drain(ch), "malformed alerts must not reach any room")
}

func TestValidateAlert(t *testing.T) {
	assert.NoError(t, validateAlert(testAlert()))
	assert.ErrorIs(t, validateAlert(protocol.Alert{
		Title:       "t",
		Description: "d",
		Type:        "WEATHER",
		Severity:    "HIGH",
	}), errMissingRegion)
}
