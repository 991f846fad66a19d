package dispatch

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jmalhado/crisiscast/internal/protocol"
)

// Router maps an outbound alert to the rooms that must receive it and
// performs the fanout.
type Router struct {
	registry *Registry
	logger   zerolog.Logger
}

// NewRouter creates a router bound to the connection registry.
func NewRouter(registry *Registry, logger zerolog.Logger) *Router {
	return &Router{
		registry: registry,
		logger:   logger.With().Str("component", "Router").Logger(),
	}
}

// Route emits the alert to every connection in the specific
// region+type room, then separately to every connection in the general
// room. A connection present in both receives two deliveries; the
// general room guarantees every connected subscriber sees every alert
// even when region/type matching is imperfect. Returns the number of
// emit operations attempted, not a guarantee of client-side receipt.
func (rt *Router) Route(alert protocol.Alert) int {
	env := protocol.Envelope{
		ID:        uuid.NewString(),
		Type:      protocol.EventNewAlert,
		Timestamp: time.Now().UTC(),
		Payload:   alert,
	}

	specific := RoomName(alert.Region, alert.Type)
	attempted := rt.emit(specific, env)
	attempted += rt.emit(GeneralRoom, env)

	rt.logger.Info().
		Str("alert", alert.ID).
		Str("room", specific).
		Int("deliveries", attempted).
		Msg("Alert routed")
	return attempted
}

// emit pushes the envelope to every member of the room at the instant
// the membership snapshot is taken. Sends are non-blocking: a connection
// whose outbound buffer is full misses the delivery rather than stalling
// the fanout; its write loop deadline disconnects it if it stays stuck.
func (rt *Router) emit(room string, env protocol.Envelope) int {
	members := rt.registry.Members(room)
	for _, ch := range members {
		select {
		case ch <- env:
		default:
			rt.logger.Warn().Str("room", room).Msg("Dropped delivery to slow connection")
		}
	}
	return len(members)
}
