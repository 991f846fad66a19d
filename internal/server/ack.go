package server

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jmalhado/crisiscast/internal/protocol"
)

const (
	ackStatusOK    = "ok"
	ackStatusError = "error"
)

func (a *App) sendAck(ctx context.Context, session *clientSession, referenceID, status, reason string) {
	ack := protocol.Envelope{
		ID:        uuid.NewString(),
		Type:      protocol.EventAck,
		Timestamp: time.Now().UTC(),
		Payload: protocol.AckPayload{
			ReferenceID: referenceID,
			Status:      status,
			Reason:      reason,
		},
	}
	if err := session.send(ctx, ack); err != nil {
		a.logger.Warn().Err(err).Msg("Ack send failed")
	}
}
