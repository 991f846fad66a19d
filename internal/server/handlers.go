package server

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jmalhado/crisiscast/internal/protocol"
)

func (a *App) handleSubscribe(ctx context.Context, session *clientSession, env protocol.Envelope) {
	req, err := decodeSubscribeRequest(env.Payload)
	if err != nil {
		a.sendAck(ctx, session, env.ID, ackStatusError, "invalid subscribe payload")
		return
	}
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		a.sendAck(ctx, session, env.ID, ackStatusError, "user id required")
		return
	}

	regions, alertTypes := a.subs.Subscribe(userID, req.Regions, req.AlertTypes, session.handle)
	a.logger.Info().
		Str("user", userID).
		Strs("regions", regions).
		Strs("types", alertTypes).
		Msg("Subscription applied")

	confirmation := protocol.Envelope{
		ID:        uuid.NewString(),
		Type:      protocol.EventSubscriptionConfirmed,
		Timestamp: time.Now().UTC(),
		Payload: protocol.SubscriptionConfirmed{
			Regions:    regions,
			AlertTypes: alertTypes,
		},
	}
	if err := session.send(ctx, confirmation); err != nil {
		a.logger.Warn().Err(err).Str("user", userID).Msg("Subscription confirmation send failed")
	}
}

func (a *App) handleUnsubscribe(ctx context.Context, session *clientSession, env protocol.Envelope) {
	req, err := decodeUnsubscribeRequest(env.Payload)
	if err != nil {
		a.sendAck(ctx, session, env.ID, ackStatusError, "invalid unsubscribe payload")
		return
	}
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		a.sendAck(ctx, session, env.ID, ackStatusError, "user id required")
		return
	}

	a.subs.Unsubscribe(userID, session.handle)
	a.logger.Info().Str("user", userID).Msg("Subscription removed")

	confirmation := protocol.Envelope{
		ID:        uuid.NewString(),
		Type:      protocol.EventUnsubscriptionConfirmed,
		Timestamp: time.Now().UTC(),
		Payload:   protocol.UnsubscriptionConfirmed{},
	}
	if err := session.send(ctx, confirmation); err != nil {
		a.logger.Warn().Err(err).Str("user", userID).Msg("Unsubscription confirmation send failed")
	}
}

func (a *App) handleUpdateRegions(ctx context.Context, session *clientSession, env protocol.Envelope) {
	req, err := decodeUpdateRegionsRequest(env.Payload)
	if err != nil {
		a.sendAck(ctx, session, env.ID, ackStatusError, "invalid update payload")
		return
	}
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		a.sendAck(ctx, session, env.ID, ackStatusError, "user id required")
		return
	}

	regions := a.subs.UpdateRegions(userID, req.Regions, session.handle)
	a.logger.Info().Str("user", userID).Strs("regions", regions).Msg("Regions updated")

	updated := protocol.Envelope{
		ID:        uuid.NewString(),
		Type:      protocol.EventRegionsUpdated,
		Timestamp: time.Now().UTC(),
		Payload:   protocol.RegionsUpdated{Regions: regions},
	}
	if err := session.send(ctx, updated); err != nil {
		a.logger.Warn().Err(err).Str("user", userID).Msg("Regions update confirmation send failed")
	}
}

// handlePublishAlert models the alert-creation workflow: persist the
// record durably, then hand it to the ingress adapter. A routing problem
// never rolls back or blocks the write.
func (a *App) handlePublishAlert(ctx context.Context, session *clientSession, env protocol.Envelope) {
	req, err := decodePublishAlertRequest(env.Payload)
	if err != nil {
		a.sendAck(ctx, session, env.ID, ackStatusError, "invalid alert payload")
		return
	}

	alert := req.Alert
	if strings.TrimSpace(alert.ID) == "" {
		alert.ID = uuid.NewString()
	}
	if alert.IssuedAt.IsZero() {
		alert.IssuedAt = time.Now().UTC()
	}

	if err := a.store.SaveAlert(ctx, &alert); err != nil {
		a.logger.Error().Err(err).Str("alert", alert.ID).Msg("Alert store write failed")
		a.sendAck(ctx, session, env.ID, ackStatusError, "alert not stored")
		return
	}

	a.ingress.OnAlertCreated(alert)
	a.sendAck(ctx, session, env.ID, ackStatusOK, alert.ID)
}

// handleMessage echoes generic channel messages back to the sender.
func (a *App) handleMessage(ctx context.Context, session *clientSession, env protocol.Envelope) {
	msg, err := decodeChatMessage(env.Payload)
	if err != nil {
		a.sendAck(ctx, session, env.ID, ackStatusError, "invalid message payload")
		return
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	echo := protocol.Envelope{
		ID:        uuid.NewString(),
		Type:      protocol.EventMessage,
		Timestamp: time.Now().UTC(),
		Payload:   msg,
	}
	if err := session.send(ctx, echo); err != nil {
		a.logger.Warn().Err(err).Msg("Message echo send failed")
	}
}
