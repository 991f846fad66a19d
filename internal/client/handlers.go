package client

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jmalhado/crisiscast/internal/protocol"
)

func (a *App) handleControllerEvent(msg controllerEventMsg) (tea.Model, tea.Cmd) {
	event := msg.event
	switch event.Kind {
	case EventKindStateChange:
		a.handleStateChange(event)
	case EventKindEnvelope:
		a.handleEnvelope(event.Envelope)
	}
	return a, a.listenForEvents()
}

func (a *App) handleStateChange(event Event) {
	a.connState = event.State
	switch event.State {
	case StateConnected:
		a.logf("Connected to %s", a.cfg.ServerAddr)
	case StateReconnecting:
		a.logf("Connection lost, reconnecting ...")
	case StateDisconnected:
		if event.Err != nil {
			a.logErrorf("Disconnected: %v", event.Err)
		} else {
			a.logf("Disconnected")
		}
	}
}

func (a *App) handleEnvelope(env protocol.Envelope) {
	switch env.Type {
	case protocol.EventNewAlert:
		alert, err := decodeAlert(env.Payload)
		if err != nil {
			a.logErrorf("Malformed alert envelope: %v", err)
			return
		}
		a.handleNewAlert(alert)
	case protocol.EventSubscriptionConfirmed:
		confirmed, err := decodeSubscriptionConfirmed(env.Payload)
		if err != nil {
			a.logErrorf("Malformed confirmation: %v", err)
			return
		}
		a.regions = confirmed.Regions
		a.alertTypes = confirmed.AlertTypes
		a.logf("Subscription confirmed: regions=%s types=%s",
			strings.Join(confirmed.Regions, ","), strings.Join(confirmed.AlertTypes, ","))
	case protocol.EventUnsubscriptionConfirmed:
		a.logf("Unsubscription confirmed")
	case protocol.EventRegionsUpdated:
		updated, err := decodeRegionsUpdated(env.Payload)
		if err != nil {
			a.logErrorf("Malformed regions update: %v", err)
			return
		}
		a.regions = updated.Regions
		a.logf("Regions updated: %s", strings.Join(updated.Regions, ","))
	case protocol.EventMessage:
		chatMsg, err := decodeChatMessage(env.Payload)
		if err != nil {
			return
		}
		a.addFeedLine(fmt.Sprintf("[%s] %s: %s",
			chatMsg.Timestamp.Format("15:04:05"), chatMsg.SenderID, chatMsg.Text))
	case protocol.EventAck:
		ack, err := decodeAck(env.Payload)
		if err != nil {
			return
		}
		if ack.Status == "error" {
			a.logErrorf("Server rejected request: %s", ack.Reason)
		}
	}
}

// handleNewAlert records the alert in the feed. The same alert arrives
// twice when this client subscribes to its region and type: once via the
// specific room and once via the general room. The duplicate is the
// filtering signal, rendered with a marker instead of being hidden.
func (a *App) handleNewAlert(alert protocol.Alert) {
	duplicate := false
	for i := len(a.alerts) - 1; i >= 0; i-- {
		if a.alerts[i].ID == alert.ID {
			duplicate = true
			break
		}
	}
	a.alerts = append(a.alerts, alert)

	marker := "general"
	if duplicate {
		marker = "targeted"
	}
	line := fmt.Sprintf("[%s] %s %s/%s (%s): %s",
		alert.IssuedAt.Format("15:04:05"), severityTag(alert.Severity),
		alert.Region, alert.Type, marker, alert.Title)
	a.addFeedLine(line)

	if a.view == ViewWelcome {
		a.view = ViewFeed
		a.updateViewportContent()
	}
}

func severityTag(severity string) string {
	tag := strings.ToUpper(strings.TrimSpace(severity))
	switch tag {
	case protocol.SeverityHigh, protocol.SeverityCritical:
		return styleSevere.Render(tag)
	default:
		return tag
	}
}

func (a *App) handleConnectResult(msg connectResultMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		a.connState = StateDisconnected
		a.logErrorf("Connect to %s failed: %v", msg.address, msg.err)
		return a, nil
	}
	a.connState = StateConnected
	a.logf("Connected to %s", msg.address)
	return a, nil
}

func (a *App) handleSendResult(msg sendResultMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		a.logErrorf("%s failed: %v", msg.description, msg.err)
	}
	return a, nil
}
