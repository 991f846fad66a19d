package client

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jmalhado/crisiscast/internal/protocol"
)

type commandSpec struct {
	trigger     string
	usage       string
	description string
}

type controllerEventMsg struct {
	event Event
}

type connectResultMsg struct {
	address string
	err     error
}

type sendResultMsg struct {
	description string
	err         error
}

func (a *App) executeCommand(raw string) tea.Cmd {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return nil
	}

	cmd := fields[0]
	var cmds []tea.Cmd

	switch cmd {
	case "/feed":
		a.view = ViewFeed
		a.logf("Switched to FEED view")
	case "/help":
		a.view = ViewHelp
		a.logf("Switched to HELP view")
	case "/connect":
		target := a.cfg.ServerAddr
		if len(fields) > 1 {
			target = fields[1]
		}
		if target == "" {
			a.logErrorf("Provide a server address to connect")
			break
		}
		if connectCmd := a.connectToServer(target); connectCmd != nil {
			cmds = append(cmds, connectCmd)
		}
	case "/disconnect":
		if disconnectCmd := a.disconnectFromServer(); disconnectCmd != nil {
			cmds = append(cmds, disconnectCmd)
		}
	case "/subscribe":
		if len(fields) < 4 {
			a.logErrorf("Usage: /subscribe <user> <regions> <types>")
			break
		}
		if !a.isConnected() {
			a.logErrorf("Not connected. Use /connect first.")
			break
		}
		userID := fields[1]
		regions := splitList(fields[2])
		alertTypes := splitList(fields[3])
		a.logf("Subscribing %s ...", userID)
		if subCmd := a.sendSubscribe(userID, regions, alertTypes); subCmd != nil {
			cmds = append(cmds, subCmd)
		}
	case "/unsubscribe":
		if !a.isConnected() {
			a.logErrorf("Not connected. Use /connect first.")
			break
		}
		userID := a.userID
		if len(fields) > 1 {
			userID = fields[1]
		}
		if strings.TrimSpace(userID) == "" {
			a.logErrorf("No subscribed user to unsubscribe")
			break
		}
		a.logf("Unsubscribing %s ...", userID)
		if unsubCmd := a.sendUnsubscribe(userID); unsubCmd != nil {
			cmds = append(cmds, unsubCmd)
		}
	case "/regions":
		if len(fields) < 2 {
			a.logErrorf("Usage: /regions <regions>")
			break
		}
		if !a.isConnected() {
			a.logErrorf("Not connected. Use /connect first.")
			break
		}
		if strings.TrimSpace(a.userID) == "" {
			a.logErrorf("Subscribe before updating regions")
			break
		}
		regions := splitList(fields[1])
		a.logf("Updating regions for %s ...", a.userID)
		if updCmd := a.sendUpdateRegions(a.userID, regions); updCmd != nil {
			cmds = append(cmds, updCmd)
		}
	case "/publish":
		if len(fields) < 5 {
			a.logErrorf("Usage: /publish <region> <type> <severity> <title...>")
			break
		}
		if !a.isConnected() {
			a.logErrorf("Not connected. Use /connect first.")
			break
		}
		region := fields[1]
		alertType := fields[2]
		severity := fields[3]
		title := strings.Join(fields[4:], " ")
		a.logf("Publishing %s alert for %s ...", alertType, region)
		if pubCmd := a.sendPublishAlert(region, alertType, severity, title); pubCmd != nil {
			cmds = append(cmds, pubCmd)
		}
	case "/quit":
		a.logf("Exiting monitor")
		_ = a.controller.Disconnect()
		cmds = append(cmds, tea.Quit)
	default:
		a.logErrorf("Command %s not implemented", cmd)
	}

	a.updateViewportContent()

	switch len(cmds) {
	case 0:
		return nil
	case 1:
		return cmds[0]
	default:
		return tea.Batch(cmds...)
	}
}

func (a *App) connectToServer(target string) tea.Cmd {
	if target == "" {
		return nil
	}
	if a.connState != StateDisconnected {
		a.logErrorf("Already connected. Use /disconnect first.")
		return nil
	}
	a.cfg.ServerAddr = target
	controller := NewController(a.cfg)
	a.controller = controller
	a.connState = StateConnecting
	a.logf("Connecting to %s ...", target)

	connect := func() tea.Msg {
		err := controller.Connect(context.Background())
		return connectResultMsg{address: target, err: err}
	}
	return tea.Batch(connect, a.listenForEvents())
}

func (a *App) disconnectFromServer() tea.Cmd {
	controller := a.controller
	a.connState = StateDisconnected
	a.logf("Disconnected")
	return func() tea.Msg {
		err := controller.Disconnect()
		return sendResultMsg{description: "disconnect", err: err}
	}
}

func (a *App) listenForEvents() tea.Cmd {
	controller := a.controller
	if controller == nil {
		return nil
	}
	return func() tea.Msg {
		event, ok := <-controller.Events()
		if !ok {
			return nil
		}
		return controllerEventMsg{event: event}
	}
}

func (a *App) sendSubscribe(userID string, regions, alertTypes []string) tea.Cmd {
	controller := a.controller
	a.userID = userID
	a.regions = regions
	a.alertTypes = alertTypes
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := controller.Subscribe(ctx, userID, regions, alertTypes)
		return sendResultMsg{description: "subscribe request", err: err}
	}
}

func (a *App) sendUnsubscribe(userID string) tea.Cmd {
	controller := a.controller
	a.userID = ""
	a.regions = nil
	a.alertTypes = nil
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := controller.Unsubscribe(ctx, userID)
		return sendResultMsg{description: "unsubscribe request", err: err}
	}
}

func (a *App) sendUpdateRegions(userID string, regions []string) tea.Cmd {
	controller := a.controller
	a.regions = regions
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := controller.UpdateRegions(ctx, userID, regions)
		return sendResultMsg{description: "regions update", err: err}
	}
}

func (a *App) sendPublishAlert(region, alertType, severity, title string) tea.Cmd {
	controller := a.controller
	alert := protocol.Alert{
		Title:       title,
		Description: title,
		Type:        alertType,
		Severity:    severity,
		Region:      region,
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := controller.Publish(ctx, alert)
		return sendResultMsg{description: "publish alert", err: err}
	}
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func defaultCommands() []commandSpec {
	return []commandSpec{
		{trigger: "/connect", usage: "/connect [addr]", description: "Connect to the alert server"},
		{trigger: "/disconnect", usage: "/disconnect", description: "Drop the connection without retrying"},
		{trigger: "/subscribe", usage: "/subscribe <user> <regions> <types>", description: "Declare interest (comma-separated lists)"},
		{trigger: "/unsubscribe", usage: "/unsubscribe [user]", description: "Withdraw the interest profile"},
		{trigger: "/regions", usage: "/regions <regions>", description: "Replace subscribed regions"},
		{trigger: "/publish", usage: "/publish <region> <type> <severity> <title...>", description: "Issue an alert through the server"},
		{trigger: "/feed", usage: "/feed", description: "Switch to the alert feed"},
		{trigger: "/help", usage: "/help", description: "Show command help"},
		{trigger: "/quit", usage: "/quit", description: "Exit the monitor"},
	}
}
