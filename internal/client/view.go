package client

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	figure "github.com/common-nighthawk/go-figure"
)

var homeContent = buildHomeContent()

var (
	styleTitle         = lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true)
	styleStatusOnline  = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	styleStatusOffline = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	styleLabel         = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	styleValue         = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	styleLog           = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	styleSevere        = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

// View is part of the tea.Model interface.
func (a *App) View() string {
	var b strings.Builder

	b.WriteString(a.viewport.View())
	b.WriteString("\n")
	b.WriteString("> " + a.inputView())
	b.WriteString("\n")
	b.WriteString(styleLog.Render(a.logLine))
	b.WriteString("\n")
	b.WriteString(a.statusLine())

	return b.String()
}

func (a *App) inputView() string {
	if a.cursor >= len(a.input) {
		return string(a.input) + "_"
	}
	return string(a.input[:a.cursor]) + "_" + string(a.input[a.cursor:])
}

func (a *App) updateViewportContent() {
	switch a.view {
	case ViewWelcome:
		a.viewport.SetContent(homeContent)
	case ViewFeed:
		if len(a.feed) == 0 {
			a.viewport.SetContent("No alerts received yet.")
		} else {
			a.viewport.SetContent(strings.Join(a.feed, "\n"))
		}
		a.viewport.GotoBottom()
	case ViewHelp:
		a.viewport.SetContent(renderHelpView())
	}
}

func (a *App) resizeViewport(width, height int) {
	a.width = width
	a.height = height
	const fixed = 3
	vpHeight := height - fixed
	if vpHeight < 3 {
		vpHeight = 3
	}
	a.viewport.Width = width
	a.viewport.Height = vpHeight
	a.updateViewportContent()
}

func (a *App) statusLine() string {
	status := strings.ToUpper(a.connState.String())
	statusStyle := styleStatusOffline
	if a.connState == StateConnected {
		statusStyle = styleStatusOnline
	}

	user := a.userID
	if user == "" {
		user = "-"
	}
	regions := strings.Join(a.regions, ",")
	if regions == "" {
		regions = "-"
	}

	parts := []string{
		styleTitle.Render("CrisisCast"),
		statusStyle.Render(status),
		styleLabel.Render("Server") + ": " + styleValue.Render(a.cfg.ServerAddr),
		styleLabel.Render("User") + ": " + styleValue.Render(user),
		styleLabel.Render("Regions") + ": " + styleValue.Render(regions),
	}

	return strings.Join(parts, " | ")
}

func (a *App) logf(format string, args ...interface{}) {
	a.logLine = fmt.Sprintf(format, args...)
}

func (a *App) logErrorf(format string, args ...interface{}) {
	a.logLine = "error: " + fmt.Sprintf(format, args...)
}

func renderHelpView() string {
	var b strings.Builder
	b.WriteString("CrisisCast Commands\n\n")
	for _, c := range defaultCommands() {
		b.WriteString(fmt.Sprintf("%-40s %s\n", c.usage, c.description))
	}
	return strings.TrimRight(b.String(), "\n")
}

func buildHomeContent() string {
	fig := figure.NewColorFigure("CRISIS CAST", "3-d", "red", true)
	art := strings.TrimRight(fig.String(), "\n")
	info := []string{
		"Use /connect to reach the alert server.",
		"Use /subscribe <user> <regions> <types> to declare interest.",
		"Use /regions <regions> to retarget without resubscribing.",
		"Use /feed to watch incoming alerts.",
		"Use /help to browse all commands.",
	}

	var b strings.Builder
	b.WriteString(art)
	b.WriteString("\n\n")
	b.WriteString(strings.Join(info, "\n"))
	return b.String()
}
