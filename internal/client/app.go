package client

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jmalhado/crisiscast/internal/config"
	"github.com/jmalhado/crisiscast/internal/protocol"
)

const (
	defaultInputCapacity = 256
	feedLimit            = 256
)

// PrimaryView enumerates main content panels.
type PrimaryView int

const (
	ViewWelcome PrimaryView = iota
	ViewFeed
	ViewHelp
)

// App implements the bubbletea tea.Model interface for the alert monitor.
type App struct {
	cfg        config.ClientConfig
	controller *Controller
	input      []rune
	cursor     int
	feed       []string
	alerts     []protocol.Alert
	userID     string
	regions    []string
	alertTypes []string
	connState  State
	viewport   viewport.Model
	logLine    string
	view       PrimaryView
	width      int
	height     int
}

// NewApp returns a Bubble Tea model pre-populated with defaults.
func NewApp(cfg config.ClientConfig) tea.Model {
	vp := viewport.New(0, 0)
	app := &App{
		cfg:        cfg,
		controller: NewController(cfg),
		input:      make([]rune, 0, defaultInputCapacity),
		feed:       make([]string, 0, 128),
		connState:  StateDisconnected,
		viewport:   vp,
		view:       ViewWelcome,
	}
	app.updateViewportContent()
	return app
}

// Init is part of the tea.Model interface.
func (a *App) Init() tea.Cmd {
	return a.listenForEvents()
}

// Update handles user input and controller events.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		a.resizeViewport(m.Width, m.Height)
		return a, nil
	case tea.KeyMsg:
		return a.handleKey(m)
	case controllerEventMsg:
		return a.handleControllerEvent(m)
	case connectResultMsg:
		return a.handleConnectResult(m)
	case sendResultMsg:
		return a.handleSendResult(m)
	default:
		var cmd tea.Cmd
		a.viewport, cmd = a.viewport.Update(m)
		return a, cmd
	}
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		_ = a.controller.Disconnect()
		return a, tea.Quit
	case tea.KeyPgUp:
		a.viewport.ScrollUp(a.viewport.Height)
		return a, nil
	case tea.KeyPgDown:
		a.viewport.ScrollDown(a.viewport.Height)
		return a, nil
	case tea.KeyUp:
		a.viewport.ScrollUp(1)
		return a, nil
	case tea.KeyDown:
		a.viewport.ScrollDown(1)
		return a, nil
	case tea.KeyLeft:
		if a.cursor > 0 {
			a.cursor--
		}
		return a, nil
	case tea.KeyRight:
		if a.cursor < len(a.input) {
			a.cursor++
		}
		return a, nil
	case tea.KeyHome:
		a.cursor = 0
		return a, nil
	case tea.KeyEnd:
		a.cursor = len(a.input)
		return a, nil
	case tea.KeyBackspace:
		if a.cursor > 0 && len(a.input) > 0 {
			a.input = append(a.input[:a.cursor-1], a.input[a.cursor:]...)
			a.cursor--
		}
		return a, nil
	case tea.KeyDelete:
		if a.cursor < len(a.input) {
			a.input = append(a.input[:a.cursor], a.input[a.cursor+1:]...)
		}
		return a, nil
	case tea.KeySpace:
		a.insertRunes([]rune{' '})
		return a, nil
	case tea.KeyEnter:
		return a.handleEnter()
	}

	if len(msg.Runes) > 0 {
		a.insertRunes(msg.Runes)
	}
	return a, nil
}

func (a *App) handleEnter() (tea.Model, tea.Cmd) {
	raw := strings.TrimSpace(string(a.input))
	a.input = a.input[:0]
	a.cursor = 0
	if raw == "" {
		return a, nil
	}
	if strings.HasPrefix(raw, string(a.cfg.CommandPrefix)) {
		return a, a.executeCommand(raw)
	}
	a.logErrorf("Commands start with %c (try %chelp)", a.cfg.CommandPrefix, a.cfg.CommandPrefix)
	return a, nil
}

func (a *App) insertRunes(runes []rune) {
	if len(runes) == 0 {
		return
	}
	insertion := len(runes)
	currentLen := len(a.input)
	a.input = append(a.input, make([]rune, insertion)...)
	copy(a.input[a.cursor+insertion:], a.input[a.cursor:currentLen])
	copy(a.input[a.cursor:], runes)
	a.cursor += insertion
}

func (a *App) isConnected() bool {
	return a.connState == StateConnected
}

func (a *App) addFeedLine(line string) {
	a.feed = append(a.feed, line)
	if len(a.feed) > feedLimit {
		a.feed = a.feed[len(a.feed)-feedLimit:]
	}
	a.updateViewportContent()
}
