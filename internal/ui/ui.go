package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/desertthunder/spotme/internal/annotate"
	"github.com/desertthunder/spotme/internal/auth"
	"github.com/desertthunder/spotme/internal/formatter"
	"github.com/desertthunder/spotme/internal/models"
	"github.com/desertthunder/spotme/internal/session"
	"github.com/desertthunder/spotme/internal/shared"
)

// CodeWaiter blocks until an authorization code arrives.
type CodeWaiter interface {
	WaitForCode(ctx context.Context) (string, error)
}

// Options configures a [Model].
type Options struct {
	// Code is exchanged on start, as if the program was opened from the redirect.
	Code string
	// Waiter receives the redirect after login. Nil leaves the code to [Options.Code].
	Waiter            CodeWaiter
	OpenBrowser       func(url string) error
	Picker            Picker
	RegistrationEmail string
	Logger            *log.Logger
}

// piece is one rendered segment; mention is set for genre mentions.
type piece struct {
	text    string
	mention *Mention
}

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	controller   *session.Controller
	waiter       CodeWaiter
	openBrowser  func(string) error
	code         string
	registration string
	logger       *log.Logger

	interactions *Interactions
	lines        [][]piece
	flier        string
	focus        int
	loginURL     string
	status       string
	awaitingCode bool // a login is between StartLogin and the redirect

	width   int
	height  int
	spinner spinner.Model
	help    help.Model
	keys    keyMap
}

// NewModel creates a new TUI model driving controller.
func NewModel(ctx context.Context, controller *session.Controller, opts Options) *Model {
	if opts.OpenBrowser == nil {
		opts.OpenBrowser = shared.OpenBrowser
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.ok

	return &Model{
		ctx:          ctx,
		controller:   controller,
		waiter:       opts.Waiter,
		openBrowser:  opts.OpenBrowser,
		code:         opts.Code,
		registration: opts.RegistrationEmail,
		logger:       shared.WithLogger(opts.Logger, "component", "tui"),
		interactions: NewInteractions(NewOverlaySlot(), opts.Picker),
		focus:        -1,
		spinner:      s,
		help:         help.New(),
		keys:         newKeyMap(),
	}
}

// Init starts the spinner and exchanges a code passed on start.
func (m *Model) Init() tea.Cmd {
	if m.code != "" {
		code := m.code
		m.code = ""
		return tea.Batch(m.spinner.Tick, m.exchange(code))
	}
	return m.spinner.Tick
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)
	}
	return m, nil
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgLoginStarted:
		data := msg.data.(loginStarted)
		if data.err != nil {
			m.awaitingCode = false
			m.status = ""
			return m, nil
		}
		m.loginURL = data.url
		if err := m.openBrowser(data.url); err != nil {
			m.logger.Warn("could not open browser", "error", err)
		}
		if m.waiter == nil {
			m.awaitingCode = false
			m.status = "Open the login URL, then restart with --code"
			return m, nil
		}
		m.status = "Waiting for Spotify to redirect back"
		return m, m.waitForCode()

	case MsgCodeReceived:
		data := msg.data.(codeReceived)
		m.awaitingCode = false
		if data.err != nil {
			m.status = fmt.Sprintf("Login failed: %v", data.err)
			return m, nil
		}
		m.status = "Exchanging authorization code"
		return m, m.exchange(data.code)

	case MsgExchangeDone:
		m.loginURL = ""
		if err, _ := msg.data.(error); err != nil {
			m.status = ""
			return m, nil
		}
		snap := m.controller.Snapshot()
		if !snap.Authenticated {
			m.clear()
			m.status = "Logged out"
			return m, nil
		}
		m.status = "Logged in"
		return m, nil

	case MsgRecommendationsFetched:
		data := msg.data.(recommendationsFetched)
		switch {
		case errors.Is(data.err, shared.ErrStaleResult):
			return m, nil
		case data.err != nil:
			m.status = ""
			return m, nil
		}
		m.render(data.result)
		m.status = ""
		return m, nil
	}
	return m, nil
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	snap := m.controller.Snapshot()

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.login):
		if snap.Authenticated || snap.Loading || m.awaitingCode {
			return m, nil
		}
		m.awaitingCode = true
		m.status = "Starting login"
		return m, m.startLogin()

	case key.Matches(msg, m.keys.generate):
		if !snap.Authenticated || snap.Loading || snap.NotAllowlisted {
			return m, nil
		}
		m.status = "Generating recommendations"
		return m, m.generate()

	case key.Matches(msg, m.keys.next):
		m.moveFocus(1)
	case key.Matches(msg, m.keys.prev):
		m.moveFocus(-1)

	case key.Matches(msg, m.keys.activate):
		if mention := m.focused(); mention != nil {
			mention.Activate()
		}

	case key.Matches(msg, m.keys.dismiss):
		m.interactions.Dismiss()

	case key.Matches(msg, m.keys.logout):
		m.controller.Logout()
		m.clear()
		m.status = "Logged out"
	}
	return m, nil
}

// render rebuilds the annotated lines and rebinds every mention.
func (m *Model) render(result *models.RecommendationResult) {
	m.clear()
	if result == nil {
		return
	}
	m.flier = result.FlierImageURL
	for _, text := range result.Recommendations {
		var line []piece
		for _, seg := range annotate.Annotate(text, result.Genres) {
			p := piece{text: seg.Literal()}
			if gm, ok := seg.(annotate.GenreMention); ok {
				p.mention = m.interactions.Bind(gm)
			}
			line = append(line, p)
		}
		m.lines = append(m.lines, line)
	}
}

func (m *Model) clear() {
	m.interactions.Reset()
	m.lines = nil
	m.flier = ""
	m.focus = -1
}

// moveFocus blurs the focused mention and focuses the one delta steps away.
func (m *Model) moveFocus(delta int) {
	mentions := m.interactions.Mentions()
	if len(mentions) == 0 {
		return
	}
	if current := m.focused(); current != nil {
		current.Blur()
	}

	n := len(mentions)
	switch {
	case m.focus < 0 && delta < 0:
		m.focus = n - 1
	case m.focus < 0:
		m.focus = 0
	default:
		m.focus = ((m.focus+delta)%n + n) % n
	}
	mentions[m.focus].Focus()
}

func (m *Model) focused() *Mention {
	mentions := m.interactions.Mentions()
	if m.focus < 0 || m.focus >= len(mentions) {
		return nil
	}
	return mentions[m.focus]
}

func (m *Model) startLogin() tea.Cmd {
	return func() tea.Msg {
		url, err := m.controller.StartLogin(m.ctx)
		return loginStartedMsg(url, err)
	}
}

func (m *Model) waitForCode() tea.Cmd {
	return func() tea.Msg {
		code, err := m.waiter.WaitForCode(m.ctx)
		return codeReceivedMsg(code, err)
	}
}

func (m *Model) exchange(code string) tea.Cmd {
	return func() tea.Msg {
		return exchangeDoneMsg(m.controller.ReceiveCode(m.ctx, code))
	}
}

func (m *Model) generate() tea.Cmd {
	return func() tea.Msg {
		result, err := m.controller.Generate(m.ctx)
		return recommendationsFetchedMsg(result, err)
	}
}

// View renders the session state, recommendations and the overlay.
func (m *Model) View() string {
	snap := m.controller.Snapshot()
	var b strings.Builder

	b.WriteString(styles.title.Render("Spot Me"))
	b.WriteString("\n")
	b.WriteString(m.renderState(snap))
	b.WriteString("\n")

	if snap.Loading {
		b.WriteString(fmt.Sprintf("\n%s %s\n", m.spinner.View(), m.status))
	} else if m.status != "" {
		b.WriteString("\n" + styles.help.Render(m.status) + "\n")
	}

	if m.loginURL != "" && snap.State == auth.AwaitingRedirect {
		b.WriteString("\nIf your browser did not open, visit:\n" + m.loginURL + "\n")
	}

	if snap.NotAllowlisted {
		b.WriteString("\n" + styles.warn.Render("Spot Me is invite-only. Request access by email:") + "\n")
		b.WriteString(formatter.RegistrationLink(m.registration) + "\n")
	}

	if snap.Err != nil {
		b.WriteString("\n" + styles.err.Render(fmt.Sprintf("Error: %v", snap.Err)) + "\n")
	}

	if len(m.lines) > 0 {
		b.WriteString("\n")
		for i, line := range m.lines {
			b.WriteString(fmt.Sprintf("%d. %s\n", i+1, m.renderLine(line)))
		}
		if m.flier != "" {
			b.WriteString(styles.help.Render("Flier: "+m.flier) + "\n")
		}
	}

	if d, ok := Showing(m.interactions.Slot()); ok {
		b.WriteString(styles.overlay.Render(renderDetail(d)))
		b.WriteString("\n")
	}

	b.WriteString("\n" + m.help.ShortHelpView(m.helpKeys(snap)))
	return b.String()
}

func (m *Model) renderState(snap session.Snapshot) string {
	switch snap.State {
	case auth.Authenticated:
		return styles.ok.Render("Logged in")
	case auth.AwaitingRedirect:
		return styles.warn.Render("Waiting for authorization")
	case auth.ExchangingCode:
		return styles.warn.Render("Exchanging code")
	case auth.Failed:
		return styles.err.Render("Login failed, press l to try again")
	default:
		return styles.help.Render("Logged out")
	}
}

func (m *Model) renderLine(line []piece) string {
	current := m.focused()
	var b strings.Builder
	for _, p := range line {
		switch {
		case p.mention == nil:
			b.WriteString(p.text)
		case p.mention == current:
			b.WriteString(styles.focused.Render(p.text))
		default:
			b.WriteString(styles.mention.Render(p.text))
		}
	}
	return b.String()
}

func renderDetail(d *Detail) string {
	if !d.HasArtist {
		return d.Genre
	}
	lines := []string{fmt.Sprintf("Because you like %s", d.Artist.Name)}
	if d.Artist.ProfileURL != "" {
		lines = append(lines, d.Artist.ProfileURL)
	}
	if d.Artist.ImageURL != "" {
		lines = append(lines, styles.help.Render(d.Artist.ImageURL))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) helpKeys(snap session.Snapshot) []key.Binding {
	var keys []key.Binding
	if snap.Authenticated {
		if !snap.NotAllowlisted {
			keys = append(keys, m.keys.generate)
		}
		keys = append(keys, m.keys.logout)
	} else {
		keys = append(keys, m.keys.login)
	}
	if len(m.lines) > 0 {
		keys = append(keys, m.keys.next, m.keys.activate, m.keys.dismiss)
	}
	return append(keys, m.keys.quit)
}
