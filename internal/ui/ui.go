package ui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/scribe/internal/chat"
	"github.com/desertthunder/scribe/internal/library"
	"github.com/desertthunder/scribe/internal/models"
	"github.com/desertthunder/scribe/internal/preferences"
	"github.com/desertthunder/scribe/internal/services"
	"github.com/desertthunder/scribe/internal/session"
	"github.com/desertthunder/scribe/internal/shared"
	"github.com/desertthunder/scribe/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LoginView ViewState = iota
	GuestDashboardView
	DashboardView
	ViewerView
	ChatView
	UploadView
	SettingsView
)

func (v ViewState) String() string {
	switch v {
	case LoginView:
		return "login"
	case GuestDashboardView:
		return "guest_dashboard"
	case DashboardView:
		return "dashboard"
	case ViewerView:
		return "viewer"
	case ChatView:
		return "chat"
	case UploadView:
		return "upload"
	case SettingsView:
		return "settings"
	default:
		return ""
	}
}

// Route picks the top-level view for a session: the dashboard when an access token is present, the guest
// dashboard in guest mode and the login view otherwise.
func Route(s session.Session) ViewState {
	switch s.Mode() {
	case session.Authenticated:
		return DashboardView
	case session.Guest:
		return GuestDashboardView
	default:
		return LoginView
	}
}

// Deps holds the controllers the TUI drives.
type Deps struct {
	Client   *services.Client
	Session  *session.Manager
	Library  *library.Library
	Uploader *tasks.Uploader
	Panel    *preferences.Panel
	Theme    *preferences.ThemeBinding
	Logger   *log.Logger
}

// Model represents the TUI application state.
type Model struct {
	ctx     context.Context
	deps    Deps
	view    ViewState
	width   int
	height  int
	palette *Palette
	help    help.Model
	keys    keyMap
	spinner spinner.Model
	status  string
	err     error

	ended       chan error
	schemes     chan preferences.Scheme
	unsubscribe []func()

	loginInputs []textinput.Model
	loginFocus  int
	busy        bool

	transcripts list.Model

	viewer   *library.Viewer
	viewport viewport.Model
	prompt   *promptState

	chat      *chat.Controller
	chatInput textinput.Model
	chatBack  ViewState

	uploadInput  textinput.Model
	uploadPath   string
	quality      models.Quality
	progress     progress.Model
	progressChan chan tasks.ProgressUpdate
	uploadDone   chan Msg
	cancelUpload context.CancelFunc
	lastUpdate   tasks.ProgressUpdate
	uploading    bool

	guestResult *models.TranscribeResult

	settingsInputs []textinput.Model
	settingsFocus  int
}

// NewModel creates a new TUI model with the provided dependencies.
//
// The model subscribes to session end and theme changes; call [Model.Close] once the program exits.
func NewModel(ctx context.Context, deps Deps) *Model {
	m := &Model{
		ctx:         ctx,
		deps:        deps,
		view:        Route(deps.Session.Current()),
		palette:     lightPalette,
		help:        help.New(),
		keys:        newKeyMap(),
		spinner:     spinner.New(spinner.WithSpinner(spinner.Dot)),
		ended:       make(chan error, 1),
		schemes:     make(chan preferences.Scheme, 1),
		loginInputs: newLoginInputs(),
		transcripts: newTranscriptList(),
		viewport:    viewport.New(80, 20),
		chatInput:   newChatInput(),
		uploadInput: newUploadInput(),
		progress:    progress.New(progress.WithDefaultGradient()),
	}

	m.unsubscribe = append(m.unsubscribe, deps.Session.OnEnd(func(reason error) {
		select {
		case m.ended <- reason:
		default:
		}
	}))

	if deps.Theme != nil {
		m.palette = PaletteFor(deps.Theme.Effective())
		m.unsubscribe = append(m.unsubscribe, deps.Theme.OnChange(func(s preferences.Scheme) {
			select {
			case m.schemes <- s:
			default:
			}
		}))
	}
	return m
}

// ViewState returns the active view.
func (m *Model) ViewState() ViewState {
	return m.view
}

// Close releases the session and theme subscriptions.
func (m *Model) Close() {
	for _, fn := range m.unsubscribe {
		fn()
	}
	m.unsubscribe = nil
	if m.cancelUpload != nil {
		m.cancelUpload()
	}
}

// Init starts the listeners and loads the first view.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.waitForSessionEnd(), m.waitForScheme(), textinput.Blink}
	if m.view == DashboardView {
		cmds = append(cmds, m.fetchTranscripts())
	}
	return tea.Batch(cmds...)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.transcripts.SetSize(msg.Width-4, msg.Height-8)
		m.viewport.Width = msg.Width - 4
		m.viewport.Height = msg.Height - 10
		m.progress.Width = min(msg.Width-8, 60)
		return m, nil

	case spinner.TickMsg:
		if !m.busy && !m.uploading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refreshChat()
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.view {
		case LoginView:
			return m.handleLoginKeys(msg)
		case GuestDashboardView:
			return m.handleGuestKeys(msg)
		case DashboardView:
			return m.handleDashboardKeys(msg)
		case ViewerView:
			return m.handleViewerKeys(msg)
		case ChatView:
			return m.handleChatKeys(msg)
		case UploadView:
			return m.handleUploadKeys(msg)
		case SettingsView:
			return m.handleSettingsKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateComponents(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgSessionEnded:
		m.reset()
		m.view = LoginView
		m.status = "Logged out"
		if msg.err != nil {
			m.status = shared.ErrSessionExpired.Error()
		}
		return m, m.waitForSessionEnd()

	case MsgSchemeChanged:
		// A dropped notification is fine: the binding always holds the latest scheme.
		s, _ := msg.data.(preferences.Scheme)
		if m.deps.Theme != nil {
			s = m.deps.Theme.Effective()
		}
		m.palette = PaletteFor(s)
		return m, m.waitForScheme()

	case MsgLoggedIn:
		return m.handleLoggedIn(msg)

	case MsgTranscriptsFetched:
		if msg.err != nil {
			m.fail(msg.err, "Failed to load transcripts")
			return m, nil
		}
		return m, m.transcripts.SetItems(transcriptItems(msg.data.([]models.TranscriptSummary)))

	case MsgTranscriptOpened, MsgTranscriptChanged, MsgTranscriptDeleted, MsgExported:
		return m.handleLibraryMsg(msg)

	case MsgProgressUpdate:
		m.lastUpdate = msg.data.(tasks.ProgressUpdate)
		return m, waitForProgress(m.progressChan, m.uploadDone)

	case MsgUploadComplete:
		return m.handleUploadComplete(msg)

	case MsgChatUpdated:
		return m.handleChatUpdated(msg)

	case MsgSettingsLoaded, MsgSettingsSaved:
		return m.handleSettingsMsg(msg)
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var body string
	switch m.view {
	case LoginView:
		body = m.renderLogin()
	case GuestDashboardView:
		body = m.renderGuestDashboard()
	case DashboardView:
		body = m.renderDashboard()
	case ViewerView:
		body = m.renderViewer()
	case ChatView:
		body = m.renderChat()
	case UploadView:
		body = m.renderUpload()
	case SettingsView:
		body = m.renderSettings()
	}
	return body + m.renderStatus()
}

func (m *Model) renderStatus() string {
	switch {
	case m.err != nil:
		return "\n\n" + m.palette.err.Render(m.err.Error())
	case m.status != "":
		return "\n\n" + m.palette.ok.Render(m.status)
	}
	return ""
}

// fail records err for display, preferring the backend message over fallback.
func (m *Model) fail(err error, fallback string) {
	m.status = ""
	var verr *tasks.ValidationError
	if errors.As(err, &verr) || errors.Is(err, shared.ErrInvalidInput) {
		m.err = err
		return
	}
	m.err = errors.New(services.Message(err, fallback))
	if m.deps.Logger != nil {
		m.deps.Logger.Debug("tui error", "view", m.view, "error", err)
	}
}

func (m *Model) clearStatus() {
	m.status = ""
	m.err = nil
}

// reset drops all per-session state.
func (m *Model) reset() {
	if m.cancelUpload != nil {
		m.cancelUpload()
		m.cancelUpload = nil
	}
	m.busy = false
	m.uploading = false
	m.viewer = nil
	m.prompt = nil
	m.chat = nil
	m.guestResult = nil
	m.err = nil
	m.loginInputs = newLoginInputs()
	m.loginFocus = 0
	m.transcripts.SetItems(nil)
	if m.deps.Library != nil {
		m.deps.Library.Close()
	}
}

func (m *Model) updateComponents(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case DashboardView:
		m.transcripts, cmd = m.transcripts.Update(msg)
	case ViewerView, GuestDashboardView, ChatView:
		m.viewport, cmd = m.viewport.Update(msg)
	case UploadView:
		var model tea.Model
		model, cmd = m.progress.Update(msg)
		if p, ok := model.(progress.Model); ok {
			m.progress = p
		}
	}
	return m, cmd
}

func (m *Model) waitForSessionEnd() tea.Cmd {
	ended := m.ended
	return func() tea.Msg {
		return sessionEndedMsg(<-ended)
	}
}

func (m *Model) waitForScheme() tea.Cmd {
	schemes := m.schemes
	return func() tea.Msg {
		return schemeChangedMsg(<-schemes)
	}
}

func (m *Model) fetchTranscripts() tea.Cmd {
	lib := m.deps.Library
	ctx := m.ctx
	return func() tea.Msg {
		items, err := lib.Refresh(ctx)
		return transcriptsFetchedMsg(items, err)
	}
}

func (m *Model) helpView(bindings ...key.Binding) string {
	return m.palette.help.Render(m.help.ShortHelpView(bindings))
}

func title(p *Palette, format string, args ...any) string {
	return p.title.Render(fmt.Sprintf(format, args...))
}
