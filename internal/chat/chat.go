// Package chat runs the AI chat about one transcript.
//
// A [Controller] is idle or awaiting a reply. Sending appends a pending user message right away; the backend reply
// confirms it and appends the assistant answer, a failure removes it so the log is exactly what it was before.
// Signed-in users chat through the stored per-transcript history, guests send the transcript text along with every
// message and keep the log in memory only.
package chat

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/scribe/internal/models"
	"github.com/desertthunder/scribe/internal/shared"
)

var (
	ErrBusy         = errors.New("a message is already being sent")
	ErrEmptyMessage = errors.New("message cannot be empty")
)

// State of a [Controller].
type State int

const (
	Idle State = iota
	AwaitingResponse
)

func (s State) String() string {
	if s == AwaitingResponse {
		return "awaiting_response"
	}
	return "idle"
}

// Backend is the subset of [services.Client] used for chat.
type Backend interface {
	SendChat(ctx context.Context, databaseID int, message string) (*models.ChatMessage, error)
	ChatHistory(ctx context.Context, databaseID int) ([]models.ChatMessage, error)
	ClearChat(ctx context.Context, databaseID int) error
	GuestChat(ctx context.Context, message, transcriptText string) (string, error)
}

// SettingsSource provides the default prompt sent when a chat opens empty.
type SettingsSource interface {
	GetSettings(ctx context.Context) (*models.UserSettings, error)
}

// Target identifies the transcript being discussed.
//
// Guest chats are addressed by TranscriptText since the backend stores nothing for them.
type Target struct {
	DatabaseID     int
	TranscriptText string
	Guest          bool
}

// Controller holds the message log of one transcript.
type Controller struct {
	mu       sync.Mutex
	backend  Backend
	settings SettingsSource
	target   Target
	messages []models.ChatMessage
	state    State
	logger   *log.Logger
}

// New creates a Controller. settings may be nil, which disables the default prompt.
func New(backend Backend, settings SettingsSource, target Target, logger *log.Logger) *Controller {
	if target.Guest {
		settings = nil
	}
	return &Controller{backend: backend, settings: settings, target: target, logger: logger}
}

// Messages returns a snapshot of the log.
func (c *Controller) Messages() []models.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.messages)
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Target returns the transcript being discussed.
func (c *Controller) Target() Target {
	return c.target
}

// Open loads the stored history. When it is empty and a default prompt is configured, the prompt is sent like any
// other message. It returns [ErrBusy] while a message is in flight.
func (c *Controller) Open(ctx context.Context) error {
	if c.target.Guest {
		return nil
	}
	if c.State() == AwaitingResponse {
		return ErrBusy
	}

	history, err := c.backend.ChatHistory(ctx, c.target.DatabaseID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.state == AwaitingResponse {
		c.mu.Unlock()
		return ErrBusy
	}
	c.messages = slices.Clone(history)
	empty := len(c.messages) == 0
	c.mu.Unlock()

	if !empty {
		return nil
	}
	return c.sendDefault(ctx)
}

// Send posts text and returns the assistant reply.
//
// It returns [ErrBusy] without contacting the backend while another message is in flight.
func (c *Controller) Send(ctx context.Context, text string) (*models.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	c.mu.Lock()
	if c.state == AwaitingResponse {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	before := slices.Clone(c.messages)
	pending := models.ChatMessage{
		ID:        shared.GenerateID(),
		Role:      models.RoleUser,
		Content:   text,
		CreatedAt: models.Now(),
		Pending:   true,
	}
	c.messages = append(c.messages, pending)
	c.state = AwaitingResponse
	c.mu.Unlock()

	reply, err := c.exchange(ctx, text)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Idle
	if err != nil {
		c.messages = before
		c.debug("chat send rolled back", "transcript", c.target.DatabaseID, "error", err)
		return nil, err
	}

	confirmed := pending
	confirmed.Pending = false
	if i := slices.IndexFunc(c.messages, func(m models.ChatMessage) bool { return m.ID == pending.ID }); i >= 0 {
		c.messages[i] = confirmed
	}
	c.messages = append(c.messages, *reply)
	return reply, nil
}

func (c *Controller) exchange(ctx context.Context, text string) (*models.ChatMessage, error) {
	if !c.target.Guest {
		return c.backend.SendChat(ctx, c.target.DatabaseID, text)
	}

	answer, err := c.backend.GuestChat(ctx, text, c.target.TranscriptText)
	if err != nil {
		return nil, err
	}
	return &models.ChatMessage{
		ID:        shared.GenerateID(),
		Role:      models.RoleAssistant,
		Content:   answer,
		CreatedAt: models.Now(),
	}, nil
}

// Clear deletes the stored history, empties the log and sends the default prompt again.
func (c *Controller) Clear(ctx context.Context) error {
	c.mu.Lock()
	if c.state == AwaitingResponse {
		c.mu.Unlock()
		return ErrBusy
	}
	c.mu.Unlock()

	if !c.target.Guest {
		if err := c.backend.ClearChat(ctx, c.target.DatabaseID); err != nil {
			return err
		}
	}

	c.mu.Lock()
	c.messages = nil
	c.mu.Unlock()

	return c.sendDefault(ctx)
}

// sendDefault sends the configured default prompt. A settings failure only skips the prompt.
func (c *Controller) sendDefault(ctx context.Context) error {
	if c.settings == nil {
		return nil
	}

	s, err := c.settings.GetSettings(ctx)
	if err != nil {
		c.debug("skipping default prompt", "error", err)
		return nil
	}

	prompt := s.DefaultPrompt()
	if prompt == "" {
		return nil
	}
	_, err = c.Send(ctx, prompt)
	return err
}

func (c *Controller) debug(msg string, kv ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, kv...)
	}
}
