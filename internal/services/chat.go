package services

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/desertthunder/scribe/internal/models"
)

// SendFailedMessage is shown when a chat send fails without a backend message.
const SendFailedMessage = "Failed to send message. Make sure OPENAI_API_KEY is configured."

// chatEntry matches history rows, whose ids are integers.
type chatEntry struct {
	ID        json.Number      `json:"id"`
	Role      models.Role      `json:"role"`
	Content   string           `json:"content"`
	CreatedAt models.Timestamp `json:"created_at"`
}

func (e chatEntry) message() models.ChatMessage {
	return models.ChatMessage{ID: e.ID.String(), Role: e.Role, Content: e.Content, CreatedAt: e.CreatedAt}
}

func chatPath(databaseID int, suffix string) string {
	return "/chat/" + strconv.Itoa(databaseID) + suffix
}

// SendChat posts a user message about a transcript and returns the assistant's reply.
func (c *Client) SendChat(ctx context.Context, databaseID int, message string) (*models.ChatMessage, error) {
	var reply chatEntry
	body := map[string]string{"message": message}
	if err := c.do(ctx, http.MethodPost, chatPath(databaseID, ""), body, &reply, SendFailedMessage); err != nil {
		return nil, err
	}
	if reply.Role == "" {
		reply.Role = models.RoleAssistant
	}
	msg := reply.message()
	return &msg, nil
}

// ChatHistory returns the stored messages of a transcript in chronological order.
func (c *Client) ChatHistory(ctx context.Context, databaseID int) ([]models.ChatMessage, error) {
	var entries []chatEntry
	if err := c.do(ctx, http.MethodGet, chatPath(databaseID, "/history"), nil, &entries, "Failed to load chat history"); err != nil {
		return nil, err
	}

	messages := make([]models.ChatMessage, 0, len(entries))
	for _, e := range entries {
		messages = append(messages, e.message())
	}
	return messages, nil
}

// ClearChat deletes the stored history of a transcript.
func (c *Client) ClearChat(ctx context.Context, databaseID int) error {
	return c.do(ctx, http.MethodDelete, chatPath(databaseID, "/history"), nil, nil, "Failed to clear chat history")
}
