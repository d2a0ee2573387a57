package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/scribe/internal/shared"
)

// GuestChatFailedMessage is shown when a guest chat fails without a backend message.
const GuestChatFailedMessage = "Sorry, there was an error processing your request."

type guestChatRequest struct {
	Message        string `json:"message"`
	TranscriptText string `json:"transcript_text"`
}

// GuestChat asks about a transcript that only exists client-side. Nothing is stored by the backend.
func (c *Client) GuestChat(ctx context.Context, message, transcriptText string) (string, error) {
	if strings.TrimSpace(transcriptText) == "" {
		return "", fmt.Errorf("%w: transcript text is required", shared.ErrMissingArgument)
	}

	var resp struct {
		Response string `json:"response"`
	}
	body := guestChatRequest{Message: message, TranscriptText: transcriptText}
	if err := c.doPlain(ctx, http.MethodPost, "/guest/chat", body, &resp, GuestChatFailedMessage); err != nil {
		return "", err
	}
	return resp.Response, nil
}
