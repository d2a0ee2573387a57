package services

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/desertthunder/scribe/internal/shared"
)

func TestNewAPIError(t *testing.T) {
	tc := []struct {
		name        string
		status      int
		body        string
		fallback    string
		wantMessage string
		wantUpgrade bool
		wantIs      error
	}{
		{
			name:        "detail string",
			status:      http.StatusNotFound,
			body:        `{"detail": "Transcript not found"}`,
			wantMessage: "Transcript not found",
			wantIs:      shared.ErrNotFound,
		},
		{
			name:        "error field",
			status:      http.StatusInternalServerError,
			body:        `{"error": "AAI_API_KEY missing in .env"}`,
			fallback:    TranscribeFailedMessage,
			wantMessage: "AAI_API_KEY missing in .env",
			wantIs:      shared.ErrAPIRequest,
		},
		{
			name:        "upgrade flag",
			status:      http.StatusForbidden,
			body:        `{"error": "Daily guest limit reached", "upgrade_required": true}`,
			wantMessage: "Daily guest limit reached",
			wantUpgrade: true,
			wantIs:      shared.ErrUpgradeRequired,
		},
		{
			name:        "payment required status",
			status:      http.StatusPaymentRequired,
			body:        ``,
			fallback:    "quota",
			wantMessage: "quota",
			wantUpgrade: true,
			wantIs:      shared.ErrUpgradeRequired,
		},
		{
			name:        "validation list",
			status:      http.StatusUnprocessableEntity,
			body:        `{"detail": [{"loc": ["body", "message"], "msg": "field required"}, {"msg": "too short"}]}`,
			wantMessage: "field required; too short",
			wantIs:      shared.ErrAPIRequest,
		},
		{
			name:        "non json body uses fallback",
			status:      http.StatusBadGateway,
			body:        `<html>bad gateway</html>`,
			fallback:    "Backend unavailable",
			wantMessage: "Backend unavailable",
			wantIs:      shared.ErrServiceUnavailable,
		},
		{
			name:        "no fallback uses status text",
			status:      http.StatusUnauthorized,
			body:        `{}`,
			wantMessage: "Unauthorized",
			wantIs:      shared.ErrNotAuthenticated,
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			err := NewAPIError(tt.status, []byte(tt.body), tt.fallback)

			if err.Message != tt.wantMessage {
				t.Errorf("expected message %q, got %q", tt.wantMessage, err.Message)
			}
			if err.UpgradeRequired != tt.wantUpgrade {
				t.Errorf("expected upgrade %v, got %v", tt.wantUpgrade, err.UpgradeRequired)
			}
			if !errors.Is(err, tt.wantIs) {
				t.Errorf("expected error to wrap %v", tt.wantIs)
			}
		})
	}
}

func TestMessage(t *testing.T) {
	t.Run("API Error", func(t *testing.T) {
		err := fmt.Errorf("wrapped: %w", NewAPIError(500, []byte(`{"detail": "OpenAI API error: boom"}`), ""))
		if got := Message(err, SendFailedMessage); got != "OpenAI API error: boom" {
			t.Errorf("unexpected message %q", got)
		}
	})

	t.Run("Other Error Uses Fallback", func(t *testing.T) {
		if got := Message(errors.New("dial tcp: refused"), SendFailedMessage); got != SendFailedMessage {
			t.Errorf("unexpected message %q", got)
		}
	})

	t.Run("No Fallback", func(t *testing.T) {
		if got := Message(errors.New("boom"), ""); got != "boom" {
			t.Errorf("unexpected message %q", got)
		}
	})

	t.Run("Nil", func(t *testing.T) {
		if got := Message(nil, "x"); got != "" {
			t.Errorf("expected empty message, got %q", got)
		}
	})
}
