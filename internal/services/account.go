package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/scribe/internal/shared"
)

// ChangePassword replaces the account password.
func (c *Client) ChangePassword(ctx context.Context, current, password, confirm string) error {
	if current == "" {
		return fmt.Errorf("%w: current password is required", shared.ErrMissingArgument)
	}
	if err := ValidatePassword(password, confirm); err != nil {
		return err
	}

	body := map[string]string{"current_password": current, "new_password": password}
	return c.do(ctx, http.MethodPost, "/account/change-password", body, nil, "Failed to change password")
}

// ChangeEmail replaces the account e-mail. The current password is required.
func (c *Client) ChangeEmail(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return fmt.Errorf("%w: a valid email is required", shared.ErrInvalidInput)
	}

	body := map[string]string{"new_email": email, "password": password}
	return c.do(ctx, http.MethodPost, "/account/change-email", body, nil, "Failed to change email")
}

// ExportAccount downloads every stored record of the account as one JSON document.
func (c *Client) ExportAccount(ctx context.Context) ([]byte, error) {
	var body []byte
	if err := c.do(ctx, http.MethodGet, "/account/export", nil, &body, "Failed to export account data"); err != nil {
		return nil, err
	}
	return body, nil
}

// DeleteAccount removes the account and ends the session.
func (c *Client) DeleteAccount(ctx context.Context) error {
	if err := c.do(ctx, http.MethodDelete, "/account", nil, nil, "Failed to delete account"); err != nil {
		return err
	}
	return c.session.End(nil)
}
