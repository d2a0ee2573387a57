package services

import (
	"context"
	"net/http"

	"github.com/desertthunder/scribe/internal/models"
)

// GetSettings fetches the account's preference record.
func (c *Client) GetSettings(ctx context.Context) (*models.UserSettings, error) {
	var s models.UserSettings
	if err := c.do(ctx, http.MethodGet, "/settings", nil, &s, "Failed to load settings"); err != nil {
		return nil, err
	}
	return &s, nil
}

// UpdateSettings replaces the preference record and returns what the backend stored.
func (c *Client) UpdateSettings(ctx context.Context, s models.UserSettings) (*models.UserSettings, error) {
	var resp struct {
		Status   string               `json:"status"`
		Settings *models.UserSettings `json:"settings"`
	}
	if err := c.do(ctx, http.MethodPut, "/settings", s, &resp, "Failed to save settings"); err != nil {
		return nil, err
	}
	if resp.Settings == nil {
		return &s, nil
	}
	return resp.Settings, nil
}
