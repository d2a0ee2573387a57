package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/desertthunder/scribe/internal/models"
	"github.com/desertthunder/scribe/internal/shared"
)

// Download formats accepted by GET /transcripts/{id}.
const (
	FormatText = "txt"
	FormatJSON = "json"
)

func transcriptPath(databaseID int, suffix string) string {
	return "/transcripts/" + strconv.Itoa(databaseID) + suffix
}

// ListTranscripts returns the account's transcripts, newest first.
func (c *Client) ListTranscripts(ctx context.Context) ([]models.TranscriptSummary, error) {
	var items []models.TranscriptSummary
	if err := c.do(ctx, http.MethodGet, "/transcripts/list", nil, &items, "Failed to load transcripts"); err != nil {
		return nil, err
	}
	return items, nil
}

// DownloadTranscript fetches the stored artifact for a transcript file stem in format "txt" or "json".
func (c *Client) DownloadTranscript(ctx context.Context, transcriptID, format string) ([]byte, error) {
	switch format {
	case "":
		format = FormatText
	case FormatText, FormatJSON:
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
	if transcriptID == "" {
		return nil, fmt.Errorf("%w: transcript id is required", shared.ErrMissingArgument)
	}

	req, err := c.newJSONRequest(ctx, http.MethodGet, "/transcripts/"+url.PathEscape(transcriptID), url.Values{"format": {format}}, nil)
	if err != nil {
		return nil, err
	}

	var body []byte
	if err := c.send(c.http, req, &body, "Transcript not found"); err != nil {
		return nil, err
	}
	return body, nil
}

// RenameTranscript changes the display filename of a transcript.
func (c *Client) RenameTranscript(ctx context.Context, databaseID int, filename string) error {
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return fmt.Errorf("%w: filename cannot be empty", shared.ErrInvalidInput)
	}
	body := map[string]string{"filename": filename}
	return c.do(ctx, http.MethodPatch, transcriptPath(databaseID, ""), body, nil, "Failed to rename transcript")
}

// DeleteTranscript removes a transcript and its chat history.
func (c *Client) DeleteTranscript(ctx context.Context, databaseID int) error {
	return c.do(ctx, http.MethodDelete, transcriptPath(databaseID, ""), nil, nil, "Failed to delete transcript")
}

// Utterances returns the speaker turns and speaker mapping of a transcript.
func (c *Client) Utterances(ctx context.Context, databaseID int) (*models.TranscriptDetail, error) {
	var detail models.TranscriptDetail
	if err := c.do(ctx, http.MethodGet, transcriptPath(databaseID, "/utterances"), nil, &detail, "Failed to load transcript"); err != nil {
		return nil, err
	}
	if detail.Speakers == nil {
		detail.Speakers = models.SpeakerMapping{}
	}
	return &detail, nil
}

type speakerUpdate struct {
	OriginalLabel string `json:"original_label"`
	DisplayName   string `json:"display_name"`
}

// UpdateSpeaker maps an engine speaker label to a display name and returns the stored name.
func (c *Client) UpdateSpeaker(ctx context.Context, databaseID int, label, displayName string) (string, error) {
	if label == "" {
		return "", fmt.Errorf("%w: speaker label is required", shared.ErrMissingArgument)
	}

	var resp struct {
		Status      string `json:"status"`
		DisplayName string `json:"display_name"`
	}
	body := speakerUpdate{OriginalLabel: label, DisplayName: displayName}
	if err := c.do(ctx, http.MethodPut, transcriptPath(databaseID, "/speakers"), body, &resp, "Failed to update speaker"); err != nil {
		return "", err
	}
	if resp.DisplayName == "" {
		return displayName, nil
	}
	return resp.DisplayName, nil
}
