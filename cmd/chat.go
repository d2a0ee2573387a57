package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/scribe/internal/chat"
	"github.com/desertthunder/scribe/internal/models"
	"github.com/desertthunder/scribe/internal/shared"
	"github.com/urfave/cli/v3"
)

// openChat loads the history of the transcript named by the id argument. An empty history triggers the
// configured default prompt.
func (r *Runner) openChat(ctx context.Context, cmd *cli.Command) (*chat.Controller, models.TranscriptSummary, error) {
	t, err := r.loadTranscript(ctx, cmd)
	if err != nil {
		return nil, t, err
	}
	c := chat.New(r.client, r.client, chat.Target{DatabaseID: t.DatabaseID}, shared.WithLogger(r.logger, "transcript", t.DatabaseID))
	if err := c.Open(ctx); err != nil {
		return nil, t, err
	}
	return c, t, nil
}

func (r *Runner) writeMessages(msgs []models.ChatMessage) {
	for _, m := range msgs {
		who := "AI"
		if m.Role == models.RoleUser {
			who = "You"
		}
		r.writePlain("%s: %s\n\n", who, strings.TrimSpace(m.Content))
	}
}

// ChatSend sends a message about a transcript and prints the exchange.
func (r *Runner) ChatSend(ctx context.Context, cmd *cli.Command) error {
	c, t, err := r.openChat(ctx, cmd)
	if err != nil {
		return err
	}

	message := cmd.StringArg("message")
	if strings.TrimSpace(message) == "" {
		msgs := c.Messages()
		if len(msgs) == 0 {
			return fmt.Errorf("%w: message (no default prompt is configured)", shared.ErrMissingArgument)
		}
		r.writePlainHeader("Chat: " + t.Filename)
		r.writeMessages(msgs)
		return nil
	}

	before := len(c.Messages())
	if _, err := c.Send(ctx, message); err != nil {
		return err
	}
	r.writeMessages(c.Messages()[before:])
	return nil
}

// ChatHistory prints the stored chat of a transcript without sending anything.
func (r *Runner) ChatHistory(ctx context.Context, cmd *cli.Command) error {
	t, err := r.loadTranscript(ctx, cmd)
	if err != nil {
		return err
	}
	msgs, err := r.client.ChatHistory(ctx, t.DatabaseID)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(msgs, true)
	}
	if len(msgs) == 0 {
		return r.writePlain("No messages yet\n")
	}
	r.writePlainHeader("Chat: " + t.Filename)
	r.writeMessages(msgs)
	return nil
}

// ChatClear deletes the chat history after confirmation.
func (r *Runner) ChatClear(ctx context.Context, cmd *cli.Command) error {
	t, err := r.loadTranscript(ctx, cmd)
	if err != nil {
		return err
	}
	ok, err := r.confirmer(cmd.Bool("yes")).Confirm(ctx, fmt.Sprintf("Clear the chat about %q?", t.Filename))
	if err != nil {
		return err
	}
	if !ok {
		return r.writePlain("Cancelled\n")
	}
	if err := r.client.ClearChat(ctx, t.DatabaseID); err != nil {
		return err
	}
	return r.writePlain("✓ Chat cleared\n")
}
