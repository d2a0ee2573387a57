package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/scribe/internal/models"
	"github.com/desertthunder/scribe/internal/shared"
	"github.com/urfave/cli/v3"
)

func (r *Runner) writeSettings(s models.UserSettings) error {
	r.writePlain("Quality:        %s (%s)\n", s.Quality, s.Quality.Describe())
	r.writePlain("Theme:          %s\n", s.Theme)
	r.writePlain("System prompt:  %s\n", orNone(s.SystemPromptTemplate))
	return r.writePlain("Default prompt: %s\n", orNone(s.DefaultUserPrompt))
}

func orNone(s *string) string {
	if s == nil || *s == "" {
		return "(none)"
	}
	return shared.Truncate(*s, 60)
}

// SettingsShow prints the current settings.
func (r *Runner) SettingsShow(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}
	s, err := r.panel.Load(ctx)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(s, true)
	}
	return r.writeSettings(s)
}

// SettingsSet changes the flags that were given and keeps the rest.
func (r *Runner) SettingsSet(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}
	s, err := r.panel.Load(ctx)
	if err != nil {
		return err
	}

	changed := false
	if cmd.IsSet("quality") {
		s.Quality = models.Quality(cmd.String("quality"))
		changed = true
	}
	if cmd.IsSet("theme") {
		s.Theme = cmd.String("theme")
		changed = true
	}
	if cmd.IsSet("system-prompt") {
		v := cmd.String("system-prompt")
		s.SystemPromptTemplate = &v
		changed = true
	}
	if cmd.IsSet("default-prompt") {
		v := cmd.String("default-prompt")
		s.DefaultUserPrompt = &v
		changed = true
	}
	if !changed {
		return fmt.Errorf("%w: pass at least one of --quality, --theme, --system-prompt, --default-prompt",
			shared.ErrMissingArgument)
	}

	saved, err := r.panel.Save(ctx, s)
	if err != nil {
		return err
	}
	r.writePlain("✓ Settings saved\n")
	return r.writeSettings(saved)
}

// SettingsReset restores the defaults.
func (r *Runner) SettingsReset(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}
	saved, err := r.panel.Reset(ctx)
	if err != nil {
		return err
	}
	r.writePlain("✓ Settings reset\n")
	return r.writeSettings(saved)
}
