package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/scribe/internal/library"
	"github.com/desertthunder/scribe/internal/preferences"
	"github.com/desertthunder/scribe/internal/services"
	"github.com/desertthunder/scribe/internal/shared"
	"github.com/desertthunder/scribe/internal/tasks"
	"github.com/desertthunder/scribe/internal/ui"
	"github.com/urfave/cli/v3"
)

// schemeSource watches the configured scheme file, falling back to the terminal background.
func (r *Runner) schemeSource() (preferences.SchemeSource, func()) {
	if path := r.config.Appearance.SchemeFile; path != "" {
		src, err := preferences.NewFileSchemeSource(path, r.logger)
		if err == nil {
			return src, func() { src.Close() }
		}
		r.logger.Warn("failed to watch scheme file, using terminal background", "path", path, "error", err)
	}
	return &preferences.TerminalSource{}, func() {}
}

// TUI launches the interactive terminal UI.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(r.config.Log.File)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, shared.ParseLogLevel(r.config.Log.Level))
	r.SetLogger(fileLogger)

	theme, err := preferences.ParseTheme(r.config.Appearance.Theme)
	if err != nil {
		theme = preferences.ThemeSystem
	}
	source, closeSource := r.schemeSource()
	defer closeSource()

	binding := preferences.NewThemeBinding(theme, source)
	defer binding.Close()

	// The shared client logs to stderr, so the TUI gets its own.
	client := services.NewClient(r.config.API.BaseURL, r.session, r.httpClient, fileLogger)
	model := ui.NewModel(ctx, ui.Deps{
		Client:   client,
		Session:  r.session,
		Library:  library.New(client, fileLogger),
		Uploader: tasks.NewUploader(client, r.session, r.config.Upload.SimulationInterval(), fileLogger),
		Panel:    preferences.NewPanel(client, r.store, binding),
		Theme:    binding,
		Logger:   fileLogger,
	})
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
