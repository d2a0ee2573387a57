// Package preferences loads and saves user settings and resolves the appearance theme.
//
// The settings [Panel] is fetch-on-open and save-on-submit: a save blocks until the backend answers and nothing is
// applied locally before that. A [ThemeBinding] turns the light, dark or system theme into an effective [Scheme],
// following a [SchemeSource] while the theme is system.
package preferences

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/desertthunder/scribe/internal/models"
	"github.com/desertthunder/scribe/internal/session"
	"github.com/desertthunder/scribe/internal/shared"
)

// Backend is the subset of [services.Client] used by the panel.
type Backend interface {
	GetSettings(ctx context.Context) (*models.UserSettings, error)
	UpdateSettings(ctx context.Context, s models.UserSettings) (*models.UserSettings, error)
}

// Defaults returns the settings used when the backend has none.
func Defaults() models.UserSettings {
	return models.UserSettings{Quality: models.QualityHigh, Theme: string(ThemeSystem)}
}

// Validate checks the required fields: quality and theme must be known values.
func Validate(s models.UserSettings) error {
	if _, err := models.ParseQuality(string(s.Quality)); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	if _, err := ParseTheme(s.Theme); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	return nil
}

// Local store keys for the preferences the backend may not keep.
const (
	KeyQuality = "preferred_quality"
	KeyTheme   = "theme"
)

// Panel holds the last settings confirmed by the backend.
//
// Quality and theme are mirrored to the local store, so they survive a backend that only keeps the prompts.
type Panel struct {
	mu      sync.Mutex
	backend Backend
	local   session.Store
	binding *ThemeBinding
	current models.UserSettings
	loaded  bool
}

// NewPanel creates a Panel. local and binding may be nil.
func NewPanel(backend Backend, local session.Store, binding *ThemeBinding) *Panel {
	if local == nil {
		local = session.NewMemoryStore()
	}
	p := &Panel{backend: backend, local: local, binding: binding}
	p.current = p.fill(models.UserSettings{}, models.UserSettings{})
	return p
}

// Load fetches the settings and applies the theme. Quality and theme missing from the backend come from the
// local store, then from [Defaults].
func (p *Panel) Load(ctx context.Context) (models.UserSettings, error) {
	s, err := p.backend.GetSettings(ctx)
	if err != nil {
		return p.Current(), err
	}

	settings := p.fill(*s, models.UserSettings{})
	p.apply(settings)
	return settings, nil
}

// Current returns the last loaded or saved settings.
func (p *Panel) Current() models.UserSettings {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Loaded reports whether settings were fetched at least once.
func (p *Panel) Loaded() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loaded
}

// Save validates s and stores it. Current settings and the theme change only after the backend accepted them.
func (p *Panel) Save(ctx context.Context, s models.UserSettings) (models.UserSettings, error) {
	s.Theme = strings.ToLower(strings.TrimSpace(s.Theme))
	s.Quality = models.Quality(strings.ToLower(strings.TrimSpace(string(s.Quality))))
	if err := Validate(s); err != nil {
		return p.Current(), err
	}
	s.SystemPromptTemplate = blankToNil(s.SystemPromptTemplate)
	s.DefaultUserPrompt = blankToNil(s.DefaultUserPrompt)

	saved, err := p.backend.UpdateSettings(ctx, s)
	if err != nil {
		return p.Current(), err
	}

	settings := p.fill(*saved, s)
	if err := p.remember(settings); err != nil {
		return settings, err
	}
	p.apply(settings)
	return settings, nil
}

// Reset saves [Defaults], clearing both prompts.
func (p *Panel) Reset(ctx context.Context) (models.UserSettings, error) {
	return p.Save(ctx, Defaults())
}

func (p *Panel) apply(s models.UserSettings) {
	p.mu.Lock()
	p.current = s
	p.loaded = true
	p.mu.Unlock()

	if p.binding != nil {
		p.binding.SetTheme(Theme(s.Theme))
	}
}

// fill completes quality and theme from submitted, then the local store, then the defaults.
func (p *Panel) fill(s, submitted models.UserSettings) models.UserSettings {
	d := Defaults()
	if s.Quality == "" {
		s.Quality = submitted.Quality
	}
	if s.Quality == "" {
		if v, err := p.local.Get(KeyQuality); err == nil {
			if q, err := models.ParseQuality(v); err == nil {
				s.Quality = q
			}
		}
	}
	if s.Quality == "" {
		s.Quality = d.Quality
	}

	if s.Theme == "" {
		s.Theme = submitted.Theme
	}
	if s.Theme == "" {
		if v, err := p.local.Get(KeyTheme); err == nil {
			if t, err := ParseTheme(v); err == nil {
				s.Theme = string(t)
			}
		}
	}
	if s.Theme == "" {
		s.Theme = d.Theme
	}
	return s
}

func (p *Panel) remember(s models.UserSettings) error {
	if err := p.local.Set(KeyQuality, string(s.Quality)); err != nil {
		return fmt.Errorf("failed to store quality: %w", err)
	}
	if err := p.local.Set(KeyTheme, s.Theme); err != nil {
		return fmt.Errorf("failed to store theme: %w", err)
	}
	return nil
}

// blankToNil stores an empty prompt as null, matching how the backend represents "unset".
func blankToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}
