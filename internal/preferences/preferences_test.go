package preferences

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/scribe/internal/models"
	"github.com/desertthunder/scribe/internal/session"
	"github.com/desertthunder/scribe/internal/shared"
)

type fakeBackend struct {
	mu      sync.Mutex
	stored  models.UserSettings
	saves   int
	saveErr error
	getErr  error
}

func (f *fakeBackend) GetSettings(ctx context.Context) (*models.UserSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	s := f.stored
	return &s, nil
}

// UpdateSettings keeps only the prompts, like the backend does.
func (f *fakeBackend) UpdateSettings(ctx context.Context, s models.UserSettings) (*models.UserSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	f.stored = models.UserSettings{
		SystemPromptTemplate: s.SystemPromptTemplate,
		DefaultUserPrompt:    s.DefaultUserPrompt,
	}
	out := f.stored
	return &out, nil
}

func ptr(s string) *string { return &s }

func TestParseTheme(t *testing.T) {
	for _, in := range []string{"light", "DARK", " system "} {
		if _, err := ParseTheme(in); err != nil {
			t.Errorf("ParseTheme(%q) error = %v", in, err)
		}
	}
	if _, err := ParseTheme("sepia"); err == nil {
		t.Error("expected error for unknown theme")
	}
	if ParseScheme("dark\n") != SchemeDark || ParseScheme("anything") != SchemeLight {
		t.Error("unexpected scheme parsing")
	}
}

func TestThemeBinding(t *testing.T) {
	t.Run("System Follows Source Without Save", func(t *testing.T) {
		src := NewManualSource(SchemeLight)
		b := NewThemeBinding(ThemeSystem, src)
		defer b.Close()

		var mu sync.Mutex
		var seen []Scheme
		b.OnChange(func(s Scheme) {
			mu.Lock()
			seen = append(seen, s)
			mu.Unlock()
		})

		if b.Effective() != SchemeLight {
			t.Fatalf("expected light, got %s", b.Effective())
		}
		src.Set(SchemeDark)
		if b.Effective() != SchemeDark {
			t.Errorf("expected dark after OS change, got %s", b.Effective())
		}
		src.Set(SchemeLight)

		mu.Lock()
		defer mu.Unlock()
		if len(seen) != 2 || seen[0] != SchemeDark || seen[1] != SchemeLight {
			t.Errorf("unexpected change notifications %v", seen)
		}
	})

	t.Run("Explicit Theme Ignores Source", func(t *testing.T) {
		src := NewManualSource(SchemeLight)
		b := NewThemeBinding(ThemeDark, src)

		src.Set(SchemeLight)
		if b.Effective() != SchemeDark {
			t.Errorf("expected dark, got %s", b.Effective())
		}

		b.SetTheme(ThemeSystem)
		if b.Effective() != SchemeLight {
			t.Errorf("expected light from source, got %s", b.Effective())
		}
		b.SetTheme(ThemeLight)
		src.Set(SchemeDark)
		if b.Effective() != SchemeLight {
			t.Errorf("expected light after leaving system, got %s", b.Effective())
		}
	})

	t.Run("Close Unsubscribes", func(t *testing.T) {
		src := NewManualSource(SchemeLight)
		b := NewThemeBinding(ThemeSystem, src)
		b.Close()

		src.Set(SchemeDark)
		if b.Effective() != SchemeLight {
			t.Errorf("closed binding followed the source")
		}
	})

	t.Run("Unknown Theme Falls Back To System", func(t *testing.T) {
		b := NewThemeBinding("sepia", NewManualSource(SchemeDark))
		defer b.Close()
		if b.Theme() != ThemeSystem || b.Effective() != SchemeDark {
			t.Errorf("unexpected binding %s / %s", b.Theme(), b.Effective())
		}
	})
}

func TestFileSchemeSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "color-scheme")
	if err := os.WriteFile(path, []byte("light\n"), 0644); err != nil {
		t.Fatal(err)
	}

	src, err := NewFileSchemeSource(path, nil)
	if err != nil {
		t.Fatalf("NewFileSchemeSource() error = %v", err)
	}
	defer src.Close()

	changed := make(chan Scheme, 4)
	src.Subscribe(func(s Scheme) { changed <- s })

	if src.Current() != SchemeLight {
		t.Fatalf("expected light, got %s", src.Current())
	}
	if err := os.WriteFile(path, []byte("dark\n"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case s := <-changed:
		if s != SchemeDark {
			t.Errorf("expected dark, got %s", s)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for scheme change")
	}
}

func TestPanel(t *testing.T) {
	ctx := context.Background()

	t.Run("Load Applies Defaults", func(t *testing.T) {
		b := &fakeBackend{stored: models.UserSettings{DefaultUserPrompt: ptr("Summarize")}}
		p := NewPanel(b, nil, nil)

		s, err := p.Load(ctx)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if s.Quality != models.QualityHigh || s.Theme != "system" || s.DefaultPrompt() != "Summarize" {
			t.Errorf("unexpected settings %+v", s)
		}
		if !p.Loaded() {
			t.Error("expected loaded")
		}
	})

	t.Run("Save Validates Before Request", func(t *testing.T) {
		b := &fakeBackend{}
		p := NewPanel(b, nil, nil)

		tests := []models.UserSettings{
			{Quality: "ultra", Theme: "dark"},
			{Quality: models.QualityLow, Theme: "sepia"},
			{Quality: "", Theme: "dark"},
		}
		for _, s := range tests {
			if _, err := p.Save(ctx, s); !errors.Is(err, shared.ErrInvalidInput) {
				t.Errorf("Save(%+v) expected ErrInvalidInput, got %v", s, err)
			}
		}
		if b.saves != 0 {
			t.Errorf("expected no requests, got %d", b.saves)
		}
	})

	t.Run("Save Is Not Optimistic", func(t *testing.T) {
		b := &fakeBackend{saveErr: shared.ErrServiceUnavailable}
		binding := NewThemeBinding(ThemeLight, nil)
		p := NewPanel(b, nil, binding)
		before := p.Current()

		_, err := p.Save(ctx, models.UserSettings{Quality: models.QualityLow, Theme: "dark"})
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Fatalf("expected ErrServiceUnavailable, got %v", err)
		}
		if p.Current() != before {
			t.Errorf("settings changed despite failure: %+v", p.Current())
		}
		if binding.Effective() != SchemeLight {
			t.Error("theme applied despite failure")
		}
	})

	t.Run("Save Persists Local Preferences", func(t *testing.T) {
		b := &fakeBackend{}
		store := session.NewMemoryStore()
		binding := NewThemeBinding(ThemeLight, nil)
		p := NewPanel(b, store, binding)

		saved, err := p.Save(ctx, models.UserSettings{
			Quality:           models.QualityLow,
			Theme:             "Dark",
			DefaultUserPrompt: ptr("   "),
		})
		if err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if saved.Quality != models.QualityLow || saved.Theme != "dark" || saved.DefaultUserPrompt != nil {
			t.Errorf("unexpected saved settings %+v", saved)
		}
		if binding.Effective() != SchemeDark {
			t.Errorf("expected dark theme applied, got %s", binding.Effective())
		}

		reopened := NewPanel(b, store, nil)
		s, err := reopened.Load(ctx)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if s.Quality != models.QualityLow || s.Theme != "dark" {
			t.Errorf("local preferences not restored: %+v", s)
		}
	})

	t.Run("Reset", func(t *testing.T) {
		b := &fakeBackend{stored: models.UserSettings{SystemPromptTemplate: ptr("custom")}}
		p := NewPanel(b, nil, nil)

		s, err := p.Reset(ctx)
		if err != nil {
			t.Fatalf("Reset() error = %v", err)
		}
		if s.SystemPromptTemplate != nil || s.Quality != models.QualityHigh || s.Theme != "system" {
			t.Errorf("unexpected reset settings %+v", s)
		}
	})

	t.Run("Load Failure", func(t *testing.T) {
		b := &fakeBackend{getErr: shared.ErrNotAuthenticated}
		p := NewPanel(b, nil, nil)
		if _, err := p.Load(ctx); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
		if p.Loaded() {
			t.Error("failed load marked as loaded")
		}
	})
}
