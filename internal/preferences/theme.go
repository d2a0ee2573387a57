package preferences

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// Theme is the user's appearance choice.
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// ParseTheme validates a theme name.
func ParseTheme(s string) (Theme, error) {
	switch t := Theme(strings.ToLower(strings.TrimSpace(s))); t {
	case ThemeLight, ThemeDark, ThemeSystem:
		return t, nil
	}
	return "", fmt.Errorf("unknown theme %q (expected light, dark or system)", s)
}

// Scheme is a resolved color scheme.
type Scheme string

const (
	SchemeLight Scheme = "light"
	SchemeDark  Scheme = "dark"
)

// ParseScheme reads a scheme name, treating anything but "dark" as light.
func ParseScheme(s string) Scheme {
	if strings.EqualFold(strings.TrimSpace(s), string(SchemeDark)) {
		return SchemeDark
	}
	return SchemeLight
}

// SchemeSource reports the operating system color scheme.
type SchemeSource interface {
	Current() Scheme
	Subscribe(fn func(Scheme)) (unsubscribe func())
}

// broadcaster fans scheme changes out to subscribers.
type broadcaster struct {
	mu     sync.Mutex
	scheme Scheme
	subs   map[int]func(Scheme)
	nextID int
}

func (b *broadcaster) Current() Scheme {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.scheme
}

func (b *broadcaster) Subscribe(fn func(Scheme)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs == nil {
		b.subs = make(map[int]func(Scheme))
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

// set stores s and notifies subscribers outside the lock when it changed.
func (b *broadcaster) set(s Scheme) {
	b.mu.Lock()
	if b.scheme == s {
		b.mu.Unlock()
		return
	}
	b.scheme = s
	subs := make([]func(Scheme), 0, len(b.subs))
	for _, fn := range b.subs {
		subs = append(subs, fn)
	}
	b.mu.Unlock()

	for _, fn := range subs {
		fn(s)
	}
}

// ManualSource is a [SchemeSource] changed by calling Set.
type ManualSource struct {
	broadcaster
}

// NewManualSource creates a ManualSource starting at s.
func NewManualSource(s Scheme) *ManualSource {
	m := &ManualSource{}
	m.scheme = s
	return m
}

// Set changes the scheme and notifies subscribers.
func (m *ManualSource) Set(s Scheme) {
	m.set(s)
}

// TerminalSource resolves the scheme from the terminal background once. Terminals do not report changes, so
// subscribers are never called.
type TerminalSource struct {
	once   sync.Once
	scheme Scheme
}

func (t *TerminalSource) Current() Scheme {
	t.once.Do(func() {
		t.scheme = SchemeLight
		if lipgloss.HasDarkBackground() {
			t.scheme = SchemeDark
		}
	})
	return t.scheme
}

func (t *TerminalSource) Subscribe(func(Scheme)) func() {
	return func() {}
}

// FileSchemeSource follows a file containing "light" or "dark", as written by a desktop hook.
//
// The parent directory is watched so editors and atomic renames are picked up.
type FileSchemeSource struct {
	broadcaster
	path   string
	fsw    *fsnotify.Watcher
	done   chan struct{}
	logger *log.Logger
}

// NewFileSchemeSource reads path and starts watching it. A missing file reads as light.
func NewFileSchemeSource(path string, logger *log.Logger) (*FileSchemeSource, error) {
	if path == "" {
		return nil, errors.New("scheme file path is empty")
	}
	path = filepath.Clean(path)

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch dir %s: %w", filepath.Dir(path), err)
	}

	s := &FileSchemeSource{path: path, fsw: fsw, done: make(chan struct{}), logger: logger}
	s.scheme = s.read()
	go s.loop()
	return s, nil
}

func (s *FileSchemeSource) read() Scheme {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return SchemeLight
	}
	return ParseScheme(string(data))
}

func (s *FileSchemeSource) loop() {
	defer close(s.done)
	for {
		select {
		case event, ok := <-s.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != s.path {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			s.set(s.read())

		case err, ok := <-s.fsw.Errors:
			if !ok {
				return
			}
			if s.logger != nil {
				s.logger.Error("scheme watcher error", "error", err)
			}
		}
	}
}

// Close stops watching.
func (s *FileSchemeSource) Close() error {
	err := s.fsw.Close()
	<-s.done
	return err
}

// ThemeBinding resolves a [Theme] to a [Scheme], following the source while the theme is system.
type ThemeBinding struct {
	mu     sync.Mutex
	theme  Theme
	source SchemeSource
	unsub  func()
	out    broadcaster
}

// NewThemeBinding binds theme to source. A nil source behaves like a light OS scheme.
func NewThemeBinding(theme Theme, source SchemeSource) *ThemeBinding {
	if source == nil {
		source = NewManualSource(SchemeLight)
	}
	b := &ThemeBinding{source: source}
	b.SetTheme(theme)
	return b
}

// Theme returns the bound theme.
func (b *ThemeBinding) Theme() Theme {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.theme
}

// SetTheme changes the theme. Choosing system subscribes to the source, any other theme unsubscribes.
func (b *ThemeBinding) SetTheme(t Theme) {
	if _, err := ParseTheme(string(t)); err != nil {
		t = ThemeSystem
	}

	b.mu.Lock()
	b.theme = t
	if t == ThemeSystem && b.unsub == nil {
		b.unsub = b.source.Subscribe(func(Scheme) { b.resolve() })
	}
	if t != ThemeSystem && b.unsub != nil {
		b.unsub()
		b.unsub = nil
	}
	b.mu.Unlock()

	b.resolve()
}

func (b *ThemeBinding) resolve() {
	b.mu.Lock()
	t := b.theme
	b.mu.Unlock()

	switch t {
	case ThemeDark:
		b.out.set(SchemeDark)
	case ThemeLight:
		b.out.set(SchemeLight)
	default:
		b.out.set(b.source.Current())
	}
}

// Effective returns the scheme currently in effect.
func (b *ThemeBinding) Effective() Scheme {
	return b.out.Current()
}

// OnChange calls fn whenever the effective scheme changes.
func (b *ThemeBinding) OnChange(fn func(Scheme)) (unsubscribe func()) {
	return b.out.Subscribe(fn)
}

// Close detaches from the source.
func (b *ThemeBinding) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.unsub != nil {
		b.unsub()
		b.unsub = nil
	}
}
