package main

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/scribe/internal/repositories"
	"github.com/desertthunder/scribe/internal/session"
	"github.com/desertthunder/scribe/internal/shared"
	"github.com/desertthunder/scribe/internal/tasks"
	tu "github.com/desertthunder/scribe/internal/testing"
	"github.com/urfave/cli/v3"
)

type testEnv struct {
	runner *Runner
	output *bytes.Buffer
	db     *sql.DB
	calls  *tu.Counter
}

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := shared.OpenStorage(shared.DatabaseConfig{Path: ":memory:", MaxOpenConns: 1, MaxIdleConns: 1})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestEnv(t *testing.T, authed bool, input string, handler http.HandlerFunc) *testEnv {
	t.Helper()
	calls := &tu.Counter{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Inc(r.Method + " " + r.URL.Path)
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	config := shared.DefaultConfig()
	config.API.BaseURL = server.URL
	config.Upload.SimulationIntervalMS = 5

	db := newTestDB(t)
	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Config:     config,
		DB:         db,
		HTTPClient: server.Client(),
		Logger:     shared.NewLogger(&bytes.Buffer{}),
		Output:     output,
		Input:      strings.NewReader(input),
	})
	if authed {
		runner.session.SetTokens("tok", "ref")
	}
	return &testEnv{runner: runner, output: output, db: db, calls: calls}
}

func (e *testEnv) run(args ...string) error {
	app := &cli.Command{Name: "scribe", Commands: e.runner.register()}
	return app.Run(context.Background(), append([]string{"scribe"}, args...))
}

func backend(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/token":
		tu.WriteJSON(w, http.StatusOK, map[string]any{"access_token": "tok", "refresh_token": "ref", "token_type": "bearer"})
	case r.URL.Path == "/transcripts/list":
		tu.WriteJSON(w, http.StatusOK, []map[string]any{
			{"id": 1, "transcript_id": "a1", "filename": "standup.mp3", "created_at": "2024-05-01T10:00:00"},
			{"id": 2, "transcript_id": "b2", "filename": "interview.m4a", "created_at": "2024-05-02T10:00:00"},
		})
	case strings.HasSuffix(r.URL.Path, "/utterances"):
		tu.WriteJSON(w, http.StatusOK, map[string]any{
			"utterances": []map[string]any{{"speaker": "A", "text": "hello there", "start": 0, "end": 900}},
			"speakers":   map[string]string{"A": "Ada"},
		})
	case r.URL.Path == "/transcripts/a1" || r.URL.Path == "/transcripts/b2":
		w.Write([]byte("hello there"))
	case r.Method == http.MethodDelete && r.URL.Path == "/transcripts/1":
		tu.WriteJSON(w, http.StatusOK, map[string]any{"message": "deleted"})
	case r.URL.Path == "/settings":
		tu.WriteJSON(w, http.StatusOK, map[string]any{"system_prompt_template": nil, "default_user_prompt": nil})
	case r.URL.Path == "/guest/transcribe":
		tu.WriteJSON(w, http.StatusOK, map[string]any{"text": "guest words"})
	case r.URL.Path == "/health":
		tu.WriteJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	default:
		http.NotFound(w, r)
	}
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil httpClient uses the configured timeout", func(t *testing.T) {
			config := shared.DefaultConfig()
			runner := NewRunner(RunnerOpts{Config: config})

			if runner.httpClient.Timeout != config.API.Timeout() {
				t.Errorf("expected timeout %v, got %v", config.API.Timeout(), runner.httpClient.Timeout)
			}
		})

		t.Run("without a database keeps the session in memory", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if _, ok := runner.store.(*session.MemoryStore); !ok {
				t.Errorf("expected memory store, got %T", runner.store)
			}
			if runner.exportLog != nil {
				t.Error("expected no export log")
			}
		})

		t.Run("with a database uses local storage", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{DB: newTestDB(t)})

			if _, ok := runner.store.(*repositories.LocalStorage); !ok {
				t.Errorf("expected local storage, got %T", runner.store)
			}
			if runner.exportLog == nil {
				t.Error("expected export log to be set")
			}
		})

		t.Run("restores a stored session", func(t *testing.T) {
			db := newTestDB(t)
			store := repositories.NewLocalStorage(db)
			store.Set(session.KeyAccessToken, "tok")
			store.Set(session.KeyRefreshToken, "ref")

			runner := NewRunner(RunnerOpts{DB: db})
			if runner.session.Mode() != session.Authenticated {
				t.Errorf("expected authenticated session, got %v", runner.session.Mode())
			}
		})

		t.Run("with configPath sets field", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{ConfigPath: "/test/path/config.toml"})

			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			// channels cannot be marshaled to JSON
			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		if len(commands) == 0 {
			t.Error("expected at least one command to be registered")
		}

		for i, cmd := range commands {
			if cmd == nil {
				t.Errorf("command at index %d is nil", i)
			}
		}
	})

	t.Run("confirmer", func(t *testing.T) {
		tests := []struct {
			name      string
			input     string
			assumeYes bool
			want      bool
		}{
			{"yes", "y\n", false, true},
			{"full word", "YES\n", false, true},
			{"no", "n\n", false, false},
			{"empty answer declines", "\n", false, false},
			{"assume yes skips the prompt", "", true, true},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}, Input: strings.NewReader(tt.input)})
				got, err := runner.confirmer(tt.assumeYes).Confirm(context.Background(), "Sure?")
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				if got != tt.want {
					t.Errorf("Confirm() = %v, want %v", got, tt.want)
				}
			})
		}
	})
}

func TestParseID(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr error
	}{
		{"12", 12, nil},
		{"", 0, shared.ErrMissingArgument},
		{"abc", 0, shared.ErrInvalidArgument},
		{"-3", 0, shared.ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseID(tt.in)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("parseID(%q) error = %v, want %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseID(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestCommands(t *testing.T) {
	t.Run("auth login stores tokens in the database", func(t *testing.T) {
		env := newTestEnv(t, false, "secret\n", backend)

		if err := env.run("auth", "login", "--username", "ada"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		token, err := repositories.NewLocalStorage(env.db).Get(session.KeyAccessToken)
		if err != nil || token != "tok" {
			t.Errorf("expected stored access token, got %q (%v)", token, err)
		}
		if !strings.Contains(env.output.String(), "Logged in as ada") {
			t.Errorf("unexpected output %q", env.output.String())
		}
	})

	t.Run("auth status reports the session", func(t *testing.T) {
		env := newTestEnv(t, true, "", backend)

		if err := env.run("auth", "status"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(env.output.String(), "✓ Authenticated") {
			t.Errorf("unexpected output %q", env.output.String())
		}
	})

	t.Run("transcripts list", func(t *testing.T) {
		env := newTestEnv(t, true, "", backend)

		if err := env.run("transcripts", "list"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		out := env.output.String()
		for _, want := range []string{"Transcripts (2)", "standup.mp3", "interview.m4a"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in output %q", want, out)
			}
		}
	})

	t.Run("transcripts list requires login", func(t *testing.T) {
		env := newTestEnv(t, false, "", backend)

		err := env.run("transcripts", "list")
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
		if env.calls.Total() != 0 {
			t.Errorf("expected no requests, got %d", env.calls.Total())
		}
	})

	t.Run("transcripts show renders speaker names", func(t *testing.T) {
		env := newTestEnv(t, true, "", backend)

		if err := env.run("transcripts", "show", "1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(env.output.String(), "[00:00] Ada: hello there") {
			t.Errorf("unexpected output %q", env.output.String())
		}
	})

	t.Run("transcripts delete declined", func(t *testing.T) {
		env := newTestEnv(t, true, "n\n", backend)

		if err := env.run("transcripts", "delete", "1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if env.calls.Get("DELETE /transcripts/1") != 0 {
			t.Error("expected no delete request")
		}
		if !strings.Contains(env.output.String(), "Cancelled") {
			t.Errorf("unexpected output %q", env.output.String())
		}
	})

	t.Run("transcripts delete with --yes", func(t *testing.T) {
		env := newTestEnv(t, true, "", backend)

		if err := env.run("transcripts", "delete", "--yes", "1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if env.calls.Get("DELETE /transcripts/1") != 1 {
			t.Error("expected one delete request")
		}
	})

	t.Run("transcripts export-all writes the manifest and export log", func(t *testing.T) {
		env := newTestEnv(t, true, "", backend)
		dir := filepath.Join(t.TempDir(), "out")

		if err := env.run("transcripts", "export-all", "--format", "markdown", "--output-dir", dir); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		tu.AssertFileExists(t, filepath.Join(dir, tasks.ManifestName))
		tu.AssertFileExists(t, filepath.Join(dir, "1_standup.md"))

		records, err := env.runner.exportLog.List(10)
		if err != nil {
			t.Fatalf("failed to list export log: %v", err)
		}
		if len(records) != 2 {
			t.Errorf("expected 2 export records, got %d", len(records))
		}
	})

	t.Run("guest upload prints the transcript", func(t *testing.T) {
		env := newTestEnv(t, false, "", backend)
		path := tu.WriteAudio(t, t.TempDir(), "memo.mp3", 1024)

		if err := env.run("upload", "--guest", path); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		out := env.output.String()
		if !strings.Contains(out, "guest words") || !strings.Contains(out, "not saved") {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("upload without login or --guest", func(t *testing.T) {
		env := newTestEnv(t, false, "", backend)
		path := tu.WriteAudio(t, t.TempDir(), "memo.mp3", 1024)

		if err := env.run("upload", path); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("settings set rejects an unknown quality", func(t *testing.T) {
		env := newTestEnv(t, true, "", backend)

		err := env.run("settings", "set", "--quality", "ultra")
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
		if env.calls.Get("PUT /settings") != 0 {
			t.Error("expected no save request")
		}
	})

	t.Run("api get prints JSON", func(t *testing.T) {
		env := newTestEnv(t, true, "", backend)

		if err := env.run("api", "get", "health"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(env.output.String(), `"status": "ok"`) {
			t.Errorf("unexpected output %q", env.output.String())
		}
	})
}
