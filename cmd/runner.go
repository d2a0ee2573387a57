package main

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/scribe/internal/library"
	"github.com/desertthunder/scribe/internal/preferences"
	"github.com/desertthunder/scribe/internal/repositories"
	"github.com/desertthunder/scribe/internal/services"
	"github.com/desertthunder/scribe/internal/session"
	"github.com/desertthunder/scribe/internal/shared"
	"github.com/desertthunder/scribe/internal/tasks"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	db         *sql.DB
	store      session.Store
	session    *session.Manager
	client     *services.Client
	httpClient *http.Client
	library    *library.Library
	uploader   *tasks.Uploader
	exporter   *tasks.Exporter
	exportLog  *repositories.ExportLogRepository
	panel      *preferences.Panel
	logger     *log.Logger
	output     io.Writer
	input      *bufio.Reader
	stdin      io.Reader
}

// RunnerOpts contains configuration options for creating a Runner.
//
// DB is optional. Without it the session lives in memory and exports are not logged.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	DB         *sql.DB
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Config.API.Timeout()}
	}

	var store session.Store = session.NewMemoryStore()
	var exportLog *repositories.ExportLogRepository
	if opts.DB != nil {
		store = repositories.NewLocalStorage(opts.DB)
		exportLog = repositories.NewExportLogRepository(opts.DB)
	}

	sess := session.NewManager(store)
	if err := sess.Load(); err != nil {
		opts.Logger.Warn("failed to restore session", "error", err)
	}

	client := services.NewClient(opts.Config.API.BaseURL, sess, opts.HTTPClient, opts.Logger)

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		db:         opts.DB,
		store:      store,
		session:    sess,
		client:     client,
		httpClient: opts.HTTPClient,
		library:    library.New(client, opts.Logger),
		uploader:   tasks.NewUploader(client, sess, opts.Config.Upload.SimulationInterval(), opts.Logger),
		exporter:   tasks.NewExporter(client, opts.Logger),
		exportLog:  exportLog,
		panel:      preferences.NewPanel(client, store, nil),
		logger:     opts.Logger,
		output:     opts.Output,
		input:      bufio.NewReader(opts.Input),
		stdin:      opts.Input,
	}
}

// SetLogger replaces the logger of the runner.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// Close releases the database.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, uploadCommand, transcriptsCommand, chatCommand, settingsCommand, accountCommand,
		apiCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// requireAuth fails fast for commands that need a signed-in account.
func (r *Runner) requireAuth() error {
	if r.session.Mode() != session.Authenticated {
		return fmt.Errorf("%w: run 'scribe auth login' first", shared.ErrNotAuthenticated)
	}
	return nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

// readLine prompts and reads one line of input.
func (r *Runner) readLine(prompt string) (string, error) {
	r.writePlain("%s", prompt)
	line, err := r.input.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("%w: failed to read input: %v", shared.ErrInvalidInput, err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// readSecret reads a password without echo when stdin is a terminal.
func (r *Runner) readSecret(prompt string) (string, error) {
	f, ok := r.stdin.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return r.readLine(prompt)
	}

	r.writePlain("%s", prompt)
	secret, err := term.ReadPassword(int(f.Fd()))
	r.writePlain("\n")
	if err != nil {
		return "", fmt.Errorf("%w: failed to read password: %v", shared.ErrInvalidInput, err)
	}
	return string(secret), nil
}

// confirmer asks on the terminal unless assumeYes is set.
func (r *Runner) confirmer(assumeYes bool) library.Confirmer {
	return library.ConfirmFunc(func(_ context.Context, prompt string) (bool, error) {
		if assumeYes {
			return true, nil
		}
		answer, err := r.readLine(prompt + " [y/N] ")
		if err != nil {
			return false, err
		}
		answer = strings.ToLower(strings.TrimSpace(answer))
		return answer == "y" || answer == "yes", nil
	})
}
