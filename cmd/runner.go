package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotme/internal/auth"
	"github.com/desertthunder/spotme/internal/repositories"
	"github.com/desertthunder/spotme/internal/services"
	"github.com/desertthunder/spotme/internal/session"
	"github.com/desertthunder/spotme/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config      *shared.Config
	configPath  string
	db          *sql.DB
	ownsDB      bool
	httpClient  *http.Client
	logger      *log.Logger
	output      io.Writer
	openBrowser func(string) error
	controller  *session.Controller
	history     *repositories.RecommendationRepository
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config      *shared.Config
	ConfigPath  string
	DB          *sql.DB
	HTTPClient  *http.Client
	Logger      *log.Logger
	Output      io.Writer
	OpenBrowser func(string) error
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
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.OpenBrowser == nil {
		opts.OpenBrowser = shared.OpenBrowser
	}

	return &Runner{
		config:      opts.Config,
		configPath:  opts.ConfigPath,
		db:          opts.DB,
		httpClient:  opts.HTTPClient,
		logger:      opts.Logger,
		output:      opts.Output,
		openBrowser: opts.OpenBrowser,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, recommendCommand, historyCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// LoadConfig reads the config file named by --config (defaults when absent), then
// applies the env file and log level.
func (r *Runner) LoadConfig(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	path := cmd.String("config")
	r.configPath = path

	if _, err := os.Stat(path); err == nil {
		config, err := shared.LoadConfig(path)
		if err != nil {
			return ctx, err
		}
		r.config = config
	} else {
		r.logger.Debug("config file not found, using defaults", "path", path)
	}

	if err := r.config.ApplyEnv(cmd.String("env-file")); err != nil {
		return ctx, err
	}
	if err := shared.SetLogLevel(r.logger, r.config.Logging.Level); err != nil {
		r.logger.Warn("ignoring log level", "error", err)
	}
	return ctx, nil
}

// OpenStore opens and migrates the database unless one was injected.
func (r *Runner) OpenStore(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if r.db != nil {
		return ctx, nil
	}
	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return ctx, err
	}
	r.db = db
	r.ownsDB = true
	return ctx, nil
}

// Connect validates the required settings and builds the session controller.
func (r *Runner) Connect(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if err := r.config.Validate(); err != nil {
		return ctx, err
	}
	ctx, err := r.OpenStore(ctx, cmd)
	if err != nil {
		return ctx, err
	}
	r.buildController()
	return ctx, nil
}

func (r *Runner) buildController() {
	client := r.httpClient
	if client == http.DefaultClient {
		client = &http.Client{Timeout: r.config.RequestTimeout()}
	}

	store := repositories.NewVerifierStore(repositories.NewSlotRepository(r.db))
	authSession := auth.NewSession(r.config.Spotify, store, r.logger).WithHTTPClient(client)
	recommender := services.NewRecommendationService(
		r.config.Recommendations.Endpoint, client, r.config.Recommendations.RateLimit, r.logger,
	)

	r.history = repositories.NewRecommendationRepository(r.db)
	r.controller = session.NewController(authSession, recommender, r.history, r.logger)
}

// Close releases the database when the runner opened it.
func (r *Runner) Close(ctx context.Context, cmd *cli.Command) error {
	if r.db == nil || !r.ownsDB {
		return nil
	}
	err := r.db.Close()
	r.db, r.ownsDB = nil, false
	return err
}

// SetLogger replaces the logger used by later commands.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

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
