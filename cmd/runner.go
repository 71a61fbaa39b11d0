package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/snaplist/internal/cache"
	"github.com/desertthunder/snaplist/internal/metrics"
	"github.com/desertthunder/snaplist/internal/repositories"
	"github.com/desertthunder/snaplist/internal/services"
	"github.com/desertthunder/snaplist/internal/shared"
	"github.com/desertthunder/snaplist/internal/tasks"
	"github.com/desertthunder/snaplist/internal/tracklist"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The database, search cache and engines are built on first use so commands like `setup config` never touch them.
type Runner struct {
	config     *shared.Config
	logger     *log.Logger
	output     io.Writer
	httpClient *http.Client
	metrics    *metrics.Collector

	detector services.TextDetector
	searcher services.VideoSearcher
	detailer services.VideoDetailer
	writer   services.PlaylistWriter
	oauth    *oauth2.Config

	db      *sql.DB
	cache   *cache.Tiered
	engines map[tracklist.Mode]*tasks.ResolutionEngine

	openBrowser func(string) error
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Nil service fields are filled with the Google implementations built from Config.
type RunnerOpts struct {
	Config     *shared.Config
	Logger     *log.Logger
	Output     io.Writer
	HTTPClient *http.Client
	Metrics    *metrics.Collector
	Detector   services.TextDetector
	Searcher   services.VideoSearcher
	Detailer   services.VideoDetailer
	Writer     services.PlaylistWriter
	DB         *sql.DB
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
		shared.SetLogLevel(opts.Logger, opts.Config.Log.ParsedLevel())
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewCollector()
	}

	google := opts.Config.Credentials.Google
	oauthConfig, err := services.GoogleOAuthConfig(google)
	if err != nil {
		opts.Logger.Debug("oauth client not configured, playlist tokens will not be refreshed", "error", err)
		oauthConfig = nil
	}

	svcOpts := []services.Option{services.WithHTTPClient(opts.HTTPClient), services.WithLogger(opts.Logger)}
	if opts.Detector == nil {
		opts.Detector = services.NewVisionService(google.APIKey, svcOpts...)
	}
	if opts.Searcher == nil || opts.Detailer == nil || opts.Writer == nil {
		yt := services.NewYouTubeService(google.APIKey, oauthConfig, svcOpts...)
		if opts.Searcher == nil {
			opts.Searcher = yt
		}
		if opts.Detailer == nil {
			opts.Detailer = yt
		}
		if opts.Writer == nil {
			opts.Writer = yt
		}
	}

	return &Runner{
		config:      opts.Config,
		logger:      opts.Logger,
		output:      opts.Output,
		httpClient:  opts.HTTPClient,
		metrics:     opts.Metrics,
		detector:    opts.Detector,
		searcher:    opts.Searcher,
		detailer:    opts.Detailer,
		writer:      opts.Writer,
		oauth:       oauthConfig,
		db:          opts.DB,
		openBrowser: shared.OpenBrowser,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, resolveCommand, historyCommand, playlistCommand, authCommand, setupCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the logger, e.g. when the TUI takes over the terminal.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// Close releases the database and the cache connection. It is safe to call more than once.
func (r *Runner) Close() error {
	if r.cache != nil {
		r.cache.Close()
		r.cache = nil
	}
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

// database opens the configured database and applies migrations on first use.
func (r *Runner) database() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return nil, err
	}
	r.db = db
	return db, nil
}

func (r *Runner) historyRepository() (*repositories.HistoryRepository, error) {
	db, err := r.database()
	if err != nil {
		return nil, err
	}
	return repositories.NewHistoryRepository(db), nil
}

// engine returns the resolution engine for mode, building both engines on first use.
func (r *Runner) engine(ctx context.Context, mode tracklist.Mode) (*tasks.ResolutionEngine, error) {
	if r.engines == nil {
		history, err := r.historyRepository()
		if err != nil {
			return nil, err
		}

		r.cache = cache.New(ctx, r.config.Cache, r.logger)
		r.metrics.RegisterCacheStats(r.cache.Stats)
		searcher := services.NewCachedSearcher(r.searcher, r.cache)

		ropts := tasks.ResolverOptsFromConfig(r.config.Resolver)
		ropts.Logger = r.logger
		ropts.Metrics = r.metrics

		r.engines = make(map[tracklist.Mode]*tasks.ResolutionEngine, 2)
		for _, m := range []tracklist.Mode{tracklist.ModeMulti, tracklist.ModeSingle} {
			r.engines[m] = tasks.NewResolutionEngine(
				r.detector,
				m,
				tracklist.NewNormalizer(m),
				tasks.NewResolver(m, searcher, r.detailer, ropts),
				tasks.WithHistory(history),
				tasks.WithLogger(r.logger),
				tasks.WithMetrics(r.metrics),
			)
		}
	}

	e, ok := r.engines[mode]
	if !ok {
		return nil, fmt.Errorf("%w: unknown mode %q", shared.ErrInvalidArgument, mode)
	}
	return e, nil
}

func (r *Runner) exporter() (*tasks.PlaylistExporter, error) {
	db, err := r.database()
	if err != nil {
		return nil, err
	}
	return tasks.NewPlaylistExporter(r.writer, repositories.NewExportRepository(db), r.logger, r.metrics), nil
}

// mode resolves the --mode flag, falling back to the configured resolver mode.
func (r *Runner) mode(cmd *cli.Command) (tracklist.Mode, error) {
	if m := cmd.String("mode"); m != "" {
		return tracklist.ParseMode(m)
	}
	return tracklist.ParseMode(r.config.Resolver.Mode)
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return err
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

// writeOutput writes data to path, or to the runner's output when path is empty.
func (r *Runner) writeOutput(data []byte, path string) error {
	if path != "" {
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		r.logger.Info("output written", "path", path)
		return nil
	}

	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
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
