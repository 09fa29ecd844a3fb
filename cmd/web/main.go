package main

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/donseba/go-htmx"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/myrjola/mugshots/internal/broker"
	"github.com/myrjola/mugshots/internal/envstruct"
	"github.com/myrjola/mugshots/internal/errors"
	"github.com/myrjola/mugshots/internal/logging"
	"github.com/myrjola/mugshots/internal/metrics"
	"github.com/myrjola/mugshots/internal/play"
	"github.com/myrjola/mugshots/internal/pprofserver"
	"github.com/myrjola/mugshots/internal/puzzle"
	"github.com/myrjola/mugshots/internal/repositories"
	"github.com/myrjola/mugshots/internal/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type application struct {
	logger         *slog.Logger
	sessionManager *scs.SessionManager
	htmx           *htmx.HTMX
	plays          *play.Manager
	indicators     *broker.Broadcaster[uuid.UUID, bool]
	registry       *prometheus.Registry
	templates      map[string]*template.Template
}

type config struct {
	// Addr is the address the web server listens on. Use port 0 for a random free port.
	Addr string `env:"MUGSHOTS_ADDR" envDefault:"localhost:4000"`
	// SqliteURL is the path to the record store or ":memory:".
	SqliteURL string `env:"MUGSHOTS_SQLITE_URL" envDefault:"./mugshots.sqlite"`
	// PprofPort starts a pprof server on the loopback interface when set.
	PprofPort string `env:"MUGSHOTS_PPROF_PORT" envDefault:""`
	// InventorySlots is the size of the character inventory, 0 sizes it to the line-up.
	InventorySlots int     `env:"MUGSHOTS_INVENTORY_SLOTS" envDefault:"0"`
	Zoom           float64 `env:"MUGSHOTS_ZOOM" envDefault:"1"`
	// ReplacePolicy is "evict" or "refuse".
	ReplacePolicy      string `env:"MUGSHOTS_REPLACE_POLICY" envDefault:"evict"`
	IdleTimeoutMinutes int    `env:"MUGSHOTS_IDLE_TIMEOUT_MINUTES" envDefault:"60"`
}

func run(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error {
	var (
		cfg config
		err error
	)
	if err = envstruct.Populate(&cfg, lookupEnv); err != nil {
		return errors.Wrap(err, "populate config")
	}
	var policy puzzle.ReplacePolicy
	if policy, err = puzzle.ParseReplacePolicy(cfg.ReplacePolicy); err != nil {
		return errors.Wrap(err, "parse replace policy")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if cfg.PprofPort != "" {
		if _, err = pprofserver.Launch(ctx, cfg.PprofPort, logger); err != nil {
			return errors.Wrap(err, "launch pprof server")
		}
	}

	var db *sqlite.Database
	if db, err = sqlite.NewDatabase(ctx, cfg.SqliteURL, logger); err != nil {
		return errors.Wrap(err, "new database", slog.String("sqliteURL", cfg.SqliteURL))
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.LogAttrs(ctx, slog.LevelError, "close database", errors.SlogError(closeErr))
		}
	}()
	logger.LogAttrs(ctx, slog.LevelInfo, "connected to db", slog.String("sqliteURL", cfg.SqliteURL))

	sessionStore := sqlite3store.NewWithCleanupInterval(db.ReadWrite.DB, 24*time.Hour) //nolint:mnd // daily
	defer sessionStore.StopCleanup()
	sessionManager := scs.New()
	sessionManager.Store = sessionStore
	sessionManager.Lifetime = 12 * time.Hour //nolint:mnd // half a day
	sessionManager.Cookie.Secure = true

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}), //nolint:exhaustruct // defaults
	)

	indicators := broker.NewBroadcaster[uuid.UUID, bool]()
	go indicators.Start()
	defer indicators.Stop()

	plays := play.NewManager(
		logger,
		repositories.NewCharacterRepository(db, logger),
		repositories.NewSolutionRepository(db, logger),
		play.Config{
			InventorySlots: cfg.InventorySlots,
			Zoom:           cfg.Zoom,
			Policy:         policy,
			IdleTimeout:    time.Duration(cfg.IdleTimeoutMinutes) * time.Minute,
		},
		metrics.New(registry),
		indicators,
	)
	go plays.StartSweeper(ctx)

	var templates map[string]*template.Template
	if templates, err = parseTemplates(); err != nil {
		return errors.Wrap(err, "parse templates")
	}

	app := application{
		logger:         logger,
		sessionManager: sessionManager,
		htmx:           htmx.New(),
		plays:          plays,
		indicators:     indicators,
		registry:       registry,
		templates:      templates,
	}

	if err = app.configureAndStartServer(ctx, cfg.Addr); err != nil {
		return errors.Wrap(err, "start server")
	}
	return nil
}

func main() {
	ctx := context.Background()
	loggerHandler := logging.NewContextHandler(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource:   true,
		Level:       slog.LevelDebug,
		ReplaceAttr: nil,
	}))
	logger := slog.New(loggerHandler)

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.LogAttrs(ctx, slog.LevelError, "failure loading .env", errors.SlogError(err))
		os.Exit(1)
	}

	if err := run(ctx, logger, os.LookupEnv); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "failure starting application", errors.SlogError(err))
		os.Exit(1)
	}
}
