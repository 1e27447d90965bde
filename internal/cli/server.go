package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Mayhomes/quiz/internal/app"
	"github.com/Mayhomes/quiz/internal/config"
	"github.com/Mayhomes/quiz/internal/infra/file"
	"github.com/Mayhomes/quiz/internal/infra/memory"
	pgbank "github.com/Mayhomes/quiz/internal/infra/postgres"
	redisinfra "github.com/Mayhomes/quiz/internal/infra/redis"
	"github.com/Mayhomes/quiz/internal/infra/sheets"
	transport "github.com/Mayhomes/quiz/internal/transport/http"
	"github.com/Mayhomes/quiz/internal/version"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz session server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log := newLogger(cfg)

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 24*time.Hour)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	// Question bank: Postgres when configured, JSON document otherwise,
	// both behind a TTL cache.
	var loader app.BankLoader = file.NewBankLoader(cfg.Quiz.BankPath)
	if pool != nil {
		bankID := cfg.Postgres.BankID
		if bankID == "" {
			bankID = "default"
		}
		loader = pgbank.NewBankLoader(pool, bankID)
	}
	bankTTL := config.TTLDuration(cfg.Quiz.BankTTL, 10*time.Minute)
	var bank app.BankLoader
	if redisClient != nil {
		bank = redisinfra.NewBankRepository(redisClient, loader, bankTTL)
	} else {
		bank = memory.NewBankRepository(loader, bankTTL)
	}

	var store app.Store = memory.NewStore()
	if redisClient != nil {
		store = redisinfra.NewStore(redisClient, redisTTL)
	}

	submitter := sheets.NewSubmitter(sheets.Config{
		URL:            cfg.Sheets.URL,
		Enabled:        cfg.Sheets.Enabled,
		MaxRetries:     cfg.Sheets.MaxRetries,
		RetryDelay:     config.TTLDuration(cfg.Sheets.RetryDelay, time.Second),
		Timeout:        config.TTLDuration(cfg.Sheets.Timeout, 10*time.Second),
		VerifyResponse: cfg.Sheets.VerifyResponse,
	}, log)

	sessionCfg := app.SessionConfig{
		QuestionCount: cfg.Quiz.QuestionCount,
		Duration:      time.Duration(cfg.Quiz.DurationMinutes) * time.Minute,
	}
	factory := func(id string) *app.Session {
		return app.NewSession(id, store, bank, submitter, sessionCfg, log)
	}

	var registry app.SessionRegistry
	if redisClient != nil {
		registry = redisinfra.NewSessionRegistry(redisClient, factory, redisTTL)
	} else {
		registry = memory.NewSessionRegistry(factory)
	}

	handler := transport.NewHandler(registry, log, version.Version)
	wsTimer := transport.NewTimerSocket(registry, log)
	router := transport.NewRouter(handler, wsTimer)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("port", finalPort).Str("version", version.Version).Msg("starting quiz service")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info().Msg("shutting down server...")
	case <-ctx.Done():
		log.Info().Msg("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func newLogger(cfg config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil || cfg.Log.Level == "" {
		level = zerolog.InfoLevel
	}
	var log zerolog.Logger
	if cfg.Log.Format == "json" {
		log = zerolog.New(os.Stdout)
	} else {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}
	return log.Level(level).With().Timestamp().Logger()
}
