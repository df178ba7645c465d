package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/spendlens/spendlens/internal/ai"
	"github.com/spendlens/spendlens/internal/auth"
	"github.com/spendlens/spendlens/internal/config"
	"github.com/spendlens/spendlens/internal/confirm"
	"github.com/spendlens/spendlens/internal/db"
	"github.com/spendlens/spendlens/internal/handlers"
	"github.com/spendlens/spendlens/internal/history"
	"github.com/spendlens/spendlens/internal/i18n"
	"github.com/spendlens/spendlens/internal/logger"
	"github.com/spendlens/spendlens/internal/profile"
	"github.com/spendlens/spendlens/internal/quota"
	"github.com/spendlens/spendlens/internal/receipt"
	"github.com/spendlens/spendlens/internal/records"
	"github.com/spendlens/spendlens/internal/router"
	"github.com/spendlens/spendlens/internal/server"
	"github.com/spendlens/spendlens/internal/session"
	"github.com/spendlens/spendlens/internal/telegram"
)

func runServe() {
	fx.New(
		fx.Provide(
			provideConfig,
			provideLogger,
			provideDBConn,
			i18n.NewCatalog,
			session.NewStore,
			provideGateway,
			provideProfileStore,
			provideHistoryService,
			provideQuotaManager,
			provideQuotaSweeper,
			provideRecordStore,
			provideWorkflow,
			providePipeline,
			provideFormLinks,
			provideBot,
			provideRouter,
			providePingHandler,
			provideFormHandler,
			provideReportHandler,
			provideServer,
		),
		fx.Invoke(
			ensureSchema,
			startQuotaSweeper,
			startBot,
			startServer,
		),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
		}),
	).Run()
}

func provideConfig() (config.Config, error) {
	cfgPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func provideLogger(cfg config.Config) *slog.Logger {
	return logger.Init(cfg.Log.Level, cfg.Log.Format)
}

func provideDBConn(lc fx.Lifecycle, cfg config.Config) (*pgxpool.Pool, error) {
	conn, err := db.Open(context.Background(), cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			conn.Close()
			return nil
		},
	})
	return conn, nil
}

func provideGateway(log *slog.Logger, cfg config.Config) *ai.Client {
	return ai.NewClient(log, cfg.Providers)
}

func provideProfileStore(log *slog.Logger, conn *pgxpool.Pool) *profile.Store {
	return profile.NewStore(log, conn)
}

func provideHistoryService(log *slog.Logger, conn *pgxpool.Pool) *history.Service {
	return history.NewService(log, conn)
}

func provideQuotaManager(log *slog.Logger, profiles *profile.Store, cfg config.Config) *quota.Manager {
	return quota.NewManager(log, profiles, cfg.Quota)
}

func provideQuotaSweeper(log *slog.Logger, conn *pgxpool.Pool) *quota.Sweeper {
	return quota.NewSweeper(log, conn)
}

func provideRecordStore(log *slog.Logger, conn *pgxpool.Pool) *records.Store {
	return records.NewStore(conn, log)
}

func provideWorkflow(log *slog.Logger, sessions *session.Store, store *records.Store) *confirm.Workflow {
	return confirm.NewWorkflow(sessions, store, log)
}

func providePipeline(log *slog.Logger, gateway *ai.Client, cfg config.Config) *receipt.Pipeline {
	return receipt.NewPipeline(gateway, cfg.Receipt.VisionModel, cfg.Receipt.CategorizeModel, log)
}

func provideFormLinks(cfg config.Config) *auth.FormLinks {
	return auth.NewFormLinks(cfg.Server.FormBaseURL, cfg.Auth.JWTSecret, cfg.Auth.ExpiresIn())
}

func provideBot(log *slog.Logger, cfg config.Config) (*telegram.Bot, error) {
	return telegram.New(cfg.Telegram, log)
}

func provideRouter(
	log *slog.Logger,
	bot *telegram.Bot,
	gateway *ai.Client,
	profiles *profile.Store,
	hist *history.Service,
	quotas *quota.Manager,
	pipeline *receipt.Pipeline,
	workflow *confirm.Workflow,
	store *records.Store,
	links *auth.FormLinks,
	sessions *session.Store,
	catalog *i18n.Catalog,
	cfg config.Config,
) *router.Router {
	return router.New(bot, gateway, profiles, hist, quotas, pipeline, workflow, store, links, sessions, catalog, cfg.Chat, log)
}

func providePingHandler(log *slog.Logger) *handlers.PingHandler {
	return handlers.NewPingHandler(log)
}

func provideFormHandler(log *slog.Logger, store *records.Store) *handlers.FormHandler {
	return handlers.NewFormHandler(log, store)
}

func provideReportHandler(log *slog.Logger, store *records.Store) *handlers.ReportHandler {
	return handlers.NewReportHandler(log, store)
}

func provideServer(
	log *slog.Logger,
	cfg config.Config,
	pingHandler *handlers.PingHandler,
	formHandler *handlers.FormHandler,
	reportHandler *handlers.ReportHandler,
) *server.Server {
	addr := cfg.Server.Addr
	if value := os.Getenv("HTTP_ADDR"); value != "" {
		addr = value
	}
	return server.NewServer(log, addr, cfg.Auth.JWTSecret, pingHandler, formHandler, reportHandler)
}

func ensureSchema(lc fx.Lifecycle, log *slog.Logger, conn *pgxpool.Pool) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return db.EnsureSchema(ctx, log, conn)
		},
	})
}

func startQuotaSweeper(lc fx.Lifecycle, sweeper *quota.Sweeper) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error { return sweeper.Start() },
		OnStop:  func(context.Context) error { sweeper.Stop(); return nil },
	})
}

func startBot(lc fx.Lifecycle, bot *telegram.Bot, r *router.Router) {
	bot.SetHandler(r)
	runCtx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error { return bot.Start(runCtx) },
		OnStop: func(context.Context) error {
			cancel()
			bot.Stop()
			return nil
		},
	})
}

func startServer(lc fx.Lifecycle, log *slog.Logger, srv *server.Server, shutdowner fx.Shutdowner) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("server failed", slog.Any("error", err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
