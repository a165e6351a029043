package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"
	_ "time/tzdata"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"fines/internal/amqp"
	"fines/internal/auth"
	"fines/internal/backend"
	"fines/internal/cache"
	"fines/internal/catalog"
	"fines/internal/cli"
	"fines/internal/config"
	"fines/internal/core"
	apphttp "fines/internal/http"
	"fines/internal/ledger"
	"fines/internal/log"
	"fines/internal/metrics"
	"fines/internal/navigator"
	"fines/internal/session"
	"fines/internal/telegram"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).ValidateBot)

	loc, err := cfg.Location()
	if err != nil {
		logger.Error("Invalid timezone", log.FieldError, err, "timezone", cfg.Timezone)
		os.Exit(1)
	}
	clock := core.NewSystemClock(loc)

	cat := catalog.Default()
	if cfg.CatalogFile != "" {
		if cat, err = catalog.Load(cfg.CatalogFile); err != nil {
			logger.Error("Failed to load catalog", log.FieldError, err, "path", cfg.CatalogFile)
			os.Exit(1)
		}
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	backendCfg, err := backend.FromAppConfig(cfg, clock, m)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger.Logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to open ledger", log.FieldError, err, log.FieldErrorType, log.ErrorTypeDatabase, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	static := auth.NewStaticProvider(cfg.AdminIDs)
	directory := auth.NewDirectoryProvider(res.Store, cfg.AdminCacheTTL)
	roles := auth.NewResolver(logger.Logger, static, directory)

	cacheManager := cache.NewManager(logger.Logger)
	cacheManager.Register(directory)
	cacheManager.StartCleanup(5 * time.Minute)

	var (
		sessions session.Store
		rdb      *redis.Client
	)
	switch cfg.SessionBackend {
	case "redis":
		rdb, err = session.DialRedis(context.Background(), cfg.RedisURL)
		if err != nil {
			logger.Error("Failed to connect to Redis", log.FieldError, err, log.FieldErrorType, log.ErrorTypeNetwork)
			os.Exit(1)
		}
		sessions = session.NewRedisStore(rdb)
	default:
		sessions = session.NewMemoryStore()
	}

	nav := navigator.New(navigator.NewMachine(cat, res.Ledger, clock), roles, sessions, m, logger)

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		logger.Error("Failed to connect to Telegram", log.FieldError, err, log.FieldErrorType, log.ErrorTypeNetwork)
		os.Exit(1)
	}

	srv := apphttp.NewServer(":"+cfg.Port, logger, prometheus.DefaultGatherer, readinessChecks(res.Store, rdb, res.AMQP)...)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		bot.StopReceivingUpdates()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})

	u := tgbotapi.NewUpdate(0)
	u.Timeout = int(cfg.PollTimeout / time.Second)
	updates := bot.GetUpdatesChan(u)

	logger.Info("Starting fines bot",
		"bot", bot.Self.UserName,
		"token", cfg.MaskedBotToken(),
		"admin_ids", cfg.AdminIDs,
		"static_admins", static.Len(),
		"backend", cfg.DataBackend,
		"sessions", cfg.SessionBackend,
		"timezone", loc.String(),
		"port", cfg.Port,
		"event_publishing", res.AMQP != nil,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return telegram.New(bot, nav, cfg.MaxConcurrentUpdates, logger).Run(gctx, updates)
	})
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	runErr := g.Wait()
	if runErr != nil {
		logger.Error("Bot stopped with error", log.FieldError, runErr)
	} else {
		cli.WaitForShutdown(ctx, done)
	}

	cacheManager.Stop()
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			logger.Error("Failed to close Redis client", log.FieldError, err)
		}
	}
	if err := res.Cleanup(); err != nil {
		logger.Error("Failed to release backend", log.FieldError, err)
	}
	if runErr != nil {
		os.Exit(1)
	}
	logger.Info("Bot stopped gracefully")
}

// readinessChecks pings the ledger and whichever optional backends are in use.
func readinessChecks(store ledger.Store, rdb *redis.Client, broker *amqp.Client) []apphttp.Check {
	checks := []apphttp.Check{apphttp.PingCheck("ledger", store)}
	if rdb != nil {
		checks = append(checks, apphttp.Check{
			Name: "redis",
			Ping: func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		})
	}
	if broker != nil {
		checks = append(checks, apphttp.Check{
			Name: "amqp",
			Ping: func(context.Context) error { return broker.Ping() },
		})
	}
	return checks
}
