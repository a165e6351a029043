package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fines/internal/amqp"
	"fines/internal/core"
	"fines/internal/ledger"
	"fines/internal/services"
	"fines/internal/storage"
	"fines/internal/storage/memory"
	"fines/internal/storage/postgres"
)

type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Clock == nil {
		config.Clock = core.NewSystemClock(nil)
	}

	store, err := f.openStore(ctx, config)
	if err != nil {
		return nil, err
	}

	// AMQP is optional: a broker outage must not stop the ledger.
	var publisher services.Publisher
	var amqpClient *amqp.Client
	if config.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
			amqpClient = nil
		} else {
			publisher = amqpClient
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	f.logger.Info("Initialized ledger backend",
		"type", config.Type.String(),
		"events_enabled", amqpClient != nil)

	return &Result{
		Store:   store,
		Ledger:  services.NewFineService(store, publisher, config.Metrics, f.logger),
		AMQP:    amqpClient,
		Cleanup: cleanup(store, amqpClient),
	}, nil
}

func (f *DefaultFactory) openStore(ctx context.Context, config Config) (ledger.Store, error) {
	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath, config.Clock)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Opened SQLite ledger", "db_path", config.SQLiteDBPath)
		return repo, nil
	case PostgresBackend:
		store, err := postgres.Open(ctx, config.DatabaseURL, config.Clock)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize PostgreSQL store: %w", err)
		}
		f.logger.Info("Opened PostgreSQL ledger")
		return store, nil
	case MemoryBackend:
		f.logger.Warn("Using in-memory ledger, data is lost on restart")
		return memory.New(config.Clock), nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func cleanup(store ledger.Store, client *amqp.Client) CleanupFunc {
	return func() error {
		var errs []error
		if client != nil {
			if err := client.Close(); err != nil {
				errs = append(errs, fmt.Errorf("amqp: %w", err))
			}
		}
		if err := store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
		return errors.Join(errs...)
	}
}
