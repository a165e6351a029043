package backend

import (
	"context"

	"fines/internal/amqp"
	"fines/internal/core"
	"fines/internal/ledger"
	"fines/internal/metrics"
)

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// Result is a ready ledger. Store is the raw backend; Ledger wraps it with
// event publishing and is what the navigator should use.
type Result struct {
	Store   ledger.Store
	Ledger  ledger.Ledger
	AMQP    *amqp.Client
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

// Config holds everything needed to open a backend.
type Config struct {
	Type BackendType

	SQLiteDBPath string
	DatabaseURL  string

	// Event publishing is optional; an empty URL disables it.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	Clock   core.Clock
	Metrics *metrics.Metrics
}

type BackendType string

const (
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
	MemoryBackend   BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, PostgresBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
