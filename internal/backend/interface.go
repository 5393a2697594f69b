// Package backend assembles the storage and change-feed adapters selected by configuration.
package backend

import (
	"context"

	"fintrack/internal/currency"
	"fintrack/internal/events"
	"fintrack/internal/kv"
)

// CleanupFunc releases the resources held by a backend.
type CleanupFunc func() error

// Publisher is the change feed: it receives service events and currency switches.
type Publisher interface {
	events.Notifier
	currency.Listener
}

// BackendResult contains the adapters and an optional cleanup function.
type BackendResult struct {
	Store kv.Store
	// Publisher is nil when no change feed is configured.
	Publisher Publisher
	Cleanup   CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Optional change feed
	AMQPURL        string
	AMQPExchange   string
	AMQPRoutingKey string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
