// Package domain defines the core interfaces and types for Kestrel.
package domain

import (
	"context"
	"time"
)

// Repository defines the interface for reference-data storage.
// Offers and FX history are loaded here; computed results are never stored.
type Repository interface {
	// Offer operations
	SaveOffer(ctx context.Context, offer *CorridorOffer) error
	ListOffers(ctx context.Context, senderCountry, receiverCountry string) ([]CorridorOffer, error)
	ListCorridors(ctx context.Context) ([]Corridor, error)

	// FX history operations
	SaveFXSample(ctx context.Context, sample *FXSample) error
	ListFXHistory(ctx context.Context) ([]FXSample, error)
	ListFXHistoryForPair(ctx context.Context, base, target string) ([]FXSample, error)

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// RepositoryConfig holds configuration for repository initialization.
type RepositoryConfig struct {
	// Driver is the database driver: "sqlite" or "postgres"
	Driver string

	// SQLite specific
	SQLitePath string

	// PostgreSQL specific
	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}
