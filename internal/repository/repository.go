// Package repository provides reference-data persistence implementations.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/opensource-finance/kestrel/internal/domain"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrInvalidInput = errors.New("invalid input")
)

const dateLayout = "2006-01-02"

// SQLRepository implements domain.Repository using database/sql.
// Works with both SQLite and PostgreSQL drivers.
type SQLRepository struct {
	db     *sql.DB
	driver string
}

// New creates a new repository based on configuration.
func New(cfg domain.RepositoryConfig) (*SQLRepository, error) {
	db, err := open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	repo := &SQLRepository{
		db:     db,
		driver: cfg.Driver,
	}

	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repo, nil
}

func (r *SQLRepository) migrate() error {
	for _, schema := range AllSchemas() {
		if _, err := r.db.Exec(schema); err != nil {
			return err
		}
	}
	return nil
}

// SaveOffer upserts an offer keyed by (sender, receiver, platform).
// A new offer with Position 0 is appended after the corridor's last offer;
// an existing offer keeps its position.
func (r *SQLRepository) SaveOffer(ctx context.Context, offer *domain.CorridorOffer) error {
	if offer.SenderCountry == "" || offer.ReceiverCountry == "" {
		return fmt.Errorf("%w: sender and receiver countries are required", ErrInvalidInput)
	}
	if err := offer.Validate(); err != nil {
		return err
	}

	position := offer.Position
	if position <= 0 {
		next, err := r.nextPosition(ctx, offer.SenderCountry, offer.ReceiverCountry)
		if err != nil {
			return fmt.Errorf("failed to allocate position: %w", err)
		}
		position = next
	}

	query := `
		INSERT INTO platform_offers (
			sender_country, receiver_country, platform,
			fixed_fee, percentage_fee, fx_markup_percent, settlement_time_days,
			currency_sent, currency_received, supported, position, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(sender_country, receiver_country, platform) DO UPDATE SET
			fixed_fee = excluded.fixed_fee,
			percentage_fee = excluded.percentage_fee,
			fx_markup_percent = excluded.fx_markup_percent,
			settlement_time_days = excluded.settlement_time_days,
			currency_sent = excluded.currency_sent,
			currency_received = excluded.currency_received,
			supported = excluded.supported,
			updated_at = excluded.updated_at
		RETURNING position
	`

	supported := 0
	if offer.Supported {
		supported = 1
	}

	return r.db.QueryRowContext(ctx, r.rebind(query),
		offer.SenderCountry, offer.ReceiverCountry, offer.Platform,
		offer.FixedFee, offer.PercentageFee, offer.FXMarkupPercent, offer.SettlementTimeDays,
		offer.CurrencySent, offer.CurrencyReceived, supported, position,
		time.Now().UTC(),
	).Scan(&offer.Position)
}

func (r *SQLRepository) nextPosition(ctx context.Context, sender, receiver string) (int, error) {
	query := `
		SELECT COALESCE(MAX(position), 0)
		FROM platform_offers
		WHERE sender_country = ? AND receiver_country = ?
	`

	var last int
	if err := r.db.QueryRowContext(ctx, r.rebind(query), sender, receiver).Scan(&last); err != nil {
		return 0, err
	}
	return last + 1, nil
}

// ListOffers returns every offer of a corridor, supported or not, in
// reference-data order.
func (r *SQLRepository) ListOffers(ctx context.Context, senderCountry, receiverCountry string) ([]domain.CorridorOffer, error) {
	query := `
		SELECT sender_country, receiver_country, platform,
			   fixed_fee, percentage_fee, fx_markup_percent, settlement_time_days,
			   currency_sent, currency_received, supported, position
		FROM platform_offers
		WHERE sender_country = ? AND receiver_country = ?
		ORDER BY position, platform
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), senderCountry, receiverCountry)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	offers := []domain.CorridorOffer{}
	for rows.Next() {
		var o domain.CorridorOffer
		var supported int

		if err := rows.Scan(
			&o.SenderCountry, &o.ReceiverCountry, &o.Platform,
			&o.FixedFee, &o.PercentageFee, &o.FXMarkupPercent, &o.SettlementTimeDays,
			&o.CurrencySent, &o.CurrencyReceived, &supported, &o.Position,
		); err != nil {
			return nil, err
		}

		o.Supported = supported == 1
		offers = append(offers, o)
	}

	return offers, rows.Err()
}

// ListCorridors returns every corridor with at least one offer.
func (r *SQLRepository) ListCorridors(ctx context.Context) ([]domain.Corridor, error) {
	query := `
		SELECT sender_country, receiver_country, COUNT(*)
		FROM platform_offers
		GROUP BY sender_country, receiver_country
		ORDER BY sender_country, receiver_country
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	corridors := []domain.Corridor{}
	for rows.Next() {
		var c domain.Corridor
		if err := rows.Scan(&c.SenderCountry, &c.ReceiverCountry, &c.OfferCount); err != nil {
			return nil, err
		}
		corridors = append(corridors, c)
	}

	return corridors, rows.Err()
}

// SaveFXSample upserts a sample keyed by (base, target, date).
func (r *SQLRepository) SaveFXSample(ctx context.Context, sample *domain.FXSample) error {
	if sample.BaseCurrency == "" || sample.TargetCurrency == "" {
		return fmt.Errorf("%w: base and target currencies are required", ErrInvalidInput)
	}
	if sample.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}

	query := `
		INSERT INTO fx_history (
			base_currency, target_currency, sample_date, avg_rate, volatility_index
		) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(base_currency, target_currency, sample_date) DO UPDATE SET
			avg_rate = excluded.avg_rate,
			volatility_index = excluded.volatility_index
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		sample.BaseCurrency, sample.TargetCurrency, sample.Date.UTC().Format(dateLayout),
		sample.AvgRate, sample.VolatilityIndex,
	)
	return err
}

// ListFXHistory returns the whole FX history table.
func (r *SQLRepository) ListFXHistory(ctx context.Context) ([]domain.FXSample, error) {
	query := `
		SELECT base_currency, target_currency, sample_date, avg_rate, volatility_index
		FROM fx_history
		ORDER BY base_currency, target_currency, sample_date
	`
	return r.queryFX(ctx, query)
}

// ListFXHistoryForPair returns the samples of one currency pair by date.
func (r *SQLRepository) ListFXHistoryForPair(ctx context.Context, base, target string) ([]domain.FXSample, error) {
	query := `
		SELECT base_currency, target_currency, sample_date, avg_rate, volatility_index
		FROM fx_history
		WHERE base_currency = ? AND target_currency = ?
		ORDER BY sample_date
	`
	return r.queryFX(ctx, r.rebind(query), base, target)
}

func (r *SQLRepository) queryFX(ctx context.Context, query string, args ...any) ([]domain.FXSample, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	samples := []domain.FXSample{}
	for rows.Next() {
		var s domain.FXSample
		var date string

		if err := rows.Scan(&s.BaseCurrency, &s.TargetCurrency, &date, &s.AvgRate, &s.VolatilityIndex); err != nil {
			return nil, err
		}

		s.Date, err = time.Parse(dateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q for %s/%s: %w", date, s.BaseCurrency, s.TargetCurrency, err)
		}
		samples = append(samples, s)
	}

	return samples, rows.Err()
}

// Ping checks database connectivity.
func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database connection.
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

// rebind converts ? placeholders to $1, $2, etc. for PostgreSQL.
func (r *SQLRepository) rebind(query string) string {
	if r.driver != "postgres" {
		return query
	}

	var b strings.Builder
	n := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			fmt.Fprintf(&b, "$%d", n)
			n++
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}
