package repository

// Schema definitions for Kestrel reference data.
// Compatible with both SQLite and PostgreSQL.

const schemaPlatformOffers = `
CREATE TABLE IF NOT EXISTS platform_offers (
    sender_country TEXT NOT NULL,
    receiver_country TEXT NOT NULL,
    platform TEXT NOT NULL,
    fixed_fee DOUBLE PRECISION NOT NULL DEFAULT 0,
    percentage_fee DOUBLE PRECISION NOT NULL DEFAULT 0,
    fx_markup_percent DOUBLE PRECISION NOT NULL DEFAULT 0,
    settlement_time_days INTEGER NOT NULL DEFAULT 0,
    currency_sent TEXT NOT NULL,
    currency_received TEXT NOT NULL,
    supported INTEGER NOT NULL DEFAULT 1,
    position INTEGER NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (sender_country, receiver_country, platform)
);

CREATE INDEX IF NOT EXISTS idx_platform_offers_corridor ON platform_offers(sender_country, receiver_country, position);
`

// schemaFXHistory stores dates as YYYY-MM-DD text so both drivers scan them
// the same way.
const schemaFXHistory = `
CREATE TABLE IF NOT EXISTS fx_history (
    base_currency TEXT NOT NULL,
    target_currency TEXT NOT NULL,
    sample_date TEXT NOT NULL,
    avg_rate DOUBLE PRECISION NOT NULL,
    volatility_index DOUBLE PRECISION NOT NULL,
    PRIMARY KEY (base_currency, target_currency, sample_date)
);

CREATE INDEX IF NOT EXISTS idx_fx_history_pair ON fx_history(base_currency, target_currency);
`

// AllSchemas returns all schema statements in order.
func AllSchemas() []string {
	return []string{
		schemaPlatformOffers,
		schemaFXHistory,
	}
}
