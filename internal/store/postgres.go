package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/scrapyard-labs/lootscan/internal/model"
)

// Postgres is the durable store. It backs the snapshot cache, the currency
// price history, the API call log, persisted schema tables and the error
// audit trail.
type Postgres struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

// NewPostgres wraps an existing connection pool.
func NewPostgres(db *pgxpool.Pool, logger *slog.Logger) *Postgres {
	if logger == nil {
		logger = slog.Default()
	}
	return &Postgres{db: db, logger: logger}
}

// EnsureSchema creates all tables and indexes if they do not exist. Called
// once at startup; every statement is idempotent.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS snapshot_results (
			name        TEXT PRIMARY KEY,
			listings    JSONB NOT NULL,
			fetched_at  TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS currencies_prices (
			id          UUID PRIMARY KEY,
			name        TEXT NOT NULL,
			price       NUMERIC NOT NULL,
			intent      TEXT NOT NULL,
			diff        NUMERIC NOT NULL,
			currency    TEXT NOT NULL,
			origin      TEXT NOT NULL,
			fetched_at  TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS currencies_prices_lookup_idx
			ON currencies_prices (origin, name, currency, intent, fetched_at DESC)`,
		`CREATE TABLE IF NOT EXISTS api_call_log (
			endpoint   TEXT PRIMARY KEY,
			called_at  TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS schema_entries (
			kind   TEXT NOT NULL,
			name   TEXT NOT NULL,
			value  DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (kind, name)
		)`,
		`CREATE TABLE IF NOT EXISTS error_records (
			id          UUID PRIMARY KEY,
			item_name   TEXT NOT NULL,
			item_price  NUMERIC NOT NULL,
			context     TEXT NOT NULL,
			message     TEXT NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL
		)`,
	}

	for _, stmt := range stmts {
		if _, err := p.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// -----------------------------------------------------------------------------
// Snapshot cache
// -----------------------------------------------------------------------------

// GetSnapshot returns the cached entry for key, or nil when absent.
func (p *Postgres) GetSnapshot(ctx context.Context, key string) (*model.CacheEntry, error) {
	var (
		raw       []byte
		fetchedAt time.Time
	)
	err := p.db.QueryRow(ctx,
		`SELECT listings, fetched_at FROM snapshot_results WHERE name = $1`,
		key,
	).Scan(&raw, &fetchedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot %s: %w", key, err)
	}

	var listings []model.NormalizedListing
	if err := json.Unmarshal(raw, &listings); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", key, err)
	}

	return &model.CacheEntry{
		Key:       key,
		Listings:  listings,
		FetchedAt: fetchedAt,
	}, nil
}

// PutSnapshot stores entry, replacing any previous entry for the same key.
func (p *Postgres) PutSnapshot(ctx context.Context, entry model.CacheEntry) error {
	raw, err := json.Marshal(entry.Listings)
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", entry.Key, err)
	}

	_, err = p.db.Exec(ctx, `
		INSERT INTO snapshot_results (name, listings, fetched_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET listings = $2, fetched_at = $3
	`, entry.Key, raw, entry.FetchedAt)
	if err != nil {
		return fmt.Errorf("put snapshot %s: %w", entry.Key, err)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Currency price history
// -----------------------------------------------------------------------------

// InsertQuote appends one quote to the price history.
func (p *Postgres) InsertQuote(ctx context.Context, q model.CurrencyQuote) error {
	_, err := p.db.Exec(ctx, `
		INSERT INTO currencies_prices (id, name, price, intent, diff, currency, origin, fetched_at)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7)
	`, q.Name, q.Price, string(q.Intent), q.Diff, q.Currency, q.Origin, q.FetchedAt)
	if err != nil {
		return fmt.Errorf("insert quote %s/%s: %w", q.Name, q.Intent, err)
	}
	return nil
}

// NewestQuote returns the most recent quote matching the given fields, or
// nil when none has been persisted.
func (p *Postgres) NewestQuote(ctx context.Context, origin, name, currency string, intent model.Direction) (*model.CurrencyQuote, error) {
	q := model.CurrencyQuote{
		Name:     name,
		Currency: currency,
		Origin:   origin,
		Intent:   intent,
	}
	err := p.db.QueryRow(ctx, `
		SELECT price, diff, fetched_at FROM currencies_prices
		WHERE origin = $1 AND name = $2 AND currency = $3 AND intent = $4
		ORDER BY fetched_at DESC
		LIMIT 1
	`, origin, name, currency, string(intent)).Scan(&q.Price, &q.Diff, &q.FetchedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("newest quote %s/%s: %w", name, intent, err)
	}
	return &q, nil
}

// -----------------------------------------------------------------------------
// API call log
// -----------------------------------------------------------------------------

// ShouldCall reports whether endpoint was last called more than maxAge ago.
// An endpoint never called before is always due.
func (p *Postgres) ShouldCall(ctx context.Context, endpoint string, maxAge time.Duration) (bool, error) {
	var calledAt time.Time
	err := p.db.QueryRow(ctx,
		`SELECT called_at FROM api_call_log WHERE endpoint = $1`,
		endpoint,
	).Scan(&calledAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("should call %s: %w", endpoint, err)
	}
	return time.Since(calledAt) >= maxAge, nil
}

// RecordCall logs a completed call to endpoint.
func (p *Postgres) RecordCall(ctx context.Context, endpoint string) error {
	_, err := p.db.Exec(ctx, `
		INSERT INTO api_call_log (endpoint, called_at)
		VALUES ($1, now())
		ON CONFLICT (endpoint) DO UPDATE SET called_at = now()
	`, endpoint)
	if err != nil {
		return fmt.Errorf("record call %s: %w", endpoint, err)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Schema tables
// -----------------------------------------------------------------------------

// ReplaceSchemaEntries atomically replaces all entries of one kind.
func (p *Postgres) ReplaceSchemaEntries(ctx context.Context, kind string, entries map[string]float64) error {
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("replace schema %s: %w", kind, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM schema_entries WHERE kind = $1`, kind); err != nil {
		return fmt.Errorf("replace schema %s: %w", kind, err)
	}

	batch := &pgx.Batch{}
	for name, value := range entries {
		batch.Queue(
			`INSERT INTO schema_entries (kind, name, value) VALUES ($1, $2, $3)`,
			kind, name, value,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("replace schema %s: %w", kind, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("replace schema %s: %w", kind, err)
	}
	return nil
}

// LoadSchemaEntries returns all entries of one kind. An unknown kind yields
// an empty map.
func (p *Postgres) LoadSchemaEntries(ctx context.Context, kind string) (map[string]float64, error) {
	rows, err := p.db.Query(ctx,
		`SELECT name, value FROM schema_entries WHERE kind = $1`,
		kind,
	)
	if err != nil {
		return nil, fmt.Errorf("load schema %s: %w", kind, err)
	}
	defer rows.Close()

	entries := make(map[string]float64)
	for rows.Next() {
		var (
			name  string
			value float64
		)
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("load schema %s: %w", kind, err)
		}
		entries[name] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load schema %s: %w", kind, err)
	}
	return entries, nil
}

// -----------------------------------------------------------------------------
// Error audit trail
// -----------------------------------------------------------------------------

// InsertErrorRecord appends one caught failure to the audit trail.
func (p *Postgres) InsertErrorRecord(ctx context.Context, rec model.ErrorRecord) error {
	_, err := p.db.Exec(ctx, `
		INSERT INTO error_records (id, item_name, item_price, context, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, rec.ID, rec.ItemName, rec.ItemPrice, rec.Context, rec.Message, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert error record %s: %w", rec.ItemName, err)
	}
	return nil
}
