package store

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fieldsense/occupancy-service/internal/models"
)

// schemaSQL is embedded so the service can self-bootstrap its database schema.
//
//go:embed schema.sql
var schemaSQL string

// PostgresStore is the durable, append-only event log. Append is the only
// mutating operation in the system; all queries are read-only and safe under
// concurrent use (the pool and read-committed Postgres semantics handle it).
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a connection pool and fails fast if the database
// is unreachable.
func NewPostgresStore(ctx context.Context, dbURL string) (*PostgresStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// EnsureSchema applies schema.sql. Safe to run multiple times.
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schemaSQL); err != nil {
		return wrap("ensure_schema", err)
	}
	return nil
}

// Ping is used by the readiness endpoint to validate DB connectivity.
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close shuts down the connection pool.
func (p *PostgresStore) Close() {
	p.pool.Close()
}

// Append durably persists one event. The insert is a single row, so it is
// atomic: either the record is visible to subsequent reads or nothing was
// written. The store never retries on its own — a retry here could duplicate
// an event, and that decision belongs to the caller.
func (p *PostgresStore) Append(ctx context.Context, rec models.EventRecord) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO device_events (device_id, event_type, created_at)
		VALUES ($1, $2, $3)
	`, rec.DeviceID, string(rec.Type), rec.CreatedAt)

	if err != nil {
		return wrap("append", err)
	}
	return nil
}

// QueryByDevice returns one device's events ascending by created_at.
// Zero from/to values leave that bound open. No matching rows is an empty
// slice, not an error.
func (p *PostgresStore) QueryByDevice(ctx context.Context, deviceID string, from, to time.Time) ([]models.EventRecord, error) {
	sql := `
		SELECT device_id, event_type, created_at
		FROM device_events
		WHERE device_id = $1
	`
	args := []any{deviceID}
	sql, args = appendWindow(sql, args, from, to)
	sql += " ORDER BY created_at ASC, id ASC"

	return p.queryRecords(ctx, "query_by_device", sql, args)
}

// QueryAll returns events across all devices ascending by created_at, with
// the same open-bound window semantics as QueryByDevice. Used for global
// aggregates and operational dumps.
func (p *PostgresStore) QueryAll(ctx context.Context, from, to time.Time) ([]models.EventRecord, error) {
	sql := `
		SELECT device_id, event_type, created_at
		FROM device_events
		WHERE 1=1
	`
	var args []any
	sql, args = appendWindow(sql, args, from, to)
	sql += " ORDER BY created_at ASC, id ASC"

	return p.queryRecords(ctx, "query_all", sql, args)
}

// appendWindow adds half-open [from, to) bounds for whichever ends are set.
// Half-open avoids double counting at window boundaries.
func appendWindow(sql string, args []any, from, to time.Time) (string, []any) {
	if !from.IsZero() {
		args = append(args, from)
		sql += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if !to.IsZero() {
		args = append(args, to)
		sql += fmt.Sprintf(" AND created_at < $%d", len(args))
	}
	return sql, args
}

func (p *PostgresStore) queryRecords(ctx context.Context, op, sql string, args []any) ([]models.EventRecord, error) {
	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer rows.Close()

	records := []models.EventRecord{}
	for rows.Next() {
		var (
			rec models.EventRecord
			et  string
		)
		if err := rows.Scan(&rec.DeviceID, &et, &rec.CreatedAt); err != nil {
			return nil, wrap(op, err)
		}
		rec.Type = models.EventType(et)
		rec.CreatedAt = rec.CreatedAt.UTC()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(op, err)
	}

	return records, nil
}
