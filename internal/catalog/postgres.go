package catalog

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/glue-decades/internal/domain"
)

// SQLSTATE codes reported for missing relations and schemas.
const (
	pgUndefinedTable = "42P01"
	pgInvalidSchema  = "3F000"
)

// Postgres reads catalog tables from a Postgres database. The catalog
// database name maps to a schema.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *log.Logger
	opts   Options
}

// NewPostgres initializes a connection pool and validates connectivity with Ping.
func NewPostgres(ctx context.Context, dsn string, opts Options) (*Postgres, error) {
	logger := opts.logger()
	logger.Printf("catalog: initializing postgres pool (max=%d, min=%d, idle=%s, life=%s, stmt_cache=%d)",
		opts.MaxConns, opts.MinConns, opts.MaxConnIdleTime, opts.MaxConnLifetime, opts.StatementCacheCapacity)

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	if opts.MinConns > 0 {
		cfg.MinConns = opts.MinConns
	}
	if opts.MaxConnIdleTime > 0 {
		cfg.MaxConnIdleTime = opts.MaxConnIdleTime
	}
	if opts.MaxConnLifetime > 0 {
		cfg.MaxConnLifetime = opts.MaxConnLifetime
	}
	if opts.StatementCacheCapacity >= 0 {
		cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheStatement
		cfg.ConnConfig.StatementCacheCapacity = opts.StatementCacheCapacity
	}

	connCtx, cancel := opts.withConnTimeout(ctx)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(connCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	logger.Println("catalog: postgres connection established")
	return &Postgres{pool: pool, logger: logger, opts: opts}, nil
}

// NewPostgresWithPool wraps an existing pool. Close releases it.
func NewPostgresWithPool(pool *pgxpool.Pool, logger *log.Logger) *Postgres {
	opts := Options{Logger: logger}
	return &Postgres{pool: pool, logger: opts.logger(), opts: opts}
}

// Scan streams every row of the table through fn.
func (p *Postgres) Scan(ctx context.Context, ref domain.TableRef, fn func(domain.MovieRecord) error) error {
	query := fmt.Sprintf(`SELECT %s, %s, %s FROM %s`,
		ColumnTitle, ColumnYear, ColumnRating, pgx.Identifier{ref.Database, ref.Table}.Sanitize())

	rows, err := p.pool.Query(ctx, query)
	if err != nil {
		return p.classify(ref, err)
	}
	defer rows.Close()

	for rows.Next() {
		var rec domain.MovieRecord
		if err := rows.Scan(&rec.Title, &rec.Year, &rec.Rating); err != nil {
			return fmt.Errorf("scan %s: %w", ref, err)
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return p.classify(ref, err)
	}
	return nil
}

func (p *Postgres) classify(ref domain.TableRef, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && (pgErr.Code == pgUndefinedTable || pgErr.Code == pgInvalidSchema) {
		return tableNotFound(ref, err)
	}
	return fmt.Errorf("query %s: %w", ref, err)
}

// Ping verifies the database is reachable.
func (p *Postgres) Ping(ctx context.Context) error {
	if p == nil || p.pool == nil {
		return fmt.Errorf("catalog not initialized")
	}
	checkCtx, cancel := p.opts.withConnTimeout(ctx)
	defer cancel()
	return p.pool.Ping(checkCtx)
}

// Close releases database resources.
func (p *Postgres) Close() error {
	if p == nil || p.pool == nil {
		return nil
	}
	p.logger.Println("catalog: closing postgres pool")
	p.pool.Close()
	return nil
}

// Stats exposes pgxpool statistics for observability.
func (p *Postgres) Stats() *pgxpool.Stat {
	if p == nil || p.pool == nil {
		return nil
	}
	return p.pool.Stat()
}
