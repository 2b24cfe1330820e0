package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/Clark-Hu/glue-decades/internal/domain"
)

// MySQL server error numbers for missing tables and databases.
const (
	mysqlNoSuchTable = 1146
	mysqlBadDatabase = 1049
)

// MySQL reads catalog tables over database/sql. The catalog database maps to
// a MySQL database.
type MySQL struct {
	db     *sql.DB
	logger *log.Logger
	opts   Options
}

// NewMySQL opens a connection pool and validates it with Ping.
func NewMySQL(ctx context.Context, dsn string, opts Options) (*MySQL, error) {
	logger := opts.logger()

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	if opts.MaxConns > 0 {
		db.SetMaxOpenConns(int(opts.MaxConns))
	}
	if opts.MinConns > 0 {
		db.SetMaxIdleConns(int(opts.MinConns))
	}
	if opts.MaxConnIdleTime > 0 {
		db.SetConnMaxIdleTime(opts.MaxConnIdleTime)
	}
	if opts.MaxConnLifetime > 0 {
		db.SetConnMaxLifetime(opts.MaxConnLifetime)
	}

	connCtx, cancel := opts.withConnTimeout(ctx)
	defer cancel()
	if err := db.PingContext(connCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}

	logger.Println("catalog: mysql connection established")
	return &MySQL{db: db, logger: logger, opts: opts}, nil
}

// quoteMySQLIdent wraps name in backticks, doubling embedded backticks.
func quoteMySQLIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// Scan streams every row of the table through fn.
func (m *MySQL) Scan(ctx context.Context, ref domain.TableRef, fn func(domain.MovieRecord) error) error {
	query := fmt.Sprintf("SELECT %s, %s, %s FROM %s.%s",
		ColumnTitle, ColumnYear, ColumnRating, quoteMySQLIdent(ref.Database), quoteMySQLIdent(ref.Table))

	rows, err := m.db.QueryContext(ctx, query)
	if err != nil {
		return m.classify(ref, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			title  sql.NullString
			year   sql.NullInt64
			rating sql.NullFloat64
		)
		if err := rows.Scan(&title, &year, &rating); err != nil {
			return fmt.Errorf("scan %s: %w", ref, err)
		}
		var rec domain.MovieRecord
		if title.Valid {
			rec.Title = &title.String
		}
		if year.Valid {
			rec.Year = &year.Int64
		}
		if rating.Valid {
			rec.Rating = &rating.Float64
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return m.classify(ref, err)
	}
	return nil
}

func (m *MySQL) classify(ref domain.TableRef, err error) error {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && (myErr.Number == mysqlNoSuchTable || myErr.Number == mysqlBadDatabase) {
		return tableNotFound(ref, err)
	}
	return fmt.Errorf("query %s: %w", ref, err)
}

// Ping verifies the database is reachable.
func (m *MySQL) Ping(ctx context.Context) error {
	checkCtx, cancel := m.opts.withConnTimeout(ctx)
	defer cancel()
	return m.db.PingContext(checkCtx)
}

// Close releases database resources.
func (m *MySQL) Close() error {
	m.logger.Println("catalog: closing mysql pool")
	return m.db.Close()
}
