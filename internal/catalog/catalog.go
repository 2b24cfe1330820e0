package catalog

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Clark-Hu/glue-decades/internal/domain"
)

var (
	// ErrTableNotFound indicates the catalog has no table for the reference.
	ErrTableNotFound = errors.New("catalog: table not found")
	// ErrUnknownDriver is returned by Open for unsupported backends.
	ErrUnknownDriver = errors.New("catalog: unknown driver")
)

// Columns read from every catalog table.
const (
	ColumnTitle  = "movie_title"
	ColumnYear   = "year"
	ColumnRating = "rating"
)

// Catalog streams movie rows out of a registered table.
type Catalog interface {
	// Scan calls fn once per row. A non-nil error from fn stops the scan and
	// is returned unchanged.
	Scan(ctx context.Context, ref domain.TableRef, fn func(domain.MovieRecord) error) error
	Ping(ctx context.Context) error
	Close() error
}

// Options controls connection-pool behaviour shared by all backends.
type Options struct {
	MaxConns               int32
	MinConns               int32
	MaxConnIdleTime        time.Duration
	MaxConnLifetime        time.Duration
	ConnTimeout            time.Duration
	StatementCacheCapacity int
	Logger                 *log.Logger
}

func (o Options) logger() *log.Logger {
	if o.Logger == nil {
		return log.Default()
	}
	return o.Logger
}

// withConnTimeout bounds ctx by ConnTimeout when one is configured.
func (o Options) withConnTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.ConnTimeout > 0 {
		return context.WithTimeout(ctx, o.ConnTimeout)
	}
	return ctx, func() {}
}

// CanonicalDriver resolves a driver name or alias (postgresql, pgx, mongodb)
// to postgres, mysql or mongo. It reports false for unknown names.
func CanonicalDriver(name string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "postgres", "postgresql", "pgx":
		return "postgres", true
	case "mysql":
		return "mysql", true
	case "mongo", "mongodb":
		return "mongo", true
	default:
		return "", false
	}
}

// Open connects to the backend named by driver. Aliases accepted by
// CanonicalDriver are allowed.
func Open(ctx context.Context, driver, dsn string, opts Options) (Catalog, error) {
	name, _ := CanonicalDriver(driver)
	switch name {
	case "postgres":
		return NewPostgres(ctx, dsn, opts)
	case "mysql":
		return NewMySQL(ctx, dsn, opts)
	case "mongo":
		return NewMongo(ctx, dsn, opts)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}

func tableNotFound(ref domain.TableRef, cause error) error {
	return fmt.Errorf("%w: %s: %v", ErrTableNotFound, ref, cause)
}
