package job

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/Clark-Hu/glue-decades/internal/catalog"
	"github.com/Clark-Hu/glue-decades/internal/config"
	"github.com/Clark-Hu/glue-decades/internal/domain"
	"github.com/Clark-Hu/glue-decades/internal/output"
	"github.com/Clark-Hu/glue-decades/internal/sink"
)

// NewFromConfig connects the catalog and builds the sink and encoder named by
// cfg. The caller owns the returned runner's Catalog and must Close it.
func NewFromConfig(ctx context.Context, cfg config.Config, logger *log.Logger) (*Runner, error) {
	if logger == nil {
		logger = log.Default()
	}

	enc, err := output.New(cfg.OutputFormat)
	if err != nil {
		return nil, err
	}

	snk, err := sink.New(cfg.OutputPath, sink.Options{
		S3: sink.S3Options{
			Region:         cfg.AWSRegion,
			Endpoint:       cfg.S3Endpoint,
			ForcePathStyle: cfg.S3ForcePathStyle,
		},
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("init sink: %w", err)
	}

	cat, err := catalog.Open(ctx, cfg.CatalogDriver, cfg.CatalogDSN, catalog.Options{
		MaxConns:               int32(cfg.DBMaxConns),
		MinConns:               int32(cfg.DBMinConns),
		MaxConnIdleTime:        time.Duration(cfg.DBMaxIdleSecs) * time.Second,
		MaxConnLifetime:        time.Duration(cfg.DBMaxLifeSecs) * time.Second,
		ConnTimeout:            time.Duration(cfg.DBConnTimeoutSecs) * time.Second,
		StatementCacheCapacity: cfg.DBStatementCache,
		Logger:                 logger,
	})
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}

	return &Runner{
		Catalog:  cat,
		Sink:     snk,
		Encoder:  enc,
		Table:    domain.TableRef{Database: cfg.CatalogDatabase, Table: cfg.CatalogTable},
		ShowRows: cfg.ShowRows,
		Out:      os.Stdout,
		Logger:   logger,
	}, nil
}
