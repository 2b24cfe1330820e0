package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Clark-Hu/glue-decades/internal/catalog"
)

// Config captures all runtime configuration. Values come from built-in
// defaults, then the optional YAML file named by CONFIG_FILE, then
// environment variables.
type Config struct {
	CatalogDriver    string
	CatalogDSN       string
	CatalogDatabase  string
	CatalogTable     string
	OutputPath       string
	OutputFormat     string
	ShowRows         int
	RunTimeoutSecs   int
	AWSRegion        string
	S3Endpoint       string
	S3ForcePathStyle bool

	Port             string
	AuthToken        string
	ReadTimeoutSecs  int
	WriteTimeoutSecs int
	IdleTimeoutSecs  int

	DBMaxConns        int
	DBMinConns        int
	DBMaxIdleSecs     int
	DBMaxLifeSecs     int
	DBConnTimeoutSecs int
	DBStatementCache  int
}

// Defaults returns the stock catalog table, output bucket and pool settings.
func Defaults() Config {
	return Config{
		CatalogDriver:     "postgres",
		CatalogDatabase:   "glue-demo-db",
		CatalogTable:      "read",
		OutputPath:        "s3://glue-demo-bucket-indeed/write",
		OutputFormat:      "csv",
		ShowRows:          10,
		RunTimeoutSecs:    3600,
		AWSRegion:         "us-east-1",
		Port:              "8080",
		ReadTimeoutSecs:   15,
		WriteTimeoutSecs:  15,
		IdleTimeoutSecs:   60,
		DBMaxConns:        20,
		DBMinConns:        2,
		DBMaxIdleSecs:     300,
		DBMaxLifeSecs:     3600,
		DBConnTimeoutSecs: 10,
		DBStatementCache:  256,
	}
}

// Load reads configuration, applying defaults and validation for the job.
func Load() (Config, error) {
	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := applyFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	cfg.CatalogDriver = strings.ToLower(getEnv("CATALOG_DRIVER", cfg.CatalogDriver))
	cfg.CatalogDSN = getEnv("CATALOG_DSN", cfg.CatalogDSN)
	cfg.CatalogDatabase = getEnv("CATALOG_DATABASE", cfg.CatalogDatabase)
	cfg.CatalogTable = getEnv("CATALOG_TABLE", cfg.CatalogTable)
	cfg.OutputPath = getEnv("OUTPUT_PATH", cfg.OutputPath)
	cfg.OutputFormat = strings.ToLower(getEnv("OUTPUT_FORMAT", cfg.OutputFormat))
	cfg.ShowRows = getEnvInt("SHOW_ROWS", cfg.ShowRows)
	cfg.RunTimeoutSecs = getEnvInt("RUN_TIMEOUT_SECS", cfg.RunTimeoutSecs)
	cfg.AWSRegion = getEnv("AWS_REGION", cfg.AWSRegion)
	cfg.S3Endpoint = getEnv("S3_ENDPOINT", cfg.S3Endpoint)
	cfg.S3ForcePathStyle = getEnvBool("S3_FORCE_PATH_STYLE", cfg.S3ForcePathStyle)

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.AuthToken = getEnv("AUTH_TOKEN", cfg.AuthToken)
	cfg.ReadTimeoutSecs = getEnvInt("SERVER_READ_TIMEOUT", cfg.ReadTimeoutSecs)
	cfg.WriteTimeoutSecs = getEnvInt("SERVER_WRITE_TIMEOUT", cfg.WriteTimeoutSecs)
	cfg.IdleTimeoutSecs = getEnvInt("SERVER_IDLE_TIMEOUT", cfg.IdleTimeoutSecs)

	cfg.DBMaxConns = getEnvInt("DB_MAX_CONNS", cfg.DBMaxConns)
	cfg.DBMinConns = getEnvInt("DB_MIN_CONNS", cfg.DBMinConns)
	cfg.DBMaxIdleSecs = getEnvInt("DB_MAX_CONN_IDLE_SECS", cfg.DBMaxIdleSecs)
	cfg.DBMaxLifeSecs = getEnvInt("DB_MAX_CONN_LIFETIME_SECS", cfg.DBMaxLifeSecs)
	cfg.DBConnTimeoutSecs = getEnvInt("DB_CONN_TIMEOUT_SECS", cfg.DBConnTimeoutSecs)
	cfg.DBStatementCache = getEnvInt("DB_STATEMENT_CACHE_CAPACITY", cfg.DBStatementCache)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	cfg.CatalogDriver, _ = catalog.CanonicalDriver(cfg.CatalogDriver)
	return cfg, nil
}

func (c Config) validate() error {
	if _, ok := catalog.CanonicalDriver(c.CatalogDriver); !ok {
		return fmt.Errorf("CATALOG_DRIVER must be one of postgres, mysql, mongo")
	}
	if c.CatalogDSN == "" {
		return fmt.Errorf("CATALOG_DSN is required")
	}
	if strings.TrimSpace(c.CatalogDatabase) == "" {
		return fmt.Errorf("CATALOG_DATABASE is required")
	}
	if strings.TrimSpace(c.CatalogTable) == "" {
		return fmt.Errorf("CATALOG_TABLE is required")
	}
	if strings.TrimSpace(c.OutputPath) == "" {
		return fmt.Errorf("OUTPUT_PATH is required")
	}
	if c.OutputFormat != "csv" && c.OutputFormat != "parquet" {
		return fmt.Errorf("OUTPUT_FORMAT must be csv or parquet")
	}
	if c.ShowRows < 0 {
		return fmt.Errorf("SHOW_ROWS must be non-negative")
	}
	if c.RunTimeoutSecs <= 0 {
		return fmt.Errorf("RUN_TIMEOUT_SECS must be positive")
	}
	if c.DBMaxConns <= 0 {
		return fmt.Errorf("DB_MAX_CONNS must be positive")
	}
	if c.DBMinConns < 0 {
		return fmt.Errorf("DB_MIN_CONNS must be non-negative")
	}
	if c.DBMaxConns > 0 && c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS cannot exceed DB_MAX_CONNS")
	}
	if c.DBStatementCache < 0 {
		return fmt.Errorf("DB_STATEMENT_CACHE_CAPACITY must be non-negative")
	}
	return nil
}

// ValidateServer checks the settings only the runs API needs.
func (c Config) ValidateServer() error {
	if c.AuthToken == "" {
		return fmt.Errorf("AUTH_TOKEN is required")
	}
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}
