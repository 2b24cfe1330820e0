package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileConfig is the YAML layout accepted through CONFIG_FILE. Zero values
// leave the corresponding setting untouched.
type fileConfig struct {
	Catalog struct {
		Driver   string `yaml:"driver"`
		DSN      string `yaml:"dsn"`
		Database string `yaml:"database"`
		Table    string `yaml:"table"`
	} `yaml:"catalog"`
	Output struct {
		Path     string `yaml:"path"`
		Format   string `yaml:"format"`
		ShowRows *int   `yaml:"show_rows"`
	} `yaml:"output"`
	AWS struct {
		Region           string `yaml:"region"`
		S3Endpoint       string `yaml:"s3_endpoint"`
		S3ForcePathStyle *bool  `yaml:"s3_force_path_style"`
	} `yaml:"aws"`
	Server struct {
		Port             string `yaml:"port"`
		AuthToken        string `yaml:"auth_token"`
		ReadTimeoutSecs  int    `yaml:"read_timeout_secs"`
		WriteTimeoutSecs int    `yaml:"write_timeout_secs"`
		IdleTimeoutSecs  int    `yaml:"idle_timeout_secs"`
	} `yaml:"server"`
	DB struct {
		MaxConns        int  `yaml:"max_conns"`
		MinConns        *int `yaml:"min_conns"`
		MaxConnIdleSecs int  `yaml:"max_conn_idle_secs"`
		MaxConnLifeSecs int  `yaml:"max_conn_lifetime_secs"`
		ConnTimeoutSecs int  `yaml:"conn_timeout_secs"`
		StatementCache  *int `yaml:"statement_cache_capacity"`
	} `yaml:"db"`
	RunTimeoutSecs int `yaml:"run_timeout_secs"`
}

func applyFile(path string, cfg *Config) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(payload, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&cfg.CatalogDriver, fc.Catalog.Driver)
	setString(&cfg.CatalogDSN, fc.Catalog.DSN)
	setString(&cfg.CatalogDatabase, fc.Catalog.Database)
	setString(&cfg.CatalogTable, fc.Catalog.Table)
	setString(&cfg.OutputPath, fc.Output.Path)
	setString(&cfg.OutputFormat, fc.Output.Format)
	if fc.Output.ShowRows != nil {
		cfg.ShowRows = *fc.Output.ShowRows
	}
	setString(&cfg.AWSRegion, fc.AWS.Region)
	setString(&cfg.S3Endpoint, fc.AWS.S3Endpoint)
	if fc.AWS.S3ForcePathStyle != nil {
		cfg.S3ForcePathStyle = *fc.AWS.S3ForcePathStyle
	}

	setString(&cfg.Port, fc.Server.Port)
	setString(&cfg.AuthToken, fc.Server.AuthToken)
	setInt(&cfg.ReadTimeoutSecs, fc.Server.ReadTimeoutSecs)
	setInt(&cfg.WriteTimeoutSecs, fc.Server.WriteTimeoutSecs)
	setInt(&cfg.IdleTimeoutSecs, fc.Server.IdleTimeoutSecs)

	setInt(&cfg.DBMaxConns, fc.DB.MaxConns)
	if fc.DB.MinConns != nil {
		cfg.DBMinConns = *fc.DB.MinConns
	}
	setInt(&cfg.DBMaxIdleSecs, fc.DB.MaxConnIdleSecs)
	setInt(&cfg.DBMaxLifeSecs, fc.DB.MaxConnLifeSecs)
	setInt(&cfg.DBConnTimeoutSecs, fc.DB.ConnTimeoutSecs)
	if fc.DB.StatementCache != nil {
		cfg.DBStatementCache = *fc.DB.StatementCache
	}
	setInt(&cfg.RunTimeoutSecs, fc.RunTimeoutSecs)
	return nil
}

func setString(dst *string, val string) {
	if val != "" {
		*dst = val
	}
}

func setInt(dst *int, val int) {
	if val != 0 {
		*dst = val
	}
}
