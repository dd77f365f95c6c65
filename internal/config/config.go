// Package config loads the runtime configuration and the reference tables the
// census engine is built from.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Records  RecordsConfig  `mapstructure:"records"`
	Invoices InvoicesConfig `mapstructure:"invoices"`
	Database DatabaseConfig `mapstructure:"database"`
	HTTP     HTTPConfig     `mapstructure:"http"`
}

// LogConfig selects the zap level and encoding.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// EngineConfig holds census engine settings.
type EngineConfig struct {
	TablesPath       string        `mapstructure:"tables_path"`
	UnresolvedPolicy string        `mapstructure:"unresolved_policy"`
	RetryAttempts    int           `mapstructure:"retry_attempts"`
	RetryBaseDelay   time.Duration `mapstructure:"retry_base_delay"`
	RetryMaxDelay    time.Duration `mapstructure:"retry_max_delay"`
	MaxQuantity      int           `mapstructure:"max_quantity"`
}

// RecordsConfig selects the record store: "csv" or "sql".
type RecordsConfig struct {
	Driver        string `mapstructure:"driver"`
	AnimalsPath   string `mapstructure:"animals_path"`
	MovementsPath string `mapstructure:"movements_path"`
}

// InvoicesConfig selects the invoice store: "dir", "sql" or "s3".
type InvoicesConfig struct {
	Driver string   `mapstructure:"driver"`
	Dir    string   `mapstructure:"dir"`
	S3     S3Config `mapstructure:"s3"`
}

// S3Config holds the invoice bucket settings.
type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Prefix    string `mapstructure:"prefix"`
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint"`
	PathStyle bool   `mapstructure:"path_style"`
}

// DatabaseConfig holds the SQL store settings.
type DatabaseConfig struct {
	Dialect string `mapstructure:"dialect"`
	DSN     string `mapstructure:"dsn"`
}

// HTTPConfig holds the report server settings.
type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// Load reads configuration from file and env. Env var overrides use prefix
// HERDCENSUS_, e.g. HERDCENSUS_ENGINE_UNRESOLVED_POLICY=global. An explicit
// path must exist; otherwise ./herd-census.yaml is read when present.
func Load(path string) (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("engine.tables_path", "")
	v.SetDefault("engine.unresolved_policy", "drop")
	v.SetDefault("engine.retry_attempts", 3)
	v.SetDefault("engine.retry_base_delay", 100*time.Millisecond)
	v.SetDefault("engine.retry_max_delay", 2*time.Second)
	v.SetDefault("engine.max_quantity", 10000)
	v.SetDefault("records.driver", "csv")
	v.SetDefault("records.animals_path", "animals.csv")
	v.SetDefault("records.movements_path", "")
	v.SetDefault("invoices.driver", "dir")
	v.SetDefault("invoices.dir", "invoices")
	v.SetDefault("invoices.s3.bucket", "")
	v.SetDefault("invoices.s3.prefix", "")
	v.SetDefault("invoices.s3.region", "us-east-1")
	v.SetDefault("invoices.s3.endpoint", "")
	v.SetDefault("invoices.s3.path_style", false)
	v.SetDefault("database.dialect", "sqlite")
	v.SetDefault("database.dsn", "herd-census.db")
	v.SetDefault("http.addr", ":8080")

	v.SetConfigType("yaml")

	if path == "" {
		path = os.Getenv("HERDCENSUS_CONFIG")
	}
	explicit := path != ""
	if explicit {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("herd-census")
	}

	v.SetEnvPrefix("HERDCENSUS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}
