package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable read by Load, e.g. NORMALIZER_POSTGRES_HOST.
const EnvPrefix = "NORMALIZER"

// Config holds the configuration settings for the address normalizer job.
//
// Fields:
// - Env: The current environment (local, development, production).
// - Workers: The number of records normalized concurrently.
// - Limit: The maximum number of records fetched per run, zero means all.
// - Reprocess: Whether already normalized records are fetched again.
// - DryRun: Whether results are only logged instead of written.
// - Provider: Geocoding provider settings.
// - Database: Configuration settings for the PostgreSQL database.
// - Metrics: Pushgateway settings for the run metrics.
type Config struct {
	Env       string         `mapstructure:"env"       yaml:"env"`
	Workers   int            `mapstructure:"workers"   yaml:"workers"`
	Limit     int            `mapstructure:"limit"     yaml:"limit"`
	Reprocess bool           `mapstructure:"reprocess" yaml:"reprocess"`
	DryRun    bool           `mapstructure:"dry_run"   yaml:"dry_run"`
	Provider  ProviderConfig `mapstructure:"provider"  yaml:"provider"`
	Database  PostgresConfig `mapstructure:"postgres"  yaml:"postgres"`
	Metrics   MetricsConfig  `mapstructure:"metrics"   yaml:"metrics"`
}

// ProviderConfig selects and tunes the geocoding provider.
type ProviderConfig struct {
	Type      string        `mapstructure:"type"       yaml:"type"`       // Type is one of georef, nominatim, google.
	BaseURL   string        `mapstructure:"base_url"   yaml:"base_url"`   // BaseURL overrides the provider endpoint.
	APIKey    string        `mapstructure:"api_key"    yaml:"api_key"`    // APIKey is required by Google only.
	RateLimit int           `mapstructure:"rate_limit" yaml:"rate_limit"` // RateLimit in requests per second, zero uses the provider default.
	Timeout   time.Duration `mapstructure:"timeout"    yaml:"timeout"`    // Timeout bounds a single request.
	Country   string        `mapstructure:"country"    yaml:"country"`    // Country restricts results, ISO 3166-1 alpha-2.
}

// PostgresConfig struct holds the configuration details for connecting to a PostgreSQL database.
type PostgresConfig struct {
	Host     string `mapstructure:"host"     yaml:"host"`     // Host is the database server address.
	Port     string `mapstructure:"port"     yaml:"port"`     // Port is the database server port.
	User     string `mapstructure:"user"     yaml:"user"`     // User is the database user.
	Password string `mapstructure:"password" yaml:"password"` // Password is the database user's password.
	Name     string `mapstructure:"db_name"  yaml:"db_name"`  // Name is the name of the database.
	SSLMode  string `mapstructure:"sslmode"  yaml:"sslmode"`  // SSLMode is passed to libpq as sslmode.
	Table    string `mapstructure:"table"    yaml:"table"`    // Table holds the address records.
}

// MetricsConfig controls where run metrics are pushed.
type MetricsConfig struct {
	PushgatewayURL string `mapstructure:"pushgateway_url" yaml:"pushgateway_url"`
	Job            string `mapstructure:"job"             yaml:"job"`
}

// DSN builds a postgres connection URL.
func (p PostgresConfig) DSN() string {
	dsn := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(p.User, p.Password),
		Host:     net.JoinHostPort(p.Host, p.Port),
		Path:     "/" + p.Name,
		RawQuery: url.Values{"sslmode": []string{p.SSLMode}}.Encode(),
	}

	return dsn.String()
}

// flagKeys maps command line flags to configuration keys.
var flagKeys = map[string]string{
	"workers":   "workers",
	"limit":     "limit",
	"reprocess": "reprocess",
	"dry-run":   "dry_run",
	"provider":  "provider.type",
}

// Load reads the configuration from defaults, the optional YAML file at path,
// the environment and the given flags, in increasing order of precedence.
// An empty path looks for config.yaml in the working directory.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if flags != nil {
		for name, key := range flagKeys {
			flag := flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Workers < 1:
		return fmt.Errorf("invalid workers %d: must be at least 1", c.Workers)
	case c.Limit < 0:
		return fmt.Errorf("invalid limit %d: must not be negative", c.Limit)
	case c.Provider.RateLimit < 0:
		return fmt.Errorf("invalid provider rate limit %d: must not be negative", c.Provider.RateLimit)
	case c.Database.Host == "":
		return errors.New("postgres host is required")
	case c.Database.Name == "":
		return errors.New("postgres database name is required")
	}

	switch c.Provider.Type {
	case "georef", "nominatim", "google":
	default:
		return fmt.Errorf("unsupported provider type: %s", c.Provider.Type)
	}

	return nil
}

// setDefaults registers every key so that AutomaticEnv can resolve it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("workers", 1)
	v.SetDefault("limit", 0)
	v.SetDefault("reprocess", false)
	v.SetDefault("dry_run", false)

	v.SetDefault("provider.type", "georef")
	v.SetDefault("provider.base_url", "")
	v.SetDefault("provider.api_key", "")
	v.SetDefault("provider.rate_limit", 0)
	v.SetDefault("provider.timeout", 10*time.Second)
	v.SetDefault("provider.country", "AR")

	v.SetDefault("postgres.host", "")
	v.SetDefault("postgres.port", "5432")
	v.SetDefault("postgres.user", "")
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.db_name", "")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.table", "address_records")

	v.SetDefault("metrics.pushgateway_url", "")
	v.SetDefault("metrics.job", "address_normalizer")
}
