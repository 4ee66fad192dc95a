package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the configuration settings for the postal code lookup job.
//
// Fields:
// - Env: The current environment (e.g., local, development, production).
// - Source: Where the postal codes to resolve are read from.
// - Provider: Which address provider resolves postal codes and how it is reached.
// - Dispatch: How the lookups are fanned out and bounded in time.
// - PushgatewayURL: Optional Prometheus Pushgateway that receives the run metrics.
// - Database: Configuration settings for the PostgreSQL source.
type Config struct {
	Env            string         `yaml:"env"`                 // Env is the current environment: local, development, production.
	Source         SourceConfig   `yaml:"source"`              // Source describes the dataset with postal codes.
	Provider       ProviderConfig `yaml:"provider"`            // Provider describes the remote address provider.
	Dispatch       DispatchConfig `yaml:"dispatch"`            // Dispatch holds the fan-out settings.
	PushgatewayURL string         `yaml:"metrics.pushgateway"` // PushgatewayURL enables pushing metrics when not empty.
	Database       PostgresConfig `yaml:"postgres"`            // Database holds the postgres database configuration.
}

// SourceConfig describes the dataset the postal codes are loaded from.
type SourceConfig struct {
	Type   string `yaml:"type"`   // Type is either "file" or "postgres".
	Path   string `yaml:"path"`   // Path is the CSV dataset location for the file source.
	Fields string `yaml:"fields"` // Fields lists the key, locality and region column indices.
	Limit  int    `yaml:"limit"`  // Limit caps the number of rows read by the postgres source.
}

// ProviderConfig describes the remote address provider.
type ProviderConfig struct {
	Type    string        `yaml:"type"`    // Type is one of postcode, google, nominatim.
	URL     string        `yaml:"url"`     // URL is the provider base URL, empty selects the provider default.
	APIKey  string        `yaml:"key"`     // APIKey is required by the google provider.
	Country string        `yaml:"country"` // Country restricts lookups to an ISO 3166-1 country code.
	Timeout time.Duration `yaml:"timeout"` // Timeout bounds connect, read and write of every request.
}

// DispatchConfig holds the fan-out settings.
type DispatchConfig struct {
	Deadline time.Duration `yaml:"deadline"` // Deadline bounds the whole dispatch.
	Workers  int           `yaml:"workers"`  // Workers is the concurrency limit, 0 selects a default.
	Mode     string        `yaml:"mode"`     // Mode is parallel or sequential.
	Order    string        `yaml:"order"`    // Order is desc or asc by postal code.
}

// PostgresConfig struct holds the configuration details for connecting to a PostgreSQL database.
type PostgresConfig struct {
	Host     string `yaml:"host"`                        // Host is the database server address.
	Port     string `yaml:"port"     env-default:"5432"` // Port is the database server port.
	User     string `yaml:"user"`                        // User is the database user.
	Password string `yaml:"password"`                    // Password is the database user's password.
	Name     string `yaml:"db_name"`                     // Name is the name of the database.
}

// settings maps every configuration key to its environment variable and default value.
var settings = []struct {
	key, env, fallback string
}{
	{"env", "HERMES_ENV", "production"},
	{"source.type", "HERMES_SOURCE_TYPE", "file"},
	{"source.path", "HERMES_DATASET", "postalcode_locality_de.csv"},
	{"source.fields", "HERMES_DATASET_FIELDS", "2,1,3"},
	{"source.limit", "HERMES_SOURCE_LIMIT", "10000"},
	{"provider.type", "HERMES_PROVIDER_TYPE", "postcode"},
	{"provider.url", "HERMES_PROVIDER_URL", ""},
	{"provider.key", "HERMES_PROVIDER_KEY", ""},
	{"provider.country", "HERMES_PROVIDER_COUNTRY", ""},
	{"provider.timeout", "HERMES_TIMEOUT", "5s"},
	{"dispatch.deadline", "HERMES_DEADLINE", "15s"},
	{"dispatch.workers", "HERMES_WORKERS", "0"},
	{"dispatch.mode", "HERMES_MODE", "parallel"},
	{"dispatch.order", "HERMES_ORDER", "desc"},
	{"metrics.pushgateway", "HERMES_PUSHGATEWAY_URL", ""},
	{"postgres.host", "DB_HOST", ""},
	{"postgres.port", "DB_PORT", "5432"},
	{"postgres.user", "DB_USERNAME", ""},
	{"postgres.password", "DB_PASSWORD", ""},
	{"postgres.db_name", "DB_NAME", ""},
}

// MustLoad loads the configuration from the environment, an optional .env file and
// an optional YAML file pointed to by HERMES_CONFIG_FILE. Environment variables win.
// It panics when a value cannot be parsed.
func MustLoad() *Config {
	_ = godotenv.Load()

	vip := viper.New()
	for _, s := range settings {
		vip.SetDefault(s.key, s.fallback)
		_ = vip.BindEnv(s.key, s.env)
	}

	if path, ok := os.LookupEnv("HERMES_CONFIG_FILE"); ok && path != "" {
		vip.SetConfigFile(path)
		if err := vip.ReadInConfig(); err != nil {
			panic("failed to read configuration file")
		}
	}

	timeout, err := time.ParseDuration(vip.GetString("provider.timeout"))
	if err != nil {
		panic("failed to parse provider timeout from configuration")
	}

	deadline, err := time.ParseDuration(vip.GetString("dispatch.deadline"))
	if err != nil {
		panic("failed to parse dispatch deadline from configuration")
	}

	workers, err := strconv.Atoi(vip.GetString("dispatch.workers"))
	if err != nil {
		panic("failed to parse workers from configuration, must be an integer types")
	}

	limit, err := strconv.Atoi(vip.GetString("source.limit"))
	if err != nil {
		panic("failed to parse source limit from configuration, must be an integer types")
	}

	return &Config{
		Env: vip.GetString("env"),
		Source: SourceConfig{
			Type:   vip.GetString("source.type"),
			Path:   vip.GetString("source.path"),
			Fields: vip.GetString("source.fields"),
			Limit:  limit,
		},
		Provider: ProviderConfig{
			Type:    vip.GetString("provider.type"),
			URL:     vip.GetString("provider.url"),
			APIKey:  vip.GetString("provider.key"),
			Country: vip.GetString("provider.country"),
			Timeout: timeout,
		},
		Dispatch: DispatchConfig{
			Deadline: deadline,
			Workers:  workers,
			Mode:     vip.GetString("dispatch.mode"),
			Order:    vip.GetString("dispatch.order"),
		},
		PushgatewayURL: vip.GetString("metrics.pushgateway"),
		Database: PostgresConfig{
			Host:     vip.GetString("postgres.host"),
			Port:     vip.GetString("postgres.port"),
			User:     vip.GetString("postgres.user"),
			Password: vip.GetString("postgres.password"),
			Name:     vip.GetString("postgres.db_name"),
		},
	}
}
