package config

import "time"

const (
	// DefaultCountryConfigURL is the in-cluster address of the country configuration service.
	DefaultCountryConfigURL = "http://localhost:3040"
	// DefaultOverrideCollection stores the single application config override document.
	DefaultOverrideCollection = "applicationconfigs"
)

// Config is the root configuration of the application config service.
type Config struct {
	Service       ServiceConfig       `mapstructure:"service"`
	HTTP          HTTPConfig          `mapstructure:"http"`
	Management    ManagementConfig    `mapstructure:"management"`
	Auth          AuthConfig          `mapstructure:"auth"`
	CountryConfig CountryConfigConfig `mapstructure:"country_config"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// ServiceConfig configures service identity metadata.
type ServiceConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// HTTPConfig configures the public API server
type HTTPConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	MaxRequestSize int64         `mapstructure:"max_request_size"`
}

// ManagementConfig configures the management server (health, metrics).
type ManagementConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// AuthConfig configures bearer token verification.
// Keys come either from a PEM encoded RSA public key or from a JWKS endpoint.
type AuthConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	PublicKeyFile string        `mapstructure:"public_key_file"`
	JWKSUrl       string        `mapstructure:"jwks_url"`
	JWKSCacheTTL  time.Duration `mapstructure:"jwks_cache_ttl"`
	Issuer        string        `mapstructure:"issuer"`
	Audience      string        `mapstructure:"audience"`
}

// CountryConfigConfig points at the external country configuration provider.
type CountryConfigConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// DatabaseConfig configures the MongoDB override store.
type DatabaseConfig struct {
	URL              string        `mapstructure:"url"`
	DatabaseName     string        `mapstructure:"database_name"`
	Collection       string        `mapstructure:"collection"`
	ConnectTimeout   time.Duration `mapstructure:"connect_timeout"`
	OperationTimeout time.Duration `mapstructure:"operation_timeout"`
}

// ObservabilityConfig configures logging and tracing.
type ObservabilityConfig struct {
	LogLevel          string  `mapstructure:"log_level"`
	LogFormat         string  `mapstructure:"log_format"`
	TracingEnabled    bool    `mapstructure:"tracing_enabled"`
	TracingEndpoint   string  `mapstructure:"tracing_endpoint"`
	TracingSampleRate float64 `mapstructure:"tracing_sample_rate"`
}

// DefaultConfig returns the configuration used when nothing else is provided.
func DefaultConfig() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:        "config",
			Environment: "production",
		},
		HTTP: HTTPConfig{
			Port:           2021,
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   30 * time.Second,
			IdleTimeout:    120 * time.Second,
			MaxRequestSize: 1 << 20,
		},
		Management: ManagementConfig{
			Enabled:      true,
			Port:         9090,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Auth: AuthConfig{
			Enabled:      false,
			JWKSCacheTTL: time.Hour,
			Issuer:       "opencrvs:auth-service",
			Audience:     "opencrvs:config-user",
		},
		CountryConfig: CountryConfigConfig{
			URL:     DefaultCountryConfigURL,
			Timeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			URL:              "mongodb://localhost:27017",
			DatabaseName:     "application-config",
			Collection:       DefaultOverrideCollection,
			ConnectTimeout:   5 * time.Second,
			OperationTimeout: 5 * time.Second,
		},
		Observability: ObservabilityConfig{
			LogLevel:          "info",
			LogFormat:         "json",
			TracingSampleRate: 0.1,
		},
	}
}
