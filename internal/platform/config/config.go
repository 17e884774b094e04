package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kelseyhightower/envconfig"
)

// envPrefix namespaces every variable, e.g. FRONTDESK_ADDR.
const envPrefix = "frontdesk"

// devSigningKey is only accepted in dev mode.
const devSigningKey = "dev-secret-key-change-in-production"

// Config is the process configuration, loaded from the environment. The
// sections share the single FRONTDESK_ prefix; Load processes them one by
// one so envconfig does not prepend the field name.
type Config struct {
	Env    string      `envconfig:"ENV" default:"dev"`
	Server Server      `ignored:"true"`
	Auth   Auth        `ignored:"true"`
	DB     Database    `ignored:"true"`
	Redis  RedisConfig `ignored:"true"`
	Claims Claims      `ignored:"true"`
	Log    Log         `ignored:"true"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr              string        `envconfig:"ADDR" default:":8080"`
	ReadHeaderTimeout time.Duration `envconfig:"READ_HEADER_TIMEOUT" default:"5s"`
	RequestTimeout    time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`
	ShutdownTimeout   time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// Auth configures operator token resolution.
type Auth struct {
	JWTSigningKey string `envconfig:"JWT_SIGNING_KEY" default:"dev-secret-key-change-in-production"`
	JWTIssuer     string `envconfig:"JWT_ISSUER" default:"frontdesk"`
	JWTAudience   string `envconfig:"JWT_AUDIENCE" default:"frontdesk-operators"`
}

// Database configures the Postgres connection. An empty URL selects the
// in-memory stores.
type Database struct {
	URL             string        `envconfig:"DATABASE_URL"`
	MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"30m"`
	ApplySchema     bool          `envconfig:"DB_APPLY_SCHEMA" default:"true"`
}

// RedisConfig configures the optional member lookup cache.
type RedisConfig struct {
	URL          string        `envconfig:"REDIS_URL"`
	PoolSize     int           `envconfig:"REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"REDIS_DIAL_TIMEOUT" default:"2s"`
	ReadTimeout  time.Duration `envconfig:"REDIS_READ_TIMEOUT" default:"500ms"`
	WriteTimeout time.Duration `envconfig:"REDIS_WRITE_TIMEOUT" default:"500ms"`
	LookupTTL    time.Duration `envconfig:"MEMBER_LOOKUP_TTL" default:"10m"`
}

// Claims configures the claim registry and its privileged operations.
type Claims struct {
	TxTimeout time.Duration `envconfig:"CLAIM_TX_TIMEOUT" default:"5s"`
	// AssemblySessionID is the container of every CHECK_IN claim.
	AssemblySessionID string `envconfig:"ASSEMBLY_SESSION_ID"`
	// BulkRevokeConfirmationCode must be echoed back to revoke all check-ins.
	BulkRevokeConfirmationCode string `envconfig:"BULK_REVOKE_CONFIRMATION_CODE"`
}

// Log configures the slog handler.
type Log struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Format string `envconfig:"LOG_FORMAT" default:"json"`
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	for _, section := range []any{&cfg, &cfg.Server, &cfg.Auth, &cfg.DB, &cfg.Redis, &cfg.Claims, &cfg.Log} {
		if err := envconfig.Process(envPrefix, section); err != nil {
			return nil, fmt.Errorf("process env: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsDev reports whether development defaults are acceptable.
func (c *Config) IsDev() bool {
	return c.Env == "dev"
}

// Validate rejects configurations that would be unsafe outside dev mode.
func (c *Config) Validate() error {
	var errs []error
	if c.Claims.AssemblySessionID != "" {
		if _, err := uuid.Parse(c.Claims.AssemblySessionID); err != nil {
			errs = append(errs, fmt.Errorf("ASSEMBLY_SESSION_ID: %w", err))
		}
	}
	if c.Claims.TxTimeout <= 0 {
		errs = append(errs, errors.New("CLAIM_TX_TIMEOUT must be positive"))
	}
	if !c.IsDev() {
		if c.Auth.JWTSigningKey == "" || c.Auth.JWTSigningKey == devSigningKey {
			errs = append(errs, errors.New("JWT_SIGNING_KEY must be set outside dev"))
		}
		if c.Claims.BulkRevokeConfirmationCode == "" {
			errs = append(errs, errors.New("BULK_REVOKE_CONFIRMATION_CODE must be set outside dev"))
		}
		if c.Claims.AssemblySessionID == "" {
			errs = append(errs, errors.New("ASSEMBLY_SESSION_ID must be set outside dev"))
		}
	}
	return errors.Join(errs...)
}
