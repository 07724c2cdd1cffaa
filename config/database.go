package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DBConfig contains PostgreSQL configuration. Postgres is only used when carts
// are stored there.
type DBConfig struct {
	Host     string `env:"HOST"     envDefault:"localhost"`
	Port     int    `env:"PORT"     envDefault:"5432"`
	User     string `env:"USER"     envDefault:"coffeehouse"`
	Password string `env:"PASSWORD" envDefault:"coffeehouse"`
	Name     string `env:"NAME"     envDefault:"coffeehouse"`
	SSLMode  string `env:"SSL_MODE" envDefault:"disable"` // Use 'disable' for local dev, 'require' for production
	// RunMigrationsOnStart controls whether the application automatically applies migrations during startup.
	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`

	// Pool sizing.
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS"    envDefault:"10"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS"    envDefault:"2"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"30m"`
	ConnectTimeout  time.Duration `env:"CONNECT_TIMEOUT"   envDefault:"5s"`
}

// URL returns the pgx connection URL. Credentials are escaped.
func (d DBConfig) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:     "/" + d.Name,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}

// Sanitize applies guardrails to pool settings.
func (d *DBConfig) Sanitize() {
	if d.MaxOpenConns <= 0 {
		d.MaxOpenConns = 10
	}
	if d.MaxIdleConns < 0 {
		d.MaxIdleConns = 0
	}
	if d.MaxIdleConns > d.MaxOpenConns {
		d.MaxIdleConns = d.MaxOpenConns
	}
	if d.ConnMaxLifetime <= 0 {
		d.ConnMaxLifetime = 30 * time.Minute
	}
	if d.ConnectTimeout <= 0 {
		d.ConnectTimeout = 5 * time.Second
	}
}

// RedisConfig contains Redis configuration.
type RedisConfig struct {
	URI                string   `env:"URI"                  envDefault:"localhost:6379"`
	Password           string   `env:"PASSWORD"             envDefault:""`
	SentinelNodes      []string `env:"SENTINEL_NODES"       envDefault:"localhost:26379"`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"    envDefault:""`
	UseSentinel        bool     `env:"USE_SENTINEL"         envDefault:"false"`
	ClusterNodes       []string `env:"CLUSTER_NODES"        envDefault:""`
	UseCluster         bool     `env:"USE_CLUSTER"          envDefault:"false"`
}

// CacheConfig contains catalog cache configuration (Redis-based).
type CacheConfig struct {
	// Enabled turns on catalog caching and the checkout duplicate-submit guard.
	Enabled bool `env:"CACHE_ENABLED" envDefault:"true"`

	// KeyPrefix namespaces cache keys in a shared Redis.
	KeyPrefix string `env:"CACHE_KEY_PREFIX" envDefault:"coffeehouse:"`

	// CatalogTTL is how long product reads are cached.
	CatalogTTL time.Duration `env:"CACHE_CATALOG_TTL" envDefault:"30s"`
}

// Sanitize applies guardrails to cache configuration values.
func (c *CacheConfig) Sanitize() {
	if c.CatalogTTL <= 0 {
		c.CatalogTTL = 30 * time.Second
	}
}

// CartStoreKind selects the cart persistence backend.
type CartStoreKind string

const (
	CartStoreRedis    CartStoreKind = "redis"
	CartStorePostgres CartStoreKind = "postgres"
	CartStoreMemory   CartStoreKind = "memory"
)

// UnmarshalText implements encoding.TextUnmarshaler for CartStoreKind.
func (k *CartStoreKind) UnmarshalText(text []byte) error {
	v := CartStoreKind(strings.ToLower(strings.TrimSpace(string(text))))
	switch v {
	case CartStoreRedis, CartStorePostgres, CartStoreMemory:
		*k = v
		return nil
	default:
		return fmt.Errorf("invalid CART_STORE: %q (valid options: redis, postgres, memory)", string(text))
	}
}

// CartConfig controls cart persistence.
type CartConfig struct {
	Store CartStoreKind `env:"CART_STORE" envDefault:"redis"`
	// TTL is how long an untouched cart is kept.
	TTL time.Duration `env:"CART_TTL" envDefault:"168h"`
}

// Sanitize applies guardrails to cart configuration values.
func (c *CartConfig) Sanitize() {
	if c.Store == "" {
		c.Store = CartStoreRedis
	}
	if c.TTL < time.Hour {
		c.TTL = time.Hour
	}
}

// NeedsPostgres reports whether the configured cart store lives in Postgres.
func (c *CartConfig) NeedsPostgres() bool { return c.Store == CartStorePostgres }
