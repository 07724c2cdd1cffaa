package config

import (
	"strings"
	"time"
)

// BackendConfig contains settings for the backend service client.
type BackendConfig struct {
	URL     string        `env:"URL"     envDefault:"http://localhost:4000/api"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"10s"`

	// RoleClaimPath is a JMESPath expression locating the role in a user record.
	RoleClaimPath string `env:"ROLE_CLAIM_PATH" envDefault:"role"`

	// Circuit breaker thresholds.
	BreakerMaxRequests  uint32        `env:"BREAKER_MAX_REQUESTS"  envDefault:"3"`
	BreakerInterval     time.Duration `env:"BREAKER_INTERVAL"      envDefault:"1m"`
	BreakerTimeout      time.Duration `env:"BREAKER_TIMEOUT"       envDefault:"30s"`
	BreakerMinRequests  uint32        `env:"BREAKER_MIN_REQUESTS"  envDefault:"10"`
	BreakerFailureRatio float64       `env:"BREAKER_FAILURE_RATIO" envDefault:"0.6"`
}

// Sanitize applies guardrails to backend configuration values.
func (b *BackendConfig) Sanitize() {
	b.URL = strings.TrimRight(strings.TrimSpace(b.URL), "/")
	if b.Timeout <= 0 {
		b.Timeout = 10 * time.Second
	}
	if b.RoleClaimPath = strings.TrimSpace(b.RoleClaimPath); b.RoleClaimPath == "" {
		b.RoleClaimPath = "role"
	}
	if b.BreakerFailureRatio <= 0 || b.BreakerFailureRatio > 1 {
		b.BreakerFailureRatio = 0.6
	}
	if b.BreakerMinRequests < 1 {
		b.BreakerMinRequests = 1
	}
	if b.BreakerMaxRequests < 1 {
		b.BreakerMaxRequests = 1
	}
}
