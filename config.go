package adminauth

import (
	"os"
	"strconv"
	"strings"
)

const (
	envSigningKey      = "ADMIN_AUTH_SIGNING_KEY"
	envTokenExpiration = "ADMIN_AUTH_TOKEN_EXPIRATION"
	envIssuer          = "ADMIN_AUTH_ISSUER"
	envAudience        = "ADMIN_AUTH_AUDIENCE"

	defaultTokenExpiration = 24
	defaultIssuer          = "go-admin-auth"
	defaultContextKey      = "principal"
	defaultTokenLookup     = "header:Authorization"
	defaultAuthScheme      = "Bearer"

	// insecureDevKey only ever materializes behind WithInsecureDevKey; the
	// loader refuses to default to it silently.
	insecureDevKey = "dev-signing-key-do-not-deploy"
)

// BaseConfig is the Config implementation loaded from the environment.
type BaseConfig struct {
	SigningKey      string
	SigningMethod   string
	ContextKey      string
	TokenExpiration int
	TokenLookup     string
	AuthScheme      string
	Issuer          string
	Audience        []string
}

var _ Config = (*BaseConfig)(nil)

// ConfigOption customizes config loading.
type ConfigOption func(*BaseConfig)

// WithInsecureDevKey opts into the development signing key when none is
// configured. Never use it outside local development; the point of the loader
// failing loudly is that a silent weak default is how panels get owned.
func WithInsecureDevKey() ConfigOption {
	return func(c *BaseConfig) {
		if c.SigningKey == "" {
			c.SigningKey = insecureDevKey
		}
	}
}

// WithSigningKey overrides the signing key, e.g. from a secret manager.
func WithSigningKey(key string) ConfigOption {
	return func(c *BaseConfig) {
		c.SigningKey = key
	}
}

// LoadConfig reads ADMIN_AUTH_* environment variables. It returns
// ErrSigningKeyMissing rather than defaulting to a weak key; startup should
// fail loudly when the process has no trust anchor.
func LoadConfig(opts ...ConfigOption) (*BaseConfig, error) {
	cfg := &BaseConfig{
		SigningKey:      os.Getenv(envSigningKey),
		SigningMethod:   "HS256",
		ContextKey:      defaultContextKey,
		TokenExpiration: defaultTokenExpiration,
		TokenLookup:     defaultTokenLookup,
		AuthScheme:      defaultAuthScheme,
		Issuer:          defaultIssuer,
	}

	if raw := os.Getenv(envTokenExpiration); raw != "" {
		if hours, err := strconv.Atoi(raw); err == nil && hours > 0 {
			cfg.TokenExpiration = hours
		}
	}

	if issuer := os.Getenv(envIssuer); issuer != "" {
		cfg.Issuer = issuer
	}

	if raw := os.Getenv(envAudience); raw != "" {
		for _, aud := range strings.Split(raw, ",") {
			if aud = strings.TrimSpace(aud); aud != "" {
				cfg.Audience = append(cfg.Audience, aud)
			}
		}
	}

	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	if cfg.SigningKey == "" {
		return nil, ErrSigningKeyMissing
	}

	return cfg, nil
}

func (c *BaseConfig) GetSigningKey() string    { return c.SigningKey }
func (c *BaseConfig) GetSigningMethod() string { return c.SigningMethod }
func (c *BaseConfig) GetContextKey() string    { return c.ContextKey }
func (c *BaseConfig) GetTokenExpiration() int  { return c.TokenExpiration }
func (c *BaseConfig) GetTokenLookup() string   { return c.TokenLookup }
func (c *BaseConfig) GetAuthScheme() string    { return c.AuthScheme }
func (c *BaseConfig) GetIssuer() string        { return c.Issuer }
func (c *BaseConfig) GetAudience() []string    { return c.Audience }
