package main

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is loaded from the environment, with .env as a convenience
// layer for local development.
type Config struct {
	AppName string `env:"APP_NAME" envDefault:"accounts"`
	Address string `env:"HTTP_ADDR" envDefault:":8080"`
	Debug   bool   `env:"DEBUG" envDefault:"false"`

	SigningKey      string   `env:"JWT_SIGNING_KEY,required"`
	SigningMethod   string   `env:"JWT_SIGNING_METHOD" envDefault:"HS256"`
	ContextKey      string   `env:"JWT_CONTEXT_KEY" envDefault:"user"`
	TokenExpiration int      `env:"JWT_TOKEN_EXPIRATION_HOURS" envDefault:"72"`
	TokenLookup     string   `env:"JWT_TOKEN_LOOKUP" envDefault:"header:Authorization"`
	AuthScheme      string   `env:"JWT_AUTH_SCHEME" envDefault:"Bearer"`
	Issuer          string   `env:"JWT_ISSUER" envDefault:"accounts"`
	Audience        []string `env:"JWT_AUDIENCE" envDefault:"accounts"`

	Persistence Persistence `envPrefix:"DB_"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleCallbackURL  string `env:"GOOGLE_CALLBACK_URL"`

	StateSecret string `env:"OAUTH_STATE_SECRET"`

	MailBaseURL string `env:"MAIL_BASE_URL" envDefault:"http://localhost:8080"`
}

// Persistence configures the database layer.
type Persistence struct {
	DSN         string        `env:"DSN" envDefault:"file:accounts.db?cache=shared&_pragma=foreign_keys(1)"`
	Debug       bool          `env:"DEBUG" envDefault:"false"`
	PingTimeout time.Duration `env:"PING_TIMEOUT" envDefault:"5s"`
}

func (p Persistence) GetDSN() string { return p.DSN }

func (p Persistence) GetDebug() bool { return p.Debug }

func (p Persistence) GetPingTimeout() time.Duration { return p.PingTimeout }

// The remaining persistence.Config methods are interface fill-ins: the
// *sql.DB is opened from the DSN and injected, so the client never
// consults them (an empty otel identifier disables the otel hook).

func (p Persistence) GetDriver() string { return "" }

func (p Persistence) GetServer() string { return "" }

func (p Persistence) GetOtelIdentifier() string { return "" }

// accounts.Config implementation

func (c *Config) GetSigningKey() string { return c.SigningKey }

func (c *Config) GetSigningMethod() string { return c.SigningMethod }

func (c *Config) GetContextKey() string { return c.ContextKey }

func (c *Config) GetTokenExpiration() int { return c.TokenExpiration }

func (c *Config) GetTokenLookup() string { return c.TokenLookup }

func (c *Config) GetAuthScheme() string { return c.AuthScheme }

func (c *Config) GetIssuer() string { return c.Issuer }

func (c *Config) GetAudience() []string { return c.Audience }

// LoadConfig reads .env when present, then the process environment.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
