package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const devSessionSecret = "dev-secret-change-in-production-use-openssl-rand-hex-32"

// ErrSessionSecretRequired is returned in production when SESSION_SECRET is
// unset or still the development default. The secret signs session cookies
// and bearer tokens.
var ErrSessionSecretRequired = errors.New("SESSION_SECRET must be set in production")

// Config holds application configuration loaded from environment variables
type Config struct {
	Env           string `env:"ENV" envDefault:"development"`
	Port          string `env:"PORT" envDefault:"8080"`
	PublicBaseURL string `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8080"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat     string `env:"LOG_FORMAT" envDefault:"text"`

	SessionSecret string `env:"SESSION_SECRET"`
	EncryptionKey string `env:"ENCRYPTION_KEY"`

	// DatabaseURL selects the store: postgres:// or mongodb://. Empty keeps
	// everything in memory.
	DatabaseURL   string `env:"DATABASE_URL"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"cipherchat"`
	RedisURL      string `env:"REDIS_URL"`

	Verification Verification
	Mail         Mail
	Suggest      Suggest
	Google       Google `envPrefix:"GOOGLE_"`
}

// Verification controls the sign-up code lifecycle.
type Verification struct {
	CodeTTL             time.Duration `env:"VERIFY_CODE_TTL" envDefault:"1h"`
	UnverifiedRetention time.Duration `env:"UNVERIFIED_RETENTION" envDefault:"24h"`
	PurgeSchedule       string        `env:"PURGE_SCHEDULE" envDefault:"@every 1h"`
}

// Mail holds the SMTP transport credentials.
type Mail struct {
	Host     string `env:"SMTP_HOST" envDefault:"smtp.gmail.com"`
	Port     int    `env:"SMTP_PORT" envDefault:"587"`
	Username string `env:"EMAIL_USER"`
	Password string `env:"EMAIL_PASS"`
	From     string `env:"EMAIL_FROM"`
}

// Suggest configures the generative text service.
type Suggest struct {
	APIKey     string        `env:"GEMINI_API_KEY"`
	BaseURL    string        `env:"GEMINI_BASE_URL" envDefault:"https://generativelanguage.googleapis.com/v1beta"`
	Model      string        `env:"GEMINI_MODEL" envDefault:"gemini-1.5-flash"`
	PromptFile string        `env:"SUGGEST_PROMPT_FILE"`
	StubMode   bool          `env:"SUGGEST_STUB" envDefault:"false"`
	Timeout    time.Duration `env:"SUGGEST_TIMEOUT" envDefault:"30s"`
}

// Google holds OAuth client credentials. Empty ClientID disables Google sign-in.
type Google struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	CallbackURL  string `env:"CALLBACK_URL" envDefault:"http://localhost:8080/api/auth/google/callback"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.IsProduction() && (cfg.SessionSecret == "" || cfg.SessionSecret == devSessionSecret) {
		return nil, ErrSessionSecretRequired
	}

	// Warn if using default session secret (insecure for production)
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = devSessionSecret
		slog.Warn("Using default SESSION_SECRET. Generate a secure secret with: openssl rand -hex 32")
	}

	if cfg.Mail.From == "" {
		cfg.Mail.From = cfg.Mail.Username
	}

	if cfg.Suggest.APIKey == "" && !cfg.Suggest.StubMode {
		slog.Warn("GEMINI_API_KEY not set, message suggestions run in stub mode")
		cfg.Suggest.StubMode = true
	}

	return cfg, nil
}

// IsProduction reports whether secure cookie settings should apply.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// RequireSharedStore fails when DatabaseURL selects the in-memory backend,
// which is private to one process. Commands whose effects must be visible
// to the server call it before opening the store.
func (c *Config) RequireSharedStore(command string) error {
	if c.StoreKind() == "memory" {
		return fmt.Errorf("%s requires DATABASE_URL: the in-memory store is not shared between processes", command)
	}
	return nil
}

// StoreKind reports which backend DatabaseURL points at: "postgres", "mongo" or "memory".
func (c *Config) StoreKind() string {
	switch {
	case strings.HasPrefix(c.DatabaseURL, "postgres://"), strings.HasPrefix(c.DatabaseURL, "postgresql://"):
		return "postgres"
	case strings.HasPrefix(c.DatabaseURL, "mongodb://"), strings.HasPrefix(c.DatabaseURL, "mongodb+srv://"):
		return "mongo"
	case c.DatabaseURL == "":
		return "memory"
	default:
		return "unknown"
	}
}

// MailEnabled reports whether SMTP credentials are present.
func (c *Config) MailEnabled() bool {
	return c.Mail.Username != "" && c.Mail.Password != ""
}
