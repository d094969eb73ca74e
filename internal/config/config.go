package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string `env:"APP_ENV" env-default:"development"`
	LogLevel       string `env:"LOG_LEVEL" env-default:"info"`
	Port           string `env:"PORT" env-default:"8080"`
	AllowedOrigins string `env:"ALLOWED_ORIGINS" env-default:"http://localhost:3000"`

	Database Database
	RedisURL string `env:"REDIS_URL"`

	MeiliSearchHost string `env:"MEILISEARCH_HOST"`
	MeiliMasterKey  string `env:"MEILI_MASTER_KEY"`

	JWTSecret     string        `env:"JWT_SECRET" env-default:"change-me"`
	JWTTTL        time.Duration `env:"JWT_TTL" env-default:"1h"`
	LoginCooldown time.Duration `env:"LOGIN_COOLDOWN" env-default:"2s"`
	SeedDemoUser  bool          `env:"SEED_DEMO_USER" env-default:"false"`

	Web Web
}

type Database struct {
	Driver     string `env:"DB_DRIVER" env-default:"postgres"`
	URL        string `env:"DATABASE_URL"`
	Host       string `env:"DB_HOST" env-default:"localhost"`
	User       string `env:"DB_USER" env-default:"postgres"`
	Password   string `env:"DB_PASS"`
	Name       string `env:"DB_NAME" env-default:"student_roster"`
	Port       string `env:"DB_PORT" env-default:"5432"`
	SQLitePath string `env:"SQLITE_PATH" env-default:"roster.db"`
}

// Web holds the settings of the roster web application (cmd/web).
type Web struct {
	Port          string        `env:"WEB_PORT" env-default:"3000"`
	APIBaseURL    string        `env:"API_BASE_URL" env-default:"http://localhost:8080/api"`
	APITimeout    time.Duration `env:"API_TIMEOUT" env-default:"10s"`
	SessionCookie string        `env:"SESSION_COOKIE" env-default:"roster_session"`
	CookieSecure  bool          `env:"COOKIE_SECURE" env-default:"false"`
}

func Load() (*Config, error) {
	// Don't fail if .env doesn't exist (might be prod env vars)
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	switch cfg.Database.Driver {
	case "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("invalid DB_DRIVER %q: want postgres or sqlite", cfg.Database.Driver)
	}

	if cfg.IsProduction() && cfg.JWTSecret == "change-me" {
		return nil, fmt.Errorf("JWT_SECRET must be set in production")
	}

	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Origins splits ALLOWED_ORIGINS on commas.
func (c *Config) Origins() []string {
	var origins []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// PostgresDSN builds the DSN from DATABASE_URL or the individual DB_* keys.
func (d Database) PostgresDSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		d.Host, d.User, d.Password, d.Name, d.Port,
	)
}
