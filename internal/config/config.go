package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// insecureSecret is the placeholder shipped in old deployment templates.
const insecureSecret = "change_this_secret"

// Largest values whose time.Duration does not overflow.
const (
	maxExpirationHours   = math.MaxInt64 / int64(time.Hour)
	maxAnswerTimeoutSecs = math.MaxInt64 / int64(time.Second)
)

var ErrMissingSecret = errors.New("JWT_SECRET environment variable is required")

type Config struct {
	// Server
	Port            string
	Environment     string
	FrontendOrigins []string

	// Database
	DatabaseURL string

	// Auth
	JWTSecret          string
	JWTExpirationHours int
	BcryptCost         int
	AuthRatePerMinute  int

	// Orchestrator
	OrchestratorURL string
	DefaultModel    string
	AnswerTimeout   time.Duration

	// Logging
	LogLevel  string
	LogFormat string
}

// Load reads configuration from the environment. If CONFIG_FILE names a TOML
// file, its keys (environment variable names in lower case) provide values
// for anything the environment leaves unset.
func Load() (*Config, error) {
	src := source{file: map[string]string{}}
	if path, ok := os.LookupEnv("CONFIG_FILE"); ok && path != "" {
		file, err := readFile(path)
		if err != nil {
			return nil, err
		}
		src.file = file
	}

	cfg := &Config{
		Port:               src.get("PORT", "8080"),
		Environment:        src.get("ENVIRONMENT", "development"),
		FrontendOrigins:    splitList(src.get("FRONTEND_ORIGIN", "http://localhost:8080")),
		DatabaseURL:        src.get("DATABASE_URL", ""),
		JWTSecret:          src.get("JWT_SECRET", ""),
		JWTExpirationHours: src.getInt("JWT_EXPIRATION_HOURS", 24),
		BcryptCost:         src.getInt("BCRYPT_COST", 10),
		AuthRatePerMinute:  src.getInt("AUTH_RATE_PER_MINUTE", 30),
		OrchestratorURL:    src.get("ORCHESTRATOR_URL", ""),
		DefaultModel:       src.get("DEFAULT_MODEL", "gpt-4o-mini"),
		AnswerTimeout:      answerTimeout(src.getInt("ANSWER_TIMEOUT_SECONDS", 60)),
		LogLevel:           src.get("LOG_LEVEL", "info"),
		LogFormat:          src.get("LOG_FORMAT", "text"),
	}

	if cfg.DatabaseURL == "" {
		dir := src.get("DATABASE_DIR", "./data")
		cfg.DatabaseURL = "sqlite://" + filepath.Join(dir, "noit.db")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects configurations that must not reach production.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return ErrMissingSecret
	}
	if c.JWTSecret == insecureSecret {
		return fmt.Errorf("JWT_SECRET must not be the placeholder %q", insecureSecret)
	}
	if c.JWTExpirationHours <= 0 || int64(c.JWTExpirationHours) > maxExpirationHours {
		return fmt.Errorf("JWT_EXPIRATION_HOURS must be between 1 and %d, got %d", maxExpirationHours, c.JWTExpirationHours)
	}
	if c.AnswerTimeout <= 0 {
		return fmt.Errorf("ANSWER_TIMEOUT_SECONDS must be positive")
	}
	return nil
}

// answerTimeout converts seconds, mapping values that would overflow to zero
// so Validate rejects them.
func answerTimeout(seconds int) time.Duration {
	if int64(seconds) > maxAnswerTimeoutSecs {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.JWTExpirationHours) * time.Hour
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

type source struct {
	file map[string]string
}

func (s source) get(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	if value, ok := s.file[key]; ok {
		return value
	}
	return fallback
}

func (s source) getInt(key string, fallback int) int {
	if intVal, err := strconv.Atoi(s.get(key, "")); err == nil {
		return intVal
	}
	return fallback
}

func readFile(path string) (map[string]string, error) {
	var raw map[string]any
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	values := make(map[string]string, len(raw))
	for key, value := range raw {
		k := strings.ToUpper(key)
		switch v := value.(type) {
		case []any:
			parts := make([]string, 0, len(v))
			for _, item := range v {
				parts = append(parts, fmt.Sprint(item))
			}
			values[k] = strings.Join(parts, ",")
		default:
			values[k] = fmt.Sprint(v)
		}
	}
	return values, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
