package config // package config loads application configuration from environment variables

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// MinSecretLen is the shortest accepted session signing secret.
const MinSecretLen = 32

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The database has two access modes: the regular
// credentials serve page reads, the admin credentials (falling back to the
// regular ones) serve workflows that mutate state.
type Config struct {
	Env         string        // application environment (e.g. "dev", "production")
	Port        string        // HTTP port to listen on
	DBUser      string        // database username
	DBPass      string        // database password (optional)
	DBAdminUser string        // privileged database user (optional)
	DBAdminPass string        // privileged database password (optional)
	DBHost      string        // database host address
	DBPort      string        // database port number
	DBName      string        // database name
	JWTSecret   string        // secret used to sign session tokens
	SessionTTL  time.Duration // lifetime of a session cookie, renewed on every request
	BcryptCost  int           // bcrypt cost for password hashing
	OrderAtomic bool          // place orders inside a single transaction
	AMQPURL     string        // RabbitMQ url; empty disables order events
	LogLevel    string        // slog level name
}

// Production reports whether cookies must be marked Secure.
func (c Config) Production() bool {
	return strings.EqualFold(c.Env, "production") || strings.EqualFold(c.Env, "prod")
}

// AdminCredentials returns the privileged database credentials, falling
// back to the regular ones when none are configured.
func (c Config) AdminCredentials() (user, pass string) {
	if c.DBAdminUser == "" {
		return c.DBUser, c.DBPass
	}
	return c.DBAdminUser, c.DBAdminPass
}

// Load reads configuration values from the process environment.  A
// missing required variable, notably JWT_SECRET, is an error: the
// server must not start with a guessable signing key.
func Load() (Config, error) {
	return load(os.LookupEnv)
}

func load(lookup func(string) (string, bool)) (Config, error) {
	e := env{lookup: lookup}
	cfg := Config{
		Env:         e.str("APP_ENV", "dev"),
		Port:        e.str("APP_PORT", "8080"),
		DBUser:      e.must("DB_USER"),
		DBPass:      e.str("DB_PASS", ""),
		DBAdminUser: e.str("DB_ADMIN_USER", ""),
		DBAdminPass: e.str("DB_ADMIN_PASS", ""),
		DBHost:      e.str("DB_HOST", "127.0.0.1"),
		DBPort:      e.str("DB_PORT", "3306"),
		DBName:      e.must("DB_NAME"),
		JWTSecret:   e.must("JWT_SECRET"),
		SessionTTL:  e.durVal("SESSION_TTL", 2*time.Hour),
		BcryptCost:  e.intVal("BCRYPT_COST", 10),
		OrderAtomic: e.boolVal("ORDER_ATOMIC", true),
		AMQPURL:     e.str("RABBITMQ_URL", e.str("AMQP_URL", "")),
		LogLevel:    e.str("LOG_LEVEL", "info"),
	}
	if e.err != nil {
		return Config{}, e.err
	}
	if len(cfg.JWTSecret) < MinSecretLen {
		return Config{}, fmt.Errorf("JWT_SECRET must be at least %d bytes", MinSecretLen)
	}
	if cfg.SessionTTL <= 0 {
		return Config{}, fmt.Errorf("invalid SESSION_TTL: %s", cfg.SessionTTL)
	}
	return cfg, nil
}

// env collects the first lookup error so Load can report it once.
type env struct {
	lookup func(string) (string, bool)
	err    error
}

// must retrieves the value of a required environment variable.
func (e *env) must(key string) string {
	v, ok := e.lookup(key)
	if !ok || v == "" {
		if e.err == nil {
			e.err = fmt.Errorf("missing required env var: %s", key)
		}
		return ""
	}
	return v
}

func (e *env) str(key, def string) string {
	if v, ok := e.lookup(key); ok && v != "" {
		return v
	}
	return def
}

func (e *env) intVal(key string, def int) int {
	s := e.str(key, "")
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil && e.err == nil {
		e.err = fmt.Errorf("invalid int for %s: %q", key, s)
	}
	return n
}

func (e *env) boolVal(key string, def bool) bool {
	s := e.str(key, "")
	switch strings.ToLower(s) {
	case "":
		return def
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	if e.err == nil {
		e.err = fmt.Errorf("invalid bool for %s: %q", key, s)
	}
	return def
}

func (e *env) durVal(key string, def time.Duration) time.Duration {
	s := e.str(key, "")
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil && e.err == nil {
		e.err = fmt.Errorf("invalid duration for %s: %q", key, s)
	}
	return d
}
