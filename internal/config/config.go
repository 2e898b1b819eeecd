package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Notification NotificationConfig
	Broker       BrokerConfig
	Helpdesk     HelpdeskConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	EmailFrom  string
	WebhookURL string
}

// BrokerConfig configures optional event forwarding to RabbitMQ.
type BrokerConfig struct {
	URL      string
	Exchange string
}

// Enabled reports whether a broker URL was configured.
func (b BrokerConfig) Enabled() bool {
	return strings.TrimSpace(b.URL) != ""
}

// PriorityConfig holds the SLA offsets for a single priority.
type PriorityConfig struct {
	Name                 string
	FirstResponseSeconds int64
	ResolutionSeconds    int64
}

// HelpdeskConfig holds ticket vocabulary and SLA policy.
type HelpdeskConfig struct {
	Statuses         []string
	ResolvedStatuses []string
	Priorities       []PriorityConfig
	DefaultPriority  string
	UrgentPriorities []string
	SLAWarningRatio  float64
	MaxPageSize      int
	DefaultPageSize  int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	helpdesk, err := loadHelpdesk()
	if err != nil {
		return nil, err
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "helpdesk"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Notification: NotificationConfig{
			EmailFrom:  getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
		Broker: BrokerConfig{
			URL:      os.Getenv("BROKER_URL"),
			Exchange: getEnv("BROKER_EXCHANGE", "helpdesk.events"),
		},
		Helpdesk: helpdesk,
	}

	return cfg, nil
}

// DefaultHelpdesk returns the built-in ticket vocabulary and SLA policy.
func DefaultHelpdesk() HelpdeskConfig {
	return HelpdeskConfig{
		Statuses:         []string{"open", "in-progress", "waiting", "resolved", "closed"},
		ResolvedStatuses: []string{"resolved", "closed"},
		Priorities: []PriorityConfig{
			{Name: "critical", FirstResponseSeconds: 3600, ResolutionSeconds: 14400},
			{Name: "high", FirstResponseSeconds: 14400, ResolutionSeconds: 86400},
			{Name: "medium", FirstResponseSeconds: 28800, ResolutionSeconds: 172800},
			{Name: "low", FirstResponseSeconds: 86400, ResolutionSeconds: 432000},
		},
		DefaultPriority:  "medium",
		UrgentPriorities: []string{"critical", "high"},
		SLAWarningRatio:  0.25,
		MaxPageSize:      200,
		DefaultPageSize:  20,
	}
}

func loadHelpdesk() (HelpdeskConfig, error) {
	cfg := DefaultHelpdesk()

	if statuses := getEnvAsList("HELPDESK_STATUSES"); len(statuses) > 0 {
		cfg.Statuses = statuses
	}
	if resolved := getEnvAsList("HELPDESK_RESOLVED_STATUSES"); len(resolved) > 0 {
		cfg.ResolvedStatuses = resolved
	}
	if urgent := getEnvAsList("HELPDESK_URGENT_PRIORITIES"); len(urgent) > 0 {
		cfg.UrgentPriorities = urgent
	}
	cfg.DefaultPriority = getEnv("HELPDESK_DEFAULT_PRIORITY", cfg.DefaultPriority)
	cfg.MaxPageSize = getEnvAsInt("HELPDESK_MAX_PAGE_SIZE", cfg.MaxPageSize)
	cfg.DefaultPageSize = getEnvAsInt("HELPDESK_DEFAULT_PAGE_SIZE", cfg.DefaultPageSize)

	if raw := os.Getenv("HELPDESK_SLA_WARNING_RATIO"); raw != "" {
		ratio, err := strconv.ParseFloat(raw, 64)
		if err != nil || ratio < 0 || ratio > 1 {
			return HelpdeskConfig{}, fmt.Errorf("invalid HELPDESK_SLA_WARNING_RATIO %q", raw)
		}
		cfg.SLAWarningRatio = ratio
	}

	// HELPDESK_SLA_POLICY="critical:3600:14400,high:14400:86400"
	if raw := os.Getenv("HELPDESK_SLA_POLICY"); raw != "" {
		priorities, err := ParsePriorities(raw)
		if err != nil {
			return HelpdeskConfig{}, err
		}
		cfg.Priorities = priorities
	}

	if _, ok := cfg.Priority(cfg.DefaultPriority); !ok {
		return HelpdeskConfig{}, fmt.Errorf("default priority %q has no SLA policy", cfg.DefaultPriority)
	}
	return cfg, nil
}

// ParsePriorities parses "name:firstResponse:resolution" triples separated by commas.
func ParsePriorities(raw string) ([]PriorityConfig, error) {
	var result []PriorityConfig
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid SLA policy entry %q", entry)
		}
		first, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
		if err != nil || first <= 0 {
			return nil, fmt.Errorf("invalid first response offset in %q", entry)
		}
		resolution, err := strconv.ParseInt(strings.TrimSpace(parts[2]), 10, 64)
		if err != nil || resolution <= 0 {
			return nil, fmt.Errorf("invalid resolution offset in %q", entry)
		}
		result = append(result, PriorityConfig{
			Name:                 strings.ToLower(strings.TrimSpace(parts[0])),
			FirstResponseSeconds: first,
			ResolutionSeconds:    resolution,
		})
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("SLA policy is empty")
	}
	return result, nil
}

// Priority looks up the SLA offsets for name.
func (h HelpdeskConfig) Priority(name string) (PriorityConfig, bool) {
	for _, p := range h.Priorities {
		if p.Name == name {
			return p, true
		}
	}
	return PriorityConfig{}, false
}

// HasStatus reports whether status is part of the configured status set.
func (h HelpdeskConfig) HasStatus(status string) bool {
	return contains(h.Statuses, status)
}

// IsResolved reports whether status counts as resolved for SLA purposes.
func (h HelpdeskConfig) IsResolved(status string) bool {
	return contains(h.ResolvedStatuses, status)
}

// IsUrgent reports whether priority belongs to the urgent queue.
func (h HelpdeskConfig) IsUrgent(priority string) bool {
	return contains(h.UrgentPriorities, priority)
}

// InitialStatus returns the status assigned to new tickets.
func (h HelpdeskConfig) InitialStatus() string {
	if len(h.Statuses) == 0 {
		return "open"
	}
	return h.Statuses[0]
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsList(key string) []string {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	var result []string
	for _, part := range strings.Split(val, ",") {
		if trimmed := strings.ToLower(strings.TrimSpace(part)); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
