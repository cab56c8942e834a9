package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Connector ConnectorConfig
	JobLog    JobLogConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Server    ServerConfig
	Slack     SlackConfig
	Log       LogConfig
}

// ConnectorConfig holds the Web Connector protocol settings.
type ConnectorConfig struct {
	Username       string
	Password       string //nolint:gosec // G117: connector credential config
	PasswordHash   string // argon2id hash; takes precedence over Password
	ServerVersion  string
	MaxRetries     int
	SessionIdleTTL time.Duration // 0 disables the reaper
	ReapInterval   time.Duration
	ManifestPath   string // empty serves the built-in sample data
	MaxBodyBytes   int64
}

// JobLogConfig holds the job log file settings.
type JobLogConfig struct {
	Path   string // empty disables the file sink
	Stdout bool   // tee entries to stdout
	Buffer int    // async queue depth in front of the sinks
}

// DatabaseConfig holds PostgreSQL connection settings. The job log table is
// only used when Host is set.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string //nolint:gosec // G117: DB connection config
	DBName   string
	SSLMode  string
	MaxConns int
}

// RedisConfig holds Redis connection settings. Live session events are only
// published when Addr is set.
type RedisConfig struct {
	Addr     string
	Password string //nolint:gosec // G117: Redis connection config
	DB       int
}

// JWTConfig holds status API token settings. The status API is only mounted
// when Secret is set.
type JWTConfig struct {
	Secret string //nolint:gosec // G117: JWT signing secret config
	TTL    time.Duration
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
}

// SlackConfig holds alert settings. Alerts are only posted when both fields
// are set.
type SlackConfig struct {
	BotToken string
	Channel  string
}

// LogConfig holds process logger settings.
type LogConfig struct {
	Level  string
	Format string // "json" or "text"
}

// Enabled reports whether a database was configured.
func (c *DatabaseConfig) Enabled() bool { return c.Host != "" }

// Enabled reports whether Redis was configured.
func (c *RedisConfig) Enabled() bool { return c.Addr != "" }

// Enabled reports whether the status API should be mounted.
func (c *JWTConfig) Enabled() bool { return c.Secret != "" }

// Enabled reports whether Slack alerts should be posted.
func (c *SlackConfig) Enabled() bool { return c.BotToken != "" && c.Channel != "" }

// Load reads configuration from environment variables. Variables are first
// read from envFiles, or from ./.env when none are given and it exists.
// Variables already set in the process environment win.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		_ = godotenv.Load(".env")
	} else if err := godotenv.Load(envFiles...); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	maxRetries, err := getEnvInt("QBSYNC_MAX_RETRIES", 2)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	idleTTL, err := getEnvDuration("QBSYNC_SESSION_IDLE_TTL", 0)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	reapInterval, err := getEnvDuration("QBSYNC_SESSION_REAP_INTERVAL", time.Minute)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	maxBody, err := getEnvInt("QBSYNC_MAX_BODY_BYTES", 8<<20)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	jobLogStdout, err := getEnvBool("QBSYNC_JOB_LOG_STDOUT", false)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	jobLogBuffer, err := getEnvInt("QBSYNC_JOB_LOG_BUFFER", 256)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	dbPort, err := getEnvInt("QBSYNC_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	dbMaxConns, err := getEnvInt("QBSYNC_DB_MAX_CONNS", 5)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	redisDB, err := getEnvInt("QBSYNC_REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	jwtTTL, err := getEnvDuration("QBSYNC_JWT_TTL", 12*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	readTimeout, err := getEnvDuration("QBSYNC_SERVER_READ_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	writeTimeout, err := getEnvDuration("QBSYNC_SERVER_WRITE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	rateRPS, err := getEnvFloat("QBSYNC_RATE_LIMIT_RPS", 20)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	rateBurst, err := getEnvInt("QBSYNC_RATE_LIMIT_BURST", 40)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	cfg := &Config{
		Connector: ConnectorConfig{
			Username:       getEnv("QBSYNC_USERNAME", ""),
			Password:       getEnv("QBSYNC_PASSWORD", ""),
			PasswordHash:   getEnv("QBSYNC_PASSWORD_HASH", ""),
			ServerVersion:  getEnv("QBSYNC_SERVER_VERSION", "1.0"),
			MaxRetries:     maxRetries,
			SessionIdleTTL: idleTTL,
			ReapInterval:   reapInterval,
			ManifestPath:   getEnv("QBSYNC_MANIFEST_PATH", ""),
			MaxBodyBytes:   int64(maxBody),
		},
		JobLog: JobLogConfig{
			Path:   getEnv("QBSYNC_JOB_LOG_PATH", ""),
			Stdout: jobLogStdout,
			Buffer: jobLogBuffer,
		},
		Database: DatabaseConfig{
			Host:     getEnv("QBSYNC_DB_HOST", ""),
			Port:     dbPort,
			User:     getEnv("QBSYNC_DB_USER", "qbsync"),
			Password: getEnv("QBSYNC_DB_PASSWORD", ""),
			DBName:   getEnv("QBSYNC_DB_NAME", "qbsync"),
			SSLMode:  getEnv("QBSYNC_DB_SSLMODE", "disable"),
			MaxConns: dbMaxConns,
		},
		Redis: RedisConfig{
			Addr:     getEnv("QBSYNC_REDIS_ADDR", ""),
			Password: getEnv("QBSYNC_REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		JWT: JWTConfig{
			Secret: getEnv("QBSYNC_JWT_SECRET", ""),
			TTL:    jwtTTL,
		},
		Server: ServerConfig{
			Addr:           getEnv("QBSYNC_SERVER_ADDR", ":8000"),
			ReadTimeout:    readTimeout,
			WriteTimeout:   writeTimeout,
			CORSOrigins:    getEnvList("QBSYNC_CORS_ORIGINS", []string{"http://localhost:5173"}),
			RateLimitRPS:   rateRPS,
			RateLimitBurst: rateBurst,
		},
		Slack: SlackConfig{
			BotToken: getEnv("QBSYNC_SLACK_BOT_TOKEN", ""),
			Channel:  getEnv("QBSYNC_SLACK_CHANNEL", ""),
		},
		Log: LogConfig{
			Level:  getEnv("QBSYNC_LOG_LEVEL", "info"),
			Format: getEnv("QBSYNC_LOG_FORMAT", "json"),
		},
	}

	err = cfg.validate()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return cfg, nil
}

// validate checks required fields and value bounds.
func (c *Config) validate() error {
	if c.Connector.Username == "" {
		return errors.New("QBSYNC_USERNAME is required")
	}
	if c.Connector.Password == "" && c.Connector.PasswordHash == "" {
		return errors.New("QBSYNC_PASSWORD or QBSYNC_PASSWORD_HASH is required")
	}

	// The status API stays off without a secret, but a short one is refused.
	if c.JWT.Secret != "" && len(c.JWT.Secret) < 32 {
		return errors.New("QBSYNC_JWT_SECRET must be at least 32 characters")
	}

	if c.Database.Enabled() && c.Database.SSLMode == "disable" {
		log.Warn().Msg("QBSYNC_DB_SSLMODE=disable is insecure for production; set to 'require' or 'verify-full'")
	}

	// Bounds checks.
	if c.Connector.MaxRetries < 0 {
		return fmt.Errorf("QBSYNC_MAX_RETRIES must be >= 0, got %d", c.Connector.MaxRetries)
	}
	if c.Connector.SessionIdleTTL < 0 {
		return fmt.Errorf("QBSYNC_SESSION_IDLE_TTL must be >= 0, got %s", c.Connector.SessionIdleTTL)
	}
	if c.Connector.SessionIdleTTL > 0 && c.Connector.ReapInterval <= 0 {
		return fmt.Errorf("QBSYNC_SESSION_REAP_INTERVAL must be positive, got %s", c.Connector.ReapInterval)
	}
	if c.Connector.MaxBodyBytes < 1024 {
		return fmt.Errorf("QBSYNC_MAX_BODY_BYTES must be >= 1024, got %d", c.Connector.MaxBodyBytes)
	}
	if c.JobLog.Buffer < 1 {
		return fmt.Errorf("QBSYNC_JOB_LOG_BUFFER must be >= 1, got %d", c.JobLog.Buffer)
	}
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("QBSYNC_DB_PORT must be 1-65535, got %d", c.Database.Port)
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("QBSYNC_DB_MAX_CONNS must be >= 1, got %d", c.Database.MaxConns)
	}
	if c.JWT.TTL <= 0 {
		return fmt.Errorf("QBSYNC_JWT_TTL must be positive, got %s", c.JWT.TTL)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("QBSYNC_SERVER_READ_TIMEOUT must be positive, got %s", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("QBSYNC_SERVER_WRITE_TIMEOUT must be positive, got %s", c.Server.WriteTimeout)
	}
	if c.Server.RateLimitRPS <= 0 {
		return fmt.Errorf("QBSYNC_RATE_LIMIT_RPS must be positive, got %g", c.Server.RateLimitRPS)
	}
	if c.Server.RateLimitBurst < 1 {
		return fmt.Errorf("QBSYNC_RATE_LIMIT_BURST must be >= 1, got %d", c.Server.RateLimitBurst)
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("QBSYNC_LOG_FORMAT must be json or text, got %q", c.Log.Format)
	}

	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as int: %w", key, v, err)
	}
	return n, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as float: %w", key, v, err)
	}
	return f, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parsing %s=%q as bool: %w", key, v, err)
	}
	return b, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as duration: %w", key, v, err)
	}
	return d, nil
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
