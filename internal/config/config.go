package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Persistence backends.
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
	BackendRemote = "remote"
)

// Busy-gate backends.
const (
	LockLocal = "local"
	LockRedis = "redis"
)

// Config holds the configuration for the application.
type Config struct {
	Database     DatabaseConfig     `mapstructure:"database"`
	Log          LogConfig          `mapstructure:"log"`
	Server       ServerConfig       `mapstructure:"server"`
	Auth         AuthConfig         `mapstructure:"auth"`
	Persistence  PersistenceConfig  `mapstructure:"persistence"`
	Lock         LockConfig         `mapstructure:"lock"`
	Telegram     TelegramConfig     `mapstructure:"telegram"`
	Reminder     ReminderConfig     `mapstructure:"reminder"`
	Regeneration RegenerationConfig `mapstructure:"regeneration"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

// PersistenceConfig selects where weeks and histories are saved.
type PersistenceConfig struct {
	Backend       string        `mapstructure:"backend"`
	FileDir       string        `mapstructure:"file_dir"`
	RemoteURL     string        `mapstructure:"remote_url"`
	RemoteToken   string        `mapstructure:"remote_token"`
	RemoteTimeout time.Duration `mapstructure:"remote_timeout"`
}

// LockConfig selects the regeneration busy gate.
type LockConfig struct {
	Backend       string        `mapstructure:"backend"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	TTL           time.Duration `mapstructure:"ttl"`
}

type TelegramConfig struct {
	BotToken       string  `mapstructure:"bot_token"`
	WebhookURL     string  `mapstructure:"webhook_url"`
	AllowedUserIDs string  `mapstructure:"allowed_user_ids"`
	AllowedUsers   []int64 `mapstructure:"-"`
}

// ReminderConfig controls the daily "tomorrow's menu" notification.
type ReminderConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Time    string `mapstructure:"time"`
}

// RegenerationConfig tunes the menu engine.
type RegenerationConfig struct {
	MaxAttempts     int   `mapstructure:"max_attempts"`
	PotatoException bool  `mapstructure:"potato_exception"`
	Seed            int64 `mapstructure:"seed"`
}

// NewFromEnv creates a new Config object from environment variables, after
// loading a .env file from the working directory when one exists.
func NewFromEnv() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	if err := bindEnv(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	users, err := parseUserIDs(cfg.Telegram.AllowedUserIDs)
	if err != nil {
		return nil, err
	}
	cfg.Telegram.AllowedUsers = users

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// DataDir is the directory holding the database.
func (c *Config) DataDir() string {
	return filepath.Dir(c.Database.Path)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.path", "data/menu.db")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("persistence.backend", BackendSQLite)
	v.SetDefault("persistence.file_dir", "data/menus")
	v.SetDefault("persistence.remote_timeout", "10s")

	v.SetDefault("lock.backend", LockLocal)
	v.SetDefault("lock.redis_db", 0)
	v.SetDefault("lock.ttl", "30s")

	v.SetDefault("reminder.enabled", true)
	v.SetDefault("reminder.time", "20:00")

	v.SetDefault("regeneration.max_attempts", 10)
	v.SetDefault("regeneration.potato_exception", false)
	v.SetDefault("regeneration.seed", 0)
}

var envBindings = map[string]string{
	"database.path":                 "DATABASE_PATH",
	"log.level":                     "LOG_LEVEL",
	"log.file":                      "LOG_FILE",
	"server.port":                   "PORT",
	"server.allowed_origins":        "ALLOWED_ORIGINS",
	"auth.jwt_secret":               "JWT_SECRET",
	"persistence.backend":           "PERSISTENCE_BACKEND",
	"persistence.file_dir":          "FILE_STORE_DIR",
	"persistence.remote_url":        "REMOTE_STORE_URL",
	"persistence.remote_token":      "REMOTE_STORE_TOKEN",
	"lock.backend":                  "LOCK_BACKEND",
	"lock.redis_addr":               "REDIS_ADDR",
	"lock.redis_password":           "REDIS_PASSWORD",
	"lock.redis_db":                 "REDIS_DB",
	"telegram.bot_token":            "TELEGRAM_BOT_TOKEN",
	"telegram.webhook_url":          "TELEGRAM_WEBHOOK_URL",
	"telegram.allowed_user_ids":     "TELEGRAM_ALLOWED_USER_IDS",
	"reminder.enabled":              "REMINDER_ENABLED",
	"reminder.time":                 "REMINDER_TIME",
	"regeneration.max_attempts":     "REGEN_MAX_ATTEMPTS",
	"regeneration.potato_exception": "POTATO_EXCEPTION",
	"regeneration.seed":             "REGEN_SEED",
}

func bindEnv(v *viper.Viper) error {
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}
	return nil
}

func parseUserIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_ALLOWED_USER_IDS entry %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func validateConfig(cfg *Config) error {
	if cfg.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", cfg.Server.Port)
	}

	switch cfg.Persistence.Backend {
	case BackendSQLite:
	case BackendFile:
		if cfg.Persistence.FileDir == "" {
			return fmt.Errorf("FILE_STORE_DIR is required for the file backend")
		}
	case BackendRemote:
		if cfg.Persistence.RemoteURL == "" {
			return fmt.Errorf("REMOTE_STORE_URL is required for the remote backend")
		}
	default:
		return fmt.Errorf("unknown persistence backend %q", cfg.Persistence.Backend)
	}

	switch cfg.Lock.Backend {
	case LockLocal:
	case LockRedis:
		if cfg.Lock.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis lock")
		}
		if cfg.Lock.TTL <= 0 {
			return fmt.Errorf("invalid lock ttl")
		}
	default:
		return fmt.Errorf("unknown lock backend %q", cfg.Lock.Backend)
	}

	if _, err := ParseClock(cfg.Reminder.Time); err != nil {
		return err
	}
	if cfg.Regeneration.MaxAttempts < 1 {
		return fmt.Errorf("regeneration max attempts must be at least 1")
	}
	return nil
}

// ParseClock parses an "HH:MM" time of day into an offset from midnight.
func ParseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q, expected HH:MM", s)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}
