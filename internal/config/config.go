// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"ledger-core/pkg/db"
)

// DriverMemory selects the in-process store instead of PostgreSQL.
const DriverMemory = "memory"

// DefaultMaxAmountMinorUnits is the default ceiling for one deposit or transfer.
const DefaultMaxAmountMinorUnits int64 = 100_000_000

// AppConfig holds all application-wide configurations.
type AppConfig struct {
	ServerPort string       `yaml:"server_port"`
	LogLevel   string       `yaml:"log_level"`
	DB         db.Config    `yaml:"db"`
	Ledger     LedgerConfig `yaml:"ledger"`
	Kafka      KafkaConfig  `yaml:"kafka"`
}

// LedgerConfig holds the business-rule ceilings handed to the ledger at construction. Zero disables a ceiling.
type LedgerConfig struct {
	MaxDepositMinorUnits  int64 `yaml:"max_deposit_minor_units"`
	MaxTransferMinorUnits int64 `yaml:"max_transfer_minor_units"`
}

// KafkaConfig configures ledger event publishing. No brokers means no publishing.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

func defaults() *AppConfig {
	return &AppConfig{
		ServerPort: "8080",
		LogLevel:   "info",
		DB: db.Config{
			Driver:      db.DriverPQ,
			Host:        "localhost",
			Port:        5432,
			User:        "user",
			Password:    "password",
			DBName:      "ledgerdb",
			SSLMode:     "disable",
			LockTimeout: 5 * time.Second,
			AutoMigrate: true,
		},
		Ledger: LedgerConfig{
			MaxDepositMinorUnits:  DefaultMaxAmountMinorUnits,
			MaxTransferMinorUnits: DefaultMaxAmountMinorUnits,
		},
		Kafka: KafkaConfig{Topic: "ledger.transactions"},
	}
}

// LoadConfig builds the configuration from, in increasing precedence: defaults, the YAML file
// named by LEDGER_CONFIG_FILE, and environment variables (a local .env file is loaded first).
func LoadConfig() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := defaults()

	if path := os.Getenv("LEDGER_CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *AppConfig) error {
	setString("SERVER_PORT", &cfg.ServerPort)
	setString("LOG_LEVEL", &cfg.LogLevel)
	setString("DB_DRIVER", &cfg.DB.Driver)
	setString("DB_HOST", &cfg.DB.Host)
	setString("DB_USER", &cfg.DB.User)
	setString("DB_PASSWORD", &cfg.DB.Password)
	setString("DB_NAME", &cfg.DB.DBName)
	setString("DB_SSLMODE", &cfg.DB.SSLMode)
	setString("KAFKA_TOPIC", &cfg.Kafka.Topic)

	if v := os.Getenv("DB_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid DB_PORT: %w", err)
		}
		cfg.DB.Port = port
	}
	if v := os.Getenv("DB_LOCK_TIMEOUT"); v != "" {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid DB_LOCK_TIMEOUT: %w", err)
		}
		cfg.DB.LockTimeout = timeout
	}
	if v := os.Getenv("DB_AUTO_MIGRATE"); v != "" {
		autoMigrate, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid DB_AUTO_MIGRATE: %w", err)
		}
		cfg.DB.AutoMigrate = autoMigrate
	}
	if v := os.Getenv("LEDGER_MAX_DEPOSIT"); v != "" {
		limit, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid LEDGER_MAX_DEPOSIT: %w", err)
		}
		cfg.Ledger.MaxDepositMinorUnits = limit
	}
	if v := os.Getenv("LEDGER_MAX_TRANSFER"); v != "" {
		limit, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid LEDGER_MAX_TRANSFER: %w", err)
		}
		cfg.Ledger.MaxTransferMinorUnits = limit
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = splitList(v)
	}
	return nil
}

func setString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate rejects configurations the application cannot start with.
func (c *AppConfig) Validate() error {
	if _, err := strconv.Atoi(c.ServerPort); err != nil {
		return fmt.Errorf("invalid SERVER_PORT %q", c.ServerPort)
	}
	switch c.DB.Driver {
	case db.DriverPQ, db.DriverPGX, DriverMemory:
	default:
		return fmt.Errorf("invalid DB_DRIVER %q: want %s, %s or %s", c.DB.Driver, db.DriverPQ, db.DriverPGX, DriverMemory)
	}
	if c.DB.LockTimeout < 0 {
		return fmt.Errorf("invalid DB_LOCK_TIMEOUT %s: must not be negative", c.DB.LockTimeout)
	}
	if c.Ledger.MaxDepositMinorUnits < 0 || c.Ledger.MaxTransferMinorUnits < 0 {
		return errors.New("ledger ceilings must not be negative")
	}
	return nil
}
