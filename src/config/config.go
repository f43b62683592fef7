package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"satoshi-drop/src/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Defaults applied when the YAML file leaves a field empty.
const (
	DefaultSpotURL        = "https://api.coinbase.com/v2/prices/spot"
	DefaultCurrency       = "USD"
	DefaultUpdateInterval = 10
	DefaultHistorySize    = 360
	DefaultClientBuffer   = 256
	DefaultSubject        = "satoshi.display"
	CountdownDeadline     = "deadline"
	CountdownCascade      = "cascade"
	envPrefix             = "SATOSHI_"
)

// DefaultSeed is the launch offset shown when the page starts.
var DefaultSeed = models.MCountdownState{Days: 14, Hours: 23, Minutes: 59, Seconds: 59}

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new Config from a YAML file, a sibling .env file and
// SATOSHI_* environment variables, in increasing priority.
func NewConfig(configPath string) (*Config, error) {
	// 1. Read the YAML file content
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	// 2. Load .env into the process environment (existing vars win)
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	return Parse(data, os.LookupEnv)
}

// -----------------------------------------------------------------------------

// Parse builds a validated Config from YAML bytes and an environment lookup.
func Parse(data []byte, lookup func(string) (string, bool)) (*Config, error) {
	var modelConfig models.MConfig
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	config := &Config{MConfig: &modelConfig}

	if err := config.applyEnv(lookup); err != nil {
		return nil, fmt.Errorf("invalid environment override: %w", err)
	}
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if lookup == nil {
		return nil
	}

	str := func(key string, dst *string) {
		if v, ok := lookup(envPrefix + key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(envPrefix + key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, key, err)
		}
		*dst = n
		return nil
	}

	str("HOST", &c.Host)
	str("LOG_LEVEL", &c.LogLevel)
	str("DB_TYPE", &c.Storage.DBType)
	str("DB_PATH", &c.Storage.DBPath)
	str("DB_CONNECTION_STRING", &c.Storage.DBConnectionString)
	str("NATS_URL", &c.Publisher.NatsURL)
	str("COUNTDOWN_MODE", &c.Countdown.Mode)
	str("COUNTDOWN_TARGET", &c.Countdown.Target)
	str("SPOT_URL", &c.DataSource.URL)

	for key, dst := range map[string]*int{
		"PORT":            &c.Port,
		"GRPC_PORT":       &c.GrpcPort,
		"UPDATE_INTERVAL": &c.DataSource.UpdateIntervalSeconds,
		"REQUEST_TIMEOUT": &c.Network.RequestTimeout,
	} {
		if err := num(key, dst); err != nil {
			return err
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

func (c *Config) applyDefaults() {
	if c.Countdown.Mode == "" {
		c.Countdown.Mode = CountdownCascade
	}
	if c.Countdown.Seed == nil {
		seed := DefaultSeed
		c.Countdown.Seed = &seed
	}
	if c.DataSource.Name == "" {
		c.DataSource.Name = "coinbase"
	}
	if c.DataSource.URL == "" {
		c.DataSource.URL = DefaultSpotURL
	}
	if c.DataSource.Currency == "" {
		c.DataSource.Currency = DefaultCurrency
	}
	if c.DataSource.UpdateIntervalSeconds == 0 {
		c.DataSource.UpdateIntervalSeconds = DefaultUpdateInterval
	}
	if c.DataSource.HistorySize == 0 {
		c.DataSource.HistorySize = DefaultHistorySize
	}
	if c.Server.ClientBuffer == 0 {
		c.Server.ClientBuffer = DefaultClientBuffer
	}
	if c.Publisher.Subject == "" {
		c.Publisher.Subject = DefaultSubject
	}
	if c.Storage.DBType == "" {
		c.Storage.DBType = "sqlite"
	}
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	// Validate Server configuration (Flattened)
	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 1024 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}
	if c.GrpcPort != 0 && (c.GrpcPort <= 1024 || c.GrpcPort > 65535 || c.GrpcPort == c.Port) {
		return fmt.Errorf("invalid grpc port number: %d", c.GrpcPort)
	}

	// Validate Countdown configuration
	switch c.Countdown.Mode {
	case CountdownDeadline:
		if c.Countdown.Target != "" {
			if _, err := time.Parse(time.RFC3339, c.Countdown.Target); err != nil {
				return fmt.Errorf("countdown target must be RFC3339: %w", err)
			}
		}
	case CountdownCascade:
		if c.Countdown.Target != "" {
			return fmt.Errorf("countdown target is only supported in %s mode", CountdownDeadline)
		}
	default:
		return fmt.Errorf("unknown countdown mode: %q", c.Countdown.Mode)
	}
	if c.Countdown.Seed == nil || !c.Countdown.Seed.IsValid() {
		return fmt.Errorf("countdown seed out of range: %+v", c.Countdown.Seed)
	}

	// Validate Storage configuration
	switch c.Storage.DBType {
	case "sqlite":
		if c.Storage.DBPath == "" {
			return fmt.Errorf("database path cannot be empty for sqlite")
		}
	case "postgres":
		if c.Storage.DBConnectionString == "" {
			return fmt.Errorf("database connection string cannot be empty for postgres")
		}
	default:
		return fmt.Errorf("unsupported database type: %q", c.Storage.DBType)
	}

	// Validate Network configuration
	if c.Network.RequestTimeout < 0 {
		return fmt.Errorf("request timeout cannot be negative")
	}

	// Validate DataSource configuration
	if !strings.HasPrefix(c.DataSource.URL, "http://") && !strings.HasPrefix(c.DataSource.URL, "https://") {
		return fmt.Errorf("data source url must be http(s): %q", c.DataSource.URL)
	}
	if c.DataSource.UpdateIntervalSeconds <= 0 {
		return fmt.Errorf("update interval must be greater than 0")
	}
	if c.DataSource.HistorySize <= 0 {
		return fmt.Errorf("history size must be greater than 0")
	}

	// Validate Products
	for i, p := range c.Products {
		if p.Name == "" {
			return fmt.Errorf("product %d must have a name", i)
		}
		switch p.Rarity {
		case models.RarityLegendary, models.RarityEpic, models.RarityRare, models.RarityCommon:
		default:
			return fmt.Errorf("product '%s' has unknown rarity %q", p.Name, p.Rarity)
		}
		for stat, v := range p.Stats {
			if v < 0 || v > 100 {
				return fmt.Errorf("product '%s' stat %s out of range: %d", p.Name, stat, v)
			}
		}
	}

	return nil
}

// -----------------------------------------------------------------------------

// UpdateInterval returns the price poll period.
func (c *Config) UpdateInterval() time.Duration {
	return time.Duration(c.DataSource.UpdateIntervalSeconds) * time.Second
}

// -----------------------------------------------------------------------------

// CountdownSeed returns the configured starting value. An explicit all-zero
// seed starts the page in its terminal state.
func (c *Config) CountdownSeed() models.MCountdownState {
	if c.Countdown.Seed == nil {
		return DefaultSeed
	}
	return *c.Countdown.Seed
}

// -----------------------------------------------------------------------------

// CountdownTarget returns the configured absolute deadline, if any.
func (c *Config) CountdownTarget() (time.Time, bool) {
	if c.Countdown.Target == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, c.Countdown.Target)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
