// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. UNO_ROOMS or UNO_REDIS_ADDR.
const EnvPrefix = "UNO"

type Config struct {
	Port             int           `mapstructure:"port"`
	Rooms            int           `mapstructure:"rooms"`
	RoomCapacity     int           `mapstructure:"room_capacity"`
	CountdownSeconds int           `mapstructure:"countdown_seconds"`
	CountdownTick    time.Duration `mapstructure:"countdown_tick"`
	HandSize         int           `mapstructure:"hand_size"`
	LogLevel         string        `mapstructure:"log_level"`
	AllowedOrigins   []string      `mapstructure:"allowed_origins"`

	Redis     RedisConfig     `mapstructure:"redis"`
	Postgres  PostgresConfig  `mapstructure:"postgres"`
	Historian HistorianConfig `mapstructure:"historian"`
}

// RedisConfig locates the action log queue. An empty Addr disables it.
type RedisConfig struct {
	Addr  string `mapstructure:"addr"`
	DB    int    `mapstructure:"db"`
	Queue string `mapstructure:"queue"`
}

// PostgresConfig locates the hand history store. An empty Host disables it.
type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

type HistorianConfig struct {
	BatchSize     int           `mapstructure:"batch_size"`
	FlushInterval time.Duration `mapstructure:"flush_interval"`
	Inactivity    time.Duration `mapstructure:"inactivity"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 3000)
	v.SetDefault("rooms", 3)
	v.SetDefault("room_capacity", 10)
	v.SetDefault("countdown_seconds", 3)
	v.SetDefault("countdown_tick", time.Second)
	v.SetDefault("hand_size", 7)
	v.SetDefault("log_level", "info")
	v.SetDefault("allowed_origins", []string{"*"})

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.queue", "uno_actions")

	v.SetDefault("postgres.host", "")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "uno")
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.database", "uno")

	v.SetDefault("historian.batch_size", 20)
	v.SetDefault("historian.flush_interval", 500*time.Millisecond)
	v.SetDefault("historian.inactivity", 10*time.Minute)
}

// Load reads defaults, then the optional config file at path (empty means
// ./config.yaml if present), then UNO_* environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// deckSize is the number of cards a full room deals from.
const deckSize = 108

// Validate rejects room pool settings the game can not run with.
func (c *Config) Validate() error {
	switch {
	case c.Port <= 0 || c.Port > 65535:
		return fmt.Errorf("invalid port %d", c.Port)
	case c.Rooms < 1:
		return fmt.Errorf("rooms must be at least 1, got %d", c.Rooms)
	case c.RoomCapacity < 2 || c.RoomCapacity > 10:
		return fmt.Errorf("room_capacity must be between 2 and 10, got %d", c.RoomCapacity)
	case c.CountdownSeconds < 1:
		return fmt.Errorf("countdown_seconds must be at least 1, got %d", c.CountdownSeconds)
	case c.CountdownTick <= 0:
		return fmt.Errorf("countdown_tick must be positive, got %s", c.CountdownTick)
	case c.HandSize < 1:
		return fmt.Errorf("hand_size must be at least 1, got %d", c.HandSize)
	case c.HandSize*c.RoomCapacity+1 > deckSize:
		return fmt.Errorf("hand_size %d for %d seats needs more than the %d cards in the deck",
			c.HandSize, c.RoomCapacity, deckSize)
	}
	return nil
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
