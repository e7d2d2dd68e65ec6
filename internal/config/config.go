package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"
)

// Config holds all thringlet configuration.
// Precedence: defaults, then the TOML file, then THRINGLET_* environment variables.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Engine   EngineConfig   `toml:"engine"`
	MQTT     MQTTConfig     `toml:"mqtt"`
	Log      LogConfig      `toml:"log"`
}

type ServerConfig struct {
	Bind string `toml:"bind" env:"THRINGLET_BIND"`
	Port int    `toml:"port" env:"THRINGLET_PORT"`
}

type DatabaseConfig struct {
	Path string `toml:"path" env:"THRINGLET_DB_PATH"`
}

type EngineConfig struct {
	DecayInterval Duration `toml:"decay_interval" env:"THRINGLET_DECAY_INTERVAL"`
	MemoryLimit   int      `toml:"memory_limit" env:"THRINGLET_MEMORY_LIMIT"` // 0 keeps full history
}

type MQTTConfig struct {
	Enabled     bool   `toml:"enabled" env:"THRINGLET_MQTT_ENABLED"`
	BrokerURL   string `toml:"broker_url" env:"THRINGLET_MQTT_BROKER_URL"`
	ClientID    string `toml:"client_id" env:"THRINGLET_MQTT_CLIENT_ID"`
	Username    string `toml:"username" env:"THRINGLET_MQTT_USERNAME"`
	Password    string `toml:"password" env:"THRINGLET_MQTT_PASSWORD"`
	TopicPrefix string `toml:"topic_prefix" env:"THRINGLET_MQTT_TOPIC_PREFIX"`
}

type LogConfig struct {
	Level string `toml:"level" env:"THRINGLET_LOG_LEVEL"` // debug, info, warn, error
}

// Duration is a time.Duration written as a string ("1h", "30m") in TOML and env.
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 37778,
		},
		Database: DatabaseConfig{
			Path: "", // resolved at runtime via store.DefaultDBPath()
		},
		Engine: EngineConfig{
			DecayInterval: Duration(time.Hour),
			MemoryLimit:   200,
		},
		MQTT: MQTTConfig{
			Enabled:     false,
			BrokerURL:   "tcp://127.0.0.1:1883",
			ClientID:    "thringlet",
			TopicPrefix: "thringlet",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// DefaultPath returns the default config file path: ~/.thringlet/config.toml
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".thringlet", "config.toml"), nil
}

// Load builds the configuration. An empty path uses DefaultPath; a missing
// file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return cfg, err
		}
		path = p
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("read config: %w", err)
	default:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects values the server cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Engine.DecayInterval.Std() <= 0 {
		return fmt.Errorf("invalid decay interval %s", c.Engine.DecayInterval.Std())
	}
	if c.MQTT.Enabled && c.MQTT.BrokerURL == "" {
		return errors.New("mqtt enabled without broker_url")
	}
	return nil
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}
