// Package config provides YAML-based configuration loading for the codablews
// binaries.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is the root application configuration.
type Config struct {
	// AppName optional logical name of the process, used as logger name
	AppName string `mapstructure:"app_name"`

	// Log holds logging configuration
	Log LogConfig `mapstructure:"log"`

	// Socket describes the client connection
	Socket SocketConfig `mapstructure:"socket"`

	// Metrics controls the Prometheus endpoint
	Metrics MetricsConfig `mapstructure:"metrics"`

	// Server holds echo server options
	Server ServerConfig `mapstructure:"server"`
}

// LogConfig defines logger settings.
type LogConfig struct {
	// Level: debug, info, warn, error
	Level string `mapstructure:"level"`
	// Format: console or json
	Format string `mapstructure:"format"`
	// Outputs: list of outputs: stdout, stderr, or file paths
	Outputs []string `mapstructure:"outputs"`

	// Rotation controls file rotation when writing to files
	Rotation RotationConfig `mapstructure:"rotation"`
	// Development toggles development-friendly logging options
	Development bool `mapstructure:"development"`
}

// RotationConfig controls log file rotation for file outputs.
type RotationConfig struct {
	Enable     bool   `mapstructure:"enable"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	return &Config{
		AppName: "codablews",
		Log: LogConfig{
			Level:       "info",
			Format:      "console",
			Outputs:     []string{"stdout"},
			Development: true,
			Rotation: RotationConfig{
				Enable:     false,
				Filename:   "logs/codablews.log",
				MaxSizeMB:  50,
				MaxBackups: 3,
				MaxAgeDays: 28,
				Compress:   true,
			},
		},
		Socket: SocketConfig{
			URL:                "ws://localhost:8080/echo",
			Transport:          "coder",
			Codec:              "json",
			HandshakeTimeoutMS: 5000,
			ErrorPolicy:        "terminate",
			Buffer:             16,
		},
		Metrics: MetricsConfig{Enable: false, Listen: ":9090"},
		Server:  ServerConfig{Listen: ":8080", Path: "/echo"},
	}
}

// Load reads configuration from the provided path (if non-empty),
// otherwise it searches common locations and supports environment overrides.
// Environment variables use the prefix CODABLEWS and `.`/`-` are replaced with `_`.
// Example: CODABLEWS_SOCKET_URL=wss://example.org/feed
func Load(path string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("CODABLEWS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// seed defaults for viper so env-only configs work
	v.SetDefault("app_name", cfg.AppName)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.outputs", cfg.Log.Outputs)
	v.SetDefault("log.development", cfg.Log.Development)
	v.SetDefault("log.rotation.enable", cfg.Log.Rotation.Enable)
	v.SetDefault("log.rotation.filename", cfg.Log.Rotation.Filename)
	v.SetDefault("log.rotation.max_size_mb", cfg.Log.Rotation.MaxSizeMB)
	v.SetDefault("log.rotation.max_backups", cfg.Log.Rotation.MaxBackups)
	v.SetDefault("log.rotation.max_age_days", cfg.Log.Rotation.MaxAgeDays)
	v.SetDefault("log.rotation.compress", cfg.Log.Rotation.Compress)
	// Socket defaults
	v.SetDefault("socket.url", cfg.Socket.URL)
	v.SetDefault("socket.transport", cfg.Socket.Transport)
	v.SetDefault("socket.protocols", cfg.Socket.Protocols)
	v.SetDefault("socket.codec", cfg.Socket.Codec)
	v.SetDefault("socket.handshake_timeout_ms", cfg.Socket.HandshakeTimeoutMS)
	v.SetDefault("socket.read_limit", cfg.Socket.ReadLimit)
	v.SetDefault("socket.compression", cfg.Socket.Compression)
	v.SetDefault("socket.error_policy", cfg.Socket.ErrorPolicy)
	v.SetDefault("socket.typed_as_text", cfg.Socket.TypedAsText)
	v.SetDefault("socket.buffer", cfg.Socket.Buffer)
	v.SetDefault("socket.send_rate", cfg.Socket.SendRate)
	v.SetDefault("socket.send_burst", cfg.Socket.SendBurst)
	// Metrics and server defaults
	v.SetDefault("metrics.enable", cfg.Metrics.Enable)
	v.SetDefault("metrics.listen", cfg.Metrics.Listen)
	v.SetDefault("server.listen", cfg.Server.Listen)
	v.SetDefault("server.path", cfg.Server.Path)

	// Choose config file
	if path == "" {
		// Allow override via env var
		if envPath := os.Getenv("CODABLEWS_CONFIG"); envPath != "" {
			path = envPath
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		// Search common locations with base name `codablews`
		v.SetConfigName("codablews")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".codablews"))
		}
	}

	// Read config file if present; if not found, continue with defaults/env
	if err := v.ReadInConfig(); err != nil {
		var viperConfigFileNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &viperConfigFileNotFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	lvl := strings.ToLower(strings.TrimSpace(c.Log.Level))
	switch lvl {
	case "debug", "info", "warn", "warning", "error":
		// ok
	default:
		return fmt.Errorf("invalid log.level: %q", c.Log.Level)
	}

	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if len(c.Log.Outputs) == 0 {
		c.Log.Outputs = []string{"stdout"}
	}

	c.Socket.Transport = strings.ToLower(strings.TrimSpace(c.Socket.Transport))
	c.Socket.ErrorPolicy = strings.ToLower(strings.TrimSpace(c.Socket.ErrorPolicy))
	switch c.Socket.ErrorPolicy {
	case "":
		c.Socket.ErrorPolicy = "terminate"
	case "terminate", "deliver":
	default:
		return fmt.Errorf("invalid socket.error_policy: %q", c.Socket.ErrorPolicy)
	}
	if c.Socket.Buffer < 0 {
		return fmt.Errorf("invalid socket.buffer: %d", c.Socket.Buffer)
	}
	if c.Socket.SendRate < 0 || c.Socket.SendBurst < 0 {
		return fmt.Errorf("invalid socket.send_rate/send_burst: %v/%d", c.Socket.SendRate, c.Socket.SendBurst)
	}
	if c.Socket.HandshakeTimeoutMS < 0 {
		return fmt.Errorf("invalid socket.handshake_timeout_ms: %d", c.Socket.HandshakeTimeoutMS)
	}
	if strings.TrimSpace(c.Server.Path) == "" {
		c.Server.Path = "/"
	}
	return nil
}

// MustLoad is a convenience that panics on error.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}
