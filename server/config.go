package server

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/BurntSushi/toml"
)

// Config keeps the user-provided server parameters.
type Config struct {
	Hostname string       `toml:"hostname"`
	Maildir  string       `toml:"maildir"`
	Users    string       `toml:"users"`
	SMTP     ListenConfig `toml:"smtp"`
	POP      ListenConfig `toml:"pop"`
	Metrics  ListenConfig `toml:"metrics"`
	Log      LogConfig    `toml:"log"`
}

type ListenConfig struct {
	Listen string `toml:"listen"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

// LoadConfig reads a TOML config file and fills in the defaults.
func LoadConfig(path string) (*Config, error) {
	config := defaultConfig()
	if _, err := toml.DecodeFile(path, config); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func defaultConfig() *Config {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}
	return &Config{
		Hostname: hostname,
		Maildir:  "mail.store",
		Users:    "users.txt",
		SMTP:     ListenConfig{Listen: ":25"},
		POP:      ListenConfig{Listen: ":110"},
		Log:      LogConfig{Level: "info"},
	}
}

func (c *Config) validate() error {
	if c.Maildir == "" {
		return fmt.Errorf("config: maildir must not be empty")
	}
	if c.Users == "" {
		return fmt.Errorf("config: users file must not be empty")
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// LogLevel translates the configured level name.
func (c *Config) LogLevel() (slog.Level, error) {
	switch c.Log.Level {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("config: unknown log level %q", c.Log.Level)
}
