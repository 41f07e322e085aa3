// Package config loads the daemon configuration from a yaml file and
// layers command-line flag overrides on top of it.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Command     string
	Blocking    time.Duration
	NonBlocking time.Duration
	Unsafe      bool
	DBPath      string
	Port        int
	Token       string
	Serve       bool
	ConfigPath  string
	Args        []string
}

func Load() (*Config, error) {
	return load(os.Args[1:])
}

func load(args []string) (*Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	cfg := Default()
	cfg.ConfigPath = filepath.Join(homeDir, ".config", "go3270", "config.yaml")
	cfg.DBPath = filepath.Join(homeDir, ".local", "share", "go3270", "history.db")

	// Flags are parsed into a copy so that values from the config file
	// only lose to flags the caller actually set.
	over := *cfg
	fs := flag.NewFlagSet("go3270", flag.ContinueOnError)
	fs.StringVar(&over.ConfigPath, "config", cfg.ConfigPath, "path to the yaml config file")
	fs.StringVar(&over.Command, "command", cfg.Command, "emulator command line to spawn")
	fs.DurationVar(&over.Blocking, "blocking", cfg.Blocking, "timeout for actions that wait on the host")
	fs.DurationVar(&over.NonBlocking, "non-blocking", cfg.NonBlocking, "timeout for local actions")
	fs.BoolVar(&over.Unsafe, "unsafe", cfg.Unsafe, "allow actions that run arbitrary commands")
	fs.StringVar(&over.DBPath, "db", cfg.DBPath, "path to the history database")
	fs.IntVar(&over.Port, "port", cfg.Port, "server port (1-65535)")
	fs.StringVar(&over.Token, "token", cfg.Token, "authentication token (auto-generated if empty)")
	fs.BoolVar(&over.Serve, "serve", false, "run the websocket gateway instead of a one-shot script")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	cfg.Args = fs.Args()

	cfg.ConfigPath = over.ConfigPath
	if err := cfg.loadFromFile(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "command":
			cfg.Command = over.Command
		case "blocking":
			cfg.Blocking = over.Blocking
		case "non-blocking":
			cfg.NonBlocking = over.NonBlocking
		case "unsafe":
			cfg.Unsafe = over.Unsafe
		case "db":
			cfg.DBPath = over.DBPath
		case "port":
			cfg.Port = over.Port
		case "token":
			cfg.Token = over.Token
		case "serve":
			cfg.Serve = over.Serve
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Token == "" {
		token, err := generateToken()
		if err != nil {
			return nil, fmt.Errorf("failed to generate token: %w", err)
		}
		cfg.Token = token
		if err := cfg.saveToFile(); err != nil {
			return nil, fmt.Errorf("failed to save config file: %w", err)
		}
	}

	return cfg, nil
}

func Default() *Config {
	return &Config{
		Command:     "s3270",
		Blocking:    30 * time.Second,
		NonBlocking: 3 * time.Second,
		Port:        8270,
	}
}

func (c *Config) Validate() error {
	if c.Command == "" {
		return fmt.Errorf("command cannot be empty")
	}
	if c.Blocking <= 0 {
		return fmt.Errorf("invalid blocking timeout %v: must be positive", c.Blocking)
	}
	if c.NonBlocking <= 0 {
		return fmt.Errorf("invalid non-blocking timeout %v: must be positive", c.NonBlocking)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d: must be between 1 and 65535", c.Port)
	}
	return nil
}

// fileConfig is the on-disk shape. Durations are strings so the file
// can say "45s" instead of nanosecond counts.
type fileConfig struct {
	Command     string `yaml:"command,omitempty"`
	Blocking    string `yaml:"blocking,omitempty"`
	NonBlocking string `yaml:"non_blocking,omitempty"`
	Unsafe      *bool  `yaml:"unsafe,omitempty"`
	DBPath      string `yaml:"db_path,omitempty"`
	Port        int    `yaml:"port,omitempty"`
	Token       string `yaml:"token,omitempty"`
}

func (c *Config) loadFromFile() error {
	data, err := os.ReadFile(c.ConfigPath)
	if err != nil {
		return err
	}
	var f fileConfig
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to parse %q: %w", c.ConfigPath, err)
	}
	if f.Command != "" {
		c.Command = f.Command
	}
	if f.Blocking != "" {
		d, err := time.ParseDuration(f.Blocking)
		if err != nil {
			return fmt.Errorf("invalid blocking value %q: %w", f.Blocking, err)
		}
		c.Blocking = d
	}
	if f.NonBlocking != "" {
		d, err := time.ParseDuration(f.NonBlocking)
		if err != nil {
			return fmt.Errorf("invalid non_blocking value %q: %w", f.NonBlocking, err)
		}
		c.NonBlocking = d
	}
	if f.Unsafe != nil {
		c.Unsafe = *f.Unsafe
	}
	if f.DBPath != "" {
		c.DBPath = f.DBPath
	}
	if f.Port != 0 {
		c.Port = f.Port
	}
	if f.Token != "" {
		c.Token = f.Token
	}
	return nil
}

func (c *Config) saveToFile() error {
	dir := filepath.Dir(c.ConfigPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f := fileConfig{
		Command:     c.Command,
		Blocking:    c.Blocking.String(),
		NonBlocking: c.NonBlocking.String(),
		Unsafe:      &c.Unsafe,
		DBPath:      c.DBPath,
		Port:        c.Port,
		Token:       c.Token,
	}
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(c.ConfigPath, data, 0o600)
}

func generateToken() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
