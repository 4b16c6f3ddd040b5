package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	appName    = "todo"
	configFile = "config.yaml"
)

// Backend names.
const (
	BackendFirestore = "firestore" // realtime, push
	BackendREST      = "rest"      // request/response, pull
	BackendRESTLive  = "rest-live" // REST mutations, websocket push
)

type Firestore struct {
	ProjectID       string `yaml:"project_id"`
	CredentialsFile string `yaml:"credentials_file"`
	Collection      string `yaml:"collection"`
}

type REST struct {
	URL     string `yaml:"url"`
	Timeout string `yaml:"timeout"` // time.ParseDuration syntax
}

type Server struct {
	Addr     string `yaml:"addr"`
	DataFile string `yaml:"data_file"`
}

type Config struct {
	Backend   string    `yaml:"backend"`
	Theme     string    `yaml:"theme"`
	LogFile   string    `yaml:"log_file"`
	Firestore Firestore `yaml:"firestore"`
	REST      REST      `yaml:"rest"`
	Server    Server    `yaml:"server"`
}

func Default() *Config {
	return &Config{
		Backend:   BackendREST,
		Theme:     "classic",
		Firestore: Firestore{Collection: "todos"},
		REST:      REST{URL: "http://localhost:8080/api/todos", Timeout: "15s"},
		Server:    Server{Addr: "localhost:8080", DataFile: "todos.json"},
	}
}

// Path returns $XDG_CONFIG_HOME/todo/config.yaml, falling back to
// ~/.config/todo/config.yaml.
func Path() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName, configFile), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home: %w", err)
	}
	return filepath.Join(home, ".config", appName, configFile), nil
}

// Load reads path over the defaults. A missing file is not an error.
// The result is not validated so callers can apply overrides first.
func Load(path string) (*Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// RESTTimeout parses rest.timeout. Empty means 15s.
func (c *Config) RESTTimeout() (time.Duration, error) {
	if strings.TrimSpace(c.REST.Timeout) == "" {
		return 15 * time.Second, nil
	}
	d, err := time.ParseDuration(c.REST.Timeout)
	if err != nil {
		return 0, fmt.Errorf("rest.timeout: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("rest.timeout must be positive, got %s", d)
	}
	return d, nil
}

func (c *Config) Validate() error {
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	switch c.Backend {
	case BackendFirestore, BackendREST, BackendRESTLive:
	default:
		return fmt.Errorf("unknown backend %q (want %s, %s or %s)",
			c.Backend, BackendFirestore, BackendREST, BackendRESTLive)
	}
	if c.Backend != BackendFirestore && strings.TrimSpace(c.REST.URL) == "" {
		return fmt.Errorf("backend %s needs rest.url", c.Backend)
	}
	return nil
}
