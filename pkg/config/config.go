// Package config loads userboard settings from YAML, .env files, and the
// process environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-userboard/pkg/logging"
	"github.com/goliatone/go-userboard/pkg/usersapi"
)

// EnvPrefix namespaces every environment override.
const EnvPrefix = "USERBOARD_"

// Config is the full runtime configuration.
type Config struct {
	API     APIConfig      `yaml:"api"`
	Server  ServerConfig   `yaml:"server"`
	Chart   ChartConfig    `yaml:"chart"`
	Logging logging.Config `yaml:"logging"`
}

// APIConfig locates the users backend.
type APIConfig struct {
	BaseURL string        `yaml:"base_url" validate:"omitempty,url"`
	DevHost string        `yaml:"dev_host"`
	Backend string        `yaml:"backend" validate:"omitempty,url"`
	Timeout time.Duration `yaml:"timeout" validate:"gte=0"`
}

// ServerConfig controls the dashboard listeners.
type ServerConfig struct {
	Addr        string `yaml:"addr" validate:"required"`
	MetricsAddr string `yaml:"metrics_addr"`
	BasePath    string `yaml:"base_path" validate:"required,startswith=/"`
}

// ChartConfig styles the age ranking chart.
type ChartConfig struct {
	Theme      string `yaml:"theme"`
	AssetsHost string `yaml:"assets_host" validate:"omitempty,url"`
}

// LoadOptions points Load at its sources. Empty fields fall back to the
// defaults; a missing default file is not an error.
type LoadOptions struct {
	Path      string
	EnvFiles  []string
	LookupEnv func(string) (string, bool)
}

var validate = validator.New()

// Defaults returns the configuration used when no source sets a value.
func Defaults() Config {
	return Config{
		API: APIConfig{
			DevHost: usersapi.DefaultDevHost,
			Backend: usersapi.DefaultBackendURL,
			Timeout: 10 * time.Second,
		},
		Server: ServerConfig{
			Addr:        ":8080",
			MetricsAddr: ":9090",
			BasePath:    "/userboard",
		},
		Logging: logging.Config{Level: "info", Format: "json"},
	}
}

// Load layers defaults, the YAML file, .env files and the environment, then
// validates the result. The process environment wins over .env values.
func Load(opts LoadOptions) (Config, error) {
	cfg := Defaults()
	if err := decodeFile(&cfg, opts.Path); err != nil {
		return Config{}, err
	}
	dotenv, err := readEnvFiles(opts.EnvFiles)
	if err != nil {
		return Config{}, err
	}
	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	env := func(key string) (string, bool) {
		if value, ok := lookup(EnvPrefix + key); ok {
			return value, true
		}
		value, ok := dotenv[EnvPrefix+key]
		return value, ok
	}
	if err := applyEnv(&cfg, env); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks struct constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// ResolveOptions maps the API section onto base URL resolution.
func (c Config) ResolveOptions() usersapi.ResolveOptions {
	return usersapi.ResolveOptions{
		Explicit: c.API.BaseURL,
		DevHost:  c.API.DevHost,
		Backend:  c.API.Backend,
	}
}

func decodeFile(cfg *Config, path string) error {
	required := path != ""
	if path == "" {
		path = "userboard.yaml"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("config: decode %s: %w", path, err)
	}
	return nil
}

func readEnvFiles(files []string) (map[string]string, error) {
	if len(files) == 0 {
		files = []string{".env", ".local.env"}
	}
	values := map[string]string{}
	for _, file := range files {
		content, err := godotenv.Read(file)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", file, err)
		}
		for k, v := range content {
			values[k] = v
		}
	}
	return values, nil
}

func applyEnv(cfg *Config, env func(string) (string, bool)) error {
	strs := map[string]*string{
		"API_URL":      &cfg.API.BaseURL,
		"DEV_HOST":     &cfg.API.DevHost,
		"BACKEND_URL":  &cfg.API.Backend,
		"ADDR":         &cfg.Server.Addr,
		"METRICS_ADDR": &cfg.Server.MetricsAddr,
		"BASE_PATH":    &cfg.Server.BasePath,
		"CHART_THEME":  &cfg.Chart.Theme,
		"ASSETS_HOST":  &cfg.Chart.AssetsHost,
		"LOG_LEVEL":    &cfg.Logging.Level,
		"LOG_FORMAT":   &cfg.Logging.Format,
	}
	for key, field := range strs {
		if value, ok := env(key); ok {
			*field = strings.TrimSpace(value)
		}
	}
	if value, ok := env("API_TIMEOUT"); ok {
		timeout, err := parseDuration(value)
		if err != nil {
			return fmt.Errorf("config: %sAPI_TIMEOUT: %w", EnvPrefix, err)
		}
		cfg.API.Timeout = timeout
	}
	return nil
}

// parseDuration accepts Go durations or a bare number of seconds.
func parseDuration(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}
	return time.ParseDuration(value)
}
