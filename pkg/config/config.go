// Package config loads loxide settings. Values come from built-in defaults,
// then an optional YAML file, then LOXIDE_* environment variables; the CLI
// applies its flags last.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/lemonberrylabs/loxide/pkg/logger"
	"github.com/lemonberrylabs/loxide/pkg/parser"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "LOXIDE_"

// Config is the complete loxide configuration.
type Config struct {
	MaxDepth    int    `yaml:"max_depth"`
	HistoryFile string `yaml:"history_file"`
	Prompt      string `yaml:"prompt"`
	Color       bool   `yaml:"color"`
	ShowTokens  bool   `yaml:"show_tokens"`
	ShowAST     bool   `yaml:"show_ast"`

	Server ServerConfig  `yaml:"server"`
	Store  StoreConfig   `yaml:"store"`
	Log    logger.Config `yaml:"log"`
}

// ServerConfig configures `loxide serve`.
type ServerConfig struct {
	Host           string `yaml:"host"`
	HTTPPort       int    `yaml:"http_port"`
	GRPCPort       int    `yaml:"grpc_port"`
	MaxSourceBytes int    `yaml:"max_source_bytes"`
}

// StoreConfig bounds the evaluation history.
type StoreConfig struct {
	MaxEntries int `yaml:"max_entries"`
}

// Default returns the built-in configuration.
func Default() *Config {
	history := ""
	if home, err := os.UserHomeDir(); err == nil {
		history = filepath.Join(home, ".loxide_history")
	}
	return &Config{
		MaxDepth:    parser.DefaultMaxDepth,
		HistoryFile: history,
		Prompt:      "> ",
		Color:       true,
		Server: ServerConfig{
			Host:           "0.0.0.0",
			HTTPPort:       8787,
			GRPCPort:       8788,
			MaxSourceBytes: 128 * 1024,
		},
		Store: StoreConfig{MaxEntries: 1000},
		Log:   logger.DefaultConfig(),
	}
}

// Load returns the defaults overlaid with the YAML file at path (skipped
// when path is empty) and the process environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open config: %w", err)
		}
		defer f.Close()
		if err := cfg.Decode(f); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode overlays YAML from r onto cfg. Unknown keys are rejected.
func (c *Config) Decode(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil {
		return fmt.Errorf("decode yaml: %w", err)
	}
	return nil
}

// ApplyEnv overlays LOXIDE_* variables found through lookup. Every
// malformed value is reported.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	var errs error
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = n
		}
	}
	flag := func(key string, dst *bool) {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = b
		}
	}

	num("MAX_DEPTH", &c.MaxDepth)
	str("HISTORY_FILE", &c.HistoryFile)
	str("PROMPT", &c.Prompt)
	flag("COLOR", &c.Color)
	flag("SHOW_TOKENS", &c.ShowTokens)
	flag("SHOW_AST", &c.ShowAST)
	str("HOST", &c.Server.Host)
	num("HTTP_PORT", &c.Server.HTTPPort)
	num("GRPC_PORT", &c.Server.GRPCPort)
	num("MAX_SOURCE_BYTES", &c.Server.MaxSourceBytes)
	num("STORE_MAX_ENTRIES", &c.Store.MaxEntries)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("LOG_OUTPUT", &c.Log.Output)
	str("LOG_FILE", &c.Log.FilePath)

	// NO_COLOR is honoured regardless of prefix.
	if v, ok := lookup("NO_COLOR"); ok && v != "" {
		c.Color = false
	}
	return errs
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs error
	if c.MaxDepth < 1 {
		errs = multierr.Append(errs, errors.New("max_depth must be positive"))
	}
	if c.Server.HTTPPort < 0 || c.Server.HTTPPort > 65535 {
		errs = multierr.Append(errs, fmt.Errorf("server.http_port %d out of range", c.Server.HTTPPort))
	}
	if c.Server.GRPCPort < 0 || c.Server.GRPCPort > 65535 {
		errs = multierr.Append(errs, fmt.Errorf("server.grpc_port %d out of range", c.Server.GRPCPort))
	}
	if c.Server.MaxSourceBytes < 1 {
		errs = multierr.Append(errs, errors.New("server.max_source_bytes must be positive"))
	}
	if c.Store.MaxEntries < 1 {
		errs = multierr.Append(errs, errors.New("store.max_entries must be positive"))
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("log.level: %w", err))
	}
	return errs
}
