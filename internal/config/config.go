package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all engram configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	LLM      LLMConfig      `yaml:"llm"`
	Surface  SurfaceConfig  `yaml:"surface"`
}

type ServerConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type LLMConfig struct {
	Provider     string `yaml:"provider"` // "anthropic"
	Model        string `yaml:"model"`
	AnthropicKey string `yaml:"anthropic_key"`
}

type SurfaceConfig struct {
	MaxLines int `yaml:"max_lines"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 37707,
		},
		Database: DatabaseConfig{
			Path: "", // resolved at runtime via store.DefaultDBPath()
		},
		LLM: LLMConfig{
			Provider: "anthropic",
		},
		Surface: SurfaceConfig{
			MaxLines: 120,
		},
	}
}

// DefaultPath returns the default config file path: ~/.engram/config.yaml
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".engram", "config.yaml"), nil
}

// Load reads a yaml config file, layered over defaults. A missing file
// is not an error — defaults apply. ANTHROPIC_API_KEY in the
// environment overrides the configured key.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		cfg.LLM.AnthropicKey = key
	}
	return cfg, nil
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}
