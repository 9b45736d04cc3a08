package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is read from the working directory when --config is not given.
const DefaultConfigFile = "photoaudit.yaml"

// ErrMissingAPIKey is returned by Validate when no credential is configured.
var ErrMissingAPIKey = errors.New("API key not configured (set GOOGLE_API_KEY or GEMINI_API_KEY)")

// Config holds all photoaudit configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Reasoning backend
	LLM LLMConfig `yaml:"llm"`

	// Rubric asset selection
	Rubric RubricConfig `yaml:"rubric"`

	// Tag directory extraction
	Exif ExifConfig `yaml:"exif"`

	// Image intake
	Image ImageConfig `yaml:"image"`

	// Browser session server
	Server ServerConfig `yaml:"server"`

	// Hardware technician agent server
	Agent AgentConfig `yaml:"agent"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// RubricConfig selects the rubric asset.
type RubricConfig struct {
	Name string `yaml:"name"` // embedded rubric name: audit, hardware
	Path string `yaml:"path"` // optional YAML file overriding the embedded asset
}

// ExifConfig configures metadata extraction.
type ExifConfig struct {
	// Extra tag names removed before the map is returned.
	// MakerNote is always removed regardless of this list.
	Redact []string `yaml:"redact"`
}

// ImageConfig configures image intake.
type ImageConfig struct {
	MaxBytes    int64 `yaml:"max_bytes"`
	JPEGQuality int   `yaml:"jpeg_quality"`
}

// ServerConfig configures the browser session server.
type ServerConfig struct {
	Addr            string `yaml:"addr"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// AgentConfig configures the hardware technician agent.
type AgentConfig struct {
	Addr        string `yaml:"addr"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Rubric      string `yaml:"rubric"`
	Root        string `yaml:"root"` // confines path requests; empty allows any path
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "photoaudit",
		Version: "0.3.0",

		LLM: LLMConfig{
			Provider: ProviderGenAI,
			Model:    DefaultModel,
		},

		Rubric: RubricConfig{
			Name: "audit",
		},

		Image: ImageConfig{
			MaxBytes:    15 * 1024 * 1024,
			JPEGQuality: 92,
		},

		Server: ServerConfig{
			Addr:            ":8501",
			ShutdownTimeout: "10s",
		},

		Agent: AgentConfig{
			Addr:        "localhost:8001",
			Name:        "hardware_technician",
			Description: "Specialist in hardware health. Accesses local images via file paths.",
			Rubric:      "hardware",
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadDotEnv loads .env files into the process environment. Variables that
// are already set win. Missing files are not an error.
func LoadDotEnv(paths ...string) []string {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	var loaded []string
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err == nil {
			loaded = append(loaded, p)
		}
	}
	return loaded
}

// Load reads configuration from a YAML file and applies environment overrides.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save writes the configuration to a YAML file. The API key is never persisted.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	out := *c
	out.LLM.APIKey = ""

	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	// GOOGLE_API_KEY is the primary credential; GEMINI_API_KEY is accepted when it is unset.
	if key := os.Getenv("GOOGLE_API_KEY"); key != "" {
		c.LLM.APIKey = key
	} else if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}

	if model := os.Getenv("PHOTOAUDIT_MODEL"); model != "" {
		c.LLM.Model = model
	}
	if addr := os.Getenv("PHOTOAUDIT_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if addr := os.Getenv("PHOTOAUDIT_AGENT_ADDR"); addr != "" {
		c.Agent.Addr = addr
	}
	if path := os.Getenv("PHOTOAUDIT_RUBRIC"); path != "" {
		c.Rubric.Path = path
	}
	if level := os.Getenv("PHOTOAUDIT_LOG_LEVEL"); level != "" {
		c.Logging.Level = strings.ToLower(level)
	}
}

// GetLLMTimeout returns the backend deadline. Zero means no deadline.
func (c *Config) GetLLMTimeout() time.Duration {
	return parseDurationOr(c.LLM.Timeout, 0)
}

// GetShutdownTimeout returns how long servers wait for in-flight requests.
func (c *Config) GetShutdownTimeout() time.Duration {
	return parseDurationOr(c.Server.ShutdownTimeout, 10*time.Second)
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

// Validate checks the configuration required to reach the backend.
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return ErrMissingAPIKey
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("llm.model must not be empty")
	}
	if c.LLM.Provider != ProviderGenAI {
		return fmt.Errorf("invalid LLM provider: %s (valid: %s)", c.LLM.Provider, ProviderGenAI)
	}
	if c.LLM.Timeout != "" {
		if _, err := time.ParseDuration(c.LLM.Timeout); err != nil {
			return fmt.Errorf("invalid llm.timeout %q: %w", c.LLM.Timeout, err)
		}
	}
	if c.Image.MaxBytes <= 0 {
		return fmt.Errorf("image.max_bytes must be positive")
	}
	if c.Image.JPEGQuality < 1 || c.Image.JPEGQuality > 100 {
		return fmt.Errorf("image.jpeg_quality must be within 1..100")
	}
	return nil
}
