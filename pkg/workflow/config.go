package workflow

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/passionateSandy2004/agenticShopping/pkg/providers/gemini"
	"github.com/passionateSandy2004/agenticShopping/pkg/retry"
)

// DefaultQuery is the console variant's fixed query when none is supplied.
const DefaultQuery = "search for google pixel 8 and give me the price in amazon and flipkart " +
	"and also i want to know what is the meme that is going about the that product in the social media"

// Config is the top-level workflow configuration.
type Config struct {
	Gemini   GeminiConfig `yaml:"gemini"`
	MCP      MCPConfig    `yaml:"mcp"`
	Retry    RetryConfig  `yaml:"retry"`
	MaxTurns int          `yaml:"max_turns"`
	Query    string       `yaml:"query"`
	Goals    GoalsConfig  `yaml:"goals"`
}

// GeminiConfig describes the model backend.
type GeminiConfig struct {
	APIKey  string `yaml:"api_key"` //nolint:gosec // configuration field, not a hardcoded secret
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// MCPConfig describes the tool-session server subprocess.
type MCPConfig struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
	Env     []string `yaml:"env"` // "KEY=value" entries added to the subprocess environment.
}

// RetryConfig controls the retrying invoker. Delays are duration strings
// (e.g. "1.2s", "500ms").
type RetryConfig struct {
	MaxAttempts    int    `yaml:"max_attempts"`
	BaseDelay      string `yaml:"base_delay"`
	AttemptTimeout string `yaml:"attempt_timeout"`
}

// GoalsConfig optionally overrides the fixed section goals.
type GoalsConfig struct {
	Product string `yaml:"product"`
	Price   string `yaml:"price"`
	News    string `yaml:"news"`
}

// FromEnv returns a Config built from environment variables. Both tokens
// default to the empty string when unset; failures then surface later as
// auth errors from the respective backend.
func FromEnv() Config {
	cfg := Config{
		Gemini: GeminiConfig{
			APIKey: os.Getenv("GOOGLE_API_KEY"),
		},
		MCP: MCPConfig{
			Env: []string{"API_TOKEN=" + os.Getenv("BRIGHT_DATA_API_TOKEN")},
		},
	}
	cfg.applyDefaults()
	return cfg
}

// Load reads a YAML file and returns a Config. Environment variables
// referenced as ${VAR} or $VAR in the YAML are expanded before parsing, so
// API keys can be kept in the environment (e.g. loaded from a .env file)
// rather than committed in the config.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-provided configuration
	if err != nil {
		return Config{}, fmt.Errorf("workflow: load config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, fmt.Errorf("workflow: parse config: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

// applyDefaults fills unset fields with the stock values.
func (c *Config) applyDefaults() {
	if c.Gemini.BaseURL == "" {
		c.Gemini.BaseURL = gemini.DefaultBaseURL
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-2.0-flash"
	}
	if c.MCP.Command == "" {
		c.MCP.Command = "npx"
		c.MCP.Args = []string{"-y", "@brightdata/mcp"}
	}
	if c.Query == "" {
		c.Query = DefaultQuery
	}
}

// Validate checks that the configuration is internally consistent. API keys
// are intentionally not validated here; their absence surfaces as auth
// errors from the collaborating services.
func (c Config) Validate() error {
	if c.Gemini.Model == "" {
		return fmt.Errorf("workflow: config: gemini model is required")
	}
	if c.MCP.Command == "" {
		return fmt.Errorf("workflow: config: mcp command is required")
	}
	if _, err := c.Retry.Policy(); err != nil {
		return err
	}
	return nil
}

// Policy converts the retry settings into a retry.Policy, falling back to
// the stock policy for unset fields.
func (rc RetryConfig) Policy() (retry.Policy, error) {
	p := retry.Default()

	if rc.MaxAttempts > 0 {
		p.MaxAttempts = rc.MaxAttempts
	}

	if rc.BaseDelay != "" {
		d, err := time.ParseDuration(rc.BaseDelay)
		if err != nil {
			return retry.Policy{}, fmt.Errorf("workflow: config: base_delay: %w", err)
		}
		p.BaseDelay = d
	}

	if rc.AttemptTimeout != "" {
		d, err := time.ParseDuration(rc.AttemptTimeout)
		if err != nil {
			return retry.Policy{}, fmt.Errorf("workflow: config: attempt_timeout: %w", err)
		}
		p.AttemptTimeout = d
	}

	return p, nil
}
