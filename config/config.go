// Package config loads contractbot configuration from YAML and the
// environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all contractbot configuration.
type Config struct {
	// Messaging transport
	Telegram TelegramConfig `yaml:"telegram"`

	// Conversation state storage
	Session SessionConfig `yaml:"session"`

	// Contract numbering
	Sequence SequenceConfig `yaml:"sequence"`

	// Template rendering and output
	Document DocumentConfig `yaml:"document"`

	// External compiler
	Latex LatexConfig `yaml:"latex"`

	// Optional registry of issued contracts
	Registry RegistryConfig `yaml:"registry"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// TelegramConfig configures the bot transport.
type TelegramConfig struct {
	Token            string `yaml:"token"`
	AdminChatID      int64  `yaml:"admin_chat_id"`
	PollTimeout      int    `yaml:"poll_timeout"` // seconds
	MaxInFlight      int    `yaml:"max_in_flight"`
	Debug            bool   `yaml:"debug"`
	PrivacyPolicyURL string `yaml:"privacy_policy_url"`
}

// SessionConfig configures the session store.
type SessionConfig struct {
	Driver        string `yaml:"driver"` // memory, redis
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	KeyPrefix     string `yaml:"key_prefix"`
	TTL           string `yaml:"ttl"`
}

// SequenceConfig configures the contract number counter.
type SequenceConfig struct {
	Driver string `yaml:"driver"` // memory, sqlite
	Path   string `yaml:"path"`
	Start  int    `yaml:"start"`
}

// DocumentConfig configures the compilation pipeline.
type DocumentConfig struct {
	TemplatePath string `yaml:"template_path"`
	LeftDelim    string `yaml:"left_delim"`
	RightDelim   string `yaml:"right_delim"`
	OutputDir    string `yaml:"output_dir"`
	WorkDir      string `yaml:"work_dir"`
	MaxLogBytes  int    `yaml:"max_log_bytes"`
}

// LatexConfig configures the latexmk invocation.
type LatexConfig struct {
	Binary         string `yaml:"binary"`
	Engine         string `yaml:"engine"`
	Timeout        string `yaml:"timeout"`
	MaxOutputBytes int    `yaml:"max_output_bytes"`
}

// RegistryConfig configures the Supabase contract registry. The registry
// is enabled when both URL and key are set.
type RegistryConfig struct {
	SupabaseURL string `yaml:"supabase_url"`
	SupabaseKey string `yaml:"supabase_key"`
	Table       string `yaml:"table"`
	CacheTTL    string `yaml:"cache_ttl"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
	File   string `yaml:"file"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Telegram: TelegramConfig{
			PollTimeout: 60,
			MaxInFlight: 32,
		},

		Session: SessionConfig{
			Driver:    "memory",
			KeyPrefix: "contractbot:session:",
			TTL:       "24h",
		},

		Sequence: SequenceConfig{
			Driver: "memory",
			Path:   "data/sequence.db",
			Start:  1,
		},

		Document: DocumentConfig{
			TemplatePath: "templates/contract.tex",
			LeftDelim:    "[[",
			RightDelim:   "]]",
			OutputDir:    ".",
			MaxLogBytes:  4096,
		},

		Latex: LatexConfig{
			Binary:         "latexmk",
			Engine:         "pdflatex",
			Timeout:        "120s",
			MaxOutputBytes: 64 * 1024,
		},

		Registry: RegistryConfig{
			Table:    "contracts",
			CacheTTL: "5m",
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides apply in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case os.IsNotExist(err):
		// Defaults
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv exports the variables of a dotenv file into the process
// environment ahead of Load. Variables already set keep their values. A
// missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() error {
	// Bot token, legacy name first
	if v := os.Getenv("API_KEY"); v != "" {
		c.Telegram.Token = v
	}
	if v := os.Getenv("CONTRACTBOT_TELEGRAM_TOKEN"); v != "" {
		c.Telegram.Token = v
	}

	for _, name := range []string{"ADMIN_ID", "CONTRACTBOT_ADMIN_CHAT_ID"} {
		v := os.Getenv(name)
		if v == "" {
			continue
		}
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, v, err)
		}
		c.Telegram.AdminChatID = id
	}

	if addr := os.Getenv("CONTRACTBOT_REDIS_ADDR"); addr != "" {
		c.Session.RedisAddr = addr
		c.Session.Driver = "redis"
	}
	if path := os.Getenv("CONTRACTBOT_SEQUENCE_DB"); path != "" {
		c.Sequence.Path = path
		c.Sequence.Driver = "sqlite"
	}
	if url := os.Getenv("SUPABASE_URL"); url != "" {
		c.Registry.SupabaseURL = url
	}
	if key := os.Getenv("SUPABASE_KEY"); key != "" {
		c.Registry.SupabaseKey = key
	}
	if path := os.Getenv("CONTRACTBOT_TEMPLATE"); path != "" {
		c.Document.TemplatePath = path
	}
	return nil
}

// GetLatexTimeout returns the compiler timeout as a duration.
func (c *Config) GetLatexTimeout() time.Duration {
	d, err := time.ParseDuration(c.Latex.Timeout)
	if err != nil || d <= 0 {
		return 120 * time.Second
	}
	return d
}

// GetSessionTTL returns the redis session TTL as a duration.
func (c *Config) GetSessionTTL() time.Duration {
	d, err := time.ParseDuration(c.Session.TTL)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}

// GetRegistryCacheTTL returns the registry lookup cache TTL as a duration.
func (c *Config) GetRegistryCacheTTL() time.Duration {
	d, err := time.ParseDuration(c.Registry.CacheTTL)
	if err != nil || d <= 0 {
		return 5 * time.Minute
	}
	return d
}

// IsRegistryEnabled returns whether contracts are recorded in Supabase.
func (c *Config) IsRegistryEnabled() bool {
	return c.Registry.SupabaseURL != "" && c.Registry.SupabaseKey != ""
}

// Validate validates everything the bot needs to run.
func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("telegram token not configured (set API_KEY or CONTRACTBOT_TELEGRAM_TOKEN)")
	}
	if c.Telegram.AdminChatID == 0 {
		return fmt.Errorf("admin chat id not configured (set ADMIN_ID or CONTRACTBOT_ADMIN_CHAT_ID)")
	}
	return c.ValidateOffline()
}

// ValidateOffline validates the settings used without the transport, as by
// the render command.
func (c *Config) ValidateOffline() error {
	switch c.Session.Driver {
	case "", "memory":
	case "redis":
		if c.Session.RedisAddr == "" {
			return fmt.Errorf("session driver redis requires redis_addr")
		}
	default:
		return fmt.Errorf("invalid session driver: %s (valid: memory, redis)", c.Session.Driver)
	}

	switch c.Sequence.Driver {
	case "", "memory":
	case "sqlite":
		if c.Sequence.Path == "" {
			return fmt.Errorf("sequence driver sqlite requires path")
		}
	default:
		return fmt.Errorf("invalid sequence driver: %s (valid: memory, sqlite)", c.Sequence.Driver)
	}
	if c.Sequence.Start < 1 {
		return fmt.Errorf("sequence start must be at least 1, got %d", c.Sequence.Start)
	}

	if c.Document.TemplatePath == "" {
		return fmt.Errorf("document template_path not configured")
	}

	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("invalid logging format: %s (valid: json, console)", c.Logging.Format)
	}
	return nil
}
