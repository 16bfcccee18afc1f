package common

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/ternarybob/sitechat/internal/interfaces"
)

// Config represents the application configuration
type Config struct {
	Environment string         `toml:"environment"` // "development" or "production"
	Server      ServerConfig   `toml:"server"`
	Storage     StorageConfig  `toml:"storage"`
	Logging     LoggingConfig  `toml:"logging"`
	Crawler     CrawlerConfig  `toml:"crawler"`
	Context     ContextConfig  `toml:"context"`
	LLM         LLMConfig      `toml:"llm"`
	DeepSeek    DeepSeekConfig `toml:"deepseek"`
	Claude      ClaudeConfig   `toml:"claude"`
	Gemini      GeminiConfig   `toml:"gemini"`
}

type ServerConfig struct {
	Port               int    `toml:"port"`
	Host               string `toml:"host"`
	TenantHeader       string `toml:"tenant_header"`         // Header carrying the opaque tenant id (set by the auth layer)
	RateLimitPerMinute int    `toml:"rate_limit_per_minute"` // Per-tenant request budget, 0 disables limiting
	WriteTimeout       string `toml:"write_timeout"`         // Must exceed crawler navigation + llm timeouts
}

type StorageConfig struct {
	Type   string       `toml:"type"` // "badger" (default) or "sqlite"
	Badger BadgerConfig `toml:"badger"`
	SQLite SQLiteConfig `toml:"sqlite"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
	InMemory       bool   `toml:"in_memory"`        // Keep everything in memory (tests, throwaway runs)
}

// SQLiteConfig represents SQLite-specific configuration
type SQLiteConfig struct {
	Path          string `toml:"path"`
	BusyTimeoutMS int    `toml:"busy_timeout_ms"`
	WALMode       bool   `toml:"wal_mode"`
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

// CrawlerConfig controls the headless browser used by the extractor
type CrawlerConfig struct {
	Engine            string        `toml:"engine"`             // "chromedp" (default) or "rod"
	MaxInstances      int           `toml:"max_instances"`      // Concurrent browser tabs across all tenants
	UserAgent         string        `toml:"user_agent"`         // User agent presented by the browser
	Headless          bool          `toml:"headless"`           // Run the browser without a window
	NoSandbox         bool          `toml:"no_sandbox"`         // Needed when running as root in containers
	NavigationTimeout time.Duration `toml:"navigation_timeout"` // Upper bound for navigation plus network settle
	NetworkIdle       time.Duration `toml:"network_idle"`       // Quiet window with zero in-flight requests
	RefreshSchedule   string        `toml:"refresh_schedule"`   // Cron expression for re-scraping stored sites, empty disables
}

// ContextConfig bounds the prompt assembled from a snapshot
type ContextConfig struct {
	MaxChars int `toml:"max_chars"` // Upper bound in characters (runes) for the assembled prompt
}

// LLMConfig selects the completion provider and fixes generation parameters
type LLMConfig struct {
	Provider    string  `toml:"provider"`    // "deepseek" (default), "claude" or "gemini"
	MaxTokens   int     `toml:"max_tokens"`  // Bounded output length
	Temperature float32 `toml:"temperature"` // Sampling temperature
	Timeout     string  `toml:"timeout"`     // Request timeout as duration string
}

// DeepSeekConfig configures any OpenAI-compatible chat completions endpoint
type DeepSeekConfig struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
	Model   string `toml:"model"`
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"` // Optional override, used by tests and proxies
	Model   string `toml:"model"`
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey string `toml:"api_key"`
	Model  string `toml:"model"`
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port:               8080,
			Host:               "localhost",
			TenantHeader:       "X-Tenant-ID",
			RateLimitPerMinute: 30,
			WriteTimeout:       "2m",
		},
		Storage: StorageConfig{
			Type: "badger",
			Badger: BadgerConfig{
				Path: "./data",
			},
			SQLite: SQLiteConfig{
				Path:          "./data/sitechat.db",
				BusyTimeoutMS: 5000,
				WALMode:       true,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout", "file"},
		},
		Crawler: CrawlerConfig{
			Engine:            "chromedp",
			MaxInstances:      2,
			UserAgent:         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			Headless:          true,
			NoSandbox:         true,
			NavigationTimeout: 30 * time.Second,
			NetworkIdle:       500 * time.Millisecond, // Same quiet window as puppeteer's networkidle0
		},
		Context: ContextConfig{
			MaxChars: 24000,
		},
		LLM: LLMConfig{
			Provider:    "deepseek",
			MaxTokens:   500,
			Temperature: 0.7,
			Timeout:     "30s",
		},
		DeepSeek: DeepSeekConfig{
			BaseURL: "https://api.deepseek.com/v1",
			Model:   "deepseek-chat",
		},
		Claude: ClaudeConfig{
			Model: "claude-haiku-4-5",
		},
		Gemini: GeminiConfig{
			Model: "gemini-2.5-flash",
		},
	}
}

// LoadFromFiles loads configuration with priority: defaults -> file1 -> file2 -> ... -> env.
// Later files override earlier files. CLI flags are applied afterwards by the caller.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies SITECHAT_* environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("SITECHAT_ENV"); env != "" {
		config.Environment = env
	}

	if port := os.Getenv("SITECHAT_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("SITECHAT_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	if storageType := os.Getenv("SITECHAT_STORAGE_TYPE"); storageType != "" {
		config.Storage.Type = storageType
	}
	if badgerPath := os.Getenv("SITECHAT_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}
	if sqlitePath := os.Getenv("SITECHAT_SQLITE_PATH"); sqlitePath != "" {
		config.Storage.SQLite.Path = sqlitePath
	}

	if level := os.Getenv("SITECHAT_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("SITECHAT_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	if engine := os.Getenv("SITECHAT_CRAWLER_ENGINE"); engine != "" {
		config.Crawler.Engine = engine
	}
	if maxInstances := os.Getenv("SITECHAT_CRAWLER_MAX_INSTANCES"); maxInstances != "" {
		if n, err := strconv.Atoi(maxInstances); err == nil {
			config.Crawler.MaxInstances = n
		}
	}
	if timeout := os.Getenv("SITECHAT_CRAWLER_NAVIGATION_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Crawler.NavigationTimeout = d
		}
	}

	if maxChars := os.Getenv("SITECHAT_CONTEXT_MAX_CHARS"); maxChars != "" {
		if n, err := strconv.Atoi(maxChars); err == nil {
			config.Context.MaxChars = n
		}
	}

	if provider := os.Getenv("SITECHAT_LLM_PROVIDER"); provider != "" {
		config.LLM.Provider = provider
	}
	if timeout := os.Getenv("SITECHAT_LLM_TIMEOUT"); timeout != "" {
		config.LLM.Timeout = timeout
	}
	if model := os.Getenv("SITECHAT_DEEPSEEK_MODEL"); model != "" {
		config.DeepSeek.Model = model
	}
	if baseURL := os.Getenv("SITECHAT_DEEPSEEK_BASE_URL"); baseURL != "" {
		config.DeepSeek.BaseURL = baseURL
	}
	if model := os.Getenv("SITECHAT_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}
	if model := os.Getenv("SITECHAT_GEMINI_MODEL"); model != "" {
		config.Gemini.Model = model
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate checks values that would otherwise fail deep inside a request
func (c *Config) Validate() error {
	switch c.Storage.Type {
	case "", "badger", "sqlite":
	default:
		return fmt.Errorf("unsupported storage type: %s (expected 'badger' or 'sqlite')", c.Storage.Type)
	}

	switch c.Crawler.Engine {
	case "", "chromedp", "rod":
	default:
		return fmt.Errorf("unsupported crawler engine: %s (expected 'chromedp' or 'rod')", c.Crawler.Engine)
	}
	if c.Crawler.MaxInstances <= 0 {
		return fmt.Errorf("crawler.max_instances must be greater than 0, got: %d", c.Crawler.MaxInstances)
	}
	if c.Crawler.NavigationTimeout <= 0 {
		return fmt.Errorf("crawler.navigation_timeout must be positive")
	}

	if c.Context.MaxChars <= 0 {
		return fmt.Errorf("context.max_chars must be greater than 0, got: %d", c.Context.MaxChars)
	}

	switch c.LLM.Provider {
	case "deepseek", "claude", "gemini":
	default:
		return fmt.Errorf("unsupported llm provider: %s (expected 'deepseek', 'claude' or 'gemini')", c.LLM.Provider)
	}
	if c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("llm.max_tokens must be greater than 0, got: %d", c.LLM.MaxTokens)
	}
	if _, err := c.LLMTimeout(); err != nil {
		return err
	}

	return nil
}

// LLMTimeout parses the completion request timeout
func (c *Config) LLMTimeout() (time.Duration, error) {
	timeout, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid llm.timeout '%s': %w", c.LLM.Timeout, err)
	}
	if timeout <= 0 {
		return 0, fmt.Errorf("llm.timeout must be positive, got: %s", c.LLM.Timeout)
	}
	return timeout, nil
}

// ServerWriteTimeout parses the HTTP write timeout, falling back to two minutes
func (c *Config) ServerWriteTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.WriteTimeout)
	if err != nil || d <= 0 {
		return 2 * time.Minute
	}
	return d
}

// ResolveAPIKey resolves an API key by name.
// Resolution order: environment variables -> KV store -> config fallback -> error
func ResolveAPIKey(ctx context.Context, kvStorage interfaces.KeyValueStorage, name string, configFallback string) (string, error) {
	keyToEnvMapping := map[string][]string{
		"deepseek_api_key":  {"SITECHAT_DEEPSEEK_API_KEY", "DEEPSEEK_API_KEY"},
		"anthropic_api_key": {"SITECHAT_CLAUDE_API_KEY", "ANTHROPIC_API_KEY"},
		"gemini_api_key":    {"SITECHAT_GEMINI_API_KEY", "GEMINI_API_KEY"},
	}

	if envVarNames, ok := keyToEnvMapping[name]; ok {
		for _, envVarName := range envVarNames {
			if envValue := os.Getenv(envVarName); envValue != "" {
				return envValue, nil
			}
		}
	}

	if kvStorage != nil {
		apiKey, err := kvStorage.Get(ctx, name)
		if err == nil && apiKey != "" {
			return apiKey, nil
		}
	}

	if configFallback != "" {
		return configFallback, nil
	}

	return "", fmt.Errorf("API key '%s' not found in environment, KV store, or config", name)
}
