package utils

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	LLM    LLMConfig    `yaml:"llm"`
	UI     UIConfig     `yaml:"ui"`
	Data   DataConfig   `yaml:"data"`
	Server ServerConfig `yaml:"server"`
	Proxy  ProxyConfig  `yaml:"proxy"`
	Debug  bool         `yaml:"debug"`
}

// LLMConfig selects the generative backend and configures each provider
type LLMConfig struct {
	Provider string         `yaml:"provider"` // gemini, openai
	Gemini   ProviderConfig `yaml:"gemini"`
	OpenAI   ProviderConfig `yaml:"openai"`
}

// ProviderConfig represents LLM provider configuration
type ProviderConfig struct {
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url,omitempty"`
	Model       string  `yaml:"model"`
	ImageModel  string  `yaml:"image_model"`
	MaxTokens   int     `yaml:"max_tokens,omitempty"`
	Temperature float64 `yaml:"temperature,omitempty"`
	Timeout     int     `yaml:"timeout,omitempty"` // seconds, 0 leaves it to the transport
}

// UIConfig represents desktop UI configuration
type UIConfig struct {
	WindowWidth       int `yaml:"window_width"`
	WindowHeight      int `yaml:"window_height"`
	TransitionMillis  int `yaml:"transition_ms"`
	IdlePromptSeconds int `yaml:"idle_prompt_seconds"`
}

// Storage backends
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// DataConfig represents data storage configuration
type DataConfig struct {
	Backend string      `yaml:"backend"`
	DBPath  string      `yaml:"db_path"`
	Redis   RedisConfig `yaml:"redis"`
}

// RedisConfig configures the Redis storage backend
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// ServerConfig configures the browser-facing HTTP API
type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	JWTSecret      string   `yaml:"jwt_secret"`
	TokenTTL       string   `yaml:"token_ttl"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// ProxyConfig represents proxy configuration
type ProxyConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
}

// DefaultAllowedOrigins are the local web client origins
func DefaultAllowedOrigins() []string {
	return []string{
		"http://localhost:3000",
		"http://localhost:5173",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5173",
	}
}

// DefaultConfig returns the configuration written on first start
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider: "gemini",
			Gemini: ProviderConfig{
				Model:      "gemini-2.5-flash",
				ImageModel: "gemini-2.5-flash-image",
			},
			OpenAI: ProviderConfig{
				BaseURL:     "https://api.openai.com/v1",
				Model:       "gpt-4o-mini",
				ImageModel:  "dall-e-3",
				MaxTokens:   4096,
				Temperature: 0.7,
			},
		},
		UI: UIConfig{
			WindowWidth:       1200,
			WindowHeight:      800,
			TransitionMillis:  400,
			IdlePromptSeconds: 15,
		},
		Data: DataConfig{
			Backend: BackendSQLite,
			DBPath:  "./data/hustlegenie.db",
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "hustlegenie:",
			},
		},
		Server: ServerConfig{
			Addr:     ":8080",
			TokenTTL: "24h",
			AllowedOrigins: DefaultAllowedOrigins(),
		},
	}
}

// LoadConfig loads configuration from file and applies environment overrides
func LoadConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.applyEnvOverrides()

	if len(config.Server.AllowedOrigins) == 0 {
		config.Server.AllowedOrigins = DefaultAllowedOrigins()
	}
	if config.Data.DBPath != "" {
		config.Data.DBPath = expandPath(config.Data.DBPath)
	}

	return config, nil
}

// SaveConfig saves configuration to file
func SaveConfig(configPath string, config *Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// applyEnvOverrides lets secrets live outside the config file
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.LLM.Gemini.APIKey = key
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.LLM.OpenAI.APIKey = key
		// Only the OpenAI key is available: use it
		if c.LLM.Gemini.APIKey == "" {
			c.LLM.Provider = "openai"
		}
	}
	if provider := os.Getenv("HUSTLEGENIE_PROVIDER"); provider != "" {
		c.LLM.Provider = strings.ToLower(provider)
	}
	if secret := os.Getenv("HUSTLEGENIE_JWT_SECRET"); secret != "" {
		c.Server.JWTSecret = secret
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		c.Data.Redis.Addr = addr
	}
}

// TokenTTLDuration parses Server.TokenTTL, falling back to 24h
func (c *Config) TokenTTLDuration() time.Duration {
	d, err := time.ParseDuration(c.Server.TokenTTL)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}

// HTTPClient returns the client providers should use, routed through the
// configured proxy when enabled
func (c *Config) HTTPClient() *http.Client {
	if !c.Proxy.Enabled || c.Proxy.URL == "" {
		return &http.Client{}
	}
	proxyURL, err := url.Parse(c.Proxy.URL)
	if err != nil {
		return &http.Client{}
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = http.ProxyURL(proxyURL)
	return &http.Client{Transport: transport}
}

// expandPath expands ~ and relative paths
func expandPath(path string) string {
	if len(path) == 0 {
		return path
	}

	if path[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[1:])
		}
	}

	absPath, err := filepath.Abs(path)
	if err == nil {
		return absPath
	}

	return path
}

// GetConfigPath returns the default config path
func GetConfigPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "./config/config.yaml"
	}

	return filepath.Join(configDir, "hustle-genie", "config.yaml")
}

// EnsureDefaultConfig creates a default config file if it doesn't exist
func EnsureDefaultConfig() (string, error) {
	configPath := GetConfigPath()

	if _, err := os.Stat(configPath); err == nil {
		return configPath, nil
	}

	if err := SaveConfig(configPath, DefaultConfig()); err != nil {
		return "", err
	}

	return configPath, nil
}
