package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

type Config struct {
	Port     string        `yaml:"port"`
	LogLevel string        `yaml:"log_level"`
	CacheTTL time.Duration `yaml:"cache_ttl"`

	GitHub    GitHubConfig    `yaml:"github"`
	LLM       LLMConfig       `yaml:"llm"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type GitHubConfig struct {
	Token     string `yaml:"token"`
	APIURL    string `yaml:"api_url"`
	RawURL    string `yaml:"raw_url"`
	UserAgent string `yaml:"user_agent"`
}

type LLMConfig struct {
	Provider string `yaml:"provider"`
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
	Model    string `yaml:"model"`
}

// RateLimitConfig is the fixed inbound ceiling: Requests per Window per client.
type RateLimitConfig struct {
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

func defaults() *Config {
	return &Config{
		Port:     "4000",
		LogLevel: "info",
		CacheTTL: time.Hour,
		GitHub: GitHubConfig{
			APIURL:    "https://api.github.com/",
			RawURL:    "https://raw.githubusercontent.com/",
			UserAgent: "repo-analyzer",
		},
		LLM: LLMConfig{
			Provider: ProviderGemini,
		},
		RateLimit: RateLimitConfig{
			Requests: 60,
			Window:   time.Minute,
		},
	}
}

// Load reads configuration from defaults, an optional YAML file and the
// environment (a .env file in the working directory is honored), in that
// order of precedence.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.CacheTTL = getEnvDuration("CACHE_TTL", cfg.CacheTTL)

	cfg.GitHub.Token = getEnv("GITHUB_TOKEN", cfg.GitHub.Token)
	cfg.GitHub.APIURL = getEnv("GITHUB_API_URL", cfg.GitHub.APIURL)
	cfg.GitHub.RawURL = getEnv("GITHUB_RAW_URL", cfg.GitHub.RawURL)

	cfg.RateLimit.Requests = getEnvInt("RATE_LIMIT", cfg.RateLimit.Requests)
	cfg.RateLimit.Window = getEnvDuration("RATE_WINDOW", cfg.RateLimit.Window)

	loadLLM(&cfg.LLM)

	// go-github resolves paths relative to the base URL
	if !strings.HasSuffix(cfg.GitHub.APIURL, "/") {
		cfg.GitHub.APIURL += "/"
	}
	if !strings.HasSuffix(cfg.GitHub.RawURL, "/") {
		cfg.GitHub.RawURL += "/"
	}

	return cfg, nil
}

func loadLLM(l *LLMConfig) {
	l.Provider = strings.ToLower(getEnv("LLM_PROVIDER", l.Provider))

	switch l.Provider {
	case ProviderOpenAI:
		l.APIKey = getEnv("LLM_API_KEY", l.APIKey)
		l.BaseURL = getEnv("LLM_BASE_URL", l.BaseURL)
		l.Model = getEnv("LLM_MODEL", l.Model)
		if l.BaseURL == "" {
			l.BaseURL = "https://api.openai.com/v1"
		}
		if l.Model == "" {
			l.Model = "gpt-4o-mini"
		}
	default:
		l.APIKey = getEnv("GEMINI_API_KEY", getEnv("LLM_API_KEY", l.APIKey))
		l.Model = getEnv("GEMINI_MODEL", getEnv("LLM_MODEL", l.Model))
		l.BaseURL = getEnv("LLM_BASE_URL", l.BaseURL)
		if l.Model == "" {
			l.Model = "gemini-2.5-flash"
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
