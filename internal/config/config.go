package config

import (
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Stripe   StripeConfig   `yaml:"stripe"`
	Agent    AgentConfig    `yaml:"agent"`
	Pricing  PricingConfig  `yaml:"pricing"`
	Alerts   AlertsConfig   `yaml:"alerts"`
	LogLevel string         `yaml:"log_level"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
	Mode string `yaml:"mode"` // debug, release, test
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite, mysql, postgres
	DSN    string `yaml:"dsn"`
}

// RedisConfig enables the asynq-backed run queue when set.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type StripeConfig struct {
	APIKey string `yaml:"api_key"`
}

// AgentConfig selects the run executor and holds per-provider credentials.
// Mode is one of: sdk, simulate, auto. In auto mode the SDK executor is
// used only when at least one provider key is configured; the choice is
// logged at startup so a simulated run is never silent.
type AgentConfig struct {
	Mode            string `yaml:"mode"`
	OpenAIAPIKey    string `yaml:"openai_api_key"`
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	GoogleAPIKey    string `yaml:"google_api_key"`
	GroqAPIKey      string `yaml:"groq_api_key"`
	GroqBaseURL     string `yaml:"groq_base_url"`
	OllamaBaseURL   string `yaml:"ollama_base_url"`
}

// PricingConfig maps provider -> USD per 1K tokens. Providers absent
// from the map fall back to built-in defaults.
type PricingConfig struct {
	PerProvider map[string]float64 `yaml:"per_provider"`
}

// AlertsConfig drives the periodic spend-threshold check.
type AlertsConfig struct {
	Enabled   bool    `yaml:"enabled"`
	Cron      string  `yaml:"cron"`
	Period    string  `yaml:"period"`
	Threshold float64 `yaml:"threshold"`
}

func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	var cfg *Config

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg = DefaultConfig()
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}

		var fileCfg Config
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, err
		}
		cfg = &fileCfg
	}

	cfg.overrideFromEnv()
	return cfg, nil
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: "8080",
			Mode: "debug",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "costs.db",
		},
		Redis: RedisConfig{
			Enabled: false,
			Addr:    "localhost:6379",
			DB:      0,
		},
		Agent: AgentConfig{
			Mode:          "auto",
			GroqBaseURL:   "https://api.groq.com/openai/v1",
			OllamaBaseURL: "http://localhost:11434",
		},
		Alerts: AlertsConfig{
			Enabled:   false,
			Cron:      "0 * * * *",
			Period:    "day",
			Threshold: 10.0,
		},
		LogLevel: "info",
	}
}

func (c *Config) overrideFromEnv() {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		c.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		c.Server.Port = port
	}
	if mode := os.Getenv("SERVER_MODE"); mode != "" {
		c.Server.Mode = mode
	}
	if driver := os.Getenv("DB_DRIVER"); driver != "" {
		c.Database.Driver = driver
	}
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		c.Database.DSN = dsn
	}
	if key := os.Getenv("STRIPE_API_KEY"); key != "" {
		c.Stripe.APIKey = key
	}
	if mode := os.Getenv("AGENT_MODE"); mode != "" {
		c.Agent.Mode = mode
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.Agent.OpenAIAPIKey = key
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		c.Agent.AnthropicAPIKey = key
	}
	if key := os.Getenv("GOOGLE_API_KEY"); key != "" {
		c.Agent.GoogleAPIKey = key
	}
	if key := os.Getenv("GROQ_API_KEY"); key != "" {
		c.Agent.GroqAPIKey = key
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.LogLevel = level
	}
	// Redis URL override (format: redis://:password@host:port/db)
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		c.Redis.Enabled = true
		c.parseRedisURL(redisURL)
	}
}

// parseRedisURL parses a Redis URL and sets config values
// Format: redis://:password@host:port/db
func (c *Config) parseRedisURL(redisURL string) {
	url := strings.TrimPrefix(redisURL, "redis://")

	if atIdx := strings.Index(url, "@"); atIdx != -1 {
		authPart := url[:atIdx]
		url = url[atIdx+1:]
		if colonIdx := strings.Index(authPart, ":"); colonIdx != -1 {
			c.Redis.Password = authPart[colonIdx+1:]
		}
	}

	if slashIdx := strings.LastIndex(url, "/"); slashIdx != -1 {
		dbStr := url[slashIdx+1:]
		url = url[:slashIdx]
		if db, err := strconv.Atoi(dbStr); err == nil {
			c.Redis.DB = db
		}
	}

	c.Redis.Addr = url
}
