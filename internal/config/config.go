package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Addr        string `yaml:"addr"`
	FrontendURL string `yaml:"frontend_url"`
}

type LLMConfig struct {
	Provider  string `yaml:"provider"` // "openai" or "anthropic"
	MaxTokens int    `yaml:"max_tokens"`
}

type SearchConfig struct {
	MaxArticles int    `yaml:"max_articles"`
	CallTimeout string `yaml:"call_timeout"`
	CacheTTL    string `yaml:"cache_ttl"`
}

// DefaultsConfig seeds a brand-new profile's view of the world: which sources
// and topics to search before any feedback has been given. Seeds never enter
// the stored profile; they only pad out queries when weights are missing.
type DefaultsConfig struct {
	Sources []string `yaml:"sources"`
	Topics  []string `yaml:"topics"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	LLM      LLMConfig      `yaml:"llm"`
	Search   SearchConfig   `yaml:"search"`
	DataDir  string         `yaml:"data_dir"`
	Defaults DefaultsConfig `yaml:"defaults"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8080"},
		LLM:    LLMConfig{Provider: "openai", MaxTokens: 1500},
		Search: SearchConfig{
			MaxArticles: 8,
			CallTimeout: "30s",
			CacheTTL:    "15m",
		},
		DataDir: "data",
		Defaults: DefaultsConfig{
			Sources: []string{
				"TechCrunch",
				"The Verge",
				"The Wall Street Journal",
				"The Atlantic",
				"New York Times",
				"The Economist",
				"Associated Press",
				"Forbes",
				"Bloomberg",
			},
			Topics: []string{
				"technology and innovation",
				"business and finance",
				"AI and machine learning",
				"startups and venture capital",
				"economic policy",
			},
		},
	}
}

// Load reads the YAML config at path, applying defaults for anything unset.
// A missing file is not an error: the defaults are a complete configuration.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.Addr = ":" + port
	}
	if cfg.Server.FrontendURL == "" {
		cfg.Server.FrontendURL = os.Getenv("FRONTEND_URL")
	}
	if cfg.LLM.MaxTokens <= 0 {
		cfg.LLM.MaxTokens = 1500
	}
	if cfg.Search.MaxArticles <= 0 {
		cfg.Search.MaxArticles = 8
	}

	return cfg, nil
}

func (c *Config) CallTimeout() time.Duration {
	d, err := time.ParseDuration(c.Search.CallTimeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

func (c *Config) CacheTTL() time.Duration {
	d, err := time.ParseDuration(c.Search.CacheTTL)
	if err != nil || d <= 0 {
		return 15 * time.Minute
	}
	return d
}
