package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Sources  SourcesConfig  `yaml:"sources"`
	Server   ServerConfig   `yaml:"server"`
}

// DatabaseConfig configures SQLite storage.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ScheduleConfig configures the refresh interval and retention window.
type ScheduleConfig struct {
	RefreshInterval string `yaml:"refresh_interval"`
	Retention       string `yaml:"retention"`
}

// ParseRefreshInterval returns the refresh interval as time.Duration.
func (s ScheduleConfig) ParseRefreshInterval() time.Duration {
	d, err := time.ParseDuration(s.RefreshInterval)
	if err != nil {
		return 4 * time.Minute
	}
	return d
}

// ParseRetention returns the record retention window as time.Duration.
func (s ScheduleConfig) ParseRetention() time.Duration {
	d, err := time.ParseDuration(s.Retention)
	if err != nil {
		return 24 * time.Hour
	}
	return d
}

// SourcesConfig holds configuration for all trend sources.
type SourcesConfig struct {
	Reddit       RedditConfig       `yaml:"reddit"`
	Twitter      TwitterConfig      `yaml:"twitter"`
	GoogleTrends GoogleTrendsConfig `yaml:"google_trends"`
}

// RedditConfig for the social-link source.
type RedditConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	UserAgent    string `yaml:"user_agent"`
	GlobalLimit  int    `yaml:"global_limit"`
}

// TwitterConfig for the microblog source.
type TwitterConfig struct {
	BearerToken string   `yaml:"bearer_token"`
	NitterURL   string   `yaml:"nitter_url"`
	Accounts    []string `yaml:"accounts"`
}

// GoogleTrendsConfig for the search-trend source.
type GoogleTrendsConfig struct {
	APIKey string `yaml:"api_key"`
	Geo    string `yaml:"geo"`
	Limit  int    `yaml:"limit"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "./insighty.db"},
		Schedule: ScheduleConfig{
			RefreshInterval: "4m",
			Retention:       "24h",
		},
		Sources: SourcesConfig{
			Reddit: RedditConfig{
				UserAgent:   "insighty/1.0",
				GlobalLimit: 50,
			},
			Twitter: TwitterConfig{
				NitterURL: "https://nitter.net",
				Accounts:  []string{"Techmeme", "verge", "TechCrunch"},
			},
			GoogleTrends: GoogleTrendsConfig{
				Geo:   "IN",
				Limit: 4,
			},
		},
		Server: ServerConfig{Port: 5000},
	}
}

// Load reads configuration from a YAML file and applies env var overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides overrides config values with environment variables.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("INSIGHTY_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("REDDIT_CLIENT_ID"); v != "" {
		cfg.Sources.Reddit.ClientID = v
	}
	if v := os.Getenv("REDDIT_CLIENT_SECRET"); v != "" {
		cfg.Sources.Reddit.ClientSecret = v
	}
	if v := os.Getenv("REDDIT_USER_AGENT"); v != "" {
		cfg.Sources.Reddit.UserAgent = v
	}
	if v := os.Getenv("TWITTER_BEARER_TOKEN"); v != "" {
		cfg.Sources.Twitter.BearerToken = v
	}
	if v := os.Getenv("SERPAPI_KEY"); v != "" {
		cfg.Sources.GoogleTrends.APIKey = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
}
