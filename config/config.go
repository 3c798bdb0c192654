package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all service configuration.
type Config struct {
	// Environment
	Environment EnvironmentConfig

	// Server
	HTTPServer HTTPServerConfig
	Logger     LoggerConfig

	// Google APIs
	GoogleCalendar GoogleCalendarConfig
	Gmail          GmailConfig

	// LLM Provider Abstraction
	LLM LLMConfig

	// Scheduling engine
	Scheduling SchedulingConfig
	Dispatcher DispatcherConfig
	Breaker    BreakerConfig
	Storage    StorageConfig

	// Trigger ingress
	Ingress IngressConfig
}

type EnvironmentConfig struct {
	Name string
}

type HTTPServerConfig struct {
	Port int
	Mode string
}

type LoggerConfig struct {
	Level        string
	Mode         string
	Encoding     string
	ColorEnabled bool
}

type GoogleCalendarConfig struct {
	CredentialsPath string
	TokenDir        string // one <user>.json OAuth token per user
	Impersonate     bool   // service account with domain-wide delegation
	CalendarID      string
	Timezone        string
}

type GmailConfig struct {
	Enabled     bool
	Query       string
	MaxMessages int64
}

// SchedulingConfig is the working-time policy. Clock values are "HH:MM".
type SchedulingConfig struct {
	WorkStart       string
	WorkEnd         string
	Breaks          []string // "HH:MM-HH:MM"
	WorkDays        []string
	LookaheadDays   int
	DefaultDuration time.Duration
	MinDuration     time.Duration
	Granularity     time.Duration
	Timezone        string
}

type DispatcherConfig struct {
	RunTimeout        time.Duration
	Retention         time.Duration
	CommitConcurrency int
	GCSchedule        string
}

type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

type StorageConfig struct {
	SQLitePath string
}

type IngressConfig struct {
	Secret          string
	AllowedIPs      []string
	RateLimitPerMin int
}

// LLMConfig holds configuration for the LLM provider abstraction layer
type LLMConfig struct {
	Providers       []ProviderConfig `yaml:"providers"`
	FallbackEnabled bool             `yaml:"fallback_enabled"`
	RetryAttempts   int              `yaml:"retry_attempts"`
	RetryDelay      string           `yaml:"retry_delay"`
	MaxTotalTimeout string           `yaml:"max_total_timeout"` // entire fallback chain
}

// ProviderConfig holds configuration for a single LLM provider
type ProviderConfig struct {
	Name     string `yaml:"name"`
	Enabled  bool   `yaml:"enabled"`
	Priority int    `yaml:"priority"`
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url,omitempty"`
	Model    string `yaml:"model"`
	Timeout  string `yaml:"timeout"`
}

// Load loads configuration using Viper.
// Config file name: config.yaml, searched in ./config, ., /etc/app/
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/app/")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{}

	// Environment & Server
	cfg.Environment.Name = viper.GetString("environment.name")
	cfg.HTTPServer.Port = viper.GetInt("http_server.port")
	cfg.HTTPServer.Mode = viper.GetString("http_server.mode")
	cfg.Logger.Level = viper.GetString("logger.level")
	cfg.Logger.Mode = viper.GetString("logger.mode")
	cfg.Logger.Encoding = viper.GetString("logger.encoding")
	cfg.Logger.ColorEnabled = viper.GetBool("logger.color_enabled")

	// Google APIs
	cfg.GoogleCalendar.CredentialsPath = viper.GetString("google_calendar.credentials_path")
	cfg.GoogleCalendar.TokenDir = viper.GetString("google_calendar.token_dir")
	cfg.GoogleCalendar.Impersonate = viper.GetBool("google_calendar.impersonate")
	cfg.GoogleCalendar.CalendarID = viper.GetString("google_calendar.calendar_id")
	cfg.GoogleCalendar.Timezone = viper.GetString("google_calendar.timezone")
	if googleCreds := viper.GetString("google_calendar_credentials"); googleCreds != "" {
		cfg.GoogleCalendar.CredentialsPath = googleCreds
	}

	cfg.Gmail.Enabled = viper.GetBool("gmail.enabled")
	cfg.Gmail.Query = viper.GetString("gmail.query")
	cfg.Gmail.MaxMessages = viper.GetInt64("gmail.max_messages")

	// LLM Provider Abstraction
	cfg.LLM.FallbackEnabled = viper.GetBool("llm.fallback_enabled")
	cfg.LLM.RetryAttempts = viper.GetInt("llm.retry_attempts")
	cfg.LLM.RetryDelay = viper.GetString("llm.retry_delay")
	cfg.LLM.MaxTotalTimeout = viper.GetString("llm.max_total_timeout")

	// Load provider configurations
	if viper.IsSet("llm.providers") {
		providersRaw := viper.Get("llm.providers")
		if providersList, ok := providersRaw.([]interface{}); ok {
			for _, p := range providersList {
				if providerMap, ok := p.(map[string]interface{}); ok {
					provider := ProviderConfig{
						Name:     getStringFromMap(providerMap, "name"),
						Enabled:  getBoolFromMap(providerMap, "enabled"),
						Priority: getIntFromMap(providerMap, "priority"),
						APIKey:   expandEnvVar(getStringFromMap(providerMap, "api_key")),
						BaseURL:  getStringFromMap(providerMap, "base_url"),
						Model:    getStringFromMap(providerMap, "model"),
						Timeout:  getStringFromMap(providerMap, "timeout"),
					}
					cfg.LLM.Providers = append(cfg.LLM.Providers, provider)
				}
			}
		}
	}

	if err := validateLLMConfig(&cfg.LLM); err != nil {
		return nil, fmt.Errorf("llm: %w - please add llm.providers section to config.yaml", err)
	}

	// Scheduling engine
	cfg.Scheduling.WorkStart = viper.GetString("scheduling.work_start")
	cfg.Scheduling.WorkEnd = viper.GetString("scheduling.work_end")
	cfg.Scheduling.Breaks = splitList(viper.GetStringSlice("scheduling.breaks"))
	cfg.Scheduling.WorkDays = splitList(viper.GetStringSlice("scheduling.work_days"))
	cfg.Scheduling.LookaheadDays = viper.GetInt("scheduling.lookahead_days")
	cfg.Scheduling.DefaultDuration = viper.GetDuration("scheduling.default_duration")
	cfg.Scheduling.MinDuration = viper.GetDuration("scheduling.min_duration")
	cfg.Scheduling.Granularity = viper.GetDuration("scheduling.granularity")
	cfg.Scheduling.Timezone = viper.GetString("scheduling.timezone")

	cfg.Dispatcher.RunTimeout = viper.GetDuration("dispatcher.run_timeout")
	cfg.Dispatcher.Retention = viper.GetDuration("dispatcher.retention")
	cfg.Dispatcher.CommitConcurrency = viper.GetInt("dispatcher.commit_concurrency")
	cfg.Dispatcher.GCSchedule = viper.GetString("dispatcher.gc_schedule")

	cfg.Breaker.MaxRequests = viper.GetUint32("breaker.max_requests")
	cfg.Breaker.Interval = viper.GetDuration("breaker.interval")
	cfg.Breaker.Timeout = viper.GetDuration("breaker.timeout")
	cfg.Breaker.FailureThreshold = viper.GetUint32("breaker.failure_threshold")

	cfg.Storage.SQLitePath = viper.GetString("storage.sqlite_path")

	// Ingress
	cfg.Ingress.Secret = viper.GetString("ingress.secret")
	if secret := viper.GetString("ingress_secret"); secret != "" {
		cfg.Ingress.Secret = secret
	}
	cfg.Ingress.RateLimitPerMin = viper.GetInt("ingress.rate_limit_per_min")
	// Comma separated from env, a list from yaml.
	cfg.Ingress.AllowedIPs = splitList(viper.GetStringSlice("ingress.allowed_ips"))

	return cfg, nil
}

func setDefaults() {
	viper.SetDefault("environment.name", "development")
	viper.SetDefault("http_server.port", 8080)
	viper.SetDefault("http_server.mode", "debug")
	viper.SetDefault("logger.level", "debug")
	viper.SetDefault("logger.mode", "debug")
	viper.SetDefault("logger.encoding", "console")
	viper.SetDefault("logger.color_enabled", true)

	viper.SetDefault("google_calendar.token_dir", "./tokens")
	viper.SetDefault("google_calendar.calendar_id", "primary")
	viper.SetDefault("gmail.enabled", true)
	viper.SetDefault("gmail.query", "is:unread newer_than:1d")
	viper.SetDefault("gmail.max_messages", 3)

	// LLM defaults
	viper.SetDefault("llm.fallback_enabled", true)
	viper.SetDefault("llm.retry_attempts", 3)
	viper.SetDefault("llm.retry_delay", "1s")
	viper.SetDefault("llm.max_total_timeout", "60s") // entire fallback chain

	viper.SetDefault("scheduling.work_start", "09:00")
	viper.SetDefault("scheduling.work_end", "18:00")
	viper.SetDefault("scheduling.breaks", []string{"12:00-13:00"})
	viper.SetDefault("scheduling.work_days", []string{"mon", "tue", "wed", "thu", "fri"})
	viper.SetDefault("scheduling.lookahead_days", 7)
	viper.SetDefault("scheduling.default_duration", "30m")
	viper.SetDefault("scheduling.min_duration", "15m")
	viper.SetDefault("scheduling.granularity", "15m")
	viper.SetDefault("scheduling.timezone", "UTC")

	viper.SetDefault("dispatcher.run_timeout", "2m")
	viper.SetDefault("dispatcher.retention", "1h")
	viper.SetDefault("dispatcher.commit_concurrency", 4)
	viper.SetDefault("dispatcher.gc_schedule", "@every 1m")

	viper.SetDefault("breaker.max_requests", 1)
	viper.SetDefault("breaker.interval", "1m")
	viper.SetDefault("breaker.timeout", "30s")
	viper.SetDefault("breaker.failure_threshold", 5)

	viper.SetDefault("storage.sqlite_path", "./data/scheduler.db")

	viper.SetDefault("ingress.rate_limit_per_min", 60)
}

// splitList flattens entries that carry comma separated values (env overrides).
func splitList(raw []string) []string {
	var out []string
	for _, item := range raw {
		for _, v := range strings.Split(item, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

// expandEnvVar expands environment variables in the format ${VAR_NAME}
func expandEnvVar(value string) string {
	if value == "" {
		return value
	}

	// Check if value is in format ${VAR_NAME}
	if strings.HasPrefix(value, "${") && strings.HasSuffix(value, "}") {
		envVar := value[2 : len(value)-1]
		// Try viper first (handles both env and config)
		if envValue := viper.GetString(envVar); envValue != "" {
			return envValue
		}
		// Try lowercase version
		if envValue := viper.GetString(strings.ToLower(envVar)); envValue != "" {
			return envValue
		}
		// Try direct os.Getenv as last resort
		if envValue := os.Getenv(envVar); envValue != "" {
			return envValue
		}
	}

	return value
}

// validateLLMConfig validates the LLM configuration
func validateLLMConfig(cfg *LLMConfig) error {
	if len(cfg.Providers) == 0 {
		return fmt.Errorf("no LLM providers configured")
	}

	enabledCount := 0
	priorityMap := make(map[int]bool)

	for i, provider := range cfg.Providers {
		// Check required fields
		if provider.Name == "" {
			return fmt.Errorf("provider %d: name is required", i)
		}
		if provider.Model == "" {
			return fmt.Errorf("provider %s: model is required", provider.Name)
		}

		if provider.Enabled {
			enabledCount++

			// Check priority is valid
			if provider.Priority <= 0 {
				return fmt.Errorf("provider %s: priority must be positive", provider.Name)
			}

			// Check for duplicate priorities
			if priorityMap[provider.Priority] {
				return fmt.Errorf("provider %s: duplicate priority %d", provider.Name, provider.Priority)
			}
			priorityMap[provider.Priority] = true

			// Check API key is set (warning only)
			if provider.APIKey == "" {
				fmt.Printf("Warning: provider %s has no API key configured\n", provider.Name)
			}
		}
	}

	if enabledCount == 0 {
		return fmt.Errorf("no enabled LLM providers")
	}

	return nil
}

// Helper functions to safely extract values from map[string]interface{}
func getStringFromMap(m map[string]interface{}, key string) string {
	if val, ok := m[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

func getBoolFromMap(m map[string]interface{}, key string) bool {
	if val, ok := m[key]; ok {
		if b, ok := val.(bool); ok {
			return b
		}
	}
	return false
}

func getIntFromMap(m map[string]interface{}, key string) int {
	if val, ok := m[key]; ok {
		if i, ok := val.(int); ok {
			return i
		}
		// Handle float64 from JSON unmarshaling
		if f, ok := val.(float64); ok {
			return int(f)
		}
	}
	return 0
}
