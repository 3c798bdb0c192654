package llmprovider

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"intelligent-scheduler/config"
	"intelligent-scheduler/pkg/gemini"
	"intelligent-scheduler/pkg/log"
	"intelligent-scheduler/pkg/chatcompat"
)

const deepSeekBaseURL = "https://api.deepseek.com/v1"

// InitializeProviders creates Provider instances from config.LLMConfig.
// Providers come back sorted by priority (ascending); disabled providers are
// dropped and providers that fail to initialize are skipped with a warning.
func InitializeProviders(cfg *config.LLMConfig, l log.Logger) ([]Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("LLM config is nil")
	}

	var enabled []config.ProviderConfig
	for _, p := range cfg.Providers {
		if p.Enabled {
			enabled = append(enabled, p)
		}
	}
	if len(enabled) == 0 {
		return nil, ErrNoProvidersConfigured
	}

	sort.SliceStable(enabled, func(i, j int) bool {
		return enabled[i].Priority < enabled[j].Priority
	})

	var providers []Provider
	var initErrors []string
	for _, p := range enabled {
		provider, err := createProvider(p)
		if err != nil {
			msg := fmt.Sprintf("provider %s (priority %d): %v", p.Name, p.Priority, err)
			initErrors = append(initErrors, msg)
			if l != nil {
				l.Warnf(context.Background(), "llmprovider.InitializeProviders: skipping %s", msg)
			}
			continue
		}
		providers = append(providers, provider)
	}

	if len(providers) == 0 {
		return nil, fmt.Errorf("no providers successfully initialized: %s", strings.Join(initErrors, "; "))
	}
	return providers, nil
}

// NewManagerConfig converts the string durations of cfg.
func NewManagerConfig(cfg *config.LLMConfig) (*Config, error) {
	out := &Config{
		FallbackEnabled: cfg.FallbackEnabled,
		RetryAttempts:   cfg.RetryAttempts,
	}
	var err error
	if out.RetryDelay, err = parseDuration(cfg.RetryDelay); err != nil {
		return nil, fmt.Errorf("retry_delay: %w", err)
	}
	if out.MaxTotalTimeout, err = parseDuration(cfg.MaxTotalTimeout); err != nil {
		return nil, fmt.Errorf("max_total_timeout: %w", err)
	}
	return out, nil
}

// createProvider creates a concrete provider instance based on the provider config
func createProvider(cfg config.ProviderConfig) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	timeout, err := parseDuration(cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("timeout: %w", err)
	}
	var httpClient *http.Client
	if timeout > 0 {
		httpClient = &http.Client{Timeout: timeout}
	}

	switch cfg.Name {
	case "qwen", "alibaba", "deepseek", "openai":
		baseURL := cfg.BaseURL
		if baseURL == "" && cfg.Name == "deepseek" {
			baseURL = deepSeekBaseURL
		}
		client, err := chatcompat.New(chatcompat.Config{
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			BaseURL:    baseURL,
			HTTPClient: httpClient,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create %s client: %w", cfg.Name, err)
		}
		return NewOpenAICompatAdapter(cfg.Name, client), nil

	case "gemini":
		client, err := gemini.New(gemini.Config{
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			APIURL:     cfg.BaseURL,
			HTTPClient: httpClient,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create gemini client: %w", err)
		}
		return NewGeminiAdapter(client), nil

	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.Name)
	}
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}
