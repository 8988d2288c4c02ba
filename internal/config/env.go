package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// applyEnv overrides file values with the environment variables the tool has
// always honoured. Unset or empty variables leave the value untouched.
func applyEnv(cfg *Config) error {
	envOverride(&cfg.LLM.Token, "HF_TOKEN")
	envOverride(&cfg.LLM.Model, "HF_MODEL_NAME")
	envOverride(&cfg.LLM.LocalBaseURL, "VLLM_BASE_URL")
	envOverride(&cfg.LLM.RouterURL, "HF_ROUTER_URL")
	envOverride(&cfg.LLM.Provider, "LLM_PROVIDER")
	envOverride(&cfg.LLM.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	envOverride(&cfg.LogLevel, "LOG_LEVEL")
	envOverride(&cfg.Notification.WebhookURL, "THEMECAT_SLACK_WEBHOOK")

	if err := envOverrideSeconds(&cfg.LLM.Timeout, "HF_TIMEOUT"); err != nil {
		return err
	}
	if err := envOverrideFloat(&cfg.LLM.Temperature, "LLM_TEMPERATURE"); err != nil {
		return err
	}
	if err := envOverrideInt(&cfg.LLM.MaxTokens, "LLM_MAX_TOKENS"); err != nil {
		return err
	}
	if err := envOverrideSeconds(&cfg.Pipeline.Delay, "RATE_LIMIT_DELAY"); err != nil {
		return err
	}
	return nil
}

func envOverride(field *string, envKey string) {
	if val := strings.TrimSpace(os.Getenv(envKey)); val != "" {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) error {
	if val := strings.TrimSpace(os.Getenv(envKey)); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("parse %s %q: %w", envKey, val, err)
		}
		*field = parsed
	}
	return nil
}

func envOverrideFloat(field *float64, envKey string) error {
	if val := strings.TrimSpace(os.Getenv(envKey)); val != "" {
		parsed, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("parse %s %q: %w", envKey, val, err)
		}
		*field = parsed
	}
	return nil
}

func envOverrideSeconds(field *time.Duration, envKey string) error {
	if val := strings.TrimSpace(os.Getenv(envKey)); val != "" {
		d, err := parseSeconds(val)
		if err != nil {
			return fmt.Errorf("parse %s %q: %w", envKey, val, err)
		}
		*field = d
	}
	return nil
}

// parseSeconds accepts a Go duration ("1m30s") or a bare number of seconds
// ("120", "0.5").
func parseSeconds(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	return time.ParseDuration(s)
}
