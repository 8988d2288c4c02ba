package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ErrInvalid marks configuration values rejected by validation.
var ErrInvalid = errors.New("invalid config")

// LocalModeToken is the placeholder credential that selects the self-hosted
// endpoint instead of the hosted router.
const LocalModeToken = "dummy_token"

// localAPIKey is sent as the bearer credential in local mode.
const localAPIKey = "EMPTY"

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

const (
	defaultModel         = "meta-llama/Llama-3.2-3B-Instruct"
	defaultTimeout       = 120 * time.Second
	defaultLocalBaseURL  = "http://localhost:8001/v1"
	defaultRouterURL     = "https://router.huggingface.co/v1"
	defaultTemperature   = 0.7
	defaultMaxTokens     = 1000
	defaultDelay         = time.Second
	defaultRetries       = 3
	defaultLogLevel      = "info"
	defaultReviewColumn  = "Comment"
	defaultGTColumn      = "ProcessedCode"
	defaultWatchSchedule = "@every 6h"
	slackWebhookPrefix   = "https://hooks.slack.com/"
)

// Config is the root configuration for themecat.
type Config struct {
	LogLevel     string
	LLM          LLMConfig
	Pipeline     PipelineConfig
	Source       SourceConfig
	Notification NotificationConfig
	Watch        WatchConfig
}

// LLMConfig selects and addresses the chat-completion provider.
type LLMConfig struct {
	Provider     string // "openai" (OpenAI-compatible: vLLM or HF router) or "anthropic"
	Token        string // HF token; LocalModeToken selects the local endpoint
	Model        string
	Timeout      time.Duration // per-request timeout
	LocalBaseURL string
	RouterURL    string
	Temperature  float64
	MaxTokens    int

	AnthropicAPIKey  string
	AnthropicBaseURL string // empty uses the SDK default
}

// LocalMode reports whether requests go to the self-hosted endpoint. An empty
// token or the placeholder token selects local mode.
func (c LLMConfig) LocalMode() bool {
	return c.Token == "" || c.Token == LocalModeToken
}

// BaseURL returns the endpoint for the current addressing mode.
func (c LLMConfig) BaseURL() string {
	if c.LocalMode() {
		return c.LocalBaseURL
	}
	return c.RouterURL
}

// APIKey returns the bearer credential for the current addressing mode.
func (c LLMConfig) APIKey() string {
	if c.LocalMode() {
		return localAPIKey
	}
	return c.Token
}

// PipelineConfig controls batch processing.
type PipelineConfig struct {
	Delay   time.Duration // pause after each review
	Retries int           // completion attempts per review
	Themes  []string      // empty selects the built-in vocabulary
}

// SourceConfig describes where reviews are read from.
type SourceConfig struct {
	Type              string `yaml:"type" toml:"type"` // "csv", "sqlite" or "postgres"
	Path              string `yaml:"path" toml:"path"` // csv file or sqlite database
	DSN               string `yaml:"dsn" toml:"dsn"`   // postgres connection string
	Table             string `yaml:"table" toml:"table"`
	ReviewColumn      string `yaml:"review_column" toml:"review_column"`
	GroundTruthColumn string `yaml:"ground_truth_column" toml:"ground_truth_column"`
}

// NotificationConfig controls where run summaries are sent.
type NotificationConfig struct {
	Type       string `yaml:"type" toml:"type"`               // "log" or "slack"
	WebhookURL string `yaml:"webhook_url" toml:"webhook_url"` // required if type is "slack"
}

// WatchConfig controls scheduled evaluation.
type WatchConfig struct {
	Schedule string `yaml:"schedule" toml:"schedule"` // cron spec or @every descriptor
}

// rawConfig is used for unmarshaling (snake_case fields, durations as strings,
// pointers where zero is a meaningful value).
type rawConfig struct {
	LogLevel     string             `yaml:"log_level" toml:"log_level"`
	LLM          rawLLMConfig       `yaml:"llm" toml:"llm"`
	Pipeline     rawPipelineConfig  `yaml:"pipeline" toml:"pipeline"`
	Source       SourceConfig       `yaml:"source" toml:"source"`
	Notification NotificationConfig `yaml:"notification" toml:"notification"`
	Watch        WatchConfig        `yaml:"watch" toml:"watch"`
}

type rawLLMConfig struct {
	Provider     string             `yaml:"provider" toml:"provider"`
	Token        string             `yaml:"token" toml:"token"`
	Model        string             `yaml:"model" toml:"model"`
	Timeout      string             `yaml:"timeout" toml:"timeout"`
	LocalBaseURL string             `yaml:"local_base_url" toml:"local_base_url"`
	RouterURL    string             `yaml:"router_url" toml:"router_url"`
	Temperature  *float64           `yaml:"temperature" toml:"temperature"`
	MaxTokens    *int               `yaml:"max_tokens" toml:"max_tokens"`
	Anthropic    rawAnthropicConfig `yaml:"anthropic" toml:"anthropic"`
}

type rawAnthropicConfig struct {
	APIKey  string `yaml:"api_key" toml:"api_key"`
	BaseURL string `yaml:"base_url" toml:"base_url"`
}

type rawPipelineConfig struct {
	Delay   string   `yaml:"delay" toml:"delay"`
	Retries *int     `yaml:"retries" toml:"retries"`
	Themes  []string `yaml:"themes" toml:"themes"`
}

// Load builds the configuration. path may be empty, in which case defaults and
// environment overrides are used. Files ending in .toml are parsed as TOML,
// everything else as YAML. Environment variables are expanded in the file and
// then the well-known variables (HF_TOKEN, LLM_TEMPERATURE, ...) override the
// file values.
func Load(path string) (*Config, error) {
	var raw rawConfig
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}

		expanded := os.ExpandEnv(string(data))

		if strings.EqualFold(filepath.Ext(path), ".toml") {
			if err := toml.Unmarshal([]byte(expanded), &raw); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		} else if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg, err := fromRaw(raw)
	if err != nil {
		return nil, err
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns the configuration used when no file and no environment
// overrides are present.
func Default() *Config {
	cfg, _ := fromRaw(rawConfig{})
	return cfg
}

func fromRaw(raw rawConfig) (*Config, error) {
	timeout := defaultTimeout
	if raw.LLM.Timeout != "" {
		d, err := parseSeconds(raw.LLM.Timeout)
		if err != nil {
			return nil, fmt.Errorf("parse llm.timeout %q: %w", raw.LLM.Timeout, err)
		}
		timeout = d
	}

	delay := defaultDelay
	if raw.Pipeline.Delay != "" {
		d, err := parseSeconds(raw.Pipeline.Delay)
		if err != nil {
			return nil, fmt.Errorf("parse pipeline.delay %q: %w", raw.Pipeline.Delay, err)
		}
		delay = d
	}

	temperature := defaultTemperature
	if raw.LLM.Temperature != nil {
		temperature = *raw.LLM.Temperature
	}
	maxTokens := defaultMaxTokens
	if raw.LLM.MaxTokens != nil {
		maxTokens = *raw.LLM.MaxTokens
	}
	retries := defaultRetries
	if raw.Pipeline.Retries != nil {
		retries = *raw.Pipeline.Retries
	}

	src := raw.Source
	if src.Type == "" {
		src.Type = "csv"
	}
	if src.ReviewColumn == "" {
		src.ReviewColumn = defaultReviewColumn
	}
	if src.GroundTruthColumn == "" {
		src.GroundTruthColumn = defaultGTColumn
	}

	notif := raw.Notification
	if notif.Type == "" {
		notif.Type = "log"
	}

	watch := raw.Watch
	if watch.Schedule == "" {
		watch.Schedule = defaultWatchSchedule
	}

	return &Config{
		LogLevel: orDefault(raw.LogLevel, defaultLogLevel),
		LLM: LLMConfig{
			Provider:         orDefault(raw.LLM.Provider, ProviderOpenAI),
			Token:            orDefault(raw.LLM.Token, LocalModeToken),
			Model:            orDefault(raw.LLM.Model, defaultModel),
			Timeout:          timeout,
			LocalBaseURL:     orDefault(raw.LLM.LocalBaseURL, defaultLocalBaseURL),
			RouterURL:        orDefault(raw.LLM.RouterURL, defaultRouterURL),
			Temperature:      temperature,
			MaxTokens:        maxTokens,
			AnthropicAPIKey:  raw.LLM.Anthropic.APIKey,
			AnthropicBaseURL: raw.LLM.Anthropic.BaseURL,
		},
		Pipeline: PipelineConfig{
			Delay:   delay,
			Retries: retries,
			Themes:  raw.Pipeline.Themes,
		},
		Source:       src,
		Notification: notif,
		Watch:        watch,
	}, nil
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func validate(cfg *Config) error {
	switch strings.ToLower(cfg.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: log_level must be one of debug, info, warn, error, got %q", ErrInvalid, cfg.LogLevel)
	}

	llm := cfg.LLM
	switch llm.Provider {
	case ProviderOpenAI:
		if llm.BaseURL() == "" {
			return fmt.Errorf("%w: llm base url is empty", ErrInvalid)
		}
	case ProviderAnthropic:
		if llm.AnthropicAPIKey == "" {
			return fmt.Errorf("%w: llm.anthropic.api_key is required when provider is %q", ErrInvalid, ProviderAnthropic)
		}
	default:
		return fmt.Errorf("%w: llm.provider must be %q or %q, got %q", ErrInvalid, ProviderOpenAI, ProviderAnthropic, llm.Provider)
	}
	if llm.Model == "" {
		return fmt.Errorf("%w: llm.model is required", ErrInvalid)
	}
	if llm.Temperature < 0 || llm.Temperature > 2 {
		return fmt.Errorf("%w: llm.temperature must be between 0 and 2, got %v", ErrInvalid, llm.Temperature)
	}
	if llm.MaxTokens < 1 {
		return fmt.Errorf("%w: llm.max_tokens must be at least 1, got %d", ErrInvalid, llm.MaxTokens)
	}
	if llm.Timeout < time.Second {
		return fmt.Errorf("%w: llm.timeout must be at least 1s, got %v", ErrInvalid, llm.Timeout)
	}

	if cfg.Pipeline.Delay < 0 {
		return fmt.Errorf("%w: pipeline.delay must not be negative, got %v", ErrInvalid, cfg.Pipeline.Delay)
	}
	if cfg.Pipeline.Retries < 1 {
		return fmt.Errorf("%w: pipeline.retries must be at least 1, got %d", ErrInvalid, cfg.Pipeline.Retries)
	}

	switch cfg.Source.Type {
	case "csv", "sqlite", "postgres":
	default:
		return fmt.Errorf("%w: source.type must be csv, sqlite or postgres, got %q", ErrInvalid, cfg.Source.Type)
	}

	switch cfg.Notification.Type {
	case "log":
	case "slack":
		if cfg.Notification.WebhookURL == "" {
			return fmt.Errorf("%w: notification.webhook_url is required when type is \"slack\"", ErrInvalid)
		}
		if !strings.HasPrefix(cfg.Notification.WebhookURL, slackWebhookPrefix) {
			return fmt.Errorf("%w: notification.webhook_url must start with %s", ErrInvalid, slackWebhookPrefix)
		}
	default:
		return fmt.Errorf("%w: notification.type must be \"log\" or \"slack\", got %q", ErrInvalid, cfg.Notification.Type)
	}

	return nil
}
