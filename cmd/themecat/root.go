package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/amishk599/themecat/internal/ai"
	"github.com/amishk599/themecat/internal/config"
	"github.com/amishk599/themecat/internal/notifier"
	"github.com/amishk599/themecat/internal/pipeline"
	"github.com/amishk599/themecat/internal/prompt"
	"github.com/amishk599/themecat/internal/report"
	"github.com/amishk599/themecat/internal/retry"
)

var (
	cfgPath   string
	envFile   string
	inputPath string
	debug     bool
)

var rootCmd = &cobra.Command{
	Use:   "themecat",
	Short: "Extract themes from patient reviews with an LLM",
	Long: "themecat sends patient reviews to an LLM, collects the themes it identifies " +
		"and scores them against human-labeled ground truth.",
	SilenceUsage:      true,
	PersistentPreRunE: loadEnvFile,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: THEMECAT_CONFIG env var or ./config.yaml if present)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "path to a .env file (default: ./.env if present)")
	rootCmd.PersistentFlags().StringVarP(&inputPath, "input", "i", "", "review file, overrides source.path")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadEnvFile loads variables from a .env file before the config is read.
// A missing default .env is ignored; a missing explicit one is an error.
func loadEnvFile(cmd *cobra.Command, args []string) error {
	path := envFile
	explicit := path != ""
	if !explicit {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > THEMECAT_CONFIG env var > "./config.yaml".
// Only an explicitly named file has to exist.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if env := os.Getenv("THEMECAT_CONFIG"); env != "" {
			path = env
		} else if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if inputPath != "" {
		cfg.Source.Path = inputPath
	}
	return cfg, nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// setupLogger writes to stderr so tables and JSON on stdout stay clean.
func setupLogger(level string, dbg bool) *slog.Logger {
	logLevel := parseLevel(level)
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// bootstrap loads the config and builds the logger, exiting on failure.
func bootstrap() (*config.Config, *slog.Logger) {
	logger := setupLogger("", debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	return cfg, setupLogger(cfg.LogLevel, debug)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func maskKey(key string) string {
	if key == "" {
		return "NOT SET"
	}
	return "***SET***"
}

func setupProvider(cfg *config.Config, logger *slog.Logger) ai.LLMProvider {
	httpClient := &http.Client{Timeout: cfg.LLM.Timeout}

	switch cfg.LLM.Provider {
	case config.ProviderAnthropic:
		logger.Info("using anthropic provider",
			"model", cfg.LLM.Model,
			"api_key", maskKey(cfg.LLM.AnthropicAPIKey),
		)
		return ai.NewAnthropicProvider(ai.AnthropicConfig{
			APIKey:      cfg.LLM.AnthropicAPIKey,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
			BaseURL:     cfg.LLM.AnthropicBaseURL,
		}, httpClient)
	default:
		apiKey := maskKey(cfg.LLM.Token)
		if cfg.LLM.LocalMode() {
			apiKey = "EMPTY (local mode)"
		}
		logger.Info("using openai-compatible provider",
			"base_url", cfg.LLM.BaseURL(),
			"model", cfg.LLM.Model,
			"local_mode", cfg.LLM.LocalMode(),
			"api_key", apiKey,
			"timeout", cfg.LLM.Timeout.String(),
		)
		return ai.NewOpenAIProvider(ai.OpenAIConfig{
			BaseURL:     cfg.LLM.BaseURL(),
			APIKey:      cfg.LLM.APIKey(),
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
		}, httpClient)
	}
}

func setupExtractor(cfg *config.Config, dryRun bool, logger *slog.Logger) ai.ThemeExtractor {
	if dryRun {
		logger.Info("dry-run mode enabled, no LLM calls will be made")
		return ai.NewNopExtractor()
	}
	provider := setupProvider(cfg, logger)
	return ai.NewLLMThemeExtractor(provider, retry.NewPolicy(cfg.Pipeline.Retries), logger)
}

func setupPipeline(cfg *config.Config, extractor ai.ThemeExtractor, showProgress bool, logger *slog.Logger) *pipeline.Pipeline {
	var opts []pipeline.Option
	if showProgress {
		opts = append(opts, pipeline.WithProgress(report.NewProgressBar(os.Stderr)))
	}
	builder := prompt.NewBuilder(cfg.Pipeline.Themes)
	return pipeline.New(extractor, builder, cfg.Pipeline.Delay, logger, opts...)
}

func setupNotifier(cfg *config.Config, logger *slog.Logger) notifier.Notifier {
	switch cfg.Notification.Type {
	case "slack":
		logger.Info("using slack notifier")
		return notifier.NewSlackNotifier(cfg.Notification.WebhookURL, &http.Client{Timeout: 30 * time.Second}, logger)
	default:
		return notifier.NewLogNotifier(logger)
	}
}

// sourceLabel names the review source without exposing credentials.
func sourceLabel(s config.SourceConfig) string {
	switch s.Type {
	case "sqlite":
		return fmt.Sprintf("sqlite:%s/%s", s.Path, s.Table)
	case "postgres":
		return "postgres:" + s.Table
	default:
		return s.Path
	}
}
