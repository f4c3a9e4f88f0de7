package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bkyoung/bookreviewer/internal/adapter/cli"
	"github.com/bkyoung/bookreviewer/internal/adapter/currency"
	"github.com/bkyoung/bookreviewer/internal/adapter/drive"
	"github.com/bkyoung/bookreviewer/internal/adapter/llm/openai"
	"github.com/bkyoung/bookreviewer/internal/adapter/observability"
	"github.com/bkyoung/bookreviewer/internal/adapter/store/sqlite"
	"github.com/bkyoung/bookreviewer/internal/config"
	"github.com/bkyoung/bookreviewer/internal/usecase/review"
)

// version is injected at build time via -ldflags.
var version = "v0.0.0"

func main() {
	if err := run(); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(config.LoaderOptions{
		ConfigPaths: defaultConfigPaths(),
		FileName:    "bkr",
		EnvPrefix:   "BKR",
	})
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	logger, err := observability.NewLogger(observability.Config{
		Enabled:       cfg.Observability.Logging.Enabled,
		Level:         cfg.Observability.Logging.Level,
		Format:        cfg.Observability.Logging.Format,
		RedactAPIKeys: cfg.Observability.Logging.RedactAPIKeys,
	})
	if err != nil {
		return fmt.Errorf("logger init failed: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	httpTimeout := parseDuration(cfg.HTTP.Timeout, 60*time.Second)

	aiGateway, err := buildAiGateway(cfg.OpenAI, httpTimeout, logger)
	if err != nil {
		return err
	}

	currencyClient := currency.NewClient(currency.Config{
		APIKey:      cfg.ExchangeRate.APIKey,
		APIURL:      cfg.ExchangeRate.APIURL,
		CacheTTL:    parseDuration(cfg.ExchangeRate.CacheTTL, 10*time.Minute),
		DefaultRate: parseRate(cfg.ExchangeRate.DefaultRate),
		Timeout:     httpTimeout,
	})
	currencyClient.SetLogger(logger)

	driveClient := drive.NewClient(drive.Config{
		AccessToken:    cfg.Drive.AccessToken,
		ParentFolderID: cfg.Drive.ParentFolderID,
		APIURL:         cfg.Drive.APIURL,
		UploadURL:      cfg.Drive.UploadURL,
		Timeout:        httpTimeout,
	})
	driveClient.SetLogger(logger)

	if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0755); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}
	store, err := sqlite.NewStore(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("store init failed: %w", err)
	}
	defer func() { _ = store.Close() }()

	orchestrator := review.NewOrchestrator(review.Deps{
		AI:       aiGateway,
		Currency: currencyClient,
		Storage:  driveClient,
		Store:    store,
		User:     &configUser{id: cfg.User.ID, admin: cfg.User.Admin},
		Logger:   logger,
	})

	root := cli.NewRootCommand(cli.Dependencies{
		Service: orchestrator,
		Version: version,
	})

	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, cli.ErrVersionRequested) {
			return nil
		}
		return fmt.Errorf("command failed: %w", err)
	}
	return nil
}

func buildAiGateway(cfg config.OpenAIConfig, timeout time.Duration, logger *observability.Logger) (*openai.Client, error) {
	var template *openai.PromptTemplate
	if cfg.PromptFile != "" {
		loaded, err := openai.LoadPromptTemplate(cfg.PromptFile)
		if err != nil {
			return nil, fmt.Errorf("load prompt template: %w", err)
		}
		template = &loaded
	}

	client := openai.NewClient(openai.Config{
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		BaseURL:     cfg.APIURL,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		Timeout:     timeout,
		Template:    template,
	})
	client.SetLogger(logger)
	return client, nil
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("warning: invalid duration %q, using %s", value, fallback)
		return fallback
	}
	return parsed
}

func parseRate(value string) decimal.Decimal {
	if value == "" {
		return decimal.Decimal{}
	}
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		log.Printf("warning: invalid default rate %q, using built-in default", value)
		return decimal.Decimal{}
	}
	return parsed
}

func defaultConfigPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "bkr"))
	}
	return paths
}

// configUser resolves the acting identity from static configuration.
type configUser struct {
	id    string
	admin bool
}

func (u *configUser) UserID(ctx context.Context) (string, error) {
	if u.id == "" {
		return "", errors.New("user id is not configured")
	}
	return u.id, nil
}

func (u *configUser) IsAdmin(ctx context.Context) bool {
	return u.admin
}

// Compile-time interface compliance checks
var _ review.AiGateway = (*openai.Client)(nil)
var _ review.CurrencyConverter = (*currency.Client)(nil)
var _ review.FileStorage = (*drive.Client)(nil)
var _ review.Store = (*sqlite.Store)(nil)
var _ review.CurrentUser = (*configUser)(nil)
var _ review.Logger = (*observability.Logger)(nil)
var _ cli.ReviewService = (*review.Orchestrator)(nil)
