package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/flyerscan/prestations/internal/catalog"
	"github.com/flyerscan/prestations/internal/config"
	"github.com/flyerscan/prestations/internal/gemini"
	"github.com/flyerscan/prestations/internal/i18n"
	"github.com/flyerscan/prestations/internal/ingest"
	"github.com/flyerscan/prestations/internal/ollama"
	"github.com/flyerscan/prestations/internal/openai"
	"github.com/flyerscan/prestations/internal/providers"
	"github.com/flyerscan/prestations/internal/storage"
)

// app is what every catalog command needs: configuration plus an open store.
type app struct {
	cfg     *config.Config
	backend *storage.Backend
	store   *catalog.Store
}

func openApp(ctx context.Context) (*app, error) {
	cfg := config.Load()
	backend, err := storage.Open(ctx, cfg.Storage, cfg.DataDir, cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Storage, err)
	}
	slog.Debug("Storage opened", "backend", cfg.Storage, "key", cfg.StorageKey)

	return &app{
		cfg:     cfg,
		backend: backend,
		store:   catalog.New(backend.Blob, backend.Bus, catalog.WithKey(cfg.StorageKey)),
	}, nil
}

func (a *app) Close() {
	if err := a.backend.Close(); err != nil {
		slog.Warn("Failed to close storage", "err", err)
	}
}

// modelFlags are the provider overrides shared by ingest, serve and eval.
type modelFlags struct {
	provider string
	model    string
}

func (f *modelFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.provider, "provider", "", "Vision model provider (mistral, openai, ollama or gemini)")
	cmd.Flags().StringVar(&f.model, "model", "", "Model name (defaults to provider's default)")
}

func (f *modelFlags) apply(cfg *config.Config) {
	if f.provider != "" && f.provider != cfg.Provider {
		cfg.Provider = f.provider
		if os.Getenv("PRESTATIONS_MODEL") == "" {
			cfg.Model = providers.DefaultModels[f.provider]
		}
	}
	if f.model != "" {
		cfg.Model = f.model
	}
}

func newProvider(cfg *config.Config) (providers.Provider, error) {
	switch cfg.Provider {
	case "mistral":
		return openai.NewMistral(cfg.MistralURL, cfg.MistralAPIKey), nil
	case "openai":
		return openai.New(cfg.OpenAIURL, cfg.OpenAIAPIKey), nil
	case "ollama":
		return ollama.New(cfg.OllamaURL), nil
	case "gemini":
		return gemini.New(cfg.GeminiAPIKey), nil
	default:
		return nil, fmt.Errorf("unknown provider %q (want mistral, openai, ollama or gemini)", cfg.Provider)
	}
}

func ingestOptions(cfg *config.Config) ingest.Options {
	return ingest.Options{
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Timeout:     cfg.Timeout,
	}
}

func (a *app) orchestrator() (*ingest.Orchestrator, error) {
	provider, err := newProvider(a.cfg)
	if err != nil {
		return nil, err
	}
	slog.Debug("Using provider", "provider", a.cfg.Provider, "model", a.cfg.Model)
	return ingest.New(provider, a.store, ingestOptions(a.cfg)), nil
}

// userLanguage reads a POSIX locale such as fr_FR.UTF-8 from LC_ALL, LC_MESSAGES
// or LANG.
func userLanguage() language.Tag {
	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		v := os.Getenv(key)
		if v == "" || v == "C" || v == "POSIX" {
			continue
		}
		v, _, _ = strings.Cut(v, ".")
		return i18n.Match(strings.ReplaceAll(v, "_", "-"))
	}
	return i18n.Match("")
}
