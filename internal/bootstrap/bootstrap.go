// Package bootstrap provides dependency initialization for the video generation API.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/maauso/videogen-api/internal/config"
	"github.com/maauso/videogen-api/internal/huggingface"
	"github.com/maauso/videogen-api/internal/job"
	"github.com/maauso/videogen-api/internal/luma"
	"github.com/maauso/videogen-api/internal/provider"
	"github.com/maauso/videogen-api/internal/replicate"
	"github.com/maauso/videogen-api/internal/storage"
)

// Dependencies holds all initialized dependencies for the HTTP server.
type Dependencies struct {
	GenerationService *job.Service
	// VideoDir is the directory served under storage.VideoRoute.
	// Empty when generated videos are published to S3.
	VideoDir string
}

// NewDependencies creates and initializes all dependencies for the application.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	store, videoDir, err := initStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	providers := initProviders(cfg, store)
	for _, p := range providers {
		logger.Info("provider registered",
			slog.String("provider", p.Name()),
			slog.Bool("available", p.Available()),
		)
	}

	repo := job.NewMemoryRepository()

	svc := job.NewService(
		repo,
		providers,
		logger,
		job.WithPollInterval(cfg.PollInterval),
		job.WithMaxPollErrors(cfg.MaxPollErrors),
		job.WithGenerationTimeout(cfg.GenerationTimeout),
		job.WithMaxPromptLength(cfg.MaxPromptLength),
	)

	return &Dependencies{
		GenerationService: svc,
		VideoDir:          videoDir,
	}, nil
}

// initProviders builds the provider chain in PROVIDER_ORDER, with the demo provider last when enabled.
func initProviders(cfg *config.Config, store storage.Storage) []provider.Provider {
	providers := make([]provider.Provider, 0, len(cfg.ProviderOrder)+1)
	for _, name := range cfg.ProviderOrder {
		switch name {
		case provider.NameLuma:
			client := luma.NewClient(cfg.LumaAPIKey, cfg.LumaOptions()...)
			providers = append(providers, provider.NewLumaAdapter(client))
		case provider.NameReplicate:
			client := replicate.NewClient(cfg.ReplicateAPIToken, cfg.ReplicateOptions()...)
			providers = append(providers, provider.NewReplicateAdapter(client))
		case provider.NameHuggingFace:
			client := huggingface.NewClient(cfg.HuggingFaceAPIKey, cfg.HuggingFaceOptions()...)
			providers = append(providers, provider.NewHuggingFaceAdapter(client, store))
		}
	}
	if cfg.DemoFallback {
		providers = append(providers, provider.NewDemoAdapter())
	}
	return providers
}

// initStorage creates the storage backend for providers that return raw video bytes.
func initStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Storage, string, error) {
	if cfg.S3Enabled() {
		s3Store, err := storage.NewS3Storage(ctx, storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Prefix:          cfg.S3Prefix,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		})
		if err != nil {
			return nil, "", fmt.Errorf("create S3 storage: %w", err)
		}
		logger.Info("S3 storage configured",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
		)
		return s3Store, "", nil
	}

	localStore, err := storage.NewLocalStorage(cfg.VideoDir, cfg.PublicBaseURL)
	if err != nil {
		return nil, "", fmt.Errorf("create local storage: %w", err)
	}
	logger.Info("local storage configured",
		slog.String("video_dir", localStore.Dir()),
	)
	return localStore, localStore.Dir(), nil
}
