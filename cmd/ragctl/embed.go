package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hsn0918/ragctl/internal/config"
	"github.com/hsn0918/ragctl/internal/embedding"
	"github.com/hsn0918/ragctl/internal/httpx"
	"github.com/hsn0918/ragctl/internal/orchestrator"
)

func newEmbedCmd() *cobra.Command {
	var backend string

	cmd := &cobra.Command{
		Use:   "embed <chunks-path>",
		Short: "Encode each chunk's text into a dense vector",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return usageErrorf("embed: expected exactly one <chunks-path> argument")
			}
			chunksPath := args[0]

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if backend == "" {
				backend = cfg.Embedding.Backend
			}
			if backend != "local" && backend != "hosted" {
				return usageErrorf("embed: --backend must be local or hosted, got %q", backend)
			}

			svc, err := buildEmbeddingService(cfg, backend, chunksPath)
			if err != nil {
				return err
			}

			ctx := context.Background()
			artifactStore, err := buildArtifactStore(ctx, cfg)
			if err != nil {
				return err
			}

			outPath, err := orchestrator.EmbedChunks(ctx, chunksPath, svc, time.Now, artifactStore)
			if err != nil {
				return err
			}
			fmt.Println(outPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&backend, "backend", "", "embedding backend: local or hosted (default from config)")
	return cmd
}

func buildEmbeddingService(cfg *config.Config, backend, chunksPath string) (*embedding.Service, error) {
	httpCfg := httpx.Config{BaseURL: cfg.Embedding.BaseURL, APIKey: cfg.Embedding.APIKey}

	var b embedding.Backend
	if backend == "local" {
		b = embedding.NewLocalBackend(httpCfg, cfg.Embedding.Model, "local")
	} else {
		b = embedding.NewHostedBackend(httpCfg, cfg.Embedding.Model, "hosted")
	}

	src := orchestrator.SourceFromChunksPath(chunksPath)
	cachePath := orchestrator.CacheLogPath(src, cfg.Embedding.Model)
	cache, err := embedding.OpenCache(cachePath)
	if err != nil {
		return nil, err
	}

	return embedding.NewService(b, cache, cfg.Embedding.BatchSize), nil
}
