package main

import (
	"context"

	"github.com/hsn0918/ragctl/internal/artifacts"
	"github.com/hsn0918/ragctl/internal/cache"
	"github.com/hsn0918/ragctl/internal/config"
)

// buildArtifactStore opens the optional artifact mirror described by
// cfg.Artifacts, or returns (nil, nil) when it is disabled — every
// orchestrator stage treats a nil *artifacts.Store as "mirror off".
func buildArtifactStore(ctx context.Context, cfg *config.Config) (*artifacts.Store, error) {
	if !cfg.Artifacts.Enabled {
		return nil, nil
	}
	return artifacts.Open(ctx, artifacts.Config{
		Endpoint:        cfg.Artifacts.Endpoint,
		AccessKeyID:     cfg.Artifacts.AccessKeyID,
		SecretAccessKey: cfg.Artifacts.SecretAccessKey,
		Bucket:          cfg.Artifacts.Bucket,
		UseSSL:          cfg.Artifacts.UseSSL,
	})
}

// buildQueryCache dials the optional search-result cache described by
// cfg.QueryCache, or returns (nil, nil) when it is disabled.
func buildQueryCache(cfg *config.Config) (*cache.QueryCache, error) {
	if !cfg.QueryCache.Enabled {
		return nil, nil
	}
	return cache.Dial(cfg.QueryCache.Addr)
}
