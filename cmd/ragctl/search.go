package main

import (
	"context"
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/hsn0918/ragctl/internal/config"
	"github.com/hsn0918/ragctl/internal/embedding"
	"github.com/hsn0918/ragctl/internal/httpx"
	"github.com/hsn0918/ragctl/internal/orchestrator"
	"github.com/hsn0918/ragctl/internal/vectorstore"
)

func newSearchCmd() *cobra.Command {
	var k int
	var collection string

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Find the k nearest chunks to a query by cosine distance",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return usageErrorf("search: expected exactly one <query> argument")
			}
			query := args[0]
			if k <= 0 {
				k = 10
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if collection == "" {
				collection = cfg.VectorStore.Collection
			}

			httpCfg := httpx.Config{BaseURL: cfg.Embedding.BaseURL, APIKey: cfg.Embedding.APIKey}
			var backend embedding.Backend
			if cfg.Embedding.Backend == "local" {
				backend = embedding.NewLocalBackend(httpCfg, cfg.Embedding.Model, "local")
			} else {
				backend = embedding.NewHostedBackend(httpCfg, cfg.Embedding.Model, "hosted")
			}
			cache, err := embedding.OpenCache(".ragctl-query-cache.ndjson")
			if err != nil {
				return err
			}
			svc := embedding.NewService(backend, cache, cfg.Embedding.BatchSize)

			ctx := context.Background()
			store, err := vectorstore.Open(ctx, vectorstoreDSN(cfg))
			if err != nil {
				return err
			}
			defer store.Close()

			qc, err := buildQueryCache(cfg)
			if err != nil {
				return err
			}
			if qc != nil {
				defer qc.Close()
			}

			results, err := orchestrator.SearchQuery(ctx, query, svc, store, collection, k, qc)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, r := range results {
				if err := enc.Encode(r); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&k, "k", "k", 10, "number of results to return")
	cmd.Flags().StringVarP(&collection, "collection", "c", "", "collection to search (default from config)")
	return cmd
}
