package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hsn0918/ragctl/internal/config"
	"github.com/hsn0918/ragctl/internal/httpx"
	"github.com/hsn0918/ragctl/internal/orchestrator"
	"github.com/hsn0918/ragctl/internal/rerank"
)

func newRerankCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rerank <query> <results-path>",
		Short: "Reorder a search-results NDJSON file by cross-encoder score",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				return usageErrorf("rerank: expected <query> and <results-path> arguments")
			}
			query, resultsPath := args[0], args[1]

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			scorer := rerank.NewHTTPScorer(
				httpx.Config{BaseURL: cfg.Reranker.BaseURL, APIKey: cfg.Reranker.APIKey},
				cfg.Reranker.Model,
				rerank.DefaultMaxTokens,
			)
			r := rerank.New(scorer, cfg.Reranker.BatchSize)

			outPath, err := orchestrator.RerankResults(context.Background(), query, resultsPath, r)
			if err != nil {
				return err
			}
			fmt.Println(outPath)
			return nil
		},
	}
	return cmd
}
