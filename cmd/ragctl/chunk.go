package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hsn0918/ragctl/internal/chunking"
	"github.com/hsn0918/ragctl/internal/config"
	"github.com/hsn0918/ragctl/internal/convert"
	"github.com/hsn0918/ragctl/internal/httpx"
	"github.com/hsn0918/ragctl/internal/logging"
	"github.com/hsn0918/ragctl/internal/orchestrator"
)

func newChunkCmd() *cobra.Command {
	var chunkSizeTokens int

	cmd := &cobra.Command{
		Use:   "chunk <document-path>",
		Short: "Split a Markdown (or convertible office) document into heading-bounded chunks",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return usageErrorf("chunk: expected exactly one <document-path> argument")
			}
			path := args[0]

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			budget := chunkSizeTokens
			if budget <= 0 {
				budget = cfg.Chunking.ChunkSizeTokens
			}
			if budget <= 0 {
				budget = chunking.DefaultChunkSizeTokens
			}

			ctx := context.Background()

			markdownPath, err := ensureMarkdown(ctx, cfg, path)
			if err != nil {
				return err
			}

			artifactStore, err := buildArtifactStore(ctx, cfg)
			if err != nil {
				return err
			}

			outPath, warnings, err := orchestrator.ChunkSource(ctx, markdownPath, budget, artifactStore)
			if err != nil {
				return err
			}
			for _, w := range warnings {
				logging.Get().Sugar().Warnf("%s: %s: %s", w.ChunkID, w.Kind, w.Message)
			}
			fmt.Println(outPath)
			return nil
		},
	}
	cmd.Flags().IntVar(&chunkSizeTokens, "chunk-size-tokens", 0, "token budget per chunk (default from config, spec default 200)")
	return cmd
}

// ensureMarkdown returns path unchanged if it is already Markdown.
// Otherwise it routes the file through the configured conversion
// backend and writes the result to a sibling .md file, so the rest of
// the chunk stage only ever sees Markdown (spec §1/§4.6 EXPANSION).
func ensureMarkdown(ctx context.Context, cfg *config.Config, path string) (string, error) {
	if strings.EqualFold(filepath.Ext(path), ".md") {
		return path, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("chunk: read %s: %w", path, err)
	}

	conv := convert.NewHTTPConverter(httpx.Config{
		BaseURL: cfg.Convert.BaseURL,
		APIKey:  cfg.Convert.APIKey,
	}, 0)

	markdown, err := conv.ToMarkdown(ctx, filepath.Base(path), data)
	if err != nil {
		return "", err
	}

	outPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".md"
	if err := os.WriteFile(outPath, []byte(markdown), 0o644); err != nil {
		return "", fmt.Errorf("chunk: write %s: %w", outPath, err)
	}
	return outPath, nil
}
