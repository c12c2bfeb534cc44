package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hsn0918/ragctl/internal/config"
	"github.com/hsn0918/ragctl/internal/orchestrator"
	"github.com/hsn0918/ragctl/internal/vectorstore"
)

func newUpsertCmd() *cobra.Command {
	var collection string
	var noRecreate bool

	cmd := &cobra.Command{
		Use:   "upsert <embeddings-path>",
		Short: "Write embedding records into the vector store",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return usageErrorf("upsert: expected exactly one <embeddings-path> argument")
			}
			embeddingsPath := args[0]

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if collection == "" {
				collection = cfg.VectorStore.Collection
			}

			ctx := context.Background()
			store, err := vectorstore.Open(ctx, vectorstoreDSN(cfg))
			if err != nil {
				return err
			}
			defer store.Close()

			artifactStore, err := buildArtifactStore(ctx, cfg)
			if err != nil {
				return err
			}

			count, err := orchestrator.UpsertEmbeddings(ctx, embeddingsPath, store, collection, !noRecreate, artifactStore)
			fmt.Println(count)
			return err
		},
	}
	cmd.Flags().StringVarP(&collection, "collection", "c", "", "target collection (default from config)")
	cmd.Flags().BoolVar(&noRecreate, "no-recreate", false, "keep an existing collection instead of dropping and recreating it; fail if its vector dimension differs")
	return cmd
}

func vectorstoreDSN(cfg *config.Config) string {
	vs := cfg.VectorStore
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		vs.User, vs.Password, vs.Host, vs.Port, vs.DBName)
}
