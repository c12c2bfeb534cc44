package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hsn0918/ragctl/internal/config"
	"github.com/hsn0918/ragctl/internal/vectorstore"
)

func newPurgeCmd() *cobra.Command {
	var collection string

	cmd := &cobra.Command{
		Use:   "purge <source-stem>",
		Short: "Delete every chunk produced from a given source stem",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return usageErrorf("purge: expected exactly one <source-stem> argument")
			}
			stem := args[0]

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

			n, err := store.DeleteByPrefix(ctx, collection, stem)
			if err != nil {
				return err
			}
			fmt.Println(n)
			return nil
		},
	}
	cmd.Flags().StringVarP(&collection, "collection", "c", "", "collection to purge (default from config)")
	return cmd
}
