package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hsn0918/ragctl/internal/config"
	"github.com/hsn0918/ragctl/internal/vectorstore"
)

func newInventoryCmd() *cobra.Command {
	var collection string

	cmd := &cobra.Command{
		Use:   "inventory",
		Short: "Print the total chunk count and per-source breakdown",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 {
				return usageErrorf("inventory: expected no positional arguments")
			}

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

			inv, err := store.Inventory(ctx, collection)
			if err != nil {
				return err
			}

			fmt.Printf("total: %d\n", inv.Total)
			for source, count := range inv.PerSource {
				fmt.Printf("%s: %d\n", source, count)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&collection, "collection", "c", "", "collection to inspect (default from config)")
	return cmd
}
