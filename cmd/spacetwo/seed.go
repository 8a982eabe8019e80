package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spacetwo/spacetwo-chat/internal/seed"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the demo collaborator profiles into the index",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()
		return a.seed(cmd.Context())
	},
}

func (a *app) seed(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := a.ensureIndex(ctx); err != nil {
		return err
	}
	n, err := a.ingest.Ingest(ctx, seed.Items())
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	a.logger.Info("Seeded demo profiles",
		zap.Int("upserted", n),
		zap.String("index", a.cfg.Index.Name),
		zap.String("embedding_mode", string(a.clients.Embeddings().Mode())),
	)
	fmt.Printf("Seeded %d profiles into %s.\n", n, a.cfg.Index.Name)
	return nil
}
