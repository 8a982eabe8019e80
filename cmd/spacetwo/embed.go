package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var embedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Embed a single text and print which embedder answered",
	RunE: func(cmd *cobra.Command, _ []string) error {
		text, _ := cmd.Flags().GetString("text")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		vec, src := a.clients.Embeddings().EmbedWithSource(ctx, text)
		fmt.Printf("source=%s dim=%d norm=%.6f\n", src, len(vec), vec.Norm())
		return nil
	},
}

func init() {
	embedCmd.Flags().String("text", "", "text to embed")
	_ = embedCmd.MarkFlagRequired("text")
}
