package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	natsTransport "github.com/spacetwo/spacetwo-chat/internal/transport/nats"
	ingestuc "github.com/spacetwo/spacetwo-chat/internal/usecase/ingest"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Embed and upsert collaborator items from a JSON file",
	Long: `Reads {"items":[{"id","text","metadata"}]} from --file.
With --nats the batch is sent to the running server over NATS instead of written directly.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, _ := cmd.Flags().GetString("file")
		viaNATS, _ := cmd.Flags().GetBool("nats")

		req, err := readIngestFile(path)
		if err != nil {
			return err
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		var n int
		if viaNATS {
			n, err = a.ingestNATS(ctx, req)
		} else if err = a.ensureIndex(ctx); err == nil {
			n, err = a.ingest.Ingest(ctx, req.Items)
		}
		if err != nil {
			return fmt.Errorf("ingest %s: %w", path, err)
		}
		fmt.Printf("Upserted %d items.\n", n)
		return nil
	},
}

func init() {
	ingestCmd.Flags().String("file", "", "path to the JSON batch")
	ingestCmd.Flags().Bool("nats", false, "publish the batch to the configured NATS ingest subject")
	_ = ingestCmd.MarkFlagRequired("file")
}

func readIngestFile(path string) (natsTransport.IngestRequest, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return natsTransport.IngestRequest{}, fmt.Errorf("read %s: %w", path, err)
	}
	var req natsTransport.IngestRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return natsTransport.IngestRequest{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if req.Items == nil {
		req.Items = []ingestuc.Item{}
	}
	return req, nil
}

func (a *app) ingestNATS(ctx context.Context, req natsTransport.IngestRequest) (int, error) {
	if a.cfg.NATS.URL == "" {
		return 0, fmt.Errorf("nats.url is not configured")
	}
	nc, err := natsTransport.Connect(a.cfg.NATS.URL, "spacetwo-cli", a.logger)
	if err != nil {
		return 0, err
	}
	defer nc.Close()

	timeout := time.Duration(a.cfg.HTTP.RequestTimeoutSec) * time.Second
	reply, err := natsTransport.Request(ctx, nc, a.cfg.NATS.IngestSubject, req, timeout)
	if err != nil {
		return 0, err
	}
	if reply.Error != "" {
		return reply.Upserted, fmt.Errorf("server: %s", reply.Error)
	}
	return reply.Upserted, nil
}
