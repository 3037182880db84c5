/*
Copyright © 2025 tieubaoca
*/
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"github.com/tieubaoca/docchat-be/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// batchIngestCmd ingests every PDF in a directory
var batchIngestCmd = &cobra.Command{
	Use:   "batch-ingest",
	Short: "Ingest every PDF in a directory",
	Long: `Runs each *.pdf file of a directory through the ingestion flow with bounded
concurrency. A failing file is reported and does not stop the others.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		directory, _ := cmd.Flags().GetString("directory")
		concurrency, _ := cmd.Flags().GetInt("concurrency")
		if directory == "" {
			return fmt.Errorf("--directory is required")
		}
		if concurrency <= 0 {
			return fmt.Errorf("--concurrency must be positive")
		}

		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close(context.Background())

		owner, sectioned := ingestOptions(cmd, a)
		if owner == "" {
			return fmt.Errorf("--owner is required when default_owner is not configured")
		}

		files, err := pdfFiles(directory)
		if err != nil {
			return err
		}

		summaries := make([]types.IngestSummary, len(files))
		var mu sync.Mutex
		failed := 0

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(concurrency)
		for i, filePath := range files {
			g.Go(func() error {
				summary := types.IngestSummary{File: filePath}
				res, err := ingestFile(gctx, a, filePath, owner, sectioned)
				if err != nil {
					a.logger.Error("failed to ingest document", zap.String("file", filePath), zap.Error(err))
					summary.Error = err.Error()
					mu.Lock()
					failed++
					mu.Unlock()
				} else {
					summary.DocumentID = res.DocumentID
					summary.Sections = len(res.Sections)
					summary.Chunks = len(res.Chunks)
				}
				summaries[i] = summary
				// Per-file failures are reported, only cancellation stops the batch.
				return gctx.Err()
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(summaries); err != nil {
			return err
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d documents failed", failed, len(files))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(batchIngestCmd)

	batchIngestCmd.Flags().StringP("directory", "d", "", "Directory containing the PDFs to ingest")
	batchIngestCmd.Flags().IntP("concurrency", "n", 4, "Number of documents processed at once")
	addIngestFlags(batchIngestCmd)
}

// pdfFiles lists the *.pdf files directly inside directory, sorted by name.
func pdfFiles(directory string) ([]string, error) {
	entries, err := os.ReadDir(directory)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			continue
		}
		files = append(files, filepath.Join(directory, entry.Name()))
	}
	return files, nil
}
