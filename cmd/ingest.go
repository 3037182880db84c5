/*
Copyright © 2025 tieubaoca
*/
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tieubaoca/docchat-be/types"
)

// ingestCmd runs one local PDF through the same flow as an upload.
var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest a local PDF file",
	Long: `Extracts, chunks and stores a local PDF exactly as POST /api/upload would,
then prints a JSON summary of the stored document.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		filePath, _ := cmd.Flags().GetString("file")
		if filePath == "" {
			return fmt.Errorf("--file is required")
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

		res, err := ingestFile(ctx, a, filePath, owner, sectioned)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(types.IngestSummary{
			File:       filePath,
			DocumentID: res.DocumentID,
			Sections:   len(res.Sections),
			Chunks:     len(res.Chunks),
		})
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringP("file", "f", "", "Path to the PDF to ingest")
	addIngestFlags(ingestCmd)
}

func addIngestFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("owner", "o", "", "Owner id stored with the document (default: default_owner)")
	cmd.Flags().Bool("sectioned", false, "Split into resume-like sections (default: pipeline.sectioned)")
}

// ingestOptions returns the flag values, falling back to the configuration.
func ingestOptions(cmd *cobra.Command, a *app) (string, bool) {
	owner, _ := cmd.Flags().GetString("owner")
	if owner == "" {
		owner = a.cfg.DefaultOwner
	}
	sectioned := a.fileService.Pipeline().Defaults().Sectioned
	if cmd.Flags().Changed("sectioned") {
		sectioned, _ = cmd.Flags().GetBool("sectioned")
	}
	return owner, sectioned
}

func ingestFile(ctx context.Context, a *app, filePath, owner string, sectioned bool) (*types.UploadResponse, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filePath, err)
	}
	return a.fileService.UploadFile(ctx, types.RawDocument{
		Data:      data,
		MediaType: mediaTypeOf(filePath),
		Filename:  filepath.Base(filePath),
	}, types.UploadRequest{
		OwnerID:   owner,
		Sectioned: sectioned,
	})
}

func mediaTypeOf(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".pdf" {
		return types.MediaTypePDF
	}
	if mt := mime.TypeByExtension(ext); mt != "" {
		return mt
	}
	return "application/octet-stream"
}
