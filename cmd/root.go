/*
Copyright © 2025 tieubaoca
*/
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "docchat-be",
	Short: "Document ingestion backend for chat over PDFs",
	Long: `docchat-be extracts text from uploaded PDFs, splits it into sections and
sentence-aligned chunks and stores them for retrieval.

Run "docchat-be start" to serve the upload API, or "docchat-be ingest" to
process local files.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config/config.yaml", "config file (empty for defaults and DOCCHAT_* env only)")
}
