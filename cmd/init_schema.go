/*
Copyright © 2025 tieubaoca
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tieubaoca/docchat-be/database"
	"go.uber.org/zap"
)

var initSchemaCmd = &cobra.Command{
	Use:   "init-schema",
	Short: "Create the document tables and the Weaviate chunk class",
	Long: `Creates the sqlite tables and, when weaviate is enabled, the DocumentChunk
class. With --reinit both are dropped first and every stored document is lost.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		reinit, _ := cmd.Flags().GetBool("reinit")
		ctx := cmd.Context()

		cfg, logger, err := loadConfigAndLogger()
		if err != nil {
			return err
		}
		defer logger.Sync()

		if cfg.Store.Driver == database.DriverSQLite {
			db, err := database.OpenSQLite(ctx, cfg.Store.SQLitePath)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := database.InitSQLiteSchema(ctx, db, reinit); err != nil {
				return err
			}
			logger.Info("sqlite schema ready", zap.String("path", cfg.Store.SQLitePath), zap.Bool("reinit", reinit))
		}

		if cfg.WeaviateStoreConfig.Enabled {
			weaviateDb, err := database.NewWeaviateStore(ctx, cfg.WeaviateStoreConfig)
			if err != nil {
				return fmt.Errorf("failed to connect to Weaviate database: %w", err)
			}
			if reinit {
				if err := weaviateDb.ReInit(ctx); err != nil {
					return fmt.Errorf("failed to reinitialize Weaviate database: %w", err)
				}
			}
			logger.Info("weaviate class ready", zap.String("class", database.CHUNK_CLASS), zap.Bool("reinit", reinit))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initSchemaCmd)
	initSchemaCmd.Flags().BoolP("reinit", "r", false, "Drop existing tables and class before creating them")
}
