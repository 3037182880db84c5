package cmd

import (
	"context"
	"fmt"

	"github.com/tieubaoca/docchat-be/config"
	"github.com/tieubaoca/docchat-be/database"
	"github.com/tieubaoca/docchat-be/repository"
	"github.com/tieubaoca/docchat-be/service"
	"github.com/tieubaoca/docchat-be/utils"
	"go.uber.org/zap"
)

// app holds everything the commands share.
type app struct {
	cfg         *config.Config
	logger      *zap.Logger
	repo        repository.DocumentRepo
	progress    *service.ProgressService
	fileService *service.FileService
}

func loadConfigAndLogger() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := utils.NewLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// newApp loads the configuration and builds the ingestion stack. Configuration
// errors surface here, before any request is served.
func newApp(ctx context.Context) (*app, error) {
	cfg, logger, err := loadConfigAndLogger()
	if err != nil {
		return nil, err
	}

	pipeline, err := service.NewIngestionPipeline(cfg.PipelineDefaults())
	if err != nil {
		return nil, err
	}
	extractor, err := service.NewTextExtractor(cfg.Extractor.Backend, cfg.Extractor.PdftotextPath)
	if err != nil {
		return nil, err
	}
	pdfService := service.NewPDFService(extractor, logger.Named("pdf"))

	repo, err := newDocumentRepo(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	var indexer database.ChunkIndexer
	if cfg.WeaviateStoreConfig.Enabled {
		weaviateDb, err := database.NewWeaviateStore(ctx, cfg.WeaviateStoreConfig)
		if err != nil {
			repo.Close(ctx)
			return nil, fmt.Errorf("failed to connect to Weaviate database: %w", err)
		}
		indexer = weaviateDb
	}

	progress := service.NewProgressService(logger.Named("progress"))
	fileService, err := service.NewFileService(service.FileServiceConfig{
		UploadDir:     cfg.UploadDir,
		MaxUploadSize: cfg.MaxUploadSize,
	}, pdfService, pipeline, repo, indexer, progress, logger.Named("upload"))
	if err != nil {
		repo.Close(ctx)
		return nil, err
	}

	logger.Info("ingestion stack ready",
		zap.String("store", cfg.Store.Driver),
		zap.String("extractor", cfg.Extractor.Backend),
		zap.Bool("weaviate", indexer != nil),
		zap.Bool("sectioned", cfg.Pipeline.Sectioned),
		zap.Int("max_chunk_length", cfg.Pipeline.MaxChunkLength),
	)

	return &app{
		cfg:         cfg,
		logger:      logger,
		repo:        repo,
		progress:    progress,
		fileService: fileService,
	}, nil
}

func newDocumentRepo(ctx context.Context, cfg config.StoreConfig) (repository.DocumentRepo, error) {
	switch cfg.Driver {
	case database.DriverMongo:
		client, err := database.NewMongoClient(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		repo, err := repository.NewMongoDocumentRepo(ctx, client, client.Database(cfg.MongoDatabase))
		if err != nil {
			client.Disconnect(ctx)
			return nil, err
		}
		return repo, nil
	default:
		db, err := database.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return repository.NewSQLiteDocumentRepo(db), nil
	}
}

func (a *app) Close(ctx context.Context) {
	if err := a.repo.Close(ctx); err != nil {
		a.logger.Warn("failed to close document store", zap.Error(err))
	}
	a.logger.Sync()
}
