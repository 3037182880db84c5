package service

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/tieubaoca/docchat-be/database"
	"github.com/tieubaoca/docchat-be/repository"
	"github.com/tieubaoca/docchat-be/types"
	"github.com/tieubaoca/docchat-be/utils"
	"go.uber.org/zap"
)

const previewLength = 500

// DocumentExtractor turns uploaded PDF bytes into text. PDFService implements it.
type DocumentExtractor interface {
	Extract(ctx context.Context, data []byte) (*ExtractedPDF, error)
}

type FileService struct {
	uploadDir     string
	maxUploadSize int64
	extractor     DocumentExtractor
	pipeline      *IngestionPipeline
	repo          repository.DocumentRepo
	indexer       database.ChunkIndexer
	progress      ProgressPublisher
	logger        *zap.Logger
}

type FileServiceConfig struct {
	// UploadDir keeps a copy of every accepted upload. Empty disables archiving.
	UploadDir     string
	MaxUploadSize int64
}

// NewFileService wires the upload flow. indexer and progress may be nil.
func NewFileService(
	cfg FileServiceConfig,
	extractor DocumentExtractor,
	pipeline *IngestionPipeline,
	repo repository.DocumentRepo,
	indexer database.ChunkIndexer,
	progress ProgressPublisher,
	logger *zap.Logger,
) (*FileService, error) {
	if cfg.UploadDir != "" {
		if err := os.MkdirAll(cfg.UploadDir, 0755); err != nil {
			return nil, fmt.Errorf("create upload dir: %w", err)
		}
	}
	return &FileService{
		uploadDir:     cfg.UploadDir,
		maxUploadSize: cfg.MaxUploadSize,
		extractor:     extractor,
		pipeline:      pipeline,
		repo:          repo,
		indexer:       indexer,
		progress:      progress,
		logger:        logger,
	}, nil
}

func (s *FileService) MaxUploadSize() int64 {
	return s.maxUploadSize
}

// Pipeline returns the ingestion pipeline the service runs.
func (s *FileService) Pipeline() *IngestionPipeline {
	return s.pipeline
}

// IsPDFMediaType reports whether a declared Content-Type is application/pdf.
func IsPDFMediaType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == types.MediaTypePDF
}

// UploadFile runs one upload end to end: validate, archive, extract, ingest,
// persist and index. Errors carry the stage they failed in.
func (s *FileService) UploadFile(ctx context.Context, raw types.RawDocument, req types.UploadRequest) (*types.UploadResponse, error) {
	log := s.logger.With(zap.String("filename", raw.Filename), zap.String("owner", req.OwnerID))
	track := s.tracker(raw.Filename, req.OwnerID)

	res, err := s.upload(ctx, raw, req, track, log)
	if err != nil {
		track.failed(err)
		return nil, err
	}
	track.done(res.DocumentID, len(res.Chunks))
	return res, nil
}

func (s *FileService) upload(ctx context.Context, raw types.RawDocument, req types.UploadRequest, track *uploadTracker, log *zap.Logger) (*types.UploadResponse, error) {
	track.stage("validate")
	if !IsPDFMediaType(raw.MediaType) {
		return nil, utils.AtStage("validate", fmt.Errorf("%w: got %q", utils.ErrUnsupportedMediaType, raw.MediaType))
	}
	if s.maxUploadSize > 0 && int64(len(raw.Data)) > s.maxUploadSize {
		return nil, utils.AtStage("validate", fmt.Errorf("%w: %d bytes (max %d)", utils.ErrFileTooLarge, len(raw.Data), s.maxUploadSize))
	}

	storagePath, err := s.archive(raw)
	if err != nil {
		return nil, utils.AtStage("archive", err)
	}
	committed := false
	defer func() {
		if !committed && storagePath != "" {
			os.Remove(storagePath)
		}
	}()

	track.stage("extract")
	extracted, err := s.extractor.Extract(ctx, raw.Data)
	if err != nil {
		return nil, utils.AtStage("extract", err)
	}

	track.stage("ingest")
	opts := s.pipeline.Defaults()
	opts.Sectioned = req.Sectioned
	result, err := s.pipeline.Ingest(extracted.Text, opts)
	if err != nil {
		return nil, utils.AtStage("ingest", err)
	}
	result.Stats.PageCount = extracted.PageCount

	track.stage("persist")
	doc, err := s.repo.SaveIngestion(ctx, types.DocumentRef{
		Name:        raw.Filename,
		MediaType:   types.MediaTypePDF,
		OwnerID:     req.OwnerID,
		StoragePath: storagePath,
	}, result)
	if err != nil {
		return nil, utils.AtStage("persist", err)
	}
	committed = true

	log.Info("document ingested",
		zap.String("document_id", doc.ID),
		zap.Int("pages", result.Stats.PageCount),
		zap.Int("raw_length", result.Stats.RawLength),
		zap.Int("clean_length", result.Stats.CleanLength),
		zap.Int("sections", len(result.Sections)),
		zap.Int("chunks", len(result.Chunks)),
	)

	if s.indexer != nil {
		track.stage("index")
	}
	return &types.UploadResponse{
		DocumentID: doc.ID,
		Filename:   raw.Filename,
		Sections:   result.Sections,
		Chunks:     result.Chunks,
		Stats:      result.Stats,
		Preview:    preview(result.CleanText),
		Indexed:    s.index(ctx, doc, log),
	}, nil
}

// GetDocument returns a stored document with its sections and chunks.
func (s *FileService) GetDocument(ctx context.Context, id string) (*types.StoredDocument, error) {
	return s.repo.GetDocument(ctx, id)
}

// ListDocuments returns a page of stored documents without their content.
func (s *FileService) ListDocuments(ctx context.Context, filter types.DocumentFilter) (*types.DocumentPage, error) {
	return s.repo.ListDocuments(ctx, filter)
}

// DeleteDocument removes a document from the store, the vector index and the
// upload archive. Only the store deletion is fatal.
func (s *FileService) DeleteDocument(ctx context.Context, id string) error {
	doc, err := s.repo.DeleteDocument(ctx, id)
	if err != nil {
		return err
	}
	log := s.logger.With(zap.String("document_id", id))
	if s.indexer != nil {
		if err := s.indexer.DeleteDocumentChunks(ctx, id); err != nil {
			log.Warn("failed to remove indexed chunks", zap.Error(err))
		}
	}
	if doc.StoragePath != "" {
		if err := os.Remove(doc.StoragePath); err != nil && !os.IsNotExist(err) {
			log.Warn("failed to remove archived file", zap.String("path", doc.StoragePath), zap.Error(err))
		}
	}
	log.Info("document deleted", zap.Int("chunks", len(doc.Chunks)))
	return nil
}

// index pushes the committed chunks to the vector index. The document is
// already durable, so a failure is logged and partial writes are removed.
func (s *FileService) index(ctx context.Context, doc *types.StoredDocument, log *zap.Logger) bool {
	if s.indexer == nil || len(doc.Chunks) == 0 {
		return false
	}
	if err := s.indexer.IndexChunks(ctx, doc); err != nil {
		log.Error("failed to index chunks", zap.String("document_id", doc.ID), zap.Error(err))
		if err := s.indexer.DeleteDocumentChunks(ctx, doc.ID); err != nil {
			log.Warn("failed to remove partially indexed chunks", zap.String("document_id", doc.ID), zap.Error(err))
		}
		return false
	}
	return true
}

func (s *FileService) archive(raw types.RawDocument) (string, error) {
	if s.uploadDir == "" {
		return "", nil
	}
	path := filepath.Join(s.uploadDir, utils.TimestampedName(raw.Filename))
	if err := os.WriteFile(path, raw.Data, 0644); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	return path, nil
}

func preview(text string) string {
	if len(text) <= previewLength {
		return text
	}
	cut := previewLength
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return strings.TrimSpace(text[:cut])
}

type uploadTracker struct {
	publisher ProgressPublisher
	uploadID  string
	filename  string
	ownerID   string
	current   string
}

func (s *FileService) tracker(filename, ownerID string) *uploadTracker {
	return &uploadTracker{
		publisher: s.progress,
		uploadID:  uuid.NewString(),
		filename:  filename,
		ownerID:   ownerID,
	}
}

func (t *uploadTracker) publish(event types.IngestEvent) {
	if t.publisher == nil {
		return
	}
	event.UploadID = t.uploadID
	event.Filename = t.filename
	event.OwnerID = t.ownerID
	event.Time = time.Now().UTC()
	t.publisher.Publish(event)
}

func (t *uploadTracker) stage(name string) {
	t.current = name
	t.publish(types.IngestEvent{Type: types.EventStage, Stage: name})
}

func (t *uploadTracker) done(documentID string, chunks int) {
	t.publish(types.IngestEvent{Type: types.EventDone, DocumentID: documentID, Chunks: chunks})
}

func (t *uploadTracker) failed(err error) {
	stage := utils.StageOf(err)
	if stage == "" {
		stage = t.current
	}
	t.publish(types.IngestEvent{Type: types.EventFailed, Stage: stage, Error: utils.MapError(err).Message})
}
