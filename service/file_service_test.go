package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tieubaoca/docchat-be/database"
	"github.com/tieubaoca/docchat-be/repository"
	"github.com/tieubaoca/docchat-be/types"
	"github.com/tieubaoca/docchat-be/utils"
	"go.uber.org/zap"
)

type fakeExtractor struct {
	text  string
	pages int
	err   error
}

func (f *fakeExtractor) Extract(ctx context.Context, data []byte) (*ExtractedPDF, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &ExtractedPDF{Text: f.text, PageCount: f.pages}, nil
}

type fakeIndexer struct {
	mu      sync.Mutex
	err     error
	indexed map[string]int
	deleted []string
}

func (f *fakeIndexer) IndexChunks(ctx context.Context, doc *types.StoredDocument) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.indexed == nil {
		f.indexed = map[string]int{}
	}
	f.indexed[doc.ID] = len(doc.Chunks)
	return nil
}

func (f *fakeIndexer) DeleteDocumentChunks(ctx context.Context, documentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, documentID)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []types.IngestEvent
}

func (p *recordingPublisher) Publish(event types.IngestEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

type fileServiceFixture struct {
	service   *FileService
	repo      repository.DocumentRepo
	extractor *fakeExtractor
	indexer   *fakeIndexer
	events    *recordingPublisher
	uploadDir string
}

func newFileServiceFixture(t *testing.T) *fileServiceFixture {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	db, err := database.OpenSQLite(ctx, filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	repo := repository.NewSQLiteDocumentRepo(db)
	t.Cleanup(func() { repo.Close(ctx) })

	pipeline, err := NewIngestionPipeline(types.PipelineConfig{Sectioned: true, MaxChunkLength: 400})
	require.NoError(t, err)

	f := &fileServiceFixture{
		repo:      repo,
		extractor: &fakeExtractor{text: resumeText, pages: 2},
		indexer:   &fakeIndexer{},
		events:    &recordingPublisher{},
		uploadDir: filepath.Join(dir, "uploads"),
	}
	f.service, err = NewFileService(FileServiceConfig{
		UploadDir:     f.uploadDir,
		MaxUploadSize: 1024,
	}, f.extractor, pipeline, repo, f.indexer, f.events, zap.NewNop())
	require.NoError(t, err)
	return f
}

func (f *fileServiceFixture) archived(t *testing.T) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(f.uploadDir)
	require.NoError(t, err)
	return entries
}

func pdfUpload(name string) types.RawDocument {
	return types.RawDocument{Data: []byte("%PDF-1.7 fake"), MediaType: "application/pdf", Filename: name}
}

func TestUploadFile(t *testing.T) {
	f := newFileServiceFixture(t)
	ctx := context.Background()

	res, err := f.service.UploadFile(ctx, pdfUpload("resume.pdf"), types.UploadRequest{OwnerID: "alice", Sectioned: true})
	require.NoError(t, err)

	assert.NotEmpty(t, res.DocumentID)
	assert.Equal(t, "resume.pdf", res.Filename)
	assert.Len(t, res.Sections, 2)
	assert.Len(t, res.Chunks, 2)
	assert.Equal(t, 2, res.Stats.PageCount)
	assert.Equal(t, Normalize(resumeText), res.Preview)
	assert.True(t, res.Indexed)
	assert.Equal(t, 2, f.indexer.indexed[res.DocumentID])

	doc, err := f.service.GetDocument(ctx, res.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, "alice", doc.OwnerID)
	require.Len(t, doc.Sections, 2)
	require.Len(t, doc.Chunks, 2)
	assert.Equal(t, doc.Sections[0].ID, doc.Chunks[0].SectionID)
	assert.Equal(t, doc.Sections[1].ID, doc.Chunks[1].SectionID)
	assert.Len(t, f.archived(t), 1)

	var stages []string
	for _, e := range f.events.events {
		assert.Equal(t, "alice", e.OwnerID)
		assert.Equal(t, f.events.events[0].UploadID, e.UploadID)
		if e.Type == types.EventStage {
			stages = append(stages, e.Stage)
		}
	}
	assert.Equal(t, []string{"validate", "extract", "ingest", "persist", "index"}, stages)
	last := f.events.events[len(f.events.events)-1]
	assert.Equal(t, types.EventDone, last.Type)
	assert.Equal(t, res.DocumentID, last.DocumentID)
}

func TestUploadFileUnsectioned(t *testing.T) {
	f := newFileServiceFixture(t)

	res, err := f.service.UploadFile(context.Background(), pdfUpload("resume.pdf"), types.UploadRequest{OwnerID: "alice"})
	require.NoError(t, err)
	require.Len(t, res.Sections, 1)
	assert.Equal(t, types.SectionGeneral, res.Sections[0].Category)
}

func TestUploadFileErrors(t *testing.T) {
	tests := []struct {
		name    string
		raw     types.RawDocument
		setup   func(f *fileServiceFixture)
		wantErr error
		stage   string
	}{
		{
			name:    "unsupported media type",
			raw:     types.RawDocument{Data: []byte("hello"), MediaType: "text/plain", Filename: "a.txt"},
			wantErr: utils.ErrUnsupportedMediaType,
			stage:   "validate",
		},
		{
			name:    "too large",
			raw:     types.RawDocument{Data: make([]byte, 2048), MediaType: "application/pdf", Filename: "big.pdf"},
			wantErr: utils.ErrFileTooLarge,
			stage:   "validate",
		},
		{
			name:    "extraction failure",
			raw:     pdfUpload("broken.pdf"),
			setup:   func(f *fileServiceFixture) { f.extractor.err = utils.ErrExtraction },
			wantErr: utils.ErrExtraction,
			stage:   "extract",
		},
		{
			name:    "no text",
			raw:     pdfUpload("scan.pdf"),
			setup:   func(f *fileServiceFixture) { f.extractor.text = " \n\f " },
			wantErr: utils.ErrEmptyDocument,
			stage:   "ingest",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFileServiceFixture(t)
			if tt.setup != nil {
				tt.setup(f)
			}

			res, err := f.service.UploadFile(context.Background(), tt.raw, types.UploadRequest{OwnerID: "bob", Sectioned: true})
			assert.Nil(t, res)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			assert.Equal(t, tt.stage, utils.StageOf(err))

			// nothing persisted, nothing left in the archive
			page, err := f.repo.ListDocuments(context.Background(), types.DocumentFilter{})
			require.NoError(t, err)
			assert.Zero(t, page.Total)
			assert.Empty(t, f.archived(t))

			last := f.events.events[len(f.events.events)-1]
			assert.Equal(t, types.EventFailed, last.Type)
			assert.Equal(t, tt.stage, last.Stage)
		})
	}
}

func TestUploadFileIndexFailureKeepsDocument(t *testing.T) {
	f := newFileServiceFixture(t)
	f.indexer.err = errors.New("weaviate down")

	res, err := f.service.UploadFile(context.Background(), pdfUpload("resume.pdf"), types.UploadRequest{OwnerID: "alice", Sectioned: true})
	require.NoError(t, err)
	assert.False(t, res.Indexed)
	assert.Equal(t, []string{res.DocumentID}, f.indexer.deleted)

	_, err = f.service.GetDocument(context.Background(), res.DocumentID)
	assert.NoError(t, err)
}

func TestDeleteDocument(t *testing.T) {
	f := newFileServiceFixture(t)
	ctx := context.Background()

	res, err := f.service.UploadFile(ctx, pdfUpload("resume.pdf"), types.UploadRequest{OwnerID: "alice", Sectioned: true})
	require.NoError(t, err)

	require.NoError(t, f.service.DeleteDocument(ctx, res.DocumentID))
	assert.Equal(t, []string{res.DocumentID}, f.indexer.deleted)
	assert.Empty(t, f.archived(t))

	_, err = f.service.GetDocument(ctx, res.DocumentID)
	assert.True(t, errors.Is(err, utils.ErrNotFound))

	err = f.service.DeleteDocument(ctx, res.DocumentID)
	assert.True(t, errors.Is(err, utils.ErrNotFound))
}

func TestIsPDFMediaType(t *testing.T) {
	assert.True(t, IsPDFMediaType("application/pdf"))
	assert.True(t, IsPDFMediaType("application/pdf; charset=binary"))
	assert.True(t, IsPDFMediaType("Application/PDF"))
	assert.False(t, IsPDFMediaType("application/octet-stream"))
	assert.False(t, IsPDFMediaType(""))
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", preview("short"))

	long := make([]rune, 0, 600)
	for i := 0; i < 600; i++ {
		long = append(long, 'é')
	}
	p := preview(string(long))
	assert.LessOrEqual(t, len(p), previewLength)
	assert.True(t, len(p)%2 == 0, "preview must not cut a rune")
}
