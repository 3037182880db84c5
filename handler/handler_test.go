package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tieubaoca/docchat-be/database"
	"github.com/tieubaoca/docchat-be/middleware"
	"github.com/tieubaoca/docchat-be/repository"
	"github.com/tieubaoca/docchat-be/service"
	"github.com/tieubaoca/docchat-be/types"
	"github.com/tieubaoca/docchat-be/utils"
	"go.uber.org/zap"
)

const resumeText = "WORK EXPERIENCE\nBuilt a scheduler in Rust. Improved throughput by 40%.\nEDUCATION\nBSc Computer Science, 2021."

var pdfBytes = []byte("%PDF-1.7 test document")

func init() {
	gin.SetMode(gin.TestMode)
}

type stubExtractor struct {
	text string
	err  error
}

func (s *stubExtractor) Extract(ctx context.Context, data []byte) (*service.ExtractedPDF, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &service.ExtractedPDF{Text: s.text, PageCount: 1}, nil
}

func setupRouter(t *testing.T, extractor *stubExtractor, defaultOwner string) *gin.Engine {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	db, err := database.OpenSQLite(ctx, filepath.Join(dir, "handler.db"))
	require.NoError(t, err)
	repo := repository.NewSQLiteDocumentRepo(db)
	t.Cleanup(func() { repo.Close(ctx) })

	pipeline, err := service.NewIngestionPipeline(types.PipelineConfig{Sectioned: true, MaxChunkLength: 400})
	require.NoError(t, err)

	fileService, err := service.NewFileService(service.FileServiceConfig{
		UploadDir:     filepath.Join(dir, "uploads"),
		MaxUploadSize: 1024,
	}, extractor, pipeline, repo, nil, nil, zap.NewNop())
	require.NoError(t, err)

	return NewRouter(fileService, service.NewProgressService(zap.NewNop()), defaultOwner, zap.NewNop())
}

type uploadPart struct {
	filename    string
	contentType string
	data        []byte
}

func uploadRequest(t *testing.T, part *uploadPart, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if part != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, part.filename))
		h.Set("Content-Type", part.contentType)
		pw, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = pw.Write(part.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req, err := http.NewRequest(http.MethodPost, "/api/upload", &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set(middleware.OwnerHeader, "alice")
	return req
}

type uploadEnvelope struct {
	Status  string               `json:"status"`
	Code    string               `json:"code"`
	Message string               `json:"message"`
	Data    types.UploadResponse `json:"data"`
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func upload(t *testing.T, r *gin.Engine) types.UploadResponse {
	t.Helper()
	w := serve(r, uploadRequest(t, &uploadPart{"resume.pdf", "application/pdf", pdfBytes}, nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var env uploadEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env.Data
}

func TestUploadDocument(t *testing.T) {
	r := setupRouter(t, &stubExtractor{text: resumeText}, "")

	w := serve(r, uploadRequest(t, &uploadPart{"resume.pdf", "application/pdf", pdfBytes}, nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var env uploadEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, types.StatusOK, env.Status)
	assert.NotEmpty(t, env.Data.DocumentID)
	assert.Equal(t, "resume.pdf", env.Data.Filename)
	require.Len(t, env.Data.Sections, 2)
	assert.Equal(t, types.SectionExperience, env.Data.Sections[0].Category)
	assert.Equal(t, types.SectionEducation, env.Data.Sections[1].Category)
	require.Len(t, env.Data.Chunks, 2)
	assert.Equal(t, types.SectionEducation, env.Data.Chunks[1].SectionCategory)
	assert.Equal(t, len(resumeText), env.Data.Stats.RawLength)
	assert.Equal(t, 1, env.Data.Stats.PageCount)
	assert.False(t, env.Data.Indexed)
}

func TestUploadDocumentUnsectioned(t *testing.T) {
	r := setupRouter(t, &stubExtractor{text: resumeText}, "")

	w := serve(r, uploadRequest(t, &uploadPart{"resume.pdf", "application/pdf", pdfBytes}, map[string]string{"sectioned": "false"}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var env uploadEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.Len(t, env.Data.Sections, 1)
	assert.Equal(t, types.SectionGeneral, env.Data.Sections[0].Category)
}

func TestUploadDocumentErrors(t *testing.T) {
	tests := []struct {
		name      string
		extractor *stubExtractor
		part      *uploadPart
		fields    map[string]string
		wantCode  int
		wantKind  string
	}{
		{
			name:      "no file",
			extractor: &stubExtractor{text: resumeText},
			wantCode:  http.StatusBadRequest,
			wantKind:  "NoFile",
		},
		{
			name:      "not a pdf",
			extractor: &stubExtractor{text: resumeText},
			part:      &uploadPart{"notes.txt", "text/plain", []byte("hello")},
			wantCode:  http.StatusBadRequest,
			wantKind:  "UnsupportedMediaType",
		},
		{
			name:      "too large",
			extractor: &stubExtractor{text: resumeText},
			part:      &uploadPart{"big.pdf", "application/pdf", bytes.Repeat([]byte("x"), 4096)},
			wantCode:  http.StatusRequestEntityTooLarge,
			wantKind:  "FileTooLarge",
		},
		{
			name:      "invalid sectioned flag",
			extractor: &stubExtractor{text: resumeText},
			part:      &uploadPart{"resume.pdf", "application/pdf", pdfBytes},
			fields:    map[string]string{"sectioned": "maybe"},
			wantCode:  http.StatusBadRequest,
			wantKind:  "InvalidSectioned",
		},
		{
			name:      "extraction failure",
			extractor: &stubExtractor{err: fmt.Errorf("%w: encrypted", utils.ErrExtraction)},
			part:      &uploadPart{"locked.pdf", "application/pdf", pdfBytes},
			wantCode:  http.StatusInternalServerError,
			wantKind:  "Extraction",
		},
		{
			name:      "no extractable text",
			extractor: &stubExtractor{text: "  \n\f  "},
			part:      &uploadPart{"scan.pdf", "application/pdf", pdfBytes},
			wantCode:  http.StatusUnprocessableEntity,
			wantKind:  "EmptyDocument",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := setupRouter(t, tt.extractor, "")
			w := serve(r, uploadRequest(t, tt.part, tt.fields))

			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
			var env uploadEnvelope
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
			assert.Equal(t, types.StatusError, env.Status)
			assert.Equal(t, tt.wantKind, env.Code)
			assert.NotEmpty(t, env.Message)
		})
	}
}

func TestUploadDocumentRequiresOwner(t *testing.T) {
	r := setupRouter(t, &stubExtractor{text: resumeText}, "")
	req := uploadRequest(t, &uploadPart{"resume.pdf", "application/pdf", pdfBytes}, nil)
	req.Header.Del(middleware.OwnerHeader)

	w := serve(r, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "NoOwner")
}

func TestDocumentRoutes(t *testing.T) {
	r := setupRouter(t, &stubExtractor{text: resumeText}, "")
	uploaded := upload(t, r)
	id := uploaded.DocumentID

	req, _ := http.NewRequest(http.MethodGet, "/api/documents/"+id, nil)
	w := serve(r, req)
	require.Equal(t, http.StatusOK, w.Code)
	var got struct {
		Data types.StoredDocument `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, id, got.Data.ID)
	assert.Equal(t, "alice", got.Data.OwnerID)
	assert.Len(t, got.Data.Chunks, 2)
	assert.NotContains(t, w.Body.String(), "storage")

	req, _ = http.NewRequest(http.MethodGet, "/api/documents/"+id+"/file", nil)
	w = serve(r, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, pdfBytes, w.Body.Bytes())
	assert.Equal(t, types.MediaTypePDF, w.Header().Get("Content-Type"))

	req, _ = http.NewRequest(http.MethodGet, "/api/documents", nil)
	req.Header.Set(middleware.OwnerHeader, "alice")
	w = serve(r, req)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Data types.DocumentPage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.EqualValues(t, 1, list.Data.Total)
	require.Len(t, list.Data.Documents, 1)
	assert.Equal(t, id, list.Data.Documents[0].ID)

	req, _ = http.NewRequest(http.MethodGet, "/api/documents?page=x", nil)
	req.Header.Set(middleware.OwnerHeader, "alice")
	assert.Equal(t, http.StatusBadRequest, serve(r, req).Code)

	req, _ = http.NewRequest(http.MethodDelete, "/api/documents/"+id, nil)
	assert.Equal(t, http.StatusOK, serve(r, req).Code)

	req, _ = http.NewRequest(http.MethodGet, "/api/documents/"+id, nil)
	w = serve(r, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "NotFound")

	req, _ = http.NewRequest(http.MethodDelete, "/api/documents/"+id, nil)
	assert.Equal(t, http.StatusNotFound, serve(r, req).Code)
}

func TestHealthAndCors(t *testing.T) {
	r := setupRouter(t, &stubExtractor{text: resumeText}, "dev")

	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, serve(r, req).Code)

	req, _ = http.NewRequest(http.MethodOptions, "/api/upload", nil)
	w := serve(r, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
