package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-openapi/strfmt"
	"github.com/tieubaoca/docchat-be/config"
	"github.com/tieubaoca/docchat-be/types"
	"github.com/weaviate/weaviate-go-client/v4/weaviate"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/auth"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/filters"
	"github.com/weaviate/weaviate/entities/models"
)

const BATCH_SIZE = 200

const CHUNK_CLASS = "DocumentChunk"

func chunkClass(text2vec string) *models.Class {
	return &models.Class{
		Class: CHUNK_CLASS,
		Properties: []*models.Property{
			{Name: "content", DataType: []string{"text"}},
			{Name: "documentId", DataType: []string{"text"}},
			{Name: "filename", DataType: []string{"text"}},
			{Name: "section", DataType: []string{"text"}},
			{Name: "ownerId", DataType: []string{"text"}},
			{Name: "chunkIndex", DataType: []string{"int"}},
		},
		Vectorizer:      text2vec,
		VectorIndexType: "hnsw",
	}
}

// WeaviateStore indexes persisted chunks in Weaviate for later vector search.
type WeaviateStore struct {
	client   *weaviate.Client
	text2vec string
}

func NewWeaviateStore(ctx context.Context, cfg config.WeaviateStoreConfig) (*WeaviateStore, error) {
	var scheme string
	if strings.HasPrefix(cfg.Host, "https") {
		scheme = "https"
	} else {
		scheme = "http"
	}
	host := strings.TrimPrefix(cfg.Host, scheme+"://")
	wcfg := weaviate.Config{
		Host:   host,
		Scheme: scheme,
	}
	if cfg.APIKey != "" {
		wcfg.AuthConfig = auth.ApiKey{
			Value: cfg.APIKey,
		}
		wcfg.Headers = map[string]string{
			"X-Weaviate-Api-Key":     cfg.APIKey,
			"X-Weaviate-Cluster-Url": fmt.Sprintf("%s://%s", scheme, host),
		}
	}
	client, err := weaviate.NewClient(wcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create weaviate client: %v", err)
	}

	s := &WeaviateStore{
		client:   client,
		text2vec: cfg.Text2Vec,
	}
	if err := s.ensureClass(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *WeaviateStore) ensureClass(ctx context.Context) error {
	exists, err := s.client.Schema().ClassExistenceChecker().WithClassName(CHUNK_CLASS).Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to get schema: %v", err)
	}
	if exists {
		return nil
	}
	if err := s.client.Schema().ClassCreator().WithClass(chunkClass(s.text2vec)).Do(ctx); err != nil {
		return fmt.Errorf("failed to create %s class: %v", CHUNK_CLASS, err)
	}
	return nil
}

// ReInit drops the chunk class with all its objects and creates it again.
func (s *WeaviateStore) ReInit(ctx context.Context) error {
	err := s.client.Schema().ClassDeleter().WithClassName(CHUNK_CLASS).Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete %s class: %v", CHUNK_CLASS, err)
	}
	return s.ensureClass(ctx)
}

// IndexChunks batch inserts every chunk of doc. Chunk ids are reused as object
// ids, so indexing the same document twice overwrites instead of duplicating.
func (s *WeaviateStore) IndexChunks(ctx context.Context, doc *types.StoredDocument) error {
	total := len(doc.Chunks)
	for i := 0; i < total; i += BATCH_SIZE {
		end := i + BATCH_SIZE
		if end > total {
			end = total
		}

		batcher := s.client.Batch().ObjectsBatcher()
		for _, chunk := range doc.Chunks[i:end] {
			batcher = batcher.WithObjects(&models.Object{
				Class: CHUNK_CLASS,
				ID:    strfmt.UUID(chunk.ID),
				Properties: map[string]interface{}{
					"content":    chunk.Content,
					"documentId": doc.ID,
					"filename":   doc.Name,
					"section":    string(chunk.SectionCategory),
					"ownerId":    doc.OwnerID,
					"chunkIndex": chunk.Position,
				},
			})
		}

		resp, err := batcher.Do(ctx)
		if err != nil {
			return fmt.Errorf("failed to insert batch %d-%d: %v", i, end, err)
		}
		for _, obj := range resp {
			if obj.Result != nil && obj.Result.Errors != nil && len(obj.Result.Errors.Error) > 0 {
				return fmt.Errorf("failed to insert chunk %s: %s", obj.ID, obj.Result.Errors.Error[0].Message)
			}
		}
	}
	return nil
}

// DeleteDocumentChunks removes every indexed chunk of a document.
func (s *WeaviateStore) DeleteDocumentChunks(ctx context.Context, documentID string) error {
	where := filters.Where().
		WithPath([]string{"documentId"}).
		WithOperator(filters.Equal).
		WithValueText(documentID)
	_, err := s.client.Batch().ObjectsBatchDeleter().
		WithClassName(CHUNK_CLASS).
		WithWhere(where).
		Do(ctx)
	return err
}
