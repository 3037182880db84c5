package database

import (
	"context"

	"github.com/tieubaoca/docchat-be/types"
)

const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

// ChunkIndexer receives the chunks of a document once it has been committed.
type ChunkIndexer interface {
	IndexChunks(ctx context.Context, doc *types.StoredDocument) error
	DeleteDocumentChunks(ctx context.Context, documentID string) error
}
