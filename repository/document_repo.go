package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tieubaoca/docchat-be/types"
)

// DocumentRepo persists ingestion results. SaveIngestion writes the document,
// its sections and its chunks as one unit: either all are stored or none.
type DocumentRepo interface {
	SaveIngestion(ctx context.Context, ref types.DocumentRef, result *types.PipelineResult) (*types.StoredDocument, error)
	GetDocument(ctx context.Context, id string) (*types.StoredDocument, error)
	ListDocuments(ctx context.Context, filter types.DocumentFilter) (*types.DocumentPage, error)
	// DeleteDocument removes the document with its sections and chunks and
	// returns what was removed.
	DeleteDocument(ctx context.Context, id string) (*types.StoredDocument, error)
	Close(ctx context.Context) error
}

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// normalizeFilter clamps page and limit to usable values.
func normalizeFilter(filter types.DocumentFilter) types.DocumentFilter {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultPageLimit
	}
	if filter.Limit > maxPageLimit {
		filter.Limit = maxPageLimit
	}
	return filter
}

// newStoredDocument assigns ids and positions to everything in result.
func newStoredDocument(ref types.DocumentRef, result *types.PipelineResult) *types.StoredDocument {
	doc := &types.StoredDocument{
		ID:          uuid.NewString(),
		Name:        ref.Name,
		MediaType:   ref.MediaType,
		OwnerID:     ref.OwnerID,
		StoragePath: ref.StoragePath,
		Stats:       result.Stats,
		Sections:    make([]types.StoredSection, 0, len(result.Sections)),
		Chunks:      make([]types.StoredChunk, 0, len(result.Chunks)),
		CreatedAt:   time.Now().UTC(),
	}

	for i, section := range result.Sections {
		doc.Sections = append(doc.Sections, types.StoredSection{
			ID:         uuid.NewString(),
			DocumentID: doc.ID,
			Position:   i,
			Category:   section.Category,
			Content:    section.Content,
		})
	}

	for i, chunk := range result.Chunks {
		stored := types.StoredChunk{
			ID:              uuid.NewString(),
			DocumentID:      doc.ID,
			Position:        i,
			SectionCategory: chunk.SectionCategory,
			Content:         chunk.Content,
		}
		if chunk.SectionIndex >= 0 && chunk.SectionIndex < len(doc.Sections) {
			stored.SectionID = doc.Sections[chunk.SectionIndex].ID
		}
		doc.Chunks = append(doc.Chunks, stored)
	}

	return doc
}
