package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/tieubaoca/docchat-be/types"
	"github.com/tieubaoca/docchat-be/utils"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type mongoDocumentRepo struct {
	client    *mongo.Client
	documents *mongo.Collection
	sections  *mongo.Collection
	chunks    *mongo.Collection
}

// NewMongoDocumentRepo stores documents in db. Transactions need a replica set.
func NewMongoDocumentRepo(ctx context.Context, client *mongo.Client, db *mongo.Database) (DocumentRepo, error) {
	r := &mongoDocumentRepo{
		client:    client,
		documents: db.Collection("documents"),
		sections:  db.Collection("sections"),
		chunks:    db.Collection("chunks"),
	}

	indexes := []struct {
		collection *mongo.Collection
		model      mongo.IndexModel
	}{
		{r.documents, mongo.IndexModel{Keys: bson.D{{Key: "owner_id", Value: 1}}}},
		{r.sections, mongo.IndexModel{
			Keys:    bson.D{{Key: "document_id", Value: 1}, {Key: "position", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{r.chunks, mongo.IndexModel{
			Keys:    bson.D{{Key: "document_id", Value: 1}, {Key: "position", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
	}
	for _, idx := range indexes {
		if _, err := idx.collection.Indexes().CreateOne(ctx, idx.model); err != nil {
			return nil, fmt.Errorf("create index on %s: %w", idx.collection.Name(), err)
		}
	}
	return r, nil
}

func (r *mongoDocumentRepo) SaveIngestion(ctx context.Context, ref types.DocumentRef, result *types.PipelineResult) (*types.StoredDocument, error) {
	doc := newStoredDocument(ref, result)

	session, err := r.client.StartSession()
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(context.Background())

	_, err = session.WithTransaction(ctx, func(ctx context.Context) (interface{}, error) {
		if _, err := r.documents.InsertOne(ctx, doc); err != nil {
			return nil, fmt.Errorf("insert document: %w", err)
		}
		if len(doc.Sections) > 0 {
			if _, err := r.sections.InsertMany(ctx, doc.Sections); err != nil {
				return nil, fmt.Errorf("insert sections: %w", err)
			}
		}
		if len(doc.Chunks) > 0 {
			if _, err := r.chunks.InsertMany(ctx, doc.Chunks); err != nil {
				return nil, fmt.Errorf("insert chunks: %w", err)
			}
		}
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (r *mongoDocumentRepo) GetDocument(ctx context.Context, id string) (*types.StoredDocument, error) {
	var doc types.StoredDocument
	err := r.documents.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("document %s: %w", id, utils.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	sortByPosition := options.Find().SetSort(bson.D{{Key: "position", Value: 1}})

	cursor, err := r.sections.Find(ctx, bson.M{"document_id": id}, sortByPosition)
	if err != nil {
		return nil, err
	}
	doc.Sections = []types.StoredSection{}
	if err := cursor.All(ctx, &doc.Sections); err != nil {
		return nil, err
	}

	cursor, err = r.chunks.Find(ctx, bson.M{"document_id": id}, sortByPosition)
	if err != nil {
		return nil, err
	}
	doc.Chunks = []types.StoredChunk{}
	if err := cursor.All(ctx, &doc.Chunks); err != nil {
		return nil, err
	}

	return &doc, nil
}

func (r *mongoDocumentRepo) ListDocuments(ctx context.Context, filter types.DocumentFilter) (*types.DocumentPage, error) {
	filter = normalizeFilter(filter)

	query := bson.M{}
	if filter.OwnerID != "" {
		query["owner_id"] = filter.OwnerID
	}

	total, err := r.documents.CountDocuments(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip((filter.Page - 1) * filter.Limit).
		SetLimit(filter.Limit)
	cursor, err := r.documents.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}

	page := &types.DocumentPage{
		Documents: []types.StoredDocument{},
		Total:     total,
		Page:      filter.Page,
		Limit:     filter.Limit,
	}
	if err := cursor.All(ctx, &page.Documents); err != nil {
		return nil, err
	}
	return page, nil
}

func (r *mongoDocumentRepo) DeleteDocument(ctx context.Context, id string) (*types.StoredDocument, error) {
	doc, err := r.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}

	session, err := r.client.StartSession()
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(context.Background())

	_, err = session.WithTransaction(ctx, func(ctx context.Context) (interface{}, error) {
		if _, err := r.chunks.DeleteMany(ctx, bson.M{"document_id": id}); err != nil {
			return nil, fmt.Errorf("delete chunks: %w", err)
		}
		if _, err := r.sections.DeleteMany(ctx, bson.M{"document_id": id}); err != nil {
			return nil, fmt.Errorf("delete sections: %w", err)
		}
		res, err := r.documents.DeleteOne(ctx, bson.M{"_id": id})
		if err != nil {
			return nil, fmt.Errorf("delete document: %w", err)
		}
		if res.DeletedCount == 0 {
			return nil, fmt.Errorf("document %s: %w", id, utils.ErrNotFound)
		}
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (r *mongoDocumentRepo) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
