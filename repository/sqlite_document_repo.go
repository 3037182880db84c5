package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tieubaoca/docchat-be/types"
	"github.com/tieubaoca/docchat-be/utils"
)

// fixed width so created_at sorts as text
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type sqliteDocumentRepo struct {
	db *sql.DB
}

func NewSQLiteDocumentRepo(db *sql.DB) DocumentRepo {
	return &sqliteDocumentRepo{
		db: db,
	}
}

func (r *sqliteDocumentRepo) SaveIngestion(ctx context.Context, ref types.DocumentRef, result *types.PipelineResult) (*types.StoredDocument, error) {
	doc := newStoredDocument(ref, result)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (id, name, media_type, owner_id, storage_path, raw_length, clean_length, page_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.Name, doc.MediaType, doc.OwnerID, doc.StoragePath,
		doc.Stats.RawLength, doc.Stats.CleanLength, doc.Stats.PageCount,
		doc.CreatedAt.Format(sqliteTimeLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("insert document: %w", err)
	}

	sectionStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO sections (id, document_id, position, category, content) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("prepare section insert: %w", err)
	}
	defer sectionStmt.Close()

	for _, s := range doc.Sections {
		if _, err := sectionStmt.ExecContext(ctx, s.ID, s.DocumentID, s.Position, string(s.Category), s.Content); err != nil {
			return nil, fmt.Errorf("insert section %d: %w", s.Position, err)
		}
	}

	chunkStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_id, section_id, position, section_category, content) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("prepare chunk insert: %w", err)
	}
	defer chunkStmt.Close()

	for _, c := range doc.Chunks {
		var sectionID sql.NullString
		if c.SectionID != "" {
			sectionID = sql.NullString{String: c.SectionID, Valid: true}
		}
		if _, err := chunkStmt.ExecContext(ctx, c.ID, c.DocumentID, sectionID, c.Position, string(c.SectionCategory), c.Content); err != nil {
			return nil, fmt.Errorf("insert chunk %d: %w", c.Position, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return doc, nil
}

func (r *sqliteDocumentRepo) GetDocument(ctx context.Context, id string) (*types.StoredDocument, error) {
	doc, err := scanDocument(r.db.QueryRowContext(ctx, `
		SELECT id, name, media_type, owner_id, storage_path, raw_length, clean_length, page_count, created_at
		FROM documents WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %s: %w", id, utils.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query document: %w", err)
	}

	if doc.Sections, err = r.querySections(ctx, id); err != nil {
		return nil, err
	}
	if doc.Chunks, err = r.queryChunks(ctx, id); err != nil {
		return nil, err
	}

	return doc, nil
}

func (r *sqliteDocumentRepo) ListDocuments(ctx context.Context, filter types.DocumentFilter) (*types.DocumentPage, error) {
	filter = normalizeFilter(filter)

	where := ""
	args := []any{}
	if filter.OwnerID != "" {
		where = " WHERE owner_id = ?"
		args = append(args, filter.OwnerID)
	}

	page := &types.DocumentPage{
		Documents: []types.StoredDocument{},
		Page:      filter.Page,
		Limit:     filter.Limit,
	}
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents"+where, args...).Scan(&page.Total); err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, media_type, owner_id, storage_path, raw_length, clean_length, page_count, created_at
		FROM documents`+where+` ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		append(args, filter.Limit, (filter.Page-1)*filter.Limit)...,
	)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		page.Documents = append(page.Documents, *doc)
	}
	return page, rows.Err()
}

func (r *sqliteDocumentRepo) DeleteDocument(ctx context.Context, id string) (*types.StoredDocument, error) {
	doc, err := r.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	// sections and chunks follow through ON DELETE CASCADE
	res, err := r.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("delete document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("document %s: %w", id, utils.ErrNotFound)
	}
	return doc, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*types.StoredDocument, error) {
	var doc types.StoredDocument
	var createdAt string
	if err := row.Scan(
		&doc.ID, &doc.Name, &doc.MediaType, &doc.OwnerID, &doc.StoragePath,
		&doc.Stats.RawLength, &doc.Stats.CleanLength, &doc.Stats.PageCount, &createdAt,
	); err != nil {
		return nil, err
	}
	var err error
	if doc.CreatedAt, err = time.Parse(sqliteTimeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	return &doc, nil
}

func (r *sqliteDocumentRepo) querySections(ctx context.Context, documentID string) ([]types.StoredSection, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, document_id, position, category, content
		FROM sections WHERE document_id = ? ORDER BY position`, documentID)
	if err != nil {
		return nil, fmt.Errorf("query sections: %w", err)
	}
	defer rows.Close()

	sections := []types.StoredSection{}
	for rows.Next() {
		var s types.StoredSection
		var category string
		if err := rows.Scan(&s.ID, &s.DocumentID, &s.Position, &category, &s.Content); err != nil {
			return nil, err
		}
		s.Category = types.SectionCategory(category)
		sections = append(sections, s)
	}
	return sections, rows.Err()
}

func (r *sqliteDocumentRepo) queryChunks(ctx context.Context, documentID string) ([]types.StoredChunk, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, document_id, section_id, position, section_category, content
		FROM chunks WHERE document_id = ? ORDER BY position`, documentID)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()

	chunks := []types.StoredChunk{}
	for rows.Next() {
		var c types.StoredChunk
		var sectionID sql.NullString
		var category string
		if err := rows.Scan(&c.ID, &c.DocumentID, &sectionID, &c.Position, &category, &c.Content); err != nil {
			return nil, err
		}
		c.SectionID = sectionID.String
		c.SectionCategory = types.SectionCategory(category)
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

func (r *sqliteDocumentRepo) Close(ctx context.Context) error {
	return r.db.Close()
}
