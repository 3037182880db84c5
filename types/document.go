package types

import "time"

// SectionCategory classifies the semantic role of a section.
type SectionCategory string

const (
	SectionSummary        SectionCategory = "SUMMARY"
	SectionSkills         SectionCategory = "SKILLS"
	SectionExperience     SectionCategory = "EXPERIENCE"
	SectionProjects       SectionCategory = "PROJECTS"
	SectionEducation      SectionCategory = "EDUCATION"
	SectionCertifications SectionCategory = "CERTIFICATIONS"
	SectionOther          SectionCategory = "OTHER"
	// SectionGeneral is reserved for content that precedes the first heading.
	SectionGeneral SectionCategory = "GENERAL"
)

const MediaTypePDF = "application/pdf"

// RawDocument is an uploaded file as received from the transport.
type RawDocument struct {
	Data      []byte
	MediaType string
	Filename  string
}

// Section is a contiguous span of content under one heading.
type Section struct {
	Category SectionCategory `json:"category" bson:"category"`
	Content  string          `json:"content" bson:"content"`
}

// Chunk is a bounded-length span of text ready for embedding.
type Chunk struct {
	SectionCategory SectionCategory `json:"sectionCategory" bson:"section_category"`
	SectionIndex    int             `json:"sectionIndex" bson:"section_index"`
	Content         string          `json:"content" bson:"content"`
}

type Stats struct {
	RawLength   int `json:"rawLength" bson:"raw_length"`
	CleanLength int `json:"cleanLength" bson:"clean_length"`
	PageCount   int `json:"pageCount,omitempty" bson:"page_count,omitempty"`
}

// PipelineResult is the output of one ingestion run.
type PipelineResult struct {
	Sections []Section `json:"sections"`
	Chunks   []Chunk   `json:"chunks"`
	Stats    Stats     `json:"stats"`
	// CleanText is kept for previews and is not persisted.
	CleanText string `json:"-"`
}

// IngestOptions controls a single pipeline run.
type IngestOptions struct {
	Sectioned      bool `json:"sectioned"`
	MaxChunkLength int  `json:"max_chunk_length"`
}

// PipelineConfig contains the defaults an IngestionPipeline is built with
type PipelineConfig struct {
	Sectioned      bool
	MaxChunkLength int
	Heading        HeadingConfig
}

type HeadingConfig struct {
	MinLength int
	MaxLength int
	Forbidden string
}

// DocumentRef identifies the document a PipelineResult belongs to.
type DocumentRef struct {
	Name        string
	MediaType   string
	OwnerID     string
	StoragePath string
}

// StoredDocument is a persisted document together with its sections and chunks.
type StoredDocument struct {
	ID          string          `json:"id" bson:"_id"`
	Name        string          `json:"name" bson:"name"`
	MediaType   string          `json:"mediaType" bson:"media_type"`
	OwnerID     string          `json:"ownerId" bson:"owner_id"`
	StoragePath string          `json:"-" bson:"storage_path"`
	Stats       Stats           `json:"stats" bson:"stats"`
	Sections    []StoredSection `json:"sections,omitempty" bson:"-"`
	Chunks      []StoredChunk   `json:"chunks,omitempty" bson:"-"`
	CreatedAt   time.Time       `json:"createdAt" bson:"created_at"`
}

type StoredSection struct {
	ID         string          `json:"id" bson:"_id"`
	DocumentID string          `json:"documentId" bson:"document_id"`
	Position   int             `json:"position" bson:"position"`
	Category   SectionCategory `json:"category" bson:"category"`
	Content    string          `json:"content" bson:"content"`
}

type StoredChunk struct {
	ID              string          `json:"id" bson:"_id"`
	DocumentID      string          `json:"documentId" bson:"document_id"`
	SectionID       string          `json:"sectionId,omitempty" bson:"section_id,omitempty"`
	Position        int             `json:"position" bson:"position"`
	SectionCategory SectionCategory `json:"sectionCategory" bson:"section_category"`
	Content         string          `json:"content" bson:"content"`
}

// UploadRequest carries the per-upload parameters that are not part of the file itself.
type UploadRequest struct {
	OwnerID   string `json:"owner_id"`
	Sectioned bool   `json:"sectioned"`
}

// DocumentFilter selects a page of stored documents, newest first.
type DocumentFilter struct {
	OwnerID string
	Page    int64
	Limit   int64
}

// DocumentPage lists documents without their sections and chunks.
type DocumentPage struct {
	Documents []StoredDocument `json:"documents"`
	Total     int64            `json:"total"`
	Page      int64            `json:"page"`
	Limit     int64            `json:"limit"`
}
