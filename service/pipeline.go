package service

import (
	"fmt"

	"github.com/tieubaoca/docchat-be/types"
	"github.com/tieubaoca/docchat-be/utils"
)

// IngestionPipeline turns extracted text into sections and chunks. It holds
// only immutable configuration and is safe for concurrent use.
type IngestionPipeline struct {
	defaults types.IngestOptions
	rules    HeadingRules
	chunker  *SentenceChunker
}

// NewIngestionPipeline validates cfg and builds a pipeline. A zero
// MaxChunkLength selects DefaultMaxChunkLength.
func NewIngestionPipeline(cfg types.PipelineConfig) (*IngestionPipeline, error) {
	if cfg.MaxChunkLength == 0 {
		cfg.MaxChunkLength = DefaultMaxChunkLength
	}
	chunker, err := NewSentenceChunker(cfg.MaxChunkLength)
	if err != nil {
		return nil, err
	}
	rules, err := NewHeadingRules(cfg.Heading)
	if err != nil {
		return nil, err
	}
	return &IngestionPipeline{
		defaults: types.IngestOptions{
			Sectioned:      cfg.Sectioned,
			MaxChunkLength: cfg.MaxChunkLength,
		},
		rules:   rules,
		chunker: chunker,
	}, nil
}

// Defaults returns the options the pipeline was configured with.
func (p *IngestionPipeline) Defaults() types.IngestOptions {
	return p.defaults
}

// Ingest normalizes rawText, optionally splits it into sections and chunks
// every section. A zero opts.MaxChunkLength uses the configured default.
func (p *IngestionPipeline) Ingest(rawText string, opts types.IngestOptions) (*types.PipelineResult, error) {
	chunker := p.chunker
	if opts.MaxChunkLength != 0 && opts.MaxChunkLength != chunker.MaxLength() {
		var err error
		if chunker, err = NewSentenceChunker(opts.MaxChunkLength); err != nil {
			return nil, err
		}
	}

	cleanText := Normalize(rawText)
	if cleanText == "" {
		return nil, fmt.Errorf("%w: document has no text after cleanup", utils.ErrEmptyDocument)
	}

	sections := []types.Section{}
	if opts.Sectioned {
		sections = append(sections, p.rules.SplitSections(cleanText)...)
	} else {
		sections = []types.Section{{Category: types.SectionGeneral, Content: cleanText}}
	}

	chunks := make([]types.Chunk, 0, len(sections))
	for i, section := range sections {
		for _, content := range chunker.Chunk(section.Content) {
			chunks = append(chunks, types.Chunk{
				SectionCategory: section.Category,
				SectionIndex:    i,
				Content:         content,
			})
		}
	}

	return &types.PipelineResult{
		Sections: sections,
		Chunks:   chunks,
		Stats: types.Stats{
			RawLength:   len(rawText),
			CleanLength: len(cleanText),
		},
		CleanText: cleanText,
	}, nil
}
