package service

import (
	"fmt"
	"strings"

	"github.com/tieubaoca/docchat-be/utils"
)

const DefaultMaxChunkLength = 400

// SentenceChunker splits text into chunks of at most maxLength bytes without
// breaking sentences, falling back to word boundaries for sentences that do
// not fit on their own.
type SentenceChunker struct {
	maxLength int
}

func NewSentenceChunker(maxLength int) (*SentenceChunker, error) {
	if maxLength <= 0 {
		return nil, fmt.Errorf("%w: max chunk length must be positive, got %d", utils.ErrConfiguration, maxLength)
	}
	return &SentenceChunker{maxLength: maxLength}, nil
}

func (c *SentenceChunker) MaxLength() int {
	return c.maxLength
}

// Chunk returns the chunks of text in order. Joining them with single spaces
// gives back text with its whitespace collapsed. Empty input yields no chunks.
func (c *SentenceChunker) Chunk(text string) []string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return nil
	}

	var chunks []string
	current := ""

	flush := func() {
		if trimmed := strings.TrimSpace(current); trimmed != "" {
			chunks = append(chunks, trimmed)
		}
		current = ""
	}

	// add appends piece to the running chunk. The separating space counts
	// toward the limit only when the chunk already has content.
	add := func(piece string) {
		if current == "" {
			current = piece
			return
		}
		if len(current)+1+len(piece) > c.maxLength {
			flush()
			current = piece
			return
		}
		current += " " + piece
	}

	for _, sentence := range SplitSentences(text) {
		if len(sentence) <= c.maxLength {
			add(sentence)
			continue
		}

		flush()
		for _, word := range strings.Fields(sentence) {
			add(word)
		}
		flush()
	}
	flush()

	return chunks
}

// SplitSentences splits whitespace-collapsed text after every '.', '!' or '?'
// that is followed by a space. The punctuation stays with its sentence.
func SplitSentences(text string) []string {
	var sentences []string
	start := 0
	for i := 0; i+1 < len(text); i++ {
		switch text[i] {
		case '.', '!', '?':
			if text[i+1] != ' ' {
				continue
			}
			if s := strings.TrimSpace(text[start : i+1]); s != "" {
				sentences = append(sentences, s)
			}
			start = i + 2
			i++
		}
	}
	if start < len(text) {
		if s := strings.TrimSpace(text[start:]); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}
