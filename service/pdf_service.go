package service

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/tieubaoca/docchat-be/utils"
	"go.uber.org/zap"
)

const (
	ExtractorPlainText = "ledongthuc"
	ExtractorPdftotext = "pdftotext"
)

// TextExtractor converts the bytes of a PDF into raw text.
type TextExtractor interface {
	ExtractText(ctx context.Context, data []byte) (string, error)
}

// NewTextExtractor returns the extractor for the configured backend.
func NewTextExtractor(backend, pdftotextPath string) (TextExtractor, error) {
	switch backend {
	case "", ExtractorPlainText:
		return &PlainTextExtractor{}, nil
	case ExtractorPdftotext:
		if pdftotextPath == "" {
			pdftotextPath = "pdftotext"
		}
		return &PdftotextExtractor{Path: pdftotextPath}, nil
	default:
		return nil, fmt.Errorf("%w: unknown extractor backend %q", utils.ErrConfiguration, backend)
	}
}

// PDFService validates uploaded PDFs and extracts their text
type PDFService struct {
	extractor TextExtractor
	logger    *zap.Logger
}

func NewPDFService(extractor TextExtractor, logger *zap.Logger) *PDFService {
	return &PDFService{
		extractor: extractor,
		logger:    logger,
	}
}

// ExtractedPDF is the text of a PDF and the number of pages it was read from.
type ExtractedPDF struct {
	Text      string
	PageCount int
}

// Extract checks the PDF structure, then extracts its text.
// Every failure wraps utils.ErrExtraction.
func (s *PDFService) Extract(ctx context.Context, data []byte) (*ExtractedPDF, error) {
	pages, err := s.Inspect(data)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("pdf inspected", zap.Int("pages", pages), zap.Int("bytes", len(data)))

	text, err := s.extractor.ExtractText(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrExtraction, err)
	}
	return &ExtractedPDF{Text: text, PageCount: pages}, nil
}

// Inspect parses and validates the PDF structure and returns its page count.
func (s *PDFService) Inspect(data []byte) (pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages, err = 0, fmt.Errorf("%w: pdf parser panic: %v", utils.ErrExtraction, r)
		}
	}()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	pdfCtx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return 0, fmt.Errorf("%w: read pdf: %v", utils.ErrExtraction, err)
	}
	if pdfCtx.PageCount == 0 {
		return 0, fmt.Errorf("%w: pdf has no pages", utils.ErrExtraction)
	}
	return pdfCtx.PageCount, nil
}

// PlainTextExtractor reads text in process with github.com/ledongthuc/pdf.
type PlainTextExtractor struct{}

func (e *PlainTextExtractor) ExtractText(ctx context.Context, data []byte) (text string, err error) {
	// The reader panics on some malformed content streams.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf reader panic: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var sb strings.Builder
	for pageNum := 1; pageNum <= r.NumPage(); pageNum++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := r.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", pageNum, err)
		}
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(pageText)
	}
	return sb.String(), nil
}

// PdftotextExtractor shells out to poppler's pdftotext.
type PdftotextExtractor struct {
	Path string
}

func (e *PdftotextExtractor) ExtractText(ctx context.Context, data []byte) (string, error) {
	tmp, err := os.CreateTemp("", "upload-*.pdf")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}

	cmd := exec.CommandContext(ctx, e.Path, "-enc", "UTF-8", "-nopgbrk", tmp.Name(), "-")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("pdftotext: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}
