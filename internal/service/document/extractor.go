package document

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"

	"maimai/internal/config"
	"maimai/internal/domain"
	docSvc "maimai/internal/domain/services/document"
	"maimai/internal/service/billing"
)

// PDFExtractor pulls plain text out of PDF uploads
type PDFExtractor struct {
	logger *slog.Logger
}

// NewPDFExtractor creates an extractor
func NewPDFExtractor(logger *slog.Logger) *PDFExtractor {
	return &PDFExtractor{logger: logger}
}

var _ docSvc.Extractor = (*PDFExtractor)(nil)

// ExtractPDF returns the page count, whitespace-collapsed text and the
// credit estimate for sending that text as a chat message.
func (e *PDFExtractor) ExtractPDF(ctx context.Context, data []byte) (extraction *docSvc.Extraction, err error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty file", domain.ErrValidation)
	}
	if len(data) > config.MaxPDFSize {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", domain.ErrValidation, config.MaxPDFSize)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return nil, fmt.Errorf("%w: not a PDF file", domain.ErrValidation)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// the pdf package panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			extraction = nil
			err = fmt.Errorf("%w: malformed PDF: %v", domain.ErrValidation, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: unreadable PDF: %v", domain.ErrValidation, err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return nil, fmt.Errorf("pdf plaintext: %w", err)
	}
	raw, err := io.ReadAll(plain)
	if err != nil {
		return nil, fmt.Errorf("pdf read: %w", err)
	}

	text := collapseWhitespace(string(raw))
	extraction = &docSvc.Extraction{
		Pages:         reader.NumPage(),
		Text:          text,
		Characters:    billing.CharacterCount(text),
		EstimatedCost: billing.EstimateMessageCost(text),
	}

	e.logger.Debug("pdf extracted",
		"bytes", len(data),
		"pages", extraction.Pages,
		"characters", extraction.Characters,
	)

	return extraction, nil
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
