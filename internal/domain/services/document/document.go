package document

import (
	"context"
)

// Extractor pulls plain text out of an uploaded document
type Extractor interface {
	ExtractPDF(ctx context.Context, data []byte) (*Extraction, error)
}

// Extraction is the result of a PDF text extraction
type Extraction struct {
	Pages         int    `json:"pages"`
	Text          string `json:"text"`
	Characters    int    `json:"characters"`
	EstimatedCost int    `json:"estimated_cost"`
}
