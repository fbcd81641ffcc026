package extraction

import (
	"time"

	"github.com/zombor/amount-scan/internal/amount"
	"github.com/zombor/amount-scan/internal/scanning"
)

// Status values of a pipeline result
const (
	StatusOK             = "ok"
	StatusNoAmountsFound = "no_amounts_found"
)

const (
	reasonNoTokens      = "document too noisy or no numeric tokens detected"
	reasonNormalization = "normalization failed"
	unknownCurrency     = "unknown"
)

// Amount is one labelled amount in a pipeline result
type Amount struct {
	Type   amount.Type   `json:"type" yaml:"type"`
	Value  amount.Number `json:"value" yaml:"value"`
	Source string        `json:"source" yaml:"source"`
}

// Result is the outcome of running the pipeline over one document
type Result struct {
	Status             string               `json:"status" yaml:"status"`
	Reason             string               `json:"reason,omitempty" yaml:"reason,omitempty"`
	Currency           string               `json:"currency,omitempty" yaml:"currency,omitempty"`
	Amounts            []Amount             `json:"amounts,omitempty" yaml:"amounts,omitempty"`
	PipelineConfidence float64              `json:"pipeline_confidence,omitempty" yaml:"pipeline_confidence,omitempty"`
	Provenance         []amount.Provenance  `json:"provenance,omitempty" yaml:"provenance,omitempty"`
	OCRWords           []scanning.WordTrace `json:"ocr_words,omitempty" yaml:"ocr_words,omitempty"`
}

// Extraction is a stored pipeline run
type Extraction struct {
	ID          string    `json:"id"`
	Mode        Mode      `json:"mode"`
	Text        string    `json:"text,omitempty"`
	Filename    string    `json:"filename,omitempty"`
	ContentType string    `json:"content_type,omitempty"`
	Result      *Result   `json:"result"`
	CreatedAt   time.Time `json:"created_at"`
}
