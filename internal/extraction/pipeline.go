package extraction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/zombor/amount-scan/internal/amount"
	"github.com/zombor/amount-scan/internal/scanning"
)

// DemoText is the sample bill line served by the demo endpoint
const DemoText = "Total: INR 1200 | Paid: 1000 | Due: 200"

var (
	ErrNoInput       = errors.New("No input provided. Send 'file' or 'text'.")
	ErrImageRequired = errors.New("use_image=True but no file or text provided")
	ErrTextRequired  = errors.New("use_image=False but no text provided")
	ErrNoRecognizer  = errors.New("image recognition is not configured")

	// ErrUnreadableDocument wraps recognizer failures
	ErrUnreadableDocument = errors.New("document could not be read")
)

// Mode selects which input the pipeline reads
type Mode string

const (
	ModeAuto  Mode = "auto"
	ModeText  Mode = "text"
	ModeImage Mode = "image"
)

// ParseMode reads a use_image flag as submitted by a client. Booleans select
// image or text; strings select image only when they read "true"; anything
// else, including an empty string, leaves the choice to the pipeline.
func ParseMode(useImage any) Mode {
	switch v := useImage.(type) {
	case bool:
		if v {
			return ModeImage
		}
		return ModeText
	case string:
		switch {
		case v == "":
			return ModeAuto
		case strings.EqualFold(v, "true"):
			return ModeImage
		default:
			return ModeText
		}
	default:
		return ModeAuto
	}
}

// File is an uploaded document
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Input is one request to the pipeline
type Input struct {
	Mode Mode
	Text string
	File *File
}

// Pipeline runs recognition, normalization and classification
type Pipeline struct {
	recognizer scanning.Recognizer
	positional bool
}

// NewPipeline creates a Pipeline. recognizer may be nil when only text input
// is served. With positional set, values are paired with raw tokens by index
// instead of with the token each value came from.
func NewPipeline(recognizer scanning.Recognizer, positional bool) *Pipeline {
	return &Pipeline{recognizer: recognizer, positional: positional}
}

// Run extracts and labels the amounts of one document
func (p *Pipeline) Run(ctx context.Context, in Input) (*Result, error) {
	rec, err := p.recognize(ctx, in)
	if err != nil {
		return nil, err
	}

	slog.Debug("Recognized tokens", "mode", in.Mode, "tokens", len(rec.Tokens), "currency", rec.CurrencyHint)

	if len(rec.Tokens) == 0 {
		return &Result{Status: StatusNoAmountsFound, Reason: reasonNoTokens}, nil
	}

	normalized, normConf := amount.Normalize(rec.Tokens)
	if len(normalized) == 0 {
		return &Result{Status: StatusNoAmountsFound, Reason: reasonNormalization}, nil
	}

	var classification *amount.Classification
	if p.positional {
		classification, err = amount.ClassifyTokens(rec.Tokens, amount.Values(normalized), rec.FullText)
		if err != nil {
			return nil, fmt.Errorf("classifying amounts: %w", err)
		}
	} else {
		classification = amount.Classify(normalized, rec.FullText)
	}

	currency := rec.CurrencyHint
	if currency == "" {
		currency = unknownCurrency
	}

	result := &Result{
		Status:     StatusOK,
		Currency:   currency,
		Amounts:    make([]Amount, len(classification.Amounts)),
		Provenance: classification.Provenance,
		OCRWords:   rec.Words,
		PipelineConfidence: amount.Confidence{
			OCR:            rec.Confidence,
			Normalization:  normConf,
			Classification: classification.Confidence,
		}.Combine(),
	}
	for i, a := range classification.Amounts {
		result.Amounts[i] = Amount{
			Type:   a.Type,
			Value:  a.Value,
			Source: classification.Provenance[i].Source,
		}
	}

	return result, nil
}

func (p *Pipeline) recognize(ctx context.Context, in Input) (*scanning.Recognition, error) {
	switch in.Mode {
	case ModeImage:
		if in.File != nil {
			return p.recognizeFile(ctx, in.File)
		}
		if in.Text != "" {
			return scanning.ExtractFromText(in.Text), nil
		}
		return nil, ErrImageRequired
	case ModeText:
		if in.Text == "" {
			return nil, ErrTextRequired
		}
		return scanning.ExtractFromText(in.Text), nil
	default:
		if in.File != nil {
			return p.recognizeFile(ctx, in.File)
		}
		if in.Text != "" {
			return scanning.ExtractFromText(in.Text), nil
		}
		return nil, ErrNoInput
	}
}

func (p *Pipeline) recognizeFile(ctx context.Context, f *File) (*scanning.Recognition, error) {
	if p.recognizer == nil {
		return nil, ErrNoRecognizer
	}
	rec, err := p.recognizer.Recognize(ctx, f.Data, f.ContentType)
	if err != nil {
		slog.Error("Failed to recognize document",
			"filename", f.Name,
			"content_type", f.ContentType,
			"file_size", len(f.Data),
			"error", err,
		)
		return nil, fmt.Errorf("%w: %w", ErrUnreadableDocument, err)
	}
	return rec, nil
}

// IsInputError reports whether err comes from input selection
func IsInputError(err error) bool {
	return errors.Is(err, ErrNoInput) || errors.Is(err, ErrImageRequired) || errors.Is(err, ErrTextRequired)
}
