package scanning

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"
)

// Tesseract implements the Recognizer interface with a local Tesseract engine
type Tesseract struct {
	mu     sync.Mutex
	client *gosseract.Client
}

// NewTesseract creates a Tesseract Recognizer for the given languages
func NewTesseract(languages ...string) (*Tesseract, error) {
	if len(languages) == 0 {
		languages = []string{"eng"}
	}

	client := gosseract.NewClient()
	if err := client.SetLanguage(languages...); err != nil {
		client.Close()
		return nil, fmt.Errorf("setting tesseract language: %w", err)
	}

	return &Tesseract{client: client}, nil
}

// Recognize runs OCR over the document and collects word-level tokens
func (t *Tesseract) Recognize(ctx context.Context, imageData []byte, contentType string) (*Recognition, error) {
	pngData, err := preprocessForOCR(imageData, contentType)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// The client holds one image at a time
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.client.SetImageFromBytes(pngData); err != nil {
		return nil, fmt.Errorf("loading image: %w", err)
	}

	boxes, err := t.client.GetBoundingBoxesVerbose()
	if err != nil {
		return nil, fmt.Errorf("reading words: %w", err)
	}

	return assembleWords(boxes), nil
}

// Close releases the Tesseract engine
func (t *Tesseract) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.client.Close()
}

type lineKey struct {
	block, par, line int
}

// assembleWords groups word boxes into lines in the order they were found and
// keeps the words carrying a digit as tokens
func assembleWords(boxes []gosseract.BoundingBox) *Recognition {
	var order []lineKey
	lines := make(map[lineKey][]gosseract.BoundingBox)
	for _, box := range boxes {
		if strings.TrimSpace(box.Word) == "" {
			continue
		}
		key := lineKey{box.BlockNum, box.ParNum, box.LineNum}
		if _, ok := lines[key]; !ok {
			order = append(order, key)
		}
		lines[key] = append(lines[key], box)
	}

	rec := &Recognition{}
	textLines := make([]string, 0, len(order))
	var confSum float64
	var confCount int
	for _, key := range order {
		words := make([]string, len(lines[key]))
		for i, box := range lines[key] {
			words[i] = strings.TrimSpace(box.Word)
		}
		lineText := strings.Join(words, " ")
		textLines = append(textLines, lineText)

		for i, box := range lines[key] {
			if !hasDigit(words[i]) {
				continue
			}
			rec.Tokens = append(rec.Tokens, words[i])
			rec.Words = append(rec.Words, WordTrace{Token: words[i], LineText: lineText, Confidence: box.Confidence})
			if box.Confidence >= 0 {
				confSum += box.Confidence
				confCount++
			}
		}
	}

	rec.FullText = strings.Join(textLines, "\n")
	rec.CurrencyHint = currencyHint(rec.FullText)
	rec.Confidence = defaultModelConfidence
	if confCount > 0 {
		rec.Confidence = confSum / float64(confCount) / 100
	}

	return rec
}
