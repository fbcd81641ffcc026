package scanning

import (
	"context"
	"fmt"
)

// WordTrace records where a numeric token came from in an OCR pass
type WordTrace struct {
	Token      string  `json:"token" yaml:"token"`
	LineText   string  `json:"line_text" yaml:"line_text"`
	Confidence float64 `json:"conf" yaml:"conf"`
}

// Recognition is the output of a token extraction pass over text or an image
type Recognition struct {
	Tokens       []string
	CurrencyHint string
	Confidence   float64
	FullText     string
	Words        []WordTrace
}

// Recognizer defines the interface for reading numeric tokens out of an image
type Recognizer interface {
	// Recognize reads the image/PDF and returns its numeric tokens and full text
	Recognize(ctx context.Context, imageData []byte, contentType string) (*Recognition, error)
	// Close closes the recognizer and releases resources
	Close() error
}

// Engine names accepted by NewRecognizer
const (
	EngineTesseract = "tesseract"
	EngineGemini    = "gemini"
	EngineOllama    = "ollama"
)

// Config selects and configures a recognition engine
type Config struct {
	Engine             string
	TesseractLanguages []string
	GeminiAPIKey       string
	GeminiModel        string
	OllamaURL          string
	OllamaModel        string
}

// NewRecognizer creates the Recognizer named by cfg.Engine
func NewRecognizer(cfg Config) (Recognizer, error) {
	switch cfg.Engine {
	case EngineTesseract, "":
		return NewTesseract(cfg.TesseractLanguages...)
	case EngineGemini:
		return NewGemini(cfg.GeminiAPIKey, cfg.GeminiModel)
	case EngineOllama:
		return NewOllama(cfg.OllamaURL, cfg.OllamaModel)
	default:
		return nil, fmt.Errorf("unknown recognizer %q (want tesseract, gemini or ollama)", cfg.Engine)
	}
}
