package scanning

import (
	"encoding/json"
	"fmt"
	"strings"
)

// defaultModelConfidence is used when a model does not report its confidence
const defaultModelConfidence = 0.5

// transcription is the JSON document the vision models are asked to return
type transcription struct {
	Text       string   `json:"text"`
	Confidence *float64 `json:"confidence"`
}

// parseTranscriptionJSON parses a model response, tolerating markdown fences
// and chatter around the JSON object
func parseTranscriptionJSON(text string) (*transcription, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSpace(text)

	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return nil, fmt.Errorf("no JSON object found in response")
	}

	endIdx := strings.LastIndex(text, "}")
	if endIdx < startIdx {
		return nil, fmt.Errorf("invalid JSON object in response")
	}

	var data transcription
	if err := json.Unmarshal([]byte(text[startIdx:endIdx+1]), &data); err != nil {
		return nil, fmt.Errorf("unmarshaling json: %w", err)
	}

	return &data, nil
}

// recognitionFromTranscription tokenizes a model transcription like typed
// text, keeping the model's own confidence
func recognitionFromTranscription(t *transcription) *Recognition {
	rec := ExtractFromText(t.Text)

	rec.Confidence = defaultModelConfidence
	if t.Confidence != nil {
		rec.Confidence = clampUnit(*t.Confidence)
	}

	lines := strings.Split(t.Text, "\n")
	for _, token := range rec.Tokens {
		rec.Words = append(rec.Words, WordTrace{
			Token:      token,
			LineText:   lineContaining(lines, token),
			Confidence: rec.Confidence * 100,
		})
	}

	return rec
}

func lineContaining(lines []string, token string) string {
	for _, line := range lines {
		if strings.Contains(line, token) {
			return strings.TrimSpace(line)
		}
	}
	return ""
}

func clampUnit(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}
