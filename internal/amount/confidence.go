package amount

// Confidence holds the per-stage scores of one pipeline run
type Confidence struct {
	OCR            float64 `json:"ocr" yaml:"ocr"`
	Normalization  float64 `json:"normalization" yaml:"normalization"`
	Classification float64 `json:"classification" yaml:"classification"`
}

// Combine averages the three stage scores into the pipeline confidence,
// rounded to three decimals.
func (c Confidence) Combine() float64 {
	return round3((clamp(c.OCR) + clamp(c.Normalization) + clamp(c.Classification)) / 3)
}

func clamp(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}
