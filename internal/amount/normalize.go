package amount

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

const (
	// percentConfidence is reported for percent tokens, which carry no value
	percentConfidence = 0.6
	substitutionCost  = 0.06
	confidenceFloor   = 0.25
)

// currencyStripper removes currency symbols and thousand separators
var currencyStripper = strings.NewReplacer("₹", "", "$", "", "€", "", "£", "", ",", "")

// confusionMap rewrites glyphs OCR commonly confuses with digits
var confusionMap = map[rune]string{
	'O': "0", 'o': "0", 'Q': "0",
	'l': "1", 'I': "1", 'i': "1", '|': "1",
	'S': "5", 's': "5",
	'B': "8", 'b': "6",
	',': "", ' ': "",
	'—': "-", '–': "-",
}

// NormalizeToken converts one raw token into a number. ok is false when the
// token is a percentage or cannot be parsed; confidence is still reported.
func NormalizeToken(token string) (value Number, confidence float64, ok bool) {
	cleaned := strings.TrimSpace(currencyStripper.Replace(token))
	if strings.Contains(cleaned, "%") {
		return Number{}, percentConfidence, false
	}

	mapped, substitutions := applyConfusionMap(cleaned)
	digits := keepNumeric(mapped)
	if digits == "" {
		return Number{}, 0, false
	}

	value, err := parseNumber(digits)
	if err != nil {
		return Number{}, 0, false
	}

	confidence = 1.0 - substitutionCost*float64(substitutions)
	if confidence < confidenceFloor {
		confidence = confidenceFloor
	}
	return value, confidence, true
}

// Normalize converts raw tokens into numbers, dropping tokens without a value.
// The returned confidence is the mean over surviving tokens, 0 if none survive.
func Normalize(rawTokens []string) ([]Normalized, float64) {
	out := make([]Normalized, 0, len(rawTokens))
	var sum float64
	for _, token := range rawTokens {
		value, confidence, ok := NormalizeToken(token)
		if !ok {
			continue
		}
		out = append(out, Normalized{Token: token, Value: value, Confidence: confidence})
		sum += confidence
	}
	if len(out) == 0 {
		return out, 0
	}
	return out, sum / float64(len(out))
}

// Values returns the numbers of a normalized batch in order
func Values(normalized []Normalized) []Number {
	values := make([]Number, len(normalized))
	for i, n := range normalized {
		values[i] = n.Value
	}
	return values
}

func applyConfusionMap(token string) (string, int) {
	var b strings.Builder
	substitutions := 0
	for _, r := range token {
		if repl, ok := confusionMap[r]; ok {
			b.WriteString(repl)
			substitutions++
			continue
		}
		b.WriteRune(r)
	}
	return b.String(), substitutions
}

func keepNumeric(s string) string {
	return strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			return r
		}
		return -1
	}, s)
}

// parseNumber parses an integer when there is no decimal point, else a float.
// Values beyond the float range are clamped to the largest finite float.
func parseNumber(s string) (Number, error) {
	if strings.Contains(s, ".") {
		f, err := parseFloat(s)
		if err != nil {
			return Number{}, err
		}
		return Float(f), nil
	}
	i, err := strconv.ParseInt(s, 10, 64)
	if err == nil {
		return Int(i), nil
	}
	if errors.Is(err, strconv.ErrRange) {
		f, ferr := parseFloat(s)
		if ferr != nil {
			return Number{}, ferr
		}
		return Number{Value: f, Integer: true}, nil
	}
	return Number{}, err
}

func parseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, err
	}
	if math.IsInf(f, 0) {
		f = math.Copysign(math.MaxFloat64, f)
	}
	return f, nil
}
