package amount

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	snippetWindow = 12

	keywordConfidence  = 0.9
	percentOverride    = 0.9
	maxFallbackConf    = 0.85
	minFallbackConf    = 0.75
	middleFallbackConf = 0.7
)

// Classify assigns a role to every normalized amount using the text around
// its raw token, falling back to the amount's position within the batch.
func Classify(normalized []Normalized, fullText string) *Classification {
	result := &Classification{
		Amounts:    make([]Classified, 0, len(normalized)),
		Provenance: make([]Provenance, 0, len(normalized)),
	}
	if len(normalized) == 0 {
		return result
	}

	lo, hi := bounds(normalized)
	var sum float64
	for _, n := range normalized {
		snippet := FindContextSnippet(fullText, n.Token)
		value := n.Value

		var confidence float64
		typ, matched := matchKeyword(snippet)
		if matched {
			confidence = keywordConfidence
		}

		if strings.Contains(n.Token, "%") {
			typ = TypeDiscount
			value = percentValue(n.Token, value)
			confidence = percentOverride
		}

		if typ == TypeUnknown {
			switch value.Value {
			case hi:
				typ, confidence = TypeTotalBill, maxFallbackConf
			case lo:
				typ, confidence = TypeDiscount, minFallbackConf
			default:
				typ, confidence = TypeDue, middleFallbackConf
			}
		}

		result.Amounts = append(result.Amounts, Classified{
			Type:           typ,
			Value:          value,
			Confidence:     confidence,
			ContextSnippet: snippet,
		})
		result.Provenance = append(result.Provenance, Provenance{
			Token:  n.Token,
			Value:  value,
			Source: snippet,
		})
		sum += confidence
	}

	result.Confidence = round3(sum / float64(len(result.Amounts)))
	return result
}

// ClassifyTokens pairs raw tokens with values by position and classifies them.
// When normalization dropped tokens, the pairing shifts: each value is matched
// with the raw token at the same index of the original list. Raw tokens beyond
// the number of values are ignored.
func ClassifyTokens(rawTokens []string, values []Number, fullText string) (*Classification, error) {
	if len(rawTokens) < len(values) {
		return nil, fmt.Errorf("pairing tokens: %d raw tokens for %d values", len(rawTokens), len(values))
	}
	normalized := make([]Normalized, len(values))
	for i, v := range values {
		normalized[i] = Normalized{Token: rawTokens[i], Value: v}
	}
	return Classify(normalized, fullText), nil
}

// FindContextSnippet returns the trimmed text window around the first
// occurrence of the token. Occurrences buried inside a longer run of digits
// ("200" within "1200") are skipped when a standalone one exists. If the
// token is absent its digits are searched instead, and failing that the
// window starts at the beginning of the text.
func FindContextSnippet(fullText, token string) string {
	if fullText == "" {
		return token
	}

	pos := locate(fullText, token)
	if pos < 0 {
		pos = 0
		if digits := onlyDigits(token); digits != "" {
			if p := locate(fullText, digits); p >= 0 {
				pos = p
			}
		}
	}

	runes := []rune(fullText)
	start := pos - snippetWindow
	if start < 0 {
		start = 0
	}
	end := pos + utf8.RuneCountInString(token) + snippetWindow
	if end > len(runes) {
		end = len(runes)
	}
	if start >= end {
		return ""
	}
	return strings.TrimSpace(string(runes[start:end]))
}

// locate returns the rune offset of needle in text, preferring the first
// occurrence not flanked by digits. -1 when needle does not occur.
func locate(text, needle string) int {
	if needle == "" {
		return -1
	}
	first := -1
	for off := 0; off < len(text); {
		i := strings.Index(text[off:], needle)
		if i < 0 {
			break
		}
		i += off
		if first < 0 {
			first = i
		}
		end := i + len(needle)
		if !(isDigitByte(needle[0]) && i > 0 && isDigitByte(text[i-1])) &&
			!(isDigitByte(needle[len(needle)-1]) && end < len(text) && isDigitByte(text[end])) {
			return utf8.RuneCountInString(text[:i])
		}
		off = i + 1
	}
	if first < 0 {
		return -1
	}
	return utf8.RuneCountInString(text[:first])
}

func isDigitByte(b byte) bool {
	return b >= '0' && b <= '9'
}

func onlyDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// percentValue reads the number straight from a percent token, keeping the
// normalized value when the token has no readable number.
func percentValue(token string, fallback Number) Number {
	digits := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, token)
	d, err := decimal.NewFromString(digits)
	if err != nil {
		return fallback
	}
	f := d.InexactFloat64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return fallback
	}
	return Float(f)
}

func bounds(normalized []Normalized) (lo, hi float64) {
	lo, hi = normalized[0].Value.Value, normalized[0].Value.Value
	for _, n := range normalized[1:] {
		if n.Value.Value < lo {
			lo = n.Value.Value
		}
		if n.Value.Value > hi {
			hi = n.Value.Value
		}
	}
	return lo, hi
}

func round3(f float64) float64 {
	return decimal.NewFromFloat(f).Round(3).InexactFloat64()
}
