package scanning

import (
	"regexp"
	"strings"
	"unicode"
)

// textConfidence is reported for typed text, which needs no recognition
const textConfidence = 0.92

const currencyINR = "INR"

var (
	wordRun     = regexp.MustCompile(`[\p{L}\p{M}\p{N}_.,%₹$€£¥-]+`)
	inrPattern  = regexp.MustCompile(`(?i)\bINR\b|₹|Rs\b`)
	digitSearch = regexp.MustCompile(`\d`)
)

// ExtractFromText splits plain text into the tokens that carry a digit
func ExtractFromText(text string) *Recognition {
	var tokens []string
	for _, run := range wordRun.FindAllString(text, -1) {
		token := strings.TrimFunc(run, func(r rune) bool { return !isWordRune(r) })
		if hasDigit(token) {
			tokens = append(tokens, token)
		}
	}

	return &Recognition{
		Tokens:       tokens,
		CurrencyHint: currencyHint(text),
		Confidence:   textConfidence,
		FullText:     text,
	}
}

// currencyHint reports INR when the text mentions rupees
func currencyHint(text string) string {
	if inrPattern.MatchString(text) {
		return currencyINR
	}
	return ""
}

func hasDigit(s string) bool {
	return digitSearch.MatchString(s)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsMark(r) || unicode.IsNumber(r)
}
