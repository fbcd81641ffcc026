package amount

import (
	"math"
	"strconv"
	"strings"
)

// Type is the semantic role assigned to an amount
type Type string

const (
	TypeTotalBill Type = "total_bill"
	TypePaid      Type = "paid"
	TypeDue       Type = "due"
	TypeDiscount  Type = "discount"
	TypeUnknown   Type = "unknown"
)

// Number is a parsed amount. Integer records whether the token was parsed
// as an integer (no decimal point) so 1200 and 1200.0 render differently.
type Number struct {
	Value   float64
	Integer bool
}

// Int returns an integer Number
func Int(v int64) Number {
	return Number{Value: float64(v), Integer: true}
}

// Float returns a floating point Number
func Float(v float64) Number {
	return Number{Value: v}
}

// String formats the number the way it is written to JSON
func (n Number) String() string {
	if n.Integer {
		return strconv.FormatFloat(n.Value, 'f', 0, 64)
	}
	s := strconv.FormatFloat(n.Value, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// MarshalJSON writes the number as a bare JSON number
func (n Number) MarshalJSON() ([]byte, error) {
	return []byte(n.String()), nil
}

// UnmarshalJSON reads a JSON number, keeping the integer/float distinction
func (n *Number) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	n.Value = v
	n.Integer = !strings.ContainsAny(s, ".eE")
	return nil
}

// MarshalYAML writes the number as a YAML scalar
func (n Number) MarshalYAML() (interface{}, error) {
	if n.Integer && n.Value >= math.MinInt64 && n.Value < math.MaxInt64 {
		return int64(n.Value), nil
	}
	return n.Value, nil
}

// Normalized is a raw token that survived normalization, paired with its value
type Normalized struct {
	Token      string  `json:"token"`
	Value      Number  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// Classified is a normalized amount with its assigned role
type Classified struct {
	Type           Type    `json:"type" yaml:"type"`
	Value          Number  `json:"value" yaml:"value"`
	Confidence     float64 `json:"confidence" yaml:"confidence"`
	ContextSnippet string  `json:"context_snippet" yaml:"context_snippet"`
}

// Provenance links a classified amount back to its raw token and text window
type Provenance struct {
	Token  string `json:"token" yaml:"token"`
	Value  Number `json:"value" yaml:"value"`
	Source string `json:"source" yaml:"source"`
}

// Classification is the classifier output for one batch
type Classification struct {
	Amounts    []Classified `json:"amounts" yaml:"amounts"`
	Confidence float64      `json:"confidence" yaml:"confidence"`
	Provenance []Provenance `json:"provenance" yaml:"provenance"`
}
