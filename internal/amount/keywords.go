package amount

import "strings"

// KeywordRule maps a role to the snippet keywords that select it
type KeywordRule struct {
	Type     Type
	Keywords []string
}

// keywordTable is checked in order; the first role with a matching keyword
// wins, so the order here is the tie-break between roles.
var keywordTable = []KeywordRule{
	{Type: TypeTotalBill, Keywords: []string{"total", "grand total", "net total", "amount payable", "bill amount"}},
	{Type: TypePaid, Keywords: []string{"paid", "received", "amount paid", "settled", "cash received"}},
	{Type: TypeDue, Keywords: []string{"due", "balance", "amount due", "outstanding"}},
	{Type: TypeDiscount, Keywords: []string{"discount", "%", "off"}},
}

// Keywords returns a copy of the ordered keyword table
func Keywords() []KeywordRule {
	out := make([]KeywordRule, len(keywordTable))
	for i, rule := range keywordTable {
		out[i] = KeywordRule{
			Type:     rule.Type,
			Keywords: append([]string(nil), rule.Keywords...),
		}
	}
	return out
}

// matchKeyword returns the first role whose keywords occur in the snippet
func matchKeyword(snippet string) (Type, bool) {
	lower := strings.ToLower(snippet)
	for _, rule := range keywordTable {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				return rule.Type, true
			}
		}
	}
	return TypeUnknown, false
}
