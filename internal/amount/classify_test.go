package amount

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Classify", func() {
	var (
		tokens   []string
		fullText string
		result   *Classification
	)

	JustBeforeEach(func() {
		normalized, _ := Normalize(tokens)
		result = Classify(normalized, fullText)
	})

	When("every amount has a keyword nearby", func() {
		BeforeEach(func() {
			fullText = "Total: INR 1200 | Paid: 1000 | Due: 200"
			tokens = []string{"1200", "1000", "200"}
		})

		It("labels each amount from its snippet", func() {
			Expect(result.Amounts).To(HaveLen(3))
			Expect(result.Amounts[0].Type).To(Equal(TypeTotalBill))
			Expect(result.Amounts[0].Value).To(Equal(Int(1200)))
			Expect(result.Amounts[1].Type).To(Equal(TypePaid))
			Expect(result.Amounts[1].Value).To(Equal(Int(1000)))
			Expect(result.Amounts[2].Type).To(Equal(TypeDue))
			Expect(result.Amounts[2].Value).To(Equal(Int(200)))
		})

		It("skips occurrences buried in a longer number", func() {
			Expect(result.Amounts[2].ContextSnippet).To(Equal("1000 | Due: 200"))
		})

		It("records the snippets", func() {
			Expect(result.Amounts[0].ContextSnippet).To(Equal("Total: INR 1200 | Paid: 100"))
			Expect(result.Amounts[1].ContextSnippet).To(Equal("200 | Paid: 1000 | Due: 200"))
		})

		It("uses the keyword confidence", func() {
			for _, a := range result.Amounts {
				Expect(a.Confidence).To(Equal(0.9))
			}
			Expect(result.Confidence).To(Equal(0.9))
		})

		It("records provenance for each amount", func() {
			Expect(result.Provenance).To(HaveLen(3))
			Expect(result.Provenance[1].Token).To(Equal("1000"))
			Expect(result.Provenance[1].Value).To(Equal(Int(1000)))
			Expect(result.Provenance[1].Source).To(Equal(result.Amounts[1].ContextSnippet))
		})
	})

	When("a snippet matches more than one role", func() {
		BeforeEach(func() {
			fullText = "Total: INR 1200"
			tokens = []string{"1200"}
		})

		It("takes the first role in table order", func() {
			Expect(result.Amounts[0].Type).To(Equal(TypeTotalBill))
			Expect(result.Amounts[0].Confidence).To(Equal(0.9))
		})
	})

	When("there is no surrounding text", func() {
		BeforeEach(func() {
			fullText = ""
			tokens = []string{"100", "500", "50"}
		})

		It("falls back to the position in the batch", func() {
			Expect(result.Amounts[0].Type).To(Equal(TypeDue))
			Expect(result.Amounts[0].Confidence).To(Equal(0.7))
			Expect(result.Amounts[1].Type).To(Equal(TypeTotalBill))
			Expect(result.Amounts[1].Confidence).To(Equal(0.85))
			Expect(result.Amounts[2].Type).To(Equal(TypeDiscount))
			Expect(result.Amounts[2].Confidence).To(Equal(0.75))
		})

		It("uses the token as the snippet", func() {
			Expect(result.Amounts[0].ContextSnippet).To(Equal("100"))
		})

		It("rounds the mean confidence", func() {
			Expect(result.Confidence).To(Equal(0.767))
		})
	})

	When("the extremes are tied", func() {
		BeforeEach(func() {
			fullText = ""
			tokens = []string{"5", "5", "7", "7", "6"}
		})

		It("gives every tied value the same label", func() {
			types := make([]Type, len(result.Amounts))
			for i, a := range result.Amounts {
				types[i] = a.Type
			}
			Expect(types).To(Equal([]Type{TypeDiscount, TypeDiscount, TypeTotalBill, TypeTotalBill, TypeDue}))
		})
	})

	When("there are no amounts", func() {
		BeforeEach(func() {
			fullText = "nothing here"
			tokens = nil
		})

		It("returns empty lists", func() {
			Expect(result.Amounts).NotTo(BeNil())
			Expect(result.Amounts).To(BeEmpty())
			Expect(result.Provenance).To(BeEmpty())
			Expect(result.Confidence).To(Equal(0.0))
		})
	})

	It("returns one classified amount per input", func() {
		normalized, _ := Normalize([]string{"5", "5", "7", "O9"})
		out := Classify(normalized, "5 5 7 09")
		Expect(out.Amounts).To(HaveLen(len(normalized)))
		Expect(out.Provenance).To(HaveLen(len(normalized)))
	})
})

var _ = Describe("ClassifyTokens", func() {
	When("normalization dropped a percent token", func() {
		var result *Classification

		BeforeEach(func() {
			var err error
			result, err = ClassifyTokens([]string{"10%", "500", "50"}, []Number{Int(500), Int(50)}, "")
			Expect(err).NotTo(HaveOccurred())
		})

		It("pairs values with tokens by index", func() {
			Expect(result.Amounts).To(HaveLen(2))
			Expect(result.Provenance[0].Token).To(Equal("10%"))
			Expect(result.Provenance[1].Token).To(Equal("500"))
		})

		It("reads the percent value from the token", func() {
			Expect(result.Amounts[0].Type).To(Equal(TypeDiscount))
			Expect(result.Amounts[0].Value).To(Equal(Float(10)))
			Expect(result.Amounts[0].Confidence).To(Equal(0.9))
		})

		It("falls back for the shifted pair", func() {
			Expect(result.Amounts[1].Type).To(Equal(TypeDiscount))
			Expect(result.Amounts[1].Value).To(Equal(Int(50)))
			Expect(result.Amounts[1].Confidence).To(Equal(0.75))
			Expect(result.Confidence).To(BeNumerically("~", 0.825, 1e-9))
		})
	})

	When("a percent token sits next to a keyword", func() {
		It("labels it a discount regardless of the keyword", func() {
			result, err := ClassifyTokens([]string{"10%"}, []Number{Int(7)}, "Total 10% here")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Amounts[0].ContextSnippet).To(Equal("Total 10% here"))
			Expect(result.Amounts[0].Type).To(Equal(TypeDiscount))
			Expect(result.Amounts[0].Value).To(Equal(Float(10)))
			Expect(result.Amounts[0].Confidence).To(Equal(0.9))
		})
	})

	When("a percent token is too large to read", func() {
		It("keeps the paired value", func() {
			result, err := ClassifyTokens([]string{strings.Repeat("9", 400) + "%"}, []Number{Int(1)}, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Amounts[0].Type).To(Equal(TypeDiscount))
			Expect(result.Amounts[0].Value).To(Equal(Int(1)))
			_, err = result.Amounts[0].Value.MarshalJSON()
			Expect(err).NotTo(HaveOccurred())
		})
	})

	When("there are fewer tokens than values", func() {
		It("returns an error", func() {
			_, err := ClassifyTokens([]string{"1"}, []Number{Int(1), Int(2)}, "")
			Expect(err).To(MatchError(ContainSubstring("pairing tokens")))
		})
	})
})

var _ = Describe("FindContextSnippet", func() {
	It("returns the token for empty text", func() {
		Expect(FindContextSnippet("", "42")).To(Equal("42"))
	})

	It("starts at the beginning when the token is absent", func() {
		Expect(FindContextSnippet("Grand Total 1,200.00 due", "l,200.00")).To(Equal("Grand Total 1,200.00"))
	})

	It("searches for the token's digits", func() {
		Expect(FindContextSnippet("Balance Rs 450 pending", "Rs.450")).To(Equal("Balance Rs 450 pending"))
	})

	It("measures the window in characters", func() {
		text := strings.Repeat("₹", 14) + " 500"
		Expect(FindContextSnippet(text, "500")).To(Equal(strings.Repeat("₹", 11) + " 500"))
	})

	It("uses an embedded occurrence when no standalone one exists", func() {
		Expect(FindContextSnippet("ref 91200", "200")).To(Equal("ref 91200"))
	})
})

var _ = Describe("Confidence", func() {
	It("averages the stages", func() {
		Expect(Confidence{OCR: 0.92, Normalization: 1.0, Classification: 0.9}.Combine()).To(Equal(0.94))
	})

	It("clamps out of range stages", func() {
		Expect(Confidence{OCR: 1.5, Normalization: -1, Classification: 0.5}.Combine()).To(Equal(0.5))
	})
})

var _ = Describe("Keywords", func() {
	It("returns the table in priority order", func() {
		rules := Keywords()
		Expect(rules).To(HaveLen(4))
		Expect(rules[0].Type).To(Equal(TypeTotalBill))
		Expect(rules[3].Type).To(Equal(TypeDiscount))
	})

	It("does not expose the table itself", func() {
		rules := Keywords()
		rules[0].Keywords[0] = "changed"
		Expect(Keywords()[0].Keywords[0]).To(Equal("total"))
	})
})
