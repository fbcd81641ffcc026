package extraction

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zombor/amount-scan/internal/amount"
	"github.com/zombor/amount-scan/internal/scanning"
)

var _ = Describe("ParseMode", func() {
	DescribeTable("use_image values",
		func(useImage any, expected Mode) {
			Expect(ParseMode(useImage)).To(Equal(expected))
		},
		Entry("true", true, ModeImage),
		Entry("false", false, ModeText),
		Entry("absent", nil, ModeAuto),
		Entry("string true", "True", ModeImage),
		Entry("string false", "false", ModeText),
		Entry("other string", "yes", ModeText),
		Entry("empty string", "", ModeAuto),
		Entry("number", 1.0, ModeAuto),
	)
})

var _ = Describe("Pipeline", func() {
	var (
		recognizer *mockRecognizer
		positional bool
		in         Input
		result     *Result
		err        error
	)

	BeforeEach(func() {
		recognizer = newMockRecognizer()
		positional = false
	})

	JustBeforeEach(func() {
		result, err = NewPipeline(recognizer, positional).Run(context.Background(), in)
	})

	When("given the sample bill line", func() {
		BeforeEach(func() {
			in = Input{Mode: ModeAuto, Text: DemoText}
		})

		It("labels total, paid and due", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Status).To(Equal(StatusOK))
			Expect(result.Currency).To(Equal("INR"))
			Expect(result.Amounts).To(Equal([]Amount{
				{Type: amount.TypeTotalBill, Value: amount.Int(1200), Source: "Total: INR 1200 | Paid: 100"},
				{Type: amount.TypePaid, Value: amount.Int(1000), Source: "200 | Paid: 1000 | Due: 200"},
				{Type: amount.TypeDue, Value: amount.Int(200), Source: "1000 | Due: 200"},
			}))
		})

		It("combines the stage confidences", func() {
			Expect(result.PipelineConfidence).To(Equal(0.94))
		})

		It("does not call the recognizer", func() {
			Expect(recognizer.calls).To(BeZero())
		})
	})

	When("the text has no currency marker", func() {
		BeforeEach(func() {
			in = Input{Mode: ModeText, Text: "Total 45"}
		})

		It("reports an unknown currency", func() {
			Expect(result.Currency).To(Equal("unknown"))
		})
	})

	When("the text has no numbers", func() {
		BeforeEach(func() {
			in = Input{Mode: ModeText, Text: "thank you"}
		})

		It("reports that no tokens were found", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(&Result{Status: StatusNoAmountsFound, Reason: "document too noisy or no numeric tokens detected"}))
		})
	})

	When("no token normalizes", func() {
		BeforeEach(func() {
			in = Input{Mode: ModeText, Text: "save 5%off"}
		})

		It("reports that normalization failed", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(&Result{Status: StatusNoAmountsFound, Reason: "normalization failed"}))
		})
	})

	When("a percent token is dropped", func() {
		BeforeEach(func() {
			in = Input{Mode: ModeText, Text: "Discount 10%off Total 500 Paid 50"}
		})

		It("classifies each value by its own token", func() {
			Expect(result.Amounts).To(HaveLen(2))
			Expect(result.Amounts[0].Type).To(Equal(amount.TypeTotalBill))
			Expect(result.Amounts[0].Value).To(Equal(amount.Int(500)))
			Expect(result.Amounts[1].Type).To(Equal(amount.TypePaid))
			Expect(result.Amounts[1].Value).To(Equal(amount.Int(50)))
		})

		When("positional pairing is configured", func() {
			BeforeEach(func() {
				positional = true
			})

			It("pairs values with tokens by index", func() {
				Expect(result.Provenance[0].Token).To(Equal("10%off"))
				Expect(result.Amounts[0].Type).To(Equal(amount.TypeDiscount))
				Expect(result.Amounts[0].Value).To(Equal(amount.Float(10)))
			})
		})
	})

	Describe("input selection", func() {
		var file *File

		BeforeEach(func() {
			file = &File{Name: "bill.png", ContentType: "image/png", Data: []byte("png")}
		})

		When("image mode has a file", func() {
			BeforeEach(func() {
				in = Input{Mode: ModeImage, File: file, Text: "Paid 5"}
			})

			It("reads the file", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(recognizer.calls).To(Equal(1))
				Expect(result.Amounts[0].Value).To(Equal(amount.Int(1200)))
				Expect(result.Amounts[0].Type).To(Equal(amount.TypeTotalBill))
			})

			It("uses the recognizer confidence", func() {
				Expect(result.PipelineConfidence).To(BeNumerically("~", 0.9, 1e-9))
			})
		})

		When("image mode has only text", func() {
			BeforeEach(func() {
				in = Input{Mode: ModeImage, Text: "Paid 5"}
			})

			It("falls back to the text", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(recognizer.calls).To(BeZero())
				Expect(result.Amounts[0].Type).To(Equal(amount.TypePaid))
			})
		})

		When("image mode has nothing", func() {
			BeforeEach(func() {
				in = Input{Mode: ModeImage}
			})

			It("returns ErrImageRequired", func() {
				Expect(err).To(MatchError(ErrImageRequired))
				Expect(err.Error()).To(Equal("use_image=True but no file or text provided"))
			})
		})

		When("text mode has a file but no text", func() {
			BeforeEach(func() {
				in = Input{Mode: ModeText, File: file}
			})

			It("returns ErrTextRequired", func() {
				Expect(err).To(MatchError(ErrTextRequired))
				Expect(err.Error()).To(Equal("use_image=False but no text provided"))
			})
		})

		When("text mode has both", func() {
			BeforeEach(func() {
				in = Input{Mode: ModeText, File: file, Text: "Due 7"}
			})

			It("ignores the file", func() {
				Expect(recognizer.calls).To(BeZero())
				Expect(result.Amounts[0].Type).To(Equal(amount.TypeDue))
			})
		})

		When("auto mode has both", func() {
			BeforeEach(func() {
				in = Input{Mode: ModeAuto, File: file, Text: "Due 7"}
			})

			It("prefers the file", func() {
				Expect(recognizer.calls).To(Equal(1))
			})
		})

		When("auto mode has nothing", func() {
			BeforeEach(func() {
				in = Input{Mode: ModeAuto}
			})

			It("returns ErrNoInput", func() {
				Expect(err).To(MatchError(ErrNoInput))
				Expect(IsInputError(err)).To(BeTrue())
			})
		})

		When("the recognizer fails", func() {
			BeforeEach(func() {
				recognizer.err = errors.New("tesseract crashed")
				in = Input{Mode: ModeAuto, File: file}
			})

			It("wraps ErrUnreadableDocument", func() {
				Expect(errors.Is(err, ErrUnreadableDocument)).To(BeTrue())
				Expect(err).To(MatchError(ContainSubstring("tesseract crashed")))
				Expect(IsInputError(err)).To(BeFalse())
			})
		})

		When("the recognizer reads no tokens", func() {
			BeforeEach(func() {
				recognizer.recognition = &scanning.Recognition{FullText: "blurry", Confidence: 0.2}
				in = Input{Mode: ModeImage, File: file}
			})

			It("reports that no tokens were found", func() {
				Expect(result.Status).To(Equal(StatusNoAmountsFound))
			})
		})
	})

	When("no recognizer is configured", func() {
		It("rejects files", func() {
			_, err := NewPipeline(nil, false).Run(context.Background(), Input{Mode: ModeAuto, File: &File{Data: []byte("x")}})
			Expect(err).To(MatchError(ErrNoRecognizer))
		})

		It("still reads text", func() {
			result, err := NewPipeline(nil, false).Run(context.Background(), Input{Mode: ModeAuto, Text: "Total 9"})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Status).To(Equal(StatusOK))
		})
	})
})
