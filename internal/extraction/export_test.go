package extraction

import (
	"bytes"
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/xuri/excelize/v2"

	"github.com/zombor/amount-scan/internal/amount"
)

var _ = Describe("ExportXLSX", func() {
	var (
		db      *mockDB
		service *Service
		now     time.Time
	)

	BeforeEach(func() {
		db = newMockDB()
		now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		service = NewServiceWithDeps(db, newMockStorage(), NewPipeline(nil, false), &sequenceIDGenerator{}, &fixedTimeSource{now: now})
	})

	readRows := func(data []byte) [][]string {
		f, err := excelize.OpenReader(bytes.NewReader(data))
		Expect(err).NotTo(HaveOccurred())
		defer f.Close()
		rows, err := f.GetRows("Extractions")
		Expect(err).NotTo(HaveOccurred())
		return rows
	}

	When("extractions exist", func() {
		BeforeEach(func() {
			db.extractions["new"] = &Extraction{
				ID:        "new",
				CreatedAt: now,
				Result: &Result{
					Status:   StatusOK,
					Currency: "INR",
					Amounts: []Amount{
						{Type: amount.TypeTotalBill, Value: amount.Int(1200), Source: "Total: INR 1200"},
						{Type: amount.TypePaid, Value: amount.Float(10.5), Source: "Paid: 10.5"},
					},
					PipelineConfidence: 0.94,
				},
			}
			db.extractions["old"] = &Extraction{
				ID:        "old",
				CreatedAt: now.Add(-time.Hour),
				Result:    &Result{Status: StatusNoAmountsFound, Reason: "normalization failed"},
			}
		})

		It("writes a header and one row per amount, newest first", func() {
			data, err := service.ExportXLSX(context.Background())
			Expect(err).NotTo(HaveOccurred())

			rows := readRows(data)
			Expect(rows).To(HaveLen(4))
			Expect(rows[0]).To(Equal(exportHeaders))
			Expect(rows[1][0]).To(Equal("new"))
			Expect(rows[1][1]).To(Equal("2024-03-01T12:00:00Z"))
			Expect(rows[1][4]).To(Equal("total_bill"))
			Expect(rows[1][5]).To(Equal("1200"))
			Expect(rows[2][5]).To(Equal("10.5"))
			Expect(rows[2][6]).To(Equal("Paid: 10.5"))
		})

		It("writes the reason for runs without amounts", func() {
			data, err := service.ExportXLSX(context.Background())
			Expect(err).NotTo(HaveOccurred())

			rows := readRows(data)
			Expect(rows[3][0]).To(Equal("old"))
			Expect(rows[3][2]).To(Equal(StatusNoAmountsFound))
			Expect(rows[3][6]).To(Equal("normalization failed"))
		})
	})

	When("the history is empty", func() {
		It("writes only the header", func() {
			data, err := service.ExportXLSX(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(readRows(data)).To(Equal([][]string{exportHeaders}))
		})
	})

	When("listing fails", func() {
		It("returns the error", func() {
			db.listErr = errors.New("boom")
			_, err := service.ExportXLSX(context.Background())
			Expect(err).To(MatchError(ContainSubstring("listing extractions")))
		})
	})
})
