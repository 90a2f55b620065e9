package report

import (
	"io"
	"time"

	"github.com/phpdave11/gofpdf"

	"github.com/suyash01/zawadi/internal/ledger"
)

// Statement writes a one-page PDF of a household's dues for the year.
func (s *Snapshot) Statement(w io.Writer, row ledger.Row, generated time.Time) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(14, 14, 14)
	pdf.AddPage()

	pdf.SetTextColor(20, 20, 20)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "Zawadi Court Welfare")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(80, 80, 80)
	pdf.Cell(0, 6, "Household statement as at "+s.Month.String()+" "+generated.Format("2006"))
	pdf.Ln(5)
	pdf.Cell(0, 6, "House "+row.HouseNo+" | "+row.FamilyName+" | "+row.Lane)
	pdf.Ln(5)
	rate := s.Rates.MonthlyRate(row.Household)
	pdf.Cell(0, 6, "Rate category: "+displayRate(row.RateCategory)+" ("+ledger.FormatKES(rate)+" per month)")
	pdf.Ln(10)

	pdf.SetDrawColor(200, 200, 200)
	pdf.SetFillColor(248, 248, 248)
	pdf.SetTextColor(20, 20, 20)
	pdf.SetFont("Helvetica", "B", 11)

	sumW := []float64{45.5, 45.5, 45.5, 45.5}
	pdf.CellFormat(sumW[0], 10, "YTD Paid", "1", 0, "C", true, 0, "")
	pdf.CellFormat(sumW[1], 10, "Liability", "1", 0, "C", true, 0, "")
	pdf.CellFormat(sumW[2], 10, "Current Debt", "1", 0, "C", true, 0, "")
	pdf.CellFormat(sumW[3], 10, "Prior Debt", "1", 1, "C", true, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(sumW[0], 10, ledger.Thousands(row.YTD), "1", 0, "C", false, 0, "")
	pdf.CellFormat(sumW[1], 10, ledger.Thousands(row.Liability), "1", 0, "C", false, 0, "")
	pdf.CellFormat(sumW[2], 10, ledger.Thousands(row.Debt), "1", 0, "C", false, 0, "")
	pdf.CellFormat(sumW[3], 10, ledger.Thousands(row.PriorDebt), "1", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.Cell(0, 8, "Status: "+string(row.Status))
	pdf.Ln(10)

	colW := []float64{40, 71, 71}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(245, 245, 245)
	pdf.CellFormat(colW[0], 8, "MONTH", "1", 0, "C", true, 0, "")
	pdf.CellFormat(colW[1], 8, "PAID (KES)", "1", 0, "R", true, 0, "")
	pdf.CellFormat(colW[2], 8, "DUE (KES)", "1", 1, "R", true, 0, "")
	pdf.SetFont("Helvetica", "", 9)

	for _, m := range ledger.Dec.Elapsed() {
		due := "-"
		if m <= s.Month {
			due = ledger.Thousands(rate)
		}
		pdf.CellFormat(colW[0], 8, m.String(), "1", 0, "C", false, 0, "")
		pdf.CellFormat(colW[1], 8, ledger.Thousands(row.Months[m]), "1", 0, "R", false, 0, "")
		pdf.CellFormat(colW[2], 8, due, "1", 1, "R", false, 0, "")
	}

	if row.Remarks != "" {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "I", 9)
		pdf.MultiCell(0, 6, "Remarks: "+row.Remarks, "", "L", false)
	}

	pdf.SetY(-18)
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 10, "Generated "+generated.Format(time.RFC1123), "", 0, "C", false, 0, "")

	return pdf.Output(w)
}

func displayRate(category string) string {
	if category == "" {
		return "Unassigned"
	}
	return category
}
