package report

import (
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/suyash01/zawadi/internal/ledger"
)

const SummarySheet = "Summary"

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func cellValue(v any) any {
	if d, ok := v.(decimal.Decimal); ok {
		return d.InexactFloat64()
	}
	return v
}

// writeSheet writes headers on row 1 and rows below them.
func writeSheet(f *excelize.File, name string, headers []string, rows [][]any) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("sheet %s: %w", name, err)
	}

	header := make([]any, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(name, "A1", &header); err != nil {
		return err
	}

	for i, row := range rows {
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = cellValue(v)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(name, cell, &values); err != nil {
			return err
		}
	}

	if len(headers) > 0 {
		last, err := excelize.ColumnNumberToName(len(headers))
		if err != nil {
			return err
		}
		f.SetColWidth(name, "A", last, 16)
	}
	return nil
}

// Workbook builds the full export: the summary first, then one sheet per
// ledger and request view.
func (s *Snapshot) Workbook() (*excelize.File, error) {
	f := excelize.NewFile()
	totals := s.Totals()

	sheets := []struct {
		name    string
		headers []string
		rows    [][]any
	}{
		{SummarySheet, []string{"Metric", "Amount (KES)"}, [][]any{
			{"Total Regular Contributions", totals.Contributions},
			{"Total Expenses", totals.Expenses},
			{"Total Special Contributions", totals.Special},
		}},
		{"Contributions", s.monthlyDetail().Headers, s.monthlyDetail().Rows},
		{"Expenses", s.expenseDetail().Headers, s.expenseDetail().Rows},
		{"Special", []string{"Date", "Event", "Type", "Contributors", "Amount", "Remarks"}, s.specialRows()},
		{"Rate Categories", []string{"Rate Category", "Amount"}, s.rateRows()},
		{"Expense Requests", []string{"ID", "Date", "Description", "Category", "Requested By", "Amount", "Status", "Remarks"}, s.expenseRequestRows()},
		{"Contribution Requests", []string{"ID", "Date", "Month", "Family Name", "House No", "Lane", "Rate Category", "Amount", "Status", "Remarks"}, s.contributionRequestRows()},
		{"Special Requests", []string{"ID", "Date", "Event", "Type", "Requested By", "Amount", "Status", "Remarks"}, s.specialRequestRows()},
	}

	for _, sh := range sheets {
		if err := writeSheet(f, sh.name, sh.headers, sh.rows); err != nil {
			f.Close()
			return nil, err
		}
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		f.Close()
		return nil, err
	}
	if idx, err := f.GetSheetIndex(SummarySheet); err == nil {
		f.SetActiveSheet(idx)
	}
	return f, nil
}

// ReportWorkbook exports a single report table.
func ReportWorkbook(t Table) (*excelize.File, error) {
	f := excelize.NewFile()
	name := sheetName(t.Title)
	if err := writeSheet(f, name, t.Headers, t.Rows); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// sheetName trims to Excel's 31 character limit.
func sheetName(title string) string {
	if title == "" {
		return "Report"
	}
	if len(title) > 31 {
		return title[:31]
	}
	return title
}

func WriteWorkbook(w io.Writer, f *excelize.File) error {
	defer f.Close()
	return f.Write(w)
}

func (s *Snapshot) specialRows() [][]any {
	rows := make([][]any, 0, len(s.Special))
	for _, sc := range s.Special {
		rows = append(rows, []any{formatDate(sc.Date), sc.Event, sc.Type, sc.Contributors, sc.Amount, sc.Remarks})
	}
	return rows
}

func (s *Snapshot) rateRows() [][]any {
	rows := make([][]any, 0, len(s.Rates))
	for _, c := range ledger.Categories(s.RateList) {
		rows = append(rows, []any{c, s.Rates[c]})
	}
	return rows
}

func (s *Snapshot) expenseRequestRows() [][]any {
	rows := make([][]any, 0, len(s.ExpenseRequests))
	for _, r := range s.ExpenseRequests {
		rows = append(rows, []any{r.ID, formatDate(r.Date), r.Description, r.Category, r.RequestedBy, r.Amount, r.Status, r.Remarks})
	}
	return rows
}

func (s *Snapshot) contributionRequestRows() [][]any {
	rows := make([][]any, 0, len(s.ContributionRequests))
	for _, r := range s.ContributionRequests {
		rows = append(rows, []any{r.ID, formatDate(r.Date), r.Month, r.FamilyName, r.HouseNo, r.Lane, r.RateCategory, r.Amount, r.Status, r.Remarks})
	}
	return rows
}

func (s *Snapshot) specialRequestRows() [][]any {
	rows := make([][]any, 0, len(s.SpecialRequests))
	for _, r := range s.SpecialRequests {
		rows = append(rows, []any{r.ID, formatDate(r.Date), r.Event, r.Type, r.RequestedBy, r.Amount, r.Status, r.Remarks})
	}
	return rows
}
