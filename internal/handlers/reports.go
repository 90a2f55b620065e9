package handlers

import (
	"fmt"
	"log"
	"net/http"

	"github.com/xuri/excelize/v2"

	"github.com/suyash01/zawadi/internal/report"
)

const xlsxType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ReportsView struct {
	Page
	Kinds []report.Kind
	Table report.Table
}

func (h *Handler) HandleReports(w http.ResponseWriter, r *http.Request) {
	snap, err := report.Load(r.Context(), h.store, h.Now())
	if err != nil {
		writeError(w, err)
		return
	}
	table := snap.Report(report.ParseKind(r.URL.Query().Get("type")))

	if r.Header.Get("HX-Target") == "report" {
		render(w, "report-table", table)
		return
	}
	render(w, "reports.html", ReportsView{
		Page:  h.page(r, "Reports", "reports"),
		Kinds: report.Kinds,
		Table: table,
	})
}

func (h *Handler) HandleExportWorkbook(w http.ResponseWriter, r *http.Request) {
	now := h.Now()
	snap, err := report.Load(r.Context(), h.store, now)
	if err != nil {
		writeError(w, err)
		return
	}
	f, err := snap.Workbook()
	if err != nil {
		writeError(w, err)
		return
	}
	sendWorkbook(w, f, "zawadi-ledger-"+now.Format("2006-01-02")+".xlsx")
}

func (h *Handler) HandleExportReport(w http.ResponseWriter, r *http.Request) {
	snap, err := report.Load(r.Context(), h.store, h.Now())
	if err != nil {
		writeError(w, err)
		return
	}
	table := snap.Report(report.ParseKind(r.URL.Query().Get("type")))
	f, err := report.ReportWorkbook(table)
	if err != nil {
		writeError(w, err)
		return
	}
	sendWorkbook(w, f, "zawadi-"+string(table.Kind)+"-report.xlsx")
}

func sendWorkbook(w http.ResponseWriter, f *excelize.File, filename string) {
	w.Header().Set("Content-Type", xlsxType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := report.WriteWorkbook(w, f); err != nil {
		log.Printf("write %s: %v", filename, err)
	}
}
