package handlers

import (
	"fmt"
	"log"
	"net/http"

	"github.com/suyash01/zawadi/internal/models"
	"github.com/suyash01/zawadi/internal/report"
	"github.com/suyash01/zawadi/internal/workflow"
)

type ExpensesView struct {
	Page
	Totals     report.Totals
	Cash       models.CashSnapshot
	Expenses   []models.Expense
	Filter     report.ExpenseFilter
	Categories []string
	Modes      []string
	Pending    []models.ExpenseRequest
}

func (h *Handler) HandleExpenses(w http.ResponseWriter, r *http.Request) {
	snap, err := report.Load(r.Context(), h.store, h.Now())
	if err != nil {
		writeError(w, err)
		return
	}

	filter := report.ExpenseFilter{
		Month:    r.URL.Query().Get("month"),
		Category: r.URL.Query().Get("category"),
	}
	view := ExpensesView{
		Page:       h.page(r, "Expenses", "expenses"),
		Totals:     snap.Totals(),
		Cash:       snap.Cash,
		Expenses:   report.FilterExpenses(snap.Expenses, filter),
		Filter:     filter,
		Categories: models.ExpenseCategories,
		Modes:      models.PaymentModes,
		Pending:    report.PendingExpenses(snap.ExpenseRequests),
	}

	if r.Header.Get("HX-Target") == "expense-table" {
		render(w, "expense-table", view)
		return
	}
	render(w, "expenses.html", view)
}

func (h *Handler) HandleAddExpense(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	id, err := h.flow.RecordExpense(r.Context(), isTreasurer(r), workflow.ExpenseEntry{
		Date:        h.formDate(r, "date"),
		Description: r.FormValue("description"),
		Category:    r.FormValue("category"),
		Vendor:      r.FormValue("vendor"),
		Phone:       r.FormValue("phone"),
		Amount:      formAmount(r, "amount"),
		Mode:        r.FormValue("mode"),
		Remarks:     r.FormValue("remarks"),
		Receipt:     r.FormValue("receipt"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	done(w, "expensesChanged", fmt.Sprintf("Expense #%d recorded", id))
}

func (h *Handler) HandleRequestExpense(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	id, err := h.flow.SubmitExpense(r.Context(), workflow.ExpenseSubmission{
		Date:        h.formDate(r, "date"),
		Description: r.FormValue("description"),
		Category:    r.FormValue("category"),
		RequestedBy: r.FormValue("requested_by"),
		Amount:      formAmount(r, "amount"),
		Phone:       r.FormValue("phone"),
		Remarks:     r.FormValue("remarks"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	done(w, "expensesChanged", fmt.Sprintf("Expense request #%d submitted for approval", id))
}

func (h *Handler) HandleDecideExpenses(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	ids := formIDs(r)
	if len(ids) == 0 {
		http.Error(w, "Select at least one request", http.StatusBadRequest)
		return
	}

	res, err := h.flow.DecideExpenses(r.Context(), isTreasurer(r), ids,
		workflow.Decision{Action: r.FormValue("action"), Remark: r.FormValue("remark")},
		workflow.ExpenseOverrides{Mode: r.FormValue("mode"), Phone: r.FormValue("phone")},
	)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := res.Err(); err != nil {
		log.Printf("expense decisions: %v", err)
	}
	w.Header().Set("HX-Trigger", "expensesChanged")
	render(w, "batch-result", res)
}
