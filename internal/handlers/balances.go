package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/suyash01/zawadi/internal/report"
	"github.com/suyash01/zawadi/internal/workflow"
)

func (h *Handler) HandleSaveCash(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	err := h.flow.SaveCash(r.Context(), isTreasurer(r), workflow.CashEntry{
		BalanceCD:  formAmount(r, "balance_cd"),
		Withdrawal: formAmount(r, "withdrawal"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	done(w, "expensesChanged", "Cash position saved")
}

// HandleStatement serves a household's PDF statement.
func (h *Handler) HandleStatement(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	houseNo := r.URL.Path[len("/statement/"):]
	now := h.Now()
	snap, err := report.Load(r.Context(), h.store, now)
	if err != nil {
		writeError(w, err)
		return
	}
	row, ok := snap.Row(houseNo)
	if !ok {
		http.Error(w, "Household not found", http.StatusNotFound)
		return
	}

	var buf bytes.Buffer
	if err := snap.Statement(&buf, row, now); err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "statement-"+houseNo+".pdf"))
	buf.WriteTo(w)
}
