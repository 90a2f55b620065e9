package handlers

import (
	"fmt"
	"log"
	"net/http"

	"github.com/suyash01/zawadi/internal/models"
	"github.com/suyash01/zawadi/internal/report"
	"github.com/suyash01/zawadi/internal/workflow"
)

type SpecialView struct {
	Page
	Totals   report.Totals
	Special  []models.SpecialContribution
	Type     string
	Types    []string
	Upcoming []models.SpecialContribution
	Families []string
	Pending  []models.SpecialRequest
}

func (h *Handler) HandleSpecial(w http.ResponseWriter, r *http.Request) {
	now := h.Now()
	snap, err := report.Load(r.Context(), h.store, now)
	if err != nil {
		writeError(w, err)
		return
	}

	kind := r.URL.Query().Get("type")
	view := SpecialView{
		Page:     h.page(r, "Special Contributions", "special"),
		Totals:   snap.Totals(),
		Special:  report.FilterSpecial(snap.Special, kind),
		Type:     kind,
		Types:    models.SpecialTypes,
		Upcoming: report.Upcoming(snap.Special, now),
		Families: report.Families(snap.Households),
		Pending:  report.PendingSpecials(snap.SpecialRequests),
	}

	if r.Header.Get("HX-Target") == "special-table" {
		render(w, "special-table", view)
		return
	}
	render(w, "special.html", view)
}

func (h *Handler) HandleAddSpecial(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	id, err := h.flow.RecordSpecial(r.Context(), isTreasurer(r), workflow.SpecialEntry{
		Date:         h.formDate(r, "date"),
		Event:        r.FormValue("event"),
		Type:         r.FormValue("type"),
		Contributors: r.Form["contributors"],
		Amount:       formAmount(r, "amount"),
		Remarks:      r.FormValue("remarks"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	done(w, "specialChanged", fmt.Sprintf("Special contribution #%d recorded", id))
}

func (h *Handler) HandleRequestSpecial(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	id, err := h.flow.SubmitSpecial(r.Context(), workflow.SpecialSubmission{
		Date:        h.formDate(r, "date"),
		Event:       r.FormValue("event"),
		Type:        r.FormValue("type"),
		RequestedBy: r.FormValue("requested_by"),
		Amount:      formAmount(r, "amount"),
		Remarks:     r.FormValue("remarks"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	done(w, "specialChanged", fmt.Sprintf("Special request #%d submitted for approval", id))
}

func (h *Handler) HandleDecideSpecials(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	ids := formIDs(r)
	if len(ids) == 0 {
		http.Error(w, "Select at least one request", http.StatusBadRequest)
		return
	}

	res, err := h.flow.DecideSpecials(r.Context(), isTreasurer(r), ids, workflow.Decision{
		Action: r.FormValue("action"),
		Remark: r.FormValue("remark"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if err := res.Err(); err != nil {
		log.Printf("special decisions: %v", err)
	}
	w.Header().Set("HX-Trigger", "specialChanged")
	render(w, "batch-result", res)
}
