package handlers

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/suyash01/zawadi/internal/ledger"
	"github.com/suyash01/zawadi/internal/models"
	"github.com/suyash01/zawadi/internal/report"
	"github.com/suyash01/zawadi/internal/workflow"
)

type ContributionsView struct {
	Page
	Month      string
	Months     []string
	Totals     report.Totals
	Rows       []ledger.Row
	Filter     report.HouseholdFilter
	Families   []string
	Lanes      []string
	Statuses   []ledger.Status
	Categories []string
	Pending    []models.ContributionRequest
}

func (h *Handler) HandleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	snap, err := report.Load(r.Context(), h.store, h.Now())
	if err != nil {
		writeError(w, err)
		return
	}

	q := r.URL.Query()
	filter := report.HouseholdFilter{
		Family: q.Get("family"),
		Lane:   q.Get("lane"),
		Status: q.Get("status"),
		Rate:   q.Get("rate"),
	}
	view := ContributionsView{
		Page:       h.page(r, "Contributions", "contributions"),
		Month:      snap.Month.String(),
		Months:     ledger.Months(),
		Totals:     snap.Totals(),
		Rows:       report.FilterRows(snap.Rows, filter),
		Filter:     filter,
		Families:   report.Families(snap.Households),
		Lanes:      models.Lanes,
		Statuses:   ledger.Statuses,
		Categories: ledger.Categories(snap.RateList),
		Pending:    report.PendingContributions(snap.ContributionRequests),
	}

	if r.Header.Get("HX-Target") == "household-table" {
		render(w, "household-table", view)
		return
	}
	render(w, "contributions.html", view)
}

func (h *Handler) HandleRequestContribution(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	id, err := h.flow.SubmitContribution(r.Context(), workflow.ContributionSubmission{
		Date:         h.formDate(r, "date"),
		Month:        r.FormValue("month"),
		FamilyName:   r.FormValue("family_name"),
		HouseNo:      r.FormValue("house_no"),
		Lane:         r.FormValue("lane"),
		RateCategory: r.FormValue("rate_category"),
		Amount:       formAmount(r, "amount"),
		PaymentRef:   r.FormValue("payment_ref"),
		Remarks:      r.FormValue("remarks"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	done(w, "contributionsChanged", fmt.Sprintf("Contribution request #%d submitted for approval", id))
}

func (h *Handler) HandleDecideContributions(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	ids := formIDs(r)
	if len(ids) == 0 {
		http.Error(w, "Select at least one request", http.StatusBadRequest)
		return
	}

	res, err := h.flow.DecideContributions(r.Context(), isTreasurer(r), ids, workflow.Decision{
		Action: r.FormValue("action"),
		Remark: r.FormValue("remark"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if err := res.Err(); err != nil {
		log.Printf("contribution decisions: %v", err)
	}
	w.Header().Set("HX-Trigger", "contributionsChanged")
	render(w, "batch-result", res)
}

// HandleSaveHousehold replaces a household row. Month inputs left blank keep
// the stored amount.
func (h *Handler) HandleSaveHousehold(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	if !isTreasurer(r) {
		writeError(w, workflow.ErrNotTreasurer)
		return
	}

	in := workflow.HouseholdEntry{
		HouseNo:      r.FormValue("house_no"),
		FamilyName:   r.FormValue("family_name"),
		Lane:         r.FormValue("lane"),
		RateCategory: r.FormValue("rate_category"),
		Email:        r.FormValue("email"),
		PriorDebt:    formAmount(r, "prior_debt"),
		Remarks:      r.FormValue("remarks"),
	}

	existing, err := h.household(r, strings.TrimSpace(in.HouseNo))
	if err != nil {
		writeError(w, err)
		return
	}
	for i, code := range ledger.Months() {
		if strings.TrimSpace(r.FormValue(code)) == "" {
			in.Months[i] = existing.Months[i]
			continue
		}
		in.Months[i] = formAmount(r, code)
	}
	if strings.TrimSpace(r.FormValue("prior_debt")) == "" {
		in.PriorDebt = existing.PriorDebt
	}

	if err := h.flow.SaveHousehold(r.Context(), isTreasurer(r), in); err != nil {
		writeError(w, err)
		return
	}
	done(w, "contributionsChanged", "Saved household "+strings.TrimSpace(in.HouseNo))
}

// household returns the stored row for houseNo, or an empty one.
func (h *Handler) household(r *http.Request, houseNo string) (models.Household, error) {
	hs, err := h.store.ListHouseholds(r.Context())
	if err != nil {
		return models.Household{}, err
	}
	for _, hh := range hs {
		if hh.HouseNo == houseNo {
			return hh, nil
		}
	}
	return models.Household{}, nil
}

func (h *Handler) HandleDeleteHousehold(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodDelete) {
		return
	}

	houseNo := r.URL.Path[len("/households/delete/"):]
	if err := h.flow.DeleteHousehold(r.Context(), isTreasurer(r), houseNo); err != nil {
		writeError(w, err)
		return
	}
	done(w, "contributionsChanged", "Deleted household "+houseNo)
}
