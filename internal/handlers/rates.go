package handlers

import (
	"net/http"
	"strings"

	"github.com/suyash01/zawadi/internal/models"
	"github.com/suyash01/zawadi/internal/workflow"
)

type RatesView struct {
	Page
	Rates        []models.Rate
	Households   []models.Household
	LastReminder string
}

func (h *Handler) HandleRates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rates, err := h.store.ListRates(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	if len(rates) == 0 {
		rates = models.DefaultRates
	}
	households, err := h.store.ListHouseholds(ctx)
	if err != nil {
		writeError(w, err)
		return
	}

	render(w, "rates.html", RatesView{
		Page:         h.page(r, "Rates", "rates"),
		Rates:        rates,
		Households:   households,
		LastReminder: h.mail.LastSent(),
	})
}

func (h *Handler) HandleSaveRate(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	in := workflow.RateEntry{Category: r.FormValue("category"), Amount: formAmount(r, "amount")}
	if err := h.flow.SaveRate(r.Context(), isTreasurer(r), in); err != nil {
		writeError(w, err)
		return
	}
	done(w, "ratesChanged", "Saved rate "+strings.TrimSpace(in.Category))
}

func (h *Handler) HandleAssignRate(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	in := workflow.RateAssignment{
		HouseNo:      r.FormValue("house_no"),
		RateCategory: r.FormValue("rate_category"),
		Email:        r.FormValue("email"),
	}
	if err := h.flow.AssignRate(r.Context(), isTreasurer(r), in); err != nil {
		writeError(w, err)
		return
	}
	done(w, "contributionsChanged", "Updated "+strings.TrimSpace(in.HouseNo)+" to "+in.RateCategory)
}
