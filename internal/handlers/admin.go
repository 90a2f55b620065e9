package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/suyash01/zawadi/internal/workflow"
)

func (h *Handler) HandleRetryDB(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	if err := h.store.Retry(r.Context()); err != nil {
		log.Printf("database retry failed: %v", err)
		http.Error(w, "Database still unavailable", http.StatusServiceUnavailable)
		return
	}
	redirectBack(w, r)
}

func (h *Handler) HandleTestEmail(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	if !isTreasurer(r) {
		writeError(w, workflow.ErrNotTreasurer)
		return
	}
	to := strings.TrimSpace(r.FormValue("to"))
	if to == "" {
		http.Error(w, "Recipient is required", http.StatusBadRequest)
		return
	}

	if err := h.mail.SendTest(r.Context(), to); err != nil {
		log.Printf("test email to %s: %v", to, err)
		http.Error(w, "Could not send test email", http.StatusBadGateway)
		return
	}
	done(w, "emailSent", "Test email sent to "+to)
}
