package handlers

import (
	"log"
	"net/http"

	"github.com/suyash01/zawadi/internal/session"
)

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	id, err := h.sessions.Login(r.FormValue("password"))
	if err != nil {
		log.Printf("treasurer login refused: %v", err)
		writeError(w, err)
		return
	}
	h.sessions.SetCookie(w, id)
	log.Println("treasurer logged in")
	redirectBack(w, r)
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	if c, err := r.Cookie(session.CookieName); err == nil {
		h.sessions.Logout(c.Value)
	}
	h.sessions.ClearCookie(w)
	redirectBack(w, r)
}
