// Package handlers serves the ledger pages and HTMX fragments.
package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/suyash01/zawadi/internal/ledger"
	"github.com/suyash01/zawadi/internal/session"
	"github.com/suyash01/zawadi/internal/store"
	"github.com/suyash01/zawadi/internal/web"
	"github.com/suyash01/zawadi/internal/workflow"
)

// Backend is the store as the handlers see it: the ledger plus the
// online/offline switch.
type Backend interface {
	store.Store
	Online() bool
	LastError() error
	Retry(ctx context.Context) error
}

type Mailer interface {
	SendTest(ctx context.Context, to string) error
	LastSent() string
}

type Handler struct {
	store    Backend
	flow     *workflow.Service
	sessions *session.Manager
	mail     Mailer

	Now func() time.Time
}

func New(b Backend, flow *workflow.Service, sessions *session.Manager, mail Mailer) *Handler {
	return &Handler{store: b, flow: flow, sessions: sessions, mail: mail, Now: time.Now}
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", h.HandleHome)
	mux.HandleFunc("/contributions/request", h.HandleRequestContribution)
	mux.HandleFunc("/contributions/decide", h.HandleDecideContributions)
	mux.HandleFunc("/households/save", h.HandleSaveHousehold)
	mux.HandleFunc("/households/delete/", h.HandleDeleteHousehold)
	mux.HandleFunc("/statement/", h.HandleStatement)

	mux.HandleFunc("/rates", h.HandleRates)
	mux.HandleFunc("/rates/save", h.HandleSaveRate)
	mux.HandleFunc("/rates/assign", h.HandleAssignRate)

	mux.HandleFunc("/expenses", h.HandleExpenses)
	mux.HandleFunc("/expenses/add", h.HandleAddExpense)
	mux.HandleFunc("/expenses/request", h.HandleRequestExpense)
	mux.HandleFunc("/expenses/decide", h.HandleDecideExpenses)
	mux.HandleFunc("/cash/save", h.HandleSaveCash)

	mux.HandleFunc("/special", h.HandleSpecial)
	mux.HandleFunc("/special/add", h.HandleAddSpecial)
	mux.HandleFunc("/special/request", h.HandleRequestSpecial)
	mux.HandleFunc("/special/decide", h.HandleDecideSpecials)

	mux.HandleFunc("/reports", h.HandleReports)
	mux.HandleFunc("/export/xlsx", h.HandleExportWorkbook)
	mux.HandleFunc("/export/report.xlsx", h.HandleExportReport)

	mux.HandleFunc("/login", h.HandleLogin)
	mux.HandleFunc("/logout", h.HandleLogout)
	mux.HandleFunc("/db/retry", h.HandleRetryDB)
	mux.HandleFunc("/email/test", h.HandleTestEmail)

	return Logging(h.withRole(mux))
}

// Page is what the shared header needs.
type Page struct {
	Title     string
	Active    string
	Treasurer bool
	Remaining int
	Online    bool
	DBError   string
}

func (h *Handler) page(r *http.Request, title, active string) Page {
	p := Page{Title: title, Active: active, Treasurer: isTreasurer(r), Online: h.store.Online()}
	if err := h.store.LastError(); err != nil && !p.Online {
		p.DBError = err.Error()
	}
	if p.Treasurer {
		if c, err := r.Cookie(session.CookieName); err == nil {
			p.Remaining = int(h.sessions.Remaining(c.Value).Minutes())
		}
	}
	return p
}

func render(w http.ResponseWriter, name string, data any) {
	if err := web.Tmpl.ExecuteTemplate(w, name, data); err != nil {
		log.Printf("render %s: %v", name, err)
	}
}

// done answers a successful write with a notice and the event that makes
// the affected tables reload.
func done(w http.ResponseWriter, trigger, notice string) {
	w.Header().Set("HX-Trigger", trigger)
	render(w, "notice", notice)
}

func writeError(w http.ResponseWriter, err error) {
	var verr *workflow.ValidationError
	switch {
	case errors.As(err, &verr):
		http.Error(w, verr.Error(), http.StatusBadRequest)
	case errors.Is(err, store.ErrUnavailable):
		http.Error(w, "Write disabled in offline mode", http.StatusServiceUnavailable)
	case errors.Is(err, workflow.ErrNotTreasurer):
		http.Error(w, "Treasurer access required", http.StatusForbidden)
	case errors.Is(err, workflow.ErrInvalidAction):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, session.ErrWrongSecret):
		http.Error(w, "Incorrect password", http.StatusUnauthorized)
	case errors.Is(err, session.ErrNoSecret):
		http.Error(w, "Treasurer login is not configured", http.StatusForbidden)
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	case errors.Is(err, store.ErrAlreadyDecided):
		http.Error(w, "Request already decided", http.StatusConflict)
	default:
		log.Printf("internal error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// redirectBack returns a plain form post to the page it came from.
func redirectBack(w http.ResponseWriter, r *http.Request) {
	target := "/"
	if ref, err := url.Parse(r.Referer()); err == nil && ref.Path != "" {
		target = ref.Path
		if ref.RawQuery != "" {
			target += "?" + ref.RawQuery
		}
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func formAmount(r *http.Request, key string) decimal.Decimal {
	return ledger.ParseAmount(r.FormValue(key))
}

// formDate reads an <input type="date"> value. Blank or malformed dates are
// zero and get defaulted to today downstream.
func (h *Handler) formDate(r *http.Request, key string) time.Time {
	t, err := time.ParseInLocation("2006-01-02", r.FormValue(key), h.Now().Location())
	if err != nil {
		return time.Time{}
	}
	return t
}

// formIDs collects the selected request ids, ignoring anything that is not
// a number.
func formIDs(r *http.Request) []int64 {
	if err := r.ParseForm(); err != nil {
		return nil
	}
	ids := make([]int64, 0, len(r.Form["id"]))
	for _, raw := range r.Form["id"] {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
