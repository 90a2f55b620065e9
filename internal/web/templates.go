package web

import (
	"embed"
	"html/template"
	"time"

	"github.com/shopspring/decimal"

	"github.com/suyash01/zawadi/internal/ledger"
)

//go:embed templates/*.html
var files embed.FS

var Tmpl *template.Template

var funcMap = template.FuncMap{
	"kes":       ledger.FormatKES,
	"thousands": ledger.Thousands,
	"positive":  func(d decimal.Decimal) bool { return d.IsPositive() },
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("2006-01-02")
	},
	"months": ledger.Months,
	// cell renders a report cell, formatting amounts.
	"cell": func(v any) any {
		if d, ok := v.(decimal.Decimal); ok {
			return ledger.Thousands(d)
		}
		return v
	},
	"statusClass": func(s ledger.Status) string {
		switch s {
		case ledger.UpToDate:
			return "ok"
		case ledger.Behind:
			return "warn"
		}
		return "bad"
	},
}

func InitTemplates() {
	Tmpl = template.Must(template.New("").Funcs(funcMap).ParseFS(files, "templates/*.html"))
}
