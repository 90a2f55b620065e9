// Package importer loads the legacy CSV exports into the store. Amounts
// tolerate thousands separators, blanks and hyphens; unparseable dates are
// left for the store to default.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/suyash01/zawadi/internal/ledger"
	"github.com/suyash01/zawadi/internal/models"
	"github.com/suyash01/zawadi/internal/store"
)

type Result struct {
	File    string
	Rows    int
	Skipped int
}

type Importer struct {
	store store.Store
}

func New(s store.Store) *Importer {
	return &Importer{store: s}
}

// record is one CSV row addressed by trimmed header name.
type record struct {
	index  map[string]int
	fields []string
}

func (r record) get(names ...string) string {
	for _, name := range names {
		if i, ok := r.index[name]; ok && i < len(r.fields) {
			return strings.TrimSpace(r.fields[i])
		}
	}
	return ""
}

func readAll(src io.Reader, fn func(record) error) error {
	cr := csv.NewReader(src)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}

	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(record{index: index, fields: fields}); err != nil {
			return err
		}
	}
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2006/01/02",
	"02 Jan 2006",
}

// ParseDate reads day-first dates. Anything else yields the zero time.
func ParseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func (im *Importer) Rates(ctx context.Context, src io.Reader) (Result, error) {
	res := Result{File: "rates.csv"}
	err := readAll(src, func(r record) error {
		category := r.get("Rate Category")
		if category == "" {
			res.Skipped++
			return nil
		}
		if err := im.store.UpsertRate(ctx, models.Rate{Category: category, Amount: ledger.ParseAmount(r.get("Amount"))}); err != nil {
			return err
		}
		res.Rows++
		return nil
	})
	return res, err
}

func (im *Importer) Contributions(ctx context.Context, src io.Reader) (Result, error) {
	res := Result{File: "contributions.csv"}
	err := readAll(src, func(r record) error {
		houseNo := r.get("House No")
		if houseNo == "" {
			res.Skipped++
			return nil
		}
		h := models.Household{
			HouseNo:      houseNo,
			FamilyName:   r.get("Family Name"),
			Lane:         r.get("Lane"),
			RateCategory: r.get("Rate Category"),
			Email:        r.get("Email"),
			PriorDebt:    ledger.ParseAmount(r.get("Cumulative Debt (2024 & Prior)", "Cumulative Debt", "Prior Debt")),
			Remarks:      r.get("Remarks"),
		}
		if h.RateCategory == "" {
			h.RateCategory = models.DefaultRateCategory
		}
		for i, code := range ledger.Months() {
			h.Months[i] = ledger.ParseAmount(r.get(code))
		}
		if err := im.store.UpsertHousehold(ctx, h); err != nil {
			return err
		}
		res.Rows++
		return nil
	})
	return res, err
}

func (im *Importer) Expenses(ctx context.Context, src io.Reader) (Result, error) {
	res := Result{File: "expenses.csv"}
	err := readAll(src, func(r record) error {
		_, err := im.store.InsertExpense(ctx, models.Expense{
			Date:        ParseDate(r.get("Date")),
			Description: r.get("Description"),
			Category:    r.get("Category"),
			Vendor:      r.get("Vendor"),
			Phone:       r.get("Phone"),
			Amount:      ledger.ParseAmount(r.get("Amount (KES)", "Amount (KES", "Amount")),
			Mode:        r.get("Mode"),
			Remarks:     r.get("Remarks"),
			Receipt:     r.get("Receipt"),
		})
		if err != nil {
			return err
		}
		res.Rows++
		return nil
	})
	return res, err
}

func (im *Importer) Special(ctx context.Context, src io.Reader) (Result, error) {
	res := Result{File: "special.csv"}
	err := readAll(src, func(r record) error {
		_, err := im.store.InsertSpecial(ctx, models.SpecialContribution{
			Date:         ParseDate(r.get("Date")),
			Event:        r.get("Event"),
			Type:         r.get("Type"),
			Contributors: r.get("Contributors"),
			Amount:       ledger.ParseAmount(r.get("Amount")),
			Remarks:      r.get("Remarks"),
		})
		if err != nil {
			return err
		}
		res.Rows++
		return nil
	})
	return res, err
}

// ImportDir imports every known file present in dir. Rates go first so
// households can reference them.
func (im *Importer) ImportDir(ctx context.Context, dir string) ([]Result, error) {
	steps := []struct {
		names []string
		fn    func(context.Context, io.Reader) (Result, error)
	}{
		{[]string{"rates.csv"}, im.Rates},
		{[]string{"contributions.csv"}, im.Contributions},
		{[]string{"expenses.csv"}, im.Expenses},
		{[]string{"special.csv", "social.csv"}, im.Special},
	}

	results := make([]Result, 0, len(steps))
	for _, step := range steps {
		for _, name := range step.names {
			path := filepath.Join(dir, name)
			f, err := os.Open(path)
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			if err != nil {
				return results, err
			}
			res, err := step.fn(ctx, f)
			f.Close()
			res.File = name
			results = append(results, res)
			if err != nil {
				return results, fmt.Errorf("%s: %w", name, err)
			}
			break
		}
	}
	return results, nil
}
