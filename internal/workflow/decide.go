package workflow

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"github.com/suyash01/zawadi/internal/ledger"
	"github.com/suyash01/zawadi/internal/models"
	"github.com/suyash01/zawadi/internal/store"
)

// Decision is the treasurer's action for every selected request.
type Decision struct {
	Action string
	Remark string
}

func (d Decision) valid() bool {
	return d.Action == models.StatusApprove || d.Action == models.StatusReject
}

// ExpenseOverrides are the payment details the treasurer supplies when an
// expense request is approved.
type ExpenseOverrides struct {
	Mode  string
	Phone string
}

// BatchResult records the outcome of each id in a batch. One failure does
// not stop the others.
type BatchResult struct {
	Decided []int64
	Failed  map[int64]error
	// Figures holds the re-derived figures of households touched by an
	// approved contribution, keyed by house number.
	Figures map[string]ledger.Figures

	err error
}

func newBatch() *BatchResult {
	return &BatchResult{
		Decided: make([]int64, 0),
		Failed:  make(map[int64]error),
		Figures: make(map[string]ledger.Figures),
	}
}

func (b *BatchResult) record(id int64, err error) {
	if err != nil {
		b.Failed[id] = err
		b.err = multierr.Append(b.err, fmt.Errorf("request %d: %w", id, err))
		return
	}
	b.Decided = append(b.Decided, id)
}

// Err combines every per-id failure, or nil when all ids were decided.
func (b *BatchResult) Err() error { return b.err }

func (s *Service) authorize(treasurer bool, d Decision) error {
	if !treasurer {
		return ErrNotTreasurer
	}
	if !d.valid() {
		return ErrInvalidAction
	}
	return nil
}

func (s *Service) DecideExpenses(ctx context.Context, treasurer bool, ids []int64, d Decision, o ExpenseOverrides) (*BatchResult, error) {
	if err := s.authorize(treasurer, d); err != nil {
		return nil, err
	}
	reqs, err := s.store.ListExpenseRequests(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]models.ExpenseRequest, len(reqs))
	for _, r := range reqs {
		byID[r.ID] = r
	}

	res := newBatch()
	for _, id := range ids {
		r, ok := byID[id]
		if !ok {
			res.record(id, store.ErrNotFound)
			continue
		}
		res.record(id, s.decideExpense(ctx, r, d, o))
	}
	return res, nil
}

func (s *Service) decideExpense(ctx context.Context, r models.ExpenseRequest, d Decision, o ExpenseOverrides) error {
	if err := s.store.UpdateExpenseRequestStatus(ctx, r.ID, d.Action, d.Remark); err != nil {
		return err
	}
	if d.Action != models.StatusApprove {
		return nil
	}
	_, err := s.store.InsertExpense(ctx, models.Expense{
		Date:        r.Date,
		Description: r.Description,
		Category:    r.Category,
		Vendor:      r.RequestedBy,
		Phone:       strings.TrimSpace(o.Phone),
		Amount:      r.Amount,
		Mode:        o.Mode,
		Remarks:     "Approved from requisition: " + r.Remarks,
	})
	if err != nil {
		return undo(ctx, err, func(ctx context.Context) error {
			return s.store.ReopenExpenseRequest(ctx, r.ID, r.Remarks)
		})
	}
	return nil
}

func (s *Service) DecideSpecials(ctx context.Context, treasurer bool, ids []int64, d Decision) (*BatchResult, error) {
	if err := s.authorize(treasurer, d); err != nil {
		return nil, err
	}
	reqs, err := s.store.ListSpecialRequests(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]models.SpecialRequest, len(reqs))
	for _, r := range reqs {
		byID[r.ID] = r
	}

	res := newBatch()
	for _, id := range ids {
		r, ok := byID[id]
		if !ok {
			res.record(id, store.ErrNotFound)
			continue
		}
		res.record(id, s.decideSpecial(ctx, r, d))
	}
	return res, nil
}

func (s *Service) decideSpecial(ctx context.Context, r models.SpecialRequest, d Decision) error {
	if err := s.store.UpdateSpecialRequestStatus(ctx, r.ID, d.Action, d.Remark); err != nil {
		return err
	}
	if d.Action != models.StatusApprove {
		return nil
	}
	_, err := s.store.InsertSpecial(ctx, models.SpecialContribution{
		Date:         r.Date,
		Event:        r.Event,
		Type:         r.Type,
		Contributors: r.RequestedBy,
		Amount:       r.Amount,
		Remarks:      store.AppendRemark(d.Remark, r.Remarks),
	})
	if err != nil {
		return undo(ctx, err, func(ctx context.Context) error {
			return s.store.ReopenSpecialRequest(ctx, r.ID, r.Remarks)
		})
	}
	return nil
}

// DecideContributions applies contribution decisions. An approval replaces
// the request month's amount on the household with the same house number.
func (s *Service) DecideContributions(ctx context.Context, treasurer bool, ids []int64, d Decision) (*BatchResult, error) {
	if err := s.authorize(treasurer, d); err != nil {
		return nil, err
	}
	reqs, err := s.store.ListContributionRequests(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]models.ContributionRequest, len(reqs))
	for _, r := range reqs {
		byID[r.ID] = r
	}
	houses, err := s.houseNumbers(ctx)
	if err != nil {
		return nil, err
	}

	res := newBatch()
	touched := make(map[string]bool)
	for _, id := range ids {
		r, ok := byID[id]
		if !ok {
			res.record(id, store.ErrNotFound)
			continue
		}
		// An approval for an unknown house is refused before the claim.
		if d.Action == models.StatusApprove && !houses[r.HouseNo] {
			res.record(id, fmt.Errorf("household %s: %w", r.HouseNo, store.ErrNotFound))
			continue
		}
		err := s.decideContribution(ctx, r, d)
		if err == nil && d.Action == models.StatusApprove {
			touched[r.HouseNo] = true
		}
		res.record(id, err)
	}

	if len(touched) > 0 {
		if err := s.rederive(ctx, touched, res); err != nil {
			return res, err
		}
	}
	return res, nil
}

func (s *Service) decideContribution(ctx context.Context, r models.ContributionRequest, d Decision) error {
	if err := s.store.UpdateContributionRequestStatus(ctx, r.ID, d.Action, d.Remark); err != nil {
		return err
	}
	if d.Action != models.StatusApprove {
		return nil
	}
	month := ledger.ParseMonth(r.Month)
	if strings.TrimSpace(r.Month) == "" {
		month = ledger.CurrentMonth(s.Now())
	}
	if err := s.store.SetHouseholdMonth(ctx, r.HouseNo, month, r.Amount); err != nil {
		return undo(ctx, err, func(ctx context.Context) error {
			return s.store.ReopenContributionRequest(ctx, r.ID, r.Remarks)
		})
	}
	return nil
}

// undo returns a claimed request to pending after its ledger write failed,
// so it can be approved again. It runs even if ctx was cancelled.
func undo(ctx context.Context, err error, reopen func(context.Context) error) error {
	if rerr := reopen(context.WithoutCancel(ctx)); rerr != nil {
		return multierr.Append(err, fmt.Errorf("request left approved: %w", rerr))
	}
	return err
}

func (s *Service) houseNumbers(ctx context.Context) (map[string]bool, error) {
	hs, err := s.store.ListHouseholds(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(hs))
	for _, h := range hs {
		out[h.HouseNo] = true
	}
	return out, nil
}

func (s *Service) rederive(ctx context.Context, houses map[string]bool, res *BatchResult) error {
	hs, err := s.store.ListHouseholds(ctx)
	if err != nil {
		return err
	}
	rates, err := s.store.ListRates(ctx)
	if err != nil {
		return err
	}
	table := ledger.NewRateTable(rates)
	month := ledger.CurrentMonth(s.Now())
	for _, h := range hs {
		if houses[h.HouseNo] {
			res.Figures[h.HouseNo] = ledger.Derive(h, month, table)
		}
	}
	return nil
}
