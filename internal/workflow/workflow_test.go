package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/suyash01/zawadi/internal/ledger"
	"github.com/suyash01/zawadi/internal/models"
	"github.com/suyash01/zawadi/internal/store"
)

var april = time.Date(2025, time.April, 15, 10, 0, 0, 0, time.UTC)

func newService(t *testing.T) (*Service, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	mem.Now = func() time.Time { return april }
	svc := New(mem)
	svc.Now = func() time.Time { return april }
	return svc, mem
}

func kes(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestSubmitExpenseValidation(t *testing.T) {
	svc, mem := newService(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		in     ExpenseSubmission
		fields []string
	}{
		{
			name:   "empty",
			in:     ExpenseSubmission{},
			fields: []string{"description", "category", "requested_by", "amount"},
		},
		{
			name: "zero amount",
			in: ExpenseSubmission{
				Description: "Security guard", Category: "Personnel", RequestedBy: "Kamau",
			},
			fields: []string{"amount"},
		},
		{
			name: "blank requester",
			in: ExpenseSubmission{
				Description: "Security guard", Category: "Personnel", RequestedBy: "   ", Amount: kes(100),
			},
			fields: []string{"requested_by"},
		},
		{
			name: "unknown category",
			in: ExpenseSubmission{
				Description: "Party", Category: "Fun", RequestedBy: "Kamau", Amount: kes(100),
			},
			fields: []string{"category"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SubmitExpense(ctx, tt.in)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want *ValidationError", err)
			}
			for _, f := range tt.fields {
				if _, ok := verr.Fields[f]; !ok {
					t.Errorf("missing field %q in %v", f, verr.Fields)
				}
			}
			if len(verr.Fields) != len(tt.fields) {
				t.Errorf("fields = %v, want %v", verr.Fields, tt.fields)
			}
		})
	}

	reqs, _ := mem.ListExpenseRequests(ctx)
	if len(reqs) != 0 {
		t.Errorf("invalid submissions persisted %d requests", len(reqs))
	}
}

func TestSubmitExpenseRemarks(t *testing.T) {
	svc, mem := newService(t)
	ctx := context.Background()

	_, err := svc.SubmitExpense(ctx, ExpenseSubmission{
		Description: "Gate repair",
		Category:    "Maintenance",
		RequestedBy: "Kamau",
		Amount:      kes(3500),
		Phone:       "0712345678",
		Remarks:     "hinges",
	})
	if err != nil {
		t.Fatalf("SubmitExpense: %v", err)
	}
	reqs, _ := mem.ListExpenseRequests(ctx)
	if len(reqs) != 1 {
		t.Fatalf("requests = %d, want 1", len(reqs))
	}
	r := reqs[0]
	if r.Status != models.StatusPending {
		t.Errorf("status = %q", r.Status)
	}
	if r.Remarks != "Phone: 0712345678. hinges" {
		t.Errorf("remarks = %q", r.Remarks)
	}
	if !r.Date.Equal(april) {
		t.Errorf("date = %v, want %v", r.Date, april)
	}
}

func TestSubmitContributionDefaultsMonth(t *testing.T) {
	svc, mem := newService(t)
	ctx := context.Background()

	_, err := svc.SubmitContribution(ctx, ContributionSubmission{
		FamilyName: "Otieno",
		HouseNo:    "A1",
		Amount:     kes(2000),
		PaymentRef: "QWE123",
	})
	if err != nil {
		t.Fatalf("SubmitContribution: %v", err)
	}
	reqs, _ := mem.ListContributionRequests(ctx)
	if reqs[0].Month != "APR" {
		t.Errorf("month = %q, want APR", reqs[0].Month)
	}
	if reqs[0].Remarks != "Payment Ref: QWE123. " {
		t.Errorf("remarks = %q", reqs[0].Remarks)
	}

	_, err = svc.SubmitContribution(ctx, ContributionSubmission{
		FamilyName: "Otieno", HouseNo: "A1", Amount: kes(2000), Month: "APRIL",
	})
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Fields["month"] == "" {
		t.Errorf("bad month err = %v, want month validation error", err)
	}
}

func TestApproveExpenseOnce(t *testing.T) {
	svc, mem := newService(t)
	ctx := context.Background()

	id, err := svc.SubmitExpense(ctx, ExpenseSubmission{
		Description: "Water bill", Category: "Utilities", RequestedBy: "Achieng", Amount: kes(1200), Remarks: "March",
	})
	if err != nil {
		t.Fatal(err)
	}

	d := Decision{Action: models.StatusApprove, Remark: "Approved by treasurer"}
	o := ExpenseOverrides{Mode: "MPesa", Phone: "0700111222"}

	res, err := svc.DecideExpenses(ctx, true, []int64{id}, d, o)
	if err != nil {
		t.Fatalf("DecideExpenses: %v", err)
	}
	if res.Err() != nil || len(res.Decided) != 1 {
		t.Fatalf("first batch = %+v", res)
	}

	res, err = svc.DecideExpenses(ctx, true, []int64{id}, d, o)
	if err != nil {
		t.Fatalf("DecideExpenses: %v", err)
	}
	if !errors.Is(res.Failed[id], store.ErrAlreadyDecided) {
		t.Fatalf("second decision err = %v, want ErrAlreadyDecided", res.Failed[id])
	}

	expenses, _ := mem.ListExpenses(ctx)
	if len(expenses) != 1 {
		t.Fatalf("expenses = %d, want exactly 1", len(expenses))
	}
	e := expenses[0]
	if e.Vendor != "Achieng" || e.Mode != "MPesa" || e.Phone != "0700111222" {
		t.Errorf("expense = %+v", e)
	}
	if e.Remarks != "Approved from requisition: Phone: . March" {
		t.Errorf("expense remarks = %q", e.Remarks)
	}

	reqs, _ := mem.ListExpenseRequests(ctx)
	if reqs[0].Remarks != "Approved by treasurer | Phone: . March" {
		t.Errorf("request remarks = %q", reqs[0].Remarks)
	}
}

func TestRejectLeavesLedgerAlone(t *testing.T) {
	svc, mem := newService(t)
	ctx := context.Background()

	id, _ := svc.SubmitSpecial(ctx, SpecialSubmission{
		Event: "Christmas party", Type: "Celebration", RequestedBy: "Njeri", Amount: kes(5000), Remarks: "food",
	})

	res, err := svc.DecideSpecials(ctx, true, []int64{id}, Decision{Action: models.StatusReject, Remark: "Too costly"})
	if err != nil || res.Err() != nil {
		t.Fatalf("DecideSpecials: %v / %v", err, res.Err())
	}

	special, _ := mem.ListSpecial(ctx)
	if len(special) != 0 {
		t.Errorf("reject created %d special records", len(special))
	}
	reqs, _ := mem.ListSpecialRequests(ctx)
	if reqs[0].Status != models.StatusReject || reqs[0].Remarks != "Too costly | food" {
		t.Errorf("request = %+v", reqs[0])
	}
}

func TestApproveSpecialCopiesRequester(t *testing.T) {
	svc, mem := newService(t)
	ctx := context.Background()

	id, _ := svc.SubmitSpecial(ctx, SpecialSubmission{
		Event: "Hospital bill", Type: "Emergency", RequestedBy: "Mwangi", Amount: kes(10000), Remarks: "ward 4",
	})
	if _, err := svc.DecideSpecials(ctx, true, []int64{id}, Decision{Action: models.StatusApprove, Remark: "ok"}); err != nil {
		t.Fatal(err)
	}

	special, _ := mem.ListSpecial(ctx)
	if len(special) != 1 {
		t.Fatalf("special = %d, want 1", len(special))
	}
	if special[0].Contributors != "Mwangi" || special[0].Remarks != "ok | ward 4" {
		t.Errorf("special = %+v", special[0])
	}
}

func TestApproveContributionSetsMonthByHouse(t *testing.T) {
	svc, mem := newService(t)
	ctx := context.Background()

	h := models.Household{HouseNo: "A1", FamilyName: "Otieno", RateCategory: "Resident"}
	h.Months[ledger.Jan] = kes(2000)
	h.Months[ledger.Feb] = kes(2000)
	h.Months[ledger.Mar] = kes(500)
	mem.UpsertHousehold(ctx, h)
	mem.UpsertHousehold(ctx, models.Household{HouseNo: "B7", FamilyName: "Otieno", RateCategory: "Resident"})

	id, err := svc.SubmitContribution(ctx, ContributionSubmission{
		FamilyName: "Otieno", HouseNo: "A1", Month: "MAR", Amount: kes(2000),
	})
	if err != nil {
		t.Fatal(err)
	}

	res, err := svc.DecideContributions(ctx, true, []int64{id}, Decision{Action: models.StatusApprove, Remark: "ok"})
	if err != nil || res.Err() != nil {
		t.Fatalf("DecideContributions: %v / %v", err, res.Err())
	}

	hs, _ := mem.ListHouseholds(ctx)
	for _, got := range hs {
		switch got.HouseNo {
		case "A1":
			if !got.Months[ledger.Mar].Equal(kes(2000)) {
				t.Errorf("A1 MAR = %s, want 2000 (replaced, not added)", got.Months[ledger.Mar])
			}
		case "B7":
			if !got.Months[ledger.Mar].IsZero() {
				t.Errorf("B7 shares the family name but was mutated: MAR = %s", got.Months[ledger.Mar])
			}
		}
	}

	f, ok := res.Figures["A1"]
	if !ok {
		t.Fatal("no re-derived figures for A1")
	}
	// JAN..APR liability 8000, paid 6000.
	if !f.Debt.Equal(kes(2000)) || f.Status != ledger.Behind {
		t.Errorf("figures = %+v", f)
	}
}

func TestBatchIsIndependent(t *testing.T) {
	svc, mem := newService(t)
	ctx := context.Background()

	mem.UpsertHousehold(ctx, models.Household{HouseNo: "A1"})
	good, _ := svc.SubmitContribution(ctx, ContributionSubmission{FamilyName: "X", HouseNo: "A1", Month: "JAN", Amount: kes(2000)})
	orphan, _ := svc.SubmitContribution(ctx, ContributionSubmission{FamilyName: "Y", HouseNo: "ZZ", Month: "JAN", Amount: kes(2000)})
	alsoGood, _ := svc.SubmitContribution(ctx, ContributionSubmission{FamilyName: "X", HouseNo: "A1", Month: "FEB", Amount: kes(2000)})

	ids := []int64{good, orphan, 404, alsoGood}
	res, err := svc.DecideContributions(ctx, true, ids, Decision{Action: models.StatusApprove, Remark: "ok"})
	if err != nil {
		t.Fatalf("DecideContributions: %v", err)
	}

	if len(res.Decided) != 2 {
		t.Errorf("decided = %v, want 2 ids", res.Decided)
	}
	if !errors.Is(res.Failed[orphan], store.ErrNotFound) {
		t.Errorf("orphan err = %v, want ErrNotFound", res.Failed[orphan])
	}
	if !errors.Is(res.Failed[404], store.ErrNotFound) {
		t.Errorf("missing id err = %v, want ErrNotFound", res.Failed[404])
	}
	if res.Err() == nil {
		t.Error("combined error should be non-nil")
	}

	hs, _ := mem.ListHouseholds(ctx)
	if !hs[0].Months[ledger.Jan].Equal(kes(2000)) || !hs[0].Months[ledger.Feb].Equal(kes(2000)) {
		t.Errorf("A1 months = %v", hs[0].Months)
	}

	reqs, _ := mem.ListContributionRequests(ctx)
	for _, r := range reqs {
		if r.ID != orphan {
			continue
		}
		if r.Status != models.StatusPending || r.Remarks != "Payment Ref: . " {
			t.Errorf("orphan request = %q %q, want untouched pending", r.Status, r.Remarks)
		}
	}

	// Once the house exists the same request can still be approved.
	mem.UpsertHousehold(ctx, models.Household{HouseNo: "ZZ"})
	res, err = svc.DecideContributions(ctx, true, []int64{orphan}, Decision{Action: models.StatusApprove, Remark: "ok"})
	if err != nil || res.Err() != nil {
		t.Fatalf("second approval: %v %v", err, res.Err())
	}
}

// failingLedger claims requests normally but cannot write ledger rows.
type failingLedger struct {
	*store.Memory
	fail bool
}

var errDiskFull = errors.New("disk full")

func (f *failingLedger) InsertExpense(ctx context.Context, e models.Expense) (int64, error) {
	if f.fail {
		return 0, errDiskFull
	}
	return f.Memory.InsertExpense(ctx, e)
}

func (f *failingLedger) InsertSpecial(ctx context.Context, s models.SpecialContribution) (int64, error) {
	if f.fail {
		return 0, errDiskFull
	}
	return f.Memory.InsertSpecial(ctx, s)
}

func (f *failingLedger) SetHouseholdMonth(ctx context.Context, houseNo string, m ledger.Month, amount decimal.Decimal) error {
	if f.fail {
		return errDiskFull
	}
	return f.Memory.SetHouseholdMonth(ctx, houseNo, m, amount)
}

func TestFailedLedgerWriteReopensRequest(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	mem.Now = func() time.Time { return april }
	fl := &failingLedger{Memory: mem, fail: true}
	svc := New(fl)
	svc.Now = func() time.Time { return april }

	mem.UpsertHousehold(ctx, models.Household{HouseNo: "B2"})
	expID, _ := svc.SubmitExpense(ctx, ExpenseSubmission{
		Description: "Padlock", Category: "Maintenance", RequestedBy: "Kamau", Amount: kes(600),
	})
	specID, _ := svc.SubmitSpecial(ctx, SpecialSubmission{
		Event: "Funeral", Type: "Emergency", RequestedBy: "Otieno", Amount: kes(3000),
	})
	conID, _ := svc.SubmitContribution(ctx, ContributionSubmission{FamilyName: "W", HouseNo: "B2", Month: "MAR", Amount: kes(2000)})

	approve := Decision{Action: models.StatusApprove, Remark: "ok"}
	er, _ := svc.DecideExpenses(ctx, true, []int64{expID}, approve, ExpenseOverrides{Mode: "Cash"})
	sr, _ := svc.DecideSpecials(ctx, true, []int64{specID}, approve)
	cr, _ := svc.DecideContributions(ctx, true, []int64{conID}, approve)
	for name, res := range map[string]*BatchResult{"expense": er, "special": sr, "contribution": cr} {
		if res == nil {
			t.Fatalf("%s: nil result", name)
		}
		for id, err := range res.Failed {
			if !errors.Is(err, errDiskFull) {
				t.Errorf("%s %d err = %v, want disk full", name, id, err)
			}
		}
		if len(res.Failed) != 1 {
			t.Errorf("%s failed = %v, want 1", name, res.Failed)
		}
	}

	exps, _ := mem.ListExpenseRequests(ctx)
	if exps[0].Status != models.StatusPending || exps[0].Remarks != "Phone: . " {
		t.Errorf("expense request = %q %q", exps[0].Status, exps[0].Remarks)
	}
	specs, _ := mem.ListSpecialRequests(ctx)
	if specs[0].Status != models.StatusPending {
		t.Errorf("special request status = %q", specs[0].Status)
	}
	cons, _ := mem.ListContributionRequests(ctx)
	if cons[0].Status != models.StatusPending || cons[0].Remarks != "Payment Ref: . " {
		t.Errorf("contribution request = %q %q", cons[0].Status, cons[0].Remarks)
	}

	fl.fail = false
	er, _ = svc.DecideExpenses(ctx, true, []int64{expID}, approve, ExpenseOverrides{Mode: "Cash"})
	sr, _ = svc.DecideSpecials(ctx, true, []int64{specID}, approve)
	cr, _ = svc.DecideContributions(ctx, true, []int64{conID}, approve)
	if er.Err() != nil || sr.Err() != nil || cr.Err() != nil {
		t.Fatalf("retry after recovery: %v %v %v", er.Err(), sr.Err(), cr.Err())
	}
	if e, _ := mem.ListExpenses(ctx); len(e) != 1 {
		t.Errorf("expenses = %d, want 1", len(e))
	}
	if hs, _ := mem.ListHouseholds(ctx); !hs[0].Months[ledger.Mar].Equal(kes(2000)) {
		t.Errorf("B2 MAR = %v", hs[0].Months[ledger.Mar])
	}
}

func TestDecideRequiresTreasurer(t *testing.T) {
	svc, mem := newService(t)
	ctx := context.Background()

	id, _ := svc.SubmitExpense(ctx, ExpenseSubmission{
		Description: "Bulbs", Category: "Maintenance", RequestedBy: "Kamau", Amount: kes(800),
	})
	d := Decision{Action: models.StatusApprove}

	if _, err := svc.DecideExpenses(ctx, false, []int64{id}, d, ExpenseOverrides{}); !errors.Is(err, ErrNotTreasurer) {
		t.Errorf("DecideExpenses err = %v, want ErrNotTreasurer", err)
	}
	if _, err := svc.DecideSpecials(ctx, false, []int64{id}, d); !errors.Is(err, ErrNotTreasurer) {
		t.Errorf("DecideSpecials err = %v, want ErrNotTreasurer", err)
	}
	if _, err := svc.DecideContributions(ctx, false, []int64{id}, d); !errors.Is(err, ErrNotTreasurer) {
		t.Errorf("DecideContributions err = %v, want ErrNotTreasurer", err)
	}
	if _, err := svc.DecideExpenses(ctx, true, []int64{id}, Decision{Action: "Maybe"}, ExpenseOverrides{}); !errors.Is(err, ErrInvalidAction) {
		t.Errorf("bad action err = %v, want ErrInvalidAction", err)
	}

	reqs, _ := mem.ListExpenseRequests(ctx)
	if reqs[0].Status != models.StatusPending {
		t.Errorf("status = %q, want still pending", reqs[0].Status)
	}
}

func TestRecordExpense(t *testing.T) {
	svc, mem := newService(t)
	ctx := context.Background()

	in := ExpenseEntry{
		Description: "Guard salary", Category: "Personnel", Vendor: "SecureCo",
		Amount: kes(15000), Mode: "Bank Transfer",
	}
	if _, err := svc.RecordExpense(ctx, false, in); !errors.Is(err, ErrNotTreasurer) {
		t.Fatalf("member err = %v, want ErrNotTreasurer", err)
	}
	if _, err := svc.RecordExpense(ctx, true, in); err != nil {
		t.Fatalf("RecordExpense: %v", err)
	}

	in.Mode = "Cheque"
	var verr *ValidationError
	if _, err := svc.RecordExpense(ctx, true, in); !errors.As(err, &verr) || verr.Fields["mode"] == "" {
		t.Errorf("bad mode err = %v", err)
	}

	expenses, _ := mem.ListExpenses(ctx)
	if len(expenses) != 1 || expenses[0].Mode != "Bank Transfer" {
		t.Errorf("expenses = %+v", expenses)
	}
}

func TestRecordSpecialJoinsContributors(t *testing.T) {
	svc, mem := newService(t)
	ctx := context.Background()

	_, err := svc.RecordSpecial(ctx, true, SpecialEntry{
		Event: "Funeral", Type: "Welfare", Contributors: []string{"Otieno", " ", "Wanjiku"}, Amount: kes(3000),
	})
	if err != nil {
		t.Fatal(err)
	}
	special, _ := mem.ListSpecial(ctx)
	if special[0].Contributors != "Otieno, Wanjiku" {
		t.Errorf("contributors = %q", special[0].Contributors)
	}
}
