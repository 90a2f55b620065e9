package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/suyash01/zawadi/internal/ledger"
	"github.com/suyash01/zawadi/internal/models"
)

const (
	tableExpenseRequests      = "expense_requests"
	tableSpecialRequests      = "special_requests"
	tableContributionRequests = "contribution_requests"
)

// Postgres is the Store backed by database/sql and lib/pq.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Close releases the connection pool.
func (p *Postgres) Close() error { return p.db.Close() }

// missingTable reports whether err is Postgres undefined_table. Reads treat
// a table that has not been created yet as empty.
func missingTable(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "42P01"
}

func monthColumn(m ledger.Month) string {
	if !m.Valid() {
		m = ledger.Dec
	}
	return pq.QuoteIdentifier(strings.ToLower(m.String()))
}

func monthColumns() string {
	cols := make([]string, 0, 12)
	for m := ledger.Jan; m <= ledger.Dec; m++ {
		cols = append(cols, monthColumn(m))
	}
	return strings.Join(cols, ", ")
}

func orZero(n decimal.NullDecimal) decimal.Decimal {
	if n.Valid {
		return n.Decimal
	}
	return decimal.Zero
}

func (p *Postgres) ListHouseholds(ctx context.Context) ([]models.Household, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT house_no, family_name, COALESCE(lane, ''), COALESCE(rate_category, ''),
			COALESCE(email, ''), cumulative_debt_prior, `+monthColumns()+`,
			COALESCE(remarks, ''), COALESCE(updated_at, NOW())
		FROM contributions
		ORDER BY house_no
	`)
	if err != nil {
		if missingTable(err) {
			return []models.Household{}, nil
		}
		return nil, fmt.Errorf("list households: %w", err)
	}
	defer rows.Close()

	households := make([]models.Household, 0)
	for rows.Next() {
		var h models.Household
		var prior decimal.NullDecimal
		var months [12]decimal.NullDecimal
		dest := []any{&h.HouseNo, &h.FamilyName, &h.Lane, &h.RateCategory, &h.Email, &prior}
		for i := range months {
			dest = append(dest, &months[i])
		}
		dest = append(dest, &h.Remarks, &h.UpdatedAt)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan household: %w", err)
		}
		h.PriorDebt = orZero(prior)
		for i, v := range months {
			h.Months[i] = orZero(v)
		}
		households = append(households, h)
	}
	return households, rows.Err()
}

func (p *Postgres) UpsertHousehold(ctx context.Context, h models.Household) error {
	args := []any{h.HouseNo, h.FamilyName, h.Lane, h.RateCategory, h.Email, h.PriorDebt}
	placeholders := make([]string, 0, 12)
	updates := make([]string, 0, 12)
	for m := ledger.Jan; m <= ledger.Dec; m++ {
		args = append(args, h.Months[m])
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
		col := monthColumn(m)
		updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
	}
	args = append(args, h.Remarks)

	query := fmt.Sprintf(`
		INSERT INTO contributions (house_no, family_name, lane, rate_category, email,
			cumulative_debt_prior, %s, remarks, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, %s, $%d, NOW())
		ON CONFLICT (house_no) DO UPDATE SET
			family_name = EXCLUDED.family_name,
			lane = EXCLUDED.lane,
			rate_category = EXCLUDED.rate_category,
			email = EXCLUDED.email,
			cumulative_debt_prior = EXCLUDED.cumulative_debt_prior,
			%s,
			remarks = EXCLUDED.remarks,
			updated_at = NOW()
	`, monthColumns(), strings.Join(placeholders, ", "), len(args), strings.Join(updates, ",\n\t\t\t"))

	if _, err := p.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert household %s: %w", h.HouseNo, err)
	}
	return nil
}

func (p *Postgres) DeleteHousehold(ctx context.Context, houseNo string) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		DELETE FROM contribution_requests
		WHERE house_no = $1 AND status = $2
	`, houseNo, models.StatusPending)
	if err != nil {
		return fmt.Errorf("delete pending requests for %s: %w", houseNo, err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM contributions WHERE house_no = $1`, houseNo)
	if err != nil {
		return fmt.Errorf("delete household %s: %w", houseNo, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

func (p *Postgres) SetHouseholdMonth(ctx context.Context, houseNo string, m ledger.Month, amount decimal.Decimal) error {
	query := fmt.Sprintf(`
		UPDATE contributions SET %s = $1, updated_at = NOW()
		WHERE house_no = $2
	`, monthColumn(m))
	res, err := p.db.ExecContext(ctx, query, amount, houseNo)
	if err != nil {
		return fmt.Errorf("set %s for %s: %w", m, houseNo, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("household %s: %w", houseNo, ErrNotFound)
	}
	return nil
}

func (p *Postgres) UpdateHouseholdRateEmail(ctx context.Context, houseNo, category, email string) error {
	res, err := p.db.ExecContext(ctx, `
		UPDATE contributions SET rate_category = $1, email = $2, updated_at = NOW()
		WHERE house_no = $3
	`, category, email, houseNo)
	if err != nil {
		return fmt.Errorf("assign rate for %s: %w", houseNo, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("household %s: %w", houseNo, ErrNotFound)
	}
	return nil
}

func (p *Postgres) ListRates(ctx context.Context) ([]models.Rate, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT category, amount FROM rates ORDER BY category`)
	if err != nil {
		if missingTable(err) {
			return []models.Rate{}, nil
		}
		return nil, fmt.Errorf("list rates: %w", err)
	}
	defer rows.Close()

	rates := make([]models.Rate, 0)
	for rows.Next() {
		var r models.Rate
		var amount decimal.NullDecimal
		if err := rows.Scan(&r.Category, &amount); err != nil {
			return nil, fmt.Errorf("scan rate: %w", err)
		}
		r.Amount = orZero(amount)
		rates = append(rates, r)
	}
	return rates, rows.Err()
}

func (p *Postgres) UpsertRate(ctx context.Context, r models.Rate) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO rates (category, amount) VALUES ($1, $2)
		ON CONFLICT (category) DO UPDATE SET amount = EXCLUDED.amount
	`, r.Category, r.Amount)
	if err != nil {
		return fmt.Errorf("upsert rate %s: %w", r.Category, err)
	}
	return nil
}

func (p *Postgres) ListExpenses(ctx context.Context) ([]models.Expense, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, date, COALESCE(description, ''), COALESCE(category, ''),
			COALESCE(vendor, ''), COALESCE(phone, ''), amount, COALESCE(mode, ''),
			COALESCE(remarks, ''), COALESCE(receipt, '')
		FROM expenses
		ORDER BY date DESC, id DESC
	`)
	if err != nil {
		if missingTable(err) {
			return []models.Expense{}, nil
		}
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	expenses := make([]models.Expense, 0)
	for rows.Next() {
		var e models.Expense
		var date sql.NullTime
		var amount decimal.NullDecimal
		if err := rows.Scan(&e.ID, &date, &e.Description, &e.Category, &e.Vendor, &e.Phone,
			&amount, &e.Mode, &e.Remarks, &e.Receipt); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		e.Date = date.Time
		e.Amount = orZero(amount)
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

func (p *Postgres) InsertExpense(ctx context.Context, e models.Expense) (int64, error) {
	var id int64
	err := p.db.QueryRowContext(ctx, `
		INSERT INTO expenses (date, description, category, vendor, phone, amount, mode, remarks, receipt)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, dateOrToday(e.Date), e.Description, e.Category, e.Vendor, e.Phone, e.Amount, e.Mode,
		e.Remarks, e.Receipt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert expense: %w", err)
	}
	return id, nil
}

func (p *Postgres) ListExpenseRequests(ctx context.Context) ([]models.ExpenseRequest, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, date, COALESCE(description, ''), COALESCE(category, ''),
			COALESCE(requested_by, ''), amount, status, COALESCE(remarks, '')
		FROM expense_requests
		ORDER BY date DESC, id DESC
	`)
	if err != nil {
		if missingTable(err) {
			return []models.ExpenseRequest{}, nil
		}
		return nil, fmt.Errorf("list expense requests: %w", err)
	}
	defer rows.Close()

	requests := make([]models.ExpenseRequest, 0)
	for rows.Next() {
		var r models.ExpenseRequest
		var date sql.NullTime
		var amount decimal.NullDecimal
		if err := rows.Scan(&r.ID, &date, &r.Description, &r.Category, &r.RequestedBy,
			&amount, &r.Status, &r.Remarks); err != nil {
			return nil, fmt.Errorf("scan expense request: %w", err)
		}
		r.Date = date.Time
		r.Amount = orZero(amount)
		requests = append(requests, r)
	}
	return requests, rows.Err()
}

func (p *Postgres) InsertExpenseRequest(ctx context.Context, r models.ExpenseRequest) (int64, error) {
	var id int64
	err := p.db.QueryRowContext(ctx, `
		INSERT INTO expense_requests (date, description, category, requested_by, amount, status, remarks)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, dateOrToday(r.Date), r.Description, r.Category, r.RequestedBy, r.Amount,
		models.StatusPending, r.Remarks).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert expense request: %w", err)
	}
	return id, nil
}

func (p *Postgres) UpdateExpenseRequestStatus(ctx context.Context, id int64, status, remark string) error {
	return p.updateStatus(ctx, tableExpenseRequests, id, status, remark)
}

func (p *Postgres) ReopenExpenseRequest(ctx context.Context, id int64, remarks string) error {
	return p.reopen(ctx, tableExpenseRequests, id, remarks)
}

func (p *Postgres) ListSpecial(ctx context.Context) ([]models.SpecialContribution, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, date, COALESCE(event, ''), COALESCE(type, ''),
			COALESCE(contributors, ''), amount, COALESCE(remarks, '')
		FROM special
		ORDER BY date DESC, id DESC
	`)
	if err != nil {
		if missingTable(err) {
			return []models.SpecialContribution{}, nil
		}
		return nil, fmt.Errorf("list special: %w", err)
	}
	defer rows.Close()

	special := make([]models.SpecialContribution, 0)
	for rows.Next() {
		var s models.SpecialContribution
		var date sql.NullTime
		var amount decimal.NullDecimal
		if err := rows.Scan(&s.ID, &date, &s.Event, &s.Type, &s.Contributors, &amount, &s.Remarks); err != nil {
			return nil, fmt.Errorf("scan special: %w", err)
		}
		s.Date = date.Time
		s.Amount = orZero(amount)
		special = append(special, s)
	}
	return special, rows.Err()
}

func (p *Postgres) InsertSpecial(ctx context.Context, s models.SpecialContribution) (int64, error) {
	var id int64
	err := p.db.QueryRowContext(ctx, `
		INSERT INTO special (date, event, type, contributors, amount, remarks)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, dateOrToday(s.Date), s.Event, s.Type, s.Contributors, s.Amount, s.Remarks).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert special: %w", err)
	}
	return id, nil
}

func (p *Postgres) ListSpecialRequests(ctx context.Context) ([]models.SpecialRequest, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, date, COALESCE(event, ''), COALESCE(type, ''),
			COALESCE(requested_by, ''), amount, status, COALESCE(remarks, '')
		FROM special_requests
		ORDER BY date DESC, id DESC
	`)
	if err != nil {
		if missingTable(err) {
			return []models.SpecialRequest{}, nil
		}
		return nil, fmt.Errorf("list special requests: %w", err)
	}
	defer rows.Close()

	requests := make([]models.SpecialRequest, 0)
	for rows.Next() {
		var r models.SpecialRequest
		var date sql.NullTime
		var amount decimal.NullDecimal
		if err := rows.Scan(&r.ID, &date, &r.Event, &r.Type, &r.RequestedBy, &amount,
			&r.Status, &r.Remarks); err != nil {
			return nil, fmt.Errorf("scan special request: %w", err)
		}
		r.Date = date.Time
		r.Amount = orZero(amount)
		requests = append(requests, r)
	}
	return requests, rows.Err()
}

func (p *Postgres) InsertSpecialRequest(ctx context.Context, r models.SpecialRequest) (int64, error) {
	var id int64
	err := p.db.QueryRowContext(ctx, `
		INSERT INTO special_requests (date, event, type, requested_by, amount, status, remarks)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, dateOrToday(r.Date), r.Event, r.Type, r.RequestedBy, r.Amount, models.StatusPending,
		r.Remarks).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert special request: %w", err)
	}
	return id, nil
}

func (p *Postgres) UpdateSpecialRequestStatus(ctx context.Context, id int64, status, remark string) error {
	return p.updateStatus(ctx, tableSpecialRequests, id, status, remark)
}

func (p *Postgres) ReopenSpecialRequest(ctx context.Context, id int64, remarks string) error {
	return p.reopen(ctx, tableSpecialRequests, id, remarks)
}

func (p *Postgres) ListContributionRequests(ctx context.Context) ([]models.ContributionRequest, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, date, COALESCE(month, ''), COALESCE(family_name, ''), COALESCE(house_no, ''),
			COALESCE(lane, ''), COALESCE(rate_category, ''), amount, status, COALESCE(remarks, '')
		FROM contribution_requests
		ORDER BY date DESC, id DESC
	`)
	if err != nil {
		if missingTable(err) {
			return []models.ContributionRequest{}, nil
		}
		return nil, fmt.Errorf("list contribution requests: %w", err)
	}
	defer rows.Close()

	requests := make([]models.ContributionRequest, 0)
	for rows.Next() {
		var r models.ContributionRequest
		var date sql.NullTime
		var amount decimal.NullDecimal
		if err := rows.Scan(&r.ID, &date, &r.Month, &r.FamilyName, &r.HouseNo, &r.Lane,
			&r.RateCategory, &amount, &r.Status, &r.Remarks); err != nil {
			return nil, fmt.Errorf("scan contribution request: %w", err)
		}
		r.Date = date.Time
		r.Amount = orZero(amount)
		requests = append(requests, r)
	}
	return requests, rows.Err()
}

func (p *Postgres) InsertContributionRequest(ctx context.Context, r models.ContributionRequest) (int64, error) {
	var id int64
	err := p.db.QueryRowContext(ctx, `
		INSERT INTO contribution_requests (date, month, family_name, house_no, lane, rate_category,
			amount, status, remarks)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, dateOrToday(r.Date), r.Month, r.FamilyName, r.HouseNo, r.Lane, r.RateCategory, r.Amount,
		models.StatusPending, r.Remarks).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert contribution request: %w", err)
	}
	return id, nil
}

func (p *Postgres) UpdateContributionRequestStatus(ctx context.Context, id int64, status, remark string) error {
	return p.updateStatus(ctx, tableContributionRequests, id, status, remark)
}

func (p *Postgres) ReopenContributionRequest(ctx context.Context, id int64, remarks string) error {
	return p.reopen(ctx, tableContributionRequests, id, remarks)
}

// updateStatus moves a pending request to status. The WHERE clause makes the
// transition single-shot: a second decision matches no rows.
func (p *Postgres) updateStatus(ctx context.Context, table string, id int64, status, remark string) error {
	res, err := p.db.ExecContext(ctx, `
		UPDATE `+table+`
		SET status = $1, remarks = CONCAT($2::text, ' | ', COALESCE(remarks, ''))
		WHERE id = $3 AND status = $4
	`, status, remark, id, models.StatusPending)
	if err != nil {
		return fmt.Errorf("update %s %d: %w", table, id, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	var current string
	err = p.db.QueryRowContext(ctx, `SELECT status FROM `+table+` WHERE id = $1`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %d: %w", table, id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update %s %d: %w", table, id, err)
	}
	return fmt.Errorf("%s %d is %q: %w", table, id, current, ErrAlreadyDecided)
}

func (p *Postgres) LatestCash(ctx context.Context) (models.CashSnapshot, error) {
	var c models.CashSnapshot
	var balance, withdrawal decimal.NullDecimal
	err := p.db.QueryRowContext(ctx, `
		SELECT balance_cd, withdrawal, updated_at
		FROM cash_management
		ORDER BY updated_at DESC, id DESC
		LIMIT 1
	`).Scan(&balance, &withdrawal, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) || missingTable(err) {
		return models.CashSnapshot{BalanceCD: decimal.Zero, Withdrawal: decimal.Zero}, nil
	}
	if err != nil {
		return models.CashSnapshot{}, fmt.Errorf("latest cash: %w", err)
	}
	c.BalanceCD = orZero(balance)
	c.Withdrawal = orZero(withdrawal)
	return c, nil
}

func (p *Postgres) SaveCash(ctx context.Context, c models.CashSnapshot) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO cash_management (balance_cd, withdrawal, updated_at)
		VALUES ($1, $2, NOW())
	`, c.BalanceCD, c.Withdrawal)
	if err != nil {
		return fmt.Errorf("save cash: %w", err)
	}
	return nil
}

// reopen undoes an approval claim. Only an approved row is touched, so a
// request rejected in the meantime keeps its decision.
func (p *Postgres) reopen(ctx context.Context, table string, id int64, remarks string) error {
	res, err := p.db.ExecContext(ctx, `
		UPDATE `+table+`
		SET status = $1, remarks = $2
		WHERE id = $3 AND status = $4
	`, models.StatusPending, remarks, id, models.StatusApprove)
	if err != nil {
		return fmt.Errorf("reopen %s %d: %w", table, id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("reopen %s %d: %w", table, id, ErrNotFound)
	}
	return nil
}

func dateOrToday(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}
