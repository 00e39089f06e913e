package postgres

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/washa/backend/internal/domain/loan"
)

type LoanRepository struct {
	pool *pgxpool.Pool
}

func NewLoanRepository(pool *pgxpool.Pool) *LoanRepository {
	return &LoanRepository{pool: pool}
}

const loanColumns = `id, reference, borrower_id, amount::text, interest_rate::text, term_days, purpose, status,
       start_date, end_date, disbursement_date, disbursement_method, disbursement_reference,
       source, notes, COALESCE(created_by::text, ''), created_at, updated_at`

func scanLoan(row pgx.Row) (*loan.Entity, error) {
	out := &loan.Entity{}
	var amount, rate string
	err := row.Scan(
		&out.ID, &out.Reference, &out.BorrowerID, &amount, &rate, &out.TermDays, &out.Purpose, &out.Status,
		&out.StartDate, &out.EndDate, &out.DisbursementDate, &out.DisbursementMethod, &out.DisbursementRef,
		&out.Source, &out.Notes, &out.CreatedBy, &out.CreatedAt, &out.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, loan.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if out.Amount, err = parseDecimal(amount); err != nil {
		return nil, err
	}
	if out.InterestRate, err = parseDecimal(rate); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *LoanRepository) Create(ctx context.Context, in loan.CreateInput) (*loan.Entity, error) {
	q := `
INSERT INTO loans (
  reference, borrower_id, amount, interest_rate, term_days, purpose,
  status, start_date, end_date, source, notes, created_by
) VALUES ($1,$2,$3::numeric,$4::numeric,$5,$6,$7,$8,$9,$10,$11,NULLIF($12, '')::uuid)
RETURNING ` + loanColumns
	return scanLoan(r.pool.QueryRow(ctx, q,
		in.Reference, in.BorrowerID, in.Amount.String(), in.InterestRate.String(), in.TermDays, in.Purpose,
		in.Status, in.StartDate, in.EndDate, in.Source, in.Notes, in.CreatedBy,
	))
}

func (r *LoanRepository) GetByID(ctx context.Context, id string) (*loan.Entity, error) {
	return scanLoan(r.pool.QueryRow(ctx, `SELECT `+loanColumns+` FROM loans WHERE id = $1`, id))
}

func (r *LoanRepository) FindOpenByBorrower(ctx context.Context, borrowerID string) (*loan.Entity, error) {
	q := `SELECT ` + loanColumns + ` FROM loans
WHERE borrower_id = $1 AND status = ANY($2)
ORDER BY created_at ASC, id ASC
LIMIT 1`
	return scanLoan(r.pool.QueryRow(ctx, q, borrowerID, loan.OpenStatuses))
}

func (r *LoanRepository) List(ctx context.Context, f loan.ListFilter) ([]loan.Entity, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	builder := strings.Builder{}
	builder.WriteString(`SELECT ` + loanColumns + ` FROM loans WHERE 1=1`)

	args := []any{}
	argPos := 1
	if strings.TrimSpace(f.BorrowerID) != "" {
		builder.WriteString(" AND borrower_id = $")
		builder.WriteString(strconv.Itoa(argPos))
		args = append(args, f.BorrowerID)
		argPos++
	}
	if len(f.Statuses) > 0 {
		builder.WriteString(" AND status = ANY($")
		builder.WriteString(strconv.Itoa(argPos))
		builder.WriteString(")")
		args = append(args, f.Statuses)
		argPos++
	}
	builder.WriteString(" ORDER BY created_at DESC")
	builder.WriteString(" LIMIT $")
	builder.WriteString(strconv.Itoa(argPos))
	args = append(args, f.Limit)
	argPos++
	builder.WriteString(" OFFSET $")
	builder.WriteString(strconv.Itoa(argPos))
	args = append(args, f.Offset)

	rows, err := r.pool.Query(ctx, builder.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]loan.Entity, 0)
	for rows.Next() {
		item, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *LoanRepository) UpdateBalance(ctx context.Context, in loan.BalanceUpdate) error {
	q := `UPDATE loans SET amount = $2::numeric, status = $3, notes = $4, updated_at = NOW() WHERE id = $1`
	tag, err := r.pool.Exec(ctx, q, in.LoanID, in.Amount.String(), in.Status, in.Notes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return loan.ErrNotFound
	}
	return nil
}

func (r *LoanRepository) MarkDisbursed(ctx context.Context, in loan.DisbursementUpdate) error {
	q := `
UPDATE loans
SET status = 'active',
    disbursement_date = $2,
    disbursement_method = $3,
    disbursement_reference = $4,
    start_date = $2,
    end_date = $2 + make_interval(days => term_days),
    updated_at = NOW()
WHERE id = $1 AND status IN ('pending', 'approved')
`
	tag, err := r.pool.Exec(ctx, q, in.LoanID, in.At, in.Method, in.Reference)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return loan.ErrNotDisbursable
	}
	return nil
}

func (r *LoanRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM loans`).Scan(&n)
	return n, err
}
