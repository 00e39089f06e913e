package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/washa/backend/internal/domain/borrower"
)

type BorrowerRepository struct {
	pool *pgxpool.Pool
}

func NewBorrowerRepository(pool *pgxpool.Pool) *BorrowerRepository {
	return &BorrowerRepository{pool: pool}
}

const borrowerColumns = `id, full_name, phone, email, address, id_number, employment_status,
       monthly_income::text, is_from_payment_import, import_date, COALESCE(created_by::text, ''), created_at`

func scanBorrower(row pgx.Row) (*borrower.Entity, error) {
	out := &borrower.Entity{}
	var income string
	err := row.Scan(
		&out.ID, &out.FullName, &out.Phone, &out.Email, &out.Address, &out.IDNumber, &out.EmploymentStatus,
		&income, &out.IsFromPaymentImport, &out.ImportDate, &out.CreatedBy, &out.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, borrower.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if out.MonthlyIncome, err = parseDecimal(income); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *BorrowerRepository) Create(ctx context.Context, in borrower.CreateInput) (*borrower.Entity, error) {
	q := `
INSERT INTO borrowers (
  full_name, phone, email, address, id_number, employment_status,
  monthly_income, is_from_payment_import, import_date, created_by
) VALUES ($1,$2,$3,$4,$5,$6,$7::numeric,$8,$9,NULLIF($10, '')::uuid)
RETURNING ` + borrowerColumns
	return scanBorrower(r.pool.QueryRow(ctx, q,
		in.FullName, in.Phone, in.Email, in.Address, in.IDNumber, in.EmploymentStatus,
		in.MonthlyIncome.String(), in.IsFromPaymentImport, in.ImportDate, in.CreatedBy,
	))
}

func (r *BorrowerRepository) GetByID(ctx context.Context, id string) (*borrower.Entity, error) {
	return scanBorrower(r.pool.QueryRow(ctx, `SELECT `+borrowerColumns+` FROM borrowers WHERE id = $1`, id))
}

func (r *BorrowerRepository) Search(ctx context.Context, f borrower.SearchFilter) ([]borrower.Entity, error) {
	if f.Limit <= 0 {
		f.Limit = 10
	}
	column, term := "full_name", f.Name
	if f.Phone != "" {
		column, term = "phone", f.Phone
	}
	q := `SELECT ` + borrowerColumns + ` FROM borrowers
WHERE ` + column + ` ILIKE '%' || $1 || '%' ESCAPE '\'
ORDER BY created_at ASC, id ASC
LIMIT $2`
	return r.list(ctx, q, escapeLike(term), f.Limit)
}

func (r *BorrowerRepository) List(ctx context.Context, limit, offset int32) ([]borrower.Entity, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	q := `SELECT ` + borrowerColumns + ` FROM borrowers ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	return r.list(ctx, q, limit, offset)
}

func (r *BorrowerRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM borrowers`).Scan(&n)
	return n, err
}

func (r *BorrowerRepository) list(ctx context.Context, q string, args ...any) ([]borrower.Entity, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]borrower.Entity, 0)
	for rows.Next() {
		item, err := scanBorrower(rows)
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
