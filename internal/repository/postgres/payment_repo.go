package postgres

import (
	"context"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/washa/backend/internal/domain/payment"
)

type PaymentRepository struct {
	pool *pgxpool.Pool
}

func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

const paymentColumns = `p.id, p.reference, p.loan_id, p.seq, p.amount::text, p.payment_date, p.method, p.status,
       p.notes, p.receipt_number, p.is_from_import, p.import_date, COALESCE(p.created_by::text, ''), p.created_at`

const paymentViewColumns = paymentColumns + `, l.reference, b.id, b.full_name, b.phone`

func paymentDest(out *payment.Entity, amount *string) []any {
	return []any{
		&out.ID, &out.Reference, &out.LoanID, &out.Seq, amount, &out.PaymentDate, &out.Method, &out.Status,
		&out.Notes, &out.ReceiptNumber, &out.IsFromImport, &out.ImportDate, &out.CreatedBy, &out.CreatedAt,
	}
}

func (r *PaymentRepository) Create(ctx context.Context, in payment.CreateInput) (*payment.Entity, error) {
	q := `
INSERT INTO payments AS p (
  reference, loan_id, amount, payment_date, method, status,
  notes, receipt_number, is_from_import, import_date, created_by
) VALUES ($1,$2,$3::numeric,$4,$5,$6,$7,$8,$9,$10,NULLIF($11, '')::uuid)
RETURNING ` + paymentColumns
	out := &payment.Entity{}
	var amount string
	err := r.pool.QueryRow(ctx, q,
		in.Reference, in.LoanID, in.Amount.String(), in.PaymentDate, in.Method, in.Status,
		in.Notes, in.ReceiptNumber, in.IsFromImport, in.ImportDate, in.CreatedBy,
	).Scan(paymentDest(out, &amount)...)
	if err != nil {
		return nil, err
	}
	if out.Amount, err = parseDecimal(amount); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PaymentRepository) List(ctx context.Context, f payment.ListFilter) ([]payment.View, int64, error) {
	if f.Limit <= 0 {
		f.Limit = 10
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	where := strings.Builder{}
	where.WriteString(" WHERE 1=1")
	args := []any{}
	argPos := 1
	if strings.TrimSpace(f.LoanID) != "" {
		where.WriteString(" AND p.loan_id = $" + strconv.Itoa(argPos))
		args = append(args, f.LoanID)
		argPos++
	}
	if strings.TrimSpace(f.Status) != "" {
		where.WriteString(" AND p.status = $" + strconv.Itoa(argPos))
		args = append(args, f.Status)
		argPos++
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		pos := strconv.Itoa(argPos)
		where.WriteString(" AND (b.full_name ILIKE '%' || $" + pos + ` || '%' ESCAPE '\'` +
			" OR b.phone ILIKE '%' || $" + pos + ` || '%' ESCAPE '\'` +
			" OR p.receipt_number ILIKE '%' || $" + pos + ` || '%' ESCAPE '\')`)
		args = append(args, escapeLike(s))
		argPos++
	}

	from := ` FROM payments p JOIN loans l ON l.id = p.loan_id JOIN borrowers b ON b.id = l.borrower_id`

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*)`+from+where.String(), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := `SELECT ` + paymentViewColumns + from + where.String() +
		` ORDER BY p.payment_date DESC, p.seq DESC LIMIT $` + strconv.Itoa(argPos) + ` OFFSET $` + strconv.Itoa(argPos+1)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}

	out, err := collectPaymentViews(rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *PaymentRepository) CountImported(ctx context.Context) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM payments WHERE is_from_import`).Scan(&n)
	return n, err
}

func (r *PaymentRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM payments`).Scan(&n)
	return n, err
}

func collectPaymentViews(rows pgx.Rows) ([]payment.View, error) {
	defer rows.Close()

	out := make([]payment.View, 0)
	for rows.Next() {
		var item payment.View
		var amount string
		dest := append(paymentDest(&item.Entity, &amount), &item.LoanReference, &item.BorrowerID, &item.BorrowerName, &item.BorrowerPhone)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		var err error
		if item.Amount, err = parseDecimal(amount); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
