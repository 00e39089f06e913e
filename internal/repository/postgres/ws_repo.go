package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/washa/backend/internal/domain/payment"
)

type WSRepository struct {
	pool *pgxpool.Pool
}

func NewWSRepository(pool *pgxpool.Pool) *WSRepository {
	return &WSRepository{pool: pool}
}

func (r *WSRepository) ListPaymentsSince(ctx context.Context, lastSeq int64, limit int32) ([]payment.View, error) {
	if limit <= 0 {
		limit = 100
	}
	q := `SELECT ` + paymentViewColumns + `
FROM payments p
JOIN loans l ON l.id = p.loan_id
JOIN borrowers b ON b.id = l.borrower_id
WHERE p.seq > $1
ORDER BY p.seq ASC
LIMIT $2`
	rows, err := r.pool.Query(ctx, q, lastSeq, limit)
	if err != nil {
		return nil, err
	}
	return collectPaymentViews(rows)
}

func (r *WSRepository) LatestPaymentSeq(ctx context.Context) (int64, error) {
	var seq int64
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(MAX(seq), 0) FROM payments`).Scan(&seq)
	return seq, err
}
