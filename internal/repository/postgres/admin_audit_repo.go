package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	admindomain "github.com/washa/backend/internal/domain/admin"
)

type AuditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

// Log appends one row to admin_audit_logs. A system-triggered entry has no admin user.
func (r *AuditRepository) Log(ctx context.Context, in admindomain.AuditLogInput) error {
	payload := in.Payload
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	q := `
INSERT INTO admin_audit_logs (admin_user_id, action, target_type, target_id, payload)
VALUES (NULLIF($1, '')::uuid, $2, $3, $4, $5::jsonb)
`
	_, err := r.pool.Exec(ctx, q, in.AdminUserID, in.Action, in.TargetType, in.TargetID, string(payload))
	return err
}

func (r *AuditRepository) CountByAction(ctx context.Context, action string) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM admin_audit_logs WHERE action = $1`, action).Scan(&n)
	return n, err
}
