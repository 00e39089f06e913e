package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	RoleAdmin       = "admin"
	RoleLoanOfficer = "loan_officer"
	RoleCustomer    = "customer"

	StatusActive   = "active"
	StatusInactive = "inactive"
)

var (
	ErrUserNotFound    = errors.New("user_not_found")
	ErrUserExists      = errors.New("user_exists")
	ErrSessionNotFound = errors.New("session_not_found")
)

type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	FullName     string     `json:"fullName"`
	Email        string     `json:"email"`
	Role         string     `json:"role"`
	Status       string     `json:"status"`
	LastLogin    *time.Time `json:"lastLogin,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

type CreateUserInput struct {
	Username     string
	PasswordHash string
	FullName     string
	Email        string
	Role         string
}

type Session struct {
	ID               string     `json:"id"`
	UserID           string     `json:"userId"`
	RefreshTokenHash string     `json:"-"`
	UserAgent        string     `json:"userAgent"`
	IPAddress        string     `json:"ipAddress"`
	ExpiresAt        time.Time  `json:"expiresAt"`
	RevokedAt        *time.Time `json:"revokedAt,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

func (s Session) IsActive(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}

type AuthRepository struct {
	pool *pgxpool.Pool
}

func NewAuthRepository(pool *pgxpool.Pool) *AuthRepository {
	return &AuthRepository{pool: pool}
}

const userColumns = `id, username, password_hash, full_name, email, role, status, last_login, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	u := &User{}
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.FullName, &u.Email, &u.Role, &u.Status, &u.LastLogin, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *AuthRepository) CreateUser(ctx context.Context, in CreateUserInput) (*User, error) {
	q := `
INSERT INTO users (username, password_hash, full_name, email, role)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + userColumns
	u, err := scanUser(r.pool.QueryRow(ctx, q, in.Username, in.PasswordHash, in.FullName, in.Email, in.Role))
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return nil, ErrUserExists
	}
	return u, err
}

func (r *AuthRepository) GetUserByID(ctx context.Context, userID string) (*User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID))
}

func (r *AuthRepository) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(username) = LOWER($1)`, username))
}

func (r *AuthRepository) TouchLastLogin(ctx context.Context, userID string, at time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET last_login = $2, updated_at = NOW() WHERE id = $1`, userID, at)
	return err
}

func (r *AuthRepository) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *AuthRepository) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

func (r *AuthRepository) UpdateUserStatus(ctx context.Context, userID, status string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET status = $2, updated_at = NOW() WHERE id = $1`, userID, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *AuthRepository) UpdateUserRole(ctx context.Context, userID, role string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET role = $2, updated_at = NOW() WHERE id = $1`, userID, role)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

const sessionColumns = `id, user_id, refresh_token_hash, user_agent, ip_address, expires_at, revoked_at, created_at, updated_at`

func scanSession(row pgx.Row) (*Session, error) {
	s := &Session{}
	err := row.Scan(&s.ID, &s.UserID, &s.RefreshTokenHash, &s.UserAgent, &s.IPAddress, &s.ExpiresAt, &s.RevokedAt, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *AuthRepository) CreateSession(ctx context.Context, userID, refreshHash, userAgent, ipAddress string, expiresAt time.Time) (*Session, error) {
	q := `
INSERT INTO auth_sessions (user_id, refresh_token_hash, user_agent, ip_address, expires_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + sessionColumns
	return scanSession(r.pool.QueryRow(ctx, q, userID, refreshHash, userAgent, ipAddress, expiresAt))
}

func (r *AuthRepository) GetSessionByID(ctx context.Context, sessionID string) (*Session, error) {
	return scanSession(r.pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM auth_sessions WHERE id = $1`, sessionID))
}

func (r *AuthRepository) ListSessionsByUser(ctx context.Context, userID string) ([]Session, error) {
	return r.listSessions(ctx, `SELECT `+sessionColumns+` FROM auth_sessions WHERE user_id = $1 ORDER BY created_at DESC LIMIT 50`, userID)
}

func (r *AuthRepository) ListActiveSessions(ctx context.Context) ([]Session, error) {
	return r.listSessions(ctx, `SELECT `+sessionColumns+` FROM auth_sessions WHERE revoked_at IS NULL AND expires_at > NOW() ORDER BY created_at DESC`)
}

func (r *AuthRepository) listSessions(ctx context.Context, q string, args ...any) ([]Session, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Session, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *AuthRepository) RevokeSession(ctx context.Context, sessionID string) error {
	q := `UPDATE auth_sessions SET revoked_at = NOW(), updated_at = NOW() WHERE id = $1 AND revoked_at IS NULL`
	_, err := r.pool.Exec(ctx, q, sessionID)
	return err
}

func (r *AuthRepository) UpdateSessionRefreshHash(ctx context.Context, sessionID, refreshHash string) error {
	q := `UPDATE auth_sessions SET refresh_token_hash = $2, updated_at = NOW() WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, sessionID, refreshHash)
	return err
}
