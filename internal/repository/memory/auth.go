package memory

import (
	"context"
	"strings"
	"time"

	"github.com/washa/backend/internal/db"
)

type AuthRepository struct {
	s *Store
}

func (r *AuthRepository) CreateUser(_ context.Context, in db.CreateUserInput) (*db.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if strings.EqualFold(u.Username, in.Username) {
			return nil, db.ErrUserExists
		}
	}
	now := r.s.now()
	role := in.Role
	if role == "" {
		role = db.RoleLoanOfficer
	}
	u := db.User{
		ID:           newID(),
		Username:     in.Username,
		PasswordHash: in.PasswordHash,
		FullName:     in.FullName,
		Email:        in.Email,
		Role:         role,
		Status:       db.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.s.users = append(r.s.users, u)
	return &u, nil
}

func (r *AuthRepository) GetUserByID(_ context.Context, userID string) (*db.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if i := r.userIndex(userID); i >= 0 {
		u := r.s.users[i]
		return &u, nil
	}
	return nil, db.ErrUserNotFound
}

func (r *AuthRepository) GetUserByUsername(_ context.Context, username string) (*db.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Username, username) {
			return &u, nil
		}
	}
	return nil, db.ErrUserNotFound
}

func (r *AuthRepository) TouchLastLogin(_ context.Context, userID string, at time.Time) error {
	return r.updateUser(userID, func(u *db.User) { u.LastLogin = &at })
}

func (r *AuthRepository) ListUsers(context.Context) ([]db.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return append([]db.User{}, r.s.users...), nil
}

func (r *AuthRepository) CountUsers(context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.users)), nil
}

func (r *AuthRepository) UpdateUserStatus(_ context.Context, userID, status string) error {
	return r.updateUser(userID, func(u *db.User) { u.Status = status })
}

func (r *AuthRepository) UpdateUserRole(_ context.Context, userID, role string) error {
	return r.updateUser(userID, func(u *db.User) { u.Role = role })
}

func (r *AuthRepository) CreateSession(_ context.Context, userID, refreshHash, userAgent, ipAddress string, expiresAt time.Time) (*db.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.now()
	sess := db.Session{
		ID:               newID(),
		UserID:           userID,
		RefreshTokenHash: refreshHash,
		UserAgent:        userAgent,
		IPAddress:        ipAddress,
		ExpiresAt:        expiresAt,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	r.s.sessions = append(r.s.sessions, sess)
	return &sess, nil
}

func (r *AuthRepository) GetSessionByID(_ context.Context, sessionID string) (*db.Session, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if i := r.sessionIndex(sessionID); i >= 0 {
		sess := r.s.sessions[i]
		return &sess, nil
	}
	return nil, db.ErrSessionNotFound
}

func (r *AuthRepository) ListSessionsByUser(_ context.Context, userID string) ([]db.Session, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]db.Session, 0)
	for i := len(r.s.sessions) - 1; i >= 0; i-- {
		if r.s.sessions[i].UserID == userID {
			out = append(out, r.s.sessions[i])
		}
	}
	return page(out, 50, 0), nil
}

func (r *AuthRepository) ListActiveSessions(context.Context) ([]db.Session, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	now := r.s.now()
	out := make([]db.Session, 0)
	for i := len(r.s.sessions) - 1; i >= 0; i-- {
		if r.s.sessions[i].IsActive(now) {
			out = append(out, r.s.sessions[i])
		}
	}
	return out, nil
}

func (r *AuthRepository) RevokeSession(_ context.Context, sessionID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if i := r.sessionIndex(sessionID); i >= 0 && r.s.sessions[i].RevokedAt == nil {
		now := r.s.now()
		r.s.sessions[i].RevokedAt = &now
		r.s.sessions[i].UpdatedAt = now
	}
	return nil
}

func (r *AuthRepository) UpdateSessionRefreshHash(_ context.Context, sessionID, refreshHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if i := r.sessionIndex(sessionID); i >= 0 {
		r.s.sessions[i].RefreshTokenHash = refreshHash
		r.s.sessions[i].UpdatedAt = r.s.now()
	}
	return nil
}

func (r *AuthRepository) updateUser(userID string, apply func(u *db.User)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	i := r.userIndex(userID)
	if i < 0 {
		return db.ErrUserNotFound
	}
	apply(&r.s.users[i])
	r.s.users[i].UpdatedAt = r.s.now()
	return nil
}

func (r *AuthRepository) userIndex(id string) int {
	for i := range r.s.users {
		if r.s.users[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *AuthRepository) sessionIndex(id string) int {
	for i := range r.s.sessions {
		if r.s.sessions[i].ID == id {
			return i
		}
	}
	return -1
}
