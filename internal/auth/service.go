package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/washa/backend/internal/db"
	"golang.org/x/crypto/bcrypt"
)

const (
	minUsernameLen = 3
	minPasswordLen = 6
)

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrAccountInactive    = errors.New("account_inactive")
	ErrInvalidRegister    = errors.New("invalid_registration")
	ErrSessionRevoked     = errors.New("session_revoked")
)

type Repository interface {
	CreateUser(ctx context.Context, in db.CreateUserInput) (*db.User, error)
	GetUserByID(ctx context.Context, userID string) (*db.User, error)
	GetUserByUsername(ctx context.Context, username string) (*db.User, error)
	TouchLastLogin(ctx context.Context, userID string, at time.Time) error
	CreateSession(ctx context.Context, userID, refreshHash, userAgent, ipAddress string, expiresAt time.Time) (*db.Session, error)
	GetSessionByID(ctx context.Context, sessionID string) (*db.Session, error)
	ListSessionsByUser(ctx context.Context, userID string) ([]db.Session, error)
	ListActiveSessions(ctx context.Context) ([]db.Session, error)
	RevokeSession(ctx context.Context, sessionID string) error
	UpdateSessionRefreshHash(ctx context.Context, sessionID, refreshHash string) error
}

type Service struct {
	repo       Repository
	jwt        *JWTManager
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

type AuthTokens struct {
	AccessToken  string
	RefreshToken string
	SessionID    string
	User         *db.User
}

type RegisterInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

func NewService(repo Repository, jwt *JWTManager, accessTTL, refreshTTL time.Duration) *Service {
	return &Service{
		repo:       repo,
		jwt:        jwt,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Register creates a staff or customer account. Admin accounts come only
// from the bootstrap admin or a role change by another admin.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*db.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Role = strings.ToLower(strings.TrimSpace(in.Role))
	if in.Role == "" {
		in.Role = db.RoleLoanOfficer
	}
	if len(in.Username) < minUsernameLen || len(in.Password) < minPasswordLen {
		return nil, ErrInvalidRegister
	}
	if in.Role != db.RoleLoanOfficer && in.Role != db.RoleCustomer {
		return nil, ErrInvalidRegister
	}
	return s.createUser(ctx, in)
}

func (s *Service) Login(ctx context.Context, username, password, userAgent, ipAddress string) (*AuthTokens, error) {
	user, err := s.repo.GetUserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, db.ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	if user.Status != db.StatusActive {
		return nil, ErrAccountInactive
	}

	at := s.now()
	if err := s.repo.TouchLastLogin(ctx, user.ID, at); err != nil {
		return nil, err
	}
	user.LastLogin = &at
	return s.issue(ctx, user, userAgent, ipAddress)
}

func (s *Service) Refresh(ctx context.Context, refreshToken, userAgent, ipAddress string) (*AuthTokens, error) {
	claims, err := s.jwt.Parse(refreshToken)
	if err != nil {
		return nil, err
	}
	if claims.Type != TokenRefresh {
		return nil, ErrInvalidToken
	}

	session, err := s.repo.GetSessionByID(ctx, claims.SessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsActive(s.now()) {
		return nil, ErrSessionRevoked
	}
	if session.RefreshTokenHash != hashToken(refreshToken) {
		return nil, ErrInvalidToken
	}

	user, err := s.repo.GetUserByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	if user.Status != db.StatusActive {
		return nil, ErrAccountInactive
	}
	if err := s.repo.RevokeSession(ctx, session.ID); err != nil {
		return nil, err
	}
	return s.issue(ctx, user, userAgent, ipAddress)
}

// Logout revokes the session behind refreshToken. Unparseable tokens are
// ignored so clients can always clear their cookies.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.jwt.Parse(refreshToken)
	if err != nil {
		return nil
	}
	if claims.Type != TokenRefresh || claims.SessionID == "" {
		return nil
	}
	return s.repo.RevokeSession(ctx, claims.SessionID)
}

func (s *Service) RevokeSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.repo.RevokeSession(ctx, sessionID)
}

// Authenticate validates an access token and checks its session is live.
func (s *Service) Authenticate(ctx context.Context, accessToken string) (*Claims, error) {
	claims, err := s.jwt.Parse(accessToken)
	if err != nil {
		return nil, err
	}
	if claims.Type != TokenAccess {
		return nil, ErrInvalidToken
	}
	session, err := s.repo.GetSessionByID(ctx, claims.SessionID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if !session.IsActive(s.now()) {
		return nil, ErrSessionRevoked
	}
	return claims, nil
}

func (s *Service) Me(ctx context.Context, userID string) (*db.User, error) {
	return s.repo.GetUserByID(ctx, userID)
}

func (s *Service) Sessions(ctx context.Context, userID string) ([]db.Session, error) {
	return s.repo.ListSessionsByUser(ctx, userID)
}

func (s *Service) ActiveSessions(ctx context.Context) ([]db.Session, error) {
	return s.repo.ListActiveSessions(ctx)
}

// EnsureAdmin creates the bootstrap admin unless an account with that
// username exists. An empty password disables bootstrapping.
func (s *Service) EnsureAdmin(ctx context.Context, username, password, email, fullName string) (*db.User, bool, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, false, nil
	}
	existing, err := s.repo.GetUserByUsername(ctx, username)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, db.ErrUserNotFound) {
		return nil, false, err
	}
	created, err := s.createUser(ctx, RegisterInput{
		Username: username,
		Password: password,
		FullName: fullName,
		Email:    email,
		Role:     db.RoleAdmin,
	})
	if errors.Is(err, db.ErrUserExists) {
		existing, err = s.repo.GetUserByUsername(ctx, username)
		return existing, false, err
	}
	if err != nil {
		return nil, false, err
	}
	return created, true, nil
}

func (s *Service) createUser(ctx context.Context, in RegisterInput) (*db.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return s.repo.CreateUser(ctx, db.CreateUserInput{
		Username:     in.Username,
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(in.FullName),
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		Role:         in.Role,
	})
}

func (s *Service) issue(ctx context.Context, user *db.User, userAgent, ipAddress string) (*AuthTokens, error) {
	expiresAt := s.now().Add(s.refreshTTL)
	session, err := s.repo.CreateSession(ctx, user.ID, hashToken(uuid.NewString()), userAgent, ipAddress, expiresAt)
	if err != nil {
		return nil, err
	}

	accessToken, err := s.jwt.Mint(user.ID, session.ID, user.Role, TokenAccess, s.accessTTL)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.jwt.Mint(user.ID, session.ID, user.Role, TokenRefresh, s.refreshTTL)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateSessionRefreshHash(ctx, session.ID, hashToken(refreshToken)); err != nil {
		return nil, err
	}
	return &AuthTokens{AccessToken: accessToken, RefreshToken: refreshToken, SessionID: session.ID, User: user}, nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func ClientIP(r *http.Request) string {
	xff := strings.TrimSpace(r.Header.Get("X-Forwarded-For"))
	if xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil {
		return host
	}
	return r.RemoteAddr
}
