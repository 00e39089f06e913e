package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/washa/backend/internal/db"
)

var ErrSelfModification = errors.New("cannot_modify_self")

type UserRepository interface {
	ListUsers(ctx context.Context) ([]db.User, error)
	CountUsers(ctx context.Context) (int64, error)
	GetUserByID(ctx context.Context, userID string) (*db.User, error)
	UpdateUserStatus(ctx context.Context, userID, status string) error
	UpdateUserRole(ctx context.Context, userID, role string) error
}

type AuditRepository interface {
	Log(ctx context.Context, in AuditLogInput) error
}

type AuditLogInput struct {
	AdminUserID string
	Action      string
	TargetType  string
	TargetID    string
	Payload     []byte
}

// ImportTrigger summarizes a manually started startup import for the audit log.
type ImportTrigger struct {
	Ran       bool   `json:"ran"`
	Reason    string `json:"reason,omitempty"`
	Processed int    `json:"processed"`
	Errors    int    `json:"errors"`
}

type Service struct {
	userRepo  UserRepository
	auditRepo AuditRepository
}

func NewService(userRepo UserRepository, auditRepo AuditRepository) *Service {
	return &Service{userRepo: userRepo, auditRepo: auditRepo}
}

func (s *Service) ListUsers(ctx context.Context) ([]db.User, error) {
	return s.userRepo.ListUsers(ctx)
}

func (s *Service) CountUsers(ctx context.Context) (int64, error) {
	return s.userRepo.CountUsers(ctx)
}

func (s *Service) UpdateUserStatus(ctx context.Context, adminUserID, userID, status string) error {
	status = strings.ToLower(strings.TrimSpace(status))
	if status != db.StatusActive && status != db.StatusInactive {
		return fmt.Errorf("invalid_user_status")
	}
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("missing_user_id")
	}
	if userID == adminUserID {
		return ErrSelfModification
	}
	if _, err := s.userRepo.GetUserByID(ctx, userID); err != nil {
		return err
	}
	if err := s.userRepo.UpdateUserStatus(ctx, userID, status); err != nil {
		return err
	}
	s.audit(ctx, adminUserID, "user_status_updated", "user", userID, map[string]any{"status": status})
	return nil
}

func (s *Service) UpdateUserRole(ctx context.Context, adminUserID, userID, role string) error {
	role = strings.ToLower(strings.TrimSpace(role))
	if role != db.RoleAdmin && role != db.RoleLoanOfficer && role != db.RoleCustomer {
		return fmt.Errorf("invalid_user_role")
	}
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("missing_user_id")
	}
	if userID == adminUserID {
		return ErrSelfModification
	}
	if _, err := s.userRepo.GetUserByID(ctx, userID); err != nil {
		return err
	}
	if err := s.userRepo.UpdateUserRole(ctx, userID, role); err != nil {
		return err
	}
	s.audit(ctx, adminUserID, "user_role_updated", "user", userID, map[string]any{"role": role})
	return nil
}

func (s *Service) RecordImportTrigger(ctx context.Context, adminUserID string, in ImportTrigger) {
	s.audit(ctx, adminUserID, "startup_import_triggered", "import", "startup", in)
}

// Audit failures never fail the action being audited.
func (s *Service) audit(ctx context.Context, adminUserID, action, targetType, targetID string, payload any) {
	raw, _ := json.Marshal(payload)
	_ = s.auditRepo.Log(ctx, AuditLogInput{
		AdminUserID: adminUserID,
		Action:      action,
		TargetType:  targetType,
		TargetID:    targetID,
		Payload:     raw,
	})
}
