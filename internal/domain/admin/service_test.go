package admin

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/washa/backend/internal/db"
)

type userRepoMock struct {
	items map[string]*db.User
}

func (m *userRepoMock) ListUsers(context.Context) ([]db.User, error) {
	out := make([]db.User, 0, len(m.items))
	for _, u := range m.items {
		out = append(out, *u)
	}
	return out, nil
}

func (m *userRepoMock) CountUsers(context.Context) (int64, error) {
	return int64(len(m.items)), nil
}

func (m *userRepoMock) GetUserByID(_ context.Context, userID string) (*db.User, error) {
	if u, ok := m.items[userID]; ok {
		return u, nil
	}
	return nil, db.ErrUserNotFound
}

func (m *userRepoMock) UpdateUserStatus(_ context.Context, userID, status string) error {
	m.items[userID].Status = status
	return nil
}

func (m *userRepoMock) UpdateUserRole(_ context.Context, userID, role string) error {
	m.items[userID].Role = role
	return nil
}

type auditRepoMock struct {
	logs []AuditLogInput
}

func (m *auditRepoMock) Log(_ context.Context, in AuditLogInput) error {
	m.logs = append(m.logs, in)
	return nil
}

func newMocks() (*userRepoMock, *auditRepoMock) {
	return &userRepoMock{items: map[string]*db.User{
		"admin-1": {ID: "admin-1", Role: db.RoleAdmin, Status: db.StatusActive},
		"user-1":  {ID: "user-1", Role: db.RoleLoanOfficer, Status: db.StatusActive},
	}}, &auditRepoMock{}
}

func TestUpdateUserStatusAudits(t *testing.T) {
	users, audit := newMocks()
	svc := NewService(users, audit)

	if err := svc.UpdateUserStatus(context.Background(), "admin-1", "user-1", " Inactive "); err != nil {
		t.Fatalf("update status error: %v", err)
	}
	if users.items["user-1"].Status != db.StatusInactive {
		t.Fatalf("status not updated: %s", users.items["user-1"].Status)
	}
	if len(audit.logs) != 1 || audit.logs[0].Action != "user_status_updated" || audit.logs[0].TargetID != "user-1" {
		t.Fatalf("unexpected audit logs: %+v", audit.logs)
	}
}

func TestUpdateUserRejectsSelfAndBadInput(t *testing.T) {
	users, audit := newMocks()
	svc := NewService(users, audit)
	ctx := context.Background()

	if err := svc.UpdateUserStatus(ctx, "admin-1", "admin-1", db.StatusInactive); !errors.Is(err, ErrSelfModification) {
		t.Fatalf("expected self modification error, got %v", err)
	}
	if err := svc.UpdateUserRole(ctx, "admin-1", "user-1", "overlord"); err == nil || err.Error() != "invalid_user_role" {
		t.Fatalf("expected invalid role, got %v", err)
	}
	if err := svc.UpdateUserStatus(ctx, "admin-1", "ghost", db.StatusActive); !errors.Is(err, db.ErrUserNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if len(audit.logs) != 0 {
		t.Fatalf("failed updates must not be audited: %+v", audit.logs)
	}
}

func TestUpdateUserRole(t *testing.T) {
	users, audit := newMocks()
	svc := NewService(users, audit)

	if err := svc.UpdateUserRole(context.Background(), "admin-1", "user-1", "customer"); err != nil {
		t.Fatalf("update role error: %v", err)
	}
	if users.items["user-1"].Role != db.RoleCustomer {
		t.Fatalf("role not updated")
	}
	if len(audit.logs) != 1 || audit.logs[0].Action != "user_role_updated" {
		t.Fatalf("unexpected audit logs: %+v", audit.logs)
	}
}

func TestRecordImportTrigger(t *testing.T) {
	users, audit := newMocks()
	svc := NewService(users, audit)

	svc.RecordImportTrigger(context.Background(), "admin-1", ImportTrigger{Ran: true, Processed: 3, Errors: 1})
	if len(audit.logs) != 1 || audit.logs[0].Action != "startup_import_triggered" {
		t.Fatalf("unexpected audit logs: %+v", audit.logs)
	}
	var payload ImportTrigger
	if err := json.Unmarshal(audit.logs[0].Payload, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if !payload.Ran || payload.Processed != 3 || payload.Errors != 1 {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}
