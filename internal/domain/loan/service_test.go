package loan_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	borrowerdomain "github.com/washa/backend/internal/domain/borrower"
	loandomain "github.com/washa/backend/internal/domain/loan"
	"github.com/washa/backend/internal/ids"
	"github.com/washa/backend/internal/repository/memory"
)

func seedBorrower(t *testing.T, store *memory.Store) *borrowerdomain.Entity {
	t.Helper()
	b, err := store.Borrowers().Create(context.Background(), borrowerdomain.CreateInput{FullName: "Jane A", Phone: "0712345678"})
	require.NoError(t, err)
	return b
}

func TestResolverCreatesImportLoan(t *testing.T) {
	store := memory.New()
	b := seedBorrower(t, store)
	r := loandomain.NewResolver(store.Loans(), loandomain.DefaultImportPolicy())

	item, created, err := r.Resolve(context.Background(), b, decimal.NewFromInt(100), "admin-1")
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, item.Amount.Equal(decimal.NewFromInt(200)))
	assert.True(t, item.InterestRate.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, int32(30), item.TermDays)
	assert.Equal(t, loandomain.StatusActive, item.Status)
	assert.Equal(t, loandomain.SourcePaymentImport, item.Source)
	assert.True(t, ids.IsValid(item.Reference), "reference %q", item.Reference)
	require.NotNil(t, item.StartDate)
	require.NotNil(t, item.EndDate)
	assert.Equal(t, 30*24*time.Hour, item.EndDate.Sub(*item.StartDate))

	again, created, err := r.Resolve(context.Background(), b, decimal.NewFromInt(999), "admin-1")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, item.ID, again.ID)
}

func TestResolverUsesConfiguredFactor(t *testing.T) {
	store := memory.New()
	b := seedBorrower(t, store)
	r := loandomain.NewResolver(store.Loans(), loandomain.ImportPolicy{PrincipalFactor: decimal.RequireFromString("1.5"), TermDays: 14})

	item, _, err := r.Resolve(context.Background(), b, decimal.NewFromInt(100), "")
	require.NoError(t, err)
	assert.True(t, item.Amount.Equal(decimal.NewFromInt(150)))
	assert.Equal(t, int32(14), item.TermDays)
}

func TestResolverRequiresBorrower(t *testing.T) {
	r := loandomain.NewResolver(memory.New().Loans(), loandomain.DefaultImportPolicy())
	_, _, err := r.Resolve(context.Background(), nil, decimal.NewFromInt(1), "")
	require.Error(t, err)
}

func TestServiceCreateValidates(t *testing.T) {
	store := memory.New()
	svc := loandomain.NewService(store.Borrowers(), store.Loans())
	ctx := context.Background()

	_, err := svc.Create(ctx, "u1", loandomain.CreateRequest{BorrowerID: "missing", Amount: decimal.NewFromInt(10)})
	require.ErrorIs(t, err, borrowerdomain.ErrNotFound)

	b := seedBorrower(t, store)
	_, err = svc.Create(ctx, "u1", loandomain.CreateRequest{BorrowerID: b.ID})
	require.ErrorIs(t, err, loandomain.ErrInvalidInput)

	_, err = svc.Create(ctx, "u1", loandomain.CreateRequest{BorrowerID: b.ID, Amount: decimal.RequireFromString("1e900000000")})
	require.ErrorIs(t, err, loandomain.ErrInvalidInput)

	_, err = svc.Create(ctx, "u1", loandomain.CreateRequest{BorrowerID: b.ID, Amount: decimal.NewFromInt(10), InterestRate: decimal.NewFromInt(10000)})
	require.ErrorIs(t, err, loandomain.ErrInvalidInput)

	_, err = svc.Create(ctx, "u1", loandomain.CreateRequest{BorrowerID: b.ID, Amount: decimal.NewFromInt(10), Status: "lost"})
	require.ErrorIs(t, err, loandomain.ErrInvalidStatus)

	item, err := svc.Create(ctx, "u1", loandomain.CreateRequest{BorrowerID: b.ID, Amount: decimal.NewFromInt(500), InterestRate: decimal.NewFromInt(12)})
	require.NoError(t, err)
	assert.Equal(t, loandomain.StatusPending, item.Status)
	assert.Equal(t, loandomain.SourceSystem, item.Source)
	assert.Equal(t, "u1", item.CreatedBy)
}

func TestServiceReduceBalance(t *testing.T) {
	store := memory.New()
	svc := loandomain.NewService(store.Borrowers(), store.Loans())
	ctx := context.Background()
	b := seedBorrower(t, store)
	item, err := svc.Create(ctx, "", loandomain.CreateRequest{BorrowerID: b.ID, Amount: decimal.NewFromInt(100), Status: loandomain.StatusActive})
	require.NoError(t, err)

	_, err = svc.ReduceBalance(ctx, item.ID, decimal.Zero, "")
	require.ErrorIs(t, err, loandomain.ErrInvalidAmount)
	_, err = svc.ReduceBalance(ctx, item.ID, decimal.RequireFromString("1e900000000"), "")
	require.ErrorIs(t, err, loandomain.ErrInvalidAmount)
	_, err = svc.ReduceBalance(ctx, item.ID, decimal.RequireFromString("0.001"), "")
	require.ErrorIs(t, err, loandomain.ErrInvalidAmount)

	change, err := svc.ReduceBalance(ctx, item.ID, decimal.RequireFromString("40.004"), "")
	require.NoError(t, err)
	assert.True(t, change.New.Equal(decimal.NewFromInt(60)))
	assert.Contains(t, change.Note, loandomain.SourceManual)

	change, err = svc.ReduceBalance(ctx, item.ID, decimal.NewFromInt(100), "cash desk")
	require.NoError(t, err)
	assert.True(t, change.New.IsZero())
	assert.Equal(t, loandomain.StatusCompleted, change.Status)

	stored, err := svc.Get(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, loandomain.StatusCompleted, stored.Status)
	assert.Contains(t, stored.Notes, "processed from cash desk")
}

func TestServiceDisburse(t *testing.T) {
	store := memory.New()
	svc := loandomain.NewService(store.Borrowers(), store.Loans())
	ctx := context.Background()
	b := seedBorrower(t, store)
	item, err := svc.Create(ctx, "", loandomain.CreateRequest{BorrowerID: b.ID, Amount: decimal.NewFromInt(100), Status: loandomain.StatusApproved})
	require.NoError(t, err)

	_, err = svc.Disburse(ctx, item.ID, "carrier pigeon")
	require.ErrorIs(t, err, loandomain.ErrInvalidDisbursal)

	out, err := svc.Disburse(ctx, item.ID, "Mobile_Money")
	require.NoError(t, err)
	assert.Equal(t, loandomain.StatusActive, out.Status)
	assert.Equal(t, "mobile_money", out.DisbursementMethod)
	assert.True(t, ids.IsValid(out.DisbursementRef))
	require.NotNil(t, out.DisbursementDate)

	_, err = svc.Disburse(ctx, item.ID, "cash")
	assert.True(t, errors.Is(err, loandomain.ErrNotDisbursable))
}

func TestServiceListRejectsUnknownStatus(t *testing.T) {
	store := memory.New()
	svc := loandomain.NewService(store.Borrowers(), store.Loans())
	_, err := svc.List(context.Background(), loandomain.ListFilter{Statuses: []string{"active", "nope"}})
	require.ErrorIs(t, err, loandomain.ErrInvalidStatus)
}
