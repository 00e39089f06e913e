package reconcile_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	borrowerdomain "github.com/washa/backend/internal/domain/borrower"
	loandomain "github.com/washa/backend/internal/domain/loan"
	paymentdomain "github.com/washa/backend/internal/domain/payment"
	"github.com/washa/backend/internal/reconcile"
	"github.com/washa/backend/internal/repository/memory"
)

type harness struct {
	store *memory.Store
	orch  *reconcile.Orchestrator
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := memory.New()
	return &harness{store: store, orch: newOrchestrator(store, store, borrowerdomain.NewResolver(store.Borrowers()))}
}

func newOrchestrator(store *memory.Store, ready reconcile.Readiness, borrowers reconcile.BorrowerResolver) *reconcile.Orchestrator {
	return reconcile.NewOrchestrator(
		ready,
		borrowers,
		loandomain.NewResolver(store.Loans(), loandomain.DefaultImportPolicy()),
		reconcile.NewLedger(store.Payments(), store.Loans()),
		store.Payments(),
		nil,
	)
}

func decode(t *testing.T, payload string) []reconcile.RawPayment {
	t.Helper()
	var items []json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(payload), &items))
	return reconcile.DecodeBatch(items)
}

func (h *harness) payments(t *testing.T) []paymentdomain.View {
	t.Helper()
	items, _, err := h.store.Payments().List(context.Background(), paymentdomain.ListFilter{Limit: 1000})
	require.NoError(t, err)
	return items
}

func (h *harness) loans(t *testing.T) []loandomain.Entity {
	t.Helper()
	items, err := h.store.Loans().List(context.Background(), loandomain.ListFilter{Limit: 1000})
	require.NoError(t, err)
	return items
}

const janePayload = `[{
	"phone_number": "0712345678",
	"full_name": "Jane A",
	"total_amount": "100",
	"transactions": [
		{"amount": 60, "transaction_id": "T1"},
		{"amount": 40, "transaction_id": "T2"}
	]
}]`

func TestRunCreatesBorrowerLoanAndPayments(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	res, err := h.orch.Run(ctx, decode(t, janePayload), reconcile.Options{})
	require.NoError(t, err)

	assert.Empty(t, res.Errors)
	assert.Equal(t, 2, res.Processed)
	assert.Equal(t, 1, res.NewUsers)
	assert.Equal(t, 0, res.MatchedUsers)
	require.Len(t, res.NewUsersList, 1)
	assert.Equal(t, "Jane A", res.NewUsersList[0].Name)
	assert.Equal(t, "0712345678", res.NewUsersList[0].Phone)

	borrowers, err := h.store.Borrowers().List(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, borrowers, 1)
	assert.True(t, borrowers[0].IsFromPaymentImport)

	loans := h.loans(t)
	require.Len(t, loans, 1)
	assert.True(t, loans[0].Amount.Equal(decimal.NewFromInt(100)), "balance %s", loans[0].Amount)
	assert.Equal(t, loandomain.StatusActive, loans[0].Status)
	assert.Equal(t, loandomain.SourcePaymentImport, loans[0].Source)
	assert.Contains(t, loans[0].Notes, "Balance reduced from 200 to 100")

	payments := h.payments(t)
	require.Len(t, payments, 2)
	receipts := []string{payments[0].ReceiptNumber, payments[1].ReceiptNumber}
	assert.ElementsMatch(t, []string{"T1", "T2"}, receipts)
	for _, p := range payments {
		assert.True(t, p.IsFromImport)
		assert.Equal(t, paymentdomain.MethodMobileMoney, p.Method)
		assert.Equal(t, loans[0].ID, p.LoanID)
	}
}

func TestRunRejectsRecordsWithoutIdentifier(t *testing.T) {
	h := newHarness(t)

	res, err := h.orch.Run(context.Background(), decode(t, `[
		{"total_amount": 50, "transactions": [{"amount": 50, "transaction_id": "X1"}]},
		{"phone_number": "0700000001", "total_amount": 10, "transactions": [{"amount": 10, "transaction_id": "Y1"}]}
	]`), reconcile.Options{})
	require.NoError(t, err)

	require.Len(t, res.Errors, 1)
	assert.Equal(t, "missing identifier", res.Errors[0].Error)
	require.NotNil(t, res.Errors[0].Index)
	assert.Equal(t, 0, *res.Errors[0].Index)

	assert.Equal(t, 1, res.Processed)
	for _, p := range res.ProcessedPayments {
		assert.NotEqual(t, "X1", p.TransactionID)
	}
	assert.Len(t, h.payments(t), 1)
}

func TestRunMatchesExistingBorrowerByPhone(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	existing, err := h.store.Borrowers().Create(ctx, borrowerdomain.CreateInput{FullName: "Jane Existing", Phone: "0712345678"})
	require.NoError(t, err)
	_, err = h.store.Borrowers().Create(ctx, borrowerdomain.CreateInput{FullName: "Someone Else", Phone: "0799999999"})
	require.NoError(t, err)

	res, err := h.orch.Run(ctx, decode(t, janePayload), reconcile.Options{})
	require.NoError(t, err)

	assert.Equal(t, 0, res.NewUsers)
	assert.Equal(t, 1, res.MatchedUsers)
	loans := h.loans(t)
	require.Len(t, loans, 1)
	assert.Equal(t, existing.ID, loans[0].BorrowerID)
}

func TestRunUsesFirstOpenLoan(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	b, err := h.store.Borrowers().Create(ctx, borrowerdomain.CreateInput{FullName: "Jane A", Phone: "0712345678"})
	require.NoError(t, err)
	closed, err := h.store.Loans().Create(ctx, loandomain.CreateInput{Reference: "L-AAAA", BorrowerID: b.ID, Amount: decimal.Zero, Status: loandomain.StatusCompleted})
	require.NoError(t, err)
	open, err := h.store.Loans().Create(ctx, loandomain.CreateInput{Reference: "L-BBBB", BorrowerID: b.ID, Amount: decimal.NewFromInt(500), Status: loandomain.StatusApproved})
	require.NoError(t, err)

	res, err := h.orch.Run(ctx, decode(t, janePayload), reconcile.Options{})
	require.NoError(t, err)
	require.Empty(t, res.Errors)

	for _, p := range res.ProcessedPayments {
		assert.Equal(t, open.ID, p.LoanID)
	}
	got, err := h.store.Loans().GetByID(ctx, open.ID)
	require.NoError(t, err)
	assert.True(t, got.Amount.Equal(decimal.NewFromInt(400)))
	assert.Len(t, h.loans(t), 2)

	untouched, err := h.store.Loans().GetByID(ctx, closed.ID)
	require.NoError(t, err)
	assert.Equal(t, loandomain.StatusCompleted, untouched.Status)
}

func TestRunCompletesLoanAtZero(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	b, err := h.store.Borrowers().Create(ctx, borrowerdomain.CreateInput{FullName: "Jane A", Phone: "0712345678"})
	require.NoError(t, err)
	l, err := h.store.Loans().Create(ctx, loandomain.CreateInput{Reference: "L-CCCC", BorrowerID: b.ID, Amount: decimal.NewFromInt(30), Status: loandomain.StatusActive})
	require.NoError(t, err)

	_, err = h.orch.Run(ctx, decode(t, janePayload), reconcile.Options{})
	require.NoError(t, err)

	got, err := h.store.Loans().GetByID(ctx, l.ID)
	require.NoError(t, err)
	assert.True(t, got.Amount.IsZero())
	assert.Equal(t, loandomain.StatusCompleted, got.Status)
}

type failingResolver struct {
	next  reconcile.BorrowerResolver
	phone string
}

func (f failingResolver) Resolve(ctx context.Context, phone, fullName, actorID string) (*borrowerdomain.Resolution, error) {
	if phone == f.phone {
		return nil, borrowerdomain.ErrCreateFailed
	}
	return f.next.Resolve(ctx, phone, fullName, actorID)
}

func TestRunContinuesAfterGroupFailure(t *testing.T) {
	store := memory.New()
	orch := newOrchestrator(store, store, failingResolver{next: borrowerdomain.NewResolver(store.Borrowers()), phone: "0700000001"})

	records := decode(t, `[
		{"phone_number": "0700000001", "full_name": "Broken", "total_amount": 10, "transactions": [{"amount": 10, "transaction_id": "B1"}]},
		{"phone_number": "0700000002", "full_name": "Fine", "total_amount": 20, "transactions": [{"amount": 20, "transaction_id": "F1"}]}
	]`)
	res, err := orch.Run(context.Background(), records, reconcile.Options{})
	require.NoError(t, err)

	require.Len(t, res.Errors, 1)
	assert.Equal(t, "Broken", res.Errors[0].User)
	assert.Equal(t, "0700000001", res.Errors[0].Phone)
	assert.Nil(t, res.Errors[0].Index)
	assert.Equal(t, 1, res.Processed)
	assert.Equal(t, 1, res.NewUsers)
}

type notReady struct{}

func (notReady) IsReady() bool { return false }

func TestRunFailsWhenStoreUnavailable(t *testing.T) {
	store := memory.New()
	orch := newOrchestrator(store, notReady{}, borrowerdomain.NewResolver(store.Borrowers()))

	_, err := orch.Run(context.Background(), decode(t, janePayload), reconcile.Options{})
	require.ErrorIs(t, err, reconcile.ErrStoreUnavailable)
	_, err = orch.RunUngrouped(context.Background(), decode(t, janePayload), reconcile.Options{})
	require.ErrorIs(t, err, reconcile.ErrStoreUnavailable)

	n, err := store.Payments().Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRunUngroupedAppliesEachRecordSeparately(t *testing.T) {
	h := newHarness(t)

	res, err := h.orch.RunUngrouped(context.Background(), decode(t, `[
		{"phoneNumber": "0711111111", "fullName": "Ann", "totalAmount": 30, "transactions": [{"amount": 30, "reference": "A1"}]},
		{"phoneNumber": "0711111111", "fullName": "Ann", "totalAmount": 20, "transactions": [{"amount": 20, "reference": "A2"}]}
	]`), reconcile.Options{})
	require.NoError(t, err)
	require.Empty(t, res.Errors)

	assert.Equal(t, 1, res.NewUsers)
	assert.Equal(t, 1, res.MatchedUsers)
	assert.Equal(t, 2, res.Processed)

	loans := h.loans(t)
	require.Len(t, loans, 1)
	// 60 estimated from the first record, less 30, less 20.
	assert.True(t, loans[0].Amount.Equal(decimal.NewFromInt(10)), "balance %s", loans[0].Amount)
}

func TestRunCancelledContextStillCompletes(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := h.orch.Run(ctx, decode(t, janePayload), reconcile.Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Processed)
}

func TestRunTreatsExponentAmountsAsPlainNumbers(t *testing.T) {
	h := newHarness(t)
	records := decode(t, `[
		{"phone_number": "0711111111", "full_name": "Exp", "total_amount": "1e900000000", "transactions": [{"amount": 1e900000000, "transaction_id": "E1"}]},
		{"phone_number": "0711111111", "full_name": "Exp", "total_amount": "5", "transactions": [{"amount": "5", "transaction_id": "E2"}]}
	]`)

	done := make(chan *reconcile.Result, 1)
	go func() {
		res, err := h.orch.Run(context.Background(), records, reconcile.Options{})
		assert.NoError(t, err)
		done <- res
	}()

	var res *reconcile.Result
	select {
	case res = <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("batch with an exponent amount did not finish")
	}
	require.NotNil(t, res)
	assert.Empty(t, res.Errors)
	assert.Equal(t, 2, res.Processed)

	loans := h.loans(t)
	require.Len(t, loans, 1)
	// Group total 1 + 5 doubled to 12, less 6.
	assert.True(t, loans[0].Amount.Equal(decimal.NewFromInt(6)), "balance %s", loans[0].Amount)
}

func TestRunRoundsAmountsToCents(t *testing.T) {
	h := newHarness(t)
	res, err := h.orch.Run(context.Background(), decode(t, `[
		{"phone_number": "0733333333", "full_name": "Cents", "total_amount": "99.999", "transactions": [
			{"amount": "33.333", "transaction_id": "C1"},
			{"amount": "33.333", "transaction_id": "C2"},
			{"amount": "33.333", "transaction_id": "C3"}
		]}
	]`), reconcile.Options{})
	require.NoError(t, err)
	require.Empty(t, res.Errors)

	for _, p := range h.payments(t) {
		assert.True(t, p.Amount.Equal(decimal.RequireFromString("33.33")), "payment %s", p.Amount)
	}
	loans := h.loans(t)
	require.Len(t, loans, 1)
	// 99.999 is stored as 100.00, doubled to 200.00, less 100.00.
	assert.True(t, loans[0].Amount.Equal(decimal.NewFromInt(100)), "balance %s", loans[0].Amount)
}

func TestRunReportsUndecodableRecordWithIdentity(t *testing.T) {
	h := newHarness(t)
	res, err := h.orch.Run(context.Background(), decode(t, `[
		{"phone_number": "0722222222", "full_name": "Bad Tx", "transactions": "nope"}
	]`), reconcile.Options{})
	require.NoError(t, err)

	require.Len(t, res.Errors, 1)
	assert.Equal(t, "Bad Tx", res.Errors[0].User)
	assert.Equal(t, "0722222222", res.Errors[0].Phone)
	require.NotNil(t, res.Errors[0].Index)
	assert.Equal(t, 0, *res.Errors[0].Index)
	assert.Zero(t, res.Processed)
}

func writeBatch(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "payment.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestStartupSweepRunsOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	path := writeBatch(t, janePayload)

	first, err := h.orch.StartupSweep(ctx, path, "")
	require.NoError(t, err)
	require.True(t, first.Ran)
	assert.Equal(t, 2, first.Result.Processed)

	before, err := h.store.Payments().Count(ctx)
	require.NoError(t, err)

	second, err := h.orch.StartupSweep(ctx, path, "")
	require.NoError(t, err)
	assert.False(t, second.Ran)
	assert.Equal(t, int64(2), second.ExistingImports)

	after, err := h.store.Payments().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Len(t, h.loans(t), 1)
}

func TestStartupSweepMarksBalanceSource(t *testing.T) {
	h := newHarness(t)
	_, err := h.orch.StartupSweep(context.Background(), writeBatch(t, janePayload), "")
	require.NoError(t, err)

	loans := h.loans(t)
	require.Len(t, loans, 1)
	assert.Contains(t, loans[0].Notes, "processed from automatic import")
}

func TestStartupSweepSkipsMissingOrEmptyFile(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	out, err := h.orch.StartupSweep(ctx, filepath.Join(t.TempDir(), "absent.json"), "")
	require.NoError(t, err)
	assert.False(t, out.Ran)
	assert.Equal(t, "startup file not found", out.Reason)

	out, err = h.orch.StartupSweep(ctx, writeBatch(t, "  \n"), "")
	require.NoError(t, err)
	assert.False(t, out.Ran)
	assert.Equal(t, "startup file empty", out.Reason)

	out, err = h.orch.StartupSweep(ctx, writeBatch(t, "[]"), "")
	require.NoError(t, err)
	assert.False(t, out.Ran)
}

func TestStartupSweepRejectsMalformedFile(t *testing.T) {
	h := newHarness(t)
	_, err := h.orch.StartupSweep(context.Background(), writeBatch(t, "{not json"), "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, reconcile.ErrInvalidPayload))
}

func TestImportFileIgnoresEarlierImports(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	path := writeBatch(t, janePayload)

	_, err := h.orch.StartupSweep(ctx, path, "")
	require.NoError(t, err)
	res, err := h.orch.ImportFile(ctx, path, reconcile.Options{Source: reconcile.SourceStartup})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Processed)
	assert.Equal(t, 1, res.MatchedUsers)

	n, err := h.store.Payments().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}
