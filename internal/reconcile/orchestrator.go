package reconcile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/shopspring/decimal"
	borrowerdomain "github.com/washa/backend/internal/domain/borrower"
	loandomain "github.com/washa/backend/internal/domain/loan"
)

const (
	SourceUpload  = "payment import"
	SourceStartup = "automatic import"
)

var (
	ErrStoreUnavailable = errors.New("store_unavailable")
	ErrInvalidPayload   = errors.New("invalid_payment_data")
)

type Readiness interface {
	IsReady() bool
}

type BorrowerResolver interface {
	Resolve(ctx context.Context, phone, fullName, actorID string) (*borrowerdomain.Resolution, error)
}

type LoanResolver interface {
	Resolve(ctx context.Context, b *borrowerdomain.Entity, observedTotal decimal.Decimal, actorID string) (*loandomain.Entity, bool, error)
}

type ImportCounter interface {
	CountImported(ctx context.Context) (int64, error)
}

type Options struct {
	Source  string
	ActorID string
}

type SweepOutcome struct {
	Ran             bool    `json:"ran"`
	Reason          string  `json:"reason,omitempty"`
	ExistingImports int64   `json:"existingImports"`
	Result          *Result `json:"results,omitempty"`
}

type Orchestrator struct {
	store     Readiness
	borrowers BorrowerResolver
	loans     LoanResolver
	ledger    *Ledger
	imports   ImportCounter
	logger    *slog.Logger
}

func NewOrchestrator(store Readiness, borrowers BorrowerResolver, loans LoanResolver, ledger *Ledger, imports ImportCounter, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		store:     store,
		borrowers: borrowers,
		loans:     loans,
		ledger:    ledger,
		imports:   imports,
		logger:    logger,
	}
}

// Run consolidates records by borrower and reconciles each group in turn.
// A failing group is reported in the result and the rest still run. Only
// an unreachable store fails the batch as a whole.
func (o *Orchestrator) Run(ctx context.Context, records []RawPayment, opts Options) (*Result, error) {
	if !o.store.IsReady() {
		return nil, ErrStoreUnavailable
	}
	ctx = context.WithoutCancel(ctx)
	opts = withDefaults(opts)

	groups, rejected := Consolidate(records)
	res := newResult()
	res.Errors = append(res.Errors, rejected...)
	for _, g := range groups {
		o.process(ctx, g, opts, res)
	}
	o.logSummary("consolidated", len(records), opts, res)
	return res, nil
}

// RunUngrouped reconciles records one by one in input order without
// merging records of the same borrower.
func (o *Orchestrator) RunUngrouped(ctx context.Context, records []RawPayment, opts Options) (*Result, error) {
	if !o.store.IsReady() {
		return nil, ErrStoreUnavailable
	}
	ctx = context.WithoutCancel(ctx)
	opts = withDefaults(opts)

	res := newResult()
	for _, rec := range records {
		switch {
		case rec.Problem != "":
			res.Errors = append(res.Errors, recordError(rec, rec.Problem))
		case rec.Key() == "":
			res.Errors = append(res.Errors, recordError(rec, reasonMissingIdentifier))
		default:
			o.process(ctx, asGroup(rec), opts, res)
		}
	}
	o.logSummary("ungrouped", len(records), opts, res)
	return res, nil
}

// StartupSweep imports the file at path once per store: it does nothing
// when any imported payment already exists or when the file is missing or
// empty.
func (o *Orchestrator) StartupSweep(ctx context.Context, path, actorID string) (*SweepOutcome, error) {
	if !o.store.IsReady() {
		return nil, ErrStoreUnavailable
	}
	existing, err := o.imports.CountImported(ctx)
	if err != nil {
		return nil, fmt.Errorf("count imported payments: %w", err)
	}
	if existing > 0 {
		o.logger.Info("startup import skipped", "reason", "already_imported", "existing", existing)
		return &SweepOutcome{Reason: "payments already imported", ExistingImports: existing}, nil
	}

	records, reason, err := readBatchFile(path)
	if err != nil {
		return nil, err
	}
	if reason != "" {
		o.logger.Info("startup import skipped", "reason", reason, "path", path)
		return &SweepOutcome{Reason: reason}, nil
	}

	res, err := o.Run(ctx, records, Options{Source: SourceStartup, ActorID: actorID})
	if err != nil {
		return nil, err
	}
	return &SweepOutcome{Ran: true, Result: res}, nil
}

// ImportFile runs the file at path regardless of earlier imports.
func (o *Orchestrator) ImportFile(ctx context.Context, path string, opts Options) (*Result, error) {
	records, reason, err := readBatchFile(path)
	if err != nil {
		return nil, err
	}
	if reason != "" {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPayload, reason)
	}
	return o.Run(ctx, records, opts)
}

func (o *Orchestrator) process(ctx context.Context, g Group, opts Options, res *Result) {
	if err := o.reconcileGroup(ctx, g, opts, res); err != nil {
		res.Errors = append(res.Errors, RecordError{User: g.FullName, Phone: g.Phone, Error: err.Error()})
		o.logger.Warn("reconcile group failed", "borrower", g.Key, "err", err)
	}
}

func (o *Orchestrator) reconcileGroup(ctx context.Context, g Group, opts Options, res *Result) error {
	resolved, err := o.borrowers.Resolve(ctx, g.Phone, g.FullName, opts.ActorID)
	if err != nil {
		return err
	}
	b := resolved.Borrower
	if resolved.IsNew() {
		res.NewUsers++
		res.NewUsersList = append(res.NewUsersList, NewUser{ID: b.ID, Name: b.FullName, Phone: b.Phone})
	} else {
		res.MatchedUsers++
	}

	loan, created, err := o.loans.Resolve(ctx, b, g.Total, opts.ActorID)
	if err != nil {
		return err
	}
	if created {
		o.logger.Debug("import loan created", "loan_id", loan.ID, "reference", loan.Reference, "borrower_id", b.ID)
	}

	display := g.FullName
	if display == "" {
		display = b.FullName
	}
	for _, tx := range g.Transactions {
		p, err := o.ledger.RecordTransaction(ctx, loan, tx, opts.ActorID)
		if err != nil {
			return err
		}
		res.Processed++
		res.ProcessedPayments = append(res.ProcessedPayments, ProcessedPayment{
			TransactionID:    tx.Reference,
			Borrower:         display,
			Amount:           tx.Amount,
			PaymentID:        p.ID,
			PaymentReference: p.Reference,
			LoanID:           loan.ID,
		})
	}

	_, err = o.ledger.ApplyBalance(ctx, loan, g.Total, opts.Source)
	return err
}

func (o *Orchestrator) logSummary(mode string, records int, opts Options, res *Result) {
	o.logger.Info("payment reconciliation finished",
		"mode", mode,
		"source", opts.Source,
		"records", records,
		"processed", res.Processed,
		"new_users", res.NewUsers,
		"matched_users", res.MatchedUsers,
		"errors", len(res.Errors),
	)
}

func withDefaults(opts Options) Options {
	if opts.Source == "" {
		opts.Source = SourceUpload
	}
	return opts
}

// readBatchFile returns a non-empty skip reason instead of an error when
// there is nothing to import.
func readBatchFile(path string) ([]RawPayment, string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, "startup file not found", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, "startup file empty", nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if len(items) == 0 {
		return nil, "startup file empty", nil
	}
	return DecodeBatch(items), "", nil
}
