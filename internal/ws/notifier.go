package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	paymentdomain "github.com/washa/backend/internal/domain/payment"
)

type RealtimeRepository interface {
	ListPaymentsSince(ctx context.Context, lastSeq int64, limit int32) ([]paymentdomain.View, error)
	LatestPaymentSeq(ctx context.Context) (int64, error)
}

// Notifier turns newly written payments into websocket events. It starts
// at the current tail, so history is never replayed.
type Notifier struct {
	repo         RealtimeRepository
	hub          *Hub
	pollInterval time.Duration
	logger       *slog.Logger
	lastSeq      int64
}

func NewNotifier(repo RealtimeRepository, hub *Hub, pollInterval time.Duration, logger *slog.Logger) *Notifier {
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{repo: repo, hub: hub, pollInterval: pollInterval, logger: logger, lastSeq: -1}
}

// Run polls until ctx ends. Poll errors are logged and retried on the
// next tick; the database may come and go underneath.
func (n *Notifier) Run(ctx context.Context) error {
	ticker := time.NewTicker(n.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := n.tick(ctx); err != nil && ctx.Err() == nil {
				n.logger.Warn("realtime poll failed", "err", err)
			}
		}
	}
}

func (n *Notifier) tick(ctx context.Context) error {
	if n.lastSeq < 0 {
		seq, err := n.repo.LatestPaymentSeq(ctx)
		if err != nil {
			return err
		}
		n.lastSeq = seq
		return nil
	}

	items, err := n.repo.ListPaymentsSince(ctx, n.lastSeq, 100)
	if err != nil {
		return err
	}
	imported := 0
	for _, p := range items {
		if p.Seq > n.lastSeq {
			n.lastSeq = p.Seq
		}
		payload, _ := json.Marshal(map[string]any{
			"event": "payment_recorded",
			"data": map[string]any{
				"paymentId":     p.ID,
				"reference":     p.Reference,
				"loanId":        p.LoanID,
				"loanReference": p.LoanReference,
				"borrowerId":    p.BorrowerID,
				"borrowerName":  p.BorrowerName,
				"amount":        p.Amount.String(),
				"receiptNumber": p.ReceiptNumber,
				"isFromImport":  p.IsFromImport,
				"paymentDate":   p.PaymentDate.UTC().Format(time.RFC3339),
			},
		})
		n.hub.Publish(LoanPaymentsTopic(p.LoanID), payload)
		if p.IsFromImport {
			imported++
		}
	}

	if imported > 0 {
		payload, _ := json.Marshal(map[string]any{
			"event": "import_progress",
			"data": map[string]any{
				"payments": imported,
				"lastSeq":  n.lastSeq,
			},
		})
		n.hub.Publish(ChannelImports, payload)
	}
	return nil
}
