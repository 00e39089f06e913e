package postgres

import (
	admindomain "github.com/washa/backend/internal/domain/admin"
	borrowerdomain "github.com/washa/backend/internal/domain/borrower"
	loandomain "github.com/washa/backend/internal/domain/loan"
	paymentdomain "github.com/washa/backend/internal/domain/payment"
	"github.com/washa/backend/internal/reconcile"
	"github.com/washa/backend/internal/ws"
)

var (
	_ borrowerdomain.Repository   = (*BorrowerRepository)(nil)
	_ loandomain.Repository       = (*LoanRepository)(nil)
	_ paymentdomain.Repository    = (*PaymentRepository)(nil)
	_ admindomain.AuditRepository = (*AuditRepository)(nil)
	_ reconcile.PaymentWriter     = (*PaymentRepository)(nil)
	_ reconcile.BalanceWriter     = (*LoanRepository)(nil)
	_ reconcile.ImportCounter     = (*PaymentRepository)(nil)
	_ ws.RealtimeRepository       = (*WSRepository)(nil)
)
