package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	loandomain "github.com/washa/backend/internal/domain/loan"
	paymentdomain "github.com/washa/backend/internal/domain/payment"
)

type LoanService interface {
	Create(ctx context.Context, actorID string, in loandomain.CreateRequest) (*loandomain.Entity, error)
	List(ctx context.Context, filter loandomain.ListFilter) ([]loandomain.Entity, error)
	Get(ctx context.Context, loanID string) (*loandomain.Entity, error)
	ReduceBalance(ctx context.Context, loanID string, paid decimal.Decimal, source string) (*loandomain.BalanceChange, error)
	Disburse(ctx context.Context, loanID, method string) (*loandomain.Entity, error)
}

type LoanPaymentLister interface {
	ListByLoan(ctx context.Context, loanID string) ([]paymentdomain.View, error)
}

type LoanHandler struct {
	loanService LoanService
	payments    LoanPaymentLister
}

func NewLoanHandler(loanService LoanService, payments LoanPaymentLister) *LoanHandler {
	return &LoanHandler{loanService: loanService, payments: payments}
}

func (h *LoanHandler) Create(c *gin.Context) {
	var req loandomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	item, err := h.loanService.Create(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		writeError(c, err, "create_loan_failed")
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *LoanHandler) List(c *gin.Context) {
	var statuses []string
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
				statuses = append(statuses, s)
			}
		}
	}
	items, err := h.loanService.List(c.Request.Context(), loandomain.ListFilter{
		BorrowerID: strings.TrimSpace(c.Query("borrowerId")),
		Statuses:   statuses,
		Limit:      queryInt32(c, "limit", 50),
		Offset:     queryInt32(c, "offset", 0),
	})
	if err != nil {
		writeError(c, err, "list_loans_failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"loans": items})
}

func (h *LoanHandler) Get(c *gin.Context) {
	item, err := h.loanService.Get(c.Request.Context(), strings.TrimSpace(c.Param("loanId")))
	if err != nil {
		writeError(c, err, "get_loan_failed")
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *LoanHandler) ReduceBalance(c *gin.Context) {
	var req struct {
		PaidAmount decimal.Decimal `json:"paidAmount"`
		Source     string          `json:"source"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	change, err := h.loanService.ReduceBalance(c.Request.Context(), strings.TrimSpace(c.Param("loanId")), req.PaidAmount, req.Source)
	if err != nil {
		writeError(c, err, "reduce_balance_failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"message":         change.Note,
		"previousBalance": change.Previous,
		"newBalance":      change.New,
		"status":          change.Status,
	})
}

func (h *LoanHandler) Disburse(c *gin.Context) {
	var req struct {
		Method string `json:"method"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	item, err := h.loanService.Disburse(c.Request.Context(), strings.TrimSpace(c.Param("loanId")), req.Method)
	if err != nil {
		writeError(c, err, "disburse_failed")
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *LoanHandler) ListPayments(c *gin.Context) {
	loanID := strings.TrimSpace(c.Param("loanId"))
	if _, err := h.loanService.Get(c.Request.Context(), loanID); err != nil {
		writeError(c, err, "get_loan_failed")
		return
	}
	items, err := h.payments.ListByLoan(c.Request.Context(), loanID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list_payments_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": items})
}
