package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	admindomain "github.com/washa/backend/internal/domain/admin"
	paymentdomain "github.com/washa/backend/internal/domain/payment"
	"github.com/washa/backend/internal/reconcile"
)

const maxCSVUploadBytes = 5 << 20

type PaymentService interface {
	Record(ctx context.Context, actorID string, in paymentdomain.RecordRequest) (*paymentdomain.Entity, error)
	List(ctx context.Context, f paymentdomain.ListFilter, page int32) (*paymentdomain.Page, error)
}

type Reconciler interface {
	Run(ctx context.Context, records []reconcile.RawPayment, opts reconcile.Options) (*reconcile.Result, error)
	RunUngrouped(ctx context.Context, records []reconcile.RawPayment, opts reconcile.Options) (*reconcile.Result, error)
	StartupSweep(ctx context.Context, path, actorID string) (*reconcile.SweepOutcome, error)
}

type ImportAuditor interface {
	RecordImportTrigger(ctx context.Context, adminUserID string, in admindomain.ImportTrigger)
}

type PaymentHandler struct {
	paymentService PaymentService
	reconciler     Reconciler
	auditor        ImportAuditor
	startupPath    string
}

func NewPaymentHandler(paymentService PaymentService, reconciler Reconciler, auditor ImportAuditor, startupPath string) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		reconciler:     reconciler,
		auditor:        auditor,
		startupPath:    startupPath,
	}
}

func (h *PaymentHandler) Create(c *gin.Context) {
	var req paymentdomain.RecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	item, err := h.paymentService.Record(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		writeError(c, err, "record_payment_failed")
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *PaymentHandler) List(c *gin.Context) {
	page, err := h.paymentService.List(c.Request.Context(), paymentdomain.ListFilter{
		Status: strings.ToLower(strings.TrimSpace(c.Query("status"))),
		Search: strings.TrimSpace(c.Query("search")),
		Limit:  queryInt32(c, "limit", 10),
	}, queryInt32(c, "page", 1))
	if err != nil {
		writeError(c, err, "list_payments_failed")
		return
	}
	c.JSON(http.StatusOK, page)
}

type processJSONRequest struct {
	PaymentData []json.RawMessage `json:"paymentData"`
	Consolidate *bool             `json:"consolidate"`
}

func (h *PaymentHandler) ProcessJSON(c *gin.Context) {
	var req processJSONRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.PaymentData == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": reconcile.ErrInvalidPayload.Error()})
		return
	}

	records := reconcile.DecodeBatch(req.PaymentData)
	opts := reconcile.Options{Source: reconcile.SourceUpload, ActorID: currentUserID(c)}

	var (
		result *reconcile.Result
		err    error
	)
	if req.Consolidate != nil && !*req.Consolidate {
		result, err = h.reconciler.RunUngrouped(c.Request.Context(), records, opts)
	} else {
		result, err = h.reconciler.Run(c.Request.Context(), records, opts)
	}
	if err != nil {
		writeError(c, err, "payment_processing_failed")
		return
	}
	writeProcessed(c, result)
}

func (h *PaymentHandler) ProcessCSV(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_file"})
		return
	}
	if file.Size > maxCSVUploadBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file_too_large"})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_file"})
		return
	}
	defer src.Close()

	records, err := reconcile.DecodeCSV(src)
	if err != nil {
		if errors.Is(err, reconcile.ErrInvalidCSV) {
			c.JSON(http.StatusBadRequest, gin.H{"error": reconcile.ErrInvalidCSV.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_file"})
		return
	}

	result, err := h.reconciler.Run(c.Request.Context(), records, reconcile.Options{
		Source:  reconcile.SourceUpload,
		ActorID: currentUserID(c),
	})
	if err != nil {
		writeError(c, err, "payment_processing_failed")
		return
	}
	writeProcessed(c, result)
}

func (h *PaymentHandler) ProcessStartup(c *gin.Context) {
	adminID := currentUserID(c)
	outcome, err := h.reconciler.StartupSweep(c.Request.Context(), h.startupPath, adminID)
	if err != nil {
		if errors.Is(err, reconcile.ErrInvalidPayload) {
			c.JSON(http.StatusBadRequest, gin.H{"error": reconcile.ErrInvalidPayload.Error()})
			return
		}
		writeError(c, err, "startup_import_failed")
		return
	}

	trigger := admindomain.ImportTrigger{Ran: outcome.Ran, Reason: outcome.Reason}
	if outcome.Result != nil {
		trigger.Processed = outcome.Result.Processed
		trigger.Errors = len(outcome.Result.Errors)
	}
	if h.auditor != nil {
		h.auditor.RecordImportTrigger(c.Request.Context(), adminID, trigger)
	}
	c.JSON(http.StatusOK, outcome)
}

func writeProcessed(c *gin.Context, result *reconcile.Result) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Payment processing completed",
		"results": result,
	})
}
