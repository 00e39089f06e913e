package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	borrowerdomain "github.com/washa/backend/internal/domain/borrower"
)

type BorrowerService interface {
	Create(ctx context.Context, in borrowerdomain.CreateInput) (*borrowerdomain.Entity, error)
	Get(ctx context.Context, id string) (*borrowerdomain.Entity, error)
	Search(ctx context.Context, phone, name string) ([]borrowerdomain.Entity, error)
	List(ctx context.Context, page, limit int32) (*borrowerdomain.Page, error)
}

type BorrowerHandler struct {
	borrowerService BorrowerService
}

func NewBorrowerHandler(borrowerService BorrowerService) *BorrowerHandler {
	return &BorrowerHandler{borrowerService: borrowerService}
}

func (h *BorrowerHandler) Create(c *gin.Context) {
	var req borrowerdomain.CreateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	req.IsFromPaymentImport = false
	req.ImportDate = nil
	req.CreatedBy = currentUserID(c)

	item, err := h.borrowerService.Create(c.Request.Context(), req)
	if err != nil {
		writeError(c, err, "create_borrower_failed")
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *BorrowerHandler) Search(c *gin.Context) {
	items, err := h.borrowerService.Search(c.Request.Context(), c.Query("phone"), c.Query("name"))
	if err != nil {
		writeError(c, err, "search_borrowers_failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"borrowers": items})
}

func (h *BorrowerHandler) List(c *gin.Context) {
	page, err := h.borrowerService.List(c.Request.Context(), queryInt32(c, "page", 1), queryInt32(c, "limit", 10))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list_borrowers_failed"})
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *BorrowerHandler) Get(c *gin.Context) {
	item, err := h.borrowerService.Get(c.Request.Context(), strings.TrimSpace(c.Param("borrowerId")))
	if err != nil {
		writeError(c, err, "get_borrower_failed")
		return
	}
	c.JSON(http.StatusOK, item)
}
