package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/washa/backend/internal/db"
	admindomain "github.com/washa/backend/internal/domain/admin"
	borrowerdomain "github.com/washa/backend/internal/domain/borrower"
	loandomain "github.com/washa/backend/internal/domain/loan"
	paymentdomain "github.com/washa/backend/internal/domain/payment"
	"github.com/washa/backend/internal/http/middleware"
	"github.com/washa/backend/internal/reconcile"
)

func currentUserID(c *gin.Context) string {
	return c.GetString(middleware.ContextUserID)
}

func queryInt32(c *gin.Context, key string, fallback int32) int32 {
	v, err := strconv.ParseInt(strings.TrimSpace(c.Query(key)), 10, 32)
	if err != nil {
		return fallback
	}
	return int32(v)
}

// notFound reports whether err is one of the domain not-found errors.
func notFound(err error) bool {
	return errors.Is(err, borrowerdomain.ErrNotFound) ||
		errors.Is(err, loandomain.ErrNotFound) ||
		errors.Is(err, paymentdomain.ErrNotFound) ||
		errors.Is(err, db.ErrUserNotFound)
}

// writeError maps err to a status and writes err's code. Codes that are
// not known domain errors become fallback with a 500.
func writeError(c *gin.Context, err error, fallback string) {
	switch {
	case notFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, reconcile.ErrStoreUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": reconcile.ErrStoreUnavailable.Error()})
	case errors.Is(err, loandomain.ErrNotDisbursable), errors.Is(err, db.ErrUserExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, admindomain.ErrSelfModification):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case isInputError(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

// Services reject bad input with bare snake_case codes such as
// invalid_loan_input or missing_search_term.
func isInputError(err error) bool {
	msg := err.Error()
	if strings.ContainsAny(msg, " :") {
		return false
	}
	return strings.HasPrefix(msg, "invalid_") || strings.HasPrefix(msg, "missing_")
}
