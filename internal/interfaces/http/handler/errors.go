package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"fulfillment/internal/application/checkout"
	"fulfillment/internal/domain/account"
	"fulfillment/internal/domain/cart"
	"fulfillment/internal/domain/catalog"
	"fulfillment/internal/domain/order"
	"fulfillment/internal/domain/repository"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, repository.ErrPersistence):
		return http.StatusInternalServerError
	case errors.Is(err, repository.ErrOrderNotFound),
		errors.Is(err, catalog.ErrUnknownProduct):
		return http.StatusNotFound
	case errors.Is(err, checkout.ErrInvalidCommand),
		errors.Is(err, catalog.ErrInvalidQuantity),
		errors.Is(err, catalog.ErrInvalidPrice),
		errors.Is(err, catalog.ErrMissingField),
		errors.Is(err, cart.ErrEmptyCart),
		errors.Is(err, cart.ErrCartConsumed):
		return http.StatusBadRequest
	case errors.Is(err, account.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, order.ErrInvalidTransition),
		errors.Is(err, catalog.ErrProductExists),
		errors.Is(err, catalog.ErrProductInUse):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps err to a status code. Internal failures are recorded on the
// gin context for the logging middleware and hidden from the caller.
func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
