package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	app "fulfillment/internal/application/cart"
	"fulfillment/internal/domain/account"
	"fulfillment/internal/interfaces/http/middleware"
)

type CartHandler struct {
	svc *app.Service
}

func NewCartHandler(svc *app.Service) *CartHandler {
	return &CartHandler{svc: svc}
}

// putItemRequest has an optional quantity. Without it the line is
// incremented by one.
type putItemRequest struct {
	Quantity *int `json:"quantity"`
}

func (h *CartHandler) GetCart(c *gin.Context) {
	accountID, ok := h.account(c)
	if !ok {
		return
	}
	cart, err := h.svc.Get(c.Request.Context(), accountID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (h *CartHandler) PutItem(c *gin.Context) {
	accountID, ok := h.account(c)
	if !ok {
		return
	}

	var req putItemRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err)
		return
	}

	line, err := h.svc.PutItem(c.Request.Context(), accountID, c.Param("productId"), req.Quantity)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, line)
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	accountID, ok := h.account(c)
	if !ok {
		return
	}
	if err := h.svc.RemoveItem(c.Request.Context(), accountID, c.Param("productId")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CartHandler) ClearCart(c *gin.Context) {
	accountID, ok := h.account(c)
	if !ok {
		return
	}
	if err := h.svc.Clear(c.Request.Context(), accountID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CartHandler) account(c *gin.Context) (string, bool) {
	accountID := c.Param("accountId")
	if !middleware.IdentityFrom(c).CanActFor(accountID) {
		writeError(c, account.ErrForbidden)
		return "", false
	}
	return accountID, true
}
