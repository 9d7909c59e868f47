package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"fulfillment/internal/application/checkout"
	app "fulfillment/internal/application/order"
	"fulfillment/internal/domain/account"
	"fulfillment/internal/domain/order"
	"fulfillment/internal/interfaces/http/middleware"
)

const headerIdempotencyKey = "Idempotency-Key"

type OrderHandler struct {
	svc      *app.Service
	checkout *checkout.Service
}

func NewOrderHandler(svc *app.Service, checkoutSvc *checkout.Service) *OrderHandler {
	return &OrderHandler{svc: svc, checkout: checkoutSvc}
}

type orderResponse struct {
	*order.Order
	Total decimal.Decimal `json:"total"`
}

func toOrderResponse(o *order.Order) orderResponse {
	return orderResponse{Order: o, Total: o.Total()}
}

type addItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"`
}

// PlaceOrder converts the caller's current cart into an order.
func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	id := middleware.IdentityFrom(c)
	if !id.CanActFor(id.AccountID) {
		writeError(c, account.ErrForbidden)
		return
	}

	var cmd checkout.PlaceOrderCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		badRequest(c, err)
		return
	}
	cmd.AccountID = id.AccountID
	cmd.IdempotencyKey = c.GetHeader(headerIdempotencyKey)

	o, err := h.checkout.PlaceOrder(c.Request.Context(), cmd)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toOrderResponse(o))
}

// ListOrders returns every order to admins and the caller's own orders to
// everyone else.
func (h *OrderHandler) ListOrders(c *gin.Context) {
	id := middleware.IdentityFrom(c)
	if !id.CanActFor(id.AccountID) {
		writeError(c, account.ErrForbidden)
		return
	}

	var (
		orders []*order.Order
		err    error
	)
	if id.IsAdmin {
		orders, err = h.svc.List(c.Request.Context())
	} else {
		orders, err = h.svc.ListByAccount(c.Request.Context(), id.AccountID)
	}
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResponse(o))
	}
	c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	o, ok := h.authorized(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(o))
}

func (h *OrderHandler) AddItem(c *gin.Context) {
	if _, ok := h.authorized(c); !ok {
		return
	}

	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	o, err := h.svc.AddLineItem(c.Request.Context(), c.Param("id"), req.ProductID, req.Quantity)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(o))
}

func (h *OrderHandler) Confirm(c *gin.Context) {
	h.respond(c, h.svc.Confirm)
}

func (h *OrderHandler) Ship(c *gin.Context) {
	h.respond(c, h.svc.Ship)
}

func (h *OrderHandler) Cancel(c *gin.Context) {
	if _, ok := h.authorized(c); !ok {
		return
	}
	h.respond(c, h.svc.Cancel)
}

func (h *OrderHandler) respond(c *gin.Context, op func(ctx context.Context, id string) (*order.Order, error)) {
	o, err := op(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(o))
}

// authorized loads the order named in the path and checks that the caller
// may act on it. It writes the error response itself.
func (h *OrderHandler) authorized(c *gin.Context) (*order.Order, bool) {
	o, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	if !middleware.IdentityFrom(c).CanActFor(o.AccountID) {
		writeError(c, account.ErrForbidden)
		return nil, false
	}
	return o, true
}
