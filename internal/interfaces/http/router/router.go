package router

import (
	"github.com/gin-gonic/gin"

	"fulfillment/internal/interfaces/http/handler"
	"fulfillment/internal/interfaces/http/middleware"
	"fulfillment/pkg/logger"
)

type Handlers struct {
	Orders   *handler.OrderHandler
	Carts    *handler.CartHandler
	Products *handler.ProductHandler
	Health   *handler.HealthHandler
}

func RegisterRoutes(r *gin.Engine, log logger.Logger, h Handlers) {
	r.Use(middleware.RequestID(), middleware.Logging(log))

	r.GET("/health", h.Health.Health)

	api := r.Group("/api/v1", middleware.Identity())
	admin := middleware.RequireAdmin()
	{
		api.GET("/products", h.Products.ListProducts)
		api.GET("/products/:id", h.Products.GetProduct)
		api.POST("/products", admin, h.Products.CreateProduct)
		api.PUT("/products/:id", admin, h.Products.UpdateProduct)
		api.DELETE("/products/:id", admin, h.Products.DeleteProduct)
		api.POST("/products/:id/restock", admin, h.Products.Restock)

		api.GET("/carts/:accountId", h.Carts.GetCart)
		api.PUT("/carts/:accountId/:productId", h.Carts.PutItem)
		api.DELETE("/carts/:accountId/:productId", h.Carts.RemoveItem)
		api.DELETE("/carts/:accountId", h.Carts.ClearCart)

		api.POST("/orders", h.Orders.PlaceOrder)
		api.GET("/orders", h.Orders.ListOrders)
		api.GET("/orders/:id", h.Orders.GetOrder)
		api.POST("/orders/:id/items", h.Orders.AddItem)
		api.POST("/orders/:id/confirm", admin, h.Orders.Confirm)
		api.POST("/orders/:id/ship", admin, h.Orders.Ship)
		api.POST("/orders/:id/cancel", h.Orders.Cancel)
	}
}
