package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lumberhaus/storefront-backend/internal/app/service"
	apperrors "github.com/lumberhaus/storefront-backend/internal/errors"
	"github.com/lumberhaus/storefront-backend/internal/middleware"
)

type OrderController struct {
	orderService service.OrderService
}

func NewOrderController(orderService service.OrderService) *OrderController {
	return &OrderController{orderService: orderService}
}

type CheckoutRequest struct {
	ShippingAddress string `json:"shippingAddress"`
}

// Checkout turns the saved cart into an order.
// POST /api/v1/orders
func (ctrl *OrderController) Checkout(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	var req CheckoutRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			log.Warn("Invalid checkout request", map[string]interface{}{
				"user_id": userID,
				"error":   err.Error(),
			})
			apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "body: request body must be a JSON object")
			return
		}
	}

	order, err := ctrl.orderService.Checkout(c.Request.Context(), userID, service.CheckoutInput{
		ShippingAddress: req.ShippingAddress,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCartEmpty):
			apperrors.BadRequest(c, apperrors.CartEmpty, "Cart is empty")
		case errors.Is(err, service.ErrProductNotForSale):
			apperrors.BadRequest(c, apperrors.ValidationInvalidInput, err.Error())
		case errors.Is(err, service.ErrProductNotFound):
			apperrors.NotFound(c, apperrors.ProductNotFound, "A product in the cart no longer exists")
		case errors.Is(err, service.ErrUserNotFound):
			apperrors.Unauthorized(c, "Account no longer exists")
		default:
			respondServiceError(c, err, "order")
		}
		return
	}

	log.Info("Order placed", map[string]interface{}{
		"user_id":  userID,
		"order_id": order.ID,
	})
	c.JSON(http.StatusCreated, gin.H{"success": true, "order": order})
}

// ListMyOrders GET /api/v1/orders
func (ctrl *OrderController) ListMyOrders(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	orders, err := ctrl.orderService.ListMyOrders(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err, "orders")
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// GetMyOrder GET /api/v1/orders/:id
func (ctrl *OrderController) GetMyOrder(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	id, ok := paramUint(c, "id")
	if !ok {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "id: order id must be a positive integer")
		return
	}

	order, err := ctrl.orderService.GetMyOrder(c.Request.Context(), userID, id)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			apperrors.NotFound(c, apperrors.OrderNotFound, "Order not found")
			return
		}
		respondServiceError(c, err, "order")
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}
