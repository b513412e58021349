package controller

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lumberhaus/storefront-backend/internal/app/model"
	"github.com/lumberhaus/storefront-backend/internal/app/service"
	apperrors "github.com/lumberhaus/storefront-backend/internal/errors"
	"github.com/lumberhaus/storefront-backend/internal/middleware"
)

type AdminOrderController struct {
	orderService service.AdminOrderService
}

func NewAdminOrderController(orderService service.AdminOrderService) *AdminOrderController {
	return &AdminOrderController{orderService: orderService}
}

type BulkStatusRequest struct {
	OrderIDs []int64 `json:"orderIds"`
	Status   string  `json:"status"`
}

type UpdateOrderRequest struct {
	Status         *string `json:"status"`
	TrackingNumber *string `json:"trackingNumber"`
	PaymentStatus  *string `json:"paymentStatus"`
}

// BulkUpdateStatus sets one status on many orders at once.
// PATCH /api/v1/admin/orders/bulk
func (ctrl *AdminOrderController) BulkUpdateStatus(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req BulkStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid bulk status request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "orderIds: orderIds must be an array of positive integers and status a string")
		return
	}

	updated, err := ctrl.orderService.BulkUpdateStatus(c.Request.Context(), req.OrderIDs, req.Status)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			apperrors.NotFound(c, apperrors.OrderNotFound, missingOrdersMessage(err))
			return
		}
		respondServiceError(c, err, "order")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("Updated %d orders", updated),
	})
}

func missingOrdersMessage(err error) string {
	ids := strings.TrimPrefix(err.Error(), service.ErrOrderNotFound.Error())
	ids = strings.TrimPrefix(ids, ": ")
	if ids == "" {
		return "Order not found"
	}
	return "Orders not found: " + ids
}

// UpdateOrder patches status, tracking number or payment status.
// PATCH /api/v1/admin/orders/:id
func (ctrl *AdminOrderController) UpdateOrder(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "id: order id must be a positive integer")
		return
	}

	var req UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "body: request body must be a JSON object")
		return
	}

	var patch model.OrderPatch
	if req.Status != nil {
		s := model.OrderStatus(*req.Status)
		patch.Status = &s
	}
	if req.PaymentStatus != nil {
		ps := model.PaymentStatus(*req.PaymentStatus)
		patch.PaymentStatus = &ps
	}
	patch.TrackingNumber = req.TrackingNumber

	if err := ctrl.orderService.UpdateOrder(c.Request.Context(), id, patch); err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			apperrors.NotFound(c, apperrors.OrderNotFound, "Order not found")
			return
		}
		respondServiceError(c, err, "order")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetOrder GET /api/v1/admin/orders/:id
func (ctrl *AdminOrderController) GetOrder(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "id: order id must be a positive integer")
		return
	}

	order, err := ctrl.orderService.GetOrder(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			apperrors.NotFound(c, apperrors.OrderNotFound, "Order not found")
			return
		}
		respondServiceError(c, err, "order")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "order": order})
}

// ListOrders GET /api/v1/admin/orders?status=&limit=&offset=
func (ctrl *AdminOrderController) ListOrders(c *gin.Context) {
	orders, total, err := ctrl.orderService.ListOrders(
		c.Request.Context(),
		c.Query("status"),
		queryInt(c, "limit", 0),
		queryInt(c, "offset", 0),
	)
	if err != nil {
		respondServiceError(c, err, "orders")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"orders":  orders,
		"total":   total,
	})
}
