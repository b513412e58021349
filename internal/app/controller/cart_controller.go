package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lumberhaus/storefront-backend/internal/app/model"
	"github.com/lumberhaus/storefront-backend/internal/app/service"
	apperrors "github.com/lumberhaus/storefront-backend/internal/errors"
	"github.com/lumberhaus/storefront-backend/internal/middleware"
)

type CartController struct {
	cartService service.CartService
}

func NewCartController(cartService service.CartService) *CartController {
	return &CartController{cartService: cartService}
}

type ReplaceCartRequest struct {
	Items []model.CartLine `json:"items"`
}

// GetCart GET /api/v1/cart
func (ctrl *CartController) GetCart(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	cart, err := ctrl.cartService.GetCart(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err, "cart")
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": cart})
}

// ReplaceCart stores the submitted lines as the whole cart.
// PUT /api/v1/cart
func (ctrl *CartController) ReplaceCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	var req ReplaceCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid cart request", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "items: items must be an array of {productId, quantity}")
		return
	}

	cart, err := ctrl.cartService.ReplaceCart(c.Request.Context(), userID, req.Items)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			apperrors.NotFound(c, apperrors.ProductNotFound, "Product not found")
			return
		}
		respondServiceError(c, err, "cart")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "cart": cart})
}

// ClearCart DELETE /api/v1/cart
func (ctrl *CartController) ClearCart(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	if err := ctrl.cartService.ClearCart(c.Request.Context(), userID); err != nil {
		respondServiceError(c, err, "cart")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
