package public

import (
	"errors"
	"strconv"

	"github.com/acrilgoods-next/internal/http/response"
	"github.com/acrilgoods-next/internal/models"
	"github.com/acrilgoods-next/internal/service"

	"github.com/gin-gonic/gin"
)

// AddToCartRequest is the add-to-cart payload.
type AddToCartRequest struct {
	ProductID     uint        `json:"product_id" binding:"required"`
	SizeID        string      `json:"size_id"`
	PrintTypeID   string      `json:"print_type_id"`
	Quantity      int         `json:"quantity" binding:"required"`
	CustomOptions models.JSON `json:"custom_options"`
}

// AddToCart upserts a cart line. A repeat add of the same
// (product, size, print type) tuple merges quantities.
func (h *Handler) AddToCart(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	line, err := h.CartService.Add(service.AddToCartParams{
		UserID:        uid,
		ProductID:     req.ProductID,
		SizeID:        req.SizeID,
		PrintTypeID:   req.PrintTypeID,
		Quantity:      req.Quantity,
		CustomOptions: req.CustomOptions,
	})
	if err != nil {
		respondWithMappedError(c, err, cartAddErrorRules, response.CodeInternal, "error.internal")
		return
	}
	response.Success(c, line)
}

// GetCart returns the cart with totals.
func (h *Handler) GetCart(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	view, err := h.CartService.List(uid)
	if err != nil {
		respondError(c, response.CodeInternal, "error.cart_fetch_failed", err)
		return
	}
	response.Success(c, view)
}

// RemoveCartItem deletes one cart line.
func (h *Handler) RemoveCartItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.cart_item_invalid", nil)
		return
	}

	if err := h.CartService.Remove(uid, uint(id)); err != nil {
		if errors.Is(err, service.ErrCartItemNotFound) {
			respondError(c, response.CodeNotFound, "error.cart_item_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, nil)
}
