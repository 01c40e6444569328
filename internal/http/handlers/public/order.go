package public

import (
	"errors"
	"strconv"

	handlershared "github.com/acrilgoods-next/internal/http/handlers/shared"
	"github.com/acrilgoods-next/internal/http/response"
	"github.com/acrilgoods-next/internal/repository"
	"github.com/acrilgoods-next/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateOrderRequest is the checkout payload. The whole cart is
// checked out; quantities and pricing come from the stored lines.
type CreateOrderRequest struct {
	Recipient     string `json:"recipient" binding:"required"`
	Phone         string `json:"phone" binding:"required"`
	Address1      string `json:"address1" binding:"required"`
	Address2      string `json:"address2"`
	PostalCode    string `json:"postal_code"`
	Memo          string `json:"memo"`
	PaymentMethod string `json:"payment_method"`
	UsePoints     int64  `json:"use_points"`
}

// CreateOrder checks out the user's cart.
func (h *Handler) CreateOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.shipping_fields_missing", err)
		return
	}

	order, err := h.OrderService.PlaceOrder(service.PlaceOrderParams{
		UserID:        uid,
		Recipient:     req.Recipient,
		Phone:         req.Phone,
		Address1:      req.Address1,
		Address2:      req.Address2,
		PostalCode:    req.PostalCode,
		Memo:          req.Memo,
		PaymentMethod: req.PaymentMethod,
		UsePoints:     req.UsePoints,
	})
	if err != nil {
		respondWithMappedError(c, err, orderCreateErrorRules, response.CodeInternal, "error.order_create_failed")
		return
	}
	response.Success(c, order)
}

// ListOrders returns the user's orders newest first.
func (h *Handler) ListOrders(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	orders, total, err := h.OrderService.ListOrders(uid, repository.OrderListFilter{
		Status:   c.Query("status"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.order_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, orders, response.NewPagination(page, pageSize, total))
}

// GetOrder returns one order by public number.
func (h *Handler) GetOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	order, err := h.OrderService.GetOrder(uid, c.Param("order_no"))
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(c, response.CodeNotFound, "error.order_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.order_fetch_failed", err)
		return
	}
	response.Success(c, order)
}
