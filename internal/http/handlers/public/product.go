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

// ListProducts returns the active catalog with display prices.
func (h *Handler) ListProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	result, err := h.ProductService.List(c.Request.Context(), repository.ProductListFilter{
		ActiveOnly: true,
		Keyword:    c.Query("keyword"),
		Page:       page,
		PageSize:   pageSize,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.SuccessWithPage(c, result.Items, response.NewPagination(page, pageSize, result.Total))
}

// GetProduct returns one product with its full pricing table.
func (h *Handler) GetProduct(c *gin.Context) {
	slug := c.Param("slug")
	product, err := h.ProductService.GetBySlug(slug)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProductNotFound):
			respondError(c, response.CodeNotFound, "error.product_not_found", nil)
		case errors.Is(err, service.ErrPricingConfigInvalid):
			respondError(c, response.CodeInternal, "error.pricing_config_invalid", err)
		default:
			respondError(c, response.CodeInternal, "error.internal", err)
		}
		return
	}
	response.Success(c, product)
}
