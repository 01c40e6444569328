package public

import (
	"strconv"

	handlershared "github.com/acrilgoods-next/internal/http/handlers/shared"
	"github.com/acrilgoods-next/internal/http/response"
	"github.com/acrilgoods-next/internal/repository"

	"github.com/gin-gonic/gin"
)

// GetPointsSummary returns balance plus lifetime totals.
func (h *Handler) GetPointsSummary(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	summary, err := h.PointsService.Summary(uid)
	if err != nil {
		respondError(c, response.CodeInternal, "error.points_fetch_failed", err)
		return
	}
	response.Success(c, summary)
}

// ListPointsLedger returns ledger entries newest first.
func (h *Handler) ListPointsLedger(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	entries, total, err := h.PointsService.List(uid, repository.PointLedgerListFilter{
		Direction: c.Query("direction"),
		Page:      page,
		PageSize:  pageSize,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.points_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, entries, response.NewPagination(page, pageSize, total))
}
