package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pointku-api/internal/dto"
	"github.com/noah-isme/pointku-api/internal/models"
	appErrors "github.com/noah-isme/pointku-api/pkg/errors"
	"github.com/noah-isme/pointku-api/pkg/response"
)

type pointLedgerService interface {
	Award(ctx context.Context, viewer models.Viewer, req dto.AwardPointsRequest) (*models.PointHistoryEntry, error)
	Amend(ctx context.Context, viewer models.Viewer, id string, req dto.AmendPointsRequest) (*models.PointHistoryEntry, error)
	Revoke(ctx context.Context, viewer models.Viewer, id string) (*models.PointHistoryEntry, error)
	Get(ctx context.Context, viewer models.Viewer, id string) (*models.PointHistoryDetail, error)
	List(ctx context.Context, viewer models.Viewer, query dto.PointHistoryQuery) ([]models.PointHistoryDetail, error)
}

// PointHistoryHandler exposes the point ledger.
type PointHistoryHandler struct {
	service pointLedgerService
}

// NewPointHistoryHandler builds a new handler.
func NewPointHistoryHandler(service pointLedgerService) *PointHistoryHandler {
	return &PointHistoryHandler{service: service}
}

// List godoc
// @Summary List point history
// @Tags PointHistory
// @Produce json
// @Param studentId query string false "Student ID"
// @Param issuerId query string false "Issuer ID"
// @Param rombelId query string false "Rombel ID"
// @Param kelasId query string false "Kelas ID"
// @Param date query string false "Exact event date (YYYY-MM-DD)"
// @Param dateFrom query string false "Earliest event date (YYYY-MM-DD)"
// @Param dateTo query string false "Latest event date (YYYY-MM-DD)"
// @Param limit query int false "Maximum rows"
// @Success 200 {object} response.Envelope
// @Router /point-history [get]
func (h *PointHistoryHandler) List(c *gin.Context) {
	var query dto.PointHistoryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid point history query"))
		return
	}
	entries, err := h.service.List(c.Request.Context(), viewerFromContext(c), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, "", map[string]interface{}{"count": len(entries)})
}

// Get godoc
// @Summary Get a point history entry
// @Tags PointHistory
// @Produce json
// @Param id path string true "Entry ID"
// @Success 200 {object} response.Envelope
// @Router /point-history/{id} [get]
func (h *PointHistoryHandler) Get(c *gin.Context) {
	entry, err := h.service.Get(c.Request.Context(), viewerFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, "")
}

// Award godoc
// @Summary Award or deduct points
// @Tags PointHistory
// @Accept json
// @Produce json
// @Param payload body dto.AwardPointsRequest true "Award payload"
// @Success 201 {object} response.Envelope
// @Router /point-history [post]
func (h *PointHistoryHandler) Award(c *gin.Context) {
	var req dto.AwardPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid point award payload"))
		return
	}
	entry, err := h.service.Award(c.Request.Context(), viewerFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entry, "Points recorded")
}

// Amend godoc
// @Summary Amend a point history entry
// @Tags PointHistory
// @Accept json
// @Produce json
// @Param id path string true "Entry ID"
// @Param payload body dto.AmendPointsRequest true "Amend payload"
// @Success 200 {object} response.Envelope
// @Router /point-history/{id} [put]
func (h *PointHistoryHandler) Amend(c *gin.Context) {
	var req dto.AmendPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid point amendment payload"))
		return
	}
	entry, err := h.service.Amend(c.Request.Context(), viewerFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, "Point entry updated")
}

// Revoke godoc
// @Summary Revoke a point history entry
// @Tags PointHistory
// @Produce json
// @Param id path string true "Entry ID"
// @Success 200 {object} response.Envelope
// @Router /point-history/{id} [delete]
func (h *PointHistoryHandler) Revoke(c *gin.Context) {
	entry, err := h.service.Revoke(c.Request.Context(), viewerFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, "Point entry revoked")
}
