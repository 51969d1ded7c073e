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

type rankingService interface {
	Ranking(ctx context.Context, viewer models.Viewer, query dto.RankingQuery) ([]models.RankingEntry, error)
	Standing(ctx context.Context, viewer models.Viewer, studentID string) (*models.StudentStanding, error)
}

// RankingHandler exposes the leaderboard and per-student totals.
type RankingHandler struct {
	service rankingService
}

// NewRankingHandler builds a new handler.
func NewRankingHandler(service rankingService) *RankingHandler {
	return &RankingHandler{service: service}
}

// Ranking godoc
// @Summary Student leaderboard
// @Tags Rankings
// @Produce json
// @Param kelasId query string false "Kelas ID"
// @Param rombelId query string false "Rombel ID"
// @Param limit query int false "Number of students (default 5, max 100)"
// @Success 200 {object} response.Envelope
// @Router /rankings [get]
func (h *RankingHandler) Ranking(c *gin.Context) {
	var query dto.RankingQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid ranking query"))
		return
	}
	entries, err := h.service.Ranking(c.Request.Context(), viewerFromContext(c), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, "")
}

// Standing godoc
// @Summary A student's current point total
// @Tags Rankings
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/points [get]
func (h *RankingHandler) Standing(c *gin.Context) {
	standing, err := h.service.Standing(c.Request.Context(), viewerFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, standing, "")
}
