package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"groupmanager/internal/service"
	"groupmanager/pkg/response"
)

type StatisticsHandler struct {
	statisticsService service.StatisticsService
}

func NewStatisticsHandler(statisticsService service.StatisticsService) *StatisticsHandler {
	return &StatisticsHandler{statisticsService: statisticsService}
}

func (h *StatisticsHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/statistics", h.GetStatistics)
}

// @Summary      Get dashboard statistics
// @Description  Users per role, groups per status and member totals. New groups and members are counted inside the date window, which defaults to the current month.
// @Tags         statistics
// @Produce      json
// @Security     BearerAuth
// @Param        start_date  query     string  false  "Start date (YYYY-MM-DD)"
// @Param        end_date    query     string  false  "End date, inclusive (YYYY-MM-DD)"
// @Success      200  {object}  response.Response{data=service.StatisticsResponse}
// @Failure      403  {object}  response.ErrorBody
// @Failure      422  {object}  response.ErrorBody
// @Router       /api/statistics [get]
func (h *StatisticsHandler) GetStatistics(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	stats, err := h.statisticsService.GetStatistics(c.Request.Context(), p, service.StatisticsQuery{
		StartDate: c.Query("start_date"),
		EndDate:   c.Query("end_date"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, stats))
}
