package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/howufeel/howufeel/internal/services"
	"github.com/howufeel/howufeel/utils/stats"
)

type AnalyticsHandler struct {
	AnalyticsService *services.AnalyticsService
}

func NewAnalyticsHandler(analyticsService *services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{
		AnalyticsService: analyticsService,
	}
}

// PersonalAnalytics 个人区间分析：均值/极值/波动率/连续打卡
func (h *AnalyticsHandler) PersonalAnalytics(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "未授权访问"})
		return
	}

	from, to := dateRange(c)

	resp, err := h.AnalyticsService.PersonalAnalytics(c.Request.Context(), userID.(uint), from, to)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GroupAnalytics 群组单日分布与参与度，默认当天
func (h *AnalyticsHandler) GroupAnalytics(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "未授权访问"})
		return
	}

	groupID, err := parseIDParam(c, "group_id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的群组ID"})
		return
	}

	date := c.DefaultQuery("date", stats.Day(time.Now()))

	resp, err := h.AnalyticsService.GroupAnalytics(userID.(uint), groupID, date)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
