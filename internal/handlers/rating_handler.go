package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/howufeel/howufeel/internal/services"
	"github.com/howufeel/howufeel/utils/stats"
)

type RatingHandler struct {
	RatingService *services.RatingService
}

func NewRatingHandler(ratingService *services.RatingService) *RatingHandler {
	return &RatingHandler{
		RatingService: ratingService,
	}
}

// SubmitRating 提交当天在某群组的评分，每人每群每天一条
func (h *RatingHandler) SubmitRating(c *gin.Context) {
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

	var req services.SubmitRatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求参数格式错误"})
		return
	}

	resp, err := h.RatingService.SubmitRating(userID.(uint), groupID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// ListGroupRatings 获取群组日期区间内的评分，默认当天
func (h *RatingHandler) ListGroupRatings(c *gin.Context) {
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

	from, to := dateRange(c)

	resp, err := h.RatingService.ListGroupRatings(userID.(uint), groupID, from, to)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ratings": resp})
}

// ListOwnRatings 获取自己在日期区间内跨群组的评分
func (h *RatingHandler) ListOwnRatings(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "未授权访问"})
		return
	}

	from, to := dateRange(c)

	resp, err := h.RatingService.ListOwnRatings(userID.(uint), from, to)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ratings": resp})
}

// DeleteRating 删除群组内的评分；仅 ADMIN/MODERATOR
func (h *RatingHandler) DeleteRating(c *gin.Context) {
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
	ratingID, err := parseIDParam(c, "rating_id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的评分ID"})
		return
	}

	if err := h.RatingService.DeleteRating(userID.(uint), groupID, ratingID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "评分已删除"})
}

// AttachSong 给自己当天的评分补充 song of the day
func (h *RatingHandler) AttachSong(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "未授权访问"})
		return
	}

	ratingID, err := parseIDParam(c, "rating_id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的评分ID"})
		return
	}

	var req services.AttachSongRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求参数格式错误"})
		return
	}

	resp, err := h.RatingService.AttachSong(userID.(uint), ratingID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// dateRange 读取 from/to 查询参数，缺省为当天
func dateRange(c *gin.Context) (string, string) {
	today := stats.Day(time.Now())
	from := c.DefaultQuery("from", today)
	to := c.DefaultQuery("to", today)
	return from, to
}
