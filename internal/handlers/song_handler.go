package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/howufeel/howufeel/internal/services"
)

type SongHandler struct {
	SongService *services.SongService
}

func NewSongHandler(songService *services.SongService) *SongHandler {
	return &SongHandler{
		SongService: songService,
	}
}

// SearchTracks 搜索曲目用于 song of the day；未配置 Spotify 凭据时返回 503
func (h *SongHandler) SearchTracks(c *gin.Context) {
	query := c.Query("q")
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil {
		limit = 10
	}

	tracks, err := h.SongService.Search(c.Request.Context(), query, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tracks": tracks})
}
