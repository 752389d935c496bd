package services

import (
	"context"
	"strings"

	"github.com/howufeel/howufeel/internal/spotify"
)

// TrackSearcher 曲目搜索能力；生产实现为 spotify.Client
type TrackSearcher interface {
	SearchTracks(ctx context.Context, query string, limit int) ([]spotify.Track, error)
}

// SongService song of the day 曲目搜索；未配置 Spotify 时干净降级
type SongService struct {
	searcher TrackSearcher
}

// NewSongService 创建歌曲服务实例；searcher 可以为 nil
func NewSongService(searcher TrackSearcher) *SongService {
	return &SongService{searcher: searcher}
}

// Enabled 功能是否可用
func (s *SongService) Enabled() bool {
	return s.searcher != nil
}

// Search 搜索曲目
func (s *SongService) Search(ctx context.Context, query string, limit int) ([]spotify.Track, error) {
	if s.searcher == nil {
		return nil, ErrSongDisabled
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrInvalidInput
	}
	return s.searcher.SearchTracks(ctx, query, limit)
}
