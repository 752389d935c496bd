package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"github.com/twmb/murmur3"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/howufeel/howufeel/internal/models"
	"github.com/howufeel/howufeel/internal/policy"
	"github.com/howufeel/howufeel/utils/stats"
)

// AnalyticsService 个人/群组分析服务，带 redis 结果缓存与快照落库
type AnalyticsService struct {
	ratingStore RatingStore
	memberStore MemberStore
	groupStore  GroupStore
	redis       *redis.Client
	writer      *SnapshotWriter
	logger      *zap.Logger
	cacheTTL    time.Duration
	now         func() time.Time
}

// NewAnalyticsService 创建分析服务实例；redis 或 writer 为 nil 时自动降级
func NewAnalyticsService(
	ratingStore RatingStore,
	memberStore MemberStore,
	groupStore GroupStore,
	redisClient *redis.Client,
	writer *SnapshotWriter,
	logger *zap.Logger,
	cacheTTL time.Duration,
) *AnalyticsService {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &AnalyticsService{
		ratingStore: ratingStore,
		memberStore: memberStore,
		groupStore:  groupStore,
		redis:       redisClient,
		writer:      writer,
		logger:      logger,
		cacheTTL:    cacheTTL,
		now:         time.Now,
	}
}

// PersonalAnalyticsDTO 个人分析结果
type PersonalAnalyticsDTO struct {
	From        string  `json:"from"`
	To          string  `json:"to"`
	RatingCount int     `json:"rating_count"`
	Mean        float64 `json:"mean"`
	Min         int     `json:"min"`
	Max         int     `json:"max"`
	Volatility  float64 `json:"volatility"`
	Streak      int     `json:"streak"`
	DaysCovered int     `json:"days_covered"`
}

// GroupAnalyticsDTO 群组单日分析结果
type GroupAnalyticsDTO struct {
	Date          string  `json:"date"`
	Average       float64 `json:"average"`
	RatingCount   int     `json:"rating_count"`
	MemberCount   int     `json:"member_count"`
	Participation float64 `json:"participation"`
	Distribution  [10]int `json:"distribution"` // 下标 i 对应评分 i+1
}

// cacheKey 把日期区间哈希进 key，避免 key 里拼长字符串
func (s *AnalyticsService) cacheKey(userID uint, from, to string) string {
	h := murmur3.Sum32([]byte(from + "|" + to))
	return fmt.Sprintf("analytics:user:%d:%08x", userID, h)
}

// PersonalAnalytics 计算用户在日期区间内跨所有群组的分析，5分钟缓存
func (s *AnalyticsService) PersonalAnalytics(ctx context.Context, userID uint, from, to string) (*PersonalAnalyticsDTO, error) {
	fromDay, err := stats.ParseDay(from)
	if err != nil {
		return nil, ErrInvalidInput
	}
	toDay, err := stats.ParseDay(to)
	if err != nil {
		return nil, ErrInvalidInput
	}
	if toDay.Before(fromDay) {
		return nil, ErrInvalidInput
	}

	key := s.cacheKey(userID, from, to)
	if s.redis != nil {
		cached, err := s.redis.Get(ctx, key).Result()
		if err == nil {
			var dto PersonalAnalyticsDTO
			if jsonErr := json.Unmarshal([]byte(cached), &dto); jsonErr == nil {
				return &dto, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn("analytics cache read failed", zap.Error(err))
		}
	}

	ratings, err := s.ratingStore.ListByUser(userID, from, to)
	if err != nil {
		return nil, err
	}

	values := make([]int, 0, len(ratings))
	today := s.now()
	end := toDay
	if t := today.UTC(); t.After(end) {
		end = t
	}
	days := stats.NewDaySet(fromDay, end)
	for _, r := range ratings {
		values = append(values, r.Value)
		if d, err := stats.ParseDay(r.RatingDate); err == nil {
			days.Mark(d)
		}
	}

	summary := stats.Summarize(values)
	dto := &PersonalAnalyticsDTO{
		From:        from,
		To:          to,
		RatingCount: summary.Count,
		Mean:        summary.Mean,
		Min:         summary.Min,
		Max:         summary.Max,
		Volatility:  summary.Volatility,
		Streak:      days.Streak(today),
		DaysCovered: days.CoveredDays(),
	}

	if s.redis != nil {
		if data, err := json.Marshal(dto); err == nil {
			if err := s.redis.Set(ctx, key, data, s.cacheTTL).Err(); err != nil {
				s.logger.Warn("analytics cache write failed", zap.Error(err))
			}
		}
	}

	if s.writer != nil && summary.Count > 0 {
		s.writer.Enqueue(models.AnalyticsSnapshot{
			ID:          uuid.NewString(),
			UserID:      userID,
			PeriodStart: from,
			PeriodEnd:   to,
			Mean:        summary.Mean,
			Min:         summary.Min,
			Max:         summary.Max,
			Volatility:  summary.Volatility,
			Streak:      dto.Streak,
			RatingCount: summary.Count,
		})
	}

	return dto, nil
}

// GroupAnalytics 群组单日分布与参与度；读取权限同群组详情
func (s *AnalyticsService) GroupAnalytics(callerID, groupID uint, date string) (*GroupAnalyticsDTO, error) {
	if _, err := stats.ParseDay(date); err != nil {
		return nil, ErrInvalidInput
	}

	member, err := s.memberStore.Get(groupID, callerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrForbidden
		}
		return nil, err
	}
	m := &policy.Membership{UserID: member.UserID, Role: member.Role}
	if !policy.CanReadGroup(m) {
		return nil, ErrForbidden
	}

	group, err := s.groupStore.GetByID(groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	ratings, err := s.ratingStore.ListByGroup(groupID, date, date)
	if err != nil {
		return nil, err
	}

	dto := &GroupAnalyticsDTO{
		Date:        date,
		RatingCount: len(ratings),
		MemberCount: group.MemberCount,
	}
	sum := 0
	for _, r := range ratings {
		sum += r.Value
		if r.Value >= 1 && r.Value <= 10 {
			dto.Distribution[r.Value-1]++
		}
	}
	if len(ratings) > 0 {
		dto.Average = float64(sum) / float64(len(ratings))
	}
	if group.MemberCount > 0 {
		dto.Participation = float64(len(ratings)) / float64(group.MemberCount)
	}

	return dto, nil
}
