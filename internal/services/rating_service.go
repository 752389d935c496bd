package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/howufeel/howufeel/internal/models"
	"github.com/howufeel/howufeel/internal/policy"
	"github.com/howufeel/howufeel/utils/stats"
)

// RatingStore 评分服务依赖的仓储能力
type RatingStore interface {
	Create(rating *models.Rating) error
	GetByID(id uint) (*models.Rating, error)
	Update(rating *models.Rating) error
	Delete(id uint) error
	ListByGroup(groupID uint, from, to string) ([]models.Rating, error)
	ListByUser(userID uint, from, to string) ([]models.Rating, error)
}

// EventSender 评分事件出口（Kafka 生产者）；nil 表示降级运行
type EventSender interface {
	SendMessage(key string, message any) error
}

// RatingService 评分服务
type RatingService struct {
	ratingStore RatingStore
	memberStore MemberStore
	events      EventSender
	now         func() time.Time
}

// NewRatingService 创建评分服务实例
func NewRatingService(ratingStore RatingStore, memberStore MemberStore, events EventSender) *RatingService {
	return &RatingService{
		ratingStore: ratingStore,
		memberStore: memberStore,
		events:      events,
		now:         time.Now,
	}
}

// SubmitRatingRequest 提交评分请求
type SubmitRatingRequest struct {
	Value int    `json:"value" binding:"required"`
	Note  string `json:"note"`
}

// RatingDTO 评分数据传输对象
type RatingDTO struct {
	ID          uint   `json:"id"`
	GroupID     uint   `json:"group_id"`
	UserID      uint   `json:"user_id"`
	RatingDate  string `json:"rating_date"`
	Value       int    `json:"value"`
	Note        string `json:"note,omitempty"`
	TrackID     string `json:"track_id,omitempty"`
	TrackName   string `json:"track_name,omitempty"`
	TrackArtist string `json:"track_artist,omitempty"`
	TrackURL    string `json:"track_url,omitempty"`
	CreatedAt   string `json:"created_at"`
}

// RatingEvent 评分创建事件，经 Kafka 送往 webhook 通知与实时推送
type RatingEvent struct {
	EventID    string `json:"event_id"`
	Type       string `json:"type"`
	GroupID    uint   `json:"group_id"`
	UserID     uint   `json:"user_id"`
	RatingID   uint   `json:"rating_id"`
	RatingDate string `json:"rating_date"`
	Value      int    `json:"value"`
}

// AttachSongRequest 追加 song of the day
type AttachSongRequest struct {
	TrackID     string `json:"track_id" binding:"required"`
	TrackName   string `json:"track_name" binding:"required"`
	TrackArtist string `json:"track_artist"`
	TrackURL    string `json:"track_url"`
}

func toRatingDTO(r *models.Rating) RatingDTO {
	return RatingDTO{
		ID:          r.ID,
		GroupID:     r.GroupID,
		UserID:      r.UserID,
		RatingDate:  r.RatingDate,
		Value:       r.Value,
		Note:        r.Note,
		TrackID:     r.TrackID,
		TrackName:   r.TrackName,
		TrackArtist: r.TrackArtist,
		TrackURL:    r.TrackURL,
		CreatedAt:   r.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

func (s *RatingService) membership(groupID, userID uint) (*policy.Membership, error) {
	member, err := s.memberStore.Get(groupID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &policy.Membership{UserID: member.UserID, Role: member.Role}, nil
}

// SubmitRating 提交当天评分；联合唯一键保证每人每群每天至多一条
func (s *RatingService) SubmitRating(userID, groupID uint, req *SubmitRatingRequest) (*RatingDTO, error) {
	m, err := s.membership(groupID, userID)
	if err != nil {
		return nil, err
	}

	today := stats.Day(s.now())
	rc := policy.RatingCreate{
		AuthorID:   userID,
		CallerID:   userID,
		Value:      req.Value,
		Note:       req.Note,
		RatingDate: today,
		Today:      today,
	}
	if !policy.CanCreateRating(m, rc) {
		if m == nil {
			return nil, ErrNotMember
		}
		if m.Role == models.RoleBanned {
			return nil, ErrBanned
		}
		return nil, ErrInvalidInput
	}

	rating := &models.Rating{
		GroupID:    groupID,
		RatingDate: today,
		UserID:     userID,
		Value:      req.Value,
		Note:       req.Note,
	}

	if err := s.ratingStore.Create(rating); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyRated
		}
		return nil, err
	}

	s.publishEvent(rating)

	dto := toRatingDTO(rating)
	return &dto, nil
}

// publishEvent 发布评分事件；失败只记录，不影响评分结果
func (s *RatingService) publishEvent(rating *models.Rating) {
	if s.events == nil {
		return
	}
	event := RatingEvent{
		EventID:    uuid.NewString(),
		Type:       "rating.created",
		GroupID:    rating.GroupID,
		UserID:     rating.UserID,
		RatingID:   rating.ID,
		RatingDate: rating.RatingDate,
		Value:      rating.Value,
	}
	if err := s.events.SendMessage(fmt.Sprintf("group-%d", rating.GroupID), event); err != nil {
		log.Printf("publish rating event failed: %v", err)
	}
}

// DeleteRating 删除评分；仅群组 ADMIN/MODERATOR，作者本人不可删除
func (s *RatingService) DeleteRating(actorID, groupID, ratingID uint) error {
	rating, err := s.ratingStore.GetByID(ratingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if rating.GroupID != groupID {
		return ErrNotFound
	}

	m, err := s.membership(groupID, actorID)
	if err != nil {
		return err
	}
	if !policy.CanDeleteRating(m) {
		return ErrForbidden
	}

	return s.ratingStore.Delete(ratingID)
}

// ListGroupRatings 获取群组日期区间内的评分；读取权限同群组详情
func (s *RatingService) ListGroupRatings(callerID, groupID uint, from, to string) ([]RatingDTO, error) {
	m, err := s.membership(groupID, callerID)
	if err != nil {
		return nil, err
	}
	if !policy.CanReadGroup(m) {
		return nil, ErrForbidden
	}

	if _, err := stats.ParseDay(from); err != nil {
		return nil, ErrInvalidInput
	}
	if _, err := stats.ParseDay(to); err != nil {
		return nil, ErrInvalidInput
	}

	ratings, err := s.ratingStore.ListByGroup(groupID, from, to)
	if err != nil {
		return nil, err
	}

	dtos := make([]RatingDTO, 0, len(ratings))
	for _, r := range ratings {
		dtos = append(dtos, toRatingDTO(&r))
	}
	return dtos, nil
}

// ListOwnRatings 获取自己在日期区间内跨群组的评分
func (s *RatingService) ListOwnRatings(userID uint, from, to string) ([]RatingDTO, error) {
	if _, err := stats.ParseDay(from); err != nil {
		return nil, ErrInvalidInput
	}
	if _, err := stats.ParseDay(to); err != nil {
		return nil, ErrInvalidInput
	}

	ratings, err := s.ratingStore.ListByUser(userID, from, to)
	if err != nil {
		return nil, err
	}

	dtos := make([]RatingDTO, 0, len(ratings))
	for _, r := range ratings {
		dtos = append(dtos, toRatingDTO(&r))
	}
	return dtos, nil
}

// AttachSong 给当天自己的评分补充 song of the day；评分本体依旧不可变更
func (s *RatingService) AttachSong(userID, ratingID uint, req *AttachSongRequest) (*RatingDTO, error) {
	rating, err := s.ratingStore.GetByID(ratingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if rating.UserID != userID {
		return nil, ErrForbidden
	}
	if rating.RatingDate != stats.Day(s.now()) {
		return nil, ErrInvalidInput
	}

	rating.TrackID = req.TrackID
	rating.TrackName = req.TrackName
	rating.TrackArtist = req.TrackArtist
	rating.TrackURL = req.TrackURL

	if err := s.ratingStore.Update(rating); err != nil {
		return nil, err
	}

	dto := toRatingDTO(rating)
	return &dto, nil
}
