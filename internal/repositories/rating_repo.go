package repositories

import (
	"gorm.io/gorm"

	"github.com/howufeel/howufeel/internal/models"
)

// RatingRepository 评分仓储
type RatingRepository struct {
	db *gorm.DB
}

// NewRatingRepository 创建评分仓储实例
func NewRatingRepository(db *gorm.DB) *RatingRepository {
	return &RatingRepository{db: db}
}

// Create 创建评分；(group_id, rating_date, user_id) 冲突时返回 gorm.ErrDuplicatedKey
func (r *RatingRepository) Create(rating *models.Rating) error {
	return r.db.Create(rating).Error
}

// GetByID 根据ID获取评分
func (r *RatingRepository) GetByID(id uint) (*models.Rating, error) {
	var rating models.Rating
	if err := r.db.First(&rating, id).Error; err != nil {
		return nil, err
	}
	return &rating, nil
}

// Update 仅用于歌曲字段补充；评分本体没有更新路径
func (r *RatingRepository) Update(rating *models.Rating) error {
	return r.db.Model(rating).Select("track_id", "track_name", "track_artist", "track_url").
		Updates(rating).Error
}

// Delete 删除评分
func (r *RatingRepository) Delete(id uint) error {
	res := r.db.Delete(&models.Rating{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListByGroup 获取群组在日期区间内的评分
func (r *RatingRepository) ListByGroup(groupID uint, from, to string) ([]models.Rating, error) {
	var ratings []models.Rating
	err := r.db.Where("group_id = ? AND rating_date >= ? AND rating_date <= ?", groupID, from, to).
		Preload("User").
		Order("rating_date ASC, user_id ASC").
		Find(&ratings).Error
	return ratings, err
}

// ListByUser 获取用户在日期区间内跨所有群组的评分
func (r *RatingRepository) ListByUser(userID uint, from, to string) ([]models.Rating, error) {
	var ratings []models.Rating
	err := r.db.Where("user_id = ? AND rating_date >= ? AND rating_date <= ?", userID, from, to).
		Order("rating_date ASC").
		Find(&ratings).Error
	return ratings, err
}
