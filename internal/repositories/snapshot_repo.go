package repositories

import (
	"gorm.io/gorm"

	"github.com/howufeel/howufeel/internal/models"
)

// SnapshotRepository 分析快照仓储
type SnapshotRepository struct {
	db *gorm.DB
}

// NewSnapshotRepository 创建分析快照仓储实例
func NewSnapshotRepository(db *gorm.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// CreateBatch 批量写入快照
func (r *SnapshotRepository) CreateBatch(snapshots []models.AnalyticsSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	return r.db.CreateInBatches(snapshots, 100).Error
}

// ListByUser 获取用户最近的快照
func (r *SnapshotRepository) ListByUser(userID uint, limit int) ([]models.AnalyticsSnapshot, error) {
	var snapshots []models.AnalyticsSnapshot
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").Limit(limit).Find(&snapshots).Error
	return snapshots, err
}
