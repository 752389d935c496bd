package repositories

import (
	"time"

	"gorm.io/gorm"

	"github.com/howufeel/howufeel/internal/models"
)

// GroupRepository 群组仓储
type GroupRepository struct {
	db *gorm.DB
}

// NewGroupRepository 创建群组仓储实例
func NewGroupRepository(db *gorm.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// CreateWithAdmin 在同一事务内创建群组和创建者的 ADMIN 成员记录，
// 避免崩溃后留下没有管理员的孤儿群组
func (r *GroupRepository) CreateWithAdmin(group *models.Group) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(group).Error; err != nil {
			return err
		}
		member := &models.GroupMember{
			GroupID:  group.ID,
			UserID:   group.CreatorID,
			Role:     models.RoleAdmin,
			JoinedAt: time.Now(),
		}
		return tx.Create(member).Error
	})
}

// GetByID 根据ID获取群组
func (r *GroupRepository) GetByID(id uint) (*models.Group, error) {
	var group models.Group
	if err := r.db.Preload("Creator").First(&group, id).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

// GetByJoinCode 根据邀请码获取群组
func (r *GroupRepository) GetByJoinCode(code string) (*models.Group, error) {
	var group models.Group
	if err := r.db.Where("join_code = ?", code).First(&group).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

// JoinCodeExists 邀请码查重，供生成重试使用。
// 必须带上软删除的群组：死行仍占用 join_code 唯一索引，
// 默认作用域下查重会把已占用的码误报为可用
func (r *GroupRepository) JoinCodeExists(code string) (bool, error) {
	var count int64
	err := r.db.Unscoped().Model(&models.Group{}).Where("join_code = ?", code).Count(&count).Error
	return count > 0, err
}

// Update 更新群组
func (r *GroupRepository) Update(group *models.Group) error {
	return r.db.Save(group).Error
}

// Delete 删除群组
func (r *GroupRepository) Delete(id uint) error {
	return r.db.Delete(&models.Group{}, id).Error
}

// GetUserGroups 获取用户所在的所有群组（排除 BANNED）
func (r *GroupRepository) GetUserGroups(userID uint, limit, offset int) ([]models.Group, int64, error) {
	var groups []models.Group
	var total int64

	query := r.db.Joins("JOIN group_members ON groups.id = group_members.group_id").
		Where("group_members.user_id = ? AND group_members.role <> ?",
			userID, models.RoleBanned).
		Preload("Creator")

	err := query.Model(&models.Group{}).Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	err = query.Limit(limit).Offset(offset).Find(&groups).Error
	return groups, total, err
}
