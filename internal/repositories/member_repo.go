package repositories

import (
	"time"

	"gorm.io/gorm"

	"github.com/howufeel/howufeel/internal/models"
)

// MemberRepository 群组成员仓储
type MemberRepository struct {
	db *gorm.DB
}

// NewMemberRepository 创建群组成员仓储实例
func NewMemberRepository(db *gorm.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

// Get 获取某用户在某群组的成员记录
func (r *MemberRepository) Get(groupID, userID uint) (*models.GroupMember, error) {
	var member models.GroupMember
	err := r.db.Where("group_id = ? AND user_id = ?", groupID, userID).First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// AddWithCount 在同一事务内写入成员记录并更新群组成员数
func (r *MemberRepository) AddWithCount(member *models.GroupMember) error {
	if member.JoinedAt.IsZero() {
		member.JoinedAt = time.Now()
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(member).Error; err != nil {
			return err
		}
		return tx.Model(&models.Group{}).Where("id = ?", member.GroupID).
			Update("member_count", gorm.Expr("member_count + 1")).Error
	})
}

// RemoveWithCount 在同一事务内删除成员记录并更新群组成员数
func (r *MemberRepository) RemoveWithCount(groupID, userID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("group_id = ? AND user_id = ?", groupID, userID).
			Delete(&models.GroupMember{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Model(&models.Group{}).Where("id = ?", groupID).
			Update("member_count", gorm.Expr("member_count - 1")).Error
	})
}

// UpdateRole 更新成员角色
func (r *MemberRepository) UpdateRole(groupID, userID uint, role models.Role) error {
	res := r.db.Model(&models.GroupMember{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Update("role", role)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// TransferAdmin 在同一事务内把 ADMIN 移交给 newAdmin，原 ADMIN 降为 MODERATOR，
// 保证"每群恰好一个 ADMIN"不变式
func (r *MemberRepository) TransferAdmin(groupID, oldAdminID, newAdminID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.GroupMember{}).
			Where("group_id = ? AND user_id = ? AND role = ?", groupID, oldAdminID, models.RoleAdmin).
			Update("role", models.RoleModerator)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		res = tx.Model(&models.GroupMember{}).
			Where("group_id = ? AND user_id = ?", groupID, newAdminID).
			Update("role", models.RoleAdmin)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// List 获取群组成员列表
func (r *MemberRepository) List(groupID uint, limit, offset int) ([]models.GroupMember, int64, error) {
	var members []models.GroupMember
	var total int64

	err := r.db.Where("group_id = ?", groupID).Model(&models.GroupMember{}).Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	err = r.db.Where("group_id = ?", groupID).Preload("User").
		Order("joined_at ASC").Limit(limit).Offset(offset).Find(&members).Error
	return members, total, err
}

// ListGroupIDs 获取用户所有未被封禁的群组ID
func (r *MemberRepository) ListGroupIDs(userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.GroupMember{}).
		Where("user_id = ? AND role <> ?", userID, models.RoleBanned).
		Pluck("group_id", &ids).Error
	return ids, err
}
