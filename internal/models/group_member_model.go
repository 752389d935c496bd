package models

import (
	"time"
)

// Role 群组内角色，封闭枚举
type Role string

const (
	RoleMember    Role = "MEMBER"
	RoleModerator Role = "MODERATOR"
	RoleAdmin     Role = "ADMIN"
	RoleBanned    Role = "BANNED"
)

// Valid 判断角色是否为合法枚举值
func (r Role) Valid() bool {
	switch r {
	case RoleMember, RoleModerator, RoleAdmin, RoleBanned:
		return true
	}
	return false
}

// Label 角色的展示名
func (r Role) Label() string {
	switch r {
	case RoleAdmin:
		return "Admin"
	case RoleModerator:
		return "Moderator"
	case RoleMember:
		return "Member"
	case RoleBanned:
		return "Banned"
	default:
		return "Unknown"
	}
}

// GroupMember 群组成员模型：(group_id, user_id) 联合唯一。
// 成员记录不做软删除：退出/被移除后记录彻底消失，
// 否则死行仍占用唯一索引，重新加入会撞索引
type GroupMember struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	GroupID  uint      `gorm:"not null;uniqueIndex:idx_group_user" json:"group_id"`
	UserID   uint      `gorm:"not null;uniqueIndex:idx_group_user" json:"user_id"`
	Role     Role      `gorm:"type:varchar(12);default:MEMBER" json:"role"`
	JoinedAt time.Time `json:"joined_at"`

	Group *Group `gorm:"foreignKey:GroupID" json:"-"`
	User  *User  `gorm:"foreignKey:UserID" json:"-"`
}

func (GroupMember) TableName() string {
	return "group_members"
}
