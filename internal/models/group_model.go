package models

import (
	"time"

	"gorm.io/gorm"
)

// Group 群组模型：join_code 全局唯一，creator_id 创建后不可变更
type Group struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description"`
	CreatorID   uint   `gorm:"not null" json:"creator_id"`
	JoinCode    string `gorm:"uniqueIndex;size:6;not null" json:"join_code"`
	MemberCount int    `gorm:"default:1" json:"member_count"`

	Creator *User         `gorm:"foreignKey:CreatorID" json:"-"`
	Members []GroupMember `gorm:"foreignKey:GroupID" json:"-"`
	Ratings []Rating      `gorm:"foreignKey:GroupID" json:"-"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Group) TableName() string {
	return "groups"
}
