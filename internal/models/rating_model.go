package models

import (
	"time"
)

// Rating 每日心情评分：(group_id, rating_date, user_id) 联合唯一
// 即"每人每群每天至多一条"，创建后不可修改
type Rating struct {
	ID uint `gorm:"primaryKey" json:"id"`

	GroupID    uint   `gorm:"not null;uniqueIndex:idx_group_date_user" json:"group_id"`
	RatingDate string `gorm:"size:10;not null;uniqueIndex:idx_group_date_user" json:"rating_date"` // YYYY-MM-DD
	UserID     uint   `gorm:"not null;uniqueIndex:idx_group_date_user" json:"user_id"`

	Value int    `gorm:"not null;check:value >= 1 AND value <= 10" json:"value"`
	Note  string `gorm:"size:500" json:"note"`

	// Song of the day（可选，来自 Spotify）
	TrackID     string `json:"track_id,omitempty"`
	TrackName   string `json:"track_name,omitempty"`
	TrackArtist string `json:"track_artist,omitempty"`
	TrackURL    string `json:"track_url,omitempty"`

	CreatedAt time.Time `json:"created_at"`

	Group *Group `gorm:"foreignKey:GroupID" json:"-"`
	User  *User  `gorm:"foreignKey:UserID" json:"-"`
}

func (Rating) TableName() string {
	return "ratings"
}
