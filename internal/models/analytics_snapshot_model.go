package models

import (
	"time"
)

// AnalyticsSnapshot 个人分析快照，由后台批量写入
type AnalyticsSnapshot struct {
	ID string `gorm:"primaryKey;size:36" json:"id"` // uuid

	UserID      uint    `gorm:"not null;index" json:"user_id"`
	PeriodStart string  `gorm:"size:10;not null" json:"period_start"` // YYYY-MM-DD
	PeriodEnd   string  `gorm:"size:10;not null" json:"period_end"`
	Mean        float64 `json:"mean"`
	Min         int     `json:"min"`
	Max         int     `json:"max"`
	Volatility  float64 `json:"volatility"`
	Streak      int     `json:"streak"`
	RatingCount int     `json:"rating_count"`

	CreatedAt time.Time `json:"created_at"`
}

func (AnalyticsSnapshot) TableName() string {
	return "analytics_snapshots"
}
