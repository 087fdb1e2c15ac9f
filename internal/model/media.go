package model

import (
	"time"
)

// Media 课程媒体（视频/音频），播放事件以此为准解析归属讲师和时长
type Media struct {
	ID         int64     `gorm:"primaryKey" json:"id"`
	EducatorID int64     `gorm:"not null;index" json:"educator_id"`
	Title      string    `gorm:"size:200;not null" json:"title"`
	Duration   float64   `gorm:"not null" json:"duration"` // 秒
	URL        string    `gorm:"size:500" json:"url"`      // 外部媒体托管地址
	Status     string    `gorm:"size:20;default:published" json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Media) TableName() string {
	return "media"
}
