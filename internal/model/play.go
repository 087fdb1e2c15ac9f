package model

import (
	"time"
)

// Play 有效播放记录，验证通过后写入，不可修改或删除
// watch_ratio 入库前保证 0 <= r <= 1.1（容忍少量时钟偏差）
type Play struct {
	ID              int64     `gorm:"primaryKey" json:"id"`
	UserID          int64     `gorm:"not null;index:idx_plays_user_media_time,priority:1" json:"user_id"`
	MediaID         int64     `gorm:"not null;index:idx_plays_user_media_time,priority:2" json:"media_id"`
	EducatorID      int64     `gorm:"not null;index" json:"educator_id"`
	DurationWatched float64   `gorm:"not null" json:"duration_watched"`
	MediaDuration   float64   `gorm:"not null" json:"media_duration"`
	WatchRatio      float64   `gorm:"not null;index" json:"watch_ratio"`
	SessionID       string    `gorm:"size:100" json:"session_id"`
	UserAgent       string    `gorm:"size:500" json:"-"`
	IPAddress       string    `gorm:"size:45;index:idx_plays_ip_time,priority:1" json:"-"`
	CreatedAt       time.Time `gorm:"index:idx_plays_user_media_time,priority:3;index:idx_plays_ip_time,priority:2" json:"created_at"`
}

func (Play) TableName() string {
	return "plays"
}
