package model

import (
	"time"
)

// OfflineDownload 离线下载事件，每 (用户, 媒体) 去重后固定计分
type OfflineDownload struct {
	ID         int64     `gorm:"primaryKey" json:"id"`
	UserID     int64     `gorm:"not null;index:idx_downloads_user_media,priority:1" json:"user_id"`
	MediaID    int64     `gorm:"not null;index:idx_downloads_user_media,priority:2" json:"media_id"`
	EducatorID int64     `gorm:"not null;index" json:"educator_id"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

func (OfflineDownload) TableName() string {
	return "offline_downloads"
}

// LiveClass 直播课，出席上报按课程归属讲师计分
type LiveClass struct {
	ID         int64     `gorm:"primaryKey" json:"id"`
	EducatorID int64     `gorm:"not null;index" json:"educator_id"`
	Title      string    `gorm:"size:255;not null" json:"title"`
	StartsAt   time.Time `json:"starts_at"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (LiveClass) TableName() string {
	return "live_classes"
}

// LiveClassAttendee 直播课出席事件，每 (用户, 直播课) 去重后固定计分
type LiveClassAttendee struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	UserID      int64     `gorm:"not null;index:idx_live_user_class,priority:1" json:"user_id"`
	LiveClassID int64     `gorm:"not null;index:idx_live_user_class,priority:2" json:"live_class_id"`
	EducatorID  int64     `gorm:"not null;index" json:"educator_id"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}

func (LiveClassAttendee) TableName() string {
	return "live_class_attendees"
}
