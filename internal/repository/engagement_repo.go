package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/lzh9102/zhixue_go_server/internal/model"
)

type EngagementRepository struct {
	db *gorm.DB
}

func NewEngagementRepository(db *gorm.DB) *EngagementRepository {
	return &EngagementRepository{db: db}
}

func (r *EngagementRepository) CreateDownload(dl *model.OfflineDownload) error {
	return r.db.Create(dl).Error
}

// DownloadExists 判断 (用户, 媒体) 是否已有下载记录（终身去重）
func (r *EngagementRepository) DownloadExists(userID, mediaID int64) (bool, error) {
	var count int64
	err := r.db.Model(&model.OfflineDownload{}).
		Where("user_id = ? AND media_id = ?", userID, mediaID).
		Count(&count).Error
	return count > 0, err
}

// CountDownloads 统计区间内下载事件数，自播不计入
func (r *EngagementRepository) CountDownloads(start, end time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&model.OfflineDownload{}).
		Where("created_at >= ? AND created_at <= ?", start, end).
		Where("user_id <> educator_id").
		Count(&count).Error
	return count, err
}

// CountDownloadsByEducator 按讲师统计区间内下载事件数
func (r *EngagementRepository) CountDownloadsByEducator(educatorID int64, start, end time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&model.OfflineDownload{}).
		Where("educator_id = ?", educatorID).
		Where("created_at >= ? AND created_at <= ?", start, end).
		Where("user_id <> educator_id").
		Count(&count).Error
	return count, err
}

func (r *EngagementRepository) CreateLiveClass(class *model.LiveClass) error {
	return r.db.Create(class).Error
}

func (r *EngagementRepository) GetLiveClassByID(id int64) (*model.LiveClass, error) {
	var class model.LiveClass
	if err := r.db.First(&class, id).Error; err != nil {
		return nil, err
	}
	return &class, nil
}

func (r *EngagementRepository) CreateLiveAttendee(attendee *model.LiveClassAttendee) error {
	return r.db.Create(attendee).Error
}

// LiveAttendeeExists 判断 (用户, 直播课) 是否已有出席记录
func (r *EngagementRepository) LiveAttendeeExists(userID, liveClassID int64) (bool, error) {
	var count int64
	err := r.db.Model(&model.LiveClassAttendee{}).
		Where("user_id = ? AND live_class_id = ?", userID, liveClassID).
		Count(&count).Error
	return count > 0, err
}

// CountLiveAttendees 统计区间内直播出席事件数，自播不计入
func (r *EngagementRepository) CountLiveAttendees(start, end time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&model.LiveClassAttendee{}).
		Where("created_at >= ? AND created_at <= ?", start, end).
		Where("user_id <> educator_id").
		Count(&count).Error
	return count, err
}

// CountLiveAttendeesByEducator 按讲师统计区间内直播出席事件数
func (r *EngagementRepository) CountLiveAttendeesByEducator(educatorID int64, start, end time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&model.LiveClassAttendee{}).
		Where("educator_id = ?", educatorID).
		Where("created_at >= ? AND created_at <= ?", start, end).
		Where("user_id <> educator_id").
		Count(&count).Error
	return count, err
}
