package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/lzh9102/zhixue_go_server/internal/model"
)

type PlayRepository struct {
	db *gorm.DB
}

func NewPlayRepository(db *gorm.DB) *PlayRepository {
	return &PlayRepository{db: db}
}

func (r *PlayRepository) Create(play *model.Play) error {
	return r.db.Create(play).Error
}

// ExistsRecent 判断该用户对该媒体在 since 之后是否已有播放记录（去重窗口）
func (r *PlayRepository) ExistsRecent(userID, mediaID int64, since time.Time) (bool, error) {
	var count int64
	err := r.db.Model(&model.Play{}).
		Where("user_id = ? AND media_id = ? AND created_at >= ?", userID, mediaID, since).
		Count(&count).Error
	return count > 0, err
}

// CountByUserSince 统计用户在 since 之后的播放数（每日上限）
func (r *PlayRepository) CountByUserSince(userID int64, since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&model.Play{}).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Count(&count).Error
	return count, err
}

// CountByIPSince 统计同一 IP 在 since 之后的播放数（突发限制）
func (r *PlayRepository) CountByIPSince(ip string, since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&model.Play{}).
		Where("ip_address = ? AND created_at >= ?", ip, since).
		Count(&count).Error
	return count, err
}

// SumQualifyingRatio 汇总区间内达标播放的观看比例之和
// 比例超过 1 的按 1 计，自播（user_id = educator_id）不计入
func (r *PlayRepository) SumQualifyingRatio(start, end time.Time, minRatio float64) (float64, error) {
	var total *float64
	err := r.db.Model(&model.Play{}).
		Select("SUM(CASE WHEN watch_ratio > 1.0 THEN 1.0 ELSE watch_ratio END)").
		Where("created_at >= ? AND created_at <= ?", start, end).
		Where("watch_ratio >= ?", minRatio).
		Where("user_id <> educator_id").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

// SumQualifyingRatioByEducator 按讲师汇总区间内达标播放的观看比例之和
func (r *PlayRepository) SumQualifyingRatioByEducator(educatorID int64, start, end time.Time, minRatio float64) (float64, error) {
	var total *float64
	err := r.db.Model(&model.Play{}).
		Select("SUM(CASE WHEN watch_ratio > 1.0 THEN 1.0 ELSE watch_ratio END)").
		Where("educator_id = ?", educatorID).
		Where("created_at >= ? AND created_at <= ?", start, end).
		Where("watch_ratio >= ?", minRatio).
		Where("user_id <> educator_id").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

// CountQualifying 统计区间内达标播放数
func (r *PlayRepository) CountQualifying(start, end time.Time, minRatio float64) (int64, error) {
	var count int64
	err := r.db.Model(&model.Play{}).
		Where("created_at >= ? AND created_at <= ?", start, end).
		Where("watch_ratio >= ?", minRatio).
		Where("user_id <> educator_id").
		Count(&count).Error
	return count, err
}

// CountQualifyingByEducator 按讲师统计区间内达标播放数
func (r *PlayRepository) CountQualifyingByEducator(educatorID int64, start, end time.Time, minRatio float64) (int64, error) {
	var count int64
	err := r.db.Model(&model.Play{}).
		Where("educator_id = ?", educatorID).
		Where("created_at >= ? AND created_at <= ?", start, end).
		Where("watch_ratio >= ?", minRatio).
		Where("user_id <> educator_id").
		Count(&count).Error
	return count, err
}
