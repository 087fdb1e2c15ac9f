package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lzh9102/zhixue_go_server/config"
	"github.com/lzh9102/zhixue_go_server/internal/model"
	"github.com/lzh9102/zhixue_go_server/internal/model/dto"
	"github.com/lzh9102/zhixue_go_server/internal/pkg/lock"
	"github.com/lzh9102/zhixue_go_server/internal/pkg/money"
	"github.com/lzh9102/zhixue_go_server/internal/pkg/period"
	"github.com/lzh9102/zhixue_go_server/internal/repository"
)

var (
	ErrPlayLockBusy = errors.New("播放上报处理中，请稍后重试")
)

// 播放校验拒绝原因，随 TrackPlayResult 返回给客户端
const (
	ReasonSelfPlay     = "不能播放自己的课程"
	ReasonRatioTooHigh = "观看时长异常"
	ReasonTooShort     = "观看时长过短"
	ReasonDuplicate    = "短时间内重复播放"
	ReasonDailyLimit   = "今日播放次数已达上限"
	ReasonIPBurst      = "操作过于频繁，请稍后再试"
	ReasonRatioTooLow  = "观看比例不足"
)

type PlayService struct {
	playRepo       *repository.PlayRepository
	engagementRepo *repository.EngagementRepository
	locker         *lock.Locker
	cfg            *config.Config
}

func NewPlayService(playRepo *repository.PlayRepository, engagementRepo *repository.EngagementRepository, locker *lock.Locker, cfg *config.Config) *PlayService {
	return &PlayService{
		playRepo:       playRepo,
		engagementRepo: engagementRepo,
		locker:         locker,
		cfg:            cfg,
	}
}

// TrackPlay 播放上报，按固定顺序执行防刷校验
// 校验拒绝不是错误：返回 Success=false 和可见原因
// check-then-insert 用 Redis 锁保证同一 (用户, 媒体) 串行
func (s *PlayService) TrackPlay(ctx context.Context, input *dto.TrackPlayInput) (*dto.TrackPlayResult, error) {
	play := &s.cfg.Play
	settle := &s.cfg.Settlement

	// 规则 1：自播
	if input.UserID == input.EducatorID {
		return reject(ReasonSelfPlay), nil
	}

	ratio := 0.0
	if input.MediaDuration > 0 {
		ratio = input.DurationWatched / input.MediaDuration
	}

	// 规则 2：比例异常偏高（超出时钟偏差容忍）
	if ratio > settle.MaxWatchRatio {
		return reject(ReasonRatioTooHigh), nil
	}

	// 规则 3：观看过短
	if input.DurationWatched < play.MinDurationSeconds {
		return reject(ReasonTooShort), nil
	}

	// 同一 (用户, 媒体) 的查重和写入必须串行
	lockKey := fmt.Sprintf("play:%d:%d", input.UserID, input.MediaID)
	acquired, err := s.locker.Acquire(ctx, lockKey, 10*time.Second)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, ErrPlayLockBusy
	}
	defer s.locker.Release(ctx, lockKey)

	now := time.Now()

	// 规则 4：去重窗口
	window := time.Duration(play.DuplicateWindowMins) * time.Minute
	dup, err := s.playRepo.ExistsRecent(input.UserID, input.MediaID, now.Add(-window))
	if err != nil {
		return nil, err
	}
	if dup {
		return reject(ReasonDuplicate), nil
	}

	// 规则 5：每日上限
	dayCount, err := s.playRepo.CountByUserSince(input.UserID, period.DayStart(now))
	if err != nil {
		return nil, err
	}
	if dayCount >= int64(play.DailyPlayLimit) {
		return reject(ReasonDailyLimit), nil
	}

	// 规则 6：同 IP 突发
	if input.IPAddress != "" {
		burstWindow := time.Duration(play.IPBurstWindowSeconds) * time.Second
		ipCount, err := s.playRepo.CountByIPSince(input.IPAddress, now.Add(-burstWindow))
		if err != nil {
			return nil, err
		}
		if ipCount >= int64(play.IPBurstLimit) {
			return reject(ReasonIPBurst), nil
		}
	}

	// 规则 7：比例不足，不入库也不占用每日配额
	if ratio < settle.MinWatchRatio {
		return reject(ReasonRatioTooLow), nil
	}

	record := &model.Play{
		UserID:          input.UserID,
		MediaID:         input.MediaID,
		EducatorID:      input.EducatorID,
		DurationWatched: input.DurationWatched,
		MediaDuration:   input.MediaDuration,
		WatchRatio:      ratio,
		SessionID:       input.SessionID,
		UserAgent:       input.UserAgent,
		IPAddress:       input.IPAddress,
		CreatedAt:       now,
	}
	if err := s.playRepo.Create(record); err != nil {
		return nil, err
	}

	// 播放积分：权重 × 比例，单次封顶权重值
	points := settle.PlayPointWeight * ratio
	if points > settle.PlayPointWeight {
		points = settle.PlayPointWeight
	}

	return &dto.TrackPlayResult{
		Success: true,
		Points:  money.Round2(points),
	}, nil
}

// RecordDownload 记录离线下载，每 (用户, 媒体) 终身去重
// 重复下载幂等返回成功但不重复计分
func (s *PlayService) RecordDownload(userID, mediaID, educatorID int64) (*dto.TrackPlayResult, error) {
	if userID == educatorID {
		return reject(ReasonSelfPlay), nil
	}

	exists, err := s.engagementRepo.DownloadExists(userID, mediaID)
	if err != nil {
		return nil, err
	}
	if exists {
		return &dto.TrackPlayResult{Success: true}, nil
	}

	dl := &model.OfflineDownload{
		UserID:     userID,
		MediaID:    mediaID,
		EducatorID: educatorID,
		CreatedAt:  time.Now(),
	}
	if err := s.engagementRepo.CreateDownload(dl); err != nil {
		return nil, err
	}

	return &dto.TrackPlayResult{
		Success: true,
		Points:  s.cfg.Settlement.DownloadPoints,
	}, nil
}

// RecordLiveAttendance 记录直播课出席，每 (用户, 直播课) 去重
func (s *PlayService) RecordLiveAttendance(userID, liveClassID, educatorID int64) (*dto.TrackPlayResult, error) {
	if userID == educatorID {
		return reject(ReasonSelfPlay), nil
	}

	exists, err := s.engagementRepo.LiveAttendeeExists(userID, liveClassID)
	if err != nil {
		return nil, err
	}
	if exists {
		return &dto.TrackPlayResult{Success: true}, nil
	}

	attendee := &model.LiveClassAttendee{
		UserID:      userID,
		LiveClassID: liveClassID,
		EducatorID:  educatorID,
		CreatedAt:   time.Now(),
	}
	if err := s.engagementRepo.CreateLiveAttendee(attendee); err != nil {
		return nil, err
	}

	return &dto.TrackPlayResult{
		Success: true,
		Points:  s.cfg.Settlement.LiveClassPoints,
	}, nil
}

func reject(reason string) *dto.TrackPlayResult {
	return &dto.TrackPlayResult{
		Success: false,
		Reason:  reason,
	}
}
