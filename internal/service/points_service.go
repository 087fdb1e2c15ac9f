package service

import (
	"time"

	"github.com/lzh9102/zhixue_go_server/config"
	"github.com/lzh9102/zhixue_go_server/internal/model/dto"
	"github.com/lzh9102/zhixue_go_server/internal/pkg/money"
	"github.com/lzh9102/zhixue_go_server/internal/pkg/period"
	"github.com/lzh9102/zhixue_go_server/internal/repository"
)

type PointsService struct {
	playRepo       *repository.PlayRepository
	engagementRepo *repository.EngagementRepository
	cfg            *config.Config
}

func NewPointsService(playRepo *repository.PlayRepository, engagementRepo *repository.EngagementRepository, cfg *config.Config) *PointsService {
	return &PointsService{
		playRepo:       playRepo,
		engagementRepo: engagementRepo,
		cfg:            cfg,
	}
}

// CalculateTotalPointsForMonth 计算全平台月度总积分及分项明细
// 播放积分 = 权重 × 观看比例（比例封顶 1），下载和直播出席为固定分值
// 自学习行为（用户即归属讲师）全部不计入
func (s *PointsService) CalculateTotalPointsForMonth(monthStart time.Time) (*dto.MonthlyPointsResult, error) {
	start, end := period.MonthBounds(monthStart)
	settle := &s.cfg.Settlement

	ratioSum, err := s.playRepo.SumQualifyingRatio(start, end, settle.MinWatchRatio)
	if err != nil {
		return nil, err
	}
	playCount, err := s.playRepo.CountQualifying(start, end, settle.MinWatchRatio)
	if err != nil {
		return nil, err
	}

	downloadCount, err := s.engagementRepo.CountDownloads(start, end)
	if err != nil {
		return nil, err
	}

	liveCount, err := s.engagementRepo.CountLiveAttendees(start, end)
	if err != nil {
		return nil, err
	}

	return s.buildResult(ratioSum, playCount, downloadCount, liveCount), nil
}

// CalculateEducatorPointsForMonth 计算单个讲师的月度积分
func (s *PointsService) CalculateEducatorPointsForMonth(educatorID int64, monthStart time.Time) (*dto.MonthlyPointsResult, error) {
	start, end := period.MonthBounds(monthStart)
	settle := &s.cfg.Settlement

	ratioSum, err := s.playRepo.SumQualifyingRatioByEducator(educatorID, start, end, settle.MinWatchRatio)
	if err != nil {
		return nil, err
	}
	playCount, err := s.playRepo.CountQualifyingByEducator(educatorID, start, end, settle.MinWatchRatio)
	if err != nil {
		return nil, err
	}

	downloadCount, err := s.engagementRepo.CountDownloadsByEducator(educatorID, start, end)
	if err != nil {
		return nil, err
	}

	liveCount, err := s.engagementRepo.CountLiveAttendeesByEducator(educatorID, start, end)
	if err != nil {
		return nil, err
	}

	return s.buildResult(ratioSum, playCount, downloadCount, liveCount), nil
}

func (s *PointsService) buildResult(ratioSum float64, playCount, downloadCount, liveCount int64) *dto.MonthlyPointsResult {
	settle := &s.cfg.Settlement

	playPoints := money.Round2(settle.PlayPointWeight * ratioSum)
	downloadPoints := money.Round2(settle.DownloadPoints * float64(downloadCount))
	livePoints := money.Round2(settle.LiveClassPoints * float64(liveCount))

	return &dto.MonthlyPointsResult{
		TotalPoints: money.Round2(playPoints + downloadPoints + livePoints),
		Breakdown: dto.PointsBreakdown{
			PlayPoints:      playPoints,
			DownloadPoints:  downloadPoints,
			LiveClassPoints: livePoints,
			PlayCount:       playCount,
			DownloadCount:   downloadCount,
			LiveClassCount:  liveCount,
		},
	}
}
