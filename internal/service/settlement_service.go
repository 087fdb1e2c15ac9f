package service

import (
	"context"
	"errors"
	"log"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/lzh9102/zhixue_go_server/internal/model"
	"github.com/lzh9102/zhixue_go_server/internal/model/dto"
	"github.com/lzh9102/zhixue_go_server/internal/pkg/lock"
	"github.com/lzh9102/zhixue_go_server/internal/pkg/money"
	"github.com/lzh9102/zhixue_go_server/internal/pkg/period"
	"github.com/lzh9102/zhixue_go_server/internal/pkg/pubsub"
	"github.com/lzh9102/zhixue_go_server/internal/pkg/queue"
	"github.com/lzh9102/zhixue_go_server/internal/repository"
)

var (
	ErrSettlementRunning   = errors.New("该月份结算正在进行中")
	ErrSettlementFinalized = errors.New("该月份结算已定稿，不可变更")
	ErrSettlementNotFound  = errors.New("结算记录不存在")
)

type SettlementService struct {
	settlementRepo *repository.SettlementRepository
	userRepo       *repository.UserRepository
	revenueSvc     *RevenueService
	pointsSvc      *PointsService
	locker         *lock.Locker
	publisher      *pubsub.Publisher
	notifyQueue    *queue.Queue
}

func NewSettlementService(
	settlementRepo *repository.SettlementRepository,
	userRepo *repository.UserRepository,
	revenueSvc *RevenueService,
	pointsSvc *PointsService,
	locker *lock.Locker,
	publisher *pubsub.Publisher,
	notifyQueue *queue.Queue,
) *SettlementService {
	return &SettlementService{
		settlementRepo: settlementRepo,
		userRepo:       userRepo,
		revenueSvc:     revenueSvc,
		pointsSvc:      pointsSvc,
		locker:         locker,
		publisher:      publisher,
		notifyQueue:    notifyQueue,
	}
}

// Run 执行指定月份的结算
// 按月互斥；已定稿月份拒绝重算，草稿覆盖重算
// 全部计算在内存完成后单事务落库，失败不留半成品
func (s *SettlementService) Run(ctx context.Context, monthStart time.Time) (*dto.SettlementSummary, error) {
	month := period.MonthStart(monthStart)
	monthKey := month.Format("2006-01")

	acquired, err := s.locker.Acquire(ctx, "settlement:"+monthKey, 10*time.Minute)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, ErrSettlementRunning
	}
	defer s.locker.Release(ctx, "settlement:"+monthKey)

	existing, err := s.settlementRepo.GetByMonth(month)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if existing != nil && existing.IsFinalized() {
		return nil, ErrSettlementFinalized
	}

	// 阶段一：月度收入
	s.publishProgress(ctx, monthKey, pubsub.StepRevenue, "")
	revenue, err := s.revenueSvc.CalculateMonthlyRevenue(month)
	if err != nil {
		s.publishError(ctx, monthKey, err)
		return nil, err
	}
	pool := s.revenueSvc.CalculateDistributableRevenue(revenue.TotalRevenue)

	// 阶段二：全平台积分
	s.publishProgress(ctx, monthKey, pubsub.StepPoints, "")
	totalPoints, err := s.pointsSvc.CalculateTotalPointsForMonth(month)
	if err != nil {
		s.publishError(ctx, monthKey, err)
		return nil, err
	}

	// 单价向下取整，保证各讲师收益之和不超过分成池
	pointValue := 0.0
	if totalPoints.TotalPoints > 0 {
		pointValue = money.Floor2(pool / totalPoints.TotalPoints)
	}

	// 阶段三：逐讲师收益
	s.publishProgress(ctx, monthKey, pubsub.StepEarnings, "")
	educators, err := s.userRepo.ListEducators()
	if err != nil {
		s.publishError(ctx, monthKey, err)
		return nil, err
	}

	var earnings []*model.EducatorEarning
	remaining := pool
	for _, educator := range educators {
		points, err := s.pointsSvc.CalculateEducatorPointsForMonth(educator.ID, month)
		if err != nil {
			s.publishError(ctx, monthKey, err)
			return nil, err
		}
		if points.TotalPoints <= 0 {
			continue
		}

		percent := 0.0
		if totalPoints.TotalPoints > 0 {
			percent = money.Round2(points.TotalPoints / totalPoints.TotalPoints * 100)
		}

		// 尾差封顶：累计分配不超过池子
		earning := money.Round2(points.TotalPoints * pointValue)
		if earning > remaining {
			earning = remaining
		}
		remaining = money.Round2(remaining - earning)

		earnings = append(earnings, &model.EducatorEarning{
			EducatorID: educator.ID,
			Points:     points.TotalPoints,
			Earnings:   earning,
			Percent:    percent,
		})
	}

	// 按收益降序，相同收益按讲师 ID 保证稳定顺序
	sort.SliceStable(earnings, func(i, j int) bool {
		if earnings[i].Earnings != earnings[j].Earnings {
			return earnings[i].Earnings > earnings[j].Earnings
		}
		return earnings[i].EducatorID < earnings[j].EducatorID
	})

	settlement := &model.MonthlySettlement{
		Month:                month,
		TotalRevenue:         revenue.TotalRevenue,
		DistributableRevenue: pool,
		TotalPoints:          totalPoints.TotalPoints,
		PointValue:           pointValue,
		SubscriberCount:      revenue.SubscriberCount,
		Status:               model.SettlementDraft,
	}

	// 阶段四：单事务落库
	s.publishProgress(ctx, monthKey, pubsub.StepPersist, "")
	if err := s.settlementRepo.SaveWithEarnings(settlement, earnings); err != nil {
		s.publishError(ctx, monthKey, err)
		return nil, err
	}

	s.publishProgress(ctx, monthKey, pubsub.StepDone, "")

	// 结算完成后通知各讲师
	s.enqueueNotifications(ctx, monthKey, earnings)

	log.Printf("Settlement for %s done: revenue=%.2f pool=%.2f points=%.2f educators=%d",
		monthKey, revenue.TotalRevenue, pool, totalPoints.TotalPoints, len(earnings))

	return s.buildSummary(settlement)
}

// Finalize 将草稿结算定稿，定稿后不可重算
func (s *SettlementService) Finalize(monthStart time.Time) (*dto.SettlementSummary, error) {
	month := period.MonthStart(monthStart)

	settlement, err := s.settlementRepo.GetByMonth(month)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSettlementNotFound
		}
		return nil, err
	}
	if settlement.IsFinalized() {
		return nil, ErrSettlementFinalized
	}

	now := time.Now()
	if err := s.settlementRepo.Finalize(settlement.ID, now); err != nil {
		return nil, err
	}

	settlement.Status = model.SettlementFinalized
	settlement.FinalizedAt = &now
	return s.buildSummary(settlement)
}

// Get 查询指定月份的结算详情
func (s *SettlementService) Get(monthStart time.Time) (*dto.SettlementSummary, error) {
	month := period.MonthStart(monthStart)

	settlement, err := s.settlementRepo.GetByMonth(month)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSettlementNotFound
		}
		return nil, err
	}
	return s.buildSummary(settlement)
}

// List 查询所有结算记录
func (s *SettlementService) List() ([]*dto.SettlementSummary, error) {
	settlements, err := s.settlementRepo.List()
	if err != nil {
		return nil, err
	}

	summaries := make([]*dto.SettlementSummary, 0, len(settlements))
	for _, settlement := range settlements {
		summary, err := s.buildSummary(settlement)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// GetEducatorEarnings 查询讲师的历史结算收益
func (s *SettlementService) GetEducatorEarnings(educatorID int64) ([]*model.EducatorEarning, error) {
	return s.settlementRepo.GetEarningsByEducator(educatorID)
}

// GetBalance 查询讲师余额，无记录返回零值
func (s *SettlementService) GetBalance(educatorID int64) (*dto.BalanceInfo, error) {
	balance, err := s.settlementRepo.GetBalance(educatorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &dto.BalanceInfo{}, nil
		}
		return nil, err
	}
	return &dto.BalanceInfo{
		TotalEarned: balance.TotalEarned,
		Withdrawn:   balance.Withdrawn,
		Available:   balance.Available,
	}, nil
}

func (s *SettlementService) buildSummary(settlement *model.MonthlySettlement) (*dto.SettlementSummary, error) {
	earnings, err := s.settlementRepo.GetEarningsBySettlement(settlement.ID)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.EducatorEarningItem, 0, len(earnings))
	for _, earning := range earnings {
		items = append(items, &dto.EducatorEarningItem{
			EducatorID: earning.EducatorID,
			Username:   earning.Username,
			Points:     earning.Points,
			Earnings:   earning.Earnings,
			Percent:    earning.Percent,
		})
	}

	return &dto.SettlementSummary{
		Month:                settlement.Month.Format("2006-01"),
		Status:               settlement.Status,
		TotalRevenue:         settlement.TotalRevenue,
		DistributableRevenue: settlement.DistributableRevenue,
		TotalPoints:          settlement.TotalPoints,
		PointValue:           settlement.PointValue,
		SubscriberCount:      settlement.SubscriberCount,
		Earnings:             items,
	}, nil
}

func (s *SettlementService) publishProgress(ctx context.Context, month, step, message string) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.PublishProgress(ctx, &pubsub.ProgressMessage{
		Month:   month,
		Status:  "running",
		Step:    step,
		Message: message,
	})
	if err != nil {
		log.Printf("Failed to publish settlement progress: %v", err)
	}
}

func (s *SettlementService) publishError(ctx context.Context, month string, cause error) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.PublishProgress(ctx, &pubsub.ProgressMessage{
		Month:  month,
		Status: "failed",
		Step:   pubsub.StepDone,
		Error:  cause.Error(),
	})
	if err != nil {
		log.Printf("Failed to publish settlement error: %v", err)
	}
}

func (s *SettlementService) enqueueNotifications(ctx context.Context, month string, earnings []*model.EducatorEarning) {
	if s.notifyQueue == nil {
		return
	}
	for _, earning := range earnings {
		err := s.notifyQueue.Push(ctx, &queue.NotifyMessage{
			Type:     queue.NotifyEarningSettled,
			UserID:   earning.EducatorID,
			Month:    month,
			Points:   earning.Points,
			Earnings: earning.Earnings,
		})
		if err != nil {
			log.Printf("Failed to enqueue settlement notification for educator %d: %v", earning.EducatorID, err)
		}
	}
}
