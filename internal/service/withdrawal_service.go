package service

import (
	"context"
	"errors"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/lzh9102/zhixue_go_server/internal/model"
	"github.com/lzh9102/zhixue_go_server/internal/model/dto"
	"github.com/lzh9102/zhixue_go_server/internal/pkg/queue"
	"github.com/lzh9102/zhixue_go_server/internal/repository"
)

var (
	ErrWithdrawalNotFound  = errors.New("提现申请不存在")
	ErrInvalidAmount       = errors.New("提现金额必须大于 0")
	ErrInsufficientBalance = errors.New("可提现余额不足")
	ErrNotEducator         = errors.New("仅讲师可发起提现")
	ErrInvalidStatusChange = errors.New("不允许的状态变更")
)

// 允许的状态迁移：PENDING -> APPROVED/REJECTED，APPROVED -> PROCESSED
var allowedTransitions = map[string][]string{
	model.WithdrawalPending:  {model.WithdrawalApproved, model.WithdrawalRejected},
	model.WithdrawalApproved: {model.WithdrawalProcessed},
}

type WithdrawalService struct {
	withdrawalRepo *repository.WithdrawalRepository
	settlementRepo *repository.SettlementRepository
	userRepo       *repository.UserRepository
	notifyQueue    *queue.Queue
}

func NewWithdrawalService(
	withdrawalRepo *repository.WithdrawalRepository,
	settlementRepo *repository.SettlementRepository,
	userRepo *repository.UserRepository,
	notifyQueue *queue.Queue,
) *WithdrawalService {
	return &WithdrawalService{
		withdrawalRepo: withdrawalRepo,
		settlementRepo: settlementRepo,
		userRepo:       userRepo,
		notifyQueue:    notifyQueue,
	}
}

// Request 讲师发起提现申请
// 发起时校验可提现余额，实际扣减推迟到 PROCESSED
func (s *WithdrawalService) Request(userID int64, amount float64) (*model.WithdrawalRequest, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !user.IsEducator() {
		return nil, ErrNotEducator
	}

	balance, err := s.settlementRepo.GetBalance(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInsufficientBalance
		}
		return nil, err
	}
	if balance.Available < amount {
		return nil, ErrInsufficientBalance
	}

	req := &model.WithdrawalRequest{
		UserID:      userID,
		Amount:      amount,
		Status:      model.WithdrawalPending,
		RequestedAt: time.Now(),
	}
	if err := s.withdrawalRepo.Create(req); err != nil {
		return nil, err
	}
	return req, nil
}

// ListByUser 查询用户的提现申请
func (s *WithdrawalService) ListByUser(userID int64) ([]*model.WithdrawalRequest, error) {
	return s.withdrawalRepo.ListByUser(userID)
}

// ListAll 管理员查询提现申请，status 为空表示全部
func (s *WithdrawalService) ListAll(status string) ([]*model.WithdrawalRequest, error) {
	return s.withdrawalRepo.ListAll(status)
}

// UpdateStatus 管理员变更提现状态
// PROCESSED 在事务内完成状态变更和余额扣减，余额不足时申请留在 APPROVED
func (s *WithdrawalService) UpdateStatus(ctx context.Context, requestID int64, status string) (*model.WithdrawalRequest, error) {
	req, err := s.withdrawalRepo.GetByID(requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWithdrawalNotFound
		}
		return nil, err
	}

	if !transitionAllowed(req.Status, status) {
		return nil, ErrInvalidStatusChange
	}

	now := time.Now()
	switch status {
	case model.WithdrawalProcessed:
		if err := s.withdrawalRepo.ProcessDebit(req, now); err != nil {
			if errors.Is(err, repository.ErrInsufficientBalance) {
				return nil, ErrInsufficientBalance
			}
			return nil, err
		}
		s.enqueueNotify(ctx, queue.NotifyWithdrawalProcessed, req)
	case model.WithdrawalRejected:
		if err := s.withdrawalRepo.UpdateStatus(requestID, status, &now); err != nil {
			return nil, err
		}
		s.enqueueNotify(ctx, queue.NotifyWithdrawalRejected, req)
	default:
		if err := s.withdrawalRepo.UpdateStatus(requestID, status, nil); err != nil {
			return nil, err
		}
	}

	return s.withdrawalRepo.GetByID(requestID)
}

// ToItem 提现申请转列表项
func ToItem(req *model.WithdrawalRequest) *dto.WithdrawalItem {
	item := &dto.WithdrawalItem{
		ID:          req.ID,
		UserID:      req.UserID,
		Amount:      req.Amount,
		Status:      req.Status,
		RequestedAt: req.RequestedAt.Format(time.RFC3339),
	}
	if req.ProcessedAt != nil {
		item.ProcessedAt = req.ProcessedAt.Format(time.RFC3339)
	}
	return item
}

func (s *WithdrawalService) enqueueNotify(ctx context.Context, notifyType string, req *model.WithdrawalRequest) {
	if s.notifyQueue == nil {
		return
	}
	err := s.notifyQueue.Push(ctx, &queue.NotifyMessage{
		Type:   notifyType,
		UserID: req.UserID,
		Amount: req.Amount,
	})
	if err != nil {
		log.Printf("Failed to enqueue withdrawal notification for user %d: %v", req.UserID, err)
	}
}

func transitionAllowed(from, to string) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
