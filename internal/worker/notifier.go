package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/lzh9102/zhixue_go_server/internal/pkg/queue"
	"github.com/lzh9102/zhixue_go_server/internal/repository"
)

// Mailer 通知邮件发送接口，生产实现为 pkg/email.Service
type Mailer interface {
	SendEarningSettled(to, month string, points, earnings float64) error
	SendWithdrawalProcessed(to string, amount float64) error
	SendWithdrawalRejected(to string, amount float64) error
}

// Notifier 通知任务处理器，从队列消费并发送邮件
type Notifier struct {
	userRepo *repository.UserRepository
	mailer   Mailer
}

func NewNotifier(userRepo *repository.UserRepository, mailer Mailer) *Notifier {
	return &Notifier{
		userRepo: userRepo,
		mailer:   mailer,
	}
}

// Process 处理单条通知任务
func (n *Notifier) Process(msg *queue.NotifyMessage) error {
	user, err := n.userRepo.GetByID(msg.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 用户已注销，丢弃任务
			log.Printf("Notify: user %d not found, dropping %s", msg.UserID, msg.Type)
			return nil
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if user.Email == nil || *user.Email == "" {
		log.Printf("Notify: user %d has no email, dropping %s", msg.UserID, msg.Type)
		return nil
	}

	switch msg.Type {
	case queue.NotifyEarningSettled:
		return n.mailer.SendEarningSettled(*user.Email, msg.Month, msg.Points, msg.Earnings)
	case queue.NotifyWithdrawalProcessed:
		return n.mailer.SendWithdrawalProcessed(*user.Email, msg.Amount)
	case queue.NotifyWithdrawalRejected:
		return n.mailer.SendWithdrawalRejected(*user.Email, msg.Amount)
	default:
		log.Printf("Notify: unknown message type %q, dropping", msg.Type)
		return nil
	}
}

// Run 循环消费通知队列直到 ctx 取消
func (n *Notifier) Run(ctx context.Context, notifyQueue *queue.Queue) {
	log.Println("Notify worker started")
	for {
		select {
		case <-ctx.Done():
			log.Println("Notify worker stopped")
			return
		default:
		}

		msg, err := notifyQueue.Pop(ctx, 5*time.Second)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("Notify: failed to pop from queue: %v", err)
			time.Sleep(time.Second)
			continue
		}
		if msg == nil {
			continue
		}

		if err := n.Process(msg); err != nil {
			log.Printf("Notify: failed to process %s for user %d: %v", msg.Type, msg.UserID, err)
		}
	}
}
