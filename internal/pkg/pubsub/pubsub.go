package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

const (
	ChannelSettlementProgress = "settlement_progress"
)

// ProgressMessage 结算进度消息，推送给管理后台
type ProgressMessage struct {
	Type     string `json:"type"`
	Month    string `json:"month"`
	Status   string `json:"status"`
	Step     string `json:"step"`
	Progress int    `json:"progress"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
}

// 结算阶段常量
const (
	StepRevenue  = "revenue"
	StepPoints   = "points"
	StepEarnings = "earnings"
	StepPersist  = "persist"
	StepDone     = "done"
)

// 阶段对应的进度百分比
var StepProgress = map[string]int{
	StepRevenue:  20,
	StepPoints:   40,
	StepEarnings: 60,
	StepPersist:  80,
	StepDone:     100,
}

// 阶段对应的消息
var StepMessages = map[string]string{
	StepRevenue:  "正在统计月度收入",
	StepPoints:   "正在汇总学习积分",
	StepEarnings: "正在计算讲师收益",
	StepPersist:  "正在写入结算记录",
	StepDone:     "结算完成",
}

// Publisher Redis 发布者
type Publisher struct {
	client *redis.Client
}

// NewPublisher 创建发布者
func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

// PublishProgress 发布结算进度
func (p *Publisher) PublishProgress(ctx context.Context, msg *ProgressMessage) error {
	msg.Type = "settlement_progress"

	// 自动填充进度和消息
	if msg.Progress == 0 && msg.Step != "" {
		if progress, ok := StepProgress[msg.Step]; ok {
			msg.Progress = progress
		}
	}
	if msg.Message == "" && msg.Step != "" {
		if message, ok := StepMessages[msg.Step]; ok {
			msg.Message = message
		}
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal progress message: %w", err)
	}

	return p.client.Publish(ctx, ChannelSettlementProgress, data).Err()
}

// Subscriber Redis 订阅者
type Subscriber struct {
	client *redis.Client
}

// NewSubscriber 创建订阅者
func NewSubscriber(client *redis.Client) *Subscriber {
	return &Subscriber{client: client}
}

// Subscribe 订阅结算进度
func (s *Subscriber) Subscribe(ctx context.Context, handler func(*ProgressMessage)) error {
	pubsub := s.client.Subscribe(ctx, ChannelSettlementProgress)
	defer pubsub.Close()

	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			var progressMsg ProgressMessage
			if err := json.Unmarshal([]byte(msg.Payload), &progressMsg); err != nil {
				continue // 忽略解析错误
			}

			handler(&progressMsg)
		}
	}
}
