package model

import (
	"time"
)

// 结算状态机：(无) -> DRAFT -> FINALIZED
// DRAFT 可重算覆盖；FINALIZED 不可变更
const (
	SettlementDraft     = "DRAFT"
	SettlementFinalized = "FINALIZED"
)

// MonthlySettlement 每个自然月一条，month 为当月首日
type MonthlySettlement struct {
	ID                   int64      `gorm:"primaryKey" json:"id"`
	Month                time.Time  `gorm:"uniqueIndex;not null" json:"month"`
	TotalRevenue         float64    `gorm:"type:decimal(12,2)" json:"total_revenue"`
	DistributableRevenue float64    `gorm:"type:decimal(12,2)" json:"distributable_revenue"`
	TotalPoints          float64    `gorm:"type:decimal(12,2)" json:"total_points"`
	PointValue           float64    `gorm:"type:decimal(12,4)" json:"point_value"` // 池子/总积分，总积分为 0 时为 0
	SubscriberCount      int64      `json:"subscriber_count"`
	Status               string     `gorm:"size:20;default:DRAFT" json:"status"`
	FinalizedAt          *time.Time `json:"finalized_at,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

func (MonthlySettlement) TableName() string {
	return "monthly_settlements"
}

// IsFinalized 是否已定稿
func (s *MonthlySettlement) IsFinalized() bool {
	return s.Status == SettlementFinalized
}

// EducatorEarning 结算的子记录，每个当月有积分的讲师一条
type EducatorEarning struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	SettlementID int64     `gorm:"not null;uniqueIndex:idx_earnings_settlement_educator,priority:1" json:"settlement_id"`
	EducatorID   int64     `gorm:"not null;uniqueIndex:idx_earnings_settlement_educator,priority:2;index" json:"educator_id"`
	Points       float64   `gorm:"type:decimal(12,2)" json:"points"`
	Earnings     float64   `gorm:"type:decimal(12,2)" json:"earnings"`
	Percent      float64   `gorm:"type:decimal(6,2)" json:"percent"` // 占总积分百分比
	CreatedAt    time.Time `json:"created_at"`
}

func (EducatorEarning) TableName() string {
	return "educator_earnings"
}

// EducatorBalance 讲师累计余额台账
// 不变量：available >= 0，withdrawn 只增不减
type EducatorBalance struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	EducatorID  int64     `gorm:"uniqueIndex;not null" json:"educator_id"`
	TotalEarned float64   `gorm:"type:decimal(12,2)" json:"total_earned"`
	Withdrawn   float64   `gorm:"type:decimal(12,2)" json:"withdrawn"`
	Available   float64   `gorm:"type:decimal(12,2)" json:"available"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (EducatorBalance) TableName() string {
	return "educator_balances"
}
