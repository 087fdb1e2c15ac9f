package dto

// MonthlyRevenueResult 月度收入计算结果
// 所有字段始终有定义，无数据时为零值
type MonthlyRevenueResult struct {
	TotalRevenue     float64 `json:"total_revenue"`
	RealizedPayments float64 `json:"realized_payments"` // 当月实际到账金额，用于对账
	SubscriberCount  int64   `json:"subscriber_count"`
	Fallback         bool    `json:"fallback"` // 当月无实际支付时按面值估算
}

// PointsBreakdown 各活动类型积分明细
type PointsBreakdown struct {
	PlayPoints      float64 `json:"play_points"`
	DownloadPoints  float64 `json:"download_points"`
	LiveClassPoints float64 `json:"live_class_points"`
	PlayCount       int64   `json:"play_count"`
	DownloadCount   int64   `json:"download_count"`
	LiveClassCount  int64   `json:"live_class_count"`
}

// MonthlyPointsResult 月度积分计算结果
type MonthlyPointsResult struct {
	TotalPoints float64         `json:"total_points"`
	Breakdown   PointsBreakdown `json:"breakdown"`
}

// EducatorEarningItem 结算明细中的单个讲师
type EducatorEarningItem struct {
	EducatorID int64   `json:"educator_id"`
	Username   string  `json:"username,omitempty"`
	Points     float64 `json:"points"`
	Earnings   float64 `json:"earnings"`
	Percent    float64 `json:"percent"`
}

// SettlementSummary 一次结算运行的汇总
type SettlementSummary struct {
	Month                string                 `json:"month"`
	Status               string                 `json:"status"`
	TotalRevenue         float64                `json:"total_revenue"`
	DistributableRevenue float64                `json:"distributable_revenue"`
	TotalPoints          float64                `json:"total_points"`
	PointValue           float64                `json:"point_value"`
	SubscriberCount      int64                  `json:"subscriber_count"`
	Earnings             []*EducatorEarningItem `json:"earnings"`
}

// RunSettlementRequest 手动触发结算
// month 接受 YYYY-MM-DD 或完整时间戳，缺省为上个自然月
type RunSettlementRequest struct {
	Month string `json:"month"`
}

// BalanceInfo 讲师余额信息
type BalanceInfo struct {
	TotalEarned float64 `json:"total_earned"`
	Withdrawn   float64 `json:"withdrawn"`
	Available   float64 `json:"available"`
}
