package dto

// SubscribeRequest 购买/续费订阅
type SubscribeRequest struct {
	PlanType  string `json:"plan_type" binding:"required,oneof=monthly yearly lifetime"`
	AutoRenew bool   `json:"auto_renew"`
}

// CancelSubscriptionRequest 取消订阅
type CancelSubscriptionRequest struct {
	Reason string `json:"reason"`
}

// SubscriptionHistoryItem 订阅状态变更记录
type SubscriptionHistoryItem struct {
	OldStatus    string `json:"old_status,omitempty"`
	NewStatus    string `json:"new_status"`
	OldExpiresAt string `json:"old_expires_at,omitempty"`
	NewExpiresAt string `json:"new_expires_at,omitempty"`
	Reason       string `json:"reason,omitempty"`
	ChangedAt    string `json:"changed_at"`
}

// SubscriptionInfo 当前订阅信息
type SubscriptionInfo struct {
	PlanType      string  `json:"plan_type"`
	Status        string  `json:"status"`
	Price         float64 `json:"price"`
	MonthlyAmount float64 `json:"monthly_amount"`
	StartedAt     string  `json:"started_at"`
	ExpiresAt     string  `json:"expires_at,omitempty"`
	AutoRenew     bool    `json:"auto_renew"`
}
