package dto

// WithdrawalRequestBody 发起提现
type WithdrawalRequestBody struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

// UpdateWithdrawalStatusRequest 管理员变更提现状态
type UpdateWithdrawalStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=APPROVED REJECTED PROCESSED"`
}

// WithdrawalItem 提现申请列表项
type WithdrawalItem struct {
	ID          int64   `json:"id"`
	UserID      int64   `json:"user_id"`
	Username    string  `json:"username,omitempty"`
	Amount      float64 `json:"amount"`
	Status      string  `json:"status"`
	RequestedAt string  `json:"requested_at"`
	ProcessedAt string  `json:"processed_at,omitempty"`
}
