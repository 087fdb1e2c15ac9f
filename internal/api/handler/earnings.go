package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/lzh9102/zhixue_go_server/internal/api/middleware"
	"github.com/lzh9102/zhixue_go_server/internal/pkg/response"
	"github.com/lzh9102/zhixue_go_server/internal/service"
)

type EarningsHandler struct {
	settlementService *service.SettlementService
}

func NewEarningsHandler(settlementService *service.SettlementService) *EarningsHandler {
	return &EarningsHandler{
		settlementService: settlementService,
	}
}

// List 讲师历史结算收益
// GET /api/v1/educator/earnings
func (h *EarningsHandler) List(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	earnings, err := h.settlementService.GetEducatorEarnings(userID)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, earnings)
}

// GetBalance 讲师余额台账
// GET /api/v1/educator/balance
func (h *EarningsHandler) GetBalance(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	balance, err := h.settlementService.GetBalance(userID)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, balance)
}
