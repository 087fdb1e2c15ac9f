package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/lzh9102/zhixue_go_server/internal/api/middleware"
	"github.com/lzh9102/zhixue_go_server/internal/model"
	"github.com/lzh9102/zhixue_go_server/internal/model/dto"
	"github.com/lzh9102/zhixue_go_server/internal/pkg/response"
	"github.com/lzh9102/zhixue_go_server/internal/service"
)

type WithdrawalHandler struct {
	withdrawalService *service.WithdrawalService
}

func NewWithdrawalHandler(withdrawalService *service.WithdrawalService) *WithdrawalHandler {
	return &WithdrawalHandler{
		withdrawalService: withdrawalService,
	}
}

// Request 发起提现
// POST /api/v1/withdrawals
func (h *WithdrawalHandler) Request(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.WithdrawalRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	withdrawal, err := h.withdrawalService.Request(userID, req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidAmount):
			response.ParamError(c, err.Error())
		case errors.Is(err, service.ErrNotEducator):
			response.PermissionError(c, err.Error())
		case errors.Is(err, service.ErrInsufficientBalance):
			response.BalanceError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.SuccessWithMessage(c, "提现申请已提交", service.ToItem(withdrawal))
}

// ListMine 我的提现申请
// GET /api/v1/withdrawals
func (h *WithdrawalHandler) ListMine(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	withdrawals, err := h.withdrawalService.ListByUser(userID)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, toItems(withdrawals))
}

// ListAll 管理员查看提现申请，可按状态过滤
// GET /api/v1/admin/withdrawals?status=PENDING
func (h *WithdrawalHandler) ListAll(c *gin.Context) {
	status := c.Query("status")
	switch status {
	case "", model.WithdrawalPending, model.WithdrawalApproved,
		model.WithdrawalRejected, model.WithdrawalProcessed:
	default:
		response.ParamError(c, "无效的状态过滤条件")
		return
	}

	withdrawals, err := h.withdrawalService.ListAll(status)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, toItems(withdrawals))
}

// UpdateStatus 管理员变更提现状态
// PUT /api/v1/admin/withdrawals/:id/status
func (h *WithdrawalHandler) UpdateStatus(c *gin.Context) {
	requestID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "无效的提现申请ID")
		return
	}

	var req dto.UpdateWithdrawalStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	withdrawal, err := h.withdrawalService.UpdateStatus(c.Request.Context(), requestID, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrWithdrawalNotFound):
			response.NotFoundError(c, err.Error())
		case errors.Is(err, service.ErrInvalidStatusChange):
			response.ConflictError(c, err.Error())
		case errors.Is(err, service.ErrInsufficientBalance):
			response.BalanceError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, service.ToItem(withdrawal))
}

func toItems(withdrawals []*model.WithdrawalRequest) []*dto.WithdrawalItem {
	items := make([]*dto.WithdrawalItem, 0, len(withdrawals))
	for _, w := range withdrawals {
		items = append(items, service.ToItem(w))
	}
	return items
}
