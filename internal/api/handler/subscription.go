package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/lzh9102/zhixue_go_server/internal/api/middleware"
	"github.com/lzh9102/zhixue_go_server/internal/model/dto"
	"github.com/lzh9102/zhixue_go_server/internal/pkg/response"
	"github.com/lzh9102/zhixue_go_server/internal/service"
)

type SubscriptionHandler struct {
	subscriptionService *service.SubscriptionService
}

func NewSubscriptionHandler(subscriptionService *service.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptionService: subscriptionService,
	}
}

// Subscribe 购买或续费订阅
// POST /api/v1/subscriptions
func (h *SubscriptionHandler) Subscribe(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	info, err := h.subscriptionService.Subscribe(userID, req.PlanType, req.AutoRenew)
	if err != nil {
		if errors.Is(err, service.ErrUnknownPlanType) {
			response.ParamError(c, err.Error())
			return
		}
		response.ServerError(c, "")
		return
	}

	response.SuccessWithMessage(c, "订阅成功", info)
}

// Cancel 取消订阅
// DELETE /api/v1/subscriptions
func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.CancelSubscriptionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.ParamError(c, err.Error())
			return
		}
	}

	info, err := h.subscriptionService.Cancel(userID, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSubscriptionMissing):
			response.NotFoundError(c, err.Error())
		case errors.Is(err, service.ErrNotCancellable):
			response.ConflictError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.SuccessWithMessage(c, "已取消订阅", info)
}

// History 查询订阅状态变更历史
// GET /api/v1/subscriptions/history
func (h *SubscriptionHandler) History(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	items, err := h.subscriptionService.GetHistory(userID)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, items)
}

// GetInfo 查询当前订阅
// GET /api/v1/subscriptions/me
func (h *SubscriptionHandler) GetInfo(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	info, err := h.subscriptionService.GetInfo(userID)
	if err != nil {
		if errors.Is(err, service.ErrSubscriptionMissing) {
			response.NotFoundError(c, err.Error())
			return
		}
		response.ServerError(c, "")
		return
	}

	response.Success(c, info)
}
