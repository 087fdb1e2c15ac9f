package handler

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lzh9102/zhixue_go_server/internal/model/dto"
	"github.com/lzh9102/zhixue_go_server/internal/pkg/period"
	"github.com/lzh9102/zhixue_go_server/internal/pkg/response"
	"github.com/lzh9102/zhixue_go_server/internal/service"
)

type SettlementHandler struct {
	settlementService *service.SettlementService
}

func NewSettlementHandler(settlementService *service.SettlementService) *SettlementHandler {
	return &SettlementHandler{
		settlementService: settlementService,
	}
}

// Run 手动触发月度结算，月份缺省为上个自然月
// POST /api/v1/admin/settlements/run
func (h *SettlementHandler) Run(c *gin.Context) {
	// 请求体可为空，此时结算上个自然月
	var req dto.RunSettlementRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.ParamError(c, err.Error())
			return
		}
	}

	month, err := period.ParseMonth(req.Month, time.Now())
	if err != nil {
		response.ParamError(c, "无效的月份格式")
		return
	}

	summary, err := h.settlementService.Run(c.Request.Context(), month)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSettlementRunning):
			response.ConflictError(c, err.Error())
		case errors.Is(err, service.ErrSettlementFinalized):
			response.ConflictError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.SuccessWithMessage(c, "结算完成", summary)
}

// Finalize 定稿指定月份的结算
// POST /api/v1/admin/settlements/:month/finalize
func (h *SettlementHandler) Finalize(c *gin.Context) {
	month, err := period.ParseMonth(c.Param("month"), time.Now())
	if err != nil {
		response.ParamError(c, "无效的月份格式")
		return
	}

	summary, err := h.settlementService.Finalize(month)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSettlementNotFound):
			response.NotFoundError(c, err.Error())
		case errors.Is(err, service.ErrSettlementFinalized):
			response.ConflictError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.SuccessWithMessage(c, "结算已定稿", summary)
}

// List 历史结算列表
// GET /api/v1/admin/settlements
func (h *SettlementHandler) List(c *gin.Context) {
	summaries, err := h.settlementService.List()
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, summaries)
}

// Get 查询指定月份的结算详情
// GET /api/v1/admin/settlements/:month
func (h *SettlementHandler) Get(c *gin.Context) {
	month, err := period.ParseMonth(c.Param("month"), time.Now())
	if err != nil {
		response.ParamError(c, "无效的月份格式")
		return
	}

	summary, err := h.settlementService.Get(month)
	if err != nil {
		if errors.Is(err, service.ErrSettlementNotFound) {
			response.NotFoundError(c, err.Error())
			return
		}
		response.ServerError(c, "")
		return
	}

	response.Success(c, summary)
}
