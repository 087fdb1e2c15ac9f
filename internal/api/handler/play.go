package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/lzh9102/zhixue_go_server/internal/api/middleware"
	"github.com/lzh9102/zhixue_go_server/internal/model/dto"
	"github.com/lzh9102/zhixue_go_server/internal/pkg/response"
	"github.com/lzh9102/zhixue_go_server/internal/repository"
	"github.com/lzh9102/zhixue_go_server/internal/service"
)

type PlayHandler struct {
	playService    *service.PlayService
	mediaRepo      *repository.MediaRepository
	engagementRepo *repository.EngagementRepository
}

func NewPlayHandler(
	playService *service.PlayService,
	mediaRepo *repository.MediaRepository,
	engagementRepo *repository.EngagementRepository,
) *PlayHandler {
	return &PlayHandler{
		playService:    playService,
		mediaRepo:      mediaRepo,
		engagementRepo: engagementRepo,
	}
}

// Track 播放上报
// POST /api/v1/plays
func (h *PlayHandler) Track(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.TrackPlayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	media, err := h.mediaRepo.GetByID(req.MediaID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFoundError(c, "媒体不存在")
			return
		}
		response.ServerError(c, "")
		return
	}

	input := &dto.TrackPlayInput{
		UserID:          userID,
		MediaID:         media.ID,
		EducatorID:      media.EducatorID,
		DurationWatched: req.DurationWatched,
		MediaDuration:   media.Duration,
		SessionID:       req.SessionID,
		UserAgent:       c.GetHeader("User-Agent"),
		IPAddress:       c.ClientIP(),
	}

	result, err := h.playService.TrackPlay(c.Request.Context(), input)
	if err != nil {
		if errors.Is(err, service.ErrPlayLockBusy) {
			response.ConflictError(c, err.Error())
			return
		}
		response.ServerError(c, "")
		return
	}

	response.Success(c, result)
}

// RecordDownload 离线下载上报
// POST /api/v1/downloads
func (h *PlayHandler) RecordDownload(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.RecordDownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	media, err := h.mediaRepo.GetByID(req.MediaID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFoundError(c, "媒体不存在")
			return
		}
		response.ServerError(c, "")
		return
	}

	result, err := h.playService.RecordDownload(userID, media.ID, media.EducatorID)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, result)
}

// AttendLiveClass 直播课出席上报
// POST /api/v1/live-classes/:id/attend
func (h *PlayHandler) AttendLiveClass(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	liveClassID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "无效的直播课ID")
		return
	}

	// 归属讲师以课程记录为准，不信任客户端上报
	class, err := h.engagementRepo.GetLiveClassByID(liveClassID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFoundError(c, "直播课不存在")
			return
		}
		response.ServerError(c, "")
		return
	}

	result, err := h.playService.RecordLiveAttendance(userID, class.ID, class.EducatorID)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, result)
}
