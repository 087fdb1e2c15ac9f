package dto

// TrackPlayRequest 播放上报请求体
type TrackPlayRequest struct {
	MediaID         int64   `json:"media_id" binding:"required"`
	DurationWatched float64 `json:"duration_watched" binding:"required"`
	SessionID       string  `json:"session_id"`
}

// TrackPlayInput 播放验证入参，由 handler 根据媒体记录和请求上下文组装
type TrackPlayInput struct {
	UserID          int64
	MediaID         int64
	EducatorID      int64
	DurationWatched float64
	MediaDuration   float64
	SessionID       string
	UserAgent       string
	IPAddress       string
}

// TrackPlayResult 播放验证结果
// 校验拒绝不是错误：Success=false 且 Reason 给出用户可见原因
type TrackPlayResult struct {
	Success bool    `json:"success"`
	Points  float64 `json:"points,omitempty"`
	Reason  string  `json:"reason,omitempty"`
}

// RecordDownloadRequest 离线下载上报
type RecordDownloadRequest struct {
	MediaID int64 `json:"media_id" binding:"required"`
}
