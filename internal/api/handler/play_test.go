package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/lzh9102/zhixue_go_server/internal/api/middleware"
	"github.com/lzh9102/zhixue_go_server/internal/model"
	"github.com/lzh9102/zhixue_go_server/internal/model/dto"
	"github.com/lzh9102/zhixue_go_server/internal/pkg/lock"
	"github.com/lzh9102/zhixue_go_server/internal/pkg/response"
	"github.com/lzh9102/zhixue_go_server/internal/repository"
	"github.com/lzh9102/zhixue_go_server/internal/service"
	"github.com/lzh9102/zhixue_go_server/internal/testutil"
)

func setupPlayHandler(t *testing.T) (*PlayHandler, *gorm.DB) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	playService := service.NewPlayService(
		repository.NewPlayRepository(db),
		repository.NewEngagementRepository(db),
		lock.NewLocker(client, "lock"),
		handlerTestConfig(),
	)
	return NewPlayHandler(playService,
		repository.NewMediaRepository(db),
		repository.NewEngagementRepository(db)), db
}

// 以固定用户身份挂载路由，绕过 JWT 中间件
func playRouter(handler *PlayHandler, userID int64) *gin.Engine {
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(middleware.UserIDKey, userID)
		c.Next()
	})
	router.POST("/plays", handler.Track)
	router.POST("/downloads", handler.RecordDownload)
	router.POST("/live-classes/:id/attend", handler.AttendLiveClass)
	return router
}

func parseTrackResult(t *testing.T, resp response.Response) *dto.TrackPlayResult {
	t.Helper()
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var result dto.TrackPlayResult
	require.NoError(t, json.Unmarshal(raw, &result))
	return &result
}

func TestPlayHandler_Track_Accepted(t *testing.T) {
	handler, db := setupPlayHandler(t)

	educator := testutil.TestEducator(t, db)
	media := testutil.TestMedia(t, db, educator.ID)
	viewer := testutil.TestUser(t, db)

	router := playRouter(handler, viewer.ID)
	w := performRequest(router, "POST", "/plays", dto.TrackPlayRequest{
		MediaID:         media.ID,
		DurationWatched: 300,
	})
	resp := parseResponse(t, w)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, response.CodeSuccess, resp.Code)

	result := parseTrackResult(t, resp)
	assert.True(t, result.Success)
	assert.Equal(t, 0.1, result.Points)

	// IP 和 UA 来自请求上下文
	var play model.Play
	require.NoError(t, db.First(&play).Error)
	assert.Equal(t, viewer.ID, play.UserID)
	assert.NotEmpty(t, play.IPAddress)
}

func TestPlayHandler_Track_SelfPlayRejected(t *testing.T) {
	handler, db := setupPlayHandler(t)

	educator := testutil.TestEducator(t, db)
	media := testutil.TestMedia(t, db, educator.ID)

	router := playRouter(handler, educator.ID)
	w := performRequest(router, "POST", "/plays", dto.TrackPlayRequest{
		MediaID:         media.ID,
		DurationWatched: 300,
	})
	resp := parseResponse(t, w)

	assert.Equal(t, response.CodeSuccess, resp.Code)
	result := parseTrackResult(t, resp)
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Reason)
}

func TestPlayHandler_Track_MediaNotFound(t *testing.T) {
	handler, db := setupPlayHandler(t)

	viewer := testutil.TestUser(t, db)
	router := playRouter(handler, viewer.ID)

	w := performRequest(router, "POST", "/plays", dto.TrackPlayRequest{
		MediaID:         99999,
		DurationWatched: 300,
	})
	resp := parseResponse(t, w)

	assert.Equal(t, response.CodeResourceNotFound, resp.Code)
}

func TestPlayHandler_RecordDownload(t *testing.T) {
	handler, db := setupPlayHandler(t)

	educator := testutil.TestEducator(t, db)
	media := testutil.TestMedia(t, db, educator.ID)
	viewer := testutil.TestUser(t, db)

	router := playRouter(handler, viewer.ID)
	w := performRequest(router, "POST", "/downloads", dto.RecordDownloadRequest{
		MediaID: media.ID,
	})
	resp := parseResponse(t, w)

	assert.Equal(t, response.CodeSuccess, resp.Code)
	result := parseTrackResult(t, resp)
	assert.True(t, result.Success)
	assert.Equal(t, 3.0, result.Points)

	// 重复下载幂等，不再计分
	w = performRequest(router, "POST", "/downloads", dto.RecordDownloadRequest{
		MediaID: media.ID,
	})
	result = parseTrackResult(t, parseResponse(t, w))
	assert.True(t, result.Success)
	assert.Equal(t, 0.0, result.Points)
}

func TestPlayHandler_AttendLiveClass(t *testing.T) {
	handler, db := setupPlayHandler(t)

	educator := testutil.TestEducator(t, db)
	class := testutil.TestLiveClass(t, db, educator.ID)
	viewer := testutil.TestUser(t, db)

	router := playRouter(handler, viewer.ID)
	w := performRequest(router, "POST", fmt.Sprintf("/live-classes/%d/attend", class.ID), nil)
	resp := parseResponse(t, w)

	assert.Equal(t, response.CodeSuccess, resp.Code)
	result := parseTrackResult(t, resp)
	assert.True(t, result.Success)
	assert.Equal(t, 5.0, result.Points)

	// 出席记录归属以课程记录的讲师为准
	var attendee model.LiveClassAttendee
	require.NoError(t, db.First(&attendee).Error)
	assert.Equal(t, educator.ID, attendee.EducatorID)
}

func TestPlayHandler_AttendLiveClass_SelfAttendNotScored(t *testing.T) {
	handler, db := setupPlayHandler(t)

	// 讲师出席自己的直播课不计分
	educator := testutil.TestEducator(t, db)
	class := testutil.TestLiveClass(t, db, educator.ID)

	router := playRouter(handler, educator.ID)
	w := performRequest(router, "POST", fmt.Sprintf("/live-classes/%d/attend", class.ID), nil)
	resp := parseResponse(t, w)

	assert.Equal(t, response.CodeSuccess, resp.Code)
	result := parseTrackResult(t, resp)
	assert.False(t, result.Success)
}

func TestPlayHandler_AttendLiveClass_NotFound(t *testing.T) {
	handler, db := setupPlayHandler(t)

	viewer := testutil.TestUser(t, db)
	router := playRouter(handler, viewer.ID)

	w := performRequest(router, "POST", "/live-classes/99999/attend", nil)
	resp := parseResponse(t, w)

	assert.Equal(t, response.CodeResourceNotFound, resp.Code)
}

func TestPlayHandler_AttendLiveClass_InvalidID(t *testing.T) {
	handler, db := setupPlayHandler(t)

	viewer := testutil.TestUser(t, db)
	router := playRouter(handler, viewer.ID)

	w := performRequest(router, "POST", "/live-classes/not-a-number/attend", nil)
	resp := parseResponse(t, w)

	assert.Equal(t, response.CodeParamError, resp.Code)
}
