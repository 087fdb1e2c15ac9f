package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lzh9102/zhixue_go_server/internal/model"
	"github.com/lzh9102/zhixue_go_server/internal/model/dto"
	"github.com/lzh9102/zhixue_go_server/internal/pkg/lock"
	"github.com/lzh9102/zhixue_go_server/internal/repository"
	"github.com/lzh9102/zhixue_go_server/internal/testutil"
	"gorm.io/gorm"
)

func setupPlayService(t *testing.T) (*PlayService, *gorm.DB) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	client, _ := setupTestRedis(t)
	locker := lock.NewLocker(client, "lock")

	svc := NewPlayService(
		repository.NewPlayRepository(db),
		repository.NewEngagementRepository(db),
		locker,
		testConfig())
	return svc, db
}

func playInput(userID, mediaID, educatorID int64, watched, duration float64) *dto.TrackPlayInput {
	return &dto.TrackPlayInput{
		UserID:          userID,
		MediaID:         mediaID,
		EducatorID:      educatorID,
		DurationWatched: watched,
		MediaDuration:   duration,
		SessionID:       "session-1",
		IPAddress:       "198.51.100.10",
	}
}

func TestPlayService_TrackPlay_Accepted(t *testing.T) {
	svc, db := setupPlayService(t)

	user := testutil.TestUser(t, db)
	educator := testutil.TestEducator(t, db)
	media := testutil.TestMedia(t, db, educator.ID)

	result, err := svc.TrackPlay(context.Background(), playInput(user.ID, media.ID, educator.ID, 600, 600))
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 0.2, result.Points)

	var count int64
	db.Model(&model.Play{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestPlayService_TrackPlay_SelfPlay(t *testing.T) {
	svc, db := setupPlayService(t)

	educator := testutil.TestEducator(t, db)
	media := testutil.TestMedia(t, db, educator.ID)

	result, err := svc.TrackPlay(context.Background(), playInput(educator.ID, media.ID, educator.ID, 600, 600))
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, ReasonSelfPlay, result.Reason)

	var count int64
	db.Model(&model.Play{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestPlayService_TrackPlay_RatioTooHigh(t *testing.T) {
	svc, db := setupPlayService(t)

	user := testutil.TestUser(t, db)
	educator := testutil.TestEducator(t, db)
	media := testutil.TestMedia(t, db, educator.ID)

	// 700/600 ≈ 1.17 > 1.1
	result, err := svc.TrackPlay(context.Background(), playInput(user.ID, media.ID, educator.ID, 700, 600))
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, ReasonRatioTooHigh, result.Reason)
}

func TestPlayService_TrackPlay_TooShort(t *testing.T) {
	svc, db := setupPlayService(t)

	user := testutil.TestUser(t, db)
	educator := testutil.TestEducator(t, db)
	media := testutil.TestMedia(t, db, educator.ID)

	result, err := svc.TrackPlay(context.Background(), playInput(user.ID, media.ID, educator.ID, 5, 600))
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, ReasonTooShort, result.Reason)
}

func TestPlayService_TrackPlay_Duplicate(t *testing.T) {
	svc, db := setupPlayService(t)

	user := testutil.TestUser(t, db)
	educator := testutil.TestEducator(t, db)
	media := testutil.TestMedia(t, db, educator.ID)

	first, err := svc.TrackPlay(context.Background(), playInput(user.ID, media.ID, educator.ID, 600, 600))
	require.NoError(t, err)
	require.True(t, first.Success)

	// 5 分钟窗口内同媒体重复上报
	second, err := svc.TrackPlay(context.Background(), playInput(user.ID, media.ID, educator.ID, 600, 600))
	require.NoError(t, err)
	assert.False(t, second.Success)
	assert.Equal(t, ReasonDuplicate, second.Reason)

	// 其他媒体不受影响
	media2 := testutil.TestMedia(t, db, educator.ID)
	third, err := svc.TrackPlay(context.Background(), playInput(user.ID, media2.ID, educator.ID, 600, 600))
	require.NoError(t, err)
	assert.True(t, third.Success)
}

func TestPlayService_TrackPlay_DailyLimit(t *testing.T) {
	svc, db := setupPlayService(t)

	user := testutil.TestUser(t, db)
	educator := testutil.TestEducator(t, db)
	media := testutil.TestMedia(t, db, educator.ID)

	// 预置今日 50 条播放记录
	for i := 0; i < 50; i++ {
		testutil.TestPlay(t, db, user.ID, media.ID+int64(i)+100, educator.ID,
			testutil.WithPlayTime(time.Now().Add(-time.Hour)))
	}

	result, err := svc.TrackPlay(context.Background(), playInput(user.ID, media.ID, educator.ID, 600, 600))
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, ReasonDailyLimit, result.Reason)
}

func TestPlayService_TrackPlay_IPBurst(t *testing.T) {
	svc, db := setupPlayService(t)

	educator := testutil.TestEducator(t, db)
	media := testutil.TestMedia(t, db, educator.ID)
	user := testutil.TestUser(t, db)

	// 同 IP 一分钟内已有 3 条记录
	for i := 0; i < 3; i++ {
		other := testutil.TestUser(t, db)
		testutil.TestPlay(t, db, other.ID, media.ID, educator.ID,
			testutil.WithPlayIP("198.51.100.10"),
			testutil.WithPlayTime(time.Now().Add(-10*time.Second)))
	}

	result, err := svc.TrackPlay(context.Background(), playInput(user.ID, media.ID, educator.ID, 600, 600))
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, ReasonIPBurst, result.Reason)
}

func TestPlayService_TrackPlay_LowRatioNotPersisted(t *testing.T) {
	svc, db := setupPlayService(t)

	user := testutil.TestUser(t, db)
	educator := testutil.TestEducator(t, db)
	media := testutil.TestMedia(t, db, educator.ID)

	// 120/600 = 0.2 < 0.3：拒绝且不入库，不占每日配额
	result, err := svc.TrackPlay(context.Background(), playInput(user.ID, media.ID, educator.ID, 120, 600))
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, ReasonRatioTooLow, result.Reason)

	var count int64
	db.Model(&model.Play{}).Count(&count)
	assert.Equal(t, int64(0), count)

	// 随后同媒体合格播放仍然通过（低比例上报不触发去重窗口）
	ok, err := svc.TrackPlay(context.Background(), playInput(user.ID, media.ID, educator.ID, 600, 600))
	require.NoError(t, err)
	assert.True(t, ok.Success)
}

func TestPlayService_TrackPlay_PointsCapped(t *testing.T) {
	svc, db := setupPlayService(t)

	user := testutil.TestUser(t, db)
	educator := testutil.TestEducator(t, db)
	media := testutil.TestMedia(t, db, educator.ID)

	// 1.05 倍观看仍只得 0.2 分
	result, err := svc.TrackPlay(context.Background(), playInput(user.ID, media.ID, educator.ID, 630, 600))
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 0.2, result.Points)
}

func TestPlayService_TrackPlay_LockBusy(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	client, _ := setupTestRedis(t)
	locker := lock.NewLocker(client, "lock")

	svc := NewPlayService(
		repository.NewPlayRepository(db),
		repository.NewEngagementRepository(db),
		locker,
		testConfig())

	user := testutil.TestUser(t, db)
	educator := testutil.TestEducator(t, db)
	media := testutil.TestMedia(t, db, educator.ID)

	// 预先占住锁，模拟并发上报
	ctx := context.Background()
	acquired, err := locker.Acquire(ctx, fmt.Sprintf("play:%d:%d", user.ID, media.ID), time.Minute)
	require.NoError(t, err)
	require.True(t, acquired)

	_, err = svc.TrackPlay(ctx, playInput(user.ID, media.ID, educator.ID, 600, 600))
	assert.ErrorIs(t, err, ErrPlayLockBusy)
}

func TestPlayService_RecordDownload(t *testing.T) {
	svc, db := setupPlayService(t)

	user := testutil.TestUser(t, db)
	educator := testutil.TestEducator(t, db)
	media := testutil.TestMedia(t, db, educator.ID)

	result, err := svc.RecordDownload(user.ID, media.ID, educator.ID)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 3.0, result.Points)

	// 重复下载幂等，不重复计分
	again, err := svc.RecordDownload(user.ID, media.ID, educator.ID)
	require.NoError(t, err)
	assert.True(t, again.Success)
	assert.Equal(t, 0.0, again.Points)

	var count int64
	db.Model(&model.OfflineDownload{}).Count(&count)
	assert.Equal(t, int64(1), count)

	// 自己下载自己的课程被拒绝
	self, err := svc.RecordDownload(educator.ID, media.ID, educator.ID)
	require.NoError(t, err)
	assert.False(t, self.Success)
}

func TestPlayService_RecordLiveAttendance(t *testing.T) {
	svc, db := setupPlayService(t)

	user := testutil.TestUser(t, db)
	educator := testutil.TestEducator(t, db)

	result, err := svc.RecordLiveAttendance(user.ID, 300, educator.ID)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 5.0, result.Points)

	again, err := svc.RecordLiveAttendance(user.ID, 300, educator.ID)
	require.NoError(t, err)
	assert.True(t, again.Success)
	assert.Equal(t, 0.0, again.Points)

	var count int64
	db.Model(&model.LiveClassAttendee{}).Count(&count)
	assert.Equal(t, int64(1), count)
}
