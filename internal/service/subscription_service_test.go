package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/lzh9102/zhixue_go_server/internal/model"
	"github.com/lzh9102/zhixue_go_server/internal/repository"
	"github.com/lzh9102/zhixue_go_server/internal/testutil"
)

func setupSubscriptionService(t *testing.T) (*SubscriptionService, *gorm.DB) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	svc := NewSubscriptionService(
		repository.NewSubscriptionRepository(db),
		repository.NewUserRepository(db),
		testConfig())
	return svc, db
}

func TestSubscriptionService_Subscribe_New(t *testing.T) {
	svc, db := setupSubscriptionService(t)

	user := testutil.TestUser(t, db)

	info, err := svc.Subscribe(user.ID, "monthly", false)
	require.NoError(t, err)
	assert.Equal(t, "monthly", info.PlanType)
	assert.Equal(t, model.SubStatusActive, info.Status)
	assert.Equal(t, 30.0, info.Price)
	assert.Equal(t, 30.0, info.MonthlyAmount)
	assert.NotEmpty(t, info.ExpiresAt)

	// 支付记录和状态日志各一条
	var paymentCount, historyCount int64
	db.Model(&model.SubscriptionPayment{}).Count(&paymentCount)
	db.Model(&model.SubscriptionHistory{}).Count(&historyCount)
	assert.Equal(t, int64(1), paymentCount)
	assert.Equal(t, int64(1), historyCount)
}

func TestSubscriptionService_Subscribe_Lifetime(t *testing.T) {
	svc, db := setupSubscriptionService(t)

	user := testutil.TestUser(t, db)

	info, err := svc.Subscribe(user.ID, "lifetime", false)
	require.NoError(t, err)
	assert.Equal(t, model.SubStatusActive, info.Status)
	assert.Empty(t, info.ExpiresAt)
	// 998 / 36 个月摊销
	assert.Equal(t, 27.72, info.MonthlyAmount)
}

func TestSubscriptionService_Subscribe_UnknownPlan(t *testing.T) {
	svc, db := setupSubscriptionService(t)

	user := testutil.TestUser(t, db)
	_, err := svc.Subscribe(user.ID, "weekly", false)
	assert.ErrorIs(t, err, ErrUnknownPlanType)
}

func TestSubscriptionService_Subscribe_RenewExtendsExpiry(t *testing.T) {
	svc, db := setupSubscriptionService(t)

	user := testutil.TestUser(t, db)

	_, err := svc.Subscribe(user.ID, "monthly", false)
	require.NoError(t, err)

	var plan model.SubscriptionPlan
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&plan).Error)
	firstExpiry := *plan.ExpiresAt

	// 到期前续费，从原到期时间顺延
	_, err = svc.Subscribe(user.ID, "monthly", false)
	require.NoError(t, err)

	require.NoError(t, db.Where("user_id = ?", user.ID).First(&plan).Error)
	assert.True(t, plan.ExpiresAt.After(firstExpiry))
	assert.InDelta(t, firstExpiry.AddDate(0, 1, 0).Unix(), plan.ExpiresAt.Unix(), 5)

	// 仍然只有一条订阅记录
	var planCount int64
	db.Model(&model.SubscriptionPlan{}).Count(&planCount)
	assert.Equal(t, int64(1), planCount)

	var paymentCount int64
	db.Model(&model.SubscriptionPayment{}).Where("is_renewal = ?", true).Count(&paymentCount)
	assert.Equal(t, int64(1), paymentCount)
}

func TestSubscriptionService_Subscribe_RenewFromGrace(t *testing.T) {
	svc, db := setupSubscriptionService(t)

	user := testutil.TestUser(t, db)
	expired := time.Now().AddDate(0, 0, -3)
	testutil.TestPlan(t, db, user.ID,
		testutil.WithPlanWindow(time.Now().AddDate(0, -1, 0), &expired),
		testutil.WithPlanStatus(model.SubStatusGrace))

	// 宽限期续费回到 ACTIVE，从现在起算
	info, err := svc.Subscribe(user.ID, "monthly", false)
	require.NoError(t, err)
	assert.Equal(t, model.SubStatusActive, info.Status)

	var plan model.SubscriptionPlan
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&plan).Error)
	assert.InDelta(t, time.Now().AddDate(0, 1, 0).Unix(), plan.ExpiresAt.Unix(), 5)
}

func TestSubscriptionService_Cancel(t *testing.T) {
	svc, db := setupSubscriptionService(t)

	user := testutil.TestUser(t, db)
	testutil.TestPlan(t, db, user.ID)

	info, err := svc.Cancel(user.ID, "too expensive")
	require.NoError(t, err)
	assert.Equal(t, model.SubStatusCancelled, info.Status)
	assert.False(t, info.AutoRenew)

	// 再次取消报错
	_, err = svc.Cancel(user.ID, "again")
	assert.ErrorIs(t, err, ErrNotCancellable)

	// 无订阅用户取消报错
	other := testutil.TestUser(t, db)
	_, err = svc.Cancel(other.ID, "none")
	assert.ErrorIs(t, err, ErrSubscriptionMissing)
}

func TestSubscriptionService_ExpireSweep(t *testing.T) {
	svc, db := setupSubscriptionService(t)

	now := time.Now()

	// 刚过期：ACTIVE -> GRACE_PERIOD
	u1 := testutil.TestUser(t, db)
	justExpired := now.AddDate(0, 0, -1)
	testutil.TestPlan(t, db, u1.ID, testutil.WithPlanWindow(now.AddDate(0, -1, 0), &justExpired))

	// 过期超过宽限期：GRACE_PERIOD -> EXPIRED
	u2 := testutil.TestUser(t, db)
	longExpired := now.AddDate(0, 0, -10)
	testutil.TestPlan(t, db, u2.ID,
		testutil.WithPlanWindow(now.AddDate(0, -2, 0), &longExpired),
		testutil.WithPlanStatus(model.SubStatusGrace))

	// 未到期不受影响
	u3 := testutil.TestUser(t, db)
	future := now.AddDate(0, 1, 0)
	testutil.TestPlan(t, db, u3.ID, testutil.WithPlanWindow(now.AddDate(0, -1, 0), &future))

	transitioned, err := svc.ExpireSweep(now)
	require.NoError(t, err)
	assert.Equal(t, 2, transitioned)

	var p1, p2, p3 model.SubscriptionPlan
	require.NoError(t, db.Where("user_id = ?", u1.ID).First(&p1).Error)
	require.NoError(t, db.Where("user_id = ?", u2.ID).First(&p2).Error)
	require.NoError(t, db.Where("user_id = ?", u3.ID).First(&p3).Error)
	assert.Equal(t, model.SubStatusGrace, p1.Status)
	assert.Equal(t, model.SubStatusExpired, p2.Status)
	assert.Equal(t, model.SubStatusActive, p3.Status)

	// 每次迁移都有审计记录
	var historyCount int64
	db.Model(&model.SubscriptionHistory{}).Count(&historyCount)
	assert.Equal(t, int64(2), historyCount)
}

func TestSubscriptionService_GetInfo(t *testing.T) {
	svc, db := setupSubscriptionService(t)

	user := testutil.TestUser(t, db)
	_, err := svc.GetInfo(user.ID)
	assert.ErrorIs(t, err, ErrSubscriptionMissing)

	testutil.TestPlan(t, db, user.ID)
	info, err := svc.GetInfo(user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SubStatusActive, info.Status)
}

func TestSubscriptionService_GetHistory(t *testing.T) {
	svc, db := setupSubscriptionService(t)

	user := testutil.TestUser(t, db)

	history, err := svc.GetHistory(user.ID)
	require.NoError(t, err)
	assert.Len(t, history, 0)

	_, err = svc.Subscribe(user.ID, "monthly", false)
	require.NoError(t, err)
	_, err = svc.Cancel(user.ID, "too expensive")
	require.NoError(t, err)

	// 新记录在前
	history, err = svc.GetHistory(user.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, model.SubStatusCancelled, history[0].NewStatus)
	assert.Equal(t, "too expensive", history[0].Reason)
	assert.Equal(t, model.SubStatusActive, history[1].NewStatus)
	assert.NotEmpty(t, history[0].ChangedAt)
}
