package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lzh9102/zhixue_go_server/internal/model"
	"github.com/lzh9102/zhixue_go_server/internal/testutil"
)

func TestSubscriptionRepository_GetPlanByUserID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewSubscriptionRepository(db)

	user := testutil.TestUser(t, db)
	created := testutil.TestPlan(t, db, user.ID)

	found, err := repo.GetPlanByUserID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, model.SubStatusActive, found.Status)

	_, err = repo.GetPlanByUserID(99999)
	assert.Error(t, err)
}

func TestSubscriptionRepository_ListOverlapping(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewSubscriptionRepository(db)

	monthStart := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	monthEnd := time.Date(2026, 7, 31, 23, 59, 59, 0, time.UTC)

	// 覆盖整月
	u1 := testutil.TestUser(t, db)
	full := time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)
	testutil.TestPlan(t, db, u1.ID, testutil.WithPlanWindow(
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), &full))

	// 月中开始
	u2 := testutil.TestUser(t, db)
	testutil.TestPlan(t, db, u2.ID, testutil.WithPlanWindow(
		time.Date(2026, 7, 16, 0, 0, 0, 0, time.UTC), &full))

	// lifetime 无到期
	u3 := testutil.TestUser(t, db)
	testutil.TestPlan(t, db, u3.ID, testutil.WithPlanWindow(
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), nil))

	// 月初之前已到期，不计入
	u4 := testutil.TestUser(t, db)
	expired := time.Date(2026, 6, 20, 0, 0, 0, 0, time.UTC)
	testutil.TestPlan(t, db, u4.ID, testutil.WithPlanWindow(
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), &expired))

	// 月末之后才开始，不计入
	u5 := testutil.TestUser(t, db)
	testutil.TestPlan(t, db, u5.ID, testutil.WithPlanWindow(
		time.Date(2026, 8, 5, 0, 0, 0, 0, time.UTC), &full))

	plans, err := repo.ListOverlapping(monthStart, monthEnd)
	require.NoError(t, err)
	assert.Len(t, plans, 3)
}

func TestSubscriptionRepository_Payments(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewSubscriptionRepository(db)

	user := testutil.TestUser(t, db)
	plan := testutil.TestPlan(t, db, user.ID)

	monthStart := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	monthEnd := time.Date(2026, 7, 31, 23, 59, 59, 0, time.UTC)

	payments, err := repo.ListSucceededPaymentsBetween(monthStart, monthEnd)
	require.NoError(t, err)
	assert.Len(t, payments, 0)

	testutil.TestPayment(t, db, user.ID, plan.ID, 100, time.Date(2026, 7, 10, 12, 0, 0, 0, time.UTC))
	// 区间外
	testutil.TestPayment(t, db, user.ID, plan.ID, 100, time.Date(2026, 6, 10, 12, 0, 0, 0, time.UTC))

	payments, err = repo.ListSucceededPaymentsBetween(monthStart, monthEnd)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, 100.0, payments[0].Amount)
}

func TestSubscriptionRepository_History(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewSubscriptionRepository(db)

	user := testutil.TestUser(t, db)
	plan := testutil.TestPlan(t, db, user.ID)

	err := repo.CreateHistory(&model.SubscriptionHistory{
		UserID:    user.ID,
		PlanID:    plan.ID,
		OldStatus: model.SubStatusActive,
		NewStatus: model.SubStatusGrace,
		Reason:    "expired",
	})
	require.NoError(t, err)

	histories, err := repo.ListHistoryByUser(user.ID)
	require.NoError(t, err)
	require.Len(t, histories, 1)
	assert.Equal(t, model.SubStatusGrace, histories[0].NewStatus)
}

func TestSubscriptionRepository_ListExpiringBefore(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewSubscriptionRepository(db)

	now := time.Now()

	u1 := testutil.TestUser(t, db)
	past := now.Add(-48 * time.Hour)
	testutil.TestPlan(t, db, u1.ID, testutil.WithPlanWindow(now.AddDate(0, -1, 0), &past))

	u2 := testutil.TestUser(t, db)
	future := now.Add(48 * time.Hour)
	testutil.TestPlan(t, db, u2.ID, testutil.WithPlanWindow(now.AddDate(0, -1, 0), &future))

	u3 := testutil.TestUser(t, db)
	testutil.TestPlan(t, db, u3.ID,
		testutil.WithPlanWindow(now.AddDate(0, -1, 0), &past),
		testutil.WithPlanStatus(model.SubStatusCancelled))

	plans, err := repo.ListExpiringBefore(now, []string{model.SubStatusActive, model.SubStatusTrial})
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, u1.ID, plans[0].UserID)
}
