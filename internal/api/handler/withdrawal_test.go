package handler

import (
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
	"github.com/lzh9102/zhixue_go_server/internal/pkg/queue"
	"github.com/lzh9102/zhixue_go_server/internal/pkg/response"
	"github.com/lzh9102/zhixue_go_server/internal/repository"
	"github.com/lzh9102/zhixue_go_server/internal/service"
	"github.com/lzh9102/zhixue_go_server/internal/testutil"
)

func setupWithdrawalHandler(t *testing.T) (*WithdrawalHandler, *gorm.DB) {
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

	svc := service.NewWithdrawalService(
		repository.NewWithdrawalRepository(db),
		repository.NewSettlementRepository(db),
		repository.NewUserRepository(db),
		queue.NewQueue(client, "notify_queue"),
	)
	return NewWithdrawalHandler(svc), db
}

func withdrawalRouter(handler *WithdrawalHandler, userID int64) *gin.Engine {
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(middleware.UserIDKey, userID)
		c.Next()
	})
	router.POST("/withdrawals", handler.Request)
	router.GET("/withdrawals", handler.ListMine)
	router.GET("/admin/withdrawals", handler.ListAll)
	router.PUT("/admin/withdrawals/:id/status", handler.UpdateStatus)
	return router
}

func TestWithdrawalHandler_RequestAndList(t *testing.T) {
	handler, db := setupWithdrawalHandler(t)

	educator := testutil.TestEducator(t, db)
	testutil.TestBalance(t, db, educator.ID, 500, 0)

	router := withdrawalRouter(handler, educator.ID)

	w := performRequest(router, "POST", "/withdrawals", dto.WithdrawalRequestBody{Amount: 200})
	resp := parseResponse(t, w)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, response.CodeSuccess, resp.Code)

	w = performRequest(router, "GET", "/withdrawals", nil)
	resp = parseResponse(t, w)
	assert.Equal(t, response.CodeSuccess, resp.Code)

	items, ok := resp.Data.([]interface{})
	require.True(t, ok)
	assert.Len(t, items, 1)
}

func TestWithdrawalHandler_Request_InsufficientBalance(t *testing.T) {
	handler, db := setupWithdrawalHandler(t)

	educator := testutil.TestEducator(t, db)
	testutil.TestBalance(t, db, educator.ID, 100, 0)

	router := withdrawalRouter(handler, educator.ID)
	w := performRequest(router, "POST", "/withdrawals", dto.WithdrawalRequestBody{Amount: 500})
	resp := parseResponse(t, w)

	assert.Equal(t, response.CodeInsufficientBalance, resp.Code)
}

func TestWithdrawalHandler_Request_NotEducator(t *testing.T) {
	handler, db := setupWithdrawalHandler(t)

	learner := testutil.TestUser(t, db)
	router := withdrawalRouter(handler, learner.ID)

	w := performRequest(router, "POST", "/withdrawals", dto.WithdrawalRequestBody{Amount: 100})
	resp := parseResponse(t, w)

	assert.Equal(t, response.CodePermissionDenied, resp.Code)
}

func TestWithdrawalHandler_AdminFlow(t *testing.T) {
	handler, db := setupWithdrawalHandler(t)

	educator := testutil.TestEducator(t, db)
	testutil.TestBalance(t, db, educator.ID, 500, 0)

	educatorRouter := withdrawalRouter(handler, educator.ID)
	w := performRequest(educatorRouter, "POST", "/withdrawals", dto.WithdrawalRequestBody{Amount: 200})
	require.Equal(t, response.CodeSuccess, parseResponse(t, w).Code)

	var withdrawal model.WithdrawalRequest
	require.NoError(t, db.First(&withdrawal).Error)

	admin := testutil.TestUser(t, db, testutil.WithRole(model.RoleAdmin))
	adminRouter := withdrawalRouter(handler, admin.ID)

	// 待审批列表
	w = performRequest(adminRouter, "GET", "/admin/withdrawals?status=PENDING", nil)
	resp := parseResponse(t, w)
	items, ok := resp.Data.([]interface{})
	require.True(t, ok)
	assert.Len(t, items, 1)

	// 审批通过
	path := fmt.Sprintf("/admin/withdrawals/%d/status", withdrawal.ID)
	w = performRequest(adminRouter, "PUT", path, dto.UpdateWithdrawalStatusRequest{Status: model.WithdrawalApproved})
	assert.Equal(t, response.CodeSuccess, parseResponse(t, w).Code)

	// 打款，余额扣减
	w = performRequest(adminRouter, "PUT", path, dto.UpdateWithdrawalStatusRequest{Status: model.WithdrawalProcessed})
	assert.Equal(t, response.CodeSuccess, parseResponse(t, w).Code)

	var balance model.EducatorBalance
	require.NoError(t, db.Where("educator_id = ?", educator.ID).First(&balance).Error)
	assert.Equal(t, 300.0, balance.Available)
	assert.Equal(t, 200.0, balance.Withdrawn)

	// 已打款不可再变更
	w = performRequest(adminRouter, "PUT", path, dto.UpdateWithdrawalStatusRequest{Status: model.WithdrawalRejected})
	assert.Equal(t, response.CodeConflict, parseResponse(t, w).Code)
}

func TestWithdrawalHandler_UpdateStatus_InvalidBody(t *testing.T) {
	handler, db := setupWithdrawalHandler(t)

	admin := testutil.TestUser(t, db, testutil.WithRole(model.RoleAdmin))
	router := withdrawalRouter(handler, admin.ID)

	w := performRequest(router, "PUT", "/admin/withdrawals/1/status", map[string]string{"status": "WHATEVER"})
	resp := parseResponse(t, w)

	assert.Equal(t, response.CodeParamError, resp.Code)
}

func TestWithdrawalHandler_ListAll_InvalidStatus(t *testing.T) {
	handler, db := setupWithdrawalHandler(t)

	admin := testutil.TestUser(t, db, testutil.WithRole(model.RoleAdmin))
	router := withdrawalRouter(handler, admin.ID)

	w := performRequest(router, "GET", "/admin/withdrawals?status=BOGUS", nil)
	resp := parseResponse(t, w)

	assert.Equal(t, response.CodeParamError, resp.Code)
}
