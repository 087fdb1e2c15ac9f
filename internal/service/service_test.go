package service

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"

	"github.com/lzh9102/zhixue_go_server/config"
)

// setupTestRedis 创建基于 miniredis 的测试 Redis
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	return client, mr
}

// testConfig 测试用配置，全部取默认结算参数
func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			Secret:      "test-secret",
			ExpireHours: 24,
		},
		Settlement: config.DefaultSettlement(),
		Play:       config.DefaultPlayValidation(),
		Subscription: config.SubscriptionConfig{
			GraceDays: 7,
			Plans: map[string]config.PlanConfig{
				"monthly":  {Price: 30, Months: 1},
				"yearly":   {Price: 288, Months: 12},
				"lifetime": {Price: 998, Months: 0},
			},
		},
	}
}
