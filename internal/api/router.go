package api

import (
	"github.com/gin-gonic/gin"

	"github.com/lzh9102/zhixue_go_server/config"
	"github.com/lzh9102/zhixue_go_server/internal/api/handler"
	"github.com/lzh9102/zhixue_go_server/internal/api/middleware"
)

type Router struct {
	authHandler         *handler.AuthHandler
	playHandler         *handler.PlayHandler
	subscriptionHandler *handler.SubscriptionHandler
	earningsHandler     *handler.EarningsHandler
	withdrawalHandler   *handler.WithdrawalHandler
	settlementHandler   *handler.SettlementHandler
	websocketHandler    *handler.WebSocketHandler
	cfg                 *config.Config
}

func NewRouter(
	authHandler *handler.AuthHandler,
	playHandler *handler.PlayHandler,
	subscriptionHandler *handler.SubscriptionHandler,
	earningsHandler *handler.EarningsHandler,
	withdrawalHandler *handler.WithdrawalHandler,
	settlementHandler *handler.SettlementHandler,
	websocketHandler *handler.WebSocketHandler,
	cfg *config.Config,
) *Router {
	return &Router{
		authHandler:         authHandler,
		playHandler:         playHandler,
		subscriptionHandler: subscriptionHandler,
		earningsHandler:     earningsHandler,
		withdrawalHandler:   withdrawalHandler,
		settlementHandler:   settlementHandler,
		websocketHandler:    websocketHandler,
		cfg:                 cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	if r.cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS(r.cfg.CORS))

	api := engine.Group("/api/v1")
	{
		// WebSocket
		api.GET("/ws", r.websocketHandler.Handle)

		// 公开接口 - 认证
		auth := api.Group("/auth")
		{
			auth.POST("/register", r.authHandler.Register)
			auth.POST("/login", r.authHandler.Login)
		}

		// 需要认证的接口
		authenticated := api.Group("")
		authenticated.Use(middleware.Auth(r.cfg.JWT.Secret))
		{
			authenticated.GET("/user/profile", r.authHandler.GetProfile)

			// 学习活动上报
			authenticated.POST("/plays", r.playHandler.Track)
			authenticated.POST("/downloads", r.playHandler.RecordDownload)
			authenticated.POST("/live-classes/:id/attend", r.playHandler.AttendLiveClass)

			// 订阅
			subscriptions := authenticated.Group("/subscriptions")
			{
				subscriptions.POST("", r.subscriptionHandler.Subscribe)
				subscriptions.DELETE("", r.subscriptionHandler.Cancel)
				subscriptions.GET("/me", r.subscriptionHandler.GetInfo)
				subscriptions.GET("/history", r.subscriptionHandler.History)
			}
		}

		// 讲师接口
		educator := api.Group("")
		educator.Use(middleware.Auth(r.cfg.JWT.Secret), middleware.EducatorOnly())
		{
			educator.GET("/educator/earnings", r.earningsHandler.List)
			educator.GET("/educator/balance", r.earningsHandler.GetBalance)
			educator.POST("/withdrawals", r.withdrawalHandler.Request)
			educator.GET("/withdrawals", r.withdrawalHandler.ListMine)
		}

		// 管理员接口
		admin := api.Group("/admin")
		admin.Use(middleware.Auth(r.cfg.JWT.Secret), middleware.AdminOnly())
		{
			admin.POST("/settlements/run", r.settlementHandler.Run)
			admin.POST("/settlements/:month/finalize", r.settlementHandler.Finalize)
			admin.GET("/settlements", r.settlementHandler.List)
			admin.GET("/settlements/:month", r.settlementHandler.Get)
			admin.GET("/withdrawals", r.withdrawalHandler.ListAll)
			admin.PUT("/withdrawals/:id/status", r.withdrawalHandler.UpdateStatus)
		}
	}

	return engine
}
