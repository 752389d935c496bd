package routers

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/howufeel/howufeel/config"
	"github.com/howufeel/howufeel/internal/handlers"
	"github.com/howufeel/howufeel/internal/middlewares"
	"github.com/howufeel/howufeel/internal/services"
	logger "github.com/howufeel/howufeel/middleware/log"
	pkgmw "github.com/howufeel/howufeel/pkg/middlewares"
	"github.com/howufeel/howufeel/pkg/ws"
)

// SetupRoutes 设置所有路由
func SetupRoutes(r *gin.Engine, cfg *config.Config,
	log *logger.Logger,
	userHandler *handlers.UserHandler,
	groupHandler *handlers.GroupHandler,
	ratingHandler *handlers.RatingHandler,
	analyticsHandler *handlers.AnalyticsHandler,
	songHandler *handlers.SongHandler,
	hub *ws.Hub, // 注入 Hub
	groupService *services.GroupService, // 注入 GroupService 用于 WS 订阅
) {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	// trace ID 注入 + 请求日志
	r.Use(logger.GinMiddleware(log))

	// 并发上限，防止 Goroutine 无限增长
	if cfg.RateLimit.MaxConcurrency > 0 {
		r.Use(pkgmw.MaxConcurrencyMiddleware(cfg.RateLimit.MaxConcurrency))
	}

	// WebSocket 路由 (必须在 AsyncMiddleware 之前注册，避免握手请求被放入 Worker Pool)
	r.GET("/ws", middlewares.AuthMiddleware(), func(c *gin.Context) {
		ws.ServeWs(hub, groupService, c)
	})

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"Status": "OK",
		})
	})

	// 异步处理中间件
	// 将请求放入 Worker Pool 中排队执行
	r.Use(middlewares.AsyncMiddleware())

	// 注册路由
	RegisterUserRoutes(r, userHandler)
	RegisterGroupRoutes(r, groupHandler, ratingHandler, analyticsHandler)
	RegisterRatingRoutes(r, ratingHandler)
	RegisterAnalyticsRoutes(r, analyticsHandler)
	RegisterSongRoutes(r, songHandler)
}

// UserHandler 接口定义
func RegisterUserRoutes(r *gin.Engine, userHandler *handlers.UserHandler) {
	userGroup := r.Group("/api/v1/users")
	{
		userGroup.POST("/register", pkgmw.RateLimitMiddleware("register"), userHandler.Register) // 注册
		userGroup.POST("/login", pkgmw.RateLimitMiddleware("login"), userHandler.Login)          // 登录
		userGroup.POST("/refresh-token", userHandler.RefreshToken)                               // 换发 token
	}
	userGroup.Use(middlewares.AuthMiddleware())
	{
		userGroup.POST("/logout", userHandler.Logout) // 登出（token 拉黑）
		userGroup.POST("/cancel", userHandler.Cancel) // 注销账号

		// 用户个人信息
		userGroup.GET("/me", userHandler.GetProfile)                // 获取当前用户信息
		userGroup.PUT("/me", userHandler.UpdateProfile)             // 更新昵称、用户名（email 不可变更）
		userGroup.PATCH("/me/password", userHandler.ChangePassword) // 修改密码
	}
}

// GroupHandler 接口定义；评分与群组分析挂在群组路径下
func RegisterGroupRoutes(r *gin.Engine,
	groupHandler *handlers.GroupHandler,
	ratingHandler *handlers.RatingHandler,
	analyticsHandler *handlers.AnalyticsHandler,
) {
	groupGroup := r.Group("/api/v1/groups")
	groupGroup.Use(middlewares.AuthMiddleware(), pkgmw.RateLimitMiddleware("api"))
	{
		groupGroup.POST("", groupHandler.CreateGroup)         // 创建群组
		groupGroup.GET("", groupHandler.GetUserGroups)        // 获取我的群组列表
		groupGroup.GET("/preview/:code", groupHandler.PreviewGroup) // 邀请码预览
		groupGroup.POST("/join", groupHandler.JoinGroup)      // 通过邀请码加入

		groupGroup.GET("/:group_id", groupHandler.GetGroupDetail)   // 群组详情
		groupGroup.PUT("/:group_id", groupHandler.UpdateGroup)      // 更新群组
		groupGroup.DELETE("/:group_id", groupHandler.DeleteGroup)   // 解散群组
		groupGroup.POST("/:group_id/leave", groupHandler.LeaveGroup) // 退出群组

		// 成员管理
		groupGroup.GET("/:group_id/members", groupHandler.GetGroupMembers)                         // 成员列表
		groupGroup.PUT("/:group_id/members/:user_id/role", groupHandler.ChangeMemberRole)          // 变更角色
		groupGroup.POST("/:group_id/members/:user_id/transfer-admin", groupHandler.TransferAdmin)  // 转让管理员
		groupGroup.POST("/:group_id/members/:user_id/ban", groupHandler.BanMember)                 // 封禁成员
		groupGroup.DELETE("/:group_id/members/:user_id", groupHandler.RemoveMember)                // 移除成员

		// 评分
		groupGroup.POST("/:group_id/ratings", pkgmw.RateLimitMiddleware("rating"), ratingHandler.SubmitRating) // 提交评分
		groupGroup.GET("/:group_id/ratings", ratingHandler.ListGroupRatings)                                   // 评分列表
		groupGroup.DELETE("/:group_id/ratings/:rating_id", ratingHandler.DeleteRating)                         // 删除评分

		// 群组单日分析
		groupGroup.GET("/:group_id/analytics", analyticsHandler.GroupAnalytics)
	}
}

// RatingHandler 跨群组的个人评分接口
func RegisterRatingRoutes(r *gin.Engine, ratingHandler *handlers.RatingHandler) {
	ratingGroup := r.Group("/api/v1/ratings")
	ratingGroup.Use(middlewares.AuthMiddleware(), pkgmw.RateLimitMiddleware("api"))
	{
		ratingGroup.GET("/me", ratingHandler.ListOwnRatings)          // 我的评分历史
		ratingGroup.POST("/:rating_id/song", ratingHandler.AttachSong) // 补充 song of the day
	}
}

// AnalyticsHandler 个人分析接口
func RegisterAnalyticsRoutes(r *gin.Engine, analyticsHandler *handlers.AnalyticsHandler) {
	analyticsGroup := r.Group("/api/v1/analytics")
	analyticsGroup.Use(middlewares.AuthMiddleware(), pkgmw.RateLimitMiddleware("api"))
	{
		analyticsGroup.GET("/me", analyticsHandler.PersonalAnalytics)
	}
}

// SongHandler 曲目搜索接口
func RegisterSongRoutes(r *gin.Engine, songHandler *handlers.SongHandler) {
	songGroup := r.Group("/api/v1/songs")
	songGroup.Use(middlewares.AuthMiddleware(), pkgmw.RateLimitMiddleware("api"))
	{
		songGroup.GET("/search", songHandler.SearchTracks)
	}
}
