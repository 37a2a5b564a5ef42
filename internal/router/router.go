package router

import (
	"fmt"
	"strings"

	"github.com/lumipure-api/internal/cache"
	"github.com/lumipure-api/internal/config"
	adminhandlers "github.com/lumipure-api/internal/http/handlers/admin"
	publichandlers "github.com/lumipure-api/internal/http/handlers/public"
	"github.com/lumipure-api/internal/http/handlers/shared"
	"github.com/lumipure-api/internal/http/response"
	"github.com/lumipure-api/internal/logger"
	"github.com/lumipure-api/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	shared.RegisterJSONFieldNames()
	r := gin.New()

	// 初始化 Handler（按前台/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "lp"
	}
	loginRule := RateLimitRule{
		Prefix:         fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds:  cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:    cfg.Security.LoginRateLimit.MaxAttempts,
		BlockSeconds:   cfg.Security.LoginRateLimit.BlockSeconds,
		Message:        "Too many login attempts. Please try again later.",
		ResetOnSuccess: true,
	}

	// 中间件
	r.Use(RecoveryMiddleware())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(MetricsMiddleware(c.Metrics))
	r.Use(CORSMiddleware(cfg.CORS))

	// 静态文件服务（本地素材存储）
	if cfg.Upload.Driver == "local" {
		r.Static(uploadPublicPath(cfg.Upload.PublicPath), cfg.Upload.LocalDir)
	}

	r.GET("/", func(ctx *gin.Context) {
		response.Success(ctx, "Welcome to LumiPure API", gin.H{"version": "1.0.0"})
	})
	r.GET("/health", func(ctx *gin.Context) {
		redisStatus := "disabled"
		if cache.Enabled() {
			redisStatus = "ok"
			if err := cache.Ping(ctx.Request.Context()); err != nil {
				shared.RequestLog(ctx).Warnw("health_redis_ping_failed", "error", err)
				redisStatus = "unavailable"
			}
		}
		response.Success(ctx, "Server is running", gin.H{"status": "ok", "redis": redisStatus})
	})
	if c.Metrics != nil {
		r.GET(metricsPath(cfg.Metrics.Path), gin.WrapH(c.Metrics.Handler()))
	}

	requireUser := UserJWTAuthMiddleware(c.UserAuthService)
	requireAdmin := AdminRBACMiddleware(c.AuthzService)

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.GET("/captcha", publicHandler.GetCaptcha)
			auth.POST("/register", publicHandler.Register)
			auth.POST("/login", RateLimitMiddleware(cache.Client(), loginRule, KeyByIPAndJSONField("email")), publicHandler.Login)
			auth.GET("/me", requireUser, publicHandler.Me)
			auth.PUT("/update-profile", requireUser, publicHandler.UpdateProfile)
			auth.PUT("/change-password", requireUser, publicHandler.ChangePassword)
			auth.GET("/login-logs", requireUser, publicHandler.MyLoginLogs)
		}

		products := api.Group("/products")
		{
			products.GET("", publicHandler.ListProducts)
			products.GET("/featured", publicHandler.FeaturedProducts)
			products.GET("/:id", publicHandler.GetProduct)
			products.GET("/:id/reviews", publicHandler.ListProductReviews)
			products.POST("/:id/reviews", requireUser, publicHandler.CreateReview)

			products.POST("", requireUser, requireAdmin, adminHandler.CreateProduct)
			products.PUT("/:id", requireUser, requireAdmin, adminHandler.UpdateProduct)
			products.DELETE("/:id", requireUser, requireAdmin, adminHandler.DeleteProduct)
			products.POST("/:id/images", requireUser, requireAdmin, adminHandler.UploadProductImages)
		}

		api.DELETE("/reviews/:id", requireUser, publicHandler.DeleteReview)

		categories := api.Group("/categories")
		{
			categories.GET("", publicHandler.ListCategories)
			categories.POST("", requireUser, requireAdmin, adminHandler.CreateCategory)
			categories.PUT("/:id", requireUser, requireAdmin, adminHandler.UpdateCategory)
			categories.DELETE("/:id", requireUser, requireAdmin, adminHandler.DeleteCategory)
		}

		cart := api.Group("/cart", requireUser)
		{
			cart.GET("", publicHandler.GetCart)
			cart.DELETE("", publicHandler.ClearCart)
			cart.POST("/items", publicHandler.AddCartItem)
			cart.PUT("/items/:productId", publicHandler.UpdateCartItem)
			cart.DELETE("/items/:productId", publicHandler.RemoveCartItem)
		}

		orders := api.Group("/orders", requireUser)
		{
			orders.POST("", publicHandler.CreateOrder)
			orders.GET("/my-orders", publicHandler.MyOrders)
			orders.GET("/admin/all", requireAdmin, adminHandler.ListAllOrders)
			orders.GET("/admin/export", requireAdmin, adminHandler.ExportOrders)
			orders.GET("/:id", publicHandler.GetOrder)
			orders.PUT("/:id/status", requireAdmin, adminHandler.UpdateOrderStatus)
		}
	}

	r.NoRoute(NoRouteHandler)

	return r
}

func uploadPublicPath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return "/uploads"
	}
	return "/" + strings.Trim(path, "/")
}

func metricsPath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return "/metrics"
	}
	return "/" + strings.Trim(path, "/")
}
