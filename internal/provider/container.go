package provider

import (
	"github.com/lumipure-api/internal/authz"
	"github.com/lumipure-api/internal/cache"
	"github.com/lumipure-api/internal/config"
	"github.com/lumipure-api/internal/logger"
	"github.com/lumipure-api/internal/metrics"
	"github.com/lumipure-api/internal/models"
	"github.com/lumipure-api/internal/queue"
	"github.com/lumipure-api/internal/repository"
	"github.com/lumipure-api/internal/service"

	"gorm.io/gorm"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	Metrics     *metrics.Registry

	// Repositories
	UserRepo     repository.UserRepository
	CategoryRepo repository.CategoryRepository
	ProductRepo  repository.ProductRepository
	CartRepo     repository.CartRepository
	OrderRepo    repository.OrderRepository
	LoginLogRepo repository.UserLoginLogRepository
	ReviewRepo   repository.ReviewRepository

	// Services
	AuthzService    *authz.Service
	AssetStore      service.AssetStore
	CaptchaService  *service.CaptchaService
	UserAuthService *service.UserAuthService
	EmailService    *service.EmailService
	CategoryService *service.CategoryService
	ProductService  *service.ProductService
	CartService     *service.CartService
	OrderService    *service.OrderService
	ReviewService   *service.ReviewService
	LoginLogService *service.UserLoginLogService
}

// NewContainer 初始化容器，使用全局数据库连接
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	var registry *metrics.Registry
	if cfg.Metrics.Enabled {
		registry = metrics.New(cfg.Metrics.Namespace)
	}

	c, err := Build(cfg, models.DB, queueClient, registry)
	if err != nil {
		logger.Errorw("provider_init_failed", "error", err)
		panic(err)
	}
	return c
}

// Build 基于给定连接组装依赖，测试可直接传入内存数据库
func Build(cfg *config.Config, db *gorm.DB, queueClient *queue.Client, registry *metrics.Registry) (*Container, error) {
	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
		Metrics:     registry,
	}

	// 1. 初始化 Repositories
	c.initRepositories(db)

	// 2. 初始化 Services
	if err := c.initServices(db); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Container) initRepositories(db *gorm.DB) {
	c.UserRepo = repository.NewUserRepository(db)
	c.CategoryRepo = repository.NewCategoryRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.CartRepo = repository.NewCartRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.ReviewRepo = repository.NewReviewRepository(db)
	c.LoginLogRepo = repository.NewUserLoginLogRepository(db)
}

func (c *Container) initServices(db *gorm.DB) error {
	authzService, err := authz.NewService(db)
	if err != nil {
		return err
	}
	if err := authzService.BootstrapBuiltinRoles(); err != nil {
		return err
	}
	c.AuthzService = authzService

	c.AssetStore = service.NewAssetStore(c.Config.Upload)
	c.CaptchaService = service.NewCaptchaService(c.Config.Captcha)
	c.UserAuthService = service.NewUserAuthService(c.Config, c.UserRepo, c.CaptchaService)
	c.EmailService = service.NewEmailService(&c.Config.Email)
	c.CategoryService = service.NewCategoryService(c.CategoryRepo)
	c.ProductService = service.NewProductService(c.Config, c.ProductRepo, c.CategoryRepo, c.AssetStore)
	c.CartService = service.NewCartService(c.CartRepo, c.ProductRepo)
	c.OrderService = service.NewOrderService(c.Config, c.OrderRepo, c.ProductRepo, c.CartRepo, c.QueueClient, c.Metrics)
	c.ReviewService = service.NewReviewService(c.ReviewRepo, c.ProductRepo, c.OrderRepo)
	c.LoginLogService = service.NewUserLoginLogService(c.LoginLogRepo, c.UserRepo)
	return nil
}

// Close 释放队列客户端与缓存连接
func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	if err := c.QueueClient.Close(); err != nil {
		logger.Warnw("provider_close_queue_client_failed", "error", err)
	}
	return cache.Close()
}
