package provider

import (
	"github.com/acrilgoods-next/internal/cache"
	"github.com/acrilgoods-next/internal/config"
	"github.com/acrilgoods-next/internal/logger"
	"github.com/acrilgoods-next/internal/models"
	"github.com/acrilgoods-next/internal/queue"
	"github.com/acrilgoods-next/internal/repository"
	"github.com/acrilgoods-next/internal/service"
)

// Container wires repositories and services for handlers and workers.
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	UserRepo        repository.UserRepository
	ProductRepo     repository.ProductRepository
	CartRepo        repository.CartRepository
	OrderRepo       repository.OrderRepository
	PaymentRepo     repository.PaymentRepository
	PointLedgerRepo repository.PointLedgerRepository

	// Services
	AuthService    *service.AuthService
	PricingService *service.PricingService
	ProductService *service.ProductService
	CartService    *service.CartService
	PointsService  *service.PointsService
	OrderService   *service.OrderService
}

// NewContainer initializes the container.
func NewContainer(cfg *config.Config) *Container {
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	c.initRepositories()
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.UserRepo = repository.NewUserRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.CartRepo = repository.NewCartRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.PaymentRepo = repository.NewPaymentRepository(db)
	c.PointLedgerRepo = repository.NewPointLedgerRepository(db)
}

func (c *Container) initServices() {
	db := models.DB
	c.AuthService = service.NewAuthService(c.UserRepo, c.Config.UserJWT)
	c.PricingService = service.NewPricingService()
	c.ProductService = service.NewProductService(c.ProductRepo, c.PricingService)
	c.CartService = service.NewCartService(db, c.CartRepo, c.ProductRepo, c.PricingService)
	c.PointsService = service.NewPointsService(db, c.PointLedgerRepo, c.Config.Points)
	c.OrderService = service.NewOrderService(
		db,
		c.OrderRepo,
		c.CartRepo,
		c.ProductRepo,
		c.PaymentRepo,
		c.PricingService,
		c.PointsService,
		c.QueueClient,
		c.Config.Order,
	)
}
