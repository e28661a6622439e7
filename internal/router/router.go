package router

import (
	"time"

	"drawerledger/internal/config"
	"drawerledger/internal/handler"
	"drawerledger/internal/middleware"
	"drawerledger/internal/repository"
	"drawerledger/internal/service"
	"drawerledger/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, dispatcher *worker.Dispatcher) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	operatorRepo := repository.NewOperatorRepository(db)
	drawerRepo := repository.NewDrawerRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(operatorRepo, cfg)
	cache := service.NewSummaryCache(rdb)
	drawerSvc := service.NewDrawerService(drawerRepo, cache, dispatcher)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	drawerH := handler.NewDrawerHandler(drawerSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		operate := middleware.RequireRole("cashier", "supervisor", "admin")

		drawer := v1.Group("/drawer")
		{
			drawer.POST("/open", operate, drawerH.Open)
			drawer.POST("/close", operate, drawerH.Close)
			drawer.POST("/cash", operate, drawerH.AddCash)
			drawer.POST("/sale", operate, drawerH.RecordSale())
			drawer.POST("/return", operate, drawerH.RecordReturn())
			drawer.POST("/expense", operate, drawerH.RecordExpense())
			drawer.POST("/supplier-payment", operate, drawerH.RecordSupplierPayment())
			drawer.POST("/debt-collection", operate, drawerH.RecordDebtCollection())
			drawer.POST("/salary-withdrawal", operate, drawerH.RecordSalaryWithdrawal())
			drawer.POST("/adjust", middleware.RequireRole("supervisor", "admin"), drawerH.Adjust)
			drawer.POST("/entries/:id/void", middleware.RequireRole("supervisor", "admin"), drawerH.VoidEntry)
			drawer.GET("/active", operate, drawerH.Active)
			drawer.GET("/history", middleware.RequireRole("supervisor", "admin"), drawerH.History)
			drawer.GET("/:id/snapshot", operate, drawerH.Snapshot)
			drawer.GET("/:id/summary", operate, drawerH.Summary)
			drawer.GET("/:id/entries", operate, drawerH.Entries)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
