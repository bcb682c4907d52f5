package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"carrental/internal/infra/config"
	"carrental/internal/infra/obs"
)

type DraftHTTP interface {
	Open(c *gin.Context)
	Get(c *gin.Context)
	SetDates(c *gin.Context)
	Submit(c *gin.Context)
}

type QuoteHTTP interface {
	Compute(c *gin.Context)
}

type PaymentHTTP interface {
	List(c *gin.Context)
	Complete(c *gin.Context)
}

type RefundHTTP interface {
	Request(c *gin.Context)
}

type ImageHTTP interface {
	Upload(c *gin.Context)
}

type Handlers struct {
	Drafts         DraftHTTP
	Quote          QuoteHTTP
	Payments       PaymentHTTP
	Refunds        RefundHTTP
	Images         ImageHTTP
	Metrics        gin.HandlerFunc
	AuthMiddleware gin.HandlerFunc
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(cfg, obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func NewRouter(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.AccessLog())
	router.Use(cors.New(corsConfig(cfg.CORSOrigins)))
	if h.AuthMiddleware != nil {
		router.Use(h.AuthMiddleware)
	}

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)
	if h.Metrics != nil {
		router.GET("/metrics", h.Metrics)
	}

	api := router.Group("/api/v1")
	if h.Quote != nil {
		api.GET("/quote", h.Quote.Compute)
	}
	if h.Drafts != nil {
		drafts := api.Group("/drafts")
		drafts.POST("", h.Drafts.Open)
		drafts.GET("/:id", h.Drafts.Get)
		drafts.PUT("/:id/dates", h.Drafts.SetDates)
		drafts.POST("/:id/submit", h.Drafts.Submit)
	}
	if h.Payments != nil {
		api.GET("/payments", h.Payments.List)
		api.POST("/payments/:id/complete", h.Payments.Complete)
	}
	if h.Refunds != nil {
		api.POST("/payments/:id/refund", h.Refunds.Request)
	}
	if h.Images != nil {
		api.POST("/admin/images", h.Images.Upload)
	}
	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug", "local":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
