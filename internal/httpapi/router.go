// Package httpapi is the REST transport over the project service.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/alexanderramin/tranche/internal/service"
)

// API holds the handler dependencies.
type API struct {
	projects service.ProjectService
	accounts service.AccountService
	logger   *zap.Logger
	now      func() time.Time
}

type Options struct {
	Projects  service.ProjectService
	Accounts  service.AccountService
	Logger    *zap.Logger
	JWTSecret string
	JWTIssuer string
	// Metrics is mounted on /metrics when set.
	Metrics http.Handler
	Now     func() time.Time
}

func NewRouter(opts Options) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	a := &API{
		projects: opts.Projects,
		accounts: opts.Accounts,
		logger:   opts.Logger,
		now:      opts.Now,
	}
	if a.logger == nil {
		a.logger = zap.NewNop()
	}
	if a.now == nil {
		a.now = func() time.Time { return time.Now().UTC() }
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(a.logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics))
	}

	api := r.Group("/api")
	api.GET("/projects", a.listProjects)
	api.GET("/projects/:id", a.getProject)
	api.GET("/projects/:id/milestones", a.getMilestones)
	api.GET("/stats/overview", a.statsOverview)
	api.GET("/accounts/:address", a.getAccount)

	auth := api.Group("/")
	auth.Use(AuthMiddleware(opts.JWTSecret, opts.JWTIssuer))
	{
		auth.POST("/projects", a.createProject)
		auth.POST("/projects/:id/deposit", a.deposit)
		auth.POST("/projects/:id/withdraw", a.withdraw)
		auth.POST("/projects/:id/milestones/:index/complete", a.completeMilestone)
		auth.POST("/projects/:id/milestones/:index/approve", a.approveMilestone)
	}
	return r
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		logger.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
