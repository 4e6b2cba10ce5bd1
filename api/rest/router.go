package rest

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/turnbattle/api/sse"
	"github.com/kasuganosora/turnbattle/cache"
	"github.com/kasuganosora/turnbattle/config"
	mw "github.com/kasuganosora/turnbattle/middleware"
	"github.com/kasuganosora/turnbattle/scheduler"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// Deps are the services the records API reads from.
type Deps struct {
	DB      *gorm.DB
	Cache   cache.Cache
	PubSub  cache.PubSub
	Sched   *scheduler.Scheduler
	Ranking *RankingHandler
	Logger  *zap.Logger
}

// NewRouter wires the read-only records API. ctx bounds the rate limiter's
// background sweep.
func NewRouter(ctx context.Context, cfg *config.Config, d Deps) (*gin.Engine, error) {
	whitelist, err := mw.IPWhitelist(cfg.Security.AdminIPs)
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(mw.TraceID(), mw.Logger(d.Logger), mw.Recovery(d.Logger))
	r.Use(mw.RateLimit(ctx, rate.Limit(cfg.Security.RateLimitRPS), cfg.Security.RateLimitBurst))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	battleH := NewBattleHandler(d.DB, d.Cache, d.Logger)
	adminH := NewAdminHandler(d.DB, d.Sched, d.Logger)
	rankH := d.Ranking
	if rankH == nil {
		rankH = NewRankingHandler(d.DB, d.Cache, cfg.Ranking.Top, d.Logger)
	}

	api := r.Group("/api")
	{
		api.GET("/battles", battleH.List)
		api.GET("/battles/:id", battleH.Detail)
		api.GET("/ranking/wins", rankH.TopWins)

		adminG := api.Group("/admin")
		adminG.Use(whitelist, AdminAuth(cfg.Server.AdminKey))
		adminG.GET("/metrics", adminH.Metrics)
		adminG.GET("/scheduler", adminH.ListSchedulerTasks)
		adminG.POST("/ranking/refresh", rankH.RefreshRanking)
	}

	sseH := sse.NewHandler(d.PubSub, d.Cache, d.Logger)
	r.GET("/sse/battles/:id", sseH.ServeBattle)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
	return r, nil
}
