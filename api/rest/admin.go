package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	mw "github.com/kasuganosora/turnbattle/middleware"
	"github.com/kasuganosora/turnbattle/model"
	"github.com/kasuganosora/turnbattle/scheduler"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AdminHandler handles admin-only REST endpoints.
// Routes should be protected by AdminAuth middleware.
type AdminHandler struct {
	db     *gorm.DB
	sched  *scheduler.Scheduler
	logger *zap.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(db *gorm.DB, sched *scheduler.Scheduler, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{db: db, sched: sched, logger: logger}
}

// Metrics returns battle counts per result.
// GET /api/admin/metrics
func (h *AdminHandler) Metrics(c *gin.Context) {
	var rows []struct {
		Result string
		N      int64
	}
	err := h.db.WithContext(c.Request.Context()).Model(&model.BattleRecord{}).
		Select("result, COUNT(*) AS n").Group("result").Scan(&rows).Error
	if err != nil {
		mw.RequestLogger(c, h.logger).Error("metrics query", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	byResult := map[string]int64{
		model.BattleResultWin:     0,
		model.BattleResultLose:    0,
		model.BattleResultAborted: 0,
	}
	var total int64
	for _, r := range rows {
		byResult[r.Result] = r.N
		total += r.N
	}
	c.JSON(http.StatusOK, gin.H{
		"battles":         total,
		"by_result":       byResult,
		"scheduler_tasks": h.sched.Tasks(),
	})
}

// ListSchedulerTasks returns names of all registered periodic tasks.
// GET /api/admin/scheduler
func (h *AdminHandler) ListSchedulerTasks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tasks": h.sched.Tasks()})
}

// AdminAuth returns a middleware that checks the X-Admin-Key header.
// If adminKey is empty all admin endpoints answer 503, so the server cannot be
// deployed with them open by accident.
func AdminAuth(adminKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if adminKey == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable,
				gin.H{"error": "admin endpoints disabled: set server.admin_key in config"})
			return
		}
		if !mw.KeyMatches(c.GetHeader(mw.AdminKeyHeader), adminKey) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}
