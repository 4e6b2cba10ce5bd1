package rest

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/turnbattle/api/sse"
	"github.com/kasuganosora/turnbattle/cache"
	mw "github.com/kasuganosora/turnbattle/middleware"
	"github.com/kasuganosora/turnbattle/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// BattleHandler serves the battle history.
type BattleHandler struct {
	db     *gorm.DB
	cache  cache.Cache
	logger *zap.Logger
}

// NewBattleHandler creates a BattleHandler.
func NewBattleHandler(db *gorm.DB, c cache.Cache, logger *zap.Logger) *BattleHandler {
	return &BattleHandler{db: db, cache: c, logger: logger}
}

// List returns recent battles, newest first, without their event logs.
// GET /api/battles?limit=20&party=heroes&result=win
func (h *BattleHandler) List(c *gin.Context) {
	limit := defaultListLimit
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 && l <= maxListLimit {
		limit = l
	}

	q := h.db.WithContext(c.Request.Context()).Model(&model.BattleRecord{}).Omit("events")
	if party := c.Query("party"); party != "" {
		q = q.Where("party = ?", party)
	}
	switch result := c.Query("result"); result {
	case "":
	case model.BattleResultWin, model.BattleResultLose, model.BattleResultAborted:
		q = q.Where("result = ?", result)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "result must be win, lose or aborted"})
		return
	}

	var records []model.BattleRecord
	if err := q.Order("ended_at DESC").Limit(limit).Find(&records).Error; err != nil {
		mw.RequestLogger(c, h.logger).Error("list battles", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"battles": records, "count": len(records)})
}

// Detail returns one finished battle with its event log. A battle that is
// still running is answered from its live state.
// GET /api/battles/:id
func (h *BattleHandler) Detail(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	var rec model.BattleRecord
	err := h.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"battle": rec, "live": false})
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		mw.RequestLogger(c, h.logger).Error("load battle", zap.String("battle_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}

	raw, err := h.cache.Get(ctx, sse.LiveKey(id))
	if err != nil {
		if !cache.IsNotFound(err) {
			mw.RequestLogger(c, h.logger).Warn("load live battle", zap.String("battle_id", id), zap.Error(err))
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "battle not found"})
		return
	}
	c.Header("Content-Type", "application/json; charset=utf-8")
	c.String(http.StatusOK, `{"battle":%s,"live":true}`, raw)
}
