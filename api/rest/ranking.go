package rest

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/turnbattle/cache"
	mw "github.com/kasuganosora/turnbattle/middleware"
	"github.com/kasuganosora/turnbattle/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const rankingZKey = "ranking:wins"

// RankingHandler handles the wins leaderboard.
type RankingHandler struct {
	db     *gorm.DB
	cache  cache.Cache
	top    int
	logger *zap.Logger
}

// NewRankingHandler creates a RankingHandler keeping the top parties.
func NewRankingHandler(db *gorm.DB, c cache.Cache, top int, logger *zap.Logger) *RankingHandler {
	if top <= 0 {
		top = 100
	}
	return &RankingHandler{db: db, cache: c, top: top, logger: logger}
}

// RankEntry is one row in the leaderboard.
type RankEntry struct {
	Rank  int    `json:"rank"`
	Party string `json:"party"`
	Wins  int64  `json:"wins"`
}

// RecordWin bumps party's score after a won battle.
func (h *RankingHandler) RecordWin(ctx context.Context, party string) error {
	_, err := h.cache.ZIncrBy(ctx, rankingZKey, 1, party)
	return err
}

// TopWins returns the parties with the most wins.
// GET /api/ranking/wins?limit=20
func (h *RankingHandler) TopWins(c *gin.Context) {
	limit := 20
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 && l <= h.top {
		limit = l
	}

	// Try cached ranking from sorted set.
	ctx := c.Request.Context()
	members, err := h.cache.ZRevRange(ctx, rankingZKey, 0, int64(limit-1))
	if err == nil && len(members) > 0 {
		entries := make([]RankEntry, 0, len(members))
		for i, m := range members {
			score, err := h.cache.ZScore(ctx, rankingZKey, m)
			if err != nil {
				continue
			}
			entries = append(entries, RankEntry{Rank: i + 1, Party: m, Wins: int64(score)})
		}
		c.JSON(http.StatusOK, gin.H{"ranking": entries, "source": "cache"})
		return
	}

	// Fall back to DB query and refill the cache.
	rows, err := h.winsFromDB(ctx, limit)
	if err != nil {
		mw.RequestLogger(c, h.logger).Error("ranking query", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	entries := make([]RankEntry, len(rows))
	for i, row := range rows {
		entries[i] = RankEntry{Rank: i + 1, Party: row.Party, Wins: row.Wins}
		_ = h.cache.ZAdd(ctx, rankingZKey, float64(row.Wins), row.Party)
	}
	c.JSON(http.StatusOK, gin.H{"ranking": entries, "source": "db"})
}

// Refresh rebuilds the ranking sorted set from battle_records and returns the
// number of parties ranked. The scheduler calls it periodically.
func (h *RankingHandler) Refresh(ctx context.Context) (int, error) {
	rows, err := h.winsFromDB(ctx, h.top)
	if err != nil {
		return 0, err
	}
	if err := h.cache.Del(ctx, rankingZKey); err != nil {
		return 0, fmt.Errorf("clear ranking: %w", err)
	}
	for _, row := range rows {
		if err := h.cache.ZAdd(ctx, rankingZKey, float64(row.Wins), row.Party); err != nil {
			return 0, fmt.Errorf("rank %s: %w", row.Party, err)
		}
	}
	return len(rows), nil
}

// RefreshRanking exposes Refresh as POST /api/admin/ranking/refresh.
func (h *RankingHandler) RefreshRanking(c *gin.Context) {
	n, err := h.Refresh(c.Request.Context())
	if err != nil {
		mw.RequestLogger(c, h.logger).Error("ranking refresh", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "refresh failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"refreshed": n})
}

func (h *RankingHandler) winsFromDB(ctx context.Context, limit int) ([]model.PartyWins, error) {
	var rows []model.PartyWins
	err := h.db.WithContext(ctx).Model(&model.BattleRecord{}).
		Select("party, COUNT(*) AS wins").
		Where("result = ?", model.BattleResultWin).
		Group("party").
		Order("wins DESC, party ASC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}
