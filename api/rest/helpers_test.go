package rest_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/turnbattle/api/rest"
	"github.com/kasuganosora/turnbattle/cache"
	"github.com/kasuganosora/turnbattle/config"
	"github.com/kasuganosora/turnbattle/model"
	"github.com/kasuganosora/turnbattle/scheduler"
	"github.com/kasuganosora/turnbattle/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func nopLogger() *zap.Logger { l, _ := zap.NewDevelopment(); return l }

type testEnv struct {
	db    *gorm.DB
	cache cache.Cache
	r     *gin.Engine
	rank  *rest.RankingHandler
	sched *scheduler.Scheduler
}

func newTestEnv(t *testing.T, adminKey string) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.SetupTestDB(t)
	c, ps := testutil.SetupTestCache(t)
	sched := scheduler.New(nopLogger())
	t.Cleanup(sched.Stop)

	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Server.AdminKey = adminKey

	rank := rest.NewRankingHandler(db, c, cfg.Ranking.Top, nopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	r, err := rest.NewRouter(ctx, cfg, rest.Deps{
		DB: db, Cache: c, PubSub: ps, Sched: sched, Ranking: rank, Logger: nopLogger(),
	})
	require.NoError(t, err)
	return &testEnv{db: db, cache: c, r: r, rank: rank, sched: sched}
}

var recordClock = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func (e *testEnv) addRecord(t *testing.T, id, party, result string) {
	t.Helper()
	recordClock = recordClock.Add(time.Minute)
	require.NoError(t, e.db.Create(&model.BattleRecord{
		ID:        id,
		Party:     party,
		Result:    result,
		Turns:     3,
		Players:   datatypes.JSON(`[]`),
		Enemies:   datatypes.JSON(`[]`),
		Events:    datatypes.JSON(`[{"type":"battle_start"}]`),
		StartedAt: recordClock.Add(-time.Minute),
		EndedAt:   recordClock,
	}).Error)
}

func (e *testEnv) do(method, path, adminKey string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(""))
	if adminKey != "" {
		req.Header.Set("X-Admin-Key", adminKey)
	}
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

