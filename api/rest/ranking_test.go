package rest_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/kasuganosora/turnbattle/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedWins(t *testing.T, env *testEnv) {
	t.Helper()
	env.addRecord(t, "1", "heroes", model.BattleResultWin)
	env.addRecord(t, "2", "heroes", model.BattleResultWin)
	env.addRecord(t, "3", "rogues", model.BattleResultWin)
	env.addRecord(t, "4", "rogues", model.BattleResultLose)
	env.addRecord(t, "5", "mages", model.BattleResultLose)
}

func rankingParties(t *testing.T, resp map[string]interface{}) []string {
	t.Helper()
	var parties []string
	for _, e := range resp["ranking"].([]interface{}) {
		parties = append(parties, e.(map[string]interface{})["party"].(string))
	}
	return parties
}

func TestRanking_TopWins_FromDBThenCache(t *testing.T) {
	env := newTestEnv(t, "")
	seedWins(t, env)

	w := env.do(http.MethodGet, "/api/ranking/wins", "")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Equal(t, "db", resp["source"])
	assert.Equal(t, []string{"heroes", "rogues"}, rankingParties(t, resp))
	first := resp["ranking"].([]interface{})[0].(map[string]interface{})
	assert.EqualValues(t, 1, first["rank"])
	assert.EqualValues(t, 2, first["wins"])

	resp = decode(t, env.do(http.MethodGet, "/api/ranking/wins", ""))
	assert.Equal(t, "cache", resp["source"])
	assert.Equal(t, []string{"heroes", "rogues"}, rankingParties(t, resp))
}

func TestRanking_RecordWin(t *testing.T) {
	env := newTestEnv(t, "")
	ctx := context.Background()
	require.NoError(t, env.rank.RecordWin(ctx, "mages"))
	require.NoError(t, env.rank.RecordWin(ctx, "mages"))
	require.NoError(t, env.rank.RecordWin(ctx, "heroes"))

	resp := decode(t, env.do(http.MethodGet, "/api/ranking/wins?limit=1", ""))
	assert.Equal(t, []string{"mages"}, rankingParties(t, resp))
}

func TestRanking_RefreshRebuildsFromDB(t *testing.T) {
	env := newTestEnv(t, "")
	seedWins(t, env)
	ctx := context.Background()
	require.NoError(t, env.rank.RecordWin(ctx, "ghost"))

	n, err := env.rank.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	resp := decode(t, env.do(http.MethodGet, "/api/ranking/wins", ""))
	assert.Equal(t, []string{"heroes", "rogues"}, rankingParties(t, resp), "stale members are dropped")
}
