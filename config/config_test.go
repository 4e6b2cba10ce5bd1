package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Mode)
	assert.Equal(t, 20, cfg.Battle.ItemHealAmount)
	assert.Equal(t, 5, cfg.Battle.ItemMaxCount)
	assert.Equal(t, 1500*time.Millisecond, cfg.Battle.EnemyActionDelay)
	assert.Equal(t, time.Minute, cfg.Ranking.RefreshInterval)
	assert.Equal(t, 100, cfg.Ranking.Top)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  admin_key: secret
battle:
  roster_path: ./roster.yaml
  seed: 42
  item_max_count: 3
  enemy_action_delay: 0s
cache:
  redis_addr: localhost:6379
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "secret", cfg.Server.AdminKey)
	assert.Equal(t, "./roster.yaml", cfg.Battle.RosterPath)
	assert.Equal(t, int64(42), cfg.Battle.Seed)
	assert.Equal(t, 3, cfg.Battle.ItemMaxCount)
	assert.Equal(t, 20, cfg.Battle.ItemHealAmount)
	assert.Equal(t, time.Duration(0), cfg.Battle.EnemyActionDelay)
	assert.Equal(t, "localhost:6379", cfg.Cache.RedisAddr)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("TURNBATTLE_BATTLE_SEED", "7")
	path := writeConfig(t, "battle:\n  seed: 1\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(7), cfg.Battle.Seed)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	path := writeConfig(t, `
database:
  mode: oracle
battle:
  item_max_count: -1
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.mode")
	assert.Contains(t, err.Error(), "battle.item_max_count")
}

func TestValidate_PortProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		cfg, err := Load("")
		if err != nil {
			rt.Fatal(err)
		}
		cfg.Server.Port = rapid.IntRange(0, 65535).Draw(rt, "port")
		if err := cfg.Validate(); err != nil {
			rt.Fatalf("valid port rejected: %v", err)
		}
		cfg.Server.Port = rapid.OneOf(rapid.IntRange(-1000, -1), rapid.IntRange(65536, 100000)).Draw(rt, "bad_port")
		if cfg.Validate() == nil {
			rt.Fatalf("port %d accepted", cfg.Server.Port)
		}
	})
}

func TestLoad_AdminIPs(t *testing.T) {
	cfg, err := Load(writeConfig(t, "security:\n  admin_ips: [\"10.0.0.0/8\", \"::1\"]\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.0/8", "::1"}, cfg.Security.AdminIPs)

	_, err = Load(writeConfig(t, "security:\n  admin_ips: [\"localhost\"]\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"localhost" is not an IP or CIDR`)
}

func TestLoad_ShippedConfig(t *testing.T) {
	cfg, err := Load("config.yaml")
	require.NoError(t, err)
	assert.Equal(t, "config/roster.yaml", cfg.Battle.RosterPath)
	assert.Equal(t, "sqlite", cfg.Database.Mode)
}
