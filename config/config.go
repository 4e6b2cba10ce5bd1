package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Battle   BattleConfig   `mapstructure:"battle"`
	Ranking  RankingConfig  `mapstructure:"ranking"`
	Security SecurityConfig `mapstructure:"security"`
}

type ServerConfig struct {
	Port     int    `mapstructure:"port"` // 0 disables the records API
	Debug    bool   `mapstructure:"debug"`
	AdminKey string `mapstructure:"admin_key"`
}

type DatabaseConfig struct {
	Mode         string        `mapstructure:"mode"` // sqlite | mysql
	SQLitePath   string        `mapstructure:"sqlite_path"`
	MySQLDSN     string        `mapstructure:"mysql_dsn"`
	MySQLMaxOpen int           `mapstructure:"mysql_max_open"`
	MySQLMaxIdle int           `mapstructure:"mysql_max_idle"`
	MySQLMaxLife time.Duration `mapstructure:"mysql_max_life"`
}

type CacheConfig struct {
	RedisAddr       string        `mapstructure:"redis_addr"` // empty = in-process cache
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
	LocalGCInterval time.Duration `mapstructure:"local_gc_interval"`
	LocalPubSubBuf  int           `mapstructure:"local_pubsub_buf"`
}

type BattleConfig struct {
	RosterPath       string        `mapstructure:"roster_path"` // empty = built-in line-up
	Seed             int64         `mapstructure:"seed"`        // 0 = time-seeded
	ItemHealAmount   int           `mapstructure:"item_heal_amount"`
	ItemMaxCount     int           `mapstructure:"item_max_count"`
	EnemyActionDelay time.Duration `mapstructure:"enemy_action_delay"`
}

type RankingConfig struct {
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	Top             int           `mapstructure:"top"`
}

type SecurityConfig struct {
	RateLimitRPS   float64  `mapstructure:"rate_limit_rps"`
	RateLimitBurst int      `mapstructure:"rate_limit_burst"`
	AdminIPs       []string `mapstructure:"admin_ips"` // IPs or CIDRs; empty = any
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 0)
	v.SetDefault("server.debug", false)
	v.SetDefault("database.mode", "sqlite")
	v.SetDefault("database.sqlite_path", "./data/battles.db")
	v.SetDefault("database.mysql_max_open", 50)
	v.SetDefault("database.mysql_max_idle", 10)
	v.SetDefault("database.mysql_max_life", "1h")
	v.SetDefault("cache.local_gc_interval", "30s")
	v.SetDefault("cache.local_pubsub_buf", 256)
	v.SetDefault("battle.seed", 0)
	v.SetDefault("battle.item_heal_amount", 20)
	v.SetDefault("battle.item_max_count", 5)
	v.SetDefault("battle.enemy_action_delay", "1.5s")
	v.SetDefault("ranking.refresh_interval", "1m")
	v.SetDefault("ranking.top", 100)
	v.SetDefault("security.rate_limit_rps", 100)
	v.SetDefault("security.rate_limit_burst", 200)
}

// Load reads config from the given YAML file path. An empty path yields the
// defaults. TURNBATTLE_* environment variables override file values, e.g.
// TURNBATTLE_BATTLE_SEED=42.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("turnbattle")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []string
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 0-65535, got %d", c.Server.Port))
	}
	switch c.Database.Mode {
	case "sqlite":
		if c.Database.SQLitePath == "" {
			errs = append(errs, "database.sqlite_path is required for sqlite mode")
		}
	case "mysql":
		if c.Database.MySQLDSN == "" {
			errs = append(errs, "database.mysql_dsn is required for mysql mode")
		}
	default:
		errs = append(errs, fmt.Sprintf("database.mode must be sqlite or mysql, got %q", c.Database.Mode))
	}
	if c.Battle.ItemHealAmount < 0 {
		errs = append(errs, "battle.item_heal_amount must be >= 0")
	}
	if c.Battle.ItemMaxCount < 0 {
		errs = append(errs, "battle.item_max_count must be >= 0")
	}
	if c.Battle.EnemyActionDelay < 0 {
		errs = append(errs, "battle.enemy_action_delay must be >= 0")
	}
	if c.Ranking.Top <= 0 {
		errs = append(errs, "ranking.top must be > 0")
	}
	if c.Security.RateLimitRPS <= 0 || c.Security.RateLimitBurst <= 0 {
		errs = append(errs, "security.rate_limit_rps and rate_limit_burst must be > 0")
	}
	for _, entry := range c.Security.AdminIPs {
		if net.ParseIP(entry) == nil {
			if _, _, err := net.ParseCIDR(entry); err != nil {
				errs = append(errs, fmt.Sprintf("security.admin_ips: %q is not an IP or CIDR", entry))
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(errs, "; "))
	}
	return nil
}
