package db

import (
	"fmt"

	"github.com/kasuganosora/turnbattle/config"
	dbmysql "github.com/kasuganosora/turnbattle/db/mysql"
	dbsqlite "github.com/kasuganosora/turnbattle/db/sqlite"
	"gorm.io/gorm"
)

const (
	ModeSQLite = "sqlite"
	ModeMySQL  = "mysql"
)

// Open returns a *gorm.DB for the configured database mode.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	switch cfg.Mode {
	case ModeSQLite:
		db, err := dbsqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("db: open sqlite %s: %w", cfg.SQLitePath, err)
		}
		return db, nil
	case ModeMySQL:
		db, err := dbmysql.Open(cfg.MySQLDSN, cfg.MySQLMaxOpen, cfg.MySQLMaxIdle, cfg.MySQLMaxLife)
		if err != nil {
			return nil, fmt.Errorf("db: open mysql: %w", err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("db: unknown mode %q", cfg.Mode)
	}
}
