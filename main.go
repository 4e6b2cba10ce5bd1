package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apirest "github.com/kasuganosora/turnbattle/api/rest"
	"github.com/kasuganosora/turnbattle/api/sse"
	"github.com/kasuganosora/turnbattle/audit"
	"github.com/kasuganosora/turnbattle/cache"
	"github.com/kasuganosora/turnbattle/config"
	dbadapter "github.com/kasuganosora/turnbattle/db"
	"github.com/kasuganosora/turnbattle/game/battle"
	"github.com/kasuganosora/turnbattle/game/console"
	"github.com/kasuganosora/turnbattle/game/roster"
	"github.com/kasuganosora/turnbattle/model"
	"github.com/kasuganosora/turnbattle/scheduler"
	"go.uber.org/zap"
)

func main() {
	cfgPath := "config/config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---- Logger ----
	var logger *zap.Logger
	var logErr error
	if cfg.Server.Debug {
		logger, logErr = zap.NewDevelopment()
	} else {
		logger, logErr = zap.NewProduction()
	}
	if logErr != nil {
		log.Fatalf("logger: %v", logErr)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Error("battle aborted", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- Database ----
	db, err := dbadapter.Open(cfg.Database)
	if err != nil {
		return err
	}
	if err := model.AutoMigrate(db); err != nil {
		return fmt.Errorf("db migrate: %w", err)
	}
	logger.Info("DB initialized", zap.String("mode", cfg.Database.Mode))

	// ---- Audit ----
	auditSvc := audit.New(db, logger)
	defer auditSvc.Stop(context.Background())

	// ---- Cache / PubSub ----
	c, err := cache.NewCache(cfg.Cache)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	pubsub, err := cache.NewPubSub(cfg.Cache)
	if err != nil {
		return fmt.Errorf("pubsub: %w", err)
	}
	logger.Info("Cache initialized", zap.Bool("redis", cfg.Cache.RedisAddr != ""))

	// ---- Scheduler ----
	sched := scheduler.New(logger)
	defer sched.Stop()

	rankH := apirest.NewRankingHandler(db, c, cfg.Ranking.Top, logger)
	if err := sched.Every("ranking_refresh", cfg.Ranking.RefreshInterval, true, func(ctx context.Context) error {
		n, err := rankH.Refresh(ctx)
		if err == nil {
			logger.Debug("ranking refreshed", zap.Int("parties", n))
		}
		return err
	}); err != nil {
		return err
	}

	// ---- Records API ----
	if cfg.Server.Port > 0 {
		if !cfg.Server.Debug {
			gin.SetMode(gin.ReleaseMode)
		}
		if cfg.Server.AdminKey == "" {
			logger.Warn("server.admin_key is not set; admin endpoints are disabled")
		}
		r, err := apirest.NewRouter(ctx, cfg, apirest.Deps{
			DB: db, Cache: c, PubSub: pubsub, Sched: sched, Ranking: rankH, Logger: logger,
		})
		if err != nil {
			return err
		}
		srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Server.Port), Handler: r}
		go func() {
			logger.Info("Server listening", zap.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("server", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	// ---- Battle ----
	var line *roster.Roster
	if cfg.Battle.RosterPath != "" {
		if line, err = roster.Load(cfg.Battle.RosterPath); err != nil {
			return err
		}
	} else {
		line = roster.Default()
	}

	battleID := uuid.NewString()
	rng, seed := battle.NewSource(cfg.Battle.Seed)
	blog := logger.With(zap.String("battle_id", battleID))

	term := console.New(os.Stdin, os.Stdout, cfg.Battle.EnemyActionDelay)
	defer term.Close()
	publisher := sse.NewPublisher(ctx, pubsub, c, battleID, blog)
	events := battle.NewEventLog(publisher.Publish)

	b, err := battle.New(battle.Config{
		Players:        line.Players,
		Enemies:        line.Enemies,
		ItemHealAmount: cfg.Battle.ItemHealAmount,
		ItemMaxCount:   cfg.Battle.ItemMaxCount,
		Presenter:      battle.Presenters(term, events),
		RNG:            rng,
		Logger:         blog,
	})
	if err != nil {
		return err
	}
	blog.Info("battle ready", zap.String("party", line.Party), zap.Int64("seed", seed))

	startedAt := time.Now()
	_, runErr := b.Run(ctx, audit.NewCommandLogger(auditSvc, battleID, b, term))

	rec, err := audit.NewBattleRecord(audit.BattleSummary{
		ID:        battleID,
		Party:     line.Party,
		Seed:      seed,
		StartedAt: startedAt,
		EndedAt:   time.Now(),
		State:     b.State(),
		ItemsUsed: b.ItemsUsed(),
		Events:    events.Events(),
	})
	if err != nil {
		return err
	}
	saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := finishBattle(saveCtx, auditSvc, rankH, line.Party, rec); err != nil {
		blog.Warn("battle result not fully stored", zap.Error(err))
	}
	blog.Info("battle finished", zap.String("result", rec.Result), zap.Int("turns", rec.Turns))

	if runErr != nil && !errors.Is(runErr, context.Canceled) && !errors.Is(runErr, io.EOF) && !errors.Is(runErr, console.ErrClosed) {
		return runErr
	}
	return nil
}

type battleStore interface {
	SaveBattle(ctx context.Context, rec *model.BattleRecord) error
}

type winRecorder interface {
	RecordWin(ctx context.Context, party string) error
}

// finishBattle stores rec, then credits a win to party. The record goes first
// so a ranking refresh rebuilt from battle_records never drops the win.
func finishBattle(ctx context.Context, store battleStore, ranks winRecorder, party string, rec *model.BattleRecord) error {
	if err := store.SaveBattle(ctx, rec); err != nil {
		return err
	}
	if rec.Result != model.BattleResultWin {
		return nil
	}
	if err := ranks.RecordWin(ctx, party); err != nil {
		return fmt.Errorf("record win for %s: %w", party, err)
	}
	return nil
}
