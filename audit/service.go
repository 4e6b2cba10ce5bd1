package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/kasuganosora/turnbattle/model"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	queueSize     = 1024
	batchSize     = 100
	flushInterval = 2 * time.Second
)

// AuditEntry holds one submitted command to be logged.
type AuditEntry struct {
	BattleID   string
	Turn       int
	ActorIndex int
	ActorName  string
	Action     string
	Request    interface{}
	Error      string
	Duration   time.Duration
}

// Service writes audit entries asynchronously in batches and battle records
// synchronously.
type Service struct {
	db     *gorm.DB
	ch     chan *model.AuditLog
	stopCh chan struct{}
	stop   sync.Once
	wg     sync.WaitGroup
	logger *zap.Logger
}

// New creates a new audit Service and starts its background worker.
func New(db *gorm.DB, logger *zap.Logger) *Service {
	svc := &Service{
		db:     db,
		ch:     make(chan *model.AuditLog, queueSize),
		stopCh: make(chan struct{}),
		logger: logger,
	}
	svc.wg.Add(1)
	go svc.worker()
	return svc
}

// Log enqueues an audit entry for async DB write.
func (svc *Service) Log(entry AuditEntry) {
	reqJSON, _ := json.Marshal(entry.Request)
	row := &model.AuditLog{
		BattleID:   entry.BattleID,
		Turn:       entry.Turn,
		ActorIndex: entry.ActorIndex,
		ActorName:  entry.ActorName,
		Action:     entry.Action,
		Request:    datatypes.JSON(reqJSON),
		Error:      entry.Error,
		DurationMs: int(entry.Duration / time.Millisecond),
	}
	select {
	case svc.ch <- row:
	default:
		svc.logger.Warn("audit channel full, dropping entry",
			zap.String("battle_id", entry.BattleID),
			zap.String("action", entry.Action))
	}
}

// SaveBattle writes a finished battle and returns once the row is stored, so
// anything derived from battle_records afterwards includes it.
func (svc *Service) SaveBattle(ctx context.Context, rec *model.BattleRecord) error {
	if err := svc.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("save battle %s: %w", rec.ID, err)
	}
	return nil
}

// Stop flushes remaining entries and shuts down the worker.
// It blocks until the worker goroutine has finished.
func (svc *Service) Stop(_ context.Context) {
	svc.stop.Do(func() { close(svc.stopCh) })
	svc.wg.Wait()
}

func (svc *Service) worker() {
	defer svc.wg.Done()
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	batch := make([]*model.AuditLog, 0, batchSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := svc.db.Create(&batch).Error; err != nil {
			svc.logger.Error("audit batch write failed", zap.Int("rows", len(batch)), zap.Error(err))
		}
		batch = batch[:0]
	}

	for {
		select {
		case entry := <-svc.ch:
			batch = append(batch, entry)
			if len(batch) >= batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-svc.stopCh:
			// Drain remaining entries.
			for {
				select {
				case entry := <-svc.ch:
					batch = append(batch, entry)
				default:
					flush()
					return
				}
			}
		}
	}
}
