package services

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/howufeel/howufeel/internal/models"
)

// SnapshotStore 快照写入端
type SnapshotStore interface {
	CreateBatch(snapshots []models.AnalyticsSnapshot) error
}

// SnapshotWriter 批量防抖快照写入器：
// 满 batchSize 立即落库，否则等 flushInterval 到点统一落库
type SnapshotWriter struct {
	store     SnapshotStore
	logger    *zap.Logger
	batchSize int
	interval  time.Duration

	mu  sync.Mutex
	buf []models.AnalyticsSnapshot

	stop chan struct{}
	done chan struct{}
}

// NewSnapshotWriter 创建快照写入器并启动后台刷盘协程
func NewSnapshotWriter(store SnapshotStore, logger *zap.Logger, batchSize int, interval time.Duration) *SnapshotWriter {
	if batchSize <= 0 {
		batchSize = 50
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}
	w := &SnapshotWriter{
		store:     store,
		logger:    logger,
		batchSize: batchSize,
		interval:  interval,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	go w.run()
	return w
}

// Enqueue 追加一条快照；攒够一批立即异步落库
func (w *SnapshotWriter) Enqueue(snapshot models.AnalyticsSnapshot) {
	w.mu.Lock()
	w.buf = append(w.buf, snapshot)
	full := len(w.buf) >= w.batchSize
	w.mu.Unlock()

	if full {
		w.Flush()
	}
}

// Flush 立即写出缓冲中的快照
func (w *SnapshotWriter) Flush() {
	w.mu.Lock()
	if len(w.buf) == 0 {
		w.mu.Unlock()
		return
	}
	batch := w.buf
	w.buf = nil
	w.mu.Unlock()

	if err := w.store.CreateBatch(batch); err != nil {
		w.logger.Error("failed to write analytics snapshots",
			zap.Int("count", len(batch)),
			zap.Error(err),
		)
		return
	}
	w.logger.Debug("analytics snapshots written", zap.Int("count", len(batch)))
}

func (w *SnapshotWriter) run() {
	defer close(w.done)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			w.Flush()
		case <-w.stop:
			w.Flush()
			return
		}
	}
}

// Stop 停止写入器并刷出剩余快照
func (w *SnapshotWriter) Stop() {
	close(w.stop)
	<-w.done
}
