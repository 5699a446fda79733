package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vlaamswoordenboek/woordenboek/internal/domain/entity"
	"github.com/vlaamswoordenboek/woordenboek/internal/domain/event"
)

// CountSource supplies per-state article counts
type CountSource interface {
	CountByState(ctx context.Context) ([]entity.StateCount, error)
}

// CountSink receives refreshed counts, e.g. a metrics gauge
type CountSink interface {
	ObserveStateCounts(counts []entity.StateCount)
}

// QueueCounterConfig holds configuration for the queue counter
type QueueCounterConfig struct {
	Interval time.Duration
}

// DefaultQueueCounterConfig returns default configuration
func DefaultQueueCounterConfig() QueueCounterConfig {
	return QueueCounterConfig{Interval: 30 * time.Second}
}

// QueueCounter keeps a cached copy of the per-state article counts shown as the
// editorial badge. It refreshes on an interval and as soon as a lifecycle event
// arrives; readers always get the last snapshot without touching the database.
type QueueCounter struct {
	config QueueCounterConfig
	source CountSource
	sinks  []CountSink
	logger *zap.Logger

	refresh chan struct{}

	mu        sync.RWMutex
	counts    []entity.StateCount
	refreshed time.Time
	isRunning bool
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewQueueCounter creates a new queue counter
func NewQueueCounter(config QueueCounterConfig, source CountSource, logger *zap.Logger, sinks ...CountSink) *QueueCounter {
	if config.Interval <= 0 {
		config.Interval = DefaultQueueCounterConfig().Interval
	}
	return &QueueCounter{
		config:  config,
		source:  source,
		sinks:   sinks,
		logger:  logger,
		refresh: make(chan struct{}, 1),
	}
}

// Start loads the counts once and begins the refresh loop
func (q *QueueCounter) Start(ctx context.Context) error {
	q.mu.Lock()
	if q.isRunning {
		q.mu.Unlock()
		return fmt.Errorf("queue counter already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	q.cancel = cancel
	q.done = make(chan struct{})
	q.isRunning = true
	q.mu.Unlock()

	q.Refresh(runCtx)

	go q.loop(runCtx, q.done)

	q.logger.Info("QueueCounter started", zap.Duration("interval", q.config.Interval))
	return nil
}

// Stop terminates the refresh loop and waits for it to exit
func (q *QueueCounter) Stop() error {
	q.mu.Lock()
	if !q.isRunning {
		q.mu.Unlock()
		return nil
	}
	q.isRunning = false
	cancel, done := q.cancel, q.done
	q.mu.Unlock()

	cancel()
	<-done

	q.logger.Info("QueueCounter stopped")
	return nil
}

// Name returns the worker name for identification
func (q *QueueCounter) Name() string {
	return "QueueCounter"
}

// Trigger requests an out-of-band refresh; it never blocks
func (q *QueueCounter) Trigger() {
	select {
	case q.refresh <- struct{}{}:
	default:
	}
}

// HandleEvent is a dispatcher handler that schedules a refresh
func (q *QueueCounter) HandleEvent(_ context.Context, _ *event.Event) error {
	q.Trigger()
	return nil
}

// Snapshot returns the cached counts and when they were loaded.
// ok is false until the first successful refresh.
func (q *QueueCounter) Snapshot() (counts []entity.StateCount, refreshed time.Time, ok bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.refreshed.IsZero() {
		return nil, time.Time{}, false
	}
	out := make([]entity.StateCount, len(q.counts))
	copy(out, q.counts)
	return out, q.refreshed, true
}

// Refresh reloads the counts synchronously. Errors keep the previous snapshot.
func (q *QueueCounter) Refresh(ctx context.Context) {
	counts, err := q.source.CountByState(ctx)
	if err != nil {
		q.logger.Error("Failed to refresh article counts", zap.Error(err))
		return
	}

	q.mu.Lock()
	q.counts = counts
	q.refreshed = time.Now()
	q.mu.Unlock()

	for _, sink := range q.sinks {
		sink.ObserveStateCounts(counts)
	}
}

func (q *QueueCounter) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(q.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			q.Refresh(ctx)
		case <-q.refresh:
			q.Refresh(ctx)
		}
	}
}
