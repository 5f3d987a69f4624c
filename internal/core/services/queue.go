package services

import (
	"context"
	"sync"

	"github.com/concierge-hq/concierge/internal/core/domain"
	"github.com/concierge-hq/concierge/internal/core/ports/driving"
	"github.com/concierge-hq/concierge/internal/logger"
)

var _ driving.SyncQueue = (*SyncQueue)(nil)

const (
	defaultQueueWorkers = 2
	defaultQueueDepth   = 32
)

// SyncJob is one queued sync request.
type SyncJob struct {
	UserID   string
	Provider domain.Provider
	Force    bool
}

// SyncQueue runs sync jobs on a fixed worker pool, decoupled from the
// request path that triggered them. Job errors are logged and
// swallowed; a sync failure never reaches the caller.
type SyncQueue struct {
	engine driving.SyncEngine
	jobs   chan SyncJob

	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup
}

// NewSyncQueue starts workers goroutines consuming a queue of the
// given depth. Non-positive values fall back to defaults.
func NewSyncQueue(engine driving.SyncEngine, workers, depth int) *SyncQueue {
	if workers <= 0 {
		workers = defaultQueueWorkers
	}
	if depth <= 0 {
		depth = defaultQueueDepth
	}

	q := &SyncQueue{
		engine: engine,
		jobs:   make(chan SyncJob, depth),
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	return q
}

// Submit enqueues a sync job without blocking. Returns false if the
// queue is full or stopped; the job is dropped in that case.
func (q *SyncQueue) Submit(userID string, provider domain.Provider, force bool) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.stopped {
		return false
	}

	select {
	case q.jobs <- SyncJob{UserID: userID, Provider: provider, Force: force}:
		return true
	default:
		logger.Warn("Sync queue full, dropping job for %s/%s", userID, provider)
		return false
	}
}

// Stop drains queued jobs and waits for the workers to finish. Safe to
// call more than once.
func (q *SyncQueue) Stop() {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return
	}
	q.stopped = true
	close(q.jobs)
	q.mu.Unlock()

	q.wg.Wait()
}

func (q *SyncQueue) worker() {
	defer q.wg.Done()
	for job := range q.jobs {
		if err := q.engine.Sync(context.Background(), job.UserID, job.Provider, job.Force); err != nil {
			logger.Warn("Background sync failed for %s/%s: %v", job.UserID, job.Provider, err)
		}
	}
}
