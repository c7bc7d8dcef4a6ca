package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/ghorbari/ghorbari/internal/domain"
	"github.com/ghorbari/ghorbari/internal/metrics"
)

// Auditor is an alias for the canonical domain.Auditor interface.
type Auditor = domain.Auditor

// AuditEnqueuer enqueues audit jobs for asynchronous recording.
type AuditEnqueuer interface {
	Enqueue(job *AuditJob)
}

// AuditJob is one audit entry waiting to be written.
type AuditJob struct {
	Action     string
	EntityType string
	EntityID   string
	Actor      string
	Detail     map[string]any
}

// AuditWorker takes audit writes off the request path. Handlers enqueue
// and move on; a single goroutine drains the channel into the store. A
// full queue drops entries rather than slowing negotiations down.
type AuditWorker struct {
	auditor Auditor
	log     *logrus.Logger
	jobs    chan *AuditJob
}

// NewAuditWorker creates an AuditWorker with the given queue capacity.
func NewAuditWorker(auditor Auditor, log *logrus.Logger, queueSize int) *AuditWorker {
	if queueSize <= 0 {
		queueSize = 1000
	}
	return &AuditWorker{
		auditor: auditor,
		log:     log,
		jobs:    make(chan *AuditJob, queueSize),
	}
}

// Enqueue adds a job without blocking. Dropped jobs are logged.
func (w *AuditWorker) Enqueue(job *AuditJob) {
	select {
	case w.jobs <- job:
		metrics.AuditQueueDepth.Set(float64(len(w.jobs)))
	default:
		w.log.WithField("action", job.Action).Warn("audit queue full, dropping entry")
	}
}

// Run writes queued jobs until ctx is cancelled, then flushes whatever is
// still buffered before returning.
func (w *AuditWorker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.flush()
			return
		case job := <-w.jobs:
			w.write(job)
		}
	}
}

// flush drains the remaining queue during shutdown.
func (w *AuditWorker) flush() {
	for {
		select {
		case job := <-w.jobs:
			w.write(job)
		default:
			return
		}
	}
}

// write records one job. Uses a fresh context: the request that produced
// the job is long gone, and shutdown flushing must still be able to write.
func (w *AuditWorker) write(job *AuditJob) {
	metrics.AuditQueueDepth.Set(float64(len(w.jobs)))

	if err := w.auditor.RecordAudit(
		context.Background(), job.Action, job.EntityType, job.EntityID, job.Actor, job.Detail,
	); err != nil {
		w.log.WithError(err).Warn("audit record failed")
	}
}

// auditAsync enqueues an audit entry if a worker is configured.
func auditAsync(w AuditEnqueuer, action, entityType, entityID, actor string, detail map[string]any) {
	if w == nil {
		return
	}

	w.Enqueue(&AuditJob{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Actor:      actor,
		Detail:     detail,
	})
}
