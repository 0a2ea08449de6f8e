package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/servicelane/servicelane-backend/pkg/config"
	"github.com/servicelane/servicelane-backend/pkg/db/models"
	"github.com/servicelane/servicelane-backend/pkg/enums"
	"github.com/servicelane/servicelane-backend/pkg/logger"
	"github.com/servicelane/servicelane-backend/pkg/metrics"
)

// Event is one auditable action. Details is optional free-form context and is
// serialized to jsonb.
type Event struct {
	Action     enums.AuditAction
	EntityType enums.AuditEntityType
	EntityID   *uuid.UUID
	ActorID    uuid.UUID
	BranchID   *uuid.UUID
	Outcome    enums.AuditOutcome
	Details    map[string]any
}

// Recorder accepts audit events and persists them asynchronously. Recording
// never blocks or fails the calling operation: when the queue is full the
// event is dropped and counted.
type Recorder interface {
	Record(ctx context.Context, event Event)
	Close(ctx context.Context) error
}

type recorder struct {
	repo    Repository
	logg    *logger.Logger
	metrics *metrics.AuditMetrics
	cfg     config.AuditConfig

	queue chan Event
	done  chan struct{}

	mu     sync.Mutex
	closed bool
}

// NewRecorder starts the background writer and returns the recorder. Close
// must be called on shutdown to drain buffered events.
func NewRecorder(repo Repository, logg *logger.Logger, m *metrics.AuditMetrics, cfg config.AuditConfig) (Recorder, error) {
	if repo == nil {
		return nil, fmt.Errorf("audit repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = 10 * time.Second
	}

	r := &recorder{
		repo:    repo,
		logg:    logg,
		metrics: m,
		cfg:     cfg,
		queue:   make(chan Event, cfg.QueueSize),
		done:    make(chan struct{}),
	}
	go r.run()
	return r, nil
}

func (r *recorder) Record(ctx context.Context, event Event) {
	// The mutex orders Record against Close so an event arriving during or
	// after shutdown is dropped instead of sending on a closed channel.
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		r.metrics.IncDropped()
		r.logg.Warn(ctx, fmt.Sprintf("audit recorder closed, dropping %s %s event", event.Action, event.EntityType))
		return
	}
	select {
	case r.queue <- event:
		r.mu.Unlock()
		r.metrics.IncEnqueued(event.Outcome.String())
		r.metrics.SetQueueDepth(len(r.queue))
	default:
		r.mu.Unlock()
		r.metrics.IncDropped()
		r.logg.Warn(ctx, fmt.Sprintf("audit queue full, dropping %s %s event", event.Action, event.EntityType))
	}
}

// Close stops accepting events and drains the queue. Events still buffered
// when the drain timeout elapses are dropped and counted.
func (r *recorder) Close(ctx context.Context) error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()

	select {
	case <-r.done:
		return nil
	case <-time.After(r.cfg.DrainTimeout):
		return fmt.Errorf("audit recorder drain timed out after %s", r.cfg.DrainTimeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *recorder) run() {
	defer close(r.done)

	for event := range r.queue {
		r.metrics.SetQueueDepth(len(r.queue))
		r.write(event)
	}
}

func (r *recorder) write(event Event) {
	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.WriteTimeout)
	defer cancel()

	entry := &models.AuditLog{
		Action:     event.Action,
		EntityType: event.EntityType,
		EntityID:   event.EntityID,
		ActorID:    event.ActorID,
		BranchID:   event.BranchID,
		Outcome:    event.Outcome,
	}
	if len(event.Details) > 0 {
		raw, err := json.Marshal(event.Details)
		if err != nil {
			r.logg.Warn(ctx, fmt.Sprintf("audit details not serializable for %s %s", event.Action, event.EntityType))
		} else {
			entry.Details = raw
		}
	}

	if err := r.repo.Create(ctx, entry); err != nil {
		r.metrics.IncWriteFailure()
		r.logg.Error(ctx, "audit write failed", err)
	}
}
