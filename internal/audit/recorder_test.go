package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/servicelane/servicelane-backend/pkg/config"
	"github.com/servicelane/servicelane-backend/pkg/db/models"
	"github.com/servicelane/servicelane-backend/pkg/enums"
	"github.com/servicelane/servicelane-backend/pkg/logger"
	"github.com/servicelane/servicelane-backend/pkg/pagination"
)

type stubAuditRepo struct {
	mu      sync.Mutex
	entries []*models.AuditLog
	err     error
	block   chan struct{}
}

func (s *stubAuditRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubAuditRepo) Create(ctx context.Context, entry *models.AuditLog) error {
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.entries = append(s.entries, entry)
	return nil
}

func (s *stubAuditRepo) List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.AuditLog, error) {
	return nil, nil
}

func (s *stubAuditRepo) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *stubAuditRepo) last() *models.AuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) == 0 {
		return nil
	}
	return s.entries[len(s.entries)-1]
}

func testAuditConfig() config.AuditConfig {
	return config.AuditConfig{
		QueueSize:    8,
		WriteTimeout: time.Second,
		DrainTimeout: 2 * time.Second,
	}
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	return logger.New(logger.Options{ServiceName: "audit-test"})
}

func TestRecorderPersistsEvent(t *testing.T) {
	repo := &stubAuditRepo{}
	rec, err := NewRecorder(repo, testLogger(t), nil, testAuditConfig())
	if err != nil {
		t.Fatalf("NewRecorder returned error: %v", err)
	}

	actorID := uuid.New()
	entityID := uuid.New()
	rec.Record(context.Background(), Event{
		Action:     enums.AuditActionCreate,
		EntityType: enums.AuditEntityJobOrder,
		EntityID:   &entityID,
		ActorID:    actorID,
		Outcome:    enums.AuditOutcomeSuccess,
		Details:    map[string]any{"order_number": "JO-20250310-1a2b3c"},
	})

	if err := rec.Close(context.Background()); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	if repo.count() != 1 {
		t.Fatalf("expected 1 entry, got %d", repo.count())
	}
	entry := repo.last()
	if entry.ActorID != actorID {
		t.Fatalf("actor id mismatch: got %s, want %s", entry.ActorID, actorID)
	}
	if entry.Action != enums.AuditActionCreate {
		t.Fatalf("unexpected action %s", entry.Action)
	}
	if len(entry.Details) == 0 {
		t.Fatal("expected serialized details")
	}
}

func TestRecorderSwallowsWriteFailures(t *testing.T) {
	repo := &stubAuditRepo{err: errors.New("insert failed")}
	rec, err := NewRecorder(repo, testLogger(t), nil, testAuditConfig())
	if err != nil {
		t.Fatalf("NewRecorder returned error: %v", err)
	}

	rec.Record(context.Background(), Event{
		Action:     enums.AuditActionDelete,
		EntityType: enums.AuditEntityCatalogItem,
		ActorID:    uuid.New(),
		Outcome:    enums.AuditOutcomeFailed,
	})

	if err := rec.Close(context.Background()); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if repo.count() != 0 {
		t.Fatalf("expected no persisted entries, got %d", repo.count())
	}
}

func TestRecorderDropsWhenQueueFull(t *testing.T) {
	block := make(chan struct{})
	repo := &stubAuditRepo{block: block}

	cfg := testAuditConfig()
	cfg.QueueSize = 1
	rec, err := NewRecorder(repo, testLogger(t), nil, cfg)
	if err != nil {
		t.Fatalf("NewRecorder returned error: %v", err)
	}

	// The writer blocks on the first event; the queue holds one more, and
	// anything past that must be dropped without blocking the caller.
	for i := 0; i < 5; i++ {
		rec.Record(context.Background(), Event{
			Action:     enums.AuditActionUpdate,
			EntityType: enums.AuditEntityPricingRule,
			ActorID:    uuid.New(),
			Outcome:    enums.AuditOutcomeSuccess,
		})
	}

	close(block)
	if err := rec.Close(context.Background()); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if repo.count() > 2 {
		t.Fatalf("expected at most 2 persisted entries, got %d", repo.count())
	}
}

func TestRecorderRequiresDependencies(t *testing.T) {
	if _, err := NewRecorder(nil, testLogger(t), nil, testAuditConfig()); err == nil {
		t.Fatal("expected error for nil repository")
	}
	if _, err := NewRecorder(&stubAuditRepo{}, nil, nil, testAuditConfig()); err == nil {
		t.Fatal("expected error for nil logger")
	}
}

func TestRecordAfterCloseDropsEvent(t *testing.T) {
	repo := &stubAuditRepo{}
	rec, err := NewRecorder(repo, testLogger(t), nil, testAuditConfig())
	if err != nil {
		t.Fatalf("NewRecorder returned error: %v", err)
	}

	if err := rec.Close(context.Background()); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("Record panicked after Close: %v", r)
		}
	}()
	rec.Record(context.Background(), Event{
		Action:     enums.AuditActionCreate,
		EntityType: enums.AuditEntityJobOrder,
		ActorID:    uuid.New(),
		Outcome:    enums.AuditOutcomeSuccess,
	})

	if repo.count() != 0 {
		t.Fatalf("expected no entries after close, got %d", repo.count())
	}

	// Close is idempotent.
	if err := rec.Close(context.Background()); err != nil {
		t.Fatalf("second Close returned error: %v", err)
	}
}
