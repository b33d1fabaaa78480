package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"tradepost/internal/events"
	"tradepost/internal/models"
	"tradepost/internal/repositories"
)

type recordedEvent struct {
	name    string
	payload events.Payload
}

func newRecordingBus() (*events.Bus, *[]recordedEvent) {
	bus := events.NewBus()
	var recorded []recordedEvent
	bus.SubscribeAll(func(event string, payload events.Payload) {
		recorded = append(recorded, recordedEvent{name: event, payload: payload})
	})
	return bus, &recorded
}

func newTestRecharge() (*RechargeService, *LedgerService, *repositories.MemoryRechargeRepository, *[]recordedEvent) {
	ledger := newTestLedger()
	repo := repositories.NewMemoryRechargeRepository()
	bus, recorded := newRecordingBus()
	return &RechargeService{RechargeRepo: repo, Ledger: ledger, Events: bus}, ledger, repo, recorded
}

func TestRechargeApproveCreditsOnce(t *testing.T) {
	ctx := context.Background()
	svc, ledger, _, _ := newTestRecharge()

	task, err := svc.Request(ctx, "u1", 50, "https://vouchers/1.png")
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if task.Status != models.RechargeStatusPending {
		t.Fatalf("expected pending task, got %s", task.Status)
	}

	if err := svc.Approve(ctx, task.ID, "admin-1"); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	balance, _ := ledger.Balance(ctx, "u1")
	if balance != 50 {
		t.Fatalf("expected balance 50 after approval, got %d", balance)
	}

	history, _ := ledger.History(ctx, "u1")
	if len(history) != 1 || history[0].ReferenceID != task.ID {
		t.Fatalf("expected one credit referencing the task, got %+v", history)
	}

	// second approval must be rejected, not credited again
	if err := svc.Approve(ctx, task.ID, "admin-2"); !errors.Is(err, models.ErrTaskNotPending) {
		t.Fatalf("expected ErrTaskNotPending on re-approval, got %v", err)
	}
	balance, _ = ledger.Balance(ctx, "u1")
	if balance != 50 {
		t.Fatalf("re-approval must not double credit, balance %d", balance)
	}
}

func TestRechargeRejectHasNoLedgerEffect(t *testing.T) {
	ctx := context.Background()
	svc, ledger, _, _ := newTestRecharge()

	task, _ := svc.Request(ctx, "u1", 30, "https://vouchers/2.png")
	if err := svc.Reject(ctx, task.ID, "admin-1"); err != nil {
		t.Fatalf("Reject: %v", err)
	}
	balance, _ := ledger.Balance(ctx, "u1")
	if balance != 0 {
		t.Fatalf("reject must not credit, balance %d", balance)
	}
	if err := svc.Approve(ctx, task.ID, "admin-1"); !errors.Is(err, models.ErrTaskNotPending) {
		t.Fatalf("expected ErrTaskNotPending approving a rejected task, got %v", err)
	}
}

func TestRechargeApproveMissingTask(t *testing.T) {
	svc, _, _, _ := newTestRecharge()
	if err := svc.Approve(context.Background(), "missing", "admin-1"); !errors.Is(err, models.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestRechargeRequestValidatesAmount(t *testing.T) {
	svc, _, _, _ := newTestRecharge()
	var validation *models.ValidationError
	if _, err := svc.Request(context.Background(), "u1", 0, ""); !errors.As(err, &validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRechargePendingOrderedByCreation(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newTestRecharge()

	first, _ := svc.Request(ctx, "u1", 10, "")
	time.Sleep(2 * time.Millisecond)
	second, _ := svc.Request(ctx, "u2", 20, "")

	pending, err := svc.Pending(ctx)
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if len(pending) != 2 || pending[0].ID != first.ID || pending[1].ID != second.ID {
		t.Fatalf("expected createdAt ascending order, got %+v", pending)
	}
}

func TestRechargeRemindPending(t *testing.T) {
	ctx := context.Background()
	svc, _, repo, recorded := newTestRecharge()

	task, _ := svc.Request(ctx, "u1", 10, "")
	fresh, _ := svc.Request(ctx, "u2", 10, "")

	// only the task past the timeout is reminded
	now := time.Now()
	stale, _ := repo.FindByID(ctx, task.ID)
	stale.CreatedAt = now.Add(-31 * time.Minute)
	if err := repo.Update(ctx, stale); err != nil {
		t.Fatalf("Update: %v", err)
	}

	reminded, err := svc.RemindPending(ctx, now)
	if err != nil {
		t.Fatalf("RemindPending: %v", err)
	}
	if reminded != 1 {
		t.Fatalf("expected 1 reminder, got %d", reminded)
	}

	got, _ := repo.FindByID(ctx, task.ID)
	if got.RemindCount != 1 {
		t.Fatalf("expected remind count 1, got %d", got.RemindCount)
	}
	if !got.CreatedAt.Equal(now) {
		t.Fatalf("expected reminder to restart the task clock")
	}
	untouched, _ := repo.FindByID(ctx, fresh.ID)
	if untouched.RemindCount != 0 {
		t.Fatalf("fresh task must not be reminded")
	}

	count := 0
	for _, e := range *recorded {
		if e.name == events.RechargeReminder {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one reminder event, got %d", count)
	}
}

type failingUpdateRechargeRepo struct {
	*repositories.MemoryRechargeRepository
	failID string
}

func (r *failingUpdateRechargeRepo) Update(ctx context.Context, task models.RechargeTask) error {
	if task.ID == r.failID {
		return errors.New("store unavailable")
	}
	return r.MemoryRechargeRepository.Update(ctx, task)
}

func TestRechargeRemindPendingSkipsFailedUpdate(t *testing.T) {
	ctx := context.Background()
	memory := repositories.NewMemoryRechargeRepository()
	bus, _ := newRecordingBus()
	svc := &RechargeService{RechargeRepo: memory, Ledger: newTestLedger(), Events: bus}

	broken, _ := svc.Request(ctx, "u1", 10, "")
	healthy, _ := svc.Request(ctx, "u2", 10, "")

	now := time.Now()
	for _, id := range []string{broken.ID, healthy.ID} {
		task, _ := memory.FindByID(ctx, id)
		task.CreatedAt = now.Add(-31 * time.Minute)
		if err := memory.Update(ctx, task); err != nil {
			t.Fatalf("Update: %v", err)
		}
	}

	svc.RechargeRepo = &failingUpdateRechargeRepo{MemoryRechargeRepository: memory, failID: broken.ID}

	reminded, err := svc.RemindPending(ctx, now)
	if err != nil {
		t.Fatalf("RemindPending: %v", err)
	}
	if reminded != 1 {
		t.Fatalf("one broken task must not stop the sweep, reminded %d", reminded)
	}

	got, _ := memory.FindByID(ctx, healthy.ID)
	if got.RemindCount != 1 {
		t.Fatalf("expected the healthy task reminded, got count %d", got.RemindCount)
	}
}
