package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"tradepost/internal/events"
	"tradepost/internal/models"
)

// rechargeRemindTimeout is how long a top-up may sit pending before the
// sweep nudges an administrator again.
const rechargeRemindTimeout = 30 * time.Minute

type RechargeRepository interface {
	Create(ctx context.Context, task models.RechargeTask) (models.RechargeTask, error)
	FindByID(ctx context.Context, id string) (models.RechargeTask, error)
	Update(ctx context.Context, task models.RechargeTask) error
	FindPending(ctx context.Context) ([]models.RechargeTask, error)
}

type RechargeService struct {
	RechargeRepo RechargeRepository
	Ledger       *LedgerService
	Events       *events.Bus
	ErrorLog     *log.Logger
}

func (s *RechargeService) Request(ctx context.Context, userID string, amount int, voucherURL string) (models.RechargeTask, error) {
	if amount <= 0 {
		return models.RechargeTask{}, models.NewValidationError("amount", "must be positive")
	}
	return s.RechargeRepo.Create(ctx, models.RechargeTask{
		UserID:     userID,
		Amount:     amount,
		VoucherURL: voucherURL,
	})
}

// Approve credits the requested amount to the user. Only a pending task can
// be approved, so a repeated approval can never credit twice.
func (s *RechargeService) Approve(ctx context.Context, taskID, adminID string) error {
	task, err := s.RechargeRepo.FindByID(ctx, taskID)
	if err != nil {
		return err
	}
	if task.Status != models.RechargeStatusPending {
		return models.ErrTaskNotPending
	}
	task.Status = models.RechargeStatusApproved
	if err := s.RechargeRepo.Update(ctx, task); err != nil {
		return err
	}
	return s.Ledger.Credit(ctx, task.UserID, task.Amount,
		fmt.Sprintf("recharge approved by %s", adminID), task.ID)
}

func (s *RechargeService) Reject(ctx context.Context, taskID, adminID string) error {
	task, err := s.RechargeRepo.FindByID(ctx, taskID)
	if err != nil {
		return err
	}
	if task.Status != models.RechargeStatusPending {
		return models.ErrTaskNotPending
	}
	task.Status = models.RechargeStatusRejected
	return s.RechargeRepo.Update(ctx, task)
}

func (s *RechargeService) Pending(ctx context.Context) ([]models.RechargeTask, error) {
	return s.RechargeRepo.FindPending(ctx)
}

// RemindPending nudges administrators about tasks that have sat pending past
// the reminder timeout. Each reminded task gets its remind count bumped and
// its clock restarted so the next reminder is another full timeout away. A
// task that fails to update is logged and skipped.
func (s *RechargeService) RemindPending(ctx context.Context, now time.Time) (int, error) {
	pending, err := s.RechargeRepo.FindPending(ctx)
	if err != nil {
		return 0, err
	}

	reminded := 0
	for _, task := range pending {
		if now.Sub(task.CreatedAt) < rechargeRemindTimeout {
			continue
		}
		if s.Events != nil {
			s.Events.Emit(events.RechargeReminder, events.Payload{
				"task_id": task.ID,
				"user_id": task.UserID,
			})
		}
		task.RemindCount++
		task.CreatedAt = now
		if err := s.RechargeRepo.Update(ctx, task); err != nil {
			if s.ErrorLog != nil {
				s.ErrorLog.Printf("recharge task %s: reminder update failed: %v", task.ID, err)
			}
			continue
		}
		reminded++
	}
	return reminded, nil
}
