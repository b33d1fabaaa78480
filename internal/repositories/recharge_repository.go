package repositories

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"tradepost/internal/models"
)

type RechargeRepository struct {
	DB *sql.DB
}

func (r *RechargeRepository) Create(ctx context.Context, task models.RechargeTask) (models.RechargeTask, error) {
	task.ID = uuid.NewString()
	task.Status = models.RechargeStatusPending
	task.CreatedAt = time.Now()
	task.UpdatedAt = task.CreatedAt
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO recharge_tasks (id, user_id, amount, voucher_url, status, remind_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, task.ID, task.UserID, task.Amount, task.VoucherURL, task.Status, task.RemindCount, task.CreatedAt, task.UpdatedAt)
	if err != nil {
		return models.RechargeTask{}, err
	}
	return task, nil
}

func (r *RechargeRepository) FindByID(ctx context.Context, id string) (models.RechargeTask, error) {
	var task models.RechargeTask
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, user_id, amount, voucher_url, status, remind_count, created_at, updated_at
		FROM recharge_tasks WHERE id = $1
	`, id).Scan(&task.ID, &task.UserID, &task.Amount, &task.VoucherURL, &task.Status, &task.RemindCount, &task.CreatedAt, &task.UpdatedAt)
	if err == sql.ErrNoRows {
		return models.RechargeTask{}, models.ErrTaskNotFound
	}
	if err != nil {
		return models.RechargeTask{}, err
	}
	return task, nil
}

func (r *RechargeRepository) Update(ctx context.Context, task models.RechargeTask) error {
	task.UpdatedAt = time.Now()
	result, err := r.DB.ExecContext(ctx, `
		UPDATE recharge_tasks
		SET status = $1, remind_count = $2, created_at = $3, updated_at = $4
		WHERE id = $5
	`, task.Status, task.RemindCount, task.CreatedAt, task.UpdatedAt, task.ID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return models.ErrTaskNotFound
	}
	return nil
}

func (r *RechargeRepository) FindPending(ctx context.Context) ([]models.RechargeTask, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, user_id, amount, voucher_url, status, remind_count, created_at, updated_at
		FROM recharge_tasks WHERE status = 'pending'
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []models.RechargeTask
	for rows.Next() {
		var task models.RechargeTask
		if err := rows.Scan(&task.ID, &task.UserID, &task.Amount, &task.VoucherURL, &task.Status, &task.RemindCount, &task.CreatedAt, &task.UpdatedAt); err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

type MemoryRechargeRepository struct {
	mu    sync.RWMutex
	tasks map[string]models.RechargeTask
}

func NewMemoryRechargeRepository() *MemoryRechargeRepository {
	return &MemoryRechargeRepository{tasks: make(map[string]models.RechargeTask)}
}

func (r *MemoryRechargeRepository) Create(ctx context.Context, task models.RechargeTask) (models.RechargeTask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	task.ID = uuid.NewString()
	task.Status = models.RechargeStatusPending
	task.CreatedAt = time.Now()
	task.UpdatedAt = task.CreatedAt
	r.tasks[task.ID] = task
	return task, nil
}

func (r *MemoryRechargeRepository) FindByID(ctx context.Context, id string) (models.RechargeTask, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	task, ok := r.tasks[id]
	if !ok {
		return models.RechargeTask{}, models.ErrTaskNotFound
	}
	return task, nil
}

func (r *MemoryRechargeRepository) Update(ctx context.Context, task models.RechargeTask) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[task.ID]; !ok {
		return models.ErrTaskNotFound
	}
	task.UpdatedAt = time.Now()
	r.tasks[task.ID] = task
	return nil
}

func (r *MemoryRechargeRepository) FindPending(ctx context.Context) ([]models.RechargeTask, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var pending []models.RechargeTask
	for _, task := range r.tasks {
		if task.Status == models.RechargeStatusPending {
			pending = append(pending, task)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].CreatedAt.Before(pending[j].CreatedAt) })
	return pending, nil
}
