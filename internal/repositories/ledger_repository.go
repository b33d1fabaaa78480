package repositories

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"

	"tradepost/internal/models"
)

// LedgerRepository persists the append-only points log against Postgres.
// The check-and-apply of a deduction is serialized per user by locking the
// user row inside one transaction, so concurrent deducts can never both
// observe a stale balance.
type LedgerRepository struct {
	DB *sql.DB
}

func (r *LedgerRepository) AddTransaction(ctx context.Context, entry models.PointTransaction) (models.PointTransaction, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return models.PointTransaction{}, err
	}
	defer tx.Rollback()

	// First-touch: an unknown user starts at zero points.
	_, err = tx.ExecContext(ctx,
		`INSERT INTO users (id, points, status, created_at, updated_at)
		 VALUES ($1, 0, 'active', NOW(), NOW())
		 ON CONFLICT (id) DO NOTHING`,
		entry.UserID,
	)
	if err != nil {
		return models.PointTransaction{}, err
	}

	var balance int
	err = tx.QueryRowContext(ctx,
		`SELECT points FROM users WHERE id = $1 FOR UPDATE`, entry.UserID,
	).Scan(&balance)
	if err != nil {
		return models.PointTransaction{}, err
	}

	balanceAfter := balance + entry.Amount
	if balanceAfter < 0 {
		return models.PointTransaction{}, models.ErrInsufficientBalance
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE users SET points = $1, updated_at = NOW() WHERE id = $2`,
		balanceAfter, entry.UserID,
	)
	if err != nil {
		return models.PointTransaction{}, err
	}

	entry.ID = uuid.NewString()
	entry.BalanceAfter = balanceAfter
	entry.CreatedAt = time.Now()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO point_transactions
			(id, user_id, amount, change_type, balance_after, description, reference_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8)`,
		entry.ID, entry.UserID, entry.Amount, entry.ChangeType,
		entry.BalanceAfter, entry.Description, entry.ReferenceID, entry.CreatedAt,
	)
	if err != nil {
		return models.PointTransaction{}, err
	}

	if err = tx.Commit(); err != nil {
		return models.PointTransaction{}, err
	}
	return entry, nil
}

func (r *LedgerRepository) GetBalance(ctx context.Context, userID string) (int, error) {
	var balance int
	err := r.DB.QueryRowContext(ctx,
		`SELECT points FROM users WHERE id = $1`, userID,
	).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return balance, nil
}

func (r *LedgerRepository) ListByUser(ctx context.Context, userID string) ([]models.PointTransaction, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, user_id, amount, change_type, balance_after, description, COALESCE(reference_id, ''), created_at
		 FROM point_transactions
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []models.PointTransaction
	for rows.Next() {
		var t models.PointTransaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Amount, &t.ChangeType, &t.BalanceAfter, &t.Description, &t.ReferenceID, &t.CreatedAt); err != nil {
			return nil, err
		}
		history = append(history, t)
	}
	return history, rows.Err()
}

// MemoryLedgerRepository keeps the ledger in process memory. One mutex
// covers the whole check-and-apply so a deduction can never interleave with
// another and drive a balance negative.
type MemoryLedgerRepository struct {
	mu           sync.Mutex
	balances     map[string]int
	transactions []models.PointTransaction
}

func NewMemoryLedgerRepository() *MemoryLedgerRepository {
	return &MemoryLedgerRepository{balances: make(map[string]int)}
}

func (r *MemoryLedgerRepository) AddTransaction(ctx context.Context, entry models.PointTransaction) (models.PointTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	balanceAfter := r.balances[entry.UserID] + entry.Amount
	if balanceAfter < 0 {
		return models.PointTransaction{}, models.ErrInsufficientBalance
	}
	r.balances[entry.UserID] = balanceAfter

	entry.ID = uuid.NewString()
	entry.BalanceAfter = balanceAfter
	entry.CreatedAt = time.Now()
	r.transactions = append(r.transactions, entry)
	return entry, nil
}

func (r *MemoryLedgerRepository) GetBalance(ctx context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.balances[userID], nil
}

func (r *MemoryLedgerRepository) ListByUser(ctx context.Context, userID string) ([]models.PointTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var history []models.PointTransaction
	for i := len(r.transactions) - 1; i >= 0; i-- {
		if r.transactions[i].UserID == userID {
			history = append(history, r.transactions[i])
		}
	}
	return history, nil
}
