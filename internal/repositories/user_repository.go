package repositories

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"tradepost/internal/models"
)

type UserRepository struct {
	DB *sql.DB
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	var u models.User
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, COALESCE(phone, ''), COALESCE(wechat, ''), points, status, created_at, updated_at
		FROM users WHERE id = $1
	`, id).Scan(&u.ID, &u.Phone, &u.Wechat, &u.Points, &u.Status, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return models.User{}, models.ErrUserNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	return u, nil
}

type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]models.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]models.User)}
}

func (r *MemoryUserRepository) Put(u models.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
		u.UpdatedAt = u.CreatedAt
	}
	r.users[u.ID] = u
}

func (r *MemoryUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return models.User{}, models.ErrUserNotFound
	}
	return u, nil
}
