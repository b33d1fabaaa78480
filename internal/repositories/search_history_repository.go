package repositories

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const maxSearchHistory = 10

// RedisSearchHistoryRepository keeps each user's recent search keywords in a
// redis list, most recent first, capped at maxSearchHistory. Re-recording a
// keyword moves it to the front.
type RedisSearchHistoryRepository struct {
	Client *redis.Client
}

func NewRedisClient(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

func historyKey(userID string) string {
	return "search:history:" + userID
}

func (r *RedisSearchHistoryRepository) Record(ctx context.Context, userID, keyword string) error {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil
	}
	key := historyKey(userID)
	pipe := r.Client.TxPipeline()
	pipe.LRem(ctx, key, 0, keyword)
	pipe.LPush(ctx, key, keyword)
	pipe.LTrim(ctx, key, 0, maxSearchHistory-1)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *RedisSearchHistoryRepository) History(ctx context.Context, userID string) ([]string, error) {
	entries, err := r.Client.LRange(ctx, historyKey(userID), 0, maxSearchHistory-1).Result()
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *RedisSearchHistoryRepository) Clear(ctx context.Context, userID string) error {
	return r.Client.Del(ctx, historyKey(userID)).Err()
}

type MemorySearchHistoryRepository struct {
	mu      sync.Mutex
	entries map[string][]string
}

func NewMemorySearchHistoryRepository() *MemorySearchHistoryRepository {
	return &MemorySearchHistoryRepository{entries: make(map[string][]string)}
}

func (r *MemorySearchHistoryRepository) Record(ctx context.Context, userID, keyword string) error {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	current := r.entries[userID]
	next := make([]string, 0, len(current)+1)
	next = append(next, keyword)
	for _, entry := range current {
		if entry != keyword {
			next = append(next, entry)
		}
	}
	if len(next) > maxSearchHistory {
		next = next[:maxSearchHistory]
	}
	r.entries[userID] = next
	return nil
}

func (r *MemorySearchHistoryRepository) History(ctx context.Context, userID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.entries[userID]...), nil
}

func (r *MemorySearchHistoryRepository) Clear(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, userID)
	return nil
}
