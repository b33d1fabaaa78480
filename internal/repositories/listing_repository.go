package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"tradepost/internal/models"
)

type ListingRepository struct {
	DB *sql.DB
}

func (r *ListingRepository) Save(ctx context.Context, l models.Listing) (models.Listing, error) {
	keywords, err := json.Marshal(l.Keywords)
	if err != nil {
		return models.Listing{}, err
	}
	l.UpdatedAt = time.Now()
	if l.CreatedAt.IsZero() {
		l.CreatedAt = l.UpdatedAt
	}

	_, err = r.DB.ExecContext(ctx, `
		INSERT INTO listings
			(id, user_id, title, description, price, trade_type, keywords, ai_summary,
			 remaining_views, view_limit, total_deals, status, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			price = EXCLUDED.price,
			trade_type = EXCLUDED.trade_type,
			keywords = EXCLUDED.keywords,
			ai_summary = EXCLUDED.ai_summary,
			remaining_views = EXCLUDED.remaining_views,
			view_limit = EXCLUDED.view_limit,
			total_deals = EXCLUDED.total_deals,
			status = EXCLUDED.status,
			expires_at = EXCLUDED.expires_at,
			updated_at = EXCLUDED.updated_at
	`,
		l.ID, l.UserID, l.Title, l.Description, l.Price, l.TradeType, keywords, l.AISummary,
		l.RemainingViews, l.ViewLimit, l.TotalDeals, l.Status, l.ExpiresAt, l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		return models.Listing{}, err
	}
	return l, nil
}

func (r *ListingRepository) FindByID(ctx context.Context, id string) (models.Listing, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, user_id, title, description, price, trade_type, keywords, ai_summary,
		       remaining_views, view_limit, total_deals, status, expires_at, created_at, updated_at
		FROM listings WHERE id = $1
	`, id)
	l, err := scanListing(row)
	if err == sql.ErrNoRows {
		return models.Listing{}, models.ErrListingNotFound
	}
	if err != nil {
		return models.Listing{}, err
	}
	return l, nil
}

func (r *ListingRepository) ListActive(ctx context.Context) ([]models.Listing, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, user_id, title, description, price, trade_type, keywords, ai_summary,
		       remaining_views, view_limit, total_deals, status, expires_at, created_at, updated_at
		FROM listings WHERE status = 'active'
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var listings []models.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

func (r *ListingRepository) IncrementDeals(ctx context.Context, id string) error {
	result, err := r.DB.ExecContext(ctx,
		`UPDATE listings SET total_deals = total_deals + 1, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return models.ErrListingNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanListing(row rowScanner) (models.Listing, error) {
	var l models.Listing
	var keywords []byte
	err := row.Scan(
		&l.ID, &l.UserID, &l.Title, &l.Description, &l.Price, &l.TradeType, &keywords, &l.AISummary,
		&l.RemainingViews, &l.ViewLimit, &l.TotalDeals, &l.Status, &l.ExpiresAt, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return models.Listing{}, err
	}
	if len(keywords) > 0 {
		if err := json.Unmarshal(keywords, &l.Keywords); err != nil {
			return models.Listing{}, err
		}
	}
	return l, nil
}

// MemoryListingRepository is the in-memory counterpart used by tests and
// DB-less runs.
type MemoryListingRepository struct {
	mu       sync.RWMutex
	listings map[string]models.Listing
}

func NewMemoryListingRepository() *MemoryListingRepository {
	return &MemoryListingRepository{listings: make(map[string]models.Listing)}
}

func (r *MemoryListingRepository) Save(ctx context.Context, l models.Listing) (models.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l.UpdatedAt = time.Now()
	if l.CreatedAt.IsZero() {
		l.CreatedAt = l.UpdatedAt
	}
	r.listings[l.ID] = l
	return l, nil
}

func (r *MemoryListingRepository) FindByID(ctx context.Context, id string) (models.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.listings[id]
	if !ok {
		return models.Listing{}, models.ErrListingNotFound
	}
	return l, nil
}

func (r *MemoryListingRepository) ListActive(ctx context.Context) ([]models.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var active []models.Listing
	for _, l := range r.listings {
		if l.Status == models.ListingStatusActive {
			active = append(active, l)
		}
	}
	// map iteration order is random; keep scans deterministic
	sort.Slice(active, func(i, j int) bool { return active[i].ID < active[j].ID })
	return active, nil
}

func (r *MemoryListingRepository) IncrementDeals(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.listings[id]
	if !ok {
		return models.ErrListingNotFound
	}
	l.TotalDeals++
	l.UpdatedAt = time.Now()
	r.listings[id] = l
	return nil
}
