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

type ContactViewRepository struct {
	DB *sql.DB
}

func (r *ContactViewRepository) Create(ctx context.Context, cv models.ContactView) (models.ContactView, error) {
	cv.ID = uuid.NewString()
	cv.CreatedAt = time.Now()
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO contact_views
			(id, post_id, buyer_id, seller_id, deducted_points, copied, copied_at,
			 confirm_status, confirm_payload, confirm_deadline, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), $10, $11)
	`,
		cv.ID, cv.PostID, cv.BuyerID, cv.SellerID, cv.DeductedPoints, cv.Copied, cv.CopiedAt,
		cv.ConfirmStatus, cv.ConfirmPayload, cv.ConfirmDeadline, cv.CreatedAt,
	)
	if err != nil {
		return models.ContactView{}, err
	}
	return cv, nil
}

func (r *ContactViewRepository) FindByID(ctx context.Context, id string) (models.ContactView, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, post_id, buyer_id, seller_id, deducted_points, copied, copied_at,
		       confirm_status, COALESCE(confirm_payload, ''), confirm_deadline, created_at
		FROM contact_views WHERE id = $1
	`, id)
	cv, err := scanContactView(row)
	if err == sql.ErrNoRows {
		return models.ContactView{}, models.ErrContactViewNotFound
	}
	if err != nil {
		return models.ContactView{}, err
	}
	return cv, nil
}

func (r *ContactViewRepository) Update(ctx context.Context, cv models.ContactView) error {
	result, err := r.DB.ExecContext(ctx, `
		UPDATE contact_views
		SET confirm_status = $1, confirm_payload = NULLIF($2, ''), confirm_deadline = $3,
		    copied = $4, copied_at = $5
		WHERE id = $6
	`, cv.ConfirmStatus, cv.ConfirmPayload, cv.ConfirmDeadline, cv.Copied, cv.CopiedAt, cv.ID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return models.ErrContactViewNotFound
	}
	return nil
}

// ListPendingConfirmations returns pending records whose confirm deadline
// has passed.
func (r *ContactViewRepository) ListPendingConfirmations(ctx context.Context, now time.Time) ([]models.ContactView, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, post_id, buyer_id, seller_id, deducted_points, copied, copied_at,
		       confirm_status, COALESCE(confirm_payload, ''), confirm_deadline, created_at
		FROM contact_views
		WHERE confirm_status = 'pending' AND confirm_deadline <= $1
		ORDER BY confirm_deadline ASC
	`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var due []models.ContactView
	for rows.Next() {
		cv, err := scanContactView(rows)
		if err != nil {
			return nil, err
		}
		due = append(due, cv)
	}
	return due, rows.Err()
}

func (r *ContactViewRepository) ListByPost(ctx context.Context, postID string) ([]models.ContactView, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, post_id, buyer_id, seller_id, deducted_points, copied, copied_at,
		       confirm_status, COALESCE(confirm_payload, ''), confirm_deadline, created_at
		FROM contact_views WHERE post_id = $1
		ORDER BY created_at DESC
	`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var views []models.ContactView
	for rows.Next() {
		cv, err := scanContactView(rows)
		if err != nil {
			return nil, err
		}
		views = append(views, cv)
	}
	return views, rows.Err()
}

func scanContactView(row rowScanner) (models.ContactView, error) {
	var cv models.ContactView
	err := row.Scan(
		&cv.ID, &cv.PostID, &cv.BuyerID, &cv.SellerID, &cv.DeductedPoints, &cv.Copied, &cv.CopiedAt,
		&cv.ConfirmStatus, &cv.ConfirmPayload, &cv.ConfirmDeadline, &cv.CreatedAt,
	)
	if err != nil {
		return models.ContactView{}, err
	}
	return cv, nil
}

// DealStatRepository keeps the per-listing aggregate of confirmed deals.
type DealStatRepository struct {
	DB *sql.DB
}

func (r *DealStatRepository) Increment(ctx context.Context, postID, sellerID string) (models.DealStat, error) {
	var stat models.DealStat
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO deal_stats (post_id, seller_id, total_deals, updated_at)
		VALUES ($1, $2, 1, NOW())
		ON CONFLICT (post_id) DO UPDATE SET
			total_deals = deal_stats.total_deals + 1,
			updated_at = NOW()
		RETURNING post_id, seller_id, total_deals, updated_at
	`, postID, sellerID).Scan(&stat.PostID, &stat.SellerID, &stat.TotalDeals, &stat.UpdatedAt)
	if err != nil {
		return models.DealStat{}, err
	}
	return stat, nil
}

func (r *DealStatRepository) Get(ctx context.Context, postID string) (models.DealStat, error) {
	var stat models.DealStat
	err := r.DB.QueryRowContext(ctx, `
		SELECT post_id, seller_id, total_deals, updated_at FROM deal_stats WHERE post_id = $1
	`, postID).Scan(&stat.PostID, &stat.SellerID, &stat.TotalDeals, &stat.UpdatedAt)
	if err == sql.ErrNoRows {
		return models.DealStat{PostID: postID}, nil
	}
	if err != nil {
		return models.DealStat{}, err
	}
	return stat, nil
}

// Memory counterparts.

type MemoryContactViewRepository struct {
	mu    sync.RWMutex
	views map[string]models.ContactView
}

func NewMemoryContactViewRepository() *MemoryContactViewRepository {
	return &MemoryContactViewRepository{views: make(map[string]models.ContactView)}
}

func (r *MemoryContactViewRepository) Create(ctx context.Context, cv models.ContactView) (models.ContactView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cv.ID = uuid.NewString()
	cv.CreatedAt = time.Now()
	r.views[cv.ID] = cv
	return cv, nil
}

func (r *MemoryContactViewRepository) FindByID(ctx context.Context, id string) (models.ContactView, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cv, ok := r.views[id]
	if !ok {
		return models.ContactView{}, models.ErrContactViewNotFound
	}
	return cv, nil
}

func (r *MemoryContactViewRepository) Update(ctx context.Context, cv models.ContactView) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.views[cv.ID]; !ok {
		return models.ErrContactViewNotFound
	}
	r.views[cv.ID] = cv
	return nil
}

func (r *MemoryContactViewRepository) ListPendingConfirmations(ctx context.Context, now time.Time) ([]models.ContactView, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var due []models.ContactView
	for _, cv := range r.views {
		if cv.ConfirmStatus == models.ConfirmStatusPending && !cv.ConfirmDeadline.After(now) {
			due = append(due, cv)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].ConfirmDeadline.Before(due[j].ConfirmDeadline) })
	return due, nil
}

func (r *MemoryContactViewRepository) ListByPost(ctx context.Context, postID string) ([]models.ContactView, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var views []models.ContactView
	for _, cv := range r.views {
		if cv.PostID == postID {
			views = append(views, cv)
		}
	}
	sort.Slice(views, func(i, j int) bool { return views[i].CreatedAt.After(views[j].CreatedAt) })
	return views, nil
}

type MemoryDealStatRepository struct {
	mu    sync.Mutex
	stats map[string]models.DealStat
}

func NewMemoryDealStatRepository() *MemoryDealStatRepository {
	return &MemoryDealStatRepository{stats: make(map[string]models.DealStat)}
}

func (r *MemoryDealStatRepository) Increment(ctx context.Context, postID, sellerID string) (models.DealStat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stat, ok := r.stats[postID]
	if !ok {
		stat = models.DealStat{PostID: postID, SellerID: sellerID}
	}
	stat.TotalDeals++
	stat.UpdatedAt = time.Now()
	r.stats[postID] = stat
	return stat, nil
}

func (r *MemoryDealStatRepository) Get(ctx context.Context, postID string) (models.DealStat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stat, ok := r.stats[postID]
	if !ok {
		return models.DealStat{PostID: postID}, nil
	}
	return stat, nil
}
