package services

import (
	"context"
	"log"
	"math"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"tradepost/internal/events"
	"tradepost/internal/models"
)

const (
	publishCost   = 10
	viewLimit     = 10
	lifetimeHours = 72
)

// PointsSource charges and compensates a user's points balance.
type PointsSource interface {
	Deduct(ctx context.Context, userID string, amount int, changeType, description, referenceID string) error
	Refund(ctx context.Context, userID string, amount int, description, referenceID string) error
}

// Enricher derives extra keywords and a short summary from listing text.
// Callers treat a failure as soft and publish without the enrichment.
type Enricher interface {
	Enrich(ctx context.Context, title, description string) (models.Enrichment, error)
}

type ListingRepository interface {
	Save(ctx context.Context, l models.Listing) (models.Listing, error)
	FindByID(ctx context.Context, id string) (models.Listing, error)
	ListActive(ctx context.Context) ([]models.Listing, error)
	IncrementDeals(ctx context.Context, id string) error
}

type ListingService struct {
	ListingRepo ListingRepository
	Points      PointsSource
	AI          Enricher
	Events      *events.Bus
	ErrorLog    *log.Logger
}

func validateCreateListingInput(input models.CreateListingInput) error {
	// Character counts, not bytes: Chinese titles are the norm here.
	if n := utf8.RuneCountInString(input.Title); n < 6 || n > 60 {
		return models.NewValidationError("title", "must be 6-60 characters")
	}
	if n := utf8.RuneCountInString(input.Description); n < 10 || n > 500 {
		return models.NewValidationError("description", "must be 10-500 characters")
	}
	if math.IsNaN(input.Price) || math.IsInf(input.Price, 0) || input.Price <= 0 {
		return models.NewValidationError("price", "must be a positive finite number")
	}
	switch input.TradeType {
	case models.TradeTypeBuy, models.TradeTypeSell, models.TradeTypeTrade, models.TradeTypeOther:
	default:
		return models.NewValidationError("trade_type", "must be one of buy, sell, trade, other")
	}
	if len(input.Keywords) > 5 {
		return models.NewValidationError("keywords", "at most 5 allowed")
	}
	return nil
}

// Publish validates the input, charges the publish fee and stores a fresh
// active listing. The charge happens before the store write; if the write
// fails afterwards the fee is refunded so the user is never left charged for
// a listing that does not exist.
func (s *ListingService) Publish(ctx context.Context, input models.CreateListingInput) (models.Listing, error) {
	if err := validateCreateListingInput(input); err != nil {
		return models.Listing{}, err
	}

	id := uuid.NewString()
	if err := s.Points.Deduct(ctx, input.UserID, publishCost, models.ChangeTypePublish, "listing publish fee", id); err != nil {
		return models.Listing{}, err
	}

	keywords := append([]string(nil), input.Keywords...)
	var summary string
	if input.AIAssist && s.AI != nil {
		if enriched, err := s.AI.Enrich(ctx, input.Title, input.Description); err == nil {
			keywords = mergeKeywords(keywords, enriched.Keywords)
			summary = enriched.Summary
		} else if s.ErrorLog != nil {
			s.ErrorLog.Printf("listing %s: enrichment failed, publishing without it: %v", id, err)
		}
	}

	now := time.Now()
	listing, err := s.ListingRepo.Save(ctx, models.Listing{
		ID:             id,
		UserID:         input.UserID,
		Title:          input.Title,
		Description:    input.Description,
		Price:          input.Price,
		TradeType:      input.TradeType,
		Keywords:       keywords,
		AISummary:      summary,
		RemainingViews: viewLimit,
		ViewLimit:      viewLimit,
		TotalDeals:     0,
		Status:         models.ListingStatusActive,
		ExpiresAt:      now.Add(lifetimeHours * time.Hour),
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		s.refund(ctx, input.UserID, id)
		return models.Listing{}, err
	}

	if s.Events != nil {
		s.Events.Emit(events.ListingPublished, events.Payload{"id": listing.ID, "user_id": listing.UserID})
	}
	return listing, nil
}

// Republish re-charges the publish fee and resets the listing's counters and
// expiry, reactivating it even when it already expired.
func (s *ListingService) Republish(ctx context.Context, id, userID string) (models.Listing, error) {
	listing, err := s.ListingRepo.FindByID(ctx, id)
	if err != nil {
		return models.Listing{}, err
	}
	if listing.UserID != userID {
		return models.Listing{}, models.ErrPermissionDenied
	}

	if err := s.Points.Deduct(ctx, userID, publishCost, models.ChangeTypeRepublish, "listing republish fee", id); err != nil {
		return models.Listing{}, err
	}

	listing.Status = models.ListingStatusActive
	listing.RemainingViews = viewLimit
	listing.ViewLimit = viewLimit
	listing.ExpiresAt = time.Now().Add(lifetimeHours * time.Hour)

	saved, err := s.ListingRepo.Save(ctx, listing)
	if err != nil {
		s.refund(ctx, userID, id)
		return models.Listing{}, err
	}

	if s.Events != nil {
		s.Events.Emit(events.ListingRepublished, events.Payload{"id": saved.ID, "user_id": saved.UserID})
	}
	return saved, nil
}

// ExpireOverdue flips every active listing that has passed its expiry or run
// out of views. A listing that fails to save is logged and skipped so one
// bad record cannot abort the sweep.
func (s *ListingService) ExpireOverdue(ctx context.Context, now time.Time) (int, error) {
	active, err := s.ListingRepo.ListActive(ctx)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, listing := range active {
		if listing.ExpiresAt.After(now) && listing.RemainingViews > 0 {
			continue
		}
		listing.Status = models.ListingStatusExpired
		if _, err := s.ListingRepo.Save(ctx, listing); err != nil {
			if s.ErrorLog != nil {
				s.ErrorLog.Printf("listing %s: expire failed: %v", listing.ID, err)
			}
			continue
		}
		if s.Events != nil {
			s.Events.Emit(events.ListingExpired, events.Payload{"id": listing.ID, "user_id": listing.UserID})
		}
		expired++
	}
	return expired, nil
}

func (s *ListingService) refund(ctx context.Context, userID, listingID string) {
	if err := s.Points.Refund(ctx, userID, publishCost, "publish refund", listingID); err != nil && s.ErrorLog != nil {
		s.ErrorLog.Printf("listing %s: refund after failed save also failed: %v", listingID, err)
	}
}

func mergeKeywords(base, extra []string) []string {
	seen := make(map[string]bool, len(base)+len(extra))
	merged := make([]string, 0, len(base)+len(extra))
	for _, k := range base {
		if !seen[k] {
			seen[k] = true
			merged = append(merged, k)
		}
	}
	for _, k := range extra {
		if !seen[k] {
			seen[k] = true
			merged = append(merged, k)
		}
	}
	return merged
}
